// internal/service/composite.go
package service

import (
	"context"
	"fmt"
	"sync"

	"hr-assistant/internal/cache"
	apperrors "hr-assistant/internal/common/errors"
	"hr-assistant/internal/models"
)

// Composed results join several collections for one logical question. The
// root record is required; the dependent pieces are fetched in parallel and
// a failing piece is logged and omitted rather than failing the composite.

// EmployeeProfile is the full picture of one employee.
type EmployeeProfile struct {
	Employee     models.Employee      `json:"employee"`
	Manager      *models.Employee     `json:"manager,omitempty"`
	Shifts       []models.Shift       `json:"shifts,omitempty"`
	Tasks        []models.Task        `json:"tasks,omitempty"`
	Recognitions []models.Recognition `json:"recognitions,omitempty"`
}

// ManagerDashboard is a manager's team view.
type ManagerDashboard struct {
	Manager    models.Employee   `json:"manager"`
	Reports    []models.Employee `json:"reports"`
	TeamShifts []models.Shift    `json:"teamShifts,omitempty"`
	OpenTasks  []models.Task     `json:"openTasks,omitempty"`
}

// JobPostingDetail joins a posting with its hiring manager and pipeline.
type JobPostingDetail struct {
	Job           models.Job         `json:"job"`
	HiringManager *models.Employee   `json:"hiringManager,omitempty"`
	Candidates    []models.Candidate `json:"candidates"`
}

// GetEmployeeProfile composes the employee with their manager, shifts,
// tasks, and recognitions.
func (s *Service) GetEmployeeProfile(ctx context.Context, employeeID string) (*EmployeeProfile, error) {
	key := cache.QueryKey("employee_profile", employeeID)
	return cachedFetch(ctx, s, CategoryQuery, key, s.queryTTL, func(ctx context.Context) (*EmployeeProfile, error) {
		emp, err := s.employeeByID(ctx, employeeID)
		if err != nil {
			return nil, err
		}

		profile := &EmployeeProfile{Employee: *emp}

		var wg sync.WaitGroup
		var mu sync.Mutex
		s.fanOut(ctx, &wg, "manager", func(ctx context.Context) error {
			if emp.ManagerID == "" {
				return nil
			}
			mgr, err := s.employeeByID(ctx, emp.ManagerID)
			if err != nil {
				return err
			}
			mu.Lock()
			profile.Manager = mgr
			mu.Unlock()
			return nil
		})
		s.fanOut(ctx, &wg, "shifts", func(ctx context.Context) error {
			shifts, err := s.ShiftsForEmployee(ctx, employeeID, "", "")
			if err != nil {
				return err
			}
			mu.Lock()
			profile.Shifts = shifts
			mu.Unlock()
			return nil
		})
		s.fanOut(ctx, &wg, "tasks", func(ctx context.Context) error {
			tasks, err := s.TasksForEmployee(ctx, employeeID)
			if err != nil {
				return err
			}
			mu.Lock()
			profile.Tasks = tasks
			mu.Unlock()
			return nil
		})
		s.fanOut(ctx, &wg, "recognitions", func(ctx context.Context) error {
			recs, err := s.RecognitionsForEmployee(ctx, employeeID)
			if err != nil {
				return err
			}
			mu.Lock()
			profile.Recognitions = recs
			mu.Unlock()
			return nil
		})
		wg.Wait()

		return profile, nil
	})
}

// GetManagerDashboard composes a manager's direct reports with the team's
// shifts and outstanding tasks.
func (s *Service) GetManagerDashboard(ctx context.Context, managerID string) (*ManagerDashboard, error) {
	key := cache.QueryKey("manager_dashboard", managerID)
	return cachedFetch(ctx, s, CategoryQuery, key, s.queryTTL, func(ctx context.Context) (*ManagerDashboard, error) {
		mgr, err := s.employeeByID(ctx, managerID)
		if err != nil {
			return nil, err
		}
		reports, err := s.EmployeesByManager(ctx, managerID)
		if err != nil {
			return nil, err
		}

		dash := &ManagerDashboard{Manager: *mgr, Reports: reports}
		reportIDs := make(map[string]bool, len(reports))
		for _, r := range reports {
			reportIDs[r.ID] = true
		}

		var wg sync.WaitGroup
		var mu sync.Mutex
		s.fanOut(ctx, &wg, "team shifts", func(ctx context.Context) error {
			all, err := s.Shifts(ctx)
			if err != nil {
				return err
			}
			team := make([]models.Shift, 0)
			for _, sh := range all {
				if reportIDs[sh.EmployeeID] {
					team = append(team, sh)
				}
			}
			sortShifts(team)
			mu.Lock()
			dash.TeamShifts = team
			mu.Unlock()
			return nil
		})
		s.fanOut(ctx, &wg, "open tasks", func(ctx context.Context) error {
			all, err := s.Tasks(ctx)
			if err != nil {
				return err
			}
			open := make([]models.Task, 0)
			for _, t := range all {
				if reportIDs[t.EmployeeID] && t.Status != models.TaskStatusCompleted {
					open = append(open, t)
				}
			}
			mu.Lock()
			dash.OpenTasks = open
			mu.Unlock()
			return nil
		})
		wg.Wait()

		return dash, nil
	})
}

// GetJobPostingDetail composes a posting with its hiring manager and
// candidate pipeline.
func (s *Service) GetJobPostingDetail(ctx context.Context, jobID string) (*JobPostingDetail, error) {
	key := cache.QueryKey("job_posting_detail", jobID)
	return cachedFetch(ctx, s, CategoryQuery, key, s.queryTTL, func(ctx context.Context) (*JobPostingDetail, error) {
		rec, err := s.GetByID(ctx, models.KindJobs, jobID)
		if err != nil {
			return nil, err
		}
		if rec == nil {
			return nil, apperrors.NewRecordNotFound(string(models.KindJobs), jobID)
		}
		job, ok := rec.(models.Job)
		if !ok {
			return nil, apperrors.NewDataLoadError(string(models.KindJobs), fmt.Errorf("unexpected record type %T", rec))
		}

		detail := &JobPostingDetail{Job: job, Candidates: []models.Candidate{}}

		var wg sync.WaitGroup
		var mu sync.Mutex
		s.fanOut(ctx, &wg, "hiring manager", func(ctx context.Context) error {
			if job.HiringManagerID == "" {
				return nil
			}
			mgr, err := s.employeeByID(ctx, job.HiringManagerID)
			if err != nil {
				return err
			}
			mu.Lock()
			detail.HiringManager = mgr
			mu.Unlock()
			return nil
		})
		s.fanOut(ctx, &wg, "candidates", func(ctx context.Context) error {
			cands, err := s.CandidatesForJob(ctx, jobID)
			if err != nil {
				return err
			}
			mu.Lock()
			detail.Candidates = cands
			mu.Unlock()
			return nil
		})
		wg.Wait()

		return detail, nil
	})
}

// fanOut runs one dependent sub-fetch. Failure is logged and the composite
// continues without that piece.
func (s *Service) fanOut(ctx context.Context, wg *sync.WaitGroup, piece string, fn func(context.Context) error) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := fn(ctx); err != nil {
			s.logger.Warn("composite sub-fetch failed, omitting piece", map[string]interface{}{
				"piece": piece,
				"error": err.Error(),
			})
		}
	}()
}

func (s *Service) employeeByID(ctx context.Context, id string) (*models.Employee, error) {
	rec, err := s.GetByID(ctx, models.KindEmployees, id)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, apperrors.NewRecordNotFound(string(models.KindEmployees), id)
	}
	emp, ok := rec.(models.Employee)
	if !ok {
		return nil, apperrors.NewDataLoadError(string(models.KindEmployees), fmt.Errorf("unexpected record type %T", rec))
	}
	return &emp, nil
}
