// internal/service/views.go
package service

import (
	"context"
	"sort"
	"strings"

	"hr-assistant/internal/cache"
	"hr-assistant/internal/models"
)

// Filtered views derive from the cached collections and are memoized under
// their own keys so repeated identical lookups skip the filter pass. Date
// scoped views use the shorter TTL: "this week" drifts as the week advances.

func (s *Service) EmployeesByDepartment(ctx context.Context, department string) ([]models.Employee, error) {
	key := cache.FilterKey(string(models.KindEmployees), "department="+strings.ToLower(department))
	return cachedFetch(ctx, s, CategoryRelationships, key, s.referenceTTL, func(ctx context.Context) ([]models.Employee, error) {
		all, err := s.Employees(ctx)
		if err != nil {
			return nil, err
		}
		out := make([]models.Employee, 0)
		for _, e := range all {
			if strings.EqualFold(e.Department, department) {
				out = append(out, e)
			}
		}
		return out, nil
	})
}

func (s *Service) EmployeesByManager(ctx context.Context, managerID string) ([]models.Employee, error) {
	key := cache.FilterKey(string(models.KindEmployees), "manager="+managerID)
	return cachedFetch(ctx, s, CategoryRelationships, key, s.referenceTTL, func(ctx context.Context) ([]models.Employee, error) {
		all, err := s.Employees(ctx)
		if err != nil {
			return nil, err
		}
		out := make([]models.Employee, 0)
		for _, e := range all {
			if e.ManagerID == managerID {
				out = append(out, e)
			}
		}
		return out, nil
	})
}

func (s *Service) JobsByStatus(ctx context.Context, status string) ([]models.Job, error) {
	key := cache.FilterKey(string(models.KindJobs), "status="+strings.ToLower(status))
	return cachedFetch(ctx, s, CategoryRelationships, key, s.referenceTTL, func(ctx context.Context) ([]models.Job, error) {
		all, err := s.Jobs(ctx)
		if err != nil {
			return nil, err
		}
		out := make([]models.Job, 0)
		for _, j := range all {
			if strings.EqualFold(j.Status, status) {
				out = append(out, j)
			}
		}
		return out, nil
	})
}

func (s *Service) CandidatesByStage(ctx context.Context, stage string) ([]models.Candidate, error) {
	key := cache.FilterKey(string(models.KindCandidates), "stage="+strings.ToLower(stage))
	return cachedFetch(ctx, s, CategoryRelationships, key, s.referenceTTL, func(ctx context.Context) ([]models.Candidate, error) {
		all, err := s.Candidates(ctx)
		if err != nil {
			return nil, err
		}
		out := make([]models.Candidate, 0)
		for _, c := range all {
			if strings.EqualFold(c.Stage, stage) {
				out = append(out, c)
			}
		}
		return out, nil
	})
}

func (s *Service) CandidatesForJob(ctx context.Context, jobID string) ([]models.Candidate, error) {
	key := cache.FilterKey(string(models.KindCandidates), "job="+jobID)
	return cachedFetch(ctx, s, CategoryRelationships, key, s.referenceTTL, func(ctx context.Context) ([]models.Candidate, error) {
		all, err := s.Candidates(ctx)
		if err != nil {
			return nil, err
		}
		out := make([]models.Candidate, 0)
		for _, c := range all {
			if c.JobID == jobID {
				out = append(out, c)
			}
		}
		return out, nil
	})
}

// ShiftsForEmployee returns an employee's shifts, optionally bounded to an
// inclusive ISO date range. Pass empty strings for an unbounded side.
func (s *Service) ShiftsForEmployee(ctx context.Context, employeeID, from, to string) ([]models.Shift, error) {
	ttl := s.operationalTTL
	pairs := []string{"employee=" + employeeID}
	if from != "" || to != "" {
		ttl = s.dateScopedTTL
		pairs = append(pairs, "from="+from, "to="+to)
	}
	key := cache.FilterKey(string(models.KindShifts), pairs...)
	return cachedFetch(ctx, s, CategoryRelationships, key, ttl, func(ctx context.Context) ([]models.Shift, error) {
		all, err := s.Shifts(ctx)
		if err != nil {
			return nil, err
		}
		out := make([]models.Shift, 0)
		for _, sh := range all {
			if sh.EmployeeID != employeeID || !dateInRange(sh.Date, from, to) {
				continue
			}
			out = append(out, sh)
		}
		sortShifts(out)
		return out, nil
	})
}

// ShiftsInRange returns every shift in an inclusive ISO date range, any
// employee.
func (s *Service) ShiftsInRange(ctx context.Context, from, to string) ([]models.Shift, error) {
	key := cache.FilterKey(string(models.KindShifts), "from="+from, "to="+to)
	return cachedFetch(ctx, s, CategoryRelationships, key, s.dateScopedTTL, func(ctx context.Context) ([]models.Shift, error) {
		all, err := s.Shifts(ctx)
		if err != nil {
			return nil, err
		}
		out := make([]models.Shift, 0)
		for _, sh := range all {
			if dateInRange(sh.Date, from, to) {
				out = append(out, sh)
			}
		}
		sortShifts(out)
		return out, nil
	})
}

func (s *Service) TasksForEmployee(ctx context.Context, employeeID string) ([]models.Task, error) {
	key := cache.FilterKey(string(models.KindTasks), "employee="+employeeID)
	return cachedFetch(ctx, s, CategoryRelationships, key, s.operationalTTL, func(ctx context.Context) ([]models.Task, error) {
		all, err := s.Tasks(ctx)
		if err != nil {
			return nil, err
		}
		out := make([]models.Task, 0)
		for _, t := range all {
			if t.EmployeeID == employeeID {
				out = append(out, t)
			}
		}
		return out, nil
	})
}

func (s *Service) TasksByStatus(ctx context.Context, status string) ([]models.Task, error) {
	key := cache.FilterKey(string(models.KindTasks), "status="+strings.ToLower(status))
	return cachedFetch(ctx, s, CategoryRelationships, key, s.operationalTTL, func(ctx context.Context) ([]models.Task, error) {
		all, err := s.Tasks(ctx)
		if err != nil {
			return nil, err
		}
		out := make([]models.Task, 0)
		for _, t := range all {
			if strings.EqualFold(t.Status, status) {
				out = append(out, t)
			}
		}
		return out, nil
	})
}

func (s *Service) RecognitionsForEmployee(ctx context.Context, employeeID string) ([]models.Recognition, error) {
	key := cache.FilterKey(string(models.KindRecognitions), "employee="+employeeID)
	return cachedFetch(ctx, s, CategoryRelationships, key, s.operationalTTL, func(ctx context.Context) ([]models.Recognition, error) {
		all, err := s.Recognitions(ctx)
		if err != nil {
			return nil, err
		}
		out := make([]models.Recognition, 0)
		for _, r := range all {
			if r.EmployeeID == employeeID {
				out = append(out, r)
			}
		}
		return out, nil
	})
}

// ISO dates (YYYY-MM-DD) compare correctly as strings.
func dateInRange(date, from, to string) bool {
	if from != "" && date < from {
		return false
	}
	if to != "" && date > to {
		return false
	}
	return true
}

func sortShifts(shifts []models.Shift) {
	sort.Slice(shifts, func(i, j int) bool {
		if shifts[i].Date != shifts[j].Date {
			return shifts[i].Date < shifts[j].Date
		}
		return shifts[i].StartTime < shifts[j].StartTime
	})
}
