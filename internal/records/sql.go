// internal/records/sql.go
package records

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	apperrors "hr-assistant/internal/common/errors"
	"hr-assistant/internal/models"
)

// SQLSource loads collections from PostgreSQL. One table per kind, scanned
// into the typed variants.
type SQLSource struct {
	db *sql.DB
}

func NewSQLSource(db *sql.DB) *SQLSource {
	return &SQLSource{db: db}
}

func (s *SQLSource) LoadAll(ctx context.Context, kind models.RecordKind) ([]models.Record, error) {
	switch kind {
	case models.KindEmployees:
		return s.loadEmployees(ctx)
	case models.KindJobs:
		return s.loadJobs(ctx)
	case models.KindCandidates:
		return s.loadCandidates(ctx)
	case models.KindShifts:
		return s.loadShifts(ctx)
	case models.KindTasks:
		return s.loadTasks(ctx)
	case models.KindRecognitions:
		return s.loadRecognitions(ctx)
	}
	return nil, apperrors.NewDataLoadError(string(kind), fmt.Errorf("unknown record kind"))
}

func (s *SQLSource) loadEmployees(ctx context.Context) ([]models.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, department, role, COALESCE(email, ''), COALESCE(manager_id, ''),
		        COALESCE(location, ''), COALESCE(skills, '{}'), status
		 FROM employees ORDER BY id`)
	if err != nil {
		return nil, apperrors.NewDataLoadError(string(models.KindEmployees), err)
	}
	defer rows.Close()

	var out []models.Record
	for rows.Next() {
		var e models.Employee
		if err := rows.Scan(&e.ID, &e.Name, &e.Department, &e.Role, &e.Email,
			&e.ManagerID, &e.Location, pq.Array(&e.Skills), &e.Status); err != nil {
			return nil, apperrors.NewDataLoadError(string(models.KindEmployees), err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewDataLoadError(string(models.KindEmployees), err)
	}
	return out, nil
}

func (s *SQLSource) loadJobs(ctx context.Context) ([]models.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, department, status, COALESCE(location, ''),
		        COALESCE(hiring_manager_id, ''), COALESCE(posted_date, ''), COALESCE(skills, '{}')
		 FROM jobs ORDER BY id`)
	if err != nil {
		return nil, apperrors.NewDataLoadError(string(models.KindJobs), err)
	}
	defer rows.Close()

	var out []models.Record
	for rows.Next() {
		var j models.Job
		if err := rows.Scan(&j.ID, &j.Title, &j.Department, &j.Status, &j.Location,
			&j.HiringManagerID, &j.PostedDate, pq.Array(&j.Skills)); err != nil {
			return nil, apperrors.NewDataLoadError(string(models.KindJobs), err)
		}
		out = append(out, j)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewDataLoadError(string(models.KindJobs), err)
	}
	return out, nil
}

func (s *SQLSource) loadCandidates(ctx context.Context) ([]models.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, COALESCE(job_id, ''), stage, COALESCE(email, ''),
		        COALESCE(skills, '{}'), COALESCE(applied_date, '')
		 FROM candidates ORDER BY id`)
	if err != nil {
		return nil, apperrors.NewDataLoadError(string(models.KindCandidates), err)
	}
	defer rows.Close()

	var out []models.Record
	for rows.Next() {
		var c models.Candidate
		if err := rows.Scan(&c.ID, &c.Name, &c.JobID, &c.Stage, &c.Email,
			pq.Array(&c.Skills), &c.AppliedDate); err != nil {
			return nil, apperrors.NewDataLoadError(string(models.KindCandidates), err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewDataLoadError(string(models.KindCandidates), err)
	}
	return out, nil
}

func (s *SQLSource) loadShifts(ctx context.Context) ([]models.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, employee_id, date, start_time, end_time, COALESCE(role, ''), status
		 FROM shifts ORDER BY date, id`)
	if err != nil {
		return nil, apperrors.NewDataLoadError(string(models.KindShifts), err)
	}
	defer rows.Close()

	var out []models.Record
	for rows.Next() {
		var sh models.Shift
		if err := rows.Scan(&sh.ID, &sh.EmployeeID, &sh.Date, &sh.StartTime,
			&sh.EndTime, &sh.Role, &sh.Status); err != nil {
			return nil, apperrors.NewDataLoadError(string(models.KindShifts), err)
		}
		out = append(out, sh)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewDataLoadError(string(models.KindShifts), err)
	}
	return out, nil
}

func (s *SQLSource) loadTasks(ctx context.Context) ([]models.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, employee_id, title, status, COALESCE(priority, ''), COALESCE(due_date, '')
		 FROM tasks ORDER BY id`)
	if err != nil {
		return nil, apperrors.NewDataLoadError(string(models.KindTasks), err)
	}
	defer rows.Close()

	var out []models.Record
	for rows.Next() {
		var t models.Task
		if err := rows.Scan(&t.ID, &t.EmployeeID, &t.Title, &t.Status, &t.Priority, &t.DueDate); err != nil {
			return nil, apperrors.NewDataLoadError(string(models.KindTasks), err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewDataLoadError(string(models.KindTasks), err)
	}
	return out, nil
}

func (s *SQLSource) loadRecognitions(ctx context.Context) ([]models.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, employee_id, COALESCE(from_id, ''), COALESCE(category, ''), message, date
		 FROM recognitions ORDER BY date DESC, id`)
	if err != nil {
		return nil, apperrors.NewDataLoadError(string(models.KindRecognitions), err)
	}
	defer rows.Close()

	var out []models.Record
	for rows.Next() {
		var r models.Recognition
		if err := rows.Scan(&r.ID, &r.EmployeeID, &r.FromID, &r.Category, &r.Message, &r.Date); err != nil {
			return nil, apperrors.NewDataLoadError(string(models.KindRecognitions), err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewDataLoadError(string(models.KindRecognitions), err)
	}
	return out, nil
}
