// internal/records/memory.go
package records

import (
	"context"
	"sync"
	"time"

	apperrors "hr-assistant/internal/common/errors"
	"hr-assistant/internal/models"
)

// MemorySource serves records from an in-process dataset. It backs the demo
// binary and tests.
type MemorySource struct {
	mu   sync.RWMutex
	data map[models.RecordKind][]models.Record
}

func NewMemorySource() *MemorySource {
	return &MemorySource{data: make(map[models.RecordKind][]models.Record)}
}

func (s *MemorySource) LoadAll(_ context.Context, kind models.RecordKind) ([]models.Record, error) {
	if !models.ValidKind(string(kind)) {
		return nil, apperrors.NewDataLoadError(string(kind), nil)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Record, len(s.data[kind]))
	copy(out, s.data[kind])
	return out, nil
}

// Put replaces the collection for one kind.
func (s *MemorySource) Put(kind models.RecordKind, recs []models.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[kind] = recs
}

// Seed returns a MemorySource loaded with the sample HR dataset. Shift and
// task dates are generated relative to now so schedule queries stay
// meaningful.
func Seed(now time.Time) *MemorySource {
	s := NewMemorySource()

	iso := func(d time.Time) string { return d.Format("2006-01-02") }
	today := now

	s.Put(models.KindEmployees, []models.Record{
		models.Employee{ID: "E001", Name: "Jordan Williams", Department: "Operations", Role: "Shift Supervisor", ManagerID: "E002", Location: "Downtown", Skills: []string{"scheduling", "inventory"}, Status: "active"},
		models.Employee{ID: "E002", Name: "Maria Garcia", Department: "Operations", Role: "Store Manager", Location: "Downtown", Skills: []string{"leadership", "budgeting"}, Status: "active"},
		models.Employee{ID: "E003", Name: "Sam Chen", Department: "Operations", Role: "Associate", ManagerID: "E001", Location: "Downtown", Skills: []string{"customer service"}, Status: "active"},
		models.Employee{ID: "E004", Name: "Priya Patel", Department: "Engineering", Role: "Software Developer", ManagerID: "E005", Location: "HQ", Skills: []string{"go", "sql"}, Status: "active"},
		models.Employee{ID: "E005", Name: "Alex Kim", Department: "Engineering", Role: "Engineering Manager", Location: "HQ", Skills: []string{"architecture", "mentoring"}, Status: "active"},
		models.Employee{ID: "E006", Name: "Dana Brooks", Department: "HR", Role: "Recruiter", Location: "HQ", Skills: []string{"sourcing", "interviewing"}, Status: "active"},
	})

	s.Put(models.KindJobs, []models.Record{
		models.Job{ID: "J001", Title: "Senior Software Developer", Department: "Engineering", Status: models.JobStatusOpen, Location: "HQ", HiringManagerID: "E005", PostedDate: iso(today.AddDate(0, 0, -21)), Skills: []string{"go", "distributed systems"}},
		models.Job{ID: "J002", Title: "Store Associate", Department: "Operations", Status: models.JobStatusOpen, Location: "Downtown", HiringManagerID: "E002", PostedDate: iso(today.AddDate(0, 0, -10))},
		models.Job{ID: "J003", Title: "Junior Data Analyst", Department: "Engineering", Status: models.JobStatusOnHold, Location: "HQ", HiringManagerID: "E005", PostedDate: iso(today.AddDate(0, 0, -45))},
	})

	s.Put(models.KindCandidates, []models.Record{
		models.Candidate{ID: "C001", Name: "Taylor Nguyen", JobID: "J001", Stage: models.StageInterview, Skills: []string{"go", "kubernetes"}, AppliedDate: iso(today.AddDate(0, 0, -14))},
		models.Candidate{ID: "C002", Name: "Morgan Lee", JobID: "J001", Stage: models.StageOffer, Skills: []string{"go", "postgres"}, AppliedDate: iso(today.AddDate(0, 0, -20))},
		models.Candidate{ID: "C003", Name: "Riley Johnson", JobID: "J002", Stage: models.StageScreening, AppliedDate: iso(today.AddDate(0, 0, -5))},
		models.Candidate{ID: "C004", Name: "Casey Davis", JobID: "J001", Stage: models.StageRejected, AppliedDate: iso(today.AddDate(0, 0, -30))},
	})

	// One week of shifts around today for the operations crew.
	var shifts []models.Record
	id := 1
	for dayOffset := -2; dayOffset <= 7; dayOffset++ {
		date := iso(today.AddDate(0, 0, dayOffset))
		for _, emp := range []string{"E001", "E003"} {
			shifts = append(shifts, models.Shift{
				ID:         shiftID(id),
				EmployeeID: emp,
				Date:       date,
				StartTime:  "09:00",
				EndTime:    "17:00",
				Role:       "floor",
				Status:     "scheduled",
			})
			id++
		}
	}
	s.Put(models.KindShifts, shifts)

	s.Put(models.KindTasks, []models.Record{
		models.Task{ID: "T001", EmployeeID: "E001", Title: "Weekly inventory count", Status: "pending", Priority: "high", DueDate: iso(today.AddDate(0, 0, 2))},
		models.Task{ID: "T002", EmployeeID: "E003", Title: "Restock front shelves", Status: "in_progress", Priority: "medium", DueDate: iso(today.AddDate(0, 0, 1))},
		models.Task{ID: "T003", EmployeeID: "E004", Title: "Fix reporting pipeline", Status: "pending", Priority: "high", DueDate: iso(today.AddDate(0, 0, 5))},
		models.Task{ID: "T004", EmployeeID: "E001", Title: "Approve shift swaps", Status: "completed", Priority: "low", DueDate: iso(today.AddDate(0, 0, -1))},
	})

	s.Put(models.KindRecognitions, []models.Record{
		models.Recognition{ID: "R001", EmployeeID: "E003", FromID: "E001", Category: "teamwork", Message: "Covered two extra closing shifts this week", Date: iso(today.AddDate(0, 0, -3))},
		models.Recognition{ID: "R002", EmployeeID: "E004", FromID: "E005", Category: "excellence", Message: "Shipped the migration ahead of schedule", Date: iso(today.AddDate(0, 0, -7))},
	})

	return s
}

func shiftID(n int) string {
	const digits = "0123456789"
	return "S" + string([]byte{digits[(n/100)%10], digits[(n/10)%10], digits[n%10]})
}
