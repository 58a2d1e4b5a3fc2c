// internal/models/operations.go
package models

// Shift is a scheduled block of work for one employee.
type Shift struct {
	ID         string `json:"id"`
	EmployeeID string `json:"employeeId"`
	Date       string `json:"date"` // ISO date
	StartTime  string `json:"startTime"`
	EndTime    string `json:"endTime"`
	Role       string `json:"role,omitempty"`
	Status     string `json:"status"` // scheduled, swapped, completed, cancelled
}

func (s Shift) RecordID() string { return s.ID }
func (s Shift) Kind() RecordKind { return KindShifts }

// Task statuses.
const (
	TaskStatusPending    = "pending"
	TaskStatusInProgress = "in_progress"
	TaskStatusCompleted  = "completed"
)

// Task is a unit of assigned work.
type Task struct {
	ID         string `json:"id"`
	EmployeeID string `json:"employeeId"`
	Title      string `json:"title"`
	Status     string `json:"status"` // pending, in_progress, completed
	Priority   string `json:"priority,omitempty"`
	DueDate    string `json:"dueDate,omitempty"` // ISO date
}

func (t Task) RecordID() string { return t.ID }
func (t Task) Kind() RecordKind { return KindTasks }

// Recognition is a peer or manager shout-out for an employee.
type Recognition struct {
	ID         string `json:"id"`
	EmployeeID string `json:"employeeId"`
	FromID     string `json:"fromId,omitempty"`
	Category   string `json:"category,omitempty"`
	Message    string `json:"message"`
	Date       string `json:"date"` // ISO date
}

func (r Recognition) RecordID() string { return r.ID }
func (r Recognition) Kind() RecordKind { return KindRecognitions }
