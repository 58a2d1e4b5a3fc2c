// internal/models/employee.go
package models

import "strings"

// Employee is a member of staff. IDs follow the E### scheme.
type Employee struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Department string   `json:"department"`
	Role       string   `json:"role"`
	Email      string   `json:"email,omitempty"`
	ManagerID  string   `json:"managerId,omitempty"`
	Location   string   `json:"location,omitempty"`
	Skills     []string `json:"skills,omitempty"`
	Status     string   `json:"status"` // active, on_leave, terminated
}

func (e Employee) RecordID() string { return e.ID }
func (e Employee) Kind() RecordKind { return KindEmployees }

// FirstName returns the leading name token, or the full name if it has no
// spaces.
func (e Employee) FirstName() string {
	if i := strings.IndexByte(e.Name, ' '); i > 0 {
		return e.Name[:i]
	}
	return e.Name
}

// LastName returns the trailing name token, or "" for single-token names.
func (e Employee) LastName() string {
	if i := strings.LastIndexByte(e.Name, ' '); i >= 0 {
		return e.Name[i+1:]
	}
	return ""
}
