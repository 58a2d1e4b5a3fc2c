// internal/retrieval/data.go
package retrieval

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"hr-assistant/internal/models"
)

// Relation names used for the related side-map keys, "<relation>:<id>".
const (
	RelationEmployeeShifts = "employeeShifts"
	RelationEmployeeTasks  = "employeeTasks"
	RelationJobCandidates  = "jobCandidates"
	RelationManager        = "manager"
	RelationDirectReports  = "directReports"
	RelationRecognitions   = "employeeRecognitions"
)

// RetrievedData accumulates every record relevant to one query. Records are
// kept in insertion order and never duplicated within a kind; the related
// side-map is built by a final re-index pass over records already present.
type RetrievedData struct {
	mu sync.Mutex

	Employees    []models.Employee    `json:"employees,omitempty"`
	Jobs         []models.Job         `json:"jobs,omitempty"`
	Candidates   []models.Candidate   `json:"candidates,omitempty"`
	Shifts       []models.Shift       `json:"shifts,omitempty"`
	Tasks        []models.Task        `json:"tasks,omitempty"`
	Recognitions []models.Recognition `json:"recognitions,omitempty"`

	Related map[string][]models.Record `json:"related,omitempty"`

	seen map[models.RecordKind]map[string]bool
}

func NewRetrievedData() *RetrievedData {
	return &RetrievedData{
		Related: make(map[string][]models.Record),
		seen:    make(map[models.RecordKind]map[string]bool),
	}
}

// Add appends a record unless its id is already present for that kind.
// Safe for concurrent use by parallel resolution branches.
func (d *RetrievedData) Add(rec models.Record) {
	if rec == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.add(rec)
}

// AddAll appends a batch under one lock acquisition.
func (d *RetrievedData) AddAll(recs []models.Record) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, r := range recs {
		if r != nil {
			d.add(r)
		}
	}
}

func (d *RetrievedData) add(rec models.Record) {
	kind := rec.Kind()
	ids, ok := d.seen[kind]
	if !ok {
		ids = make(map[string]bool)
		d.seen[kind] = ids
	}
	if ids[rec.RecordID()] {
		return
	}
	ids[rec.RecordID()] = true

	switch r := rec.(type) {
	case models.Employee:
		d.Employees = append(d.Employees, r)
	case models.Job:
		d.Jobs = append(d.Jobs, r)
	case models.Candidate:
		d.Candidates = append(d.Candidates, r)
	case models.Shift:
		d.Shifts = append(d.Shifts, r)
	case models.Task:
		d.Tasks = append(d.Tasks, r)
	case models.Recognition:
		d.Recognitions = append(d.Recognitions, r)
	}
}

// Has reports whether (kind, id) is present.
func (d *RetrievedData) Has(kind models.RecordKind, id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.seen[kind][id]
}

// IsEmpty reports whether nothing was retrieved.
func (d *RetrievedData) IsEmpty() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.Employees)+len(d.Jobs)+len(d.Candidates)+
		len(d.Shifts)+len(d.Tasks)+len(d.Recognitions) == 0
}

// RecordCount returns the total number of records across kinds, not
// counting the related side-map (those are re-indexed, not additional).
func (d *RetrievedData) RecordCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.Employees) + len(d.Jobs) + len(d.Candidates) +
		len(d.Shifts) + len(d.Tasks) + len(d.Recognitions)
}

// reindexRelationships groups the already-fetched records by foreign key.
// It never fetches; it only re-indexes what is present.
func (d *RetrievedData) reindexRelationships() {
	d.mu.Lock()
	defer d.mu.Unlock()

	related := make(map[string][]models.Record)
	key := func(relation, id string) string { return relation + ":" + id }

	empIDs := make(map[string]bool, len(d.Employees))
	for _, e := range d.Employees {
		empIDs[e.ID] = true
	}
	jobIDs := make(map[string]bool, len(d.Jobs))
	for _, j := range d.Jobs {
		jobIDs[j.ID] = true
	}

	for _, sh := range d.Shifts {
		if empIDs[sh.EmployeeID] {
			related[key(RelationEmployeeShifts, sh.EmployeeID)] = append(related[key(RelationEmployeeShifts, sh.EmployeeID)], sh)
		}
	}
	for _, t := range d.Tasks {
		if empIDs[t.EmployeeID] {
			related[key(RelationEmployeeTasks, t.EmployeeID)] = append(related[key(RelationEmployeeTasks, t.EmployeeID)], t)
		}
	}
	for _, r := range d.Recognitions {
		if empIDs[r.EmployeeID] {
			related[key(RelationRecognitions, r.EmployeeID)] = append(related[key(RelationRecognitions, r.EmployeeID)], r)
		}
	}
	for _, c := range d.Candidates {
		if jobIDs[c.JobID] {
			related[key(RelationJobCandidates, c.JobID)] = append(related[key(RelationJobCandidates, c.JobID)], c)
		}
	}
	for _, e := range d.Employees {
		for _, other := range d.Employees {
			if other.ID == e.ManagerID {
				related[key(RelationManager, e.ID)] = append(related[key(RelationManager, e.ID)], other)
			}
			if other.ManagerID == e.ID {
				related[key(RelationDirectReports, e.ID)] = append(related[key(RelationDirectReports, e.ID)], other)
			}
		}
	}

	d.Related = related
}

// FormatText renders the retrieved data as the plain-text payload handed to
// the budget manager.
func (d *RetrievedData) FormatText() string {
	d.mu.Lock()
	defer d.mu.Unlock()

	var b strings.Builder

	if len(d.Employees) > 0 {
		b.WriteString("EMPLOYEES:\n")
		for _, e := range d.Employees {
			fmt.Fprintf(&b, "- %s (%s): %s, %s", e.Name, e.ID, e.Role, e.Department)
			if e.Location != "" {
				fmt.Fprintf(&b, ", %s", e.Location)
			}
			if e.ManagerID != "" {
				fmt.Fprintf(&b, ", manager %s", e.ManagerID)
			}
			b.WriteString("\n")
		}
	}
	if len(d.Jobs) > 0 {
		b.WriteString("JOB POSTINGS:\n")
		for _, j := range d.Jobs {
			fmt.Fprintf(&b, "- %s (%s): %s, %s", j.Title, j.ID, j.Status, j.Department)
			if j.PostedDate != "" {
				fmt.Fprintf(&b, ", posted %s", j.PostedDate)
			}
			b.WriteString("\n")
		}
	}
	if len(d.Candidates) > 0 {
		b.WriteString("CANDIDATES:\n")
		for _, c := range d.Candidates {
			fmt.Fprintf(&b, "- %s (%s): stage %s", c.Name, c.ID, c.Stage)
			if c.JobID != "" {
				fmt.Fprintf(&b, ", for %s", c.JobID)
			}
			b.WriteString("\n")
		}
	}
	if len(d.Shifts) > 0 {
		b.WriteString("SHIFTS:\n")
		for _, s := range d.Shifts {
			fmt.Fprintf(&b, "- %s %s %s-%s (%s, %s)\n", s.EmployeeID, s.Date, s.StartTime, s.EndTime, s.Status, s.ID)
		}
	}
	if len(d.Tasks) > 0 {
		b.WriteString("TASKS:\n")
		for _, t := range d.Tasks {
			fmt.Fprintf(&b, "- %s (%s, %s): %s", t.Title, t.ID, t.Status, t.EmployeeID)
			if t.DueDate != "" {
				fmt.Fprintf(&b, ", due %s", t.DueDate)
			}
			b.WriteString("\n")
		}
	}
	if len(d.Recognitions) > 0 {
		b.WriteString("RECOGNITIONS:\n")
		for _, r := range d.Recognitions {
			fmt.Fprintf(&b, "- %s for %s: %s (%s)\n", r.ID, r.EmployeeID, r.Message, r.Date)
		}
	}
	if len(d.Related) > 0 {
		b.WriteString("RELATIONSHIPS:\n")
		keys := make([]string, 0, len(d.Related))
		for k := range d.Related {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			ids := make([]string, 0, len(d.Related[k]))
			for _, r := range d.Related[k] {
				ids = append(ids, r.RecordID())
			}
			fmt.Fprintf(&b, "- %s: %s\n", k, strings.Join(ids, ", "))
		}
	}

	return strings.TrimRight(b.String(), "\n")
}
