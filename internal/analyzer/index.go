// internal/analyzer/index.go
package analyzer

import (
	"context"
	"sort"
	"strings"

	"hr-assistant/internal/service"
)

// seniorityPrefixes are stripped from job titles so "software developer"
// still matches "Senior Software Developer".
var seniorityPrefixes = []string{
	"senior ", "junior ", "lead ", "principal ", "staff ", "associate ", "chief ",
}

// nameIndex maps lower-cased names/titles to record ids, precomputed once at
// construction so per-query entity detection is pure string work.
type nameIndex struct {
	employees  map[string]string // full, first and last name → employee id
	candidates map[string]string // full name → candidate id
	jobs       map[string]string // title and seniority-stripped title → job id

	departments []string
	locations   []string
	skills      []string
}

func buildIndex(ctx context.Context, svc *service.Service) (*nameIndex, error) {
	idx := &nameIndex{
		employees:  make(map[string]string),
		candidates: make(map[string]string),
		jobs:       make(map[string]string),
	}

	deptSet := make(map[string]bool)
	locSet := make(map[string]bool)
	skillSet := make(map[string]bool)

	employees, err := svc.Employees(ctx)
	if err != nil {
		return nil, err
	}
	for _, e := range employees {
		full := strings.ToLower(e.Name)
		addName(idx.employees, full, e.ID)
		if first := strings.ToLower(e.FirstName()); first != full {
			addName(idx.employees, first, e.ID)
		}
		if last := strings.ToLower(e.LastName()); last != full {
			addName(idx.employees, last, e.ID)
		}
		if e.Department != "" {
			deptSet[strings.ToLower(e.Department)] = true
		}
		if e.Location != "" {
			locSet[strings.ToLower(e.Location)] = true
		}
		for _, s := range e.Skills {
			skillSet[strings.ToLower(s)] = true
		}
	}

	candidates, err := svc.Candidates(ctx)
	if err != nil {
		return nil, err
	}
	for _, c := range candidates {
		addName(idx.candidates, strings.ToLower(c.Name), c.ID)
		for _, s := range c.Skills {
			skillSet[strings.ToLower(s)] = true
		}
	}

	jobs, err := svc.Jobs(ctx)
	if err != nil {
		return nil, err
	}
	for _, j := range jobs {
		title := strings.ToLower(j.Title)
		addName(idx.jobs, title, j.ID)
		if stripped := stripSeniority(title); stripped != title {
			addName(idx.jobs, stripped, j.ID)
		}
		if j.Department != "" {
			deptSet[strings.ToLower(j.Department)] = true
		}
		for _, s := range j.Skills {
			skillSet[strings.ToLower(s)] = true
		}
	}

	idx.departments = sortedKeys(deptSet)
	idx.locations = sortedKeys(locSet)
	idx.skills = sortedKeys(skillSet)
	return idx, nil
}

// addName keeps the first id registered for a name; later collisions (two
// employees sharing a first name) do not overwrite it.
func addName(m map[string]string, name, id string) {
	if name == "" {
		return
	}
	if _, exists := m[name]; !exists {
		m[name] = id
	}
}

func stripSeniority(title string) string {
	for _, p := range seniorityPrefixes {
		if strings.HasPrefix(title, p) {
			return strings.TrimPrefix(title, p)
		}
	}
	return title
}

func sortedKeys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
