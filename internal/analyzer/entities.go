// internal/analyzer/entities.go
package analyzer

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"
)

var (
	employeeIDPattern  = regexp.MustCompile(`\bE\d{3}\b`)
	candidateIDPattern = regexp.MustCompile(`\bC\d{3}\b`)
	jobIDPattern       = regexp.MustCompile(`\bJ\d{3}\b`)
	isoDatePattern     = regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}\b`)
	dateRangePattern   = regexp.MustCompile(`\b(\d{4}-\d{2}-\d{2})\s*(?:to|through|until|-)\s*(\d{4}-\d{2}-\d{2})\b`)
)

// relativePeriods maps surface phrases to normalized period values.
var relativePeriods = []struct {
	phrase string
	value  string
}{
	{"today", "today"},
	{"tomorrow", "tomorrow"},
	{"yesterday", "yesterday"},
	{"this week", "this_week"},
	{"next week", "next_week"},
	{"last week", "last_week"},
	{"this month", "this_month"},
	{"next month", "next_month"},
	{"last month", "last_month"},
}

// Confidence ladder for text matches.
const (
	confExactID    = 0.95
	confSurrounded = 0.9
	confEdge       = 0.8
	confSubstring  = 0.7
)

// matchConfidence scores one containment match of needle in query. A match
// bounded by non-letter characters on both sides scores as space-surrounded;
// a match touching the string edge scores lower; a bare substring lower
// still. Returns 0 when needle does not occur.
func matchConfidence(query, needle string) float64 {
	idx := strings.Index(query, needle)
	if idx < 0 || needle == "" {
		return 0
	}
	end := idx + len(needle)
	leftBounded := idx > 0 && isBoundary(query[idx-1])
	rightBounded := end < len(query) && isBoundary(query[end])

	switch {
	case leftBounded && rightBounded:
		return confSurrounded
	case idx == 0 || end == len(query):
		return confEdge
	default:
		return confSubstring
	}
}

// isBoundary treats any non-alphanumeric byte as a word boundary, so
// "Williams's" and "developer?" still count as clean matches.
func isBoundary(b byte) bool {
	return !(b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= '0' && b <= '9')
}

// detectEntities runs every detector over the lower-cased query and returns
// the deduplicated entity set.
func (a *Analyzer) detectEntities(query string) []DetectedEntity {
	var entities []DetectedEntity

	entities = append(entities, detectIDs(query)...)
	entities = append(entities, a.detectNames(query)...)
	entities = append(entities, a.detectDates(query)...)
	entities = append(entities, a.detectKeywordLists(query)...)

	return dedupeEntities(entities)
}

func detectIDs(query string) []DetectedEntity {
	upper := strings.ToUpper(query)
	var out []DetectedEntity
	for _, d := range []struct {
		pattern *regexp.Regexp
		typ     EntityType
	}{
		{employeeIDPattern, EntityEmployee},
		{candidateIDPattern, EntityCandidate},
		{jobIDPattern, EntityJob},
	} {
		for _, m := range d.pattern.FindAllString(upper, -1) {
			out = append(out, DetectedEntity{
				Type:         d.typ,
				Value:        m,
				OriginalText: m,
				Confidence:   confExactID,
				RecordID:     m,
			})
		}
	}
	return out
}

// detectNames matches the precomputed name indexes. In degraded mode the
// indexes are empty and this contributes nothing.
func (a *Analyzer) detectNames(query string) []DetectedEntity {
	var out []DetectedEntity
	scan := func(index map[string]string, typ EntityType) {
		for name, id := range index {
			if conf := matchConfidence(query, name); conf > 0 {
				out = append(out, DetectedEntity{
					Type:         typ,
					Value:        name,
					OriginalText: name,
					Confidence:   conf,
					RecordID:     id,
				})
			}
		}
	}
	scan(a.index.employees, EntityEmployee)
	scan(a.index.candidates, EntityCandidate)
	scan(a.index.jobs, EntityJob)
	return out
}

func (a *Analyzer) detectDates(query string) []DetectedEntity {
	var out []DetectedEntity

	for _, m := range dateRangePattern.FindAllStringSubmatch(query, -1) {
		out = append(out, DetectedEntity{
			Type:         EntityTimePeriod,
			Value:        "range",
			OriginalText: m[0],
			Confidence:   confSurrounded,
			Metadata:     map[string]string{"from": m[1], "to": m[2]},
		})
	}

	for _, m := range isoDatePattern.FindAllString(query, -1) {
		out = append(out, DetectedEntity{
			Type:         EntityDate,
			Value:        m,
			OriginalText: m,
			Confidence:   confSurrounded,
			Metadata:     map[string]string{"from": m, "to": m},
		})
	}

	for _, p := range relativePeriods {
		if conf := matchConfidence(query, p.phrase); conf > 0 {
			from, to := a.resolvePeriod(p.value)
			out = append(out, DetectedEntity{
				Type:         EntityTimePeriod,
				Value:        p.value,
				OriginalText: p.phrase,
				Confidence:   conf,
				Metadata:     map[string]string{"from": from, "to": to},
			})
		}
	}

	return out
}

func (a *Analyzer) detectKeywordLists(query string) []DetectedEntity {
	var out []DetectedEntity
	scan := func(values []string, typ EntityType) {
		for _, v := range values {
			if conf := matchConfidence(query, v); conf > 0 {
				out = append(out, DetectedEntity{
					Type:         typ,
					Value:        v,
					OriginalText: v,
					Confidence:   conf,
				})
			}
		}
	}
	scan(a.index.departments, EntityDepartment)
	scan(a.index.locations, EntityLocation)
	scan(a.index.skills, EntitySkill)
	return out
}

// resolvePeriod turns a normalized period value into an inclusive ISO date
// range. Weeks run Sunday through Saturday.
func (a *Analyzer) resolvePeriod(value string) (from, to string) {
	now := a.now()
	day := func(t time.Time) string { return t.Format("2006-01-02") }
	weekStart := now.AddDate(0, 0, -int(now.Weekday()))

	switch value {
	case "today":
		return day(now), day(now)
	case "tomorrow":
		t := now.AddDate(0, 0, 1)
		return day(t), day(t)
	case "yesterday":
		t := now.AddDate(0, 0, -1)
		return day(t), day(t)
	case "this_week":
		return day(weekStart), day(weekStart.AddDate(0, 0, 6))
	case "next_week":
		s := weekStart.AddDate(0, 0, 7)
		return day(s), day(s.AddDate(0, 0, 6))
	case "last_week":
		s := weekStart.AddDate(0, 0, -7)
		return day(s), day(s.AddDate(0, 0, 6))
	case "this_month":
		s := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		return day(s), day(s.AddDate(0, 1, -1))
	case "next_month":
		s := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).AddDate(0, 1, 0)
		return day(s), day(s.AddDate(0, 1, -1))
	case "last_month":
		s := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).AddDate(0, -1, 0)
		return day(s), day(s.AddDate(0, 1, -1))
	}
	return "", ""
}

// dedupeEntities sorts by confidence descending and keeps the first
// occurrence of each (type, value) pair, so the survivor always carries the
// highest confidence among its duplicates.
func dedupeEntities(entities []DetectedEntity) []DetectedEntity {
	sort.SliceStable(entities, func(i, j int) bool {
		return entities[i].Confidence > entities[j].Confidence
	})
	seen := make(map[string]bool, len(entities))
	out := make([]DetectedEntity, 0, len(entities))
	for _, e := range entities {
		k := fmt.Sprintf("%s\x00%s", e.Type, e.Value)
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, e)
	}
	return out
}
