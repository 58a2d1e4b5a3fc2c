// internal/models/record.go
package models

// RecordKind identifies one of the closed set of record types the engine
// retrieves. Kind names double as cache category names.
type RecordKind string

const (
	KindEmployees    RecordKind = "employees"
	KindJobs         RecordKind = "jobs"
	KindCandidates   RecordKind = "candidates"
	KindShifts       RecordKind = "shifts"
	KindTasks        RecordKind = "tasks"
	KindRecognitions RecordKind = "recognitions"
)

// AllKinds lists every record kind in a fixed order.
var AllKinds = []RecordKind{
	KindEmployees,
	KindJobs,
	KindCandidates,
	KindShifts,
	KindTasks,
	KindRecognitions,
}

// Record is the tagged union over the closed record set. Every variant
// carries its own discriminant via Kind() so downstream code dispatches on
// the tag instead of probing properties.
type Record interface {
	RecordID() string
	Kind() RecordKind
}

// ValidKind reports whether s names a known record kind.
func ValidKind(s string) bool {
	for _, k := range AllKinds {
		if string(k) == s {
			return true
		}
	}
	return false
}
