// internal/analyzer/types.go
package analyzer

// EntityType classifies a structured mention extracted from free text.
type EntityType string

const (
	EntityEmployee   EntityType = "Employee"
	EntityCandidate  EntityType = "Candidate"
	EntityJob        EntityType = "Job"
	EntityDepartment EntityType = "Department"
	EntityDate       EntityType = "Date"
	EntityTimePeriod EntityType = "TimePeriod"
	EntityLocation   EntityType = "Location"
	EntitySkill      EntityType = "Skill"
	EntityTask       EntityType = "Task"
)

// DetectedEntity is produced fresh per query and never mutated afterwards.
type DetectedEntity struct {
	Type         EntityType        `json:"entityType"`
	Value        string            `json:"value"`
	OriginalText string            `json:"originalText"`
	Confidence   float64           `json:"confidence"`
	RecordID     string            `json:"recordId,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

// IntentCategory classifies the purpose of a query.
type IntentCategory string

const (
	IntentEmployeeInfo        IntentCategory = "EmployeeInfo"
	IntentScheduleManagement  IntentCategory = "ScheduleManagement"
	IntentTaskManagement      IntentCategory = "TaskManagement"
	IntentRecognition         IntentCategory = "Recognition"
	IntentJobManagement       IntentCategory = "JobManagement"
	IntentCandidateManagement IntentCategory = "CandidateManagement"
	IntentInterviewProcess    IntentCategory = "InterviewProcess"
	IntentHiringWorkflow      IntentCategory = "HiringWorkflow"
	IntentGeneralQuestion     IntentCategory = "GeneralQuestion"
)

// DetectedIntent is one classified purpose. Several may co-exist per query;
// exactly one is primary.
type DetectedIntent struct {
	Category     IntentCategory `json:"category"`
	Confidence   float64        `json:"confidence"`
	SubIntents   []string       `json:"subIntents,omitempty"`
	RequiresData bool           `json:"requiresData"`
}

// QueryAnalysis is the immutable aggregate result for one query.
type QueryAnalysis struct {
	Query            string           `json:"query"`
	Entities         []DetectedEntity `json:"entities"`
	PrimaryIntent    DetectedIntent   `json:"primaryIntent"`
	SecondaryIntents []DetectedIntent `json:"secondaryIntents"`
	AssistantType    string           `json:"assistantType"`
	ConfidenceScore  float64          `json:"confidenceScore"`
	RequiresData     bool             `json:"requiresData"`
}

// EntitiesOfType returns the detected entities of one type, in order.
func (a *QueryAnalysis) EntitiesOfType(t EntityType) []DetectedEntity {
	var out []DetectedEntity
	for _, e := range a.Entities {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

// HasIntent reports whether category appears as primary or secondary.
func (a *QueryAnalysis) HasIntent(category IntentCategory) bool {
	if a.PrimaryIntent.Category == category {
		return true
	}
	for _, si := range a.SecondaryIntents {
		if si.Category == category {
			return true
		}
	}
	return false
}
