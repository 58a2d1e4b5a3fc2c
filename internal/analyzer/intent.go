// internal/analyzer/intent.go
package analyzer

import (
	"sort"
	"strings"

	"hr-assistant/internal/models"
)

// maxIntentConfidence caps every scorer.
const maxIntentConfidence = 0.95

// generalQuestionConfidence is the always-appended fallback, so the intent
// list is never empty.
const generalQuestionConfidence = 0.3

// intentRule is one row of the scoring table: a keyword increment per
// keyword present, a fixed bonus per relevant entity type detected, and an
// emission threshold. New categories are added here, not in control flow.
type intentRule struct {
	category     IntentCategory
	keywords     map[string]float64
	entityBonus  map[EntityType]float64
	threshold    float64
	requiresData bool
	subIntents   map[string]string // keyword → sub-intent emitted when present
}

var intentRules = []intentRule{
	{
		category: IntentEmployeeInfo,
		keywords: map[string]float64{
			"who is": 0.3, "employee": 0.3, "profile": 0.3, "contact": 0.25,
			"email": 0.25, "manager": 0.3, "reports to": 0.3, "team": 0.25,
			"works in": 0.2,
		},
		entityBonus:  map[EntityType]float64{EntityEmployee: 0.25, EntityDepartment: 0.15},
		threshold:    0.3,
		requiresData: true,
		subIntents:   map[string]string{"manager": "reporting_line", "team": "team_roster"},
	},
	{
		category: IntentScheduleManagement,
		keywords: map[string]float64{
			"shift": 0.4, "schedule": 0.4, "roster": 0.3, "swap": 0.3,
			"availability": 0.25, "time off": 0.3, "working": 0.25, "on duty": 0.3,
		},
		entityBonus:  map[EntityType]float64{EntityTimePeriod: 0.2, EntityDate: 0.2, EntityEmployee: 0.15},
		threshold:    0.3,
		requiresData: true,
		subIntents:   map[string]string{"swap": "shift_swap", "availability": "availability"},
	},
	{
		category: IntentTaskManagement,
		keywords: map[string]float64{
			"task": 0.4, "todo": 0.35, "to-do": 0.35, "assign": 0.3,
			"checklist": 0.3, "due": 0.25, "overdue": 0.3, "complete": 0.2,
		},
		entityBonus:  map[EntityType]float64{EntityTask: 0.2, EntityEmployee: 0.1},
		threshold:    0.3,
		requiresData: true,
		subIntents:   map[string]string{"overdue": "overdue_tasks", "assign": "assignment"},
	},
	{
		category: IntentRecognition,
		keywords: map[string]float64{
			"recognition": 0.45, "kudos": 0.45, "shout-out": 0.35, "shoutout": 0.35,
			"praise": 0.35, "celebrate": 0.3, "appreciation": 0.35, "recognize": 0.4,
		},
		entityBonus:  map[EntityType]float64{EntityEmployee: 0.15},
		threshold:    0.3,
		requiresData: true,
	},
	{
		category: IntentJobManagement,
		keywords: map[string]float64{
			"job": 0.35, "position": 0.35, "posting": 0.35, "opening": 0.35,
			"requisition": 0.35, "vacancy": 0.35, "status": 0.15, "open roles": 0.35,
		},
		entityBonus:  map[EntityType]float64{EntityJob: 0.3, EntityDepartment: 0.1},
		threshold:    0.3,
		requiresData: true,
		subIntents:   map[string]string{"candidate": "job_pipeline"},
	},
	{
		category: IntentCandidateManagement,
		keywords: map[string]float64{
			"candidate": 0.4, "applicant": 0.4, "pipeline": 0.35, "resume": 0.3,
			"application": 0.3, "screening": 0.25, "stage": 0.25,
		},
		entityBonus:  map[EntityType]float64{EntityCandidate: 0.3, EntityJob: 0.1},
		threshold:    0.3,
		requiresData: true,
		subIntents:   map[string]string{"pipeline": "job_pipeline"},
	},
	{
		category: IntentInterviewProcess,
		keywords: map[string]float64{
			"interview": 0.45, "phone screen": 0.35, "onsite": 0.3,
			"feedback": 0.25, "panel": 0.3, "reschedule": 0.25, "debrief": 0.3,
		},
		entityBonus:  map[EntityType]float64{EntityCandidate: 0.2},
		threshold:    0.3,
		requiresData: true,
	},
	{
		category: IntentHiringWorkflow,
		keywords: map[string]float64{
			"offer": 0.4, "hire": 0.35, "onboard": 0.35, "background check": 0.3,
			"reject": 0.3, "extend": 0.2, "accept": 0.25,
		},
		entityBonus:  map[EntityType]float64{EntityCandidate: 0.2, EntityJob: 0.15},
		threshold:    0.35,
		requiresData: true,
	},
}

// employeeDomain and talentDomain partition the specific intent categories
// for assistant-type resolution. GeneralQuestion belongs to neither.
var (
	employeeDomain = map[IntentCategory]bool{
		IntentEmployeeInfo:       true,
		IntentScheduleManagement: true,
		IntentTaskManagement:     true,
		IntentRecognition:        true,
	}
	talentDomain = map[IntentCategory]bool{
		IntentJobManagement:       true,
		IntentCandidateManagement: true,
		IntentInterviewProcess:    true,
		IntentHiringWorkflow:      true,
	}
)

// detectIntents scores every rule against the query and the detected
// entities. The result is sorted descending by confidence and always ends
// with the GeneralQuestion fallback.
func detectIntents(query string, entities []DetectedEntity) []DetectedIntent {
	present := make(map[EntityType]bool, len(entities))
	for _, e := range entities {
		present[e.Type] = true
	}

	var intents []DetectedIntent
	for _, rule := range intentRules {
		score := 0.0
		var subs []string
		for kw, weight := range rule.keywords {
			if strings.Contains(query, kw) {
				score += weight
				if sub, ok := rule.subIntents[kw]; ok {
					subs = append(subs, sub)
				}
			}
		}
		for typ, bonus := range rule.entityBonus {
			if present[typ] {
				score += bonus
			}
		}
		// Sub-intent triggers may live outside the scoring keywords.
		for kw, sub := range rule.subIntents {
			if _, scored := rule.keywords[kw]; !scored && strings.Contains(query, kw) {
				subs = append(subs, sub)
			}
		}
		if score > maxIntentConfidence {
			score = maxIntentConfidence
		}
		if score >= rule.threshold {
			sort.Strings(subs)
			intents = append(intents, DetectedIntent{
				Category:     rule.category,
				Confidence:   score,
				SubIntents:   subs,
				RequiresData: rule.requiresData,
			})
		}
	}

	intents = append(intents, DetectedIntent{
		Category:     IntentGeneralQuestion,
		Confidence:   generalQuestionConfidence,
		RequiresData: false,
	})

	sort.SliceStable(intents, func(i, j int) bool {
		return intents[i].Confidence > intents[j].Confidence
	})
	return intents
}

// resolveAssistantType picks the domain per the original switch rules: a
// confident unambiguous primary decides alone; otherwise weighted domain
// scores must differ by more than the margin, else unified.
func resolveAssistantType(primary DetectedIntent, secondary []DetectedIntent, confidenceThreshold, margin float64) string {
	if primary.Confidence > confidenceThreshold {
		if employeeDomain[primary.Category] {
			return models.AssistantEmployee
		}
		if talentDomain[primary.Category] {
			return models.AssistantTalent
		}
	}

	empScore, talScore := 0.0, 0.0
	add := func(intent DetectedIntent, weight float64) {
		switch {
		case employeeDomain[intent.Category]:
			empScore += weight * intent.Confidence
		case talentDomain[intent.Category]:
			talScore += weight * intent.Confidence
		}
	}
	add(primary, 1.0)
	for _, si := range secondary {
		add(si, 0.5)
	}

	switch {
	case empScore-talScore > margin:
		return models.AssistantEmployee
	case talScore-empScore > margin:
		return models.AssistantTalent
	default:
		return models.AssistantUnified
	}
}
