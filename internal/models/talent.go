// internal/models/talent.go
package models

// Job statuses.
const (
	JobStatusOpen   = "open"
	JobStatusOnHold = "on_hold"
	JobStatusClosed = "closed"
)

// Candidate pipeline stages, in hiring order.
const (
	StageApplied   = "applied"
	StageScreening = "screening"
	StageInterview = "interview"
	StageOffer     = "offer"
	StageHired     = "hired"
	StageRejected  = "rejected"
)

// Job is an open or historical position. IDs follow the J### scheme.
type Job struct {
	ID              string   `json:"id"`
	Title           string   `json:"title"`
	Department      string   `json:"department"`
	Status          string   `json:"status"`
	Location        string   `json:"location,omitempty"`
	HiringManagerID string   `json:"hiringManagerId,omitempty"`
	PostedDate      string   `json:"postedDate,omitempty"` // ISO date
	Skills          []string `json:"skills,omitempty"`
}

func (j Job) RecordID() string { return j.ID }
func (j Job) Kind() RecordKind { return KindJobs }

// Candidate is an applicant for a job. IDs follow the C### scheme.
type Candidate struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	JobID       string   `json:"jobId,omitempty"`
	Stage       string   `json:"stage"`
	Email       string   `json:"email,omitempty"`
	Skills      []string `json:"skills,omitempty"`
	AppliedDate string   `json:"appliedDate,omitempty"` // ISO date
}

func (c Candidate) RecordID() string { return c.ID }
func (c Candidate) Kind() RecordKind { return KindCandidates }
