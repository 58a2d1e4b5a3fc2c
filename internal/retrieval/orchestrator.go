// Package retrieval fans a query analysis out to the cached record service,
// collects every relevant record, and resolves cross-entity relationships.
package retrieval

import (
	"context"
	"strings"
	"sync"
	"time"

	"hr-assistant/internal/analyzer"
	"hr-assistant/internal/common/logger"
	"hr-assistant/internal/common/metrics"
	"hr-assistant/internal/models"
	"hr-assistant/internal/service"
)

// fallbackCap bounds every intent-default list for budget reasons.
const fallbackCap = 10

// scheduleFallbackDays is the forward window used when a schedule intent
// carries no explicit date scope.
const scheduleFallbackDays = 7

// Orchestrator is stateless between queries; a single instance serves
// concurrent pipelines.
type Orchestrator struct {
	svc    *service.Service
	now    func() time.Time
	logger logger.Logger
}

// Option tunes an Orchestrator.
type Option func(*Orchestrator)

// WithClock overrides time.Now for date-window fallbacks in tests.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

func New(svc *service.Service, log logger.Logger, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		svc:    svc,
		now:    time.Now,
		logger: log.With(map[string]interface{}{"component": "retrieval"}),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Retrieve resolves the analysis into records. Entity groups resolve in
// parallel; a failing branch is logged and its slice omitted while sibling
// branches complete. The final relationship pass only re-indexes records
// already fetched.
func (o *Orchestrator) Retrieve(ctx context.Context, analysis *analyzer.QueryAnalysis) (*RetrievedData, error) {
	start := o.now()
	data := NewRetrievedData()

	groups := groupEntities(analysis.Entities)

	var wg sync.WaitGroup
	resolve := func(name string, fn func(context.Context) error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(ctx); err != nil {
				o.logger.Warn("resolution branch failed, omitting", map[string]interface{}{
					"branch": name,
					"error":  err.Error(),
				})
			}
		}()
	}

	if ents, ok := groups[analyzer.EntityEmployee]; ok {
		resolve("employees", func(ctx context.Context) error {
			return o.resolveEmployees(ctx, ents, analysis, data)
		})
	}
	if ents, ok := groups[analyzer.EntityCandidate]; ok {
		resolve("candidates", func(ctx context.Context) error {
			return o.resolveCandidates(ctx, ents, analysis, data)
		})
	}
	if ents, ok := groups[analyzer.EntityJob]; ok {
		resolve("jobs", func(ctx context.Context) error {
			return o.resolveJobs(ctx, ents, analysis, data)
		})
	}
	if ents, ok := groups[analyzer.EntityDepartment]; ok {
		resolve("departments", func(ctx context.Context) error {
			return o.resolveDepartments(ctx, ents, data)
		})
	}
	wg.Wait()

	// Intent defaults apply only when entity resolution produced nothing.
	if data.IsEmpty() && analysis.RequiresData {
		o.applyIntentFallbacks(ctx, analysis, data)
	}

	data.reindexRelationships()

	metrics.QueryDuration.WithLabelValues("retrieve").Observe(o.now().Sub(start).Seconds())
	return data, nil
}

func groupEntities(entities []analyzer.DetectedEntity) map[analyzer.EntityType][]analyzer.DetectedEntity {
	groups := make(map[analyzer.EntityType][]analyzer.DetectedEntity)
	for _, e := range entities {
		groups[e.Type] = append(groups[e.Type], e)
	}
	return groups
}

// dateWindow extracts the first explicit date scope from the analysis, or
// falls back to the next scheduleFallbackDays days.
func (o *Orchestrator) dateWindow(analysis *analyzer.QueryAnalysis) (from, to string) {
	for _, e := range analysis.Entities {
		if e.Type == analyzer.EntityTimePeriod || e.Type == analyzer.EntityDate {
			if e.Metadata["from"] != "" {
				return e.Metadata["from"], e.Metadata["to"]
			}
		}
	}
	now := o.now()
	return now.Format("2006-01-02"), now.AddDate(0, 0, scheduleFallbackDays).Format("2006-01-02")
}

// ==========================
// Entity resolution
// ==========================

func (o *Orchestrator) resolveEmployees(ctx context.Context, ents []analyzer.DetectedEntity, analysis *analyzer.QueryAnalysis, data *RetrievedData) error {
	var resolved []models.Employee
	for _, ent := range ents {
		emps, err := o.matchEmployees(ctx, ent)
		if err != nil {
			return err
		}
		for _, e := range emps {
			data.Add(e)
			resolved = append(resolved, e)
		}
	}

	// Attach the operational records the intents ask about.
	from, to := o.dateWindow(analysis)
	for _, emp := range resolved {
		if analysis.HasIntent(analyzer.IntentScheduleManagement) {
			shifts, err := o.svc.ShiftsForEmployee(ctx, emp.ID, from, to)
			if err != nil {
				return err
			}
			for _, sh := range shifts {
				data.Add(sh)
			}
		}
		if analysis.HasIntent(analyzer.IntentTaskManagement) {
			tasks, err := o.svc.TasksForEmployee(ctx, emp.ID)
			if err != nil {
				return err
			}
			for _, t := range tasks {
				data.Add(t)
			}
		}
		if analysis.HasIntent(analyzer.IntentRecognition) {
			recs, err := o.svc.RecognitionsForEmployee(ctx, emp.ID)
			if err != nil {
				return err
			}
			for _, r := range recs {
				data.Add(r)
			}
		}
		if analysis.HasIntent(analyzer.IntentEmployeeInfo) && emp.ManagerID != "" {
			mgr, err := o.svc.GetByID(ctx, models.KindEmployees, emp.ManagerID)
			if err != nil {
				return err
			}
			data.Add(mgr)
		}
	}
	return nil
}

func (o *Orchestrator) matchEmployees(ctx context.Context, ent analyzer.DetectedEntity) ([]models.Employee, error) {
	if ent.RecordID != "" {
		rec, err := o.svc.GetByID(ctx, models.KindEmployees, ent.RecordID)
		if err != nil || rec == nil {
			return nil, err
		}
		return []models.Employee{rec.(models.Employee)}, nil
	}
	all, err := o.svc.Employees(ctx)
	if err != nil {
		return nil, err
	}
	var out []models.Employee
	for _, e := range all {
		if strings.Contains(strings.ToLower(e.Name), ent.Value) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (o *Orchestrator) resolveCandidates(ctx context.Context, ents []analyzer.DetectedEntity, analysis *analyzer.QueryAnalysis, data *RetrievedData) error {
	var resolved []models.Candidate
	for _, ent := range ents {
		cands, err := o.matchCandidates(ctx, ent)
		if err != nil {
			return err
		}
		for _, c := range cands {
			data.Add(c)
			resolved = append(resolved, c)
		}
	}

	// candidate → job counterpart, when the talent intents call for it.
	if talentPrimary(analysis.PrimaryIntent.Category) {
		for _, c := range resolved {
			if c.JobID == "" {
				continue
			}
			job, err := o.svc.GetByID(ctx, models.KindJobs, c.JobID)
			if err != nil {
				return err
			}
			data.Add(job)
		}
	}
	return nil
}

func (o *Orchestrator) matchCandidates(ctx context.Context, ent analyzer.DetectedEntity) ([]models.Candidate, error) {
	if ent.RecordID != "" {
		rec, err := o.svc.GetByID(ctx, models.KindCandidates, ent.RecordID)
		if err != nil || rec == nil {
			return nil, err
		}
		return []models.Candidate{rec.(models.Candidate)}, nil
	}
	all, err := o.svc.Candidates(ctx)
	if err != nil {
		return nil, err
	}
	var out []models.Candidate
	for _, c := range all {
		if strings.Contains(strings.ToLower(c.Name), ent.Value) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (o *Orchestrator) resolveJobs(ctx context.Context, ents []analyzer.DetectedEntity, analysis *analyzer.QueryAnalysis, data *RetrievedData) error {
	var resolved []models.Job
	for _, ent := range ents {
		jobs, err := o.matchJobs(ctx, ent)
		if err != nil {
			return err
		}
		for _, j := range jobs {
			data.Add(j)
			resolved = append(resolved, j)
		}
	}

	// job → candidates counterpart, when the intent reaches into the
	// pipeline.
	if wantsCandidates(analysis) {
		for _, j := range resolved {
			cands, err := o.svc.CandidatesForJob(ctx, j.ID)
			if err != nil {
				return err
			}
			for _, c := range cands {
				data.Add(c)
			}
		}
	}
	return nil
}

func (o *Orchestrator) matchJobs(ctx context.Context, ent analyzer.DetectedEntity) ([]models.Job, error) {
	if ent.RecordID != "" {
		rec, err := o.svc.GetByID(ctx, models.KindJobs, ent.RecordID)
		if err != nil || rec == nil {
			return nil, err
		}
		return []models.Job{rec.(models.Job)}, nil
	}
	all, err := o.svc.Jobs(ctx)
	if err != nil {
		return nil, err
	}
	var out []models.Job
	for _, j := range all {
		if strings.Contains(strings.ToLower(j.Title), ent.Value) {
			out = append(out, j)
		}
	}
	return out, nil
}

func (o *Orchestrator) resolveDepartments(ctx context.Context, ents []analyzer.DetectedEntity, data *RetrievedData) error {
	for _, ent := range ents {
		emps, err := o.svc.EmployeesByDepartment(ctx, ent.Value)
		if err != nil {
			return err
		}
		for _, e := range emps {
			data.Add(e)
		}
	}
	return nil
}

func talentPrimary(category analyzer.IntentCategory) bool {
	switch category {
	case analyzer.IntentJobManagement, analyzer.IntentCandidateManagement,
		analyzer.IntentInterviewProcess, analyzer.IntentHiringWorkflow:
		return true
	}
	return false
}

// wantsCandidates reports whether a resolved job should pull its pipeline:
// either a candidate-facing intent is present or the job intent carries the
// pipeline sub-intent.
func wantsCandidates(analysis *analyzer.QueryAnalysis) bool {
	if analysis.HasIntent(analyzer.IntentCandidateManagement) ||
		analysis.HasIntent(analyzer.IntentInterviewProcess) ||
		analysis.HasIntent(analyzer.IntentHiringWorkflow) {
		return true
	}
	for _, sub := range analysis.PrimaryIntent.SubIntents {
		if sub == "job_pipeline" {
			return true
		}
	}
	return false
}

// ==========================
// Intent fallbacks
// ==========================

// applyIntentFallbacks supplies a contextual default per intent category
// when no entity resolved, each list capped for budget reasons.
func (o *Orchestrator) applyIntentFallbacks(ctx context.Context, analysis *analyzer.QueryAnalysis, data *RetrievedData) {
	intents := append([]analyzer.DetectedIntent{analysis.PrimaryIntent}, analysis.SecondaryIntents...)
	for _, intent := range intents {
		if err := o.fallbackFor(ctx, intent.Category, data); err != nil {
			o.logger.Warn("intent fallback failed, omitting", map[string]interface{}{
				"category": string(intent.Category),
				"error":    err.Error(),
			})
		}
	}
}

func (o *Orchestrator) fallbackFor(ctx context.Context, category analyzer.IntentCategory, data *RetrievedData) error {
	switch category {
	case analyzer.IntentScheduleManagement:
		now := o.now()
		shifts, err := o.svc.ShiftsInRange(ctx, now.Format("2006-01-02"), now.AddDate(0, 0, scheduleFallbackDays).Format("2006-01-02"))
		if err != nil {
			return err
		}
		for _, sh := range capped(shifts) {
			data.Add(sh)
		}
	case analyzer.IntentJobManagement:
		jobs, err := o.svc.JobsByStatus(ctx, models.JobStatusOpen)
		if err != nil {
			return err
		}
		for _, j := range capped(jobs) {
			data.Add(j)
		}
	case analyzer.IntentCandidateManagement:
		for _, stage := range []string{models.StageInterview, models.StageOffer} {
			cands, err := o.svc.CandidatesByStage(ctx, stage)
			if err != nil {
				return err
			}
			for _, c := range capped(cands) {
				data.Add(c)
			}
		}
	case analyzer.IntentInterviewProcess:
		cands, err := o.svc.CandidatesByStage(ctx, models.StageInterview)
		if err != nil {
			return err
		}
		for _, c := range capped(cands) {
			data.Add(c)
		}
	case analyzer.IntentHiringWorkflow:
		cands, err := o.svc.CandidatesByStage(ctx, models.StageOffer)
		if err != nil {
			return err
		}
		for _, c := range capped(cands) {
			data.Add(c)
		}
	case analyzer.IntentTaskManagement:
		tasks, err := o.svc.TasksByStatus(ctx, models.TaskStatusPending)
		if err != nil {
			return err
		}
		for _, t := range capped(tasks) {
			data.Add(t)
		}
	case analyzer.IntentRecognition:
		recs, err := o.svc.Recognitions(ctx)
		if err != nil {
			return err
		}
		for _, r := range capped(recs) {
			data.Add(r)
		}
	}
	return nil
}

func capped[T any](in []T) []T {
	if len(in) > fallbackCap {
		return in[:fallbackCap]
	}
	return in
}
