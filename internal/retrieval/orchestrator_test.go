// internal/retrieval/orchestrator_test.go
package retrieval

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hr-assistant/internal/analyzer"
	"hr-assistant/internal/cache"
	"hr-assistant/internal/common/config"
	"hr-assistant/internal/common/logger"
	"hr-assistant/internal/models"
	"hr-assistant/internal/records"
	"hr-assistant/internal/service"
)

// Wednesday June 4th 2025; the Sunday–Saturday week is 06-01 through 06-07.
var testNow = time.Date(2025, 6, 4, 10, 0, 0, 0, time.UTC)

func newPipeline(t *testing.T) (*analyzer.Analyzer, *Orchestrator) {
	t.Helper()
	src := records.Seed(testNow)
	c := cache.New(logger.NewNoOpLogger(), nil)
	svc := service.New(c, src,
		config.CacheConfig{ReferenceTTL: 900, OperationalTTL: 300, QueryTTL: 300, DateScopedTTL: 120},
		config.CoalesceConfig{WindowMillis: 5}, logger.NewNoOpLogger())

	a, err := analyzer.New(context.Background(), svc,
		config.AnalyzerConfig{AssistantConfidenceThreshold: 0.6, DomainScoreMargin: 0.3},
		logger.NewNoOpLogger(), analyzer.WithClock(func() time.Time { return testNow }))
	require.NoError(t, err)

	o := New(svc, logger.NewNoOpLogger(), WithClock(func() time.Time { return testNow }))
	return a, o
}

func employeeIDs(data *RetrievedData) map[string]bool {
	out := make(map[string]bool)
	for _, e := range data.Employees {
		out[e.ID] = true
	}
	return out
}

// ==========================
// Entity-driven retrieval
// ==========================

func TestRetrieve_EmployeeShiftsThisWeek(t *testing.T) {
	a, o := newPipeline(t)

	analysis := a.Analyze("Show me Jordan Williams's shifts this week")
	data, err := o.Retrieve(context.Background(), analysis)
	require.NoError(t, err)

	assert.True(t, employeeIDs(data)["E001"], "matched employee is retrieved")
	require.NotEmpty(t, data.Shifts)
	for _, sh := range data.Shifts {
		assert.Equal(t, "E001", sh.EmployeeID)
		assert.GreaterOrEqual(t, sh.Date, "2025-06-01", "inside the Sunday–Saturday window")
		assert.LessOrEqual(t, sh.Date, "2025-06-07")
	}

	related := data.Related[RelationEmployeeShifts+":E001"]
	assert.Len(t, related, len(data.Shifts), "relationship pass re-indexes fetched shifts")
}

func TestRetrieve_JobWithCandidatePipeline(t *testing.T) {
	a, o := newPipeline(t)

	analysis := a.Analyze("Which candidates are in the pipeline for the Software Developer position?")
	data, err := o.Retrieve(context.Background(), analysis)
	require.NoError(t, err)

	require.NotEmpty(t, data.Jobs)
	assert.Equal(t, "J001", data.Jobs[0].ID)

	require.NotEmpty(t, data.Candidates, "job resolves its pipeline counterpart")
	for _, c := range data.Candidates {
		assert.Equal(t, "J001", c.JobID)
	}

	assert.NotEmpty(t, data.Related[RelationJobCandidates+":J001"])
}

func TestRetrieve_CandidateResolvesJobCounterpart(t *testing.T) {
	a, o := newPipeline(t)

	analysis := a.Analyze("What stage is candidate Taylor Nguyen at?")
	data, err := o.Retrieve(context.Background(), analysis)
	require.NoError(t, err)

	require.NotEmpty(t, data.Candidates)
	assert.Equal(t, "C001", data.Candidates[0].ID)
	require.NotEmpty(t, data.Jobs, "candidate pulls in its job")
	assert.Equal(t, "J001", data.Jobs[0].ID)
}

func TestRetrieve_ByIDToken(t *testing.T) {
	a, o := newPipeline(t)

	analysis := a.Analyze("show profile for E004")
	data, err := o.Retrieve(context.Background(), analysis)
	require.NoError(t, err)

	ids := employeeIDs(data)
	assert.True(t, ids["E004"])
	assert.True(t, ids["E005"], "employee-info intent pulls the manager")
}

func TestRetrieve_DepartmentEntity(t *testing.T) {
	a, o := newPipeline(t)

	analysis := a.Analyze("who is on the team in engineering")
	data, err := o.Retrieve(context.Background(), analysis)
	require.NoError(t, err)

	ids := employeeIDs(data)
	assert.True(t, ids["E004"])
	assert.True(t, ids["E005"])
	assert.False(t, ids["E001"], "other departments stay out")
}

// ==========================
// Invariants
// ==========================

func TestRetrieve_NoDuplicateIDsPerKind(t *testing.T) {
	a, o := newPipeline(t)

	// "jordan" and "jordan williams" both resolve to E001.
	analysis := a.Analyze("shifts for jordan williams this week")
	data, err := o.Retrieve(context.Background(), analysis)
	require.NoError(t, err)

	seen := make(map[string]bool)
	for _, e := range data.Employees {
		assert.False(t, seen[e.ID], "duplicate employee %s", e.ID)
		seen[e.ID] = true
	}
	seenShifts := make(map[string]bool)
	for _, sh := range data.Shifts {
		assert.False(t, seenShifts[sh.ID], "duplicate shift %s", sh.ID)
		seenShifts[sh.ID] = true
	}
}

func TestRetrieve_Idempotent(t *testing.T) {
	a, o := newPipeline(t)
	ctx := context.Background()

	analysis := a.Analyze("Show me Jordan Williams's shifts this week")
	first, err := o.Retrieve(ctx, analysis)
	require.NoError(t, err)
	second, err := o.Retrieve(ctx, analysis)
	require.NoError(t, err)

	assert.Equal(t, employeeIDs(first), employeeIDs(second))
	assert.Equal(t, len(first.Shifts), len(second.Shifts))
	assert.Equal(t, first.RecordCount(), second.RecordCount())
}

func TestRetrieve_RelationshipPassDoesNotFetch(t *testing.T) {
	a, o := newPipeline(t)

	// Schedule intent without task intent: tasks are never fetched, so no
	// task relationships may appear either.
	analysis := a.Analyze("Show me Jordan Williams's shifts this week")
	data, err := o.Retrieve(context.Background(), analysis)
	require.NoError(t, err)

	assert.Empty(t, data.Tasks)
	for key := range data.Related {
		assert.NotContains(t, key, RelationEmployeeTasks, "re-index must not introduce unfetched records")
	}
}

// ==========================
// Intent fallbacks
// ==========================

func TestRetrieve_ScheduleFallbackNextSevenDays(t *testing.T) {
	a, o := newPipeline(t)

	analysis := a.Analyze("what does the schedule look like")
	require.Empty(t, analysis.EntitiesOfType(analyzer.EntityEmployee))

	data, err := o.Retrieve(context.Background(), analysis)
	require.NoError(t, err)

	require.NotEmpty(t, data.Shifts)
	assert.LessOrEqual(t, len(data.Shifts), fallbackCap, "fallback lists are capped")
	for _, sh := range data.Shifts {
		assert.GreaterOrEqual(t, sh.Date, "2025-06-04")
		assert.LessOrEqual(t, sh.Date, "2025-06-11")
	}
}

func TestRetrieve_OpenJobsFallback(t *testing.T) {
	a, o := newPipeline(t)

	analysis := a.Analyze("any open roles right now?")
	data, err := o.Retrieve(context.Background(), analysis)
	require.NoError(t, err)

	require.NotEmpty(t, data.Jobs)
	for _, j := range data.Jobs {
		assert.Equal(t, models.JobStatusOpen, j.Status)
	}
}

func TestRetrieve_CandidateStageFallback(t *testing.T) {
	a, o := newPipeline(t)

	analysis := a.Analyze("show me the candidate pipeline")
	data, err := o.Retrieve(context.Background(), analysis)
	require.NoError(t, err)

	require.NotEmpty(t, data.Candidates)
	for _, c := range data.Candidates {
		assert.Contains(t, []string{models.StageInterview, models.StageOffer}, c.Stage)
	}
}

func TestRetrieve_NoDataForGeneralQuestion(t *testing.T) {
	a, o := newPipeline(t)

	analysis := a.Analyze("hello there")
	require.False(t, analysis.RequiresData)

	data, err := o.Retrieve(context.Background(), analysis)
	require.NoError(t, err)
	assert.True(t, data.IsEmpty())
}

// ==========================
// Formatting
// ==========================

func TestFormatText(t *testing.T) {
	a, o := newPipeline(t)

	analysis := a.Analyze("Show me Jordan Williams's shifts this week")
	data, err := o.Retrieve(context.Background(), analysis)
	require.NoError(t, err)

	text := data.FormatText()
	assert.Contains(t, text, "EMPLOYEES:")
	assert.Contains(t, text, "Jordan Williams (E001)")
	assert.Contains(t, text, "SHIFTS:")
	assert.Contains(t, text, "RELATIONSHIPS:")
	assert.Contains(t, text, RelationEmployeeShifts+":E001")
}

func TestFormatText_Empty(t *testing.T) {
	data := NewRetrievedData()
	assert.Equal(t, "", data.FormatText())
}
