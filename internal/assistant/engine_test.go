// internal/assistant/engine_test.go
package assistant

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hr-assistant/internal/analyzer"
	"hr-assistant/internal/cache"
	"hr-assistant/internal/common/config"
	apperrors "hr-assistant/internal/common/errors"
	"hr-assistant/internal/common/logger"
	"hr-assistant/internal/contextbudget"
	"hr-assistant/internal/llm"
	"hr-assistant/internal/models"
	"hr-assistant/internal/records"
	"hr-assistant/internal/retrieval"
	"hr-assistant/internal/service"
)

var testNow = time.Date(2025, 6, 4, 10, 0, 0, 0, time.UTC)

func clock() time.Time { return testNow }

func newTestEngine(t *testing.T, chat llm.ChatClient) *Engine {
	t.Helper()
	log := logger.NewNoOpLogger()
	src := records.Seed(testNow)
	c := cache.New(log, nil)
	svc := service.New(c, src,
		config.CacheConfig{ReferenceTTL: 900, OperationalTTL: 300, QueryTTL: 300, DateScopedTTL: 120},
		config.CoalesceConfig{WindowMillis: 5}, log)

	a, err := analyzer.New(context.Background(), svc,
		config.AnalyzerConfig{AssistantConfidenceThreshold: 0.6, DomainScoreMargin: 0.3},
		log, analyzer.WithClock(clock))
	require.NoError(t, err)

	r := retrieval.New(svc, log, retrieval.WithClock(clock))
	b := contextbudget.New(config.BudgetConfig{
		ContextWindow:      16000,
		SafetyBuffer:       1000,
		InstructionsRatio:  0.15,
		DataRatio:          0.35,
		HistoryRatio:       0.50,
		OptimizeThreshold:  0.6,
		SummarizeThreshold: 0.8,
	}, log, contextbudget.WithClock(clock))

	return New(svc, a, r, b, chat, log)
}

func TestEngine_AskScheduleQuery(t *testing.T) {
	fake := llm.NewFakeClient(llm.ChatResult{
		Content: "Jordan Williams works Monday through Friday this week, 09:00-17:00.",
		Usage:   llm.Usage{PromptTokens: 500, CompletionTokens: 20, TotalTokens: 520},
	})
	e := newTestEngine(t, fake)

	resp, err := e.Ask(context.Background(), &models.ConversationState{}, "Show me Jordan Williams's shifts this week")
	require.NoError(t, err)

	assert.NotEmpty(t, resp.QueryID)
	assert.Contains(t, resp.Content, "Jordan Williams")
	assert.Equal(t, models.AssistantEmployee, resp.AssistantType)
	assert.Greater(t, resp.RecordCount, 0)
	assert.Equal(t, 520, resp.Usage.TotalTokens)

	// Exactly one outbound call, carrying instructions, data, and query.
	assert.Equal(t, 1, fake.CallCount())
	sent := fake.LastMessages()
	require.GreaterOrEqual(t, len(sent), 3)
	assert.Equal(t, models.RoleSystem, sent[0].Role)
	assert.Contains(t, sent[1].Content, "DATA:")
	assert.Contains(t, sent[1].Content, "Jordan Williams (E001)")
	last := sent[len(sent)-1]
	assert.Equal(t, models.RoleUser, last.Role)
	assert.Contains(t, last.Content, "shifts this week")
}

func TestEngine_GeneralQuestionSkipsRetrieval(t *testing.T) {
	fake := llm.NewFakeClient(llm.ChatResult{Content: "Hello! How can I help?"})
	e := newTestEngine(t, fake)

	resp, err := e.Ask(context.Background(), nil, "hello there")
	require.NoError(t, err)

	assert.Zero(t, resp.RecordCount)
	for _, msg := range fake.LastMessages() {
		assert.False(t, strings.HasPrefix(msg.Content, "DATA:"), "no data section without retrieval")
	}
}

func TestEngine_TalentQueryUsesTalentInstructions(t *testing.T) {
	fake := llm.NewFakeClient(llm.ChatResult{Content: "The posting is open with three candidates."})
	e := newTestEngine(t, fake)

	resp, err := e.Ask(context.Background(), nil, "What's the status of the Software Developer position?")
	require.NoError(t, err)

	assert.Equal(t, models.AssistantTalent, resp.AssistantType)
	sent := fake.LastMessages()
	assert.Contains(t, sent[0].Content, "talent acquisition")
}

func TestEngine_AdvisoryPropagates(t *testing.T) {
	fake := llm.NewFakeClient(llm.ChatResult{Content: "noted"})
	e := newTestEngine(t, fake)

	// Enough history to push cumulative usage past the optimize threshold
	// of the 16000-token window.
	var history []models.Message
	for i := 0; i < 50; i++ {
		history = append(history, models.Message{Role: models.RoleUser, Content: strings.Repeat("x", 800)})
	}
	state := &models.ConversationState{Messages: history}

	resp, err := e.Ask(context.Background(), state, "hello there")
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Advisory, "long conversations surface the optimize advisory")
}

func TestEngine_LLMFailurePropagates(t *testing.T) {
	fake := llm.NewFakeClient()
	fake.Fail(apperrors.NewLLMCallError(errors.New("upstream 503")))
	e := newTestEngine(t, fake)

	_, err := e.Ask(context.Background(), nil, "hello there")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrLLMCallFailed))
	assert.Equal(t, apperrors.ErrCodeLLMCallFailed, apperrors.CodeOf(err))
}

func TestEngine_GetMetrics(t *testing.T) {
	fake := llm.NewFakeClient(llm.ChatResult{Content: "ok"})
	e := newTestEngine(t, fake)
	ctx := context.Background()

	_, err := e.Ask(ctx, nil, "Show me Jordan Williams's shifts this week")
	require.NoError(t, err)
	_, err = e.Ask(ctx, nil, "Show me Jordan Williams's shifts this week")
	require.NoError(t, err)

	m := e.GetMetrics()
	assert.Equal(t, uint64(2), m.QueriesProcessed)
	assert.Greater(t, m.CacheHitRate, 0.0, "second identical query hits the cache")
	assert.GreaterOrEqual(t, m.BatchedRequestRate, 0.0)
}

func TestEngine_Invalidate(t *testing.T) {
	fake := llm.NewFakeClient(llm.ChatResult{Content: "ok"})
	e := newTestEngine(t, fake)
	ctx := context.Background()

	_, err := e.Ask(ctx, nil, "Show me Jordan Williams's shifts this week")
	require.NoError(t, err)

	e.Invalidate(ctx, []string{string(models.KindShifts)})

	stats := e.svc.CacheStats()
	assert.Zero(t, stats.PerCategorySize[string(models.KindShifts)])
	assert.Zero(t, stats.PerCategorySize[service.CategoryRelationships])
}
