// internal/contextbudget/manager_test.go
package contextbudget

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hr-assistant/internal/common/config"
	"hr-assistant/internal/common/logger"
	"hr-assistant/internal/models"
)

var testNow = time.Date(2025, 6, 4, 10, 0, 0, 0, time.UTC)

func newManager(window, safety int) *Manager {
	return New(config.BudgetConfig{
		ContextWindow:      window,
		SafetyBuffer:       safety,
		InstructionsRatio:  0.15,
		DataRatio:          0.35,
		HistoryRatio:       0.50,
		OptimizeThreshold:  0.6,
		SummarizeThreshold: 0.8,
	}, logger.NewNoOpLogger(), WithClock(func() time.Time { return testNow }))
}

// paddedMessage builds a message whose content is exactly 100 characters,
// i.e. 25 content tokens plus the per-message overhead of 4.
func paddedMessage(i int, role string) models.Message {
	prefix := fmt.Sprintf("%02d %s ", i, role)
	return models.Message{
		Role:    role,
		Content: prefix + strings.Repeat("x", 100-len(prefix)),
	}
}

func alternating(n int) []models.Message {
	msgs := make([]models.Message, n)
	for i := 0; i < n; i++ {
		role := models.RoleUser
		if i%2 == 1 {
			role = models.RoleAssistant
		}
		msgs[i] = paddedMessage(i, role)
	}
	return msgs
}

// ==========================
// Token estimation
// ==========================

func TestEstimateTokens(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{"", 0},
		{"abcd", 1},
		{"abcde", 2},
		{strings.Repeat("x", 100), 25},
		{strings.Repeat("x", 101), 26},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, EstimateTokens(tt.text), "%q", tt.text)
	}
}

func TestEstimateMessage_AddsOverhead(t *testing.T) {
	m := models.Message{Role: models.RoleUser, Content: strings.Repeat("x", 100)}
	assert.Equal(t, 29, EstimateMessage(m))
}

// ==========================
// History within budget
// ==========================

func TestBuildContext_NoTrimmingWhenWithinBudget(t *testing.T) {
	m := newManager(16000, 1000)
	history := alternating(6)

	ctx := m.BuildContext(history, "some data", "instructions")

	assert.Equal(t, history, ctx.Messages, "history under budget passes through verbatim")
	assert.Equal(t, "some data", ctx.DataText)
	assert.Equal(t, "instructions", ctx.Instructions)
	assert.False(t, ctx.Flags.Optimize)
	assert.False(t, ctx.Flags.Summarize)
	assert.Empty(t, ctx.Advisory)
	assert.Equal(t, testNow, ctx.Metadata.LastUpdated)
	assert.Equal(t, 6, ctx.Metadata.MessageCount)
}

// ==========================
// Trimming policy
// ==========================

// window 700, no buffer: history sub-budget 350 tokens. 14 messages of 29
// tokens total 406, forcing the trim path without the summary trigger.
func TestBuildContext_RecentEightKeptVerbatim(t *testing.T) {
	m := newManager(700, 0)
	history := alternating(14)

	ctx := m.BuildContext(history, "", "")

	require.GreaterOrEqual(t, len(ctx.Messages), recentKeep)
	gotTail := ctx.Messages[len(ctx.Messages)-recentKeep:]
	assert.Equal(t, history[len(history)-recentKeep:], gotTail, "most recent 8 survive untouched")
	assert.LessOrEqual(t, EstimateMessages(ctx.Messages), 350)
}

func TestBuildContext_PairsKeptOldestFirst(t *testing.T) {
	m := newManager(700, 0)
	history := alternating(14)

	ctx := m.BuildContext(history, "", "")

	// Budget leftover after the recent 8 (232 tokens) is 118; two full
	// user/assistant pairs of 58 tokens fit, keeping messages 0-3.
	require.Len(t, ctx.Messages, 12)
	assert.Equal(t, history[0], ctx.Messages[0])
	assert.Equal(t, history[3], ctx.Messages[3])
	assert.Equal(t, history[6], ctx.Messages[4], "messages 4 and 5 were dropped as a pair")
}

func TestBuildContext_ChronologicalOrder(t *testing.T) {
	m := newManager(700, 0)
	history := alternating(14)

	ctx := m.BuildContext(history, "", "")

	positions := make(map[string]int, len(history))
	for i, msg := range history {
		positions[msg.Content] = i
	}
	last := -1
	for _, msg := range ctx.Messages {
		pos, ok := positions[msg.Content]
		require.True(t, ok)
		assert.Greater(t, pos, last, "kept messages stay in chronological order")
		last = pos
	}
}

func TestBuildContext_SystemMessagesBoundedShare(t *testing.T) {
	m := newManager(700, 0)
	history := alternating(14)
	history[0] = paddedMessage(0, models.RoleSystem)
	history[1] = paddedMessage(1, models.RoleSystem)

	ctx := m.BuildContext(history, "", "")

	// System share is 30% of the 118-token leftover: 35 tokens, room for
	// exactly one 29-token system message, the newer one.
	contents := make(map[string]bool)
	for _, msg := range ctx.Messages {
		contents[msg.Content] = true
	}
	assert.False(t, contents[history[0].Content], "oldest system message biased out first")
	assert.True(t, contents[history[1].Content])
}

// ==========================
// Synthetic summary
// ==========================

func TestBuildContext_SyntheticSummary(t *testing.T) {
	m := newManager(700, 0)
	history := alternating(20)
	for i := range history {
		if history[i].Role == models.RoleAssistant {
			history[i].AssistantType = models.AssistantEmployee
		}
	}
	history[0].Content = "00 user asking about shift swap and the schedule " + strings.Repeat("x", 51)
	history[0].Content = history[0].Content[:100]

	ctx := m.BuildContext(history, "", "")

	// Everything older than the last 6 collapses into one summary message.
	require.Len(t, ctx.Messages, summaryTailKeep+1)
	summary := ctx.Messages[0]
	assert.Equal(t, models.RoleSystem, summary.Role)
	assert.Contains(t, summary.Content, "Summary of the earlier conversation")
	assert.Contains(t, summary.Content, models.AssistantEmployee)
	assert.Contains(t, summary.Content, "shift")
	assert.Equal(t, history[len(history)-1], ctx.Messages[len(ctx.Messages)-1])
}

func TestBuildContext_NoSummaryAtFifteenOrFewer(t *testing.T) {
	m := newManager(700, 0)
	history := alternating(15)

	ctx := m.BuildContext(history, "", "")

	for _, msg := range ctx.Messages {
		assert.NotContains(t, msg.Content, "Summary of the earlier conversation")
	}
}

// ==========================
// Usage analysis
// ==========================

func TestBuildContext_UsageFlags(t *testing.T) {
	tests := []struct {
		name          string
		contentChars  int
		wantOptimize  bool
		wantSummarize bool
	}{
		{"below both thresholds", 400, false, false},
		{"over optimize threshold", 2500, true, false},
		{"over summarize threshold", 3400, true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newManager(1000, 0)
			history := []models.Message{{Role: models.RoleUser, Content: strings.Repeat("x", tt.contentChars)}}

			ctx := m.BuildContext(history, "", "")

			assert.Equal(t, tt.wantOptimize, ctx.Flags.Optimize)
			assert.Equal(t, tt.wantSummarize, ctx.Flags.Summarize)
			if tt.wantOptimize {
				assert.NotEmpty(t, ctx.Advisory, "optimize flag surfaces a user-visible advisory")
			} else {
				assert.Empty(t, ctx.Advisory)
			}
		})
	}
}

// ==========================
// Data truncation & floor
// ==========================

func TestBuildContext_DataTruncatedToSubBudget(t *testing.T) {
	m := newManager(1000, 0)
	data := strings.Repeat("d", 5000) // 1250 tokens, data budget is 350

	ctx := m.BuildContext(nil, data, "")

	assert.LessOrEqual(t, EstimateTokens(ctx.DataText), 350)
	assert.True(t, strings.HasPrefix(data, ctx.DataText))
}

func TestBuildContext_FloorNeverExceedsBudget(t *testing.T) {
	m := newManager(100, 0)
	history := make([]models.Message, 10)
	for i := range history {
		history[i] = models.Message{Role: models.RoleUser, Content: strings.Repeat("y", 400)}
	}

	ctx := m.BuildContext(history, strings.Repeat("d", 2000), strings.Repeat("i", 100))

	assert.LessOrEqual(t, ctx.Metadata.TotalTokens, m.Available(), "payload always fits, trimming never fails")
	assert.Empty(t, ctx.DataText, "data is dropped before message content is cut")
	assert.LessOrEqual(t, len(ctx.Messages), recentKeep)
	for _, msg := range ctx.Messages {
		assert.Less(t, len(msg.Content), 400, "message content truncated as last resort")
	}
}

func TestBuildContext_EmptyInputs(t *testing.T) {
	m := newManager(16000, 1000)

	ctx := m.BuildContext(nil, "", "")

	assert.Empty(t, ctx.Messages)
	assert.Empty(t, ctx.DataText)
	assert.Zero(t, ctx.Metadata.TotalTokens)
}
