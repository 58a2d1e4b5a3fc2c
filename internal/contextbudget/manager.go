// Package contextbudget keeps the LLM payload inside a fixed token budget:
// the effective window minus a safety buffer, split between system
// instructions, retrieved data, and conversation history. It always produces
// a payload within budget; overflow is resolved by progressive trimming,
// never by failing.
package contextbudget

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"hr-assistant/internal/common/config"
	"hr-assistant/internal/common/logger"
	"hr-assistant/internal/common/metrics"
	"hr-assistant/internal/models"
)

// recentKeep is how many trailing messages survive trimming verbatim.
const recentKeep = 8

// systemShare is the fraction of the leftover history budget reserved for
// system-role messages during trimming.
const systemShare = 0.3

// summaryTriggerCount and summaryTailKeep control synthetic summarization:
// when the original history exceeds the trigger and trimming removed
// anything, everything older than the tail is replaced by one summary
// message.
const (
	summaryTriggerCount = 15
	summaryTailKeep     = 6
)

// topicKeywords are matched by substring against trimmed history to label
// the synthetic summary.
var topicKeywords = []string{
	"shift", "schedule", "task", "candidate", "interview",
	"job", "recognition", "offer", "hiring", "team",
}

// maxSummaryTopics caps how many topic labels the summary names.
const maxSummaryTopics = 5

// UsageFlags is the result of analyzing cumulative usage of the untouched
// history against the full context window.
type UsageFlags struct {
	Optimize  bool `json:"optimize"`
	Summarize bool `json:"summarize"`
}

// BoundedContext is the within-budget payload handed to the LLM boundary.
type BoundedContext struct {
	Instructions string                 `json:"instructions"`
	Messages     []models.Message       `json:"messages"`
	DataText     string                 `json:"dataText"`
	Metadata     models.ContextMetadata `json:"metadata"`
	Flags        UsageFlags             `json:"flags"`
	Advisory     string                 `json:"advisory,omitempty"`
}

// Manager is stateless between calls; one instance serves concurrent
// pipelines.
type Manager struct {
	window       int
	safetyBuffer int

	instructionsRatio float64
	dataRatio         float64
	historyRatio      float64

	optimizeThreshold  float64
	summarizeThreshold float64

	now    func() time.Time
	logger logger.Logger
}

// Option tunes a Manager.
type Option func(*Manager)

// WithClock overrides time.Now for metadata timestamps in tests.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

func New(cfg config.BudgetConfig, log logger.Logger, opts ...Option) *Manager {
	m := &Manager{
		window:             cfg.ContextWindow,
		safetyBuffer:       cfg.SafetyBuffer,
		instructionsRatio:  cfg.InstructionsRatio,
		dataRatio:          cfg.DataRatio,
		historyRatio:       cfg.HistoryRatio,
		optimizeThreshold:  cfg.OptimizeThreshold,
		summarizeThreshold: cfg.SummarizeThreshold,
		now:                time.Now,
		logger:             log.With(map[string]interface{}{"component": "budget"}),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Available returns the effective budget: window minus safety buffer.
func (m *Manager) Available() int { return m.window - m.safetyBuffer }

// BuildContext merges instructions, retrieved data text, and history into a
// payload guaranteed to fit the budget.
func (m *Manager) BuildContext(history []models.Message, dataText, instructions string) *BoundedContext {
	start := m.now()
	available := m.Available()
	instructionsBudget := int(float64(available) * m.instructionsRatio)
	dataBudget := int(float64(available) * m.dataRatio)
	historyBudget := int(float64(available) * m.historyRatio)

	flags, advisory := m.analyzeUsage(history)

	boundedInstructions := truncateToTokens(instructions, instructionsBudget)
	boundedData := truncateToTokens(dataText, dataBudget)
	boundedHistory := m.optimizeHistory(history, historyBudget)

	// Absolute floor: if the assembled payload still overflows, drop the
	// data text, then truncate message content. Never fail.
	total := EstimateTokens(boundedInstructions) + EstimateTokens(boundedData) + EstimateMessages(boundedHistory)
	if total > available {
		m.logger.Warn("payload over budget after trimming, applying floor", map[string]interface{}{
			"total":     total,
			"available": available,
		})
		boundedData = ""
		boundedHistory = tail(history, recentKeep)
		remaining := available - EstimateTokens(boundedInstructions)
		boundedHistory = truncateMessageContent(boundedHistory, remaining)
	}

	totalTokens := EstimateTokens(boundedInstructions) + EstimateTokens(boundedData) + EstimateMessages(boundedHistory)
	metrics.QueryDuration.WithLabelValues("budget").Observe(m.now().Sub(start).Seconds())

	return &BoundedContext{
		Instructions: boundedInstructions,
		Messages:     boundedHistory,
		DataText:     boundedData,
		Metadata: models.ContextMetadata{
			TotalTokens:  totalTokens,
			MessageCount: len(boundedHistory),
			LastUpdated:  m.now(),
		},
		Flags:    flags,
		Advisory: advisory,
	}
}

// analyzeUsage inspects the full untouched history against the whole
// window.
func (m *Manager) analyzeUsage(history []models.Message) (UsageFlags, string) {
	if m.window == 0 {
		return UsageFlags{}, ""
	}
	usage := float64(EstimateMessages(history)) / float64(m.window)

	var flags UsageFlags
	var advisory string
	if usage > m.summarizeThreshold {
		flags.Summarize = true
	}
	if usage > m.optimizeThreshold {
		flags.Optimize = true
		advisory = "This conversation is getting long. Starting a fresh session will keep responses fast and focused."
	}
	return flags, advisory
}

// optimizeHistory applies the trimming policy only when history exceeds its
// sub-budget: keep the most recent messages verbatim, keep a bounded share
// of older system messages, then keep user/assistant pairs oldest to newest
// while they fit, and re-sort chronologically.
func (m *Manager) optimizeHistory(history []models.Message, budget int) []models.Message {
	if EstimateMessages(history) <= budget {
		return append([]models.Message(nil), history...)
	}

	type indexed struct {
		idx int
		msg models.Message
	}

	recentStart := len(history) - recentKeep
	if recentStart < 0 {
		recentStart = 0
	}
	recent := history[recentStart:]
	older := history[:recentStart]

	leftover := budget - EstimateMessages(recent)
	kept := make([]indexed, 0, len(history))
	for i, msg := range recent {
		kept = append(kept, indexed{idx: recentStart + i, msg: msg})
	}

	if leftover > 0 {
		// System messages first, newest preferred, inside their share.
		systemBudget := int(float64(leftover) * systemShare)
		usedSystem := 0
		for i := len(older) - 1; i >= 0; i-- {
			if older[i].Role != models.RoleSystem {
				continue
			}
			cost := EstimateMessage(older[i])
			if usedSystem+cost > systemBudget {
				continue
			}
			usedSystem += cost
			kept = append(kept, indexed{idx: i, msg: older[i]})
		}

		// Then user/assistant pairs, oldest to newest; a pair that would
		// overflow is dropped and the walk continues.
		pairBudget := leftover - usedSystem
		for _, pair := range pairUp(older) {
			cost := 0
			for _, p := range pair {
				cost += EstimateMessage(older[p])
			}
			if cost > pairBudget {
				continue
			}
			pairBudget -= cost
			for _, p := range pair {
				kept = append(kept, indexed{idx: p, msg: older[p]})
			}
		}
	}

	sort.Slice(kept, func(i, j int) bool { return kept[i].idx < kept[j].idx })
	out := make([]models.Message, len(kept))
	for i, k := range kept {
		out[i] = k.msg
	}

	trimmed := len(out) < len(history)
	if trimmed && len(history) > summaryTriggerCount {
		out = m.summarizeOlder(history, out)
	}
	return out
}

// pairUp groups the non-system messages into user/assistant pairs by index,
// walking oldest to newest. An unpaired message forms a singleton group.
func pairUp(msgs []models.Message) [][]int {
	var groups [][]int
	i := 0
	for i < len(msgs) {
		if msgs[i].Role == models.RoleSystem {
			i++
			continue
		}
		if msgs[i].Role == models.RoleUser && i+1 < len(msgs) && msgs[i+1].Role == models.RoleAssistant {
			groups = append(groups, []int{i, i + 1})
			i += 2
			continue
		}
		groups = append(groups, []int{i})
		i++
	}
	return groups
}

// summarizeOlder replaces everything older than the last summaryTailKeep
// messages with one synthetic summary built from the dominant assistant
// type and the topics found in the replaced span.
func (m *Manager) summarizeOlder(original, kept []models.Message) []models.Message {
	if len(kept) <= summaryTailKeep {
		return kept
	}
	tailMsgs := kept[len(kept)-summaryTailKeep:]
	replaced := original[:len(original)-summaryTailKeep]

	byType := make(map[string]int)
	var topics []string
	seenTopic := make(map[string]bool)
	for _, msg := range replaced {
		if msg.AssistantType != "" {
			byType[msg.AssistantType]++
		}
		lowered := strings.ToLower(msg.Content)
		for _, kw := range topicKeywords {
			if len(topics) >= maxSummaryTopics {
				break
			}
			if !seenTopic[kw] && strings.Contains(lowered, kw) {
				seenTopic[kw] = true
				topics = append(topics, kw)
			}
		}
	}

	dominant := models.AssistantUnified
	best := 0
	for typ, n := range byType {
		if n > best {
			best = n
			dominant = typ
		}
	}

	content := fmt.Sprintf("Summary of the earlier conversation (%d messages, %s assistant)", len(replaced), dominant)
	if len(topics) > 0 {
		content += ": topics discussed were " + strings.Join(topics, ", ")
	}
	content += "."

	summary := models.Message{
		Role:          models.RoleSystem,
		Content:       content,
		AssistantType: dominant,
	}
	if ts := replaced[len(replaced)-1].Timestamp; !ts.IsZero() {
		summary.Timestamp = ts
	}

	return append([]models.Message{summary}, tailMsgs...)
}

// truncateToTokens bounds a text to a token budget by cutting characters.
func truncateToTokens(text string, budget int) string {
	if EstimateTokens(text) <= budget {
		return text
	}
	maxChars := budget * charsPerToken
	if maxChars <= 0 {
		return ""
	}
	if maxChars < len(text) {
		return text[:maxChars]
	}
	return text
}

// truncateMessageContent is the last-resort floor: shrink message contents
// until the set fits the remaining budget.
func truncateMessageContent(msgs []models.Message, budget int) []models.Message {
	out := append([]models.Message(nil), msgs...)
	if len(out) == 0 {
		return out
	}
	contentBudget := budget - len(out)*messageOverhead
	if contentBudget < 0 {
		contentBudget = 0
	}
	perMessage := contentBudget / len(out)
	for i := range out {
		out[i].Content = truncateToTokens(out[i].Content, perMessage)
	}
	return out
}

// tail returns the last n messages.
func tail(msgs []models.Message, n int) []models.Message {
	if len(msgs) <= n {
		return append([]models.Message(nil), msgs...)
	}
	return append([]models.Message(nil), msgs[len(msgs)-n:]...)
}
