// Package assistant wires the whole pipeline behind one facade: analyze the
// query, retrieve the relevant records, fit everything into the token
// budget, and make the single outbound chat call.
package assistant

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"hr-assistant/internal/analyzer"
	"hr-assistant/internal/common/logger"
	"hr-assistant/internal/common/metrics"
	"hr-assistant/internal/common/observability"
	"hr-assistant/internal/contextbudget"
	"hr-assistant/internal/llm"
	"hr-assistant/internal/models"
	"hr-assistant/internal/retrieval"
	"hr-assistant/internal/service"
)

// Response is the structured result handed back to the hosting UI layer.
type Response struct {
	QueryID       string                  `json:"queryId"`
	Content       string                  `json:"content"`
	AssistantType string                  `json:"assistantType"`
	Analysis      *analyzer.QueryAnalysis `json:"analysis"`
	Advisory      string                  `json:"advisory,omitempty"`
	Metadata      models.ContextMetadata  `json:"metadata"`
	Usage         llm.Usage               `json:"usage"`
	RecordCount   int                     `json:"recordCount"`
}

// Metrics is the observability snapshot exposed to the hosting layer.
type Metrics struct {
	CacheHitRate       float64       `json:"cacheHitRate"`
	BatchedRequestRate float64       `json:"batchedRequestRate"`
	AverageLatency     time.Duration `json:"averageLatency"`
	QueriesProcessed   uint64        `json:"queriesProcessed"`
}

// Engine is safe for concurrent use; all mutable state lives in the shared
// cache and coalescer underneath.
type Engine struct {
	svc       *service.Service
	analyzer  *analyzer.Analyzer
	retriever *retrieval.Orchestrator
	budget    *contextbudget.Manager
	chat      llm.ChatClient
	obs       *observability.Observability

	queries      atomic.Uint64
	latencyNanos atomic.Int64

	now    func() time.Time
	logger logger.Logger
}

// Option tunes an Engine.
type Option func(*Engine)

// WithClock overrides time.Now for latency accounting in tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithObservability attaches an otel recorder; nil disables it.
func WithObservability(obs *observability.Observability) Option {
	return func(e *Engine) { e.obs = obs }
}

func New(svc *service.Service, a *analyzer.Analyzer, r *retrieval.Orchestrator, b *contextbudget.Manager, chat llm.ChatClient, log logger.Logger, opts ...Option) *Engine {
	e := &Engine{
		svc:       svc,
		analyzer:  a,
		retriever: r,
		budget:    b,
		chat:      chat,
		now:       time.Now,
		logger:    log.With(map[string]interface{}{"component": "engine"}),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Ask runs the full pipeline for one query against a conversation snapshot.
// The engine reads the snapshot and never persists it.
func (e *Engine) Ask(ctx context.Context, state *models.ConversationState, query string) (*Response, error) {
	start := e.now()
	queryID := uuid.New().String()

	analysis := e.analyzer.Analyze(query)
	e.logger.Debug("query analyzed", map[string]interface{}{
		"query_id":       queryID,
		"assistant_type": analysis.AssistantType,
		"primary_intent": string(analysis.PrimaryIntent.Category),
		"entities":       len(analysis.Entities),
		"confidence":     analysis.ConfidenceScore,
	})

	var dataText string
	recordCount := 0
	if analysis.RequiresData {
		data, err := e.retriever.Retrieve(ctx, analysis)
		if err != nil {
			return nil, err
		}
		dataText = data.FormatText()
		recordCount = data.RecordCount()
	}

	var history []models.Message
	if state != nil {
		history = state.Messages
	}
	instructions := instructionsFor(analysis.AssistantType)
	bounded := e.budget.BuildContext(history, dataText, instructions)

	result, err := e.chat.Send(ctx, assemblePayload(bounded, query), llm.SendOptions{})
	if err != nil {
		return nil, err
	}

	elapsed := e.now().Sub(start)
	e.queries.Add(1)
	e.latencyNanos.Add(int64(elapsed))
	metrics.QueriesProcessed.WithLabelValues(analysis.AssistantType).Inc()
	if e.obs != nil {
		e.obs.RecordQueryProcessed(ctx, analysis.AssistantType)
		e.obs.RecordQueryDuration(ctx, elapsed, "ok")
	}

	return &Response{
		QueryID:       queryID,
		Content:       result.Content,
		AssistantType: analysis.AssistantType,
		Analysis:      analysis,
		Advisory:      bounded.Advisory,
		Metadata:      bounded.Metadata,
		Usage:         result.Usage,
		RecordCount:   recordCount,
	}, nil
}

// assemblePayload flattens the bounded context into the outbound message
// list: instructions, data, trimmed history, then the current query.
func assemblePayload(bounded *contextbudget.BoundedContext, query string) []models.Message {
	msgs := make([]models.Message, 0, len(bounded.Messages)+3)
	if bounded.Instructions != "" {
		msgs = append(msgs, models.Message{Role: models.RoleSystem, Content: bounded.Instructions})
	}
	if bounded.DataText != "" {
		msgs = append(msgs, models.Message{Role: models.RoleSystem, Content: "DATA:\n" + bounded.DataText})
	}
	msgs = append(msgs, bounded.Messages...)
	msgs = append(msgs, models.Message{Role: models.RoleUser, Content: query})
	return msgs
}

// Invalidate is the write-path cache bust, forwarded to the record service.
func (e *Engine) Invalidate(ctx context.Context, kinds []string) {
	e.svc.Invalidate(ctx, kinds)
}

// GetMetrics returns the aggregate observability snapshot.
func (e *Engine) GetMetrics() Metrics {
	n := e.queries.Load()
	var avg time.Duration
	if n > 0 {
		avg = time.Duration(e.latencyNanos.Load() / int64(n))
	}
	return Metrics{
		CacheHitRate:       e.svc.CacheHitRate(),
		BatchedRequestRate: e.svc.BatchedRequestRate(),
		AverageLatency:     avg,
		QueriesProcessed:   n,
	}
}
