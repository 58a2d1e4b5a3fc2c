// Package analyzer turns raw query text into a ranked entity set, a ranked
// intent set, a target assistant type, and an overall confidence score. It
// is a deterministic rule engine driven by scoring tables, not a model.
package analyzer

import (
	"context"
	"math"
	"strings"
	"time"

	"hr-assistant/internal/common/config"
	apperrors "hr-assistant/internal/common/errors"
	"hr-assistant/internal/common/logger"
	"hr-assistant/internal/common/metrics"
	"hr-assistant/internal/service"
)

// secondaryDataConfidence gates whether a secondary intent's data flag
// counts toward requiresData.
const secondaryDataConfidence = 0.4

// Analyzer is safe for concurrent use; the name indexes are built once at
// construction and never mutated afterwards.
type Analyzer struct {
	index    *nameIndex
	degraded bool

	confidenceThreshold float64
	domainMargin        float64

	now    func() time.Time
	logger logger.Logger
}

// Option tunes an Analyzer beyond its config.
type Option func(*Analyzer)

// WithClock overrides time.Now for relative period resolution in tests.
func WithClock(now func() time.Time) Option {
	return func(a *Analyzer) { a.now = now }
}

// New builds the name indexes from the record service. When the service is
// unavailable the analyzer starts in degraded pattern-only mode and the
// returned error is the non-fatal ANALYSIS_DEGRADED advisory; the analyzer
// is usable either way.
func New(ctx context.Context, svc *service.Service, cfg config.AnalyzerConfig, log logger.Logger, opts ...Option) (*Analyzer, error) {
	a := &Analyzer{
		confidenceThreshold: cfg.AssistantConfidenceThreshold,
		domainMargin:        cfg.DomainScoreMargin,
		now:                 time.Now,
		logger:              log.With(map[string]interface{}{"component": "analyzer"}),
	}
	for _, opt := range opts {
		opt(a)
	}

	idx, err := buildIndex(ctx, svc)
	if err != nil {
		a.index = &nameIndex{
			employees:  map[string]string{},
			candidates: map[string]string{},
			jobs:       map[string]string{},
		}
		a.degraded = true
		a.logger.Warn("name index build failed, degrading to pattern-only detection", map[string]interface{}{
			"error": err.Error(),
		})
		return a, apperrors.NewAnalysisDegraded(err)
	}

	a.index = idx
	a.logger.Info("name indexes built", map[string]interface{}{
		"employees":   len(idx.employees),
		"candidates":  len(idx.candidates),
		"jobs":        len(idx.jobs),
		"departments": len(idx.departments),
	})
	return a, nil
}

// Degraded reports pattern-only mode.
func (a *Analyzer) Degraded() bool { return a.degraded }

// Analyze runs the full pipeline over one query. The result is immutable.
func (a *Analyzer) Analyze(query string) *QueryAnalysis {
	start := a.now()
	lowered := strings.ToLower(query)

	entities := a.detectEntities(lowered)
	intents := detectIntents(lowered, entities)

	primary := intents[0]
	secondary := intents[1:]

	assistantType := resolveAssistantType(primary, secondary, a.confidenceThreshold, a.domainMargin)

	overall := primary.Confidence + math.Min(0.2, 0.05*float64(len(entities)))
	if overall > 0.95 {
		overall = 0.95
	}

	requiresData := primary.RequiresData || len(entities) > 0
	if !requiresData {
		for _, si := range secondary {
			if si.RequiresData && si.Confidence > secondaryDataConfidence {
				requiresData = true
				break
			}
		}
	}

	metrics.QueryDuration.WithLabelValues("analyze").Observe(a.now().Sub(start).Seconds())

	return &QueryAnalysis{
		Query:            query,
		Entities:         entities,
		PrimaryIntent:    primary,
		SecondaryIntents: secondary,
		AssistantType:    assistantType,
		ConfidenceScore:  overall,
		RequiresData:     requiresData,
	}
}
