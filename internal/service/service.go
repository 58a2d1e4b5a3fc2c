// Package service is the only entry point the rest of the engine uses for
// record access. It composes the tiered cache, the record store, and the
// request coalescer into memoized accessors plus derived views.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"hr-assistant/internal/cache"
	"hr-assistant/internal/coalesce"
	"hr-assistant/internal/common/config"
	apperrors "hr-assistant/internal/common/errors"
	"hr-assistant/internal/common/logger"
	"hr-assistant/internal/common/metrics"
	"hr-assistant/internal/models"
	"hr-assistant/internal/records"
)

// Category names beyond the record kinds.
const (
	CategoryQuery         = "query"
	CategoryRelationships = "relationships"
)

// Service memoizes record access. Get-by-id goes cache → coalescer →
// cache populate; collection views go cache → record store → filter →
// cache under a deterministic key.
type Service struct {
	cache     *cache.TieredCache
	source    records.Source
	coalescer *coalesce.Coalescer

	referenceTTL   time.Duration
	operationalTTL time.Duration
	queryTTL       time.Duration
	dateScopedTTL  time.Duration

	logger logger.Logger
}

func New(c *cache.TieredCache, source records.Source, cfg config.CacheConfig, coalesceCfg config.CoalesceConfig, log logger.Logger) *Service {
	s := &Service{
		cache:          c,
		source:         source,
		referenceTTL:   time.Duration(cfg.ReferenceTTL) * time.Second,
		operationalTTL: time.Duration(cfg.OperationalTTL) * time.Second,
		queryTTL:       time.Duration(cfg.QueryTTL) * time.Second,
		dateScopedTTL:  time.Duration(cfg.DateScopedTTL) * time.Second,
		logger:         log.With(map[string]interface{}{"component": "record-service"}),
	}
	window := time.Duration(coalesceCfg.WindowMillis) * time.Millisecond
	s.coalescer = coalesce.New(s.loadAll, window, log)
	return s
}

func (s *Service) loadAll(ctx context.Context, kind models.RecordKind) ([]models.Record, error) {
	recs, err := s.source.LoadAll(ctx, kind)
	if err != nil {
		metrics.RecordLoads.WithLabelValues(string(kind), "error").Inc()
		return nil, err
	}
	metrics.RecordLoads.WithLabelValues(string(kind), "ok").Inc()
	return recs, nil
}

// ttlFor maps a record kind to its category TTL: slow-changing reference
// data long, operational data short.
func (s *Service) ttlFor(kind models.RecordKind) time.Duration {
	switch kind {
	case models.KindEmployees, models.KindJobs, models.KindCandidates:
		return s.referenceTTL
	default:
		return s.operationalTTL
	}
}

// cachedFetch is the memoization spine: tier-1 typed hit, tier-2 JSON hit
// (decode + promote), then loader + populate. Concurrent population of one
// key is last-write-wins.
func cachedFetch[T any](ctx context.Context, s *Service, category, key string, ttl time.Duration, load func(context.Context) (T, error)) (T, error) {
	var zero T

	v, raw, ok := s.cache.Lookup(ctx, key, category)
	if ok {
		if v != nil {
			if typed, isT := v.(T); isT {
				return typed, nil
			}
		} else if raw != nil {
			var typed T
			if err := json.Unmarshal(raw, &typed); err == nil {
				s.cache.Promote(key, typed, category, ttl)
				return typed, nil
			}
		}
	}

	val, err := load(ctx)
	if err != nil {
		return zero, err
	}
	s.cache.Set(ctx, key, val, category, ttl)
	return val, nil
}

// ==========================
// Typed collection accessors
// ==========================

func (s *Service) Employees(ctx context.Context) ([]models.Employee, error) {
	return collection[models.Employee](ctx, s, models.KindEmployees)
}

func (s *Service) Jobs(ctx context.Context) ([]models.Job, error) {
	return collection[models.Job](ctx, s, models.KindJobs)
}

func (s *Service) Candidates(ctx context.Context) ([]models.Candidate, error) {
	return collection[models.Candidate](ctx, s, models.KindCandidates)
}

func (s *Service) Shifts(ctx context.Context) ([]models.Shift, error) {
	return collection[models.Shift](ctx, s, models.KindShifts)
}

func (s *Service) Tasks(ctx context.Context) ([]models.Task, error) {
	return collection[models.Task](ctx, s, models.KindTasks)
}

func (s *Service) Recognitions(ctx context.Context) ([]models.Recognition, error) {
	return collection[models.Recognition](ctx, s, models.KindRecognitions)
}

func collection[T models.Record](ctx context.Context, s *Service, kind models.RecordKind) ([]T, error) {
	return cachedFetch(ctx, s, string(kind), "all", s.ttlFor(kind), func(ctx context.Context) ([]T, error) {
		recs, err := s.loadAll(ctx, kind)
		if err != nil {
			return nil, err
		}
		out := make([]T, 0, len(recs))
		for _, r := range recs {
			typed, ok := r.(T)
			if !ok {
				return nil, apperrors.NewDataLoadError(string(kind), fmt.Errorf("unexpected record type %T", r))
			}
			out = append(out, typed)
		}
		return out, nil
	})
}

// GetAll returns the full collection for a kind as the tagged union.
func (s *Service) GetAll(ctx context.Context, kind models.RecordKind) ([]models.Record, error) {
	switch kind {
	case models.KindEmployees:
		return asRecords(s.Employees(ctx))
	case models.KindJobs:
		return asRecords(s.Jobs(ctx))
	case models.KindCandidates:
		return asRecords(s.Candidates(ctx))
	case models.KindShifts:
		return asRecords(s.Shifts(ctx))
	case models.KindTasks:
		return asRecords(s.Tasks(ctx))
	case models.KindRecognitions:
		return asRecords(s.Recognitions(ctx))
	}
	return nil, apperrors.NewDataLoadError(string(kind), fmt.Errorf("unknown record kind"))
}

func asRecords[T models.Record](rows []T, err error) ([]models.Record, error) {
	if err != nil {
		return nil, err
	}
	out := make([]models.Record, len(rows))
	for i, r := range rows {
		out[i] = r
	}
	return out, nil
}

// ==========================
// Get by id
// ==========================

// GetByID checks the cache, then goes through the coalescer so adjacent
// by-id lookups within one query cycle share a single collection scan.
// Returns (nil, nil) when the id does not exist.
func (s *Service) GetByID(ctx context.Context, kind models.RecordKind, id string) (models.Record, error) {
	v, raw, ok := s.cache.Lookup(ctx, id, string(kind))
	if ok {
		if v != nil {
			if rec, isRec := v.(models.Record); isRec {
				return rec, nil
			}
		} else if raw != nil {
			if rec, err := decodeOne(kind, raw); err == nil {
				s.cache.Promote(id, rec, string(kind), s.ttlFor(kind))
				return rec, nil
			}
		}
	}

	rec, err := s.coalescer.Request(ctx, kind, id)
	if err != nil {
		return nil, err
	}
	if rec != nil {
		s.cache.Set(ctx, id, rec, string(kind), s.ttlFor(kind))
	}
	return rec, nil
}

func decodeOne(kind models.RecordKind, raw []byte) (models.Record, error) {
	switch kind {
	case models.KindEmployees:
		var r models.Employee
		return r, json.Unmarshal(raw, &r)
	case models.KindJobs:
		var r models.Job
		return r, json.Unmarshal(raw, &r)
	case models.KindCandidates:
		var r models.Candidate
		return r, json.Unmarshal(raw, &r)
	case models.KindShifts:
		var r models.Shift
		return r, json.Unmarshal(raw, &r)
	case models.KindTasks:
		var r models.Task
		return r, json.Unmarshal(raw, &r)
	case models.KindRecognitions:
		var r models.Recognition
		return r, json.Unmarshal(raw, &r)
	}
	return nil, fmt.Errorf("unknown record kind %q", kind)
}

// ==========================
// Invalidation & metrics
// ==========================

// Invalidate is the write-path cache bust: the hosting application calls
// it after any external mutation, naming every kind the mutation could
// affect. Dependent composed results and relationship views always go too.
func (s *Service) Invalidate(ctx context.Context, kinds []string) {
	for _, k := range kinds {
		if models.ValidKind(k) {
			s.cache.ClearCategory(ctx, k)
		} else {
			s.logger.Warn("invalidate skipped unknown kind", map[string]interface{}{"kind": k})
		}
	}
	s.cache.ClearCategory(ctx, CategoryRelationships)
	s.cache.ClearCategory(ctx, CategoryQuery)
}

// CacheStats exposes the underlying cache counters.
func (s *Service) CacheStats() cache.Stats { return s.cache.Stats() }

// CacheHitRate returns hits/(hits+misses) of the underlying cache.
func (s *Service) CacheHitRate() float64 { return s.cache.HitRate() }

// CoalescerStats exposes the request/flush counters.
func (s *Service) CoalescerStats() coalesce.Stats { return s.coalescer.Stats() }

// BatchedRequestRate returns the share of by-id requests that were served
// by a shared flush.
func (s *Service) BatchedRequestRate() float64 { return s.coalescer.BatchedRate() }
