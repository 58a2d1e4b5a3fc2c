// Package coalesce merges concurrent lookups-by-id for the same record
// kind into one upstream full-collection fetch per short time window.
package coalesce

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	apperrors "hr-assistant/internal/common/errors"
	"hr-assistant/internal/common/logger"
	"hr-assistant/internal/common/metrics"
	"hr-assistant/internal/models"
)

// DefaultWindow is the batching window when none is configured.
const DefaultWindow = 50 * time.Millisecond

// LoadAllFunc is the upstream batch fetch for one kind.
type LoadAllFunc func(ctx context.Context, kind models.RecordKind) ([]models.Record, error)

type result struct {
	rec models.Record
	err error
}

// batch collects the waiters of one window. It is created by the first
// request for a kind and consumed whole by the flush; the scheduling flag
// is its presence in the pending map.
type batch struct {
	waiters map[string][]chan result
}

// Stats are aggregate request/flush counters.
type Stats struct {
	Requests uint64
	Flushes  uint64
}

// Coalescer is safe for concurrent use. One flush is scheduled per kind
// per window; same-id callers inside a window share a single pending
// result.
type Coalescer struct {
	mu      sync.Mutex
	pending map[models.RecordKind]*batch

	window      time.Duration
	loadTimeout time.Duration
	load        LoadAllFunc

	requests atomic.Uint64
	flushes  atomic.Uint64

	logger logger.Logger
}

func New(load LoadAllFunc, window time.Duration, log logger.Logger) *Coalescer {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Coalescer{
		pending:     make(map[models.RecordKind]*batch),
		window:      window,
		loadTimeout: 10 * time.Second,
		load:        load,
		logger:      log.With(map[string]interface{}{"component": "coalescer"}),
	}
}

// Request fetches one record by id, joining the current window's batch for
// its kind. Returns (nil, nil) when the id is absent upstream. An upstream
// failure rejects every caller pending in that flush with the same
// BATCH_FETCH_FAILED error; no partial success within a batch.
func (c *Coalescer) Request(ctx context.Context, kind models.RecordKind, id string) (models.Record, error) {
	c.requests.Add(1)
	metrics.CoalescedRequests.WithLabelValues(string(kind)).Inc()

	ch := make(chan result, 1)

	c.mu.Lock()
	b, ok := c.pending[kind]
	if !ok {
		// First pending request for this kind: open the window and
		// schedule exactly one flush.
		b = &batch{waiters: make(map[string][]chan result)}
		c.pending[kind] = b
		time.AfterFunc(c.window, func() { c.flush(kind) })
	}
	b.waiters[id] = append(b.waiters[id], ch)
	c.mu.Unlock()

	select {
	case r := <-ch:
		return r.rec, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// flush performs the single upstream fetch for a window and fans results
// back out. A request arriving after this point starts the next window.
func (c *Coalescer) flush(kind models.RecordKind) {
	c.mu.Lock()
	b := c.pending[kind]
	delete(c.pending, kind)
	c.mu.Unlock()

	if b == nil || len(b.waiters) == 0 {
		return
	}

	c.flushes.Add(1)
	metrics.CoalescedFlushes.WithLabelValues(string(kind)).Inc()

	ctx, cancel := context.WithTimeout(context.Background(), c.loadTimeout)
	defer cancel()

	recs, err := c.load(ctx, kind)
	if err != nil {
		batchErr := apperrors.NewBatchFetchError(string(kind), err)
		c.logger.Error("upstream batch fetch failed", map[string]interface{}{
			"kind":    string(kind),
			"waiters": len(b.waiters),
			"error":   err.Error(),
		})
		for _, chans := range b.waiters {
			for _, ch := range chans {
				ch <- result{err: batchErr}
			}
		}
		return
	}

	byID := make(map[string]models.Record, len(recs))
	for _, rec := range recs {
		byID[rec.RecordID()] = rec
	}

	c.logger.Debug("flushed batch", map[string]interface{}{
		"kind":    string(kind),
		"ids":     len(b.waiters),
		"records": len(recs),
	})

	for id, chans := range b.waiters {
		rec := byID[id] // nil when absent
		for _, ch := range chans {
			ch <- result{rec: rec}
		}
	}
}

// Stats returns aggregate counters since construction.
func (c *Coalescer) Stats() Stats {
	return Stats{
		Requests: c.requests.Load(),
		Flushes:  c.flushes.Load(),
	}
}

// BatchedRate returns the share of requests served without their own
// upstream fetch, or 0 before any request.
func (c *Coalescer) BatchedRate() float64 {
	req := c.requests.Load()
	if req == 0 {
		return 0
	}
	fl := c.flushes.Load()
	if fl > req {
		return 0
	}
	return float64(req-fl) / float64(req)
}
