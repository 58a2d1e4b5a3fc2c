// internal/coalesce/coalescer_test.go
package coalesce

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "hr-assistant/internal/common/errors"
	"hr-assistant/internal/common/logger"
	"hr-assistant/internal/models"
)

// countingSource records upstream fetches and serves a fixed dataset.
type countingSource struct {
	mu    sync.Mutex
	calls map[models.RecordKind]int
	data  map[models.RecordKind][]models.Record
	err   error
	delay time.Duration
}

func newCountingSource() *countingSource {
	return &countingSource{
		calls: make(map[models.RecordKind]int),
		data: map[models.RecordKind][]models.Record{
			models.KindEmployees: {
				models.Employee{ID: "E001", Name: "Jordan Williams", Department: "Operations", Role: "Shift Supervisor", Status: "active"},
				models.Employee{ID: "E002", Name: "Maria Garcia", Department: "Operations", Role: "Store Manager", Status: "active"},
			},
			models.KindJobs: {
				models.Job{ID: "J001", Title: "Senior Software Developer", Department: "Engineering", Status: "open"},
			},
		},
	}
}

func (s *countingSource) LoadAll(ctx context.Context, kind models.RecordKind) ([]models.Record, error) {
	s.mu.Lock()
	s.calls[kind]++
	s.mu.Unlock()
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	if s.err != nil {
		return nil, s.err
	}
	return s.data[kind], nil
}

func (s *countingSource) callCount(kind models.RecordKind) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[kind]
}

// ==========================
// Batching
// ==========================

func TestCoalescer_SameIDSharesOneFetch(t *testing.T) {
	src := newCountingSource()
	c := New(src.LoadAll, 20*time.Millisecond, logger.NewNoOpLogger())
	ctx := context.Background()

	var wg sync.WaitGroup
	results := make([]models.Record, 2)
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			results[n], errs[n] = c.Request(ctx, models.KindEmployees, "E001")
		}(i)
	}
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	assert.Equal(t, 1, src.callCount(models.KindEmployees), "exactly one upstream fetch")
	assert.Equal(t, "E001", results[0].RecordID())
	assert.Equal(t, results[0], results[1])
}

func TestCoalescer_DifferentIDsSameWindow(t *testing.T) {
	src := newCountingSource()
	c := New(src.LoadAll, 20*time.Millisecond, logger.NewNoOpLogger())
	ctx := context.Background()

	var wg sync.WaitGroup
	ids := []string{"E001", "E002", "E001"}
	results := make([]models.Record, len(ids))
	for i, id := range ids {
		wg.Add(1)
		go func(n int, id string) {
			defer wg.Done()
			results[n], _ = c.Request(ctx, models.KindEmployees, id)
		}(i, id)
	}
	wg.Wait()

	assert.Equal(t, 1, src.callCount(models.KindEmployees), "different ids in one window share one flush")
	assert.Equal(t, "E001", results[0].RecordID())
	assert.Equal(t, "E002", results[1].RecordID())
}

func TestCoalescer_KindsFlushIndependently(t *testing.T) {
	src := newCountingSource()
	c := New(src.LoadAll, 20*time.Millisecond, logger.NewNoOpLogger())
	ctx := context.Background()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() { defer wg.Done(); c.Request(ctx, models.KindEmployees, "E001") }()
	go func() { defer wg.Done(); c.Request(ctx, models.KindJobs, "J001") }()
	wg.Wait()

	assert.Equal(t, 1, src.callCount(models.KindEmployees))
	assert.Equal(t, 1, src.callCount(models.KindJobs))
}

func TestCoalescer_SeparateWindowsSeparateFetches(t *testing.T) {
	src := newCountingSource()
	c := New(src.LoadAll, 10*time.Millisecond, logger.NewNoOpLogger())
	ctx := context.Background()

	_, err := c.Request(ctx, models.KindEmployees, "E001")
	require.NoError(t, err)

	time.Sleep(30 * time.Millisecond)

	_, err = c.Request(ctx, models.KindEmployees, "E002")
	require.NoError(t, err)

	assert.Equal(t, 2, src.callCount(models.KindEmployees))
}

// ==========================
// Results & Failures
// ==========================

func TestCoalescer_AbsentIDReturnsNil(t *testing.T) {
	src := newCountingSource()
	c := New(src.LoadAll, 10*time.Millisecond, logger.NewNoOpLogger())

	rec, err := c.Request(context.Background(), models.KindEmployees, "E999")
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestCoalescer_UpstreamFailureRejectsWholeBatch(t *testing.T) {
	src := newCountingSource()
	src.err = errors.New("source down")
	c := New(src.LoadAll, 20*time.Millisecond, logger.NewNoOpLogger())
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make([]error, 3)
	for i, id := range []string{"E001", "E002", "E001"} {
		wg.Add(1)
		go func(n int, id string) {
			defer wg.Done()
			_, errs[n] = c.Request(ctx, models.KindEmployees, id)
		}(i, id)
	}
	wg.Wait()

	for _, err := range errs {
		require.Error(t, err)
		assert.True(t, errors.Is(err, apperrors.ErrBatchFetchFailed))
	}
	assert.Equal(t, 1, src.callCount(models.KindEmployees), "no partial success, no extra fetches")
}

func TestCoalescer_ContextCancellation(t *testing.T) {
	src := newCountingSource()
	src.delay = 50 * time.Millisecond
	c := New(src.LoadAll, 10*time.Millisecond, logger.NewNoOpLogger())

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	var gotErr atomic.Value
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := c.Request(ctx, models.KindEmployees, "E001")
		if err != nil {
			gotErr.Store(err)
		}
	}()

	time.Sleep(5 * time.Millisecond)
	cancel()
	wg.Wait()

	err, _ := gotErr.Load().(error)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

// ==========================
// Stats
// ==========================

func TestCoalescer_BatchedRate(t *testing.T) {
	src := newCountingSource()
	c := New(src.LoadAll, 20*time.Millisecond, logger.NewNoOpLogger())
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Request(ctx, models.KindEmployees, "E001")
		}()
	}
	wg.Wait()

	stats := c.Stats()
	assert.Equal(t, uint64(4), stats.Requests)
	assert.Equal(t, uint64(1), stats.Flushes)
	assert.InDelta(t, 0.75, c.BatchedRate(), 0.001)
}
