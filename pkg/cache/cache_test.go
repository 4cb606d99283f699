package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type vehicle struct {
	ID   string
	Make string
}

func countingFetch(v *vehicle, err error, calls *atomic.Int32) FetchFunc[vehicle] {
	return func(ctx context.Context, id string) (*vehicle, error) {
		calls.Add(1)
		return v, err
	}
}

func placeholder(id string) *vehicle {
	return &vehicle{ID: id, Make: "Unknown"}
}

func TestGet_SecondCallWithinTTLSkipsFetch(t *testing.T) {
	// Given: a cache with a generous TTL and one stored fetch
	c := New[vehicle](time.Minute, zap.NewNop())
	var calls atomic.Int32
	fetch := countingFetch(&vehicle{ID: "V1", Make: "Volvo"}, nil, &calls)

	// When: getting the same id twice in quick succession
	first, err := c.Get(context.Background(), "V1", fetch, placeholder)
	require.NoError(t, err)
	second, err := c.Get(context.Background(), "V1", fetch, placeholder)
	require.NoError(t, err)

	// Then: the fetch ran exactly once and both calls saw the same value
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, first, second)
	assert.Equal(t, "Volvo", second.Make)
}

func TestGet_ExpiredEntryForcesRefetch(t *testing.T) {
	// Given: a cached entry whose TTL has elapsed
	c := New[vehicle](time.Minute, zap.NewNop())
	var calls atomic.Int32
	fetch := countingFetch(&vehicle{ID: "V1", Make: "Volvo"}, nil, &calls)

	_, err := c.Get(context.Background(), "V1", fetch, placeholder)
	require.NoError(t, err)

	// When: the clock advances past the TTL
	c.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	_, err = c.Get(context.Background(), "V1", fetch, placeholder)
	require.NoError(t, err)

	// Then: the fetch ran again
	assert.Equal(t, int32(2), calls.Load())
}

func TestGet_AfterInvalidateFetchesAgain(t *testing.T) {
	c := New[vehicle](time.Minute, zap.NewNop())
	var calls atomic.Int32
	fetch := countingFetch(&vehicle{ID: "V1", Make: "Volvo"}, nil, &calls)

	_, err := c.Get(context.Background(), "V1", fetch, placeholder)
	require.NoError(t, err)
	require.Equal(t, 1, c.Len())

	// When: the entry is invalidated (as a consumer would on an updated event)
	c.Invalidate("V1")
	assert.Equal(t, 0, c.Len())

	_, err = c.Get(context.Background(), "V1", fetch, placeholder)
	require.NoError(t, err)

	// Then: a fresh fetch happened rather than a stale read
	assert.Equal(t, int32(2), calls.Load())
}

func TestInvalidate_AbsentEntryIsNoOp(t *testing.T) {
	c := New[vehicle](time.Minute, zap.NewNop())

	// Invalidating twice must not fail; consumer effects are idempotent.
	c.Invalidate("missing")
	c.Invalidate("missing")
	assert.Equal(t, 0, c.Len())
}

func TestGet_FallbackIsNeverCached(t *testing.T) {
	// Given: a fetch that fails on every call
	c := New[vehicle](time.Minute, zap.NewNop())
	var calls atomic.Int32
	fetch := countingFetch(nil, errors.New("connection refused"), &calls)

	// When: getting the same id twice in a row
	first, err := c.Get(context.Background(), "V1", fetch, placeholder)
	require.NoError(t, err)
	second, err := c.Get(context.Background(), "V1", fetch, placeholder)
	require.NoError(t, err)

	// Then: both calls returned the placeholder and the fetch ran twice
	assert.Equal(t, "Unknown", first.Make)
	assert.Equal(t, "Unknown", second.Make)
	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, 0, c.Len())
}

func TestGet_NotFoundReturnsAbsenceWithoutFallback(t *testing.T) {
	// Given: a fetch that confirms absence
	c := New[vehicle](time.Minute, zap.NewNop())
	var calls atomic.Int32
	fetch := countingFetch(nil, nil, &calls)
	fallbackCalled := false
	fb := func(id string) *vehicle {
		fallbackCalled = true
		return placeholder(id)
	}

	v, err := c.Get(context.Background(), "V1", fetch, fb)

	// Then: absence is nil, the fallback was not consulted, nothing was cached
	require.NoError(t, err)
	assert.Nil(t, v)
	assert.False(t, fallbackCalled)
	assert.Equal(t, 0, c.Len())
}

func TestGet_NoFallbackSurfacesError(t *testing.T) {
	c := New[vehicle](time.Minute, zap.NewNop())
	var calls atomic.Int32
	fetch := countingFetch(nil, errors.New("boom"), &calls)

	v, err := c.Get(context.Background(), "V1", fetch, nil)

	require.Error(t, err)
	assert.Nil(t, v)
}

func TestGet_ConcurrentColdGetsStayConsistent(t *testing.T) {
	// Given: many workers racing on the same cold id
	c := New[vehicle](time.Minute, zap.NewNop())
	var calls atomic.Int32
	fetch := countingFetch(&vehicle{ID: "V1", Make: "Volvo"}, nil, &calls)

	var wg sync.WaitGroup
	results := make([]*vehicle, 32)
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := c.Get(context.Background(), "V1", fetch, placeholder)
			assert.NoError(t, err)
			results[i] = v
		}(i)
	}
	wg.Wait()

	// Then: every worker got a valid result; duplicate fetches are acceptable
	// under the race but the cache holds exactly one entry afterwards.
	for _, v := range results {
		require.NotNil(t, v)
		assert.Equal(t, "Volvo", v.Make)
	}
	assert.Equal(t, 1, c.Len())
	assert.GreaterOrEqual(t, calls.Load(), int32(1))
}

func TestPut_PrimesEntry(t *testing.T) {
	c := New[vehicle](time.Minute, zap.NewNop())
	var calls atomic.Int32
	fetch := countingFetch(nil, errors.New("must not be called"), &calls)

	c.Put("V1", &vehicle{ID: "V1", Make: "Volvo"})
	v, err := c.Get(context.Background(), "V1", fetch, placeholder)

	require.NoError(t, err)
	assert.Equal(t, "Volvo", v.Make)
	assert.Equal(t, int32(0), calls.Load())
}
