package baseline

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketplace-discovery/internal/common/logger"
)

// ==========================
// Test Helper Functions
// ==========================

type fakeSource struct {
	mu    sync.Mutex
	value float64
	found bool
	err   error
	calls int
}

func (f *fakeSource) AcceptanceBaseline(context.Context) (float64, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.value, f.found, f.err
}

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newTestCache(t *testing.T, src Source, ttl time.Duration) (*Cache, *clock) {
	t.Helper()
	clk := &clock{t: time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)}
	c := NewCache(src, ttl, 0.3, logger.NewTestLogger(t))
	c.now = clk.now
	return c, clk
}

// ==========================
// Tests
// ==========================

func TestCache_ReadThroughWithTTL(t *testing.T) {
	src := &fakeSource{value: 0.42, found: true}
	c, clk := newTestCache(t, src, 5*time.Minute)
	ctx := context.Background()

	v, err := c.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0.42, v)

	src.value = 0.5
	clk.t = clk.t.Add(4 * time.Minute)
	v, err = c.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0.42, v)
	assert.Equal(t, 1, src.calls)

	clk.t = clk.t.Add(2 * time.Minute)
	v, err = c.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0.5, v)
	assert.Equal(t, 2, src.calls)
}

func TestCache_FallbackWhenMissingOrInvalid(t *testing.T) {
	for _, src := range []*fakeSource{
		{found: false},
		{value: 1.4, found: true},
		{value: -0.1, found: true},
	} {
		c, _ := newTestCache(t, src, time.Minute)
		v, err := c.Get(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 0.3, v)
	}
}

func TestCache_ErrorWithoutStaleValue(t *testing.T) {
	src := &fakeSource{err: fmt.Errorf("connection refused")}
	c, _ := newTestCache(t, src, time.Minute)

	_, err := c.Get(context.Background())
	assert.Error(t, err)
}

func TestCache_ServesStaleOnRefreshFailure(t *testing.T) {
	src := &fakeSource{value: 0.25, found: true}
	c, clk := newTestCache(t, src, time.Minute)
	ctx := context.Background()

	_, err := c.Get(ctx)
	require.NoError(t, err)

	src.err = fmt.Errorf("timeout")
	clk.t = clk.t.Add(2 * time.Minute)
	v, err := c.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0.25, v)
}

func TestCache_Reset(t *testing.T) {
	src := &fakeSource{value: 0.2, found: true}
	c, _ := newTestCache(t, src, time.Hour)
	ctx := context.Background()

	_, _ = c.Get(ctx)
	c.Reset()
	src.value = 0.6
	v, err := c.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0.6, v)
	assert.Equal(t, 2, src.calls)
}

func TestCache_ConcurrentGet(t *testing.T) {
	src := &fakeSource{value: 0.33, found: true}
	c, _ := newTestCache(t, src, time.Hour)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := c.Get(context.Background())
			assert.NoError(t, err)
			assert.Equal(t, 0.33, v)
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, src.calls)
}
