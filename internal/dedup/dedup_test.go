package dedup

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeClock lets tests advance time explicitly.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestShouldProcessOncePerWindow(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 12, 25, 10, 0, 0, 0, time.UTC)}
	d := New(NewMemoryStore(clock.Now), 24*time.Hour, testLogger())
	ctx := context.Background()

	assert.True(t, d.ShouldProcess(ctx, "meeting", "monday", "15:00", "hall"))
	assert.False(t, d.ShouldProcess(ctx, "meeting", "monday", "15:00", "hall"))
	// Canonically equal candidate is still a duplicate.
	assert.False(t, d.ShouldProcess(ctx, "  MEETING! ", "Monday", `"15:00"`, "Hall."))
	// A different event passes.
	assert.True(t, d.ShouldProcess(ctx, "dinner", "monday", "15:00", "hall"))
}

func TestShouldProcessAgainAfterExpiry(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 12, 25, 10, 0, 0, 0, time.UTC)}
	d := New(NewMemoryStore(clock.Now), time.Hour, testLogger())
	ctx := context.Background()

	require.True(t, d.ShouldProcess(ctx, "meeting", "monday", "", ""))
	require.False(t, d.ShouldProcess(ctx, "meeting", "monday", "", ""))

	clock.Advance(time.Hour + time.Second)
	assert.True(t, d.ShouldProcess(ctx, "meeting", "monday", "", ""))
}

func TestNonPositiveRetentionFallsBack(t *testing.T) {
	d := New(NewMemoryStore(nil), 0, testLogger())
	assert.Equal(t, DefaultRetention, d.Retention())

	d = New(NewMemoryStore(nil), -time.Hour, testLogger())
	assert.Equal(t, DefaultRetention, d.Retention())
}

func TestStats(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 12, 25, 10, 0, 0, 0, time.UTC)}
	d := New(NewMemoryStore(clock.Now), 24*time.Hour, testLogger())
	ctx := context.Background()

	d.ShouldProcess(ctx, "a", "", "", "")
	d.ShouldProcess(ctx, "a", "", "", "")
	d.ShouldProcess(ctx, "b", "", "", "")

	stats := d.Stats()
	assert.Equal(t, 2, stats.Entries)
	assert.Equal(t, uint64(1), stats.Hits)
	assert.Equal(t, uint64(2), stats.Misses)
	assert.Equal(t, 24.0, stats.RetentionHours)
}

func TestMemoryStoreSweep(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 12, 25, 10, 0, 0, 0, time.UTC)}
	store := NewMemoryStore(clock.Now)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, "old", time.Minute))
	require.NoError(t, store.Upsert(ctx, "fresh", time.Hour))

	clock.Advance(30 * time.Minute)
	assert.Equal(t, 1, store.Sweep())
	assert.Equal(t, 1, store.Len())

	seen, err := store.Has(ctx, "fresh")
	require.NoError(t, err)
	assert.True(t, seen)
}

func TestMemoryStoreExpiredIsAbsentWithoutSweep(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 12, 25, 10, 0, 0, 0, time.UTC)}
	store := NewMemoryStore(clock.Now)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, "h", time.Minute))
	clock.Advance(2 * time.Minute)

	seen, err := store.Has(ctx, "h")
	require.NoError(t, err)
	assert.False(t, seen)
}

func TestConcurrentShouldProcessSingleWinner(t *testing.T) {
	d := New(NewMemoryStore(nil), 24*time.Hour, testLogger())
	ctx := context.Background()

	const callers = 32
	var wg sync.WaitGroup
	results := make(chan bool, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- d.ShouldProcess(ctx, "race", "friday", "20:00", "")
		}()
	}
	wg.Wait()
	close(results)

	winners := 0
	for r := range results {
		if r {
			winners++
		}
	}
	assert.Equal(t, 1, winners)
}

// failingStore simulates a broken backend.
type failingStore struct{}

func (failingStore) Has(context.Context, string) (bool, error) {
	return false, errors.New("backend down")
}

func (failingStore) Upsert(context.Context, string, time.Duration) error {
	return errors.New("backend down")
}

func TestStoreErrorsFailOpen(t *testing.T) {
	d := New(failingStore{}, 24*time.Hour, testLogger())
	// Better to announce twice than to drop an event.
	assert.True(t, d.ShouldProcess(context.Background(), "meeting", "", "", ""))
	assert.Equal(t, -1, d.Stats().Entries)
}
