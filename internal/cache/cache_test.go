package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type snapshot struct {
	Condition string  `json:"condition"`
	Temp      float64 `json:"temp"`
}

// newTestCache returns a cache whose clock is advanced by the returned func
func newTestCache() (*Cache, func(time.Duration)) {
	c := NewCache()
	now := time.Date(2026, 1, 15, 6, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	return c, func(d time.Duration) { now = now.Add(d) }
}

func TestCache_SetGet(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache()

	require.NoError(t, c.Set(ctx, "k", snapshot{Condition: "Snow", Temp: 28}, time.Minute))

	var got snapshot
	found, err := c.Get(ctx, "k", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, snapshot{Condition: "Snow", Temp: 28}, got)

	found, err = c.Get(ctx, "missing", &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestCache_Expiry(t *testing.T) {
	ctx := context.Background()
	c, advance := newTestCache()

	require.NoError(t, c.Set(ctx, "k", snapshot{Condition: "Clear"}, 10*time.Minute))
	assert.False(t, c.IsStale("k"))

	advance(11 * time.Minute)

	var got snapshot
	found, err := c.Get(ctx, "k", &got)
	require.NoError(t, err)
	assert.False(t, found, "expired entries are misses")
	assert.True(t, c.IsStale("k"))
	assert.False(t, c.IsVeryStale("k"))

	entry, exists, err := c.GetWithMetadata("k", &got)
	require.NoError(t, err)
	assert.True(t, exists, "metadata is returned even when stale")
	assert.Equal(t, "Clear", got.Condition)
	assert.Equal(t, 11*time.Minute, entry.Age(c.now()))

	advance(10 * time.Minute)
	assert.True(t, c.IsVeryStale("k"))
}

func TestCache_MissingKeyIsStale(t *testing.T) {
	c, _ := newTestCache()
	assert.True(t, c.IsStale("nope"))
	assert.True(t, c.IsVeryStale("nope"))

	entry, exists, err := c.GetWithMetadata("nope", nil)
	assert.NoError(t, err)
	assert.False(t, exists)
	assert.Nil(t, entry)
}

func TestCache_UnmarshalError(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache()
	require.NoError(t, c.Set(ctx, "k", "a string", time.Minute))

	var got snapshot
	found, err := c.Get(ctx, "k", &got)
	assert.Error(t, err)
	assert.False(t, found)
}

func TestCache_MarshalError(t *testing.T) {
	c, _ := newTestCache()
	err := c.Set(context.Background(), "k", make(chan int), time.Minute)
	assert.Error(t, err)
}

func TestCache_CleanupStale(t *testing.T) {
	ctx := context.Background()
	c, advance := newTestCache()

	require.NoError(t, c.Set(ctx, "short", 1, time.Minute))
	require.NoError(t, c.Set(ctx, "long", 2, time.Hour))

	advance(90 * time.Second)
	assert.Equal(t, 0, c.CleanupStale(), "stale but not very stale entries are kept")

	advance(time.Minute)
	assert.Equal(t, 1, c.CleanupStale())

	stats := c.Stats()
	assert.Equal(t, 1, stats.TotalEntries)
	assert.Equal(t, 1, stats.FreshEntries)
}

func TestCache_Stats(t *testing.T) {
	ctx := context.Background()
	c, advance := newTestCache()

	first := c.now()
	require.NoError(t, c.Set(ctx, "a", 1, time.Minute))
	advance(2 * time.Minute)
	require.NoError(t, c.Set(ctx, "b", 2, time.Minute))

	stats := c.Stats()
	assert.Equal(t, 2, stats.TotalEntries)
	assert.Equal(t, 1, stats.FreshEntries)
	assert.Equal(t, 1, stats.StaleEntries)
	assert.Equal(t, first, stats.OldestEntry)
	assert.Equal(t, c.now(), stats.NewestEntry)
}

func TestCache_Delete(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache()
	require.NoError(t, c.Set(ctx, "a", 1, time.Minute))
	require.NoError(t, c.Set(ctx, "b", 2, time.Minute))

	c.Delete("a")
	assert.True(t, c.IsStale("a"))
	assert.False(t, c.IsStale("b"))
	assert.Equal(t, 1, c.Stats().TotalEntries)
}

func TestCache_PeriodicCleanupStops(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	c := NewCache()
	c.StartPeriodicCleanup(ctx, time.Millisecond)
	cancel()
	// Nothing to assert beyond not leaking or panicking
	time.Sleep(5 * time.Millisecond)
}

func TestNoopStore(t *testing.T) {
	ctx := context.Background()
	var s Store = NoopStore{}
	require.NoError(t, s.Set(ctx, "k", 1, time.Minute))

	var got int
	found, err := s.Get(ctx, "k", &got)
	assert.NoError(t, err)
	assert.False(t, found)
}

func TestWeatherKey(t *testing.T) {
	assert.Equal(t, "weather:39.32,-120.33", WeatherKey(39.3157, -120.3268))
	assert.Equal(t, WeatherKey(39.3157, -120.3268), WeatherKey(39.3204, -120.3251),
		"coordinates within rounding share a key")
	assert.NotEqual(t, WeatherKey(39.31, -120.33), WeatherKey(39.33, -120.33))
}
