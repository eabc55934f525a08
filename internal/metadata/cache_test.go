package metadata

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snapshelf/snapshelf/internal/catalog"
	"github.com/snapshelf/snapshelf/internal/testutil"
)

func TestCache_TTL(t *testing.T) {
	clock := testutil.NewFakeClock()
	c := NewCache(CacheConfig{TTL: time.Hour, Clock: clock})

	c.Set("tmdb:details:949", &catalog.Movie{Title: "Heat"})
	m, ok := c.GetMovie("tmdb:details:949")
	require.True(t, ok)
	assert.Equal(t, "Heat", m.Title)

	clock.Advance(59 * time.Minute)
	_, ok = c.GetMovie("tmdb:details:949")
	assert.True(t, ok)

	clock.Advance(time.Minute)
	_, ok = c.GetMovie("tmdb:details:949")
	assert.False(t, ok, "entry expires exactly at its TTL")
	assert.Equal(t, 1, c.Len())
	assert.Equal(t, 1, c.Purge())
	assert.Zero(t, c.Len())
}

func TestCache_TypedGetters(t *testing.T) {
	clock := testutil.NewFakeClock()
	c := NewCache(CacheConfig{TTL: time.Hour, Clock: clock})

	c.Set("search", []*catalog.Movie{{Title: "Heat"}})
	movies, ok := c.GetMovies("search")
	require.True(t, ok)
	assert.Len(t, movies, 1)

	_, ok = c.GetMovie("search")
	assert.False(t, ok, "wrong type is a miss")

	c.Set("details", &catalog.Movie{Title: "Heat"})
	movie, ok := c.GetMovie("details")
	require.True(t, ok)
	assert.Equal(t, "Heat", movie.Title)

	clock.Advance(2 * time.Hour)
	_, ok = c.GetMovies("search")
	assert.False(t, ok)
	_, ok = c.GetMovie("details")
	assert.False(t, ok)
}

func TestCache_EvictsSoonestExpiring(t *testing.T) {
	clock := testutil.NewFakeClock()
	c := NewCache(CacheConfig{TTL: time.Hour, MaxItems: 10, Clock: clock})

	for i := range 10 {
		c.Set(fmt.Sprintf("k%d", i), i)
		clock.Advance(time.Minute)
	}
	c.Set("new", "v")

	assert.Equal(t, 10, c.Len())
	_, ok := c.Get("k0")
	assert.False(t, ok)
	_, ok = c.Get("k9")
	assert.True(t, ok)
	_, ok = c.Get("new")
	assert.True(t, ok)

	// Overwriting an existing key never evicts.
	c.Set("k9", "updated")
	assert.Equal(t, 10, c.Len())
}

func TestCache_Clear(t *testing.T) {
	cfg := DefaultCacheConfig()
	assert.Equal(t, 24*time.Hour, cfg.TTL)
	assert.Equal(t, 1000, cfg.MaxItems)

	c := NewCache(cfg)
	c.Set("a", 1)
	c.Set("b", 2)
	assert.Equal(t, 2, c.Clear())
	assert.Zero(t, c.Len())
}
