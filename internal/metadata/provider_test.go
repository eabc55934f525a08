package metadata

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snapshelf/snapshelf/internal/metadata/mock"
	"github.com/snapshelf/snapshelf/internal/metadata/omdb"
	"github.com/snapshelf/snapshelf/internal/metadata/tmdb"
)

func TestTMDBProvider(t *testing.T) {
	p := NewTMDBProvider(mock.NewTMDBClient())
	ctx := context.Background()

	hits, err := p.Search(ctx, "heat", 0)
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	assert.Equal(t, SearchHit{ID: "949", Title: "Heat", Year: 1995}, hits[0])

	m, err := p.Details(ctx, "949")
	require.NoError(t, err)
	assert.Equal(t, "tmdb", m.Source)
	assert.Equal(t, "Michael Mann", m.Director)
	assert.Equal(t, "tt0113277", m.IMDbID)
	assert.InDelta(t, 7.9, m.Ratings["tmdb"], 0.001)
	assert.Equal(t, 170, m.RuntimeMinutes)
	assert.Empty(t, m.ID)

	_, err = p.Details(ctx, "not-a-number")
	require.Error(t, err)

	_, err = p.Details(ctx, "1")
	require.ErrorIs(t, err, tmdb.ErrMovieNotFound)
}

func TestOMDBProvider(t *testing.T) {
	p := NewOMDBProvider(mock.NewOMDBClient())
	ctx := context.Background()

	hits, err := p.Search(ctx, "Ocean's Eleven", 2001)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, SearchHit{ID: "tt0240772", Title: "Ocean's Eleven", Year: 2001}, hits[0])

	m, err := p.Details(ctx, "tt0113277")
	require.NoError(t, err)
	assert.Equal(t, "omdb", m.Source)
	assert.Equal(t, "R", m.ContentRating)
	assert.InDelta(t, 8.3, m.Ratings["imdb"], 0.001)
	assert.Equal(t, "$67,436,818", m.BoxOffice)

	_, err = p.Details(ctx, "tt0000000")
	require.ErrorIs(t, err, omdb.ErrNotFound)
}

func TestOrderProviders(t *testing.T) {
	a := newFakeProvider("a")
	b := newFakeProvider("omdb")
	c := newFakeProvider("tmdb")

	ordered := orderProviders([]Provider{a, b, c}, []string{"tmdb", "omdb"})
	names := make([]string, len(ordered))
	for i, p := range ordered {
		names[i] = p.Name()
	}
	assert.Equal(t, []string{"tmdb", "omdb", "a"}, names)
}
