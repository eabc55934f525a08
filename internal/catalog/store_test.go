package catalog

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snapshelf/snapshelf/internal/testutil"
)

func newTestStore(t *testing.T) (*Store, *testutil.TestDB) {
	t.Helper()
	tdb := testutil.NewTestDB(t)
	return NewStore(tdb.Conn, testutil.NewFakeClock()), tdb
}

func heat() *Movie {
	return &Movie{
		TMDBID:   949,
		IMDbID:   "tt0113277",
		Title:    "Heat",
		Year:     1995,
		Genres:   []string{"Crime", "Drama"},
		Director: "Michael Mann",
		Cast:     []string{"Al Pacino", "Robert De Niro"},
		Ratings:  map[string]float64{"tmdb": 7.9},
	}
}

func TestStore_InsertIfAbsent(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	stored, created, err := store.InsertIfAbsent(ctx, heat())
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEmpty(t, stored.ID)
	assert.Equal(t, "heat", stored.NormalizedTitle)
	assert.Equal(t, SourceLocal, stored.Source)
	assert.Equal(t, testutil.Epoch, stored.CreatedAt)

	got, err := store.Get(ctx, stored.ID)
	require.NoError(t, err)
	assert.Equal(t, "Heat", got.Title)
	assert.Equal(t, 1995, got.Year)
	assert.Equal(t, int64(949), got.TMDBID)
	assert.Equal(t, []string{"Crime", "Drama"}, got.Genres)
	assert.Equal(t, []string{"Al Pacino", "Robert De Niro"}, got.Cast)
	assert.InDelta(t, 7.9, got.Ratings["tmdb"], 1e-9)
	assert.True(t, got.CreatedAt.Equal(testutil.Epoch))

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestStore_InsertIfAbsent_ExistingKeys(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	original, _, err := store.InsertIfAbsent(ctx, heat())
	require.NoError(t, err)

	tests := []struct {
		name  string
		movie *Movie
	}{
		{"same tmdb id", &Movie{TMDBID: 949, Title: "Heat (Director's Definitive Edition)"}},
		{"same imdb id", &Movie{IMDbID: "tt0113277", Title: "Heat!"}},
		{"same normalized title and year", &Movie{Title: "HEAT DVD", Year: 1995}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, created, err := store.InsertIfAbsent(ctx, tt.movie)
			require.NoError(t, err)
			assert.False(t, created)
			assert.Equal(t, original.ID, got.ID)
		})
	}

	// a different year is a different film
	_, created, err := store.InsertIfAbsent(ctx, &Movie{Title: "Heat", Year: 1986})
	require.NoError(t, err)
	assert.True(t, created)

	// an unknown year only matches another unknown year
	_, created, err = store.InsertIfAbsent(ctx, &Movie{Title: "Heat"})
	require.NoError(t, err)
	assert.True(t, created)
	_, created, err = store.InsertIfAbsent(ctx, &Movie{Title: "heat"})
	require.NoError(t, err)
	assert.False(t, created)
}

func TestStore_InsertIfAbsent_Invalid(t *testing.T) {
	store, _ := newTestStore(t)
	_, _, err := store.InsertIfAbsent(context.Background(), &Movie{Title: "  "})
	assert.ErrorIs(t, err, ErrInvalidMovie)
}

func TestStore_SearchTitles(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	for _, title := range []string{"The Matrix", "The Matrix Reloaded", "Heat", "100% Wolf"} {
		_, _, err := store.InsertIfAbsent(ctx, &Movie{Title: title})
		require.NoError(t, err)
	}

	titles, err := store.SearchTitles(ctx, "matrix", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"The Matrix", "The Matrix Reloaded"}, titles)

	titles, err = store.SearchTitles(ctx, "MATRIX", 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"The Matrix"}, titles)

	titles, err = store.SearchTitles(ctx, "0%", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"100% Wolf"}, titles)

	titles, err = store.SearchTitles(ctx, "", 10)
	require.NoError(t, err)
	assert.Empty(t, titles)
}

func TestStore_List(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	movies, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, movies)

	for _, title := range []string{"Zodiac", "Alien"} {
		_, _, err := store.InsertIfAbsent(ctx, &Movie{Title: title})
		require.NoError(t, err)
	}

	movies, err = store.List(ctx)
	require.NoError(t, err)
	require.Len(t, movies, 2)
	assert.Equal(t, "Alien", movies[0].Title)
	assert.Equal(t, "Zodiac", movies[1].Title)
}

func TestStore_Update(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	stored, _, err := store.InsertIfAbsent(ctx, heat())
	require.NoError(t, err)

	stored.Title = "Heat Redux"
	stored.RuntimeMinutes = 170
	require.NoError(t, store.Update(ctx, stored))

	got, err := store.Get(ctx, stored.ID)
	require.NoError(t, err)
	assert.Equal(t, "heat redux", got.NormalizedTitle)
	assert.Equal(t, 170, got.RuntimeMinutes)

	err = store.Update(ctx, &Movie{ID: "missing", Title: "x"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMovie_Enrich(t *testing.T) {
	m := &Movie{ID: "x", Title: "Heat", Director: "Mann", Format: "DVD", Ratings: map[string]float64{"imdb": 8.3}}
	other := &Movie{
		Title: "HEAT", Year: 1995, TMDBID: 949, IMDbID: "tt0113277", Director: "Someone Else",
		Cast: []string{"Al Pacino"}, Format: "Blu-ray", RuntimeMinutes: 170,
		Ratings: map[string]float64{"imdb": 1, "tmdb": 7.9},
	}

	assert.True(t, m.Enrich(other))
	assert.Equal(t, "Heat", m.Title)
	assert.Equal(t, "Mann", m.Director)
	assert.Equal(t, "DVD", m.Format)
	assert.Equal(t, 1995, m.Year)
	assert.EqualValues(t, 949, m.TMDBID)
	assert.Equal(t, "tt0113277", m.IMDbID)
	assert.Equal(t, 170, m.RuntimeMinutes)
	assert.Equal(t, []string{"Al Pacino"}, m.Cast)
	assert.Equal(t, map[string]float64{"imdb": 8.3, "tmdb": 7.9}, m.Ratings)

	other.Cast[0] = "changed"
	assert.Equal(t, "Al Pacino", m.Cast[0])
	assert.False(t, m.Enrich(other))
}

func TestStore_Get_NotFound(t *testing.T) {
	store, _ := newTestStore(t)
	_, err := store.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_ImportCSV(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	csv := `title,year,tmdb_id,imdb_id,director,genres,cast,runtime,rated,imdb_rating
Heat,1995,949,tt0113277,Michael Mann,Crime|Drama,Al Pacino|Robert De Niro,170,R,8.3
,2000,,,,,,,,
Inception,2010,27205,tt1375666,Christopher Nolan,Action|Sci-Fi,Leonardo DiCaprio,148,PG-13,8.8
Heat,1995,,,,,,,,
`
	result, err := store.ImportCSV(ctx, strings.NewReader(csv))
	require.NoError(t, err)
	assert.Equal(t, ImportResult{Inserted: 2, Existing: 1, Skipped: 1}, result)

	existing, created, err := store.InsertIfAbsent(ctx, &Movie{TMDBID: 27205, Title: "whatever"})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "Inception", existing.Title)
	assert.Equal(t, []string{"Action", "Sci-Fi"}, existing.Genres)
	assert.Equal(t, 148, existing.RuntimeMinutes)
	assert.InDelta(t, 8.8, existing.Ratings["imdb"], 1e-9)
}

func TestStore_StorageUnavailable(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	down := errors.New("disk I/O error")
	mock.ExpectQuery("SELECT (.+) FROM movie_metadata ORDER BY title").WillReturnError(down)
	mock.ExpectQuery("SELECT DISTINCT title FROM movie_metadata").WillReturnError(down)
	mock.ExpectBegin().WillReturnError(down)

	store := NewStore(db, nil)
	ctx := context.Background()

	_, err = store.List(ctx)
	assert.ErrorIs(t, err, down)

	_, err = store.SearchTitles(ctx, "heat", 5)
	assert.ErrorIs(t, err, down)

	_, _, err = store.InsertIfAbsent(ctx, heat())
	assert.ErrorIs(t, err, down)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMovie_Titled(t *testing.T) {
	var m *Movie
	assert.Equal(t, "", m.MatchTitle())
	assert.Equal(t, 0, m.MatchYear())

	m = &Movie{Title: "Heat", Year: 1995, CreatedAt: time.Now()}
	assert.Equal(t, "Heat", m.MatchTitle())
	assert.Equal(t, 1995, m.MatchYear())
	assert.False(t, m.Persisted())
}

func TestMovie_Clone(t *testing.T) {
	orig := heat()
	cp := orig.Clone()
	require.Equal(t, orig, cp)

	cp.Genres[0] = "Western"
	cp.Cast = append(cp.Cast, "Val Kilmer")
	cp.Ratings["tmdb"] = 1

	assert.Equal(t, "Crime", orig.Genres[0])
	assert.Len(t, orig.Cast, 2)
	assert.InDelta(t, 7.9, orig.Ratings["tmdb"], 1e-9)

	var nilMovie *Movie
	assert.Nil(t, nilMovie.Clone())
}
