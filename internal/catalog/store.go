package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

var (
	ErrNotFound     = errors.New("movie not found")
	ErrInvalidMovie = errors.New("invalid movie")
)

const movieColumns = `id, tmdb_id, imdb_id, title, normalized_title, release_year, genres, director,
	cast_members, plot, poster_url, ratings, runtime_minutes, content_rating, studio, format,
	language, awards, box_office, country, source, created_at, updated_at`

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store persists canonical movie records in SQLite.
type Store struct {
	db    *sql.DB
	clock clockwork.Clock
}

// NewStore creates a new catalog store.
func NewStore(db *sql.DB, clock clockwork.Clock) *Store {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Store{db: db, clock: clock}
}

// List returns every record ordered by title.
func (s *Store) List(ctx context.Context) ([]*Movie, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+movieColumns+` FROM movie_metadata ORDER BY title, release_year`)
	if err != nil {
		return nil, fmt.Errorf("failed to list movies: %w", err)
	}
	defer rows.Close()

	var movies []*Movie
	for rows.Next() {
		m, err := scanMovie(rows)
		if err != nil {
			return nil, err
		}
		movies = append(movies, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate movies: %w", err)
	}
	return movies, nil
}

// Get returns a record by ID.
func (s *Store) Get(ctx context.Context, id string) (*Movie, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+movieColumns+` FROM movie_metadata WHERE id = ?`, id)
	m, err := scanMovie(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return m, err
}

// Count returns the number of stored records.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM movie_metadata`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count movies: %w", err)
	}
	return n, nil
}

// SearchTitles returns distinct titles containing substr, case-insensitively.
func (s *Store) SearchTitles(ctx context.Context, substr string, limit int) ([]string, error) {
	substr = strings.TrimSpace(substr)
	if substr == "" || limit <= 0 {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT title FROM movie_metadata
		WHERE title LIKE '%' || ? || '%' ESCAPE '\'
		ORDER BY title LIMIT ?`,
		escapeLike(substr), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search titles: %w", err)
	}
	defer rows.Close()

	var titles []string
	for rows.Next() {
		var title string
		if err := rows.Scan(&title); err != nil {
			return nil, fmt.Errorf("failed to scan title: %w", err)
		}
		titles = append(titles, title)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate titles: %w", err)
	}
	return titles, nil
}

// InsertIfAbsent stores m unless an equivalent record already exists.
// It returns the stored record and whether it was newly created.
func (s *Store) InsertIfAbsent(ctx context.Context, m *Movie) (*Movie, bool, error) {
	if m == nil || strings.TrimSpace(m.Title) == "" {
		return nil, false, ErrInvalidMovie
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	existing, err := findExisting(ctx, tx, m)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, false, err
	}

	stored := *m
	stored.ID = uuid.NewString()
	now := s.clock.Now().UTC()
	stored.CreatedAt = now
	stored.UpdatedAt = now
	if stored.Source == "" {
		stored.Source = SourceLocal
	}
	if err := insertMovie(ctx, tx, &stored); err != nil {
		return nil, false, err
	}

	if err := tx.Commit(); err != nil {
		return nil, false, fmt.Errorf("failed to commit movie insert: %w", err)
	}
	return &stored, true, nil
}

// Update rewrites an existing record's metadata, keeping its identity.
func (s *Store) Update(ctx context.Context, m *Movie) error {
	if m == nil || m.ID == "" {
		return ErrInvalidMovie
	}
	m.syncNormalized()
	m.UpdatedAt = s.clock.Now().UTC()

	genres, cast, ratings, err := encodeLists(m)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `UPDATE movie_metadata SET
		tmdb_id = ?, imdb_id = ?, title = ?, normalized_title = ?, release_year = ?, genres = ?,
		director = ?, cast_members = ?, plot = ?, poster_url = ?, ratings = ?, runtime_minutes = ?,
		content_rating = ?, studio = ?, format = ?, language = ?, awards = ?, box_office = ?,
		country = ?, updated_at = ?
		WHERE id = ?`,
		nullInt(m.TMDBID), nullString(m.IMDbID), m.Title, m.NormalizedTitle, nullInt(int64(m.Year)), genres,
		m.Director, cast, m.Plot, m.PosterURL, ratings, nullInt(int64(m.RuntimeMinutes)),
		m.ContentRating, m.Studio, m.Format, m.Language, m.Awards, m.BoxOffice,
		m.Country, m.UpdatedAt, m.ID)
	if err != nil {
		return fmt.Errorf("failed to update movie: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func findExisting(ctx context.Context, q querier, m *Movie) (*Movie, error) {
	if m.TMDBID != 0 {
		found, err := queryOne(ctx, q, `SELECT `+movieColumns+` FROM movie_metadata WHERE tmdb_id = ?`, m.TMDBID)
		if !errors.Is(err, ErrNotFound) {
			return found, err
		}
	}
	if m.IMDbID != "" {
		found, err := queryOne(ctx, q, `SELECT `+movieColumns+` FROM movie_metadata WHERE imdb_id = ?`, m.IMDbID)
		if !errors.Is(err, ErrNotFound) {
			return found, err
		}
	}
	return queryOne(ctx, q,
		`SELECT `+movieColumns+` FROM movie_metadata
		WHERE normalized_title = ? AND release_year IS ?
		ORDER BY created_at LIMIT 1`,
		normalizedTitle(m), nullInt(int64(m.Year)))
}

func normalizedTitle(m *Movie) string {
	c := *m
	c.syncNormalized()
	return c.NormalizedTitle
}

func queryOne(ctx context.Context, q querier, query string, args ...any) (*Movie, error) {
	m, err := scanMovie(q.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return m, err
}

func insertMovie(ctx context.Context, q querier, m *Movie) error {
	m.syncNormalized()
	genres, cast, ratings, err := encodeLists(m)
	if err != nil {
		return err
	}

	_, err = q.ExecContext(ctx, `INSERT INTO movie_metadata (`+movieColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, nullInt(m.TMDBID), nullString(m.IMDbID), m.Title, m.NormalizedTitle, nullInt(int64(m.Year)),
		genres, m.Director, cast, m.Plot, m.PosterURL, ratings, nullInt(int64(m.RuntimeMinutes)),
		m.ContentRating, m.Studio, m.Format, m.Language, m.Awards, m.BoxOffice, m.Country, m.Source,
		m.CreatedAt, m.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert movie: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanMovie(row scanner) (*Movie, error) {
	var (
		m                     Movie
		tmdbID, year, runtime sql.NullInt64
		imdbID                sql.NullString
		genres, cast, ratings string
		createdAt, updatedAt  time.Time
	)
	err := row.Scan(&m.ID, &tmdbID, &imdbID, &m.Title, &m.NormalizedTitle, &year, &genres, &m.Director,
		&cast, &m.Plot, &m.PosterURL, &ratings, &runtime, &m.ContentRating, &m.Studio, &m.Format,
		&m.Language, &m.Awards, &m.BoxOffice, &m.Country, &m.Source, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan movie: %w", err)
	}

	m.TMDBID = tmdbID.Int64
	m.IMDbID = imdbID.String
	m.Year = int(year.Int64)
	m.RuntimeMinutes = int(runtime.Int64)
	m.CreatedAt = createdAt
	m.UpdatedAt = updatedAt

	if err := json.Unmarshal([]byte(genres), &m.Genres); err != nil {
		return nil, fmt.Errorf("failed to decode genres for %s: %w", m.ID, err)
	}
	if err := json.Unmarshal([]byte(cast), &m.Cast); err != nil {
		return nil, fmt.Errorf("failed to decode cast for %s: %w", m.ID, err)
	}
	if err := json.Unmarshal([]byte(ratings), &m.Ratings); err != nil {
		return nil, fmt.Errorf("failed to decode ratings for %s: %w", m.ID, err)
	}
	return &m, nil
}

func encodeLists(m *Movie) (genres, cast, ratings string, err error) {
	g, err := json.Marshal(nonNilStrings(m.Genres))
	if err != nil {
		return "", "", "", fmt.Errorf("failed to encode genres: %w", err)
	}
	c, err := json.Marshal(nonNilStrings(m.Cast))
	if err != nil {
		return "", "", "", fmt.Errorf("failed to encode cast: %w", err)
	}
	r := m.Ratings
	if r == nil {
		r = map[string]float64{}
	}
	rb, err := json.Marshal(r)
	if err != nil {
		return "", "", "", fmt.Errorf("failed to encode ratings: %w", err)
	}
	return string(g), string(c), string(rb), nil
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func nullInt(v int64) sql.NullInt64 {
	return sql.NullInt64{Int64: v, Valid: v != 0}
}

func nullString(v string) sql.NullString {
	return sql.NullString{String: v, Valid: v != ""}
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
