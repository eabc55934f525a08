// Package mock provides offline metadata provider fixtures for developer mode and tests.
package mock

import (
	"context"
	"strings"

	"github.com/snapshelf/snapshelf/internal/matching"
	"github.com/snapshelf/snapshelf/internal/metadata/tmdb"
)

// searchThreshold is the minimum title score a fixture needs to appear in
// search results.
const searchThreshold = 0.6

// TMDBClient is a mock implementation of the TMDB client.
type TMDBClient struct{}

// NewTMDBClient creates a new mock TMDB client.
func NewTMDBClient() *TMDBClient {
	return &TMDBClient{}
}

func (c *TMDBClient) Name() string {
	return "tmdb-mock"
}

func (c *TMDBClient) IsConfigured() bool {
	return true
}

func (c *TMDBClient) Test(ctx context.Context) error {
	return nil
}

func (c *TMDBClient) GetImageURL(path, size string) string {
	if path == "" {
		return ""
	}
	return "https://image.tmdb.org/t/p/" + size + path
}

func (c *TMDBClient) SearchMovies(ctx context.Context, query string, year int) ([]tmdb.NormalizedMovieResult, error) {
	var results []tmdb.NormalizedMovieResult
	for i := range mockMovies {
		movie := &mockMovies[i]
		if year != 0 && movie.Year != year {
			continue
		}
		if fixtureMatches(query, movie.Title) {
			results = append(results, searchView(*movie))
		}
	}
	return results, nil
}

func (c *TMDBClient) GetMovie(ctx context.Context, id int) (*tmdb.NormalizedMovieResult, error) {
	for i := range mockMovies {
		if mockMovies[i].ID == id {
			movie := mockMovies[i]
			return &movie, nil
		}
	}
	return nil, tmdb.ErrMovieNotFound
}

// searchView trims a fixture to the fields TMDB search responses carry.
func searchView(m tmdb.NormalizedMovieResult) tmdb.NormalizedMovieResult {
	return tmdb.NormalizedMovieResult{
		ID:          m.ID,
		Title:       m.Title,
		Year:        m.Year,
		Overview:    m.Overview,
		PosterURL:   m.PosterURL,
		VoteAverage: m.VoteAverage,
	}
}

func fixtureMatches(query, title string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return false
	}
	if strings.Contains(strings.ToLower(title), q) {
		return true
	}
	return matching.Score(query, title) >= searchThreshold
}

var mockMovies = []tmdb.NormalizedMovieResult{
	{ID: 949, Title: "Heat", Year: 1995, Overview: "Obsessive master thief Neil McCauley leads a top-notch crew on various daring heists throughout Los Angeles while determined detective Vincent Hanna pursues him.", PosterURL: "https://image.tmdb.org/t/p/w500/umSVjVdbVwtx5ryCA2QXL44Durm.jpg", ImdbID: "tt0113277", Genres: []string{"Crime", "Drama", "Action"}, Director: "Michael Mann", Cast: []string{"Al Pacino", "Robert De Niro", "Val Kilmer", "Jon Voight"}, Runtime: 170, VoteAverage: 7.9, Studio: "Regency Enterprises", Country: "United States of America", Language: "English"},
	{ID: 161, Title: "Ocean's Eleven", Year: 2001, Overview: "Less than 24 hours into his parole, charismatic thief Danny Ocean is already rolling out his next plan.", PosterURL: "https://image.tmdb.org/t/p/w500/hQQCdZrsHtZyR6NbKH2YyCqd2fR.jpg", ImdbID: "tt0240772", Genres: []string{"Thriller", "Crime"}, Director: "Steven Soderbergh", Cast: []string{"George Clooney", "Brad Pitt", "Matt Damon", "Julia Roberts"}, Runtime: 116, VoteAverage: 7.4, Studio: "Village Roadshow Pictures", Country: "United States of America", Language: "English"},
	{ID: 299, Title: "Ocean's Eleven", Year: 1960, Overview: "Danny Ocean gathers a group of his World War II compatriots to pull off the ultimate Las Vegas heist.", PosterURL: "https://image.tmdb.org/t/p/w500/fJ4J5bqWLvjtJJuXg7fZdoPv3Ee.jpg", ImdbID: "tt0054135", Genres: []string{"Comedy", "Crime"}, Director: "Lewis Milestone", Cast: []string{"Frank Sinatra", "Dean Martin", "Sammy Davis Jr."}, Runtime: 127, VoteAverage: 6.4, Studio: "Warner Bros. Pictures", Country: "United States of America", Language: "English"},
	{ID: 603, Title: "The Matrix", Year: 1999, Overview: "Set in the 22nd century, The Matrix tells the story of a computer hacker who joins a group of underground insurgents fighting the vast and powerful computers who now rule the earth.", PosterURL: "https://image.tmdb.org/t/p/w500/p96dm7sCMn4VYAStA6siNz30G1r.jpg", ImdbID: "tt0133093", Genres: []string{"Action", "Science Fiction"}, Director: "Lana Wachowski", Cast: []string{"Keanu Reeves", "Laurence Fishburne", "Carrie-Anne Moss"}, Runtime: 136, VoteAverage: 8.2, Studio: "Village Roadshow Pictures", Country: "United States of America", Language: "English"},
	{ID: 550, Title: "Fight Club", Year: 1999, Overview: "A ticking-time-bomb insomniac and a slippery soap salesman channel primal male aggression into a shocking new form of therapy.", PosterURL: "https://image.tmdb.org/t/p/w500/pB8BM7pdSp6B6Ih7QZ4DrQ3PmJK.jpg", ImdbID: "tt0137523", Genres: []string{"Drama", "Thriller"}, Director: "David Fincher", Cast: []string{"Brad Pitt", "Edward Norton", "Helena Bonham Carter"}, Runtime: 139, VoteAverage: 8.4, Studio: "Fox 2000 Pictures", Country: "United States of America", Language: "English"},
	{ID: 680, Title: "Pulp Fiction", Year: 1994, Overview: "A burger-loving hit man, his philosophical partner, a drug-addled gangster's moll and a washed-up boxer converge in this sprawling, comedic crime caper.", PosterURL: "https://image.tmdb.org/t/p/w500/vQWk5YBFWF4bZaofAbv0tShwBvQ.jpg", ImdbID: "tt0110912", Genres: []string{"Thriller", "Crime", "Comedy"}, Director: "Quentin Tarantino", Cast: []string{"John Travolta", "Samuel L. Jackson", "Uma Thurman", "Bruce Willis"}, Runtime: 154, VoteAverage: 8.5, Studio: "Miramax", Country: "United States of America", Language: "English"},
	{ID: 155, Title: "The Dark Knight", Year: 2008, Overview: "Batman raises the stakes in his war on crime. With the help of Lt. Jim Gordon and District Attorney Harvey Dent, Batman sets out to dismantle the remaining criminal organizations.", PosterURL: "https://image.tmdb.org/t/p/w500/qJ2tW6WMUDux911r6m7haRef0WH.jpg", ImdbID: "tt0468569", Genres: []string{"Drama", "Action", "Crime", "Thriller"}, Director: "Christopher Nolan", Cast: []string{"Christian Bale", "Heath Ledger", "Aaron Eckhart"}, Runtime: 152, VoteAverage: 8.5, Studio: "Warner Bros. Pictures", Country: "United States of America", Language: "English"},
	{ID: 278, Title: "The Shawshank Redemption", Year: 1994, Overview: "Imprisoned in the 1940s for the double murder of his wife and her lover, upstanding banker Andy Dufresne begins a new life at the Shawshank prison.", PosterURL: "https://image.tmdb.org/t/p/w500/9cqNxx0GxF0bflZmeSMuL5tnGzr.jpg", ImdbID: "tt0111161", Genres: []string{"Drama", "Crime"}, Director: "Frank Darabont", Cast: []string{"Tim Robbins", "Morgan Freeman", "Bob Gunton"}, Runtime: 142, VoteAverage: 8.7, Studio: "Castle Rock Entertainment", Country: "United States of America", Language: "English"},
	{ID: 238, Title: "The Godfather", Year: 1972, Overview: "Spanning the years 1945 to 1955, a chronicle of the fictional Italian-American Corleone crime family.", PosterURL: "https://image.tmdb.org/t/p/w500/3bhkrj58Vtu7enYsRolD1fZdja1.jpg", ImdbID: "tt0068646", Genres: []string{"Drama", "Crime"}, Director: "Francis Ford Coppola", Cast: []string{"Marlon Brando", "Al Pacino", "James Caan"}, Runtime: 175, VoteAverage: 8.7, Studio: "Paramount Pictures", Country: "United States of America", Language: "English"},
	{ID: 27205, Title: "Inception", Year: 2010, Overview: "Cobb, a skilled thief who commits corporate espionage by infiltrating the subconscious of his targets, is offered a chance to regain his old life.", PosterURL: "https://image.tmdb.org/t/p/w500/xlaY2zyzMfkhk0HSC5VUwzoZPU1.jpg", ImdbID: "tt1375666", Genres: []string{"Action", "Science Fiction", "Adventure"}, Director: "Christopher Nolan", Cast: []string{"Leonardo DiCaprio", "Joseph Gordon-Levitt", "Elliot Page"}, Runtime: 148, VoteAverage: 8.4, Studio: "Legendary Pictures", Country: "United States of America", Language: "English"},
	{ID: 157336, Title: "Interstellar", Year: 2014, Overview: "The adventures of a group of explorers who make use of a newly discovered wormhole to surpass the limitations on human space travel.", PosterURL: "https://image.tmdb.org/t/p/w500/gEU2QniE6E77NI6lCU6MxlNBvIx.jpg", ImdbID: "tt0816692", Genres: []string{"Adventure", "Drama", "Science Fiction"}, Director: "Christopher Nolan", Cast: []string{"Matthew McConaughey", "Anne Hathaway", "Jessica Chastain"}, Runtime: 169, VoteAverage: 8.4, Studio: "Legendary Pictures", Country: "United States of America", Language: "English"},
	{ID: 438631, Title: "Dune", Year: 2021, Overview: "Paul Atreides, a brilliant and gifted young man born into a great destiny beyond his understanding, must travel to the most dangerous planet in the universe.", PosterURL: "https://image.tmdb.org/t/p/w500/d5NXSklXo0qyIYkgV94XAgMIckC.jpg", ImdbID: "tt1160419", Genres: []string{"Science Fiction", "Adventure"}, Director: "Denis Villeneuve", Cast: []string{"Timothée Chalamet", "Rebecca Ferguson", "Oscar Isaac"}, Runtime: 155, VoteAverage: 7.8, Studio: "Legendary Pictures", Country: "United States of America", Language: "English"},
	{ID: 693134, Title: "Dune: Part Two", Year: 2024, Overview: "Follow the mythic journey of Paul Atreides as he unites with Chani and the Fremen while on a path of revenge against the conspirators who destroyed his family.", PosterURL: "https://image.tmdb.org/t/p/w500/1pdfLvkbY9ohJlCjQH2CZjjYVvJ.jpg", ImdbID: "tt15239678", Genres: []string{"Science Fiction", "Adventure"}, Director: "Denis Villeneuve", Cast: []string{"Timothée Chalamet", "Zendaya", "Rebecca Ferguson"}, Runtime: 167, VoteAverage: 8.2, Studio: "Legendary Pictures", Country: "United States of America", Language: "English"},
	{ID: 872585, Title: "Oppenheimer", Year: 2023, Overview: "The story of J. Robert Oppenheimer's role in the development of the atomic bomb during World War II.", PosterURL: "https://image.tmdb.org/t/p/w500/8Gxv8gSFCU0XGDykEGv7zR1n2ua.jpg", ImdbID: "tt15398776", Genres: []string{"Drama", "History"}, Director: "Christopher Nolan", Cast: []string{"Cillian Murphy", "Emily Blunt", "Matt Damon"}, Runtime: 181, VoteAverage: 8.1, Studio: "Syncopy", Country: "United Kingdom", Language: "English"},
	{ID: 545611, Title: "Everything Everywhere All at Once", Year: 2022, Overview: "An aging Chinese immigrant is swept up in an insane adventure, where she alone can save what's important to her by connecting with the lives she could have led.", PosterURL: "https://image.tmdb.org/t/p/w500/u68AjlvlutfEIcpmbYpKcdi09ut.jpg", ImdbID: "tt6710474", Genres: []string{"Action", "Adventure", "Science Fiction"}, Director: "Daniel Kwan", Cast: []string{"Michelle Yeoh", "Ke Huy Quan", "Stephanie Hsu"}, Runtime: 140, VoteAverage: 7.8, Studio: "A24", Country: "United States of America", Language: "English"},
}
