package omdb

// Response represents the OMDb title response.
type Response struct {
	Title      string   `json:"Title"`
	Year       string   `json:"Year"`
	Rated      string   `json:"Rated"`
	Released   string   `json:"Released"`
	Runtime    string   `json:"Runtime"`
	Genre      string   `json:"Genre"`
	Director   string   `json:"Director"`
	Writer     string   `json:"Writer"`
	Actors     string   `json:"Actors"`
	Plot       string   `json:"Plot"`
	Language   string   `json:"Language"`
	Country    string   `json:"Country"`
	Awards     string   `json:"Awards"`
	Poster     string   `json:"Poster"`
	Ratings    []Rating `json:"Ratings"`
	Metascore  string   `json:"Metascore"`
	ImdbRating string   `json:"imdbRating"`
	ImdbVotes  string   `json:"imdbVotes"`
	ImdbID     string   `json:"imdbID"`
	Type       string   `json:"Type"`
	BoxOffice  string   `json:"BoxOffice"`
	Production string   `json:"Production"`
	Response   string   `json:"Response"`
	Error      string   `json:"Error,omitempty"`
}

// Rating represents a single rating from a source.
type Rating struct {
	Source string `json:"Source"`
	Value  string `json:"Value"`
}

// SearchResponse is the OMDb search (s=) response.
type SearchResponse struct {
	Search       []SearchResult `json:"Search"`
	TotalResults string         `json:"totalResults"`
	Response     string         `json:"Response"`
	Error        string         `json:"Error,omitempty"`
}

// SearchResult is one OMDb search hit.
type SearchResult struct {
	Title  string `json:"Title"`
	Year   string `json:"Year"`
	ImdbID string `json:"imdbID"`
	Type   string `json:"Type"`
	Poster string `json:"Poster"`
}

// NormalizedMovie is a provider-neutral view of an OMDb title.
type NormalizedMovie struct {
	ImdbID        string             `json:"imdbId"`
	Title         string             `json:"title"`
	Year          int                `json:"year,omitempty"`
	Genres        []string           `json:"genres,omitempty"`
	Director      string             `json:"director,omitempty"`
	Cast          []string           `json:"cast,omitempty"`
	Plot          string             `json:"plot,omitempty"`
	PosterURL     string             `json:"posterUrl,omitempty"`
	Ratings       map[string]float64 `json:"ratings,omitempty"`
	Runtime       int                `json:"runtime,omitempty"`
	ContentRating string             `json:"contentRating,omitempty"`
	Awards        string             `json:"awards,omitempty"`
	BoxOffice     string             `json:"boxOffice,omitempty"`
	Country       string             `json:"country,omitempty"`
	Language      string             `json:"language,omitempty"`
	Studio        string             `json:"studio,omitempty"`
}
