package tmdb

// searchResponse is the upstream payload of GET /search/movie.
type searchResponse struct {
	Results []SearchResult `json:"results"`
}

// SearchResult is one entry of a catalog search page.
type SearchResult struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	ReleaseDate string `json:"release_date"`
	Overview    string `json:"overview"`
}

// movieResponse is the upstream payload of GET /movie/{id}.
type movieResponse struct {
	Title       string `json:"title"`
	ReleaseDate string `json:"release_date"`
	Overview    string `json:"overview"`
	PosterPath  string `json:"poster_path"`
}

// MovieDetails holds the fields required to import a movie.
type MovieDetails struct {
	Title       string
	Year        int
	Description string
	// PosterURL is the image-host prefix concatenated with the returned
	// poster path. When the upstream poster path is empty the URL is the
	// bare prefix and renders as a placeholder; the import proceeds
	// anyway.
	PosterURL string
}
