package entities

// MovieDetails is enrichment data fetched from the metadata provider
type MovieDetails struct {
	MovieID  int     `json:"movieId"`
	Poster   string  `json:"poster"`
	Overview string  `json:"overview"`
	Rating   float64 `json:"rating"`
}

// Recommendation is a related title suggested by the metadata provider
type Recommendation struct {
	ID          int     `json:"id"`
	Title       string  `json:"title"`
	Poster      string  `json:"poster"`
	Rating      float64 `json:"rating"`
	ReleaseDate string  `json:"releaseDate,omitempty"`
}
