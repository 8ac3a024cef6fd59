package entities

import (
	"encoding/json"
	"strconv"
)

// Movie is a catalog entry
type Movie struct {
	ID            int      `json:"id"`
	Title         string   `json:"title"`
	IMDbRating    float64  `json:"movieIMDbRating"`
	Genres        []string `json:"movieGenres"`
	Directors     []string `json:"directors"`
	MainStars     []string `json:"mainStars"`
	Description   string   `json:"description,omitempty"`
	DatePublished string   `json:"datePublished,omitempty"`
	Duration      int      `json:"duration"`
	YearReleased  *int     `json:"yearReleased,omitempty"`
	TMDBID        *int     `json:"tmdbId,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

type movieRecord Movie

// legacy key -> current key
var movieLegacyKeys = map[string]string{
	"movieId":   "id",
	"movieName": "title",
	"length":    "duration",
	"year":      "yearReleased",
}

// UnmarshalJSON accepts the legacy catalog keys and keeps unknown keys
func (m *Movie) UnmarshalJSON(data []byte) error {
	all, extra, err := splitRecord(data, m, "movieId", "movieName", "length", "year")
	if err != nil {
		return err
	}

	var rec movieRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return err
	}

	for legacy, current := range movieLegacyKeys {
		value, ok := all[legacy]
		if !ok {
			continue
		}
		if _, hasCurrent := all[current]; hasCurrent {
			continue
		}
		if !applyLegacyMovieKey(&rec, current, value) {
			// Keep values we cannot interpret so they survive a save.
			if extra == nil {
				extra = make(map[string]json.RawMessage)
			}
			extra[legacy] = value
		}
	}

	if rec.YearReleased == nil && len(rec.DatePublished) >= 4 {
		if year, err := strconv.Atoi(rec.DatePublished[:4]); err == nil {
			rec.YearReleased = &year
		}
	}

	*m = Movie(rec)
	m.Extra = extra
	return nil
}

func applyLegacyMovieKey(rec *movieRecord, key string, value json.RawMessage) bool {
	switch key {
	case "id":
		return json.Unmarshal(value, &rec.ID) == nil
	case "title":
		return json.Unmarshal(value, &rec.Title) == nil
	case "duration":
		return json.Unmarshal(value, &rec.Duration) == nil
	case "yearReleased":
		var year int
		if json.Unmarshal(value, &year) != nil {
			return false
		}
		rec.YearReleased = &year
		return true
	}
	return false
}

// MarshalJSON writes the record along with any preserved keys
func (m Movie) MarshalJSON() ([]byte, error) {
	if m.Genres == nil {
		m.Genres = []string{}
	}
	if m.Directors == nil {
		m.Directors = []string{}
	}
	if m.MainStars == nil {
		m.MainStars = []string{}
	}
	base, err := json.Marshal(movieRecord(m))
	if err != nil {
		return nil, err
	}
	return appendExtra(base, m.Extra)
}

// MetadataID is the identifier used with the metadata provider
func (m *Movie) MetadataID() int {
	if m.TMDBID != nil {
		return *m.TMDBID
	}
	return m.ID
}
