package entities

import (
	"encoding/json"
	"time"
)

// MinRating and MaxRating bound a review's star rating
const (
	MinRating = 1
	MaxRating = 10
)

// Review is a user's rated review of a movie.
//
// UserID never changes after creation and Flagged never goes from true back
// to false.
type Review struct {
	ID          int    `json:"id"`
	MovieID     int    `json:"movieId"`
	UserID      int    `json:"userId"`
	ReviewTitle string `json:"reviewTitle"`
	ReviewBody  string `json:"reviewBody"`
	Rating      int    `json:"rating"`
	DatePosted  string `json:"datePosted"`
	Flagged     bool   `json:"flagged"`
	FlaggedAt   string `json:"flaggedAt,omitempty"`
	FlagCount   *int   `json:"flagCount,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

type reviewRecord Review

// UnmarshalJSON keeps unknown keys
func (r *Review) UnmarshalJSON(data []byte) error {
	_, extra, err := splitRecord(data, r)
	if err != nil {
		return err
	}

	var rec reviewRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return err
	}

	*r = Review(rec)
	r.Extra = extra
	return nil
}

// MarshalJSON writes the record along with any preserved keys
func (r Review) MarshalJSON() ([]byte, error) {
	base, err := json.Marshal(reviewRecord(r))
	if err != nil {
		return nil, err
	}
	return appendExtra(base, r.Extra)
}

// EffectiveFlagCount is the flag count used for ranking; absent counts as one
func (r *Review) EffectiveFlagCount() int {
	if r.FlagCount == nil {
		return 1
	}
	return *r.FlagCount
}

var datePostedLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// PostedAt parses DatePosted. The zero time is returned for unparseable values.
func (r *Review) PostedAt() time.Time {
	for _, layout := range datePostedLayouts {
		if t, err := time.Parse(layout, r.DatePosted); err == nil {
			return t
		}
	}
	return time.Time{}
}

// ValidRating reports whether rating is within bounds
func ValidRating(rating int) bool {
	return rating >= MinRating && rating <= MaxRating
}

// Today formats now as a review posting date
func Today(now time.Time) string {
	return now.Format("2006-01-02")
}
