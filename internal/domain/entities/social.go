package entities

import "encoding/json"

// Reply is a response to a review
type Reply struct {
	ID         int    `json:"id"`
	ReviewID   int    `json:"reviewId"`
	UserID     int    `json:"userId"`
	ReplyBody  string `json:"replyBody"`
	DatePosted string `json:"datePosted"`

	Extra map[string]json.RawMessage `json:"-"`
}

type replyRecord Reply

// UnmarshalJSON keeps unknown keys
func (r *Reply) UnmarshalJSON(data []byte) error {
	_, extra, err := splitRecord(data, r)
	if err != nil {
		return err
	}
	var rec replyRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return err
	}
	*r = Reply(rec)
	r.Extra = extra
	return nil
}

// MarshalJSON writes the record along with any preserved keys
func (r Reply) MarshalJSON() ([]byte, error) {
	base, err := json.Marshal(replyRecord(r))
	if err != nil {
		return nil, err
	}
	return appendExtra(base, r.Extra)
}

// LikedReview records that a user liked a review
type LikedReview struct {
	UserID   int `json:"userId"`
	ReviewID int `json:"reviewId"`
}

// LikedReviewFull is a liked review joined with its movie and author
type LikedReviewFull struct {
	ID          int    `json:"id"`
	MovieID     int    `json:"movieId"`
	MovieTitle  string `json:"movieTitle"`
	Username    string `json:"username"`
	ReviewTitle string `json:"reviewTitle"`
	Poster      string `json:"poster,omitempty"`
}

// Favorite records a user's favorite movie
type Favorite struct {
	UserID  int `json:"userId"`
	MovieID int `json:"movieId"`
}
