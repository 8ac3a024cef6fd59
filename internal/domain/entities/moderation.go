package entities

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// FlagResult is the outcome of flagging a review
type FlagResult struct {
	ReviewID          int  `json:"reviewId"`
	AuthorID          int  `json:"authorId"`
	Penalties         int  `json:"penalties"`
	IsBanned          bool `json:"isBanned"`
	WasAlreadyFlagged bool `json:"wasAlreadyFlagged"`
}

// FlaggedSort orders the flagged review report
type FlaggedSort string

const (
	SortNewest      FlaggedSort = "newest"
	SortMostFlagged FlaggedSort = "mostFlagged"
)

// ParseFlaggedSort maps a query value to a sort key. Empty means newest.
func ParseFlaggedSort(s string) (FlaggedSort, bool) {
	switch FlaggedSort(s) {
	case "", SortNewest:
		return SortNewest, true
	case SortMostFlagged:
		return SortMostFlagged, true
	}
	return "", false
}

// Page size bounds for the flagged review report
const (
	DefaultFlaggedPageSize = 20
	MaxFlaggedPageSize     = 100
)

// FlaggedReview is a flagged review annotated with its author's name
type FlaggedReview struct {
	Review
	AuthorUsername string `json:"authorUsername,omitempty"`
}

// MarshalJSON merges the author name into the review object
func (f FlaggedReview) MarshalJSON() ([]byte, error) {
	base, err := f.Review.MarshalJSON()
	if err != nil || f.AuthorUsername == "" {
		return base, err
	}
	if _, clash := f.Extra["authorUsername"]; clash {
		return base, nil
	}
	name, err := json.Marshal(f.AuthorUsername)
	if err != nil {
		return nil, err
	}
	return appendExtra(base, map[string]json.RawMessage{"authorUsername": name})
}

// PagedFlagged is one page of the flagged review report
type PagedFlagged struct {
	Page         int              `json:"page"`
	PageSize     int              `json:"pageSize"`
	TotalFlagged int              `json:"totalFlagged"`
	PageCount    int              `json:"pageCount"`
	Reviews      []*FlaggedReview `json:"reviews"`
}

// ModerationEventType names a moderation state change
type ModerationEventType string

const (
	EventReviewFlagged ModerationEventType = "review.flagged"
	EventUserBanned    ModerationEventType = "user.banned"
)

// ModerationEvent is published after a flag is fully applied
type ModerationEvent struct {
	ID         string              `json:"id"`
	Type       ModerationEventType `json:"type"`
	ReviewID   int                 `json:"reviewId"`
	MovieID    int                 `json:"movieId"`
	UserID     int                 `json:"userId"`
	Penalties  int                 `json:"penalties"`
	IsBanned   bool                `json:"isBanned"`
	OccurredAt time.Time           `json:"occurredAt"`
}

// NewModerationEvent creates an event stamped with a fresh id and time
func NewModerationEvent(eventType ModerationEventType, review *Review, user *User) *ModerationEvent {
	return &ModerationEvent{
		ID:         uuid.New().String(),
		Type:       eventType,
		ReviewID:   review.ID,
		MovieID:    review.MovieID,
		UserID:     user.ID,
		Penalties:  user.Penalties,
		IsBanned:   user.IsBanned,
		OccurredAt: time.Now().UTC(),
	}
}
