package entities

import "time"

// UserCreate is the registration payload
type UserCreate struct {
	Username  string `json:"username"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Age       *int   `json:"age"`
	Email     string `json:"email"`
	Password  string `json:"pw"`
}

// UserUpdate is a partial profile update; nil fields are left unchanged
type UserUpdate struct {
	Username  *string `json:"username,omitempty"`
	FirstName *string `json:"firstName,omitempty"`
	LastName  *string `json:"lastName,omitempty"`
	Age       *int    `json:"age,omitempty"`
	Email     *string `json:"email,omitempty"`
	Password  *string `json:"pw,omitempty"`
}

// AdminUserUpdate changes fields only an admin may set
type AdminUserUpdate struct {
	Role     *Role `json:"role,omitempty"`
	IsBanned *bool `json:"isBanned,omitempty"`
}

// ReviewCreate is the payload for posting a review
type ReviewCreate struct {
	MovieID     int    `json:"movieId"`
	ReviewTitle string `json:"reviewTitle"`
	ReviewBody  string `json:"reviewBody"`
	Rating      int    `json:"rating"`
}

// ReviewUpdate edits a review's text or rating
type ReviewUpdate struct {
	ReviewTitle *string `json:"reviewTitle,omitempty"`
	ReviewBody  *string `json:"reviewBody,omitempty"`
	Rating      *int    `json:"rating,omitempty"`
}

// ReplyCreate is the payload for replying to a review
type ReplyCreate struct {
	ReplyBody string `json:"replyBody"`
}

// AccessToken is returned by a successful login
type AccessToken struct {
	Message     string    `json:"message"`
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	UserID      int       `json:"userId"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

// PasswordReset carries a freshly issued reset token
type PasswordReset struct {
	ResetToken string    `json:"resetToken"`
	ExpiresAt  time.Time `json:"expiresAt"`
}

// MovieUpdate is a partial catalog edit; nil fields are left unchanged
type MovieUpdate struct {
	Title         *string   `json:"title,omitempty"`
	IMDbRating    *float64  `json:"movieIMDbRating,omitempty"`
	Genres        *[]string `json:"movieGenres,omitempty"`
	Directors     *[]string `json:"directors,omitempty"`
	MainStars     *[]string `json:"mainStars,omitempty"`
	Description   *string   `json:"description,omitempty"`
	DatePublished *string   `json:"datePublished,omitempty"`
	Duration      *int      `json:"duration,omitempty"`
	TMDBID        *int      `json:"tmdbId,omitempty"`
}
