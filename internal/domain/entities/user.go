package entities

import (
	"encoding/json"
	"strings"
)

// Role is a user's authorization level
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Valid reports whether r is a known role
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// PenaltyThreshold is the penalty count at which a user is banned
const PenaltyThreshold = 3

// User is a stored account.
//
// Penalties only grow through ApplyPenalty and IsBanned never goes from true
// back to false. Username is unique ignoring case.
type User struct {
	ID        int    `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Age       *int   `json:"age"`
	Email     string `json:"email"`
	Password  string `json:"pw"`
	Role      Role   `json:"role"`
	Penalties int    `json:"penalties"`
	IsBanned  bool   `json:"isBanned"`

	// PenalizedReviews lists the reviews whose flag has been charged to
	// this user.
	PenalizedReviews []int `json:"penalizedReviews,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

type userRecord User

// UnmarshalJSON accepts the legacy penaltyCount key and keeps unknown keys
func (u *User) UnmarshalJSON(data []byte) error {
	all, extra, err := splitRecord(data, u, "penaltyCount")
	if err != nil {
		return err
	}

	var rec userRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return err
	}

	if _, ok := all["penalties"]; !ok {
		if legacy, ok := all["penaltyCount"]; ok {
			if err := json.Unmarshal(legacy, &rec.Penalties); err != nil {
				return err
			}
		}
	}
	if rec.Role == "" {
		rec.Role = RoleUser
	}

	*u = User(rec)
	u.Extra = extra
	return nil
}

// MarshalJSON writes the record along with any preserved keys
func (u User) MarshalJSON() ([]byte, error) {
	base, err := json.Marshal(userRecord(u))
	if err != nil {
		return nil, err
	}
	return appendExtra(base, u.Extra)
}

// IsAdmin reports whether the user holds the admin role
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// ApplyPenalty adds one penalty and bans the user once the count reaches
// threshold. It reports whether this call set the ban.
func (u *User) ApplyPenalty(threshold int) bool {
	u.Penalties++
	if !u.IsBanned && u.Penalties >= threshold {
		u.IsBanned = true
		return true
	}
	return false
}

// PenalizeFor charges the penalty for a flagged review at most once. It
// reports whether a penalty was charged and whether it set the ban.
func (u *User) PenalizeFor(reviewID, threshold int) (charged, banned bool) {
	for _, id := range u.PenalizedReviews {
		if id == reviewID {
			return false, false
		}
	}
	u.PenalizedReviews = append(u.PenalizedReviews, reviewID)
	return true, u.ApplyPenalty(threshold)
}

// SameUsername compares usernames ignoring case
func SameUsername(a, b string) bool {
	return strings.EqualFold(a, b)
}

// Profile returns the user without the password hash
func (u *User) Profile() *UserProfile {
	return &UserProfile{
		ID:        u.ID,
		Username:  u.Username,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Age:       u.Age,
		Email:     u.Email,
		Role:      u.Role,
		Penalties: u.Penalties,
		IsBanned:  u.IsBanned,
	}
}

// UserProfile is the API view of a user
type UserProfile struct {
	ID        int    `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Age       *int   `json:"age"`
	Email     string `json:"email"`
	Role      Role   `json:"role"`
	Penalties int    `json:"penalties"`
	IsBanned  bool   `json:"isBanned"`
}

// CurrentUser is the authenticated principal of a request. It is derived from
// the stored user on every request and never persisted.
type CurrentUser struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Role     Role   `json:"role"`
}

// IsAdmin reports whether the principal holds the admin role
func (c *CurrentUser) IsAdmin() bool {
	return c != nil && c.Role == RoleAdmin
}

// Principal derives the request principal from a stored user
func (u *User) Principal() *CurrentUser {
	return &CurrentUser{ID: u.ID, Username: u.Username, Role: u.Role}
}
