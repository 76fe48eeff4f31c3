package model

import "errors"

const (
	// DefaultImageURL is used when a user signs up without a profile image.
	DefaultImageURL = "/static/images/default-pic.png"

	// DefaultHeaderImageURL is used when a user has no header image.
	DefaultHeaderImageURL = "/static/images/warbler-hero.jpg"

	MaxUsernameLength = 50
	MinPasswordLength = 6
)

// User represents a Warbler account
type User struct {
	ID             int64   `db:"id" json:"id"`
	Username       string  `db:"username" json:"username"`
	Email          string  `db:"email" json:"email"`
	Password       string  `db:"password" json:"-"` // bcrypt hash, never serialized
	ImageURL       string  `db:"image_url" json:"image_url"`
	ImageKey       *string `db:"image_key" json:"-"`
	HeaderImageURL string  `db:"header_image_url" json:"header_image_url"`
	HeaderImageKey *string `db:"header_image_key" json:"-"`
	Bio            *string `db:"bio" json:"bio"`
	Location       *string `db:"location" json:"location"`
}

// Summary returns the public card shown in lists and on messages.
func (u *User) Summary() UserSummary {
	return UserSummary{
		ID:       u.ID,
		Username: u.Username,
		ImageURL: u.ImageURL,
	}
}

// UserStats holds the counters displayed on a profile.
type UserStats struct {
	Messages  int `db:"messages" json:"messages"`
	Followers int `db:"followers" json:"followers"`
	Following int `db:"following" json:"following"`
	Likes     int `db:"likes" json:"likes"`
}

// SignupRequest represents the data needed to create an account
type SignupRequest struct {
	Username string
	Email    string
	Password string
	ImageURL string
	ImageKey *string
}

// UpdateProfileRequest carries the editable profile fields.
// Password is the current password and is only used for verification.
type UpdateProfileRequest struct {
	Username       string
	Email          string
	ImageURL       string
	ImageKey       *string
	HeaderImageURL string
	HeaderImageKey *string
	Bio            string
	Location       string
	Password       string
}

// LoginRequest represents the data needed to log in
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// ProfileResponse is everything the profile page shows for a user.
type ProfileResponse struct {
	User        *User     `json:"user"`
	Stats       UserStats `json:"stats"`
	Messages    []Message `json:"messages"`
	LikedIDs    []int64   `json:"liked_ids"`
	IsFollowing bool      `json:"is_following"`
	IsSelf      bool      `json:"is_self"`
}

var (
	// ErrUserNotFound is returned when a user cannot be found
	ErrUserNotFound = errors.New("user not found")

	// ErrUsernameExists is returned when attempting to use a taken username
	ErrUsernameExists = errors.New("username already taken")

	// ErrEmailExists is returned when attempting to use a taken email
	ErrEmailExists = errors.New("email already taken")

	// ErrInvalidCredentials is returned when login credentials are incorrect
	ErrInvalidCredentials = errors.New("invalid credentials")
)
