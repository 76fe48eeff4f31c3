package model

import (
	"errors"
	"time"
)

const (
	// MaxMessageLength is the longest message text, counted in characters.
	MaxMessageLength = 140

	// TimelineLimit caps the home feed and profile message lists.
	TimelineLimit = 100
)

// Message is a short post owned by a user.
type Message struct {
	ID        int64       `db:"id" json:"id"`
	Text      string      `db:"text" json:"text"`
	Timestamp time.Time   `db:"timestamp" json:"timestamp"`
	UserID    int64       `db:"user_id" json:"user_id"`
	Author    UserSummary `db:"author" json:"author"`
}

// MessageResponse is a single message page with the viewer's like state.
type MessageResponse struct {
	Message *Message `json:"message"`
	IsLiked bool     `json:"is_liked"`
	IsOwner bool     `json:"is_owner"`
}

// FeedResponse is the home timeline.
type FeedResponse struct {
	Messages []Message `json:"messages"`
	LikedIDs []int64   `json:"liked_ids"`
}

// LikeToggleResult reports the like state after a toggle.
type LikeToggleResult struct {
	MessageID int64 `json:"message_id"`
	Liked     bool  `json:"liked"`
}

var (
	ErrMessageNotFound = errors.New("message not found")
	ErrNotMessageOwner = errors.New("not the owner of this message")
	ErrMessageEmpty    = errors.New("message text is required")
	ErrMessageTooLong  = errors.New("message text exceeds 140 characters")
)
