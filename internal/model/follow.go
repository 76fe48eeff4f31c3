package model

import (
	"errors"
	"time"
)

// Follow is a directed edge: UserFollowingID follows UserBeingFollowedID.
type Follow struct {
	UserBeingFollowedID int64     `db:"user_being_followed_id" json:"user_being_followed_id"`
	UserFollowingID     int64     `db:"user_following_id" json:"user_following_id"`
	CreatedAt           time.Time `db:"created_at" json:"created_at"`
}

type UserSummary struct {
	ID          int64  `db:"id" json:"id"`
	Username    string `db:"username" json:"username"`
	ImageURL    string `db:"image_url" json:"image_url"`
	IsFollowing bool   `db:"-" json:"is_following"`
}

type FollowListResponse struct {
	User  UserSummary   `json:"user"`
	Stats UserStats     `json:"stats"`
	Users []UserSummary `json:"users"`
}

var (
	ErrCannotFollowSelf = errors.New("cannot follow yourself")
)
