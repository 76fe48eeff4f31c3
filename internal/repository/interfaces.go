package repository

import (
	"context"

	"warbler/internal/cache"
	"warbler/internal/model"
)

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	// Search matches usernames containing query; an empty query lists everyone.
	Search(ctx context.Context, query string, limit int) ([]model.UserSummary, error)
	Update(ctx context.Context, user *model.User) error
	// Delete removes the user; messages, follows and likes cascade.
	Delete(ctx context.Context, id int64) error
	GetStats(ctx context.Context, id int64) (model.UserStats, error)
}

type FollowRepository interface {
	// Create reports whether a new edge was inserted.
	Create(ctx context.Context, followerID, followeeID int64) (bool, error)
	// Delete reports whether an edge was removed.
	Delete(ctx context.Context, followerID, followeeID int64) (bool, error)
	Exists(ctx context.Context, followerID, followeeID int64) (bool, error)
	GetFollowers(ctx context.Context, userID int64) ([]model.UserSummary, error)
	GetFollowing(ctx context.Context, userID int64) ([]model.UserSummary, error)
	CheckFollows(ctx context.Context, followerID int64, followeeIDs []int64) (map[int64]bool, error)
	GetFollowerIDs(ctx context.Context, userID int64) ([]int64, error)
}

type MessageRepository interface {
	Create(ctx context.Context, userID int64, text string) (*model.Message, error)
	GetByID(ctx context.Context, id int64) (*model.Message, error)
	// GetByIDs keeps the order of ids and skips ids that no longer exist.
	GetByIDs(ctx context.Context, ids []int64) ([]model.Message, error)
	Delete(ctx context.Context, id int64) error
	ListByUser(ctx context.Context, userID int64, limit int) ([]model.Message, error)
	// GetFeed returns messages by users that userID follows, newest first.
	GetFeed(ctx context.Context, userID int64, limit int) ([]model.Message, error)
	GetFeedScores(ctx context.Context, userID int64, limit int) ([]cache.MessageScore, error)
}

type LikeRepository interface {
	// Toggle removes the like if present, otherwise adds it, and reports the new state.
	Toggle(ctx context.Context, userID, messageID int64) (bool, error)
	CheckLikes(ctx context.Context, userID int64, messageIDs []int64) (map[int64]bool, error)
	GetLikedMessages(ctx context.Context, userID int64) ([]model.Message, error)
}
