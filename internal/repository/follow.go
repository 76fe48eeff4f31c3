package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"warbler/internal/model"
)

type followRepository struct {
	db *sqlx.DB
}

func NewFollowRepository(db *sqlx.DB) FollowRepository {
	return &followRepository{db: db}
}

func (r *followRepository) Create(ctx context.Context, followerID, followeeID int64) (bool, error) {
	query := `
		INSERT INTO follows (user_being_followed_id, user_following_id)
		VALUES ($1, $2)
		ON CONFLICT (user_being_followed_id, user_following_id) DO NOTHING
	`
	result, err := r.db.ExecContext(ctx, query, followeeID, followerID)
	if err != nil {
		if pqErr, ok := pqCode(err); ok {
			switch string(pqErr.Code) {
			case pqForeignKeyViolation:
				return false, model.ErrUserNotFound
			case pqCheckViolation:
				if pqErr.Constraint == constraintNoSelf {
					return false, model.ErrCannotFollowSelf
				}
			}
		}
		return false, fmt.Errorf("failed to create follow: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected > 0, nil
}

func (r *followRepository) Delete(ctx context.Context, followerID, followeeID int64) (bool, error) {
	query := `DELETE FROM follows WHERE user_being_followed_id = $1 AND user_following_id = $2`
	result, err := r.db.ExecContext(ctx, query, followeeID, followerID)
	if err != nil {
		return false, fmt.Errorf("failed to delete follow: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rows > 0, nil
}

func (r *followRepository) Exists(ctx context.Context, followerID, followeeID int64) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM follows WHERE user_being_followed_id = $1 AND user_following_id = $2)`
	var exists bool
	err := r.db.GetContext(ctx, &exists, query, followeeID, followerID)
	if err != nil {
		return false, fmt.Errorf("failed to check follow existence: %w", err)
	}
	return exists, nil
}

// GetFollowers returns the users following userID, most recent follow first.
func (r *followRepository) GetFollowers(ctx context.Context, userID int64) ([]model.UserSummary, error) {
	query := `
		SELECT u.id, u.username, u.image_url
		FROM follows f
		JOIN users u ON u.id = f.user_following_id
		WHERE f.user_being_followed_id = $1
		ORDER BY f.created_at DESC, u.id
	`

	users := make([]model.UserSummary, 0)
	if err := r.db.SelectContext(ctx, &users, query, userID); err != nil {
		return nil, fmt.Errorf("failed to get followers: %w", err)
	}
	return users, nil
}

// GetFollowing returns the users userID follows, most recent follow first.
func (r *followRepository) GetFollowing(ctx context.Context, userID int64) ([]model.UserSummary, error) {
	query := `
		SELECT u.id, u.username, u.image_url
		FROM follows f
		JOIN users u ON u.id = f.user_being_followed_id
		WHERE f.user_following_id = $1
		ORDER BY f.created_at DESC, u.id
	`

	users := make([]model.UserSummary, 0)
	if err := r.db.SelectContext(ctx, &users, query, userID); err != nil {
		return nil, fmt.Errorf("failed to get following: %w", err)
	}
	return users, nil
}

// CheckFollows reports which of followeeIDs the follower follows.
func (r *followRepository) CheckFollows(ctx context.Context, followerID int64, followeeIDs []int64) (map[int64]bool, error) {
	result := make(map[int64]bool, len(followeeIDs))
	if len(followeeIDs) == 0 {
		return result, nil
	}

	query := `
		SELECT user_being_followed_id
		FROM follows
		WHERE user_following_id = $1 AND user_being_followed_id = ANY($2)
	`

	var ids []int64
	if err := r.db.SelectContext(ctx, &ids, query, followerID, pq.Array(followeeIDs)); err != nil {
		return nil, fmt.Errorf("failed to check follows: %w", err)
	}

	for _, id := range ids {
		result[id] = true
	}
	return result, nil
}

func (r *followRepository) GetFollowerIDs(ctx context.Context, userID int64) ([]int64, error) {
	query := `SELECT user_following_id FROM follows WHERE user_being_followed_id = $1`

	var ids []int64
	if err := r.db.SelectContext(ctx, &ids, query, userID); err != nil {
		return nil, fmt.Errorf("failed to get follower ids: %w", err)
	}
	return ids, nil
}
