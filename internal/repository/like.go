package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"warbler/internal/model"
)

type likeRepository struct {
	db *sqlx.DB
}

func NewLikeRepository(db *sqlx.DB) LikeRepository {
	return &likeRepository{db: db}
}

// Toggle runs delete-or-insert in one transaction.
func (r *likeRepository) Toggle(ctx context.Context, userID, messageID int64) (bool, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`DELETE FROM likes WHERE user_id = $1 AND message_id = $2`, userID, messageID)
	if err != nil {
		return false, fmt.Errorf("failed to delete like: %w", err)
	}

	removed, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	liked := removed == 0
	if liked {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO likes (user_id, message_id)
			VALUES ($1, $2)
			ON CONFLICT (user_id, message_id) DO NOTHING
		`, userID, messageID)
		if err != nil {
			if pqErr, ok := pqCode(err); ok && string(pqErr.Code) == pqForeignKeyViolation {
				return false, model.ErrMessageNotFound
			}
			return false, fmt.Errorf("failed to insert like: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit transaction: %w", err)
	}

	return liked, nil
}

// CheckLikes reports which of messageIDs the user has liked.
func (r *likeRepository) CheckLikes(ctx context.Context, userID int64, messageIDs []int64) (map[int64]bool, error) {
	result := make(map[int64]bool, len(messageIDs))
	if len(messageIDs) == 0 {
		return result, nil
	}

	query := `SELECT message_id FROM likes WHERE user_id = $1 AND message_id = ANY($2)`

	var ids []int64
	if err := r.db.SelectContext(ctx, &ids, query, userID, pq.Array(messageIDs)); err != nil {
		return nil, fmt.Errorf("failed to check likes: %w", err)
	}

	for _, id := range ids {
		result[id] = true
	}
	return result, nil
}

// GetLikedMessages loads every liked message with its author in a single join.
func (r *likeRepository) GetLikedMessages(ctx context.Context, userID int64) ([]model.Message, error) {
	query := messageSelect + `
		JOIN likes l ON l.message_id = m.id
		WHERE l.user_id = $1
		ORDER BY m."timestamp" DESC, m.id DESC
	`

	messages := make([]model.Message, 0)
	if err := r.db.SelectContext(ctx, &messages, query, userID); err != nil {
		return nil, fmt.Errorf("failed to get liked messages: %w", err)
	}
	return messages, nil
}
