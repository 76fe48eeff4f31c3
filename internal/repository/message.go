package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"warbler/internal/cache"
	"warbler/internal/model"
)

// messageSelect joins the author so every read model carries its summary.
const messageSelect = `
	SELECT m.id, m.text, m."timestamp", m.user_id,
	       u.id AS "author.id", u.username AS "author.username", u.image_url AS "author.image_url"
	FROM messages m
	JOIN users u ON u.id = m.user_id
`

type messageRepository struct {
	db *sqlx.DB
}

func NewMessageRepository(db *sqlx.DB) MessageRepository {
	return &messageRepository{db: db}
}

func (r *messageRepository) Create(ctx context.Context, userID int64, text string) (*model.Message, error) {
	query := `
		WITH inserted AS (
			INSERT INTO messages (text, user_id)
			VALUES ($1, $2)
			RETURNING id, text, "timestamp", user_id
		)
		SELECT m.id, m.text, m."timestamp", m.user_id,
		       u.id AS "author.id", u.username AS "author.username", u.image_url AS "author.image_url"
		FROM inserted m
		JOIN users u ON u.id = m.user_id
	`

	var msg model.Message
	if err := r.db.GetContext(ctx, &msg, query, text, userID); err != nil {
		if pqErr, ok := pqCode(err); ok && string(pqErr.Code) == pqForeignKeyViolation {
			return nil, model.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to insert message: %w", err)
	}

	return &msg, nil
}

func (r *messageRepository) GetByID(ctx context.Context, id int64) (*model.Message, error) {
	query := messageSelect + `WHERE m.id = $1`

	var msg model.Message
	if err := r.db.GetContext(ctx, &msg, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrMessageNotFound
		}
		return nil, fmt.Errorf("failed to get message: %w", err)
	}

	return &msg, nil
}

// GetByIDs hydrates messages for cached feed ids, preserving input order.
func (r *messageRepository) GetByIDs(ctx context.Context, ids []int64) ([]model.Message, error) {
	if len(ids) == 0 {
		return []model.Message{}, nil
	}

	query := messageSelect + `WHERE m.id = ANY($1)`

	var rows []model.Message
	if err := r.db.SelectContext(ctx, &rows, query, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("failed to get messages by ids: %w", err)
	}

	byID := make(map[int64]model.Message, len(rows))
	for _, m := range rows {
		byID[m.ID] = m
	}

	messages := make([]model.Message, 0, len(ids))
	for _, id := range ids {
		if m, ok := byID[id]; ok {
			messages = append(messages, m)
		}
	}
	return messages, nil
}

func (r *messageRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM messages WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete message: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return model.ErrMessageNotFound
	}

	return nil
}

func (r *messageRepository) ListByUser(ctx context.Context, userID int64, limit int) ([]model.Message, error) {
	query := messageSelect + `
		WHERE m.user_id = $1
		ORDER BY m."timestamp" DESC, m.id DESC
		LIMIT $2
	`

	messages := make([]model.Message, 0)
	if err := r.db.SelectContext(ctx, &messages, query, userID, limit); err != nil {
		return nil, fmt.Errorf("failed to list user messages: %w", err)
	}
	return messages, nil
}

// GetFeed is the home timeline: one ordered query over the follow edges.
func (r *messageRepository) GetFeed(ctx context.Context, userID int64, limit int) ([]model.Message, error) {
	query := messageSelect + `
		JOIN follows f ON f.user_being_followed_id = m.user_id
		WHERE f.user_following_id = $1
		ORDER BY m."timestamp" DESC, m.id DESC
		LIMIT $2
	`

	messages := make([]model.Message, 0)
	if err := r.db.SelectContext(ctx, &messages, query, userID, limit); err != nil {
		return nil, fmt.Errorf("failed to get feed: %w", err)
	}
	return messages, nil
}

// GetFeedScores returns the same rows as GetFeed as (id, timestamp) pairs for cache warming.
func (r *messageRepository) GetFeedScores(ctx context.Context, userID int64, limit int) ([]cache.MessageScore, error) {
	query := `
		SELECT m.id, m."timestamp"
		FROM messages m
		JOIN follows f ON f.user_being_followed_id = m.user_id
		WHERE f.user_following_id = $1
		ORDER BY m."timestamp" DESC, m.id DESC
		LIMIT $2
	`

	type row struct {
		ID        int64     `db:"id"`
		Timestamp time.Time `db:"timestamp"`
	}

	var rows []row
	if err := r.db.SelectContext(ctx, &rows, query, userID, limit); err != nil {
		return nil, fmt.Errorf("failed to get feed scores: %w", err)
	}

	scores := make([]cache.MessageScore, len(rows))
	for i, rw := range rows {
		scores[i] = cache.MessageScore{
			MessageID: rw.ID,
			Timestamp: cache.ScoreFor(rw.Timestamp),
		}
	}
	return scores, nil
}
