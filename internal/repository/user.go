package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"warbler/internal/model"
)

const userColumns = `id, username, email, password, image_url, image_key,
		       header_image_url, header_image_key, bio, location`

// userRepository implements UserRepository using sqlx
type userRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *sqlx.DB) UserRepository {
	return &userRepository{db: db}
}

// Create inserts a new user and fills in the generated id
func (r *userRepository) Create(ctx context.Context, u *model.User) error {
	query := `
		INSERT INTO users (username, email, password, image_url, image_key, header_image_url, bio, location)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`

	err := r.db.QueryRowxContext(ctx, query,
		u.Username,
		u.Email,
		u.Password,
		u.ImageURL,
		u.ImageKey,
		u.HeaderImageURL,
		u.Bio,
		u.Location,
	).Scan(&u.ID)
	if err != nil {
		if mapped := mapUserConstraint(err); mapped != nil {
			return mapped
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}

	return nil
}

// GetByID retrieves a user by their ID
func (r *userRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	var u model.User
	err := r.db.GetContext(ctx, &u, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}

	return &u, nil
}

// GetByUsername retrieves a user by their username
func (r *userRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`

	var u model.User
	err := r.db.GetContext(ctx, &u, query, username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by username: %w", err)
	}

	return &u, nil
}

func (r *userRepository) Search(ctx context.Context, query string, limit int) ([]model.UserSummary, error) {
	searchQuery := `
		SELECT id, username, image_url
		FROM users
		WHERE username LIKE $1 ESCAPE '\'
		ORDER BY id
		LIMIT $2
	`

	users := make([]model.UserSummary, 0)
	err := r.db.SelectContext(ctx, &users, searchQuery, "%"+escapeLike(query)+"%", limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search users: %w", err)
	}

	return users, nil
}

func (r *userRepository) Update(ctx context.Context, u *model.User) error {
	query := `
		UPDATE users
		SET username = $1, email = $2, image_url = $3, image_key = $4,
		    header_image_url = $5, header_image_key = $6, bio = $7, location = $8
		WHERE id = $9
	`

	result, err := r.db.ExecContext(ctx, query,
		u.Username,
		u.Email,
		u.ImageURL,
		u.ImageKey,
		u.HeaderImageURL,
		u.HeaderImageKey,
		u.Bio,
		u.Location,
		u.ID,
	)
	if err != nil {
		if mapped := mapUserConstraint(err); mapped != nil {
			return mapped
		}
		return fmt.Errorf("failed to update user: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return model.ErrUserNotFound
	}

	return nil
}

func (r *userRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return model.ErrUserNotFound
	}

	return nil
}

func (r *userRepository) GetStats(ctx context.Context, id int64) (model.UserStats, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM messages WHERE user_id = $1)                AS messages,
			(SELECT COUNT(*) FROM follows WHERE user_being_followed_id = $1)  AS followers,
			(SELECT COUNT(*) FROM follows WHERE user_following_id = $1)       AS following,
			(SELECT COUNT(*) FROM likes WHERE user_id = $1)                   AS likes
	`

	var stats model.UserStats
	if err := r.db.GetContext(ctx, &stats, query, id); err != nil {
		return model.UserStats{}, fmt.Errorf("failed to get user stats: %w", err)
	}
	return stats, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
