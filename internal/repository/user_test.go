package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"warbler/internal/model"
)

func TestUserRepository_Create(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	u := &model.User{
		Username:       "alice",
		Email:          "alice@example.com",
		Password:       "$2a$hash",
		ImageURL:       model.DefaultImageURL,
		HeaderImageURL: model.DefaultHeaderImageURL,
	}

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO users")).
		WithArgs("alice", "alice@example.com", "$2a$hash", model.DefaultImageURL, nil, model.DefaultHeaderImageURL, nil, nil).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))

	require.NoError(t, repo.Create(context.Background(), u))
	assert.Equal(t, int64(7), u.ID)
}

func TestUserRepository_Create_UniqueViolation(t *testing.T) {
	tests := []struct {
		name       string
		constraint string
		want       error
	}{
		{"duplicate username", "users_username_key", model.ErrUsernameExists},
		{"duplicate email", "users_email_key", model.ErrEmailExists},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMockDB(t)
			repo := NewUserRepository(db)

			mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO users")).
				WillReturnError(&pq.Error{Code: pqUniqueViolation, Constraint: tt.constraint})

			err := repo.Create(context.Background(), &model.User{Username: "alice", Email: "a@example.com"})
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestUserRepository_GetByID_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE id = $1")).
		WithArgs(int64(42)).
		WillReturnError(sql.ErrNoRows)

	u, err := repo.GetByID(context.Background(), 42)
	assert.Nil(t, u)
	assert.ErrorIs(t, err, model.ErrUserNotFound)
}

func TestUserRepository_GetByUsername(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	rows := sqlmock.NewRows([]string{"id", "username", "email", "password", "image_url", "image_key",
		"header_image_url", "header_image_key", "bio", "location"}).
		AddRow(3, "bob", "bob@example.com", "hash", "/img.png", nil, "/hdr.jpg", nil, "hi", nil)

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE username = $1")).
		WithArgs("bob").
		WillReturnRows(rows)

	u, err := repo.GetByUsername(context.Background(), "bob")
	require.NoError(t, err)
	assert.Equal(t, int64(3), u.ID)
	assert.Equal(t, "hash", u.Password)
	require.NotNil(t, u.Bio)
	assert.Equal(t, "hi", *u.Bio)
	assert.Nil(t, u.Location)
}

func TestUserRepository_Search_EscapesWildcards(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE username LIKE $1")).
		WithArgs(`%a\_b\%%`, 100).
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "image_url"}))

	users, err := repo.Search(context.Background(), "a_b%", 100)
	require.NoError(t, err)
	assert.NotNil(t, users)
	assert.Empty(t, users)
}

func TestUserRepository_Update_Conflict(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE users")).
		WillReturnError(&pq.Error{Code: pqUniqueViolation, Constraint: "users_email_key"})

	err := repo.Update(context.Background(), &model.User{ID: 1, Username: "a", Email: "taken@example.com"})
	assert.ErrorIs(t, err, model.ErrEmailExists)
}

func TestUserRepository_Delete_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM users WHERE id = $1")).
		WithArgs(int64(9)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, repo.Delete(context.Background(), 9), model.ErrUserNotFound)
}

func TestUserRepository_GetStats(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("AS messages")).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"messages", "followers", "following", "likes"}).AddRow(4, 2, 3, 1))

	stats, err := repo.GetStats(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, model.UserStats{Messages: 4, Followers: 2, Following: 3, Likes: 1}, stats)
}
