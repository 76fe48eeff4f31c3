package repository

import "github.com/jmoiron/sqlx"

// Repositories bundles one implementation of every repository.
type Repositories struct {
	Users    UserRepository
	Follows  FollowRepository
	Messages MessageRepository
	Likes    LikeRepository
}

// NewPostgresRepositories wires the sqlx-backed repositories to db.
func NewPostgresRepositories(db *sqlx.DB) Repositories {
	return Repositories{
		Users:    NewUserRepository(db),
		Follows:  NewFollowRepository(db),
		Messages: NewMessageRepository(db),
		Likes:    NewLikeRepository(db),
	}
}
