// Package memory is an in-process implementation of the repository
// interfaces. It backs STORAGE=memory and the HTTP tests.
package memory

import (
	"sort"
	"sync"
	"time"

	"warbler/internal/model"
	"warbler/internal/repository"
)

type followKey struct {
	followerID int64
	followeeID int64
}

type likeKey struct {
	userID    int64
	messageID int64
}

// Store holds every table in maps guarded by one mutex.
type Store struct {
	mu sync.RWMutex

	nextUserID    int64
	nextMessageID int64

	users    map[int64]model.User
	messages map[int64]model.Message
	follows  map[followKey]time.Time
	likes    map[likeKey]time.Time

	now func() time.Time
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		users:    make(map[int64]model.User),
		messages: make(map[int64]model.Message),
		follows:  make(map[followKey]time.Time),
		likes:    make(map[likeKey]time.Time),
		now:      time.Now,
	}
}

// NewRepositories returns repositories sharing a fresh store.
func NewRepositories() repository.Repositories {
	return NewStore().Repositories()
}

// Repositories exposes the store through the repository interfaces.
func (s *Store) Repositories() repository.Repositories {
	return repository.Repositories{
		Users:    &userRepository{s: s},
		Follows:  &followRepository{s: s},
		Messages: &messageRepository{s: s},
		Likes:    &likeRepository{s: s},
	}
}

// MessageCount returns the number of stored messages.
func (s *Store) MessageCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.messages)
}

// UserCount returns the number of stored users.
func (s *Store) UserCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users)
}

// withAuthor fills the author summary. Callers hold the lock.
func (s *Store) withAuthor(m model.Message) model.Message {
	if u, ok := s.users[m.UserID]; ok {
		m.Author = u.Summary()
	}
	return m
}

// newestFirst orders by timestamp then id, both descending.
func newestFirst(messages []model.Message) {
	sort.Slice(messages, func(i, j int) bool {
		if !messages[i].Timestamp.Equal(messages[j].Timestamp) {
			return messages[i].Timestamp.After(messages[j].Timestamp)
		}
		return messages[i].ID > messages[j].ID
	})
}

func limitMessages(messages []model.Message, limit int) []model.Message {
	if limit > 0 && len(messages) > limit {
		return messages[:limit]
	}
	return messages
}

func (s *Store) usernameTaken(username string, exceptID int64) bool {
	for id, u := range s.users {
		if id != exceptID && u.Username == username {
			return true
		}
	}
	return false
}

func (s *Store) emailTaken(email string, exceptID int64) bool {
	for id, u := range s.users {
		if id != exceptID && u.Email == email {
			return true
		}
	}
	return false
}
