package memory

import (
	"context"
	"sort"
	"strings"

	"warbler/internal/model"
)

type userRepository struct {
	s *Store
}

func (r *userRepository) Create(_ context.Context, u *model.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if r.s.usernameTaken(u.Username, 0) {
		return model.ErrUsernameExists
	}
	if r.s.emailTaken(u.Email, 0) {
		return model.ErrEmailExists
	}

	r.s.nextUserID++
	u.ID = r.s.nextUserID
	r.s.users[u.ID] = *u
	return nil
}

func (r *userRepository) GetByID(_ context.Context, id int64) (*model.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, model.ErrUserNotFound
	}
	return &u, nil
}

func (r *userRepository) GetByUsername(_ context.Context, username string) (*model.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, u := range r.s.users {
		if u.Username == username {
			u := u
			return &u, nil
		}
	}
	return nil, model.ErrUserNotFound
}

func (r *userRepository) Search(_ context.Context, query string, limit int) ([]model.UserSummary, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	users := make([]model.UserSummary, 0)
	for _, u := range r.s.users {
		if strings.Contains(u.Username, query) {
			users = append(users, u.Summary())
		}
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })

	if limit > 0 && len(users) > limit {
		users = users[:limit]
	}
	return users, nil
}

func (r *userRepository) Update(_ context.Context, u *model.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	existing, ok := r.s.users[u.ID]
	if !ok {
		return model.ErrUserNotFound
	}
	if r.s.usernameTaken(u.Username, u.ID) {
		return model.ErrUsernameExists
	}
	if r.s.emailTaken(u.Email, u.ID) {
		return model.ErrEmailExists
	}

	updated := *u
	updated.Password = existing.Password
	r.s.users[u.ID] = updated
	return nil
}

// Delete removes the user and cascades to messages, follows and likes.
func (r *userRepository) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[id]; !ok {
		return model.ErrUserNotFound
	}
	delete(r.s.users, id)

	for msgID, m := range r.s.messages {
		if m.UserID == id {
			r.s.deleteMessageLocked(msgID)
		}
	}
	for k := range r.s.follows {
		if k.followerID == id || k.followeeID == id {
			delete(r.s.follows, k)
		}
	}
	for k := range r.s.likes {
		if k.userID == id {
			delete(r.s.likes, k)
		}
	}
	return nil
}

func (r *userRepository) GetStats(_ context.Context, id int64) (model.UserStats, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var stats model.UserStats
	for _, m := range r.s.messages {
		if m.UserID == id {
			stats.Messages++
		}
	}
	for k := range r.s.follows {
		if k.followeeID == id {
			stats.Followers++
		}
		if k.followerID == id {
			stats.Following++
		}
	}
	for k := range r.s.likes {
		if k.userID == id {
			stats.Likes++
		}
	}
	return stats, nil
}
