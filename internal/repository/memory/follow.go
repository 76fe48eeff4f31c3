package memory

import (
	"context"
	"sort"
	"time"

	"warbler/internal/model"
)

type followRepository struct {
	s *Store
}

func (r *followRepository) Create(_ context.Context, followerID, followeeID int64) (bool, error) {
	if followerID == followeeID {
		return false, model.ErrCannotFollowSelf
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[followerID]; !ok {
		return false, model.ErrUserNotFound
	}
	if _, ok := r.s.users[followeeID]; !ok {
		return false, model.ErrUserNotFound
	}

	key := followKey{followerID: followerID, followeeID: followeeID}
	if _, ok := r.s.follows[key]; ok {
		return false, nil
	}
	r.s.follows[key] = r.s.now()
	return true, nil
}

func (r *followRepository) Delete(_ context.Context, followerID, followeeID int64) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	key := followKey{followerID: followerID, followeeID: followeeID}
	if _, ok := r.s.follows[key]; !ok {
		return false, nil
	}
	delete(r.s.follows, key)
	return true, nil
}

func (r *followRepository) Exists(_ context.Context, followerID, followeeID int64) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	_, ok := r.s.follows[followKey{followerID: followerID, followeeID: followeeID}]
	return ok, nil
}

func (r *followRepository) GetFollowers(_ context.Context, userID int64) ([]model.UserSummary, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	return r.collect(func(k followKey) (int64, bool) {
		return k.followerID, k.followeeID == userID
	}), nil
}

func (r *followRepository) GetFollowing(_ context.Context, userID int64) ([]model.UserSummary, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	return r.collect(func(k followKey) (int64, bool) {
		return k.followeeID, k.followerID == userID
	}), nil
}

// collect returns the matching users, most recent follow first. Callers hold the lock.
func (r *followRepository) collect(match func(followKey) (int64, bool)) []model.UserSummary {
	type entry struct {
		user model.UserSummary
		at   time.Time
	}

	var entries []entry
	for k, at := range r.s.follows {
		id, ok := match(k)
		if !ok {
			continue
		}
		if u, found := r.s.users[id]; found {
			entries = append(entries, entry{user: u.Summary(), at: at})
		}
	}

	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].at.Equal(entries[j].at) {
			return entries[i].at.After(entries[j].at)
		}
		return entries[i].user.ID < entries[j].user.ID
	})

	users := make([]model.UserSummary, 0, len(entries))
	for _, e := range entries {
		users = append(users, e.user)
	}
	return users
}

func (r *followRepository) CheckFollows(_ context.Context, followerID int64, followeeIDs []int64) (map[int64]bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	result := make(map[int64]bool, len(followeeIDs))
	for _, id := range followeeIDs {
		if _, ok := r.s.follows[followKey{followerID: followerID, followeeID: id}]; ok {
			result[id] = true
		}
	}
	return result, nil
}

func (r *followRepository) GetFollowerIDs(_ context.Context, userID int64) ([]int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var ids []int64
	for k := range r.s.follows {
		if k.followeeID == userID {
			ids = append(ids, k.followerID)
		}
	}
	return ids, nil
}
