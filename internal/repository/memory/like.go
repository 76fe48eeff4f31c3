package memory

import (
	"context"

	"warbler/internal/model"
)

type likeRepository struct {
	s *Store
}

func (r *likeRepository) Toggle(_ context.Context, userID, messageID int64) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	key := likeKey{userID: userID, messageID: messageID}
	if _, ok := r.s.likes[key]; ok {
		delete(r.s.likes, key)
		return false, nil
	}

	if _, ok := r.s.messages[messageID]; !ok {
		return false, model.ErrMessageNotFound
	}
	if _, ok := r.s.users[userID]; !ok {
		return false, model.ErrUserNotFound
	}

	r.s.likes[key] = r.s.now()
	return true, nil
}

func (r *likeRepository) CheckLikes(_ context.Context, userID int64, messageIDs []int64) (map[int64]bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	result := make(map[int64]bool, len(messageIDs))
	for _, id := range messageIDs {
		if _, ok := r.s.likes[likeKey{userID: userID, messageID: id}]; ok {
			result[id] = true
		}
	}
	return result, nil
}

func (r *likeRepository) GetLikedMessages(_ context.Context, userID int64) ([]model.Message, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	messages := make([]model.Message, 0)
	for k := range r.s.likes {
		if k.userID != userID {
			continue
		}
		if m, ok := r.s.messages[k.messageID]; ok {
			messages = append(messages, r.s.withAuthor(m))
		}
	}
	newestFirst(messages)
	return messages, nil
}
