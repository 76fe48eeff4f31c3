package memory

import (
	"context"

	"warbler/internal/cache"
	"warbler/internal/model"
)

type messageRepository struct {
	s *Store
}

func (r *messageRepository) Create(_ context.Context, userID int64, text string) (*model.Message, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[userID]; !ok {
		return nil, model.ErrUserNotFound
	}

	r.s.nextMessageID++
	m := model.Message{
		ID:        r.s.nextMessageID,
		Text:      text,
		Timestamp: r.s.now(),
		UserID:    userID,
	}
	r.s.messages[m.ID] = m

	m = r.s.withAuthor(m)
	return &m, nil
}

func (r *messageRepository) GetByID(_ context.Context, id int64) (*model.Message, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	m, ok := r.s.messages[id]
	if !ok {
		return nil, model.ErrMessageNotFound
	}
	m = r.s.withAuthor(m)
	return &m, nil
}

func (r *messageRepository) GetByIDs(_ context.Context, ids []int64) ([]model.Message, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	messages := make([]model.Message, 0, len(ids))
	for _, id := range ids {
		if m, ok := r.s.messages[id]; ok {
			messages = append(messages, r.s.withAuthor(m))
		}
	}
	return messages, nil
}

func (r *messageRepository) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.messages[id]; !ok {
		return model.ErrMessageNotFound
	}
	r.s.deleteMessageLocked(id)
	return nil
}

// deleteMessageLocked removes a message and its likes. Callers hold the write lock.
func (s *Store) deleteMessageLocked(id int64) {
	delete(s.messages, id)
	for k := range s.likes {
		if k.messageID == id {
			delete(s.likes, k)
		}
	}
}

func (r *messageRepository) ListByUser(_ context.Context, userID int64, limit int) ([]model.Message, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	messages := make([]model.Message, 0)
	for _, m := range r.s.messages {
		if m.UserID == userID {
			messages = append(messages, r.s.withAuthor(m))
		}
	}
	newestFirst(messages)
	return limitMessages(messages, limit), nil
}

func (r *messageRepository) GetFeed(_ context.Context, userID int64, limit int) ([]model.Message, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	return r.feedLocked(userID, limit), nil
}

func (r *messageRepository) GetFeedScores(_ context.Context, userID int64, limit int) ([]cache.MessageScore, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	feed := r.feedLocked(userID, limit)
	scores := make([]cache.MessageScore, len(feed))
	for i, m := range feed {
		scores[i] = cache.MessageScore{MessageID: m.ID, Timestamp: cache.ScoreFor(m.Timestamp)}
	}
	return scores, nil
}

func (r *messageRepository) feedLocked(userID int64, limit int) []model.Message {
	messages := make([]model.Message, 0)
	for _, m := range r.s.messages {
		if _, ok := r.s.follows[followKey{followerID: userID, followeeID: m.UserID}]; ok {
			messages = append(messages, r.s.withAuthor(m))
		}
	}
	newestFirst(messages)
	return limitMessages(messages, limit)
}
