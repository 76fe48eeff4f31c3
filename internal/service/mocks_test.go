package service

import (
	"context"
	"sync"

	"warbler/internal/cache"
	"warbler/internal/model"
	"warbler/internal/queue"
	"warbler/internal/repository"
)

// =============================================================================
// MOCK REPOSITORIES
// =============================================================================
//
// Each mock exposes one function field per method. Tests set only the fields
// they care about; unset fields fall back to a neutral answer.

type mockUserRepository struct {
	createFn        func(ctx context.Context, user *model.User) error
	getByIDFn       func(ctx context.Context, id int64) (*model.User, error)
	getByUsernameFn func(ctx context.Context, username string) (*model.User, error)
	searchFn        func(ctx context.Context, query string, limit int) ([]model.UserSummary, error)
	updateFn        func(ctx context.Context, user *model.User) error
	deleteFn        func(ctx context.Context, id int64) error
	getStatsFn      func(ctx context.Context, id int64) (model.UserStats, error)

	createCalls []*model.User
	updateCalls []*model.User
}

func (m *mockUserRepository) Create(ctx context.Context, user *model.User) error {
	m.createCalls = append(m.createCalls, user)
	if m.createFn != nil {
		return m.createFn(ctx, user)
	}
	return nil
}

func (m *mockUserRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, model.ErrUserNotFound
}

func (m *mockUserRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	if m.getByUsernameFn != nil {
		return m.getByUsernameFn(ctx, username)
	}
	return nil, model.ErrUserNotFound
}

func (m *mockUserRepository) Search(ctx context.Context, query string, limit int) ([]model.UserSummary, error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, query, limit)
	}
	return nil, nil
}

func (m *mockUserRepository) Update(ctx context.Context, user *model.User) error {
	m.updateCalls = append(m.updateCalls, user)
	if m.updateFn != nil {
		return m.updateFn(ctx, user)
	}
	return nil
}

func (m *mockUserRepository) Delete(ctx context.Context, id int64) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

func (m *mockUserRepository) GetStats(ctx context.Context, id int64) (model.UserStats, error) {
	if m.getStatsFn != nil {
		return m.getStatsFn(ctx, id)
	}
	return model.UserStats{}, nil
}

type mockFollowRepository struct {
	createFn       func(ctx context.Context, followerID, followeeID int64) (bool, error)
	deleteFn       func(ctx context.Context, followerID, followeeID int64) (bool, error)
	existsFn       func(ctx context.Context, followerID, followeeID int64) (bool, error)
	getFollowersFn func(ctx context.Context, userID int64) ([]model.UserSummary, error)
	getFollowingFn func(ctx context.Context, userID int64) ([]model.UserSummary, error)
	checkFollowsFn func(ctx context.Context, followerID int64, followeeIDs []int64) (map[int64]bool, error)
}

func (m *mockFollowRepository) Create(ctx context.Context, followerID, followeeID int64) (bool, error) {
	if m.createFn != nil {
		return m.createFn(ctx, followerID, followeeID)
	}
	return true, nil
}

func (m *mockFollowRepository) Delete(ctx context.Context, followerID, followeeID int64) (bool, error) {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, followerID, followeeID)
	}
	return true, nil
}

func (m *mockFollowRepository) Exists(ctx context.Context, followerID, followeeID int64) (bool, error) {
	if m.existsFn != nil {
		return m.existsFn(ctx, followerID, followeeID)
	}
	return false, nil
}

func (m *mockFollowRepository) GetFollowers(ctx context.Context, userID int64) ([]model.UserSummary, error) {
	if m.getFollowersFn != nil {
		return m.getFollowersFn(ctx, userID)
	}
	return nil, nil
}

func (m *mockFollowRepository) GetFollowing(ctx context.Context, userID int64) ([]model.UserSummary, error) {
	if m.getFollowingFn != nil {
		return m.getFollowingFn(ctx, userID)
	}
	return nil, nil
}

func (m *mockFollowRepository) CheckFollows(ctx context.Context, followerID int64, followeeIDs []int64) (map[int64]bool, error) {
	if m.checkFollowsFn != nil {
		return m.checkFollowsFn(ctx, followerID, followeeIDs)
	}
	return map[int64]bool{}, nil
}

func (m *mockFollowRepository) GetFollowerIDs(context.Context, int64) ([]int64, error) {
	return nil, nil
}

type mockMessageRepository struct {
	createFn        func(ctx context.Context, userID int64, text string) (*model.Message, error)
	getByIDFn       func(ctx context.Context, id int64) (*model.Message, error)
	getByIDsFn      func(ctx context.Context, ids []int64) ([]model.Message, error)
	deleteFn        func(ctx context.Context, id int64) error
	listByUserFn    func(ctx context.Context, userID int64, limit int) ([]model.Message, error)
	getFeedFn       func(ctx context.Context, userID int64, limit int) ([]model.Message, error)
	getFeedScoresFn func(ctx context.Context, userID int64, limit int) ([]cache.MessageScore, error)

	deleteCalls []int64
}

func (m *mockMessageRepository) Create(ctx context.Context, userID int64, text string) (*model.Message, error) {
	if m.createFn != nil {
		return m.createFn(ctx, userID, text)
	}
	return &model.Message{ID: 1, UserID: userID, Text: text}, nil
}

func (m *mockMessageRepository) GetByID(ctx context.Context, id int64) (*model.Message, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, model.ErrMessageNotFound
}

func (m *mockMessageRepository) GetByIDs(ctx context.Context, ids []int64) ([]model.Message, error) {
	if m.getByIDsFn != nil {
		return m.getByIDsFn(ctx, ids)
	}
	return nil, nil
}

func (m *mockMessageRepository) Delete(ctx context.Context, id int64) error {
	m.deleteCalls = append(m.deleteCalls, id)
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

func (m *mockMessageRepository) ListByUser(ctx context.Context, userID int64, limit int) ([]model.Message, error) {
	if m.listByUserFn != nil {
		return m.listByUserFn(ctx, userID, limit)
	}
	return nil, nil
}

func (m *mockMessageRepository) GetFeed(ctx context.Context, userID int64, limit int) ([]model.Message, error) {
	if m.getFeedFn != nil {
		return m.getFeedFn(ctx, userID, limit)
	}
	return nil, nil
}

func (m *mockMessageRepository) GetFeedScores(ctx context.Context, userID int64, limit int) ([]cache.MessageScore, error) {
	if m.getFeedScoresFn != nil {
		return m.getFeedScoresFn(ctx, userID, limit)
	}
	return nil, nil
}

type mockLikeRepository struct {
	toggleFn     func(ctx context.Context, userID, messageID int64) (bool, error)
	checkLikesFn func(ctx context.Context, userID int64, messageIDs []int64) (map[int64]bool, error)
	likedFn      func(ctx context.Context, userID int64) ([]model.Message, error)
}

func (m *mockLikeRepository) Toggle(ctx context.Context, userID, messageID int64) (bool, error) {
	if m.toggleFn != nil {
		return m.toggleFn(ctx, userID, messageID)
	}
	return true, nil
}

func (m *mockLikeRepository) CheckLikes(ctx context.Context, userID int64, messageIDs []int64) (map[int64]bool, error) {
	if m.checkLikesFn != nil {
		return m.checkLikesFn(ctx, userID, messageIDs)
	}
	return map[int64]bool{}, nil
}

func (m *mockLikeRepository) GetLikedMessages(ctx context.Context, userID int64) ([]model.Message, error) {
	if m.likedFn != nil {
		return m.likedFn(ctx, userID)
	}
	return nil, nil
}

func repos(users *mockUserRepository, follows *mockFollowRepository, messages *mockMessageRepository, likes *mockLikeRepository) repository.Repositories {
	if users == nil {
		users = &mockUserRepository{}
	}
	if follows == nil {
		follows = &mockFollowRepository{}
	}
	if messages == nil {
		messages = &mockMessageRepository{}
	}
	if likes == nil {
		likes = &mockLikeRepository{}
	}
	return repository.Repositories{Users: users, Follows: follows, Messages: messages, Likes: likes}
}

// =============================================================================
// MOCK INFRASTRUCTURE
// =============================================================================

type recordingPublisher struct {
	mu     sync.Mutex
	events []queue.FeedEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, _ string, event queue.FeedEvent) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return "", p.err
	}
	p.events = append(p.events, event)
	return "1-0", nil
}

type mockFeedCache struct {
	existsFn func(ctx context.Context, userID int64) (bool, error)
	getFeed  []int64

	warmed      map[int64][]cache.MessageScore
	invalidated []int64
}

func (c *mockFeedCache) AddMessage(context.Context, int64, int64, int64) (bool, error) {
	return true, nil
}

func (c *mockFeedCache) GetFeed(context.Context, int64, int) ([]int64, error) {
	return c.getFeed, nil
}

func (c *mockFeedCache) WarmCache(_ context.Context, userID int64, messages []cache.MessageScore) error {
	if c.warmed == nil {
		c.warmed = make(map[int64][]cache.MessageScore)
	}
	c.warmed[userID] = messages
	ids := make([]int64, len(messages))
	for i, m := range messages {
		ids[i] = m.MessageID
	}
	c.getFeed = ids
	return nil
}

func (c *mockFeedCache) Invalidate(_ context.Context, userID int64) error {
	c.invalidated = append(c.invalidated, userID)
	return nil
}

func (c *mockFeedCache) Exists(ctx context.Context, userID int64) (bool, error) {
	if c.existsFn != nil {
		return c.existsFn(ctx, userID)
	}
	return false, nil
}

type recordingDeleter struct {
	keys []string
}

func (d *recordingDeleter) DeleteObject(_ context.Context, key string) error {
	d.keys = append(d.keys, key)
	return nil
}
