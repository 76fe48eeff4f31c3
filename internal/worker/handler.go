package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"warbler/internal/cache"
	"warbler/internal/queue"
)

var logger = logrus.WithField("component", "Worker")

// FollowerProvider returns the ids of users following userID.
type FollowerProvider interface {
	GetFollowerIDs(ctx context.Context, userID int64) ([]int64, error)
}

// Handler applies feed events to followers' cached timelines.
type Handler struct {
	feedCache        cache.FeedCache
	followerProvider FollowerProvider
}

// NewHandler creates a new event handler.
func NewHandler(feedCache cache.FeedCache, followerProvider FollowerProvider) *Handler {
	return &Handler{
		feedCache:        feedCache,
		followerProvider: followerProvider,
	}
}

// HandleEvent routes an event to the appropriate handler based on type.
func (h *Handler) HandleEvent(ctx context.Context, event queue.FeedEvent) error {
	startTime := time.Now()
	var err error

	switch event.Type {
	case queue.EventMessageCreated:
		err = h.handleMessageCreated(ctx, event)
	case queue.EventMessageDeleted:
		err = h.handleMessageDeleted(ctx, event)
	default:
		return fmt.Errorf("unknown event type: %s", event.Type)
	}

	entry := logger.WithFields(logrus.Fields{
		"type":     event.Type,
		"message":  event.MessageID,
		"duration": time.Since(startTime).String(),
	})
	if err != nil {
		entry.WithError(err).Warn("HandleEvent failed")
		return err
	}
	entry.Debug("HandleEvent OK")
	return nil
}

// handleMessageCreated adds the message to every follower feed that is currently cached.
// The author's own feed is untouched: the home timeline only shows followed users.
func (h *Handler) handleMessageCreated(ctx context.Context, event queue.FeedEvent) error {
	followers, err := h.followerProvider.GetFollowerIDs(ctx, event.AuthorID)
	if err != nil {
		return fmt.Errorf("get followers: %w", err)
	}

	var added, failed int
	for _, followerID := range followers {
		ok, err := h.feedCache.AddMessage(ctx, followerID, event.MessageID, event.Timestamp)
		if err != nil {
			failed++
			continue
		}
		if ok {
			added++
		}
	}

	logger.WithFields(logrus.Fields{
		"message":   event.MessageID,
		"followers": len(followers),
		"added":     added,
		"failed":    failed,
	}).Info("Fan-out done")

	if failed > 0 {
		return fmt.Errorf("fan-out failed for %d of %d followers", failed, len(followers))
	}
	return nil
}

// handleMessageDeleted drops the cached feed of every follower. Removing the one
// member would leave a capped feed short by one, since the next older message
// was trimmed away; the next read rebuilds the feed from the database instead.
func (h *Handler) handleMessageDeleted(ctx context.Context, event queue.FeedEvent) error {
	followers, err := h.followerProvider.GetFollowerIDs(ctx, event.AuthorID)
	if err != nil {
		return fmt.Errorf("get followers: %w", err)
	}

	var failed int
	for _, followerID := range followers {
		if err := h.feedCache.Invalidate(ctx, followerID); err != nil {
			failed++
		}
	}

	logger.WithFields(logrus.Fields{
		"message":   event.MessageID,
		"followers": len(followers),
		"failed":    failed,
	}).Info("Feeds invalidated")

	if failed > 0 {
		return fmt.Errorf("invalidation failed for %d of %d followers", failed, len(followers))
	}
	return nil
}
