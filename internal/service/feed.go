package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"warbler/internal/cache"
	"warbler/internal/logging"
	"warbler/internal/metrics"
	"warbler/internal/model"
	"warbler/internal/repository"
)

var feedLog = logging.Component("FeedService")

type FeedService struct {
	feedCache   cache.FeedCache
	messageRepo repository.MessageRepository
	likeRepo    repository.LikeRepository
}

// NewFeedService wires the service. With a nil feedCache every read goes to the database.
func NewFeedService(
	feedCache cache.FeedCache,
	messageRepo repository.MessageRepository,
	likeRepo repository.LikeRepository,
) *FeedService {
	return &FeedService{
		feedCache:   feedCache,
		messageRepo: messageRepo,
		likeRepo:    likeRepo,
	}
}

// Home returns the newest messages by users that userID follows, with userID's likes.
//
// Flow with a cache:
// 1. Check if the user's feed is cached
// 2. On a miss, load (id, timestamp) pairs from the DB and warm the cache
// 3. Read ids from the cache
// 4. Hydrate by id; if some ids are gone, drop the cache and use the query
//
// Any cache failure falls back to the single feed query.
func (s *FeedService) Home(ctx context.Context, userID int64) (*model.FeedResponse, error) {
	startTime := time.Now()

	messages, err := s.cachedFeed(ctx, userID)
	if err != nil {
		feedLog.WithError(err).WithField("user", userID).Warn("Feed cache unavailable, reading from database")
		metrics.FeedCacheLookups.WithLabelValues("error").Inc()
		messages = nil
	}

	if messages == nil {
		messages, err = s.messageRepo.GetFeed(ctx, userID, model.TimelineLimit)
		if err != nil {
			return nil, fmt.Errorf("get feed: %w", err)
		}
		if messages == nil {
			messages = []model.Message{}
		}
	}

	ids := make([]int64, len(messages))
	for i, m := range messages {
		ids[i] = m.ID
	}

	liked := []int64{}
	if len(ids) > 0 {
		likes, err := s.likeRepo.CheckLikes(ctx, userID, ids)
		if err != nil {
			feedLog.WithError(err).Warn("Failed to check likes")
		} else {
			liked = likedIDs(ids, likes)
		}
	}

	feedLog.WithFields(logrus.Fields{
		"user":     userID,
		"messages": len(messages),
		"duration": time.Since(startTime).String(),
	}).Debug("Home feed")

	return &model.FeedResponse{Messages: messages, LikedIDs: liked}, nil
}

// cachedFeed returns nil, nil when there is no cache configured or the cached
// ids no longer match the database; the caller then reads the feed query.
func (s *FeedService) cachedFeed(ctx context.Context, userID int64) ([]model.Message, error) {
	if s.feedCache == nil {
		return nil, nil
	}

	exists, err := s.feedCache.Exists(ctx, userID)
	if err != nil {
		return nil, err
	}

	if exists {
		metrics.FeedCacheLookups.WithLabelValues("hit").Inc()
	} else {
		metrics.FeedCacheLookups.WithLabelValues("miss").Inc()
		warmed, err := s.warm(ctx, userID)
		if err != nil {
			return nil, err
		}
		if !warmed {
			return []model.Message{}, nil
		}
	}

	ids, err := s.feedCache.GetFeed(ctx, userID, model.TimelineLimit)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []model.Message{}, nil
	}

	messages, err := s.messageRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("hydrate messages: %w", err)
	}

	// Messages removed without an event (an author's account deletion) leave
	// holes that older messages should fill.
	if len(messages) < len(ids) {
		metrics.FeedCacheLookups.WithLabelValues("stale").Inc()
		feedLog.WithFields(logrus.Fields{"user": userID, "cached": len(ids), "found": len(messages)}).Info("Stale feed cache, rebuilding")
		if err := s.feedCache.Invalidate(ctx, userID); err != nil {
			return nil, err
		}
		return nil, nil
	}
	return messages, nil
}

// warm loads the feed from the database into the cache. Fan-out skips feeds
// that are not cached yet, so messages committed between the first read and
// the warm are picked up by reading again once the key exists.
func (s *FeedService) warm(ctx context.Context, userID int64) (bool, error) {
	scores, err := s.messageRepo.GetFeedScores(ctx, userID, cache.FeedCacheCap)
	if err != nil {
		return false, fmt.Errorf("get feed scores: %w", err)
	}
	if len(scores) == 0 {
		return false, nil
	}
	if err := s.feedCache.WarmCache(ctx, userID, scores); err != nil {
		return false, err
	}

	latest, err := s.messageRepo.GetFeedScores(ctx, userID, cache.FeedCacheCap)
	if err != nil {
		return false, fmt.Errorf("get feed scores: %w", err)
	}
	if missed := newScores(scores, latest); len(missed) > 0 {
		if err := s.feedCache.WarmCache(ctx, userID, missed); err != nil {
			return false, err
		}
	}

	feedLog.WithField("user", userID).WithField("messages", len(scores)).Debug("Feed cache warmed")
	return true, nil
}

// newScores returns the entries of latest that are not in seen.
func newScores(seen, latest []cache.MessageScore) []cache.MessageScore {
	known := make(map[int64]struct{}, len(seen))
	for _, m := range seen {
		known[m.MessageID] = struct{}{}
	}
	var out []cache.MessageScore
	for _, m := range latest {
		if _, ok := known[m.MessageID]; !ok {
			out = append(out, m)
		}
	}
	return out
}
