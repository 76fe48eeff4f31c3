package service

import (
	"context"
	"fmt"

	"warbler/internal/cache"
	"warbler/internal/logging"
	"warbler/internal/model"
	"warbler/internal/repository"
)

var followLog = logging.Component("FollowService")

type FollowService struct {
	followRepo repository.FollowRepository
	userRepo   repository.UserRepository
	feedCache  cache.FeedCache
}

// NewFollowService wires the service. feedCache may be nil when Redis is off.
func NewFollowService(
	followRepo repository.FollowRepository,
	userRepo repository.UserRepository,
	feedCache cache.FeedCache,
) *FollowService {
	return &FollowService{
		followRepo: followRepo,
		userRepo:   userRepo,
		feedCache:  feedCache,
	}
}

// Follow makes followerID follow followeeID. Following twice is a no-op.
func (s *FollowService) Follow(ctx context.Context, followerID, followeeID int64) error {
	if _, err := s.userRepo.GetByID(ctx, followeeID); err != nil {
		return err
	}
	if followerID == followeeID {
		return model.ErrCannotFollowSelf
	}

	inserted, err := s.followRepo.Create(ctx, followerID, followeeID)
	if err != nil {
		return err
	}

	if inserted {
		s.invalidateFeed(ctx, followerID)
		followLog.WithField("follower", followerID).WithField("followee", followeeID).Info("Followed")
	}
	return nil
}

// Unfollow removes the edge if present. A missing edge is not an error.
func (s *FollowService) Unfollow(ctx context.Context, followerID, followeeID int64) error {
	if _, err := s.userRepo.GetByID(ctx, followeeID); err != nil {
		return err
	}

	removed, err := s.followRepo.Delete(ctx, followerID, followeeID)
	if err != nil {
		return err
	}

	if removed {
		s.invalidateFeed(ctx, followerID)
		followLog.WithField("follower", followerID).WithField("followee", followeeID).Info("Unfollowed")
	}
	return nil
}

// invalidateFeed drops the actor's cached home feed; the next read rebuilds it
// from the new set of followees.
func (s *FollowService) invalidateFeed(ctx context.Context, userID int64) {
	if s.feedCache == nil {
		return
	}
	if err := s.feedCache.Invalidate(ctx, userID); err != nil {
		followLog.WithError(err).WithField("user", userID).Warn("Failed to invalidate feed cache")
	}
}

// GetFollowers lists who follows userID, marking the ones viewerID follows.
func (s *FollowService) GetFollowers(ctx context.Context, userID, viewerID int64) (*model.FollowListResponse, error) {
	return s.list(ctx, userID, viewerID, s.followRepo.GetFollowers)
}

// GetFollowing lists whom userID follows, marking the ones viewerID follows.
func (s *FollowService) GetFollowing(ctx context.Context, userID, viewerID int64) (*model.FollowListResponse, error) {
	return s.list(ctx, userID, viewerID, s.followRepo.GetFollowing)
}

func (s *FollowService) list(
	ctx context.Context,
	userID, viewerID int64,
	fetch func(context.Context, int64) ([]model.UserSummary, error),
) (*model.FollowListResponse, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	stats, err := s.userRepo.GetStats(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get stats: %w", err)
	}

	users, err := fetch(ctx, userID)
	if err != nil {
		return nil, err
	}

	if len(users) > 0 {
		ids := make([]int64, len(users))
		for i, u := range users {
			ids[i] = u.ID
		}
		followMap, err := s.followRepo.CheckFollows(ctx, viewerID, ids)
		if err != nil {
			followLog.WithError(err).Warn("Failed to check follow status")
		} else {
			for i := range users {
				users[i].IsFollowing = followMap[users[i].ID]
			}
		}
	}

	return &model.FollowListResponse{
		User:  user.Summary(),
		Stats: stats,
		Users: users,
	}, nil
}
