package service

import (
	"context"

	"warbler/internal/logging"
	"warbler/internal/model"
	"warbler/internal/repository"
)

var likeLog = logging.Component("LikeService")

type LikeService struct {
	likeRepo    repository.LikeRepository
	messageRepo repository.MessageRepository
}

func NewLikeService(likeRepo repository.LikeRepository, messageRepo repository.MessageRepository) *LikeService {
	return &LikeService{
		likeRepo:    likeRepo,
		messageRepo: messageRepo,
	}
}

// Toggle likes the message, or unlikes it when already liked.
func (s *LikeService) Toggle(ctx context.Context, userID, messageID int64) (*model.LikeToggleResult, error) {
	if _, err := s.messageRepo.GetByID(ctx, messageID); err != nil {
		return nil, err
	}

	liked, err := s.likeRepo.Toggle(ctx, userID, messageID)
	if err != nil {
		return nil, err
	}

	likeLog.WithField("user", userID).WithField("message", messageID).WithField("liked", liked).Debug("Like toggled")
	return &model.LikeToggleResult{MessageID: messageID, Liked: liked}, nil
}

// LikedMessages returns the messages userID liked, newest first.
func (s *LikeService) LikedMessages(ctx context.Context, userID int64) ([]model.Message, error) {
	return s.likeRepo.GetLikedMessages(ctx, userID)
}

// LikedIDs returns the subset of messageIDs that userID liked, in input order.
func (s *LikeService) LikedIDs(ctx context.Context, userID int64, messageIDs []int64) ([]int64, error) {
	if len(messageIDs) == 0 {
		return []int64{}, nil
	}
	likes, err := s.likeRepo.CheckLikes(ctx, userID, messageIDs)
	if err != nil {
		return nil, err
	}
	return likedIDs(messageIDs, likes), nil
}
