package service

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"warbler/internal/logging"
	"warbler/internal/model"
	"warbler/internal/queue"
	"warbler/internal/repository"
)

var messageLog = logging.Component("MessageService")

type MessageService struct {
	messageRepo repository.MessageRepository
	likeRepo    repository.LikeRepository
	publisher   queue.Publisher
}

// NewMessageService wires the service. publisher may be nil when Redis is off.
func NewMessageService(
	messageRepo repository.MessageRepository,
	likeRepo repository.LikeRepository,
	publisher queue.Publisher,
) *MessageService {
	return &MessageService{
		messageRepo: messageRepo,
		likeRepo:    likeRepo,
		publisher:   publisher,
	}
}

// Create stores a message and publishes an event for feed fan-out.
func (s *MessageService) Create(ctx context.Context, userID int64, text string) (*model.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, model.ErrMessageEmpty
	}
	if utf8.RuneCountInString(text) > model.MaxMessageLength {
		return nil, model.ErrMessageTooLong
	}

	message, err := s.messageRepo.Create(ctx, userID, text)
	if err != nil {
		return nil, fmt.Errorf("create message: %w", err)
	}

	s.publish(ctx, queue.NewMessageCreatedEvent(message.ID, userID, message.Timestamp))
	return message, nil
}

// GetByID returns a message with viewerID's like state.
func (s *MessageService) GetByID(ctx context.Context, messageID, viewerID int64) (*model.MessageResponse, error) {
	message, err := s.messageRepo.GetByID(ctx, messageID)
	if err != nil {
		return nil, err
	}

	resp := &model.MessageResponse{
		Message: message,
		IsOwner: message.UserID == viewerID,
	}

	likes, err := s.likeRepo.CheckLikes(ctx, viewerID, []int64{messageID})
	if err != nil {
		messageLog.WithError(err).Warn("Failed to check like status")
	} else {
		resp.IsLiked = likes[messageID]
	}

	return resp, nil
}

// Delete removes a message owned by actorID and publishes an event to pull it from feeds.
func (s *MessageService) Delete(ctx context.Context, messageID, actorID int64) error {
	message, err := s.messageRepo.GetByID(ctx, messageID)
	if err != nil {
		return err
	}
	if message.UserID != actorID {
		return model.ErrNotMessageOwner
	}

	if err := s.messageRepo.Delete(ctx, messageID); err != nil {
		return err
	}

	s.publish(ctx, queue.NewMessageDeletedEvent(messageID, message.UserID))
	return nil
}

// ListByUser returns a user's newest messages.
func (s *MessageService) ListByUser(ctx context.Context, userID int64) ([]model.Message, error) {
	return s.messageRepo.ListByUser(ctx, userID, model.TimelineLimit)
}

// publish is best-effort: the row is committed and a missed event only
// leaves a cached feed stale until it expires or is invalidated.
func (s *MessageService) publish(ctx context.Context, event queue.FeedEvent) {
	if s.publisher == nil {
		return
	}

	log := messageLog.WithFields(logrus.Fields{"type": event.Type, "message": event.MessageID})
	msgID, err := s.publisher.Publish(ctx, queue.StreamFeed, event)
	if err != nil {
		log.WithError(err).Warn("Failed to publish feed event")
		return
	}
	log.WithField("stream_id", msgID).Debug("Published feed event")
}
