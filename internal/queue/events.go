package queue

import (
	"encoding/json"
	"fmt"
	"time"
)

// Event types for the feed stream
const (
	EventMessageCreated = "message_created"
	EventMessageDeleted = "message_deleted"
)

// Stream names
const (
	StreamFeed = "stream:feed"
)

// Consumer group name for feed workers
const (
	ConsumerGroupFeed = "feed_workers"
)

// FeedEvent represents an event published to the feed stream.
type FeedEvent struct {
	Type       string `json:"type"`
	OccurredAt int64  `json:"occurred_at"` // unix seconds

	MessageID int64 `json:"message_id"`
	AuthorID  int64 `json:"author_id"`
	// Timestamp is the message timestamp in unix microseconds, used as the feed score.
	Timestamp int64 `json:"timestamp"`
}

// NewMessageCreatedEvent fans a new message out to the author's followers.
func NewMessageCreatedEvent(messageID, authorID int64, ts time.Time) FeedEvent {
	return FeedEvent{
		Type:       EventMessageCreated,
		OccurredAt: time.Now().Unix(),
		MessageID:  messageID,
		AuthorID:   authorID,
		Timestamp:  ts.UnixMicro(),
	}
}

// NewMessageDeletedEvent removes a message from the author's followers' feeds.
func NewMessageDeletedEvent(messageID, authorID int64) FeedEvent {
	return FeedEvent{
		Type:       EventMessageDeleted,
		OccurredAt: time.Now().Unix(),
		MessageID:  messageID,
		AuthorID:   authorID,
	}
}

// ToMap converts the event to XADD field-value pairs, with the JSON body in "data".
func (e FeedEvent) ToMap() (map[string]interface{}, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	return map[string]interface{}{
		"type": e.Type,
		"data": string(data),
	}, nil
}

// ParseFeedEvent parses a FeedEvent from Redis stream message values.
func ParseFeedEvent(values map[string]interface{}) (FeedEvent, error) {
	data, ok := values["data"].(string)
	if !ok {
		return FeedEvent{}, fmt.Errorf("missing or invalid 'data' field")
	}

	var event FeedEvent
	if err := json.Unmarshal([]byte(data), &event); err != nil {
		return FeedEvent{}, fmt.Errorf("unmarshal event: %w", err)
	}
	return event, nil
}
