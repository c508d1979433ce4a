package events

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	TypePostPublished   = "post.published"
	TypePostUnpublished = "post.unpublished"
)

var ErrUnknownType = errors.New("unknown event type")

type PostPayload struct {
	PostID   uuid.UUID `json:"post_id"`
	Title    string    `json:"title"`
	Category string    `json:"category,omitempty"`
}

type PostEvent struct {
	Type      string      `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   PostPayload `json:"payload"`
}

func NewPostPublished(postID uuid.UUID, title, category string) PostEvent {
	return newPostEvent(TypePostPublished, postID, title, category)
}

func NewPostUnpublished(postID uuid.UUID, title, category string) PostEvent {
	return newPostEvent(TypePostUnpublished, postID, title, category)
}

func newPostEvent(typ string, postID uuid.UUID, title, category string) PostEvent {
	return PostEvent{
		Type:      typ,
		Timestamp: time.Now().UTC(),
		Payload: PostPayload{
			PostID:   postID,
			Title:    title,
			Category: category,
		},
	}
}

// Decode parses a delivery body and rejects events without a known type or
// post id.
func Decode(body []byte) (PostEvent, error) {
	var e PostEvent
	if err := json.Unmarshal(body, &e); err != nil {
		return PostEvent{}, fmt.Errorf("decode event: %w", err)
	}
	switch e.Type {
	case TypePostPublished, TypePostUnpublished:
	default:
		return e, fmt.Errorf("%w %q", ErrUnknownType, e.Type)
	}
	if e.Payload.PostID == uuid.Nil {
		return e, fmt.Errorf("event %s without post id", e.Type)
	}
	return e, nil
}
