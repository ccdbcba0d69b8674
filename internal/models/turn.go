// ABOUTME: RawTurn represents one utterance in a recorded conversation
// ABOUTME: Append-only input to the summarization pipeline, never mutated
package models

import "time"

// Role identifies who produced a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// MediaType identifies the capture medium of a turn.
type MediaType string

const (
	MediaText  MediaType = "text"
	MediaAudio MediaType = "audio"
	MediaImage MediaType = "image"
	MediaVideo MediaType = "video"
)

// RawTurn is a single utterance. IDs are assigned by storage and are
// monotonically increasing, so they double as the summarization cursor.
type RawTurn struct {
	ID             int64     `json:"id"`
	UserID         string    `json:"user_id"`
	ConversationID string    `json:"conversation_id"`
	Role           Role      `json:"role"`
	Content        string    `json:"content"`
	MediaType      MediaType `json:"media_type,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// IsUser reports whether the turn was spoken by the user.
func (t *RawTurn) IsUser() bool {
	return t.Role == RoleUser
}
