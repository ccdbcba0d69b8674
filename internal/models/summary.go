// ABOUTME: ConversationSummary is the single current summary row per conversation
// ABOUTME: Anchor tracks the last RawTurn id incorporated, enabling incremental updates
package models

import "time"

// ChapterScore attaches a 0-100 relevance score to one life chapter.
type ChapterScore struct {
	Chapter string  `json:"chapter"`
	Score   float64 `json:"score"`
}

// Observations is the structured extraction attached to a summary.
type Observations struct {
	Themes    []string       `json:"themes,omitempty"`
	Emotions  []string       `json:"emotions,omitempty"`
	FollowUps []string       `json:"follow_ups,omitempty"`
	Chapters  []ChapterScore `json:"chapters,omitempty"`
}

// ConversationSummary is the rolling summary for one (user, conversation)
// pair. There is at most one current row per pair; updates replace it in
// place and must never move the anchor backwards.
type ConversationSummary struct {
	UserID         string       `json:"user_id"`
	ConversationID string       `json:"conversation_id"`
	Anchor         int64        `json:"anchor"`
	ShortSummary   string       `json:"short_summary"`
	FullSummary    string       `json:"full_summary"`
	Observations   Observations `json:"observations"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

// BestSummary returns the full summary when present, falling back to the
// short one. Used when serializing summaries into downstream prompts.
func (s *ConversationSummary) BestSummary() string {
	if s.FullSummary != "" {
		return s.FullSummary
	}
	return s.ShortSummary
}
