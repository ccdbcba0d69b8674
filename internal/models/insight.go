// ABOUTME: Insight is a derived, user-facing synthesis row
// ABOUTME: The full row set per user is replaced atomically on each rebuild
package models

import "time"

// InsightType distinguishes the master narrative page from individual themes.
type InsightType string

const (
	InsightLifetimeOverview InsightType = "lifetime_overview"
	InsightLifeTheme        InsightType = "life_theme"
)

// InsightMetadata records provenance for one rebuild.
type InsightMetadata struct {
	RebuiltAt    time.Time `json:"rebuilt_at"`
	SessionCount int       `json:"session_count"`
}

// Insight is one synthesized row: either the single lifetime_overview or
// one life_theme. SourceConversationIDs names the conversation summaries
// that contributed.
type Insight struct {
	ID                    string          `json:"id"`
	UserID                string          `json:"user_id"`
	Type                  InsightType     `json:"insight_type"`
	Title                 string          `json:"title"`
	Content               string          `json:"content"`
	Confidence            float64         `json:"confidence"`
	Tags                  []string        `json:"tags,omitempty"`
	SourceConversationIDs []string        `json:"source_conversation_ids,omitempty"`
	Metadata              InsightMetadata `json:"metadata"`
	CreatedAt             time.Time       `json:"created_at"`
}
