// ABOUTME: Conversation summary storage with anchor-guarded upserts
// ABOUTME: At most one current row per (user, conversation); anchors never regress
package sqlite

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/harper/lifeline/internal/models"
)

// SummaryStore handles conversation summary persistence
type SummaryStore struct {
	db *DB
}

// NewSummaryStore creates a new SummaryStore
func NewSummaryStore(db *DB) *SummaryStore {
	return &SummaryStore{db: db}
}

// Get retrieves the current summary for a conversation, returning nil if
// none exists yet.
func (s *SummaryStore) Get(userID, conversationID string) (*models.ConversationSummary, error) {
	var (
		summary  models.ConversationSummary
		short    sql.NullString
		full     sql.NullString
		obsJSON  sql.NullString
	)

	err := s.db.QueryRow(`
		SELECT user_id, conversation_id, anchor, short_summary, full_summary, observations, updated_at
		FROM conversation_summaries
		WHERE user_id = ? AND conversation_id = ?
	`, userID, conversationID).Scan(&summary.UserID, &summary.ConversationID, &summary.Anchor,
		&short, &full, &obsJSON, &summary.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if short.Valid {
		summary.ShortSummary = short.String
	}
	if full.Valid {
		summary.FullSummary = full.String
	}
	if obsJSON.Valid && obsJSON.String != "" {
		if err := json.Unmarshal([]byte(obsJSON.String), &summary.Observations); err != nil {
			summary.Observations = models.Observations{}
		}
	}

	return &summary, nil
}

// Upsert writes the summary, creating the row on first write. The update
// branch only applies when the incoming anchor is not behind the stored
// one, so a racing stale writer cannot regress the cursor.
func (s *SummaryStore) Upsert(summary *models.ConversationSummary) error {
	obsJSON, err := json.Marshal(summary.Observations)
	if err != nil {
		return err
	}

	updatedAt := summary.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}

	_, err = s.db.Exec(`
		INSERT INTO conversation_summaries
			(user_id, conversation_id, anchor, short_summary, full_summary, observations, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, conversation_id) DO UPDATE SET
			anchor = excluded.anchor,
			short_summary = excluded.short_summary,
			full_summary = excluded.full_summary,
			observations = excluded.observations,
			updated_at = excluded.updated_at
		WHERE excluded.anchor >= conversation_summaries.anchor
	`, summary.UserID, summary.ConversationID, summary.Anchor,
		summary.ShortSummary, summary.FullSummary, string(obsJSON), updatedAt)

	return err
}

// Exists reports whether a summary row exists for the conversation.
func (s *SummaryStore) Exists(userID, conversationID string) (bool, error) {
	var one int
	err := s.db.QueryRow(`
		SELECT 1 FROM conversation_summaries
		WHERE user_id = ? AND conversation_id = ?
	`, userID, conversationID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// ListByUser returns all summaries for a user, oldest first.
func (s *SummaryStore) ListByUser(userID string) ([]models.ConversationSummary, error) {
	rows, err := s.db.Query(`
		SELECT user_id, conversation_id, anchor, short_summary, full_summary, observations, updated_at
		FROM conversation_summaries
		WHERE user_id = ?
		ORDER BY updated_at ASC, conversation_id ASC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var summaries []models.ConversationSummary
	for rows.Next() {
		var (
			summary models.ConversationSummary
			short   sql.NullString
			full    sql.NullString
			obsJSON sql.NullString
		)
		err := rows.Scan(&summary.UserID, &summary.ConversationID, &summary.Anchor,
			&short, &full, &obsJSON, &summary.UpdatedAt)
		if err != nil {
			return nil, err
		}
		if short.Valid {
			summary.ShortSummary = short.String
		}
		if full.Valid {
			summary.FullSummary = full.String
		}
		if obsJSON.Valid && obsJSON.String != "" {
			if err := json.Unmarshal([]byte(obsJSON.String), &summary.Observations); err != nil {
				summary.Observations = models.Observations{}
			}
		}
		summaries = append(summaries, summary)
	}

	return summaries, rows.Err()
}

// CountByUser returns the number of summary rows for a user.
func (s *SummaryStore) CountByUser(userID string) (int, error) {
	var count int
	err := s.db.QueryRow(`
		SELECT COUNT(*) FROM conversation_summaries WHERE user_id = ?
	`, userID).Scan(&count)
	return count, err
}
