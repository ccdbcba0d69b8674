// ABOUTME: Insight row storage with transactional replace semantics
// ABOUTME: Each rebuild deletes prior overview/theme rows and inserts the new set atomically
package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/harper/lifeline/internal/models"
)

// InsightStore handles synthesized insight persistence
type InsightStore struct {
	db *DB
}

// NewInsightStore creates a new InsightStore
func NewInsightStore(db *DB) *InsightStore {
	return &InsightStore{db: db}
}

// ReplaceForUser atomically swaps the user's derived insight rows: all
// existing lifetime_overview and life_theme rows are deleted, then the new
// set is inserted, inside one transaction. Stale rows from a previous
// rebuild never coexist with new ones.
func (s *InsightStore) ReplaceForUser(userID string, insights []models.Insight) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.Exec(`
		DELETE FROM insights
		WHERE user_id = ? AND insight_type IN (?, ?)
	`, userID, string(models.InsightLifetimeOverview), string(models.InsightLifeTheme))
	if err != nil {
		return fmt.Errorf("deleting prior insights: %w", err)
	}

	for i := range insights {
		ins := &insights[i]
		tagsJSON, err := json.Marshal(ins.Tags)
		if err != nil {
			return err
		}
		sourcesJSON, err := json.Marshal(ins.SourceConversationIDs)
		if err != nil {
			return err
		}
		metaJSON, err := json.Marshal(ins.Metadata)
		if err != nil {
			return err
		}
		createdAt := ins.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now().UTC()
			ins.CreatedAt = createdAt
		}

		_, err = tx.Exec(`
			INSERT INTO insights
				(id, user_id, insight_type, title, content, confidence, tags, source_conversation_ids, metadata, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, ins.ID, ins.UserID, string(ins.Type), ins.Title, ins.Content, ins.Confidence,
			string(tagsJSON), string(sourcesJSON), string(metaJSON), createdAt)
		if err != nil {
			return fmt.Errorf("inserting insight %s: %w", ins.ID, err)
		}
	}

	return tx.Commit()
}

// ListByUser returns all insight rows for a user, overview first then
// themes, each group in insertion order.
func (s *InsightStore) ListByUser(userID string) ([]models.Insight, error) {
	rows, err := s.db.Query(`
		SELECT id, user_id, insight_type, title, content, confidence, tags, source_conversation_ids, metadata, created_at
		FROM insights
		WHERE user_id = ?
		ORDER BY insight_type DESC, created_at ASC, id ASC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var insights []models.Insight
	for rows.Next() {
		var (
			ins         models.Insight
			insightType string
			title       sql.NullString
			content     sql.NullString
			tagsJSON    sql.NullString
			sourcesJSON sql.NullString
			metaJSON    sql.NullString
		)
		err := rows.Scan(&ins.ID, &ins.UserID, &insightType, &title, &content,
			&ins.Confidence, &tagsJSON, &sourcesJSON, &metaJSON, &ins.CreatedAt)
		if err != nil {
			return nil, err
		}
		ins.Type = models.InsightType(insightType)
		if title.Valid {
			ins.Title = title.String
		}
		if content.Valid {
			ins.Content = content.String
		}
		if tagsJSON.Valid && tagsJSON.String != "" {
			_ = json.Unmarshal([]byte(tagsJSON.String), &ins.Tags)
		}
		if sourcesJSON.Valid && sourcesJSON.String != "" {
			_ = json.Unmarshal([]byte(sourcesJSON.String), &ins.SourceConversationIDs)
		}
		if metaJSON.Valid && metaJSON.String != "" {
			_ = json.Unmarshal([]byte(metaJSON.String), &ins.Metadata)
		}
		insights = append(insights, ins)
	}

	return insights, rows.Err()
}

// CountByUser returns the number of insight rows for a user.
func (s *InsightStore) CountByUser(userID string) (int, error) {
	var count int
	err := s.db.QueryRow(`
		SELECT COUNT(*) FROM insights WHERE user_id = ?
	`, userID).Scan(&count)
	return count, err
}
