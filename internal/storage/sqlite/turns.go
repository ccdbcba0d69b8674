// ABOUTME: Transcript store read/append operations for SQLite
// ABOUTME: Cursor reads by (user, conversation, id > anchor) and window reads by created_at
package sqlite

import (
	"database/sql"
	"time"

	"github.com/harper/lifeline/internal/models"
)

// TurnStore handles the append-only transcript log
type TurnStore struct {
	db *DB
}

// NewTurnStore creates a new TurnStore
func NewTurnStore(db *DB) *TurnStore {
	return &TurnStore{db: db}
}

// Append writes one turn and returns its assigned id. Only the chat-turn
// collaborator writes turns; the pipeline is read-only here.
func (s *TurnStore) Append(turn *models.RawTurn) (int64, error) {
	createdAt := turn.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	mediaType := turn.MediaType
	if mediaType == "" {
		mediaType = models.MediaText
	}

	res, err := s.db.Exec(`
		INSERT INTO turns (user_id, conversation_id, role, content, media_type, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, turn.UserID, turn.ConversationID, string(turn.Role), turn.Content, string(mediaType), createdAt)
	if err != nil {
		return 0, err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	turn.ID = id
	turn.CreatedAt = createdAt
	turn.MediaType = mediaType
	return id, nil
}

// ListAfter returns turns for a conversation with id > afterID, ascending.
// A limit of 0 means no limit.
func (s *TurnStore) ListAfter(userID, conversationID string, afterID int64, limit int) ([]models.RawTurn, error) {
	query := `
		SELECT id, user_id, conversation_id, role, content, media_type, created_at
		FROM turns
		WHERE user_id = ? AND conversation_id = ? AND id > ?
		ORDER BY id ASC
	`
	args := []interface{}{userID, conversationID, afterID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	return scanTurns(rows)
}

// ListRecent returns the most recent n turns for a conversation in
// ascending id order. Used for the bounded first summarization run.
func (s *TurnStore) ListRecent(userID, conversationID string, n int) ([]models.RawTurn, error) {
	rows, err := s.db.Query(`
		SELECT id, user_id, conversation_id, role, content, media_type, created_at
		FROM (
			SELECT id, user_id, conversation_id, role, content, media_type, created_at
			FROM turns
			WHERE user_id = ? AND conversation_id = ?
			ORDER BY id DESC
			LIMIT ?
		)
		ORDER BY id ASC
	`, userID, conversationID, n)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	return scanTurns(rows)
}

// ListRecentByUser returns the most recent n turns across all of a user's
// conversations in ascending id order. Used by the coverage window.
func (s *TurnStore) ListRecentByUser(userID string, n int) ([]models.RawTurn, error) {
	rows, err := s.db.Query(`
		SELECT id, user_id, conversation_id, role, content, media_type, created_at
		FROM (
			SELECT id, user_id, conversation_id, role, content, media_type, created_at
			FROM turns
			WHERE user_id = ?
			ORDER BY id DESC
			LIMIT ?
		)
		ORDER BY id ASC
	`, userID, n)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	return scanTurns(rows)
}

// ListSince returns all turns for a user created at or after the given
// time, ascending. Used by the backfill window scan.
func (s *TurnStore) ListSince(userID string, since time.Time) ([]models.RawTurn, error) {
	rows, err := s.db.Query(`
		SELECT id, user_id, conversation_id, role, content, media_type, created_at
		FROM turns
		WHERE user_id = ? AND created_at >= ?
		ORDER BY id ASC
	`, userID, since)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	return scanTurns(rows)
}

func scanTurns(rows *sql.Rows) ([]models.RawTurn, error) {
	var turns []models.RawTurn
	for rows.Next() {
		var (
			turn      models.RawTurn
			role      string
			mediaType sql.NullString
		)
		err := rows.Scan(&turn.ID, &turn.UserID, &turn.ConversationID, &role,
			&turn.Content, &mediaType, &turn.CreatedAt)
		if err != nil {
			return nil, err
		}
		turn.Role = models.Role(role)
		if mediaType.Valid {
			turn.MediaType = models.MediaType(mediaType.String)
		}
		turns = append(turns, turn)
	}
	return turns, rows.Err()
}
