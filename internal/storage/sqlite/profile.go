// ABOUTME: Lifetime profile storage operations for SQLite
// ABOUTME: One row per user with open JSON observations, merge handled by callers
package sqlite

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/harper/lifeline/internal/models"
)

// ProfileStore handles lifetime profile persistence
type ProfileStore struct {
	db *DB
}

// NewProfileStore creates a new ProfileStore
func NewProfileStore(db *DB) *ProfileStore {
	return &ProfileStore{db: db}
}

// Get retrieves the lifetime profile for a user, returning nil if not found
func (s *ProfileStore) Get(userID string) (*models.LifetimeProfile, error) {
	var (
		full      sql.NullString
		obsJSON   sql.NullString
		updatedAt time.Time
	)

	err := s.db.QueryRow(`
		SELECT full_profile, observations, updated_at
		FROM lifetime_profiles
		WHERE user_id = ?
	`, userID).Scan(&full, &obsJSON, &updatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	profile := &models.LifetimeProfile{
		UserID:    userID,
		UpdatedAt: updatedAt,
	}
	if full.Valid {
		profile.FullProfile = full.String
	}
	if obsJSON.Valid && obsJSON.String != "" {
		if err := json.Unmarshal([]byte(obsJSON.String), &profile.Observations); err != nil {
			profile.Observations = map[string]any{}
		}
	}

	return profile, nil
}

// Save saves or updates the lifetime profile (upsert)
func (s *ProfileStore) Save(profile *models.LifetimeProfile) error {
	obs := profile.Observations
	if obs == nil {
		obs = map[string]any{}
	}
	obsJSON, err := json.Marshal(obs)
	if err != nil {
		return err
	}

	updatedAt := profile.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}

	_, err = s.db.Exec(`
		INSERT INTO lifetime_profiles (user_id, full_profile, observations, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			full_profile = excluded.full_profile,
			observations = excluded.observations,
			updated_at = excluded.updated_at
	`, profile.UserID, profile.FullProfile, string(obsJSON), updatedAt)

	return err
}
