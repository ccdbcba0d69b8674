// ABOUTME: Chapter coverage storage, full-recompute upserts keyed by natural keys
// ABOUTME: Bucket rows keyed by (user, chapter), timeline rows by (user, chapter, stage)
package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/harper/lifeline/internal/models"
)

// CoverageStore handles chapter coverage persistence
type CoverageStore struct {
	db *DB
}

// NewCoverageStore creates a new CoverageStore
func NewCoverageStore(db *DB) *CoverageStore {
	return &CoverageStore{db: db}
}

// UpsertChapter writes one bucket row and its timeline slices in a single
// transaction. Coverage runs are full recomputes, so every write is an
// upsert by natural key rather than an append.
func (s *CoverageStore) UpsertChapter(cov *models.ChapterCoverage) error {
	mediaJSON, err := json.Marshal(cov.MediaCounts)
	if err != nil {
		return err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC()
	_, err = tx.Exec(`
		INSERT INTO chapter_coverage
			(user_id, chapter, event_count, media_counts,
			 frequency_score, depth_score, diversity_score, emotion_score, insight_score,
			 overall_score, last_contribution_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, chapter) DO UPDATE SET
			event_count = excluded.event_count,
			media_counts = excluded.media_counts,
			frequency_score = excluded.frequency_score,
			depth_score = excluded.depth_score,
			diversity_score = excluded.diversity_score,
			emotion_score = excluded.emotion_score,
			insight_score = excluded.insight_score,
			overall_score = excluded.overall_score,
			last_contribution_at = excluded.last_contribution_at,
			updated_at = excluded.updated_at
	`, cov.UserID, string(cov.Chapter), cov.EventCount, string(mediaJSON),
		cov.Frequency, cov.Depth, cov.Diversity, cov.Emotion, cov.Insight,
		cov.Overall, cov.LastContribution, now)
	if err != nil {
		return fmt.Errorf("upserting chapter %s: %w", cov.Chapter, err)
	}

	for _, slice := range cov.Timeline {
		_, err = tx.Exec(`
			INSERT INTO chapter_timeline (user_id, chapter, life_stage, coverage_score, event_count, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(user_id, chapter, life_stage) DO UPDATE SET
				coverage_score = excluded.coverage_score,
				event_count = excluded.event_count,
				updated_at = excluded.updated_at
		`, cov.UserID, string(cov.Chapter), string(slice.Stage), slice.Score, slice.EventCount, now)
		if err != nil {
			return fmt.Errorf("upserting timeline slice %s/%s: %w", cov.Chapter, slice.Stage, err)
		}
	}

	return tx.Commit()
}

// GetReport assembles the stored coverage view for a user.
func (s *CoverageStore) GetReport(userID string) (*models.CoverageReport, error) {
	rows, err := s.db.Query(`
		SELECT chapter, event_count, media_counts,
		       frequency_score, depth_score, diversity_score, emotion_score, insight_score,
		       overall_score, last_contribution_at, updated_at
		FROM chapter_coverage
		WHERE user_id = ?
		ORDER BY chapter ASC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	report := &models.CoverageReport{UserID: userID}
	total := 0
	for rows.Next() {
		var (
			cov       models.ChapterCoverage
			chapter   string
			mediaJSON sql.NullString
			lastAt    sql.NullTime
			updatedAt time.Time
		)
		err := rows.Scan(&chapter, &cov.EventCount, &mediaJSON,
			&cov.Frequency, &cov.Depth, &cov.Diversity, &cov.Emotion, &cov.Insight,
			&cov.Overall, &lastAt, &updatedAt)
		if err != nil {
			return nil, err
		}
		cov.UserID = userID
		cov.Chapter = models.LifeChapter(chapter)
		if mediaJSON.Valid && mediaJSON.String != "" {
			if err := json.Unmarshal([]byte(mediaJSON.String), &cov.MediaCounts); err != nil {
				cov.MediaCounts = map[string]int{}
			}
		}
		if lastAt.Valid {
			cov.LastContribution = lastAt.Time
		}
		if updatedAt.After(report.GeneratedAt) {
			report.GeneratedAt = updatedAt
		}

		cov.Timeline, err = s.getTimeline(userID, chapter)
		if err != nil {
			return nil, err
		}

		total += cov.Overall
		report.Buckets = append(report.Buckets, cov)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(report.Buckets) > 0 {
		report.OverallScore = total / len(report.Buckets)
	}
	return report, nil
}

func (s *CoverageStore) getTimeline(userID, chapter string) ([]models.TimelineSlice, error) {
	rows, err := s.db.Query(`
		SELECT life_stage, coverage_score, event_count
		FROM chapter_timeline
		WHERE user_id = ? AND chapter = ?
		ORDER BY life_stage ASC
	`, userID, chapter)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var slices []models.TimelineSlice
	for rows.Next() {
		var (
			slice models.TimelineSlice
			stage string
		)
		if err := rows.Scan(&stage, &slice.Score, &slice.EventCount); err != nil {
			return nil, err
		}
		slice.Stage = models.LifeStage(stage)
		slices = append(slices, slice)
	}
	return slices, rows.Err()
}
