// ABOUTME: Coverage aggregator, batch-recomputes life-chapter scores over a bounded turn window
// ABOUTME: Full recompute with upserts by natural key; a bad model response writes nothing
package core

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/harper/lifeline/internal/llm"
	"github.com/harper/lifeline/internal/models"
	"github.com/harper/lifeline/internal/storage"
	"github.com/harper/lifeline/internal/util"
)

// DefaultCoverageTurnWindow bounds how many recent turns one coverage run reads.
const DefaultCoverageTurnWindow = 300

// coveragePayload is the strict top-level schema for a coverage run.
type coveragePayload struct {
	UserID       string          `json:"user_id"`
	GeneratedAt  string          `json:"generated_at"`
	OverallScore int             `json:"overall_coverage_score"`
	Buckets      []bucketPayload `json:"buckets"`
}

type bucketPayload struct {
	Chapter     string         `json:"chapter"`
	EventCount  int            `json:"event_count"`
	MediaCounts map[string]int `json:"media_counts"`
	Frequency   int            `json:"frequency_score"`
	Depth       int            `json:"depth_score"`
	Diversity   int            `json:"diversity_score"`
	Emotion     int            `json:"emotion_score"`
	Insight     int            `json:"insight_score"`
	Overall     int            `json:"overall_score"`
	Timeline    []slicePayload `json:"timeline"`
}

type slicePayload struct {
	LifeStage  string `json:"life_stage"`
	Score      int    `json:"coverage_score"`
	EventCount int    `json:"event_count"`
}

// CoverageAggregator recomputes per-chapter coverage for a user across the
// recent turn window. Coverage reflects the current state of all evidence,
// so each run is a full recompute rather than an incremental delta.
type CoverageAggregator struct {
	store      *storage.Storage
	gen        llm.Generator
	turnWindow int
}

// NewCoverageAggregator creates a CoverageAggregator.
func NewCoverageAggregator(store *storage.Storage, gen llm.Generator) *CoverageAggregator {
	return &CoverageAggregator{
		store:      store,
		gen:        gen,
		turnWindow: DefaultCoverageTurnWindow,
	}
}

// SetTurnWindow overrides the recent-turn window size.
func (a *CoverageAggregator) SetTurnWindow(n int) {
	if n > 0 {
		a.turnWindow = n
	}
}

// Recompute scores every life chapter for the user from the recent turn
// window and upserts the result. A malformed model response makes no
// writes and returns nil: when invoked as a summarization side effect a
// skipped run must never corrupt good prior data or fail the caller.
// Storage errors still surface.
func (a *CoverageAggregator) Recompute(ctx context.Context, userID string) error {
	if userID == "" {
		return fmt.Errorf("user_id is required")
	}

	turns, err := a.store.Turns.ListRecentByUser(userID, a.turnWindow)
	if err != nil {
		return fmt.Errorf("loading turns: %w", err)
	}
	if len(turns) == 0 {
		return nil
	}

	prompt := buildCoveragePrompt(userID, turns)
	raw, err := a.gen.Generate(ctx, prompt, llm.Options{
		Temperature: 0.2,
		MaxTokens:   4000,
		Schema:      &coveragePayload{},
		SchemaName:  "coverage_report",
	})
	if err != nil {
		log.Printf("[Coverage] generation failed, skipping write: %v", err)
		return nil
	}

	var payload coveragePayload
	if err := util.DecodeJSON(raw, &payload); err != nil {
		log.Printf("[Coverage] unparsable output, skipping write: %v", err)
		return nil
	}
	if len(payload.Buckets) == 0 {
		log.Printf("[Coverage] response has no buckets, skipping write")
		return nil
	}

	now := time.Now().UTC()
	for _, bucket := range payload.Buckets {
		if !models.IsLifeChapter(bucket.Chapter) {
			log.Printf("[Coverage] dropping unknown chapter %q", bucket.Chapter)
			continue
		}

		cov := &models.ChapterCoverage{
			UserID:           userID,
			Chapter:          models.LifeChapter(bucket.Chapter),
			EventCount:       bucket.EventCount,
			MediaCounts:      bucket.MediaCounts,
			Frequency:        models.ClampScore(bucket.Frequency),
			Depth:            models.ClampScore(bucket.Depth),
			Diversity:        models.ClampScore(bucket.Diversity),
			Emotion:          models.ClampScore(bucket.Emotion),
			Insight:          models.ClampScore(bucket.Insight),
			Overall:          models.ClampScore(bucket.Overall),
			LastContribution: now,
		}
		for _, slice := range bucket.Timeline {
			if !models.IsLifeStage(slice.LifeStage) {
				log.Printf("[Coverage] dropping unknown life stage %q in chapter %s", slice.LifeStage, bucket.Chapter)
				continue
			}
			cov.Timeline = append(cov.Timeline, models.TimelineSlice{
				Stage:      models.LifeStage(slice.LifeStage),
				Score:      models.ClampScore(slice.Score),
				EventCount: slice.EventCount,
			})
		}

		if err := a.store.Coverage.UpsertChapter(cov); err != nil {
			return fmt.Errorf("saving coverage for %s: %w", bucket.Chapter, err)
		}
	}

	return nil
}

func buildCoveragePrompt(userID string, turns []models.RawTurn) string {
	chapters := make([]string, len(models.LifeChapters))
	for i, c := range models.LifeChapters {
		chapters[i] = string(c)
	}
	stages := make([]string, len(models.LifeStages))
	for i, st := range models.LifeStages {
		stages[i] = string(st)
	}

	var b strings.Builder
	fmt.Fprintf(&b, `You score how well a person's recorded memories cover each chapter of
their life. Allowed chapter keys (use NO others): %s.
Allowed life stages (use NO others): %s.

For every chapter that has any evidence in the turns below, produce one
bucket with: "chapter", "event_count", "media_counts" (counts per media
type), five 0-100 sub-scores ("frequency_score", "depth_score",
"diversity_score", "emotion_score", "insight_score"), an "overall_score"
(0-100), and a "timeline" of per-life-stage slices with "life_stage",
"coverage_score" (0-100), and "event_count".

Return ONLY one JSON object:
{"user_id": %q, "generated_at": "<ISO timestamp>", "overall_coverage_score": <0-100>, "buckets": [...]}

Turns (id / created_at / media_type / source / content):
`, strings.Join(chapters, ", "), strings.Join(stages, ", "), userID)

	for _, turn := range turns {
		fmt.Fprintf(&b, "%d / %s / %s / %s / %s\n",
			turn.ID, turn.CreatedAt.Format(time.RFC3339), turn.MediaType, turn.Role, turn.Content)
	}

	return b.String()
}
