// ABOUTME: Tests for the coverage aggregator's full-recompute behavior
// ABOUTME: Verifies bucket validation, timeline upserts, and no-write degradation
package core

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harper/lifeline/internal/models"
	"github.com/harper/lifeline/internal/storage"
)

const validCoverageJSON = `{
	"user_id": "u1",
	"generated_at": "2026-08-30T12:00:00Z",
	"overall_coverage_score": 40,
	"buckets": [
		{
			"chapter": "childhood",
			"event_count": 5,
			"media_counts": {"text": 4, "audio": 1},
			"frequency_score": 60,
			"depth_score": 45,
			"diversity_score": 30,
			"emotion_score": 70,
			"insight_score": 50,
			"overall_score": 51,
			"timeline": [
				{"life_stage": "childhood", "coverage_score": 55, "event_count": 5},
				{"life_stage": "made_up_stage", "coverage_score": 10, "event_count": 1}
			]
		},
		{
			"chapter": "career",
			"event_count": 2,
			"media_counts": {"text": 2},
			"frequency_score": 20,
			"depth_score": 25,
			"diversity_score": 15,
			"emotion_score": 10,
			"insight_score": 30,
			"overall_score": 120,
			"timeline": []
		},
		{
			"chapter": "not_a_real_chapter",
			"event_count": 1,
			"media_counts": {},
			"frequency_score": 1, "depth_score": 1, "diversity_score": 1,
			"emotion_score": 1, "insight_score": 1, "overall_score": 1,
			"timeline": []
		}
	]
}`

func TestCoverageRecomputeWritesValidBuckets(t *testing.T) {
	store, err := storage.OpenInMemory()
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	seedConversation(t, store, "u1", "c1", 4)
	gen := &fakeGenerator{responses: []string{validCoverageJSON}}
	aggregator := NewCoverageAggregator(store, gen)

	require.NoError(t, aggregator.Recompute(context.Background(), "u1"))

	report, err := store.Coverage.GetReport("u1")
	require.NoError(t, err)
	require.Len(t, report.Buckets, 2, "unknown chapter must be dropped")

	var childhood, career *models.ChapterCoverage
	for i := range report.Buckets {
		switch report.Buckets[i].Chapter {
		case models.ChapterChildhood:
			childhood = &report.Buckets[i]
		case models.ChapterCareer:
			career = &report.Buckets[i]
		}
	}
	require.NotNil(t, childhood)
	require.NotNil(t, career)

	assert.Equal(t, 5, childhood.EventCount)
	assert.Equal(t, 70, childhood.Emotion)
	assert.Equal(t, map[string]int{"text": 4, "audio": 1}, childhood.MediaCounts)
	require.Len(t, childhood.Timeline, 1, "unknown life stage must be dropped")
	assert.Equal(t, models.StageChildhood, childhood.Timeline[0].Stage)

	// Out-of-range scores are clamped to the 0-100 contract.
	assert.Equal(t, 100, career.Overall)
}

func TestCoverageRecomputeIdempotent(t *testing.T) {
	store, err := storage.OpenInMemory()
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	seedConversation(t, store, "u1", "c1", 4)
	gen := &fakeGenerator{responses: []string{validCoverageJSON, validCoverageJSON}}
	aggregator := NewCoverageAggregator(store, gen)

	require.NoError(t, aggregator.Recompute(context.Background(), "u1"))
	first, err := store.Coverage.GetReport("u1")
	require.NoError(t, err)

	require.NoError(t, aggregator.Recompute(context.Background(), "u1"))
	second, err := store.Coverage.GetReport("u1")
	require.NoError(t, err)

	// Full recompute upserts by natural key: no row accumulation.
	assert.Equal(t, len(first.Buckets), len(second.Buckets))
	assert.Equal(t, first.OverallScore, second.OverallScore)
}

func TestCoverageGarbageOutputMakesNoWrites(t *testing.T) {
	store, err := storage.OpenInMemory()
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	seedConversation(t, store, "u1", "c1", 2)
	gen := &fakeGenerator{responses: []string{"absolutely not json"}}
	aggregator := NewCoverageAggregator(store, gen)

	// Bad output is a skipped run, not an error: this runs as a
	// summarization side effect and must not corrupt prior data.
	require.NoError(t, aggregator.Recompute(context.Background(), "u1"))

	report, err := store.Coverage.GetReport("u1")
	require.NoError(t, err)
	assert.Empty(t, report.Buckets)
}

func TestCoverageMissingBucketsMakesNoWrites(t *testing.T) {
	store, err := storage.OpenInMemory()
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	seedConversation(t, store, "u1", "c1", 2)
	gen := &fakeGenerator{responses: []string{`{"user_id": "u1", "generated_at": "x", "overall_coverage_score": 0}`}}
	aggregator := NewCoverageAggregator(store, gen)

	require.NoError(t, aggregator.Recompute(context.Background(), "u1"))

	report, err := store.Coverage.GetReport("u1")
	require.NoError(t, err)
	assert.Empty(t, report.Buckets)
}

func TestCoverageGenerationFailureMakesNoWrites(t *testing.T) {
	store, err := storage.OpenInMemory()
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	seedConversation(t, store, "u1", "c1", 2)
	gen := &fakeGenerator{err: errors.New("timeout")}
	aggregator := NewCoverageAggregator(store, gen)

	require.NoError(t, aggregator.Recompute(context.Background(), "u1"))

	report, err := store.Coverage.GetReport("u1")
	require.NoError(t, err)
	assert.Empty(t, report.Buckets)
}

func TestCoverageNoTurnsNoCall(t *testing.T) {
	store, err := storage.OpenInMemory()
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	gen := &fakeGenerator{}
	aggregator := NewCoverageAggregator(store, gen)

	require.NoError(t, aggregator.Recompute(context.Background(), "u1"))
	assert.Equal(t, 0, gen.calls)
}

func TestCoveragePromptCarriesEnumerations(t *testing.T) {
	store, err := storage.OpenInMemory()
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	seedConversation(t, store, "u1", "c1", 2)
	gen := &fakeGenerator{responses: []string{validCoverageJSON}}
	aggregator := NewCoverageAggregator(store, gen)

	require.NoError(t, aggregator.Recompute(context.Background(), "u1"))
	require.Len(t, gen.prompts, 1)

	for _, chapter := range models.LifeChapters {
		assert.Contains(t, gen.prompts[0], string(chapter))
	}
	for _, stage := range models.LifeStages {
		assert.Contains(t, gen.prompts[0], string(stage))
	}
}
