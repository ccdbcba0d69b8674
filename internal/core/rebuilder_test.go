// ABOUTME: Tests for the cross-session insight rebuilder
// ABOUTME: Covers backfill non-duplication, atomic replacement, fallback, and empty history
package core

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harper/lifeline/internal/models"
	"github.com/harper/lifeline/internal/storage"
)

const validThemesJSON = `{
	"summary_sentence": "A life anchored by family, water, and quiet craftsmanship.",
	"master_page": "From lake summers with a grandfather who taught patience through fishing, to a career built on making things by hand, this life keeps returning to water and to family.",
	"themes": [
		{"key": "family_bonds", "title": "Family bonds", "description": "Relationships with the grandfather and extended family recur across sessions."},
		{"key": "love_of_water", "title": "Love of water", "description": "Lakes, rivers, and boats appear in nearly every formative memory."},
		{"key": "craftsmanship", "title": "Craftsmanship", "description": "Making and repairing things by hand is a source of identity."}
	]
}`

func seedConversation(t *testing.T, store *storage.Storage, userID, convID string, turns int) {
	t.Helper()
	for i := 0; i < turns; i++ {
		role := models.RoleUser
		content := "I want to tell you about my grandfather's workshop."
		if i%2 == 1 {
			role = models.RoleAssistant
			content = "What do you remember most about it?"
		}
		_, err := store.Turns.Append(&models.RawTurn{
			UserID:         userID,
			ConversationID: convID,
			Role:           role,
			Content:        content,
		})
		require.NoError(t, err)
	}
}

func TestRebuildBackfillNonDuplication(t *testing.T) {
	store, err := storage.OpenInMemory()
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	seedConversation(t, store, "u1", "c1", 4)
	seedConversation(t, store, "u1", "c2", 2)

	gen := &fakeGenerator{responses: []string{validThemesJSON}}
	rebuilder := NewRebuilder(store, gen)

	first, err := rebuilder.Rebuild(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, first.Backfill.Inserted)
	assert.Equal(t, 2, first.Backfill.ScannedSessions)

	second, err := rebuilder.Rebuild(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 0, second.Backfill.Inserted, "second backfill must insert nothing")
	assert.Equal(t, 2, second.Backfill.ScannedSessions)
}

func TestRebuildBackfillSynthesizesFromTurns(t *testing.T) {
	store, err := storage.OpenInMemory()
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	seedConversation(t, store, "u1", "c1", 4)
	gen := &fakeGenerator{responses: []string{validThemesJSON}}
	rebuilder := NewRebuilder(store, gen)

	_, err = rebuilder.Rebuild(context.Background(), "u1")
	require.NoError(t, err)

	summary, err := store.Summaries.Get("u1", "c1")
	require.NoError(t, err)
	require.NotNil(t, summary)
	assert.Contains(t, summary.ShortSummary, "grandfather's workshop")
	assert.Contains(t, summary.FullSummary, "user:")
	assert.Contains(t, summary.FullSummary, "assistant:")
	assert.Greater(t, summary.Anchor, int64(0))
}

func TestRebuildReplacementAtomicity(t *testing.T) {
	store, err := storage.OpenInMemory()
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	seedConversation(t, store, "u1", "c1", 2)
	gen := &fakeGenerator{responses: []string{validThemesJSON, validThemesJSON}}
	rebuilder := NewRebuilder(store, gen)

	res1, err := rebuilder.Rebuild(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, res1.LifeThemes.Themes, 3)

	res2, err := rebuilder.Rebuild(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, res2.LifeThemes.Themes, 3)

	// Two runs with K=3 themes each must leave exactly K+1 rows.
	count, err := store.Insights.CountByUser("u1")
	require.NoError(t, err)
	assert.Equal(t, 4, count)

	rows, err := store.Insights.ListByUser("u1")
	require.NoError(t, err)
	assert.Equal(t, models.InsightLifetimeOverview, rows[0].Type)
	assert.Equal(t, 1, rows[0].Metadata.SessionCount)
}

func TestRebuildGracefulDegradation(t *testing.T) {
	store, err := storage.OpenInMemory()
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	seedConversation(t, store, "u1", "c1", 2)
	gen := &fakeGenerator{responses: []string{"%%% not json at all %%%"}}
	rebuilder := NewRebuilder(store, gen)

	result, err := rebuilder.Rebuild(context.Background(), "u1")
	require.NoError(t, err, "rebuild must never fail on bad model output")

	assert.True(t, result.UsedFallback)
	require.NotNil(t, result.LifeThemes)
	assert.NotEmpty(t, result.LifeThemes.SummarySentence)
	assert.NotEmpty(t, result.LifeThemes.MasterPage)
	assert.NotEmpty(t, result.LifeThemes.Themes)

	// Fallback rows are persisted like any other rebuild.
	count, err := store.Insights.CountByUser("u1")
	require.NoError(t, err)
	assert.Equal(t, len(result.LifeThemes.Themes)+1, count)
}

func TestRebuildFallbackCountLimitsSummaries(t *testing.T) {
	store, err := storage.OpenInMemory()
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	base := time.Now().UTC().Add(-3 * time.Hour)
	for i, text := range []string{"the oldest lake summer", "the middle workshop visit", "the newest fishing trip"} {
		require.NoError(t, store.Summaries.Upsert(&models.ConversationSummary{
			UserID:         "u1",
			ConversationID: string(rune('a' + i)),
			Anchor:         int64(i + 1),
			ShortSummary:   text,
			UpdatedAt:      base.Add(time.Duration(i) * time.Hour),
		}))
	}

	gen := &fakeGenerator{responses: []string{"%%% not json at all %%%"}}
	rebuilder := NewRebuilder(store, gen)
	rebuilder.SetFallbackCount(1)

	result, err := rebuilder.Rebuild(context.Background(), "u1")
	require.NoError(t, err)
	require.True(t, result.UsedFallback)

	// With the count capped at 1 only the newest summary feeds the page.
	assert.Contains(t, result.LifeThemes.MasterPage, "the newest fishing trip")
	assert.NotContains(t, result.LifeThemes.MasterPage, "the oldest lake summer")
	assert.NotContains(t, result.LifeThemes.MasterPage, "the middle workshop visit")
}

func TestRebuildEmptyHistory(t *testing.T) {
	store, err := storage.OpenInMemory()
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	gen := &fakeGenerator{}
	rebuilder := NewRebuilder(store, gen)

	result, err := rebuilder.Rebuild(context.Background(), "u1")
	require.NoError(t, err)

	assert.Equal(t, "nothing to rebuild", result.Message)
	require.NotNil(t, result.LifeThemes)
	assert.NotEmpty(t, result.LifeThemes.MasterPage, "placeholder must be coherent for pre-data UI")
	assert.Equal(t, 0, gen.calls, "no generation on empty history")

	count, err := store.Insights.CountByUser("u1")
	require.NoError(t, err)
	assert.Equal(t, 0, count, "no insight rows written on empty history")
}

func TestRebuildMergesThemesIntoProfile(t *testing.T) {
	store, err := storage.OpenInMemory()
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	// Pre-existing profile with observation keys the rebuild must preserve.
	require.NoError(t, store.Profiles.Save(&models.LifetimeProfile{
		UserID:      "u1",
		FullProfile: "An existing narrative.",
		Observations: map[string]any{
			"themes": []any{"water"},
		},
	}))

	seedConversation(t, store, "u1", "c1", 2)
	gen := &fakeGenerator{responses: []string{validThemesJSON}}
	rebuilder := NewRebuilder(store, gen)

	result, err := rebuilder.Rebuild(context.Background(), "u1")
	require.NoError(t, err)
	require.NotNil(t, result.Profile)

	profile, err := store.Profiles.Get("u1")
	require.NoError(t, err)
	require.NotNil(t, profile)
	assert.Equal(t, "An existing narrative.", profile.FullProfile)
	assert.Contains(t, profile.Observations, "life_themes", "life_themes merged in")
	assert.Contains(t, profile.Observations, "themes", "existing keys preserved")
}

func TestRebuildBackfillWindowExcludesOldConversations(t *testing.T) {
	store, err := storage.OpenInMemory()
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	// One conversation well outside the backfill window.
	_, err = store.Turns.Append(&models.RawTurn{
		UserID:         "u1",
		ConversationID: "old",
		Role:           models.RoleUser,
		Content:        "An old memory.",
		CreatedAt:      time.Now().UTC().Add(-30 * 24 * time.Hour),
	})
	require.NoError(t, err)
	seedConversation(t, store, "u1", "recent", 2)

	gen := &fakeGenerator{responses: []string{validThemesJSON}}
	rebuilder := NewRebuilder(store, gen)

	result, err := rebuilder.Rebuild(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, result.Backfill.Inserted)

	exists, err := store.Summaries.Exists("u1", "old")
	require.NoError(t, err)
	assert.False(t, exists, "conversations outside the window are not backfilled")
}

func TestRebuildValidation(t *testing.T) {
	store, err := storage.OpenInMemory()
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	rebuilder := NewRebuilder(store, &fakeGenerator{})
	_, err = rebuilder.Rebuild(context.Background(), "")
	assert.Error(t, err)
}

func TestRebuildHardErrorOnStorageFailure(t *testing.T) {
	store, err := storage.OpenInMemory()
	require.NoError(t, err)

	seedConversation(t, store, "u1", "c1", 2)
	gen := &fakeGenerator{responses: []string{validThemesJSON}}
	rebuilder := NewRebuilder(store, gen)

	// Closing the database makes every storage call fail; the rebuild must
	// surface that as a hard error rather than degrade.
	require.NoError(t, store.Close())
	_, err = rebuilder.Rebuild(context.Background(), "u1")
	assert.Error(t, err)
}
