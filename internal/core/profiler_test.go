// ABOUTME: Tests for the lifetime profile merger
// ABOUTME: Verifies merge-not-replace semantics and key preservation
package core

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harper/lifeline/internal/models"
	"github.com/harper/lifeline/internal/storage"
)

const validProfileJSON = `{
	"full_profile": "Grew up in Minnesota near a lake. Close to their grandfather, who taught them to fish and to work with their hands.",
	"observations": {"themes": ["family", "water"], "follow_ups": ["Ask about the grandfather's workshop"]}
}`

func TestMergeSummaryCreatesProfile(t *testing.T) {
	store, err := storage.OpenInMemory()
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	gen := &fakeGenerator{responses: []string{validProfileJSON}}
	profiler := NewProfiler(store, gen)

	err = profiler.MergeSummary(context.Background(), "u1", "The user talked about lake summers with their grandfather.")
	require.NoError(t, err)

	profile, err := store.Profiles.Get("u1")
	require.NoError(t, err)
	require.NotNil(t, profile)
	assert.Contains(t, profile.FullProfile, "Minnesota")
	assert.Contains(t, profile.Observations, "themes")
}

func TestMergeSummaryCarriesExistingProfileInPrompt(t *testing.T) {
	store, err := storage.OpenInMemory()
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	require.NoError(t, store.Profiles.Save(&models.LifetimeProfile{
		UserID:      "u1",
		FullProfile: "Born in Duluth. Worked as a carpenter for thirty years.",
	}))

	gen := &fakeGenerator{responses: []string{validProfileJSON}}
	profiler := NewProfiler(store, gen)

	err = profiler.MergeSummary(context.Background(), "u1", "A new summary.")
	require.NoError(t, err)

	require.Len(t, gen.prompts, 1)
	assert.Contains(t, gen.prompts[0], "Born in Duluth")
}

func TestMergeSummaryPreservesUnmentionedObservationKeys(t *testing.T) {
	store, err := storage.OpenInMemory()
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	require.NoError(t, store.Profiles.Save(&models.LifetimeProfile{
		UserID:      "u1",
		FullProfile: "Existing narrative.",
		Observations: map[string]any{
			"life_themes": map[string]any{"summary_sentence": "kept"},
		},
	}))

	gen := &fakeGenerator{responses: []string{validProfileJSON}}
	profiler := NewProfiler(store, gen)

	err = profiler.MergeSummary(context.Background(), "u1", "A new summary.")
	require.NoError(t, err)

	profile, err := store.Profiles.Get("u1")
	require.NoError(t, err)
	assert.Contains(t, profile.Observations, "life_themes", "rebuilder-owned keys must survive a merge")
	assert.Contains(t, profile.Observations, "themes")
}

func TestMergeSummaryEmptyInputIsNoop(t *testing.T) {
	store, err := storage.OpenInMemory()
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	gen := &fakeGenerator{}
	profiler := NewProfiler(store, gen)

	require.NoError(t, profiler.MergeSummary(context.Background(), "u1", "   "))
	assert.Equal(t, 0, gen.calls)
}

func TestMergeSummaryParseFailureWritesNothing(t *testing.T) {
	store, err := storage.OpenInMemory()
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	gen := &fakeGenerator{responses: []string{"no json here"}}
	profiler := NewProfiler(store, gen)

	err = profiler.MergeSummary(context.Background(), "u1", "A summary.")
	require.Error(t, err)

	profile, err := store.Profiles.Get("u1")
	require.NoError(t, err)
	assert.Nil(t, profile)
}
