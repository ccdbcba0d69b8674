// ABOUTME: Lifetime profile merger, folds new conversation summaries into the per-user narrative
// ABOUTME: Merge-not-replace: durable facts are preserved, ephemeral details filtered out
package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/harper/lifeline/internal/llm"
	"github.com/harper/lifeline/internal/models"
	"github.com/harper/lifeline/internal/storage"
	"github.com/harper/lifeline/internal/util"
)

const profilePromptHeader = `You maintain the lifetime profile of a person from their recorded
conversations. You are given the existing profile (possibly empty) and the
summary of one new conversation.

Produce an UPDATED profile that:
- keeps every durable fact already in the existing profile
- adds new durable facts, relationships, places, and traits from the new summary
- leaves out one-off or ephemeral details unless they reveal a stable trait

Return ONLY a single JSON object:
- "full_profile": the updated multi-paragraph narrative
- "observations": an object with optional arrays "themes", "emotions",
  "follow_ups" describing recurring patterns across the person's life.`

// profilePayload is the strict schema the model must produce.
type profilePayload struct {
	FullProfile  string         `json:"full_profile"`
	Observations map[string]any `json:"observations"`
}

// Profiler folds conversation summaries into the durable per-user profile.
type Profiler struct {
	store *storage.Storage
	gen   llm.Generator
}

// NewProfiler creates a Profiler.
func NewProfiler(store *storage.Storage, gen llm.Generator) *Profiler {
	return &Profiler{store: store, gen: gen}
}

// MergeSummary merges one new conversation summary into the user's
// lifetime profile. Callers treat failures as non-fatal: this is
// enrichment, not the critical path.
func (p *Profiler) MergeSummary(ctx context.Context, userID, fullSummary string) error {
	if strings.TrimSpace(fullSummary) == "" {
		return nil
	}

	existing, err := p.store.Profiles.Get(userID)
	if err != nil {
		return fmt.Errorf("loading profile: %w", err)
	}

	prompt := buildProfilePrompt(existing, fullSummary)
	raw, err := p.gen.Generate(ctx, prompt, llm.Options{
		Temperature: 0.3,
		MaxTokens:   2000,
		Schema:      &profilePayload{},
		SchemaName:  "lifetime_profile",
	})
	if err != nil {
		return fmt.Errorf("generation failed: %w", err)
	}

	var payload profilePayload
	if err := util.DecodeJSON(raw, &payload); err != nil {
		return fmt.Errorf("unparsable profile output: %w", err)
	}
	if strings.TrimSpace(payload.FullProfile) == "" {
		return fmt.Errorf("profile output missing full_profile")
	}

	profile := existing
	if profile == nil {
		profile = &models.LifetimeProfile{UserID: userID}
	}
	profile.FullProfile = payload.FullProfile
	// Overlay model keys, keeping keys it did not return (e.g. life_themes
	// written by the insight rebuilder).
	profile.MergeObservations(payload.Observations)
	profile.UpdatedAt = time.Now().UTC()

	if err := p.store.Profiles.Save(profile); err != nil {
		return fmt.Errorf("saving profile: %w", err)
	}
	return nil
}

func buildProfilePrompt(existing *models.LifetimeProfile, fullSummary string) string {
	var b strings.Builder
	b.WriteString(profilePromptHeader)
	b.WriteString("\n\n")

	if existing != nil && existing.FullProfile != "" {
		b.WriteString("Existing profile:\n")
		b.WriteString(existing.FullProfile)
		b.WriteString("\n\n")
	} else {
		b.WriteString("Existing profile: (none yet)\n\n")
	}

	b.WriteString("New conversation summary:\n")
	b.WriteString(fullSummary)
	b.WriteString("\n")

	return b.String()
}
