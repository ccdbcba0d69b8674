// ABOUTME: Insight rebuilder, cross-session resynthesis of durable life themes
// ABOUTME: Backfills missing summaries, distills themes, and atomically replaces insight rows
package core

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/harper/lifeline/internal/llm"
	"github.com/harper/lifeline/internal/models"
	"github.com/harper/lifeline/internal/storage"
	"github.com/harper/lifeline/internal/util"
)

const (
	// DefaultBackfillWindow bounds how far back the backfill safety net
	// scans for conversations that never got a summary. Configurable: old
	// conversations beyond the window stay unbackfilled until it is widened.
	DefaultBackfillWindow = 14 * 24 * time.Hour

	// DefaultFallbackSummaryCount is how many recent summaries the
	// deterministic fallback folds together when generation fails.
	DefaultFallbackSummaryCount = 10

	// backfillTitleLen caps the synthesized title taken from the first user line.
	backfillTitleLen = 80
	// backfillLineLen caps each transcript line folded into a synthesized body.
	backfillLineLen = 200
	// backfillMaxLines caps how many lines a synthesized body contains.
	backfillMaxLines = 6
	// fallbackPageLen caps the fallback master page length.
	fallbackPageLen = 3000
)

const themesPromptHeader = `You distill the durable themes of a person's life from the summaries of
their recorded conversations, listed below oldest first.

Rules:
- Ignore sessions that are clearly technical or debugging chatter rather
  than biographical material.
- Extract 3-6 DISTINCT, non-overlapping life themes. Restating the same
  theme twice in different words is a defect.
- Write "summary_sentence": a single-sentence life thesis.
- Write "master_page": a 300-600 word narrative page of the life so far.

Return ONLY one JSON object:
{"summary_sentence": "...", "master_page": "...", "themes": [{"key": "snake_case_key", "title": "...", "description": "..."}]}`

// Theme is one distilled life theme.
type Theme struct {
	Key         string `json:"key"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// ThemeSet is the distilled cross-session synthesis.
type ThemeSet struct {
	SummarySentence string  `json:"summary_sentence"`
	MasterPage      string  `json:"master_page"`
	Themes          []Theme `json:"themes"`
}

// BackfillStats reports what the backfill safety net did.
type BackfillStats struct {
	Inserted        int `json:"inserted"`
	ScannedSessions int `json:"scanned_sessions"`
}

// RebuildResult is the full payload returned to the rebuild trigger.
type RebuildResult struct {
	OK               bool                    `json:"ok"`
	Message          string                  `json:"message,omitempty"`
	Backfill         BackfillStats           `json:"backfill"`
	LifeThemes       *ThemeSet               `json:"life_themes,omitempty"`
	Profile          *models.LifetimeProfile `json:"lifetime_profile,omitempty"`
	InsightsInserted []models.Insight        `json:"insights_inserted,omitempty"`
	UsedFallback     bool                    `json:"used_fallback,omitempty"`
}

// Rebuilder performs the expensive cross-session resynthesis triggered by
// an explicit end-session action.
type Rebuilder struct {
	store          *storage.Storage
	gen            llm.Generator
	backfillWindow time.Duration
	fallbackCount  int
}

// NewRebuilder creates a Rebuilder.
func NewRebuilder(store *storage.Storage, gen llm.Generator) *Rebuilder {
	return &Rebuilder{
		store:          store,
		gen:            gen,
		backfillWindow: DefaultBackfillWindow,
		fallbackCount:  DefaultFallbackSummaryCount,
	}
}

// SetBackfillWindow overrides how far back the backfill scan reaches.
func (r *Rebuilder) SetBackfillWindow(d time.Duration) {
	if d > 0 {
		r.backfillWindow = d
	}
}

// SetFallbackCount overrides how many recent summaries the deterministic
// fallback folds in.
func (r *Rebuilder) SetFallbackCount(n int) {
	if n > 0 {
		r.fallbackCount = n
	}
}

// Rebuild backfills missing summaries, distills 3-6 durable life themes
// plus a master narrative, merges them into the lifetime profile, and
// atomically replaces the user's insight rows. Generative failure degrades
// to a deterministic fallback; only storage failures are hard errors.
func (r *Rebuilder) Rebuild(ctx context.Context, userID string) (*RebuildResult, error) {
	if userID == "" {
		return nil, fmt.Errorf("user_id is required")
	}

	stats, err := r.backfill(userID)
	if err != nil {
		return nil, fmt.Errorf("backfill: %w", err)
	}

	summaries, err := r.store.Summaries.ListByUser(userID)
	if err != nil {
		return nil, fmt.Errorf("loading summaries: %w", err)
	}

	// Pre-data state: nothing to distill and nothing worth persisting.
	// The caller gets a coherent placeholder payload instead of an error.
	if len(summaries) == 0 {
		return &RebuildResult{
			OK:       true,
			Message:  "nothing to rebuild",
			Backfill: stats,
			LifeThemes: &ThemeSet{
				SummarySentence: "No recorded memories yet.",
				MasterPage:      "This life story has not been started. Record a first memory to begin.",
				Themes:          []Theme{},
			},
		}, nil
	}

	themes, usedFallback := r.distill(ctx, summaries)

	profile, err := r.mergeThemesIntoProfile(userID, themes)
	if err != nil {
		return nil, fmt.Errorf("merging profile: %w", err)
	}

	inserted, err := r.replaceInsights(userID, summaries, themes)
	if err != nil {
		return nil, fmt.Errorf("replacing insights: %w", err)
	}

	return &RebuildResult{
		OK:               true,
		Backfill:         stats,
		LifeThemes:       themes,
		Profile:          profile,
		InsightsInserted: inserted,
		UsedFallback:     usedFallback,
	}, nil
}

// backfill scans the recent turn window, groups turns by conversation, and
// synthesizes a minimal summary for every conversation that has none. This
// guards against conversations the incremental summarizer never reached.
func (r *Rebuilder) backfill(userID string) (BackfillStats, error) {
	stats := BackfillStats{}
	since := time.Now().UTC().Add(-r.backfillWindow)
	turns, err := r.store.Turns.ListSince(userID, since)
	if err != nil {
		return stats, fmt.Errorf("scanning turns: %w", err)
	}

	// Group by conversation, preserving first-seen order.
	groups := make(map[string][]models.RawTurn)
	var order []string
	for _, turn := range turns {
		if _, seen := groups[turn.ConversationID]; !seen {
			order = append(order, turn.ConversationID)
		}
		groups[turn.ConversationID] = append(groups[turn.ConversationID], turn)
	}
	stats.ScannedSessions = len(order)

	for _, conversationID := range order {
		exists, err := r.store.Summaries.Exists(userID, conversationID)
		if err != nil {
			return stats, fmt.Errorf("checking summary for %s: %w", conversationID, err)
		}
		if exists {
			continue
		}

		group := groups[conversationID]
		summary := synthesizeSummary(userID, conversationID, group)
		if err := r.store.Summaries.Upsert(summary); err != nil {
			return stats, fmt.Errorf("inserting backfill summary for %s: %w", conversationID, err)
		}
		stats.Inserted++
	}

	return stats, nil
}

// synthesizeSummary builds a minimal non-generative summary for a
// conversation: title from the first user line, body from the first few
// lines of each role.
func synthesizeSummary(userID, conversationID string, turns []models.RawTurn) *models.ConversationSummary {
	title := "Untitled conversation"
	for _, turn := range turns {
		if turn.IsUser() && strings.TrimSpace(turn.Content) != "" {
			title = truncateText(firstLine(turn.Content), backfillTitleLen)
			break
		}
	}

	var lines []string
	for _, turn := range turns {
		if len(lines) >= backfillMaxLines {
			break
		}
		content := strings.TrimSpace(firstLine(turn.Content))
		if content == "" {
			continue
		}
		lines = append(lines, fmt.Sprintf("%s: %s", turn.Role, truncateText(content, backfillLineLen)))
	}

	anchor := int64(0)
	if len(turns) > 0 {
		anchor = turns[len(turns)-1].ID
	}

	return &models.ConversationSummary{
		UserID:         userID,
		ConversationID: conversationID,
		Anchor:         anchor,
		ShortSummary:   title,
		FullSummary:    strings.Join(lines, "\n"),
		UpdatedAt:      time.Now().UTC(),
	}
}

// distill asks the model for the cross-session theme set; any generation
// or shape failure degrades to the deterministic fallback. The rebuild
// never fails for lack of good model output.
func (r *Rebuilder) distill(ctx context.Context, summaries []models.ConversationSummary) (*ThemeSet, bool) {
	prompt := buildThemesPrompt(summaries)
	raw, err := r.gen.Generate(ctx, prompt, llm.Options{
		Temperature: 0.4,
		MaxTokens:   3000,
		Schema:      &ThemeSet{},
		SchemaName:  "life_themes",
	})
	if err != nil {
		log.Printf("[Rebuilder] generation failed, using fallback: %v", err)
		return r.fallbackThemes(summaries), true
	}

	var themes ThemeSet
	if err := util.DecodeJSON(raw, &themes); err != nil {
		log.Printf("[Rebuilder] unparsable output, using fallback: %v", err)
		return r.fallbackThemes(summaries), true
	}
	if err := validateThemeSet(&themes); err != nil {
		log.Printf("[Rebuilder] invalid theme shape, using fallback: %v", err)
		return r.fallbackThemes(summaries), true
	}

	return &themes, false
}

func validateThemeSet(themes *ThemeSet) error {
	if strings.TrimSpace(themes.SummarySentence) == "" {
		return fmt.Errorf("missing summary_sentence")
	}
	if strings.TrimSpace(themes.MasterPage) == "" {
		return fmt.Errorf("missing master_page")
	}
	if len(themes.Themes) == 0 {
		return fmt.Errorf("no themes returned")
	}
	for i, theme := range themes.Themes {
		if strings.TrimSpace(theme.Key) == "" ||
			strings.TrimSpace(theme.Title) == "" ||
			strings.TrimSpace(theme.Description) == "" {
			return fmt.Errorf("theme %d has empty fields", i)
		}
	}
	return nil
}

// fallbackThemes builds a deterministic, non-generative theme set from the
// most recent summaries so the rebuild always produces something useful.
func (r *Rebuilder) fallbackThemes(summaries []models.ConversationSummary) *ThemeSet {
	recent := summaries
	if len(recent) > r.fallbackCount {
		recent = recent[len(recent)-r.fallbackCount:]
	}

	var lines []string
	for _, summary := range recent {
		lines = append(lines, fmt.Sprintf("[%s] %s",
			summary.UpdatedAt.Format("2006-01-02"), summary.BestSummary()))
	}
	page := truncateText(strings.Join(lines, "\n\n"), fallbackPageLen)

	return &ThemeSet{
		SummarySentence: fmt.Sprintf("A life story drawn from %d recorded conversations, still being distilled.", len(summaries)),
		MasterPage:      page,
		Themes: []Theme{
			{
				Key:         "recent_reflections",
				Title:       "Recent reflections",
				Description: truncateText(strings.Join(lines, " "), fallbackPageLen),
			},
		},
	}
}

// mergeThemesIntoProfile writes the theme set under the profile's
// life_themes observation key, preserving every other key.
func (r *Rebuilder) mergeThemesIntoProfile(userID string, themes *ThemeSet) (*models.LifetimeProfile, error) {
	profile, err := r.store.Profiles.Get(userID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		profile = &models.LifetimeProfile{UserID: userID}
	}
	profile.SetObservation("life_themes", themes)
	profile.UpdatedAt = time.Now().UTC()
	if err := r.store.Profiles.Save(profile); err != nil {
		return nil, err
	}
	return profile, nil
}

// replaceInsights swaps the user's derived insight rows for the new set:
// one lifetime_overview plus one life_theme per theme.
func (r *Rebuilder) replaceInsights(userID string, summaries []models.ConversationSummary, themes *ThemeSet) ([]models.Insight, error) {
	sources := make([]string, len(summaries))
	for i, summary := range summaries {
		sources[i] = summary.ConversationID
	}
	now := time.Now().UTC()
	meta := models.InsightMetadata{
		RebuiltAt:    now,
		SessionCount: len(summaries),
	}

	rows := []models.Insight{
		{
			ID:                    uuid.New().String(),
			UserID:                userID,
			Type:                  models.InsightLifetimeOverview,
			Title:                 themes.SummarySentence,
			Content:               themes.MasterPage,
			Confidence:            1.0,
			SourceConversationIDs: sources,
			Metadata:              meta,
			CreatedAt:             now,
		},
	}
	for _, theme := range themes.Themes {
		rows = append(rows, models.Insight{
			ID:                    uuid.New().String(),
			UserID:                userID,
			Type:                  models.InsightLifeTheme,
			Title:                 theme.Title,
			Content:               theme.Description,
			Confidence:            1.0,
			Tags:                  []string{theme.Key},
			SourceConversationIDs: sources,
			Metadata:              meta,
			CreatedAt:             now,
		})
	}

	if err := r.store.Insights.ReplaceForUser(userID, rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func buildThemesPrompt(summaries []models.ConversationSummary) string {
	var b strings.Builder
	b.WriteString(themesPromptHeader)
	b.WriteString("\n\nConversation summaries:\n")
	for _, summary := range summaries {
		fmt.Fprintf(&b, "[%s] %s\n", summary.UpdatedAt.Format("2006-01-02"), summary.BestSummary())
	}
	return b.String()
}

func firstLine(s string) string {
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		return s[:idx]
	}
	return s
}

func truncateText(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}
