// ABOUTME: Incremental per-conversation summary maintenance
// ABOUTME: Processes only turns newer than the stored anchor, then fires best-effort enrichment
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

// DefaultFirstRunTurnLimit caps how many turns a first summarization run
// reads, so a long pre-existing transcript does not blow up the first call.
const DefaultFirstRunTurnLimit = 50

const summaryPromptHeader = `You are maintaining the rolling summary of one recorded conversation in a
personal legacy archive. Focus on the USER: their memories, people, places,
feelings, and facts about their life. The assistant's words only matter as
context for what the user said.

Return ONLY a single JSON object with these fields:
- "short_summary": 1-2 sentences capturing the heart of the conversation so far
- "full_summary": a multi-paragraph narrative. It must BUILD ON the previous
  summary when one is given: keep every fact already captured and weave the
  new turns in. Never drop or contradict earlier material.
- "observations": an object with optional arrays "themes", "emotions",
  "follow_ups" (questions worth asking the user later), and "chapters"
  (objects with "chapter" and a 0-100 "score").`

// SummaryOutcome is the structured result of one summarization run.
type SummaryOutcome struct {
	NoNewTurns     bool                `json:"no_new_turns,omitempty"`
	Message        string              `json:"message,omitempty"`
	ShortSummary   string              `json:"short_summary,omitempty"`
	FullSummary    string              `json:"full_summary,omitempty"`
	Observations   models.Observations `json:"observations"`
	RawID          int64               `json:"raw_id,omitempty"`
	ConversationID string              `json:"conversation_id,omitempty"`
}

// summaryPayload is the strict schema the model must produce.
type summaryPayload struct {
	ShortSummary string              `json:"short_summary"`
	FullSummary  string              `json:"full_summary"`
	Observations models.Observations `json:"observations"`
}

// Summarizer keeps one up-to-date ConversationSummary per conversation.
type Summarizer struct {
	store         *storage.Storage
	gen           llm.Generator
	firstRunLimit int

	// enrichment runs after a successful summary write; each entry is
	// best-effort and may not fail the summarization.
	profiler *Profiler
	coverage *CoverageAggregator
}

// NewSummarizer creates a Summarizer. Either enrichment dependency may be
// nil, in which case that side effect is skipped.
func NewSummarizer(store *storage.Storage, gen llm.Generator, profiler *Profiler, coverage *CoverageAggregator) *Summarizer {
	return &Summarizer{
		store:         store,
		gen:           gen,
		firstRunLimit: DefaultFirstRunTurnLimit,
		profiler:      profiler,
		coverage:      coverage,
	}
}

// SetFirstRunTurnLimit overrides the first-run read cap.
func (s *Summarizer) SetFirstRunTurnLimit(n int) {
	if n > 0 {
		s.firstRunLimit = n
	}
}

// SummarizeConversation loads turns newer than the stored anchor, asks the
// model for an enriched summary, and upserts the single summary row for the
// conversation. A run with no new turns is a no-op, not an error.
func (s *Summarizer) SummarizeConversation(ctx context.Context, userID, conversationID string) (*SummaryOutcome, error) {
	if userID == "" || conversationID == "" {
		return nil, fmt.Errorf("user_id and conversation_id are required")
	}

	current, err := s.store.Summaries.Get(userID, conversationID)
	if err != nil {
		return nil, fmt.Errorf("loading current summary: %w", err)
	}

	var turns []models.RawTurn
	if current != nil {
		turns, err = s.store.Turns.ListAfter(userID, conversationID, current.Anchor, 0)
	} else {
		turns, err = s.store.Turns.ListRecent(userID, conversationID, s.firstRunLimit)
	}
	if err != nil {
		return nil, fmt.Errorf("loading turns: %w", err)
	}

	if len(turns) == 0 {
		return &SummaryOutcome{NoNewTurns: true, Message: "no new rows"}, nil
	}

	prompt := buildSummaryPrompt(current, turns)
	raw, err := s.gen.Generate(ctx, prompt, llm.Options{
		Temperature: 0.3,
		MaxTokens:   1500,
		Schema:      &summaryPayload{},
		SchemaName:  "conversation_summary",
	})
	if err != nil {
		return nil, fmt.Errorf("generation failed: %w", err)
	}

	var payload summaryPayload
	if err := util.DecodeJSON(raw, &payload); err != nil {
		return nil, fmt.Errorf("unparsable summary output: %w", err)
	}
	if strings.TrimSpace(payload.ShortSummary) == "" || strings.TrimSpace(payload.FullSummary) == "" {
		return nil, fmt.Errorf("summary output missing required fields")
	}

	anchor := turns[len(turns)-1].ID
	next := &models.ConversationSummary{
		UserID:         userID,
		ConversationID: conversationID,
		Anchor:         anchor,
		ShortSummary:   payload.ShortSummary,
		FullSummary:    payload.FullSummary,
		Observations:   payload.Observations,
		UpdatedAt:      time.Now().UTC(),
	}
	if err := s.store.Summaries.Upsert(next); err != nil {
		return nil, fmt.Errorf("saving summary: %w", err)
	}

	s.runEnrichment(ctx, userID, payload.FullSummary)

	return &SummaryOutcome{
		ShortSummary:   payload.ShortSummary,
		FullSummary:    payload.FullSummary,
		Observations:   payload.Observations,
		RawID:          anchor,
		ConversationID: conversationID,
	}, nil
}

// runEnrichment executes the best-effort side effects of a summary write.
// Each task fails independently; none of them may fail the summarization.
func (s *Summarizer) runEnrichment(ctx context.Context, userID, fullSummary string) {
	type task struct {
		name string
		run  func(context.Context) error
	}

	var tasks []task
	if s.profiler != nil {
		tasks = append(tasks, task{"profile merge", func(ctx context.Context) error {
			return s.profiler.MergeSummary(ctx, userID, fullSummary)
		}})
	}
	if s.coverage != nil {
		tasks = append(tasks, task{"coverage recompute", func(ctx context.Context) error {
			return s.coverage.Recompute(ctx, userID)
		}})
	}

	for _, t := range tasks {
		if err := t.run(ctx); err != nil {
			log.Printf("[Summarizer] enrichment %s failed: %v", t.name, err)
		}
	}
}

func buildSummaryPrompt(current *models.ConversationSummary, turns []models.RawTurn) string {
	var b strings.Builder
	b.WriteString(summaryPromptHeader)
	b.WriteString("\n\n")

	if current != nil && current.FullSummary != "" {
		b.WriteString("Previous summary of this conversation:\n")
		b.WriteString(current.FullSummary)
		b.WriteString("\n\n")
	}

	b.WriteString("New turns to incorporate:\n")
	for _, turn := range turns {
		b.WriteString(string(turn.Role))
		b.WriteString(": ")
		b.WriteString(turn.Content)
		b.WriteString("\n")
	}

	return b.String()
}
