// ABOUTME: LifetimeProfile is the long-horizon narrative, one row per user
// ABOUTME: Observations is an open JSON object so rebuilds can merge keys partially
package models

import "time"

// LifetimeProfile is the durable per-user narrative. Each update merges
// the previous narrative with the latest conversation summary rather than
// replacing it, so captured facts do not regress.
type LifetimeProfile struct {
	UserID       string         `json:"user_id"`
	FullProfile  string         `json:"full_profile"`
	Observations map[string]any `json:"observations,omitempty"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// SetObservation sets one key in the structured observations, preserving
// all other keys. Used by the insight rebuilder to merge life_themes in
// without clobbering what the profile merger has accumulated.
func (p *LifetimeProfile) SetObservation(key string, value any) {
	if p.Observations == nil {
		p.Observations = make(map[string]any)
	}
	p.Observations[key] = value
}

// MergeObservations overlays the given keys onto the existing observations,
// keeping keys the incoming map does not mention.
func (p *LifetimeProfile) MergeObservations(incoming map[string]any) {
	for k, v := range incoming {
		p.SetObservation(k, v)
	}
}
