// Package types contains the JSON view types served by the HTTP API.
package types

import "time"

// Score is a running or final score pair.
type Score struct {
	Us   int `json:"us"`
	Them int `json:"them"`
}

// Partial is the score frozen when the leading side crossed a threshold.
type Partial struct {
	Threshold int `json:"threshold"`
	Us        int `json:"us"`
	Them      int `json:"them"`
}

// SetView is the full live view of one set.
type SetView struct {
	ID        string    `json:"id"`
	SetNumber int       `json:"set_number"`
	Phase     string    `json:"phase"`
	Rotation  int       `json:"rotation"`
	Score     Score     `json:"score"`
	Partials  []Partial `json:"partials"`
	Court     []string  `json:"court"` // players by slot, serve slot first
	Libero    string    `json:"libero"`
	Subs      int       `json:"substitutions_used"`
	Legal     []string  `json:"legal_events"`
	Complete  bool      `json:"complete"`
	Winner    string    `json:"winner,omitempty"`
	Events    int       `json:"event_count"`
}

// EventRow is one accepted event as read back from the log.
type EventRow struct {
	Timestamp  time.Time `json:"timestamp"`
	Type       string    `json:"type"`
	Evaluation string    `json:"evaluation,omitempty"`
	Player     string    `json:"player,omitempty"`
	Target     string    `json:"target,omitempty"`
}

// SetSummary is the listing row for one stored set.
type SetSummary struct {
	ID        string    `json:"id"`
	SetNumber int       `json:"set_number"`
	Score     Score     `json:"score"`
	Complete  bool      `json:"complete"`
	CreatedAt time.Time `json:"created_at"`
	Events    int       `json:"event_count"`
}

// Metric is one derived report figure. Defined is false when no event
// matched the denominator, which is distinct from a value of zero.
type Metric struct {
	Name    string  `json:"name"`
	Value   float64 `json:"value"`
	Defined bool    `json:"defined"`
}

// Report aggregates one set for post-game reading.
type Report struct {
	SetID    string         `json:"set_id"`
	Score    Score          `json:"score"`
	Partials []Partial      `json:"partials"`
	Winner   string         `json:"winner,omitempty"`
	Counts   map[string]int `json:"counts_by_type"`
	Metrics  []Metric       `json:"metrics"`
}

// MatchReport merges several set reports into whole-match figures.
type MatchReport struct {
	SetIDs  []string       `json:"set_ids"`
	SetsWon Score          `json:"sets_won"`
	Counts  map[string]int `json:"counts_by_type"`
	Metrics []Metric       `json:"metrics"`
}
