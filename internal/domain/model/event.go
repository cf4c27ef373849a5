// Package model contains wire models passed between layers.
package model

import (
	"time"

	"github.com/okian/sideout/internal/domain/event"
)

// Submission represents one scouting event uploaded by a client.
// Fields mirror the OpenAPI schema for POST /sets/{id}/events.
type Submission struct {
	SubmissionID string    `json:"submission_id"` // unique id for idempotency
	Timestamp    time.Time `json:"timestamp"`
	Type         string    `json:"type"`
	Evaluation   string    `json:"evaluation,omitempty"`
	Player       string    `json:"player,omitempty"`
	Target       string    `json:"target,omitempty"`
}

// Entry converts the wire submission to a domain log entry. Shape and
// legality checks happen downstream; this is a plain field mapping.
func (s Submission) Entry() event.Entry {
	return event.Entry{
		Timestamp:  s.Timestamp,
		Type:       event.Type(s.Type),
		Evaluation: event.Evaluation(s.Evaluation),
		Player:     event.PlayerID(s.Player),
		Target:     event.PlayerID(s.Target),
	}
}

// SetSetup represents the wire payload creating a set.
type SetSetup struct {
	SetNumber      int      `json:"set_number"`
	ServingUs      bool     `json:"serving_us"`
	Starting       []string `json:"starting_six"`
	Setter         string   `json:"setter"`
	Libero         string   `json:"libero"`
	FallbackLibero string   `json:"fallback_libero,omitempty"`
}
