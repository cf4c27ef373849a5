// Package snapshot owns the live state of one set: score, partials, the
// lineup, the statistics bundle, and the legal-next-event set. It applies
// one event at a time in a fixed order and is rebuilt from cold storage by
// replaying the full event log.
package snapshot

import (
	"fmt"
	"time"

	"github.com/okian/sideout/internal/domain/event"
	"github.com/okian/sideout/internal/domain/lineup"
	"github.com/okian/sideout/internal/domain/stats"
)

// Side identifies which team a point or set went to.
type Side string

const (
	SideUs   Side = "us"
	SideThem Side = "them"
)

// Score targets: 25 per set, 15 for the tie break, always with a two point
// lead.
const (
	targetScore         = 25
	tieBreakTargetScore = 15
	tieBreakSetNumber   = 5
	winMargin           = 2
)

// partialThresholds are the running scores at which a partial is recorded.
var partialThresholds = []int{8, 16, 21}

// Descriptor is the set configuration consumed at construction time.
type Descriptor struct {
	SetNumber      int
	ServingUs      bool
	Starting       [6]event.PlayerID
	Setter         event.PlayerID
	Libero         event.PlayerID
	FallbackLibero event.PlayerID // optional
}

// Partial is the score pair frozen the first time the leading side crossed
// one of the partial thresholds. Reporting only; never consulted by rules.
type Partial struct {
	Threshold int
	Us        int
	Them      int
}

// Snapshot is the primary state machine for one set.
type Snapshot struct {
	descriptor Descriptor

	scoreUs   int
	scoreThem int
	lineup    *lineup.Lineup
	stats     *stats.Bundle

	lastEvent *event.Entry
	lastTime  time.Time

	partials     []Partial
	partialsSeen map[int]bool

	legal event.TypeSet
}

// New builds a fresh snapshot for a set. Construction fails only on
// configuration errors: a descriptor that cannot produce a valid lineup.
func New(d Descriptor) (*Snapshot, error) {
	if d.SetNumber < 1 {
		return nil, fmt.Errorf("%w: set number %d", ErrBadDescriptor, d.SetNumber)
	}
	phase := event.PhaseSideOut
	if d.ServingUs {
		phase = event.PhaseBreak
	}
	l, err := lineup.New(d.Starting, phase, d.Setter, d.Libero)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadDescriptor, err)
	}

	s := &Snapshot{
		descriptor:   d,
		lineup:       l,
		stats:        stats.NewBundle(),
		partialsSeen: make(map[int]bool, len(partialThresholds)),
		legal:        event.LegalInitial(d.ServingUs),
	}
	s.legal = s.trimLegal(s.legal)
	return s, nil
}

// trimLegal drops options the descriptor does not support.
func (s *Snapshot) trimLegal(set event.TypeSet) event.TypeSet {
	if s.descriptor.FallbackLibero == "" {
		return set.Without(event.TypeChangeLibero)
	}
	return set
}

// Descriptor returns the construction-time configuration.
func (s *Snapshot) Descriptor() Descriptor { return s.descriptor }

// Score returns the running (us, them) score.
func (s *Snapshot) Score() (int, int) { return s.scoreUs, s.scoreThem }

// Phase returns the current phase.
func (s *Snapshot) Phase() event.Phase { return s.lineup.Phase() }

// Rotation returns the setter's current slot index.
func (s *Snapshot) Rotation() int { return s.lineup.Rotation() }

// Lineup exposes the owned lineup for read access.
func (s *Snapshot) Lineup() *lineup.Lineup { return s.lineup }

// Stats exposes the owned statistics bundle.
func (s *Snapshot) Stats() *stats.Bundle { return s.stats }

// Partials returns the recorded partial scores in threshold order.
func (s *Snapshot) Partials() []Partial {
	out := make([]Partial, len(s.partials))
	copy(out, s.partials)
	return out
}

// LastEvent returns the rally-context event the next predicates evaluate
// against, or nil before the first rally entry.
func (s *Snapshot) LastEvent() *event.Entry {
	if s.lastEvent == nil {
		return nil
	}
	cp := *s.lastEvent
	return &cp
}

// Legal returns the legal-next-event set. Empty once a winner is known.
func (s *Snapshot) Legal() event.TypeSet {
	if _, done := s.Winner(); done {
		return event.NewTypeSet()
	}
	return s.legal
}

// Winner returns the side that has taken the set, if any: target score
// reached (25, or 15 on set five) with a lead of at least two.
func (s *Snapshot) Winner() (Side, bool) {
	target := targetScore
	if s.descriptor.SetNumber == tieBreakSetNumber {
		target = tieBreakTargetScore
	}
	switch {
	case s.scoreUs >= target && s.scoreUs-s.scoreThem >= winMargin:
		return SideUs, true
	case s.scoreThem >= target && s.scoreThem-s.scoreUs >= winMargin:
		return SideThem, true
	default:
		return "", false
	}
}

// Apply validates one event and, only if it is legal, runs the fixed update
// order: score, statistics, next-phase lookup, lineup side effects under
// the new phase, legal-set recompute. It returns the legal set for the next
// event. A rejected event mutates nothing.
func (s *Snapshot) Apply(e event.Entry) (event.TypeSet, error) {
	if err := s.validate(&e); err != nil {
		return nil, err
	}

	// 1. Score and partials.
	switch {
	case event.AwardsPointUs(e.Type, e.Evaluation):
		s.scoreUs++
		s.recordPartials()
	case event.AwardsPointThem(e.Type, e.Evaluation):
		s.scoreThem++
		s.recordPartials()
	}

	// 2. Statistics, under the pre-transition phase and rotation.
	s.stats.Record(e, stats.Context{
		Phase:     s.lineup.Phase(),
		Rotation:  s.lineup.Rotation(),
		LastEvent: s.lastEvent,
	})

	// 3. Next-phase lookup; no match leaves the phase unchanged.
	next := s.lineup.Phase()
	if p, changed := event.NextPhase(e.Type, e.Evaluation, next); changed {
		next = p
	}

	// 4. Lineup side effects under the new phase.
	if _, err := s.lineup.ApplyEventSideEffects(e, next); err != nil {
		// Only bookkeeping handlers can fail, and they run before any of
		// their own mutations; score and stats were no-ops for them.
		return nil, s.reject(e, err)
	}

	// 5. Legal set and rally context. Bookkeeping entries pass both
	// through untouched.
	if legal, ok := event.LegalAfter(e.Type, e.Evaluation); ok {
		s.legal = s.trimLegal(legal)
	}
	if !event.IsBookkeeping(e.Type) {
		cp := e
		s.lastEvent = &cp
	}
	s.lastTime = e.Timestamp

	return s.Legal(), nil
}

// validate runs every check before any state mutation. ChangeLibero
// defaults its target to the descriptor's fallback libero.
func (s *Snapshot) validate(e *event.Entry) error {
	if _, done := s.Winner(); done {
		return ErrSetComplete
	}
	if e.Type == event.TypeChangeLibero && e.Target == "" {
		e.Target = s.descriptor.FallbackLibero
	}
	if err := e.Validate(); err != nil {
		return s.reject(*e, err)
	}
	if !s.legal.Has(e.Type) {
		return s.reject(*e, fmt.Errorf("%w: %s", ErrNotLegalNow, e.Type))
	}
	if !e.Timestamp.IsZero() && !s.lastTime.IsZero() && e.Timestamp.Before(s.lastTime) {
		return s.reject(*e, ErrOutOfOrder)
	}

	switch e.Type {
	case event.TypeServe, event.TypePass, event.TypeAttack, event.TypeDig, event.TypeBlock:
		if !s.lineup.OnCourt(e.Player) {
			return s.reject(*e, fmt.Errorf("%w: %s", lineup.ErrPlayerNotOnCourt, e.Player))
		}
	}
	switch e.Type {
	case event.TypeAttack, event.TypeBlock:
		if e.Player == s.lineup.Libero() {
			return s.reject(*e, fmt.Errorf("%w: libero cannot %s", ErrForbiddenPlayer, e.Type))
		}
	}
	if e.Type == event.TypeBlock && s.lineup.IsBackRow(e.Player) {
		return s.reject(*e, fmt.Errorf("%w: back-row player cannot block", ErrForbiddenPlayer))
	}
	return nil
}

// recordPartials freezes the score pair the first time the leading side has
// crossed a threshold.
func (s *Snapshot) recordPartials() {
	for _, threshold := range partialThresholds {
		if s.partialsSeen[threshold] {
			continue
		}
		leaderPast := (s.scoreUs >= threshold && s.scoreUs > s.scoreThem) ||
			(s.scoreThem >= threshold && s.scoreThem > s.scoreUs)
		if leaderPast {
			s.partialsSeen[threshold] = true
			s.partials = append(s.partials, Partial{Threshold: threshold, Us: s.scoreUs, Them: s.scoreThem})
		}
	}
}

// reject wraps a validation failure with the context a caller needs to
// retry: the offending entry and the currently legal types.
func (s *Snapshot) reject(e event.Entry, reason error) error {
	return &IllegalEventError{
		Entry:  e,
		Legal:  s.Legal().Sorted(),
		Reason: reason,
	}
}
