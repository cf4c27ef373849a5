// Package event defines the scouting event model: the closed set of event
// types and touch evaluations, the immutable log entry, and the lookup
// tables that drive phase transitions and legal-event computation.
package event

import (
	"fmt"
	"time"
)

// Type identifies the type of a scouting event.
type Type string

// Rally events.
const (
	// TypeServe records a serve by our team.
	TypeServe Type = "serve"
	// TypePass records a serve reception.
	TypePass Type = "pass"
	// TypeAttack records an attack swing.
	TypeAttack Type = "attack"
	// TypeDig records a defensive dig.
	TypeDig Type = "dig"
	// TypeBlock records a block touch.
	TypeBlock Type = "block"
	// TypeFault records a fault committed by our team.
	TypeFault Type = "fault"
	// TypeOpponentScore records a point scored directly by the opponent.
	TypeOpponentScore Type = "opponent_score"
	// TypeOpponentError records a point gifted by an opponent error.
	TypeOpponentError Type = "opponent_error"
)

// Bookkeeping events. These wrap around a rally without advancing it.
const (
	// TypeSubstitution records a player substitution.
	TypeSubstitution Type = "substitution"
	// TypeChangeLibero records a switch to the fallback libero.
	TypeChangeLibero Type = "change_libero"
	// TypeChangeSetter records a change of the designated setter.
	TypeChangeSetter Type = "change_setter"
)

// Evaluation grades a touch. Codes follow the scouting convention used on
// the wire (one rune per grade).
type Evaluation string

const (
	// EvalPerfect is a point-winning or flawless touch.
	EvalPerfect Evaluation = "#"
	// EvalPositive is a touch that keeps full options open.
	EvalPositive Evaluation = "+"
	// EvalExclamative is a workable touch with reduced options.
	EvalExclamative Evaluation = "!"
	// EvalOver is a touch that hands the ball straight to the opponent.
	EvalOver Evaluation = "/"
	// EvalError is a touch that loses the point outright.
	EvalError Evaluation = "="
	// EvalNegative is a poor touch that leaves the team scrambling.
	EvalNegative Evaluation = "-"
)

// Phase is the serving state of our team.
type Phase string

const (
	// PhaseBreak means our team is serving.
	PhaseBreak Phase = "break"
	// PhaseSideOut means our team is receiving.
	PhaseSideOut Phase = "side_out"
)

// PlayerID identifies a rostered player.
type PlayerID string

// Entry is one immutable scouting event. Entries are ordered by timestamp,
// persisted append-only, and replayed in full to reconstruct state.
type Entry struct {
	Timestamp  time.Time
	Type       Type
	Evaluation Evaluation // set only for evaluated types
	Player     PlayerID   // acting player, when the type involves one
	Target     PlayerID   // substitution replacement or incoming libero
}

// Types returns every event type in a fixed order.
func Types() []Type {
	return []Type{
		TypeServe, TypePass, TypeAttack, TypeDig, TypeBlock,
		TypeFault, TypeOpponentScore, TypeOpponentError,
		TypeSubstitution, TypeChangeLibero, TypeChangeSetter,
	}
}

// Evaluations returns every evaluation grade in a fixed order.
func Evaluations() []Evaluation {
	return []Evaluation{
		EvalPerfect, EvalPositive, EvalExclamative,
		EvalOver, EvalError, EvalNegative,
	}
}

// HasEvaluation reports whether entries of type t carry an evaluation.
func HasEvaluation(t Type) bool {
	switch t {
	case TypeServe, TypePass, TypeAttack, TypeDig, TypeBlock:
		return true
	default:
		return false
	}
}

// NeedsPlayer reports whether entries of type t name an acting player.
func NeedsPlayer(t Type) bool {
	switch t {
	case TypeServe, TypePass, TypeAttack, TypeDig, TypeBlock,
		TypeSubstitution, TypeChangeSetter:
		return true
	default:
		return false
	}
}

// IsBookkeeping reports whether t wraps around a rally without advancing it.
// Bookkeeping entries never become the rally-context last event and leave
// the legal-event set untouched.
func IsBookkeeping(t Type) bool {
	switch t {
	case TypeSubstitution, TypeChangeLibero, TypeChangeSetter:
		return true
	default:
		return false
	}
}

// knownType reports whether t is part of the closed type set.
func knownType(t Type) bool {
	for _, k := range Types() {
		if k == t {
			return true
		}
	}
	return false
}

// knownEvaluation reports whether e is part of the closed evaluation set.
func knownEvaluation(e Evaluation) bool {
	for _, k := range Evaluations() {
		if k == e {
			return true
		}
	}
	return false
}

// Validate checks the shape of an entry: known type, evaluation present
// exactly when the type is evaluated, acting player present when required,
// and a target only on substitution-style entries.
func (e Entry) Validate() error {
	if !knownType(e.Type) {
		return fmt.Errorf("%w: %q", ErrUnknownType, e.Type)
	}
	if HasEvaluation(e.Type) {
		if e.Evaluation == "" {
			return fmt.Errorf("%w: %s requires an evaluation", ErrMalformedEntry, e.Type)
		}
		if !knownEvaluation(e.Evaluation) {
			return fmt.Errorf("%w: %q", ErrUnknownEvaluation, e.Evaluation)
		}
	} else if e.Evaluation != "" {
		return fmt.Errorf("%w: %s does not take an evaluation", ErrMalformedEntry, e.Type)
	}
	if NeedsPlayer(e.Type) && e.Player == "" {
		return fmt.Errorf("%w: %s requires a player", ErrMalformedEntry, e.Type)
	}
	if e.Type == TypeSubstitution && e.Target == "" {
		return fmt.Errorf("%w: substitution requires a replacement", ErrMalformedEntry)
	}
	if e.Target != "" && e.Type != TypeSubstitution && e.Type != TypeChangeLibero {
		return fmt.Errorf("%w: %s does not take a target player", ErrMalformedEntry, e.Type)
	}
	return nil
}
