// Package stats maintains the per-set fact tables and the derived metrics
// computed on top of them. Every table is purely additive: recording is
// incremental during event application, and merging tables from several
// sets yields match totals without recomputation.
package stats

import (
	"github.com/okian/sideout/internal/domain/event"
)

// Key is the composite dimension key shared by the fact tables. Unused
// dimensions stay at their zero value for a given table. Zone 0 means the
// event carried no court zone.
type Key struct {
	Type       event.Type
	Phase      event.Phase
	Rotation   int
	Player     event.PlayerID
	Zone       int
	Evaluation event.Evaluation
}

// Filter constrains a Query or Sum over Key-based tables. Absent filters
// mean no constraint.
type Filter = func(Key) bool

// WithType matches entries of one event type.
func WithType(t event.Type) Filter {
	return func(k Key) bool { return k.Type == t }
}

// WithPhase matches entries recorded in one phase.
func WithPhase(p event.Phase) Filter {
	return func(k Key) bool { return k.Phase == p }
}

// WithRotation matches entries recorded in one rotation.
func WithRotation(r int) Filter {
	return func(k Key) bool { return k.Rotation == r }
}

// WithPlayer matches entries for one player.
func WithPlayer(id event.PlayerID) Filter {
	return func(k Key) bool { return k.Player == id }
}

// WithZone matches entries for one court zone.
func WithZone(z int) Filter {
	return func(k Key) bool { return k.Zone == z }
}

// WithEvaluation matches entries with one evaluation grade.
func WithEvaluation(e event.Evaluation) Filter {
	return func(k Key) bool { return k.Evaluation == e }
}

// Counter names a running tally kept per phase and rotation.
type Counter string

const (
	// CounterScoredPoint counts every point our team scored.
	CounterScoredPoint Counter = "scored_point"
	// CounterEarnedPoint counts points won by our own action, excluding
	// opponent errors.
	CounterEarnedPoint Counter = "earned_point"
	// CounterPhase counts attack phases mounted.
	CounterPhase Counter = "phase"
	// CounterPossession counts ball possessions gained through reception
	// or defense.
	CounterPossession Counter = "possession"
)

// CounterKey keys the counter table.
type CounterKey struct {
	Counter  Counter
	Phase    event.Phase
	Rotation int
}

// CounterFilter constrains counter queries.
type CounterFilter = func(CounterKey) bool

// WithCounter matches one counter kind.
func WithCounter(c Counter) CounterFilter {
	return func(k CounterKey) bool { return k.Counter == c }
}

// WithCounterPhase matches counters recorded in one phase.
func WithCounterPhase(p event.Phase) CounterFilter {
	return func(k CounterKey) bool { return k.Phase == p }
}

// WithCounterRotation matches counters recorded in one rotation.
func WithCounterRotation(r int) CounterFilter {
	return func(k CounterKey) bool { return k.Rotation == r }
}

// Bundle is the full set of independent fact tables for one set.
type Bundle struct {
	// Events is the raw event table: every rally entry, fully keyed.
	Events *Table[Key]
	// Attacks holds every attack swing.
	Attacks *Table[Key]
	// CounterAttacks holds attacks mounted out of defense or in break
	// phase rather than directly off reception.
	CounterAttacks *Table[Key]
	// Distribution records which attacker the setter fed, keyed by the
	// reception grade the attack was built on.
	Distribution *Table[Key]
	// Errors holds our point-losing touches and faults.
	Errors *Table[Key]
	// OpponentErrors counts points gifted by the opponent.
	OpponentErrors *Table[Key]
	// Counters holds the scored/earned point, phase, and possession
	// tallies.
	Counters *Table[CounterKey]
}

// NewBundle creates an empty stats bundle.
func NewBundle() *Bundle {
	return &Bundle{
		Events:         NewTable[Key](),
		Attacks:        NewTable[Key](),
		CounterAttacks: NewTable[Key](),
		Distribution:   NewTable[Key](),
		Errors:         NewTable[Key](),
		OpponentErrors: NewTable[Key](),
		Counters:       NewTable[CounterKey](),
	}
}

// Merge adds every table of other into the bundle, pointwise.
func (b *Bundle) Merge(other *Bundle) {
	if other == nil {
		return
	}
	b.Events.Merge(other.Events)
	b.Attacks.Merge(other.Attacks)
	b.CounterAttacks.Merge(other.CounterAttacks)
	b.Distribution.Merge(other.Distribution)
	b.Errors.Merge(other.Errors)
	b.OpponentErrors.Merge(other.OpponentErrors)
	b.Counters.Merge(other.Counters)
}

// Context carries the snapshot state a recording depends on: the phase and
// rotation at the moment the entry applies, and the rally-context event
// preceding it.
type Context struct {
	Phase     event.Phase
	Rotation  int
	LastEvent *event.Entry
}

// Record updates every table for one applied entry. Bookkeeping entries
// record nothing.
func (b *Bundle) Record(e event.Entry, ctx Context) {
	if event.IsBookkeeping(e.Type) {
		return
	}

	b.Events.Add(Key{
		Type:       e.Type,
		Phase:      ctx.Phase,
		Rotation:   ctx.Rotation,
		Player:     e.Player,
		Evaluation: e.Evaluation,
	})

	if e.Type == event.TypeAttack {
		attackKey := Key{
			Phase:      ctx.Phase,
			Rotation:   ctx.Rotation,
			Player:     e.Player,
			Evaluation: e.Evaluation,
		}
		b.Attacks.Add(attackKey)
		if isCounterAttack(ctx) {
			b.CounterAttacks.Add(attackKey)
		}
		b.Distribution.Add(Key{
			Phase:      ctx.Phase,
			Rotation:   ctx.Rotation,
			Player:     e.Player,
			Evaluation: receptionGrade(ctx),
		})
		b.Counters.Add(CounterKey{Counter: CounterPhase, Phase: ctx.Phase, Rotation: ctx.Rotation})
	}

	if event.AwardsPointThem(e.Type, e.Evaluation) && e.Type != event.TypeOpponentScore {
		b.Errors.Add(Key{
			Type:     e.Type,
			Phase:    ctx.Phase,
			Rotation: ctx.Rotation,
			Player:   e.Player,
		})
	}

	if e.Type == event.TypeOpponentError {
		b.OpponentErrors.Add(Key{Phase: ctx.Phase, Rotation: ctx.Rotation})
	}

	if event.AwardsPointUs(e.Type, e.Evaluation) {
		b.Counters.Add(CounterKey{Counter: CounterScoredPoint, Phase: ctx.Phase, Rotation: ctx.Rotation})
		if e.Type != event.TypeOpponentError {
			b.Counters.Add(CounterKey{Counter: CounterEarnedPoint, Phase: ctx.Phase, Rotation: ctx.Rotation})
		}
	}

	if (e.Type == event.TypePass || e.Type == event.TypeDig) && e.Evaluation != event.EvalError {
		b.Counters.Add(CounterKey{Counter: CounterPossession, Phase: ctx.Phase, Rotation: ctx.Rotation})
	}
}

// isCounterAttack reports whether an attack in this context counts as a
// counter-attack: mounted in break phase, or out of a dig or block exchange
// rather than directly off reception.
func isCounterAttack(ctx Context) bool {
	if ctx.Phase == event.PhaseBreak {
		return true
	}
	if ctx.LastEvent == nil {
		return false
	}
	return ctx.LastEvent.Type == event.TypeDig || ctx.LastEvent.Type == event.TypeBlock
}

// receptionGrade returns the pass grade the attack was built on, or the
// empty grade when the attack did not follow a reception.
func receptionGrade(ctx Context) event.Evaluation {
	if ctx.LastEvent != nil && ctx.LastEvent.Type == event.TypePass {
		return ctx.LastEvent.Evaluation
	}
	return ""
}
