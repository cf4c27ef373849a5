// Package lineup owns the six on-court slots, the current phase, the
// designated setter and libero, and the rotation and substitution
// bookkeeping, including automatic libero replacement. Pure state plus
// transition rules; no statistics.
package lineup

import (
	"fmt"

	"github.com/okian/sideout/internal/domain/event"
)

// MaxSubstitutions caps the substitution pairs per set.
const MaxSubstitutions = 6

const courtSlots = 6

// Role is a player's court role, derived from the slot offset relative to
// the setter.
type Role string

const (
	RoleSetter         Role = "setter"
	RoleOutsideHitter  Role = "outside_hitter"
	RoleMiddleBlocker  Role = "middle_blocker"
	RoleOppositeHitter Role = "opposite_hitter"
	// RoleLibero is reported for the libero, who holds no rotation slot of
	// their own.
	RoleLibero Role = "libero"
)

// roleByOffset maps the slot offset from the setter to a role.
var roleByOffset = [courtSlots]Role{
	RoleSetter,
	RoleOutsideHitter,
	RoleMiddleBlocker,
	RoleOppositeHitter,
	RoleOutsideHitter,
	RoleMiddleBlocker,
}

// backRowSlots are the slots serving or defending the back court. Slot 0 is
// the current server slot.
var backRowSlots = map[int]bool{0: true, 4: true, 5: true}

// Substitution records one replacement direction. A pair is closed once the
// reverse direction has also been recorded.
type Substitution struct {
	Replacement event.PlayerID
	Replaced    event.PlayerID
}

// Lineup is the on-court state for one team during a set.
type Lineup struct {
	slots  [courtSlots]event.PlayerID
	phase  event.Phase
	setter event.PlayerID
	libero event.PlayerID

	// idle is the player standing off court while the libero covers their
	// slot; dueBack mirrors it as the player owed a return when the libero
	// steps out.
	idle    event.PlayerID
	dueBack event.PlayerID

	substitutions []Substitution
}

// New builds a lineup from the starting six, the opening phase, and the
// designated setter and libero. It fails when the rotation cannot be derived
// or the libero slot cannot be computed for any rotation; both are fatal
// configuration errors.
func New(six [courtSlots]event.PlayerID, phase event.Phase, setter, libero event.PlayerID) (*Lineup, error) {
	seen := make(map[event.PlayerID]bool, courtSlots)
	for _, id := range six {
		if id == "" || seen[id] {
			return nil, ErrInvalidStartingSix
		}
		seen[id] = true
	}
	if !seen[setter] {
		return nil, ErrSetterNotInLineup
	}
	if libero == "" {
		return nil, ErrMissingLibero
	}
	if seen[libero] {
		return nil, ErrLiberoInLineup
	}

	l := &Lineup{
		slots:  six,
		phase:  phase,
		setter: setter,
		libero: libero,
	}

	// The libero slot must be derivable for every rotation; an unresolvable
	// rotation means a corrupted configuration, not a runtime condition.
	for r := 0; r < courtSlots; r++ {
		if _, err := liberoSlotFor(r); err != nil {
			return nil, err
		}
	}

	l.syncLibero()
	return l, nil
}

// liberoSlotFor returns the back-row slot the libero covers in rotation r:
// the one of the two middle-blocker slots that sits in the back row. Exactly
// one of them must.
func liberoSlotFor(r int) (int, error) {
	first := (r + 2) % courtSlots
	second := (r + 5) % courtSlots
	switch {
	case backRowSlots[first] && !backRowSlots[second]:
		return first, nil
	case backRowSlots[second] && !backRowSlots[first]:
		return second, nil
	default:
		return 0, fmt.Errorf("%w %d", ErrLiberoSlot, r)
	}
}

// Rotation returns the setter's current slot index.
func (l *Lineup) Rotation() int {
	slot, ok := l.slotOf(l.setter)
	if !ok {
		// The setter can only leave the court via substitution, which
		// reassigns the designation. Treat anything else as rotation 0.
		return 0
	}
	return slot
}

// Phase returns the current phase.
func (l *Lineup) Phase() event.Phase { return l.phase }

// Setter returns the designated setter.
func (l *Lineup) Setter() event.PlayerID { return l.setter }

// Libero returns the current libero.
func (l *Lineup) Libero() event.PlayerID { return l.libero }

// Idle returns the player standing off court behind the libero, if any.
func (l *Lineup) Idle() event.PlayerID { return l.idle }

// Slots returns the six court slots. Slot 0 is the current server slot.
func (l *Lineup) Slots() [courtSlots]event.PlayerID { return l.slots }

// Substitutions returns the recorded substitution pairs in order.
func (l *Lineup) Substitutions() []Substitution {
	out := make([]Substitution, len(l.substitutions))
	copy(out, l.substitutions)
	return out
}

// OnCourt reports whether id currently occupies a slot.
func (l *Lineup) OnCourt(id event.PlayerID) bool {
	_, ok := l.slotOf(id)
	return ok
}

// IsBackRow reports whether id occupies a back-row slot.
func (l *Lineup) IsBackRow(id event.PlayerID) bool {
	slot, ok := l.slotOf(id)
	return ok && backRowSlots[slot]
}

func (l *Lineup) slotOf(id event.PlayerID) (int, bool) {
	for i, p := range l.slots {
		if p == id {
			return i, true
		}
	}
	return 0, false
}

// RoleOf returns the court role of id, computed from its slot offset
// relative to the setter. The idle player keeps the role of the slot the
// libero is covering for them.
func (l *Lineup) RoleOf(id event.PlayerID) (Role, error) {
	if id == l.libero {
		return RoleLibero, nil
	}
	slot, ok := l.slotOf(id)
	if !ok {
		if id != "" && id == l.idle {
			slot, ok = l.slotOf(l.libero)
		}
		if !ok {
			return "", fmt.Errorf("%w: %s", ErrPlayerNotOnCourt, id)
		}
	}
	offset := (slot - l.Rotation() + courtSlots) % courtSlots
	return roleByOffset[offset], nil
}

// PlayerAtOffset returns the player at the given slot offset from the
// setter. When the computed slot is covered by the libero, the idle player
// is reported instead, so role lookups resolve to a rotation player.
func (l *Lineup) PlayerAtOffset(offset int) event.PlayerID {
	slot := (l.Rotation() + offset%courtSlots + courtSlots) % courtSlots
	id := l.slots[slot]
	if id == l.libero && l.idle != "" {
		return l.idle
	}
	return id
}

// ApplyEventSideEffects mutates the lineup for one applied entry. The next
// phase has already been computed by the caller; a side-out to break flip
// triggers exactly one clockwise rotation. Returns whether a rotation
// occurred. Bookkeeping entries are dispatched to their own handlers.
func (l *Lineup) ApplyEventSideEffects(e event.Entry, next event.Phase) (bool, error) {
	switch e.Type {
	case event.TypeSubstitution:
		return false, l.AddSubstitution(e.Player, e.Target)
	case event.TypeChangeSetter:
		return false, l.ChangeSetter(e.Player)
	case event.TypeChangeLibero:
		return false, l.ChangeLibero(e.Target)
	}

	rotated := l.phase == event.PhaseSideOut && next == event.PhaseBreak
	l.phase = next
	if rotated {
		l.rotate()
	}
	l.syncLibero()
	return rotated, nil
}

// rotate shifts every player one slot clockwise: the slot 1 player takes
// over serving duty at slot 0.
func (l *Lineup) rotate() {
	first := l.slots[0]
	copy(l.slots[:], l.slots[1:])
	l.slots[courtSlots-1] = first
}

// syncLibero enforces the libero invariant for the current phase and
// rotation: the libero covers the back-row middle blocker except while that
// slot carries serving duty in break phase (rotations 1 and 4), when the
// idle player is restored. A libero sitting at a stale slot, which happens
// when a setter change redefines the rotation, is moved to the computed one:
// the held player returns at the old slot and the new target's occupant
// steps off.
func (l *Lineup) syncLibero() {
	target, err := liberoSlotFor(l.Rotation())
	if err != nil {
		// Unreachable after New validated every rotation.
		return
	}
	liberoAt, onCourt := l.slotOf(l.libero)
	wantOn := !(l.phase == event.PhaseBreak && target == 0)

	switch {
	case wantOn && !onCourt:
		l.idle = l.slots[target]
		l.dueBack = l.slots[target]
		l.slots[target] = l.libero
	case !wantOn && onCourt:
		l.slots[liberoAt] = l.dueBack
		l.idle = ""
		l.dueBack = ""
	case wantOn && onCourt && liberoAt != target:
		l.slots[liberoAt] = l.dueBack
		l.idle = l.slots[target]
		l.dueBack = l.slots[target]
		l.slots[target] = l.libero
	}
}
