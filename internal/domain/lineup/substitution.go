package lineup

import (
	"fmt"

	"github.com/okian/sideout/internal/domain/event"
)

// recordsInvolving returns the substitution records naming id on either side.
func (l *Lineup) recordsInvolving(id event.PlayerID) []Substitution {
	var out []Substitution
	for _, s := range l.substitutions {
		if s.Replacement == id || s.Replaced == id {
			out = append(out, s)
		}
	}
	return out
}

// AvailableReplacements returns the roster players allowed to replace
// player id. A player with no substitution history may be replaced by any
// rostered player who is off court, is not the libero, is not idling behind
// the libero, and has no substitution history of their own. A player who
// entered through an open substitution can only be replaced by the player
// who would close the pair. A closed pair admits no further changes.
func (l *Lineup) AvailableReplacements(roster []event.PlayerID, id event.PlayerID) []event.PlayerID {
	if id == l.libero || !l.OnCourt(id) {
		return nil
	}
	if len(l.substitutions) >= MaxSubstitutions {
		return nil
	}

	records := l.recordsInvolving(id)
	switch len(records) {
	case 0:
		var out []event.PlayerID
		for _, p := range roster {
			if p == id || p == l.libero || p == l.idle {
				continue
			}
			if l.OnCourt(p) {
				continue
			}
			if len(l.recordsInvolving(p)) > 0 {
				continue
			}
			out = append(out, p)
		}
		return out
	case 1:
		// id is on court, so a single record means id came in as the
		// replacement; only the original player may close the pair.
		if records[0].Replacement == id {
			return []event.PlayerID{records[0].Replaced}
		}
		return nil
	default:
		// Pair closed; neither player may be substituted again.
		return nil
	}
}

// AddSubstitution records the pair and swaps the court slot. If the
// replaced player was the setter, the designation moves to the replacement.
func (l *Lineup) AddSubstitution(replaced, replacement event.PlayerID) error {
	if replaced == l.libero || replacement == l.libero {
		return ErrLiberoSubstitution
	}
	if len(l.substitutions) >= MaxSubstitutions {
		return ErrSubstitutionLimit
	}
	slot, ok := l.slotOf(replaced)
	if !ok {
		return fmt.Errorf("%w: %s", ErrPlayerNotOnCourt, replaced)
	}
	if l.OnCourt(replacement) {
		return fmt.Errorf("%w: %s", ErrPlayerOnCourt, replacement)
	}
	if replacement == l.idle {
		return fmt.Errorf("%w: %s idles behind the libero", ErrNotAReplacement, replacement)
	}

	outRecords := l.recordsInvolving(replaced)
	inRecords := l.recordsInvolving(replacement)
	switch {
	case len(outRecords) >= 2 || len(inRecords) >= 2:
		return ErrSubstitutionClosed
	case len(outRecords) == 1:
		// An open pair can only be closed by its original player.
		if outRecords[0].Replaced != replacement {
			return fmt.Errorf("%w: only %s may replace %s", ErrNotAReplacement, outRecords[0].Replaced, replaced)
		}
	case len(inRecords) == 1:
		// The incoming player is engaged in an open pair with someone else.
		return fmt.Errorf("%w: %s is engaged in an open substitution", ErrNotAReplacement, replacement)
	}

	l.substitutions = append(l.substitutions, Substitution{Replacement: replacement, Replaced: replaced})
	l.slots[slot] = replacement
	if l.setter == replaced {
		l.setter = replacement
	}
	return nil
}

// ChangeSetter moves the setter designation to an on-court player, which
// redefines the current rotation. The libero slot depends on the rotation,
// so the libero bookkeeping is re-synced against the new one.
func (l *Lineup) ChangeSetter(id event.PlayerID) error {
	if id == l.libero {
		return fmt.Errorf("%w: libero cannot set", ErrNotAReplacement)
	}
	if !l.OnCourt(id) {
		return fmt.Errorf("%w: %s", ErrPlayerNotOnCourt, id)
	}
	l.setter = id
	l.syncLibero()
	return nil
}

// ChangeLibero swaps in a different libero. When the outgoing libero is on
// court the incoming one takes over the covered slot directly.
func (l *Lineup) ChangeLibero(id event.PlayerID) error {
	if id == "" {
		return ErrMissingLibero
	}
	if l.OnCourt(id) && id != l.libero {
		return fmt.Errorf("%w: %s", ErrPlayerOnCourt, id)
	}
	if slot, ok := l.slotOf(l.libero); ok {
		l.slots[slot] = id
	}
	l.libero = id
	return nil
}
