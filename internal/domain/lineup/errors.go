package lineup

import "errors"

// Sentinel kinds for lineup errors. The first block are configuration
// errors: a descriptor that produces one cannot yield a valid lineup and
// replay must abort.
var (
	ErrInvalidStartingSix = errors.New("starting six must be distinct, non-empty player ids")
	ErrSetterNotInLineup  = errors.New("setter is not among the starting six")
	ErrMissingLibero      = errors.New("a libero must be designated")
	ErrLiberoInLineup     = errors.New("libero cannot occupy a starting slot")
	ErrLiberoSlot         = errors.New("libero slot cannot be derived for rotation")
)

// Illegal-operation errors, surfaced when an event is inconsistent with the
// current court state.
var (
	ErrPlayerNotOnCourt   = errors.New("player is not on court")
	ErrPlayerOnCourt      = errors.New("player is already on court")
	ErrLiberoSubstitution = errors.New("libero cannot take part in a substitution")
	ErrSubstitutionLimit  = errors.New("substitution limit reached")
	ErrSubstitutionClosed = errors.New("substitution pair is closed")
	ErrNotAReplacement    = errors.New("player is not a legal replacement")
)
