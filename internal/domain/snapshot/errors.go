package snapshot

import (
	"errors"
	"fmt"
	"strings"

	"github.com/okian/sideout/internal/domain/event"
)

var (
	// ErrBadDescriptor indicates a set configuration that cannot produce a
	// playable snapshot.
	ErrBadDescriptor = errors.New("invalid set descriptor")
	// ErrSetComplete is returned for any event applied after a winner is
	// determined.
	ErrSetComplete = errors.New("set already complete")
	// ErrNotLegalNow indicates an event type outside the legal-next set.
	ErrNotLegalNow = errors.New("event not legal in current state")
	// ErrOutOfOrder indicates an event timestamped before the last applied
	// one.
	ErrOutOfOrder = errors.New("event timestamp out of order")
	// ErrForbiddenPlayer indicates a player barred from the attempted
	// action, such as a libero attacking.
	ErrForbiddenPlayer = errors.New("player not permitted for this action")
	// ErrIllegalEvent is matched by every rejection produced by Apply.
	ErrIllegalEvent = errors.New("illegal event")
)

// IllegalEventError carries the rejected entry and the set of types that
// would have been accepted, so a client can correct and resubmit.
type IllegalEventError struct {
	Entry  event.Entry
	Legal  []event.Type
	Reason error
}

func (e *IllegalEventError) Error() string {
	legal := make([]string, len(e.Legal))
	for i, t := range e.Legal {
		legal[i] = string(t)
	}
	return fmt.Sprintf("illegal event %s/%s: %v (legal: %s)",
		e.Entry.Type, e.Entry.Evaluation, e.Reason, strings.Join(legal, ","))
}

func (e *IllegalEventError) Unwrap() error { return e.Reason }

// Is lets callers match any rejection with errors.Is(err, ErrIllegalEvent).
func (e *IllegalEventError) Is(target error) bool { return target == ErrIllegalEvent }
