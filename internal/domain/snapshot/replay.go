package snapshot

import (
	"strconv"

	"github.com/okian/sideout/internal/domain/event"
)

// Rebuild folds an event log into a fresh snapshot. Replay is strict: the
// log was validated when it was written, so any failure means the log or
// the descriptor is corrupt and the whole rebuild is abandoned.
func Rebuild(d Descriptor, entries []event.Entry) (*Snapshot, error) {
	s, err := New(d)
	if err != nil {
		return nil, err
	}
	for i, e := range entries {
		if _, err := s.Apply(e); err != nil {
			return nil, &ReplayError{Index: i, Entry: e, Reason: err}
		}
	}
	return s, nil
}

// ReplayError pinpoints the log entry a rebuild failed on.
type ReplayError struct {
	Index  int
	Entry  event.Entry
	Reason error
}

func (e *ReplayError) Error() string {
	return "replay failed at entry " + strconv.Itoa(e.Index) + ": " + e.Reason.Error()
}

func (e *ReplayError) Unwrap() error { return e.Reason }
