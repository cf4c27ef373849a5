package event

import "errors"

// Sentinel kinds for event errors.
var (
	ErrUnknownType       = errors.New("unknown event type")
	ErrUnknownEvaluation = errors.New("unknown evaluation")
	ErrMalformedEntry    = errors.New("malformed event entry")
)
