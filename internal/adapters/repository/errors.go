package repository

import "errors"

// Sentinel kinds for log store errors.
var (
	ErrSetNotFound = errors.New("set not found")
	ErrEmptyLog    = errors.New("event log is empty")
)
