// Package repository defines the append-only event log store and errors.
package repository

import (
	"context"
	"time"

	"github.com/okian/sideout/internal/domain/event"
	"github.com/okian/sideout/internal/domain/snapshot"
)

// SetRecord describes one stored set.
type SetRecord struct {
	ID         string
	Descriptor snapshot.Descriptor
	CreatedAt  time.Time
	EventCount int
}

// Store provides durable access to set descriptors and their event logs.
// Logs are append-only; the only permitted mutation is removing the most
// recent entry, which backs the undo operation.
type Store interface {
	// CreateSet registers a new set under a fresh ID and returns it.
	CreateSet(ctx context.Context, d snapshot.Descriptor) (string, error)

	// AppendEvent appends one entry to a set's log and returns the new
	// log length. Returns ErrSetNotFound for an unknown set.
	AppendEvent(ctx context.Context, setID string, e event.Entry) (int, error)

	// Events returns a copy of a set's full log in append order.
	Events(ctx context.Context, setID string) ([]event.Entry, error)

	// TruncateLast removes and returns the most recent entry of a set's
	// log. Returns ErrEmptyLog when there is nothing to remove.
	TruncateLast(ctx context.Context, setID string) (event.Entry, error)

	// Set returns the stored record for one set.
	Set(ctx context.Context, setID string) (SetRecord, error)

	// Sets returns records for every stored set, newest first.
	Sets(ctx context.Context) []SetRecord

	// Count returns the number of stored sets.
	Count(ctx context.Context) int
}
