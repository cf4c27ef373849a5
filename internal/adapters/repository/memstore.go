package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/sideout/internal/domain/event"
	"github.com/okian/sideout/internal/domain/snapshot"
)

// setLog holds one set's descriptor and its append-only entries.
type setLog struct {
	descriptor snapshot.Descriptor
	createdAt  time.Time
	entries    []event.Entry
}

// MemStore is the in-memory Store implementation. All state fits in one
// mutex-guarded map; set logs top out at a few hundred entries, so copies
// on read stay cheap.
type MemStore struct {
	mu   sync.RWMutex
	sets map[string]*setLog
	now  func() time.Time
}

// NewMemStore builds an empty in-memory store.
func NewMemStore(opts ...Option) *MemStore {
	s := &MemStore{
		sets: make(map[string]*setLog),
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemStore) CreateSet(_ context.Context, d snapshot.Descriptor) (string, error) {
	id := uuid.NewString()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sets[id] = &setLog{descriptor: d, createdAt: s.now()}
	return id, nil
}

func (s *MemStore) AppendEvent(_ context.Context, setID string, e event.Entry) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.sets[setID]
	if !ok {
		return 0, ErrSetNotFound
	}
	l.entries = append(l.entries, e)
	return len(l.entries), nil
}

func (s *MemStore) Events(_ context.Context, setID string) ([]event.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.sets[setID]
	if !ok {
		return nil, ErrSetNotFound
	}
	out := make([]event.Entry, len(l.entries))
	copy(out, l.entries)
	return out, nil
}

func (s *MemStore) TruncateLast(_ context.Context, setID string) (event.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.sets[setID]
	if !ok {
		return event.Entry{}, ErrSetNotFound
	}
	if len(l.entries) == 0 {
		return event.Entry{}, ErrEmptyLog
	}
	last := l.entries[len(l.entries)-1]
	l.entries = l.entries[:len(l.entries)-1]
	return last, nil
}

func (s *MemStore) Set(_ context.Context, setID string) (SetRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.sets[setID]
	if !ok {
		return SetRecord{}, ErrSetNotFound
	}
	return SetRecord{
		ID:         setID,
		Descriptor: l.descriptor,
		CreatedAt:  l.createdAt,
		EventCount: len(l.entries),
	}, nil
}

func (s *MemStore) Sets(_ context.Context) []SetRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]SetRecord, 0, len(s.sets))
	for id, l := range s.sets {
		out = append(out, SetRecord{
			ID:         id,
			Descriptor: l.descriptor,
			CreatedAt:  l.createdAt,
			EventCount: len(l.entries),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (s *MemStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sets)
}
