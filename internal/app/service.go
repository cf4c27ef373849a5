// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	replayqueue "github.com/okian/sideout/internal/adapters/mq/queue"
	workerpool "github.com/okian/sideout/internal/adapters/mq/worker"
	"github.com/okian/sideout/internal/adapters/repository"
	"github.com/okian/sideout/internal/domain/dedupe"
	"github.com/okian/sideout/internal/domain/event"
	"github.com/okian/sideout/internal/domain/model"
	"github.com/okian/sideout/internal/domain/snapshot"
	"github.com/okian/sideout/internal/domain/stats"
	"github.com/okian/sideout/internal/domain/types"
	"github.com/okian/sideout/pkg/logger"
	"github.com/okian/sideout/pkg/metrics"
)

// Service owns the live sets and coordinates the store, the deduper, and
// the background replay verifiers.
type Service struct {
	mu sync.RWMutex

	// Core components
	store      repository.Store
	deduper    dedupe.Deduper
	replayJobs replayqueue.Queue
	pool       *workerpool.Pool

	// Live snapshots by set ID. A set absent here but present in the
	// store is rebuilt from its log on first access.
	live map[string]*snapshot.Snapshot

	// Configuration
	workerCount   int
	queueCapacity int
	dedupeSize    int

	// State
	started bool

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of replay verifier goroutines.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueCapacity sets the maximum size of the replay job queue.
func WithQueueCapacity(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueCapacity = size
		}
	}
}

// WithDedupeSize sets the size of the submission deduplication cache.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithStore sets a custom store implementation.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:   2,
		queueCapacity: 1024,
		dedupeSize:    50000,
		live:          make(map[string]*snapshot.Snapshot),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	s.logger.Info(ctx, "starting scouting service...")

	if s.store == nil {
		s.store = repository.NewMemStore()
	}
	s.deduper = dedupe.New(
		dedupe.WithCapacity(s.dedupeSize),
	)
	s.replayJobs = replayqueue.NewInMemoryQueue(
		replayqueue.WithCapacity(s.queueCapacity),
	)

	s.pool = workerpool.NewPool(s.workerCount, s.replayJobs, s.store)
	s.pool.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "scouting service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueCapacity", s.queueCapacity),
		logger.Int("dedupeSize", s.dedupeSize),
	)
	return nil
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	ctx := context.Background()
	s.logger.Info(ctx, "stopping scouting service...")

	if s.pool != nil {
		_ = s.pool.Shutdown(ctx)
	}

	s.started = false
	s.logger.Info(ctx, "scouting service stopped")
}

// StartSet validates a set descriptor, registers the set, and returns its
// live view.
func (s *Service) StartSet(ctx context.Context, d snapshot.Descriptor) (types.SetView, error) {
	snap, err := snapshot.New(d)
	if err != nil {
		return types.SetView{}, err
	}

	id, err := s.store.CreateSet(ctx, d)
	if err != nil {
		return types.SetView{}, err
	}

	s.mu.Lock()
	s.live[id] = snap
	active := len(s.live)
	s.mu.Unlock()

	metrics.RecordSetStarted()
	metrics.UpdateActiveSets(active)
	s.logger.Info(ctx, "set started",
		logger.String("set_id", id),
		logger.Int("set_number", d.SetNumber),
	)

	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.viewLocked(ctx, id, snap), nil
}

// ApplyEvent applies one uploaded submission to a set. A submission ID that
// was already accepted is acknowledged without reapplying; the bool result
// reports whether this call was such a duplicate.
func (s *Service) ApplyEvent(ctx context.Context, setID string, sub model.Submission) (types.SetView, bool, error) {
	start := time.Now()

	snap, err := s.snapshotFor(ctx, setID)
	if err != nil {
		return types.SetView{}, false, err
	}

	if s.deduper.SeenAndRecord(ctx, sub.SubmissionID) {
		metrics.RecordEventDuplicate()
		s.logger.Debug(ctx, "duplicate submission skipped",
			logger.String("set_id", setID),
			logger.String("submission_id", sub.SubmissionID),
		)
		s.mu.RLock()
		if live, ok := s.live[setID]; ok {
			snap = live
		}
		v := s.viewLocked(ctx, setID, snap)
		s.mu.RUnlock()
		return v, true, nil
	}

	e := sub.Entry()

	s.mu.Lock()
	// A concurrent undo may have truncated the log and replaced the live
	// snapshot after snapshotFor returned. Re-read under the lock so the
	// entry is validated against the state the log actually encodes.
	if live, ok := s.live[setID]; ok {
		snap = live
	} else {
		rebuilt, rebuildErr := s.rebuild(ctx, setID)
		if rebuildErr != nil {
			s.mu.Unlock()
			s.deduper.Unrecord(ctx, sub.SubmissionID)
			return types.SetView{}, false, fmt.Errorf("rebuilding set %s: %w", setID, rebuildErr)
		}
		s.live[setID] = rebuilt
		snap = rebuilt
	}
	beforeUs, beforeThem := snap.Score()
	beforeRotation := snap.Rotation()
	_, applyErr := snap.Apply(e)
	if applyErr == nil {
		if _, err := s.store.AppendEvent(ctx, setID, e); err != nil {
			applyErr = fmt.Errorf("persisting event: %w", err)
			// The snapshot already holds the entry the log never got;
			// drop it so the next access rebuilds from the log.
			delete(s.live, setID)
		}
	}
	afterUs, afterThem := snap.Score()
	afterRotation := snap.Rotation()
	_, complete := snap.Winner()
	var v types.SetView
	if applyErr == nil {
		v = s.viewLocked(ctx, setID, snap)
	}
	s.mu.Unlock()

	if applyErr != nil {
		s.deduper.Unrecord(ctx, sub.SubmissionID)
		metrics.RecordEventRejected(rejectionReason(applyErr))
		return types.SetView{}, false, applyErr
	}

	metrics.RecordEventApplied()
	metrics.RecordApplyLatency(time.Since(start).Seconds())
	switch {
	case afterUs > beforeUs:
		metrics.RecordPointScored("us")
	case afterThem > beforeThem:
		metrics.RecordPointScored("them")
	}
	if afterRotation != beforeRotation {
		metrics.RecordRotation()
	}
	if e.Type == event.TypeSubstitution {
		metrics.RecordSubstitution()
	}

	if complete {
		metrics.RecordSetCompleted()
		s.scheduleReplay(ctx, setID, afterUs, afterThem)
		s.logger.Info(ctx, "set complete",
			logger.String("set_id", setID),
			logger.Int("us", afterUs),
			logger.Int("them", afterThem),
		)
	}

	return v, false, nil
}

// UndoLast removes the most recent event of a set and rebuilds the
// snapshot from the remaining log.
func (s *Service) UndoLast(ctx context.Context, setID string) (types.SetView, error) {
	if _, err := s.snapshotFor(ctx, setID); err != nil {
		return types.SetView{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	removed, err := s.store.TruncateLast(ctx, setID)
	if err != nil {
		return types.SetView{}, err
	}

	rebuilt, err := s.rebuild(ctx, setID)
	if err != nil {
		// The log was consistent before the truncation, so this means the
		// store itself is corrupt.
		return types.SetView{}, fmt.Errorf("rebuilding after undo: %w", err)
	}
	s.live[setID] = rebuilt

	metrics.RecordEventUndone()
	us, them := rebuilt.Score()
	s.scheduleReplay(ctx, setID, us, them)
	s.logger.Info(ctx, "event undone",
		logger.String("set_id", setID),
		logger.String("type", string(removed.Type)),
	)
	return s.viewLocked(ctx, setID, rebuilt), nil
}

// Set returns the live view of one set.
func (s *Service) Set(ctx context.Context, setID string) (types.SetView, error) {
	snap, err := s.snapshotFor(ctx, setID)
	if err != nil {
		return types.SetView{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.viewLocked(ctx, setID, snap), nil
}

// Sets returns summaries for every stored set, newest first.
func (s *Service) Sets(ctx context.Context) ([]types.SetSummary, error) {
	records := s.store.Sets(ctx)
	out := make([]types.SetSummary, 0, len(records))
	for _, rec := range records {
		snap, err := s.snapshotFor(ctx, rec.ID)
		if err != nil {
			return nil, err
		}
		us, them := snap.Score()
		_, complete := snap.Winner()
		out = append(out, types.SetSummary{
			ID:        rec.ID,
			SetNumber: rec.Descriptor.SetNumber,
			Score:     types.Score{Us: us, Them: them},
			Complete:  complete,
			CreatedAt: rec.CreatedAt,
			Events:    rec.EventCount,
		})
	}
	return out, nil
}

// Events returns the ordered event log of a set, the read surface for
// external persistence.
func (s *Service) Events(ctx context.Context, setID string) ([]types.EventRow, error) {
	entries, err := s.store.Events(ctx, setID)
	if err != nil {
		return nil, err
	}
	out := make([]types.EventRow, len(entries))
	for i, e := range entries {
		out[i] = types.EventRow{
			Timestamp:  e.Timestamp,
			Type:       string(e.Type),
			Evaluation: string(e.Evaluation),
			Player:     string(e.Player),
			Target:     string(e.Target),
		}
	}
	return out, nil
}

// ArchiveRebuild enqueues a replay verification job for every stored set
// and returns the number of jobs scheduled.
func (s *Service) ArchiveRebuild(ctx context.Context) (int, error) {
	scheduled := 0
	for _, rec := range s.store.Sets(ctx) {
		snap, err := s.snapshotFor(ctx, rec.ID)
		if err != nil {
			return scheduled, err
		}
		s.mu.RLock()
		us, them := snap.Score()
		s.mu.RUnlock()
		s.scheduleReplay(ctx, rec.ID, us, them)
		scheduled++
	}
	return scheduled, nil
}

// Report builds the post-game report for one set.
func (s *Service) Report(ctx context.Context, setID string) (types.Report, error) {
	snap, err := s.snapshotFor(ctx, setID)
	if err != nil {
		return types.Report{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	us, them := snap.Score()
	r := types.Report{
		SetID:    setID,
		Score:    types.Score{Us: us, Them: them},
		Partials: partialViews(snap.Partials()),
		Counts:   countsByType(snap.Stats()),
		Metrics:  deriveMetrics(snap.Stats()),
	}
	if side, done := snap.Winner(); done {
		r.Winner = string(side)
	}
	return r, nil
}

// MatchReport merges the given sets into whole-match figures. With no IDs
// given, every stored set is included.
func (s *Service) MatchReport(ctx context.Context, setIDs []string) (types.MatchReport, error) {
	if len(setIDs) == 0 {
		for _, rec := range s.store.Sets(ctx) {
			setIDs = append(setIDs, rec.ID)
		}
		sort.Strings(setIDs)
	}

	merged := stats.NewBundle()
	report := types.MatchReport{SetIDs: setIDs}
	for _, id := range setIDs {
		snap, err := s.snapshotFor(ctx, id)
		if err != nil {
			return types.MatchReport{}, err
		}
		s.mu.RLock()
		merged.Merge(snap.Stats())
		side, done := snap.Winner()
		s.mu.RUnlock()
		if done {
			if side == snapshot.SideUs {
				report.SetsWon.Us++
			} else {
				report.SetsWon.Them++
			}
		}
	}
	report.Counts = countsByType(merged)
	report.Metrics = deriveMetrics(merged)
	return report, nil
}

// SeenAndRecord exposes the deduper for transport-level idempotency checks.
func (s *Service) SeenAndRecord(ctx context.Context, id string) bool {
	return s.deduper.SeenAndRecord(ctx, id)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	out := map[string]interface{}{
		"started":     s.started,
		"workerCount": s.workerCount,
		"dedupeSize":  s.dedupeSize,
		"liveSets":    len(s.live),
		"trackedSets": 0,
		"pendingJobs": 0,
		"submissions": int64(0),
	}
	if s.started {
		out["trackedSets"] = s.store.Count(ctx)
		out["pendingJobs"] = s.replayJobs.Len(ctx)
		out["submissions"] = s.deduper.Size()
		metrics.UpdateActiveSets(len(s.live))
	}
	return out
}

// snapshotFor returns the live snapshot of a set, rebuilding it from the
// stored log when the set is not in memory.
func (s *Service) snapshotFor(ctx context.Context, setID string) (*snapshot.Snapshot, error) {
	s.mu.RLock()
	snap, ok := s.live[setID]
	s.mu.RUnlock()
	if ok {
		return snap, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if snap, ok := s.live[setID]; ok {
		return snap, nil
	}
	snap, err := s.rebuild(ctx, setID)
	if err != nil {
		return nil, err
	}
	s.live[setID] = snap
	return snap, nil
}

// rebuild replays a set's full log. Caller holds the write lock.
func (s *Service) rebuild(ctx context.Context, setID string) (*snapshot.Snapshot, error) {
	rec, err := s.store.Set(ctx, setID)
	if err != nil {
		return nil, err
	}
	entries, err := s.store.Events(ctx, setID)
	if err != nil {
		return nil, err
	}
	return snapshot.Rebuild(rec.Descriptor, entries)
}

// scheduleReplay enqueues a background verification of a set's log.
func (s *Service) scheduleReplay(ctx context.Context, setID string, us, them int) {
	job := replayqueue.Job{SetID: setID, WantUs: us, WantThem: them}
	if !s.replayJobs.Enqueue(ctx, job) {
		s.logger.Warn(ctx, "replay queue full, verification skipped",
			logger.String("set_id", setID),
		)
	}
}

// viewLocked assembles the JSON view of a snapshot. Callers hold s.mu.
func (s *Service) viewLocked(ctx context.Context, setID string, snap *snapshot.Snapshot) types.SetView {
	us, them := snap.Score()
	slots := snap.Lineup().Slots()
	court := make([]string, len(slots))
	for i, p := range slots {
		court[i] = string(p)
	}
	legal := snap.Legal().Sorted()
	legalOut := make([]string, len(legal))
	for i, t := range legal {
		legalOut[i] = string(t)
	}

	v := types.SetView{
		ID:        setID,
		SetNumber: snap.Descriptor().SetNumber,
		Phase:     string(snap.Phase()),
		Rotation:  snap.Rotation(),
		Score:     types.Score{Us: us, Them: them},
		Partials:  partialViews(snap.Partials()),
		Court:     court,
		Libero:    string(snap.Lineup().Libero()),
		Subs:      len(snap.Lineup().Substitutions()),
		Legal:     legalOut,
	}
	if rec, err := s.store.Set(ctx, setID); err == nil {
		v.Events = rec.EventCount
	}
	if side, done := snap.Winner(); done {
		v.Complete = true
		v.Winner = string(side)
	}
	return v
}

func partialViews(ps []snapshot.Partial) []types.Partial {
	out := make([]types.Partial, len(ps))
	for i, p := range ps {
		out[i] = types.Partial{Threshold: p.Threshold, Us: p.Us, Them: p.Them}
	}
	return out
}

// countsByType sums the event table per type.
func countsByType(b *stats.Bundle) map[string]int {
	out := make(map[string]int)
	for _, t := range event.Types() {
		if n := b.Events.Sum(stats.WithType(t)); n > 0 {
			out[string(t)] = n
		}
	}
	return out
}

// deriveMetrics computes the report figures, keeping undefined ones
// distinguishable from zeros.
func deriveMetrics(b *stats.Bundle) []types.Metric {
	out := make([]types.Metric, 0, 8)

	add := func(name string, value float64, ok bool) {
		out = append(out, types.Metric{Name: name, Value: value, Defined: ok})
	}

	eff, ok := b.AttackEfficiency()
	add("attack_efficiency", eff.Value, ok)
	conv, ok := b.CounterAttackConversionRate()
	add("counter_attack_conversion", conv.Value, ok)
	phases, ok := b.PhasesPerScoredPoint()
	add("phases_per_scored_point", phases.Value, ok)
	poss, ok := b.PossessionsPerEarnedPoint()
	add("possessions_per_earned_point", poss.Value, ok)
	for _, t := range []event.Type{event.TypeServe, event.TypePass, event.TypeAttack, event.TypeDig, event.TypeBlock} {
		sc, ok := b.EventPositiveness(t, stats.MetricPositive)
		add(string(t)+"_positiveness", sc.Score, ok)
	}
	return out
}

// rejectionReason maps an apply failure to a coarse metric label.
func rejectionReason(err error) string {
	switch {
	case errors.Is(err, snapshot.ErrSetComplete):
		return "set_complete"
	case errors.Is(err, snapshot.ErrNotLegalNow):
		return "not_legal"
	case errors.Is(err, snapshot.ErrOutOfOrder):
		return "out_of_order"
	case errors.Is(err, snapshot.ErrForbiddenPlayer):
		return "forbidden_player"
	case errors.Is(err, event.ErrUnknownType), errors.Is(err, event.ErrUnknownEvaluation), errors.Is(err, event.ErrMalformedEntry):
		return "malformed"
	case errors.Is(err, repository.ErrSetNotFound):
		return "unknown_set"
	default:
		return "lineup"
	}
}
