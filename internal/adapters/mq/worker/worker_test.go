package worker_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/sideout/internal/adapters/mq/queue"
	"github.com/okian/sideout/internal/adapters/mq/worker"
	"github.com/okian/sideout/internal/adapters/repository"
	"github.com/okian/sideout/internal/domain/event"
	"github.com/okian/sideout/internal/domain/snapshot"
	logging "github.com/okian/sideout/pkg/logger"
)

func TestMain(m *testing.M) {
	if err := logging.Init(); err != nil {
		panic(err)
	}
	m.Run()
}

func storedSet(t *testing.T, store *repository.MemStore, entries []event.Entry) string {
	t.Helper()
	d := snapshot.Descriptor{
		SetNumber: 1,
		ServingUs: true,
		Starting:  [6]event.PlayerID{"S", "OH1", "MB2", "OPP", "OH2", "MB1"},
		Setter:    "S",
		Libero:    "L",
	}
	ctx := context.Background()
	id, err := store.CreateSet(ctx, d)
	if err != nil {
		t.Fatalf("create set: %v", err)
	}
	for _, e := range entries {
		if _, err := store.AppendEvent(ctx, id, e); err != nil {
			t.Fatalf("append event: %v", err)
		}
	}
	return id
}

func TestReplayWorkerProcess(t *testing.T) {
	convey.Convey("Given a stored set with a clean log", t, func() {
		store := repository.NewMemStore()
		q := queue.NewInMemoryQueue(queue.WithCapacity(4))
		w := worker.NewReplayWorker(q, store)
		ctx := context.Background()

		id := storedSet(t, store, []event.Entry{
			{Type: event.TypeServe, Evaluation: event.EvalPerfect, Player: "S"},
			{Type: event.TypeServe, Evaluation: event.EvalError, Player: "S"},
			{Type: event.TypePass, Evaluation: event.EvalPerfect, Player: "OH1"},
			{Type: event.TypeAttack, Evaluation: event.EvalPerfect, Player: "OPP"},
		})

		convey.Convey("a job with the matching score verifies", func() {
			err := w.Process(ctx, worker.Job{SetID: id, WantUs: 2, WantThem: 1})
			convey.So(err, convey.ShouldBeNil)
		})

		convey.Convey("a job with a diverging score is reported", func() {
			err := w.Process(ctx, worker.Job{SetID: id, WantUs: 3, WantThem: 1})
			convey.So(err, convey.ShouldNotBeNil)
			convey.So(err.Error(), convey.ShouldContainSubstring, "mismatch")
		})

		convey.Convey("a job for an unknown set fails", func() {
			err := w.Process(ctx, worker.Job{SetID: "missing"})
			convey.So(errors.Is(err, repository.ErrSetNotFound), convey.ShouldBeTrue)
		})
	})

	convey.Convey("Given a stored set with a corrupt log", t, func() {
		store := repository.NewMemStore()
		q := queue.NewInMemoryQueue()
		w := worker.NewReplayWorker(q, store)

		id := storedSet(t, store, []event.Entry{
			{Type: event.TypePass, Evaluation: event.EvalPerfect, Player: "OH1"},
		})

		convey.Convey("the rebuild failure surfaces", func() {
			err := w.Process(context.Background(), worker.Job{SetID: id})
			var rerr *snapshot.ReplayError
			convey.So(errors.As(err, &rerr), convey.ShouldBeTrue)
			convey.So(rerr.Index, convey.ShouldEqual, 0)
		})
	})
}

func TestReplayWorkerRun(t *testing.T) {
	convey.Convey("Given a running worker", t, func() {
		store := repository.NewMemStore()
		q := queue.NewInMemoryQueue(queue.WithCapacity(4))
		w := worker.NewReplayWorker(q, store, worker.WithName("replay-test"))

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go w.Run(ctx)

		id := storedSet(t, store, []event.Entry{
			{Type: event.TypeOpponentError},
		})

		convey.Convey("queued jobs are consumed", func() {
			ok := q.Enqueue(ctx, worker.Job{SetID: id, WantUs: 1, WantThem: 0})
			convey.So(ok, convey.ShouldBeTrue)

			deadline := time.After(time.Second)
			for q.Len(ctx) > 0 {
				select {
				case <-deadline:
					t.Fatal("job not consumed in time")
				default:
					time.Sleep(5 * time.Millisecond)
				}
			}
		})

		convey.Convey("shutdown drains cleanly", func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Second)
			defer shutdownCancel()
			convey.So(w.Shutdown(shutdownCtx), convey.ShouldBeNil)
		})
	})
}

func TestPool(t *testing.T) {
	convey.Convey("Given a worker pool over a shared queue", t, func() {
		store := repository.NewMemStore()
		q := queue.NewInMemoryQueue(queue.WithCapacity(32))
		pool := worker.NewPool(3, q, store)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		pool.Start(ctx)

		id := storedSet(t, store, []event.Entry{
			{Type: event.TypeOpponentError},
			{Type: event.TypeFault},
		})

		convey.Convey("it consumes a burst of jobs", func() {
			for i := 0; i < 16; i++ {
				convey.So(q.Enqueue(ctx, worker.Job{SetID: id, WantUs: 1, WantThem: 1}), convey.ShouldBeTrue)
			}

			deadline := time.After(2 * time.Second)
			for q.Len(ctx) > 0 {
				select {
				case <-deadline:
					t.Fatal("pool did not drain the queue in time")
				default:
					time.Sleep(5 * time.Millisecond)
				}
			}

			convey.Convey("and shuts down after the queue closes", func() {
				convey.So(pool.Shutdown(context.Background()), convey.ShouldBeNil)
				convey.So(q.IsClosed(), convey.ShouldBeTrue)
			})
		})

		convey.Convey("stopping twice does not panic", func() {
			convey.So(pool.Stop, convey.ShouldNotPanic)
			convey.So(pool.Stop, convey.ShouldNotPanic)
		})
	})
}

func TestStopAfterWorkerShutdown(t *testing.T) {
	convey.Convey("Given a pool whose worker was shut down directly", t, func() {
		store := repository.NewMemStore()
		q := queue.NewInMemoryQueue(queue.WithCapacity(4))
		w := worker.NewReplayWorker(q, store)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go w.Run(ctx)

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Second)
		defer shutdownCancel()
		convey.So(w.Shutdown(shutdownCtx), convey.ShouldBeNil)

		convey.Convey("a second shutdown request is a no-op", func() {
			convey.So(func() { _ = w.Shutdown(shutdownCtx) }, convey.ShouldNotPanic)
		})
	})
}
