package drill

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/sideout/pkg/logger"
)

// statsCollector accumulates counters across concurrent set workers.
type statsCollector struct {
	played     atomic.Int64
	mismatched atomic.Int64
	generated  atomic.Int64
	submitted  atomic.Int64
	applied    atomic.Int64
	duplicate  atomic.Int64
	failed     atomic.Int64
}

// Run executes the complete drill: generate sets, verify local determinism,
// play each set against the service, and compare final states.
func Run(ctx context.Context, config *Config) error {
	start := time.Now()
	log := logger.Get()

	log.Info(ctx, "starting scouting drill",
		logger.String("baseURL", config.BaseURL),
		logger.Int("sets", config.Sets),
		logger.Int("workers", config.Workers),
		logger.Int64("seed", config.Seed),
		logger.String("timeout", config.Timeout.String()))

	client := newHTTPClient(config.Timeout)
	if err := checkServiceHealth(ctx, client, config.BaseURL); err != nil {
		return fmt.Errorf("service health check failed: %w", err)
	}
	log.Info(ctx, "service is healthy")

	collector := &statsCollector{}

	workers := config.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > config.Sets {
		workers = config.Sets
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				if err := playSet(ctx, client, config, i, collector); err != nil {
					collector.mismatched.Add(1)
					log.Error(ctx, "set drill failed",
						logger.Int("set", i),
						logger.Int64("seed", config.Seed+int64(i)),
						logger.Error(err))
				}
			}
		}()
	}

	for i := 0; i < config.Sets; i++ {
		select {
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return fmt.Errorf("drill cancelled: %w", ctx.Err())
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	stats := &Stats{
		SetsPlayed:      int(collector.played.Load()),
		SetsMismatched:  int(collector.mismatched.Load()),
		EventsGenerated: int(collector.generated.Load()),
		EventsSubmitted: int(collector.submitted.Load()),
		EventsApplied:   int(collector.applied.Load()),
		EventsDuplicate: int(collector.duplicate.Load()),
		EventsFailed:    int(collector.failed.Load()),
		StartTime:       start,
		EndTime:         time.Now(),
	}
	stats.Duration = stats.EndTime.Sub(stats.StartTime)

	displayFinalStats(ctx, stats)

	if stats.SetsMismatched > 0 {
		return fmt.Errorf("%d of %d sets failed verification", stats.SetsMismatched, config.Sets)
	}
	log.Info(ctx, "drill completed successfully")
	return nil
}

// playSet generates one set, verifies it locally, plays it against the
// service, and compares the final served view with the generated state.
func playSet(ctx context.Context, client *HTTPClient, config *Config, index int, stats *statsCollector) error {
	seed := config.Seed + int64(index)
	script, err := GenerateSet(seed, index+1)
	if err != nil {
		return fmt.Errorf("generation failed: %w", err)
	}
	stats.generated.Add(int64(len(script.Events)))

	if err := VerifyDeterminism(script); err != nil {
		return fmt.Errorf("local replay diverged: %w", err)
	}

	view, err := createSet(ctx, client, config.BaseURL, script.Setup)
	if err != nil {
		return err
	}
	if config.Verbose {
		logger.Get().Info(ctx, "playing set",
			logger.String("setID", view.ID),
			logger.Int64("seed", seed),
			logger.Int("events", len(script.Events)))
	}

	final, err := submitScript(ctx, client, config.BaseURL, view.ID, script, stats)
	if err != nil {
		return err
	}
	if err := VerifyServedView(script, final); err != nil {
		return fmt.Errorf("served view diverged: %w", err)
	}

	stats.played.Add(1)
	return nil
}

// displayFinalStats prints the final drill statistics.
func displayFinalStats(ctx context.Context, stats *Stats) {
	logger.Get().Info(ctx, "final statistics",
		logger.Int("setsPlayed", stats.SetsPlayed),
		logger.Int("setsMismatched", stats.SetsMismatched),
		logger.Int("eventsGenerated", stats.EventsGenerated),
		logger.Int("eventsSubmitted", stats.EventsSubmitted),
		logger.Int("eventsApplied", stats.EventsApplied),
		logger.Int("eventsDuplicate", stats.EventsDuplicate),
		logger.Int("eventsFailed", stats.EventsFailed),
		logger.String("duration", stats.Duration.String()))
}
