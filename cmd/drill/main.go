package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/okian/sideout/internal/drill"
)

// Default configuration constants.
const (
	defaultSets         = 5
	defaultWorkers      = 2
	defaultTimeout      = 30 * time.Second
	defaultDrillTimeout = 10 * time.Minute
)

func main() {
	var (
		baseURL = flag.String("url", "http://localhost:8080", "Base URL of the service")
		sets    = flag.Int("sets", defaultSets, "Number of sets to generate and play")
		workers = flag.Int("workers", defaultWorkers, "Number of sets played concurrently")
		seed    = flag.Int64("seed", time.Now().UnixNano(), "Base seed for the event generators")
		timeout = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		logFile = flag.String("log", "", "Log file for drill output (default: drill_log_TIMESTAMP.log)")
		verbose = flag.Bool("verbose", false, "Enable verbose logging")
		help    = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		drill.ShowHelp()
		return
	}

	if err := drill.SetupLogging(*logFile); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultDrillTimeout)
	defer cancel()

	config := &drill.Config{
		BaseURL: *baseURL,
		Sets:    *sets,
		Workers: *workers,
		Seed:    *seed,
		Timeout: *timeout,
		LogFile: *logFile,
		Verbose: *verbose,
	}

	if err := drill.Run(ctx, config); err != nil {
		os.Stderr.WriteString("Drill failed: " + err.Error() + "\n")
		os.Exit(1)
	}
}
