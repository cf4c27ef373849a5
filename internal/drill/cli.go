package drill

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/okian/sideout/pkg/logger"
)

// File permission constants.
const (
	logFilePermission = 0600
)

// SetupLogging configures logging to both console and file.
// If logFile is empty, a timestamped filename is generated.
func SetupLogging(logFile string) error {
	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if logFile == "" {
		timestamp := time.Now().Format("20060102_150405")
		logFile = "drill_log_" + timestamp + ".log"
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}

	multiWriter := io.MultiWriter(os.Stdout, file)
	log.SetOutput(multiWriter)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	logger.Get().Info(context.Background(), "logging to file", logger.String("logFile", logFile))
	return nil
}

// ShowHelp prints usage information for the drill tool.
func ShowHelp() {
	os.Stdout.WriteString(`Sideout Scouting Drill
======================

Generates random but legal scouting event sequences, plays them against a
running service, and verifies the served scores against a local replay.

Usage:
  go run cmd/drill/main.go [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:8080")
  -sets int
        Number of sets to generate and play (default 5)
  -workers int
        Number of sets played concurrently (default 2)
  -seed int
        Base seed for the event generators (default: current time)
  -timeout duration
        HTTP request timeout (default 30s)
  -log string
        Log file for drill output (default: drill_log_TIMESTAMP.log)
  -verbose
        Enable verbose logging
  -help
        Show this help message

Examples:
  # Play five sets against a local service
  go run cmd/drill/main.go

  # Reproduce a failing run
  go run cmd/drill/main.go -sets 20 -seed 42

  # Heavier run against a remote service
  go run cmd/drill/main.go -sets 100 -workers 8 -url http://scout.local:8080
`)
}
