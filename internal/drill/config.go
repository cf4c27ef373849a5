package drill

import (
	"time"

	"github.com/okian/sideout/internal/domain/model"
)

// Config holds configuration for a scouting drill run.
type Config struct {
	BaseURL string        // Base URL of the service
	Sets    int           // Number of sets to generate and play
	Workers int           // Number of sets played concurrently
	Seed    int64         // Base seed for the event generators
	Timeout time.Duration // HTTP request timeout
	LogFile string        // Log file for drill output
	Verbose bool          // Enable verbose logging
}

// Script is one fully generated set: the setup payload, the ordered event
// submissions, and the locally computed final state to verify against.
type Script struct {
	Setup     model.SetSetup
	Events    []model.Submission
	FinalUs   int
	FinalThem int
	Winner    string
	Complete  bool
}

// Stats holds drill statistics.
type Stats struct {
	SetsPlayed      int
	SetsMismatched  int
	EventsGenerated int
	EventsSubmitted int
	EventsApplied   int
	EventsDuplicate int
	EventsFailed    int
	StartTime       time.Time
	EndTime         time.Time
	Duration        time.Duration
}
