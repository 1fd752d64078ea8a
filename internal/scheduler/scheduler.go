package scheduler

import (
	"context"
	"time"
)

// Scheduler runs listing captures on a schedule
type Scheduler interface {
	// Start begins the scheduling loop
	Start(ctx context.Context) error

	// Stop gracefully stops the scheduler
	Stop() error

	// Status returns the current scheduler status
	Status() *Status
}

// Status represents the current state of a scheduler
type Status struct {
	Running        bool
	LastRunTime    time.Time
	NextRunTime    time.Time
	TotalRuns      int
	SuccessfulRuns int
	FailedRuns     int
	LastError      string

	// Targets holds per-target results keyed by target
	Targets map[string]TargetStatus
}

// TargetStatus is the capture history of one target
type TargetStatus struct {
	Runs                int
	LastRunTime         time.Time
	LastError           string
	ConsecutiveFailures int
}

// Config contains scheduler configuration
type Config struct {
	// Interval is the duration between runs
	Interval time.Duration

	// Targets are passed to the runner one at a time on every run
	Targets []string

	// Immediate runs once right after Start instead of waiting a full interval
	Immediate bool

	// RunTimeout bounds each target's run (0 = no limit)
	RunTimeout time.Duration
}

// Runner executes one capture for a target
type Runner interface {
	Run(ctx context.Context, target string) error
}

// RunnerFunc adapts a function to Runner
type RunnerFunc func(ctx context.Context, target string) error

// Run calls f
func (f RunnerFunc) Run(ctx context.Context, target string) error {
	return f(ctx, target)
}
