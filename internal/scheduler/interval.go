package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// IntervalScheduler captures every target once per tick of a time.Ticker
type IntervalScheduler struct {
	config Config
	runner Runner

	// Runtime state
	mu          sync.RWMutex
	running     bool
	stopped     bool      // Track if stopped to prevent restart
	stopOnce    sync.Once // Ensure Stop() is idempotent
	closeOnce   sync.Once // Ensure stoppedChan is closed exactly once
	stopChan    chan struct{}
	stoppedChan chan struct{}

	// Statistics
	stats struct {
		lastRunTime    time.Time
		nextRunTime    time.Time
		totalRuns      int
		successfulRuns int
		failedRuns     int
		lastError      string
		targets        map[string]TargetStatus
	}
}

// NewIntervalScheduler creates a new interval-based scheduler
func NewIntervalScheduler(config Config, runner Runner) (*IntervalScheduler, error) {
	if config.Interval <= 0 {
		return nil, fmt.Errorf("interval must be positive, got %v", config.Interval)
	}

	if len(config.Targets) == 0 {
		return nil, fmt.Errorf("at least one target is required")
	}

	if runner == nil {
		return nil, fmt.Errorf("runner cannot be nil")
	}

	if config.RunTimeout < 0 {
		return nil, fmt.Errorf("run timeout must not be negative, got %v", config.RunTimeout)
	}

	seen := make(map[string]bool, len(config.Targets))
	for _, t := range config.Targets {
		if seen[t] {
			return nil, fmt.Errorf("duplicate target: %s", t)
		}
		seen[t] = true
	}

	s := &IntervalScheduler{
		config:      config,
		runner:      runner,
		stopChan:    make(chan struct{}),
		stoppedChan: make(chan struct{}),
	}
	s.stats.targets = make(map[string]TargetStatus, len(config.Targets))
	return s, nil
}

// Start begins the scheduling loop
func (s *IntervalScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("scheduler is already running")
	}

	if s.stopped {
		return fmt.Errorf("scheduler cannot be restarted after stop")
	}

	s.running = true
	s.stats.nextRunTime = time.Now().Add(s.config.Interval)

	// Start the scheduling loop in a goroutine
	go s.run(ctx)

	return nil
}

// run is the main scheduling loop
func (s *IntervalScheduler) run(ctx context.Context) {
	// Ensure stoppedChan is closed exactly once and stopped flag is set
	defer s.closeOnce.Do(func() {
		s.mu.Lock()
		s.stopped = true
		s.running = false
		s.mu.Unlock()
		close(s.stoppedChan)
	})

	if s.config.Immediate {
		s.runAll(ctx)
	}

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			// Context cancelled - return gracefully
			return
		case <-s.stopChan:
			// Stop requested - return gracefully
			return
		case <-ticker.C:
			s.runAll(ctx)
		}
	}
}

// runAll runs every target once; a failing target does not stop the others
func (s *IntervalScheduler) runAll(ctx context.Context) {
	s.mu.Lock()
	s.stats.lastRunTime = time.Now()
	s.stats.totalRuns++
	s.stats.nextRunTime = time.Now().Add(s.config.Interval)
	s.mu.Unlock()

	var errs []error
	for _, target := range s.config.Targets {
		if ctx.Err() != nil {
			return
		}
		err := s.runTarget(ctx, target)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", target, err))
		}
		s.record(target, err)
	}

	// Update statistics
	s.mu.Lock()
	if len(errs) > 0 {
		s.stats.failedRuns++
		s.stats.lastError = errors.Join(errs...).Error()
	} else {
		s.stats.successfulRuns++
		s.stats.lastError = ""
	}
	s.mu.Unlock()
}

func (s *IntervalScheduler) runTarget(ctx context.Context, target string) error {
	if s.config.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.RunTimeout)
		defer cancel()
	}
	return s.runner.Run(ctx, target)
}

func (s *IntervalScheduler) record(target string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ts := s.stats.targets[target]
	ts.Runs++
	ts.LastRunTime = time.Now()
	if err != nil {
		ts.LastError = err.Error()
		ts.ConsecutiveFailures++
	} else {
		ts.LastError = ""
		ts.ConsecutiveFailures = 0
	}
	s.stats.targets[target] = ts
}

// Stop gracefully stops the scheduler
func (s *IntervalScheduler) Stop() error {
	s.mu.RLock()
	if !s.running {
		s.mu.RUnlock()
		return fmt.Errorf("scheduler is not running")
	}
	s.mu.RUnlock()

	// Use sync.Once to ensure stop channel is closed only once
	s.stopOnce.Do(func() {
		close(s.stopChan)
	})

	// Wait for scheduler to stop
	<-s.stoppedChan

	// Mark as stopped to prevent restart
	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()

	return nil
}

// Done is closed once the scheduling loop has exited
func (s *IntervalScheduler) Done() <-chan struct{} {
	return s.stoppedChan
}

// Status returns the current scheduler status
func (s *IntervalScheduler) Status() *Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	targets := make(map[string]TargetStatus, len(s.stats.targets))
	for k, v := range s.stats.targets {
		targets[k] = v
	}

	return &Status{
		Running:        s.running,
		LastRunTime:    s.stats.lastRunTime,
		NextRunTime:    s.stats.nextRunTime,
		TotalRuns:      s.stats.totalRuns,
		SuccessfulRuns: s.stats.successfulRuns,
		FailedRuns:     s.stats.failedRuns,
		LastError:      s.stats.lastError,
		Targets:        targets,
	}
}
