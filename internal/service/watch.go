package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Ning0612/lsparse/internal/core/diff"
	"github.com/Ning0612/lsparse/internal/domain"
	"github.com/Ning0612/lsparse/internal/logger"
	"github.com/Ning0612/lsparse/internal/scheduler"
	"github.com/Ning0612/lsparse/internal/state"
)

// WatchTarget is a directory captured on every tick
type WatchTarget struct {
	Host string
	Dir  string

	// Label names the snapshot series; defaults to host:dir
	Label string
}

func (t WatchTarget) label() string {
	if t.Label != "" {
		return t.Label
	}
	return t.Host + ":" + t.Dir
}

// ChangeHandler is told about every capture that differs from the previous one
type ChangeHandler func(target WatchTarget, changes []diff.Change)

// WatchService periodically captures directories and records the differences
type WatchService struct {
	mu        sync.RWMutex
	listing   *ListingService
	scheduler *scheduler.IntervalScheduler
	targets   map[string]WatchTarget
	onChange  ChangeHandler
	last      *state.Snapshot
}

// WatchStatus represents the current watch status
type WatchStatus struct {
	Running        bool
	SchedulerStats *scheduler.Status
	LastSnapshot   *state.Snapshot
}

// NewWatchService creates a watch service on top of a listing service
func NewWatchService(listing *ListingService, onChange ChangeHandler) (*WatchService, error) {
	if listing == nil {
		return nil, fmt.Errorf("listing service cannot be nil")
	}

	return &WatchService{
		listing:  listing,
		targets:  make(map[string]WatchTarget),
		onChange: onChange,
	}, nil
}

// Start captures every target now and then once per interval.
// A capture still running after one interval is cancelled.
func (w *WatchService) Start(ctx context.Context, interval time.Duration, targets []WatchTarget) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.scheduler != nil {
		return fmt.Errorf("watch is already running")
	}

	byLabel := make(map[string]WatchTarget, len(targets))
	labels := make([]string, 0, len(targets))
	for _, t := range targets {
		label := t.label()
		if _, dup := byLabel[label]; dup {
			return fmt.Errorf("duplicate watch label: %s", label)
		}
		byLabel[label] = t
		labels = append(labels, label)
	}

	sched, err := scheduler.NewIntervalScheduler(scheduler.Config{
		Interval:   interval,
		Targets:    labels,
		Immediate:  true,
		RunTimeout: interval,
	}, scheduler.RunnerFunc(w.run))
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}

	w.targets = byLabel
	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	w.scheduler = sched

	logger.Get().Info("watch started", "targets", len(labels), "interval", interval.String())
	return nil
}

// Done is closed when the watch loop exits; nil before Start
func (w *WatchService) Done() <-chan struct{} {
	w.mu.RLock()
	defer w.mu.RUnlock()

	if w.scheduler == nil {
		return nil
	}
	return w.scheduler.Done()
}

// Stop stops the watch
func (w *WatchService) Stop() error {
	w.mu.Lock()
	sched := w.scheduler
	w.scheduler = nil
	w.mu.Unlock()

	if sched == nil {
		return fmt.Errorf("watch is not running")
	}

	// A cancelled context already ended the loop
	select {
	case <-sched.Done():
		return nil
	default:
	}

	if err := sched.Stop(); err != nil {
		return fmt.Errorf("failed to stop scheduler: %w", err)
	}
	return nil
}

// Status returns the current watch status
func (w *WatchService) Status() *WatchStatus {
	w.mu.RLock()
	defer w.mu.RUnlock()

	status := &WatchStatus{
		Running:      w.scheduler != nil,
		LastSnapshot: w.last,
	}
	if w.scheduler != nil {
		status.SchedulerStats = w.scheduler.Status()
		status.Running = status.SchedulerStats.Running
	}
	return status
}

func (w *WatchService) run(ctx context.Context, label string) error {
	w.mu.RLock()
	target, ok := w.targets[label]
	w.mu.RUnlock()
	if !ok {
		return fmt.Errorf("unknown watch target: %s", label)
	}

	_, err := w.Capture(ctx, target)
	return err
}

// Capture parses the target once, stores it, and reports changes since
// the previous snapshot of the same label. The first capture has no changes.
// A listing byte-identical to the previous snapshot is not stored again.
func (w *WatchService) Capture(ctx context.Context, target WatchTarget) ([]diff.Change, error) {
	label := target.label()
	log := logger.Get().With("label", label)
	ctx = logger.IntoContext(ctx, log)

	res, err := w.listing.Parse(ctx, Request{Host: target.Host, Target: target.Dir})
	if err != nil {
		log.Error("capture failed", "error", err)
		return nil, err
	}

	changes, prev, err := w.listing.Diff(ctx, label, res)
	if err != nil && !errors.Is(err, domain.ErrSnapshotNotFound) {
		return nil, err
	}

	if prev != nil && prev.Digest != "" && prev.Digest == res.Digest {
		log.Debug("listing unchanged", "snapshot", prev.ID)
		w.mu.Lock()
		w.last = header(prev)
		w.mu.Unlock()
		return nil, nil
	}

	id, err := w.listing.Save(ctx, label, res)
	if err != nil {
		return nil, err
	}

	w.mu.Lock()
	w.last = &state.Snapshot{
		ID:         id,
		Label:      label,
		Dir:        res.Dir,
		CapturedAt: time.Now(),
		EntryCount: len(res.Entries),
		ErrorCount: len(res.Errors),
		Digest:     res.Digest,
	}
	w.mu.Unlock()

	if len(changes) > 0 {
		log.Info("listing changed", "changes", len(changes), "snapshot", id)
		if w.onChange != nil {
			w.onChange(target, changes)
		}
	}
	return changes, nil
}

// header drops the entries of a loaded snapshot
func header(s *state.Snapshot) *state.Snapshot {
	h := *s
	h.Entries = nil
	return &h
}
