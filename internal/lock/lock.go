package lock

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

const (
	// LockFileName is the name of the lock file inside the snapshot directory
	LockFileName = ".lsparse.lock"
	// DefaultTimeout is how long Acquire waits for another holder
	DefaultTimeout = 10 * time.Second

	retryDelay = 50 * time.Millisecond
)

// ErrLockTimeout is returned when the lock is still held after the timeout
var ErrLockTimeout = errors.New("timeout acquiring snapshot lock")

// LockInfo contains metadata about the lock holder
type LockInfo struct {
	PID       int       `json:"pid"`
	Hostname  string    `json:"hostname"`
	StartTime time.Time `json:"start_time"`
	Label     string    `json:"label,omitempty"`
}

// FileLock serializes snapshot writers across processes.
// The kernel drops the lock when the holder exits, so a crashed process
// never leaves a stale lock behind.
type FileLock struct {
	lockPath string
	timeout  time.Duration
	flock    *flock.Flock
	info     *LockInfo
}

// NewFileLock creates a new file lock instance in lockDir
func NewFileLock(lockDir string) (*FileLock, error) {
	if lockDir == "" {
		return nil, fmt.Errorf("lock directory cannot be empty")
	}

	// Ensure lock directory exists
	if err := os.MkdirAll(lockDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create lock directory: %w", err)
	}

	lockPath := filepath.Join(lockDir, LockFileName)
	return &FileLock{
		lockPath: lockPath,
		timeout:  DefaultTimeout,
		flock:    flock.New(lockPath),
	}, nil
}

// SetTimeout sets how long Acquire waits
func (l *FileLock) SetTimeout(d time.Duration) {
	l.timeout = d
}

// Acquire takes the exclusive lock, waiting up to the timeout.
// Acquiring again from the same instance only updates the label.
func (l *FileLock) Acquire(ctx context.Context, label string) error {
	if l.info != nil {
		l.info.Label = label
		l.writeLockInfo(l.info)
		return nil
	}

	lockCtx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	locked, err := l.flock.TryLockContext(lockCtx, retryDelay)
	if err != nil || !locked {
		// Parent cancellation is reported as is
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil && !errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("failed to acquire lock: %w", err)
		}
		holder, _ := l.readLockInfo()
		return &LockError{Holder: holder, Reason: "lock is held by another process"}
	}

	hostname, _ := os.Hostname()
	l.info = &LockInfo{
		PID:       os.Getpid(),
		Hostname:  hostname,
		StartTime: time.Now(),
		Label:     label,
	}
	// Holder metadata is informational; the kernel lock is authoritative
	l.writeLockInfo(l.info)

	return nil
}

// Release releases the lock
func (l *FileLock) Release() error {
	if l.info == nil {
		return nil // Not holding lock
	}
	l.info = nil

	if err := l.flock.Unlock(); err != nil {
		return fmt.Errorf("failed to release lock: %w", err)
	}
	return nil
}

// IsLocked reports whether this instance holds the lock
func (l *FileLock) IsLocked() bool {
	return l.info != nil && l.flock.Locked()
}

// GetHolder returns information about the last lock holder
func (l *FileLock) GetHolder() (*LockInfo, error) {
	return l.readLockInfo()
}

// readLockInfo reads the lock information from file
func (l *FileLock) readLockInfo() (*LockInfo, error) {
	data, err := os.ReadFile(l.lockPath)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("lock file has no holder information")
	}

	var info LockInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("invalid lock file format: %w", err)
	}

	return &info, nil
}

// writeLockInfo records the holder in the lock file
func (l *FileLock) writeLockInfo(info *LockInfo) {
	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return
	}
	_ = os.WriteFile(l.lockPath, data, 0644)
}

// LockError represents an error when lock cannot be acquired
type LockError struct {
	Holder *LockInfo
	Reason string
}

func (e *LockError) Error() string {
	if e.Holder != nil {
		return fmt.Sprintf("cannot acquire lock: %s (held by PID %d on %s since %s, label: %s)",
			e.Reason,
			e.Holder.PID,
			e.Holder.Hostname,
			e.Holder.StartTime.Format(time.RFC3339),
			e.Holder.Label,
		)
	}
	return fmt.Sprintf("cannot acquire lock: %s", e.Reason)
}

// Unwrap allows errors.Is(err, ErrLockTimeout)
func (e *LockError) Unwrap() error {
	return ErrLockTimeout
}

// IsLockError checks if an error is a LockError
func IsLockError(err error) bool {
	var lockErr *LockError
	return errors.As(err, &lockErr)
}
