package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"sync"

	"github.com/Ning0612/lsparse/internal/config"
	"github.com/Ning0612/lsparse/internal/core/checksum"
	"github.com/Ning0612/lsparse/internal/core/diff"
	"github.com/Ning0612/lsparse/internal/core/listing"
	"github.com/Ning0612/lsparse/internal/core/name"
	"github.com/Ning0612/lsparse/internal/domain"
	"github.com/Ning0612/lsparse/internal/lock"
	"github.com/Ning0612/lsparse/internal/logger"
	"github.com/Ning0612/lsparse/internal/parser"
	"github.com/Ning0612/lsparse/internal/source"
	"github.com/Ning0612/lsparse/internal/source/local"
	"github.com/Ning0612/lsparse/internal/source/remote"
	"github.com/Ning0612/lsparse/internal/state"
)

// LocalHost names the source that reads captured files and stdin
const LocalHost = ""

// Request selects a listing to parse
type Request struct {
	// Host is a configured host name; LocalHost reads Target from disk or stdin
	Host string

	// Target is a listing file, "-" for stdin, or a remote directory
	Target string

	// RemoteFile reads Target over SFTP as a captured listing instead of running ls
	RemoteFile bool

	// Dir is recorded as the parent directory of every entry.
	// Remote directory listings default to Target.
	Dir string

	// Match keeps only entries whose name matches one of the globs
	Match []string
}

// Result is the outcome of a parse under the collect policy
type Result struct {
	Source  string
	Dir     string
	Entries []domain.Entry
	Errors  []*domain.LineError

	// Digest fingerprints the listing text before filtering
	Digest string
}

// Failed reports whether any line was malformed
func (r *Result) Failed() bool {
	return len(r.Errors) > 0
}

// fileReader is implemented by sources that can read captured listing files
type fileReader interface {
	Read(ctx context.Context, path string) (string, error)
}

// dialFunc opens a remote source
type dialFunc func(ctx context.Context, host domain.Host, dialect name.Dialect) (source.Source, error)

// ListingService fetches, parses and stores listings
type ListingService struct {
	mu      sync.Mutex
	config  *config.Config
	stdin   io.Reader
	sources map[string]source.Source
	dial    dialFunc
	digests *checksum.Fingerprinter

	store *state.Manager
	lock  *lock.FileLock
}

// NewListingService creates a new listing service; stdin backs the "-" target
func NewListingService(cfg *config.Config, stdin io.Reader) (*ListingService, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	return &ListingService{
		config:  cfg,
		stdin:   stdin,
		sources: make(map[string]source.Source),
		digests: checksum.NewDefault(),
		dial: func(ctx context.Context, host domain.Host, dialect name.Dialect) (source.Source, error) {
			return remote.Dial(ctx, host, dialect)
		},
	}, nil
}

// getSource returns or creates the source for a host
func (s *ListingService) getSource(ctx context.Context, hostName string) (source.Source, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if src, ok := s.sources[hostName]; ok {
		return src, nil
	}

	var src source.Source
	if hostName == LocalHost {
		src = local.New(s.stdin)
	} else {
		host, err := s.config.GetHost(hostName)
		if err != nil {
			return nil, err
		}

		logger.Get().Debug("connecting to host", "host", host.Name, "addr", host.Addr())
		src, err = s.dial(ctx, *host, s.dialect())
		if err != nil {
			return nil, fmt.Errorf("failed to connect to %s: %w", hostName, err)
		}
	}

	s.sources[hostName] = src
	return src, nil
}

func (s *ListingService) dialect() name.Dialect {
	return name.Dialect(s.config.Parser.Dialect)
}

// newParser builds a parser from the configured options
func (s *ListingService) newParser(dir string) *parser.Parser {
	pc := s.config.Parser
	return parser.New(
		parser.WithDir(dir),
		parser.WithDialect(name.Dialect(pc.Dialect)),
		parser.WithSkipDotEntries(pc.SkipDotEntries),
		parser.WithAccessMarker(pc.AllowAccessMarker),
	)
}

// Fetch returns the raw listing text for a request
func (s *ListingService) Fetch(ctx context.Context, req Request) (string, error) {
	src, err := s.getSource(ctx, req.Host)
	if err != nil {
		return "", err
	}

	if req.RemoteFile {
		fr, ok := src.(fileReader)
		if !ok {
			return "", fmt.Errorf("source %q cannot read remote files", req.Host)
		}
		return fr.Read(ctx, req.Target)
	}
	return src.Fetch(ctx, req.Target)
}

// Parse fetches and parses a listing.
// Under the fail-fast policy the first malformed line is returned as a
// *domain.LineError; under collect every malformed line is in Result.Errors.
func (s *ListingService) Parse(ctx context.Context, req Request) (*Result, error) {
	log := logger.FromContext(ctx).With("host", req.Host, "target", req.Target)
	ctx = logger.IntoContext(ctx, log)
	log.Debug("fetching listing")

	text, err := s.Fetch(ctx, req)
	if err != nil {
		log.Error("failed to fetch listing", "error", err)
		return nil, err
	}

	dir := req.Dir
	if dir == "" && req.Host != LocalHost && !req.RemoteFile {
		dir = req.Target
	}
	p := s.newParser(dir)

	digest, err := s.digests.Listing(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to fingerprint listing: %w", err)
	}

	res := &Result{Source: describe(req), Dir: dir, Digest: digest}
	if s.config.Parser.Mode == domain.PolicyFailFast {
		entries, err := p.Parse(text)
		if err != nil {
			var lineErr *domain.LineError
			if errors.As(err, &lineErr) {
				log.Warn("malformed listing line", "line", lineErr.Line, "kind", lineErr.Kind.String(), "detail", lineErr.Detail)
			}
			return nil, err
		}
		res.Entries = entries
	} else {
		results := p.ParseAll(text)
		res.Entries = parser.Entries(results)
		res.Errors = parser.Errors(results)
		for _, le := range res.Errors {
			log.Warn("malformed listing line", "line", le.Line, "kind", le.Kind.String(), "detail", le.Detail)
		}
	}

	res.Entries, err = listing.Filter(res.Entries, req.Match)
	if err != nil {
		return nil, err
	}

	log.Info("listing parsed", "entries", len(res.Entries), "errors", len(res.Errors))
	return res, nil
}

func describe(req Request) string {
	if req.Host == LocalHost {
		return req.Target
	}
	return req.Host + ":" + req.Target
}

// getStore opens the snapshot database and its lock on first use
func (s *ListingService) getStore() (*state.Manager, *lock.FileLock, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.store != nil {
		return s.store, s.lock, nil
	}

	dir := s.config.Snapshots.Dir
	fileLock, err := lock.NewFileLock(dir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create snapshot lock: %w", err)
	}
	store, err := state.NewManager(dir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open snapshot store: %w", err)
	}

	s.store = store
	s.lock = fileLock
	return store, fileLock, nil
}

// withLock runs fn while holding the snapshot lock
func (s *ListingService) withLock(ctx context.Context, label string, fn func(*state.Manager) error) error {
	store, fileLock, err := s.getStore()
	if err != nil {
		return err
	}

	logger.Get().Debug("acquiring snapshot lock", "label", label)
	if err := fileLock.Acquire(ctx, label); err != nil {
		logger.Get().Error("failed to acquire snapshot lock", "label", label, "error", err)
		return fmt.Errorf("failed to acquire snapshot lock: %w", err)
	}
	defer func() {
		if err := fileLock.Release(); err != nil {
			logger.Get().Error("failed to release snapshot lock", "label", label, "error", err)
		}
	}()

	return fn(store)
}

// Save stores a parse result as a snapshot under label
func (s *ListingService) Save(ctx context.Context, label string, res *Result) (int64, error) {
	var id int64
	err := s.withLock(ctx, label, func(store *state.Manager) error {
		var err error
		id, err = store.SaveSnapshot(ctx, state.Snapshot{
			Label:      label,
			Dir:        res.Dir,
			EntryCount: len(res.Entries),
			ErrorCount: len(res.Errors),
			Digest:     res.Digest,
			Entries:    res.Entries,
		})
		return err
	})
	if err != nil {
		return 0, err
	}

	logger.Get().Info("snapshot saved", "label", label, "id", id, "entries", len(res.Entries))
	return id, nil
}

// Snapshots lists stored snapshots, newest first
func (s *ListingService) Snapshots(ctx context.Context, label string, limit int) ([]state.Snapshot, error) {
	store, _, err := s.getStore()
	if err != nil {
		return nil, err
	}
	return store.ListSnapshots(ctx, label, limit)
}

// Prune deletes all but the newest keep snapshots of label
func (s *ListingService) Prune(ctx context.Context, label string, keep int) (int, error) {
	if label == "" {
		return 0, fmt.Errorf("label cannot be empty")
	}
	if keep < 0 {
		return 0, fmt.Errorf("keep must not be negative, got %d", keep)
	}

	deleted := 0
	err := s.withLock(ctx, label, func(store *state.Manager) error {
		snaps, err := store.ListSnapshots(ctx, label, math.MaxInt32)
		if err != nil {
			return err
		}
		for i := keep; i < len(snaps); i++ {
			if err := store.DeleteSnapshot(ctx, snaps[i].ID); err != nil {
				return err
			}
			deleted++
		}
		return nil
	})
	if err != nil {
		return deleted, err
	}

	logger.Get().Info("snapshots pruned", "label", label, "deleted", deleted, "kept", keep)
	return deleted, nil
}

// Diff compares a parse result with the latest snapshot stored under label
func (s *ListingService) Diff(ctx context.Context, label string, res *Result) ([]diff.Change, *state.Snapshot, error) {
	store, _, err := s.getStore()
	if err != nil {
		return nil, nil, err
	}

	prev, err := store.LatestSnapshot(ctx, label)
	if err != nil {
		return nil, nil, err
	}

	changes := diff.Compare(prev.Entries, res.Entries, nil)
	logger.Get().Info("listing compared", "label", label, "snapshot", prev.ID, "changes", len(changes))
	return changes, prev, nil
}

// DiffSnapshots compares two stored snapshots by id
func (s *ListingService) DiffSnapshots(ctx context.Context, oldID, newID int64) ([]diff.Change, error) {
	store, _, err := s.getStore()
	if err != nil {
		return nil, err
	}

	prev, err := store.GetSnapshot(ctx, oldID)
	if err != nil {
		return nil, err
	}
	next, err := store.GetSnapshot(ctx, newID)
	if err != nil {
		return nil, err
	}

	return diff.Compare(prev.Entries, next.Entries, nil), nil
}

// Close releases all sources and the snapshot store
func (s *ListingService) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var lastErr error
	for _, src := range s.sources {
		if err := src.Close(); err != nil {
			lastErr = err
		}
	}
	s.sources = make(map[string]source.Source)

	if s.lock != nil {
		if err := s.lock.Release(); err != nil {
			lastErr = err
		}
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			lastErr = err
		}
		s.store = nil
	}
	return lastErr
}

var _ io.Closer = (*ListingService)(nil)
