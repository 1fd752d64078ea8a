package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/Ning0612/lsparse/internal/domain"
	"github.com/Ning0612/lsparse/internal/logger"
)

// Stdin is the target that reads from the source's reader instead of a file
const Stdin = "-"

// Source reads listings captured earlier with ls -lpa
type Source struct {
	stdin io.Reader
}

// New creates a local source; stdin is used for the "-" target
func New(stdin io.Reader) *Source {
	return &Source{stdin: stdin}
}

// Fetch reads the listing file at target, or stdin when target is "-"
func (s *Source) Fetch(ctx context.Context, target string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if target == Stdin {
		if s.stdin == nil {
			return "", fmt.Errorf("%w: no standard input", domain.ErrSourceNotFound)
		}
		data, err := io.ReadAll(s.stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read standard input: %w", err)
		}
		return string(data), nil
	}

	path, err := filepath.Abs(target)
	if err != nil {
		return "", err
	}

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", domain.ErrSourceNotFound, target)
		}
		return "", err
	}
	if info.IsDir() {
		return "", fmt.Errorf("%s is a directory; capture it with ls -lpa first", target)
	}

	logger.FromContext(ctx).Debug("reading captured listing", "path", path, "size", info.Size())
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read listing: %w", err)
	}
	return string(data), nil
}

// Close is a no-op
func (s *Source) Close() error {
	return nil
}
