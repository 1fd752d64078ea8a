// Package checksum fingerprints raw listings so that a capture identical
// to the previous one can be recognized without comparing entries.
package checksum

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrTooLarge is returned for listings above Options.MaxSize
var ErrTooLarge = errors.New("listing exceeds maximum fingerprint size")

// Options configures a Fingerprinter
type Options struct {
	// MaxSize: listings larger than this are rejected (0 = unlimited)
	MaxSize int64

	// BufferSize: size of buffer for streaming reads
	BufferSize int
}

// DefaultOptions returns the recommended default options
func DefaultOptions() Options {
	return Options{
		MaxSize:    256 * 1024 * 1024, // 256MB
		BufferSize: 32 * 1024,         // 32KB
	}
}

// Fingerprinter computes listing digests
type Fingerprinter struct {
	opts Options
}

// New creates a fingerprinter with the given options
func New(opts Options) *Fingerprinter {
	if opts.BufferSize <= 0 {
		opts.BufferSize = DefaultOptions().BufferSize
	}
	return &Fingerprinter{opts: opts}
}

// NewDefault creates a fingerprinter with default options
func NewDefault() *Fingerprinter {
	return New(DefaultOptions())
}

// Reader streams r into a SHA-256 digest and returns it hex encoded
func (f *Fingerprinter) Reader(ctx context.Context, r io.Reader) (string, error) {
	h := sha256.New()

	if f.opts.MaxSize > 0 {
		r = io.LimitReader(r, f.opts.MaxSize+1)
	}

	buffer := make([]byte, f.opts.BufferSize)
	var total int64
	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
		}

		n, err := r.Read(buffer)
		if n > 0 {
			total += int64(n)
			if f.opts.MaxSize > 0 && total > f.opts.MaxSize {
				return "", fmt.Errorf("%w (%d bytes)", ErrTooLarge, f.opts.MaxSize)
			}
			h.Write(buffer[:n])
		}

		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("read error: %w", err)
		}
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

// Listing fingerprints listing text
func (f *Fingerprinter) Listing(ctx context.Context, text string) (string, error) {
	return f.Reader(ctx, strings.NewReader(text))
}

// Short returns the abbreviated form of a digest used in tables
func Short(digest string) string {
	if len(digest) > 12 {
		return digest[:12]
	}
	return digest
}
