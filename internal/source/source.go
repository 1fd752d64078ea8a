// Package source captures raw ls -lpa listings for the parser.
package source

import "context"

// Source produces the text of a directory listing.
// Implementations return domain-level errors for consistent handling.
type Source interface {
	// Fetch returns the listing for target.
	// Returns domain.ErrSourceNotFound if target doesn't exist
	// Returns domain.ErrCommandFailed if the listing command exits non-zero
	Fetch(ctx context.Context, target string) (string, error)

	// Close releases any resources held by the source
	Close() error
}
