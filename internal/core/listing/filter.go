package listing

import (
	"fmt"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/Ning0612/lsparse/internal/domain"
)

// Filter keeps entries whose name matches at least one glob pattern.
// No patterns keeps everything. Matching is case-sensitive.
func Filter(entries []domain.Entry, patterns []string) ([]domain.Entry, error) {
	if len(patterns) == 0 {
		return entries, nil
	}

	for _, p := range patterns {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid match pattern: %q", p)
		}
	}

	kept := make([]domain.Entry, 0, len(entries))
	for _, e := range entries {
		for _, p := range patterns {
			// Patterns were validated above
			if ok, _ := doublestar.Match(p, e.Name); ok {
				kept = append(kept, e)
				break
			}
		}
	}
	return kept, nil
}
