// Package lines splits captured listing output into candidate listing lines.
package lines

import (
	"iter"
	"strings"
)

// summaryPrefix starts the block-count line ls prints before the entries
const summaryPrefix = "total "

// Lines yields the 1-based number and text of every candidate listing line.
//
// A "total <N>" summary on the first line is discarded and empty lines are
// skipped; both still count toward line numbers. Each call starts over from
// the beginning of input.
func Lines(input string) iter.Seq2[int, string] {
	return func(yield func(int, string) bool) {
		rest := input
		for n := 1; rest != ""; n++ {
			line := rest
			if i := strings.IndexByte(rest, '\n'); i >= 0 {
				line, rest = rest[:i], rest[i+1:]
			} else {
				rest = ""
			}

			if line == "" {
				continue
			}
			if n == 1 && IsSummary(line) {
				continue
			}
			if !yield(n, line) {
				return
			}
		}
	}
}

// IsSummary reports whether line is a "total <N>" block-count line.
// N may carry a size suffix when ls was run with -h (e.g. "total 1.2M").
func IsSummary(line string) bool {
	if !strings.HasPrefix(line, summaryPrefix) {
		return false
	}
	count := strings.TrimLeft(line[len(summaryPrefix):], " ")
	if count == "" {
		return false
	}
	for i := 0; i < len(count); i++ {
		c := count[i]
		if (c < '0' || c > '9') && c != '.' && c != ',' && !strings.ContainsRune("KMGTPEZYkB", rune(c)) {
			return false
		}
	}
	return count[0] >= '0' && count[0] <= '9'
}
