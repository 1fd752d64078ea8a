// Package parser turns captured `ls -lpa` output into typed entries.
//
// Every line yields exactly one outcome: an entry, an error, or nothing at
// all for the summary line, empty lines, symbolic links and device files.
// A Parser holds only its options and is safe for concurrent use.
package parser

import (
	"errors"
	"iter"

	"github.com/Ning0612/lsparse/internal/core/lines"
	"github.com/Ning0612/lsparse/internal/core/mode"
	"github.com/Ning0612/lsparse/internal/core/name"
	"github.com/Ning0612/lsparse/internal/domain"
)

// Result is the outcome of one listing line: an entry or an error
type Result struct {
	// Line is the 1-based line number within the input
	Line  int
	Entry domain.Entry
	Err   *domain.LineError
}

// OK reports whether the line produced an entry
func (r Result) OK() bool {
	return r.Err == nil
}

// Parser parses listings with a fixed set of options
type Parser struct {
	dir      string
	dialect  name.Dialect
	skipDots bool
	modeOpts mode.Options
}

// New creates a parser; without options it expects --quoting-style=c output
func New(opts ...Option) *Parser {
	p := &Parser{dialect: name.DialectC}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Results lazily yields one Result per entry or malformed line, in line order
func (p *Parser) Results(input string) iter.Seq[Result] {
	return func(yield func(Result) bool) {
		for n, line := range lines.Lines(input) {
			entry, ok, err := p.parseLine(line)
			if err != nil {
				if !yield(Result{Line: n, Err: domain.NewLineError(n, line, err)}) {
					return
				}
				continue
			}
			if !ok {
				continue
			}
			if !yield(Result{Line: n, Entry: entry}) {
				return
			}
		}
	}
}

// Parse returns all entries, stopping at the first malformed line.
// The returned error is a *domain.LineError.
func (p *Parser) Parse(input string) ([]domain.Entry, error) {
	var entries []domain.Entry
	for r := range p.Results(input) {
		if r.Err != nil {
			return nil, r.Err
		}
		entries = append(entries, r.Entry)
	}
	return entries, nil
}

// ParseAll parses every line and returns all outcomes in line order
func (p *Parser) ParseAll(input string) []Result {
	var results []Result
	for r := range p.Results(input) {
		results = append(results, r)
	}
	return results
}

// Parse parses input with default options, stopping at the first error
func Parse(input string, opts ...Option) ([]domain.Entry, error) {
	return New(opts...).Parse(input)
}

// ParseAll parses input with default options, collecting every outcome
func ParseAll(input string, opts ...Option) []Result {
	return New(opts...).ParseAll(input)
}

// Entries returns the entries from results, skipping errors
func Entries(results []Result) []domain.Entry {
	entries := make([]domain.Entry, 0, len(results))
	for _, r := range results {
		if r.OK() {
			entries = append(entries, r.Entry)
		}
	}
	return entries
}

// Errors returns the line errors from results
func Errors(results []Result) []*domain.LineError {
	var errs []*domain.LineError
	for _, r := range results {
		if !r.OK() {
			errs = append(errs, r.Err)
		}
	}
	return errs
}

// Join combines the line errors from results into one error, nil if there are none
func Join(results []Result) error {
	var errs []error
	for _, e := range Errors(results) {
		errs = append(errs, e)
	}
	return errors.Join(errs...)
}
