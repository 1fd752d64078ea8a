package parser

import (
	"github.com/Ning0612/lsparse/internal/core/mode"
	"github.com/Ning0612/lsparse/internal/core/name"
)

// Option configures a Parser
type Option func(*Parser)

// WithDir sets the parent directory recorded on every entry
func WithDir(dir string) Option {
	return func(p *Parser) {
		p.dir = dir
	}
}

// WithDialect selects the quoting convention the listing was produced with.
// The default is name.DialectC.
func WithDialect(d name.Dialect) Option {
	return func(p *Parser) {
		p.dialect = d
	}
}

// WithSkipDotEntries drops the "." and ".." folders that ls -a prints
func WithSkipDotEntries(skip bool) Option {
	return func(p *Parser) {
		p.skipDots = skip
	}
}

// WithAccessMarker accepts a trailing '.', '+' or '@' after the mode string
func WithAccessMarker(allow bool) Option {
	return func(p *Parser) {
		p.modeOpts = mode.Options{AllowAccessMarker: allow}
	}
}
