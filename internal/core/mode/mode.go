// Package mode classifies the ten-character type and permission column.
package mode

import (
	"fmt"

	"github.com/Ning0612/lsparse/internal/domain"
)

// Length of a mode string: one type character and nine permission characters
const Length = 10

// Options tunes classification
type Options struct {
	// AllowAccessMarker accepts one trailing '.', '+' or '@' after the ten
	// characters (SELinux context, POSIX ACL, macOS extended attributes)
	AllowAccessMarker bool
}

var kinds = map[byte]domain.Kind{
	'-': domain.KindFile,
	'd': domain.KindFolder,
	'l': domain.KindSymlink,
	'b': domain.KindDevice,
	'c': domain.KindDevice,
}

// symbol is one accepted character at a permission position
type symbol struct {
	c       byte
	set     bool // the read/write/execute bit
	special bool // setuid, setgid or sticky
}

var (
	readSymbols    = []symbol{{'-', false, false}, {'r', true, false}}
	writeSymbols   = []symbol{{'-', false, false}, {'w', true, false}}
	setidSymbols   = []symbol{{'-', false, false}, {'x', true, false}, {'s', true, true}, {'S', false, true}}
	stickySymbols  = []symbol{{'-', false, false}, {'x', true, false}, {'t', true, true}, {'T', false, true}}
	positionTables = [9][]symbol{
		readSymbols, writeSymbols, setidSymbols,
		readSymbols, writeSymbols, setidSymbols,
		readSymbols, writeSymbols, stickySymbols,
	}
)

// Parse decodes a mode string such as "drwxr-xr-x" into its kind and permissions.
//
// An unknown type character is reported as domain.ErrMalformedLine because it
// usually means the line was split at the wrong place; a bad length or
// permission character is domain.ErrMalformedMode.
func Parse(s string, opts Options) (domain.Kind, domain.Permissions, error) {
	var perms domain.Permissions

	if opts.AllowAccessMarker && len(s) == Length+1 {
		switch s[Length] {
		case '.', '+', '@':
			perms.AccessMarker = s[Length:]
			s = s[:Length]
		}
	}

	if len(s) != Length {
		return 0, domain.Permissions{}, fmt.Errorf("%w: %q is %d characters, want %d",
			domain.ErrMalformedMode, s, len(s), Length)
	}

	kind, ok := kinds[s[0]]
	if !ok {
		return 0, domain.Permissions{}, fmt.Errorf("%w: unknown file type %q", domain.ErrMalformedLine, s[0])
	}

	var bits [9]bool
	var specials [3]bool
	for pos, table := range positionTables {
		c := s[pos+1]
		sym, ok := lookup(table, c)
		if !ok {
			return 0, domain.Permissions{}, fmt.Errorf("%w: unexpected %q at position %d of %q",
				domain.ErrMalformedMode, c, pos+1, s)
		}
		bits[pos] = sym.set
		if sym.special {
			specials[pos/3] = true
		}
	}

	perms.Owner = domain.Triad{Read: bits[0], Write: bits[1], Exec: bits[2]}
	perms.Group = domain.Triad{Read: bits[3], Write: bits[4], Exec: bits[5]}
	perms.Other = domain.Triad{Read: bits[6], Write: bits[7], Exec: bits[8]}
	perms.Setuid = specials[0]
	perms.Setgid = specials[1]
	perms.Sticky = specials[2]

	return kind, perms, nil
}

func lookup(table []symbol, c byte) (symbol, bool) {
	for _, sym := range table {
		if sym.c == c {
			return sym, true
		}
	}
	return symbol{}, false
}
