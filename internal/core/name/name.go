// Package name undoes the quoting ls applies to file names.
//
// The supported contract is GNU ls with --quoting-style=c: every name is
// wrapped in double quotes and control characters, backslash and the double
// quote are backslash-escaped, with octal escapes for anything else that is
// not printable. Two other dialects are accepted for captures made with
// different flags: "escape" (ls -b, no surrounding quotes) and "literal"
// (ls -N, nothing to undo).
package name

import (
	"fmt"
	"strings"

	"github.com/Ning0612/lsparse/internal/domain"
)

// Dialect identifies the quoting convention the listing was produced with
type Dialect string

const (
	DialectC       Dialect = "c"
	DialectEscape  Dialect = "escape"
	DialectLiteral Dialect = "literal"
)

// IsValid checks if the dialect is a known value
func (d Dialect) IsValid() bool {
	switch d {
	case DialectC, DialectEscape, DialectLiteral:
		return true
	}
	return false
}

// ListFlags returns the GNU ls option producing this dialect
func (d Dialect) ListFlags() string {
	switch d {
	case DialectEscape:
		return "--quoting-style=escape"
	case DialectLiteral:
		return "--quoting-style=literal"
	default:
		return "--quoting-style=c"
	}
}

// simpleEscapes maps the character after a backslash to the byte it stands for
var simpleEscapes = map[byte]byte{
	'a':  '\a',
	'b':  '\b',
	'f':  '\f',
	'n':  '\n',
	'r':  '\r',
	't':  '\t',
	'v':  '\v',
	'\\': '\\',
	'"':  '"',
	'\'': '\'',
	'?':  '?',
	' ':  ' ',
}

// Decode returns the literal name for a raw name field.
func Decode(raw string, dialect Dialect) (string, error) {
	switch dialect {
	case DialectLiteral:
		return raw, nil
	case DialectEscape:
		return unescape(raw)
	case DialectC, "":
	default:
		return "", fmt.Errorf("unsupported quoting dialect %q", dialect)
	}

	if len(raw) >= 2 {
		first, last := raw[0], raw[len(raw)-1]
		if first == '"' && last == '"' {
			inner := raw[1 : len(raw)-1]
			if inner == "" {
				return "", fmt.Errorf("%w: empty quoted file name", domain.ErrMalformedName)
			}
			return unescape(inner)
		}
		if first == '\'' && last == '\'' {
			inner := raw[1 : len(raw)-1]
			if inner == "" {
				return "", fmt.Errorf("%w: empty quoted file name", domain.ErrMalformedName)
			}
			return inner, nil
		}
	}
	return raw, nil
}

// unescape decodes backslash escapes; all other bytes pass through untouched
func unescape(s string) (string, error) {
	if strings.IndexByte(s, '\\') < 0 {
		return s, nil
	}

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		c := s[i]
		if c != '\\' {
			b.WriteByte(c)
			i++
			continue
		}

		i++
		if i == len(s) {
			return "", fmt.Errorf("%w: unterminated escape sequence", domain.ErrMalformedName)
		}

		e := s[i]
		if lit, ok := simpleEscapes[e]; ok {
			b.WriteByte(lit)
			i++
			continue
		}

		switch {
		case isOctal(e):
			v, n := 0, 0
			for n < 3 && i+n < len(s) && isOctal(s[i+n]) {
				v = v*8 + int(s[i+n]-'0')
				n++
			}
			if v > 0xff {
				return "", fmt.Errorf("%w: octal escape \\%s out of range", domain.ErrMalformedName, s[i:i+n])
			}
			b.WriteByte(byte(v))
			i += n
		case e == 'x':
			v, n := 0, 0
			for n < 2 && i+1+n < len(s) && isHex(s[i+1+n]) {
				v = v*16 + hexValue(s[i+1+n])
				n++
			}
			if n == 0 {
				return "", fmt.Errorf("%w: \\x escape without hex digits", domain.ErrMalformedName)
			}
			b.WriteByte(byte(v))
			i += 1 + n
		default:
			return "", fmt.Errorf("%w: unknown escape \\%c", domain.ErrMalformedName, e)
		}
	}
	return b.String(), nil
}

func isOctal(c byte) bool {
	return c >= '0' && c <= '7'
}

func isHex(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func hexValue(c byte) int {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0')
	case c >= 'a' && c <= 'f':
		return int(c-'a') + 10
	default:
		return int(c-'A') + 10
	}
}
