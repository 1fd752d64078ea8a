package name

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

var reverseEscapes = map[byte]byte{
	'\a': 'a',
	'\b': 'b',
	'\f': 'f',
	'\n': 'n',
	'\r': 'r',
	'\t': 't',
	'\v': 'v',
	'\\': '\\',
}

// Quote renders a literal name the way ls prints it in the given dialect.
// Decode(Quote(n, d), d) == n for every name in the C and escape dialects.
func Quote(n string, dialect Dialect) string {
	switch dialect {
	case DialectLiteral:
		return n
	case DialectEscape:
		return escape(n, ' ')
	default:
		return `"` + escape(n, '"') + `"`
	}
}

// escape backslash-escapes control bytes, invalid UTF-8, the backslash and extra
func escape(n string, extra byte) string {
	var b strings.Builder
	b.Grow(len(n) + 2)
	for i := 0; i < len(n); {
		c := n[i]
		if c == extra {
			b.WriteByte('\\')
			b.WriteByte(c)
			i++
			continue
		}
		if e, ok := reverseEscapes[c]; ok {
			b.WriteByte('\\')
			b.WriteByte(e)
			i++
			continue
		}

		r, size := utf8.DecodeRuneInString(n[i:])
		if (r == utf8.RuneError && size <= 1) || !unicode.IsPrint(r) {
			for j := 0; j < size; j++ {
				fmt.Fprintf(&b, "\\%03o", n[i+j])
			}
		} else {
			b.WriteString(n[i : i+size])
		}
		i += size
	}
	return b.String()
}
