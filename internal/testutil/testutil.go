package testutil

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Ning0612/lsparse/internal/core/name"
)

// Line describes one listing line to generate
type Line struct {
	Mode       string
	Links      int
	Owner      string
	Group      string
	Size       int64
	Month      string
	Day        int
	TimeOrYear string

	// Name is the literal name; it is quoted with Dialect
	Name    string
	Dialect name.Dialect

	// Slash appends the ls -p directory indicator
	Slash bool
}

// String renders the line with the column padding ls uses
func (l Line) String() string {
	mode := l.Mode
	if mode == "" {
		mode = "-rw-r--r--"
	}
	links := l.Links
	if links == 0 {
		links = 1
	}
	owner := orDefault(l.Owner, "user")
	group := orDefault(l.Group, "user")
	month := orDefault(l.Month, "Jan")
	day := l.Day
	if day == 0 {
		day = 1
	}
	when := orDefault(l.TimeOrYear, "12:00")
	dialect := l.Dialect
	if dialect == "" {
		dialect = name.DialectC
	}

	quoted := name.Quote(l.Name, dialect)
	if l.Slash {
		quoted += "/"
	}
	return fmt.Sprintf("%s %2d %s %s %6d %s %2d %5s %s", mode, links, owner, group, l.Size, month, day, when, quoted)
}

// File returns a regular file line with default columns
func File(n string, size int64) string {
	return Line{Name: n, Size: size}.String()
}

// Folder returns a directory line carrying the ls -p indicator
func Folder(n string) string {
	return Line{Mode: "drwxr-xr-x", Links: 2, Name: n, Size: 4096, Slash: true}.String()
}

// Listing joins lines under a "total" summary line
func Listing(lines ...string) string {
	return fmt.Sprintf("total %d\n%s\n", len(lines)*4, strings.Join(lines, "\n"))
}

// EdgeCaseNames returns names that are hard to recover from a listing
func EdgeCaseNames() []string {
	return []string{
		`"double"quote"`,
		"\ttab\tindent\t",
		"文件",
		"🚀rocket🚀ship🚀",
		"multiple    interior   spaces",
		"-leading-dash",
		"--",
		" leading and trailing ",
		"back\\slash",
		"new\nline",
		"carriage\rreturn",
		"bell\a and escape \x1b[31m",
		"it's",
		"'single'",
		"arrow -> name",
		"trailing-backslash\\",
		"del\x7f",
		"invalid\xff\xfeutf8",
		"?question?",
		".hidden",
		"...",
	}
}

// RandomName generates a random name of the given length from printable,
// control and multi-byte characters; it never contains '/' or NUL
func RandomName(r *rand.Rand, length int) string {
	pool := []string{
		"a", "Z", "0", " ", "-", ".", "\"", "'", "\\", "\t", "\n", "\r",
		"\x01", "\x7f", "é", "文", "🚀", "$", "*", "?", "\xff",
	}
	var b strings.Builder
	for i := 0; i < length; i++ {
		b.WriteString(pool[r.Intn(len(pool))])
	}
	return b.String()
}

// WriteListing writes a captured listing into dir and returns its path
func WriteListing(t *testing.T, dir, fileName, content string) string {
	t.Helper()

	path := filepath.Join(dir, fileName)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write listing: %v", err)
	}

	return path
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
