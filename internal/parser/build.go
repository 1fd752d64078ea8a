package parser

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Ning0612/lsparse/internal/core/fields"
	"github.com/Ning0612/lsparse/internal/core/mode"
	"github.com/Ning0612/lsparse/internal/core/name"
	"github.com/Ning0612/lsparse/internal/domain"
)

var months = map[string]time.Month{
	"Jan": time.January, "Feb": time.February, "Mar": time.March,
	"Apr": time.April, "May": time.May, "Jun": time.June,
	"Jul": time.July, "Aug": time.August, "Sep": time.September,
	"Oct": time.October, "Nov": time.November, "Dec": time.December,
}

// parseLine builds the entry for one listing line.
// ok is false when the line describes a kind that is never emitted.
func (p *Parser) parseLine(line string) (entry domain.Entry, ok bool, err error) {
	f, err := fields.Split(line)
	if err != nil {
		return domain.Entry{}, false, err
	}

	kind, perms, err := mode.Parse(f.Mode, p.modeOpts)
	if err != nil {
		return domain.Entry{}, false, err
	}
	// Device lines carry "major, minor" in the size column, so stop before validating it
	if !kind.Emitted() {
		return domain.Entry{}, false, nil
	}

	links, err := parseCount(f.Links, "link count")
	if err != nil {
		return domain.Entry{}, false, err
	}
	size, err := parseCount(f.Size, "size")
	if err != nil {
		return domain.Entry{}, false, err
	}
	modified, err := parseTimestamp(f.Month, f.Day, f.TimeOrYear)
	if err != nil {
		return domain.Entry{}, false, err
	}

	raw := f.Name
	if kind == domain.KindFolder {
		// ls -p indicator; a name can never contain '/'
		raw = strings.TrimSuffix(raw, "/")
		if raw == "" {
			return domain.Entry{}, false, fmt.Errorf("%w: missing file name", domain.ErrMalformedLine)
		}
	}
	decoded, err := name.Decode(raw, p.dialect)
	if err != nil {
		return domain.Entry{}, false, err
	}

	if p.skipDots && kind == domain.KindFolder && (decoded == "." || decoded == "..") {
		return domain.Entry{}, false, nil
	}

	return domain.Entry{
		Kind:        kind,
		Name:        decoded,
		Dir:         p.dir,
		Permissions: perms,
		Links:       links,
		Owner:       f.Owner,
		Group:       f.Group,
		Size:        size,
		Modified:    modified,
	}, true, nil
}

// parseCount parses a non-negative decimal column
func parseCount(s, field string) (uint64, error) {
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid %s value %q", domain.ErrMalformedLine, field, s)
	}
	return n, nil
}

// parseTimestamp reads "Mon DD HH:MM" or "Mon DD YYYY"
func parseTimestamp(month, day, timeOrYear string) (domain.Timestamp, error) {
	m, ok := months[month]
	if !ok {
		return domain.Timestamp{}, fmt.Errorf("%w: invalid timestamp month %q", domain.ErrMalformedLine, month)
	}

	d, ok := digits(day, 1, 2)
	if !ok || d < 1 || d > 31 {
		return domain.Timestamp{}, fmt.Errorf("%w: invalid timestamp day %q", domain.ErrMalformedLine, day)
	}

	if hh, mm, found := strings.Cut(timeOrYear, ":"); found {
		hour, okH := digits(hh, 1, 2)
		minute, okM := digits(mm, 2, 2)
		if !okH || !okM || hour > 23 || minute > 59 {
			return domain.Timestamp{}, fmt.Errorf("%w: invalid timestamp time %q", domain.ErrMalformedLine, timeOrYear)
		}
		return domain.WithTime(m, d, hour, minute), nil
	}

	year, ok := digits(timeOrYear, 4, 4)
	if !ok {
		return domain.Timestamp{}, fmt.Errorf("%w: invalid timestamp time or year %q", domain.ErrMalformedLine, timeOrYear)
	}
	return domain.WithYear(m, d, year), nil
}

// digits parses s as an unsigned decimal of lo to hi digits
func digits(s string, lo, hi int) (int, bool) {
	if len(s) < lo || len(s) > hi {
		return 0, false
	}
	v := 0
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, false
		}
		v = v*10 + int(s[i]-'0')
	}
	return v, true
}
