// Package render prints parse results, diffs and snapshots as a table,
// JSON or YAML.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/rodaine/table"
	"gopkg.in/yaml.v3"

	"github.com/Ning0612/lsparse/internal/core/checksum"
	"github.com/Ning0612/lsparse/internal/core/diff"
	"github.com/Ning0612/lsparse/internal/core/listing"
	"github.com/Ning0612/lsparse/internal/core/name"
	"github.com/Ning0612/lsparse/internal/domain"
	"github.com/Ning0612/lsparse/internal/state"
)

// Report is the document printed for one parse
type Report struct {
	Source  string              `json:"source,omitempty" yaml:"source,omitempty"`
	Entries []domain.Entry      `json:"entries" yaml:"entries"`
	Errors  []*domain.LineError `json:"errors" yaml:"errors"`
	Summary Summary             `json:"summary" yaml:"summary"`
}

// Summary counts what a parse produced
type Summary struct {
	Files     int    `json:"files" yaml:"files"`
	Folders   int    `json:"folders" yaml:"folders"`
	TotalSize uint64 `json:"total_size" yaml:"total_size"`
	Errors    int    `json:"errors" yaml:"errors"`
}

// NewReport builds a report with its summary filled in
func NewReport(src string, entries []domain.Entry, errs []*domain.LineError) Report {
	if entries == nil {
		entries = []domain.Entry{}
	}
	if errs == nil {
		errs = []*domain.LineError{}
	}
	l := listing.FromEntries(entries)
	return Report{
		Source:  src,
		Entries: entries,
		Errors:  errs,
		Summary: Summary{
			Files:     len(l.Files),
			Folders:   len(l.Folders),
			TotalSize: l.TotalSize(),
			Errors:    len(errs),
		},
	}
}

// Renderer writes results in one output format
type Renderer struct {
	out    io.Writer
	format domain.OutputFormat

	bold lipgloss.Style
	dim  lipgloss.Style
	err  lipgloss.Style
}

// New creates a renderer; styling follows the color support of out
func New(out io.Writer, format domain.OutputFormat) (*Renderer, error) {
	if !format.IsValid() {
		return nil, fmt.Errorf("unknown output format: %s", format)
	}

	r := lipgloss.NewRenderer(out)
	return &Renderer{
		out:    out,
		format: format,
		bold:   r.NewStyle().Bold(true),
		dim:    r.NewStyle().Foreground(lipgloss.Color("#888888")),
		err:    r.NewStyle().Foreground(lipgloss.Color("#FF0000")),
	}, nil
}

// Report prints entries followed by per-line errors
func (r *Renderer) Report(rep Report) error {
	if r.format != domain.OutputTable {
		return r.encode(rep)
	}

	tbl := r.newTable("MODE", "LINKS", "OWNER", "GROUP", "SIZE", "MODIFIED", "NAME")
	for _, e := range rep.Entries {
		tbl.AddRow(ModeString(e), e.Links, e.Owner, e.Group, e.Size, e.Modified.String(), DisplayName(e))
	}
	tbl.Print()

	if len(rep.Errors) > 0 {
		fmt.Fprintln(r.out)
		errTbl := r.newTable("LINE", "KIND", "DETAIL")
		for _, le := range rep.Errors {
			errTbl.AddRow(le.Line, r.err.Render(le.Kind.String()), le.Detail)
		}
		errTbl.Print()
	}

	s := rep.Summary
	line := fmt.Sprintf("%d files, %d folders, %s", s.Files, s.Folders, FormatSize(s.TotalSize))
	if s.Errors > 0 {
		line += fmt.Sprintf(", %d malformed lines", s.Errors)
	}
	_, err := fmt.Fprintln(r.out, r.dim.Render(line))
	return err
}

// Changes prints the differences between two listings
func (r *Renderer) Changes(changes []diff.Change) error {
	if r.format != domain.OutputTable {
		if changes == nil {
			changes = []diff.Change{}
		}
		return r.encode(changes)
	}

	if len(changes) == 0 {
		_, err := fmt.Fprintln(r.out, r.dim.Render("no changes"))
		return err
	}

	tbl := r.newTable("CHANGE", "KIND", "NAME", "DETAIL")
	for _, ch := range changes {
		e := ch.New
		if e == nil {
			e = ch.Old
		}
		tbl.AddRow(string(ch.Type), ch.Kind.String(), DisplayName(*e), changeDetail(ch))
	}
	tbl.Print()
	return nil
}

// Snapshots prints stored snapshot headers
func (r *Renderer) Snapshots(snaps []state.Snapshot) error {
	if r.format != domain.OutputTable {
		if snaps == nil {
			snaps = []state.Snapshot{}
		}
		return r.encode(snaps)
	}

	if len(snaps) == 0 {
		_, err := fmt.Fprintln(r.out, r.dim.Render("no snapshots"))
		return err
	}

	tbl := r.newTable("ID", "LABEL", "DIR", "CAPTURED", "ENTRIES", "ERRORS", "DIGEST")
	for _, s := range snaps {
		tbl.AddRow(s.ID, s.Label, s.Dir, s.CapturedAt.Local().Format(time.DateTime), s.EntryCount, s.ErrorCount, checksum.Short(s.Digest))
	}
	tbl.Print()
	return nil
}

func (r *Renderer) newTable(headers ...interface{}) table.Table {
	tbl := table.New(headers...).WithWriter(r.out)

	tbl.WithFirstColumnFormatter(func(format string, vals ...interface{}) string {
		return r.bold.Render(fmt.Sprintf(format, vals...))
	})
	tbl.WithPadding(2)

	// Use lipgloss Width function to properly calculate string width with ANSI codes
	tbl.WithWidthFunc(lipgloss.Width)

	return tbl
}

func (r *Renderer) encode(v any) error {
	switch r.format {
	case domain.OutputJSON:
		enc := json.NewEncoder(r.out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case domain.OutputYAML:
		enc := yaml.NewEncoder(r.out)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown output format: %s", r.format)
	}
}

// ModeString rebuilds the mode column: type character, permissions, marker
func ModeString(e domain.Entry) string {
	kind := "-"
	if e.IsDir() {
		kind = "d"
	}
	return kind + e.Permissions.String() + e.Permissions.AccessMarker
}

// DisplayName prints plain names as is and C-quotes anything a terminal
// would mangle. Folders carry a trailing slash.
func DisplayName(e domain.Entry) string {
	n := e.Name
	if needsQuoting(n) {
		n = name.Quote(n, name.DialectC)
	}
	if e.IsDir() {
		n += "/"
	}
	return n
}

func needsQuoting(s string) bool {
	if s == "" || !utf8.ValidString(s) {
		return true
	}
	if s != strings.TrimSpace(s) || strings.HasPrefix(s, `"`) {
		return true
	}
	for _, r := range s {
		if !unicode.IsPrint(r) {
			return true
		}
	}
	return false
}

func changeDetail(ch diff.Change) string {
	switch ch.Type {
	case diff.ChangeAdded:
		return FormatSize(ch.New.Size)
	case diff.ChangeRemoved:
		return FormatSize(ch.Old.Size)
	}

	parts := make([]string, 0, len(ch.Fields))
	for _, f := range ch.Fields {
		switch f {
		case "size":
			parts = append(parts, fmt.Sprintf("size %s -> %s", FormatSize(ch.Old.Size), FormatSize(ch.New.Size)))
		case "permissions":
			parts = append(parts, fmt.Sprintf("mode %s -> %s", ModeString(*ch.Old), ModeString(*ch.New)))
		case "owner":
			parts = append(parts, fmt.Sprintf("owner %s -> %s", ch.Old.Owner, ch.New.Owner))
		case "group":
			parts = append(parts, fmt.Sprintf("group %s -> %s", ch.Old.Group, ch.New.Group))
		case "modified":
			parts = append(parts, fmt.Sprintf("modified %s -> %s", ch.Old.Modified, ch.New.Modified))
		default:
			parts = append(parts, f)
		}
	}
	return strings.Join(parts, "; ")
}

// FormatSize formats bytes into human-readable string
func FormatSize(bytes uint64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
		TB = GB * 1024
	)

	switch {
	case bytes >= TB:
		return fmt.Sprintf("%.1f TB", float64(bytes)/TB)
	case bytes >= GB:
		return fmt.Sprintf("%.1f GB", float64(bytes)/GB)
	case bytes >= MB:
		return fmt.Sprintf("%.1f MB", float64(bytes)/MB)
	case bytes >= KB:
		return fmt.Sprintf("%.1f KB", float64(bytes)/KB)
	default:
		return strconv.FormatUint(bytes, 10) + " B"
	}
}
