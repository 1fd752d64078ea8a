package listing

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/Ning0612/lsparse/internal/parser"
	"github.com/Ning0612/lsparse/internal/testutil"
)

func TestFromEntries_SortsByKind(t *testing.T) {
	input := testutil.Listing(
		testutil.Folder("zeta"),
		testutil.File("notes.txt", 16),
		testutil.Folder("alpha"),
		testutil.File(".hidden", 8),
		testutil.File("arrow -> name", 16),
	)
	entries, err := parser.Parse(input)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	l := FromEntries(entries)

	if diff := cmp.Diff([]string{"alpha", "zeta"}, l.FolderNames()); diff != "" {
		t.Errorf("folders mismatch (-want +got):\n%s", diff)
	}
	var files []string
	for _, f := range l.Files {
		files = append(files, f.Name)
	}
	if diff := cmp.Diff([]string{".hidden", "arrow -> name", "notes.txt"}, files); diff != "" {
		t.Errorf("files mismatch (-want +got):\n%s", diff)
	}
	if l.TotalSize() != 40 {
		t.Errorf("TotalSize() = %d, want 40", l.TotalSize())
	}
	if l.Len() != 5 {
		t.Errorf("Len() = %d", l.Len())
	}
}

func TestFromEntries_KeepsDuplicates(t *testing.T) {
	entries, err := parser.Parse(testutil.Listing(testutil.File("dup", 1), testutil.File("dup", 2)))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	l := FromEntries(entries)
	if len(l.Files) != 2 {
		t.Fatalf("expected both duplicates, got %d", len(l.Files))
	}
	if l.Files[0].Size != 1 || l.Files[1].Size != 2 {
		t.Error("duplicates should keep their input order")
	}
}

func TestFromEntries_Empty(t *testing.T) {
	l := FromEntries(nil)
	if l.Len() != 0 || l.TotalSize() != 0 {
		t.Errorf("expected empty listing, got %+v", l)
	}
}
