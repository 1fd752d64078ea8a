package diff

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/Ning0612/lsparse/internal/domain"
)

func file(name string, size uint64) domain.Entry {
	return domain.Entry{
		Kind:     domain.KindFile,
		Name:     name,
		Size:     size,
		Owner:    "user",
		Group:    "user",
		Modified: domain.WithTime(time.January, 1, 12, 0),
	}
}

func TestDefaultComparer_EntriesIdentical(t *testing.T) {
	comparer := NewDefaultComparer()
	a, b := file("test.txt", 100), file("test.txt", 100)
	b.Links = 3

	if result := comparer.Compare(&a, &b); result != EntriesIdentical {
		t.Errorf("Expected EntriesIdentical, got %v", result)
	}
}

func TestDefaultComparer_EntryModified_SizeDiff(t *testing.T) {
	comparer := NewDefaultComparer()
	a, b := file("test.txt", 100), file("test.txt", 200)

	if result := comparer.Compare(&a, &b); result != EntryModified {
		t.Errorf("Expected EntryModified, got %v", result)
	}
}

func TestDefaultComparer_EntryModified_Timestamp(t *testing.T) {
	comparer := NewDefaultComparer()
	a, b := file("test.txt", 100), file("test.txt", 100)
	b.Modified = domain.WithYear(time.January, 1, 2024)

	if result := comparer.Compare(&a, &b); result != EntryModified {
		t.Errorf("Expected EntryModified, got %v", result)
	}
}

func TestDefaultComparer_OnlyInOne(t *testing.T) {
	comparer := NewDefaultComparer()
	a := file("test.txt", 100)

	if result := comparer.Compare(&a, nil); result != EntryOnlyInOld {
		t.Errorf("Expected EntryOnlyInOld, got %v", result)
	}
	if result := comparer.Compare(nil, &a); result != EntryOnlyInNew {
		t.Errorf("Expected EntryOnlyInNew, got %v", result)
	}
	if result := comparer.Compare(nil, nil); result != EntriesIdentical {
		t.Errorf("Expected EntriesIdentical, got %v", result)
	}
}

func TestChangedFields(t *testing.T) {
	a, b := file("x", 1), file("x", 2)
	b.Owner = "root"
	b.Permissions.Owner.Exec = true

	got := ChangedFields(a, b)
	want := []string{"size", "permissions", "owner"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ChangedFields() mismatch (-want +got):\n%s", diff)
	}
}

func TestCompare_Listings(t *testing.T) {
	folder := domain.Entry{Kind: domain.KindFolder, Name: "same"}
	prev := []domain.Entry{file("kept", 1), file("gone", 1), file("grown", 1), folder}
	next := []domain.Entry{file("grown", 9), file("kept", 1), file("fresh", 1), file("same", 4), folder}

	changes := Compare(prev, next, nil)

	type summary struct {
		Type ChangeType
		Name string
		Kind domain.Kind
	}
	var got []summary
	for _, c := range changes {
		got = append(got, summary{c.Type, c.Name, c.Kind})
	}
	want := []summary{
		{ChangeAdded, "fresh", domain.KindFile},
		{ChangeRemoved, "gone", domain.KindFile},
		{ChangeModified, "grown", domain.KindFile},
		{ChangeAdded, "same", domain.KindFile},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Compare() mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"size"}, changes[2].Fields); diff != "" {
		t.Errorf("Fields mismatch (-want +got):\n%s", diff)
	}
}

func TestCompare_Duplicates(t *testing.T) {
	prev := []domain.Entry{file("dup", 1)}
	next := []domain.Entry{file("dup", 1), file("dup", 2)}

	changes := Compare(prev, next, nil)
	if len(changes) != 1 || changes[0].Type != ChangeAdded || changes[0].New.Size != 2 {
		t.Errorf("expected the second duplicate as added, got %+v", changes)
	}
}
