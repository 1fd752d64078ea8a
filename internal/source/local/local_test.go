package local

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/Ning0612/lsparse/internal/domain"
	"github.com/Ning0612/lsparse/internal/testutil"
)

func TestFetch_File(t *testing.T) {
	content := testutil.Listing(testutil.File("a.txt", 3), testutil.Folder("src"))
	path := testutil.WriteListing(t, t.TempDir(), "listing.txt", content)

	s := New(nil)
	defer s.Close()

	got, err := s.Fetch(context.Background(), path)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if got != content {
		t.Errorf("Expected %q, got %q", content, got)
	}
}

func TestFetch_Stdin(t *testing.T) {
	content := testutil.Listing(testutil.File("a.txt", 3))
	s := New(strings.NewReader(content))

	got, err := s.Fetch(context.Background(), Stdin)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if got != content {
		t.Errorf("Expected %q, got %q", content, got)
	}
}

func TestFetch_NoStdin(t *testing.T) {
	_, err := New(nil).Fetch(context.Background(), Stdin)
	if !errors.Is(err, domain.ErrSourceNotFound) {
		t.Errorf("Expected ErrSourceNotFound, got %v", err)
	}
}

func TestFetch_Missing(t *testing.T) {
	_, err := New(nil).Fetch(context.Background(), t.TempDir()+"/missing.txt")
	if !errors.Is(err, domain.ErrSourceNotFound) {
		t.Errorf("Expected ErrSourceNotFound, got %v", err)
	}
}

func TestFetch_Directory(t *testing.T) {
	_, err := New(nil).Fetch(context.Background(), t.TempDir())
	if err == nil {
		t.Error("Expected error for directory target, got nil")
	}
}

func TestFetch_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(strings.NewReader("x")).Fetch(ctx, Stdin)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}
