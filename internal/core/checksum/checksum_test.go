package checksum

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

// TestListingDigest tests SHA-256 digest computation
func TestListingDigest(t *testing.T) {
	f := NewDefault()

	// Test vector: "hello world"
	expected := "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9"

	result, err := f.Listing(context.Background(), "hello world")
	if err != nil {
		t.Fatalf("Listing failed: %v", err)
	}
	if result != expected {
		t.Errorf("digest mismatch: got %s, want %s", result, expected)
	}
}

// TestEmptyListing tests the digest of empty input
func TestEmptyListing(t *testing.T) {
	f := NewDefault()

	expected := "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
	result, err := f.Listing(context.Background(), "")
	if err != nil {
		t.Fatalf("Listing failed: %v", err)
	}
	if result != expected {
		t.Errorf("empty digest mismatch: got %s, want %s", result, expected)
	}
}

// TestDigestChangesWithContent tests that a single changed byte changes the digest
func TestDigestChangesWithContent(t *testing.T) {
	f := NewDefault()
	ctx := context.Background()

	a, _ := f.Listing(ctx, "total 0\n-rw-r--r-- 1 u g 1 Jan  1 12:00 \"a\"\n")
	b, _ := f.Listing(ctx, "total 0\n-rw-r--r-- 1 u g 2 Jan  1 12:00 \"a\"\n")
	if a == b {
		t.Error("different listings should have different digests")
	}

	again, _ := f.Listing(ctx, "total 0\n-rw-r--r-- 1 u g 1 Jan  1 12:00 \"a\"\n")
	if a != again {
		t.Error("identical listings should have identical digests")
	}
}

// TestMaxSizeLimit tests that oversized listings are rejected
func TestMaxSizeLimit(t *testing.T) {
	f := New(Options{MaxSize: 10, BufferSize: 4})

	if _, err := f.Listing(context.Background(), "0123456789"); err != nil {
		t.Errorf("listing at the limit should pass, got %v", err)
	}

	_, err := f.Listing(context.Background(), "0123456789A")
	if !errors.Is(err, ErrTooLarge) {
		t.Errorf("expected ErrTooLarge, got %v", err)
	}
}

// TestContextCancellation tests that a cancelled context stops hashing
func TestContextCancellation(t *testing.T) {
	f := NewDefault()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.Listing(ctx, "data")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

// TestContextTimeout tests that an expired deadline stops hashing
func TestContextTimeout(t *testing.T) {
	f := NewDefault()
	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	time.Sleep(time.Millisecond)

	_, err := f.Listing(ctx, "data")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected context.DeadlineExceeded, got %v", err)
	}
}

// TestLargeListingStreaming tests inputs spanning many buffers
func TestLargeListingStreaming(t *testing.T) {
	f := New(Options{BufferSize: 7})
	line := "-rw-r--r-- 1 user user 1024 Jan  1 12:00 \"file\"\n"
	large := strings.Repeat(line, 10000)

	streamed, err := f.Reader(context.Background(), strings.NewReader(large))
	if err != nil {
		t.Fatalf("Reader failed: %v", err)
	}
	whole, err := NewDefault().Listing(context.Background(), large)
	if err != nil {
		t.Fatalf("Listing failed: %v", err)
	}
	if streamed != whole {
		t.Error("digest should not depend on buffer size")
	}
}

func TestShort(t *testing.T) {
	if got := Short("b94d27b9934d3e08a52e"); got != "b94d27b9934d" {
		t.Errorf("Short() = %q", got)
	}
	if got := Short("abc"); got != "abc" {
		t.Errorf("Short() = %q", got)
	}
}
