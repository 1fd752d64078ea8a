package fields

import (
	"errors"
	"testing"

	"github.com/Ning0612/lsparse/internal/domain"
)

func TestSplit_AllColumns(t *testing.T) {
	f, err := Split("drwxr-xr-x  5 user staff  4096 Jan  1 12:00 ./")
	if err != nil {
		t.Fatalf("Split() error = %v", err)
	}

	want := Fields{
		Mode: "drwxr-xr-x", Links: "5", Owner: "user", Group: "staff", Size: "4096",
		Month: "Jan", Day: "1", TimeOrYear: "12:00", Name: "./",
	}
	if f != want {
		t.Errorf("Split() = %+v, want %+v", f, want)
	}
}

func TestSplit_NameKeepsSpaces(t *testing.T) {
	f, err := Split("-rw-r--r-- 1 u g 0 Jan 1  2020 a  b  ")
	if err != nil {
		t.Fatalf("Split() error = %v", err)
	}
	if f.Name != "a  b  " {
		t.Errorf("expected name %q, got %q", "a  b  ", f.Name)
	}
	if f.TimeOrYear != "2020" {
		t.Errorf("expected year column, got %q", f.TimeOrYear)
	}
}

func TestSplit_LeadingSpacesBelongToName(t *testing.T) {
	f, err := Split("-rw-r--r-- 1 u g 0 Jan 1 12:00   padded")
	if err != nil {
		t.Fatalf("Split() error = %v", err)
	}
	if f.Name != "  padded" {
		t.Errorf("expected %q, got %q", "  padded", f.Name)
	}
}

func TestSplit_MissingColumns(t *testing.T) {
	tests := []string{
		"broken line",
		"-rw-r--r-- 1 u g 0 Jan 1",
		"-rw-r--r-- 1 u g 0 Jan 1 12:00",
		"-rw-r--r-- 1 u g 0 Jan 1 12:00 ",
		"          ",
	}

	for _, line := range tests {
		_, err := Split(line)
		if !errors.Is(err, domain.ErrMalformedLine) {
			t.Errorf("Split(%q) error = %v, want ErrMalformedLine", line, err)
		}
	}
}
