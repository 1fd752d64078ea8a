package lines

import (
	"testing"
)

type numbered struct {
	n    int
	line string
}

func collect(input string) []numbered {
	var out []numbered
	for n, line := range Lines(input) {
		out = append(out, numbered{n, line})
	}
	return out
}

func TestLines_DiscardsLeadingSummary(t *testing.T) {
	got := collect("total 24\n-rw-r--r-- a\ndrwxr-xr-x b\n")

	if len(got) != 2 {
		t.Fatalf("expected 2 lines, got %d: %v", len(got), got)
	}
	if got[0].n != 2 || got[1].n != 3 {
		t.Errorf("line numbers should count the summary line, got %d and %d", got[0].n, got[1].n)
	}
}

func TestLines_SummaryOnlyOnFirstLine(t *testing.T) {
	got := collect("-rw-r--r-- a\ntotal 24\n")

	if len(got) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(got))
	}
	if got[1].line != "total 24" {
		t.Errorf("a later total line must be passed through, got %q", got[1].line)
	}
}

func TestLines_NoSummary(t *testing.T) {
	got := collect("-rw-r--r-- a")

	if len(got) != 1 || got[0].n != 1 {
		t.Fatalf("expected line 1, got %v", got)
	}
}

func TestLines_SkipsEmptyLines(t *testing.T) {
	got := collect("a\n\n\nb\n\n")

	if len(got) != 2 {
		t.Fatalf("expected 2 lines, got %v", got)
	}
	if got[1].n != 4 {
		t.Errorf("expected second line at 4, got %d", got[1].n)
	}
}

func TestLines_KeepsCarriageReturn(t *testing.T) {
	got := collect("a\r\nb")

	if got[0].line != "a\r" {
		t.Errorf("carriage return should be left in place, got %q", got[0].line)
	}
}

func TestLines_Restartable(t *testing.T) {
	seq := Lines("total 1\nx\ny\n")

	first, second := 0, 0
	for range seq {
		first++
	}
	for range seq {
		second++
	}
	if first != 2 || second != 2 {
		t.Errorf("expected 2 lines on each pass, got %d and %d", first, second)
	}
}

func TestLines_StopsEarly(t *testing.T) {
	count := 0
	for range Lines("a\nb\nc\n") {
		count++
		break
	}
	if count != 1 {
		t.Errorf("expected iteration to stop after 1, got %d", count)
	}
}

func TestIsSummary(t *testing.T) {
	tests := []struct {
		line string
		want bool
	}{
		{"total 0", true},
		{"total 24", true},
		{"total 1.2M", true},
		{"total 12K", true},
		{"total", false},
		{"total ", false},
		{"total x", false},
		{"totally 24", false},
		{"-rw-r--r-- 1 u g 0 Jan 1 12:00 total 24", false},
	}

	for _, tt := range tests {
		if got := IsSummary(tt.line); got != tt.want {
			t.Errorf("IsSummary(%q) = %v, want %v", tt.line, got, tt.want)
		}
	}
}
