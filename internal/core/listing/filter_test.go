package listing

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/Ning0612/lsparse/internal/domain"
)

func names(entries []domain.Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Name
	}
	return out
}

func TestFilter(t *testing.T) {
	entries := []domain.Entry{
		{Kind: domain.KindFile, Name: "main.go"},
		{Kind: domain.KindFile, Name: "README.md"},
		{Kind: domain.KindFolder, Name: "internal"},
		{Kind: domain.KindFile, Name: "main_test.go"},
		{Kind: domain.KindFile, Name: "Main.GO"},
		{Kind: domain.KindFile, Name: "a b [1].txt"},
	}

	tests := []struct {
		name     string
		patterns []string
		want     []string
	}{
		{"no patterns", nil, []string{"main.go", "README.md", "internal", "main_test.go", "Main.GO", "a b [1].txt"}},
		{"suffix", []string{"*.go"}, []string{"main.go", "main_test.go"}},
		{"any of", []string{"*_test.go", "README*"}, []string{"README.md", "main_test.go"}},
		{"doublestar", []string{"**/*.md"}, []string{"README.md"}},
		{"alternatives", []string{"{internal,README.md}"}, []string{"README.md", "internal"}},
		{"escaped brackets", []string{`a b \[1\].txt`}, []string{"a b [1].txt"}},
		{"no match", []string{"*.rs"}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Filter(entries, tt.patterns)
			if err != nil {
				t.Fatalf("Filter failed: %v", err)
			}
			if diff := cmp.Diff(tt.want, names(got)); diff != "" {
				t.Errorf("Filter mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFilter_InvalidPattern(t *testing.T) {
	_, err := Filter([]domain.Entry{{Name: "x"}}, []string{"[unclosed"})
	if err == nil {
		t.Error("Expected error for invalid pattern, got nil")
	}
}
