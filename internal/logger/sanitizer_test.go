package logger

import (
	"errors"
	"testing"
)

func TestSanitizer_Sanitize(t *testing.T) {
	s := NewSanitizer()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "password",
			input:    "login with password=secret123",
			expected: "login with password=***",
		},
		{
			name:     "unix home path",
			input:    "listing of /home/john/.config/app",
			expected: "listing of /home/***/.config/app",
		},
		{
			name:     "mac home path",
			input:    "listing of /Users/jane/Desktop",
			expected: "listing of /Users/***/Desktop",
		},
		{
			name:     "newline in file name",
			input:    "bad\nname",
			expected: `bad\nname`,
		},
		{
			name:     "terminal escape",
			input:    "\x1b[31mred",
			expected: `\x1b[31mred`,
		},
		{
			name:     "multi-byte untouched",
			input:    "文件 🚀",
			expected: "文件 🚀",
		},
		{
			name:     "no sensitive data",
			input:    "normal log message",
			expected: "normal log message",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := s.Sanitize(tt.input)
			if result != tt.expected {
				t.Errorf("Sanitize() = %q, want %q", result, tt.expected)
			}
		})
	}
}

func TestSanitizer_SanitizeArgs(t *testing.T) {
	s := NewSanitizer()

	args := []any{
		"passphrase", "correct-horse-battery",
		"name", "tab\tname",
		"error", errors.New("line 3:\nbad"),
		"line", 3,
	}
	got := s.SanitizeArgs(args)

	if got[1] != "c***y" {
		t.Errorf("passphrase = %v", got[1])
	}
	if got[3] != `tab\tname` {
		t.Errorf("name = %v", got[3])
	}
	if got[5] != `line 3:\nbad` {
		t.Errorf("error = %v", got[5])
	}
	if got[7] != 3 {
		t.Errorf("non-string values must be left as-is, got %v", got[7])
	}
	if args[1] != "correct-horse-battery" {
		t.Error("SanitizeArgs must not modify its input")
	}
}

func TestSanitizer_AddRule(t *testing.T) {
	s := NewSanitizer()

	if err := s.AddRule(`host=\S+`, "host=***"); err != nil {
		t.Fatalf("AddRule() error = %v", err)
	}
	if got := s.Sanitize("host=db.internal"); got != "host=***" {
		t.Errorf("Sanitize() = %q", got)
	}
	if err := s.AddRule(`(`, ""); err == nil {
		t.Error("expected error for invalid pattern")
	}
}

func TestSanitizer_MaskValue(t *testing.T) {
	tests := map[string]string{
		"ab":          "***",
		"abcdef":      "a***",
		"abcdefghijk": "a***k",
	}
	for in, want := range tests {
		if got := maskValue(in); got != want {
			t.Errorf("maskValue(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSanitizer_IsSensitiveKey(t *testing.T) {
	for _, key := range []string{"password", "SSH_PASSPHRASE", "private_key", "token"} {
		if !isSensitiveKey(key) {
			t.Errorf("%q should be sensitive", key)
		}
	}
	for _, key := range []string{"name", "line", "host", "key_file"} {
		if isSensitiveKey(key) {
			t.Errorf("%q should not be sensitive", key)
		}
	}
}
