package logger

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
)

// Sanitizer 負責過濾日誌中的敏感資訊與控制字元
//
// Listing lines and file names come from untrusted sources, so string values
// are also stripped of control characters: a name containing "\n" must not be
// able to forge a second log record.
//
// 限制說明：只有敏感 key 的 value 會被遮罩；藏在其他 key 的 value 中的秘密不會被遮罩
type Sanitizer struct {
	mu       sync.RWMutex
	patterns []SanitizeRule
}

// SanitizeRule 單一過濾規則
type SanitizeRule struct {
	Pattern     *regexp.Regexp
	Replacement string
}

// NewSanitizer 建立預設 sanitizer
func NewSanitizer() *Sanitizer {
	return &Sanitizer{
		patterns: defaultSanitizeRules(),
	}
}

func defaultSanitizeRules() []SanitizeRule {
	return []SanitizeRule{
		// 密碼相關
		{regexp.MustCompile(`(?i)password=\S+`), "password=***"},
		{regexp.MustCompile(`(?i)passphrase=\S+`), "passphrase=***"},

		// Unix 家目錄
		{regexp.MustCompile(`/home/[^/\s"]+`), "/home/***"},
		{regexp.MustCompile(`/Users/[^/\s"]+`), "/Users/***"},
	}
}

// Sanitize escapes control characters and applies all patterns
func (s *Sanitizer) Sanitize(input string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := escapeControl(input)
	for _, rule := range s.patterns {
		result = rule.Pattern.ReplaceAllString(result, rule.Replacement)
	}
	return result
}

// SanitizeArgs sanitizes key-value logging arguments
func (s *Sanitizer) SanitizeArgs(args []any) []any {
	if len(args) == 0 {
		return args
	}

	result := make([]any, len(args))
	copy(result, args)

	for i := 0; i < len(result)-1; i += 2 {
		key, ok := result[i].(string)
		if !ok {
			continue
		}

		var value string
		switch v := result[i+1].(type) {
		case string:
			value = v
		case error:
			value = v.Error()
		default:
			continue // other types are left as-is
		}

		if isSensitiveKey(key) {
			result[i+1] = maskValue(value)
		} else {
			result[i+1] = s.Sanitize(value)
		}
	}

	return result
}

// escapeControl replaces control characters with their Go escape form
func escapeControl(s string) string {
	if !strings.ContainsFunc(s, isControl) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + 8)
	for _, r := range s {
		if isControl(r) {
			q := strconv.QuoteRune(r)
			b.WriteString(q[1 : len(q)-1])
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func isControl(r rune) bool {
	return r < 0x20 || r == 0x7f || (r >= 0x80 && r < 0xa0)
}

// isSensitiveKey 判斷鍵名是否為敏感鍵
func isSensitiveKey(key string) bool {
	lowerKey := strings.ToLower(key)
	for _, sk := range []string{"password", "passwd", "passphrase", "secret", "token", "private_key"} {
		if strings.Contains(lowerKey, sk) {
			return true
		}
	}
	return false
}

// maskValue 遮蔽值（保留前後各1字元）
func maskValue(value string) string {
	if len(value) <= 2 {
		return "***"
	}
	if len(value) <= 8 {
		return fmt.Sprintf("%s***", value[:1])
	}
	return fmt.Sprintf("%s***%s", value[:1], value[len(value)-1:])
}

// AddRule 新增自訂過濾規則
func (s *Sanitizer) AddRule(pattern string, replacement string) error {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return fmt.Errorf("invalid pattern: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.patterns = append(s.patterns, SanitizeRule{Pattern: re, Replacement: replacement})
	return nil
}
