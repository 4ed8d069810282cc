package security

import (
	"regexp"
	"strings"

	"llm-gateway/internal/domain/chat"
)

const maskedPlaceholder = "***"

// credentialPatterns are the known-prefix masking rules, evaluated in
// order. The first pattern that matches a string wins: its occurrences are
// replaced and no further pattern is tried for that string.
var credentialPatterns = []struct {
	re          *regexp.Regexp
	replacement string
}{
	{regexp.MustCompile(`(?i)sk-[a-zA-Z0-9]{20,}`), "sk-***"},
	{regexp.MustCompile(`(?i)sk-ant-[a-zA-Z0-9-]{20,}`), "sk-ant-***"},
	{regexp.MustCompile(`(?i)AIza[a-zA-Z0-9_-]{20,}`), "AIza***"},
	{regexp.MustCompile(`(?i)xai-[a-zA-Z0-9]{20,}`), "xai-***"},
	{regexp.MustCompile(`(?i)bearer\s+[a-zA-Z0-9+/=]{20,}`), "Bearer ***"},
	{regexp.MustCompile(`(\w+://[^@\s]+):([^@\s]+)@`), "${1}:***@"},
}

// sensitiveKeyPatterns match map keys whose values must be masked. A bare
// "auth" counts unless it is immediately followed by an underscore, so
// compound names like auth_token are left to their own pattern.
var sensitiveKeyPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)api[_-]?key`),
	regexp.MustCompile(`(?i)passw(?:or)?d`),
	regexp.MustCompile(`(?i)access[_-]?token`),
	regexp.MustCompile(`(?i)bearer[_-]?token`),
	regexp.MustCompile(`(?i)auth[_-]?token`),
	regexp.MustCompile(`(?i)secret`),
	regexp.MustCompile(`(?i)credential`),
	regexp.MustCompile(`(?i)auth(?:$|[^_])`),
}

// tokenShape is the gate for the shape heuristic: only compact token-like
// strings are candidates for masking.
var tokenShape = regexp.MustCompile(`^[a-zA-Z0-9_-]{6,}$`)

// knownSafeTokens are identifiers that look token-shaped but are not
// secrets.
var knownSafeTokens = map[string]struct{}{
	"client-app":      {},
	"validation_test": {},
	"test-client":     {},
	"user-agent":      {},
}

// Redact walks an arbitrary value built from maps, slices and scalars and
// returns a structurally identical value with sensitive leaves masked.
// The input is never mutated and redaction is idempotent: masked output
// passes through unchanged on a second application.
func Redact(data any) any {
	switch v := data.(type) {
	case map[string]any:
		masked := make(map[string]any, len(v))
		for key, value := range v {
			if isSensitiveKey(key) {
				switch inner := value.(type) {
				case string:
					masked[key] = MaskString(inner)
				case map[string]any:
					// Nested safe sub-fields survive even under a
					// sensitive key.
					masked[key] = Redact(inner)
				case []any:
					masked[key] = Redact(inner)
				default:
					masked[key] = maskedPlaceholder
				}
			} else {
				masked[key] = Redact(value)
			}
		}
		return masked
	case map[string]string:
		masked := make(map[string]string, len(v))
		for key, value := range v {
			masked[key] = MaskString(value)
		}
		return masked
	case chat.Params:
		return Redact(map[string]any(v))
	case []any:
		masked := make([]any, len(v))
		for i, item := range v {
			masked[i] = Redact(item)
		}
		return masked
	case []string:
		masked := make([]string, len(v))
		for i, item := range v {
			masked[i] = MaskString(item)
		}
		return masked
	case string:
		return MaskString(v)
	default:
		return data
	}
}

// MaskString masks credential shapes inside a single string. Known-prefix
// patterns are tried first; strings that escape them fall through to the
// shape heuristic.
func MaskString(s string) string {
	for _, p := range credentialPatterns {
		if p.re.MatchString(s) {
			return p.re.ReplaceAllString(s, p.replacement)
		}
	}
	return maskToken(s)
}

// ScrubCredentials rewrites every known credential pattern in s. Unlike
// MaskString it applies all patterns and skips the token shape heuristic,
// so whole log lines pass through it safely.
func ScrubCredentials(s string) string {
	for _, p := range credentialPatterns {
		s = p.re.ReplaceAllString(s, p.replacement)
	}
	return s
}

func isSensitiveKey(key string) bool {
	for _, p := range sensitiveKeyPatterns {
		if p.MatchString(key) {
			return true
		}
	}
	return false
}

// maskToken applies the shape heuristic: short strings, pure numbers and
// known-safe identifiers pass untouched; opaque token-shaped strings are
// collapsed to the placeholder, with a three-character prefix and suffix
// kept on longer ones to aid debugging.
func maskToken(s string) string {
	if !tokenShape.MatchString(s) {
		return s
	}
	if isDigits(s) {
		return s
	}
	if _, ok := knownSafeTokens[strings.ToLower(s)]; ok {
		return s
	}
	if !looksLikeSecret(s) {
		return s
	}
	if len(s) <= 12 {
		return maskedPlaceholder
	}
	return s[:3] + maskedPlaceholder + s[len(s)-3:]
}

// looksLikeSecret reports whether a token-shaped string is opaque enough
// to treat as a secret: letters mixed with digits, or a long run of pure
// letters.
func looksLikeSecret(s string) bool {
	hasLetter, hasDigit, pureLetters := false, false, true
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			hasDigit = true
			pureLetters = false
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
			hasLetter = true
		default:
			pureLetters = false
		}
	}
	if hasLetter && hasDigit {
		return true
	}
	return len(s) >= 8 && pureLetters
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}
