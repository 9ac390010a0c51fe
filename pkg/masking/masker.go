// Package masking redacts customer PII (email, phone) and CRM credentials
// from strings before they reach structured logs. Adapted from the
// teacher's regex-pattern masking service, scoped down to the fixed set of
// patterns this system's log call sites need instead of a pluggable
// per-integration registry.
package masking

import "regexp"

// CompiledPattern pairs a compiled regex with its replacement text, the same
// shape the teacher's masking service compiles built-in patterns into.
type CompiledPattern struct {
	Name        string
	Regex       *regexp.Regexp
	Replacement string
}

var builtinPatterns = []CompiledPattern{
	{
		Name:        "email",
		Regex:       regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`),
		Replacement: "[EMAIL_REDACTED]",
	},
	{
		Name:        "phone",
		Regex:       regexp.MustCompile(`(?:\+?1[\s.\-]?)?\(?\d{3}\)?[\s.\-]?\d{3}[\s.\-]?\d{4}\b`),
		Replacement: "[PHONE_REDACTED]",
	},
	{
		Name:        "bearer_token",
		Regex:       regexp.MustCompile(`(?i)bearer\s+[A-Za-z0-9\-._~+/]+=*`),
		Replacement: "[TOKEN_REDACTED]",
	},
}

// MaskPII replaces email addresses, North-American phone numbers, and bearer
// tokens in s with redacted placeholders. Safe to call on text that contains
// none of these — it is returned unchanged.
func MaskPII(s string) string {
	for _, p := range builtinPatterns {
		s = p.Regex.ReplaceAllString(s, p.Replacement)
	}
	return s
}
