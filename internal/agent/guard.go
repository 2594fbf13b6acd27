package agent

import (
	"regexp"
)

// DefaultMaxToolResultSize bounds the persisted size of a tool
// result's JSON encoding before truncation.
const DefaultMaxToolResultSize = 64 * 1024

// builtinSecretPatterns redact common secret shapes from persisted
// tool output, independent of any tool-specific denylist.
var builtinSecretPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)sk-[a-zA-Z0-9]{20,}`),
	regexp.MustCompile(`(?i)bearer\s+[a-zA-Z0-9._-]{10,}`),
	regexp.MustCompile(`(?i)AKIA[0-9A-Z]{16}`),
	regexp.MustCompile(`(?i)(password|secret|token)["']?\s*[:=]\s*["']?[^\s"']{6,}`),
	regexp.MustCompile(`-----BEGIN [A-Z ]*PRIVATE KEY-----[\s\S]+?-----END [A-Z ]*PRIVATE KEY-----`),
}

const redactedPlaceholder = "[REDACTED]"

// ToolResultGuard sanitizes a tool result's persisted JSON encoding:
// secret redaction, then truncation. It never mutates the copy the
// loop feeds back to the model within the same turn — only the
// persisted record.
type ToolResultGuard struct {
	MaxSize int
	Denylist map[string]bool
}

func (g *ToolResultGuard) active() bool {
	return g != nil
}

// Apply redacts and truncates a tool's persisted JSON output. toolName
// lets a denylisted tool's entire output be replaced.
func (g *ToolResultGuard) Apply(toolName string, encoded []byte) []byte {
	if !g.active() {
		return encoded
	}
	if g.Denylist[toolName] {
		return []byte(`{"success":true,"note":"output withheld"}`)
	}

	sanitized := sanitizeSecrets(encoded)

	maxSize := g.MaxSize
	if maxSize <= 0 {
		maxSize = DefaultMaxToolResultSize
	}
	if len(sanitized) > maxSize {
		suffix := []byte(`...[truncated]"}`)
		cut := maxSize - len(suffix)
		if cut < 0 {
			cut = 0
		}
		sanitized = append(append([]byte{}, sanitized[:cut]...), suffix...)
	}
	return sanitized
}

func sanitizeSecrets(encoded []byte) []byte {
	out := encoded
	for _, pattern := range builtinSecretPatterns {
		out = pattern.ReplaceAll(out, []byte(redactedPlaceholder))
	}
	return out
}

// DetectSecrets reports whether any builtin secret pattern matches s.
func DetectSecrets(s string) bool {
	for _, pattern := range builtinSecretPatterns {
		if pattern.MatchString(s) {
			return true
		}
	}
	return false
}
