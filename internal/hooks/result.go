package hooks

import (
	"encoding/json"
	"regexp"
	"unicode/utf8"
)

// secretPatterns match well-known secret shapes in tool output.
var secretPatterns = []*regexp.Regexp{
	// api_key / apikey assignments
	regexp.MustCompile(`(?i)(api[_-]?key|apikey)[\s:=]+["']?[a-zA-Z0-9_\-]{16,}["']?`),
	// bearer/token values
	regexp.MustCompile(`(?i)(bearer|token)[\s:]+[a-zA-Z0-9_\-.]{16,}`),
	// password/secret assignments
	regexp.MustCompile(`(?i)(secret|password|passwd|pwd)[\s:=]+["']?[^\s"']{8,}["']?`),
	// vendor API keys
	regexp.MustCompile(`sk-[a-zA-Z0-9_-]{20,}`),
	// JWTs
	regexp.MustCompile(`eyJ[a-zA-Z0-9_-]*\.eyJ[a-zA-Z0-9_-]*\.[a-zA-Z0-9_-]*`),
}

const redactionMarker = "[REDACTED]"

// truncationNote is appended to a truncated envelope so the agent knows
// the full output exists but was withheld.
const truncationNote = "note: tool output exceeded the configured size limit and was truncated; " +
	"re-run with narrower arguments to see specific portions"

// truncatedEnvelope is the compact replacement for an oversized result.
type truncatedEnvelope struct {
	Truncated     bool   `json:"truncated"`
	OriginalBytes int    `json:"originalBytes"`
	Preview       string `json:"preview"`
}

// PostToolUse redacts well-known secret shapes from a tool result and, if
// the redacted result still exceeds the configured byte ceiling, replaces
// it with a truncated envelope plus an explanatory note. Oversized output
// is never forwarded in full.
func (p *Pipeline) PostToolUse(call ToolCall, result string) string {
	redacted := Redact(result)

	if p.limits.MaxResultBytes <= 0 || len(redacted) <= p.limits.MaxResultBytes {
		return redacted
	}

	preview := redacted
	if p.limits.PreviewBytes > 0 && len(preview) > p.limits.PreviewBytes {
		preview = truncateUTF8(preview, p.limits.PreviewBytes)
	}

	envelope, err := json.Marshal(truncatedEnvelope{
		Truncated:     true,
		OriginalBytes: len(redacted),
		Preview:       preview,
	})
	if err != nil {
		// Marshal of a plain struct cannot fail on valid UTF-8 preview;
		// fall back to a bare preview if it somehow does.
		envelope = []byte(preview)
	}

	p.logger.Info("tool result truncated",
		"tool", call.Name,
		"tool_call_id", call.CallID,
		"original_bytes", len(redacted),
	)

	return string(envelope) + "\n" + truncationNote
}

// Redact replaces well-known secret shapes with a redaction marker.
func Redact(s string) string {
	for _, re := range secretPatterns {
		s = re.ReplaceAllString(s, redactionMarker)
	}
	return s
}

// truncateUTF8 cuts s to at most n bytes without splitting a rune.
func truncateUTF8(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := s[:n]
	for len(cut) > 0 && !utf8.ValidString(cut) {
		cut = cut[:len(cut)-1]
	}
	return cut
}
