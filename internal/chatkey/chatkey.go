// Package chatkey derives stable conversation keys and session identifiers
// from client-supplied chat IDs and project paths.
package chatkey

import "strings"

const (
	// SessionIDPrefix is the fixed namespace prepended to every session
	// identifier handed to the upstream SDK.
	SessionIDPrefix = "conduit-"

	// maxKeyLength bounds the sanitized key before the prefix is applied.
	maxKeyLength = 96

	// DefaultKey is used when neither a chat ID nor a project path is given.
	DefaultKey = "default"
)

// Normalize returns the canonical conversation key for a request: the
// trimmed chat ID when present, else "project:" plus the trimmed project
// path, else DefaultKey. The result is never empty.
func Normalize(chatID, projectPath string) string {
	if id := strings.TrimSpace(chatID); id != "" {
		return id
	}
	if path := strings.TrimSpace(projectPath); path != "" {
		return "project:" + path
	}
	return DefaultKey
}

// SessionIdentifier sanitizes a chat key into an identifier the upstream
// SDK accepts: characters outside [a-zA-Z0-9_-] become "-", runs of
// replacement "-" collapse, edge "-" are trimmed, and the result is
// truncated to 96 chars before the fixed namespace prefix is applied.
// Literal dashes in the key pass through untouched, including runs.
func SessionIdentifier(chatKey string) string {
	var b strings.Builder
	b.Grow(len(chatKey))
	lastDash := false
	for _, r := range chatKey {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
			lastDash = false
		case r == '-':
			b.WriteRune(r)
			lastDash = true
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}

	key := strings.Trim(b.String(), "-")
	if len(key) > maxKeyLength {
		key = strings.Trim(key[:maxKeyLength], "-")
	}
	if key == "" {
		key = DefaultKey
	}
	return SessionIDPrefix + key
}
