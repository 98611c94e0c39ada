package chatkey

import (
	"strings"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name        string
		chatID      string
		projectPath string
		want        string
	}{
		{"chat id wins", "chat-42", "/home/dev/proj", "chat-42"},
		{"chat id trimmed", "  chat-42  ", "", "chat-42"},
		{"project fallback", "", "/home/dev/proj", "project:/home/dev/proj"},
		{"project trimmed", "", "  /home/dev/proj ", "project:/home/dev/proj"},
		{"default when empty", "", "", "default"},
		{"default when whitespace", "   ", "  ", "default"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.chatID, tt.projectPath); got != tt.want {
				t.Errorf("Normalize(%q, %q) = %q, want %q", tt.chatID, tt.projectPath, got, tt.want)
			}
		})
	}
}

func TestSessionIdentifier(t *testing.T) {
	tests := []struct {
		name string
		key  string
		want string
	}{
		{"plain", "chat-42", "conduit-chat-42"},
		{"path characters collapse", "project:/home/dev/proj", "conduit-project-home-dev-proj"},
		{"repeated separators collapse", "a//b::c", "conduit-a-b-c"},
		{"edges trimmed", "--weird--", "conduit-weird"},
		{"literal dash run kept", "a--b", "conduit-a--b"},
		{"replacement dash absorbed into literal", "a-?b", "conduit-a-b"},
		{"underscore kept", "team_alpha", "conduit-team_alpha"},
		{"all invalid falls back", ":::", "conduit-default"},
		{"empty falls back", "", "conduit-default"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SessionIdentifier(tt.key); got != tt.want {
				t.Errorf("SessionIdentifier(%q) = %q, want %q", tt.key, got, tt.want)
			}
		})
	}
}

func TestSessionIdentifierBounds(t *testing.T) {
	long := strings.Repeat("project:/very/deep/path/", 40)
	got := SessionIdentifier(long)

	body := strings.TrimPrefix(got, SessionIDPrefix)
	if len(body) > maxKeyLength {
		t.Errorf("identifier body length = %d, want <= %d", len(body), maxKeyLength)
	}
	for _, r := range body {
		valid := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
			(r >= '0' && r <= '9') || r == '_' || r == '-'
		if !valid {
			t.Fatalf("identifier contains invalid rune %q", r)
		}
	}

	// Deterministic.
	if again := SessionIdentifier(long); again != got {
		t.Errorf("SessionIdentifier not deterministic: %q vs %q", got, again)
	}
}
