package workspace

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct{ in, want string }{
		{"", ""},
		{"  ", ""},
		{"/home/dev/proj/", "/home/dev/proj"},
		{"/home/dev/../dev/proj", "/home/dev/proj"},
	}
	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestResolveKeepsRequestedDir(t *testing.T) {
	r := NewResolver(t.TempDir())
	got, err := r.Resolve("chat", "/home/dev/proj", "conduit-chat-1")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got != "/home/dev/proj" {
		t.Errorf("got %q", got)
	}
}

func TestResolveAgentsFeatureIsolates(t *testing.T) {
	root := t.TempDir()
	r := NewResolver(root)

	got, err := r.Resolve(AgentsFeature, "/home/dev/proj", "conduit-chat-1")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !strings.HasPrefix(got, root) {
		t.Errorf("run dir %q not under root %q", got, root)
	}
	if strings.Contains(got, "proj") {
		t.Errorf("run dir %q leaked the project path", got)
	}
	if got != filepath.Join(root, "conduit-chat-1") {
		t.Errorf("run dir = %q", got)
	}

	info, err := os.Stat(got)
	if err != nil || !info.IsDir() {
		t.Errorf("run dir not created: %v", err)
	}
}
