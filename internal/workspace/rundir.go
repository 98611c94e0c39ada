// Package workspace decides which working directory a session actually
// runs in. Autonomous agent runs are remapped into an app-owned root so
// they cannot write into the caller's project tree unintentionally.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// AgentsFeature is the execution-context feature tag whose requests run in
// an isolated per-session directory.
const AgentsFeature = "agents"

// Resolver maps requested working directories to the ones sessions use.
type Resolver struct {
	// AgentRunRoot is the app-owned root for isolated agent runs.
	AgentRunRoot string
}

// NewResolver creates a resolver rooted at agentRunRoot, defaulting to
// ~/.conduit/agent-runs when empty.
func NewResolver(agentRunRoot string) *Resolver {
	if agentRunRoot == "" {
		if home, err := os.UserHomeDir(); err == nil {
			agentRunRoot = filepath.Join(home, ".conduit", "agent-runs")
		} else {
			agentRunRoot = filepath.Join(os.TempDir(), "conduit-agent-runs")
		}
	}
	return &Resolver{AgentRunRoot: agentRunRoot}
}

// Normalize cleans a requested working directory. Empty input stays empty.
func Normalize(dir string) string {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return ""
	}
	return filepath.Clean(dir)
}

// Resolve returns the directory the session should run in. Requests tagged
// with the agents feature get a per-session directory under AgentRunRoot,
// created on demand; everything else keeps the normalized requested path.
func (r *Resolver) Resolve(feature, requested, sessionID string) (string, error) {
	if feature != AgentsFeature {
		return Normalize(requested), nil
	}

	runDir := filepath.Join(r.AgentRunRoot, sessionID)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return "", fmt.Errorf("create agent run dir: %w", err)
	}
	return runDir, nil
}
