// Package policy classifies tool names and resolves per-request tool access
// profiles. It is pure and stateless: every decision is a function of the
// tool name and the request's execution context.
package policy

import (
	"strings"

	"github.com/haasonsaas/conduit/pkg/models"
)

// Class is the policy category of a tool name.
type Class string

const (
	// ClassNative covers the SDK's built-in tool registry.
	ClassNative Class = "native"

	// ClassCustom covers tools in the reserved app namespace.
	ClassCustom Class = "custom"

	// ClassMCP covers tools routed through an MCP server.
	ClassMCP Class = "mcp"

	// ClassUnknown covers names that cannot be classified.
	ClassUnknown Class = "unknown"
)

// CustomToolPrefix is the reserved namespace for conduit's own tools.
const CustomToolPrefix = "conduit_"

// DefaultProfile is the global fallback profile name.
const DefaultProfile = "default"

// ProfileConfig is the per-class allowance set of one profile.
type ProfileConfig struct {
	AllowNative bool `yaml:"allow_native"`
	AllowCustom bool `yaml:"allow_custom"`
	AllowMCP    bool `yaml:"allow_mcp"`

	// StrictFallback marks profiles that exist to force fetch-like
	// operations through the sandboxed protocol server instead of
	// native execution.
	StrictFallback bool `yaml:"strict_fallback"`
}

// Profiles are the baseline tool access profiles.
var Profiles = map[string]ProfileConfig{
	DefaultProfile: {
		AllowNative: true,
		AllowCustom: true,
		AllowMCP:    true,
	},
	// strict-fetch-mcp forbids native tools so that URL fetching and
	// similar operations can only happen via the MCP protocol server.
	"strict-fetch-mcp": {
		AllowNative:    false,
		AllowCustom:    true,
		AllowMCP:       true,
		StrictFallback: true,
	},
}

// AgentDefaults maps agent IDs to their default profile when the request
// names no profile (or an unknown one).
var AgentDefaults = map[string]string{
	"url-summariser": "strict-fetch-mcp",
}

// Resolved is the effective tool policy for one request.
type Resolved struct {
	ProfileName string
	Config      ProfileConfig
	AgentID     string
	Feature     string
}

// Normalize canonicalizes a tool name for classification: lowercase, runs
// of non-alphanumeric characters collapsed to "_", edge "_" trimmed.
func Normalize(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	lastUnderscore := false
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore {
				b.WriteByte('_')
				lastUnderscore = true
			}
		}
	}
	return strings.Trim(b.String(), "_")
}

// Classify determines the policy class of a tool name.
func Classify(toolName string) Class {
	normalized := Normalize(toolName)
	switch {
	case normalized == "":
		return ClassUnknown
	case normalized == "fetch" || strings.HasPrefix(normalized, "fetch_"):
		return ClassMCP
	case strings.HasPrefix(normalized, CustomToolPrefix):
		return ClassCustom
	default:
		return ClassNative
	}
}

// Resolve returns the effective policy for a request: the requested profile
// when it names a known profile, else the agent's configured default, else
// the global default.
func Resolve(ec models.ExecutionContext) Resolved {
	name := ec.PolicyProfile
	if _, ok := Profiles[name]; !ok {
		name = AgentDefaults[ec.AgentID]
		if _, ok := Profiles[name]; !ok {
			name = DefaultProfile
		}
	}
	return Resolved{
		ProfileName: name,
		Config:      Profiles[name],
		AgentID:     ec.AgentID,
		Feature:     ec.Feature,
	}
}

// IsClassAllowed reports whether the resolved policy permits the class.
// Unknown classes are always allowed regardless of profile.
func IsClassAllowed(p Resolved, class Class) bool {
	switch class {
	case ClassNative:
		return p.Config.AllowNative
	case ClassCustom:
		return p.Config.AllowCustom
	case ClassMCP:
		return p.Config.AllowMCP
	default:
		return true
	}
}
