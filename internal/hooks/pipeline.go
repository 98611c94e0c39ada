// Package hooks gates and logs tool-call traffic between the upstream
// session and the orchestrator: policy enforcement and size limits before
// a tool runs, secret redaction and truncation of its result afterwards.
package hooks

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/haasonsaas/conduit/internal/tools/policy"
)

// Limits are the size ceilings applied to tool traffic, in bytes or chars.
type Limits struct {
	// MaxArgBytes caps the serialized tool arguments.
	MaxArgBytes int

	// MaxCommandChars caps a shell-command argument.
	MaxCommandChars int

	// MaxResultBytes caps a tool result before it is truncated into an
	// envelope.
	MaxResultBytes int

	// PreviewBytes bounds the preview kept inside a truncation envelope.
	PreviewBytes int
}

// DefaultLimits returns the standard tool traffic ceilings.
func DefaultLimits() Limits {
	return Limits{
		MaxArgBytes:     64 * 1024,
		MaxCommandChars: 8 * 1024,
		MaxResultBytes:  256 * 1024,
		PreviewBytes:    2 * 1024,
	}
}

// ToolCall identifies one tool invocation crossing the pipeline.
type ToolCall struct {
	Name   string
	CallID string
	Args   json.RawMessage
}

// Decision is the outcome of a pre-call check. Denials carry a reason that
// is surfaced to the agent and logged; they are never transport errors.
type Decision struct {
	Allowed bool
	Reason  string
}

func allow() Decision { return Decision{Allowed: true} }

func deny(reason string) Decision { return Decision{Reason: reason} }

// Pipeline applies policy, blocklist, allow-list, and size checks to tool
// calls, and redacts/truncates results. Safe for concurrent use.
type Pipeline struct {
	limits  Limits
	blocked map[string]bool
	logger  *slog.Logger
}

// NewPipeline creates a pipeline with the given limits and static
// administrative blocklist. Blocklist entries match by normalized name.
func NewPipeline(limits Limits, blockedTools []string, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	blocked := make(map[string]bool, len(blockedTools))
	for _, name := range blockedTools {
		if normalized := policy.Normalize(name); normalized != "" {
			blocked[normalized] = true
		}
	}
	return &Pipeline{
		limits:  limits,
		blocked: blocked,
		logger:  logger.With("component", "tool-hooks"),
	}
}

// PreToolUse gates one tool call before it executes. allowList is the
// request's resolved tool allow-list; nil means no restriction.
func (p *Pipeline) PreToolUse(pol policy.Resolved, call ToolCall, allowList []string) Decision {
	decision := p.check(pol, call, allowList)

	class := policy.Classify(call.Name)
	if decision.Allowed {
		p.logger.Debug("tool call allowed",
			"tool", call.Name,
			"tool_call_id", call.CallID,
			"class", string(class),
			"profile", pol.ProfileName,
		)
	} else {
		p.logger.Warn("tool call denied",
			"tool", call.Name,
			"tool_call_id", call.CallID,
			"class", string(class),
			"profile", pol.ProfileName,
			"reason", decision.Reason,
		)
	}
	return decision
}

func (p *Pipeline) check(pol policy.Resolved, call ToolCall, allowList []string) Decision {
	name := strings.TrimSpace(call.Name)
	if name == "" {
		return deny("missing tool name")
	}

	class := policy.Classify(name)
	if !policy.IsClassAllowed(pol, class) {
		return deny(fmt.Sprintf("%s tools forbidden by profile %q", class, pol.ProfileName))
	}

	if p.blocked[policy.Normalize(name)] {
		return deny("tool blocked by administrative policy")
	}

	if allowList != nil && !matchesAllowList(name, allowList) {
		return deny("tool not in allow-list")
	}

	if p.limits.MaxArgBytes > 0 && len(call.Args) > p.limits.MaxArgBytes {
		return deny(fmt.Sprintf("arguments exceed %d bytes", p.limits.MaxArgBytes))
	}

	if p.limits.MaxCommandChars > 0 {
		if cmd, ok := commandArgument(call.Args); ok && len(cmd) > p.limits.MaxCommandChars {
			return deny(fmt.Sprintf("command exceeds %d characters", p.limits.MaxCommandChars))
		}
	}

	return allow()
}

// matchesAllowList reports whether a tool name matches any allow-list
// entry by exact name, normalized name, or normalized final path segment.
// The segment match lets a short human-facing entry like "fetch_webpage"
// cover a qualified upstream name like "mcp:web.fetch_webpage".
func matchesAllowList(toolName string, allowList []string) bool {
	normalized := policy.Normalize(toolName)
	segment := policy.Normalize(finalSegment(toolName))
	for _, entry := range allowList {
		if entry == toolName {
			return true
		}
		entryNorm := policy.Normalize(entry)
		if entryNorm == "" {
			continue
		}
		if entryNorm == normalized || entryNorm == segment {
			return true
		}
	}
	return false
}

// finalSegment returns the part of a qualified name after the last
// '/', '.', or ':' separator.
func finalSegment(name string) string {
	idx := strings.LastIndexAny(name, "/.:")
	if idx < 0 || idx == len(name)-1 {
		return name
	}
	return name[idx+1:]
}

// commandArgument extracts a shell-command-shaped argument, if present.
func commandArgument(args json.RawMessage) (string, bool) {
	if len(args) == 0 {
		return "", false
	}
	var parsed map[string]any
	if err := json.Unmarshal(args, &parsed); err != nil {
		return "", false
	}
	for _, key := range []string{"command", "cmd", "script"} {
		if value, ok := parsed[key].(string); ok {
			return value, true
		}
	}
	return "", false
}
