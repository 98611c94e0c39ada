package models

// ExecutionContext describes the policy scope of one prompt request.
// It is an immutable value supplied per request; the orchestrator compares
// it field-by-field when deciding whether an existing session is reusable.
type ExecutionContext struct {
	// AgentID identifies the acting agent persona (e.g. "writer").
	AgentID string `json:"agentID"`

	// Feature tags the surface issuing the request. Requests tagged
	// "agents" run in an isolated per-session directory instead of the
	// caller's project tree.
	Feature string `json:"feature,omitempty"`

	// PolicyProfile names the tool policy profile to apply. Unknown names
	// fall back to the agent's default, then the global default.
	PolicyProfile string `json:"policyProfile,omitempty"`

	// SkillNames optionally restricts the request to an explicit skill
	// subset. Nil means all resolved skills stay active.
	SkillNames []string `json:"skillNames,omitempty"`

	// RequireSkills makes missing entries from SkillNames request-fatal.
	RequireSkills bool `json:"requireSkills,omitempty"`
}

// Equal reports whether two execution contexts are identical, including
// the order of any requested skill names.
func (c ExecutionContext) Equal(other ExecutionContext) bool {
	if c.AgentID != other.AgentID ||
		c.Feature != other.Feature ||
		c.PolicyProfile != other.PolicyProfile ||
		c.RequireSkills != other.RequireSkills {
		return false
	}
	if len(c.SkillNames) != len(other.SkillNames) {
		return false
	}
	for i, name := range c.SkillNames {
		if other.SkillNames[i] != name {
			return false
		}
	}
	return true
}

// PromptRequest is one prompt aimed at a logical conversation.
type PromptRequest struct {
	// ChatID identifies the conversation. When empty, ProjectPath scopes
	// the conversation instead; when both are empty the request joins the
	// shared "default" conversation.
	ChatID string `json:"chatID,omitempty"`

	// ProjectPath is the caller's project directory.
	ProjectPath string `json:"projectPath,omitempty"`

	// Prompt is the user's message.
	Prompt string `json:"prompt"`

	// Model is the upstream model identifier. Required.
	Model string `json:"model"`

	// WorkingDirectory overrides the session working directory.
	WorkingDirectory string `json:"workingDirectory,omitempty"`

	// AllowedTools restricts which tools the session may call. Nil means
	// no restriction; the orchestrator normalizes, dedupes, and sorts it.
	AllowedTools []string `json:"allowedTools,omitempty"`

	// Context is the policy scope for this request.
	Context ExecutionContext `json:"context"`
}
