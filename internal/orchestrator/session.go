package orchestrator

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/haasonsaas/conduit/internal/compaction"
	"github.com/haasonsaas/conduit/pkg/models"
)

// Upstream SDK event names conduit subscribes to.
const (
	EventTurnStart            = "turn-start"
	EventMessageDelta         = "message-delta"
	EventMessage              = "message"
	EventToolExecutionStart   = "tool-execution-start"
	EventToolExecutionComplete = "tool-execution-complete"
	EventUsage                = "usage"
	EventIdle                 = "idle"
)

// SessionEvent is the payload delivered to subscribed handlers. Fields are
// populated per event kind: Text for message events, tool fields for tool
// events, token counts for usage events.
type SessionEvent struct {
	Text       string
	ToolName   string
	ToolCallID string
	Args       json.RawMessage
	Success    bool
	Result     string
	Err        string

	InputTokens  int
	OutputTokens int
	TotalTokens  int
	Model        string
	Raw          map[string]any
}

// HandlerFunc receives one upstream session event.
type HandlerFunc func(event SessionEvent)

// AgentSession is the narrow surface conduit requires from an upstream
// agent session. Handlers registered through Subscribe may be invoked from
// the session's own goroutines.
type AgentSession interface {
	// ID returns the upstream session identifier.
	ID() string

	// Send submits a prompt. Responses arrive through subscribed handlers.
	Send(ctx context.Context, prompt string) error

	// Subscribe registers fn for the named event and returns a function
	// that removes the registration.
	Subscribe(event string, fn HandlerFunc) (unsubscribe func())

	// Destroy releases the upstream session.
	Destroy(ctx context.Context) error
}

// SessionConfig carries everything the upstream needs to start a session.
type SessionConfig struct {
	SessionID        string
	Model            string
	WorkingDirectory string

	// AllowedTools is the native-tool allow list handed to the upstream.
	// Nil means unrestricted.
	AllowedTools []string

	SkillDirectories []string
	DisabledSkills   []string
}

// SessionFactory creates and resumes upstream sessions.
type SessionFactory interface {
	Create(ctx context.Context, cfg SessionConfig) (AgentSession, error)

	// Resume reattaches to a previously created session by identifier.
	// Callers fall back to Create when it fails.
	Resume(ctx context.Context, id string, cfg SessionConfig) (AgentSession, error)
}

// SessionState binds one conversation key to a live upstream session and
// the configuration it was created with. Configuration fields are fixed at
// creation; a changed request replaces the state rather than mutating it.
type SessionState struct {
	ChatKey   string
	SessionID string
	Handle    AgentSession

	Model            string
	WorkingDirectory string

	// AllowedTools is the full normalized allow list from the request.
	// NativeAllowedTools is the subset handed to the upstream, with MCP
	// names removed since those are enforced by the hook pipeline instead.
	AllowedTools       []string
	NativeAllowedTools []string

	SkillDirectories []string
	DisabledSkills   []string

	Context models.ExecutionContext

	mu            sync.Mutex
	usage         compaction.Usage
	compactionDue bool
}

// beginTurn counts one prompt turn against the compaction thresholds.
func (s *SessionState) beginTurn() {
	s.mu.Lock()
	s.usage.Turns++
	s.mu.Unlock()
}

// ObserveUsage records the latest cumulative token total and marks the
// session for replacement once the compaction thresholds are crossed.
func (s *SessionState) ObserveUsage(totalTokens int, t compaction.Thresholds) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.usage.Observe(totalTokens)
	if compaction.ShouldCompact(s.usage, t) {
		s.compactionDue = true
	}
}

// CompactionDue reports whether the session has outgrown its context
// window and should be replaced on the next ensure.
func (s *SessionState) CompactionDue() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.compactionDue
}

// reusable reports whether this state can serve a request that resolved to
// desired. Every configuration field must match exactly.
func (s *SessionState) reusable(desired *SessionState) bool {
	if s.Handle == nil || s.CompactionDue() {
		return false
	}
	return s.Model == desired.Model &&
		s.WorkingDirectory == desired.WorkingDirectory &&
		equalStrings(s.AllowedTools, desired.AllowedTools) &&
		equalStrings(s.SkillDirectories, desired.SkillDirectories) &&
		equalStrings(s.DisabledSkills, desired.DisabledSkills) &&
		s.Context.Equal(desired.Context)
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
