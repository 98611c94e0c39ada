// Package orchestrator owns the conversation-to-session map. It decides
// when an upstream session can be reused and when it must be replaced,
// serializes session management per conversation key, and streams prompt
// responses through the markup filter and hook pipeline.
package orchestrator

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/haasonsaas/conduit/internal/chatkey"
	"github.com/haasonsaas/conduit/internal/compaction"
	"github.com/haasonsaas/conduit/internal/hooks"
	"github.com/haasonsaas/conduit/internal/observability"
	"github.com/haasonsaas/conduit/internal/skills"
	"github.com/haasonsaas/conduit/internal/tools/policy"
	"github.com/haasonsaas/conduit/internal/workspace"
	"github.com/haasonsaas/conduit/pkg/models"
)

// defaultStreamTimeout bounds how long one prompt may stream before the
// call fails with ErrStreamTimeout.
const defaultStreamTimeout = 5 * time.Minute

// Options configures an Orchestrator. Factory is required; everything else
// has a usable default.
type Options struct {
	Factory    SessionFactory
	Skills     *skills.Selector
	Hooks      *hooks.Pipeline
	Workspace  *workspace.Resolver
	Compaction compaction.Thresholds
	Logger     *slog.Logger
	Metrics    *observability.Metrics

	// StreamTimeout overrides the default per-prompt streaming deadline.
	StreamTimeout time.Duration
}

// Orchestrator maps conversation keys to live upstream sessions.
type Orchestrator struct {
	factory    SessionFactory
	skills     *skills.Selector
	hooks      *hooks.Pipeline
	workspace  *workspace.Resolver
	compaction compaction.Thresholds
	logger     *slog.Logger
	metrics    *observability.Metrics
	timeout    time.Duration

	queue *KeyQueue

	mu       sync.Mutex
	sessions map[string]*SessionState
}

// New creates an orchestrator from opts.
func New(opts Options) *Orchestrator {
	if opts.Skills == nil {
		opts.Skills = skills.NewSelector(nil, nil)
	}
	if opts.Hooks == nil {
		opts.Hooks = hooks.NewPipeline(hooks.DefaultLimits(), nil, opts.Logger)
	}
	if opts.Workspace == nil {
		opts.Workspace = workspace.NewResolver("")
	}
	if opts.Compaction == (compaction.Thresholds{}) {
		opts.Compaction = compaction.DefaultThresholds()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Metrics == nil {
		opts.Metrics = observability.NewMetrics(prometheus.NewRegistry())
	}
	if opts.StreamTimeout <= 0 {
		opts.StreamTimeout = defaultStreamTimeout
	}

	return &Orchestrator{
		factory:    opts.Factory,
		skills:     opts.Skills,
		hooks:      opts.Hooks,
		workspace:  opts.Workspace,
		compaction: opts.Compaction,
		logger:     opts.Logger,
		metrics:    opts.Metrics,
		timeout:    opts.StreamTimeout,
		queue:      NewKeyQueue(),
		sessions:   make(map[string]*SessionState),
	}
}

// EnsureSessionForContext returns a live session for the request's
// conversation, creating, resuming, or replacing the underlying upstream
// session as needed. Calls for the same conversation key are serialized;
// concurrent identical calls observe a single create.
func (o *Orchestrator) EnsureSessionForContext(ctx context.Context, req models.PromptRequest) (*SessionState, error) {
	model := strings.TrimSpace(req.Model)
	if model == "" {
		return nil, &ConfigurationError{Reason: "model is required"}
	}

	requestedDir := workspace.Normalize(req.WorkingDirectory)
	if requestedDir == "" {
		requestedDir = workspace.Normalize(req.ProjectPath)
	}

	allowed := normalizeAllowedTools(req.AllowedTools)

	selection := o.skills.Select(req.Context)
	if req.Context.RequireSkills && len(selection.MissingRequiredSkills) > 0 {
		return nil, &ValidationError{
			Reason:        "required skills are not installed",
			MissingSkills: selection.MissingRequiredSkills,
		}
	}

	key := chatkey.Normalize(req.ChatID, req.ProjectPath)
	sessionID := chatkey.SessionIdentifier(key)
	logger := o.logger.With("chat_key", key, "session_id", sessionID)

	var state *SessionState
	err := o.queue.Do(ctx, key, func() error {
		workDir, err := o.workspace.Resolve(req.Context.Feature, requestedDir, sessionID)
		if err != nil {
			return err
		}

		desired := &SessionState{
			ChatKey:            key,
			SessionID:          sessionID,
			Model:              model,
			WorkingDirectory:   workDir,
			AllowedTools:       allowed,
			NativeAllowedTools: excludeMCPTools(allowed),
			SkillDirectories:   selection.SkillDirectories,
			DisabledSkills:     selection.DisabledSkills,
			Context:            req.Context,
		}

		o.mu.Lock()
		existing := o.sessions[key]
		o.mu.Unlock()

		if existing != nil && existing.reusable(desired) {
			o.metrics.SessionOps.WithLabelValues("reuse", "ok").Inc()
			state = existing
			return nil
		}

		if existing != nil {
			o.discard(ctx, existing, logger)
		}

		handle, err := o.acquire(ctx, desired, logger)
		if err != nil {
			return err
		}
		desired.Handle = handle

		o.mu.Lock()
		o.sessions[key] = desired
		o.mu.Unlock()
		o.metrics.ActiveSessions.Inc()

		state = desired
		return nil
	})
	if err != nil {
		return nil, err
	}
	return state, nil
}

// acquire resumes the deterministic session identifier when the upstream
// still knows it, otherwise creates a fresh session.
func (o *Orchestrator) acquire(ctx context.Context, desired *SessionState, logger *slog.Logger) (AgentSession, error) {
	cfg := SessionConfig{
		SessionID:        desired.SessionID,
		Model:            desired.Model,
		WorkingDirectory: desired.WorkingDirectory,
		AllowedTools:     desired.NativeAllowedTools,
		SkillDirectories: desired.SkillDirectories,
		DisabledSkills:   desired.DisabledSkills,
	}

	if handle, err := o.factory.Resume(ctx, desired.SessionID, cfg); err == nil {
		o.metrics.SessionOps.WithLabelValues("resume", "ok").Inc()
		logger.Debug("resumed session", "model", desired.Model)
		return handle, nil
	} else {
		o.metrics.SessionOps.WithLabelValues("resume", "error").Inc()
		logger.Debug("resume failed, creating", "error", err)
	}

	handle, err := o.factory.Create(ctx, cfg)
	if err != nil {
		o.metrics.SessionOps.WithLabelValues("create", "error").Inc()
		return nil, err
	}
	o.metrics.SessionOps.WithLabelValues("create", "ok").Inc()
	logger.Info("created session", "model", desired.Model, "working_dir", desired.WorkingDirectory)
	return handle, nil
}

// discard removes state from the store and destroys its upstream session.
// Destroy failures are logged and swallowed; the replacement proceeds.
func (o *Orchestrator) discard(ctx context.Context, state *SessionState, logger *slog.Logger) {
	o.mu.Lock()
	if o.sessions[state.ChatKey] == state {
		delete(o.sessions, state.ChatKey)
		o.metrics.ActiveSessions.Dec()
	}
	o.mu.Unlock()

	if state.Handle == nil {
		return
	}
	if err := state.Handle.Destroy(ctx); err != nil {
		o.metrics.SessionOps.WithLabelValues("destroy", "error").Inc()
		logger.Warn("session destroy failed", "error", err)
		return
	}
	o.metrics.SessionOps.WithLabelValues("destroy", "ok").Inc()
}

// DestroySession tears down the session for one conversation key, if any.
func (o *Orchestrator) DestroySession(ctx context.Context, chatID, projectPath string) error {
	key := chatkey.Normalize(chatID, projectPath)
	return o.queue.Do(ctx, key, func() error {
		o.mu.Lock()
		state := o.sessions[key]
		o.mu.Unlock()
		if state != nil {
			o.discard(ctx, state, o.logger.With("chat_key", key))
		}
		return nil
	})
}

// Reset destroys every live session. The composition root calls this when
// the authenticated account changes.
func (o *Orchestrator) Reset(ctx context.Context) {
	o.mu.Lock()
	states := make([]*SessionState, 0, len(o.sessions))
	for _, state := range o.sessions {
		states = append(states, state)
	}
	o.mu.Unlock()

	for _, state := range states {
		o.discard(ctx, state, o.logger.With("chat_key", state.ChatKey))
	}
}

// ActiveSessions returns the number of sessions currently held.
func (o *Orchestrator) ActiveSessions() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.sessions)
}

// normalizeAllowedTools trims, dedupes, and sorts an allow list. The
// result is either nil (unrestricted) or non-empty: a list whose entries
// all trim away carries no restriction and must not survive as an empty
// deny-everything list.
func normalizeAllowedTools(tools []string) []string {
	seen := make(map[string]bool, len(tools))
	out := make([]string, 0, len(tools))
	for _, tool := range tools {
		tool = strings.TrimSpace(tool)
		if tool == "" || seen[tool] {
			continue
		}
		seen[tool] = true
		out = append(out, tool)
	}
	if len(out) == 0 {
		return nil
	}
	sort.Strings(out)
	return out
}

// excludeMCPTools filters MCP-class names out of an allow list. MCP tools
// are gated by the hook pipeline, not by the upstream's native allow list.
func excludeMCPTools(tools []string) []string {
	if tools == nil {
		return nil
	}
	out := make([]string, 0, len(tools))
	for _, tool := range tools {
		if policy.Classify(tool) != policy.ClassMCP {
			out = append(out, tool)
		}
	}
	return out
}
