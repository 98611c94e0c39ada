package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/haasonsaas/conduit/internal/hooks"
	"github.com/haasonsaas/conduit/internal/observability"
	"github.com/haasonsaas/conduit/internal/stream"
	"github.com/haasonsaas/conduit/internal/tools/policy"
	"github.com/haasonsaas/conduit/pkg/models"
)

// Prompt sends one prompt to the request's conversation and streams the
// response through emit. Events arrive in upstream order; the final event
// on success is always done. On timeout or cancellation the call fails but
// text already emitted stays delivered.
func (o *Orchestrator) Prompt(ctx context.Context, req models.PromptRequest, emit func(models.StreamEvent)) error {
	if emit == nil {
		return errors.New("emit callback is required")
	}

	state, err := o.EnsureSessionForContext(ctx, req)
	if err != nil {
		return err
	}

	ctx = observability.WithChatKey(ctx, state.ChatKey)
	ctx = observability.WithSessionID(ctx, state.SessionID)
	logger := observability.LoggerFromContext(ctx, o.logger)

	ctx, span := observability.Tracer().Start(ctx, "conduit.prompt",
		trace.WithAttributes(
			attribute.String("conduit.session_id", state.SessionID),
			attribute.String("conduit.model", state.Model),
		))
	defer span.End()

	timer := prometheus.NewTimer(o.metrics.StreamDuration)
	defer timer.ObserveDuration()

	run := newPromptRun(o, state, policy.Resolve(req.Context), emit, logger)
	run.subscribe(state.Handle)
	defer run.close()

	state.beginTurn()
	if err := state.Handle.Send(ctx, req.Prompt); err != nil {
		return fmt.Errorf("send prompt: %w", err)
	}

	select {
	case <-run.done:
	case <-time.After(o.timeout):
		logger.Warn("prompt stream timed out", "timeout", o.timeout)
		return ErrStreamTimeout
	case <-ctx.Done():
		return ctx.Err()
	}

	run.close()
	run.finish()

	if state.CompactionDue() {
		logger.Info("session context nearing capacity, will replace on next prompt")
	}
	return nil
}

// promptRun is the per-prompt streaming state: the dedup merger, the markup
// filter, and the live subscriptions. Handlers may fire from upstream
// goroutines, so mutable state is mutex-guarded.
type promptRun struct {
	orch   *Orchestrator
	state  *SessionState
	policy policy.Resolved
	emit   func(models.StreamEvent)
	logger *slog.Logger

	done     chan struct{}
	doneOnce sync.Once

	mu      sync.Mutex
	merged  string
	filter  *stream.MarkupFilter
	unsubs  []func()
}

func newPromptRun(o *Orchestrator, state *SessionState, pol policy.Resolved, emit func(models.StreamEvent), logger *slog.Logger) *promptRun {
	return &promptRun{
		orch:   o,
		state:  state,
		policy: pol,
		emit:   emit,
		logger: logger,
		done:   make(chan struct{}),
		filter: stream.NewMarkupFilter(),
	}
}

func (r *promptRun) subscribe(session AgentSession) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.unsubs = append(r.unsubs,
		session.Subscribe(EventTurnStart, func(SessionEvent) {
			r.emit(models.StatusEvent("thinking"))
		}),
		session.Subscribe(EventMessageDelta, func(ev SessionEvent) {
			r.onText(ev.Text)
		}),
		session.Subscribe(EventMessage, func(ev SessionEvent) {
			r.onText(ev.Text)
		}),
		session.Subscribe(EventToolExecutionStart, r.onToolStart),
		session.Subscribe(EventToolExecutionComplete, r.onToolComplete),
		session.Subscribe(EventUsage, r.onUsage),
		session.Subscribe(EventIdle, func(SessionEvent) {
			r.doneOnce.Do(func() { close(r.done) })
		}),
	)
}

// close removes all subscriptions. Safe to call more than once.
func (r *promptRun) close() {
	r.mu.Lock()
	unsubs := r.unsubs
	r.unsubs = nil
	r.mu.Unlock()
	for _, unsub := range unsubs {
		unsub()
	}
}

// onText folds an incoming chunk into the merged transcript, extracts the
// genuinely new suffix, and emits whatever the markup filter lets through.
func (r *promptRun) onText(text string) {
	if text == "" {
		return
	}
	r.mu.Lock()
	next := stream.Merge(r.merged, text)
	delta := stream.ExtractIncrementalDelta(r.merged, next)
	r.merged = next
	var visible string
	if delta != "" {
		visible = r.filter.Process(delta)
	}
	r.mu.Unlock()

	if visible != "" {
		r.emit(models.TextEvent(visible))
	}
}

func (r *promptRun) onToolStart(ev SessionEvent) {
	call := hooks.ToolCall{Name: ev.ToolName, CallID: ev.ToolCallID, Args: ev.Args}
	decision := r.orch.hooks.PreToolUse(r.policy, call, r.state.AllowedTools)

	class := string(policy.Classify(ev.ToolName))
	if !decision.Allowed {
		r.orch.metrics.ToolDecisions.WithLabelValues(class, "deny").Inc()
		r.emit(models.ToolCompleteEvent(ev.ToolName, ev.ToolCallID, false, decision.Reason))
		return
	}
	r.orch.metrics.ToolDecisions.WithLabelValues(class, "allow").Inc()
	r.emit(models.ToolStartEvent(ev.ToolName, ev.ToolCallID))
}

func (r *promptRun) onToolComplete(ev SessionEvent) {
	result := ev.Result
	if !ev.Success && ev.Err != "" {
		result = ev.Err
	}
	call := hooks.ToolCall{Name: ev.ToolName, CallID: ev.ToolCallID}
	details := r.orch.hooks.PostToolUse(call, result)
	r.emit(models.ToolCompleteEvent(ev.ToolName, ev.ToolCallID, ev.Success, details))
}

func (r *promptRun) onUsage(ev SessionEvent) {
	total := ev.TotalTokens
	if total == 0 {
		total = ev.InputTokens + ev.OutputTokens
	}
	r.state.ObserveUsage(total, r.orch.compaction)

	r.emit(models.StreamEvent{
		Type:         models.EventUsage,
		InputTokens:  ev.InputTokens,
		OutputTokens: ev.OutputTokens,
		TotalTokens:  total,
		Model:        ev.Model,
		Raw:          ev.Raw,
	})
}

// finish flushes any text still held by the markup filter and terminates
// the stream. Called only after subscriptions are removed.
func (r *promptRun) finish() {
	r.mu.Lock()
	tail := r.filter.Flush()
	r.mu.Unlock()

	if tail != "" {
		r.emit(models.TextEvent(tail))
	}
	r.emit(models.DoneEvent())
}
