// Package agentsdk binds conduit's session contract to the Anthropic API.
// Each session holds its own conversation history; prompt responses are
// translated into the event stream the orchestrator subscribes to.
package agentsdk

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/google/uuid"

	"github.com/haasonsaas/conduit/internal/orchestrator"
)

// defaultMaxTokens bounds one response when the caller does not configure
// a limit.
const defaultMaxTokens = 8192

// Config holds the settings for the Anthropic-backed session factory.
type Config struct {
	// APIKey authenticates against the Anthropic API. Required.
	APIKey string

	// BaseURL overrides the default API endpoint.
	BaseURL string

	// MaxTokens bounds one response. Defaults to 8192.
	MaxTokens int
}

// Factory creates and resumes Claude sessions. Resume only reattaches to
// sessions created by this process; anything else falls back to Create.
type Factory struct {
	client    anthropic.Client
	maxTokens int
	logger    *slog.Logger

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewFactory creates a session factory from config.
func NewFactory(config Config, logger *slog.Logger) (*Factory, error) {
	if config.APIKey == "" {
		return nil, errors.New("agentsdk: API key is required")
	}
	if config.MaxTokens <= 0 {
		config.MaxTokens = defaultMaxTokens
	}
	if logger == nil {
		logger = slog.Default()
	}

	options := []option.RequestOption{option.WithAPIKey(config.APIKey)}
	if strings.TrimSpace(config.BaseURL) != "" {
		options = append(options, option.WithBaseURL(config.BaseURL))
	}

	return &Factory{
		client:    anthropic.NewClient(options...),
		maxTokens: config.MaxTokens,
		logger:    logger,
		sessions:  make(map[string]*Session),
	}, nil
}

// Create starts a fresh session.
func (f *Factory) Create(_ context.Context, cfg orchestrator.SessionConfig) (orchestrator.AgentSession, error) {
	if cfg.Model == "" {
		return nil, errors.New("agentsdk: model is required")
	}

	s := &Session{
		id:        cfg.SessionID,
		cfg:       cfg,
		client:    f.client,
		maxTokens: f.maxTokens,
		logger:    f.logger.With("session_id", cfg.SessionID),
		handlers:  make(map[string]map[string]orchestrator.HandlerFunc),
		release:   func() { f.forget(cfg.SessionID) },
	}

	f.mu.Lock()
	f.sessions[cfg.SessionID] = s
	f.mu.Unlock()
	return s, nil
}

// Resume reattaches to a session this factory still holds. Destroyed or
// unknown identifiers return an error so the caller creates instead.
func (f *Factory) Resume(_ context.Context, id string, cfg orchestrator.SessionConfig) (orchestrator.AgentSession, error) {
	f.mu.Lock()
	s, ok := f.sessions[id]
	f.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("agentsdk: no session %q to resume", id)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.destroyed {
		return nil, fmt.Errorf("agentsdk: session %q is destroyed", id)
	}
	s.cfg = cfg
	return s, nil
}

func (f *Factory) forget(id string) {
	f.mu.Lock()
	delete(f.sessions, id)
	f.mu.Unlock()
}

// Session is one Claude conversation. It keeps the full message history and
// replays it on every Send, so the model sees the whole conversation.
type Session struct {
	id        string
	client    anthropic.Client
	maxTokens int
	logger    *slog.Logger
	release   func()

	mu          sync.Mutex
	cfg         orchestrator.SessionConfig
	history     []anthropic.MessageParam
	handlers    map[string]map[string]orchestrator.HandlerFunc
	totalTokens int
	destroyed   bool
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Subscribe registers fn for the named event.
func (s *Session) Subscribe(event string, fn orchestrator.HandlerFunc) func() {
	token := uuid.NewString()
	s.mu.Lock()
	if s.handlers[event] == nil {
		s.handlers[event] = make(map[string]orchestrator.HandlerFunc)
	}
	s.handlers[event][token] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.handlers[event], token)
		s.mu.Unlock()
	}
}

// Destroy drops the session from its factory. The API itself is stateless
// per request, so there is nothing remote to release.
func (s *Session) Destroy(context.Context) error {
	s.mu.Lock()
	if s.destroyed {
		s.mu.Unlock()
		return nil
	}
	s.destroyed = true
	s.handlers = make(map[string]map[string]orchestrator.HandlerFunc)
	s.mu.Unlock()

	if s.release != nil {
		s.release()
	}
	return nil
}

// Send appends the prompt to the conversation and streams the response,
// dispatching session events as they arrive.
func (s *Session) Send(ctx context.Context, prompt string) error {
	s.mu.Lock()
	if s.destroyed {
		s.mu.Unlock()
		return errors.New("agentsdk: session is destroyed")
	}
	s.history = append(s.history, anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)))
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(s.cfg.Model),
		Messages:  append([]anthropic.MessageParam(nil), s.history...),
		MaxTokens: int64(s.maxTokens),
	}
	if system := s.systemPrompt(); system != "" {
		params.System = []anthropic.TextBlockParam{{Type: "text", Text: system}}
	}
	s.mu.Unlock()

	s.dispatch(orchestrator.EventTurnStart, orchestrator.SessionEvent{})

	stream := s.client.Messages.NewStreaming(ctx, params)
	finalText, err := s.processStream(stream)
	if err != nil {
		return err
	}

	if finalText != "" {
		s.mu.Lock()
		s.history = append(s.history, anthropic.NewAssistantMessage(anthropic.NewTextBlock(finalText)))
		s.mu.Unlock()
	}

	s.dispatch(orchestrator.EventIdle, orchestrator.SessionEvent{})
	return nil
}

// processStream consumes the SSE stream, dispatching deltas and tool
// events, and returns the assembled assistant text.
func (s *Session) processStream(stream interface {
	Next() bool
	Current() anthropic.MessageStreamEventUnion
	Err() error
}) (string, error) {
	var text strings.Builder
	var toolName, toolCallID string
	var toolInput strings.Builder
	var inputTokens, outputTokens int

	for stream.Next() {
		event := stream.Current()

		switch event.Type {
		case "message_start":
			messageStart := event.AsMessageStart()
			if messageStart.Message.Usage.InputTokens > 0 {
				inputTokens = int(messageStart.Message.Usage.InputTokens)
			}

		case "content_block_start":
			contentBlock := event.AsContentBlockStart().ContentBlock
			if contentBlock.Type == "tool_use" {
				toolUse := contentBlock.AsToolUse()
				toolName = toolUse.Name
				toolCallID = toolUse.ID
				toolInput.Reset()
				s.dispatch(orchestrator.EventToolExecutionStart, orchestrator.SessionEvent{
					ToolName:   toolName,
					ToolCallID: toolCallID,
				})
			}

		case "content_block_delta":
			delta := event.AsContentBlockDelta().Delta
			switch delta.Type {
			case "text_delta":
				if delta.Text != "" {
					text.WriteString(delta.Text)
					// Cumulative text: the orchestrator's merger dedupes
					// overlap, so replaying the full prefix is safe.
					s.dispatch(orchestrator.EventMessageDelta, orchestrator.SessionEvent{
						Text: text.String(),
					})
				}
			case "input_json_delta":
				toolInput.WriteString(delta.PartialJSON)
			}

		case "content_block_stop":
			if toolName != "" {
				s.dispatch(orchestrator.EventToolExecutionComplete, orchestrator.SessionEvent{
					ToolName:   toolName,
					ToolCallID: toolCallID,
					Args:       json.RawMessage(toolInput.String()),
					Success:    true,
					Result:     toolInput.String(),
				})
				toolName, toolCallID = "", ""
			}

		case "message_delta":
			messageDelta := event.AsMessageDelta()
			if messageDelta.Usage.OutputTokens > 0 {
				outputTokens = int(messageDelta.Usage.OutputTokens)
			}

		case "message_stop":
			s.mu.Lock()
			s.totalTokens += inputTokens + outputTokens
			total := s.totalTokens
			model := s.cfg.Model
			s.mu.Unlock()

			s.dispatch(orchestrator.EventMessage, orchestrator.SessionEvent{Text: text.String()})
			s.dispatch(orchestrator.EventUsage, orchestrator.SessionEvent{
				InputTokens:  inputTokens,
				OutputTokens: outputTokens,
				TotalTokens:  total,
				Model:        model,
			})
			return text.String(), nil
		}
	}

	if err := stream.Err(); err != nil {
		return "", fmt.Errorf("agentsdk: stream failed: %w", err)
	}
	return text.String(), nil
}

// systemPrompt describes the session environment to the model.
func (s *Session) systemPrompt() string {
	var parts []string
	if s.cfg.WorkingDirectory != "" {
		parts = append(parts, "Working directory: "+s.cfg.WorkingDirectory)
	}
	if len(s.cfg.SkillDirectories) > 0 {
		parts = append(parts, "Skill directories: "+strings.Join(s.cfg.SkillDirectories, ", "))
	}
	if len(s.cfg.DisabledSkills) > 0 {
		parts = append(parts, "Disabled skills (do not use): "+strings.Join(s.cfg.DisabledSkills, ", "))
	}
	if len(s.cfg.AllowedTools) > 0 {
		parts = append(parts, "Allowed tools: "+strings.Join(s.cfg.AllowedTools, ", "))
	}
	return strings.Join(parts, "\n")
}

// dispatch delivers ev to every handler registered for event.
func (s *Session) dispatch(event string, ev orchestrator.SessionEvent) {
	s.mu.Lock()
	fns := make([]orchestrator.HandlerFunc, 0, len(s.handlers[event]))
	for _, fn := range s.handlers[event] {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}
