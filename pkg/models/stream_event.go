// Package models defines the wire-level types shared between conduit's
// orchestration core and its callers: prompt requests, execution context,
// and the outbound stream event schema.
package models

// StreamEventType defines the types of outbound stream events.
type StreamEventType string

const (
	// EventStatus carries a short human-readable progress label.
	EventStatus StreamEventType = "status"

	// EventText carries filtered visible assistant text.
	EventText StreamEventType = "text"

	// EventToolStart indicates a tool call has begun upstream.
	EventToolStart StreamEventType = "tool_start"

	// EventToolComplete indicates a tool call has finished upstream.
	EventToolComplete StreamEventType = "tool_complete"

	// EventUsage carries token accounting for the current turn.
	EventUsage StreamEventType = "usage"

	// EventDone terminates the stream. It is always the last event.
	EventDone StreamEventType = "done"
)

// StreamEvent is one record emitted to the caller during a streamed response.
// Exactly one payload group is populated depending on Type.
type StreamEvent struct {
	// Type identifies the kind of event.
	Type StreamEventType `json:"type"`

	// Label is a progress description (status events).
	Label string `json:"label,omitempty"`

	// Text is a chunk of visible assistant output (text events).
	Text string `json:"text,omitempty"`

	// ToolName and ToolCallID identify a tool invocation
	// (tool_start and tool_complete events).
	ToolName   string `json:"toolName,omitempty"`
	ToolCallID string `json:"toolCallID,omitempty"`

	// Success and Details describe a finished tool call (tool_complete events).
	Success bool   `json:"success,omitempty"`
	Details string `json:"details,omitempty"`

	// Token counts and model for usage events. Raw preserves the upstream
	// payload verbatim for callers that need fields conduit does not model.
	InputTokens  int            `json:"inputTokens,omitempty"`
	OutputTokens int            `json:"outputTokens,omitempty"`
	TotalTokens  int            `json:"totalTokens,omitempty"`
	Model        string         `json:"model,omitempty"`
	Raw          map[string]any `json:"raw,omitempty"`
}

// StatusEvent creates a status event with the given label.
func StatusEvent(label string) StreamEvent {
	return StreamEvent{Type: EventStatus, Label: label}
}

// TextEvent creates a text event.
func TextEvent(text string) StreamEvent {
	return StreamEvent{Type: EventText, Text: text}
}

// ToolStartEvent creates a tool_start event.
func ToolStartEvent(toolName, toolCallID string) StreamEvent {
	return StreamEvent{Type: EventToolStart, ToolName: toolName, ToolCallID: toolCallID}
}

// ToolCompleteEvent creates a tool_complete event.
func ToolCompleteEvent(toolName, toolCallID string, success bool, details string) StreamEvent {
	return StreamEvent{
		Type:       EventToolComplete,
		ToolName:   toolName,
		ToolCallID: toolCallID,
		Success:    success,
		Details:    details,
	}
}

// DoneEvent creates the terminal done event.
func DoneEvent() StreamEvent {
	return StreamEvent{Type: EventDone}
}
