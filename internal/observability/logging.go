// Package observability provides conduit's structured logging, metrics,
// and tracing.
//
// Logging is built on Go's slog package with JSON output for production
// and text for development, automatic chat-key/session correlation from
// context, and redaction of well-known secret shapes before anything is
// written.
package observability

import (
	"context"
	"io"
	"log/slog"
	"os"
	"regexp"
	"strings"
)

// ContextKey is the type for context keys used in logging.
type ContextKey string

const (
	// ChatKeyKey is the context key for conversation keys.
	ChatKeyKey ContextKey = "chat_key"

	// SessionIDKey is the context key for session identifiers.
	SessionIDKey ContextKey = "session_id"
)

// LogConfig configures logging behavior.
type LogConfig struct {
	// Level sets the minimum log level: "debug", "info", "warn", "error".
	Level string

	// Format specifies "json" (production) or "text" (development).
	Format string

	// Output is the log writer (defaults to os.Stdout).
	Output io.Writer
}

// redactPatterns match secret shapes that must never reach log output.
var redactPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(api[_-]?key|apikey)[\s:=]+["']?[a-zA-Z0-9_\-]{16,}["']?`),
	regexp.MustCompile(`(?i)(bearer|token)[\s:]+[a-zA-Z0-9_\-.]{16,}`),
	regexp.MustCompile(`(?i)(secret|password|passwd|pwd)[\s:=]+["']?[^\s"']{8,}["']?`),
	regexp.MustCompile(`sk-[a-zA-Z0-9_-]{20,}`),
	regexp.MustCompile(`eyJ[a-zA-Z0-9_-]*\.eyJ[a-zA-Z0-9_-]*\.[a-zA-Z0-9_-]*`),
}

// NewLogger creates a structured logger. Invalid or empty level defaults
// to info; empty format defaults to json.
func NewLogger(config LogConfig) *slog.Logger {
	if config.Output == nil {
		config.Output = os.Stdout
	}

	opts := &slog.HandlerOptions{
		Level:       parseLevel(config.Level),
		ReplaceAttr: redactAttr,
	}

	var handler slog.Handler
	if strings.ToLower(config.Format) == "text" {
		handler = slog.NewTextHandler(config.Output, opts)
	} else {
		handler = slog.NewJSONHandler(config.Output, opts)
	}
	return slog.New(handler)
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// redactAttr scrubs secret shapes from string attribute values.
func redactAttr(_ []string, a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindString {
		a.Value = slog.StringValue(Redact(a.Value.String()))
	}
	return a
}

// Redact replaces secret shapes in s with a marker.
func Redact(s string) string {
	for _, re := range redactPatterns {
		s = re.ReplaceAllString(s, "[REDACTED]")
	}
	return s
}

// WithChatKey adds a conversation key to the context for log correlation.
func WithChatKey(ctx context.Context, chatKey string) context.Context {
	return context.WithValue(ctx, ChatKeyKey, chatKey)
}

// WithSessionID adds a session identifier to the context.
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, SessionIDKey, sessionID)
}

// LoggerFromContext returns logger extended with any correlation fields
// present in ctx.
func LoggerFromContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if chatKey, ok := ctx.Value(ChatKeyKey).(string); ok && chatKey != "" {
		logger = logger.With("chat_key", chatKey)
	}
	if sessionID, ok := ctx.Value(SessionIDKey).(string); ok && sessionID != "" {
		logger = logger.With("session_id", sessionID)
	}
	return logger
}
