package orchestrator

import (
	"errors"
	"fmt"
	"strings"
)

// ConfigurationError indicates a request that cannot proceed because of
// missing or invalid caller-supplied configuration, such as an absent model.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "configuration error: " + e.Reason
}

// ValidationError indicates a request whose required inputs could not be
// satisfied, such as required skills that are not installed.
type ValidationError struct {
	Reason        string
	MissingSkills []string
}

func (e *ValidationError) Error() string {
	if len(e.MissingSkills) > 0 {
		return fmt.Sprintf("%s: %s", e.Reason, strings.Join(e.MissingSkills, ", "))
	}
	return e.Reason
}

// ErrStreamTimeout is returned when the upstream produces no terminal idle
// event within the streaming deadline. Text already delivered to the caller
// before the timeout remains delivered.
var ErrStreamTimeout = errors.New("timed out waiting for agent response")
