// Package compaction decides when a long-lived session's context has grown
// enough that it should be compacted (replaced) on its next ensure, based
// on the usage reports the upstream SDK emits after each turn.
package compaction

// Thresholds configure the compaction decision.
type Thresholds struct {
	// ContextWindow is the model's context window in tokens.
	ContextWindow int `yaml:"context_window"`

	// TriggerRatio is the fraction of the context window at which a
	// session becomes a compaction candidate.
	TriggerRatio float64 `yaml:"trigger_ratio"`

	// MinTurns is the minimum number of completed turns before
	// compaction is considered, so short sessions are never recycled.
	MinTurns int `yaml:"min_turns"`
}

// DefaultThresholds returns the standard compaction thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{
		ContextWindow: 200_000,
		TriggerRatio:  0.8,
		MinTurns:      2,
	}
}

// Usage accumulates token accounting for one session.
type Usage struct {
	TotalTokens int
	Turns       int
}

// Observe folds one usage report into the running accumulator. Upstream
// totals are cumulative per turn, so the latest total wins.
func (u *Usage) Observe(totalTokens int) {
	if totalTokens > 0 {
		u.TotalTokens = totalTokens
	}
	u.Turns++
}

// ShouldCompact reports whether a session has crossed the compaction
// threshold.
func ShouldCompact(u Usage, t Thresholds) bool {
	if t.ContextWindow <= 0 || t.TriggerRatio <= 0 {
		return false
	}
	if u.Turns < t.MinTurns {
		return false
	}
	limit := float64(t.ContextWindow) * t.TriggerRatio
	return float64(u.TotalTokens) >= limit
}
