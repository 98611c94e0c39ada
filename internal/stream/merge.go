package stream

import "strings"

// Merge reconciles an incoming chunk against already merged text. Upstream
// resends frames with overlapping or cumulative content, so the result must
// be monotonically non-decreasing: extensions are adopted, stale resends
// ignored, partial overlaps spliced. Concatenation is the last resort; a
// rare duplicate beats losing data.
func Merge(current, incoming string) string {
	if incoming == "" || current == incoming {
		return current
	}
	if current == "" {
		return incoming
	}

	// Cumulative frame covering everything sent so far.
	if strings.HasPrefix(incoming, current) {
		return incoming
	}
	// Stale resend of an earlier prefix.
	if strings.HasPrefix(current, incoming) {
		return current
	}

	if k := overlapLength(current, incoming); k > 0 {
		return current + incoming[k:]
	}

	if strings.Contains(current, incoming) {
		return current
	}
	if strings.Contains(incoming, current) {
		return incoming
	}

	return current + incoming
}

// ExtractIncrementalDelta returns the portion of next that has not yet been
// emitted given previous. When next is not an extension of previous and is
// not already contained in it, next is returned verbatim.
func ExtractIncrementalDelta(previous, next string) string {
	if next == "" || next == previous {
		return ""
	}
	if previous == "" {
		return next
	}
	if strings.HasPrefix(next, previous) {
		return next[len(previous):]
	}
	if strings.Contains(previous, next) {
		return ""
	}
	return next
}

// overlapLength returns the length of the longest suffix of current that
// is also a prefix of incoming.
func overlapLength(current, incoming string) int {
	max := len(incoming)
	if len(current) < max {
		max = len(current)
	}
	for k := max; k > 0; k-- {
		if current[len(current)-k:] == incoming[:k] {
			return k
		}
	}
	return 0
}
