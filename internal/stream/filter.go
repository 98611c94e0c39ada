// Package stream cleans the raw text stream coming back from the upstream
// agent SDK: it strips internal control markup that must never reach the
// client and reconciles overlapping or cumulative text chunks.
package stream

import "strings"

// maxTailBuffer bounds how much trailing text the filter may hold between
// chunks while waiting for the rest of a possibly split tag.
const maxTailBuffer = 256

// controlTags are the internal tag names the upstream SDK may emit inline
// in assistant text. Tag-bounded content is control traffic, not prose.
var controlTags = []string{
	"function_calls",
	"function_results",
	"system_reminder",
	"thinking",
}

// MarkupFilter is a streaming state machine that removes control markup
// from text, tolerant of tags split across chunk boundaries. It is scoped
// to a single streamed response and is not safe for concurrent use.
type MarkupFilter struct {
	// activeTag is the tag currently being skipped, or "" when outside
	// any tag.
	activeTag string

	// tail holds trailing text that could not be classified yet, capped
	// at maxTailBuffer.
	tail string
}

// NewMarkupFilter creates a filter for one streamed response.
func NewMarkupFilter() *MarkupFilter {
	return &MarkupFilter{}
}

// Process consumes one raw chunk and returns the visible text it released.
// Text inside control tags is dropped; text that might be the start of a
// split tag is held until the next call or Flush.
func (f *MarkupFilter) Process(chunk string) string {
	buf := f.tail + chunk
	f.tail = ""

	var out strings.Builder
	for {
		if f.activeTag != "" {
			closing := "</" + f.activeTag + ">"
			idx := strings.Index(buf, closing)
			if idx < 0 {
				// Closing tag not seen yet. Hold just enough to
				// recognize it when the next chunk arrives.
				if len(buf) > maxTailBuffer {
					buf = buf[len(buf)-maxTailBuffer:]
				}
				f.tail = buf
				return sanitize(out.String())
			}
			buf = buf[idx+len(closing):]
			f.activeTag = ""
			continue
		}

		idx, name := findOpeningTag(buf)
		if idx < 0 {
			hold := possibleTagSuffix(buf)
			out.WriteString(buf[:len(buf)-hold])
			f.tail = buf[len(buf)-hold:]
			return sanitize(out.String())
		}

		out.WriteString(buf[:idx])
		f.activeTag = name
		buf = buf[idx+len(name)+2:]
	}
}

// Flush ends the stream. An unterminated tag means the held tail is
// control noise and is discarded entirely; otherwise the tail is sanitized
// and released.
func (f *MarkupFilter) Flush() string {
	tail := f.tail
	f.tail = ""
	if f.activeTag != "" {
		f.activeTag = ""
		return ""
	}
	return sanitize(tail)
}

// findOpeningTag returns the earliest index of a known opening tag in s
// and the tag's name, or (-1, "").
func findOpeningTag(s string) (int, string) {
	best := -1
	bestName := ""
	for _, name := range controlTags {
		idx := strings.Index(s, "<"+name+">")
		if idx >= 0 && (best < 0 || idx < best) {
			best = idx
			bestName = name
		}
	}
	return best, bestName
}

// possibleTagSuffix returns the length of the trailing slice of s that
// could be the beginning of a known opening or closing tag.
func possibleTagSuffix(s string) int {
	start := 0
	if max := longestTagToken(); len(s) > max {
		start = len(s) - max
	}
	for i := start; i < len(s); i++ {
		if s[i] != '<' {
			continue
		}
		frag := s[i:]
		for _, name := range controlTags {
			if strings.HasPrefix("<"+name+">", frag) || strings.HasPrefix("</"+name+">", frag) {
				return len(s) - i
			}
		}
	}
	return 0
}

// longestTagToken returns the length of the longest closing tag token.
func longestTagToken() int {
	max := 0
	for _, name := range controlTags {
		if n := len(name) + 3; n > max {
			max = n
		}
	}
	return max
}

// sanitize strips any fully formed tag pairs or stray tag tokens the main
// loop did not consume.
func sanitize(s string) string {
	if !strings.Contains(s, "<") {
		return s
	}
	for _, name := range controlTags {
		open := "<" + name + ">"
		closing := "</" + name + ">"
		for {
			start := strings.Index(s, open)
			if start < 0 {
				break
			}
			end := strings.Index(s[start:], closing)
			if end < 0 {
				break
			}
			s = s[:start] + s[start+end+len(closing):]
		}
		s = strings.ReplaceAll(s, open, "")
		s = strings.ReplaceAll(s, closing, "")
	}
	return s
}
