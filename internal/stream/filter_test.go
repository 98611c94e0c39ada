package stream

import (
	"strings"
	"testing"
)

func TestMarkupFilterPassThrough(t *testing.T) {
	f := NewMarkupFilter()
	got := f.Process("plain prose with no markup")
	got += f.Flush()
	if got != "plain prose with no markup" {
		t.Errorf("got %q", got)
	}
}

func TestMarkupFilterRemovesTagContent(t *testing.T) {
	f := NewMarkupFilter()
	got := f.Process("before<function_calls>hidden</function_calls>after")
	got += f.Flush()
	if got != "beforeafter" {
		t.Errorf("got %q, want %q", got, "beforeafter")
	}
}

func TestMarkupFilterSplitTag(t *testing.T) {
	// A tag split across two chunks must behave exactly like the
	// concatenated input: tag-bounded content removed, rest visible.
	f := NewMarkupFilter()
	var out strings.Builder
	out.WriteString(f.Process("<functio"))
	out.WriteString(f.Process("n_calls>secret</function_calls>visible"))
	out.WriteString(f.Flush())
	if out.String() != "visible" {
		t.Errorf("split tag: got %q, want %q", out.String(), "visible")
	}

	whole := NewMarkupFilter()
	var ref strings.Builder
	ref.WriteString(whole.Process("<function_calls>secret</function_calls>visible"))
	ref.WriteString(whole.Flush())
	if out.String() != ref.String() {
		t.Errorf("split processing diverged: %q vs %q", out.String(), ref.String())
	}
}

func TestMarkupFilterSplitClosingTag(t *testing.T) {
	f := NewMarkupFilter()
	var out strings.Builder
	out.WriteString(f.Process("a<thinking>deep thought</thin"))
	out.WriteString(f.Process("king>b"))
	out.WriteString(f.Flush())
	if out.String() != "ab" {
		t.Errorf("got %q, want %q", out.String(), "ab")
	}
}

func TestMarkupFilterUnterminatedTagDiscardedAtFlush(t *testing.T) {
	f := NewMarkupFilter()
	visible := f.Process("hello <function_results>partial output that never closes")
	tail := f.Flush()
	if visible != "hello " {
		t.Errorf("visible = %q, want %q", visible, "hello ")
	}
	if tail != "" {
		t.Errorf("flush of unterminated tag = %q, want empty", tail)
	}
}

func TestMarkupFilterLongTagBodyStaysBounded(t *testing.T) {
	f := NewMarkupFilter()
	f.Process("<function_calls>")
	for i := 0; i < 50; i++ {
		f.Process(strings.Repeat("x", 100))
		if len(f.tail) > maxTailBuffer {
			t.Fatalf("tail grew to %d, bound is %d", len(f.tail), maxTailBuffer)
		}
	}
	got := f.Process("</function_calls>done")
	got += f.Flush()
	if got != "done" {
		t.Errorf("got %q, want %q", got, "done")
	}
}

func TestMarkupFilterHeldTailBound(t *testing.T) {
	f := NewMarkupFilter()
	f.Process(strings.Repeat("y", 1000) + "<functio")
	if f.activeTag != "" {
		t.Fatalf("no tag should be open, got %q", f.activeTag)
	}
	if len(f.tail) > maxTailBuffer {
		t.Errorf("held tail = %d chars, bound is %d", len(f.tail), maxTailBuffer)
	}
}

func TestMarkupFilterMultipleTags(t *testing.T) {
	f := NewMarkupFilter()
	in := "a<function_calls>x</function_calls>b<system_reminder>y</system_reminder>c"
	got := f.Process(in) + f.Flush()
	if got != "abc" {
		t.Errorf("got %q, want %q", got, "abc")
	}
}

func TestMarkupFilterAngleBracketProse(t *testing.T) {
	f := NewMarkupFilter()
	in := "compare a < b and use <em>html</em> freely"
	got := f.Process(in) + f.Flush()
	if got != in {
		t.Errorf("got %q, want %q", got, in)
	}
}

func TestSanitizeStripsMissedTags(t *testing.T) {
	got := sanitize("x<thinking>hidden</thinking>y<function_calls>z")
	if got != "xyz" {
		t.Errorf("got %q, want %q", got, "xyz")
	}
}
