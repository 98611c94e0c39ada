package stream

import "testing"

func TestMerge(t *testing.T) {
	tests := []struct {
		name     string
		current  string
		incoming string
		want     string
	}{
		{"empty incoming", "abc", "", "abc"},
		{"empty current", "", "abc", "abc"},
		{"identical", "abc", "abc", "abc"},
		{"cumulative extension", "hello", "hello world", "hello world"},
		{"stale resend", "hello world", "hello", "hello world"},
		{"suffix prefix overlap", "the quick brown", "brown fox", "the quick brown fox"},
		{"contained in current", "abcdef", "cde", "abcdef"},
		{"current contained in incoming", "cde", "xcdey", "xcdey"},
		{"disjoint concatenates", "abc", "xyz", "abcxyz"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Merge(tt.current, tt.incoming); got != tt.want {
				t.Errorf("Merge(%q, %q) = %q, want %q", tt.current, tt.incoming, got, tt.want)
			}
		})
	}
}

func TestMergeIdempotentUnderRepeatedChunk(t *testing.T) {
	cases := [][2]string{
		{"hello", "hello world"},
		{"the quick brown", "brown fox"},
		{"abc", "xyz"},
		{"abcdef", "cde"},
		{"", "first"},
	}
	for _, c := range cases {
		once := Merge(c[0], c[1])
		twice := Merge(once, c[1])
		if once != twice {
			t.Errorf("Merge(Merge(%q, %q), %q) = %q, want %q", c[0], c[1], c[1], twice, once)
		}
	}
}

func TestExtractIncrementalDelta(t *testing.T) {
	tests := []struct {
		name     string
		previous string
		next     string
		want     string
	}{
		{"extension", "hello", "hello world", " world"},
		{"empty next", "hello", "", ""},
		{"equal", "hello", "hello", ""},
		{"already contained", "hello world", "world", ""},
		{"unrelated passes verbatim", "hello", "goodbye", "goodbye"},
		{"from empty", "", "first", "first"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractIncrementalDelta(tt.previous, tt.next); got != tt.want {
				t.Errorf("ExtractIncrementalDelta(%q, %q) = %q, want %q", tt.previous, tt.next, got, tt.want)
			}
		})
	}
}

func TestDeltaNeverReemitsSuffix(t *testing.T) {
	// For any previous/incoming pair, the delta of the merged text against
	// previous must not start with text previous already ends with.
	cases := [][2]string{
		{"streaming is", " is fun"},
		{"abcabc", "abc"},
		{"one two three", "three four"},
	}
	for _, c := range cases {
		merged := Merge(c[0], c[1])
		delta := ExtractIncrementalDelta(c[0], merged)
		if c[0]+delta != merged {
			t.Errorf("previous+delta = %q, merged = %q", c[0]+delta, merged)
		}
	}
}
