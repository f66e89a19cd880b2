package engines

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSplitParts(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"empty", "   ", nil},
		{"short", "Hello world.", []string{"Hello world."}},
		{"punctuation only", "...", nil},
		{"whitespace collapsed", "Hello\n\n  world", []string{"Hello world"}},
		{"short clauses merged", "One, two; three.", []string{"One, two; three."}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := splitParts(tt.text, MaxPartLen)
			if strings.Join(got, "|") != strings.Join(tt.want, "|") {
				t.Errorf("splitParts(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

func TestSplitPartsRespectsLimit(t *testing.T) {
	text := strings.Repeat("The mitochondria is the powerhouse of the cell. ", 10) +
		strings.Repeat("word ", 60) + strings.Repeat("x", 250)

	parts := splitParts(text, MaxPartLen)
	if len(parts) < 5 {
		t.Fatalf("expected several parts, got %d", len(parts))
	}
	for i, p := range parts {
		if n := utf8.RuneCountInString(p); n > MaxPartLen {
			t.Errorf("part %d has %d runes", i, n)
		}
		if p == "" {
			t.Errorf("part %d is empty", i)
		}
	}

	// Nothing but whitespace is lost.
	joined := strings.ReplaceAll(strings.Join(parts, ""), " ", "")
	want := strings.ReplaceAll(text, " ", "")
	if joined != want {
		t.Error("parts do not reassemble the original text")
	}
}

func TestSplitAtSpaces(t *testing.T) {
	got := splitAtSpaces("aaaa bbbb cccc", 9)
	want := []string{"aaaa bbbb", "cccc"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("splitAtSpaces = %q, want %q", got, want)
	}

	got = splitAtSpaces("abcdefghij", 4)
	want = []string{"abcd", "efgh", "ij"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("hard cut = %q, want %q", got, want)
	}
}
