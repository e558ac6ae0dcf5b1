package chunker

import (
	"strings"
	"testing"
)

func TestParagraphPolicy(t *testing.T) {
	pages := []string{
		"This paragraph is long enough to survive the minimum length filter applied by the policy.\n\nshort\n\nAnother paragraph that also clears the minimum length bar without any trouble at all.",
		"A third paragraph living on the second page, again comfortably past the minimum length.",
	}

	pieces := NewParagraphPolicy().Chunk(pages)
	if len(pieces) != 3 {
		t.Fatalf("expected 3 pieces, got %d", len(pieces))
	}

	if pieces[0].Page != 1 || pieces[1].Page != 1 {
		t.Fatalf("first page pieces carry wrong page numbers: %+v", pieces)
	}
	if pieces[2].Page != 2 {
		t.Fatalf("second page piece has page %d", pieces[2].Page)
	}

	for _, p := range pieces {
		if strings.Contains(p.Content, "short") {
			t.Fatal("fragment below the minimum length was kept")
		}
	}
}

func TestParagraphPolicyEmptyInput(t *testing.T) {
	if pieces := NewParagraphPolicy().Chunk([]string{"", "   \n\n  "}); len(pieces) != 0 {
		t.Fatalf("expected no pieces from blank pages, got %d", len(pieces))
	}
}

func TestWindowPolicyOverlap(t *testing.T) {
	text := strings.Repeat("abcdefghij", 30) // 300 runes
	policy := &WindowPolicy{Size: 100, Overlap: 20}

	pieces := policy.Chunk([]string{text})
	if len(pieces) < 3 {
		t.Fatalf("expected several windows, got %d", len(pieces))
	}

	// Step is size-overlap, so consecutive windows share 20 runes.
	first := []rune(pieces[0].Content)
	second := []rune(pieces[1].Content)
	tail := string(first[len(first)-20:])
	head := string(second[:20])
	if tail != head {
		t.Fatalf("windows do not overlap: %q vs %q", tail, head)
	}
}

func TestWindowPolicyPageEstimate(t *testing.T) {
	pages := []string{
		strings.Repeat("a", 120),
		strings.Repeat("b", 120),
	}
	policy := &WindowPolicy{Size: 100, Overlap: 0}

	pieces := policy.Chunk(pages)
	if len(pieces) == 0 {
		t.Fatal("no pieces")
	}
	if pieces[0].Page != 1 {
		t.Fatalf("first window page = %d", pieces[0].Page)
	}
	last := pieces[len(pieces)-1]
	if last.Page != 2 {
		t.Fatalf("last window page = %d, want 2", last.Page)
	}
}
