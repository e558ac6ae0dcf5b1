package rag

import (
	"strings"
	"testing"

	"github.com/docpile-ai/docpile/pkg/types"
)

func match(id, fileName, content string, page int) types.MatchResult {
	return types.MatchResult{
		ID:       id,
		FileName: fileName,
		Category: "HR",
		Content:  content,
		Page:     page,
		Cos:      0.9,
	}
}

func TestAssembleEmptyShortCircuits(t *testing.T) {
	_, ok := NewAssembler(0, "").Assemble(nil)
	if ok {
		t.Fatal("empty match set must not produce a context")
	}
}

func TestAssembleCitationParity(t *testing.T) {
	matches := []types.MatchResult{
		match("c1", "handbook.pdf", "Employees accrue fifteen days of annual leave.", 3),
		match("c2", "policy.pdf", "Leave requests need manager approval.", 7),
	}

	res, ok := NewAssembler(0, "").Assemble(matches)
	if !ok {
		t.Fatal("expected a context")
	}

	if len(res.Citations) != len(res.Used) {
		t.Fatalf("citations (%d) and used matches (%d) diverge", len(res.Citations), len(res.Used))
	}
	if len(res.Citations) != 2 {
		t.Fatalf("expected 2 citations, got %d", len(res.Citations))
	}

	// Every citation points at material actually rendered into the text.
	for i, c := range res.Citations {
		if c.FileName != matches[i].FileName || c.Page != matches[i].Page {
			t.Fatalf("citation %d does not match its source: %+v", i, c)
		}
		if !strings.Contains(res.Text, matches[i].Content) {
			t.Fatalf("cited content missing from text: %s", matches[i].Content)
		}
		if !strings.Contains(res.Text, "[source: "+c.FileName) {
			t.Fatalf("source header missing for %s", c.FileName)
		}
	}
}

func TestAssembleBudgetCutsTextAndCitationsTogether(t *testing.T) {
	long := strings.Repeat("budget filler content ", 50)
	matches := []types.MatchResult{
		match("c1", "first.pdf", long, 1),
		match("c2", "second.pdf", long, 2),
	}

	// A one token budget still keeps the best match but nothing after it.
	res, ok := NewAssembler(1, "").Assemble(matches)
	if !ok {
		t.Fatal("expected a context")
	}

	if len(res.Used) != 1 || len(res.Citations) != 1 {
		t.Fatalf("budget cut should leave exactly one match: used=%d citations=%d", len(res.Used), len(res.Citations))
	}
	if res.Citations[0].FileName != "first.pdf" {
		t.Fatalf("kept the wrong match: %+v", res.Citations[0])
	}
	if strings.Contains(res.Text, "second.pdf") {
		t.Fatal("cut match still present in text")
	}
}
