package rag

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/docpile-ai/docpile/pkg/ai"
	"github.com/docpile-ai/docpile/pkg/types"
)

const DefaultTokenBudget = 6000

// Context is the material handed to the answer generator plus the parallel
// citation list. Citations always describe exactly the matches rendered into
// Text, nothing more and nothing less.
type Context struct {
	Text      string
	Citations []types.Citation
	Used      []types.MatchResult
}

type Assembler struct {
	// TokenBudget bounds the rendered context. Matches past the budget are cut
	// from both the text and the citations.
	TokenBudget int
	Model       string
}

func NewAssembler(tokenBudget int, model string) *Assembler {
	if tokenBudget <= 0 {
		tokenBudget = DefaultTokenBudget
	}
	return &Assembler{TokenBudget: tokenBudget, Model: model}
}

// Assemble renders ranked matches into a single prompt context. ok is false
// when there is nothing to assemble, in which case the caller must short-
// circuit to the canned "not found" answer without invoking the generator.
func (a *Assembler) Assemble(matches []types.MatchResult) (Context, bool) {
	if len(matches) == 0 {
		return Context{}, false
	}

	var (
		sections   []string
		usedTokens int
		result     Context
	)

	for _, m := range matches {
		section := renderSection(m)

		tokens, err := ai.NumTokens(section, a.Model)
		if err != nil {
			// Fall back to a rough chars/4 estimate rather than dropping the match.
			slog.Warn("token counting failed, estimating", slog.String("error", err.Error()))
			tokens = len(section) / 4
		}
		if usedTokens+tokens > a.TokenBudget && len(sections) > 0 {
			break
		}
		usedTokens += tokens

		sections = append(sections, section)
		result.Used = append(result.Used, m)
		result.Citations = append(result.Citations, types.Citation{
			FileName: m.FileName,
			Page:     m.Page,
			URL:      m.URL,
		})
	}

	result.Text = strings.Join(sections, "\n\n")
	return result, true
}

func renderSection(m types.MatchResult) string {
	header := fmt.Sprintf("[source: %s | category: %s | page: %d]", m.FileName, m.Category, pageOrDefault(m.Page))
	return header + "\n" + strings.TrimSpace(m.Content)
}

func pageOrDefault(page int) int {
	if page <= 0 {
		return 1
	}
	return page
}
