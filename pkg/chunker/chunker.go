package chunker

import (
	"regexp"
	"strings"
)

const (
	DefaultMinParagraphLength = 40
	DefaultWindowSize         = 1000
	DefaultWindowOverlap      = 200
)

// Piece is one chunk of document text plus its best-effort page number for
// citations. Page is 1-based and defaults to 1 when unknown.
type Piece struct {
	Content string
	Page    int
}

// Policy splits page-delimited text into embeddable pieces. Both policies are
// interchangeable at this interface.
type Policy interface {
	Chunk(pages []string) []Piece
}

var blankLines = regexp.MustCompile(`\n\s*\n`)

// ParagraphPolicy splits on blank-line boundaries and drops fragments shorter
// than MinLength so near-empty noise never gets embedded.
type ParagraphPolicy struct {
	MinLength int
}

func NewParagraphPolicy() *ParagraphPolicy {
	return &ParagraphPolicy{MinLength: DefaultMinParagraphLength}
}

func (p *ParagraphPolicy) Chunk(pages []string) []Piece {
	minLen := p.MinLength
	if minLen <= 0 {
		minLen = DefaultMinParagraphLength
	}

	var pieces []Piece
	for i, page := range pages {
		for _, paragraph := range blankLines.Split(page, -1) {
			paragraph = strings.TrimSpace(paragraph)
			if len([]rune(paragraph)) < minLen {
				continue
			}
			pieces = append(pieces, Piece{
				Content: paragraph,
				Page:    i + 1,
			})
		}
	}
	return pieces
}

// WindowPolicy slides a fixed character window with overlap over the joined
// text so context is not lost at hard boundaries. Page numbers are estimated
// from the window's start offset against the recorded page offsets.
type WindowPolicy struct {
	Size    int
	Overlap int
}

func NewWindowPolicy() *WindowPolicy {
	return &WindowPolicy{Size: DefaultWindowSize, Overlap: DefaultWindowOverlap}
}

func (p *WindowPolicy) Chunk(pages []string) []Piece {
	size := p.Size
	if size <= 0 {
		size = DefaultWindowSize
	}
	overlap := p.Overlap
	if overlap < 0 || overlap >= size {
		overlap = DefaultWindowOverlap
		if overlap >= size {
			overlap = size / 5
		}
	}

	// Page start offsets in the joined rune stream.
	var (
		joined      []rune
		pageOffsets []int
	)
	for _, page := range pages {
		pageOffsets = append(pageOffsets, len(joined))
		joined = append(joined, []rune(page)...)
		joined = append(joined, '\n')
	}

	var pieces []Piece
	step := size - overlap
	for start := 0; start < len(joined); start += step {
		end := start + size
		if end > len(joined) {
			end = len(joined)
		}

		content := strings.TrimSpace(string(joined[start:end]))
		if content != "" {
			pieces = append(pieces, Piece{
				Content: content,
				Page:    pageOf(pageOffsets, start),
			})
		}

		if end == len(joined) {
			break
		}
	}
	return pieces
}

func pageOf(pageOffsets []int, offset int) int {
	page := 1
	for i, v := range pageOffsets {
		if offset >= v {
			page = i + 1
		}
	}
	return page
}
