package extract

import (
	"fmt"
	"strings"

	"github.com/docpile-ai/docpile/pkg/types"
)

const (
	MIME_PDF      = "application/pdf"
	MIME_TEXT     = "text/plain"
	MIME_MARKDOWN = "text/markdown"
)

// Result is the linear text of a document with page boundaries preserved so
// the chunker can assign citation page numbers.
type Result struct {
	Pages []string
}

func (r Result) PageCount() int {
	return len(r.Pages)
}

// Supported reports whether Extract can handle the mime type, so uploads can
// be rejected before anything is stored.
func Supported(mimeType string) bool {
	switch mimeType {
	case MIME_PDF, MIME_TEXT, MIME_MARKDOWN, "":
		return true
	}
	return strings.HasPrefix(mimeType, "text/")
}

// Extract turns raw document bytes into page-delimited text. Per-page failures
// become placeholder markers; only a document with no usable text at all is an
// error.
func Extract(data []byte, mimeType string) (Result, error) {
	var (
		res Result
		err error
	)

	switch mimeType {
	case MIME_PDF:
		res, err = extractPDF(data)
	case MIME_TEXT, MIME_MARKDOWN, "":
		res = Result{Pages: []string{string(data)}}
	default:
		if strings.HasPrefix(mimeType, "text/") {
			res = Result{Pages: []string{string(data)}}
		} else {
			return Result{}, fmt.Errorf("unsupported mime type %q", mimeType)
		}
	}
	if err != nil {
		return Result{}, err
	}

	if !hasUsableText(res.Pages) {
		return Result{}, types.ErrExtractionEmpty
	}
	return res, nil
}

// FailedPageMarker is what a broken page turns into instead of aborting the
// whole document.
func FailedPageMarker(page int) string {
	return fmt.Sprintf("[Page %d - extraction failed]", page)
}

func isFailedPageMarker(s string) bool {
	s = strings.TrimSpace(s)
	return strings.HasPrefix(s, "[Page ") && strings.HasSuffix(s, "- extraction failed]")
}

func hasUsableText(pages []string) bool {
	for _, p := range pages {
		if strings.TrimSpace(p) == "" || isFailedPageMarker(p) {
			continue
		}
		return true
	}
	return false
}
