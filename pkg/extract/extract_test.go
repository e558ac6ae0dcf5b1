package extract

import (
	"errors"
	"testing"

	"github.com/docpile-ai/docpile/pkg/types"
)

func TestExtractPlainText(t *testing.T) {
	res, err := Extract([]byte("hello world"), MIME_TEXT)
	if err != nil {
		t.Fatal(err)
	}
	if res.PageCount() != 1 || res.Pages[0] != "hello world" {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestExtractMarkdown(t *testing.T) {
	res, err := Extract([]byte("# Title\n\nbody"), MIME_MARKDOWN)
	if err != nil {
		t.Fatal(err)
	}
	if res.PageCount() != 1 {
		t.Fatalf("unexpected page count %d", res.PageCount())
	}
}

func TestExtractUnsupportedMime(t *testing.T) {
	if _, err := Extract([]byte("data"), "image/png"); err == nil {
		t.Fatal("expected error for unsupported mime type")
	}
	if Supported("image/png") {
		t.Fatal("image/png reported as supported")
	}
	if !Supported(MIME_PDF) || !Supported("text/csv") {
		t.Fatal("supported mime type rejected")
	}
}

func TestExtractEmptyDocument(t *testing.T) {
	_, err := Extract([]byte("   \n\t  "), MIME_TEXT)
	if !errors.Is(err, types.ErrExtractionEmpty) {
		t.Fatalf("expected ErrExtractionEmpty, got %v", err)
	}
}

func TestExtractAllPagesFailed(t *testing.T) {
	// A document whose only content is failure markers has no usable text.
	if hasUsableText([]string{FailedPageMarker(1), FailedPageMarker(2)}) {
		t.Fatal("failure markers counted as usable text")
	}
	if !hasUsableText([]string{FailedPageMarker(1), "actual content"}) {
		t.Fatal("mixed pages should count as usable")
	}
}

func TestExtractCorruptPDF(t *testing.T) {
	if _, err := Extract([]byte("not a pdf at all"), MIME_PDF); err == nil {
		t.Fatal("expected error for corrupt pdf")
	}
}
