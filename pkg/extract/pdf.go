package extract

import (
	"bytes"
	"fmt"
	"log/slog"

	"github.com/ledongthuc/pdf"
)

func extractPDF(data []byte) (Result, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return Result{}, fmt.Errorf("failed to open pdf, %w", err)
	}

	total := reader.NumPage()
	pages := make([]string, 0, total)
	for i := 1; i <= total; i++ {
		pages = append(pages, extractPDFPage(reader, i))
	}

	return Result{Pages: pages}, nil
}

// extractPDFPage never fails: image-only or corrupted pages yield a marker so
// downstream page numbering stays aligned with the original document.
func extractPDFPage(reader *pdf.Reader, pageNum int) (text string) {
	defer func() {
		if r := recover(); r != nil {
			slog.Warn("pdf page extraction panicked", slog.Int("page", pageNum), slog.Any("recover", r))
			text = FailedPageMarker(pageNum)
		}
	}()

	page := reader.Page(pageNum)
	if page.V.IsNull() {
		return FailedPageMarker(pageNum)
	}

	content, err := page.GetPlainText(nil)
	if err != nil {
		slog.Warn("pdf page extraction failed", slog.Int("page", pageNum), slog.String("error", err.Error()))
		return FailedPageMarker(pageNum)
	}
	return content
}
