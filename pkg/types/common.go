package types

import (
	"context"
	"io"
)

const NO_PAGINATION = 0

const (
	LANGUAGE_EN_KEY = "en"
	LANGUAGE_VI_KEY = "vi"
	LANGUAGE_CN_KEY = "zh-CN"
)

// FileStorage persists the original uploaded document. Upload failures never
// block indexing, the document URL just stays empty. Download feeds retries
// that no longer have the upload bytes in hand.
type FileStorage interface {
	Upload(ctx context.Context, key string, body io.Reader) (publicURL string, err error)
	Download(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}
