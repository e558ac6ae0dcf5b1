package types

import (
	sq "github.com/Masterminds/squirrel"
)

type DocumentStatus int

const (
	DOCUMENT_STATUS_PROCESSING DocumentStatus = 1
	DOCUMENT_STATUS_COMPLETED  DocumentStatus = 2
	DOCUMENT_STATUS_FAILED     DocumentStatus = 3
)

func (s DocumentStatus) String() string {
	switch s {
	case DOCUMENT_STATUS_PROCESSING:
		return "processing"
	case DOCUMENT_STATUS_COMPLETED:
		return "completed"
	case DOCUMENT_STATUS_FAILED:
		return "failed"
	default:
		return "unknown"
	}
}

// Document is one uploaded file in a space. Chunks reference it by ID and stay
// searchable regardless of Status: a failed re-ingestion keeps the last good
// chunk generation in the index until a later run replaces it or the document
// is deleted.
type Document struct {
	ID         string         `json:"id" db:"id"`
	SpaceID    string         `json:"space_id" db:"space_id"`
	UserID     string         `json:"user_id" db:"user_id"`
	Name       string         `json:"name" db:"name"`
	Category   string         `json:"category" db:"category"`
	MimeType   string         `json:"mime_type" db:"mime_type"`
	StorageKey string         `json:"storage_key" db:"storage_key"`
	URL        string         `json:"url" db:"url"`
	Status     DocumentStatus `json:"status" db:"status"`
	ChunkCount int            `json:"chunk_count" db:"chunk_count"`
	RetryTimes int            `json:"retry_times" db:"retry_times"`
	CreatedAt  int64          `json:"created_at" db:"created_at"`
	UpdatedAt  int64          `json:"updated_at" db:"updated_at"`
}

type UpdateDocumentArgs struct {
	Name     string
	Category string
}

type GetDocumentOptions struct {
	ID         string
	SpaceID    string
	UserID     string
	Category   string
	Status     DocumentStatus
	RetryLimit int
}

func (opts GetDocumentOptions) Apply(query *sq.SelectBuilder) {
	if opts.ID != "" {
		*query = query.Where(sq.Eq{"id": opts.ID})
	}
	if opts.SpaceID != "" {
		*query = query.Where(sq.Eq{"space_id": opts.SpaceID})
	}
	if opts.UserID != "" {
		*query = query.Where(sq.Eq{"user_id": opts.UserID})
	}
	if opts.Category != "" {
		*query = query.Where(sq.Eq{"category": opts.Category})
	}
	if opts.Status != 0 {
		*query = query.Where(sq.Eq{"status": opts.Status})
	}
	if opts.RetryLimit > 0 {
		*query = query.Where(sq.Lt{"retry_times": opts.RetryLimit})
	}
}
