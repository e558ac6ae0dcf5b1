package types

import (
	sq "github.com/Masterminds/squirrel"
	"github.com/pgvector/pgvector-go"
)

// CATEGORY_ALL is the wildcard category. Queries carrying it (or no category
// at all) search the whole space.
const CATEGORY_ALL = "All"

// Chunk is one embeddable slice of a document together with everything a
// citation needs. Rows live and die with their document.
type Chunk struct {
	ID         string          `json:"id" db:"id"`
	DocumentID string          `json:"document_id" db:"document_id"`
	SpaceID    string          `json:"space_id" db:"space_id"`
	Category   string          `json:"category" db:"category"`
	Content    string          `json:"content" db:"content"`
	Embedding  pgvector.Vector `json:"-" db:"embedding"`
	FileName   string          `json:"file_name" db:"file_name"`
	Page       int             `json:"page" db:"page"`
	URL        string          `json:"url" db:"url"`
	CreatedAt  int64           `json:"created_at" db:"created_at"`
}

// MatchResult is a chunk that survived the similarity threshold, ranked by
// cosine similarity.
type MatchResult struct {
	ID         string  `json:"id" db:"id"`
	DocumentID string  `json:"document_id" db:"document_id"`
	SpaceID    string  `json:"space_id" db:"space_id"`
	Category   string  `json:"category" db:"category"`
	Content    string  `json:"content" db:"content"`
	FileName   string  `json:"file_name" db:"file_name"`
	Page       int     `json:"page" db:"page"`
	URL        string  `json:"url" db:"url"`
	CreatedAt  int64   `json:"created_at" db:"created_at"`
	Cos        float32 `json:"cos" db:"cos"`
}

type GetChunksOptions struct {
	SpaceID    string
	DocumentID string
	Category   string
}

func (opts GetChunksOptions) Apply(query *sq.SelectBuilder) {
	if opts.SpaceID != "" {
		*query = query.Where(sq.Eq{"space_id": opts.SpaceID})
	}
	if opts.DocumentID != "" {
		*query = query.Where(sq.Eq{"document_id": opts.DocumentID})
	}
	if opts.Category != "" && opts.Category != CATEGORY_ALL {
		*query = query.Where(sq.Eq{"category": opts.Category})
	}
}
