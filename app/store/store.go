package store

import (
	"context"

	"github.com/pgvector/pgvector-go"

	"github.com/docpile-ai/docpile/pkg/sqlstore"
	"github.com/docpile-ai/docpile/pkg/types"
)

// DocumentStore manages the document table, one row per uploaded file.
type DocumentStore interface {
	sqlstore.SqlCommons
	Create(ctx context.Context, data types.Document) error
	GetDocument(ctx context.Context, spaceID, id string) (*types.Document, error)
	Update(ctx context.Context, spaceID, id string, data types.UpdateDocumentArgs) error
	UpdateStatus(ctx context.Context, spaceID, id string, status types.DocumentStatus, chunkCount int) error
	SetRetryTimes(ctx context.Context, spaceID, id string, retryTimes int) error
	Delete(ctx context.Context, spaceID, id string) error
	ListDocuments(ctx context.Context, opts types.GetDocumentOptions, page, pageSize uint64) ([]types.Document, error)
	Total(ctx context.Context, opts types.GetDocumentOptions) (uint64, error)
	ListFailedDocuments(ctx context.Context, retryTimes int, page, pageSize uint64) ([]types.Document, error)
}

// ChunkStore is the vector index. Rows carry the embedding next to the chunk
// text so a similarity query returns everything a citation needs in one go.
type ChunkStore interface {
	sqlstore.SqlCommons
	BatchCreate(ctx context.Context, datas []*types.Chunk) error
	UpdateMetaByDocument(ctx context.Context, spaceID, documentID, fileName, category string) error
	Query(ctx context.Context, opts types.GetChunksOptions, vector pgvector.Vector, threshold float32, limit uint64) ([]types.MatchResult, error)
	List(ctx context.Context, opts types.GetChunksOptions, page, pageSize uint64) ([]types.Chunk, error)
	Total(ctx context.Context, opts types.GetChunksOptions) (uint64, error)
	DeleteByDocument(ctx context.Context, spaceID, documentID string) error
	DeleteAll(ctx context.Context, spaceID string) error
}

type AccessTokenStore interface {
	sqlstore.SqlCommons
	Create(ctx context.Context, data types.AccessToken) error
	GetAccessToken(ctx context.Context, token string) (*types.AccessToken, error)
	Delete(ctx context.Context, userID string, id int64) error
	ClearUserTokens(ctx context.Context, userID string) error
}
