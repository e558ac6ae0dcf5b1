package sqlstore

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/pgvector/pgvector-go"

	"github.com/docpile-ai/docpile/pkg/register"
	"github.com/docpile-ai/docpile/pkg/types"
)

func init() {
	register.RegisterFunc[*Provider](RegisterKey{}, func(provider *Provider) {
		provider.stores.ChunkStore = NewChunkStore(provider)
	})
}

type ChunkStore struct {
	CommonFields
}

func NewChunkStore(provider SqlProviderAchieve) *ChunkStore {
	repo := &ChunkStore{}
	repo.SetProvider(provider)
	repo.SetTable(types.TABLE_CHUNK)
	repo.SetAllColumns("id", "document_id", "space_id", "category", "content", "embedding", "file_name", "page", "url", "created_at")
	return repo
}

// BatchCreate upserts chunk rows keyed by id so a retried ingestion never
// duplicates the index.
func (s *ChunkStore) BatchCreate(ctx context.Context, datas []*types.Chunk) error {
	if len(datas) == 0 {
		return nil
	}

	query := sq.Insert(s.GetTable()).Columns(s.GetAllColumns()...)

	for _, data := range datas {
		if data.CreatedAt == 0 {
			data.CreatedAt = time.Now().Unix()
		}
		query = query.Values(data.ID, data.DocumentID, data.SpaceID, data.Category, data.Content, data.Embedding, data.FileName, data.Page, data.URL, data.CreatedAt)
	}

	query = query.Suffix(`ON CONFLICT (id) DO UPDATE SET
		content = EXCLUDED.content,
		embedding = EXCLUDED.embedding,
		category = EXCLUDED.category,
		file_name = EXCLUDED.file_name,
		page = EXCLUDED.page,
		url = EXCLUDED.url`)

	queryString, args, err := query.ToSql()
	if err != nil {
		return ErrorSqlBuild(err)
	}

	if _, err = s.GetMaster(ctx).Exec(queryString, args...); err != nil {
		return fmt.Errorf("%s, %w", err.Error(), types.ErrIndexWriteFailed)
	}
	return nil
}

// UpdateMetaByDocument keeps the denormalized citation fields in sync when a
// document is renamed or recategorized. Empty values are left untouched.
func (s *ChunkStore) UpdateMetaByDocument(ctx context.Context, spaceID, documentID, fileName, category string) error {
	if fileName == "" && category == "" {
		return nil
	}

	query := sq.Update(s.GetTable()).Where(sq.Eq{"space_id": spaceID, "document_id": documentID})
	if fileName != "" {
		query = query.Set("file_name", fileName)
	}
	if category != "" {
		query = query.Set("category", category)
	}

	queryString, args, err := query.ToSql()
	if err != nil {
		return ErrorSqlBuild(err)
	}

	_, err = s.GetMaster(ctx).Exec(queryString, args...)
	return err
}

// Query ranks chunks by cosine similarity against the given embedding.
// SpaceID is mandatory so a query can never read across tenants.
//
// pgvector supported distance functions are:
// <-> - L2 distance
// <#> - (negative) inner product
// <=> - cosine distance
func (s *ChunkStore) Query(ctx context.Context, opts types.GetChunksOptions, vector pgvector.Vector, threshold float32, limit uint64) ([]types.MatchResult, error) {
	if opts.SpaceID == "" {
		return nil, fmt.Errorf("chunk query requires a space id")
	}

	cosColumn, vectorArgs, _ := sq.Expr("1 - (embedding <=> ?) as cos", vector).ToSql()
	query := sq.Select("id", "document_id", "space_id", "category", "content", "file_name", "page", "url", "created_at", cosColumn).
		From(s.GetTable()).
		Where(sq.Expr("1 - (embedding <=> ?) >= ?", vector, threshold)).
		OrderBy("cos DESC", "created_at ASC", "id ASC").
		Limit(limit)
	opts.Apply(&query)

	queryString, args, err := query.ToSql()
	if err != nil {
		return nil, ErrorSqlBuild(err)
	}

	args = append(vectorArgs, args...)

	var res []types.MatchResult
	if err = s.GetReplica(ctx).Select(&res, queryString, args...); err != nil {
		return nil, err
	}
	return res, nil
}

func (s *ChunkStore) List(ctx context.Context, opts types.GetChunksOptions, page, pageSize uint64) ([]types.Chunk, error) {
	query := sq.Select(s.GetAllColumns()...).From(s.GetTable()).OrderBy("created_at ASC", "id ASC")
	if page != types.NO_PAGINATION && pageSize != types.NO_PAGINATION {
		query = query.Limit(pageSize).Offset((page - 1) * pageSize)
	}
	opts.Apply(&query)

	queryString, args, err := query.ToSql()
	if err != nil {
		return nil, ErrorSqlBuild(err)
	}

	var res []types.Chunk
	if err = s.GetReplica(ctx).Select(&res, queryString, args...); err != nil {
		return nil, err
	}
	return res, nil
}

func (s *ChunkStore) Total(ctx context.Context, opts types.GetChunksOptions) (uint64, error) {
	query := sq.Select("COUNT(*)").From(s.GetTable())
	opts.Apply(&query)

	queryString, args, err := query.ToSql()
	if err != nil {
		return 0, ErrorSqlBuild(err)
	}

	var total uint64
	if err = s.GetReplica(ctx).Get(&total, queryString, args...); err != nil {
		return 0, err
	}
	return total, nil
}

func (s *ChunkStore) DeleteByDocument(ctx context.Context, spaceID, documentID string) error {
	query := sq.Delete(s.GetTable()).Where(sq.Eq{"space_id": spaceID, "document_id": documentID})

	queryString, args, err := query.ToSql()
	if err != nil {
		return ErrorSqlBuild(err)
	}

	_, err = s.GetMaster(ctx).Exec(queryString, args...)
	return err
}

func (s *ChunkStore) DeleteAll(ctx context.Context, spaceID string) error {
	query := sq.Delete(s.GetTable()).Where(sq.Eq{"space_id": spaceID})

	queryString, args, err := query.ToSql()
	if err != nil {
		return ErrorSqlBuild(err)
	}

	_, err = s.GetMaster(ctx).Exec(queryString, args...)
	return err
}
