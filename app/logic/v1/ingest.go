package v1

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/pgvector/pgvector-go"
	"github.com/samber/lo"

	"github.com/docpile-ai/docpile/app/core"
	"github.com/docpile-ai/docpile/app/store"
	"github.com/docpile-ai/docpile/pkg/ai"
	"github.com/docpile-ai/docpile/pkg/chunker"
	"github.com/docpile-ai/docpile/pkg/extract"
	"github.com/docpile-ai/docpile/pkg/types"
	"github.com/docpile-ai/docpile/pkg/utils"
)

// Ingester drives one document through extract, chunk, embed and index. The
// narrow dependency set keeps it usable from the upload path, the retry worker
// and tests alike.
type Ingester struct {
	docs        store.DocumentStore
	chunks      store.ChunkStore
	embedder    ai.Embedder
	policy      chunker.Policy
	semaphore   core.Semaphore
	transaction func(context.Context, func(context.Context) error) error
	metrics     *core.Metrics
}

func NewIngester(core *core.Core) *Ingester {
	return &Ingester{
		docs:        core.Store().DocumentStore(),
		chunks:      core.Store().ChunkStore(),
		embedder:    core.Srv().AI(),
		policy:      core.ChunkPolicy(),
		semaphore:   core.EmbeddingSemaphore(),
		transaction: core.Store().Transaction,
		metrics:     core.Metrics(),
	}
}

// Ingest runs the pipeline and settles the document in a terminal state. Any
// failure flips the document to failed and leaves previously indexed chunks
// untouched.
func (s *Ingester) Ingest(ctx context.Context, doc *types.Document, raw []byte) error {
	if err := s.ingest(ctx, doc, raw); err != nil {
		s.markFailed(doc)
		if s.metrics != nil {
			s.metrics.IngestResultInc("failed")
		}
		return err
	}
	if s.metrics != nil {
		s.metrics.IngestResultInc("completed")
	}
	return nil
}

func (s *Ingester) ingest(ctx context.Context, doc *types.Document, raw []byte) error {
	res, err := extract.Extract(raw, doc.MimeType)
	if err != nil {
		return fmt.Errorf("failed to extract document %s, %w", doc.ID, err)
	}

	pieces := s.policy.Chunk(res.Pages)
	if len(pieces) == 0 {
		return fmt.Errorf("document %s produced no chunks, %w", doc.ID, types.ErrExtractionEmpty)
	}

	embeddings, err := s.embed(ctx, doc, pieces)
	if err != nil {
		return err
	}

	now := time.Now().Unix()
	chunks := make([]*types.Chunk, 0, len(pieces))
	for i, piece := range pieces {
		chunks = append(chunks, &types.Chunk{
			// Deterministic per document and position so a re-run upserts
			// instead of duplicating.
			ID:         utils.MD5(fmt.Sprintf("%s:%d", doc.ID, i)),
			DocumentID: doc.ID,
			SpaceID:    doc.SpaceID,
			Category:   doc.Category,
			Content:    piece.Content,
			Embedding:  embeddings[i],
			FileName:   doc.Name,
			Page:       piece.Page,
			URL:        doc.URL,
			CreatedAt:  now,
		})
	}

	// Replace the document's chunks and flip its state in one transaction so
	// a searchable document always matches its index.
	return s.transaction(ctx, func(ctx context.Context) error {
		if err := s.chunks.DeleteByDocument(ctx, doc.SpaceID, doc.ID); err != nil {
			return fmt.Errorf("failed to clear stale chunks of %s, %w", doc.ID, err)
		}
		if err := s.chunks.BatchCreate(ctx, chunks); err != nil {
			return err
		}
		return s.docs.UpdateStatus(ctx, doc.SpaceID, doc.ID, types.DOCUMENT_STATUS_COMPLETED, len(chunks))
	})
}

func (s *Ingester) embed(ctx context.Context, doc *types.Document, pieces []chunker.Piece) ([]pgvector.Vector, error) {
	if err := s.semaphore.Acquire(ctx); err != nil {
		return nil, fmt.Errorf("failed to acquire embedding permit, %w", err)
	}
	defer s.semaphore.Release()

	if s.metrics != nil {
		timer := s.metrics.EmbeddingTimer("document")
		defer timer.ObserveDuration()
	}

	contents := lo.Map(pieces, func(p chunker.Piece, _ int) string {
		return p.Content
	})

	result, err := s.embedder.EmbeddingForDocument(ctx, doc.Name, contents)
	if err != nil {
		return nil, fmt.Errorf("%s, %w", err.Error(), types.ErrEmbeddingFailed)
	}
	if len(result.Data) != len(pieces) {
		return nil, fmt.Errorf("embedding count %d does not match chunk count %d, %w", len(result.Data), len(pieces), types.ErrEmbeddingFailed)
	}

	vectors := make([]pgvector.Vector, 0, len(result.Data))
	for _, v := range result.Data {
		vectors = append(vectors, pgvector.NewVector(v))
	}
	return vectors, nil
}

func (s *Ingester) markFailed(doc *types.Document) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()

	if err := s.docs.UpdateStatus(ctx, doc.SpaceID, doc.ID, types.DOCUMENT_STATUS_FAILED, -1); err != nil {
		slog.Error("failed to mark document failed",
			slog.String("space_id", doc.SpaceID),
			slog.String("document_id", doc.ID),
			slog.String("error", err.Error()))
	}
}
