package v1

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/docpile-ai/docpile/app/core"
	"github.com/docpile-ai/docpile/pkg/ai"
	"github.com/docpile-ai/docpile/pkg/chunker"
	"github.com/docpile-ai/docpile/pkg/extract"
	"github.com/docpile-ai/docpile/pkg/retrieval"
	"github.com/docpile-ai/docpile/pkg/types"
)

type fakeDocStore struct {
	mu   sync.Mutex
	docs map[string]*types.Document
}

func newFakeDocStore(docs ...*types.Document) *fakeDocStore {
	s := &fakeDocStore{docs: make(map[string]*types.Document)}
	for _, d := range docs {
		s.docs[d.ID] = d
	}
	return s
}

func (s *fakeDocStore) GetTable(key ...interface{}) string { return "fake" }

func (s *fakeDocStore) Create(ctx context.Context, data types.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[data.ID] = &data
	return nil
}

func (s *fakeDocStore) GetDocument(ctx context.Context, spaceID, id string) (*types.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.docs[id]
	if !ok || d.SpaceID != spaceID {
		return nil, nil
	}
	cp := *d
	return &cp, nil
}

func (s *fakeDocStore) Update(ctx context.Context, spaceID, id string, data types.UpdateDocumentArgs) error {
	return nil
}

func (s *fakeDocStore) UpdateStatus(ctx context.Context, spaceID, id string, status types.DocumentStatus, chunkCount int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.docs[id]
	if !ok || d.SpaceID != spaceID {
		return fmt.Errorf("document %s not found", id)
	}
	d.Status = status
	if chunkCount >= 0 {
		d.ChunkCount = chunkCount
	}
	return nil
}

func (s *fakeDocStore) SetRetryTimes(ctx context.Context, spaceID, id string, retryTimes int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d, ok := s.docs[id]; ok {
		d.RetryTimes = retryTimes
	}
	return nil
}

func (s *fakeDocStore) Delete(ctx context.Context, spaceID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.docs, id)
	return nil
}

func (s *fakeDocStore) ListDocuments(ctx context.Context, opts types.GetDocumentOptions, page, pageSize uint64) ([]types.Document, error) {
	return nil, nil
}

func (s *fakeDocStore) Total(ctx context.Context, opts types.GetDocumentOptions) (uint64, error) {
	return 0, nil
}

func (s *fakeDocStore) ListFailedDocuments(ctx context.Context, retryTimes int, page, pageSize uint64) ([]types.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []types.Document
	for _, d := range s.docs {
		if d.Status == types.DOCUMENT_STATUS_FAILED && d.RetryTimes < retryTimes {
			out = append(out, *d)
		}
	}
	return out, nil
}

type fakeEmbedder struct {
	dimension int
	fail      bool
}

func (f *fakeEmbedder) embed(content []string) (ai.EmbeddingResult, error) {
	if f.fail {
		return ai.EmbeddingResult{}, errors.New("provider unavailable")
	}
	res := ai.EmbeddingResult{}
	for _, c := range content {
		vec := make([]float32, f.dimension)
		for i, r := range []rune(c) {
			vec[i%f.dimension] += float32(r % 13)
		}
		res.Data = append(res.Data, vec)
	}
	return res, nil
}

func (f *fakeEmbedder) EmbeddingForQuery(ctx context.Context, content []string) (ai.EmbeddingResult, error) {
	return f.embed(content)
}

func (f *fakeEmbedder) EmbeddingForDocument(ctx context.Context, title string, content []string) (ai.EmbeddingResult, error) {
	return f.embed(content)
}

func (f *fakeEmbedder) Dimension() int { return f.dimension }

func passthroughTx(ctx context.Context, next func(ctx context.Context) error) error {
	return next(ctx)
}

func newTestIngester(docs *fakeDocStore, chunks *retrieval.MemoryMatcher, embedder ai.Embedder) *Ingester {
	return &Ingester{
		docs:        docs,
		chunks:      chunks,
		embedder:    embedder,
		policy:      chunker.NewParagraphPolicy(),
		semaphore:   core.NewLocalSemaphore(1),
		transaction: passthroughTx,
	}
}

const ingestBody = `The onboarding handbook explains how new employees request equipment during their first week.

Annual leave accrues at a rate of one and a quarter days per month of completed service.`

func TestIngestCompletesDocument(t *testing.T) {
	doc := &types.Document{
		ID:       "doc1",
		SpaceID:  "space1",
		Name:     "handbook.txt",
		Category: "HR",
		MimeType: extract.MIME_TEXT,
		Status:   types.DOCUMENT_STATUS_PROCESSING,
	}
	docs := newFakeDocStore(doc)
	chunks := retrieval.NewMemoryMatcher(8)
	ing := newTestIngester(docs, chunks, &fakeEmbedder{dimension: 8})

	if err := ing.Ingest(context.Background(), doc, []byte(ingestBody)); err != nil {
		t.Fatal(err)
	}

	stored, _ := docs.GetDocument(context.Background(), "space1", "doc1")
	if stored.Status != types.DOCUMENT_STATUS_COMPLETED {
		t.Fatalf("document status = %s", stored.Status)
	}
	if stored.ChunkCount != 2 {
		t.Fatalf("chunk count = %d, want 2", stored.ChunkCount)
	}

	total, _ := chunks.Total(context.Background(), types.GetChunksOptions{SpaceID: "space1", DocumentID: "doc1"})
	if total != 2 {
		t.Fatalf("indexed chunks = %d, want 2", total)
	}

	list, _ := chunks.List(context.Background(), types.GetChunksOptions{SpaceID: "space1"}, types.NO_PAGINATION, types.NO_PAGINATION)
	for _, c := range list {
		if c.Category != "HR" || c.FileName != "handbook.txt" {
			t.Fatalf("chunk missing document metadata: %+v", c)
		}
	}
}

func TestIngestEmptyDocumentFails(t *testing.T) {
	doc := &types.Document{
		ID:       "doc1",
		SpaceID:  "space1",
		MimeType: extract.MIME_TEXT,
		Status:   types.DOCUMENT_STATUS_PROCESSING,
	}
	docs := newFakeDocStore(doc)
	ing := newTestIngester(docs, retrieval.NewMemoryMatcher(8), &fakeEmbedder{dimension: 8})

	err := ing.Ingest(context.Background(), doc, []byte("   \n\n  "))
	if !errors.Is(err, types.ErrExtractionEmpty) {
		t.Fatalf("expected ErrExtractionEmpty, got %v", err)
	}

	stored, _ := docs.GetDocument(context.Background(), "space1", "doc1")
	if stored.Status != types.DOCUMENT_STATUS_FAILED {
		t.Fatalf("document status = %s, want failed", stored.Status)
	}
}

func TestIngestEmbeddingFailureKeepsOldIndex(t *testing.T) {
	doc := &types.Document{
		ID:       "doc1",
		SpaceID:  "space1",
		Name:     "handbook.txt",
		MimeType: extract.MIME_TEXT,
		Status:   types.DOCUMENT_STATUS_PROCESSING,
	}
	docs := newFakeDocStore(doc)
	chunks := retrieval.NewMemoryMatcher(8)

	good := newTestIngester(docs, chunks, &fakeEmbedder{dimension: 8})
	if err := good.Ingest(context.Background(), doc, []byte(ingestBody)); err != nil {
		t.Fatal(err)
	}

	bad := newTestIngester(docs, chunks, &fakeEmbedder{dimension: 8, fail: true})
	err := bad.Ingest(context.Background(), doc, []byte(ingestBody))
	if !errors.Is(err, types.ErrEmbeddingFailed) {
		t.Fatalf("expected ErrEmbeddingFailed, got %v", err)
	}

	stored, _ := docs.GetDocument(context.Background(), "space1", "doc1")
	if stored.Status != types.DOCUMENT_STATUS_FAILED {
		t.Fatalf("document status = %s, want failed", stored.Status)
	}

	// The embedding failed before the index transaction, the previously
	// indexed chunks must survive.
	total, _ := chunks.Total(context.Background(), types.GetChunksOptions{SpaceID: "space1", DocumentID: "doc1"})
	if total != 2 {
		t.Fatalf("old chunks were lost, total = %d", total)
	}
}

func TestIngestIsIdempotent(t *testing.T) {
	doc := &types.Document{
		ID:       "doc1",
		SpaceID:  "space1",
		Name:     "handbook.txt",
		MimeType: extract.MIME_TEXT,
		Status:   types.DOCUMENT_STATUS_PROCESSING,
	}
	docs := newFakeDocStore(doc)
	chunks := retrieval.NewMemoryMatcher(8)
	ing := newTestIngester(docs, chunks, &fakeEmbedder{dimension: 8})

	for i := 0; i < 3; i++ {
		if err := ing.Ingest(context.Background(), doc, []byte(ingestBody)); err != nil {
			t.Fatal(err)
		}
	}

	total, _ := chunks.Total(context.Background(), types.GetChunksOptions{SpaceID: "space1", DocumentID: "doc1"})
	if total != 2 {
		t.Fatalf("re-ingestion duplicated chunks, total = %d", total)
	}
}
