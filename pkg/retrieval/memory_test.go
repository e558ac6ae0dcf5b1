package retrieval

import (
	"context"
	"testing"

	"github.com/pgvector/pgvector-go"

	"github.com/docpile-ai/docpile/pkg/types"
)

func newChunk(id, spaceID, docID, category string, createdAt int64, embedding []float32) *types.Chunk {
	return &types.Chunk{
		ID:         id,
		DocumentID: docID,
		SpaceID:    spaceID,
		Category:   category,
		Content:    "content of " + id,
		Embedding:  pgvector.NewVector(embedding),
		FileName:   docID + ".pdf",
		Page:       1,
		CreatedAt:  createdAt,
	}
}

func seedMatcher(t *testing.T) *MemoryMatcher {
	t.Helper()
	m := NewMemoryMatcher(3)
	err := m.BatchCreate(context.Background(), []*types.Chunk{
		newChunk("c1", "space1", "doc1", "HR", 100, []float32{1, 0, 0}),
		newChunk("c2", "space1", "doc1", "HR", 200, []float32{0.9, 0.1, 0}),
		newChunk("c3", "space1", "doc2", "Engineering", 300, []float32{0, 1, 0}),
		newChunk("c4", "space2", "doc3", "HR", 400, []float32{1, 0, 0}),
	})
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func TestMemoryMatcherSpaceIsolation(t *testing.T) {
	m := seedMatcher(t)

	res, err := m.Query(context.Background(), types.GetChunksOptions{SpaceID: "space1"}, pgvector.NewVector([]float32{1, 0, 0}), 0, 10)
	if err != nil {
		t.Fatal(err)
	}
	for _, v := range res {
		if v.SpaceID != "space1" {
			t.Fatalf("got chunk %s from space %s, want only space1", v.ID, v.SpaceID)
		}
	}
	if len(res) != 3 {
		t.Fatalf("expected 3 matches in space1, got %d", len(res))
	}
}

func TestMemoryMatcherRequiresSpaceID(t *testing.T) {
	m := seedMatcher(t)

	if _, err := m.Query(context.Background(), types.GetChunksOptions{}, pgvector.NewVector([]float32{1, 0, 0}), 0, 10); err == nil {
		t.Fatal("expected error for query without space id")
	}
}

func TestMemoryMatcherThreshold(t *testing.T) {
	m := seedMatcher(t)
	ctx := context.Background()
	query := pgvector.NewVector([]float32{1, 0, 0})

	loose, err := m.Query(ctx, types.GetChunksOptions{SpaceID: "space1"}, query, 0.5, 10)
	if err != nil {
		t.Fatal(err)
	}
	strict, err := m.Query(ctx, types.GetChunksOptions{SpaceID: "space1"}, query, 0.99, 10)
	if err != nil {
		t.Fatal(err)
	}

	if len(strict) > len(loose) {
		t.Fatalf("raising the threshold grew the result set: %d > %d", len(strict), len(loose))
	}
	for _, v := range loose {
		if v.Cos < 0.5 {
			t.Fatalf("chunk %s has cos %f below threshold", v.ID, v.Cos)
		}
	}
	// c3 is orthogonal to the query and must never pass a positive threshold.
	for _, v := range loose {
		if v.ID == "c3" {
			t.Fatal("orthogonal chunk passed the threshold")
		}
	}
}

func TestMemoryMatcherOrderAndLimit(t *testing.T) {
	m := seedMatcher(t)
	ctx := context.Background()

	res, err := m.Query(ctx, types.GetChunksOptions{SpaceID: "space1"}, pgvector.NewVector([]float32{1, 0, 0}), 0.5, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(res) != 2 || res[0].ID != "c1" || res[1].ID != "c2" {
		t.Fatalf("unexpected ranking: %+v", res)
	}

	capped, err := m.Query(ctx, types.GetChunksOptions{SpaceID: "space1"}, pgvector.NewVector([]float32{1, 0, 0}), 0.5, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(capped) != 1 || capped[0].ID != "c1" {
		t.Fatalf("limit did not keep the best match: %+v", capped)
	}
}

func TestMemoryMatcherTieBreakByAge(t *testing.T) {
	m := NewMemoryMatcher(3)
	ctx := context.Background()
	err := m.BatchCreate(ctx, []*types.Chunk{
		newChunk("young", "space1", "doc1", "HR", 500, []float32{1, 0, 0}),
		newChunk("old", "space1", "doc1", "HR", 100, []float32{1, 0, 0}),
	})
	if err != nil {
		t.Fatal(err)
	}

	res, err := m.Query(ctx, types.GetChunksOptions{SpaceID: "space1"}, pgvector.NewVector([]float32{1, 0, 0}), 0.5, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(res) != 2 || res[0].ID != "old" {
		t.Fatalf("tie not broken by age: %+v", res)
	}
}

func TestMemoryMatcherCategoryFilter(t *testing.T) {
	m := seedMatcher(t)
	ctx := context.Background()
	query := pgvector.NewVector([]float32{1, 0, 0})

	hr, err := m.Query(ctx, types.GetChunksOptions{SpaceID: "space1", Category: "HR"}, query, 0, 10)
	if err != nil {
		t.Fatal(err)
	}
	for _, v := range hr {
		if v.Category != "HR" {
			t.Fatalf("category filter leaked %s", v.Category)
		}
	}
	if len(hr) != 2 {
		t.Fatalf("expected 2 HR chunks, got %d", len(hr))
	}

	all, err := m.Query(ctx, types.GetChunksOptions{SpaceID: "space1", Category: types.CATEGORY_ALL}, query, 0, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 {
		t.Fatalf("wildcard category should match every chunk in the space, got %d", len(all))
	}
}

func TestMemoryMatcherDeleteByDocument(t *testing.T) {
	m := seedMatcher(t)
	ctx := context.Background()

	if err := m.DeleteByDocument(ctx, "space1", "doc1"); err != nil {
		t.Fatal(err)
	}

	total, err := m.Total(ctx, types.GetChunksOptions{SpaceID: "space1"})
	if err != nil {
		t.Fatal(err)
	}
	if total != 1 {
		t.Fatalf("expected 1 chunk left in space1, got %d", total)
	}

	// Other spaces are untouched.
	total, err = m.Total(ctx, types.GetChunksOptions{SpaceID: "space2"})
	if err != nil {
		t.Fatal(err)
	}
	if total != 1 {
		t.Fatalf("delete crossed space boundary, got %d", total)
	}
}

func TestMemoryMatcherUpsertIsIdempotent(t *testing.T) {
	m := NewMemoryMatcher(3)
	ctx := context.Background()

	chunk := newChunk("c1", "space1", "doc1", "HR", 100, []float32{1, 0, 0})
	for i := 0; i < 3; i++ {
		if err := m.BatchCreate(ctx, []*types.Chunk{chunk}); err != nil {
			t.Fatal(err)
		}
	}

	total, err := m.Total(ctx, types.GetChunksOptions{SpaceID: "space1"})
	if err != nil {
		t.Fatal(err)
	}
	if total != 1 {
		t.Fatalf("upsert duplicated the chunk, total %d", total)
	}
}

func TestMemoryMatcherDimensionCheck(t *testing.T) {
	m := NewMemoryMatcher(3)
	err := m.BatchCreate(context.Background(), []*types.Chunk{
		newChunk("bad", "space1", "doc1", "HR", 100, []float32{1, 0}),
	})
	if err == nil {
		t.Fatal("expected dimension mismatch error")
	}
}
