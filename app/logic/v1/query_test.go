package v1

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/pgvector/pgvector-go"

	"github.com/docpile-ai/docpile/app/core"
	"github.com/docpile-ai/docpile/pkg/ai"
	"github.com/docpile-ai/docpile/pkg/rag"
	"github.com/docpile-ai/docpile/pkg/retrieval"
	"github.com/docpile-ai/docpile/pkg/types"
)

type fixedEmbedder struct {
	vec         []float32
	err         error
	sawDeadline bool
}

func (f *fixedEmbedder) EmbeddingForQuery(ctx context.Context, content []string) (ai.EmbeddingResult, error) {
	_, f.sawDeadline = ctx.Deadline()
	if f.err != nil {
		return ai.EmbeddingResult{}, f.err
	}
	return ai.EmbeddingResult{Data: [][]float32{f.vec}}, nil
}

func (f *fixedEmbedder) EmbeddingForDocument(ctx context.Context, title string, content []string) (ai.EmbeddingResult, error) {
	return f.EmbeddingForQuery(ctx, content)
}

func (f *fixedEmbedder) Dimension() int { return len(f.vec) }

type fakeGenerator struct {
	calls       int
	result      ai.GenerateResult
	err         error
	sawDeadline bool
}

func (f *fakeGenerator) Generate(ctx context.Context, req ai.GenerateRequest) (ai.GenerateResult, error) {
	f.calls++
	_, f.sawDeadline = ctx.Deadline()
	if f.err != nil {
		return ai.GenerateResult{}, f.err
	}
	return f.result, nil
}

func seedQueryIndex(t *testing.T) *retrieval.MemoryMatcher {
	t.Helper()
	m := retrieval.NewMemoryMatcher(3)
	err := m.BatchCreate(context.Background(), []*types.Chunk{
		{
			ID: "c1", DocumentID: "doc1", SpaceID: "space1", Category: "HR",
			Content: "Employees accrue fifteen days of annual leave per year.", FileName: "handbook.pdf", Page: 3,
			Embedding: pgvector.NewVector([]float32{1, 0, 0}), CreatedAt: 100,
		},
		{
			ID: "c2", DocumentID: "doc2", SpaceID: "space2", Category: "HR",
			Content: "Foreign tenant content that must never leak.", FileName: "other.pdf", Page: 1,
			Embedding: pgvector.NewVector([]float32{1, 0, 0}), CreatedAt: 100,
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func newTestAnswerer(matcher ChunkMatcher, embedder ai.Embedder, generator ai.Generator) *Answerer {
	return &Answerer{
		matcher:         matcher,
		embedder:        embedder,
		generator:       generator,
		assembler:       rag.NewAssembler(6000, ""),
		semaphore:       core.NewLocalSemaphore(1),
		threshold:       0.5,
		limit:           5,
		embedTimeout:    time.Second * 5,
		generateTimeout: time.Second * 5,
		queryTimeout:    time.Second * 30,
	}
}

func TestQueryAnswersWithCitations(t *testing.T) {
	gen := &fakeGenerator{result: ai.GenerateResult{
		Answer: "Employees get fifteen days of annual leave.",
		Alerts: []types.Alert{{Type: types.ALERT_TYPE_CONFLICT, Message: "two policies disagree"}},
	}}
	answerer := newTestAnswerer(seedQueryIndex(t), &fixedEmbedder{vec: []float32{1, 0, 0}}, gen)

	answer, err := answerer.Answer(context.Background(), "space1", "How many days of annual leave do I get?", "")
	if err != nil {
		t.Fatal(err)
	}

	if gen.calls != 1 {
		t.Fatalf("generator called %d times", gen.calls)
	}
	if answer.Answer != gen.result.Answer {
		t.Fatalf("unexpected answer %q", answer.Answer)
	}
	if len(answer.Citations) != 1 || answer.Citations[0].FileName != "handbook.pdf" || answer.Citations[0].Page != 3 {
		t.Fatalf("unexpected citations %+v", answer.Citations)
	}
	if len(answer.Alerts) != 1 || answer.Alerts[0].Type != types.ALERT_TYPE_CONFLICT {
		t.Fatalf("alerts were not passed through: %+v", answer.Alerts)
	}
}

func TestQueryNoRelevantContext(t *testing.T) {
	gen := &fakeGenerator{}
	// Orthogonal query vector, nothing passes the threshold.
	answerer := newTestAnswerer(seedQueryIndex(t), &fixedEmbedder{vec: []float32{0, 0, 1}}, gen)

	answer, err := answerer.Answer(context.Background(), "space1", "What is the office wifi password?", "")
	if err != nil {
		t.Fatal(err)
	}

	if gen.calls != 0 {
		t.Fatalf("generator must not run without context, called %d times", gen.calls)
	}
	if answer.Answer != "I could not find anything about that in your knowledge base." {
		t.Fatalf("unexpected fallback answer %q", answer.Answer)
	}
	if answer.Citations == nil || len(answer.Citations) != 0 {
		t.Fatalf("fallback must carry an empty citation list, got %+v", answer.Citations)
	}
}

func TestQueryDeadlinesApplied(t *testing.T) {
	emb := &fixedEmbedder{vec: []float32{1, 0, 0}}
	gen := &fakeGenerator{result: ai.GenerateResult{Answer: "ok"}}
	answerer := newTestAnswerer(seedQueryIndex(t), emb, gen)

	// A hung provider must run out of time, so both model calls carry a
	// deadline even when the caller's context has none.
	if _, err := answerer.Answer(context.Background(), "space1", "How much annual leave?", ""); err != nil {
		t.Fatal(err)
	}
	if !emb.sawDeadline {
		t.Fatal("embedding call ran without a deadline")
	}
	if !gen.sawDeadline {
		t.Fatal("generation call ran without a deadline")
	}
}

func TestQueryFallbackUsesAcceptLanguage(t *testing.T) {
	gen := &fakeGenerator{}
	answerer := newTestAnswerer(seedQueryIndex(t), &fixedEmbedder{vec: []float32{0, 0, 1}}, gen)

	// The question's language maps to no catalog, the request header decides.
	ctx := context.WithValue(context.Background(), LANGUAGE_KEY, types.LANGUAGE_VI_KEY)
	answer, err := answerer.Answer(ctx, "space1", "Où se trouve le règlement intérieur de l'entreprise?", "")
	if err != nil {
		t.Fatal(err)
	}
	if gen.calls != 0 {
		t.Fatalf("generator must not run without context, called %d times", gen.calls)
	}
	if answer.Answer != "Tôi không tìm thấy thông tin liên quan trong kho tài liệu của bạn." {
		t.Fatalf("unexpected fallback answer %q", answer.Answer)
	}
}

func TestQueryCategoryFilter(t *testing.T) {
	gen := &fakeGenerator{result: ai.GenerateResult{Answer: "ok"}}
	answerer := newTestAnswerer(seedQueryIndex(t), &fixedEmbedder{vec: []float32{1, 0, 0}}, gen)

	answer, err := answerer.Answer(context.Background(), "space1", "How much annual leave?", "Engineering")
	if err != nil {
		t.Fatal(err)
	}
	if gen.calls != 0 || len(answer.Citations) != 0 {
		t.Fatalf("category mismatch should yield the fallback, calls=%d citations=%+v", gen.calls, answer.Citations)
	}

	if _, err = answerer.Answer(context.Background(), "space1", "How much annual leave?", "HR"); err != nil {
		t.Fatal(err)
	}
	if gen.calls != 1 {
		t.Fatalf("matching category should reach the generator, calls=%d", gen.calls)
	}
}

type leakyMatcher struct{}

func (leakyMatcher) Query(ctx context.Context, opts types.GetChunksOptions, vector pgvector.Vector, threshold float32, limit uint64) ([]types.MatchResult, error) {
	return []types.MatchResult{
		{ID: "evil", SpaceID: "space2", Content: "foreign", Cos: 0.99},
	}, nil
}

func TestQueryCrossSpaceLeakBlocked(t *testing.T) {
	gen := &fakeGenerator{}
	answerer := newTestAnswerer(leakyMatcher{}, &fixedEmbedder{vec: []float32{1, 0, 0}}, gen)

	_, err := answerer.Answer(context.Background(), "space1", "anything", "")
	if !errors.Is(err, types.ErrCrossWorkspaceLeak) {
		t.Fatalf("expected ErrCrossWorkspaceLeak, got %v", err)
	}
	if gen.calls != 0 {
		t.Fatal("generator ran on leaked context")
	}
}

func TestQueryGeneratorFailure(t *testing.T) {
	gen := &fakeGenerator{err: fmt.Errorf("no tool call, %w", types.ErrAnswerGenerationFailed)}
	answerer := newTestAnswerer(seedQueryIndex(t), &fixedEmbedder{vec: []float32{1, 0, 0}}, gen)

	_, err := answerer.Answer(context.Background(), "space1", "How much annual leave?", "")
	if !errors.Is(err, types.ErrAnswerGenerationFailed) {
		t.Fatalf("expected ErrAnswerGenerationFailed, got %v", err)
	}
}

func TestQueryEmbeddingFailure(t *testing.T) {
	gen := &fakeGenerator{}
	answerer := newTestAnswerer(seedQueryIndex(t), &fixedEmbedder{err: errors.New("provider down")}, gen)

	_, err := answerer.Answer(context.Background(), "space1", "anything", "")
	if !errors.Is(err, types.ErrEmbeddingFailed) {
		t.Fatalf("expected ErrEmbeddingFailed, got %v", err)
	}
	if gen.calls != 0 {
		t.Fatal("generator ran after embedding failure")
	}
}
