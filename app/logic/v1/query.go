package v1

import (
	"context"
	stderrs "errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/pgvector/pgvector-go"

	"github.com/docpile-ai/docpile/app/core"
	"github.com/docpile-ai/docpile/pkg/ai"
	"github.com/docpile-ai/docpile/pkg/errors"
	"github.com/docpile-ai/docpile/pkg/i18n"
	"github.com/docpile-ai/docpile/pkg/rag"
	"github.com/docpile-ai/docpile/pkg/types"
	"github.com/docpile-ai/docpile/pkg/utils"
)

var localizer = i18n.NewLocalizer(types.LANGUAGE_EN_KEY, types.LANGUAGE_VI_KEY, types.LANGUAGE_CN_KEY)

// ChunkMatcher is the similarity search surface of the index. Both the
// pgvector store and the in-memory matcher satisfy it.
type ChunkMatcher interface {
	Query(ctx context.Context, opts types.GetChunksOptions, vector pgvector.Vector, threshold float32, limit uint64) ([]types.MatchResult, error)
}

// Answerer runs the query pipeline: embed, match, assemble, generate.
type Answerer struct {
	matcher         ChunkMatcher
	embedder        ai.Embedder
	generator       ai.Generator
	assembler       *rag.Assembler
	semaphore       core.Semaphore
	threshold       float32
	limit           uint64
	embedTimeout    time.Duration
	generateTimeout time.Duration
	queryTimeout    time.Duration
	metrics         *core.Metrics
}

func NewAnswerer(core *core.Core) *Answerer {
	cfg := core.Cfg().RAG
	return &Answerer{
		matcher:         core.Store().ChunkStore(),
		embedder:        core.Srv().AI(),
		generator:       core.Srv().AI(),
		assembler:       core.Assembler(),
		semaphore:       core.EmbeddingSemaphore(),
		threshold:       cfg.MatchThreshold,
		limit:           cfg.MatchLimit,
		embedTimeout:    time.Duration(cfg.EmbedTimeoutSeconds) * time.Second,
		generateTimeout: time.Duration(cfg.GenerateTimeoutSeconds) * time.Second,
		queryTimeout:    time.Duration(cfg.QueryTimeoutSeconds) * time.Second,
		metrics:         core.Metrics(),
	}
}

// Answer resolves one question against the space's index. Questions with no
// relevant material get the canned fallback without ever invoking the
// generator.
func (s *Answerer) Answer(ctx context.Context, spaceID, query, category string) (*types.QueryAnswer, error) {
	// One budget for the whole pipeline so a slow provider cannot hold the
	// request open past it. Embed and generate carry tighter sub-timeouts.
	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	lang := utils.WhatLang(query)

	vector, err := s.embedQuery(ctx, query)
	if err != nil {
		s.countResult("embed_failed")
		return nil, err
	}

	matches, err := s.matcher.Query(ctx, types.GetChunksOptions{
		SpaceID:  spaceID,
		Category: category,
	}, vector, s.threshold, s.limit)
	if err != nil {
		s.countResult("match_failed")
		return nil, fmt.Errorf("failed to query chunk index, %w", err)
	}

	// The store scopes every query by space already. Verify anyway, a chunk
	// from a foreign space in an answer is the one unforgivable failure.
	for _, m := range matches {
		if m.SpaceID != spaceID {
			slog.Error("cross space match detected",
				slog.String("space_id", spaceID),
				slog.String("chunk_id", m.ID),
				slog.String("chunk_space_id", m.SpaceID))
			s.countResult("leak_blocked")
			return nil, fmt.Errorf("chunk %s belongs to space %s, %w", m.ID, m.SpaceID, types.ErrCrossWorkspaceLeak)
		}
	}

	if s.metrics != nil {
		s.metrics.ObserveMatchedChunks(len(matches))
	}

	assembled, ok := s.assembler.Assemble(matches)
	if !ok {
		s.countResult("no_context")
		return &types.QueryAnswer{
			Answer:    localizer.Get(fallbackLangKey(ctx, lang), i18n.MESSAGE_NO_RELEVANT_CONTEXT),
			Citations: []types.Citation{},
		}, nil
	}

	result, err := s.generate(ctx, query, assembled.Text, lang)
	if err != nil {
		s.countResult("generate_failed")
		return nil, err
	}

	s.countResult("answered")
	return &types.QueryAnswer{
		Answer:    result.Answer,
		Citations: assembled.Citations,
		Alerts:    result.Alerts,
	}, nil
}

func (s *Answerer) embedQuery(ctx context.Context, query string) (pgvector.Vector, error) {
	if err := s.semaphore.Acquire(ctx); err != nil {
		return pgvector.Vector{}, fmt.Errorf("failed to acquire embedding permit, %w", err)
	}
	defer s.semaphore.Release()

	if s.metrics != nil {
		timer := s.metrics.EmbeddingTimer("query")
		defer timer.ObserveDuration()
	}

	ctx, cancel := context.WithTimeout(ctx, s.embedTimeout)
	defer cancel()

	result, err := s.embedder.EmbeddingForQuery(ctx, []string{query})
	if err != nil {
		return pgvector.Vector{}, fmt.Errorf("%s, %w", err.Error(), types.ErrEmbeddingFailed)
	}
	if len(result.Data) != 1 {
		return pgvector.Vector{}, fmt.Errorf("expected 1 query embedding, got %d, %w", len(result.Data), types.ErrEmbeddingFailed)
	}
	return pgvector.NewVector(result.Data[0]), nil
}

func (s *Answerer) generate(ctx context.Context, query, refMaterial, lang string) (ai.GenerateResult, error) {
	if s.metrics != nil {
		timer := s.metrics.GenerateTimer()
		defer timer.ObserveDuration()
	}

	ctx, cancel := context.WithTimeout(ctx, s.generateTimeout)
	defer cancel()

	return s.generator.Generate(ctx, ai.GenerateRequest{
		Query:   query,
		Context: refMaterial,
		Lang:    lang,
	})
}

func (s *Answerer) countResult(result string) {
	if s.metrics != nil {
		s.metrics.QueryResultInc(result)
	}
}

// fallbackLangKey picks the canned-answer catalog. Query language wins when it
// maps to a catalog, otherwise the request's Accept-Language decides.
func fallbackLangKey(ctx context.Context, lang string) string {
	switch lang {
	case "English":
		return types.LANGUAGE_EN_KEY
	case "Vietnamese":
		return types.LANGUAGE_VI_KEY
	case "Mandarin":
		return types.LANGUAGE_CN_KEY
	default:
		return InjectLanguage(ctx)
	}
}

type QueryLogic struct {
	UserInfo
	ctx  context.Context
	core *core.Core
}

func NewQueryLogic(ctx context.Context, core *core.Core) *QueryLogic {
	return &QueryLogic{
		ctx:      ctx,
		core:     core,
		UserInfo: SetupUserInfo(ctx, core),
	}
}

func (l *QueryLogic) Query(spaceID, query, category string) (*types.QueryAnswer, error) {
	if err := l.VerifySpace(spaceID); err != nil {
		return nil, err
	}
	if query == "" {
		return nil, errors.New("QueryLogic.Query.empty", i18n.ERROR_INVALIDARGUMENT, nil).Code(http.StatusBadRequest)
	}

	answer, err := NewAnswerer(l.core).Answer(l.ctx, spaceID, query, category)
	if err != nil {
		return nil, queryError(err)
	}
	return answer, nil
}

func queryError(err error) error {
	switch {
	case stderrs.Is(err, types.ErrEmbeddingFailed):
		return errors.New("QueryLogic.Query.embedding", i18n.ERROR_EMBEDDING_FAILED, err)
	case stderrs.Is(err, types.ErrAnswerGenerationFailed):
		return errors.New("QueryLogic.Query.generate", i18n.ERROR_ANSWER_GENERATE_FAILED, err)
	default:
		return errors.New("QueryLogic.Query", i18n.ERROR_INTERNAL, err)
	}
}
