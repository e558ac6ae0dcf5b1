package ai

import (
	"context"
	"strings"

	"github.com/pkoukk/tiktoken-go"
	"github.com/sashabaranov/go-openai"

	"github.com/docpile-ai/docpile/pkg/types"
)

type ModelName struct {
	ChatModel      string `toml:"chat_model"`
	EmbeddingModel string `toml:"embedding_model"`
}

// EmbeddingResult is the provider-agnostic embedding response. Data keeps the
// input order.
type EmbeddingResult struct {
	Model string
	Data  [][]float32
	Usage *openai.Usage
}

// Embedder maps text to fixed-dimension vectors. The dimension is fixed per
// deployment and must match the chunk index.
type Embedder interface {
	EmbeddingForQuery(ctx context.Context, content []string) (EmbeddingResult, error)
	EmbeddingForDocument(ctx context.Context, title string, content []string) (EmbeddingResult, error)
	Dimension() int
}

// GenerateRequest carries everything the answer generator may use. Context is
// the assembled reference material, the only permitted factual basis.
type GenerateRequest struct {
	Query   string
	Context string
	Lang    string
}

type GenerateResult struct {
	Answer string
	Alerts []types.Alert
	Model  string
	Usage  *openai.Usage
}

// Generator produces a grounded answer with structured alerts. Implementations
// must return ErrAnswerGenerationFailed semantics on unparseable output, never
// an empty answer.
type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) (GenerateResult, error)
}

// NumTokens estimates chat tokens the way tiktoken counts them. Used to keep
// the assembled context inside the model window.
func NumTokens(text string, model string) (int, error) {
	if model == "" || !strings.Contains(model, "gpt") {
		model = openai.GPT4oMini
	}
	tkm, err := tiktoken.EncodingForModel(model)
	if err != nil {
		return 0, err
	}
	return len(tkm.Encode(text, nil, nil)), nil
}
