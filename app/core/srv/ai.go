package srv

import (
	"os"
	"strconv"

	"github.com/docpile-ai/docpile/pkg/ai"
	"github.com/docpile-ai/docpile/pkg/ai/openai"
)

type AIConfig struct {
	Token              string `toml:"token"`
	Endpoint           string `toml:"endpoint"`
	ChatModel          string `toml:"chat_model"`
	EmbeddingModel     string `toml:"embedding_model"`
	EmbeddingDimension int    `toml:"embedding_dimension"`
}

const DEFAULT_EMBEDDING_DIMENSION = 1024

// ApplyDefaults pins the embedding dimension so config, driver and the vector
// column in the schema all agree on one value.
func (c *AIConfig) ApplyDefaults() {
	if c.EmbeddingDimension == 0 {
		c.EmbeddingDimension = DEFAULT_EMBEDDING_DIMENSION
	}
}

func (c *AIConfig) FromENV() {
	c.Token = os.Getenv("DOCPILE_AI_TOKEN")
	c.Endpoint = os.Getenv("DOCPILE_AI_ENDPOINT")
	c.ChatModel = os.Getenv("DOCPILE_AI_CHAT_MODEL")
	c.EmbeddingModel = os.Getenv("DOCPILE_AI_EMBEDDING_MODEL")
	if dim := os.Getenv("DOCPILE_AI_EMBEDDING_DIMENSION"); dim != "" {
		if v, err := strconv.Atoi(dim); err == nil {
			c.EmbeddingDimension = v
		}
	}
}

// AIDriver is the full model surface the pipeline needs, embeddings for both
// sides of the search plus grounded answer generation.
type AIDriver interface {
	ai.Embedder
	ai.Generator
}

type Srv struct {
	ai AIDriver
}

type ApplyFunc func(*Srv)

func ApplyAI(cfg AIConfig) ApplyFunc {
	return func(s *Srv) {
		s.ai = openai.New(cfg.Token, cfg.Endpoint, ai.ModelName{
			ChatModel:      cfg.ChatModel,
			EmbeddingModel: cfg.EmbeddingModel,
		}, cfg.EmbeddingDimension)
	}
}

// ApplyAIDriver injects a ready-made driver, used by embedded setups and
// tests.
func ApplyAIDriver(driver AIDriver) ApplyFunc {
	return func(s *Srv) {
		s.ai = driver
	}
}

func SetupSrvs(opts ...ApplyFunc) *Srv {
	a := &Srv{}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (s *Srv) AI() AIDriver {
	return s.ai
}
