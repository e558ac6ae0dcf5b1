package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"

	"github.com/docpile-ai/docpile/pkg/ai"
	"github.com/docpile-ai/docpile/pkg/types"
)

const (
	NAME = "openai"

	// Provider batch limit for embedding inputs.
	embeddingBatchMax = 6
)

type Driver struct {
	client    *openai.Client
	model     ai.ModelName
	dimension int
}

func New(token, endpoint string, model ai.ModelName, dimension int) *Driver {
	cfg := openai.DefaultConfig(token)
	if endpoint != "" {
		cfg.BaseURL = endpoint
	}

	if model.ChatModel == "" {
		model.ChatModel = openai.GPT4oMini
	}
	if model.EmbeddingModel == "" {
		model.EmbeddingModel = string(openai.LargeEmbedding3)
	}
	if dimension == 0 {
		dimension = 1024
	}

	return &Driver{
		client:    openai.NewClientWithConfig(cfg),
		model:     model,
		dimension: dimension,
	}
}

func (s *Driver) Dimension() int {
	return s.dimension
}

func (s *Driver) embedding(ctx context.Context, content []string) (ai.EmbeddingResult, error) {
	slog.Debug("Embedding", slog.String("driver", NAME), slog.Int("inputs", len(content)))
	queryReq := openai.EmbeddingRequest{
		Model:      openai.EmbeddingModel(s.model.EmbeddingModel),
		Dimensions: s.dimension,
	}

	var (
		groups [][]string
		result [][]float32
	)

	for i, v := range content {
		if i%embeddingBatchMax == 0 {
			groups = append(groups, []string{})
		}
		groups[len(groups)-1] = append(groups[len(groups)-1], v)
	}

	r := ai.EmbeddingResult{
		Usage: &openai.Usage{},
	}
	for _, v := range groups {
		queryReq.Input = v
		resp, err := s.client.CreateEmbeddings(ctx, queryReq)
		if err != nil {
			return r, fmt.Errorf("Error creating embedding: %w", err)
		}
		for _, d := range resp.Data {
			result = append(result, d.Embedding)
		}

		r.Usage.PromptTokens += resp.Usage.PromptTokens
		r.Usage.TotalTokens += resp.Usage.TotalTokens
		r.Model = string(resp.Model)
	}

	r.Data = result

	return r, nil
}

func (s *Driver) EmbeddingForQuery(ctx context.Context, content []string) (ai.EmbeddingResult, error) {
	return s.embedding(ctx, content)
}

func (s *Driver) EmbeddingForDocument(ctx context.Context, title string, content []string) (ai.EmbeddingResult, error) {
	return s.embedding(ctx, content)
}

const AnswerFuncName = "answer"

type answerPayload struct {
	Answer string `json:"answer"`
	Alerts []struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"alerts"`
}

// Generate asks the chat model for a grounded answer and extracts the
// structured result from the "answer" tool call. A missing or unparseable tool
// call is an answer-generation failure, never an empty answer.
func (s *Driver) Generate(ctx context.Context, req ai.GenerateRequest) (ai.GenerateResult, error) {
	slog.Debug("Generate", slog.String("driver", NAME), slog.String("model", s.model.ChatModel))

	params := jsonschema.Definition{
		Type: jsonschema.Object,
		Properties: map[string]jsonschema.Definition{
			"answer": {
				Type:        jsonschema.String,
				Description: "The grounded answer to the user question, in the requested language.",
			},
			"alerts": {
				Type:        jsonschema.Array,
				Description: "Issues found in the reference material, such as conflicting sources. Empty when none.",
				Items: &jsonschema.Definition{
					Type: jsonschema.Object,
					Properties: map[string]jsonschema.Definition{
						"type": {
							Type:        jsonschema.String,
							Description: "One of: conflicting_sources, incomplete_context, possibly_outdated.",
						},
						"message": {
							Type:        jsonschema.String,
							Description: "Human readable description of the issue.",
						},
					},
					Required: []string{"type", "message"},
				},
			},
		},
		Required: []string{"answer"},
	}

	f := openai.FunctionDefinition{
		Name:        AnswerFuncName,
		Description: "Deliver the grounded answer and any alerts about the reference material.",
		Parameters:  params,
	}
	t := openai.Tool{
		Type:     openai.ToolTypeFunction,
		Function: &f,
	}

	system := ai.ReplaceVar(ai.PROMPT_GROUNDED_ANSWER_EN, map[string]string{
		ai.PROMPT_VAR_CONTEXT: req.Context,
		ai.PROMPT_VAR_LANG:    req.Lang,
	})

	dialogue := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: system},
		{Role: openai.ChatMessageRoleUser, Content: req.Query},
	}

	result := ai.GenerateResult{
		Model: s.model.ChatModel,
	}
	resp, err := s.client.CreateChatCompletion(ctx,
		openai.ChatCompletionRequest{
			Model:    s.model.ChatModel,
			Messages: dialogue,
			Tools:    []openai.Tool{t},
		},
	)
	if err != nil || len(resp.Choices) != 1 {
		return result, fmt.Errorf("Completion error: err:%v len(choices):%v, %w", err, len(resp.Choices), types.ErrAnswerGenerationFailed)
	}

	var payload *answerPayload
	for _, v := range resp.Choices[0].Message.ToolCalls {
		if v.Function.Name != AnswerFuncName {
			continue
		}
		payload = &answerPayload{}
		if err = json.Unmarshal([]byte(v.Function.Arguments), payload); err != nil {
			return result, fmt.Errorf("failed to unmarshal func call arguments of answer, %s, %w", err.Error(), types.ErrAnswerGenerationFailed)
		}
	}

	if payload == nil || payload.Answer == "" {
		return result, fmt.Errorf("generator returned no answer tool call, %w", types.ErrAnswerGenerationFailed)
	}

	result.Answer = payload.Answer
	for _, v := range payload.Alerts {
		result.Alerts = append(result.Alerts, types.Alert{Type: v.Type, Message: v.Message})
	}
	result.Usage = &resp.Usage
	return result, nil
}
