package types

import "errors"

var (
	ErrExtractionEmpty        = errors.New("document has no extractable text")
	ErrEmbeddingFailed        = errors.New("embedding request failed")
	ErrIndexWriteFailed       = errors.New("vector index write failed")
	ErrAnswerGenerationFailed = errors.New("answer generation failed")
	ErrCrossWorkspaceLeak     = errors.New("match from foreign space")
)
