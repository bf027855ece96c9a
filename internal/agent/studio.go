package agent

import (
	"context"

	"product-studio/internal/agent/prompt"
	"product-studio/internal/agent/validation"
	"product-studio/internal/config"
)

// Generators holds the two provider-backed clients used by a generation attempt
type Generators struct {
	Content *ContentClient
	Cover   *CoverClient
}

// NewGenerators wires the Gemini client, prompts and validation pipeline from cfg
func NewGenerators(ctx context.Context, cfg config.Config) (*Generators, error) {
	genaiClient, err := NewGeminiClient(ctx, cfg.APIKey)
	if err != nil {
		return nil, err
	}

	llmClient := NewGeminiLLMClient(genaiClient, cfg.ContentModel, cfg.ImageModel)
	promptBuilder := prompt.NewBuilder()

	return &Generators{
		Content: NewContentClient(llmClient, promptBuilder, validation.DefaultPipeline(), cfg.ContentTemperature),
		Cover:   NewCoverClient(llmClient, promptBuilder, cfg.CoverAspectRatio),
	}, nil
}
