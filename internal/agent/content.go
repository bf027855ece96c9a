package agent

import (
	"context"
	"errors"
	"fmt"
	"log"

	"product-studio/internal/agent/deps"
	"product-studio/internal/agent/prompt"
	"product-studio/internal/agent/response"
	"product-studio/internal/agent/sanitize"
	"product-studio/internal/agent/validation"
	"product-studio/internal/model"
)

// DefaultContentTemperature is used when ContentClient is built without an explicit temperature
const DefaultContentTemperature float32 = 0.9

// ContentClient generates the product text through structured output
type ContentClient struct {
	llm           deps.LLMClient
	promptBuilder *prompt.Builder
	pipeline      *validation.Pipeline
	temperature   float32
}

// NewContentClient creates a new ContentClient
func NewContentClient(llm deps.LLMClient, promptBuilder *prompt.Builder, pipeline *validation.Pipeline, temperature float32) *ContentClient {
	if temperature <= 0 {
		temperature = DefaultContentTemperature
	}
	return &ContentClient{
		llm:           llm,
		promptBuilder: promptBuilder,
		pipeline:      pipeline,
		temperature:   temperature,
	}
}

// GenerateContent asks for title, description, price and content for a topic and audience
func (c *ContentClient) GenerateContent(ctx context.Context, topic, audience string) (model.ProductText, error) {
	topic = sanitize.Input(topic)
	audience = sanitize.Input(audience)
	log.Printf("[CONTENT] Generating product text topic=%q audience=%q", topic, audience)

	raw, err := c.llm.GenerateStructured(ctx, c.promptBuilder.BuildContentPrompt(topic, audience), prompt.ProductTextSchema(), c.temperature)
	if err != nil {
		log.Printf("[CONTENT] API error: %v", err)
		return model.ProductText{}, fmt.Errorf("%w: %w", ErrContentGenerationFailed, err)
	}

	text, err := response.ParseProductText(raw)
	if err != nil {
		if errors.Is(err, response.ErrEmpty) {
			return model.ProductText{}, ErrGenerationEmpty
		}
		log.Printf("[CONTENT] Unparseable response: %s", truncate(raw, 200))
		return model.ProductText{}, fmt.Errorf("%w: %w", ErrGenerationMalformed, err)
	}

	if err := c.pipeline.Validate(ctx, validation.ValidationInput{
		Topic:    topic,
		Audience: audience,
		Text:     text,
	}); err != nil {
		return model.ProductText{}, fmt.Errorf("%w: %w", ErrGenerationMalformed, err)
	}

	log.Printf("[CONTENT] Generated title=%q price=%q content=%d chars", text.Title, text.Price, len(text.Content))
	return text, nil
}

// truncate shortens s to maxLen runes for logging
func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) > maxLen {
		return string(runes[:maxLen]) + "..."
	}
	return s
}
