package agent

import (
	"context"
	"fmt"
	"log"

	"product-studio/internal/agent/deps"
	"product-studio/internal/agent/prompt"
	"product-studio/internal/agent/sanitize"
	"product-studio/internal/model"
)

// DefaultCoverAspectRatio matches a portrait e-book cover
const DefaultCoverAspectRatio = "3:4"

// CoverClient generates a cover image for a product title
type CoverClient struct {
	llm           deps.LLMClient
	promptBuilder *prompt.Builder
	aspectRatio   string
}

// NewCoverClient creates a new CoverClient
func NewCoverClient(llm deps.LLMClient, promptBuilder *prompt.Builder, aspectRatio string) *CoverClient {
	if aspectRatio == "" {
		aspectRatio = DefaultCoverAspectRatio
	}
	return &CoverClient{
		llm:           llm,
		promptBuilder: promptBuilder,
		aspectRatio:   aspectRatio,
	}
}

// GenerateCover returns the first inline image the model produces for title
func (c *CoverClient) GenerateCover(ctx context.Context, title string) (model.CoverImage, error) {
	log.Printf("[COVER] Generating cover title=%q aspect=%s", title, c.aspectRatio)

	images, err := c.llm.GenerateImages(ctx, c.promptBuilder.BuildCoverPrompt(sanitize.Input(title)), c.aspectRatio)
	if err != nil {
		log.Printf("[COVER] API error: %v", err)
		return model.CoverImage{}, fmt.Errorf("%w: %w", ErrCoverGenerationFailed, err)
	}

	if len(images) == 0 {
		return model.CoverImage{}, ErrNoImageProduced
	}
	if len(images) > 1 {
		log.Printf("[COVER] Model returned %d images, using the first", len(images))
	}

	cover := images[0]
	if cover.MIMEType == "" {
		cover.MIMEType = model.DefaultCoverMIMEType
	}
	log.Printf("[COVER] Generated %s image, %d bytes", cover.MIMEType, len(cover.Data))
	return cover, nil
}
