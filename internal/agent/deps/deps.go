package deps

import (
	"context"

	"product-studio/internal/model"

	"google.golang.org/genai"
)

// LLMClient abstracts the raw Gemini calls
type LLMClient interface {
	// GenerateStructured returns the raw JSON text produced under schema
	GenerateStructured(ctx context.Context, prompt string, schema *genai.Schema, temperature float32) (string, error)
	// GenerateImages returns every inline image part of the first candidate, in order
	GenerateImages(ctx context.Context, prompt string, aspectRatio string) ([]model.CoverImage, error)
}

// ContentGenerator produces the text half of a product
type ContentGenerator interface {
	GenerateContent(ctx context.Context, topic, audience string) (model.ProductText, error)
}

// CoverGenerator produces a cover image for a title
type CoverGenerator interface {
	GenerateCover(ctx context.Context, title string) (model.CoverImage, error)
}
