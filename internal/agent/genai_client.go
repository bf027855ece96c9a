package agent

import (
	"context"
	"fmt"
	"strings"

	"product-studio/internal/model"

	"google.golang.org/genai"
)

// GeminiLLMClient implements deps.LLMClient using the Gemini API
type GeminiLLMClient struct {
	client       *genai.Client
	contentModel string
	imageModel   string
}

// NewGeminiClient creates the underlying genai client for the Gemini API backend
func NewGeminiClient(ctx context.Context, apiKey string) (*genai.Client, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return client, nil
}

// NewGeminiLLMClient creates a new GeminiLLMClient
func NewGeminiLLMClient(client *genai.Client, contentModel, imageModel string) *GeminiLLMClient {
	return &GeminiLLMClient{
		client:       client,
		contentModel: contentModel,
		imageModel:   imageModel,
	}
}

// GenerateStructured asks the content model for JSON conforming to schema
func (c *GeminiLLMClient) GenerateStructured(ctx context.Context, prompt string, schema *genai.Schema, temperature float32) (string, error) {
	config := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr(temperature),
		ResponseMIMEType: "application/json",
		ResponseSchema:   schema,
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.contentModel, userContent(prompt), config)
	if err != nil {
		return "", err
	}

	// Concatenate text parts of the first candidate
	var sb strings.Builder
	if len(resp.Candidates) > 0 && resp.Candidates[0].Content != nil {
		for _, part := range resp.Candidates[0].Content.Parts {
			if part.Text != "" && !part.Thought {
				sb.WriteString(part.Text)
			}
		}
	}
	return sb.String(), nil
}

// GenerateImages asks the image model for a picture and collects inline image parts
func (c *GeminiLLMClient) GenerateImages(ctx context.Context, prompt string, aspectRatio string) ([]model.CoverImage, error) {
	config := &genai.GenerateContentConfig{}
	if aspectRatio != "" {
		config.ImageConfig = &genai.ImageConfig{AspectRatio: aspectRatio}
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.imageModel, userContent(prompt), config)
	if err != nil {
		return nil, err
	}

	var images []model.CoverImage
	if len(resp.Candidates) > 0 && resp.Candidates[0].Content != nil {
		for _, part := range resp.Candidates[0].Content.Parts {
			if part.InlineData != nil && len(part.InlineData.Data) > 0 {
				images = append(images, model.CoverImage{
					MIMEType: part.InlineData.MIMEType,
					Data:     part.InlineData.Data,
				})
			}
		}
	}
	return images, nil
}

func userContent(prompt string) []*genai.Content {
	return []*genai.Content{
		{
			Role:  "user",
			Parts: []*genai.Part{{Text: prompt}},
		},
	}
}
