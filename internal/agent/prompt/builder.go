package prompt

import (
	"fmt"

	"google.golang.org/genai"
)

// Builder constructs prompts for the content and cover models
type Builder struct{}

// NewBuilder creates a new prompt builder
func NewBuilder() *Builder {
	return &Builder{}
}

// BuildContentPrompt creates the product text prompt.
// topic and audience must already be sanitized.
func (b *Builder) BuildContentPrompt(topic, audience string) string {
	return fmt.Sprintf(ContentPromptPtBR, topic, audience)
}

// BuildCoverPrompt creates the cover image prompt for a generated title
func (b *Builder) BuildCoverPrompt(title string) string {
	return fmt.Sprintf(CoverPromptPtBR, title)
}

// ProductTextSchema is the structured-output schema for the content model.
// All four fields are required.
func ProductTextSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"title":       {Type: genai.TypeString},
			"description": {Type: genai.TypeString},
			"price":       {Type: genai.TypeString},
			"content":     {Type: genai.TypeString},
		},
		Required:         []string{"title", "description", "price", "content"},
		PropertyOrdering: []string{"title", "description", "price", "content"},
	}
}
