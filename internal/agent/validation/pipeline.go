package validation

import (
	"context"
	"fmt"
	"log"
)

// Pipeline runs multiple validators in sequence
type Pipeline struct {
	validators []Validator
}

// NewPipeline creates a new validation pipeline
func NewPipeline(validators ...Validator) *Pipeline {
	return &Pipeline{validators: validators}
}

// DefaultPipeline rejects products with missing fields and warns on instruction echoes
func DefaultPipeline() *Pipeline {
	return NewPipeline(
		NewRequiredFieldsValidator(),
		NewPromptLeakValidator(),
	)
}

// Validate runs all validators and stops at the first failure.
// There is no correction step: a failed product is rejected as a whole.
func (p *Pipeline) Validate(ctx context.Context, input ValidationInput) error {
	log.Printf("[Pipeline] Starting validation for title: %s", truncateForLog(input.Text.Title, 100))

	for _, v := range p.validators {
		result := v.Validate(ctx, input)

		if result.IsValid {
			if result.Warning != "" {
				log.Printf("[Pipeline] %s: WARN - %s", v.Name(), result.Warning)
			} else {
				log.Printf("[Pipeline] %s: PASS", v.Name())
			}
			continue
		}

		log.Printf("[Pipeline] %s: FAIL - %s", v.Name(), result.Reason)
		return fmt.Errorf("%s: %s", v.Name(), result.Reason)
	}

	log.Printf("[Pipeline] All validators passed")
	return nil
}
