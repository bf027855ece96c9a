package validation

import (
	"context"
	"strings"
)

// RequiredFieldsValidator rejects text missing any of title, description, price or content
type RequiredFieldsValidator struct{}

// NewRequiredFieldsValidator creates a new RequiredFieldsValidator
func NewRequiredFieldsValidator() *RequiredFieldsValidator {
	return &RequiredFieldsValidator{}
}

// Name returns the validator name
func (v *RequiredFieldsValidator) Name() string {
	return "RequiredFieldsValidator"
}

// Validate checks that every field is present and non-blank
func (v *RequiredFieldsValidator) Validate(ctx context.Context, input ValidationInput) ValidationResult {
	if missing := input.Text.MissingFields(); len(missing) > 0 {
		return Fail("missing required fields: " + strings.Join(missing, ", "))
	}
	return OK()
}
