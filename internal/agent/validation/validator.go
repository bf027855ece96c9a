package validation

import (
	"context"

	"product-studio/internal/model"
)

// ValidationInput contains all data needed for validation
type ValidationInput struct {
	Topic    string
	Audience string
	Text     model.ProductText
}

// ValidationResult is the outcome of a validation
type ValidationResult struct {
	IsValid bool
	Reason  string
	Warning string // set on a passing result that is still worth logging
}

// OK returns a successful validation result
func OK() ValidationResult {
	return ValidationResult{IsValid: true}
}

// Fail returns a failed validation result
func Fail(reason string) ValidationResult {
	return ValidationResult{IsValid: false, Reason: reason}
}

// Warn returns a passing result carrying a warning
func Warn(warning string) ValidationResult {
	return ValidationResult{IsValid: true, Warning: warning}
}

// Validator is the interface for validation rules
type Validator interface {
	// Name returns the validator's name for logging
	Name() string
	// Validate checks the generated text and returns a validation result
	Validate(ctx context.Context, input ValidationInput) ValidationResult
}

// truncateForLog truncates a string for logging purposes
func truncateForLog(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) > maxLen {
		return string(runes[:maxLen]) + "..."
	}
	return s
}
