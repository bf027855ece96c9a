package validation

import (
	"context"
	"log"
	"strings"

	"product-studio/internal/agent/prompt"
)

// minEchoLen skips template lines too short to identify an echo
const minEchoLen = 20

// PromptLeakValidator flags products that repeat the generation instructions verbatim.
// It is advisory: a product about prompts or JSON is legitimate, so a match only warns.
type PromptLeakValidator struct {
	// instructionLines are the fixed lines of the content prompt, lowercased
	instructionLines []string
}

// NewPromptLeakValidator creates a new PromptLeakValidator
func NewPromptLeakValidator() *PromptLeakValidator {
	return &PromptLeakValidator{instructionLines: templateLines(prompt.ContentPromptPtBR)}
}

// templateLines returns the lines of tmpl that carry no placeholder
func templateLines(tmpl string) []string {
	var lines []string
	for _, line := range strings.Split(tmpl, "\n") {
		line = strings.TrimSpace(line)
		if len([]rune(line)) < minEchoLen || strings.Contains(line, "%s") {
			continue
		}
		lines = append(lines, strings.ToLower(line))
	}
	return lines
}

// Name returns the validator name
func (v *PromptLeakValidator) Name() string {
	return "PromptLeakValidator"
}

// Validate warns when any text field contains a full instruction line
func (v *PromptLeakValidator) Validate(ctx context.Context, input ValidationInput) ValidationResult {
	fields := []string{input.Text.Title, input.Text.Description, input.Text.Price, input.Text.Content}

	for _, field := range fields {
		fieldLower := strings.ToLower(field)
		for _, line := range v.instructionLines {
			if strings.Contains(fieldLower, line) {
				log.Printf("[%s] Instruction echo: %s", v.Name(), truncateForLog(line, 50))
				return Warn("generation instructions echoed into the product")
			}
		}
	}

	return OK()
}
