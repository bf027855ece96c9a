// Package sanitize cleans user-provided text before it is embedded in a prompt.
// Reference: OWASP LLM Prompt Injection Prevention Cheat Sheet
// https://cheatsheetseries.owasp.org/cheatsheets/LLM_Prompt_Injection_Prevention_Cheat_Sheet.html
package sanitize

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// MaxInputRunes caps topic and audience length
const MaxInputRunes = 200

// instructionPatterns detects instruction-like content inside a topic or audience
var instructionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)ignore\s+(all\s+|the\s+)?(previous|above)\s+instructions`),
	regexp.MustCompile(`(?i)ignore\s+(as\s+)?instru[çc][õo]es\s+(anteriores|acima)`),
}

// Input normalizes a free-text field for prompt embedding.
// It applies NFC, flattens control characters and newlines to spaces,
// swaps double quotes for single quotes (the prompt quotes the value),
// collapses whitespace, caps length, and brackets instruction-like phrases.
func Input(s string) string {
	s = norm.NFC.String(s)

	s = strings.Map(func(r rune) rune {
		switch {
		case r == '"' || r == '“' || r == '”':
			return '\''
		case unicode.IsControl(r) || unicode.IsSpace(r):
			return ' '
		}
		return r
	}, s)
	s = strings.Join(strings.Fields(s), " ")

	if runes := []rune(s); len(runes) > MaxInputRunes {
		s = strings.TrimSpace(string(runes[:MaxInputRunes]))
	}

	for _, pattern := range instructionPatterns {
		s = pattern.ReplaceAllStringFunc(s, func(match string) string {
			return "【" + match + "】"
		})
	}
	return s
}

// IsBlank reports whether s has no visible content
func IsBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
