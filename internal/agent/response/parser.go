package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"product-studio/internal/model"
)

var (
	// ErrEmpty means the model returned no text at all
	ErrEmpty = errors.New("empty response")
	// ErrInvalidJSON means the text could not be decoded as a product object
	ErrInvalidJSON = errors.New("response is not a valid JSON object")
)

// codeFenceRegex matches a ```json ... ``` wrapper some models add even in JSON mode
var codeFenceRegex = regexp.MustCompile("(?s)^```(?:json)?\\s*(.*?)\\s*```$")

// ParseProductText decodes the raw model output into ProductText.
// Field presence is checked by the validation pipeline, not here.
func ParseProductText(raw string) (model.ProductText, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return model.ProductText{}, ErrEmpty
	}

	text = stripCodeFence(text)

	var parsed model.ProductText
	dec := json.NewDecoder(strings.NewReader(text))
	if err := dec.Decode(&parsed); err != nil {
		return model.ProductText{}, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	if dec.More() {
		return model.ProductText{}, fmt.Errorf("%w: trailing data after object", ErrInvalidJSON)
	}

	parsed.Title = strings.TrimSpace(parsed.Title)
	parsed.Description = strings.TrimSpace(parsed.Description)
	parsed.Price = strings.TrimSpace(parsed.Price)
	parsed.Content = normalizeNewlines(strings.TrimSpace(parsed.Content))
	return parsed, nil
}

// stripCodeFence removes a surrounding markdown code fence
func stripCodeFence(text string) string {
	if matches := codeFenceRegex.FindStringSubmatch(text); len(matches) > 1 {
		return matches[1]
	}
	return text
}

// normalizeNewlines turns CRLF and literal "\n" escapes into real newlines
func normalizeNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	if !strings.Contains(s, "\n") && strings.Contains(s, `\n`) {
		s = strings.ReplaceAll(s, `\n`, "\n")
	}
	return s
}
