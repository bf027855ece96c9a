package agent

import (
	"context"
	"errors"
	"strings"
	"testing"

	"product-studio/internal/agent/prompt"
	"product-studio/internal/agent/validation"
	"product-studio/internal/model"

	"google.golang.org/genai"
)

// fakeLLM records calls and returns canned output
type fakeLLM struct {
	structured    string
	structuredErr error
	images        []model.CoverImage
	imagesErr     error

	lastPrompt      string
	lastSchema      *genai.Schema
	lastAspectRatio string
}

func (f *fakeLLM) GenerateStructured(ctx context.Context, p string, schema *genai.Schema, temperature float32) (string, error) {
	f.lastPrompt = p
	f.lastSchema = schema
	return f.structured, f.structuredErr
}

func (f *fakeLLM) GenerateImages(ctx context.Context, p string, aspectRatio string) ([]model.CoverImage, error) {
	f.lastPrompt = p
	f.lastAspectRatio = aspectRatio
	return f.images, f.imagesErr
}

const validJSON = `{"title":"Foco Total","description":"Guia curto.","price":"R$ 27,90","content":"# Início\n* dica"}`

func newContentClient(llm *fakeLLM) *ContentClient {
	return NewContentClient(llm, prompt.NewBuilder(), validation.DefaultPipeline(), 0)
}

func TestGenerateContent(t *testing.T) {
	llm := &fakeLLM{structured: validJSON}

	text, err := newContentClient(llm).GenerateContent(context.Background(), `Guia "rápido"`, "Freelancers")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text.Title != "Foco Total" || text.Content != "# Início\n* dica" {
		t.Errorf("unexpected text: %+v", text)
	}
	if !strings.Contains(llm.lastPrompt, `tópico "Guia 'rápido'"`) {
		t.Errorf("topic not sanitized into prompt: %s", llm.lastPrompt)
	}
	if llm.lastSchema == nil || len(llm.lastSchema.Required) != 4 {
		t.Errorf("schema not sent: %+v", llm.lastSchema)
	}
}

func TestGenerateContentErrors(t *testing.T) {
	providerErr := errors.New("503 unavailable")

	tests := []struct {
		name string
		llm  *fakeLLM
		want error
	}{
		{"provider failure", &fakeLLM{structuredErr: providerErr}, ErrContentGenerationFailed},
		{"empty", &fakeLLM{structured: "  "}, ErrGenerationEmpty},
		{"not json", &fakeLLM{structured: "desculpe"}, ErrGenerationMalformed},
		{"missing field", &fakeLLM{structured: `{"title":"t","description":"d","content":"c"}`}, ErrGenerationMalformed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newContentClient(tt.llm).GenerateContent(context.Background(), "t", "a")
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}

	_, err := newContentClient(&fakeLLM{structuredErr: providerErr}).GenerateContent(context.Background(), "t", "a")
	if !errors.Is(err, providerErr) {
		t.Errorf("provider cause not preserved: %v", err)
	}
}

func TestGenerateContentAcceptsPromptAndJSONTopics(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{
			name: "title mentions system prompt",
			raw:  `{"title":"Domine o System Prompt","description":"Aprenda a escrever instruções.","price":"R$ 37,90","content":"# Passo 1\n* Defina o papel"}`,
		},
		{
			name: "content shows a json example",
			raw:  `{"title":"JSON sem Medo","description":"Guia prático.","price":"R$ 19,90","content":"# Exemplo\nUse {\"title\": \"Meu livro\", \"description\": \"x\"}"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, err := newContentClient(&fakeLLM{structured: tt.raw}).GenerateContent(context.Background(), "system prompt", "Devs")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(text.MissingFields()) != 0 {
				t.Errorf("incomplete text: %+v", text)
			}
		})
	}
}

func TestGenerateCover(t *testing.T) {
	llm := &fakeLLM{images: []model.CoverImage{
		{Data: []byte("first")},
		{MIMEType: "image/jpeg", Data: []byte("second")},
	}}

	cover, err := NewCoverClient(llm, prompt.NewBuilder(), "").GenerateCover(context.Background(), "Foco Total")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(cover.Data) != "first" || cover.MIMEType != model.DefaultCoverMIMEType {
		t.Errorf("cover = %+v, want first image with default MIME type", cover)
	}
	if llm.lastAspectRatio != DefaultCoverAspectRatio {
		t.Errorf("aspect ratio = %q", llm.lastAspectRatio)
	}
	if !strings.Contains(llm.lastPrompt, `"Foco Total"`) {
		t.Errorf("title not in prompt: %s", llm.lastPrompt)
	}
}

func TestGenerateCoverErrors(t *testing.T) {
	providerErr := errors.New("quota")

	_, err := NewCoverClient(&fakeLLM{}, prompt.NewBuilder(), "1:1").GenerateCover(context.Background(), "t")
	if !errors.Is(err, ErrNoImageProduced) {
		t.Errorf("err = %v, want ErrNoImageProduced", err)
	}

	_, err = NewCoverClient(&fakeLLM{imagesErr: providerErr}, prompt.NewBuilder(), "1:1").GenerateCover(context.Background(), "t")
	if !errors.Is(err, ErrCoverGenerationFailed) || !errors.Is(err, providerErr) {
		t.Errorf("err = %v, want ErrCoverGenerationFailed wrapping cause", err)
	}
}
