package handler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"log"
	"mime"
	"net/http"
	"regexp"
	"strings"

	"product-studio/internal/agent"
	"product-studio/internal/document"
	"product-studio/internal/flow"
	"product-studio/internal/middleware"
	"product-studio/web"

	"github.com/gin-gonic/gin"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Handler serves the screens and the JSON API for generation sessions
type Handler struct {
	store        *flow.Store
	renderer     *document.Renderer
	secureCookie bool
}

// New creates a Handler. secureCookie marks the session cookie Secure (production).
func New(store *flow.Store, renderer *document.Renderer, secureCookie bool) *Handler {
	return &Handler{
		store:        store,
		renderer:     renderer,
		secureCookie: secureCookie,
	}
}

// LoadTemplates parses the embedded step templates
func LoadTemplates() (*template.Template, error) {
	tmpl, err := template.ParseFS(web.Templates, "templates/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	return tmpl, nil
}

// Limits is the generation budget shared by the form and the JSON API
type Limits struct {
	IP    *middleware.IPRateLimiter
	Quota *middleware.DailyQuota
}

// RegisterRoutes mounts every route. A nil limits leaves generation unthrottled.
func (h *Handler) RegisterRoutes(r *gin.Engine, limits *Limits) error {
	tmpl, err := LoadTemplates()
	if err != nil {
		return err
	}
	r.SetHTMLTemplate(tmpl)

	apiLimit, formLimit := noLimit, noLimit
	if limits != nil {
		apiLimit = middleware.RateLimitMiddleware(limits.IP, limits.Quota)
		formLimit = middleware.RateLimitWith(limits.IP, limits.Quota, h.rejectForm)
	}

	// Health check endpoints (no rate limiting)
	r.GET("/health", h.HandleHealth)
	r.GET("/ready", h.HandleReadiness)

	// Server-rendered screens
	r.GET("/", h.HandleIndex)
	r.POST("/generate", formLimit, h.HandleGenerateForm)
	r.POST("/start-over", h.HandleStartOverForm)
	r.GET("/download", h.HandleDownload)

	api := r.Group("/api")
	{
		api.POST("/sessions", h.HandleCreateSession)
		api.GET("/sessions/:id", h.HandleGetSession)
		api.POST("/sessions/:id/generate", apiLimit, h.HandleGenerate)
		api.POST("/sessions/:id/start-over", h.HandleStartOver)
		api.GET("/sessions/:id/document", h.HandleDocument)
	}
	return nil
}

func noLimit(c *gin.Context) { c.Next() }

// renderDocument exports the session's product and writes it as a PDF attachment
func (h *Handler) renderDocument(c *gin.Context, snap flow.Snapshot) error {
	doc, err := document.Export(snap.Product)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := h.renderer.Render(doc, &buf); err != nil {
		return err
	}

	c.Header("Content-Disposition", contentDisposition(doc.Filename))
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
	log.Printf("[EXPORT] Session %s downloaded %s (%d bytes)", snap.ID, doc.Filename, buf.Len())
	return nil
}

// contentDisposition marks the response as a download. Non-ASCII names go in filename*.
func contentDisposition(filename string) string {
	if v := mime.FormatMediaType("attachment", map[string]string{"filename": filename}); v != "" {
		return v
	}
	return "attachment"
}

// errorCode maps a session failure to a stable API code
func errorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, flow.ErrValidation):
		return "VALIDATION_ERROR"
	case isRateLimitError(err):
		return "GEMINI_RATE_LIMITED"
	case errors.Is(err, context.DeadlineExceeded):
		return "TIMEOUT"
	case errors.Is(err, agent.ErrGenerationEmpty):
		return "GENERATION_EMPTY"
	case errors.Is(err, agent.ErrGenerationMalformed):
		return "GENERATION_MALFORMED"
	case errors.Is(err, agent.ErrNoImageProduced):
		return "NO_IMAGE_PRODUCED"
	case errors.Is(err, agent.ErrContentGenerationFailed):
		return "CONTENT_GENERATION_FAILED"
	case errors.Is(err, agent.ErrCoverGenerationFailed):
		return "COVER_GENERATION_FAILED"
	default:
		return "INTERNAL_ERROR"
	}
}

// isRateLimitError checks if the error is a Gemini API rate limit error
func isRateLimitError(err error) bool {
	// Check for gRPC ResourceExhausted status
	if s, ok := status.FromError(err); ok {
		return s.Code() == codes.ResourceExhausted
	}
	// The REST client reports "Error 429, ... Status: RESOURCE_EXHAUSTED"
	errStr := err.Error()
	return strings.Contains(errStr, "RESOURCE_EXHAUSTED") ||
		strings.Contains(errStr, "ResourceExhausted") ||
		strings.Contains(errStr, "429") ||
		strings.Contains(errStr, "rate limit") ||
		strings.Contains(errStr, "quota")
}

// injectionPatterns block obvious prompt injection before it reaches the model
var injectionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)ignore\s+(all\s+)?(previous|prior|above)\s+(instructions|prompts)`),
	regexp.MustCompile(`(?i)(reveal|print|show)\s+(your\s+|the\s+)?(system\s+)?prompt`),
	regexp.MustCompile(`(?i)you\s+are\s+now\s+(dan|in\s+developer\s+mode)`),
	regexp.MustCompile(`(?i)esque[çc]a\s+(todas\s+)?as\s+instru[çc][õo]es`),
}

// isInjectionAttempt checks user input against all injection patterns.
func isInjectionAttempt(inputs ...string) bool {
	for _, input := range inputs {
		for _, pattern := range injectionPatterns {
			if pattern.MatchString(input) {
				log.Printf("[SECURITY] Injection attempt blocked")
				return true
			}
		}
	}
	return false
}
