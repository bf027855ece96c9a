package handler

import (
	"errors"
	"html/template"
	"log"
	"net/http"
	"time"

	"product-studio/internal/document"
	"product-studio/internal/flow"
	"product-studio/internal/middleware"
	"product-studio/internal/model"

	"github.com/gin-gonic/gin"
	"golang.org/x/text/unicode/norm"
)

const sessionCookie = "studio_session"

// loadingMessageInterval is how long each progress message is shown
const loadingMessageInterval = 2500 * time.Millisecond

var loadingMessages = []string{
	"Consultando a criatividade da IA...",
	"Elaborando um título irresistível...",
	"Gerando uma capa com design profissional...",
	"Escrevendo o conteúdo do seu produto...",
	"Calculando o preço ideal...",
	"Quase pronto!",
}

// currentSession returns the cookie's session, creating one when missing or expired
func (h *Handler) currentSession(c *gin.Context) *flow.Session {
	if id, err := c.Cookie(sessionCookie); err == nil {
		if sess, ok := h.store.Get(id); ok {
			return sess
		}
	}

	sess := h.store.Create()
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessionCookie, sess.ID(), 0, "/", "", h.secureCookie, true)
	return sess
}

// HandleIndex renders the screen for the session's current step
func (h *Handler) HandleIndex(c *gin.Context) {
	snap := h.currentSession(c).Snapshot()

	switch snap.Step {
	case model.StepLoading:
		elapsed := time.Since(snap.UpdatedAt)
		c.HTML(http.StatusOK, "loading", gin.H{
			"Refresh": true,
			"Message": loadingMessage(elapsed),
		})
	case model.StepResult:
		if snap.Product == nil {
			h.renderIdea(c, http.StatusOK, snap, "Ocorreu um erro e o produto não pôde ser exibido.")
			return
		}
		c.HTML(http.StatusOK, "result", gin.H{
			"Product":  snap.Product,
			"CoverURL": template.URL(snap.Product.CoverImageURL),
			"Blocks":   document.ParseContent(snap.Product.Content),
		})
	default:
		h.renderIdea(c, http.StatusOK, snap, snap.Error)
	}
}

func (h *Handler) renderIdea(c *gin.Context, code int, snap flow.Snapshot, errMsg string) {
	c.HTML(code, "idea", gin.H{
		"Topic":    snap.Topic,
		"Audience": snap.Audience,
		"Error":    errMsg,
	})
}

// loadingMessage rotates the progress text on a fixed interval
func loadingMessage(elapsed time.Duration) string {
	if elapsed < 0 {
		elapsed = 0
	}
	return loadingMessages[int(elapsed/loadingMessageInterval)%len(loadingMessages)]
}

// HandleGenerateForm starts an attempt from the Idea form
func (h *Handler) HandleGenerateForm(c *gin.Context) {
	sess := h.currentSession(c)

	topic := norm.NFC.String(c.PostForm("topic"))
	audience := norm.NFC.String(c.PostForm("audience"))

	if isInjectionAttempt(topic, audience) {
		middleware.RefundQuota(c)
		h.renderIdea(c, http.StatusBadRequest, flow.Snapshot{}, "Esse pedido não pode ser atendido. Descreva um tópico e um público-alvo.")
		return
	}

	attempt, err := sess.Begin(topic, audience)
	if err != nil {
		middleware.RefundQuota(c)
		// Validation and in-progress both land back on "/", which shows the current step
		if !errors.Is(err, flow.ErrValidation) && !errors.Is(err, flow.ErrGenerationInProgress) {
			log.Printf("[FLOW] Unexpected Begin error: %v", err)
		}
		c.Redirect(http.StatusSeeOther, "/")
		return
	}

	h.store.Launch(attempt)
	c.Redirect(http.StatusSeeOther, "/")
}

// rejectForm keeps a rate-limited browser on the Idea screen with its inputs
func (h *Handler) rejectForm(c *gin.Context, r middleware.Rejection) {
	snap := h.currentSession(c).Snapshot()
	snap.Topic = c.PostForm("topic")
	snap.Audience = c.PostForm("audience")
	h.renderIdea(c, http.StatusTooManyRequests, snap, r.Message)
	c.Abort()
}

func (h *Handler) HandleStartOverForm(c *gin.Context) {
	h.currentSession(c).StartOver()
	c.Redirect(http.StatusSeeOther, "/")
}

// HandleDownload streams the PDF for the cookie's session
func (h *Handler) HandleDownload(c *gin.Context) {
	snap := h.currentSession(c).Snapshot()
	if snap.Step != model.StepResult || snap.Product == nil {
		c.Redirect(http.StatusSeeOther, "/")
		return
	}

	if err := h.renderDocument(c, snap); err != nil {
		log.Printf("[EXPORT] Session %s export failed: %v", snap.ID, err)
		c.String(http.StatusInternalServerError, "Não foi possível gerar o PDF.")
	}
}
