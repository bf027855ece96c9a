package handler

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"product-studio/internal/flow"
	"product-studio/internal/middleware"
	"product-studio/internal/model"

	"github.com/gin-gonic/gin"
	"golang.org/x/text/unicode/norm"
)

// GenerateRequest caps each field at the sanitizer's rune limit
type GenerateRequest struct {
	Topic    string `json:"topic" binding:"max=200"`
	Audience string `json:"audience" binding:"max=200"`
}

// SessionResponse is a session snapshot plus a machine-readable error code
type SessionResponse struct {
	flow.Snapshot
	ErrorCode string `json:"errorCode,omitempty"`
}

func newSessionResponse(snap flow.Snapshot) SessionResponse {
	return SessionResponse{Snapshot: snap, ErrorCode: errorCode(snap.Cause)}
}

// lookupSession resolves :id or writes a 404
func (h *Handler) lookupSession(c *gin.Context) (*flow.Session, bool) {
	sess, ok := h.store.Get(c.Param("id"))
	if !ok {
		middleware.RefundQuota(c)
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Session not found",
			"code":  "SESSION_NOT_FOUND",
		})
		return nil, false
	}
	return sess, true
}

func (h *Handler) HandleCreateSession(c *gin.Context) {
	sess := h.store.Create()
	c.JSON(http.StatusCreated, newSessionResponse(sess.Snapshot()))
}

func (h *Handler) HandleGetSession(c *gin.Context) {
	sess, ok := h.lookupSession(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, newSessionResponse(sess.Snapshot()))
}

// HandleGenerate validates the inputs, moves the session to Loading and
// runs the attempt in the background. Clients poll HandleGetSession.
func (h *Handler) HandleGenerate(c *gin.Context) {
	sess, ok := h.lookupSession(c)
	if !ok {
		return
	}

	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RefundQuota(c)
		if strings.Contains(err.Error(), "max") {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Topic and audience must be at most 200 characters",
				"code":  "INPUT_TOO_LONG",
			})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request body",
			"code":  "INVALID_REQUEST",
		})
		return
	}

	// Normalize Unicode to NFC form before security checks
	topic := norm.NFC.String(req.Topic)
	audience := norm.NFC.String(req.Audience)

	if isInjectionAttempt(topic, audience) {
		middleware.RefundQuota(c)
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Esse pedido não pode ser atendido. Descreva um tópico e um público-alvo.",
			"code":  "INPUT_REJECTED",
		})
		return
	}

	attempt, err := sess.Begin(topic, audience)
	if err != nil {
		middleware.RefundQuota(c)
	}
	switch {
	case errors.Is(err, flow.ErrValidation):
		c.JSON(http.StatusBadRequest, newSessionResponse(sess.Snapshot()))
		return
	case errors.Is(err, flow.ErrGenerationInProgress):
		c.JSON(http.StatusConflict, gin.H{
			"error": "A generation is already in progress for this session",
			"code":  "GENERATION_IN_PROGRESS",
		})
		return
	case err != nil:
		log.Printf("[FLOW] Unexpected Begin error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error", "code": "INTERNAL_ERROR"})
		return
	}

	h.store.Launch(attempt)
	c.JSON(http.StatusAccepted, newSessionResponse(sess.Snapshot()))
}

func (h *Handler) HandleStartOver(c *gin.Context) {
	sess, ok := h.lookupSession(c)
	if !ok {
		return
	}
	sess.StartOver()
	c.JSON(http.StatusOK, newSessionResponse(sess.Snapshot()))
}

func (h *Handler) HandleDocument(c *gin.Context) {
	sess, ok := h.lookupSession(c)
	if !ok {
		return
	}

	snap := sess.Snapshot()
	if snap.Step != model.StepResult || snap.Product == nil {
		c.JSON(http.StatusConflict, gin.H{
			"error": "The product is not ready yet",
			"code":  "NOT_READY",
			"step":  snap.Step,
		})
		return
	}

	if err := h.renderDocument(c, snap); err != nil {
		log.Printf("[EXPORT] Session %s export failed: %v", snap.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to export the document",
			"code":  "EXPORT_FAILED",
		})
	}
}
