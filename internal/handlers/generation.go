package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/LOGQS/coursegen-backend/internal/services"
	"github.com/LOGQS/coursegen-backend/internal/session"
	"github.com/LOGQS/coursegen-backend/internal/types"
)

type GenerationHandler struct {
	svc      services.GenerationService
	registry *session.Registry
}

func NewGenerationHandler(svc services.GenerationService, registry *session.Registry) *GenerationHandler {
	return &GenerationHandler{svc: svc, registry: registry}
}

// POST /api/generate
func (h *GenerationHandler) Generate(c *gin.Context) {
	var req types.GenerationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	sessionID, err := h.svc.StartSession(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"session_id": sessionID,
		"status":     "started",
	})
}

// GET /api/session/:id/status
func (h *GenerationHandler) SessionStatus(c *gin.Context) {
	sess := h.registry.Get(c.Param("id"))
	if sess == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}
	c.JSON(http.StatusOK, sess)
}

// GET /api/progress/:id
func (h *GenerationHandler) Progress(c *gin.Context) {
	snap, ok := h.svc.TrackerSnapshot(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}
	c.JSON(http.StatusOK, snap)
}

// GET /api/progress/:id/statistics
func (h *GenerationHandler) Statistics(c *gin.Context) {
	snap, ok := h.svc.TrackerSnapshot(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"session_id": snap.SessionID,
		"statistics": snap.Statistics,
		"timing":     snap.Timing,
	})
}

// GET /api/progress/:id/stages
func (h *GenerationHandler) Stages(c *gin.Context) {
	report, ok := h.svc.ProgressReport(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"session_id": report.SessionID,
		"stages":     report.Stages,
		"overall":    report.OverallProgress,
	})
}

// GET /api/sessions
func (h *GenerationHandler) ListSessions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"sessions": h.registry.List()})
}
