package pipeline

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"annonce-backend/internal/record"
	"annonce-backend/internal/shared/server/respond"
)

const maxAudioSize = 25 << 20 // 25MB

// Handler exposes recording sessions over HTTP.
type Handler struct {
	Orch *Orchestrator
}

// NewHandler constructs a Handler.
func NewHandler(orch *Orchestrator) *Handler {
	return &Handler{Orch: orch}
}

// RegisterRoutes attaches session routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/sessions", h.start)
	rg.GET("/sessions/:id", h.get)
	rg.POST("/sessions/:id/audio", h.audio)
	rg.POST("/sessions/:id/stop", h.stop)
	rg.POST("/sessions/:id/cancel", h.cancel)
}

func (h *Handler) start(c *gin.Context) {
	snap, err := h.Orch.Start(c.Request.Context())
	if err != nil {
		switch {
		case errors.Is(err, ErrPermissionRequired):
			respond.Error(c, http.StatusForbidden, "permission_required", err.Error(), nil)
		case errors.Is(err, record.ErrBusy):
			respond.Error(c, http.StatusConflict, "capture_busy", "another recording session is active", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal", "failed to start session", err.Error())
		}
		return
	}
	c.Set("sessionId", snap.ID)
	respond.JSON(c, http.StatusCreated, snap)
}

func (h *Handler) get(c *gin.Context) {
	snap, err := h.Orch.Get(c.Param("id"))
	if err != nil {
		respond.Error(c, http.StatusNotFound, "not_found", "session not found", nil)
		return
	}
	respond.OK(c, snap)
}

// audio streams captured bytes into the active recording.
func (h *Handler) audio(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxAudioSize)
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read audio body", nil)
		return
	}
	if err := h.Orch.Ingest(c.Param("id"), body); err != nil {
		h.sessionError(c, err, "failed to ingest audio")
		return
	}
	respond.OK(c, gin.H{"ok": true})
}

// stop accepts an optional final audio chunk in the request body, then runs
// the session to a terminal state.
func (h *Handler) stop(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxAudioSize)
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read audio body", nil)
		return
	}
	if len(body) > 0 {
		if err := h.Orch.Ingest(c.Param("id"), body); err != nil {
			h.sessionError(c, err, "failed to ingest audio")
			return
		}
	}

	snap, err := h.Orch.Stop(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.sessionError(c, err, "failed to stop session")
		return
	}
	c.Set("sessionId", snap.ID)
	if snap.EntryID != "" {
		c.Set("entryId", snap.EntryID)
	}
	respond.OK(c, snap)
}

func (h *Handler) cancel(c *gin.Context) {
	snap, err := h.Orch.Cancel(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.sessionError(c, err, "failed to cancel session")
		return
	}
	respond.OK(c, snap)
}

func (h *Handler) sessionError(c *gin.Context, err error, msg string) {
	switch {
	case errors.Is(err, ErrSessionNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "session not found", nil)
	case errors.Is(err, ErrInvalidState):
		respond.Error(c, http.StatusConflict, "invalid_state", err.Error(), nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal", msg, err.Error())
	}
}
