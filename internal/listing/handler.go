package listing

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"annonce-backend/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches entry routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/entries", h.list)
	rg.GET("/entries/:id", h.get)
	rg.PUT("/entries/:id", h.update)
	rg.DELETE("/entries/:id", h.remove)
	rg.POST("/entries/:id/resend", h.resend)
}

func (h *Handler) list(c *gin.Context) {
	entries, err := h.Svc.List(c.Request.Context())
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal", "failed to list entries", err.Error())
		return
	}
	respond.OK(c, gin.H{"entries": entries})
}

func (h *Handler) get(c *gin.Context) {
	entry, err := h.Svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "not_found", "entry not found", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal", "failed to fetch entry", err.Error())
		return
	}
	respond.OK(c, entry)
}

func (h *Handler) update(c *gin.Context) {
	var fields Fields
	if err := c.ShouldBindJSON(&fields); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid entry payload", err.Error())
		return
	}

	entry, err := h.Svc.Edit(c.Request.Context(), c.Param("id"), fields)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "not_found", "entry not found", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal", "failed to update entry", err.Error())
		return
	}
	respond.OK(c, entry)
}

func (h *Handler) remove(c *gin.Context) {
	if err := h.Svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		if errors.Is(err, ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "not_found", "entry not found", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal", "failed to delete entry", err.Error())
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) resend(c *gin.Context) {
	entry, err := h.Svc.Notify(c.Request.Context(), c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "entry not found", nil)
		case errors.Is(err, ErrNotificationFailed):
			respond.Error(c, http.StatusBadGateway, "notification_failed", "entry saved, but email was not sent", err.Error())
		default:
			respond.Error(c, http.StatusInternalServerError, "internal", "failed to resend email", err.Error())
		}
		return
	}
	c.Set("entryId", entry.ID)
	respond.OK(c, entry)
}
