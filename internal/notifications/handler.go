package notifications

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"recruit-backend/internal/shared/server/middleware"
	"recruit-backend/internal/shared/server/respond"
)

type Handler struct {
	Svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/notifications", middleware.RequireAuth())
	g.GET("", h.list)
	g.GET("/unread-count", h.unreadCount)
	g.POST("/read-all", h.readAll)
	g.POST("/:id/read", h.read)
}

func (h *Handler) list(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	offset, _ := strconv.Atoi(c.Query("offset"))
	unreadOnly, _ := strconv.ParseBool(c.Query("unread"))

	items, err := h.Svc.List(c.Request.Context(), middleware.UserIDFromContext(c), unreadOnly, limit, offset)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list notifications", nil)
		return
	}
	respond.List(c, items)
}

func (h *Handler) unreadCount(c *gin.Context) {
	count, err := h.Svc.UnreadCount(c.Request.Context(), middleware.UserIDFromContext(c))
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to count notifications", nil)
		return
	}
	respond.OK(c, gin.H{"unreadCount": count})
}

func (h *Handler) read(c *gin.Context) {
	err := h.Svc.MarkRead(c.Request.Context(), middleware.UserIDFromContext(c), c.Param("id"))
	switch {
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "notification not found", nil)
	case err != nil:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to update notification", nil)
	default:
		c.Status(http.StatusNoContent)
	}
}

func (h *Handler) readAll(c *gin.Context) {
	count, err := h.Svc.MarkAllRead(c.Request.Context(), middleware.UserIDFromContext(c))
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to update notifications", nil)
		return
	}
	respond.OK(c, gin.H{"updated": count})
}
