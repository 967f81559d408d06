package users

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"recruit-backend/internal/shared/server/middleware"
	"recruit-backend/internal/shared/server/respond"
	"recruit-backend/internal/shared/telemetry"
)

type Handler struct {
	Svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/me", middleware.RequireAuth(), h.me)
	rg.PATCH("/me", middleware.RequireAuth(), h.updateMe)
	rg.GET("/users", middleware.RequireRole(middleware.RoleAdmin), h.list)
	rg.PATCH("/users/:id/role", middleware.RequireRole(middleware.RoleAdmin), h.setRole)
}

// EnsureUser creates a user row for authenticated callers seen for the first
// time, so that records they own can reference them.
func EnsureUser(svc *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		if middleware.UserIDFromContext(c) == "" {
			c.Next()
			return
		}
		if err := svc.Ensure(c.Request.Context(), identityFrom(c)); err != nil {
			telemetry.Error("users.ensure_failed", map[string]any{
				"user_id": middleware.UserIDFromContext(c),
				"error":   err.Error(),
			})
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to load user", nil)
			return
		}
		c.Next()
	}
}

func (h *Handler) me(c *gin.Context) {
	user, err := h.Svc.Sync(c.Request.Context(), identityFrom(c))
	if err != nil {
		h.fail(c, err, "failed to load user")
		return
	}
	respond.OK(c, user)
}

func (h *Handler) updateMe(c *gin.Context) {
	var req ProfileUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	user, err := h.Svc.UpdateProfile(c.Request.Context(), middleware.UserIDFromContext(c), req)
	if err != nil {
		h.fail(c, err, "failed to update profile")
		return
	}
	respond.OK(c, user)
}

func (h *Handler) list(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	offset, _ := strconv.Atoi(c.Query("offset"))
	users, err := h.Svc.List(c.Request.Context(), c.Query("role"), limit, offset)
	if err != nil {
		h.fail(c, err, "failed to list users")
		return
	}
	respond.List(c, users)
}

type roleRequest struct {
	Role string `json:"role"`
}

func (h *Handler) setRole(c *gin.Context) {
	var req roleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	user, err := h.Svc.SetRole(c.Request.Context(), c.Param("id"), req.Role)
	if err != nil {
		h.fail(c, err, "failed to update role")
		return
	}
	respond.OK(c, user)
}

func (h *Handler) fail(c *gin.Context, err error, msg string) {
	switch {
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "user not found", nil)
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", msg, nil)
	}
}

func identityFrom(c *gin.Context) Identity {
	first, last := middleware.UserNamesFromContext(c)
	return Identity{
		ID:        middleware.UserIDFromContext(c),
		Email:     middleware.UserEmailFromContext(c),
		FirstName: first,
		LastName:  last,
		Role:      middleware.UserRoleFromContext(c),
	}
}
