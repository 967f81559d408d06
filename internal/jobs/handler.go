package jobs

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

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
	staff := middleware.RequireRole(middleware.RoleRecruiter, middleware.RoleAdmin)

	rg.GET("/jobs", h.list)
	rg.GET("/jobs/stats", h.stats)
	rg.GET("/jobs/mine", staff, h.mine)
	rg.GET("/jobs/:id", h.get)
	rg.POST("/jobs", staff, h.create)
	rg.PATCH("/jobs/:id", staff, h.update)
	rg.POST("/jobs/:id/publish", staff, h.publish)
	rg.POST("/jobs/:id/pause", staff, h.pause)
	rg.POST("/jobs/:id/close", staff, h.close)
}

func (h *Handler) list(c *gin.Context) {
	f := Filter{
		Query:        strings.TrimSpace(c.Query("q")),
		Category:     strings.TrimSpace(c.Query("category")),
		Location:     strings.TrimSpace(c.Query("location")),
		ContractType: strings.ToLower(strings.TrimSpace(c.Query("contractType"))),
		Experience:   strings.TrimSpace(c.Query("experience")),
		Skills:       SplitSkills(c.Query("skills")),
	}
	if raw := strings.TrimSpace(c.Query("remote")); raw != "" {
		remote, err := strconv.ParseBool(raw)
		if err != nil {
			respond.Error(c, http.StatusBadRequest, "validation_error", "remote must be true or false", nil)
			return
		}
		f.Remote = &remote
	}
	f.Limit, f.Offset = pagination(c)

	jobs, err := h.Svc.ListPublished(c.Request.Context(), f)
	if err != nil {
		h.fail(c, err, "failed to list jobs")
		return
	}
	respond.List(c, jobs)
}

func (h *Handler) stats(c *gin.Context) {
	stats, err := h.Svc.Stats(c.Request.Context())
	if err != nil {
		h.fail(c, err, "failed to load job stats")
		return
	}
	respond.OK(c, stats)
}

func (h *Handler) mine(c *gin.Context) {
	limit, offset := pagination(c)
	jobs, err := h.Svc.Mine(c.Request.Context(), actorFrom(c), c.Query("status"), limit, offset)
	if err != nil {
		h.fail(c, err, "failed to list jobs")
		return
	}
	respond.List(c, jobs)
}

func (h *Handler) get(c *gin.Context) {
	c.Set(middleware.JobIDKey, c.Param("id"))
	job, err := h.Svc.View(c.Request.Context(), actorFrom(c), c.Param("id"))
	if err != nil {
		h.fail(c, err, "failed to load job")
		return
	}
	respond.OK(c, job)
}

func (h *Handler) create(c *gin.Context) {
	var in Input
	if err := c.ShouldBindJSON(&in); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	job, err := h.Svc.Create(c.Request.Context(), actorFrom(c), in)
	if err != nil {
		h.fail(c, err, "failed to create job")
		return
	}
	c.Set(middleware.JobIDKey, job.ID)
	respond.Created(c, job)
}

func (h *Handler) update(c *gin.Context) {
	c.Set(middleware.JobIDKey, c.Param("id"))
	var in Input
	if err := c.ShouldBindJSON(&in); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	job, err := h.Svc.Update(c.Request.Context(), actorFrom(c), c.Param("id"), in)
	if err != nil {
		h.fail(c, err, "failed to update job")
		return
	}
	respond.OK(c, job)
}

func (h *Handler) publish(c *gin.Context) { h.transition(c, h.Svc.Publish) }
func (h *Handler) pause(c *gin.Context)   { h.transition(c, h.Svc.Pause) }
func (h *Handler) close(c *gin.Context)   { h.transition(c, h.Svc.Close) }

type transitionFunc func(ctx context.Context, actor Actor, jobID string) (Job, string, error)

func (h *Handler) transition(c *gin.Context, fn transitionFunc) {
	jobID := c.Param("id")
	c.Set(middleware.JobIDKey, jobID)
	job, change, err := fn(c.Request.Context(), actorFrom(c), jobID)
	if err != nil {
		h.fail(c, err, "failed to change job status")
		return
	}
	c.Set(middleware.StatusTransitionKey, change)
	respond.OK(c, job)
}

func (h *Handler) fail(c *gin.Context, err error, msg string) {
	switch {
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "job not found", nil)
	case errors.Is(err, ErrForbidden):
		respond.Error(c, http.StatusForbidden, "forbidden", "not allowed to manage this job", nil)
	case errors.Is(err, ErrInvalidTransition):
		respond.Error(c, http.StatusConflict, "invalid_transition", err.Error(), nil)
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", msg, nil)
	}
}

func actorFrom(c *gin.Context) Actor {
	return Actor{ID: middleware.UserIDFromContext(c), Role: middleware.UserRoleFromContext(c)}
}

func pagination(c *gin.Context) (int, int) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	offset, _ := strconv.Atoi(c.Query("offset"))
	return limit, offset
}
