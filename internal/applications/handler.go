package applications

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"recruit-backend/internal/cvanalysis"
	"recruit-backend/internal/shared/server/middleware"
	"recruit-backend/internal/shared/server/respond"
	"recruit-backend/internal/shared/storage/object"
)

const maxUploadSize = 10 << 20 // 10MB

type Handler struct {
	Svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	staff := middleware.RequireRole(middleware.RoleRecruiter, middleware.RoleAdmin)

	rg.POST("/jobs/:id/applications", middleware.RequireRole(middleware.RoleCandidate), h.submit)
	rg.GET("/applications", middleware.RequireAuth(), h.list)
	rg.GET("/applications/:id", middleware.RequireAuth(), h.get)
	rg.PATCH("/applications/:id/status", staff, h.updateStatus)
	rg.POST("/applications/:id/withdraw", middleware.RequireRole(middleware.RoleCandidate), h.withdraw)
	rg.POST("/applications/:id/score", staff, h.score)
}

func (h *Handler) submit(c *gin.Context) {
	jobID := c.Param("id")
	c.Set(middleware.JobIDKey, jobID)
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadSize)

	fileHeader, err := c.FormFile("cv_file")
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "cv_file is required", nil)
		return
	}
	sub := Submission{
		CandidateID: middleware.UserIDFromContext(c),
		JobID:       jobID,
		CVFileName:  fileHeader.Filename,
		CoverLetter: c.PostForm("cover_letter"),
	}
	if raw := strings.TrimSpace(c.PostForm("salary_expectation")); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			respond.Error(c, http.StatusBadRequest, "validation_error", "salary_expectation must be an integer", nil)
			return
		}
		sub.SalaryExpectation = &v
	}

	file, err := fileHeader.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
		return
	}
	defer file.Close()

	app, err := h.Svc.Submit(c.Request.Context(), sub, file)
	if err != nil {
		h.fail(c, err, "failed to submit application")
		return
	}
	c.Set(middleware.ApplicationIDKey, app.ID)
	respond.Created(c, app)
}

func (h *Handler) list(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	offset, _ := strconv.Atoi(c.Query("offset"))
	apps, err := h.Svc.List(c.Request.Context(), actorFrom(c), Filter{
		JobID:  strings.TrimSpace(c.Query("jobId")),
		Status: strings.TrimSpace(c.Query("status")),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		h.fail(c, err, "failed to list applications")
		return
	}
	respond.List(c, apps)
}

func (h *Handler) get(c *gin.Context) {
	c.Set(middleware.ApplicationIDKey, c.Param("id"))
	app, err := h.Svc.Get(c.Request.Context(), actorFrom(c), c.Param("id"))
	if err != nil {
		h.fail(c, err, "failed to load application")
		return
	}
	respond.OK(c, app)
}

func (h *Handler) updateStatus(c *gin.Context) {
	c.Set(middleware.ApplicationIDKey, c.Param("id"))
	var req StatusChange
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	app, change, err := h.Svc.UpdateStatus(c.Request.Context(), actorFrom(c), c.Param("id"), req)
	if err != nil {
		h.fail(c, err, "failed to update application")
		return
	}
	c.Set(middleware.StatusTransitionKey, change)
	respond.OK(c, app)
}

func (h *Handler) withdraw(c *gin.Context) {
	c.Set(middleware.ApplicationIDKey, c.Param("id"))
	app, err := h.Svc.Withdraw(c.Request.Context(), actorFrom(c), c.Param("id"))
	if err != nil {
		h.fail(c, err, "failed to withdraw application")
		return
	}
	respond.OK(c, app)
}

func (h *Handler) score(c *gin.Context) {
	c.Set(middleware.ApplicationIDKey, c.Param("id"))
	app, err := h.Svc.Score(c.Request.Context(), actorFrom(c), c.Param("id"))
	if err != nil {
		h.fail(c, err, "failed to score application")
		return
	}
	respond.OK(c, app)
}

func (h *Handler) fail(c *gin.Context, err error, msg string) {
	switch {
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "application not found", nil)
	case errors.Is(err, ErrJobNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "job not found", nil)
	case errors.Is(err, ErrDuplicate):
		respond.Error(c, http.StatusConflict, "duplicate_application", "you already applied to this job", nil)
	case errors.Is(err, ErrJobClosed):
		respond.Error(c, http.StatusConflict, "job_closed", err.Error(), nil)
	case errors.Is(err, ErrJobFull):
		respond.Error(c, http.StatusConflict, "job_full", err.Error(), nil)
	case errors.Is(err, ErrInvalidTransition):
		respond.Error(c, http.StatusConflict, "invalid_transition", err.Error(), nil)
	case errors.Is(err, ErrForbidden):
		respond.Error(c, http.StatusForbidden, "forbidden", "not allowed", nil)
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case errors.Is(err, object.ErrInvalidFileName):
		respond.Error(c, http.StatusBadRequest, "validation_error", "cv file name is not valid", nil)
	case errors.Is(err, cvanalysis.ErrNoText):
		respond.Error(c, http.StatusUnprocessableEntity, "extraction_failed", "no text could be extracted from the CV", nil)
	case errors.Is(err, cvanalysis.ErrNotTrained):
		respond.Error(c, http.StatusServiceUnavailable, "model_not_trained", "cv analyzer is not trained", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", msg, nil)
	}
}

func actorFrom(c *gin.Context) Actor {
	return Actor{ID: middleware.UserIDFromContext(c), Role: middleware.UserRoleFromContext(c)}
}
