package cvanalysis

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"recruit-backend/internal/extract"
	"recruit-backend/internal/shared/server/middleware"
	"recruit-backend/internal/shared/server/respond"
)

// Handler exposes the analysis endpoints.
type Handler struct {
	Svc            *Service
	MaxUploadBytes int64
}

// NewHandler constructs a Handler. maxUploadMB <= 0 selects 10MB per request.
func NewHandler(svc *Service, maxUploadMB int) *Handler {
	if maxUploadMB <= 0 {
		maxUploadMB = 10
	}
	return &Handler{Svc: svc, MaxUploadBytes: int64(maxUploadMB) << 20}
}

// RegisterRoutes attaches the /ai routes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/ai/analyze", h.analyze)
	rg.POST("/ai/bulk-analyze", h.bulkAnalyze)
	rg.POST("/ai/analyze-job-cvs", middleware.RequireAuth(), h.analyzeJobCVs)
	rg.GET("/ai/status", h.status)
	rg.POST("/ai/reload", middleware.RequireRole(middleware.RoleAdmin), h.reload)
}

func (h *Handler) analyze(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.MaxUploadBytes)

	fileHeader, err := c.FormFile("cv_file")
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "cv_file is required", nil)
		return
	}
	if !extract.Supported(filepath.Ext(fileHeader.Filename)) {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unsupported file format", gin.H{
			"filename":         fileHeader.Filename,
			"supportedFormats": extract.SupportedExtensions,
		})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
		return
	}
	defer file.Close()

	res, err := h.Svc.AnalyzeUpload(c.Request.Context(), fileHeader.Filename, file)
	if err != nil {
		h.fail(c, err, fileHeader.Filename)
		return
	}

	respond.OK(c, gin.H{
		"status":           "success",
		"filename":         res.Filename,
		"domain":           res.Domain,
		"confidence":       res.DomainConfidence,
		"quality":          res.Quality,
		"quality_score":    res.QualityScore,
		"skills":           res.Skills,
		"skills_count":     res.SkillsCount,
		"experience_years": res.ExperienceYears,
		"word_count":       res.WordCount,
		"text_preview":     res.TextPreview,
	})
}

func (h *Handler) bulkAnalyze(c *gin.Context) {
	if !h.Svc.Holder.Trained() {
		respond.Error(c, http.StatusServiceUnavailable, "model_not_trained", "cv analyzer is not trained", nil)
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.MaxUploadBytes)

	form, err := c.MultipartForm()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "multipart form is required", nil)
		return
	}
	files := uploadsFrom(form, "cv_files", "cv_files[]")
	if len(files) == 0 {
		respond.Error(c, http.StatusBadRequest, "validation_error", "cv_files is required", nil)
		return
	}

	topN := defaultTopN
	if v := strings.TrimSpace(c.PostForm("top_n")); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			respond.Error(c, http.StatusBadRequest, "validation_error", "top_n must be an integer", nil)
			return
		}
		topN = parsed
		if topN <= 0 {
			topN = -1
		}
	}

	report, err := h.Svc.BulkAnalyze(c.Request.Context(), files, c.PostForm("domain"), topN)
	if err != nil {
		h.fail(c, err, "")
		return
	}
	respond.OK(c, report)
}

func (h *Handler) analyzeJobCVs(c *gin.Context) {
	if !h.Svc.Holder.Trained() {
		respond.Error(c, http.StatusServiceUnavailable, "model_not_trained", "cv analyzer is not trained", nil)
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.MaxUploadBytes)

	form, err := c.MultipartForm()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "multipart form is required", nil)
		return
	}
	files := uploadsFrom(form, "files", "files[]")
	if len(files) == 0 {
		respond.Error(c, http.StatusBadRequest, "validation_error", "files is required", nil)
		return
	}

	req := JobRequest{
		JobID: strings.TrimSpace(c.PostForm("job_id")),
		JobCriteria: JobCriteria{
			Title:              c.PostForm("job_title"),
			CompanyName:        c.PostForm("company_name"),
			Description:        c.PostForm("job_description"),
			Requirements:       c.PostForm("job_requirements"),
			RequiredSkills:     c.PostForm("required_skills"),
			ExperienceRequired: c.PostForm("experience_required"),
		},
	}
	if req.JobID != "" {
		c.Set(middleware.JobIDKey, req.JobID)
	}

	report, err := h.Svc.AnalyzeForJob(c.Request.Context(), files, req)
	if err != nil {
		h.fail(c, err, "")
		return
	}
	respond.OK(c, report)
}

func (h *Handler) status(c *gin.Context) {
	respond.OK(c, h.Svc.Status(c.Request.Context()))
}

func (h *Handler) reload(c *gin.Context) {
	report, err := h.Svc.Reload(c.Request.Context())
	switch {
	case err == nil:
		respond.OK(c, report)
	case IsMissing(err):
		respond.Error(c, http.StatusNotFound, "model_not_found", "no trained model artifacts found", gin.H{"aiTrained": report.AITrained})
	default:
		respond.Error(c, http.StatusUnprocessableEntity, "model_invalid", "model artifacts could not be loaded", gin.H{"aiTrained": report.AITrained})
	}
}

func (h *Handler) fail(c *gin.Context, err error, fileName string) {
	var details any
	if fileName != "" {
		details = gin.H{"filename": fileName}
	}
	switch {
	case errors.Is(err, ErrUnsupportedFormat):
		respond.Error(c, http.StatusBadRequest, "validation_error", "unsupported file format", details)
	case errors.Is(err, ErrNoText):
		respond.Error(c, http.StatusBadRequest, "extraction_failed", "no text could be extracted from the CV", details)
	case errors.Is(err, ErrNotTrained):
		respond.Error(c, http.StatusServiceUnavailable, "model_not_trained", "cv analyzer is not trained", details)
	case errors.Is(err, ErrJobNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "job not found", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "cv analysis failed", details)
	}
}

func uploadsFrom(form *multipart.Form, keys ...string) []Upload {
	out := []Upload{}
	for _, key := range keys {
		for _, fh := range form.File[key] {
			fh := fh
			out = append(out, Upload{
				Name: fh.Filename,
				Open: func() (io.ReadCloser, error) { return fh.Open() },
			})
		}
	}
	return out
}
