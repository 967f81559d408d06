package cvanalysis

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"recruit-backend/internal/extract"
	"recruit-backend/internal/modelregistry"
	"recruit-backend/internal/shared/metrics"
	"recruit-backend/internal/shared/telemetry"
)

const (
	previewRunes        = 500
	defaultTopN         = 10
	summaryTopN         = 10
	rankedCandidatesTop = 10
	// DefaultBulkDomain is used when a bulk request names no domain.
	DefaultBulkDomain = "information_technology"
)

// AvailableDomains is the catalog advertised by the status endpoint.
var AvailableDomains = []string{
	"information_technology", "teacher", "advocate", "accountant",
	"engineering", "healthcare", "finance", "banking", "sales",
	"marketing", "hr", "consultant", "designer", "chef",
}

// ErrJobNotFound is returned when a job-specific analysis names an unknown job.
var ErrJobNotFound = errors.New("job not found")

// JobLookup resolves stored jobs into match criteria.
type JobLookup interface {
	JobCriteria(ctx context.Context, jobID string) (JobCriteria, error)
}

// RunSource exposes the latest training run.
type RunSource interface {
	Latest(ctx context.Context) (modelregistry.Run, error)
}

// Upload is one file received for analysis.
type Upload struct {
	Name string
	Open func() (io.ReadCloser, error)
}

// DomainSummary groups bulk results per predicted domain.
type DomainSummary struct {
	Count         int      `json:"count"`
	TopCandidates []Result `json:"top_candidates"`
}

// BulkReport is the outcome of BulkAnalyze.
type BulkReport struct {
	TotalFiles     int                      `json:"total_files"`
	ProcessedFiles int                      `json:"processed_files"`
	Results        []Result                 `json:"results"`
	Summary        map[string]DomainSummary `json:"summary"`
	TopCandidates  []Result                 `json:"top_candidates"`
}

// JobRequest describes the job for a job-specific analysis. Empty fields
// are filled from the stored job when JobID is set.
type JobRequest struct {
	JobID string
	JobCriteria
}

// JobInfo echoes the job a ranking was computed for.
type JobInfo struct {
	Title          string   `json:"title"`
	Company        string   `json:"company"`
	RequiredSkills []string `json:"required_skills"`
}

// JobResult is an analysis with its job-match score.
type JobResult struct {
	Result
	JobMatchScore float64 `json:"job_match_score"`
}

// JobReport is the outcome of AnalyzeForJob.
type JobReport struct {
	TotalFiles       int         `json:"total_files"`
	ProcessedFiles   int         `json:"processed_files"`
	JobInfo          JobInfo     `json:"job_info"`
	Results          []JobResult `json:"results"`
	RankedCandidates []JobResult `json:"ranked_candidates"`
}

// StatusReport describes the analyzer state.
type StatusReport struct {
	AITrained        bool               `json:"ai_trained"`
	AvailableDomains []string           `json:"available_domains"`
	SupportedFormats []string           `json:"supported_formats"`
	Status           string             `json:"status"`
	Model            *modelregistry.Run `json:"model,omitempty"`
}

// Service runs CV analyses against the live analyzer.
type Service struct {
	Holder *Holder
	Jobs   JobLookup
	Runs   RunSource
}

// NewService constructs a Service. jobs and runs may be nil.
func NewService(holder *Holder, jobs JobLookup, runs RunSource) *Service {
	return &Service{Holder: holder, Jobs: jobs, Runs: runs}
}

// AnalyzeUpload extracts and classifies one uploaded CV.
func (s *Service) AnalyzeUpload(ctx context.Context, fileName string, r io.Reader) (Result, error) {
	ext := strings.ToLower(filepath.Ext(fileName))
	if !extract.Supported(ext) {
		return Result{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	text, err := extractUpload(ctx, ext, r)
	if err != nil {
		return Result{}, err
	}
	res, err := s.analyzeText(fileName, text)
	if err != nil {
		return Result{}, err
	}
	res.TextPreview = Preview(text)
	return res, nil
}

// BulkAnalyze classifies every readable file and ranks the requested
// domain. Per-file failures are logged and skipped.
func (s *Service) BulkAnalyze(ctx context.Context, files []Upload, domain string, topN int) (BulkReport, error) {
	if !s.Holder.Trained() {
		return BulkReport{}, ErrNotTrained
	}
	if strings.TrimSpace(domain) == "" {
		domain = DefaultBulkDomain
	}
	if topN == 0 {
		topN = defaultTopN
	}

	results := []Result{}
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return BulkReport{}, err
		}
		text, err := s.readUpload(ctx, f)
		if err != nil {
			telemetry.Warn("cv.bulk.file_skipped", map[string]any{"file": f.Name, "error": err.Error()})
			continue
		}
		res, err := s.analyzeText(f.Name, text)
		if err != nil {
			telemetry.Warn("cv.bulk.file_skipped", map[string]any{"file": f.Name, "error": err.Error()})
			continue
		}
		results = append(results, res)
	}
	if len(results) == 0 {
		return BulkReport{}, ErrNoText
	}

	summary := map[string]DomainSummary{}
	for _, r := range results {
		sum := summary[r.Domain]
		sum.Count++
		summary[r.Domain] = sum
	}
	for d, sum := range summary {
		sum.TopCandidates = TopCandidates(results, d, summaryTopN)
		summary[d] = sum
	}

	return BulkReport{
		TotalFiles:     len(files),
		ProcessedFiles: len(results),
		Results:        results,
		Summary:        summary,
		TopCandidates:  TopCandidates(results, domain, topN),
	}, nil
}

// AnalyzeForJob ranks CVs against a job. CVs outside the required
// experience range are dropped before scoring.
func (s *Service) AnalyzeForJob(ctx context.Context, files []Upload, req JobRequest) (JobReport, error) {
	if !s.Holder.Trained() {
		return JobReport{}, ErrNotTrained
	}
	job, err := s.resolveJob(ctx, req)
	if err != nil {
		return JobReport{}, err
	}

	results := []JobResult{}
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return JobReport{}, err
		}
		text, err := s.readUpload(ctx, f)
		if err != nil {
			telemetry.Warn("cv.job.file_skipped", map[string]any{"file": f.Name, "error": err.Error()})
			continue
		}
		scored, err := s.ScoreText(f.Name, text, job)
		if err != nil {
			telemetry.Warn("cv.job.file_skipped", map[string]any{"file": f.Name, "error": err.Error()})
			continue
		}
		if !WithinExperienceRange(job.ExperienceRequired, scored.ExperienceYears) {
			telemetry.Info("cv.job.filtered_experience", map[string]any{
				"file": f.Name, "experience_years": scored.ExperienceYears, "required": job.ExperienceRequired,
			})
			continue
		}
		results = append(results, scored)
	}

	ranked := append([]JobResult(nil), results...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].JobMatchScore > ranked[j].JobMatchScore
	})
	if len(ranked) > rankedCandidatesTop {
		ranked = ranked[:rankedCandidatesTop]
	}

	return JobReport{
		TotalFiles:     len(files),
		ProcessedFiles: len(results),
		JobInfo: JobInfo{
			Title:          job.Title,
			Company:        job.CompanyName,
			RequiredSkills: RequiredSkills(job.RequiredSkills),
		},
		Results:          results,
		RankedCandidates: ranked,
	}, nil
}

// ScoreText analyzes an already extracted CV and scores it against job.
func (s *Service) ScoreText(fileName, text string, job JobCriteria) (JobResult, error) {
	res, err := s.analyzeText(fileName, text)
	if err != nil {
		return JobResult{}, err
	}
	return JobResult{Result: res, JobMatchScore: JobMatchScore(text, res.Analysis, job)}, nil
}

// Status reports whether the analyzer is trained along with the latest
// registered training run.
func (s *Service) Status(ctx context.Context) StatusReport {
	trained := s.Holder.Trained()
	report := StatusReport{
		AITrained:        trained,
		AvailableDomains: append([]string(nil), AvailableDomains...),
		SupportedFormats: append([]string(nil), extract.SupportedExtensions...),
		Status:           "untrained",
	}
	if trained {
		report.Status = "operational"
	}
	if s.Runs != nil {
		run, err := s.Runs.Latest(ctx)
		switch {
		case err == nil:
			report.Model = &run
		case !errors.Is(err, modelregistry.ErrNotFound):
			telemetry.Warn("cv.status.registry_failed", map[string]any{"error": err.Error()})
		}
	}
	return report
}

// Reload re-reads the model artifacts so a freshly trained model reaches a
// running process. A failed reload keeps the live analyzer.
func (s *Service) Reload(ctx context.Context) (StatusReport, error) {
	if err := s.Holder.Reload(); err != nil {
		return s.Status(ctx), err
	}
	return s.Status(ctx), nil
}

// Preview returns the first 500 characters of text, with "..." appended
// when it was truncated.
func Preview(text string) string {
	runes := []rune(text)
	if len(runes) <= previewRunes {
		return text
	}
	return string(runes[:previewRunes]) + "..."
}

func (s *Service) analyzeText(fileName, text string) (Result, error) {
	start := time.Now()
	a, err := s.Holder.Current().Analyze(text)
	if err != nil {
		metrics.IncCVAnalysesFailed()
		return Result{}, err
	}
	metrics.IncCVAnalyses()
	metrics.ObserveCVAnalysisDurationMs(metrics.Since(start))
	return Result{Filename: fileName, Analysis: a}, nil
}

func (s *Service) resolveJob(ctx context.Context, req JobRequest) (JobCriteria, error) {
	job := req.JobCriteria
	if strings.TrimSpace(req.JobID) == "" || s.Jobs == nil {
		return job, nil
	}
	stored, err := s.Jobs.JobCriteria(ctx, req.JobID)
	if err != nil {
		return JobCriteria{}, err
	}
	fill := func(dst *string, v string) {
		if strings.TrimSpace(*dst) == "" {
			*dst = v
		}
	}
	fill(&job.Title, stored.Title)
	fill(&job.CompanyName, stored.CompanyName)
	fill(&job.Description, stored.Description)
	fill(&job.Requirements, stored.Requirements)
	fill(&job.RequiredSkills, stored.RequiredSkills)
	fill(&job.ExperienceRequired, stored.ExperienceRequired)
	return job, nil
}

func (s *Service) readUpload(ctx context.Context, f Upload) (string, error) {
	ext := strings.ToLower(filepath.Ext(f.Name))
	if !extract.Supported(ext) {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	body, err := f.Open()
	if err != nil {
		return "", err
	}
	defer body.Close()
	return extractUpload(ctx, ext, body)
}

// extractUpload spools r to a temp file and extracts its text. The temp
// file is removed on every path.
func extractUpload(ctx context.Context, ext string, r io.Reader) (string, error) {
	tmp, err := os.CreateTemp("", "cv-*"+ext)
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return "", fmt.Errorf("spool upload: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("spool upload: %w", err)
	}

	text := extract.FromFile(ctx, tmp.Name(), ext)
	if strings.TrimSpace(text) == "" {
		metrics.IncCVExtractionEmpty()
		return "", ErrNoText
	}
	return text, nil
}
