package jobs

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"recruit-backend/internal/cvanalysis"
	"recruit-backend/internal/shared/telemetry"
	"recruit-backend/internal/users"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
	recentJobs       = 5
	topCategories    = 5
)

var experiencePattern = regexp.MustCompile(`^\d+(\s*-\s*\d+|\+)$`)

// Actor is the authenticated caller acting on jobs.
type Actor struct {
	ID   string
	Role string
}

// CanManage reports whether a may edit or transition job.
func (a Actor) CanManage(job Job) bool {
	return a.Role == users.RoleAdmin || (a.ID != "" && a.ID == job.PostedBy)
}

// ApplicationCounter counts stored applications.
type ApplicationCounter interface {
	CountAll(ctx context.Context) (int, error)
}

type Service struct {
	Repo         Repo
	Applications ApplicationCounter
	now          func() time.Time
}

// NewService constructs a Service. applications may be nil.
func NewService(repo Repo, applications ApplicationCounter) *Service {
	return &Service{Repo: repo, Applications: applications, now: time.Now}
}

// Create stores a new draft job owned by actor.
func (s *Service) Create(ctx context.Context, actor Actor, in Input) (Job, error) {
	if actor.ID == "" {
		return Job{}, ErrForbidden
	}
	job := Job{
		ID:              uuid.NewString(),
		ContractType:    ContractCDI,
		Status:          StatusDraft,
		PostedBy:        actor.ID,
		MaxApplications: defaultMaxApplications,
	}
	apply(&job, in)
	if err := s.validate(job, in.ApplicationDeadline); err != nil {
		return Job{}, err
	}
	if err := s.Repo.Create(ctx, job); err != nil {
		return Job{}, err
	}
	telemetry.Info("jobs.created", map[string]any{"job_id": job.ID, "posted_by": actor.ID})
	return s.Repo.GetByID(ctx, job.ID)
}

// Update applies the non-nil fields of in. Closed jobs cannot be edited.
func (s *Service) Update(ctx context.Context, actor Actor, jobID string, in Input) (Job, error) {
	job, err := s.managed(ctx, actor, jobID)
	if err != nil {
		return Job{}, err
	}
	if job.Status == StatusClosed {
		return Job{}, fmt.Errorf("%w: closed jobs cannot be edited", ErrInvalidTransition)
	}
	apply(&job, in)
	if err := s.validate(job, in.ApplicationDeadline); err != nil {
		return Job{}, err
	}
	if err := s.Repo.Update(ctx, job); err != nil {
		return Job{}, err
	}
	return s.Repo.GetByID(ctx, jobID)
}

// GetByID returns a job without visibility checks.
func (s *Service) GetByID(ctx context.Context, jobID string) (Job, error) {
	if strings.TrimSpace(jobID) == "" {
		return Job{}, ErrNotFound
	}
	return s.Repo.GetByID(ctx, jobID)
}

// View returns a job detail and counts the view. Jobs that are not published
// are only visible to their owner and admins.
func (s *Service) View(ctx context.Context, actor Actor, jobID string) (Job, error) {
	job, err := s.GetByID(ctx, jobID)
	if err != nil {
		return Job{}, err
	}
	if job.Status != StatusPublished && !actor.CanManage(job) {
		return Job{}, ErrNotFound
	}
	if err := s.Repo.IncrementViews(ctx, jobID); err != nil {
		telemetry.Warn("jobs.views_failed", map[string]any{"job_id": jobID, "error": err.Error()})
		return job, nil
	}
	job.ViewsCount++
	return job, nil
}

// ListPublished lists published jobs matching f.
func (s *Service) ListPublished(ctx context.Context, f Filter) ([]Job, error) {
	f.Status = StatusPublished
	f.PostedBy = ""
	return s.Repo.List(ctx, page(f))
}

// Mine lists the jobs posted by actor in any status, or only status when set.
func (s *Service) Mine(ctx context.Context, actor Actor, status string, limit, offset int) ([]Job, error) {
	if actor.ID == "" {
		return nil, ErrForbidden
	}
	if status != "" && !validStatus(status) {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, status)
	}
	return s.Repo.List(ctx, page(Filter{PostedBy: actor.ID, Status: status, Limit: limit, Offset: offset}))
}

// Publish moves a draft or paused job to published.
func (s *Service) Publish(ctx context.Context, actor Actor, jobID string) (Job, string, error) {
	return s.transition(ctx, actor, jobID, StatusPublished, StatusDraft, StatusPaused)
}

// Pause moves a published job to paused.
func (s *Service) Pause(ctx context.Context, actor Actor, jobID string) (Job, string, error) {
	return s.transition(ctx, actor, jobID, StatusPaused, StatusPublished)
}

// Close moves any job that is not closed yet to closed.
func (s *Service) Close(ctx context.Context, actor Actor, jobID string) (Job, string, error) {
	return s.transition(ctx, actor, jobID, StatusClosed, StatusDraft, StatusPublished, StatusPaused)
}

// Stats summarizes the board for the public stats endpoint.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	counts, err := s.Repo.CountByStatus(ctx)
	if err != nil {
		return Stats{}, err
	}
	stats := Stats{ActiveJobs: counts[StatusPublished]}
	for _, n := range counts {
		stats.TotalJobs += n
	}
	if stats.TopCategories, err = s.Repo.TopCategories(ctx, StatusPublished, topCategories); err != nil {
		return Stats{}, err
	}
	if stats.RecentJobs, err = s.Repo.List(ctx, Filter{Status: StatusPublished, Limit: recentJobs}); err != nil {
		return Stats{}, err
	}
	if s.Applications != nil {
		if stats.TotalApplications, err = s.Applications.CountAll(ctx); err != nil {
			return Stats{}, err
		}
	}
	return stats, nil
}

// JobCriteria resolves a stored job into CV match criteria.
func (s *Service) JobCriteria(ctx context.Context, jobID string) (cvanalysis.JobCriteria, error) {
	job, err := s.GetByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return cvanalysis.JobCriteria{}, cvanalysis.ErrJobNotFound
		}
		return cvanalysis.JobCriteria{}, err
	}
	return Criteria(job), nil
}

// Criteria maps a job onto CV match criteria.
func Criteria(job Job) cvanalysis.JobCriteria {
	return cvanalysis.JobCriteria{
		Title:              job.Title,
		CompanyName:        job.CompanyName,
		Description:        job.Description,
		Requirements:       job.Requirements,
		RequiredSkills:     job.SkillsRequired,
		ExperienceRequired: job.ExperienceRequired,
	}
}

func (s *Service) transition(ctx context.Context, actor Actor, jobID, to string, from ...string) (Job, string, error) {
	job, err := s.managed(ctx, actor, jobID)
	if err != nil {
		return Job{}, "", err
	}
	prev := job.Status
	allowed := false
	for _, f := range from {
		if prev == f {
			allowed = true
			break
		}
	}
	if !allowed {
		return Job{}, "", fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, prev, to)
	}
	job.Status = to
	if err := s.Repo.Update(ctx, job); err != nil {
		return Job{}, "", err
	}
	telemetry.Info("jobs.status_changed", map[string]any{"job_id": jobID, "from": prev, "to": to, "actor": actor.ID})
	updated, err := s.Repo.GetByID(ctx, jobID)
	if err != nil {
		return Job{}, "", err
	}
	return updated, prev + "->" + to, nil
}

// managed loads a job the actor may manage. Jobs owned by someone else are
// reported as forbidden.
func (s *Service) managed(ctx context.Context, actor Actor, jobID string) (Job, error) {
	job, err := s.GetByID(ctx, jobID)
	if err != nil {
		return Job{}, err
	}
	if !actor.CanManage(job) {
		return Job{}, ErrForbidden
	}
	return job, nil
}

func (s *Service) validate(job Job, deadline *time.Time) error {
	switch {
	case job.Title == "":
		return fmt.Errorf("%w: title is required", ErrInvalidInput)
	case job.CompanyName == "":
		return fmt.Errorf("%w: companyName is required", ErrInvalidInput)
	case job.Description == "":
		return fmt.Errorf("%w: description is required", ErrInvalidInput)
	case !ValidContractType(job.ContractType):
		return fmt.Errorf("%w: unknown contractType %q", ErrInvalidInput, job.ContractType)
	case job.ExperienceRequired != "" && !experiencePattern.MatchString(job.ExperienceRequired):
		return fmt.Errorf("%w: experienceRequired must look like 1-3 or 10+", ErrInvalidInput)
	case job.SalaryMin != nil && *job.SalaryMin < 0, job.SalaryMax != nil && *job.SalaryMax < 0:
		return fmt.Errorf("%w: salaries must not be negative", ErrInvalidInput)
	case job.SalaryMin != nil && job.SalaryMax != nil && *job.SalaryMin > *job.SalaryMax:
		return fmt.Errorf("%w: salaryMin must not exceed salaryMax", ErrInvalidInput)
	case job.MaxApplications <= 0:
		return fmt.Errorf("%w: maxApplications must be positive", ErrInvalidInput)
	case deadline != nil && !deadline.After(s.now()):
		return fmt.Errorf("%w: applicationDeadline must be in the future", ErrInvalidInput)
	}
	return nil
}

func apply(job *Job, in Input) {
	set := func(dst *string, v *string) {
		if v != nil {
			*dst = strings.TrimSpace(*v)
		}
	}
	set(&job.Title, in.Title)
	set(&job.Category, in.Category)
	set(&job.CompanyName, in.CompanyName)
	set(&job.Description, in.Description)
	set(&job.Requirements, in.Requirements)
	set(&job.Responsibilities, in.Responsibilities)
	set(&job.Benefits, in.Benefits)
	set(&job.Location, in.Location)
	set(&job.ExperienceRequired, in.ExperienceRequired)
	set(&job.SkillsRequired, in.SkillsRequired)
	if in.ContractType != nil {
		job.ContractType = strings.ToLower(strings.TrimSpace(*in.ContractType))
	}
	if in.IsRemote != nil {
		job.IsRemote = *in.IsRemote
	}
	if in.SalaryMin != nil {
		v := *in.SalaryMin
		job.SalaryMin = &v
	}
	if in.SalaryMax != nil {
		v := *in.SalaryMax
		job.SalaryMax = &v
	}
	if in.ApplicationDeadline != nil {
		t := in.ApplicationDeadline.UTC()
		job.ApplicationDeadline = &t
	}
	if in.MaxApplications != nil {
		job.MaxApplications = *in.MaxApplications
	}
}

func page(f Filter) Filter {
	if f.Limit <= 0 {
		f.Limit = defaultListLimit
	}
	if f.Limit > maxListLimit {
		f.Limit = maxListLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}

func validStatus(v string) bool {
	switch v {
	case StatusDraft, StatusPublished, StatusClosed, StatusPaused:
		return true
	}
	return false
}
