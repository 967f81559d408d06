package applications

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"recruit-backend/internal/cvanalysis"
	"recruit-backend/internal/extract"
	"recruit-backend/internal/jobs"
	"recruit-backend/internal/notifications"
	"recruit-backend/internal/shared/storage/object"
	"recruit-backend/internal/shared/telemetry"
	"recruit-backend/internal/users"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
	// DefaultPriority is the processing priority of new applications.
	DefaultPriority = 3
)

// CVExtensions lists the accepted CV upload extensions.
var CVExtensions = []string{".pdf", ".doc", ".docx"}

// Actor is the authenticated caller.
type Actor struct {
	ID   string
	Role string
}

func (a Actor) staff() bool {
	return a.Role == users.RoleAdmin || a.Role == users.RoleRecruiter
}

// JobSource loads jobs.
type JobSource interface {
	GetByID(ctx context.Context, jobID string) (jobs.Job, error)
}

// Notifier stores in-app notifications.
type Notifier interface {
	Notify(ctx context.Context, n notifications.Notification) (notifications.Notification, error)
}

// Enqueuer schedules background scoring of an application.
type Enqueuer interface {
	Enqueue(ctx context.Context, applicationID string, priority int) error
}

// Scorer classifies CV text and scores it against a job.
type Scorer interface {
	ScoreText(fileName, text string, job cvanalysis.JobCriteria) (cvanalysis.JobResult, error)
}

type Service struct {
	Repo     Repo
	Jobs     JobSource
	Store    object.ObjectStore
	Notifier Notifier
	Queue    Enqueuer
	Scorer   Scorer
	now      func() time.Time
}

// NewService constructs a Service. notifier, queue and scorer may be nil.
func NewService(repo Repo, jobSource JobSource, store object.ObjectStore, notifier Notifier, queue Enqueuer, scorer Scorer) *Service {
	return &Service{
		Repo:     repo,
		Jobs:     jobSource,
		Store:    store,
		Notifier: notifier,
		Queue:    queue,
		Scorer:   scorer,
		now:      time.Now,
	}
}

// Submit stores the CV and records the application. The job must be
// published, open and below its application limit.
func (s *Service) Submit(ctx context.Context, sub Submission, cv io.Reader) (Application, error) {
	sub.CVFileName = strings.TrimSpace(sub.CVFileName)
	if sub.CandidateID == "" {
		return Application{}, ErrForbidden
	}
	if !acceptedCV(sub.CVFileName) {
		return Application{}, fmt.Errorf("%w: cv_file must be one of %s", ErrInvalidInput, strings.Join(CVExtensions, ", "))
	}
	if sub.SalaryExpectation != nil && *sub.SalaryExpectation < 0 {
		return Application{}, fmt.Errorf("%w: salary_expectation must not be negative", ErrInvalidInput)
	}

	job, err := s.job(ctx, sub.JobID)
	if err != nil {
		return Application{}, err
	}
	if !job.AcceptsApplications(s.now()) {
		return Application{}, ErrJobClosed
	}
	exists, err := s.Repo.Exists(ctx, sub.CandidateID, job.ID)
	if err != nil {
		return Application{}, err
	}
	if exists {
		return Application{}, ErrDuplicate
	}
	count, err := s.Repo.CountByJob(ctx, job.ID)
	if err != nil {
		return Application{}, err
	}
	if count >= job.MaxApplications {
		return Application{}, ErrJobFull
	}

	stored, err := s.Store.Save(ctx, sub.CandidateID, sub.CVFileName, cv)
	if err != nil {
		return Application{}, fmt.Errorf("store cv: %w", err)
	}
	key := stored.Key
	app := Application{
		ID:                uuid.NewString(),
		CandidateID:       sub.CandidateID,
		JobID:             job.ID,
		CVStorageKey:      key,
		CVFileName:        sub.CVFileName,
		CoverLetter:       strings.TrimSpace(sub.CoverLetter),
		Status:            StatusPending,
		SalaryExpectation: sub.SalaryExpectation,
	}
	if err := s.Repo.Create(ctx, app); err != nil {
		if delErr := s.Store.Delete(ctx, key); delErr != nil {
			telemetry.Warn("applications.cv_cleanup_failed", map[string]any{"storage_key": key, "error": delErr.Error()})
		}
		return Application{}, err
	}
	telemetry.Info("applications.submitted", telemetry.WithContext(ctx, map[string]any{"application_id": app.ID, "job_id": job.ID, "candidate_id": sub.CandidateID}))

	s.notify(ctx, notifications.Notification{
		RecipientID:          job.PostedBy,
		Title:                "New application",
		Message:              fmt.Sprintf("A new candidate applied to %q.", job.Title),
		Type:                 notifications.TypeInfo,
		ActionURL:            "/applications/" + app.ID,
		RelatedApplicationID: app.ID,
		RelatedJobID:         job.ID,
	})
	if s.Queue != nil {
		if err := s.Queue.Enqueue(ctx, app.ID, DefaultPriority); err != nil {
			telemetry.Error("applications.enqueue_failed", telemetry.WithContext(ctx, map[string]any{"application_id": app.ID, "error": err.Error()}))
		}
	}
	return s.Repo.GetByID(ctx, app.ID)
}

// Get returns an application visible to actor. Candidates only see their own.
func (s *Service) Get(ctx context.Context, actor Actor, id string) (Application, error) {
	app, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return Application{}, err
	}
	if !actor.staff() && app.CandidateID != actor.ID {
		return Application{}, ErrNotFound
	}
	return app, nil
}

// List returns applications visible to actor. Candidates are restricted to
// their own applications.
func (s *Service) List(ctx context.Context, actor Actor, f Filter) ([]Application, error) {
	if !actor.staff() {
		f.CandidateID = actor.ID
	}
	if f.Status != "" && !ValidStatus(f.Status) {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, f.Status)
	}
	if f.Limit <= 0 {
		f.Limit = defaultListLimit
	}
	if f.Limit > maxListLimit {
		f.Limit = maxListLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return s.Repo.List(ctx, f)
}

// UpdateStatus applies a recruiter decision. Terminal applications cannot
// change and withdrawal is reserved to the candidate.
func (s *Service) UpdateStatus(ctx context.Context, actor Actor, id string, change StatusChange) (Application, string, error) {
	if !actor.staff() {
		return Application{}, "", ErrForbidden
	}
	change.Status = strings.ToLower(strings.TrimSpace(change.Status))
	if !ValidStatus(change.Status) {
		return Application{}, "", fmt.Errorf("%w: unknown status %q", ErrInvalidInput, change.Status)
	}
	if change.Status == StatusWithdrawn {
		return Application{}, "", fmt.Errorf("%w: only the candidate can withdraw", ErrInvalidInput)
	}
	app, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return Application{}, "", err
	}
	if app.Terminal() && app.Status != change.Status {
		return Application{}, "", fmt.Errorf("%w: application is %s", ErrInvalidTransition, app.Status)
	}

	prev := app.Status
	app.Status = change.Status
	if change.RecruiterNotes != nil {
		app.RecruiterNotes = strings.TrimSpace(*change.RecruiterNotes)
	}
	if change.InterviewDate != nil {
		t := change.InterviewDate.UTC()
		app.InterviewDate = &t
	}
	if err := s.Repo.UpdateReview(ctx, app); err != nil {
		return Application{}, "", err
	}

	if prev != app.Status {
		telemetry.Info("applications.status_changed", telemetry.WithContext(ctx, map[string]any{"application_id": id, "from": prev, "to": app.Status, "actor": actor.ID}))
		s.notify(ctx, notifications.Notification{
			RecipientID:          app.CandidateID,
			Title:                "Application update",
			Message:              fmt.Sprintf("Your application is now %s.", strings.ReplaceAll(app.Status, "_", " ")),
			Type:                 notificationType(app.Status),
			ActionURL:            "/applications/" + app.ID,
			RelatedApplicationID: app.ID,
			RelatedJobID:         app.JobID,
		})
	}
	updated, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return Application{}, "", err
	}
	return updated, prev + "->" + updated.Status, nil
}

// Withdraw lets the candidate retract a non-terminal application.
func (s *Service) Withdraw(ctx context.Context, actor Actor, id string) (Application, error) {
	app, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return Application{}, err
	}
	if app.CandidateID != actor.ID {
		return Application{}, ErrNotFound
	}
	if app.Terminal() {
		return Application{}, fmt.Errorf("%w: application is %s", ErrInvalidTransition, app.Status)
	}
	app.Status = StatusWithdrawn
	if err := s.Repo.UpdateReview(ctx, app); err != nil {
		return Application{}, err
	}
	telemetry.Info("applications.withdrawn", map[string]any{"application_id": id})
	if job, err := s.Jobs.GetByID(ctx, app.JobID); err == nil {
		s.notify(ctx, notifications.Notification{
			RecipientID:          job.PostedBy,
			Title:                "Application withdrawn",
			Message:              fmt.Sprintf("A candidate withdrew from %q.", job.Title),
			Type:                 notifications.TypeWarning,
			RelatedApplicationID: app.ID,
			RelatedJobID:         job.ID,
		})
	}
	return s.Repo.GetByID(ctx, id)
}

// Score runs the AI scoring synchronously on behalf of a recruiter.
func (s *Service) Score(ctx context.Context, actor Actor, id string) (Application, error) {
	if !actor.staff() {
		return Application{}, ErrForbidden
	}
	return s.Analyze(ctx, id)
}

// Analyze extracts the stored CV, scores it against the job and stores the
// job-match score and analysis. Pending and reviewing applications move to
// ai_filtered and the job owner is notified.
func (s *Service) Analyze(ctx context.Context, id string) (Application, error) {
	if s.Scorer == nil {
		return Application{}, cvanalysis.ErrNotTrained
	}
	app, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return Application{}, err
	}
	job, err := s.job(ctx, app.JobID)
	if err != nil {
		return Application{}, err
	}

	text, err := extract.FromObject(ctx, s.Store, app.CVStorageKey, app.CVFileName)
	if err != nil {
		return Application{}, err
	}
	if strings.TrimSpace(text) == "" {
		return Application{}, cvanalysis.ErrNoText
	}
	scored, err := s.Scorer.ScoreText(app.CVFileName, text, jobs.Criteria(job))
	if err != nil {
		return Application{}, err
	}
	payload, err := json.Marshal(scored)
	if err != nil {
		return Application{}, fmt.Errorf("encode analysis: %w", err)
	}
	if err := s.Repo.SetAIResult(ctx, id, scored.JobMatchScore, payload, StatusAIFiltered, StatusPending, StatusReviewing); err != nil {
		return Application{}, err
	}
	telemetry.Info("applications.scored", telemetry.WithContext(ctx, map[string]any{"application_id": id, "job_id": job.ID, "score": scored.JobMatchScore, "domain": scored.Domain}))

	s.notify(ctx, notifications.Notification{
		RecipientID:          job.PostedBy,
		Title:                "AI analysis completed",
		Message:              fmt.Sprintf("An application to %q scored %.1f/100.", job.Title, scored.JobMatchScore),
		Type:                 notifications.TypeSuccess,
		ActionURL:            "/applications/" + id,
		RelatedApplicationID: id,
		RelatedJobID:         job.ID,
	})
	return s.Repo.GetByID(ctx, id)
}

func (s *Service) CountAll(ctx context.Context) (int, error) {
	return s.Repo.CountAll(ctx)
}

func (s *Service) job(ctx context.Context, jobID string) (jobs.Job, error) {
	if strings.TrimSpace(jobID) == "" {
		return jobs.Job{}, ErrJobNotFound
	}
	job, err := s.Jobs.GetByID(ctx, jobID)
	if errors.Is(err, jobs.ErrNotFound) {
		return jobs.Job{}, ErrJobNotFound
	}
	return job, err
}

func (s *Service) notify(ctx context.Context, n notifications.Notification) {
	if s.Notifier == nil || n.RecipientID == "" {
		return
	}
	if _, err := s.Notifier.Notify(ctx, n); err != nil {
		telemetry.Error("applications.notify_failed", map[string]any{"recipient_id": n.RecipientID, "error": err.Error()})
	}
}

func notificationType(status string) string {
	switch status {
	case StatusShortlisted, StatusInterview, StatusAccepted:
		return notifications.TypeSuccess
	case StatusRejected:
		return notifications.TypeWarning
	default:
		return notifications.TypeInfo
	}
}

func acceptedCV(fileName string) bool {
	ext := strings.ToLower(filepath.Ext(fileName))
	for _, e := range CVExtensions {
		if ext == e {
			return true
		}
	}
	return false
}
