package applications

import (
	"context"
	"encoding/json"
	"errors"
)

var (
	ErrNotFound          = errors.New("application not found")
	ErrDuplicate         = errors.New("application already exists")
	ErrInvalidInput      = errors.New("invalid input")
	ErrForbidden         = errors.New("forbidden")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrJobNotFound       = errors.New("job not found")
	ErrJobClosed         = errors.New("job is not accepting applications")
	ErrJobFull           = errors.New("job has reached its application limit")
)

type Repo interface {
	// Create stores a new application. A second application of the same
	// candidate to the same job yields ErrDuplicate.
	Create(ctx context.Context, app Application) error
	GetByID(ctx context.Context, id string) (Application, error)
	// List returns matching applications, newest first.
	List(ctx context.Context, filter Filter) ([]Application, error)
	Exists(ctx context.Context, candidateID, jobID string) (bool, error)
	CountByJob(ctx context.Context, jobID string) (int, error)
	CountAll(ctx context.Context) (int, error)
	// UpdateReview writes status, recruiter notes and interview date.
	UpdateReview(ctx context.Context, app Application) error
	// SetAIResult stores the AI score and analysis, and moves the status to
	// promoteTo when the current status is one of promoteFrom.
	SetAIResult(ctx context.Context, id string, score float64, analysis json.RawMessage, promoteTo string, promoteFrom ...string) error
	Summary(ctx context.Context, recent int) (Summary, error)
}
