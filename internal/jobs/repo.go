package jobs

import (
	"context"
	"errors"
)

var (
	ErrNotFound          = errors.New("job not found")
	ErrInvalidInput      = errors.New("invalid input")
	ErrForbidden         = errors.New("forbidden")
	ErrInvalidTransition = errors.New("invalid status transition")
)

type Repo interface {
	Create(ctx context.Context, job Job) error
	GetByID(ctx context.Context, jobID string) (Job, error)
	Update(ctx context.Context, job Job) error
	// List returns matching jobs, newest first.
	List(ctx context.Context, filter Filter) ([]Job, error)
	IncrementViews(ctx context.Context, jobID string) error
	CountByStatus(ctx context.Context) (map[string]int, error)
	// TopCategories counts jobs with the given status per category, largest
	// first.
	TopCategories(ctx context.Context, status string, limit int) ([]CategoryCount, error)
}
