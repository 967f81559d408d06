package processing

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("processing item not found")

type Repo interface {
	Create(ctx context.Context, item Item) error
	GetByID(ctx context.Context, id string) (Item, error)
	Update(ctx context.Context, item Item) error
	// ListRunnable returns pending and retrying items ordered by priority,
	// then age.
	ListRunnable(ctx context.Context, limit int) ([]Item, error)
	// RequeueStale moves items stuck in processing since before cutoff back
	// to retrying, or to failed once their attempts are spent.
	RequeueStale(ctx context.Context, cutoff time.Time) (int, error)
}
