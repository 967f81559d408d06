package processing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"recruit-backend/internal/applications"
	"recruit-backend/internal/queue"
	"recruit-backend/internal/shared/metrics"
	"recruit-backend/internal/shared/telemetry"
)

// Analyzer scores a stored application.
type Analyzer interface {
	Analyze(ctx context.Context, applicationID string) (applications.Application, error)
}

type Service struct {
	Repo     Repo
	Analyzer Analyzer
	Queue    queue.Client

	// LeaseTimeout is how long an item may stay in processing before
	// DrainPending takes it back. Zero selects DefaultLeaseTimeout.
	LeaseTimeout time.Duration
	now          func() time.Time
}

// NewService constructs a Service. q may be nil, in which case items are only
// picked up by DrainPending.
func NewService(repo Repo, analyzer Analyzer, q queue.Client) *Service {
	return &Service{Repo: repo, Analyzer: analyzer, Queue: q, now: time.Now}
}

// SetAnalyzer wires the analyzer after construction.
func (s *Service) SetAnalyzer(a Analyzer) {
	s.Analyzer = a
}

// Enqueue creates a pending item for the application and publishes it when a
// queue is configured. Priorities outside 1..5 select the default.
func (s *Service) Enqueue(ctx context.Context, applicationID string, priority int) error {
	if priority < PriorityHigh || priority > PriorityLow {
		priority = defaultPriority
	}
	item := Item{
		ID:            uuid.NewString(),
		ApplicationID: applicationID,
		Status:        StatusPending,
		Priority:      priority,
		MaxAttempts:   defaultMaxAttempts,
		CreatedAt:     s.now().UTC(),
	}
	if err := s.Repo.Create(ctx, item); err != nil {
		return fmt.Errorf("create processing item: %w", err)
	}
	telemetry.Info("processing.enqueued", telemetry.WithContext(ctx, map[string]any{
		"item_id":        item.ID,
		"application_id": applicationID,
		"priority":       priority,
	}))
	if s.Queue == nil {
		return nil
	}
	msg := queue.Message{
		ItemID:        item.ID,
		ApplicationID: applicationID,
		Priority:      priority,
		RequestID:     telemetry.RequestID(ctx),
		EnqueuedAt:    item.CreatedAt.Format(time.RFC3339),
		Version:       queue.MessageVersion,
	}
	if err := s.Queue.Send(ctx, msg); err != nil {
		return fmt.Errorf("publish processing item: %w", err)
	}
	return nil
}

// Process scores the application of one item. Completed and failed items are
// left alone. On failure the item is retried until it reaches its attempt
// limit and the error is returned so the transport can redeliver.
func (s *Service) Process(ctx context.Context, itemID string) error {
	item, err := s.Repo.GetByID(ctx, itemID)
	if err != nil {
		return err
	}
	if item.Done() {
		telemetry.Info("processing.skipped", map[string]any{"item_id": itemID, "status": item.Status})
		return nil
	}

	start := s.now().UTC()
	item.Attempts++
	item.Status = StatusProcessing
	item.StartedAt = &start
	item.ErrorMessage = ""
	if err := s.Repo.Update(ctx, item); err != nil {
		return err
	}

	_, runErr := s.Analyzer.Analyze(ctx, item.ApplicationID)
	end := s.now().UTC()
	seconds := end.Sub(start).Seconds()
	item.ProcessingSeconds = &seconds

	fields := telemetry.WithContext(ctx, map[string]any{
		"item_id":        item.ID,
		"application_id": item.ApplicationID,
		"attempt":        item.Attempts,
	})
	if runErr == nil {
		item.Status = StatusCompleted
		item.CompletedAt = &end
		if err := s.Repo.Update(ctx, item); err != nil {
			return err
		}
		metrics.IncProcessingJobsCompleted()
		fields["seconds"] = seconds
		telemetry.Info("processing.completed", fields)
		return nil
	}

	item.ErrorMessage = runErr.Error()
	if item.Attempts < item.MaxAttempts {
		item.Status = StatusRetrying
		metrics.IncProcessingJobsRetried()
	} else {
		item.Status = StatusFailed
		item.CompletedAt = &end
		metrics.IncProcessingJobsFailed()
	}
	if err := s.Repo.Update(ctx, item); err != nil {
		return err
	}
	fields["status"] = item.Status
	fields["error"] = runErr.Error()
	telemetry.Error("processing.failed", fields)
	return fmt.Errorf("process item %s: %w", item.ID, runErr)
}

// DrainPending processes up to limit runnable items in priority order and
// returns how many completed. Items whose processing lease expired are taken
// back first. Item failures are recorded on the item and do not stop the
// drain.
func (s *Service) DrainPending(ctx context.Context, limit int) (int, error) {
	lease := s.LeaseTimeout
	if lease <= 0 {
		lease = DefaultLeaseTimeout
	}
	requeued, err := s.Repo.RequeueStale(ctx, s.now().UTC().Add(-lease))
	if err != nil {
		return 0, fmt.Errorf("requeue stale items: %w", err)
	}
	if requeued > 0 {
		telemetry.Warn("processing.requeued_stale", map[string]any{"count": requeued, "lease": lease.String()})
	}

	items, err := s.Repo.ListRunnable(ctx, limit)
	if err != nil {
		return 0, err
	}
	done := 0
	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return done, err
		}
		metrics.IncProcessingJobsReceived()
		if err := s.Process(ctx, item.ID); err != nil {
			continue
		}
		done++
	}
	return done, nil
}
