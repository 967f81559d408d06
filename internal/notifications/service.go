package notifications

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"recruit-backend/internal/shared/telemetry"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

type Service struct {
	Repo Repo
	now  func() time.Time
}

func NewService(repo Repo) *Service {
	return &Service{Repo: repo, now: time.Now}
}

// Notify stores a notification for its recipient. Type and priority default
// to info and normal.
func (s *Service) Notify(ctx context.Context, n Notification) (Notification, error) {
	n.RecipientID = strings.TrimSpace(n.RecipientID)
	n.Title = strings.TrimSpace(n.Title)
	if n.RecipientID == "" || n.Title == "" {
		return Notification{}, fmt.Errorf("%w: recipient and title are required", ErrInvalidInput)
	}
	if n.Type == "" {
		n.Type = TypeInfo
	}
	if n.Priority == "" {
		n.Priority = PriorityNormal
	}
	if !validType(n.Type) || !validPriority(n.Priority) {
		return Notification{}, fmt.Errorf("%w: unknown type or priority", ErrInvalidInput)
	}
	n.ID = uuid.NewString()
	n.IsRead = false
	n.ReadAt = nil
	n.CreatedAt = s.now().UTC()
	if err := s.Repo.Create(ctx, n); err != nil {
		return Notification{}, err
	}
	telemetry.Info("notifications.created", map[string]any{
		"notification_id": n.ID,
		"recipient_id":    n.RecipientID,
		"type":            n.Type,
	})
	return n, nil
}

func (s *Service) List(ctx context.Context, recipientID string, unreadOnly bool, limit, offset int) ([]Notification, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return s.Repo.List(ctx, recipientID, unreadOnly, limit, offset)
}

func (s *Service) UnreadCount(ctx context.Context, recipientID string) (int, error) {
	return s.Repo.CountUnread(ctx, recipientID)
}

func (s *Service) MarkRead(ctx context.Context, recipientID, notificationID string) error {
	return s.Repo.MarkRead(ctx, recipientID, notificationID, s.now().UTC())
}

func (s *Service) MarkAllRead(ctx context.Context, recipientID string) (int, error) {
	return s.Repo.MarkAllRead(ctx, recipientID, s.now().UTC())
}
