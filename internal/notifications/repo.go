package notifications

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound     = errors.New("notification not found")
	ErrInvalidInput = errors.New("invalid input")
)

type Repo interface {
	Create(ctx context.Context, n Notification) error
	// List returns the recipient's notifications, newest first.
	List(ctx context.Context, recipientID string, unreadOnly bool, limit, offset int) ([]Notification, error)
	CountUnread(ctx context.Context, recipientID string) (int, error)
	// MarkRead marks one of the recipient's notifications as read. Unknown
	// IDs and notifications of other users yield ErrNotFound.
	MarkRead(ctx context.Context, recipientID, notificationID string, at time.Time) error
	MarkAllRead(ctx context.Context, recipientID string, at time.Time) (int, error)
}
