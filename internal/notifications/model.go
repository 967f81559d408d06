package notifications

import "time"

// Notification types.
const (
	TypeInfo    = "info"
	TypeSuccess = "success"
	TypeWarning = "warning"
	TypeError   = "error"
)

// Notification priorities.
const (
	PriorityLow    = "low"
	PriorityNormal = "normal"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

type Notification struct {
	ID                   string     `json:"id"`
	RecipientID          string     `json:"recipientId"`
	Title                string     `json:"title"`
	Message              string     `json:"message"`
	Type                 string     `json:"type"`
	Priority             string     `json:"priority"`
	IsRead               bool       `json:"isRead"`
	ReadAt               *time.Time `json:"readAt,omitempty"`
	ActionURL            string     `json:"actionUrl,omitempty"`
	RelatedApplicationID string     `json:"relatedApplicationId,omitempty"`
	RelatedJobID         string     `json:"relatedJobId,omitempty"`
	CreatedAt            time.Time  `json:"createdAt"`
}

func validType(v string) bool {
	switch v {
	case TypeInfo, TypeSuccess, TypeWarning, TypeError:
		return true
	}
	return false
}

func validPriority(v string) bool {
	switch v {
	case PriorityLow, PriorityNormal, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}
