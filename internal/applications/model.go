package applications

import (
	"encoding/json"
	"time"
)

// Application statuses.
const (
	StatusPending     = "pending"
	StatusReviewing   = "reviewing"
	StatusAIFiltered  = "ai_filtered"
	StatusShortlisted = "shortlisted"
	StatusInterview   = "interview"
	StatusAccepted    = "accepted"
	StatusRejected    = "rejected"
	StatusWithdrawn   = "withdrawn"
)

type Application struct {
	ID                string          `json:"id"`
	CandidateID       string          `json:"candidateId"`
	JobID             string          `json:"jobId"`
	CVStorageKey      string          `json:"-"`
	CVFileName        string          `json:"cvFileName"`
	CoverLetter       string          `json:"coverLetter"`
	Status            string          `json:"status"`
	AIScore           *float64        `json:"aiScore,omitempty"`
	AIAnalysis        json.RawMessage `json:"aiAnalysis,omitempty"`
	RecruiterNotes    string          `json:"recruiterNotes"`
	InterviewDate     *time.Time      `json:"interviewDate,omitempty"`
	SalaryExpectation *int            `json:"salaryExpectation,omitempty"`
	CreatedAt         time.Time       `json:"createdAt"`
	UpdatedAt         time.Time       `json:"updatedAt"`
}

// Terminal reports whether the application can no longer change status.
func (a Application) Terminal() bool {
	switch a.Status {
	case StatusAccepted, StatusRejected, StatusWithdrawn:
		return true
	}
	return false
}

// Filter narrows application listings.
type Filter struct {
	CandidateID string
	JobID       string
	Status      string
	Limit       int
	Offset      int
}

// Summary aggregates applications for the dashboard.
type Summary struct {
	Total      int            `json:"totalApplications"`
	ByStatus   map[string]int `json:"statusCounts"`
	AvgAIScore *float64       `json:"avgAiScore"`
	Recent     []Application  `json:"recentApplications"`
}

// Submission is a candidate's application request.
type Submission struct {
	CandidateID       string
	JobID             string
	CVFileName        string
	CoverLetter       string
	SalaryExpectation *int
}

// StatusChange is a recruiter's status update. Nil fields are left unchanged.
type StatusChange struct {
	Status         string     `json:"status"`
	RecruiterNotes *string    `json:"recruiterNotes"`
	InterviewDate  *time.Time `json:"interviewDate"`
}

// ValidStatus reports whether v is a known status.
func ValidStatus(v string) bool {
	switch v {
	case StatusPending, StatusReviewing, StatusAIFiltered, StatusShortlisted,
		StatusInterview, StatusAccepted, StatusRejected, StatusWithdrawn:
		return true
	}
	return false
}
