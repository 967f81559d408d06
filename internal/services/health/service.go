package health

import (
	"context"
	"time"
)

const pingTimeout = 2 * time.Second

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// ModelState reports whether the CV analyzer is loaded.
type ModelState interface {
	Trained() bool
}

// Report is the health payload.
type Report struct {
	OK        bool   `json:"ok"`
	Database  string `json:"database"`
	AITrained bool   `json:"ai_trained"`
}

// Service encapsulates health-related checks.
type Service struct {
	DB    Pinger
	Model ModelState
}

// NewService constructs a health service. Both dependencies may be nil.
func NewService(db Pinger, model ModelState) *Service {
	return &Service{DB: db, Model: model}
}

// Status pings the database when one is configured. An untrained analyzer
// does not make the service unhealthy.
func (s *Service) Status(ctx context.Context) Report {
	report := Report{OK: true, Database: "memory"}
	if s.Model != nil {
		report.AITrained = s.Model.Trained()
	}
	if s.DB == nil {
		return report
	}
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := s.DB.PingContext(pingCtx); err != nil {
		report.OK = false
		report.Database = "unreachable"
		return report
	}
	report.Database = "ok"
	return report
}
