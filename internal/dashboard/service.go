package dashboard

import (
	"context"

	"recruit-backend/internal/applications"
	"recruit-backend/internal/jobs"
)

const recentApplications = 5

// ApplicationSummaries aggregates applications.
type ApplicationSummaries interface {
	Summary(ctx context.Context, recent int) (applications.Summary, error)
}

// JobCounts counts jobs per status.
type JobCounts interface {
	CountByStatus(ctx context.Context) (map[string]int, error)
}

// Stats is the recruiter dashboard payload.
type Stats struct {
	applications.Summary
	TotalJobs  int `json:"totalJobs"`
	ActiveJobs int `json:"activeJobs"`
}

type Service struct {
	Applications ApplicationSummaries
	Jobs         JobCounts
}

func NewService(apps ApplicationSummaries, jobCounts JobCounts) *Service {
	return &Service{Applications: apps, Jobs: jobCounts}
}

func (s *Service) Stats(ctx context.Context) (Stats, error) {
	summary, err := s.Applications.Summary(ctx, recentApplications)
	if err != nil {
		return Stats{}, err
	}
	counts, err := s.Jobs.CountByStatus(ctx)
	if err != nil {
		return Stats{}, err
	}
	stats := Stats{Summary: summary, ActiveJobs: counts[jobs.StatusPublished]}
	for _, n := range counts {
		stats.TotalJobs += n
	}
	return stats, nil
}
