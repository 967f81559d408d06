package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"recruit-backend/internal/cvanalysis"
)

func strPtr(s string) *string { return &s }

func TestJobCriteriaMapsStoredJob(t *testing.T) {
	svc := NewService(NewMemoryRepo(), nil)
	ctx := context.Background()
	job, err := svc.Create(ctx, Actor{ID: "rec-1", Role: "recruiter"}, Input{
		Title:              strPtr("Data Engineer"),
		CompanyName:        strPtr("Acme"),
		Description:        strPtr("Pipelines"),
		SkillsRequired:     strPtr("python, sql"),
		ExperienceRequired: strPtr("3-5"),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	crit, err := svc.JobCriteria(ctx, job.ID)
	if err != nil {
		t.Fatalf("JobCriteria: %v", err)
	}
	want := cvanalysis.JobCriteria{Title: "Data Engineer", CompanyName: "Acme", Description: "Pipelines", RequiredSkills: "python, sql", ExperienceRequired: "3-5"}
	if crit != want {
		t.Fatalf("expected %+v, got %+v", want, crit)
	}

	if _, err := svc.JobCriteria(ctx, "missing"); !errors.Is(err, cvanalysis.ErrJobNotFound) {
		t.Fatalf("expected ErrJobNotFound, got %v", err)
	}
}

func TestCreateRejectsPastDeadlineAndBadExperience(t *testing.T) {
	svc := NewService(NewMemoryRepo(), nil)
	svc.now = func() time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) }
	actor := Actor{ID: "rec-1", Role: "recruiter"}
	base := Input{Title: strPtr("T"), CompanyName: strPtr("C"), Description: strPtr("D")}

	past := time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC)
	in := base
	in.ApplicationDeadline = &past
	if _, err := svc.Create(context.Background(), actor, in); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for past deadline, got %v", err)
	}

	in = base
	in.ExperienceRequired = strPtr("senior")
	if _, err := svc.Create(context.Background(), actor, in); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for experience, got %v", err)
	}

	in = base
	in.ExperienceRequired = strPtr("10+")
	if _, err := svc.Create(context.Background(), actor, in); err != nil {
		t.Fatalf("expected 10+ to be accepted, got %v", err)
	}
}

func TestAcceptsApplications(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	later := now.Add(time.Hour)
	earlier := now.Add(-time.Hour)

	cases := []struct {
		name string
		job  Job
		want bool
	}{
		{"published without deadline", Job{Status: StatusPublished}, true},
		{"published before deadline", Job{Status: StatusPublished, ApplicationDeadline: &later}, true},
		{"published after deadline", Job{Status: StatusPublished, ApplicationDeadline: &earlier}, false},
		{"paused", Job{Status: StatusPaused}, false},
	}
	for _, tc := range cases {
		if got := tc.job.AcceptsApplications(now); got != tc.want {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, got)
		}
	}
}
