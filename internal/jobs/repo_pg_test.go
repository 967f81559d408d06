package jobs

import (
	"context"
	"database/sql/driver"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

var jobCols = []string{"id", "title", "category", "company_name", "description", "requirements", "responsibilities", "benefits", "location", "is_remote", "contract_type", "experience_required", "salary_min", "salary_max", "skills_required", "status", "posted_by", "application_deadline", "max_applications", "views_count", "created_at", "updated_at"}

func jobRow(id string, now time.Time) []driver.Value {
	return []driver.Value{id, "Backend Engineer", nil, "Acme", "desc", "", "", "", "Rabat", true, "cdi", "1-3", int64(1000), nil, "go", "published", "rec-1", nil, 100, 4, now, now}
}

func TestPGRepoListBuildsFilterClause(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	remote := true
	now := time.Now().UTC()
	mock.ExpectQuery(regexp.QuoteMeta(`WHERE status = $1 AND (title ILIKE $2 OR description ILIKE $2 OR company_name ILIKE $2 OR skills_required ILIKE $2) AND is_remote = $3 AND skills_required ILIKE $4 ORDER BY created_at DESC, id LIMIT $5`)).
		WithArgs("published", `%50\%%`, true, "%go%", 20).
		WillReturnRows(sqlmock.NewRows(jobCols).AddRow(jobRow("j1", now)...))

	repo := &PGRepo{DB: db}
	jobs, err := repo.List(context.Background(), Filter{Status: StatusPublished, Query: "50%", Remote: &remote, Skills: []string{"go"}, Limit: 20})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(jobs) != 1 || jobs[0].ID != "j1" || jobs[0].Category != "" || jobs[0].SalaryMin == nil || *jobs[0].SalaryMin != 1000 || jobs[0].SalaryMax != nil {
		t.Fatalf("unexpected jobs %+v", jobs)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoGetByIDNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	mock.ExpectQuery("SELECT .* FROM jobs WHERE id = \\$1").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(jobCols))

	repo := &PGRepo{DB: db}
	if _, err := repo.GetByID(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPGRepoIncrementViewsNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	mock.ExpectExec("UPDATE jobs SET views_count = views_count \\+ 1").
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := &PGRepo{DB: db}
	if err := repo.IncrementViews(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPGRepoCountByStatus(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	mock.ExpectQuery("SELECT status, COUNT\\(\\*\\) FROM jobs GROUP BY status").
		WillReturnRows(sqlmock.NewRows([]string{"status", "count"}).AddRow("draft", 2).AddRow("published", 3))

	repo := &PGRepo{DB: db}
	counts, err := repo.CountByStatus(context.Background())
	if err != nil {
		t.Fatalf("CountByStatus: %v", err)
	}
	if counts[StatusDraft] != 2 || counts[StatusPublished] != 3 {
		t.Fatalf("unexpected counts %v", counts)
	}
}
