package applications

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

type PGRepo struct {
	DB *sql.DB
}

var _ Repo = (*PGRepo)(nil)

const applicationColumns = `id, candidate_id, job_id, cv_storage_key, cv_file_name, cover_letter, status, ai_score, ai_analysis, recruiter_notes, interview_date, salary_expectation, created_at, updated_at`

func (r *PGRepo) Create(ctx context.Context, app Application) error {
	const query = `
INSERT INTO applications (id, candidate_id, job_id, cv_storage_key, cv_file_name, cover_letter, status, salary_expectation, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now(), now())`
	var salary any
	if app.SalaryExpectation != nil {
		salary = *app.SalaryExpectation
	}
	_, err := r.DB.ExecContext(ctx, query,
		app.ID,
		app.CandidateID,
		app.JobID,
		app.CVStorageKey,
		app.CVFileName,
		app.CoverLetter,
		app.Status,
		salary,
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ErrDuplicate
	}
	return err
}

func (r *PGRepo) GetByID(ctx context.Context, id string) (Application, error) {
	query := `SELECT ` + applicationColumns + ` FROM applications WHERE id = $1 LIMIT 1`
	app, err := scanApplication(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Application{}, ErrNotFound
		}
		return Application{}, err
	}
	return app, nil
}

func (r *PGRepo) List(ctx context.Context, filter Filter) ([]Application, error) {
	conds := []string{}
	args := []any{}
	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}
	if filter.CandidateID != "" {
		conds = append(conds, "candidate_id = "+arg(filter.CandidateID))
	}
	if filter.JobID != "" {
		conds = append(conds, "job_id = "+arg(filter.JobID))
	}
	if filter.Status != "" {
		conds = append(conds, "status = "+arg(filter.Status))
	}

	query := `SELECT ` + applicationColumns + ` FROM applications`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY created_at DESC, id`
	if filter.Limit > 0 {
		query += ` LIMIT ` + arg(filter.Limit)
	}
	if filter.Offset > 0 {
		query += ` OFFSET ` + arg(filter.Offset)
	}
	return r.query(ctx, query, args...)
}

func (r *PGRepo) Exists(ctx context.Context, candidateID, jobID string) (bool, error) {
	var exists bool
	err := r.DB.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM applications WHERE candidate_id = $1 AND job_id = $2)`,
		candidateID, jobID,
	).Scan(&exists)
	return exists, err
}

func (r *PGRepo) CountByJob(ctx context.Context, jobID string) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM applications WHERE job_id = $1`, jobID).Scan(&n)
	return n, err
}

func (r *PGRepo) CountAll(ctx context.Context) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM applications`).Scan(&n)
	return n, err
}

func (r *PGRepo) UpdateReview(ctx context.Context, app Application) error {
	const query = `
UPDATE applications SET status = $2, recruiter_notes = $3, interview_date = $4, updated_at = now()
WHERE id = $1`
	var interview any
	if app.InterviewDate != nil {
		interview = *app.InterviewDate
	}
	res, err := r.DB.ExecContext(ctx, query, app.ID, app.Status, app.RecruiterNotes, interview)
	if err != nil {
		return err
	}
	return expectRow(res)
}

func (r *PGRepo) SetAIResult(ctx context.Context, id string, score float64, analysis json.RawMessage, promoteTo string, promoteFrom ...string) error {
	const query = `
UPDATE applications SET
  ai_score = $2,
  ai_analysis = $3,
  status = CASE WHEN status = ANY(string_to_array($5, ',')) THEN $4 ELSE status END,
  updated_at = now()
WHERE id = $1`
	res, err := r.DB.ExecContext(ctx, query, id, score, string(analysis), promoteTo, strings.Join(promoteFrom, ","))
	if err != nil {
		return err
	}
	return expectRow(res)
}

func (r *PGRepo) Summary(ctx context.Context, recent int) (Summary, error) {
	s := Summary{ByStatus: map[string]int{}}
	rows, err := r.DB.QueryContext(ctx, `SELECT status, COUNT(*) FROM applications GROUP BY status`)
	if err != nil {
		return Summary{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return Summary{}, err
		}
		s.ByStatus[status] = n
		s.Total += n
	}
	if err := rows.Err(); err != nil {
		return Summary{}, err
	}

	var avg sql.NullFloat64
	if err := r.DB.QueryRowContext(ctx, `SELECT AVG(ai_score) FROM applications`).Scan(&avg); err != nil {
		return Summary{}, err
	}
	if avg.Valid {
		v := avg.Float64
		s.AvgAIScore = &v
	}

	s.Recent, err = r.List(ctx, Filter{Limit: recent})
	if err != nil {
		return Summary{}, err
	}
	return s, nil
}

func (r *PGRepo) query(ctx context.Context, query string, args ...any) ([]Application, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Application{}
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, app)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanApplication(row rowScanner) (Application, error) {
	var (
		app       Application
		score     sql.NullFloat64
		analysis  []byte
		interview sql.NullTime
		salary    sql.NullInt64
	)
	err := row.Scan(
		&app.ID,
		&app.CandidateID,
		&app.JobID,
		&app.CVStorageKey,
		&app.CVFileName,
		&app.CoverLetter,
		&app.Status,
		&score,
		&analysis,
		&app.RecruiterNotes,
		&interview,
		&salary,
		&app.CreatedAt,
		&app.UpdatedAt,
	)
	if err != nil {
		return Application{}, err
	}
	if score.Valid {
		v := score.Float64
		app.AIScore = &v
	}
	if len(analysis) > 0 {
		app.AIAnalysis = json.RawMessage(analysis)
	}
	if interview.Valid {
		t := interview.Time.UTC()
		app.InterviewDate = &t
	}
	if salary.Valid {
		v := int(salary.Int64)
		app.SalaryExpectation = &v
	}
	return app, nil
}

func expectRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

