package jobs

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"
	"time"
)

type PGRepo struct {
	DB *sql.DB
}

var _ Repo = (*PGRepo)(nil)

const jobColumns = `id, title, category, company_name, description, requirements, responsibilities, benefits, location, is_remote, contract_type, experience_required, salary_min, salary_max, skills_required, status, posted_by, application_deadline, max_applications, views_count, created_at, updated_at`

func (r *PGRepo) Create(ctx context.Context, job Job) error {
	const query = `
INSERT INTO jobs (id, title, category, company_name, description, requirements, responsibilities, benefits, location, is_remote, contract_type, experience_required, salary_min, salary_max, skills_required, status, posted_by, application_deadline, max_applications, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, now(), now())`
	_, err := r.DB.ExecContext(ctx, query,
		job.ID,
		job.Title,
		nullableString(job.Category),
		job.CompanyName,
		job.Description,
		job.Requirements,
		job.Responsibilities,
		job.Benefits,
		job.Location,
		job.IsRemote,
		job.ContractType,
		job.ExperienceRequired,
		nullableInt(job.SalaryMin),
		nullableInt(job.SalaryMax),
		job.SkillsRequired,
		job.Status,
		job.PostedBy,
		nullableTime(job.ApplicationDeadline),
		job.MaxApplications,
	)
	return err
}

func (r *PGRepo) GetByID(ctx context.Context, jobID string) (Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE id = $1 LIMIT 1`
	job, err := scanJob(r.DB.QueryRowContext(ctx, query, jobID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Job{}, ErrNotFound
		}
		return Job{}, err
	}
	return job, nil
}

func (r *PGRepo) Update(ctx context.Context, job Job) error {
	const query = `
UPDATE jobs SET
  title = $2,
  category = $3,
  company_name = $4,
  description = $5,
  requirements = $6,
  responsibilities = $7,
  benefits = $8,
  location = $9,
  is_remote = $10,
  contract_type = $11,
  experience_required = $12,
  salary_min = $13,
  salary_max = $14,
  skills_required = $15,
  status = $16,
  application_deadline = $17,
  max_applications = $18,
  updated_at = now()
WHERE id = $1`
	res, err := r.DB.ExecContext(ctx, query,
		job.ID,
		job.Title,
		nullableString(job.Category),
		job.CompanyName,
		job.Description,
		job.Requirements,
		job.Responsibilities,
		job.Benefits,
		job.Location,
		job.IsRemote,
		job.ContractType,
		job.ExperienceRequired,
		nullableInt(job.SalaryMin),
		nullableInt(job.SalaryMax),
		job.SkillsRequired,
		job.Status,
		nullableTime(job.ApplicationDeadline),
		job.MaxApplications,
	)
	if err != nil {
		return err
	}
	return expectRow(res)
}

func (r *PGRepo) List(ctx context.Context, filter Filter) ([]Job, error) {
	where, args := filterClause(filter)
	query := `SELECT ` + jobColumns + ` FROM jobs` + where + ` ORDER BY created_at DESC, id`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += ` LIMIT $` + strconv.Itoa(len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += ` OFFSET $` + strconv.Itoa(len(args))
	}

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Job{}
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, job)
	}
	return out, rows.Err()
}

func (r *PGRepo) IncrementViews(ctx context.Context, jobID string) error {
	res, err := r.DB.ExecContext(ctx, `UPDATE jobs SET views_count = views_count + 1 WHERE id = $1`, jobID)
	if err != nil {
		return err
	}
	return expectRow(res)
}

func (r *PGRepo) CountByStatus(ctx context.Context) (map[string]int, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT status, COUNT(*) FROM jobs GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string]int{}
	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		out[status] = n
	}
	return out, rows.Err()
}

func (r *PGRepo) TopCategories(ctx context.Context, status string, limit int) ([]CategoryCount, error) {
	const query = `
SELECT category, COUNT(*) AS n
FROM jobs
WHERE category IS NOT NULL AND category <> '' AND ($1 = '' OR status = $1)
GROUP BY category
ORDER BY n DESC, category
LIMIT $2`
	rows, err := r.DB.QueryContext(ctx, query, status, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []CategoryCount{}
	for rows.Next() {
		var cc CategoryCount
		if err := rows.Scan(&cc.Category, &cc.Count); err != nil {
			return nil, err
		}
		out = append(out, cc)
	}
	return out, rows.Err()
}

func filterClause(f Filter) (string, []any) {
	conds := []string{}
	args := []any{}
	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if f.Status != "" {
		conds = append(conds, "status = "+arg(f.Status))
	}
	if f.PostedBy != "" {
		conds = append(conds, "posted_by = "+arg(f.PostedBy))
	}
	if f.Query != "" {
		p := arg(likePattern(f.Query))
		conds = append(conds, "(title ILIKE "+p+" OR description ILIKE "+p+" OR company_name ILIKE "+p+" OR skills_required ILIKE "+p+")")
	}
	if f.Category != "" {
		conds = append(conds, "LOWER(category) = LOWER("+arg(f.Category)+")")
	}
	if f.Location != "" {
		conds = append(conds, "location ILIKE "+arg(likePattern(f.Location)))
	}
	if f.ContractType != "" {
		conds = append(conds, "contract_type = "+arg(f.ContractType))
	}
	if f.Experience != "" {
		conds = append(conds, "experience_required = "+arg(f.Experience))
	}
	if f.Remote != nil {
		conds = append(conds, "is_remote = "+arg(*f.Remote))
	}
	for _, skill := range f.Skills {
		conds = append(conds, "skills_required ILIKE "+arg(likePattern(skill)))
	}

	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func likePattern(v string) string {
	return "%" + likeEscaper.Replace(v) + "%"
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (Job, error) {
	var (
		job       Job
		category  sql.NullString
		salaryMin sql.NullInt64
		salaryMax sql.NullInt64
		deadline  sql.NullTime
	)
	err := row.Scan(
		&job.ID,
		&job.Title,
		&category,
		&job.CompanyName,
		&job.Description,
		&job.Requirements,
		&job.Responsibilities,
		&job.Benefits,
		&job.Location,
		&job.IsRemote,
		&job.ContractType,
		&job.ExperienceRequired,
		&salaryMin,
		&salaryMax,
		&job.SkillsRequired,
		&job.Status,
		&job.PostedBy,
		&deadline,
		&job.MaxApplications,
		&job.ViewsCount,
		&job.CreatedAt,
		&job.UpdatedAt,
	)
	if err != nil {
		return Job{}, err
	}
	job.Category = category.String
	if salaryMin.Valid {
		v := int(salaryMin.Int64)
		job.SalaryMin = &v
	}
	if salaryMax.Valid {
		v := int(salaryMax.Int64)
		job.SalaryMax = &v
	}
	if deadline.Valid {
		t := deadline.Time
		job.ApplicationDeadline = &t
	}
	return job, nil
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

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableInt(value *int) any {
	if value == nil {
		return nil
	}
	return *value
}

func nullableTime(value *time.Time) any {
	if value == nil {
		return nil
	}
	return *value
}
