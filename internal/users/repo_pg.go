package users

import (
	"context"
	"database/sql"
	"errors"
)

type PGRepo struct {
	DB *sql.DB
}

var _ Repo = (*PGRepo)(nil)

const userColumns = `id, email, first_name, last_name, role, phone, address, bio, skills, experience_years, current_position, is_verified, created_at, updated_at`

func (r *PGRepo) Upsert(ctx context.Context, user User) error {
	const query = `
INSERT INTO users (id, email, first_name, last_name, role, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, now(), now())
ON CONFLICT (id) DO UPDATE SET
  email = COALESCE(EXCLUDED.email, users.email),
  first_name = COALESCE(EXCLUDED.first_name, users.first_name),
  last_name = COALESCE(EXCLUDED.last_name, users.last_name),
  updated_at = now()`
	_, err := r.DB.ExecContext(ctx, query,
		user.ID,
		nullableString(user.Email),
		nullableString(user.FirstName),
		nullableString(user.LastName),
		user.Role,
	)
	return err
}

func (r *PGRepo) GetByID(ctx context.Context, userID string) (User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1 LIMIT 1`
	user, err := scanUser(r.DB.QueryRowContext(ctx, query, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	return user, nil
}

func (r *PGRepo) Update(ctx context.Context, user User) error {
	const query = `
UPDATE users SET
  first_name = $2,
  last_name = $3,
  role = $4,
  phone = $5,
  address = $6,
  bio = $7,
  skills = $8,
  experience_years = $9,
  current_position = $10,
  is_verified = $11,
  updated_at = now()
WHERE id = $1`
	res, err := r.DB.ExecContext(ctx, query,
		user.ID,
		nullableString(user.FirstName),
		nullableString(user.LastName),
		user.Role,
		nullableString(user.Phone),
		nullableString(user.Address),
		nullableString(user.Bio),
		nullableString(user.Skills),
		user.ExperienceYears,
		nullableString(user.CurrentPosition),
		user.IsVerified,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGRepo) List(ctx context.Context, role string, limit, offset int) ([]User, error) {
	query := `SELECT ` + userColumns + `
FROM users
WHERE ($1 = '' OR role = $1)
ORDER BY created_at DESC, id
LIMIT $2 OFFSET $3`
	rows, err := r.DB.QueryContext(ctx, query, role, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, user)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (User, error) {
	var (
		user            User
		email           sql.NullString
		firstName       sql.NullString
		lastName        sql.NullString
		phone           sql.NullString
		address         sql.NullString
		bio             sql.NullString
		skills          sql.NullString
		currentPosition sql.NullString
	)
	err := row.Scan(
		&user.ID,
		&email,
		&firstName,
		&lastName,
		&user.Role,
		&phone,
		&address,
		&bio,
		&skills,
		&user.ExperienceYears,
		&currentPosition,
		&user.IsVerified,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return User{}, err
	}
	user.Email = email.String
	user.FirstName = firstName.String
	user.LastName = lastName.String
	user.Phone = phone.String
	user.Address = address.String
	user.Bio = bio.String
	user.Skills = skills.String
	user.CurrentPosition = currentPosition.String
	return user, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
