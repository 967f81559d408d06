package users

import (
	"context"
	"errors"
)

var (
	ErrNotFound     = errors.New("user not found")
	ErrInvalidInput = errors.New("invalid input")
)

type Repo interface {
	// Upsert creates the user or refreshes its identity fields. Role is only
	// written on insert.
	Upsert(ctx context.Context, user User) error
	GetByID(ctx context.Context, userID string) (User, error)
	Update(ctx context.Context, user User) error
	List(ctx context.Context, role string, limit, offset int) ([]User, error)
}
