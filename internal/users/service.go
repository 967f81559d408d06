package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"recruit-backend/internal/shared/telemetry"
)

const maxListLimit = 100

type Service struct {
	Repo Repo
}

func NewService(repo Repo) *Service {
	return &Service{Repo: repo}
}

// Sync upserts the caller from its token identity and returns the stored
// profile.
func (s *Service) Sync(ctx context.Context, id Identity) (User, error) {
	if strings.TrimSpace(id.ID) == "" {
		return User{}, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	if err := s.Repo.Upsert(ctx, fromIdentity(id)); err != nil {
		return User{}, err
	}
	return s.Repo.GetByID(ctx, id.ID)
}

// Ensure creates the user when it does not exist yet. Existing profiles are
// left untouched.
func (s *Service) Ensure(ctx context.Context, id Identity) error {
	if strings.TrimSpace(id.ID) == "" {
		return fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	_, err := s.Repo.GetByID(ctx, id.ID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, ErrNotFound) {
		return err
	}
	if err := s.Repo.Upsert(ctx, fromIdentity(id)); err != nil {
		return err
	}
	telemetry.Info("users.created", map[string]any{"user_id": id.ID, "role": id.Role})
	return nil
}

func (s *Service) GetByID(ctx context.Context, userID string) (User, error) {
	if strings.TrimSpace(userID) == "" {
		return User{}, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	return s.Repo.GetByID(ctx, userID)
}

// UpdateProfile applies the non-nil fields of upd.
func (s *Service) UpdateProfile(ctx context.Context, userID string, upd ProfileUpdate) (User, error) {
	user, err := s.GetByID(ctx, userID)
	if err != nil {
		return User{}, err
	}
	set := func(dst *string, v *string) {
		if v != nil {
			*dst = strings.TrimSpace(*v)
		}
	}
	set(&user.FirstName, upd.FirstName)
	set(&user.LastName, upd.LastName)
	set(&user.Phone, upd.Phone)
	set(&user.Address, upd.Address)
	set(&user.Bio, upd.Bio)
	set(&user.Skills, upd.Skills)
	set(&user.CurrentPosition, upd.CurrentPosition)
	if upd.ExperienceYears != nil {
		if *upd.ExperienceYears < 0 || *upd.ExperienceYears > 70 {
			return User{}, fmt.Errorf("%w: experienceYears must be between 0 and 70", ErrInvalidInput)
		}
		user.ExperienceYears = *upd.ExperienceYears
	}
	if err := s.Repo.Update(ctx, user); err != nil {
		return User{}, err
	}
	return s.Repo.GetByID(ctx, userID)
}

// SetRole changes the stored role of a user.
func (s *Service) SetRole(ctx context.Context, userID, role string) (User, error) {
	role = strings.ToLower(strings.TrimSpace(role))
	if !ValidRole(role) {
		return User{}, fmt.Errorf("%w: unknown role %q", ErrInvalidInput, role)
	}
	user, err := s.GetByID(ctx, userID)
	if err != nil {
		return User{}, err
	}
	from := user.Role
	user.Role = role
	if err := s.Repo.Update(ctx, user); err != nil {
		return User{}, err
	}
	telemetry.Info("users.role_changed", map[string]any{"user_id": userID, "from": from, "to": role})
	return s.Repo.GetByID(ctx, userID)
}

func (s *Service) List(ctx context.Context, role string, limit, offset int) ([]User, error) {
	role = strings.ToLower(strings.TrimSpace(role))
	if role != "" && !ValidRole(role) {
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidInput, role)
	}
	if limit <= 0 || limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return s.Repo.List(ctx, role, limit, offset)
}

func fromIdentity(id Identity) User {
	role := id.Role
	if !ValidRole(role) {
		role = RoleCandidate
	}
	return User{
		ID:        id.ID,
		Email:     strings.TrimSpace(id.Email),
		FirstName: strings.TrimSpace(id.FirstName),
		LastName:  strings.TrimSpace(id.LastName),
		Role:      role,
	}
}
