package user

import (
	"context"
	"errors"
	"fmt"

	apperrors "github.com/kislikjeka/userdir/internal/shared/errors"
	"github.com/kislikjeka/userdir/pkg/logger"
)

// DefaultListLimit is the page size used when the caller gives none
const DefaultListLimit = 20

// Service validates input and orchestrates the user repository
type Service struct {
	repo   Repository
	logger *logger.Logger
}

// NewService creates a new user service
func NewService(repo Repository, log *logger.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: log.WithField("component", "user_service"),
	}
}

// List returns up to limit users. A non-positive limit yields an empty list.
func (s *Service) List(ctx context.Context, limit int) ([]*User, error) {
	if limit <= 0 {
		return []*User{}, nil
	}

	users, err := s.repo.List(ctx, limit)
	if err != nil {
		return nil, s.backendError(ctx, "failed to list users", "", err)
	}
	return users, nil
}

// Get retrieves a user by exact username
func (s *Service) Get(ctx context.Context, username string) (*User, error) {
	u, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		return nil, s.classify(ctx, err, username, "failed to get user")
	}
	return u, nil
}

// Create validates and inserts a new user
func (s *Service) Create(ctx context.Context, u *User) (string, error) {
	if err := ValidateUser(u); err != nil {
		return "", apperrors.Validation("invalid user", err)
	}

	if err := s.repo.Create(ctx, u); err != nil {
		return "", s.classify(ctx, err, u.Username, "failed to create user")
	}

	s.logger.WithContext(ctx).Info("user created", "username", u.Username)
	return fmt.Sprintf("Successfully created user: %s", u.Username), nil
}

// Replace overwrites every mutable field of an existing user.
// Fields missing from u are reset.
func (s *Service) Replace(ctx context.Context, u *User) (string, error) {
	if err := ValidateUser(u); err != nil {
		return "", apperrors.Validation("invalid user", err)
	}

	if err := s.repo.Update(ctx, u); err != nil {
		return "", s.classify(ctx, err, u.Username, "failed to update user")
	}

	s.logger.WithContext(ctx).Info("user replaced", "username", u.Username)
	return fmt.Sprintf("Successfully updated user: %s", u.Username), nil
}

// Merge overwrites only the fields present in p
func (s *Service) Merge(ctx context.Context, p *Patch) (string, error) {
	if err := ValidatePatch(p); err != nil {
		return "", apperrors.Validation("invalid user update", err)
	}

	if err := s.repo.Patch(ctx, p); err != nil {
		return "", s.classify(ctx, err, p.Username, "failed to update user")
	}

	s.logger.WithContext(ctx).Info("user merged", "username", p.Username,
		"age_set", p.Age.Present, "location_set", p.Location.Present)
	return fmt.Sprintf("Successfully updated user: %s", p.Username), nil
}

// Delete removes a user
func (s *Service) Delete(ctx context.Context, username string) (string, error) {
	if err := s.repo.Delete(ctx, username); err != nil {
		return "", s.classify(ctx, err, username, "failed to delete user")
	}

	s.logger.WithContext(ctx).Info("user deleted", "username", username)
	return fmt.Sprintf("Successfully deleted user: %s", username), nil
}

// Seed creates each user, skipping usernames that already exist.
// Returns the number of users created.
func (s *Service) Seed(ctx context.Context, users []*User) (int, error) {
	created := 0
	for _, u := range users {
		if _, err := s.Create(ctx, u); err != nil {
			if errors.Is(err, ErrUserAlreadyExists) {
				s.logger.Info("seed user already present", "username", u.Username)
				continue
			}
			return created, fmt.Errorf("failed to seed user %q: %w", u.Username, err)
		}
		created++
	}
	return created, nil
}

// classify maps repository errors onto the directory's error taxonomy
func (s *Service) classify(ctx context.Context, err error, username, op string) error {
	switch {
	case errors.Is(err, ErrUserNotFound):
		return apperrors.NotFound(fmt.Sprintf("username %s not found", username), err)
	case errors.Is(err, ErrUserAlreadyExists):
		return apperrors.Conflict(fmt.Sprintf("cannot create user. username %s already exists.", username), err)
	default:
		return s.backendError(ctx, op, username, err)
	}
}

func (s *Service) backendError(ctx context.Context, op, username string, err error) error {
	log := s.logger.WithContext(ctx).WithError(err)
	if username != "" {
		log = log.WithField("username", username)
	}
	log.Error(op)
	return apperrors.DatabaseError(op, err)
}
