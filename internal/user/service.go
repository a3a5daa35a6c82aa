package user

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

// Store is the persistence the Service needs.
type Store interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	AssignRoles(ctx context.Context, userID int64, roles []string) error
}

// Service contains business logic for user management.
type Service struct {
	repo Store
	log  zerolog.Logger
}

// NewService creates a new user Service.
func NewService(repo Store, log zerolog.Logger) *Service {
	return &Service{repo: repo, log: log.With().Str("component", "user-service").Logger()}
}

// Seed describes an account that must exist at startup.
type Seed struct {
	Username string
	Password string
	Email    string
	Roles    []string
}

// Create registers a new account with a bcrypt hash of password.
func (s *Service) Create(ctx context.Context, seed Seed) (*User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(seed.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u := &User{
		Username:     seed.Username,
		Email:        seed.Email,
		PasswordHash: string(hash),
		Roles:        seed.Roles,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

// EnsureUser creates the account when it is missing and grants any of its
// roles the existing account lacks. The password of an existing account is
// never changed.
func (s *Service) EnsureUser(ctx context.Context, seed Seed) (*User, error) {
	u, err := s.repo.GetByUsername(ctx, seed.Username)
	if errors.Is(err, ErrNotFound) {
		u, err = s.Create(ctx, seed)
		if err != nil {
			return nil, err
		}
		s.log.Info().Str("username", u.Username).Strs("roles", u.Roles).Msg("seeded user")
		return u, nil
	}
	if err != nil {
		return nil, err
	}

	var missing []string
	for _, role := range seed.Roles {
		if !slices.Contains(u.Roles, role) {
			missing = append(missing, role)
		}
	}
	if len(missing) == 0 {
		return u, nil
	}
	if err := s.repo.AssignRoles(ctx, u.ID, missing); err != nil {
		return nil, fmt.Errorf("assign roles: %w", err)
	}
	u.Roles = append(u.Roles, missing...)
	s.log.Info().Str("username", u.Username).Strs("roles", missing).Msg("granted missing roles")
	return u, nil
}

// GetByID returns a user by id.
func (s *Service) GetByID(ctx context.Context, id int64) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

// GetByUsername returns a user by username.
func (s *Service) GetByUsername(ctx context.Context, username string) (*User, error) {
	return s.repo.GetByUsername(ctx, username)
}
