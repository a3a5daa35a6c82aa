// Package auth authenticates users with a password and issues the signed
// access tokens the API's authorization middleware verifies.
package auth

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/kadikoy/service/internal/access"
	"github.com/kadikoy/service/internal/apperr"
	"github.com/kadikoy/service/internal/user"
)

// Users is the subset of the user service auth depends on.
type Users interface {
	GetByUsername(ctx context.Context, username string) (*user.User, error)
	GetByID(ctx context.Context, id int64) (*user.User, error)
	EnsureUser(ctx context.Context, seed user.Seed) (*user.User, error)
}

// LoginResult is returned by a successful login.
type LoginResult struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Roles     []string  `json:"roles"`
}

// Service contains the business logic for password authentication.
type Service struct {
	users  Users
	tokens *TokenIssuer
	log    zerolog.Logger
}

// NewService creates a new auth Service.
func NewService(users Users, tokens *TokenIssuer, log zerolog.Logger) *Service {
	return &Service{
		users:  users,
		tokens: tokens,
		log:    log.With().Str("component", "auth-service").Logger(),
	}
}

// Authenticate checks username and password. An unknown user and a wrong
// password fail with the same error.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*user.User, error) {
	u, err := s.users.GetByUsername(ctx, username)
	if errors.Is(err, user.ErrNotFound) {
		// keep timing close to the wrong-password path
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return nil, apperr.InvalidCredentials()
	}
	if err != nil {
		return nil, apperr.Persistence("could not load user", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, apperr.InvalidCredentials()
	}
	return u, nil
}

// Login authenticates and issues a token.
func (s *Service) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	u, err := s.Authenticate(ctx, username, password)
	if err != nil {
		s.log.Info().Str("username", username).Msg("login failed")
		return nil, err
	}
	return s.issue(u, "login")
}

func (s *Service) issue(u *user.User, event string) (*LoginResult, error) {
	token, exp, err := s.tokens.Issue(u)
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("username", u.Username).Strs("roles", u.Roles).Msg(event)
	return &LoginResult{
		Token:     token,
		ExpiresAt: exp,
		Username:  u.Username,
		Email:     u.Email,
		Roles:     u.Roles,
	}, nil
}

// AdminLogin is Login restricted to accounts holding the Admin role. No token
// is issued for other accounts.
func (s *Service) AdminLogin(ctx context.Context, username, password string) (*LoginResult, error) {
	u, err := s.Authenticate(ctx, username, password)
	if err != nil {
		s.log.Info().Str("username", username).Msg("admin login failed")
		return nil, err
	}
	id := &access.Identity{UserID: u.ID, Username: u.Username, Roles: u.Roles}
	if err := access.Authorize(id, access.AnyOf(access.RoleAdmin)); err != nil {
		s.log.Info().Str("username", u.Username).Strs("roles", u.Roles).Msg("admin login refused")
		return nil, apperr.InsufficientRole("admin panel access requires the Admin role")
	}
	return s.issue(u, "admin login")
}

// Account loads the current state of the account a token was issued for.
func (s *Service) Account(ctx context.Context, userID int64) (*user.User, error) {
	u, err := s.users.GetByID(ctx, userID)
	if errors.Is(err, user.ErrNotFound) {
		return nil, apperr.NotFound("account not found")
	}
	if err != nil {
		return nil, apperr.Persistence("could not load account", err)
	}
	return u, nil
}

// EnsureAdmin seeds the administrator account.
func (s *Service) EnsureAdmin(ctx context.Context, username, password, email string) error {
	_, err := s.users.EnsureUser(ctx, user.Seed{
		Username: username,
		Password: password,
		Email:    email,
		Roles:    []string{string(access.RoleAdmin)},
	})
	return err
}

// dummyHash is compared against when the user does not exist.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("kadikoy-no-such-user"), bcrypt.DefaultCost)
