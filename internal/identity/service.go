// ABOUTME: Registration and login orchestration over the credential store
// ABOUTME: Login failures are indistinguishable to resist account enumeration

package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/2389/fold-broker/internal/auth"
	"github.com/2389/fold-broker/internal/store"
)

var (
	// ErrMissingFields is returned when name, email, or password is empty.
	ErrMissingFields = errors.New("name, email and password are required")

	// ErrEmailTaken is returned when registering an email that already exists.
	ErrEmailTaken = errors.New("email already exists")

	// ErrInvalidCredentials is the single error for both unknown email and
	// wrong password, so a caller cannot tell which one failed.
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// UserStore is the subset of store operations the identity service needs.
type UserStore interface {
	CreateUser(ctx context.Context, user *store.User) error
	GetUserByEmail(ctx context.Context, email string) (*store.User, error)
}

// SessionIssuer issues session tokens for interactive logins.
type SessionIssuer interface {
	IssueSession(userID, email string) (string, error)
}

// Service orchestrates registration and login.
type Service struct {
	store  UserStore
	tokens SessionIssuer
	logger *slog.Logger
}

// NewService creates an identity service.
func NewService(s UserStore, tokens SessionIssuer) *Service {
	return &Service{
		store:  s,
		tokens: tokens,
		logger: slog.Default().With("component", "identity"),
	}
}

// Register creates a new user account with a hashed password.
// Returns ErrEmailTaken if the email is already registered. The pre-check is
// not atomic with the insert, so a duplicate surfaced by the store at insert
// time maps to the same error.
func (s *Service) Register(ctx context.Context, name, email, password string) (*store.User, error) {
	if name == "" || email == "" || password == "" {
		return nil, ErrMissingFields
	}

	if _, err := s.store.GetUserByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("checking existing user: %w", err)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	user := &store.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
	}

	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicateEmail) {
			// Lost the race against a concurrent registration with the same email
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("creating user: %w", err)
	}

	s.logger.Info("user registered", "id", user.ID, "email", user.Email)
	return user, nil
}

// Login verifies credentials and issues a session token.
// Unknown email and wrong password both return ErrInvalidCredentials; a dummy
// bcrypt comparison keeps the unknown-email path from returning faster.
func (s *Service) Login(ctx context.Context, email, password string) (string, *store.User, error) {
	if email == "" || password == "" {
		return "", nil, ErrInvalidCredentials
	}

	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			_ = auth.CheckPassword(password, auth.DummyHash)
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, fmt.Errorf("looking up user: %w", err)
	}

	if !auth.CheckPassword(password, user.PasswordHash) {
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.tokens.IssueSession(user.ID, user.Email)
	if err != nil {
		return "", nil, fmt.Errorf("issuing session token: %w", err)
	}

	s.logger.Info("user logged in", "id", user.ID)
	return token, user, nil
}
