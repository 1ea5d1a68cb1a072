// ABOUTME: Store interface and data types for fold-broker persistence
// ABOUTME: Defines User, AccessKey, ProviderKey structs and the Store interface

package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested entity does not exist
// (or exists but is not owned by the requesting user).
var ErrNotFound = errors.New("not found")

// ErrDuplicateEmail is returned when creating a user with an email that is taken
var ErrDuplicateEmail = errors.New("email already exists")

// ErrDuplicateAccessKey is returned when creating an access key whose value is taken
var ErrDuplicateAccessKey = errors.New("access key already exists")

// User represents a registered account
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// AccessKey represents a pre-shared secret a user provisions for a
// non-interactive client. The value is globally unique.
type AccessKey struct {
	ID        string
	UserID    string
	KeyValue  string
	CreatedAt time.Time
}

// ProviderKey represents a third-party LLM API credential stored on behalf
// of a user. A user may hold multiple keys for the same provider.
type ProviderKey struct {
	ID        string
	UserID    string
	Provider  string
	KeyValue  string
	CreatedAt time.Time
}

// Store defines the interface for credential persistence
type Store interface {
	// Users
	CreateUser(ctx context.Context, user *User) error
	GetUserByEmail(ctx context.Context, email string) (*User, error)

	// Access keys
	CreateAccessKey(ctx context.Context, key *AccessKey) error
	GetAccessKeyByValue(ctx context.Context, keyValue string) (*AccessKey, error)
	ListAccessKeys(ctx context.Context, userID string) ([]*AccessKey, error)
	DeleteAccessKey(ctx context.Context, userID, id string) error

	// Provider keys
	CreateProviderKey(ctx context.Context, key *ProviderKey) error
	GetProviderKey(ctx context.Context, userID, id string) (*ProviderKey, error)
	UpdateProviderKey(ctx context.Context, userID, id, provider, keyValue string) (*ProviderKey, error)
	DeleteProviderKey(ctx context.Context, userID, id string) error
	ListProviderKeys(ctx context.Context, userID string) ([]*ProviderKey, error)

	// Close releases any resources held by the store
	Close() error
}
