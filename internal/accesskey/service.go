// ABOUTME: Access key issuance, listing, deletion, and CLI-side redemption
// ABOUTME: Redemption is unauthenticated by design: it establishes identity for a CLI

package accesskey

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/2389/fold-broker/internal/store"
)

var (
	// ErrMissingKey is returned when the access key value is empty.
	ErrMissingKey = errors.New("access key is required")

	// ErrKeyExists is returned when the key value is already in use by any user.
	ErrKeyExists = errors.New("access key already exists")

	// ErrKeyNotFound is returned when a key is absent or not owned by the caller.
	ErrKeyNotFound = errors.New("access key not found")
)

// KeyStore is the subset of store operations the access key service needs.
type KeyStore interface {
	CreateAccessKey(ctx context.Context, key *store.AccessKey) error
	GetAccessKeyByValue(ctx context.Context, keyValue string) (*store.AccessKey, error)
	ListAccessKeys(ctx context.Context, userID string) ([]*store.AccessKey, error)
	DeleteAccessKey(ctx context.Context, userID, id string) error
}

// AccessTokenIssuer issues long-lived tokens for redeemed access keys.
type AccessTokenIssuer interface {
	IssueAccessToken(userID, keyValue string) (string, error)
}

// Service orchestrates the access key lifecycle.
type Service struct {
	store  KeyStore
	tokens AccessTokenIssuer
	logger *slog.Logger
}

// NewService creates an access key service.
func NewService(s KeyStore, tokens AccessTokenIssuer) *Service {
	return &Service{
		store:  s,
		tokens: tokens,
		logger: slog.Default().With("component", "accesskey"),
	}
}

// Issue stores a new access key for the user.
// The key value must be globally unique; ErrKeyExists is returned whether the
// pre-check or the storage constraint catches the duplicate.
func (s *Service) Issue(ctx context.Context, userID, keyValue string) (*store.AccessKey, error) {
	if keyValue == "" {
		return nil, ErrMissingKey
	}

	if _, err := s.store.GetAccessKeyByValue(ctx, keyValue); err == nil {
		return nil, ErrKeyExists
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("checking existing key: %w", err)
	}

	key := &store.AccessKey{
		UserID:   userID,
		KeyValue: keyValue,
	}

	if err := s.store.CreateAccessKey(ctx, key); err != nil {
		if errors.Is(err, store.ErrDuplicateAccessKey) {
			return nil, ErrKeyExists
		}
		return nil, fmt.Errorf("creating access key: %w", err)
	}

	s.logger.Info("access key issued", "id", key.ID, "user_id", userID)
	return key, nil
}

// List returns the caller's access keys, newest first.
func (s *Service) List(ctx context.Context, userID string) ([]*store.AccessKey, error) {
	keys, err := s.store.ListAccessKeys(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing access keys: %w", err)
	}
	return keys, nil
}

// Delete removes one of the caller's access keys.
// Existence and ownership collapse into ErrKeyNotFound so other users' key
// IDs cannot be probed.
func (s *Service) Delete(ctx context.Context, userID, id string) error {
	if err := s.store.DeleteAccessKey(ctx, userID, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrKeyNotFound
		}
		return fmt.Errorf("deleting access key: %w", err)
	}

	s.logger.Info("access key deleted", "id", id, "user_id", userID)
	return nil
}

// Redeem exchanges a raw access key value for a long-lived token.
// The lookup is deliberately unscoped: this is the identity-establishing
// bootstrap for non-interactive clients and carries no bearer credential.
func (s *Service) Redeem(ctx context.Context, keyValue string) (string, *store.AccessKey, error) {
	if keyValue == "" {
		return "", nil, ErrMissingKey
	}

	key, err := s.store.GetAccessKeyByValue(ctx, keyValue)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", nil, ErrKeyNotFound
		}
		return "", nil, fmt.Errorf("looking up access key: %w", err)
	}

	token, err := s.tokens.IssueAccessToken(key.UserID, key.KeyValue)
	if err != nil {
		return "", nil, fmt.Errorf("issuing access token: %w", err)
	}

	s.logger.Info("access key redeemed", "id", key.ID, "user_id", key.UserID)
	return token, key, nil
}
