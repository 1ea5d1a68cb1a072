// ABOUTME: Provider key lifecycle: validated store, unvalidated update, delete, list
// ABOUTME: Only store runs validation; update overwrites owned records unconditionally

package providerkey

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/2389/fold-broker/internal/store"
)

var (
	// ErrMissingFields is returned when provider or key value is empty.
	ErrMissingFields = errors.New("provider and API key are required")

	// ErrKeyNotFound is returned when a key is absent or not owned by the caller.
	ErrKeyNotFound = errors.New("LLM key not found")
)

// KeyStore is the subset of store operations the provider key service needs.
type KeyStore interface {
	CreateProviderKey(ctx context.Context, key *store.ProviderKey) error
	GetProviderKey(ctx context.Context, userID, id string) (*store.ProviderKey, error)
	UpdateProviderKey(ctx context.Context, userID, id, provider, keyValue string) (*store.ProviderKey, error)
	DeleteProviderKey(ctx context.Context, userID, id string) error
	ListProviderKeys(ctx context.Context, userID string) ([]*store.ProviderKey, error)
}

// Service orchestrates provider key storage and validation.
type Service struct {
	store     KeyStore
	validator *Validator
	logger    *slog.Logger
}

// NewService creates a provider key service.
func NewService(s KeyStore, validator *Validator) *Service {
	return &Service{
		store:     s,
		validator: validator,
		logger:    slog.Default().With("component", "providerkey"),
	}
}

// Store validates a candidate key and persists it on success.
// The format check runs first and fails without any network I/O; the live
// introspection call then runs against the provider's API.
func (s *Service) Store(ctx context.Context, userID, provider, keyValue string) (*store.ProviderKey, error) {
	if provider == "" || keyValue == "" {
		return nil, ErrMissingFields
	}

	if err := s.validator.CheckFormat(provider, keyValue); err != nil {
		return nil, err
	}

	if err := s.validator.CheckLive(ctx, provider, keyValue); err != nil {
		s.logger.Info("provider rejected key", "user_id", userID, "provider", provider, "error", err)
		return nil, err
	}

	key := &store.ProviderKey{
		UserID:   userID,
		Provider: provider,
		KeyValue: keyValue,
	}

	if err := s.store.CreateProviderKey(ctx, key); err != nil {
		return nil, fmt.Errorf("creating provider key: %w", err)
	}

	s.logger.Info("provider key stored", "id", key.ID, "user_id", userID, "provider", provider)
	return key, nil
}

// Update overwrites an owned key's provider and value unconditionally.
// Unlike Store, no validation runs here; the replacement value is persisted
// as given.
func (s *Service) Update(ctx context.Context, userID, id, provider, keyValue string) (*store.ProviderKey, error) {
	if id == "" || provider == "" || keyValue == "" {
		return nil, ErrMissingFields
	}

	key, err := s.store.UpdateProviderKey(ctx, userID, id, provider, keyValue)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrKeyNotFound
		}
		return nil, fmt.Errorf("updating provider key: %w", err)
	}

	s.logger.Info("provider key updated", "id", id, "user_id", userID, "provider", provider)
	return key, nil
}

// Delete removes one of the caller's provider keys.
// Existence and ownership collapse into ErrKeyNotFound.
func (s *Service) Delete(ctx context.Context, userID, id string) error {
	if err := s.store.DeleteProviderKey(ctx, userID, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrKeyNotFound
		}
		return fmt.Errorf("deleting provider key: %w", err)
	}

	s.logger.Info("provider key deleted", "id", id, "user_id", userID)
	return nil
}

// List returns the caller's provider keys, newest first.
// Key values are returned in plaintext, as stored.
func (s *Service) List(ctx context.Context, userID string) ([]*store.ProviderKey, error) {
	keys, err := s.store.ListProviderKeys(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing provider keys: %w", err)
	}
	return keys, nil
}
