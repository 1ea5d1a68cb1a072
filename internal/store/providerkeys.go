// ABOUTME: Provider key persistence for the SQLite store
// ABOUTME: All reads and writes except create are ownership-scoped

package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// CreateProviderKey inserts a new provider key record.
// No uniqueness constraint applies: a user may store several keys per provider.
func (s *SQLiteStore) CreateProviderKey(ctx context.Context, key *ProviderKey) error {
	if key.ID == "" {
		key.ID = uuid.New().String()
	}
	if key.CreatedAt.IsZero() {
		key.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO provider_keys (id, user_id, provider, key_value, created_at)
		VALUES (?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		key.ID,
		key.UserID,
		key.Provider,
		key.KeyValue,
		key.CreatedAt.UTC().Format(timeFormat),
	)
	if err != nil {
		return fmt.Errorf("inserting provider key: %w", err)
	}

	s.logger.Debug("created provider key", "id", key.ID, "user_id", key.UserID, "provider", key.Provider)
	return nil
}

// GetProviderKey retrieves a provider key by ID, scoped to its owner.
// Returns ErrNotFound when the key does not exist or belongs to another user.
func (s *SQLiteStore) GetProviderKey(ctx context.Context, userID, id string) (*ProviderKey, error) {
	query := `
		SELECT id, user_id, provider, key_value, created_at
		FROM provider_keys
		WHERE id = ? AND user_id = ?
	`

	var key ProviderKey
	var createdAt string

	err := s.db.QueryRowContext(ctx, query, id, userID).Scan(
		&key.ID,
		&key.UserID,
		&key.Provider,
		&key.KeyValue,
		&createdAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying provider key: %w", err)
	}

	key.CreatedAt = parseTimestamp(createdAt, "provider_keys.created_at", key.ID)
	return &key, nil
}

// UpdateProviderKey overwrites the provider and key value of an owned record
// and returns the updated record.
// Returns ErrNotFound when the key does not exist or belongs to another user.
func (s *SQLiteStore) UpdateProviderKey(ctx context.Context, userID, id, provider, keyValue string) (*ProviderKey, error) {
	query := `
		UPDATE provider_keys
		SET provider = ?, key_value = ?
		WHERE id = ? AND user_id = ?
	`

	result, err := s.db.ExecContext(ctx, query, provider, keyValue, id, userID)
	if err != nil {
		return nil, fmt.Errorf("updating provider key: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("getting rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return nil, ErrNotFound
	}

	s.logger.Debug("updated provider key", "id", id, "user_id", userID, "provider", provider)
	return s.GetProviderKey(ctx, userID, id)
}

// DeleteProviderKey removes a provider key owned by the given user.
// Returns ErrNotFound when the key does not exist or belongs to another user.
func (s *SQLiteStore) DeleteProviderKey(ctx context.Context, userID, id string) error {
	query := `DELETE FROM provider_keys WHERE id = ? AND user_id = ?`

	result, err := s.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("deleting provider key: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}

	s.logger.Debug("deleted provider key", "id", id, "user_id", userID)
	return nil
}

// ListProviderKeys returns all provider keys owned by a user, newest first.
// Key values are returned as stored, in plaintext.
func (s *SQLiteStore) ListProviderKeys(ctx context.Context, userID string) ([]*ProviderKey, error) {
	query := `
		SELECT id, user_id, provider, key_value, created_at
		FROM provider_keys
		WHERE user_id = ?
		ORDER BY created_at DESC
	`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("querying provider keys: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var keys []*ProviderKey
	for rows.Next() {
		var key ProviderKey
		var createdAt string

		if err := rows.Scan(&key.ID, &key.UserID, &key.Provider, &key.KeyValue, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning provider key row: %w", err)
		}

		key.CreatedAt = parseTimestamp(createdAt, "provider_keys.created_at", key.ID)
		keys = append(keys, &key)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating provider key rows: %w", err)
	}

	return keys, nil
}
