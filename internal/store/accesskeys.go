// ABOUTME: Access key persistence for the SQLite store
// ABOUTME: Key values are globally unique; deletion is ownership-scoped

package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// CreateAccessKey inserts a new access key record.
// Returns ErrDuplicateAccessKey if the key value already exists for any user.
func (s *SQLiteStore) CreateAccessKey(ctx context.Context, key *AccessKey) error {
	if key.ID == "" {
		key.ID = uuid.New().String()
	}
	if key.CreatedAt.IsZero() {
		key.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO access_keys (id, user_id, key_value, created_at)
		VALUES (?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		key.ID,
		key.UserID,
		key.KeyValue,
		key.CreatedAt.UTC().Format(timeFormat),
	)
	if err != nil {
		if isConstraintViolation(err) {
			return ErrDuplicateAccessKey
		}
		return fmt.Errorf("inserting access key: %w", err)
	}

	s.logger.Debug("created access key", "id", key.ID, "user_id", key.UserID)
	return nil
}

// GetAccessKeyByValue retrieves an access key by its value, with no owner
// scoping. The redemption path uses this to establish identity for a CLI.
// Returns ErrNotFound if no key has that value.
func (s *SQLiteStore) GetAccessKeyByValue(ctx context.Context, keyValue string) (*AccessKey, error) {
	query := `
		SELECT id, user_id, key_value, created_at
		FROM access_keys
		WHERE key_value = ?
	`

	var key AccessKey
	var createdAt string

	err := s.db.QueryRowContext(ctx, query, keyValue).Scan(
		&key.ID,
		&key.UserID,
		&key.KeyValue,
		&createdAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying access key: %w", err)
	}

	key.CreatedAt = parseTimestamp(createdAt, "access_keys.created_at", key.ID)
	return &key, nil
}

// ListAccessKeys returns all access keys owned by a user, newest first.
func (s *SQLiteStore) ListAccessKeys(ctx context.Context, userID string) ([]*AccessKey, error) {
	query := `
		SELECT id, user_id, key_value, created_at
		FROM access_keys
		WHERE user_id = ?
		ORDER BY created_at DESC
	`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("querying access keys: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var keys []*AccessKey
	for rows.Next() {
		var key AccessKey
		var createdAt string

		if err := rows.Scan(&key.ID, &key.UserID, &key.KeyValue, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning access key row: %w", err)
		}

		key.CreatedAt = parseTimestamp(createdAt, "access_keys.created_at", key.ID)
		keys = append(keys, &key)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating access key rows: %w", err)
	}

	return keys, nil
}

// DeleteAccessKey removes an access key owned by the given user.
// Returns ErrNotFound when the key does not exist or belongs to another user;
// the two cases are indistinguishable to the caller.
func (s *SQLiteStore) DeleteAccessKey(ctx context.Context, userID, id string) error {
	query := `DELETE FROM access_keys WHERE id = ? AND user_id = ?`

	result, err := s.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("deleting access key: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}

	s.logger.Debug("deleted access key", "id", id, "user_id", userID)
	return nil
}
