// Package store provides persistent storage for fold-broker using SQLite.
//
// # Data Models
//
//   - User: registered account with bcrypt password hash and unique email
//   - AccessKey: pre-shared CLI secret with a globally unique value
//   - ProviderKey: third-party LLM API credential (gemini, gpt, claude)
//
// # SQLite Configuration
//
// The store uses SQLite with WAL mode for concurrent reads:
//
//	PRAGMA journal_mode=WAL;
//	PRAGMA foreign_keys=ON;
//
// The schema is created automatically on startup. Unique indexes on
// users.email and access_keys.key_value enforce the broker's uniqueness
// invariants at the storage layer; the services treat the resulting
// constraint errors as conflicts, closing the window left by their
// check-then-insert pre-checks.
//
// # Error Handling
//
// Common errors:
//
//   - ErrNotFound: entity absent, or present but owned by another user
//   - ErrDuplicateEmail: email already registered
//   - ErrDuplicateAccessKey: access key value already issued
//
// Ownership-scoped operations never distinguish "not yours" from "does not
// exist"; both are ErrNotFound so callers cannot probe other users' IDs.
//
// All methods accept context.Context for cancellation support.
package store
