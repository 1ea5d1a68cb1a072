// ABOUTME: Password hashing and verification using bcrypt
// ABOUTME: Provides a dummy hash for timing-safe comparison on unknown accounts

package auth

import "golang.org/x/crypto/bcrypt"

// DummyHash is a bcrypt digest of a throwaway password. Login paths compare
// against it when no account exists so that the response time does not reveal
// whether an email is registered.
const DummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// HashPassword produces a salted bcrypt digest of the plaintext.
// The salt is randomized per call, so two hashes of the same input differ.
func HashPassword(plaintext string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports whether the plaintext matches the digest.
// Malformed digests return false rather than an error.
func CheckPassword(plaintext, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext)) == nil
}
