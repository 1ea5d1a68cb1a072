// ABOUTME: Unit tests for bcrypt password hashing and verification
// ABOUTME: Covers per-call salting and malformed digest handling

package auth

import "testing"

func TestHashPassword_Salted(t *testing.T) {
	first, err := HashPassword("hunter2")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	second, err := HashPassword("hunter2")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}

	// Salts are randomized per call
	if first == second {
		t.Error("two hashes of the same password should differ")
	}

	if !CheckPassword("hunter2", first) {
		t.Error("CheckPassword() should accept the correct password")
	}
	if !CheckPassword("hunter2", second) {
		t.Error("CheckPassword() should accept the correct password")
	}
}

func TestCheckPassword_WrongPassword(t *testing.T) {
	hash, err := HashPassword("correct horse")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}

	if CheckPassword("battery staple", hash) {
		t.Error("CheckPassword() should reject a wrong password")
	}
}

func TestCheckPassword_MalformedDigest(t *testing.T) {
	tests := []struct {
		name   string
		digest string
	}{
		{name: "empty", digest: ""},
		{name: "not bcrypt", digest: "plain-text"},
		{name: "truncated", digest: "$2a$10$short"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Malformed digests must return false, never panic
			if CheckPassword("anything", tt.digest) {
				t.Error("CheckPassword() should reject a malformed digest")
			}
		})
	}
}

func TestDummyHash_IsValidBcrypt(t *testing.T) {
	// The dummy hash must be comparable so the timing-safe login path
	// actually performs a full bcrypt comparison.
	if CheckPassword("wrong", DummyHash) {
		t.Error("no password should match the dummy hash")
	}
}
