// Package auth provides authentication primitives for fold-broker.
//
// # Passwords
//
// User passwords are hashed with bcrypt:
//
//	hash, err := auth.HashPassword(password)
//	ok := auth.CheckPassword(password, hash)
//
// The DummyHash constant supports timing-safe login when no account exists.
//
// # Tokens
//
// Two token shapes are issued, both HS256 JWTs signed with the configured
// jwt_secret and verified by the same JWTService:
//
//   - Session tokens (7 days): issued on password login, claims {sub, email}.
//   - Access tokens (30 days): issued when a CLI redeems a pre-provisioned
//     access key, claims {sub, access_key}.
//
// # HTTP Middleware
//
// Middleware(verifier) guards API routes. It extracts the bearer token from
// the Authorization header, verifies it, and attaches the Claims to the
// request context. Handlers read them back with FromContext/MustFromContext.
package auth
