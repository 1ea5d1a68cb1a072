// ABOUTME: JWT token issuance and verification for session and access-key tokens
// ABOUTME: Uses HS256 signing with a secret injected at startup

package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token errors
var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
	ErrMissingClaim = errors.New("missing required claim")
)

// Token lifetimes. Session tokens authenticate a human login; access tokens
// authenticate a CLI that redeemed a pre-issued access key.
const (
	SessionTokenTTL = 7 * 24 * time.Hour
	AccessTokenTTL  = 30 * 24 * time.Hour
)

// Claims holds the identity information carried by a verified token.
// Email is set for session tokens, AccessKey for redeemed access-key tokens.
type Claims struct {
	UserID    string
	Email     string
	AccessKey string
}

// TokenVerifier defines the interface for token verification
type TokenVerifier interface {
	Verify(tokenString string) (*Claims, error)
}

// JWTService issues and verifies HS256 signed JWTs
type JWTService struct {
	secret []byte
}

// NewJWTService creates a new JWT service with the given signing secret
func NewJWTService(secret []byte) *JWTService {
	return &JWTService{secret: secret}
}

// IssueSession creates a session token for an interactive login.
// The token embeds the user ID and email and expires after SessionTokenTTL.
func (s *JWTService) IssueSession(userID, email string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   userID,
		"email": email,
		"iat":   now.Unix(),
		"exp":   now.Add(SessionTokenTTL).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// IssueAccessToken creates a token for a CLI that presented a valid access key.
// The token embeds the user ID and the key value and expires after AccessTokenTTL.
func (s *JWTService) IssueAccessToken(userID, keyValue string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":        userID,
		"access_key": keyValue,
		"iat":        now.Unix(),
		"exp":        now.Add(AccessTokenTTL).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Verify validates the token signature and expiry and extracts the claims.
// Both token shapes are verified by the same mechanism; callers map any
// failure uniformly to unauthenticated.
func (s *JWTService) Verify(tokenString string) (*Claims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		// Validate the signing method is HS256
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})

	if err != nil {
		// Check if it's specifically an expiration error
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if !token.Valid {
		return nil, ErrInvalidToken
	}

	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}

	sub, ok := mapClaims["sub"].(string)
	if !ok || sub == "" {
		return nil, fmt.Errorf("%w: sub", ErrMissingClaim)
	}

	claims := &Claims{UserID: sub}
	if email, ok := mapClaims["email"].(string); ok {
		claims.Email = email
	}
	if key, ok := mapClaims["access_key"].(string); ok {
		claims.AccessKey = key
	}

	return claims, nil
}
