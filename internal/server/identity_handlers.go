// ABOUTME: Handlers for registration, login, and the profile echo endpoint
// ABOUTME: Login failures map uniformly to 401 to resist account enumeration

package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/2389/fold-broker/internal/auth"
	"github.com/2389/fold-broker/internal/identity"
	"github.com/2389/fold-broker/internal/store"
)

// RegisterRequest is the JSON request body for POST /register.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest is the JSON request body for POST /login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserResponse carries a user's public fields. The password hash never
// appears in a response.
type UserResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// ProfileClaims is the claims echo for GET /profile.
type ProfileClaims struct {
	UserID    string `json:"userId"`
	Email     string `json:"email,omitempty"`
	AccessKey string `json:"accessKey,omitempty"`
}

func userResponse(u *store.User) UserResponse {
	return UserResponse{ID: u.ID, Name: u.Name, Email: u.Email}
}

// handleRegister handles POST /register.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	user, err := s.identity.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, identity.ErrMissingFields):
			s.sendJSONError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, identity.ErrEmailTaken):
			s.sendJSONError(w, http.StatusBadRequest, "Email already exists")
		default:
			s.sendInternalError(w, "failed to register user", err)
		}
		return
	}

	s.writeJSON(w, http.StatusCreated, map[string]any{
		"message": "User registered successfully",
		"user":    userResponse(user),
	})
}

// handleLogin handles POST /login.
// Unknown email and wrong password produce the identical response.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	token, user, err := s.identity.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, identity.ErrInvalidCredentials) {
			s.sendJSONError(w, http.StatusUnauthorized, "Invalid email or password")
			return
		}
		s.sendInternalError(w, "failed to log in user", err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"message": "Login successful",
		"token":   token,
		"user":    userResponse(user),
	})
}

// handleProfile handles GET /profile.
// Works for both token shapes; it simply echoes the verified claims.
func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	claims := auth.MustFromContext(r.Context())

	s.writeJSON(w, http.StatusOK, map[string]any{
		"message": "Access granted",
		"user": ProfileClaims{
			UserID:    claims.UserID,
			Email:     claims.Email,
			AccessKey: claims.AccessKey,
		},
	})
}
