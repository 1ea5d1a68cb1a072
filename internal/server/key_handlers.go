// ABOUTME: Handlers for access key and LLM provider key endpoints
// ABOUTME: Not-owned resources answer 404, identical to absent ones

package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/2389/fold-broker/internal/accesskey"
	"github.com/2389/fold-broker/internal/auth"
	"github.com/2389/fold-broker/internal/providerkey"
	"github.com/2389/fold-broker/internal/store"
)

// SaveTokenRequest is the JSON request body for POST /save-token.
type SaveTokenRequest struct {
	AccessKey string `json:"accessKey"`
}

// CheckAccessKeyRequest is the JSON request body for POST /check-accesskey.
type CheckAccessKeyRequest struct {
	AccessKey string `json:"accessKey"`
}

// SaveLLMKeyRequest is the JSON request body for POST /save-llm-key.
type SaveLLMKeyRequest struct {
	Provider string `json:"provider"`
	APIKey   string `json:"apiKey"`
}

// UpdateLLMKeyRequest is the JSON request body for PUT /update-llm-key.
type UpdateLLMKeyRequest struct {
	ID       string `json:"id"`
	Provider string `json:"provider"`
	APIKey   string `json:"apiKey"`
}

// AccessKeyResponse is the JSON shape of an access key record.
type AccessKeyResponse struct {
	ID        string `json:"id"`
	UserID    string `json:"userId"`
	AccessKey string `json:"accessKey"`
	CreatedAt string `json:"createdAt"`
}

// ProviderKeyResponse is the JSON shape of a provider key record.
// The key value is returned as stored, in plaintext.
type ProviderKeyResponse struct {
	ID        string `json:"id"`
	UserID    string `json:"userId"`
	Provider  string `json:"provider"`
	APIKey    string `json:"apiKey"`
	CreatedAt string `json:"createdAt"`
}

func accessKeyResponse(k *store.AccessKey) AccessKeyResponse {
	return AccessKeyResponse{
		ID:        k.ID,
		UserID:    k.UserID,
		AccessKey: k.KeyValue,
		CreatedAt: k.CreatedAt.Format(time.RFC3339),
	}
}

func providerKeyResponse(k *store.ProviderKey) ProviderKeyResponse {
	return ProviderKeyResponse{
		ID:        k.ID,
		UserID:    k.UserID,
		Provider:  k.Provider,
		APIKey:    k.KeyValue,
		CreatedAt: k.CreatedAt.Format(time.RFC3339),
	}
}

// handleSaveToken handles POST /save-token.
func (s *Server) handleSaveToken(w http.ResponseWriter, r *http.Request) {
	claims := auth.MustFromContext(r.Context())

	var req SaveTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	key, err := s.accessKeys.Issue(r.Context(), claims.UserID, req.AccessKey)
	if err != nil {
		switch {
		case errors.Is(err, accesskey.ErrMissingKey):
			s.sendJSONError(w, http.StatusBadRequest, "API key is required")
		case errors.Is(err, accesskey.ErrKeyExists):
			s.sendJSONError(w, http.StatusBadRequest, "This access key already exists. Please try a new one.")
		default:
			s.sendInternalError(w, "failed to save access key", err)
		}
		return
	}

	s.writeJSON(w, http.StatusCreated, map[string]any{
		"message": "Token saved successfully",
		"data":    accessKeyResponse(key),
	})
}

// handleListTokens handles GET /tokens.
func (s *Server) handleListTokens(w http.ResponseWriter, r *http.Request) {
	claims := auth.MustFromContext(r.Context())

	keys, err := s.accessKeys.List(r.Context(), claims.UserID)
	if err != nil {
		s.sendInternalError(w, "failed to list access keys", err)
		return
	}

	response := make([]AccessKeyResponse, len(keys))
	for i, k := range keys {
		response[i] = accessKeyResponse(k)
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"userId":     claims.UserID,
		"total":      len(response),
		"accessKeys": response,
	})
}

// handleDeleteToken handles DELETE /delete-token/{id}.
func (s *Server) handleDeleteToken(w http.ResponseWriter, r *http.Request) {
	claims := auth.MustFromContext(r.Context())
	id := r.PathValue("id")

	if err := s.accessKeys.Delete(r.Context(), claims.UserID, id); err != nil {
		if errors.Is(err, accesskey.ErrKeyNotFound) {
			s.sendJSONError(w, http.StatusNotFound, "Token not found for this user")
			return
		}
		s.sendInternalError(w, "failed to delete access key", err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]string{
		"message": "Access key deleted successfully",
	})
}

// handleCheckAccessKey handles POST /check-accesskey.
// Deliberately unauthenticated: a CLI presents its pre-issued key here to
// obtain a bearer token.
func (s *Server) handleCheckAccessKey(w http.ResponseWriter, r *http.Request) {
	var req CheckAccessKeyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	token, key, err := s.accessKeys.Redeem(r.Context(), req.AccessKey)
	if err != nil {
		switch {
		case errors.Is(err, accesskey.ErrMissingKey):
			s.sendJSONError(w, http.StatusBadRequest, "accessKey is required")
		case errors.Is(err, accesskey.ErrKeyNotFound):
			s.sendJSONError(w, http.StatusNotFound, "Invalid accessKey")
		default:
			s.sendInternalError(w, "failed to redeem access key", err)
		}
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"message":   "AccessKey valid",
		"userId":    key.UserID,
		"accessKey": key.KeyValue,
		"token":     token,
	})
}

// handleSaveLLMKey handles POST /save-llm-key.
// Provider validation failures answer 400 with a reason field.
func (s *Server) handleSaveLLMKey(w http.ResponseWriter, r *http.Request) {
	claims := auth.MustFromContext(r.Context())

	var req SaveLLMKeyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	key, err := s.providerKeys.Store(r.Context(), claims.UserID, req.Provider, req.APIKey)
	if err != nil {
		switch {
		case errors.Is(err, providerkey.ErrMissingFields):
			s.sendJSONError(w, http.StatusBadRequest, "Provider and API key are required")
		case errors.Is(err, providerkey.ErrUnknownProvider),
			errors.Is(err, providerkey.ErrBadKeyFormat):
			s.sendValidationError(w, "Invalid API key format", err)
		case errors.Is(err, providerkey.ErrProviderRejected):
			s.sendValidationError(w, "API key validation failed", err)
		default:
			s.sendInternalError(w, "failed to save LLM key", err)
		}
		return
	}

	s.writeJSON(w, http.StatusCreated, map[string]any{
		"message": "LLM API key saved successfully",
		"data":    providerKeyResponse(key),
	})
}

// handleUpdateLLMKey handles PUT /update-llm-key.
// No validation runs on update; the new provider and value are stored as given.
func (s *Server) handleUpdateLLMKey(w http.ResponseWriter, r *http.Request) {
	claims := auth.MustFromContext(r.Context())

	var req UpdateLLMKeyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	key, err := s.providerKeys.Update(r.Context(), claims.UserID, req.ID, req.Provider, req.APIKey)
	if err != nil {
		switch {
		case errors.Is(err, providerkey.ErrMissingFields):
			s.sendJSONError(w, http.StatusBadRequest, "id, provider and apiKey are required")
		case errors.Is(err, providerkey.ErrKeyNotFound):
			s.sendJSONError(w, http.StatusNotFound, "LLM key not found for this user")
		default:
			s.sendInternalError(w, "failed to update LLM key", err)
		}
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"message": "LLM key updated successfully",
		"data":    providerKeyResponse(key),
	})
}

// handleDeleteLLMKey handles DELETE /delete-llm-key/{id}.
func (s *Server) handleDeleteLLMKey(w http.ResponseWriter, r *http.Request) {
	claims := auth.MustFromContext(r.Context())
	id := r.PathValue("id")

	if err := s.providerKeys.Delete(r.Context(), claims.UserID, id); err != nil {
		if errors.Is(err, providerkey.ErrKeyNotFound) {
			s.sendJSONError(w, http.StatusNotFound, "LLM key not found for this user")
			return
		}
		s.sendInternalError(w, "failed to delete LLM key", err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]string{
		"message": "LLM key deleted successfully",
	})
}

// handleListLLMKeys handles GET /llm/keys.
func (s *Server) handleListLLMKeys(w http.ResponseWriter, r *http.Request) {
	claims := auth.MustFromContext(r.Context())

	keys, err := s.providerKeys.List(r.Context(), claims.UserID)
	if err != nil {
		s.sendInternalError(w, "failed to list LLM keys", err)
		return
	}

	response := make([]ProviderKeyResponse, len(keys))
	for i, k := range keys {
		response[i] = providerKeyResponse(k)
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"userId": claims.UserID,
		"total":  len(response),
		"keys":   response,
	})
}

// sendValidationError writes a 400 with the failure reason alongside the
// generic error message.
func (s *Server) sendValidationError(w http.ResponseWriter, message string, err error) {
	s.writeJSON(w, http.StatusBadRequest, map[string]string{
		"error":  message,
		"reason": err.Error(),
	})
}
