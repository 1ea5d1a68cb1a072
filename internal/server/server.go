// ABOUTME: HTTP server wiring for the broker API: routes, CORS, JSON helpers
// ABOUTME: Maps service errors to the documented status codes

package server

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/2389/fold-broker/internal/accesskey"
	"github.com/2389/fold-broker/internal/auth"
	"github.com/2389/fold-broker/internal/identity"
	"github.com/2389/fold-broker/internal/providerkey"
)

// Server exposes the broker API over HTTP.
type Server struct {
	identity     *identity.Service
	accessKeys   *accesskey.Service
	providerKeys *providerkey.Service
	verifier     auth.TokenVerifier
	logger       *slog.Logger
}

// New creates a Server wired to the given services.
func New(idSvc *identity.Service, akSvc *accesskey.Service, pkSvc *providerkey.Service, verifier auth.TokenVerifier) *Server {
	return &Server{
		identity:     idSvc,
		accessKeys:   akSvc,
		providerKeys: pkSvc,
		verifier:     verifier,
		logger:       slog.Default().With("component", "server"),
	}
}

// Handler builds the route table and returns the root handler.
// check-accesskey stays unauthenticated: it is the identity bootstrap for
// non-interactive clients.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	authed := auth.Middleware(s.verifier)

	// Public routes
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /register", s.handleRegister)
	mux.HandleFunc("POST /login", s.handleLogin)
	mux.HandleFunc("POST /check-accesskey", s.handleCheckAccessKey)

	// Session-authenticated routes
	mux.Handle("POST /save-token", authed(http.HandlerFunc(s.handleSaveToken)))
	mux.Handle("GET /tokens", authed(http.HandlerFunc(s.handleListTokens)))
	mux.Handle("DELETE /delete-token/{id}", authed(http.HandlerFunc(s.handleDeleteToken)))
	mux.Handle("POST /save-llm-key", authed(http.HandlerFunc(s.handleSaveLLMKey)))
	mux.Handle("PUT /update-llm-key", authed(http.HandlerFunc(s.handleUpdateLLMKey)))
	mux.Handle("DELETE /delete-llm-key/{id}", authed(http.HandlerFunc(s.handleDeleteLLMKey)))
	mux.Handle("GET /llm/keys", authed(http.HandlerFunc(s.handleListLLMKeys)))

	// Accepts either token shape; echoes the verified claims
	mux.Handle("GET /profile", authed(http.HandlerFunc(s.handleProfile)))

	return corsMiddleware(mux)
}

// handleHealth handles GET /health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// corsMiddleware applies a permissive CORS policy and answers preflights.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// writeJSON writes a JSON response with the given status code.
func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}

// sendJSONError writes a JSON error response.
func (s *Server) sendJSONError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

// sendInternalError logs the fault server-side and returns a generic 500.
// Internal details never reach the response body.
func (s *Server) sendInternalError(w http.ResponseWriter, op string, err error) {
	s.logger.Error(op, "error", err)
	s.sendJSONError(w, http.StatusInternalServerError, "internal server error")
}
