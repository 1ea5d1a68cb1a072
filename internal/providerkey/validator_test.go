// ABOUTME: Tests for provider key validation rules
// ABOUTME: Covers prefix checks, per-provider auth header shapes, and rejection handling

package providerkey

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidator_CheckFormat(t *testing.T) {
	v := NewValidator()

	tests := []struct {
		name     string
		provider string
		key      string
		wantErr  error
	}{
		{name: "gemini ok", provider: "gemini", key: "AIzaSyFakeKey123", wantErr: nil},
		{name: "gpt ok", provider: "gpt", key: "sk-fake-key", wantErr: nil},
		{name: "claude ok", provider: "claude", key: "sk-ant-fake-key", wantErr: nil},
		{name: "gemini wrong prefix", provider: "gemini", key: "sk-fake", wantErr: ErrBadKeyFormat},
		{name: "gpt wrong prefix", provider: "gpt", key: "AIzaFake", wantErr: ErrBadKeyFormat},
		{name: "claude missing ant", provider: "claude", key: "sk-fake", wantErr: ErrBadKeyFormat},
		// sk-ant- keys satisfy gpt's sk- prefix rule
		{name: "gpt accepts ant prefix", provider: "gpt", key: "sk-ant-fake", wantErr: nil},
		{name: "unknown provider", provider: "mistral", key: "anything", wantErr: ErrUnknownProvider},
		{name: "empty key", provider: "gemini", key: "", wantErr: ErrBadKeyFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.CheckFormat(tt.provider, tt.key)
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestValidator_CheckFormat_NoNetwork(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	v := NewValidator(
		WithBaseURL(ProviderGemini, srv.URL),
		WithBaseURL(ProviderGPT, srv.URL),
		WithBaseURL(ProviderClaude, srv.URL),
	)

	err := v.CheckFormat(ProviderGPT, "AIzaFAKE")
	assert.ErrorIs(t, err, ErrBadKeyFormat)
	assert.Zero(t, hits.Load(), "format check must not reach the network")
}

func TestValidator_CheckLive_Gemini(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1beta/models", r.URL.Path)
		assert.Equal(t, "AIzaFakeKey", r.URL.Query().Get("key"))
		assert.Empty(t, r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	v := NewValidator(WithBaseURL(ProviderGemini, srv.URL))
	require.NoError(t, v.CheckLive(context.Background(), ProviderGemini, "AIzaFakeKey"))
}

func TestValidator_CheckLive_GPT(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/models", r.URL.Path)
		assert.Equal(t, "Bearer sk-fake-key", r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	v := NewValidator(WithBaseURL(ProviderGPT, srv.URL))
	require.NoError(t, v.CheckLive(context.Background(), ProviderGPT, "sk-fake-key"))
}

func TestValidator_CheckLive_Claude(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/models", r.URL.Path)
		assert.Equal(t, "sk-ant-fake", r.Header.Get("x-api-key"))
		assert.Equal(t, "2023-06-01", r.Header.Get("anthropic-version"))
		assert.Empty(t, r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	v := NewValidator(WithBaseURL(ProviderClaude, srv.URL))
	require.NoError(t, v.CheckLive(context.Background(), ProviderClaude, "sk-ant-fake"))
}

func TestValidator_CheckLive_Rejected(t *testing.T) {
	statuses := []int{http.StatusUnauthorized, http.StatusForbidden, http.StatusInternalServerError}

	for _, status := range statuses {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		}))

		v := NewValidator(WithBaseURL(ProviderGPT, srv.URL))
		err := v.CheckLive(context.Background(), ProviderGPT, "sk-fake")
		assert.ErrorIs(t, err, ErrProviderRejected, "status %d should be a rejection", status)
		srv.Close()
	}
}

func TestValidator_CheckLive_Unreachable(t *testing.T) {
	// A closed server behaves like a network failure
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	v := NewValidator(WithBaseURL(ProviderGPT, srv.URL))
	err := v.CheckLive(context.Background(), ProviderGPT, "sk-fake")
	assert.ErrorIs(t, err, ErrProviderRejected)
}

func TestValidator_KnownProvider(t *testing.T) {
	v := NewValidator()

	assert.True(t, v.KnownProvider("gemini"))
	assert.True(t, v.KnownProvider("gpt"))
	assert.True(t, v.KnownProvider("claude"))
	assert.False(t, v.KnownProvider("mistral"))
	assert.False(t, v.KnownProvider(""))
}
