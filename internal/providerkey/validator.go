// ABOUTME: Per-provider API key validation: prefix format check plus live introspection call
// ABOUTME: Each provider is a closed variant with its own prefix rule and auth header shape

package providerkey

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Supported providers.
const (
	ProviderGemini = "gemini"
	ProviderGPT    = "gpt"
	ProviderClaude = "claude"
)

// Validation errors
var (
	ErrUnknownProvider  = errors.New("unknown provider")
	ErrBadKeyFormat     = errors.New("invalid API key format")
	ErrProviderRejected = errors.New("provider rejected API key")
)

// DefaultTimeout bounds the live introspection call. A timed-out call counts
// as a rejection; expiry is not reported separately.
const DefaultTimeout = 10 * time.Second

// anthropicVersion is the fixed API version header Claude requires.
const anthropicVersion = "2023-06-01"

// liveCheckFunc performs a provider's key-introspection call against baseURL.
type liveCheckFunc func(ctx context.Context, client *http.Client, baseURL, key string) error

// validator holds one provider's format rule and live check.
type validator struct {
	prefix    string
	baseURL   string
	liveCheck liveCheckFunc
}

// Validator validates candidate provider keys before they are stored.
type Validator struct {
	client     *http.Client
	validators map[string]*validator
}

// Option configures a Validator.
type Option func(*Validator)

// WithTimeout sets the live-check timeout.
func WithTimeout(d time.Duration) Option {
	return func(v *Validator) {
		v.client.Timeout = d
	}
}

// WithBaseURL overrides a provider's introspection endpoint base URL.
// Unknown providers are ignored.
func WithBaseURL(provider, baseURL string) Option {
	return func(v *Validator) {
		if pv, ok := v.validators[provider]; ok {
			pv.baseURL = baseURL
		}
	}
}

// NewValidator creates a validator for the supported providers.
func NewValidator(opts ...Option) *Validator {
	v := &Validator{
		client: &http.Client{Timeout: DefaultTimeout},
		validators: map[string]*validator{
			ProviderGemini: {
				prefix:    "AIza",
				baseURL:   "https://generativelanguage.googleapis.com",
				liveCheck: checkGemini,
			},
			ProviderGPT: {
				prefix:    "sk-",
				baseURL:   "https://api.openai.com",
				liveCheck: checkGPT,
			},
			// claude's prefix contains gpt's; it is its own rule, never an
			// extension of the gpt check
			ProviderClaude: {
				prefix:    "sk-ant-",
				baseURL:   "https://api.anthropic.com",
				liveCheck: checkClaude,
			},
		},
	}

	for _, opt := range opts {
		opt(v)
	}

	return v
}

// KnownProvider reports whether the provider name is supported.
func (v *Validator) KnownProvider(provider string) bool {
	_, ok := v.validators[provider]
	return ok
}

// CheckFormat verifies the key matches the provider's expected prefix.
// This runs before any network I/O.
func (v *Validator) CheckFormat(provider, key string) error {
	pv, ok := v.validators[provider]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownProvider, provider)
	}
	if !strings.HasPrefix(key, pv.prefix) {
		return fmt.Errorf("%w: %s keys must start with %q", ErrBadKeyFormat, provider, pv.prefix)
	}
	return nil
}

// CheckLive performs the provider's key-introspection call.
// Any failure (non-success status, network error, timeout) is a rejection;
// the broker does not distinguish an invalid key from an unreachable provider.
func (v *Validator) CheckLive(ctx context.Context, provider, key string) error {
	pv, ok := v.validators[provider]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownProvider, provider)
	}
	if err := pv.liveCheck(ctx, v.client, pv.baseURL, key); err != nil {
		return fmt.Errorf("%w: %v", ErrProviderRejected, err)
	}
	return nil
}

// checkGemini lists models with the key passed as a query parameter.
func checkGemini(ctx context.Context, client *http.Client, baseURL, key string) error {
	endpoint := baseURL + "/v1beta/models?key=" + url.QueryEscape(key)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	return doCheck(client, req)
}

// checkGPT lists models with the key as a bearer credential.
func checkGPT(ctx context.Context, client *http.Client, baseURL, key string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/v1/models", nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+key)
	return doCheck(client, req)
}

// checkClaude lists models with the x-api-key header plus the fixed version header.
func checkClaude(ctx context.Context, client *http.Client, baseURL, key string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/v1/models", nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("x-api-key", key)
	req.Header.Set("anthropic-version", anthropicVersion)
	return doCheck(client, req)
}

// doCheck executes the request and treats any non-2xx status as a failure.
func doCheck(client *http.Client, req *http.Request) error {
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	return nil
}
