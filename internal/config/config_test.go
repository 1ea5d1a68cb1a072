// ABOUTME: Tests for configuration loading
// ABOUTME: Covers env var expansion, duration parsing, and required-field validation

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "broker.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
server:
  http_addr: ":8080"
database:
  path: /tmp/broker.db
auth:
  jwt_secret: test-secret
providers:
  timeout: 5s
logging:
  level: debug
  format: json
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.HTTPAddr)
	assert.Equal(t, "/tmp/broker.db", cfg.Database.Path)
	assert.Equal(t, "test-secret", cfg.Auth.JWTSecret)
	assert.Equal(t, "5s", cfg.Providers.TimeoutRaw)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoad_EnvExpansion(t *testing.T) {
	t.Setenv("BROKER_TEST_SECRET", "from-env")

	path := writeConfig(t, `
server:
  http_addr: ":8080"
database:
  path: /tmp/broker.db
auth:
  jwt_secret: ${BROKER_TEST_SECRET}
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Auth.JWTSecret)
}

func TestLoad_UnsetEnvFailsValidation(t *testing.T) {
	// An unset variable expands to empty, which then trips the
	// required-field check
	path := writeConfig(t, `
server:
  http_addr: ":8080"
database:
  path: /tmp/broker.db
auth:
  jwt_secret: ${BROKER_TEST_UNSET_VAR}
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "jwt_secret")
}

func TestLoad_DurationParsing(t *testing.T) {
	path := writeConfig(t, `
server:
  http_addr: ":8080"
database:
  path: /tmp/broker.db
auth:
  jwt_secret: s
providers:
  timeout: 1m30s
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "1m30s", cfg.Providers.TimeoutRaw)
	assert.Equal(t, float64(90), cfg.Providers.Timeout.Seconds())
}

func TestLoad_BadDuration(t *testing.T) {
	path := writeConfig(t, `
server:
  http_addr: ":8080"
database:
  path: /tmp/broker.db
auth:
  jwt_secret: s
providers:
  timeout: soon
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timeout")
}

func TestLoad_MissingRequiredFields(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name: "missing http_addr",
			content: `
database:
  path: /tmp/broker.db
auth:
  jwt_secret: s
`,
			wantErr: "http_addr",
		},
		{
			name: "missing database path",
			content: `
server:
  http_addr: ":8080"
auth:
  jwt_secret: s
`,
			wantErr: "database.path",
		},
		{
			name: "missing jwt secret",
			content: `
server:
  http_addr: ":8080"
database:
  path: /tmp/broker.db
`,
			wantErr: "jwt_secret",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestLoad_InvalidYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "server: [not: valid"))
	require.Error(t, err)
}
