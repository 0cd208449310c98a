package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "/webhook", cfg.Webhook.Path)
	assert.Equal(t, "/auth", cfg.Webhook.AuthPath)
	assert.True(t, cfg.Webhook.EchoPayload)
	assert.Equal(t, 10*time.Second, cfg.MerchantAPI.Timeout)
	assert.Equal(t, TokenBackendFile, cfg.Tokens.Backend)
	assert.Equal(t, "access_tokens.json", cfg.TokenFilePath())
	assert.False(t, cfg.Dispatch.Concurrent)
	assert.False(t, cfg.Dispatch.Async)
	assert.False(t, cfg.DetailResolutionEnabled())
}

func TestLoad_MissingFileFallsBackToDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "/webhook", cfg.Webhook.Path)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
webhook:
  path: /hooks/merchant
  auth_path: ""
  echo_payload: false
merchant_api:
  server: https://api.example.com/
  timeout: 3s
tokens:
  backend: sqlite
  db_path: /tmp/tokens.db
dispatch:
  concurrent: true
  async: true
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "/hooks/merchant", cfg.Webhook.Path)
	assert.Empty(t, cfg.Webhook.AuthPath)
	assert.False(t, cfg.Webhook.EchoPayload)
	assert.Equal(t, "https://api.example.com", cfg.MerchantAPI.Server)
	assert.Equal(t, 3*time.Second, cfg.MerchantAPI.Timeout)
	assert.Equal(t, TokenBackendSQLite, cfg.Tokens.Backend)
	assert.Equal(t, "/tmp/tokens.db", cfg.Tokens.DBPath)
	assert.True(t, cfg.Dispatch.Concurrent)
	assert.True(t, cfg.Dispatch.Async)
	assert.True(t, cfg.DetailResolutionEnabled())
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("MERCHANT_API_SERVER", "http://localhost:9000")
	t.Setenv("ACCESS_TOKEN_DIRECTORY_ENV_VAR", "TEST_TOKEN_DIR")
	t.Setenv("TEST_TOKEN_DIR", "/data/")
	t.Setenv("ACCESS_TOKEN_FILE_NAME", "tokens.json")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:9000", cfg.MerchantAPI.Server)
	assert.Equal(t, "/data/tokens.json", cfg.TokenFilePath())
}

func TestLoad_InvalidFile(t *testing.T) {
	path := writeConfig(t, "server: [unterminated")

	_, err := Load(path)
	assert.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server:      ServerConfig{Port: 8080},
			Webhook:     WebhookConfig{Path: "/webhook", AuthPath: "/auth"},
			MerchantAPI: MerchantAPIConfig{Timeout: time.Second},
			Tokens:      TokensConfig{Backend: TokenBackendFile, FileName: "t.json"},
		}
	}

	require.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"port out of range", func(c *Config) { c.Server.Port = 70000 }},
		{"relative webhook path", func(c *Config) { c.Webhook.Path = "webhook" }},
		{"relative auth path", func(c *Config) { c.Webhook.AuthPath = "auth" }},
		{"auth path equals webhook path", func(c *Config) { c.Webhook.AuthPath = "/webhook" }},
		{"non http server", func(c *Config) { c.MerchantAPI.Server = "ftp://api" }},
		{"zero timeout", func(c *Config) { c.MerchantAPI.Timeout = 0 }},
		{"file backend without name", func(c *Config) { c.Tokens.FileName = "" }},
		{"sqlite backend without path", func(c *Config) { c.Tokens.Backend = TokenBackendSQLite }},
		{"unknown backend", func(c *Config) { c.Tokens.Backend = "redis" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestConfig_TokenFilePath(t *testing.T) {
	cfg := &Config{Tokens: TokensConfig{FileName: "access_tokens.json"}}
	assert.Equal(t, "access_tokens.json", cfg.TokenFilePath())

	t.Setenv("DATA_DIR_FOR_TEST", "/var/lib/app/")
	cfg.Tokens.DirEnv = "DATA_DIR_FOR_TEST"
	assert.Equal(t, "/var/lib/app/access_tokens.json", cfg.TokenFilePath())

	cfg.Tokens.DirEnv = "UNSET_DIR_FOR_TEST"
	assert.Equal(t, "access_tokens.json", cfg.TokenFilePath())
}
