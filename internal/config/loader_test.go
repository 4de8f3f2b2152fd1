package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestHome points HOME at a temp directory so the loader's allowed-path
// checks resolve against it.
func setupTestHome(t *testing.T) string {
	t.Helper()

	home := t.TempDir()
	t.Setenv("HOME", home)
	if runtime.GOOS == "windows" {
		t.Setenv("USERPROFILE", home)
	}
	return home
}

func writeTestConfig(t *testing.T, home, content string, perm os.FileMode) string {
	t.Helper()

	dir := filepath.Join(home, ".config", "erpd")
	require.NoError(t, os.MkdirAll(dir, 0700))
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), perm))
	return path
}

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	setupTestHome(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 30*time.Second, cfg.ERP.Timeout.Duration())
	assert.Equal(t, 9090, cfg.HTTP.Port)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoad_FromFile(t *testing.T) {
	home := setupTestHome(t)
	path := writeTestConfig(t, home, `
erp:
  base_url: https://erp.example.com
  api_key: key-123
  api_secret: s3cret
  timeout: 45s
http:
  enabled: true
  port: 8088
nats:
  enabled: true
  url: nats://broker:4222
logging:
  level: debug
`, 0600)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://erp.example.com", cfg.ERP.BaseURL)
	assert.Equal(t, "key-123", cfg.ERP.APIKey)
	assert.Equal(t, "s3cret", cfg.ERP.APISecret.Value())
	assert.Equal(t, 45*time.Second, cfg.ERP.Timeout.Duration())
	assert.True(t, cfg.HTTP.Enabled)
	assert.Equal(t, 8088, cfg.HTTP.Port)
	assert.Equal(t, "nats://broker:4222", cfg.NATS.URL)
	assert.Equal(t, "debug", cfg.Logging.Level)
	// Unset sections still pick up defaults.
	assert.Equal(t, "grpc", cfg.Telemetry.Protocol)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	home := setupTestHome(t)
	path := writeTestConfig(t, home, `
http:
  port: 8088
`, 0600)

	t.Setenv("ERPD_HTTP_PORT", "8181")
	t.Setenv("ERPD_ERP_BASE_URL", "https://override.example.com")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8181, cfg.HTTP.Port)
	assert.Equal(t, "https://override.example.com", cfg.ERP.BaseURL)
}

func TestLoad_RejectsInsecurePermissions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("permission bits not enforced on windows")
	}
	home := setupTestHome(t)
	path := writeTestConfig(t, home, "http:\n  port: 8088\n", 0644)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insecure config file permissions")
}

func TestLoad_RejectsPathOutsideAllowedDirs(t *testing.T) {
	setupTestHome(t)

	outside := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(outside, []byte("{}"), 0600))

	_, err := Load(outside)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config file must be in")
}

func TestLoad_InvalidConfigRejected(t *testing.T) {
	home := setupTestHome(t)
	path := writeTestConfig(t, home, `
erp:
  base_url: not-a-url
`, 0600)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config validation failed")
}

func TestLoad_SecretNeverPrintsRaw(t *testing.T) {
	home := setupTestHome(t)
	path := writeTestConfig(t, home, `
erp:
  api_key: key-123
  api_secret: super-secret-value
`, 0600)

	cfg, err := Load(path)
	require.NoError(t, err)

	printed := cfg.ERP.APISecret.String()
	assert.NotContains(t, printed, "super-secret-value")
	assert.Equal(t, "super-secret-value", cfg.ERP.APISecret.Value())
}
