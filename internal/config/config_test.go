package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("WORKBENCH_AUTH_MODE", "none")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, ":8090", cfg.ListenAddr)
	assert.Equal(t, "ws://localhost:9400/ws/worker", cfg.WorkerURL)
	assert.Equal(t, 60*time.Second, cfg.WorkerTimeout)
	assert.Equal(t, 30*time.Second, cfg.FetchTimeout)
	assert.Equal(t, 3, cfg.FetchRetries)
	assert.Equal(t, 8, cfg.BundleCacheSize)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("WORKBENCH_AUTH_MODE", "api-key")
	t.Setenv("WORKBENCH_API_KEY", "secret")
	t.Setenv("WORKBENCH_LISTEN_ADDR", ":9999")
	t.Setenv("WORKBENCH_WORKER_TIMEOUT", "5s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9999", cfg.ListenAddr)
	assert.Equal(t, 5*time.Second, cfg.WorkerTimeout)
	assert.True(t, cfg.AuthEnabled())
	assert.False(t, cfg.JWTEnabled())
}

func TestLoad_APIKeyRequired(t *testing.T) {
	t.Setenv("WORKBENCH_AUTH_MODE", "api-key")
	t.Setenv("WORKBENCH_API_KEY", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_JWTMode(t *testing.T) {
	t.Setenv("WORKBENCH_AUTH_MODE", "jwt")
	t.Setenv("WORKBENCH_JWT_SECRET", "hmac-key")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.JWTEnabled())
}

func TestLoad_JWTRequiresSecret(t *testing.T) {
	t.Setenv("WORKBENCH_AUTH_MODE", "jwt")
	t.Setenv("WORKBENCH_JWT_SECRET", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_UnknownAuthMode(t *testing.T) {
	t.Setenv("WORKBENCH_AUTH_MODE", "basic")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_FileOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "workbench.yaml")
	body := "listen_addr: \":7070\"\nbundle_locator: \"file:///tmp/project.json\"\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	t.Setenv("WORKBENCH_AUTH_MODE", "none")
	t.Setenv("WORKBENCH_CONFIG", path)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":7070", cfg.ListenAddr)
	assert.Equal(t, "file:///tmp/project.json", cfg.BundleLocator)
	// Untouched keys keep their defaults.
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoad_FileMissing(t *testing.T) {
	t.Setenv("WORKBENCH_AUTH_MODE", "none")
	t.Setenv("WORKBENCH_CONFIG", filepath.Join(t.TempDir(), "absent.yaml"))

	_, err := Load()
	assert.Error(t, err)
}
