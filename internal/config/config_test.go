package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFileAndEnv(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  addr: ":9090"
upload:
  max_size: 2MB
  session_ttl: 5m
auth:
  secret: from-file
`), 0o600))
	t.Setenv("VOLSTAT_AUTH_SECRET", "from-env")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.ServerAddr)
	assert.InDelta(t, 2_000_000, cfg.UploadMaxSize, 100_000)
	assert.Equal(t, 5*time.Minute, cfg.SessionTTL)
	assert.Equal(t, "from-env", cfg.AuthSecret)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.AllowedOrigins)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadRequiresSecret(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	t.Setenv("VOLSTAT_AUTH_SECRET", "")
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadRejectsBadSize(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	t.Setenv("VOLSTAT_AUTH_SECRET", "x")
	t.Setenv("VOLSTAT_UPLOAD_MAX_SIZE", "lots")

	_, err := Load("")
	assert.Error(t, err)
}
