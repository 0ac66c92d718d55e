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
	t.Setenv("CONFIG_PATH", t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ServiceName, cfg.Service.Name)
	assert.Equal(t, "0.0.0.0:8080", cfg.Server.HTTP.Address())
	assert.Equal(t, "host", cfg.Database.DataMode)
	assert.True(t, cfg.Database.RunsMigrations())
	assert.Equal(t, "customer-io.events", cfg.Redis.Channel)
	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, 5, cfg.Settle.MaxAttempts)
	assert.Equal(t, time.Second, cfg.Settle.InitialInterval)
	assert.Equal(t, "@every 1m", cfg.Reconciler.Schedule)
	assert.Equal(t, 5*time.Minute, cfg.Reconciler.Timeout)
	assert.Equal(t, "configs/customer-io-catalog.yaml", cfg.CatalogPath)
}

func TestLoad_FileAndEnvironment(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "customer-io.yaml"), []byte(`
server:
  http:
    port: 9090
database:
  host: db.internal
  data_mode: client
settle:
  max_attempts: 2
  initial_interval: 250ms
`), 0o600))
	t.Setenv("CONFIG_PATH", dir)
	t.Setenv("CUSTOMERIO_DATABASE_HOST", "db.override")
	t.Setenv("CUSTOMERIO_REDIS_ENABLED", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.HTTP.Port)
	assert.Equal(t, "db.override", cfg.Database.Host)
	assert.False(t, cfg.Database.RunsMigrations())
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, 2, cfg.Settle.MaxAttempts)
	assert.Equal(t, 250*time.Millisecond, cfg.Settle.InitialInterval)
}
