package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 5, cfg.Throttle.MaxRequests)
	assert.Equal(t, 5*time.Minute, cfg.ThrottleWindow())
	assert.Equal(t, 30*time.Second, cfg.StageTimeout())
	assert.Equal(t, time.Hour, cfg.Retention())
	assert.Equal(t, 30*time.Minute, cfg.MonitorInterval())
	assert.Equal(t, "domainscope.db", cfg.Database.Path)
	assert.Equal(t, 5*time.Second, cfg.DatabaseBusyTimeout())
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  host: 0.0.0.0
  port: 9090
throttle:
  max_requests: 10
  window_seconds: 60
scan:
  stage_timeout_seconds: 45
collaborators:
  virustotal_key: vt-key
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 10, cfg.Throttle.MaxRequests)
	assert.Equal(t, time.Minute, cfg.ThrottleWindow())
	assert.Equal(t, 45*time.Second, cfg.StageTimeout())
	assert.Equal(t, "vt-key", cfg.Collaborators.VirusTotalKey)

	// Untouched sections keep their defaults.
	assert.Equal(t, "domainscope.db", cfg.Database.Path)
	assert.Equal(t, 16, cfg.Scan.SubscriberBuffer)
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [not: a map"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}
