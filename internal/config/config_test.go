package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "0.0.0.0:8080", cfg.Server.Addr())
	require.Equal(t, "info", cfg.Log.Level)
	require.Equal(t, "fs", cfg.Blob.Driver)
	require.Equal(t, "none", cfg.Persistence.Driver)
	require.True(t, cfg.Monitoring.Enabled)
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  host: 127.0.0.1
  port: 9090
log:
  level: debug
blob:
  driver: s3
  bucket: simcore-artifacts
  region: eu-west-1
persistence:
  driver: sqlite
  path: /var/lib/simcore/state.db
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "127.0.0.1:9090", cfg.Server.Addr())
	require.Equal(t, "debug", cfg.Log.Level)
	require.Equal(t, "s3", cfg.Blob.Driver)
	require.Equal(t, "simcore-artifacts", cfg.Blob.Bucket)
	require.Equal(t, "sqlite", cfg.Persistence.Driver)
	require.Equal(t, "/var/lib/simcore/state.db", cfg.Persistence.Path)
	// untouched sections keep defaults
	require.True(t, cfg.Monitoring.Enabled)
}

func TestLoadRejectsBadValues(t *testing.T) {
	for name, body := range map[string]string{
		"bad port":        "server:\n  port: 99999\n",
		"bad persistence": "persistence:\n  driver: dynamo\n",
		"bad blob":        "blob:\n  driver: ftp\n",
	} {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
		_, err := Load(path)
		require.Error(t, err, name)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}
