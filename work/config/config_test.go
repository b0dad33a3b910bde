package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadFromFileJSON(t *testing.T) {
	path := writeFile(t, "config.json", `{
		"listenAddr": "127.0.0.1:9000",
		"relayTimeout": "12s",
		"mappingTTL": "1h",
		"maxRedirects": 3,
		"upstreamHeaders": {"User-Agent": "test-agent"}
	}`)

	cfg, err := loadFromFile(path)
	require.NoError(t, err)
	validateAndSetDefaults(cfg)

	assert.Equal(t, "127.0.0.1:9000", cfg.ListenAddr)
	assert.Equal(t, "http://127.0.0.1:9000", cfg.RelayOrigin)
	assert.Equal(t, 12*time.Second, cfg.RelayTimeout)
	assert.Equal(t, time.Hour, cfg.MappingTTL)
	assert.Equal(t, 3, cfg.MaxRedirects)
	assert.Equal(t, map[string]string{"User-Agent": "test-agent"}, cfg.UpstreamHeaders)
	assert.Zero(t, cfg.ContentTimeout)
}

func TestLoadFromFileYAML(t *testing.T) {
	path := writeFile(t, "config.yaml", `
relayOrigin: http://localhost:18080/
contentTimeout: 5s
debug: true
logUtc: true
bridgeScheme: tvstream
`)

	cfg, err := loadFromFile(path)
	require.NoError(t, err)
	validateAndSetDefaults(cfg)

	assert.Equal(t, "http://localhost:18080", cfg.RelayOrigin)
	assert.Equal(t, 5*time.Second, cfg.ContentTimeout)
	assert.Equal(t, "DEBUG", cfg.LogLevel)
	assert.True(t, cfg.LogUTC)
	assert.Equal(t, "tvstream", cfg.BridgeScheme)
	assert.Equal(t, "127.0.0.1:18080", cfg.ListenAddr)
}

func TestLoadFromFileInvalidDuration(t *testing.T) {
	path := writeFile(t, "config.json", `{"relayTimeout": "soon"}`)

	_, err := loadFromFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "relayTimeout")
}

func TestLoadConfigFallsBackToDefaults(t *testing.T) {
	ClearConfigCache()
	t.Cleanup(ClearConfigCache)

	cfg := LoadConfig(filepath.Join(t.TempDir(), "missing.json"))

	assert.Equal(t, "127.0.0.1:18080", cfg.ListenAddr)
	assert.Equal(t, 30*time.Second, cfg.RelayTimeout)
	assert.Equal(t, 10, cfg.MaxRedirects)
	assert.Equal(t, DefaultUpstreamHeaders(), cfg.UpstreamHeaders)
	assert.Same(t, cfg, LoadConfig("ignored because cached"))
}

func TestPathFromEnv(t *testing.T) {
	t.Setenv("TVRELAY_CONFIG", "/tmp/custom.yaml")
	assert.Equal(t, "/tmp/custom.yaml", PathFromEnv())

	t.Setenv("TVRELAY_CONFIG", "")
	assert.Equal(t, DefaultConfigPath, PathFromEnv())
}
