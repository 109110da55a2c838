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
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFull(t *testing.T) {
	path := writeConfig(t, `
netkit:
  buffers:
    small_count: 64
    medium_count: 128
    large_count: 32
  udp:
    bindings:
      - port: 53
      - address: 192.168.1.5
        port: 8125
  metrics:
    enabled: false
  log:
    level: debug
    format: json
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 64, cfg.Buffers.SmallCount)
	assert.Equal(t, 128, cfg.Buffers.MediumCount)
	assert.Equal(t, 32, cfg.Buffers.LargeCount)

	require.Len(t, cfg.UDP.Bindings, 2)
	assert.Equal(t, "", cfg.UDP.Bindings[0].Address)
	assert.Equal(t, uint16(53), cfg.UDP.Bindings[0].Port)
	assert.Equal(t, "192.168.1.5", cfg.UDP.Bindings[1].Address)

	assert.False(t, cfg.Metrics.Enabled)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, "netkit: {}\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 512, cfg.Buffers.SmallCount)
	assert.Equal(t, 1024, cfg.Buffers.MediumCount)
	assert.Equal(t, 256, cfg.Buffers.LargeCount)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, ":9092", cfg.Metrics.Listen)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	assert.Error(t, err)
}

func TestLoadInvalidLogLevel(t *testing.T) {
	path := writeConfig(t, `
netkit:
  log:
    level: loud
`)
	_, err := Load(path)
	assert.ErrorContains(t, err, "invalid log level")
}

func TestLoadInvalidBindingAddress(t *testing.T) {
	path := writeConfig(t, `
netkit:
  udp:
    bindings:
      - address: not-an-ip
        port: 53
`)
	_, err := Load(path)
	assert.ErrorContains(t, err, "invalid udp binding address")
}

func TestLoadZeroBindingPort(t *testing.T) {
	path := writeConfig(t, `
netkit:
  udp:
    bindings:
      - port: 0
`)
	_, err := Load(path)
	assert.ErrorContains(t, err, "port must be non-zero")
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 512, cfg.Buffers.SmallCount)
}
