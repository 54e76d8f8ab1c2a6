package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestReadConfig(t *testing.T) {
	path := writeConfig(t, `
output: /tmp/subtitles
tracks: [3, 4]
attachments: true
logLevel: debug
prometheus:
  enabled: true
  port: 9090
`)

	config, err := ReadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/subtitles", config.Output)
	assert.Equal(t, []uint64{3, 4}, config.Tracks)
	assert.True(t, config.Attachments)
	assert.False(t, config.Chapters)
	assert.Equal(t, slog.LevelDebug, config.LogLevel)
	assert.True(t, config.Prometheus.Enabled)
	assert.Equal(t, uint16(9090), config.Prometheus.Port)

	// Defaults are kept for missing values
	assert.Equal(t, 64*1024, config.ChunkSize)
	require.NoError(t, config.Validate())
}

func TestReadConfigUnknownField(t *testing.T) {
	_, err := ReadConfig(writeConfig(t, "outptu: /tmp\n"))
	assert.Error(t, err)
}

func TestReadConfigMissing(t *testing.T) {
	_, err := ReadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestPopulateFromEnvironment(t *testing.T) {
	t.Setenv("GSE_OUTPUT", "/srv/out")
	t.Setenv("GSE_CHUNK_SIZE", "4096")
	t.Setenv("GSE_TRACKS", "1,2")
	t.Setenv("GSE_LOG_LEVEL", "warn")
	t.Setenv("GSE_PROMETHEUS_PORT", "9100")

	config := DefaultConfig()
	require.NoError(t, config.PopulateFromEnvironment())

	assert.Equal(t, "/srv/out", config.Output)
	assert.Equal(t, 4096, config.ChunkSize)
	assert.Equal(t, []uint64{1, 2}, config.Tracks)
	assert.Equal(t, slog.LevelWarn, config.LogLevel)
	assert.Equal(t, uint16(9100), config.Prometheus.Port)
}

func TestValidate(t *testing.T) {
	config := DefaultConfig()
	require.NoError(t, config.Validate())

	config.ChunkSize = 0
	assert.Error(t, config.Validate())

	config = DefaultConfig()
	config.Output = ""
	assert.Error(t, config.Validate())
}

func TestWantsTrack(t *testing.T) {
	config := DefaultConfig()
	assert.True(t, config.WantsTrack(7))

	config.Tracks = []uint64{2, 3}
	assert.True(t, config.WantsTrack(3))
	assert.False(t, config.WantsTrack(7))
}
