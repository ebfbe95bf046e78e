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
	path := filepath.Join(t.TempDir(), "fanin.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
bucket: logs
prefix: daily
max_object_size: 2048
concurrency: 4
wait_timeout: 30s
log_mode: prod
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, &Config{
		Bucket:        "logs",
		Prefix:        "daily",
		MaxObjectSize: 2048,
		Concurrency:   4,
		WaitTimeout:   30 * time.Second,
		LogMode:       "prod",
	}, cfg)
}

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "bucket: logs\n"))
	require.NoError(t, err)
	assert.Equal(t, DefaultMaxObjectSize, cfg.MaxObjectSize)
	assert.Equal(t, DefaultConcurrency, cfg.Concurrency)
	assert.Equal(t, DefaultWaitTimeout, cfg.WaitTimeout)
	assert.Equal(t, DefaultLogMode, cfg.LogMode)
}

func TestEnvOverridesFile(t *testing.T) {
	t.Setenv("FANIN_BUCKET", "from-env")
	t.Setenv("FANIN_CONCURRENCY", "16")
	t.Setenv("FANIN_WAIT_TIMEOUT", "1m")
	t.Setenv("STORAGE_EMULATOR_HOST", "http://localhost:4443")

	cfg, err := Load(writeConfig(t, "bucket: from-file\nconcurrency: 2\n"))
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Bucket)
	assert.Equal(t, 16, cfg.Concurrency)
	assert.Equal(t, time.Minute, cfg.WaitTimeout)
	assert.Equal(t, "http://localhost:4443", cfg.EmulatorHost)
}

func TestInvalidEnv(t *testing.T) {
	t.Setenv("FANIN_CONCURRENCY", "many")
	_, err := Load(writeConfig(t, "bucket: b\n"))
	assert.ErrorContains(t, err, "FANIN_CONCURRENCY")
}

func TestMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestMissingDefaultFileUsesEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("FANIN_BUCKET", "only-env")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "only-env", cfg.Bucket)
}

func TestValidation(t *testing.T) {
	_, err := Load(writeConfig(t, "prefix: p\n"))
	assert.ErrorContains(t, err, "bucket is required")

	_, err = Load(writeConfig(t, "bucket: b\nconcurrency: -1\n"))
	assert.ErrorContains(t, err, "concurrency")

	_, err = Load(writeConfig(t, "bucket: [unclosed\n"))
	assert.ErrorContains(t, err, "failed to parse")
}
