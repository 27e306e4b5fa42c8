package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/census-engine/config"
)

func TestLoad_Defaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := config.Load(config.New(""))
	require.NoError(t, err)

	assert.Equal(t, "census.db", cfg.DB)
	assert.Equal(t, "8080", cfg.Port)
	assert.False(t, cfg.NameGuardian)
	assert.True(t, cfg.RecountOnWrite)
	assert.Equal(t, time.Hour, cfg.RecountInterval)
	assert.Empty(t, cfg.ConfigFile)
}

func TestLoad_FileThenEnv(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	path := filepath.Join(dir, "census.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
db: /var/lib/census.db
port: "9090"
match:
  name_guardian: true
recount:
  interval: 15m
`), 0o600))

	t.Setenv("CENSUS_PORT", "7070")

	cfg, err := config.Load(config.New(""))
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/census.db", cfg.DB)
	assert.Equal(t, "7070", cfg.Port, "environment overrides file")
	assert.True(t, cfg.NameGuardian)
	assert.Equal(t, 15*time.Minute, cfg.RecountInterval)
	assert.Equal(t, path, cfg.ConfigFile)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("CENSUS_LOG_MODE=prod\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("CENSUS_LOG_MODE") })

	cfg, err := config.Load(config.New(""))
	require.NoError(t, err)
	assert.Equal(t, "prod", cfg.LogMode)
}

func TestLoad_ExplicitFileMissing(t *testing.T) {
	_, err := config.Load(config.New(filepath.Join(t.TempDir(), "nope.yaml")))
	assert.Error(t, err)
}

// chdir mirrors testing.T.Chdir (Go 1.24+) for older toolchains.
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })
}
