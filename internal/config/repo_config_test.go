package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"patchstack.dev/patchstack/internal/config"
)

func writeConfig(t *testing.T, gitDir, content string) {
	t.Helper()
	path := config.Path(gitDir)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestLoad(t *testing.T) {
	t.Run("defaults when the file does not exist", func(t *testing.T) {
		cfg, err := config.Load(t.TempDir())
		require.NoError(t, err)
		require.Equal(t, 10*time.Second, cfg.LockTimeout)
		require.Equal(t, 1, cfg.PushDefaultCount)
		require.Equal(t, config.ColorAuto, cfg.Color)
		require.Equal(t, 10, cfg.LogMaxSize)
		require.Equal(t, "patchstack.log", filepath.Base(cfg.LogFile))
	})

	t.Run("reads values from the file", func(t *testing.T) {
		gitDir := t.TempDir()
		writeConfig(t, gitDir, "log:\n  file: /tmp/ps.log\n  max_backups: 7\nlock:\n  timeout: 2s\npush:\n  default_count: 3\ncolor: never\n")

		cfg, err := config.Load(gitDir)
		require.NoError(t, err)
		require.Equal(t, "/tmp/ps.log", cfg.LogFile)
		require.Equal(t, 7, cfg.LogMaxBackups)
		require.Equal(t, 28, cfg.LogMaxAge)
		require.Equal(t, 2*time.Second, cfg.LockTimeout)
		require.Equal(t, 3, cfg.PushDefaultCount)
		require.Equal(t, config.ColorNever, cfg.Color)
	})

	t.Run("environment overrides the file", func(t *testing.T) {
		gitDir := t.TempDir()
		writeConfig(t, gitDir, "lock:\n  timeout: 2s\n")
		t.Setenv("PATCHSTACK_LOCK_TIMEOUT", "500ms")
		t.Setenv("PATCHSTACK_COLOR", "Always")

		cfg, err := config.Load(gitDir)
		require.NoError(t, err)
		require.Equal(t, 500*time.Millisecond, cfg.LockTimeout)
		require.Equal(t, config.ColorAlways, cfg.Color)
	})

	t.Run("home directory is expanded", func(t *testing.T) {
		gitDir := t.TempDir()
		home := t.TempDir()
		t.Setenv("HOME", home)
		writeConfig(t, gitDir, "log:\n  file: ~/logs/ps.log\n")

		cfg, err := config.Load(gitDir)
		require.NoError(t, err)
		require.Equal(t, filepath.Join(home, "logs", "ps.log"), cfg.LogFile)
	})

	t.Run("invalid values are rejected", func(t *testing.T) {
		gitDir := t.TempDir()
		writeConfig(t, gitDir, "push:\n  default_count: 0\ncolor: rainbow\n")

		_, err := config.Load(gitDir)
		require.ErrorContains(t, err, "push.default_count")
		require.ErrorContains(t, err, "rainbow")
	})

	t.Run("malformed yaml is an error", func(t *testing.T) {
		gitDir := t.TempDir()
		writeConfig(t, gitDir, "lock: [\n")

		_, err := config.Load(gitDir)
		require.Error(t, err)
	})
}

func TestWriteDefault(t *testing.T) {
	gitDir := t.TempDir()
	require.NoError(t, config.WriteDefault(gitDir))

	data, err := os.ReadFile(config.Path(gitDir))
	require.NoError(t, err)
	require.Contains(t, string(data), "timeout: 10s")

	writeConfig(t, gitDir, "color: never\n")
	require.NoError(t, config.WriteDefault(gitDir), "an existing file is kept")
	cfg, err := config.Load(gitDir)
	require.NoError(t, err)
	require.Equal(t, config.ColorNever, cfg.Color)
}

func TestIsInitialized(t *testing.T) {
	gitDir := t.TempDir()
	require.False(t, config.IsInitialized(gitDir, "main"))

	stackFile := filepath.Join(gitDir, "patchstack", "main", "stack.yaml")
	require.NoError(t, os.MkdirAll(filepath.Dir(stackFile), 0o750))
	require.NoError(t, os.WriteFile(stackFile, []byte("branch: main\n"), 0o600))
	require.True(t, config.IsInitialized(gitDir, "main"))
	require.False(t, config.IsInitialized(gitDir, "other"))
}
