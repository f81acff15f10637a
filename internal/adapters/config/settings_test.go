package config_test

import (
	"path/filepath"
	"runtime"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/fresh/internal/adapters/config"
	"go.trai.ch/fresh/internal/core/domain"
)

func TestSettingsLoader_Defaults(t *testing.T) {
	root := t.TempDir()

	s, err := config.NewSettingsLoader().Load(root)
	require.NoError(t, err)
	assert.Equal(t, domain.DetectTimestamp, s.Mode)
	assert.Equal(t, domain.DigestBlake3, s.Digest)
	assert.Equal(t, filepath.Join(root, domain.DefaultBuildDirName), s.BuildDir)
	assert.Equal(t, runtime.NumCPU(), s.Jobs)
	assert.False(t, s.LogJSON)
	assert.Empty(t, s.MetricsFile)
}

func TestSettingsLoader_Precedence(t *testing.T) {
	root := t.TempDir()
	createFile(t, filepath.Join(root, domain.FreshDirName), "config.yaml", `
mode: checksum
digest: sha256
build-dir: out
jobs: 3
metrics-file: metrics.prom
`)

	t.Run("file", func(t *testing.T) {
		s, err := config.NewSettingsLoader().Load(root)
		require.NoError(t, err)
		assert.Equal(t, domain.DetectChecksum, s.Mode)
		assert.Equal(t, domain.DigestSHA256, s.Digest)
		assert.Equal(t, filepath.Join(root, "out"), s.BuildDir)
		assert.Equal(t, 3, s.Jobs)
		assert.Equal(t, filepath.Join(root, "metrics.prom"), s.MetricsFile)
	})

	t.Run("environment overrides file", func(t *testing.T) {
		t.Setenv("FRESH_JOBS", "5")
		t.Setenv("FRESH_BUILD_DIR", "/abs/target")

		s, err := config.NewSettingsLoader().Load(root)
		require.NoError(t, err)
		assert.Equal(t, 5, s.Jobs)
		assert.Equal(t, "/abs/target", s.BuildDir)
		assert.Equal(t, domain.DetectChecksum, s.Mode)
	})

	t.Run("flags override environment", func(t *testing.T) {
		t.Setenv("FRESH_MODE", "checksum")

		flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
		flags.String(config.KeyMode, "timestamp", "")
		flags.Int(config.KeyJobs, 1, "")
		require.NoError(t, flags.Parse([]string{"--mode", "timestamp"}))

		loader := config.NewSettingsLoader()
		require.NoError(t, loader.BindFlags(flags))
		s, err := loader.Load(root)
		require.NoError(t, err)
		assert.Equal(t, domain.DetectTimestamp, s.Mode)
		// Unchanged flags do not shadow the file.
		assert.Equal(t, 3, s.Jobs)
	})
}

func TestSettingsLoader_Invalid(t *testing.T) {
	t.Run("mode", func(t *testing.T) {
		t.Setenv("FRESH_MODE", "mtime")
		_, err := config.NewSettingsLoader().Load(t.TempDir())
		require.Error(t, err)
		assert.Contains(t, err.Error(), domain.ErrInvalidDetectionMode.Error())
	})

	t.Run("digest", func(t *testing.T) {
		t.Setenv("FRESH_DIGEST", "md5")
		_, err := config.NewSettingsLoader().Load(t.TempDir())
		require.Error(t, err)
		assert.Contains(t, err.Error(), domain.ErrUnsupportedDigest.Error())
	})

	t.Run("malformed file", func(t *testing.T) {
		root := t.TempDir()
		createFile(t, filepath.Join(root, domain.FreshDirName), "config.yaml", "mode: [")
		_, err := config.NewSettingsLoader().Load(root)
		require.Error(t, err)
		assert.Contains(t, err.Error(), domain.ErrSettingsInvalid.Error())
	})
}

func TestSettings_Validate_ClampsJobs(t *testing.T) {
	s := &config.Settings{Mode: domain.DetectChecksum, Digest: domain.DigestBlake3, Jobs: 0}
	require.NoError(t, s.Validate("/ws"))
	assert.Equal(t, 1, s.Jobs)
	assert.Equal(t, filepath.Join("/ws", domain.DefaultBuildDirName), s.BuildDir)
}
