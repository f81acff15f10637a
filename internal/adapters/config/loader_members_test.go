package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/fresh/internal/core/domain"
	"go.uber.org/mock/gomock"
)

func TestLoader_DiscoverRoot(t *testing.T) {
	loader, _ := newLoader(t)
	rootDir := t.TempDir()
	createFile(t, rootDir, domain.ConfigFileName, "units: {}\n")
	nested := filepath.Join(rootDir, "crates", "app", "src")
	require.NoError(t, os.MkdirAll(nested, domain.DirPerm))

	got, err := loader.DiscoverRoot(nested)
	require.NoError(t, err)
	assert.Equal(t, rootDir, got)
}

func TestLoader_DiscoverRoot_NearestWins(t *testing.T) {
	loader, _ := newLoader(t)
	rootDir := t.TempDir()
	createFile(t, rootDir, domain.ConfigFileName, "units: {}\n")
	inner := filepath.Join(rootDir, "vendor", "pkg")
	createFile(t, inner, domain.ConfigFileName, "units: {}\n")

	got, err := loader.DiscoverRoot(inner)
	require.NoError(t, err)
	assert.Equal(t, inner, got)
}

func TestLoader_DiscoverRoot_NotFound(t *testing.T) {
	loader, _ := newLoader(t)

	_, err := loader.DiscoverRoot(t.TempDir())
	require.ErrorIs(t, err, domain.ErrConfigNotFound)

	_, err = loader.Load(t.TempDir())
	require.ErrorIs(t, err, domain.ErrConfigNotFound)
}

func TestLoader_DiscoverRoot_IgnoresDirectoryNamedLikeConfig(t *testing.T) {
	loader, _ := newLoader(t)
	rootDir := t.TempDir()
	createFile(t, rootDir, domain.ConfigFileName, "units: {}\n")
	sub := filepath.Join(rootDir, "sub")
	require.NoError(t, os.MkdirAll(filepath.Join(sub, domain.ConfigFileName), domain.DirPerm))

	got, err := loader.DiscoverRoot(sub)
	require.NoError(t, err)
	assert.Equal(t, rootDir, got)
}

func TestLoader_Load_FromNestedDirectory(t *testing.T) {
	loader, _ := newLoader(t)
	rootDir := t.TempDir()
	createFile(t, rootDir, domain.ConfigFileName, `
units:
  app:
    package: {name: app}
    target: {kind: bin}
    root: crates/app
`)
	nested := filepath.Join(rootDir, "crates", "app")
	require.NoError(t, os.MkdirAll(nested, domain.DirPerm))

	g, err := loader.Load(nested)
	require.NoError(t, err)
	assert.Equal(t, rootDir, g.Root())
	app, ok := g.GetUnit("app")
	require.True(t, ok)
	assert.Equal(t, nested, app.Root)
}

func TestLoader_Load_ConfiguredRoot(t *testing.T) {
	loader, _ := newLoader(t)
	rootDir := t.TempDir()
	configDir := filepath.Join(rootDir, "config")
	createFile(t, configDir, domain.ConfigFileName, `
root: ..
units: {}
`)

	g, err := loader.Load(configDir)
	require.NoError(t, err)
	assert.Equal(t, rootDir, g.Root())
}

func TestLoader_Load_Members(t *testing.T) {
	loader, mockLogger := newLoader(t)
	rootDir := t.TempDir()

	createFile(t, rootDir, domain.ConfigFileName, `
members: ["crates/*", "crates/core"]
defaults:
  compiler: rustc
  edition: "2021"
  env: [CARGO_HOME]
profiles:
  lean:
    optLevel: "1"
units:
  root-bin:
    package: {name: root-bin}
    target: {kind: bin}
    dependsOn:
      - unit: core
`)
	createFile(t, filepath.Join(rootDir, "crates", "core"), domain.ConfigFileName, `
units:
  core:
    package: {name: core}
    target: {kind: lib}
    root: .
    sources: ["src/**/*.rs"]
    profile: lean
`)
	createFile(t, filepath.Join(rootDir, "crates", "legacy"), domain.ConfigFileName, `
root: elsewhere
defaults:
  edition: "2018"
  env: [LEGACY_FLAG]
units:
  legacy:
    package: {name: legacy}
    target: {kind: lib}
`)
	// A member directory without fresh.yaml is skipped with a warning.
	require.NoError(t, os.MkdirAll(filepath.Join(rootDir, "crates", "empty"), domain.DirPerm))
	// Plain files matched by a member glob are ignored.
	createFile(t, filepath.Join(rootDir, "crates"), "README.md", "notes")

	gomock.InOrder(
		mockLogger.EXPECT().Warn("fresh.yaml missing in member crates/empty, skipping"),
		mockLogger.EXPECT().Warn("'root' defined in member crates/legacy is ignored"),
	)

	g, err := loader.Load(rootDir)
	require.NoError(t, err)
	require.NoError(t, g.Validate())
	assert.Equal(t, 3, g.UnitCount())

	core, ok := g.GetUnit("core")
	require.True(t, ok)
	assert.Equal(t, filepath.Join(rootDir, "crates", "core"), core.Root)
	assert.Equal(t, "rustc", core.Compiler)
	assert.Equal(t, "2021", core.Edition)
	assert.Equal(t, "lean", core.Profile.Name)
	assert.Equal(t, "1", core.Profile.OptLevel)
	assert.Equal(t, []string{"CARGO_HOME"}, core.Env)

	legacy, ok := g.GetUnit("legacy")
	require.True(t, ok)
	assert.Equal(t, filepath.Join(rootDir, "crates", "legacy"), legacy.Root)
	assert.Equal(t, "2018", legacy.Edition)
	assert.Equal(t, []string{"CARGO_HOME", "LEGACY_FLAG"}, legacy.Env)

	rootBin, ok := g.GetUnit("root-bin")
	require.True(t, ok)
	assert.Equal(t, "core", rootBin.Dependencies[0].Unit)
}

func TestLoader_Load_MemberParseError(t *testing.T) {
	loader, _ := newLoader(t)
	rootDir := t.TempDir()
	createFile(t, rootDir, domain.ConfigFileName, `members: ["crates/*"]`)
	createFile(t, filepath.Join(rootDir, "crates", "broken"), domain.ConfigFileName, "units: [")

	_, err := loader.Load(rootDir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), domain.ErrConfigParseFailed.Error())
}

func TestLoader_Load_InvalidMemberPattern(t *testing.T) {
	loader, _ := newLoader(t)
	rootDir := t.TempDir()
	createFile(t, rootDir, domain.ConfigFileName, `members: ["crates/[" ]`)

	_, err := loader.Load(rootDir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), domain.ErrConfigInvalid.Error())
}
