package wiring_test

import (
	"context"
	"testing"

	"github.com/grindlemire/graft"
	"github.com/stretchr/testify/require"
	"go.trai.ch/fresh/internal/adapters/config"
	"go.trai.ch/fresh/internal/core/ports"
	"go.trai.ch/fresh/internal/engine/collector"
	"go.trai.ch/fresh/internal/engine/scheduler"
	_ "go.trai.ch/fresh/internal/wiring"
)

func resolves[T any](t *testing.T) {
	t.Helper()
	v, _, err := graft.ExecuteFor[T](context.Background())
	require.NoError(t, err)
	require.NotNil(t, v)
}

// TestGraftNodesResolve builds every node the application layer consumes.
// graft.AssertDepsValid cannot be used because it infers node ids from the
// package of Dep[T], and most nodes here provide interfaces of the same ports
// package.
func TestGraftNodesResolve(t *testing.T) {
	t.Run("logger", func(t *testing.T) { resolves[ports.Logger](t) })
	t.Run("executor", func(t *testing.T) { resolves[ports.Executor](t) })
	t.Run("tracer", func(t *testing.T) { resolves[ports.Tracer](t) })
	t.Run("metrics", func(t *testing.T) { resolves[ports.Metrics](t) })
	t.Run("store", func(t *testing.T) { resolves[ports.FingerprintStore](t) })
	t.Run("config loader", func(t *testing.T) { resolves[ports.ConfigLoader](t) })
	t.Run("settings", func(t *testing.T) { resolves[*config.SettingsLoader](t) })
	t.Run("env", func(t *testing.T) { resolves[ports.EnvLookup](t) })
	t.Run("digest cache", func(t *testing.T) { resolves[ports.DigestCache](t) })
	t.Run("oracle", func(t *testing.T) { resolves[ports.FileOracle](t) })
	t.Run("resolver", func(t *testing.T) { resolves[ports.InputResolver](t) })
	t.Run("source walker", func(t *testing.T) { resolves[ports.SourceWalker](t) })
	t.Run("output verifier", func(t *testing.T) { resolves[ports.OutputVerifier](t) })
	t.Run("source verifier", func(t *testing.T) { resolves[ports.SourceVerifier](t) })
	t.Run("dep-info parser", func(t *testing.T) { resolves[ports.DepInfoParser](t) })
	t.Run("build output parser", func(t *testing.T) { resolves[ports.BuildOutputParser](t) })
	t.Run("toolchain prober", func(t *testing.T) { resolves[ports.ToolchainProber](t) })
	t.Run("collector", func(t *testing.T) { resolves[*collector.Collector](t) })
	t.Run("scheduler", func(t *testing.T) { resolves[*scheduler.Scheduler](t) })
}
