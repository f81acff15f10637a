package app_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/fresh/internal/adapters/cas"
	"go.trai.ch/fresh/internal/adapters/compiler"
	"go.trai.ch/fresh/internal/adapters/config"
	"go.trai.ch/fresh/internal/adapters/digestcache"
	"go.trai.ch/fresh/internal/adapters/env"
	"go.trai.ch/fresh/internal/adapters/fs"
	"go.trai.ch/fresh/internal/adapters/metrics"
	"go.trai.ch/fresh/internal/adapters/report"
	"go.trai.ch/fresh/internal/app"
	"go.trai.ch/fresh/internal/core/domain"
	"go.trai.ch/fresh/internal/core/ports"
	"go.trai.ch/fresh/internal/core/ports/mocks"
	"go.trai.ch/fresh/internal/engine/collector"
	"go.trai.ch/fresh/internal/engine/scheduler"
	"go.uber.org/mock/gomock"
)

const workspaceConfig = `
units:
  core:
    package: {name: core, version: 0.1.0}
    target: {kind: lib}
    root: crates/core
    sources: [src]
    cmd: [rustc, src/lib.rs]
  app:
    package: {name: app, version: 0.1.0}
    target: {kind: bin}
    root: crates/app
    sources: [src]
    cmd: [rustc, src/main.rs]
    dependsOn:
      - unit: core
`

type appHarness struct {
	app      *app.App
	dir      string
	executor *mocks.MockExecutor
	store    *cas.Store
	stdout   *bytes.Buffer
	stderr   *bytes.Buffer
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), domain.DirPerm))
	require.NoError(t, os.WriteFile(path, []byte(content), domain.PrivateFilePerm))
}

// newHarness wires the real adapters around a mocked executor.
func newHarness(t *testing.T) *appHarness {
	t.Helper()
	ctrl := gomock.NewController(t)

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, domain.ConfigFileName), workspaceConfig)
	writeFile(t, filepath.Join(dir, "crates", "core", "src", "lib.rs"), "pub fn core() {}\n")
	writeFile(t, filepath.Join(dir, "crates", "app", "src", "main.rs"), "fn main() {}\n")

	log := mocks.NewMockLogger(ctrl)
	log.EXPECT().Info(gomock.Any()).AnyTimes()
	log.EXPECT().Warn(gomock.Any()).AnyTimes()
	log.EXPECT().Debug(gomock.Any()).AnyTimes()

	span := mocks.NewMockSpan(ctrl)
	span.EXPECT().End().AnyTimes()
	span.EXPECT().RecordError(gomock.Any()).AnyTimes()
	span.EXPECT().SetAttribute(gomock.Any(), gomock.Any()).AnyTimes()
	span.EXPECT().Write(gomock.Any()).DoAndReturn(func(p []byte) (int, error) {
		return len(p), nil
	}).AnyTimes()
	tracer := mocks.NewMockTracer(ctrl)
	tracer.EXPECT().Start(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, _ string, _ ...ports.SpanOption) (context.Context, ports.Span) {
			return ctx, span
		},
	).AnyTimes()
	tracer.EXPECT().EmitPlan(gomock.Any(), gomock.Any()).AnyTimes()

	executor := mocks.NewMockExecutor(ctrl)
	m := metrics.New()
	store := cas.NewStore()
	digests := digestcache.New()
	walker := fs.NewWalker()

	c := collector.New(
		fs.NewResolver(walker),
		walker,
		fs.NewOracle(digests),
		compiler.NewToolchainProber(),
		compiler.NewDepInfoParser(),
		compiler.NewBuildOutputParser(),
		env.NewProcess(),
	)

	h := &appHarness{
		dir:      dir,
		executor: executor,
		store:    store,
		stdout:   new(bytes.Buffer),
		stderr:   new(bytes.Buffer),
	}
	h.app = app.New(
		config.NewLoader(log),
		config.NewSettingsLoader(),
		scheduler.NewScheduler(executor, tracer, log, m),
		c,
		store,
		fs.NewVerifier(),
		fs.NewManifestVerifier(),
		digests,
		log,
		m,
	).WithOutput(h.stdout, h.stderr).WithWorkDir(dir)
	return h
}

func (h *appHarness) expectBuilds(names ...string) {
	for _, name := range names {
		h.executor.EXPECT().
			Execute(gomock.Any(), gomock.Cond(func(u *domain.Unit) bool { return u.Name == name }),
				gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, _ *domain.Unit, _ []string, stdout, _ io.Writer) error {
				_, err := io.WriteString(stdout, "compiling "+name+"\n")
				return err
			})
	}
}

func (h *appHarness) buildDir() string {
	return filepath.Join(h.dir, domain.DefaultBuildDirName)
}

func TestApp_Check_NeverBuilt(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		h := newHarness(t)

		err := h.app.Check(context.Background(), nil, app.CheckOptions{})
		require.NoError(t, err)
		assert.Contains(t, h.stderr.String(), "Checking 2 unit(s)")
		assert.Contains(t, h.stderr.String(), "[core]")
		assert.Contains(t, h.stderr.String(), "Dirty: the unit has not been built before")

		err = h.app.Check(context.Background(), nil, app.CheckOptions{FailOnDirty: true})
		require.ErrorIs(t, err, domain.ErrDirtyUnits)
	})
}

func TestApp_Build_ThenFresh(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.expectBuilds("core", "app")
	require.NoError(t, h.app.Build(ctx, nil, app.BuildOptions{}))
	assert.Contains(t, h.stdout.String(), "[core] compiling core")
	assert.Contains(t, h.stderr.String(), "Built in")

	for _, name := range []string{"core", "app"} {
		g, err := config.NewLoader(nil).Load(h.dir)
		require.NoError(t, err)
		u, ok := g.GetUnit(name)
		require.True(t, ok)
		rec, err := h.store.Get(h.buildDir(), u.Key())
		require.NoError(t, err, name)
		assert.NotEmpty(t, rec.Hash)
	}

	// Nothing changed, so no executor call is expected.
	h.stderr.Reset()
	require.NoError(t, h.app.Check(ctx, nil, app.CheckOptions{FailOnDirty: true}))
	assert.Contains(t, h.stderr.String(), "2 fresh, 0 dirty")
}

func TestApp_Check_EditPropagatesToDependents(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.expectBuilds("core", "app")
	require.NoError(t, h.app.Build(ctx, nil, app.BuildOptions{}))

	lib := filepath.Join(h.dir, "crates", "core", "src", "lib.rs")
	later := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(lib, later, later))

	h.stdout.Reset()
	require.NoError(t, h.app.Check(ctx, nil, app.CheckOptions{JSON: true}))

	var doc report.Document
	require.NoError(t, json.Unmarshal(h.stdout.Bytes(), &doc))
	require.Len(t, doc.Units, 2)
	for _, u := range doc.Units {
		assert.False(t, u.Fresh, u.Unit)
		require.NotNil(t, u.Reason, u.Unit)
	}
	assert.Equal(t, "core", doc.Units[0].Unit)
	assert.Equal(t, domain.ReasonFileStale, doc.Units[0].Reason.Kind)
	assert.Equal(t, domain.ReasonDepRebuilt, doc.Units[1].Reason.Kind)
}

func TestApp_Build_Force(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.expectBuilds("core", "app")
	require.NoError(t, h.app.Build(ctx, nil, app.BuildOptions{}))

	// Only core and its dependencies are selected.
	h.expectBuilds("core")
	require.NoError(t, h.app.Build(ctx, []string{"core"}, app.BuildOptions{Force: true}))
}

func TestApp_Build_CommandFails(t *testing.T) {
	h := newHarness(t)

	h.executor.EXPECT().
		Execute(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(assert.AnError)

	err := h.app.Build(context.Background(), nil, app.BuildOptions{})
	require.ErrorIs(t, err, domain.ErrBuildExecutionFailed)
	assert.Contains(t, h.stderr.String(), "Failed after")
	assert.Contains(t, h.stderr.String(), "1 skipped")
}

func TestApp_Check_UnknownTarget(t *testing.T) {
	h := newHarness(t)

	err := h.app.Check(context.Background(), []string{"missing"}, app.CheckOptions{})
	require.ErrorIs(t, err, domain.ErrUnitNotFound)
}

func TestApp_ConfigNotFound(t *testing.T) {
	h := newHarness(t)
	h.app.WithWorkDir(t.TempDir())

	err := h.app.Check(context.Background(), nil, app.CheckOptions{})
	require.ErrorIs(t, err, domain.ErrConfigNotFound)
}

func TestApp_Status(t *testing.T) {
	h := newHarness(t)
	t.Setenv("NO_COLOR", "1")
	ctx := context.Background()

	h.expectBuilds("core")
	require.NoError(t, h.app.Build(ctx, []string{"core"}, app.BuildOptions{}))

	h.stdout.Reset()
	require.NoError(t, h.app.Status(ctx, nil))
	out := h.stdout.String()
	assert.Contains(t, out, "[app] ● never built")
	assert.Contains(t, out, "[core] ✓")
	assert.Contains(t, out, "1 of 2 unit(s) committed")

	require.ErrorIs(t, h.app.Status(ctx, []string{"nope"}), domain.ErrUnitNotFound)
}

func TestApp_Clean(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.expectBuilds("core", "app")
	require.NoError(t, h.app.Build(ctx, nil, app.BuildOptions{}))

	require.NoError(t, h.app.Clean(ctx, app.CleanOptions{}))
	_, err := os.Stat(domain.FingerprintRoot(h.buildDir()))
	require.ErrorIs(t, err, os.ErrNotExist)

	h.stderr.Reset()
	require.NoError(t, h.app.Check(ctx, nil, app.CheckOptions{}))
	assert.Contains(t, h.stderr.String(), "0 fresh, 2 dirty")
}

func TestApp_Clean_Prune(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	stale := domain.StoredFingerprint{
		Version: domain.FormatVersion,
		Key: domain.UnitKey{
			Package: domain.PackageID{Name: "gone", Version: "0.1.0", Source: string(domain.SourcePath)},
			Target:  domain.Target{Name: "gone", Kind: domain.KindLib},
		},
		Hash: "deadbeef",
	}
	require.NoError(t, h.store.Put(h.buildDir(), stale))

	h.expectBuilds("core", "app")
	require.NoError(t, h.app.Build(ctx, nil, app.BuildOptions{}))

	require.NoError(t, h.app.Clean(ctx, app.CleanOptions{Prune: true}))
	_, err := h.store.Get(h.buildDir(), stale.Key)
	require.ErrorIs(t, err, domain.ErrMissingRecord)

	h.stderr.Reset()
	require.NoError(t, h.app.Check(ctx, nil, app.CheckOptions{FailOnDirty: true}))
}

func TestApp_ChecksumMode_WritesMetrics(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	t.Setenv("FRESH_MODE", "checksum")
	t.Setenv("FRESH_METRICS_FILE", "fresh.prom")

	h.expectBuilds("core", "app")
	require.NoError(t, h.app.Build(ctx, nil, app.BuildOptions{}))

	// A touched file with unchanged content stays fresh in checksum mode.
	lib := filepath.Join(h.dir, "crates", "core", "src", "lib.rs")
	later := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(lib, later, later))
	require.NoError(t, h.app.Check(ctx, nil, app.CheckOptions{FailOnDirty: true}))

	data, err := os.ReadFile(filepath.Join(h.dir, "fresh.prom"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "fresh_")

	_, err = os.Stat(filepath.Join(h.dir, domain.DefaultDigestCachePath()))
	require.NoError(t, err)

	require.NoError(t, h.app.Clean(ctx, app.CleanOptions{Cache: true}))
	_, err = os.Stat(filepath.Join(h.dir, domain.DefaultDigestCachePath()))
	require.ErrorIs(t, err, os.ErrNotExist)
}
