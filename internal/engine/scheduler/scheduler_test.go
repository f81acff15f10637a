package scheduler_test

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"testing/synctest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/fresh/internal/core/domain"
	"go.trai.ch/fresh/internal/core/ports"
	"go.trai.ch/fresh/internal/core/ports/mocks"
	"go.trai.ch/fresh/internal/engine/scheduler"
	"go.uber.org/mock/gomock"
)

type schedulerTestMocks struct {
	executor *mocks.MockExecutor
	engine   *mocks.MockFreshnessEngine
	tracer   *mocks.MockTracer
	logger   *mocks.MockLogger
	metrics  *mocks.MockMetrics
}

// setupSchedulerTest creates a scheduler and common mocks.
func setupSchedulerTest(t *testing.T) (*scheduler.Scheduler, schedulerTestMocks) {
	t.Helper()
	ctrl := gomock.NewController(t)
	m := schedulerTestMocks{
		executor: mocks.NewMockExecutor(ctrl),
		engine:   mocks.NewMockFreshnessEngine(ctrl),
		tracer:   mocks.NewMockTracer(ctrl),
		logger:   mocks.NewMockLogger(ctrl),
		metrics:  mocks.NewMockMetrics(ctrl),
	}

	mockSpan := mocks.NewMockSpan(ctrl)
	mockSpan.EXPECT().End().AnyTimes()
	mockSpan.EXPECT().RecordError(gomock.Any()).AnyTimes()
	mockSpan.EXPECT().SetAttribute(gomock.Any(), gomock.Any()).AnyTimes()
	mockSpan.EXPECT().Write(gomock.Any()).DoAndReturn(func(p []byte) (int, error) {
		return len(p), nil
	}).AnyTimes()

	m.tracer.EXPECT().Start(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, _ string, _ ...ports.SpanOption) (context.Context, ports.Span) {
			return ctx, mockSpan
		},
	).AnyTimes()
	m.tracer.EXPECT().EmitPlan(gomock.Any(), gomock.Any()).AnyTimes()
	m.metrics.EXPECT().ObserveBuild(gomock.Any(), gomock.Any()).AnyTimes()

	s := scheduler.NewScheduler(m.executor, m.tracer, m.logger, m.metrics)
	return s, m
}

// createGraphHelper constructs a graph from a map of unit name to dependency names.
func createGraphHelper(t *testing.T, deps map[string][]string) *domain.Graph {
	t.Helper()
	g := domain.NewGraph()
	g.SetRoot("/tmp/root")

	added := make(map[string]bool)
	add := func(name string, depNames []string) {
		u := &domain.Unit{
			Name:    name,
			Package: domain.PackageID{Name: name, Version: "0.1.0"},
			Target:  domain.Target{Name: name, Kind: domain.KindLib},
			Command: []string{"echo", name},
		}
		for _, d := range depNames {
			u.Dependencies = append(u.Dependencies, domain.Dependency{Unit: d, Name: d, Public: true})
		}
		require.NoError(t, g.AddUnit(u))
		added[name] = true
	}

	for name, myDeps := range deps {
		add(name, myDeps)
	}
	for _, myDeps := range deps {
		for _, d := range myDeps {
			if !added[d] {
				add(d, nil)
			}
		}
	}

	require.NoError(t, g.Validate())
	return g
}

// unitMatcher implements gomock.Matcher for domain.Unit.
type unitMatcher struct {
	name string
}

func (m unitMatcher) Matches(x interface{}) bool {
	u, ok := x.(*domain.Unit)
	if !ok {
		return false
	}
	return u.Name == m.name
}

func (m unitMatcher) String() string {
	return "unit name is " + m.name
}

func matchUnit(name string) gomock.Matcher {
	return unitMatcher{name: name}
}

func dirty(hash string) domain.Verdict {
	v := domain.DirtyVerdict(hash, domain.NeverBuilt())
	v.Stem = "stem-" + hash
	return v
}

func TestScheduler_DiamondDependency(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		// Graph: A -> B, A -> C, B -> D, C -> D
		// Execution order should be: D -> (B, C parallel) -> A.
		g := createGraphHelper(t, map[string][]string{
			"A": {"B", "C"},
			"B": {"D"},
			"C": {"D"},
		})
		s, m := setupSchedulerTest(t)

		m.engine.EXPECT().Check(gomock.Any(), gomock.Any()).Return(dirty("h"), nil).Times(4)
		m.engine.EXPECT().Commit(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).Times(4)

		callD := m.executor.EXPECT().Execute(gomock.Any(), matchUnit("D"), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil).Times(1)
		callB := m.executor.EXPECT().Execute(gomock.Any(), matchUnit("B"), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil).Times(1).After(callD)
		callC := m.executor.EXPECT().Execute(gomock.Any(), matchUnit("C"), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil).Times(1).After(callD)
		m.executor.EXPECT().Execute(gomock.Any(), matchUnit("A"), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil).Times(1).After(callB).After(callC)

		err := s.Run(context.Background(), g, m.engine, scheduler.RunOptions{
			Targets:     []string{"A"},
			Parallelism: 2,
			BuildDir:    t.TempDir(),
		})
		require.NoError(t, err)

		for _, name := range []string{"A", "B", "C", "D"} {
			assert.Equal(t, scheduler.StatusBuilt, s.Status(name))
		}
	})
}

func TestScheduler_TargetSelection(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		g := createGraphHelper(t, map[string][]string{
			"app":  {"lib"},
			"tool": {},
		})
		s, m := setupSchedulerTest(t)

		m.engine.EXPECT().Check(gomock.Any(), matchUnit("lib")).Return(domain.FreshVerdict("l"), nil)
		m.engine.EXPECT().Check(gomock.Any(), matchUnit("app")).Return(domain.FreshVerdict("a"), nil)

		err := s.Run(context.Background(), g, m.engine, scheduler.RunOptions{Targets: []string{"app"}})
		require.NoError(t, err)

		assert.Equal(t, scheduler.UnitStatus(""), s.Status("tool"))
		assert.Equal(t, map[scheduler.UnitStatus]int{scheduler.StatusFresh: 2}, s.Summary())
	})
}

func TestScheduler_UnknownTarget(t *testing.T) {
	g := createGraphHelper(t, map[string][]string{"lib": {}})
	s, m := setupSchedulerTest(t)

	err := s.Run(context.Background(), g, m.engine, scheduler.RunOptions{Targets: []string{"nope"}})

	require.ErrorContains(t, err, domain.ErrUnitNotFound.Error())
}

func TestScheduler_FreshUnitsAreNotBuilt(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		g := createGraphHelper(t, map[string][]string{"app": {"lib"}})
		s, m := setupSchedulerTest(t)

		m.engine.EXPECT().Check(gomock.Any(), matchUnit("lib")).Return(domain.FreshVerdict("l"), nil)
		m.engine.EXPECT().Check(gomock.Any(), matchUnit("app")).Return(dirty("a"), nil)
		m.executor.EXPECT().Execute(gomock.Any(), matchUnit("app"), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
		m.engine.EXPECT().Commit(gomock.Any(), matchUnit("app"), gomock.Any()).Return(nil)

		require.NoError(t, s.Run(context.Background(), g, m.engine, scheduler.RunOptions{Parallelism: 4}))

		assert.Equal(t, scheduler.StatusFresh, s.Status("lib"))
		assert.Equal(t, scheduler.StatusBuilt, s.Status("app"))
	})
}

func TestScheduler_DryRun(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		g := createGraphHelper(t, map[string][]string{"app": {"lib"}})
		s, m := setupSchedulerTest(t)
		renderer := mocks.NewMockRenderer(gomock.NewController(t))

		m.engine.EXPECT().Check(gomock.Any(), gomock.Any()).Return(dirty("x"), nil).Times(2)
		m.executor.EXPECT().Execute(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
		m.engine.EXPECT().Commit(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

		renderer.EXPECT().OnPlan([]string{"lib", "app"})
		renderer.EXPECT().OnVerdict(gomock.Any(), gomock.Any()).Times(2)
		renderer.EXPECT().OnUnitComplete(gomock.Any(), gomock.Any(), nil).Times(2)
		renderer.EXPECT().Flush().Return(nil)

		err := s.Run(context.Background(), g, m.engine, scheduler.RunOptions{DryRun: true, Renderer: renderer})
		require.NoError(t, err)

		assert.Equal(t, map[scheduler.UnitStatus]int{scheduler.StatusDirty: 2}, s.Summary())
	})
}

func TestScheduler_CommitEvidence(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		buildDir := t.TempDir()
		g := domain.NewGraph()
		u := &domain.Unit{
			Name:    "foo-build",
			Package: domain.PackageID{Name: "foo", Version: "0.1.0"},
			Target:  domain.Target{Name: "build-script-build", Kind: domain.KindRunCustomBuild},
			DepInfo: "build/foo-{stem}/output.d",
			Command: []string{"./build.sh"},
		}
		require.NoError(t, g.AddUnit(u))
		require.NoError(t, g.Validate())
		s, m := setupSchedulerTest(t)

		v := dirty("abc")
		depInfoPath := filepath.Join(buildDir, filepath.FromSlash(u.DepInfoPath(v.Stem)))

		m.engine.EXPECT().Check(gomock.Any(), matchUnit("foo-build")).Return(v, nil)
		m.executor.EXPECT().Execute(gomock.Any(), matchUnit("foo-build"), gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, _ *domain.Unit, env []string, stdout, _ io.Writer) error {
				assert.Contains(t, env, scheduler.EnvBuildDir+"="+buildDir)
				assert.Contains(t, env, scheduler.EnvStem+"=stem-abc")
				assert.Contains(t, env, scheduler.EnvFingerprint+"=abc")
				assert.Contains(t, env, scheduler.EnvDepInfo+"="+depInfoPath)

				if err := os.MkdirAll(filepath.Dir(depInfoPath), domain.DirPerm); err != nil {
					return err
				}
				if err := os.WriteFile(depInfoPath, []byte("out: build.rs\n"), domain.FilePerm); err != nil {
					return err
				}
				_, err := io.WriteString(stdout, "cargo:rerun-if-changed=build.rs\n")
				return err
			})
		m.engine.EXPECT().Commit(gomock.Any(), matchUnit("foo-build"), domain.BuildEvidence{
			Key:             u.Key(),
			FingerprintHash: "abc",
			Success:         true,
			DepInfo:         "out: build.rs\n",
			BuildOutput:     "cargo:rerun-if-changed=build.rs\n",
		}).Return(nil)

		err := s.Run(context.Background(), g, m.engine, scheduler.RunOptions{BuildDir: buildDir})
		require.NoError(t, err)
	})
}

func TestScheduler_MissingDepInfoWarns(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		g := domain.NewGraph()
		u := &domain.Unit{
			Name:    "lib",
			Package: domain.PackageID{Name: "lib", Version: "0.1.0"},
			Target:  domain.Target{Name: "lib", Kind: domain.KindLib},
			DepInfo: "deps/lib-{stem}.d",
			Command: []string{"true"},
		}
		require.NoError(t, g.AddUnit(u))
		require.NoError(t, g.Validate())
		s, m := setupSchedulerTest(t)

		m.engine.EXPECT().Check(gomock.Any(), gomock.Any()).Return(dirty("h"), nil)
		m.executor.EXPECT().Execute(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
		m.logger.EXPECT().Warn(gomock.Any()).Times(1)
		m.engine.EXPECT().Commit(gomock.Any(), gomock.Any(), domain.BuildEvidence{
			Key:             u.Key(),
			FingerprintHash: "h",
			Success:         true,
		}).Return(nil)

		require.NoError(t, s.Run(context.Background(), g, m.engine, scheduler.RunOptions{BuildDir: t.TempDir()}))
	})
}

func TestScheduler_PreviousDepInfoIsNotEvidence(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		buildDir := t.TempDir()
		g := domain.NewGraph()
		u := &domain.Unit{
			Name:    "lib",
			Package: domain.PackageID{Name: "lib", Version: "0.1.0"},
			Target:  domain.Target{Name: "lib", Kind: domain.KindLib},
			DepInfo: "deps/lib-{stem}.d",
			Command: []string{"true"},
		}
		require.NoError(t, g.AddUnit(u))
		require.NoError(t, g.Validate())
		s, m := setupSchedulerTest(t)

		v := dirty("h")
		depInfoPath := filepath.Join(buildDir, filepath.FromSlash(u.DepInfoPath(v.Stem)))
		require.NoError(t, os.MkdirAll(filepath.Dir(depInfoPath), domain.DirPerm))
		require.NoError(t, os.WriteFile(depInfoPath, []byte("lib: src/old.rs\n"), domain.FilePerm))

		m.engine.EXPECT().Check(gomock.Any(), gomock.Any()).Return(v, nil)
		m.executor.EXPECT().Execute(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(context.Context, *domain.Unit, []string, io.Writer, io.Writer) error {
				assert.NoFileExists(t, depInfoPath)
				return nil
			})
		m.logger.EXPECT().Warn(gomock.Any()).Times(1)
		m.engine.EXPECT().Commit(gomock.Any(), gomock.Any(), domain.BuildEvidence{
			Key:             u.Key(),
			FingerprintHash: "h",
			Success:         true,
		}).Return(nil)

		require.NoError(t, s.Run(context.Background(), g, m.engine, scheduler.RunOptions{BuildDir: buildDir}))
	})
}

func TestScheduler_FailurePropagation(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		// Graph: top -> mid -> base, other is independent.
		g := createGraphHelper(t, map[string][]string{
			"top":   {"mid"},
			"mid":   {"base"},
			"other": {},
		})
		s, m := setupSchedulerTest(t)
		renderer := mocks.NewMockRenderer(gomock.NewController(t))
		renderer.EXPECT().OnPlan(gomock.Any())
		renderer.EXPECT().OnVerdict(gomock.Any(), gomock.Any()).AnyTimes()
		renderer.EXPECT().OnUnitLog(gomock.Any(), gomock.Any()).AnyTimes()
		renderer.EXPECT().OnUnitComplete("other", gomock.Any(), nil)
		renderer.EXPECT().OnUnitComplete("base", gomock.Any(), gomock.Not(nil))
		renderer.EXPECT().OnUnitComplete("mid", gomock.Any(), gomock.Not(nil))
		renderer.EXPECT().OnUnitComplete("top", gomock.Any(), gomock.Not(nil))
		renderer.EXPECT().Flush().Return(nil)

		m.engine.EXPECT().Check(gomock.Any(), matchUnit("base")).Return(dirty("b"), nil)
		m.engine.EXPECT().Check(gomock.Any(), matchUnit("other")).Return(dirty("o"), nil)
		m.executor.EXPECT().Execute(gomock.Any(), matchUnit("base"), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(errors.New("exit status 1"))
		m.executor.EXPECT().Execute(gomock.Any(), matchUnit("other"), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil)
		m.engine.EXPECT().Commit(gomock.Any(), matchUnit("other"), gomock.Any()).Return(nil)

		m.executor.EXPECT().Execute(gomock.Any(), matchUnit("mid"), gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
		m.executor.EXPECT().Execute(gomock.Any(), matchUnit("top"), gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

		err := s.Run(context.Background(), g, m.engine, scheduler.RunOptions{
			Parallelism: 2,
			BuildDir:    t.TempDir(),
			Renderer:    renderer,
		})

		require.Error(t, err)
		assert.ErrorContains(t, err, domain.ErrUnitExecutionFailed.Error())
		assert.ErrorContains(t, err, "exit status 1")
		assert.Equal(t, scheduler.StatusFailed, s.Status("base"))
		assert.Equal(t, scheduler.StatusSkipped, s.Status("mid"))
		assert.Equal(t, scheduler.StatusSkipped, s.Status("top"))
		assert.Equal(t, scheduler.StatusBuilt, s.Status("other"))
	})
}

func TestScheduler_CheckError(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		g := createGraphHelper(t, map[string][]string{"app": {"lib"}})
		s, m := setupSchedulerTest(t)

		m.engine.EXPECT().Check(gomock.Any(), matchUnit("lib")).Return(domain.Verdict{}, domain.ErrChecksumMismatch)
		m.executor.EXPECT().Execute(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

		err := s.Run(context.Background(), g, m.engine, scheduler.RunOptions{})

		require.ErrorIs(t, err, domain.ErrChecksumMismatch)
		assert.Equal(t, scheduler.StatusSkipped, s.Status("app"))
	})
}

func TestScheduler_ContextCancellation(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		g := createGraphHelper(t, map[string][]string{"app": {"lib"}})
		s, m := setupSchedulerTest(t)

		m.engine.EXPECT().Check(gomock.Any(), matchUnit("lib")).Return(dirty("l"), nil)
		m.executor.EXPECT().Execute(gomock.Any(), matchUnit("lib"), gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(ctx context.Context, _ *domain.Unit, _ []string, _, _ io.Writer) error {
				<-ctx.Done()
				return ctx.Err()
			})
		m.executor.EXPECT().Execute(gomock.Any(), matchUnit("app"), gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

		ctx, cancel := context.WithCancel(context.Background())
		errCh := make(chan error, 1)
		go func() {
			errCh <- s.Run(ctx, g, m.engine, scheduler.RunOptions{BuildDir: t.TempDir()})
		}()

		synctest.Wait()
		cancel()

		err := <-errCh
		require.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, scheduler.StatusFailed, s.Status("lib"))
	})
}

func TestScheduler_InvalidGraph(t *testing.T) {
	g := domain.NewGraph()
	require.NoError(t, g.AddUnit(&domain.Unit{
		Name:         "app",
		Dependencies: []domain.Dependency{{Unit: "ghost", Name: "ghost"}},
	}))
	s, m := setupSchedulerTest(t)

	err := s.Run(context.Background(), g, m.engine, scheduler.RunOptions{})

	require.ErrorContains(t, err, domain.ErrMissingDependency.Error())
}
