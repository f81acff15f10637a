// Package scheduler checks and builds units in dependency order.
package scheduler

import (
	"bytes"
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"go.trai.ch/fresh/internal/core/domain"
	"go.trai.ch/fresh/internal/core/ports"
	"go.trai.ch/zerr"
)

// UnitStatus represents the status of a unit in a run.
type UnitStatus string

const (
	// StatusPending indicates the unit is waiting for its dependencies.
	StatusPending UnitStatus = "Pending"
	// StatusRunning indicates the unit is being checked or built.
	StatusRunning UnitStatus = "Running"
	// StatusFresh indicates the unit's previous output was reused.
	StatusFresh UnitStatus = "Fresh"
	// StatusDirty indicates the unit needs a rebuild that was not run.
	StatusDirty UnitStatus = "Dirty"
	// StatusBuilt indicates the unit was rebuilt and committed.
	StatusBuilt UnitStatus = "Built"
	// StatusFailed indicates the check, build or commit failed.
	StatusFailed UnitStatus = "Failed"
	// StatusSkipped indicates a dependency failed.
	StatusSkipped UnitStatus = "Skipped"
)

// Variables passed to unit commands.
const (
	EnvBuildDir    = "FRESH_BUILD_DIR"
	EnvDepInfo     = "FRESH_DEP_INFO"
	EnvStem        = "FRESH_ARTIFACT_STEM"
	EnvFingerprint = "FRESH_FINGERPRINT"
)

// RunOptions configure a single run.
type RunOptions struct {
	// Targets are the units to run together with their dependencies.
	// Empty or "all" selects every unit.
	Targets     []string
	Parallelism int
	// BuildDir is the absolute build output directory.
	BuildDir string
	// DryRun only checks units. Dirty units are reported but not built.
	DryRun bool
	// Renderer receives verdicts and build output. It may be nil.
	Renderer ports.Renderer
}

// Scheduler manages the execution of units in the dependency graph.
type Scheduler struct {
	executor ports.Executor
	tracer   ports.Tracer
	logger   ports.Logger
	metrics  ports.Metrics

	mu         sync.RWMutex
	unitStatus map[string]UnitStatus
}

// NewScheduler creates a new Scheduler with the given dependencies.
func NewScheduler(
	executor ports.Executor,
	tracer ports.Tracer,
	logger ports.Logger,
	metrics ports.Metrics,
) *Scheduler {
	return &Scheduler{
		executor:   executor,
		tracer:     tracer,
		logger:     logger,
		metrics:    metrics,
		unitStatus: make(map[string]UnitStatus),
	}
}

func (s *Scheduler) initUnitStatuses(units []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.unitStatus = make(map[string]UnitStatus, len(units))
	for _, unit := range units {
		s.unitStatus[unit] = StatusPending
	}
}

func (s *Scheduler) updateStatus(name string, status UnitStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.unitStatus[name] = status
}

// Status returns the status of a unit in the last run.
func (s *Scheduler) Status(name string) UnitStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.unitStatus[name]
}

// Summary counts the units of the last run by status.
func (s *Scheduler) Summary() map[UnitStatus]int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[UnitStatus]int)
	for _, status := range s.unitStatus {
		counts[status]++
	}
	return counts
}

// Run checks the selected units in dependency order and, unless
// opts.DryRun is set, builds and commits every dirty one. A unit is only
// checked once all of its dependencies are finished.
func (s *Scheduler) Run(
	ctx context.Context,
	graph *domain.Graph,
	engine ports.FreshnessEngine,
	opts RunOptions,
) error {
	if err := graph.Validate(); err != nil {
		return err
	}
	if opts.Parallelism < 1 {
		opts.Parallelism = 1
	}
	if opts.Renderer == nil {
		opts.Renderer = noopRenderer{}
	}

	state, err := s.newRunState(ctx, graph, engine, opts)
	if err != nil {
		return err
	}

	planned := make([]string, 0, len(state.units))
	for unit := range graph.Walk() {
		if _, ok := state.units[unit.Name]; ok {
			planned = append(planned, unit.Name)
		}
	}
	s.tracer.EmitPlan(ctx, planned)
	opts.Renderer.OnPlan(planned)
	s.initUnitStatuses(planned)

	return state.runExecutionLoop()
}

type result struct {
	unit    string
	status  UnitStatus
	elapsed time.Duration
	err     error
}

type runState struct {
	graph     *domain.Graph
	engine    ports.FreshnessEngine
	opts      RunOptions
	inDegree  map[string]int
	units     map[string]domain.Unit
	ready     []string
	active    int
	resultsCh chan result
	errs      error
	ctx       context.Context
	s         *Scheduler
}

func (s *Scheduler) newRunState(
	ctx context.Context,
	graph *domain.Graph,
	engine ports.FreshnessEngine,
	opts RunOptions,
) (*runState, error) {
	selected, err := resolveUnits(graph, opts.Targets)
	if err != nil {
		return nil, err
	}

	units := make(map[string]domain.Unit, len(selected))
	inDegree := make(map[string]int, len(selected))
	for name := range selected {
		unit, _ := graph.GetUnit(name)
		units[name] = unit

		degree := 0
		for _, dep := range unit.Dependencies {
			if selected[dep.Unit] {
				degree++
			}
		}
		inDegree[name] = degree
	}

	var ready []string
	for name, degree := range inDegree {
		if degree == 0 {
			ready = append(ready, name)
		}
	}
	slices.Sort(ready)

	return &runState{
		graph:     graph,
		engine:    engine,
		opts:      opts,
		inDegree:  inDegree,
		units:     units,
		ready:     ready,
		resultsCh: make(chan result, opts.Parallelism),
		ctx:       ctx,
		s:         s,
	}, nil
}

// resolveUnits returns the named units and everything they depend on.
func resolveUnits(graph *domain.Graph, targets []string) (map[string]bool, error) {
	selected := make(map[string]bool)
	if len(targets) == 0 || slices.Contains(targets, "all") {
		for unit := range graph.Walk() {
			selected[unit.Name] = true
		}
		return selected, nil
	}

	queue := make([]string, 0, len(targets))
	for _, name := range targets {
		if _, ok := graph.GetUnit(name); !ok {
			return nil, zerr.With(zerr.Wrap(domain.ErrUnitNotFound, ""), "unit", name)
		}
		queue = append(queue, name)
	}

	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		if selected[name] {
			continue
		}
		selected[name] = true

		unit, _ := graph.GetUnit(name)
		for _, dep := range unit.Dependencies {
			queue = append(queue, dep.Unit)
		}
	}
	return selected, nil
}

func (state *runState) runExecutionLoop() error {
	for !state.isDone() {
		state.schedule()

		if state.isDone() {
			break
		}

		if state.ctx.Err() != nil {
			if state.active == 0 {
				break
			}
			// Running units observe the cancellation themselves.
			state.handleResult(<-state.resultsCh)
			continue
		}

		select {
		case res := <-state.resultsCh:
			state.handleResult(res)
		case <-state.ctx.Done():
		}
	}

	if state.ctx.Err() != nil {
		state.errs = errors.Join(state.errs, state.ctx.Err())
	}

	if err := state.opts.Renderer.Flush(); err != nil {
		state.s.logger.Warn("failed to flush output: " + err.Error())
	}
	return state.errs
}

func (state *runState) isDone() bool {
	return state.active == 0 && len(state.ready) == 0
}

func (state *runState) schedule() {
	for len(state.ready) > 0 && state.active < state.opts.Parallelism && state.ctx.Err() == nil {
		name := state.ready[0]
		state.ready = state.ready[1:]

		state.active++
		state.s.updateStatus(name, StatusRunning)

		u := state.units[name]
		go state.executeUnit(&u)
	}
}

func (state *runState) executeUnit(u *domain.Unit) {
	// The span ends before the result is sent so that it is recorded by the
	// time the loop finishes.
	res := func() result {
		start := time.Now()
		ctx, span := state.s.tracer.Start(state.ctx, u.Name,
			ports.WithAttribute("fresh.unit.kind", string(u.Target.Kind)),
			ports.WithAttribute("fresh.unit.package", u.Package.String()),
		)
		defer span.End()

		v, err := state.engine.Check(ctx, u)
		if err != nil {
			span.RecordError(err)
			return result{unit: u.Name, status: StatusFailed, err: err}
		}
		span.SetAttribute("fresh.fresh", v.Fresh)
		span.SetAttribute("fresh.fingerprint", v.Hash)
		if !v.Fresh {
			span.SetAttribute("fresh.reason", string(v.Reason.Kind))
		}
		state.opts.Renderer.OnVerdict(u.Name, v)

		switch {
		case v.Fresh:
			return result{unit: u.Name, status: StatusFresh, elapsed: time.Since(start)}
		case state.opts.DryRun:
			return result{unit: u.Name, status: StatusDirty, elapsed: time.Since(start)}
		}

		buildStart := time.Now()
		ev, err := state.build(ctx, u, v, span)
		state.s.metrics.ObserveBuild(time.Since(buildStart), err)
		if err != nil {
			span.RecordError(err)
			return result{unit: u.Name, status: StatusFailed, elapsed: time.Since(start), err: err}
		}

		if err := state.engine.Commit(ctx, u, ev); err != nil {
			span.RecordError(err)
			return result{unit: u.Name, status: StatusFailed, elapsed: time.Since(start), err: err}
		}
		return result{unit: u.Name, status: StatusBuilt, elapsed: time.Since(start)}
	}()

	state.resultsCh <- res
}

// build runs the unit's command and gathers the evidence of its success.
func (state *runState) build(ctx context.Context, u *domain.Unit, v domain.Verdict, span ports.Span) (domain.BuildEvidence, error) {
	depInfoPath := ""
	if u.DepInfo != "" {
		depInfoPath = filepath.Join(state.opts.BuildDir, filepath.FromSlash(u.DepInfoPath(v.Stem)))
	}

	var stdout bytes.Buffer
	if len(u.Command) > 0 {
		if err := os.MkdirAll(state.opts.BuildDir, domain.DirPerm); err != nil {
			return domain.BuildEvidence{}, zerr.With(zerr.Wrap(err, "failed to create build dir"), "path", state.opts.BuildDir)
		}

		env := []string{
			EnvBuildDir + "=" + state.opts.BuildDir,
			EnvStem + "=" + v.Stem,
			EnvFingerprint + "=" + v.Hash,
		}
		if depInfoPath != "" {
			env = append(env, EnvDepInfo+"="+depInfoPath)
			// Only a dep-info file written by this run is evidence.
			if err := os.Remove(depInfoPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return domain.BuildEvidence{}, zerr.With(zerr.Wrap(err, "failed to remove stale dep-info"), "path", depInfoPath)
			}
		}

		log := unitLog{renderer: state.opts.Renderer, unit: u.Name}
		err := state.s.executor.Execute(ctx, u, env, io.MultiWriter(&stdout, span, log), io.MultiWriter(span, log))
		if err != nil {
			return domain.BuildEvidence{}, err
		}
	}

	ev := domain.BuildEvidence{
		Key:             u.Key(),
		FingerprintHash: v.Hash,
		Success:         true,
	}
	if u.IsBuildScriptRun() {
		ev.BuildOutput = stdout.String()
	}

	if depInfoPath != "" {
		data, err := os.ReadFile(depInfoPath) //nolint:gosec // Path is declared by the unit below the build dir
		switch {
		case err == nil:
			ev.DepInfo = string(data)
		case errors.Is(err, fs.ErrNotExist):
			state.s.logger.Warn(u.Name + " did not write its dep-info file " + depInfoPath)
		default:
			return domain.BuildEvidence{}, zerr.With(zerr.Wrap(err, "failed to read dep-info"), "path", depInfoPath)
		}
	}
	return ev, nil
}

func (state *runState) handleResult(res result) {
	state.active--
	state.s.updateStatus(res.unit, res.status)

	if res.err != nil {
		wrapped := zerr.With(zerr.Wrap(res.err, domain.ErrUnitExecutionFailed.Error()), "unit", res.unit)
		state.errs = errors.Join(state.errs, wrapped)
		state.opts.Renderer.OnUnitComplete(res.unit, res.elapsed, res.err)
		state.skipDependents(res.unit)
		return
	}

	state.opts.Renderer.OnUnitComplete(res.unit, res.elapsed, nil)
	for _, dep := range state.graph.Dependents(res.unit) {
		if _, ok := state.units[dep]; ok {
			state.inDegree[dep]--
			if state.inDegree[dep] == 0 {
				state.ready = append(state.ready, dep)
			}
		}
	}
}

// skipDependents marks every unit downstream of a failed one as skipped.
func (state *runState) skipDependents(failed string) {
	queue := slices.Clone(state.graph.Dependents(failed))
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		if _, ok := state.units[name]; !ok || state.s.Status(name) == StatusSkipped {
			continue
		}
		state.s.updateStatus(name, StatusSkipped)
		state.opts.Renderer.OnUnitComplete(name, 0, zerr.With(zerr.Wrap(domain.ErrDependencyFailed, "skipped"), "dependency", failed))
		queue = append(queue, state.graph.Dependents(name)...)
	}
}

// unitLog forwards command output to the renderer.
type unitLog struct {
	renderer ports.Renderer
	unit     string
}

func (l unitLog) Write(p []byte) (int, error) {
	l.renderer.OnUnitLog(l.unit, slices.Clone(p))
	return len(p), nil
}

type noopRenderer struct{}

func (noopRenderer) OnPlan([]string) {}
func (noopRenderer) OnVerdict(string, domain.Verdict) {}
func (noopRenderer) OnUnitLog(string, []byte) {}
func (noopRenderer) OnUnitComplete(string, time.Duration, error) {}
func (noopRenderer) Flush() error { return nil }
