// Package app implements the application layer for fresh.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"

	"github.com/spf13/pflag"
	"go.trai.ch/fresh/internal/adapters/config"
	"go.trai.ch/fresh/internal/adapters/report"
	"go.trai.ch/fresh/internal/core/domain"
	"go.trai.ch/fresh/internal/core/ports"
	"go.trai.ch/fresh/internal/engine/collector"
	"go.trai.ch/fresh/internal/engine/freshness"
	"go.trai.ch/fresh/internal/engine/scheduler"
	"go.trai.ch/zerr"
)

// App represents the main application logic.
type App struct {
	configLoader ports.ConfigLoader
	settings     *config.SettingsLoader
	scheduler    *scheduler.Scheduler
	collector    *collector.Collector
	store        ports.FingerprintStore
	outputs      ports.OutputVerifier
	sources      ports.SourceVerifier
	digests      ports.DigestCache
	logger       ports.Logger
	metrics      ports.Metrics

	stdout  io.Writer
	stderr  io.Writer
	workDir string
}

// New creates a new App instance.
func New(
	loader ports.ConfigLoader,
	settings *config.SettingsLoader,
	sched *scheduler.Scheduler,
	c *collector.Collector,
	store ports.FingerprintStore,
	outputs ports.OutputVerifier,
	sources ports.SourceVerifier,
	digests ports.DigestCache,
	log ports.Logger,
	metrics ports.Metrics,
) *App {
	return &App{
		configLoader: loader,
		settings:     settings,
		scheduler:    sched,
		collector:    c,
		store:        store,
		outputs:      outputs,
		sources:      sources,
		digests:      digests,
		logger:       log,
		metrics:      metrics,
		stdout:       os.Stdout,
		stderr:       os.Stderr,
	}
}

// WithOutput redirects verdict and build output.
func (a *App) WithOutput(stdout, stderr io.Writer) *App {
	a.stdout = stdout
	a.stderr = stderr
	return a
}

// WithWorkDir makes the App discover fresh.yaml from dir instead of the
// process working directory.
func (a *App) WithWorkDir(dir string) *App {
	a.workDir = dir
	return a
}

// BindFlags lets command line flags override the global settings.
func (a *App) BindFlags(flags *pflag.FlagSet) error {
	return a.settings.BindFlags(flags)
}

// CheckOptions configuration for the Check method.
type CheckOptions struct {
	JSON bool
	// Force reports every unit as dirty.
	Force bool
	// FailOnDirty makes Check return domain.ErrDirtyUnits when a unit is dirty.
	FailOnDirty bool
}

// BuildOptions configuration for the Build method.
type BuildOptions struct {
	JSON  bool
	Force bool
}

// CleanOptions configuration for the Clean method.
type CleanOptions struct {
	// Prune only removes records of units that are no longer in the graph.
	Prune bool
	// Cache also removes the content digest cache.
	Cache bool
}

// invocation is the loaded state one command works on.
type invocation struct {
	root     string
	settings *config.Settings
	graph    *domain.Graph
}

type configurableLogger interface {
	SetJSON(enable bool)
	SetVerbose(enable bool)
}

func (a *App) prepare() (*invocation, error) {
	cwd := a.workDir
	if cwd == "" {
		var err error
		if cwd, err = os.Getwd(); err != nil {
			return nil, zerr.Wrap(err, "failed to get working directory")
		}
	}

	root, err := a.configLoader.DiscoverRoot(cwd)
	if err != nil {
		return nil, err
	}

	settings, err := a.settings.Load(root)
	if err != nil {
		return nil, err
	}
	if l, ok := a.logger.(configurableLogger); ok {
		l.SetJSON(settings.LogJSON)
		l.SetVerbose(settings.Verbose)
	}

	graph, err := a.configLoader.Load(cwd)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to load configuration")
	}

	return &invocation{root: root, settings: settings, graph: graph}, nil
}

// Check reports the verdict of the selected units without building anything.
// No targets select every unit.
func (a *App) Check(ctx context.Context, targets []string, opts CheckOptions) error {
	inv, err := a.prepare()
	if err != nil {
		return err
	}

	if err := a.run(ctx, inv, targets, opts.JSON, opts.Force, true); err != nil {
		return err
	}

	if opts.FailOnDirty && a.scheduler.Summary()[scheduler.StatusDirty] > 0 {
		return domain.ErrDirtyUnits
	}
	return nil
}

// Build checks the selected units and runs and commits the dirty ones.
func (a *App) Build(ctx context.Context, targets []string, opts BuildOptions) error {
	inv, err := a.prepare()
	if err != nil {
		return err
	}
	return a.run(ctx, inv, targets, opts.JSON, opts.Force, false)
}

func (a *App) run(ctx context.Context, inv *invocation, targets []string, jsonOut, force, dryRun bool) error {
	s := inv.settings

	// Checksum runs fill the digest cache. Timestamp runs only read one that
	// already exists, for inputs recorded with a digest.
	cacheDir := filepath.Join(inv.root, domain.DefaultDigestCachePath())
	if s.Mode == domain.DetectChecksum || dirExists(cacheDir) {
		closeCache := a.openDigestCache(cacheDir)
		defer closeCache()
	}

	engine := freshness.New(
		inv.graph, a.collector, a.store, a.outputs, a.sources, a.logger, a.metrics,
		freshness.Options{
			Mode:      s.Mode,
			Algorithm: s.Digest,
			BuildDir:  s.BuildDir,
			Force:     force,
		},
	)

	var renderer ports.Renderer
	if jsonOut {
		renderer = report.NewJSON(a.stdout)
	} else {
		renderer = report.NewLinear(a.stdout, a.stderr, dryRun)
	}

	runErr := a.scheduler.Run(ctx, inv.graph, engine, scheduler.RunOptions{
		Targets:     targets,
		Parallelism: s.Jobs,
		BuildDir:    s.BuildDir,
		DryRun:      dryRun,
		Renderer:    renderer,
	})

	metricsErr := a.writeMetrics(s.MetricsFile)

	if runErr != nil {
		// Unit failures were already reported by the renderer.
		if a.scheduler.Summary()[scheduler.StatusFailed] > 0 {
			return errors.Join(domain.ErrBuildExecutionFailed, runErr)
		}
		return runErr
	}
	return metricsErr
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func (a *App) openDigestCache(dir string) func() {
	if err := a.digests.Open(dir); err != nil {
		a.logger.Warn(fmt.Sprintf("digest cache disabled: %v", err))
		return func() {}
	}
	return func() {
		if err := a.digests.Close(); err != nil {
			a.logger.Warn(fmt.Sprintf("failed to close digest cache: %v", err))
		}
	}
}

func (a *App) writeMetrics(path string) error {
	if path == "" {
		return nil
	}
	if err := a.metrics.WriteFile(path); err != nil {
		return err
	}
	a.logger.Debug("metrics written to " + path)
	return nil
}

// Status prints the stored fingerprint of the selected units.
func (a *App) Status(_ context.Context, targets []string) error {
	inv, err := a.prepare()
	if err != nil {
		return err
	}

	units, err := selectUnits(inv.graph, targets)
	if err != nil {
		return err
	}

	entries := make([]report.StatusEntry, 0, len(units))
	for _, u := range units {
		key := u.Key()
		rec, err := a.store.Get(inv.settings.BuildDir, key)
		entries = append(entries, report.StatusEntry{Unit: u.Name, Key: key, Record: rec, Err: err})
	}
	return report.WriteStatus(a.stdout, entries)
}

// Clean removes stored fingerprints. With Prune only records of units that
// are no longer part of the graph are removed.
func (a *App) Clean(_ context.Context, opts CleanOptions) error {
	inv, err := a.prepare()
	if err != nil {
		return err
	}
	buildDir := inv.settings.BuildDir

	var errs error
	remove := func(path, name string) {
		a.logger.Info(fmt.Sprintf("removing %s...", name))
		if err := os.RemoveAll(path); err != nil {
			errs = errors.Join(errs, zerr.Wrap(err, fmt.Sprintf("failed to remove %s", name)))
			return
		}
		a.logger.Info(fmt.Sprintf("removed %s", name))
	}

	if opts.Prune {
		keep := make([]domain.UnitKey, 0, inv.graph.UnitCount())
		for u := range inv.graph.Units() {
			keep = append(keep, u.Key())
		}
		n, err := a.store.Prune(buildDir, keep)
		if err != nil {
			errs = errors.Join(errs, err)
		} else {
			a.logger.Info(fmt.Sprintf("pruned %d stale fingerprint(s)", n))
		}
	} else {
		remove(domain.FingerprintRoot(buildDir), "fingerprints")
	}

	if opts.Cache {
		remove(filepath.Join(inv.root, domain.DefaultDigestCachePath()), "digest cache")
	}

	return errs
}

func selectUnits(g *domain.Graph, targets []string) ([]domain.Unit, error) {
	if len(targets) == 0 || slices.Contains(targets, config.AllUnits) {
		var units []domain.Unit
		for u := range g.Units() {
			units = append(units, u)
		}
		return units, nil
	}

	units := make([]domain.Unit, 0, len(targets))
	for _, name := range targets {
		u, ok := g.GetUnit(name)
		if !ok {
			return nil, zerr.With(zerr.Wrap(domain.ErrUnitNotFound, ""), "unit", name)
		}
		units = append(units, u)
	}
	return units, nil
}
