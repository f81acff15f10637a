// Package collector gathers the current fingerprint of a unit from the file
// system, the environment and the compiler.
package collector

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"
	"runtime"
	"slices"

	"go.trai.ch/fresh/internal/core/domain"
	"go.trai.ch/fresh/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// Options select how local inputs are observed.
type Options struct {
	Mode      domain.DetectionMode
	Algorithm domain.DigestAlgorithm
	// BuildDir is the absolute build output directory.
	BuildDir string
}

// Snapshot is what Collect observed before a build.
type Snapshot struct {
	// Inputs are the local input observations keyed by domain.LocalInput.Key.
	Inputs map[string]domain.LocalInput
	// DepInfoUsable is set when the previous record carried dep-info that parsed.
	DepInfoUsable bool
}

// Collector builds fingerprints. The zero Options are replaced by
// timestamp detection with blake3 digests.
type Collector struct {
	resolver  ports.InputResolver
	walker    ports.SourceWalker
	oracle    ports.FileOracle
	toolchain ports.ToolchainProber
	depInfo   ports.DepInfoParser
	buildOut  ports.BuildOutputParser
	env       ports.EnvLookup
	opts      Options
}

// New creates a new Collector.
func New(
	resolver ports.InputResolver,
	walker ports.SourceWalker,
	oracle ports.FileOracle,
	toolchain ports.ToolchainProber,
	depInfo ports.DepInfoParser,
	buildOut ports.BuildOutputParser,
	env ports.EnvLookup,
) *Collector {
	return &Collector{
		resolver:  resolver,
		walker:    walker,
		oracle:    oracle,
		toolchain: toolchain,
		depInfo:   depInfo,
		buildOut:  buildOut,
		env:       env,
		opts:      Options{Mode: domain.DetectTimestamp, Algorithm: domain.DigestBlake3},
	}
}

// WithOptions returns a copy of the collector using opts.
func (c *Collector) WithOptions(opts Options) *Collector {
	cp := *c
	if opts.Mode == "" {
		opts.Mode = domain.DetectTimestamp
	}
	if opts.Algorithm == "" {
		opts.Algorithm = domain.DigestBlake3
	}
	cp.opts = opts
	return &cp
}

// Options returns the options in effect.
func (c *Collector) Options() Options {
	return c.opts
}

// Collect observes the current state of every input of u. The previous
// record, when present, contributes the files its dep-info listed, the
// triggers its build script declared and the files it observed, so that
// deleted inputs are noticed. deps are the current hashes of u's dependencies.
func (c *Collector) Collect(
	ctx context.Context,
	u *domain.Unit,
	prev *domain.StoredFingerprint,
	deps []domain.DepFingerprint,
) (*domain.Fingerprint, *Snapshot, error) {
	fp, err := c.base(ctx, u, deps)
	if err != nil {
		return nil, nil, err
	}
	snap := &Snapshot{Inputs: make(map[string]domain.LocalInput)}

	var (
		info     domain.DepInfo
		buildOut domain.BuildScriptOutput
		recorded map[string]domain.LocalInput
	)
	if prev != nil {
		if prev.DepInfo != "" {
			if parsed, err := c.depInfo.Parse(prev.DepInfo); err == nil {
				info = parsed
				snap.DepInfoUsable = true
			}
		}
		buildOut = c.buildOut.Parse(prev.BuildOutput)
		recorded = make(map[string]domain.LocalInput, len(prev.Fingerprint.LocalInputs))
		for _, in := range prev.Fingerprint.LocalInputs {
			recorded[in.Key()] = in
		}
	}

	if u.Source.Immutable() {
		fp.Precalculated = precalculated(u)
	} else {
		targets, err := c.inputPaths(u, info, buildOut)
		if err != nil {
			return nil, nil, err
		}
		for _, in := range recorded {
			targets = append(targets, pathTarget{abs: in.Resolve(u.Root, c.opts.BuildDir), base: in.Base, rel: in.Path})
		}
		inputs, err := c.observeAll(ctx, dedupe(targets), func(t pathTarget) domain.LocalInput {
			rec, ok := recorded[domain.LocalInput{Base: t.base, Path: t.rel}.Key()]
			if !ok {
				return c.observe(t, nil, nil)
			}
			return c.observe(t, &rec, nil)
		})
		if err != nil {
			return nil, nil, err
		}
		fp.LocalInputs = inputs
		for _, in := range inputs {
			snap.Inputs[in.Key()] = in
		}
	}

	fp.EnvVars = c.envVars(u, info)
	if u.IsBuildScriptRun() {
		fp.RerunTriggers = c.rerunTriggers(buildOut)
	}

	fp.Normalize()
	return fp, snap, nil
}

// CollectCommitted rebuilds the fingerprint of a finished build from the
// dep-info and build-script output it produced. Inputs already observed in
// snap are taken from there, so an edit made while the build ran is seen by
// the next check.
func (c *Collector) CollectCommitted(
	ctx context.Context,
	u *domain.Unit,
	pending *domain.Fingerprint,
	snap *Snapshot,
	evidence domain.BuildEvidence,
) (*domain.Fingerprint, error) {
	fp := &domain.Fingerprint{
		Toolchain:     pending.Toolchain,
		Rustflags:     slices.Clone(pending.Rustflags),
		Linker:        pending.Linker,
		Features:      slices.Clone(pending.Features),
		ProfileHash:   pending.ProfileHash,
		Edition:       pending.Edition,
		MetadataHash:  pending.MetadataHash,
		Precalculated: pending.Precalculated,
		Deps:          slices.Clone(pending.Deps),
	}

	var info domain.DepInfo
	if evidence.DepInfo != "" {
		parsed, err := c.depInfo.Parse(evidence.DepInfo)
		if err != nil {
			return nil, zerr.With(err, "unit", u.Name)
		}
		info = parsed
	}
	buildOut := c.buildOut.Parse(evidence.BuildOutput)

	if !u.Source.Immutable() {
		targets, err := c.inputPaths(u, info, buildOut)
		if err != nil {
			return nil, err
		}
		inputs, err := c.observeAll(ctx, dedupe(targets), func(t pathTarget) domain.LocalInput {
			if seen, ok := snap.Inputs[domain.LocalInput{Base: t.base, Path: t.rel}.Key()]; ok && c.suits(seen) {
				return seen
			}
			var reported *domain.FileChecksum
			if sum, ok := info.Checksums[t.listed]; ok && t.listed != "" {
				reported = &sum
			}
			return c.observe(t, nil, reported)
		})
		if err != nil {
			return nil, err
		}
		fp.LocalInputs = inputs
	}

	fp.EnvVars = c.envVars(u, info)
	if u.IsBuildScriptRun() {
		fp.RerunTriggers = c.rerunTriggers(buildOut)
	}

	fp.Normalize()
	return fp, nil
}

// base fills in everything that does not depend on local files.
func (c *Collector) base(ctx context.Context, u *domain.Unit, deps []domain.DepFingerprint) (*domain.Fingerprint, error) {
	var tc domain.Toolchain
	if u.Compiler != "" {
		probed, err := c.toolchain.Probe(ctx, u.Compiler)
		if err != nil {
			return nil, zerr.With(err, "unit", u.Name)
		}
		tc = probed
	}
	return &domain.Fingerprint{
		Toolchain:    tc,
		Rustflags:    slices.Clone(u.Rustflags),
		Linker:       u.Linker,
		Features:     domain.CanonicalFeatures(u.Features),
		ProfileHash:  u.Profile.Hash(),
		Edition:      u.Edition,
		MetadataHash: u.MetadataHash(),
		Deps:         slices.Clone(deps),
	}, nil
}

// precalculated identifies an immutable package by its checksum, or by its
// id when none was supplied.
func precalculated(u *domain.Unit) string {
	if u.Checksum != "" {
		return u.Checksum
	}
	return u.Package.String() + " " + u.Package.Source
}

// suits reports whether an observation was made the way the current options
// would make it.
func (c *Collector) suits(in domain.LocalInput) bool {
	if in.Kind != c.opts.Mode || in.Missing || in.ReadError != "" {
		return false
	}
	if c.opts.Mode == domain.DetectChecksum {
		return in.Digest != nil && in.Digest.Algorithm == c.opts.Algorithm
	}
	return true
}

// observeAll observes targets with bounded parallelism and returns the
// observations in target order.
func (c *Collector) observeAll(
	ctx context.Context,
	targets []pathTarget,
	observe func(pathTarget) domain.LocalInput,
) ([]domain.LocalInput, error) {
	out := make([]domain.LocalInput, len(targets))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, t := range targets {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			out[i] = observe(t)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, zerr.Wrap(err, domain.ErrCollectFailed.Error())
	}
	return out, nil
}

// observe probes one file. In timestamp mode the content is only hashed when
// the recorded observation carries a digest and the timestamp alone cannot
// prove the file unchanged. In checksum mode the content is always hashed,
// with the recorded algorithm when there is one so the two can be compared.
func (c *Collector) observe(t pathTarget, recorded *domain.LocalInput, reported *domain.FileChecksum) domain.LocalInput {
	in := domain.LocalInput{Kind: c.opts.Mode, Base: t.base, Path: t.rel}

	stat, err := c.oracle.Probe(t.abs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			in.Missing = true
		} else {
			in.ReadError = err.Error()
		}
		return in
	}
	in.Size = stat.Size
	in.ModTime = stat.ModTime

	algo := domain.DigestAlgorithm("")
	switch c.opts.Mode {
	case domain.DetectChecksum:
		algo = c.opts.Algorithm
		if recorded != nil && recorded.Digest != nil && recorded.Digest.Algorithm.Valid() {
			algo = recorded.Digest.Algorithm
		}
	default:
		if recorded != nil && recorded.Digest != nil && !recorded.Missing &&
			recorded.Size == stat.Size && !recorded.ModTime.Equal(stat.ModTime) {
			algo = recorded.Digest.Algorithm
		}
	}
	if algo == "" {
		return in
	}

	if reported != nil && reported.Digest.Algorithm == algo && reported.Size == stat.Size {
		d := reported.Digest
		in.Digest = &d
		return in
	}

	// Outside checksum mode the digest only has to be as strong as the
	// timestamp it replaces, so a memoized one will do.
	digestOf := c.oracle.Digest
	if c.opts.Mode != domain.DetectChecksum {
		digestOf = c.oracle.CachedDigest
	}
	digest, err := digestOf(t.abs, algo)
	if err != nil {
		in.ReadError = err.Error()
		return in
	}
	in.Digest = &digest
	return in
}

// envVars captures every variable the unit tracks or its source referenced.
func (c *Collector) envVars(u *domain.Unit, info domain.DepInfo) []domain.EnvVar {
	names := slices.Clone(u.Env)
	if !u.Source.Immutable() {
		for _, v := range info.Env {
			names = append(names, v.Name)
		}
	}
	slices.Sort(names)
	names = slices.Compact(names)

	vars := make([]domain.EnvVar, 0, len(names))
	for _, name := range names {
		if name == "" {
			continue
		}
		vars = append(vars, domain.EnvVar{Name: name, Value: c.lookup(name)})
	}
	return vars
}

func (c *Collector) rerunTriggers(out domain.BuildScriptOutput) domain.RerunTriggers {
	triggers := domain.RerunTriggers{Paths: slices.Clone(out.RerunIfChanged)}
	for _, name := range out.RerunIfEnvChanged {
		triggers.Env = append(triggers.Env, domain.EnvVar{Name: name, Value: c.lookup(name)})
	}
	return triggers
}

func (c *Collector) lookup(name string) domain.EnvValue {
	if v, ok := c.env.LookupEnv(name); ok {
		return domain.SetEnv(v)
	}
	return domain.UnsetEnv()
}

// pathTarget is a file to observe.
type pathTarget struct {
	abs  string
	base domain.PathBase
	rel  string
	// listed is the path as written in dep-info, if it came from there.
	listed string
}

func (c *Collector) target(u *domain.Unit, abs string) pathTarget {
	base, rel := domain.RelativeInput(abs, u.Root, c.opts.BuildDir)
	return pathTarget{abs: abs, base: base, rel: rel}
}

// inputPaths resolves the files a unit reads: its declared sources, the files
// listed in dep-info and, for build-script runs, the rerun-if-changed paths or
// the whole package when the script declared none.
func (c *Collector) inputPaths(u *domain.Unit, info domain.DepInfo, buildOut domain.BuildScriptOutput) ([]pathTarget, error) {
	var targets []pathTarget

	sources, err := c.resolver.ResolveInputs(u.Sources, u.Root)
	if err != nil {
		return nil, zerr.With(err, "unit", u.Name)
	}
	for _, abs := range sources {
		targets = append(targets, c.target(u, abs))
	}

	for _, listed := range info.Files {
		abs := filepath.FromSlash(listed)
		if !filepath.IsAbs(abs) {
			abs = filepath.Join(u.Root, abs)
		}
		t := c.target(u, filepath.Clean(abs))
		t.listed = listed
		targets = append(targets, t)
	}

	if !u.IsBuildScriptRun() {
		return targets, nil
	}

	if len(buildOut.RerunIfChanged) == 0 {
		for abs := range c.walker.WalkFiles(u.Root, c.walkIgnores()) {
			targets = append(targets, c.target(u, abs))
		}
		return targets, nil
	}

	rerun, err := c.resolver.ResolveInputs(buildOut.RerunIfChanged, u.Root)
	if err != nil {
		return nil, zerr.With(err, "unit", u.Name)
	}
	for _, abs := range rerun {
		targets = append(targets, c.target(u, abs))
	}
	return targets, nil
}

func (c *Collector) walkIgnores() []string {
	ignores := []string{domain.FreshDirName, domain.DefaultBuildDirName}
	if c.opts.BuildDir != "" {
		ignores = append(ignores, filepath.Base(c.opts.BuildDir))
	}
	return ignores
}

// dedupe keeps the first target of every input key.
func dedupe(targets []pathTarget) []pathTarget {
	seen := make(map[string]bool, len(targets))
	out := targets[:0]
	for _, t := range targets {
		key := domain.LocalInput{Base: t.base, Path: t.rel}.Key()
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, t)
	}
	return out
}
