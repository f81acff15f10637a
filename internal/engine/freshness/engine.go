package freshness

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.trai.ch/fresh/internal/core/domain"
	"go.trai.ch/fresh/internal/core/ports"
	"go.trai.ch/fresh/internal/engine/collector"
	"go.trai.ch/zerr"
)

// Options configure an Engine for one build invocation.
type Options struct {
	Mode      domain.DetectionMode
	Algorithm domain.DigestAlgorithm
	// BuildDir is the absolute build output directory.
	BuildDir string
	// Force makes every check report Dirty.
	Force bool
	// BuildID tags the records committed by this invocation. A random id is
	// used when empty.
	BuildID string
	// Now defaults to time.Now.
	Now func() time.Time
}

// pending is the state of a dirty check awaiting its commit.
type pending struct {
	fp   *domain.Fingerprint
	snap *collector.Snapshot
	hash string
	// prevHash is the hash of the record the check compared against.
	prevHash string
	// compared is set when the reason came from a fingerprint field.
	compared bool
}

// Engine implements ports.FreshnessEngine.
type Engine struct {
	graph     *domain.Graph
	collector *collector.Collector
	store     ports.FingerprintStore
	outputs   ports.OutputVerifier
	sources   ports.SourceVerifier
	logger    ports.Logger
	metrics   ports.Metrics
	opts      Options

	mu sync.Mutex
	// pending holds dirty checks by unit key hash.
	pending map[string]pending
	// current is the latest fingerprint hash of each unit name seen in this
	// invocation, used as the dependency hash of its dependents.
	current map[string]string
	// committed is the evidence hash last committed per unit key hash.
	committed map[string]string
	// rebuilt marks units found dirty in this invocation whose rebuild
	// dirties their public dependents.
	rebuilt map[string]bool
}

// New creates an Engine deciding over the units of graph.
func New(
	graph *domain.Graph,
	c *collector.Collector,
	store ports.FingerprintStore,
	outputs ports.OutputVerifier,
	sources ports.SourceVerifier,
	logger ports.Logger,
	metrics ports.Metrics,
	opts Options,
) *Engine {
	if opts.BuildID == "" {
		opts.BuildID = uuid.NewString()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	c = c.WithOptions(collector.Options{Mode: opts.Mode, Algorithm: opts.Algorithm, BuildDir: opts.BuildDir})
	opts.Mode = c.Options().Mode
	opts.Algorithm = c.Options().Algorithm

	return &Engine{
		graph:     graph,
		collector: c,
		store:     store,
		outputs:   outputs,
		sources:   sources,
		logger:    logger,
		metrics:   metrics,
		opts:      opts,
		pending:   make(map[string]pending),
		current:   make(map[string]string),
		committed: make(map[string]string),
		rebuilt:   make(map[string]bool),
	}
}

// BuildID returns the id committed records are tagged with.
func (e *Engine) BuildID() string {
	return e.opts.BuildID
}

// Check decides whether u's previous output can be reused. A dirty verdict
// leaves a pending entry that a later Commit of the same hash records.
func (e *Engine) Check(ctx context.Context, u *domain.Unit) (domain.Verdict, error) {
	start := time.Now()
	v, err := e.check(ctx, u)
	if err != nil {
		return domain.Verdict{}, err
	}
	e.metrics.ObserveVerdict(v, time.Since(start))
	return v, nil
}

func (e *Engine) check(ctx context.Context, u *domain.Unit) (domain.Verdict, error) {
	key := u.Key()

	prev, err := e.store.Get(e.opts.BuildDir, key)
	var pre domain.DirtyReason
	switch {
	case errors.Is(err, domain.ErrMissingRecord):
		prev = nil
		pre = domain.NeverBuilt()
	case err != nil:
		e.logger.Warn("ignoring unreadable fingerprint of " + u.Name + ": " + err.Error())
		prev = nil
		pre = domain.CorruptRecord()
	}

	fp, snap, err := e.collector.Collect(ctx, u, prev, e.depFingerprints(u))
	if err != nil {
		return domain.Verdict{}, err
	}
	stem := domain.ArtifactStem(key, fp.Toolchain)

	reason := pre
	compared := false
	if reason.IsZero() {
		reason, compared = e.compare(u, prev, fp, snap, stem)
	}

	if reason.IsZero() {
		e.mu.Lock()
		e.current[u.Name] = prev.Hash
		delete(e.pending, key.Hash())
		delete(e.rebuilt, u.Name)
		e.mu.Unlock()
		v := domain.FreshVerdict(prev.Hash)
		v.Stem = stem
		return v, nil
	}

	if u.Source == domain.SourceDirectory {
		if err := e.sources.VerifyPackage(u.Root); err != nil {
			return domain.Verdict{}, zerr.With(err, "unit", u.Name)
		}
	}

	hash := fp.Hash()
	var prevHash string
	if prev != nil {
		prevHash = prev.Hash
	}
	e.mu.Lock()
	e.pending[key.Hash()] = pending{fp: fp, snap: snap, hash: hash, prevHash: prevHash, compared: compared}
	delete(e.committed, key.Hash())
	e.current[u.Name] = hash
	e.rebuilt[u.Name] = propagates(compared, prevHash, hash)
	e.mu.Unlock()

	e.logger.Debug(u.Name + " is dirty: " + reason.String())
	v := domain.DirtyVerdict(hash, reason)
	v.Stem = stem
	return v, nil
}

// compare runs the checks that need a readable previous record. The flag is
// set when the reason is a difference between the two fingerprints.
func (e *Engine) compare(
	u *domain.Unit,
	prev *domain.StoredFingerprint,
	fp *domain.Fingerprint,
	snap *collector.Snapshot,
	stem string,
) (domain.DirtyReason, bool) {
	if e.opts.Force {
		return domain.Forced(), false
	}
	if u.DepInfo != "" && !u.Source.Immutable() && !snap.DepInfoUsable {
		return domain.DepInfoMissing(), false
	}
	if r := Compare(&prev.Fingerprint, fp); !r.IsZero() {
		return r, true
	}
	if name := e.rebuiltDep(u); name != "" {
		return domain.DepRebuilt(name), false
	}

	missing, err := e.outputs.MissingOutput(e.opts.BuildDir, u.OutputPaths(stem))
	switch {
	case err != nil:
		return domain.FailedToRead("output", err.Error()), false
	case missing != "":
		return domain.OutputMissing(missing), false
	}
	return domain.DirtyReason{}, false
}

// propagates reports whether rebuilding a dirty unit dirties its public
// dependents. Only a fingerprint difference that leaves the hash unchanged
// does not: the dependents already link against an identical fingerprint.
func propagates(compared bool, prevHash, hash string) bool {
	return !compared || prevHash == "" || prevHash != hash
}

// rebuiltDep returns the name of the first public dependency of u that was
// found dirty in this invocation and dirties its dependents.
func (e *Engine) rebuiltDep(u *domain.Unit) string {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, d := range u.Dependencies {
		if d.Public && e.rebuilt[d.Unit] {
			return d.Name
		}
	}
	return ""
}

// depFingerprints returns the current hash of every dependency of u. Hashes
// come from this invocation when the dependency was already checked, from the
// store otherwise. A dependency without any record has an empty hash.
func (e *Engine) depFingerprints(u *domain.Unit) []domain.DepFingerprint {
	deps := make([]domain.DepFingerprint, 0, len(u.Dependencies))
	for _, d := range u.Dependencies {
		deps = append(deps, domain.DepFingerprint{
			Unit:   d.Unit,
			Name:   d.Name,
			Hash:   e.depHash(d.Unit),
			Public: d.Public,
		})
	}
	return deps
}

func (e *Engine) depHash(name string) string {
	e.mu.Lock()
	hash, ok := e.current[name]
	e.mu.Unlock()
	if ok {
		return hash
	}

	dep, ok := e.graph.GetUnit(name)
	if !ok {
		return ""
	}
	rec, err := e.store.Get(e.opts.BuildDir, dep.Key())
	if err != nil {
		return ""
	}
	return rec.Hash
}

// Commit records the fingerprint of a successful build of u. The evidence
// must carry the hash of the dirty check that scheduled the build.
func (e *Engine) Commit(ctx context.Context, u *domain.Unit, ev domain.BuildEvidence) error {
	err := e.commit(ctx, u, ev)
	e.metrics.ObserveCommit(err)
	return err
}

func (e *Engine) commit(ctx context.Context, u *domain.Unit, ev domain.BuildEvidence) error {
	key := u.Key()
	if !ev.Success {
		return zerr.With(zerr.Wrap(domain.ErrNoBuildEvidence, "build did not succeed"), "unit", u.Name)
	}
	if ev.Key.Hash() != key.Hash() {
		return zerr.With(zerr.Wrap(domain.ErrEvidenceMismatch, "evidence is for another unit"), "unit", u.Name)
	}

	e.mu.Lock()
	if done, ok := e.committed[key.Hash()]; ok && done == ev.FingerprintHash {
		e.mu.Unlock()
		return nil
	}
	p, ok := e.pending[key.Hash()]
	e.mu.Unlock()

	if !ok {
		return zerr.With(zerr.Wrap(domain.ErrNotChecked, "no pending check"), "unit", u.Name)
	}
	if p.hash != ev.FingerprintHash {
		err := zerr.With(zerr.Wrap(domain.ErrEvidenceMismatch, "fingerprint hash differs"), "unit", u.Name)
		return zerr.With(zerr.With(err, "checked", p.hash), "evidence", ev.FingerprintHash)
	}

	fp, err := e.collector.CollectCommitted(ctx, u, p.fp, p.snap, ev)
	if err != nil {
		return err
	}

	rec := domain.StoredFingerprint{
		Version:     domain.FormatVersion,
		Key:         key,
		Hash:        fp.Hash(),
		Fingerprint: *fp,
		DepInfo:     ev.DepInfo,
		BuildOutput: ev.BuildOutput,
		Mode:        e.opts.Mode,
		BuildID:     e.opts.BuildID,
		CommittedAt: e.opts.Now().UTC(),
	}
	if err := e.store.Put(e.opts.BuildDir, rec); err != nil {
		return zerr.With(err, "unit", u.Name)
	}

	e.mu.Lock()
	e.current[u.Name] = rec.Hash
	e.rebuilt[u.Name] = propagates(p.compared, p.prevHash, rec.Hash)
	e.committed[key.Hash()] = ev.FingerprintHash
	delete(e.pending, key.Hash())
	e.mu.Unlock()

	e.logger.Debug("committed " + u.Name + " as " + rec.Hash)
	return nil
}
