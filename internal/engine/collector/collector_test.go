package collector_test

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/fresh/internal/adapters/compiler"
	"go.trai.ch/fresh/internal/adapters/env"
	fsadapter "go.trai.ch/fresh/internal/adapters/fs"
	"go.trai.ch/fresh/internal/core/domain"
	"go.trai.ch/fresh/internal/core/ports"
	"go.trai.ch/fresh/internal/core/ports/mocks"
	"go.trai.ch/fresh/internal/engine/collector"
	"go.uber.org/mock/gomock"
)

var mtime = time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)

func newCollector(oracle ports.FileOracle, vars env.Map, opts collector.Options) *collector.Collector {
	walker := fsadapter.NewWalker()
	return collector.New(
		fsadapter.NewResolver(walker), walker, oracle, nil,
		compiler.NewDepInfoParser(), compiler.NewBuildOutputParser(), vars,
	).WithOptions(opts)
}

func writeFile(t *testing.T, root, rel, content string) string {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	require.NoError(t, os.Chtimes(path, mtime, mtime))
	return path
}

func keys(inputs []domain.LocalInput) []string {
	out := make([]string, 0, len(inputs))
	for _, in := range inputs {
		out = append(out, in.Key())
	}
	return out
}

func unit(root string, kind domain.TargetKind) *domain.Unit {
	return &domain.Unit{
		Name:     "pkg:" + string(kind),
		Package:  domain.PackageID{Name: "pkg", Version: "1.0.0"},
		Target:   domain.Target{Name: "pkg", Kind: kind},
		Profile:  domain.Profile{Name: "dev"},
		Mode:     domain.ModeHost,
		Source:   domain.SourcePath,
		Root:     root,
		Features: []string{"std", "default", "std"},
		Edition:  "2021",
	}
}

func TestCollect_Sources(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src/lib.rs", "lib")
	writeFile(t, root, "src/a.rs", "a")
	u := unit(root, domain.KindLib)
	u.Sources = []string{"src/*.rs"}
	u.Env = []string{"FOO", "BAR"}

	c := newCollector(fsadapter.NewOracle(nil), env.Map{"FOO": ""}, collector.Options{BuildDir: filepath.Join(root, "target")})
	deps := []domain.DepFingerprint{{Unit: "z", Name: "z", Hash: "1", Public: true}}

	fp, snap, err := c.Collect(context.Background(), u, nil, deps)
	require.NoError(t, err)

	assert.Equal(t, []string{"root:src/a.rs", "root:src/lib.rs"}, keys(fp.LocalInputs))
	assert.Equal(t, []string{"default", "std"}, fp.Features)
	assert.Equal(t, u.Profile.Hash(), fp.ProfileHash)
	assert.Equal(t, u.MetadataHash(), fp.MetadataHash)
	assert.Equal(t, deps, fp.Deps)
	assert.Equal(t, []domain.EnvVar{
		{Name: "BAR", Value: domain.UnsetEnv()},
		{Name: "FOO", Value: domain.SetEnv("")},
	}, fp.EnvVars)
	assert.False(t, snap.DepInfoUsable)
	assert.Len(t, snap.Inputs, 2)

	lib := snap.Inputs["root:src/lib.rs"]
	assert.Equal(t, int64(3), lib.Size)
	assert.True(t, lib.ModTime.Equal(mtime))
	assert.Nil(t, lib.Digest, "timestamp mode does not hash new files")
}

func TestCollect_ChecksumMode(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src/lib.rs", "hello world")
	u := unit(root, domain.KindLib)
	u.Sources = []string{"src/lib.rs"}

	c := newCollector(fsadapter.NewOracle(nil), env.Map{}, collector.Options{Mode: domain.DetectChecksum, Algorithm: domain.DigestSHA256})

	fp, _, err := c.Collect(context.Background(), u, nil, nil)
	require.NoError(t, err)
	require.Len(t, fp.LocalInputs, 1)
	in := fp.LocalInputs[0]
	assert.Equal(t, domain.DetectChecksum, in.Kind)
	require.NotNil(t, in.Digest)
	assert.Equal(t, "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9", in.Digest.Sum)
	assert.True(t, in.ModTime.Equal(mtime))
}

func TestCollect_RecordedInputsAreObserved(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src/lib.rs", "lib")
	u := unit(root, domain.KindLib)
	u.Sources = []string{"src/*.rs"}

	prev := &domain.StoredFingerprint{Fingerprint: domain.Fingerprint{LocalInputs: []domain.LocalInput{
		{Kind: domain.DetectTimestamp, Base: domain.BaseUnitRoot, Path: "src/gone.rs", Size: 1, ModTime: mtime},
	}}}

	c := newCollector(fsadapter.NewOracle(nil), env.Map{}, collector.Options{})
	fp, _, err := c.Collect(context.Background(), u, prev, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"root:src/gone.rs", "root:src/lib.rs"}, keys(fp.LocalInputs))
	assert.True(t, fp.LocalInputs[0].Missing)
}

func TestCollect_TimestampRehashesOnlyWhenNeeded(t *testing.T) {
	root := t.TempDir()
	path := writeFile(t, root, "src/lib.rs", "lib")
	u := unit(root, domain.KindLib)
	u.Sources = []string{"src/lib.rs"}

	digest := domain.ContentDigest{Algorithm: domain.DigestBlake3, Sum: "cafe"}
	recorded := func(size int64, mt time.Time) *domain.StoredFingerprint {
		return &domain.StoredFingerprint{Fingerprint: domain.Fingerprint{LocalInputs: []domain.LocalInput{
			{Kind: domain.DetectChecksum, Base: domain.BaseUnitRoot, Path: "src/lib.rs", Size: size, ModTime: mt, Digest: &digest},
		}}}
	}

	ctrl := gomock.NewController(t)
	oracle := mocks.NewMockFileOracle(ctrl)
	oracle.EXPECT().Probe(path).Return(domain.FileStat{Size: 3, ModTime: mtime}, nil).AnyTimes()
	c := newCollector(oracle, env.Map{}, collector.Options{Mode: domain.DetectTimestamp})

	// Same size and mtime: no digest.
	fp, _, err := c.Collect(context.Background(), u, recorded(3, mtime), nil)
	require.NoError(t, err)
	assert.Nil(t, fp.LocalInputs[0].Digest)

	// Different size: the size decides, no digest.
	fp, _, err = c.Collect(context.Background(), u, recorded(4, mtime.Add(-time.Hour)), nil)
	require.NoError(t, err)
	assert.Nil(t, fp.LocalInputs[0].Digest)

	// Same size, different mtime: hash with the recorded algorithm.
	oracle.EXPECT().CachedDigest(path, domain.DigestBlake3).Return(digest, nil)
	fp, _, err = c.Collect(context.Background(), u, recorded(3, mtime.Add(-time.Hour)), nil)
	require.NoError(t, err)
	assert.Equal(t, &digest, fp.LocalInputs[0].Digest)
}

func TestCollect_ProbeErrors(t *testing.T) {
	root := t.TempDir()
	u := unit(root, domain.KindLib)
	u.Sources = []string{"a.rs", "b.rs"}

	ctrl := gomock.NewController(t)
	oracle := mocks.NewMockFileOracle(ctrl)
	oracle.EXPECT().Probe(filepath.Join(root, "a.rs")).Return(domain.FileStat{}, fs.ErrNotExist)
	oracle.EXPECT().Probe(filepath.Join(root, "b.rs")).Return(domain.FileStat{}, fs.ErrPermission)

	fp, _, err := newCollector(oracle, env.Map{}, collector.Options{}).Collect(context.Background(), u, nil, nil)
	require.NoError(t, err)
	require.Len(t, fp.LocalInputs, 2)
	assert.True(t, fp.LocalInputs[0].Missing)
	assert.Equal(t, fs.ErrPermission.Error(), fp.LocalInputs[1].ReadError)
}

func TestCollect_ImmutableSource(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src/lib.rs", "lib")
	u := unit(root, domain.KindLib)
	u.Sources = []string{"src/*.rs"}
	u.Source = domain.SourceRegistry
	u.Package.Source = "registry+https://example.invalid/index"

	c := newCollector(fsadapter.NewOracle(nil), env.Map{}, collector.Options{})

	fp, _, err := c.Collect(context.Background(), u, nil, nil)
	require.NoError(t, err)
	assert.Empty(t, fp.LocalInputs)
	assert.Equal(t, "pkg v1.0.0 registry+https://example.invalid/index", fp.Precalculated)

	u.Checksum = "0123abcd"
	fp, _, err = c.Collect(context.Background(), u, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "0123abcd", fp.Precalculated)
}

func TestCollect_DepInfoFromPreviousBuild(t *testing.T) {
	root := t.TempDir()
	buildDir := filepath.Join(root, "target")
	writeFile(t, root, "src/lib.rs", "lib")
	writeFile(t, buildDir, "out/gen.rs", "gen")
	u := unit(root, domain.KindLib)

	prev := &domain.StoredFingerprint{
		DepInfo: "lib.rlib: src/lib.rs " + filepath.ToSlash(filepath.Join(buildDir, "out", "gen.rs")) + "\n\n# env-dep:OUT_DIR=x\n",
	}
	c := newCollector(fsadapter.NewOracle(nil), env.Map{"OUT_DIR": "y"}, collector.Options{BuildDir: buildDir})

	fp, snap, err := c.Collect(context.Background(), u, prev, nil)
	require.NoError(t, err)
	assert.True(t, snap.DepInfoUsable)
	assert.Equal(t, []string{"build:out/gen.rs", "root:src/lib.rs"}, keys(fp.LocalInputs))
	assert.Equal(t, []domain.EnvVar{{Name: "OUT_DIR", Value: domain.SetEnv("y")}}, fp.EnvVars)

	prev.DepInfo = "not a rule"
	_, snap, err = c.Collect(context.Background(), u, prev, nil)
	require.NoError(t, err)
	assert.False(t, snap.DepInfoUsable)
}

func TestCollect_BuildScriptRun(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "build.rs", "fn main() {}")
	writeFile(t, root, "src/lib.rs", "lib")
	writeFile(t, root, "target/debug/out", "x")
	writeFile(t, root, ".git/HEAD", "ref")
	u := unit(root, domain.KindRunCustomBuild)

	c := newCollector(fsadapter.NewOracle(nil), env.Map{}, collector.Options{BuildDir: filepath.Join(root, "target")})

	t.Run("no triggers scans the package", func(t *testing.T) {
		fp, _, err := c.Collect(context.Background(), u, nil, nil)
		require.NoError(t, err)
		assert.Equal(t, []string{"root:build.rs", "root:src/lib.rs"}, keys(fp.LocalInputs))
		assert.True(t, fp.RerunTriggers.IsZero())
	})

	t.Run("declared triggers", func(t *testing.T) {
		prev := &domain.StoredFingerprint{
			BuildOutput: "cargo:rerun-if-changed=build.rs\ncargo::rerun-if-env-changed=CC\ncargo:warning=hi\n",
		}
		fp, _, err := c.Collect(context.Background(), u, prev, nil)
		require.NoError(t, err)
		assert.Equal(t, []string{"root:build.rs"}, keys(fp.LocalInputs))
		assert.Equal(t, domain.RerunTriggers{
			Paths: []string{"build.rs"},
			Env:   []domain.EnvVar{{Name: "CC", Value: domain.UnsetEnv()}},
		}, fp.RerunTriggers)
	})

	t.Run("directory trigger", func(t *testing.T) {
		prev := &domain.StoredFingerprint{BuildOutput: "cargo:rerun-if-changed=src\n"}
		fp, _, err := c.Collect(context.Background(), u, prev, nil)
		require.NoError(t, err)
		assert.Equal(t, []string{"root:src/lib.rs"}, keys(fp.LocalInputs))
	})
}

func TestCollectCommitted(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src/lib.rs", "lib")
	extra := writeFile(t, root, "src/extra.rs", "extra")
	u := unit(root, domain.KindLib)
	u.Sources = []string{"src/lib.rs"}

	ctrl := gomock.NewController(t)
	oracle := mocks.NewMockFileOracle(ctrl)
	c := newCollector(oracle, env.Map{"FOO": "1"}, collector.Options{Mode: domain.DetectChecksum, Algorithm: domain.DigestBlake3})

	seen := domain.LocalInput{
		Kind: domain.DetectChecksum, Base: domain.BaseUnitRoot, Path: "src/lib.rs", Size: 3, ModTime: mtime,
		Digest: &domain.ContentDigest{Algorithm: domain.DigestBlake3, Sum: "aa"},
	}
	pending := &domain.Fingerprint{ProfileHash: "p", MetadataHash: "m", Edition: "2021"}
	snap := &collector.Snapshot{Inputs: map[string]domain.LocalInput{seen.Key(): seen}}

	// extra.rs is new and its checksum comes from the compiler, lib.rs was seen before the build.
	oracle.EXPECT().Probe(extra).Return(domain.FileStat{Size: 5, ModTime: mtime}, nil)
	ev := domain.BuildEvidence{
		Success: true,
		DepInfo: "lib.rlib: src/lib.rs src/extra.rs\n\n# env-dep:FOO\n# checksum:blake3=bb file_len:5 src/extra.rs\n",
	}

	fp, err := c.CollectCommitted(context.Background(), u, pending, snap, ev)
	require.NoError(t, err)

	require.Len(t, fp.LocalInputs, 2)
	assert.Equal(t, "src/extra.rs", fp.LocalInputs[0].Path)
	assert.Equal(t, "bb", fp.LocalInputs[0].Digest.Sum)
	assert.Equal(t, seen, fp.LocalInputs[1])
	assert.Equal(t, []domain.EnvVar{{Name: "FOO", Value: domain.SetEnv("1")}}, fp.EnvVars)
	assert.Equal(t, "p", fp.ProfileHash)
	assert.Equal(t, "2021", fp.Edition)
}

func TestCollectCommitted_BadDepInfo(t *testing.T) {
	u := unit(t.TempDir(), domain.KindLib)
	c := newCollector(fsadapter.NewOracle(nil), env.Map{}, collector.Options{})

	_, err := c.CollectCommitted(context.Background(), u, &domain.Fingerprint{}, &collector.Snapshot{},
		domain.BuildEvidence{Success: true, DepInfo: "garbage"})
	require.ErrorContains(t, err, domain.ErrDepInfoParseFailed.Error())
}
