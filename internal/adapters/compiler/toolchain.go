package compiler

import (
	"bytes"
	"context"
	"os/exec"
	"strings"
	"sync"

	"go.trai.ch/fresh/internal/core/domain"
	"go.trai.ch/fresh/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/mod/semver"
	"golang.org/x/sync/singleflight"
)

var _ ports.ToolchainProber = (*ToolchainProber)(nil)

// ToolchainProber asks a compiler to identify itself with "-vV".
// Results are cached per compiler for the life of the prober.
type ToolchainProber struct {
	group singleflight.Group
	mu    sync.RWMutex
	cache map[string]domain.Toolchain
}

// NewToolchainProber creates a new ToolchainProber.
func NewToolchainProber() *ToolchainProber {
	return &ToolchainProber{cache: make(map[string]domain.Toolchain)}
}

// Probe returns the identification of compiler.
func (p *ToolchainProber) Probe(ctx context.Context, compiler string) (domain.Toolchain, error) {
	p.mu.RLock()
	tc, ok := p.cache[compiler]
	p.mu.RUnlock()
	if ok {
		return tc, nil
	}

	v, err, _ := p.group.Do(compiler, func() (any, error) {
		var stdout, stderr bytes.Buffer
		//nolint:gosec // The compiler is configured by the workspace owner
		cmd := exec.CommandContext(ctx, compiler, "-vV")
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr
		if err := cmd.Run(); err != nil {
			return nil, zerr.With(zerr.With(zerr.Wrap(err, domain.ErrToolchainProbeFailed.Error()),
				"compiler", compiler), "stderr", strings.TrimSpace(stderr.String()))
		}
		tc, err := ParseVersion(stdout.String())
		if err != nil {
			return nil, zerr.With(err, "compiler", compiler)
		}
		p.mu.Lock()
		p.cache[compiler] = tc
		p.mu.Unlock()
		return tc, nil
	})
	if err != nil {
		return domain.Toolchain{}, err
	}
	return v.(domain.Toolchain), nil
}

// ParseVersion parses verbose version output of the form
//
//	rustc 1.80.0-nightly (051478957 2024-07-21)
//	commit-hash: 0514789...
//	host: x86_64-unknown-linux-gnu
//	release: 1.80.0-nightly
//
// The channel is the first pre-release identifier of the release, or
// "stable" when there is none.
func ParseVersion(out string) (domain.Toolchain, error) {
	tc := domain.Toolchain{Verbose: out}
	for _, line := range strings.Split(out, "\n") {
		key, value, ok := strings.Cut(strings.TrimSpace(line), ": ")
		if !ok {
			continue
		}
		switch key {
		case "release":
			tc.Release = value
		case "commit-hash":
			tc.CommitHash = value
		case "host":
			tc.Host = value
		}
	}
	if tc.Release == "" {
		return domain.Toolchain{}, zerr.With(zerr.Wrap(domain.ErrToolchainParseFailed, ""), "output", strings.TrimSpace(out))
	}

	version := "v" + tc.Release
	if !semver.IsValid(version) {
		return domain.Toolchain{}, zerr.With(zerr.Wrap(domain.ErrToolchainParseFailed, ""), "release", tc.Release)
	}
	tc.Channel = channel(semver.Prerelease(version))
	return tc, nil
}

func channel(prerelease string) string {
	if prerelease == "" {
		return "stable"
	}
	name, _, _ := strings.Cut(strings.TrimPrefix(prerelease, "-"), ".")
	return name
}
