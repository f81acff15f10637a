package compiler_test

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/fresh/internal/adapters/compiler"
	"go.trai.ch/fresh/internal/core/domain"
)

const stableVV = `rustc 1.80.0 (051478957 2024-07-21)
binary: rustc
commit-hash: 051478957371ee0084a7c0913941d2a8c4757bb9
commit-date: 2024-07-21
host: x86_64-unknown-linux-gnu
release: 1.80.0
LLVM version: 18.1.7
`

func TestParseVersion(t *testing.T) {
	tests := []struct {
		release string
		channel string
	}{
		{"1.80.0", "stable"},
		{"1.81.0-beta.3", "beta"},
		{"1.82.0-nightly", "nightly"},
		{"1.83.0-dev", "dev"},
	}

	for _, tt := range tests {
		t.Run(tt.release, func(t *testing.T) {
			out := strings.Replace(stableVV, "release: 1.80.0", "release: "+tt.release, 1)
			tc, err := compiler.ParseVersion(out)
			require.NoError(t, err)
			assert.Equal(t, tt.release, tc.Release)
			assert.Equal(t, tt.channel, tc.Channel)
			assert.Equal(t, "x86_64-unknown-linux-gnu", tc.Host)
			assert.Equal(t, out, tc.Verbose)
		})
	}
}

func TestParseVersion_NightliesWithSameReleaseDiffer(t *testing.T) {
	a, err := compiler.ParseVersion(strings.Replace(stableVV, "release: 1.80.0", "release: 1.80.0-nightly", 1))
	require.NoError(t, err)
	b, err := compiler.ParseVersion(strings.Replace(
		strings.Replace(stableVV, "release: 1.80.0", "release: 1.80.0-nightly", 1),
		"commit-hash: 0514", "commit-hash: 9999", 1))
	require.NoError(t, err)

	assert.Equal(t, a.Release, b.Release)
	assert.NotEqual(t, a.ID(), b.ID())
}

func TestParseVersion_Invalid(t *testing.T) {
	_, err := compiler.ParseVersion("gcc (GCC) 13.2.0\n")
	require.ErrorContains(t, err, domain.ErrToolchainParseFailed.Error())

	_, err = compiler.ParseVersion("release: banana\n")
	require.ErrorContains(t, err, domain.ErrToolchainParseFailed.Error())
}

func TestToolchainProber_Probe(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses a shell script as the compiler")
	}

	dir := t.TempDir()
	calls := filepath.Join(dir, "calls")
	script := "#!/bin/sh\necho x >> " + calls + "\ncat <<'EOF'\n" + stableVV + "EOF\n"
	fake := filepath.Join(dir, "rustc")
	require.NoError(t, os.WriteFile(fake, []byte(script), 0o700)) //nolint:gosec // Test compiler must be executable

	prober := compiler.NewToolchainProber()

	tc, err := prober.Probe(context.Background(), fake)
	require.NoError(t, err)
	assert.Equal(t, "1.80.0", tc.Release)
	assert.Equal(t, "stable", tc.Channel)

	_, err = prober.Probe(context.Background(), fake)
	require.NoError(t, err)

	data, err := os.ReadFile(calls) //nolint:gosec // Test file
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(data), "x"), "compiler is probed once")
}

func TestToolchainProber_Probe_Missing(t *testing.T) {
	_, err := compiler.NewToolchainProber().Probe(context.Background(), filepath.Join(t.TempDir(), "nope"))
	require.ErrorContains(t, err, domain.ErrToolchainProbeFailed.Error())
}
