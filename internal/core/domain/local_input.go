package domain

import (
	"path/filepath"
	"strings"
	"time"
)

// DetectionMode selects how local inputs are checked for changes.
type DetectionMode string

const (
	// DetectTimestamp records size and modification time.
	DetectTimestamp DetectionMode = "timestamp"
	// DetectChecksum records size and a content digest.
	DetectChecksum DetectionMode = "checksum"
)

// Valid reports whether m is a known detection mode.
func (m DetectionMode) Valid() bool {
	return m == DetectTimestamp || m == DetectChecksum
}

// DigestAlgorithm names a content hash function.
type DigestAlgorithm string

const (
	// DigestBlake3 is the 256-bit BLAKE3 hash.
	DigestBlake3 DigestAlgorithm = "blake3"
	// DigestSHA256 is the 256-bit SHA-2 hash.
	DigestSHA256 DigestAlgorithm = "sha256"
)

// Valid reports whether a is a supported algorithm.
func (a DigestAlgorithm) Valid() bool {
	return a == DigestBlake3 || a == DigestSHA256
}

// ContentDigest is a hex encoded content hash tagged with its algorithm.
type ContentDigest struct {
	Algorithm DigestAlgorithm `json:"algorithm"`
	Sum       string          `json:"sum"`
}

// String renders the digest as "algo=hex".
func (d ContentDigest) String() string {
	return string(d.Algorithm) + "=" + d.Sum
}

// FileStat is the cheap metadata of a file.
type FileStat struct {
	Size    int64
	ModTime time.Time
}

// PathBase is the directory a local input path is relative to.
type PathBase string

const (
	// BaseUnitRoot resolves paths against the unit's package root.
	BaseUnitRoot PathBase = "root"
	// BaseBuildDir resolves paths against the build output directory.
	BaseBuildDir PathBase = "build"
	// BaseAbsolute marks paths outside both roots.
	BaseAbsolute PathBase = "abs"
)

// LocalInput is one file a unit read, in whichever detection mode observed it.
// Timestamp observations carry Size and ModTime. Checksum observations carry
// Size and Digest and keep ModTime when it was known, so that a later build in
// the other mode can still prove the content unchanged.
type LocalInput struct {
	Kind    DetectionMode  `json:"kind"`
	Path    string         `json:"path"`
	Base    PathBase       `json:"base"`
	Size    int64          `json:"size"`
	ModTime time.Time      `json:"mtime,omitzero"`
	Digest  *ContentDigest `json:"digest,omitempty"`
	// Missing marks a file that did not exist when observed.
	Missing bool `json:"missing,omitempty"`
	// ReadError holds the probe failure of a file that exists but could not be read.
	ReadError string `json:"read_error,omitempty"`
}

// Resolve returns the absolute location of the input.
func (in LocalInput) Resolve(unitRoot, buildDir string) string {
	switch in.Base {
	case BaseUnitRoot:
		return filepath.Join(unitRoot, filepath.FromSlash(in.Path))
	case BaseBuildDir:
		return filepath.Join(buildDir, filepath.FromSlash(in.Path))
	default:
		return filepath.FromSlash(in.Path)
	}
}

// RelativeInput maps an absolute path to the shortest stable (base, path) pair.
func RelativeInput(abs, unitRoot, buildDir string) (PathBase, string) {
	if rel, ok := within(buildDir, abs); ok {
		return BaseBuildDir, rel
	}
	if rel, ok := within(unitRoot, abs); ok {
		return BaseUnitRoot, rel
	}
	return BaseAbsolute, filepath.ToSlash(abs)
}

func within(root, path string) (string, bool) {
	if root == "" {
		return "", false
	}
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

// Match reports whether the current observation in matches the recorded one.
// A size change is decisive on its own. When both sides carry digests of the
// same algorithm the digests decide, otherwise the modification times do.
func (in LocalInput) Match(recorded LocalInput) (bool, DirtyReason) {
	switch {
	case in.Missing:
		return false, FileMissing(in.Path)
	case in.ReadError != "":
		return false, FailedToRead(in.Path, in.ReadError)
	case recorded.Missing:
		return false, FileAppeared(in.Path)
	case in.Size != recorded.Size:
		return false, FileSizeChanged(in.Path, recorded.Size, in.Size)
	}

	if in.Digest != nil && recorded.Digest != nil && in.Digest.Algorithm == recorded.Digest.Algorithm {
		if in.Digest.Sum != recorded.Digest.Sum {
			return false, ChecksumChanged(in.Path, *recorded.Digest, *in.Digest)
		}
		return true, DirtyReason{}
	}

	if recorded.ModTime.IsZero() || !in.ModTime.Equal(recorded.ModTime) {
		return false, FileStale(in.Path, recorded.ModTime, in.ModTime)
	}
	return true, DirtyReason{}
}

// Key is the part of a local input that identifies the file.
func (in LocalInput) Key() string {
	return string(in.Base) + ":" + in.Path
}
