package ports

import "go.trai.ch/fresh/internal/core/domain"

// FileOracle reads the facts the engine needs about a single file.
//
//go:generate go run go.uber.org/mock/mockgen -source=oracle.go -destination=mocks/mock_oracle.go -package=mocks
type FileOracle interface {
	// Probe returns the size and modification time of path.
	// A missing file yields an error satisfying errors.Is(err, fs.ErrNotExist).
	Probe(path string) (domain.FileStat, error)

	// Digest streams the content of path through the given algorithm.
	Digest(path string, algo domain.DigestAlgorithm) (domain.ContentDigest, error)

	// CachedDigest may answer from a digest cache keyed by size and mtime.
	// Its result is no stronger evidence than a timestamp comparison.
	CachedDigest(path string, algo domain.DigestAlgorithm) (domain.ContentDigest, error)
}

// DigestCache memoizes content digests by file identity.
// Lookups on a cache that was never opened miss.
type DigestCache interface {
	// Open attaches the cache to its on-disk directory.
	Open(dir string) error

	// Close flushes and detaches the cache.
	Close() error

	// Get returns the cached digest for a file whose size and mtime match stat.
	Get(path string, stat domain.FileStat, algo domain.DigestAlgorithm) (domain.ContentDigest, bool)

	// Put records the digest of a file as observed with stat.
	Put(path string, stat domain.FileStat, digest domain.ContentDigest) error
}
