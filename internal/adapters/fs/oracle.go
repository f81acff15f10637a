package fs

import (
	"crypto/sha256"
	"encoding/hex"
	"hash"
	"io"
	"os"

	"github.com/zeebo/blake3"
	"go.trai.ch/fresh/internal/core/domain"
	"go.trai.ch/fresh/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.FileOracle = (*Oracle)(nil)

// Oracle reads file metadata and content digests from the local file system.
type Oracle struct {
	cache ports.DigestCache
}

// NewOracle creates a new Oracle. The cache may be nil.
func NewOracle(cache ports.DigestCache) *Oracle {
	return &Oracle{cache: cache}
}

// Probe returns the size and modification time of path, following symlinks.
func (o *Oracle) Probe(path string) (domain.FileStat, error) {
	info, err := os.Stat(path)
	if err != nil {
		return domain.FileStat{}, zerr.With(zerr.Wrap(err, domain.ErrPathStatFailed.Error()), "path", path)
	}
	return domain.FileStat{Size: info.Size(), ModTime: info.ModTime()}, nil
}

// Digest streams the content of path through algo. The file is always read;
// the result is recorded in the cache when one is configured.
func (o *Oracle) Digest(path string, algo domain.DigestAlgorithm) (domain.ContentDigest, error) {
	return o.digest(path, algo, false)
}

// CachedDigest is Digest, except that a cached digest is returned for a file
// whose size and modification time are unchanged since it was hashed.
func (o *Oracle) CachedDigest(path string, algo domain.DigestAlgorithm) (domain.ContentDigest, error) {
	return o.digest(path, algo, true)
}

func (o *Oracle) digest(path string, algo domain.DigestAlgorithm, reuse bool) (domain.ContentDigest, error) {
	h, err := newHash(algo)
	if err != nil {
		return domain.ContentDigest{}, err
	}

	f, err := os.Open(path) //nolint:gosec // Path is controlled by caller
	if err != nil {
		return domain.ContentDigest{}, zerr.With(zerr.Wrap(err, domain.ErrFileOpenFailed.Error()), "path", path)
	}
	defer f.Close() //nolint:errcheck // Best effort close in defer

	info, err := f.Stat()
	if err != nil {
		return domain.ContentDigest{}, zerr.With(zerr.Wrap(err, domain.ErrPathStatFailed.Error()), "path", path)
	}
	stat := domain.FileStat{Size: info.Size(), ModTime: info.ModTime()}

	if reuse && o.cache != nil {
		if cached, ok := o.cache.Get(path, stat, algo); ok {
			return cached, nil
		}
	}

	if _, err := io.Copy(h, f); err != nil {
		return domain.ContentDigest{}, zerr.With(zerr.Wrap(err, domain.ErrFileHashFailed.Error()), "path", path)
	}

	digest := domain.ContentDigest{Algorithm: algo, Sum: hex.EncodeToString(h.Sum(nil))}
	if o.cache != nil {
		// A failed cache write only costs a rehash next time.
		_ = o.cache.Put(path, stat, digest)
	}
	return digest, nil
}

func newHash(algo domain.DigestAlgorithm) (hash.Hash, error) {
	switch algo {
	case domain.DigestBlake3:
		return blake3.New(), nil
	case domain.DigestSHA256:
		return sha256.New(), nil
	default:
		return nil, zerr.With(zerr.Wrap(domain.ErrUnsupportedDigest, ""), "algorithm", string(algo))
	}
}
