// Package digestcache memoizes file content digests in a BadgerDB.
package digestcache

import (
	"errors"
	"os"
	"sync"

	"github.com/dgraph-io/badger/v4"
	"github.com/fxamacker/cbor/v2"
	"go.trai.ch/fresh/internal/core/domain"
	"go.trai.ch/fresh/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.DigestCache = (*Cache)(nil)

// entry is the stored value of a cached digest.
type entry struct {
	Size    int64  `cbor:"1,keyasint"`
	ModTime int64  `cbor:"2,keyasint"`
	Sum     string `cbor:"3,keyasint"`
}

// Cache implements ports.DigestCache. Entries are keyed by algorithm and path
// and are only returned while the file's size and modification time are the
// ones it was hashed with.
type Cache struct {
	mu sync.RWMutex
	db *badger.DB
}

// New creates a closed cache. Lookups miss until Open succeeds.
func New() *Cache {
	return &Cache{}
}

// Open attaches the cache to dir, creating it if needed. An empty dir opens
// an in-memory cache.
func (c *Cache) Open(dir string) error {
	var opts badger.Options
	if dir == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(dir, domain.DirPerm); err != nil {
			return zerr.With(zerr.Wrap(err, domain.ErrDigestCacheFailed.Error()), "path", dir)
		}
		opts = badger.DefaultOptions(dir)
	}
	opts = opts.WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrDigestCacheFailed.Error()), "path", dir)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.db != nil {
		_ = c.db.Close()
	}
	c.db = db
	return nil
}

// Close detaches the cache.
func (c *Cache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.db == nil {
		return nil
	}
	err := c.db.Close()
	c.db = nil
	return err
}

func key(path string, algo domain.DigestAlgorithm) []byte {
	return []byte(string(algo) + "\x00" + path)
}

// Get returns the cached digest of path if stat still matches.
func (c *Cache) Get(path string, stat domain.FileStat, algo domain.DigestAlgorithm) (domain.ContentDigest, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.db == nil {
		return domain.ContentDigest{}, false
	}

	var e entry
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key(path, algo))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return cbor.Unmarshal(val, &e)
		})
	})
	if err != nil {
		return domain.ContentDigest{}, false
	}
	if e.Size != stat.Size || e.ModTime != stat.ModTime.UnixNano() || e.Sum == "" {
		return domain.ContentDigest{}, false
	}
	return domain.ContentDigest{Algorithm: algo, Sum: e.Sum}, true
}

// Put records digest for path as observed with stat.
func (c *Cache) Put(path string, stat domain.FileStat, digest domain.ContentDigest) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.db == nil {
		return nil
	}

	val, err := cbor.Marshal(entry{Size: stat.Size, ModTime: stat.ModTime.UnixNano(), Sum: digest.Sum})
	if err != nil {
		return zerr.Wrap(err, "failed to encode digest")
	}
	err = c.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key(path, digest.Algorithm), val)
	})
	if err != nil && !errors.Is(err, badger.ErrDBClosed) {
		return zerr.With(zerr.Wrap(err, "failed to store digest"), "path", path)
	}
	return nil
}
