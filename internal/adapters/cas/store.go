// Package cas implements the on-disk fingerprint store.
package cas

import (
	"bytes"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.trai.ch/fresh/internal/core/domain"
	"go.trai.ch/zerr"
)

const (
	recordExt     = ".json"
	depInfoPrefix = "dep-"
	lockExt       = ".lock"
)

// Store implements ports.FingerprintStore with one JSON record per unit.
// A record lives at <build-dir>/.fingerprint/<package>-<keyhash>/<kind>-<target>.json
// next to the raw dep-info file of the same build.
type Store struct {
	mu    sync.Mutex
	locks map[string]*sync.RWMutex
}

// NewStore creates a new fingerprint store.
func NewStore() *Store {
	return &Store{locks: make(map[string]*sync.RWMutex)}
}

// recordPath returns the record file of key.
func recordPath(buildDir string, key domain.UnitKey) string {
	return filepath.Join(domain.FingerprintRoot(buildDir), key.RecordDir(), key.RecordName()+recordExt)
}

// depInfoPath returns the dep-info file of key.
func depInfoPath(buildDir string, key domain.UnitKey) string {
	return filepath.Join(domain.FingerprintRoot(buildDir), key.RecordDir(), depInfoPrefix+key.RecordName())
}

// unitLock returns the in-process lock guarding the record at path.
func (s *Store) unitLock(path string) *sync.RWMutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[path]
	if !ok {
		l = &sync.RWMutex{}
		s.locks[path] = l
	}
	return l
}

// Get retrieves the committed fingerprint for key.
func (s *Store) Get(buildDir string, key domain.UnitKey) (*domain.StoredFingerprint, error) {
	path := recordPath(buildDir, key)
	if _, err := os.Stat(filepath.Dir(path)); errors.Is(err, fs.ErrNotExist) {
		return nil, domain.ErrMissingRecord
	}

	l := s.unitLock(path)
	l.RLock()
	defer l.RUnlock()

	unlock, err := lockFile(path+lockExt, false)
	if err != nil {
		return nil, err
	}
	defer unlock()

	//nolint:gosec // Path is derived from the unit key below the build dir
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.ErrMissingRecord
		}
		return nil, zerr.With(zerr.Wrap(err, domain.ErrStoreReadFailed.Error()), "path", path)
	}

	rec, err := decode(data, key)
	if err != nil {
		return nil, zerr.With(err, "path", path)
	}

	//nolint:gosec // Path is derived from the unit key below the build dir
	depInfo, err := os.ReadFile(depInfoPath(buildDir, key))
	switch {
	case err == nil:
		rec.DepInfo = string(depInfo)
	case !errors.Is(err, fs.ErrNotExist):
		return nil, zerr.With(zerr.Wrap(err, domain.ErrStoreReadFailed.Error()), "path", depInfoPath(buildDir, key))
	}

	return rec, nil
}

// decode parses a record and checks that it is complete and belongs to key.
func decode(data []byte, key domain.UnitKey) (*domain.StoredFingerprint, error) {
	var rec domain.StoredFingerprint
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&rec); err != nil {
		return nil, corrupt("record is not valid JSON", err.Error())
	}
	if rec.Version != domain.FormatVersion {
		return nil, zerr.With(corrupt("unsupported record version", ""), "version", rec.Version)
	}
	if rec.Key.Hash() != key.Hash() {
		return nil, corrupt("record belongs to another unit", rec.Key.String())
	}
	if rec.Fingerprint.Hash() != rec.Hash {
		return nil, corrupt("record hash does not match its fingerprint", rec.Hash)
	}
	return &rec, nil
}

func corrupt(msg, detail string) error {
	err := zerr.Wrap(domain.ErrCorruptRecord, msg)
	if detail != "" {
		err = zerr.With(err, "detail", detail)
	}
	return err
}

// Put atomically replaces the record for rec.Key. The dep-info file is
// written first and the record last, so a record on disk always describes
// a completed build.
func (s *Store) Put(buildDir string, rec domain.StoredFingerprint) error {
	path := recordPath(buildDir, rec.Key)
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, domain.DirPerm); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrStoreCreateFailed.Error()), "path", dir)
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return zerr.Wrap(err, domain.ErrStoreMarshalFailed.Error())
	}

	l := s.unitLock(path)
	l.Lock()
	defer l.Unlock()

	unlock, err := lockFile(path+lockExt, true)
	if err != nil {
		return err
	}
	defer unlock()

	depPath := depInfoPath(buildDir, rec.Key)
	if rec.DepInfo != "" {
		if err := writeFileAtomic(depPath, []byte(rec.DepInfo)); err != nil {
			return zerr.With(zerr.Wrap(err, domain.ErrStoreWriteFailed.Error()), "path", depPath)
		}
	} else if err := os.Remove(depPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return zerr.With(zerr.Wrap(err, domain.ErrStoreWriteFailed.Error()), "path", depPath)
	}

	if err := writeFileAtomic(path, data); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrStoreWriteFailed.Error()), "path", path)
	}
	return nil
}

// Remove deletes the record for key, if any.
func (s *Store) Remove(buildDir string, key domain.UnitKey) error {
	path := recordPath(buildDir, key)
	l := s.unitLock(path)
	l.Lock()
	defer l.Unlock()
	return removeRecord(path)
}

// removeRecord deletes a record, then its dep-info and lock files.
func removeRecord(path string) error {
	dir, base := filepath.Split(path)
	name := strings.TrimSuffix(base, recordExt)
	for _, p := range []string{path, filepath.Join(dir, depInfoPrefix+name), path + lockExt} {
		if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return zerr.With(zerr.Wrap(err, "failed to remove fingerprint"), "path", p)
		}
	}
	return nil
}

// Prune deletes every record whose key is not in keep and returns how many were removed.
// Package directories left empty are removed as well.
func (s *Store) Prune(buildDir string, keep []domain.UnitKey) (int, error) {
	root := domain.FingerprintRoot(buildDir)
	kept := make(map[string]bool, len(keep))
	for _, key := range keep {
		kept[recordPath(buildDir, key)] = true
	}

	dirs, err := os.ReadDir(root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, nil
		}
		return 0, zerr.With(zerr.Wrap(err, domain.ErrStoreReadFailed.Error()), "path", root)
	}

	removed := 0
	for _, d := range dirs {
		if !d.IsDir() {
			continue
		}
		dir := filepath.Join(root, d.Name())
		entries, err := os.ReadDir(dir)
		if err != nil {
			return removed, zerr.With(zerr.Wrap(err, domain.ErrStoreReadFailed.Error()), "path", dir)
		}
		for _, e := range entries {
			if e.IsDir() || !strings.HasSuffix(e.Name(), recordExt) {
				continue
			}
			path := filepath.Join(dir, e.Name())
			if kept[path] {
				continue
			}
			l := s.unitLock(path)
			l.Lock()
			err := removeRecord(path)
			l.Unlock()
			if err != nil {
				return removed, err
			}
			removed++
		}
		// Fails while other records remain, which is expected.
		_ = os.Remove(dir)
	}
	return removed, nil
}
