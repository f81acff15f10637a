package ports

import "go.trai.ch/fresh/internal/core/domain"

// FingerprintStore persists one committed fingerprint per unit key below a build dir.
//
//go:generate go run go.uber.org/mock/mockgen -source=store.go -destination=mocks/mock_store.go -package=mocks
type FingerprintStore interface {
	// Get retrieves the committed fingerprint for key.
	// Returns domain.ErrMissingRecord if nothing was ever committed.
	// A record that cannot be decoded yields an error wrapping domain.ErrCorruptRecord.
	Get(buildDir string, key domain.UnitKey) (*domain.StoredFingerprint, error)

	// Put atomically replaces the record for rec.Key.
	Put(buildDir string, rec domain.StoredFingerprint) error

	// Remove deletes the record for key, if any.
	Remove(buildDir string, key domain.UnitKey) error

	// Prune deletes every record whose key is not in keep and returns how many were removed.
	Prune(buildDir string, keep []domain.UnitKey) (int, error)
}
