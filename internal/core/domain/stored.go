package domain

import "time"

// FormatVersion is the on-disk version of stored fingerprints. Records of any
// other version are treated as corrupt.
const FormatVersion = 1

// StoredFingerprint is the record committed after a successful build.
type StoredFingerprint struct {
	Version     int         `json:"version"`
	Key         UnitKey     `json:"key"`
	Hash        string      `json:"hash"`
	Fingerprint Fingerprint `json:"fingerprint"`
	// DepInfo is the raw dependency-info text the compiler wrote. It is
	// persisted next to the record and loaded back into this field.
	DepInfo string `json:"-"`
	// BuildOutput is the stdout of the last successful build-script run.
	BuildOutput string        `json:"build_output,omitempty"`
	Mode        DetectionMode `json:"mode"`
	BuildID     string        `json:"build_id"`
	CommittedAt time.Time     `json:"committed_at"`
}

// BuildEvidence is what the orchestrator reports after building a unit.
type BuildEvidence struct {
	Key UnitKey
	// FingerprintHash is the hash returned by the check that scheduled the build.
	FingerprintHash string
	Success         bool
	// DepInfo is the dependency-info text the compiler emitted, if any.
	DepInfo string
	// BuildOutput is the stdout of a build-script run, if any.
	BuildOutput string
}
