package domain

import "go.trai.ch/zerr"

var (
	// ErrUnitAlreadyExists is returned when attempting to add a unit with a name that already exists.
	ErrUnitAlreadyExists = zerr.New("unit already exists")

	// ErrMissingDependency is returned when a unit references a dependency that doesn't exist in the graph.
	ErrMissingDependency = zerr.New("missing dependency")

	// ErrCycleDetected is returned when a cycle is detected in the unit dependency graph.
	ErrCycleDetected = zerr.New("cycle detected")

	// ErrUnitNotFound is returned when a requested unit is not found in the graph.
	ErrUnitNotFound = zerr.New("unit not found")

	// ErrInvalidUnitName is returned when a unit name contains invalid characters.
	ErrInvalidUnitName = zerr.New("invalid unit name")

	// ErrInvalidDetectionMode is returned when the local input detection mode is unknown.
	ErrInvalidDetectionMode = zerr.New("invalid detection mode, expected 'timestamp' or 'checksum'")

	// ErrUnsupportedDigest is returned when a digest algorithm is not supported.
	ErrUnsupportedDigest = zerr.New("unsupported digest algorithm, expected 'blake3' or 'sha256'")

	// ErrMissingRecord is returned when no stored fingerprint exists for a unit.
	ErrMissingRecord = zerr.New("no stored fingerprint")

	// ErrCorruptRecord is returned when a stored fingerprint cannot be decoded.
	ErrCorruptRecord = zerr.New("stored fingerprint is corrupt")

	// ErrChecksumMismatch is returned when a verified source file no longer matches its listed checksum.
	ErrChecksumMismatch = zerr.New("listed checksum has changed")

	// ErrChecksumManifestInvalid is returned when a vendored checksum manifest cannot be read.
	ErrChecksumManifestInvalid = zerr.New("failed to read checksum manifest")

	// ErrStoreCreateFailed is returned when the fingerprint store directory cannot be created.
	ErrStoreCreateFailed = zerr.New("failed to create fingerprint directory")

	// ErrStoreReadFailed is returned when a stored fingerprint cannot be read.
	ErrStoreReadFailed = zerr.New("failed to read stored fingerprint")

	// ErrStoreMarshalFailed is returned when a fingerprint cannot be marshaled.
	ErrStoreMarshalFailed = zerr.New("failed to marshal fingerprint")

	// ErrStoreWriteFailed is returned when a fingerprint cannot be committed.
	ErrStoreWriteFailed = zerr.New("failed to write fingerprint")

	// ErrStoreLockFailed is returned when the cross-process lock for a unit cannot be acquired.
	ErrStoreLockFailed = zerr.New("failed to lock fingerprint")

	// ErrConfigReadFailed is returned when the config file cannot be read.
	ErrConfigReadFailed = zerr.New("failed to read config file")

	// ErrConfigParseFailed is returned when the config file cannot be parsed.
	ErrConfigParseFailed = zerr.New("failed to parse config file")

	// ErrConfigInvalid is returned when the config file fails validation.
	ErrConfigInvalid = zerr.New("invalid config file")

	// ErrConfigNotFound is returned when the config file cannot be found.
	ErrConfigNotFound = zerr.New("could not find fresh.yaml")

	// ErrSettingsInvalid is returned when global settings cannot be decoded.
	ErrSettingsInvalid = zerr.New("invalid settings")

	// ErrBuildExecutionFailed is returned when the build execution fails.
	ErrBuildExecutionFailed = zerr.New("build execution failed")

	// ErrDirtyUnits is returned by a check that was asked to fail when a unit is dirty.
	ErrDirtyUnits = zerr.New("units are not fresh")

	// ErrUnitExecutionFailed is returned when a unit's command fails.
	ErrUnitExecutionFailed = zerr.New("unit execution failed")

	// ErrDependencyFailed is returned when a unit is skipped because a dependency failed.
	ErrDependencyFailed = zerr.New("dependency failed")

	// ErrCollectFailed is returned when the inputs of a unit cannot be collected.
	ErrCollectFailed = zerr.New("failed to collect unit inputs")

	// ErrNoBuildEvidence is returned when commit is called without successful build evidence.
	ErrNoBuildEvidence = zerr.New("no successful build evidence")

	// ErrEvidenceMismatch is returned when build evidence does not match the last check of a unit.
	ErrEvidenceMismatch = zerr.New("build evidence does not match checked fingerprint")

	// ErrNotChecked is returned when commit is called for a unit that was never checked.
	ErrNotChecked = zerr.New("unit was not checked before commit")

	// ErrToolchainProbeFailed is returned when the compiler cannot report its version.
	ErrToolchainProbeFailed = zerr.New("failed to probe toolchain")

	// ErrToolchainParseFailed is returned when the compiler version output is not understood.
	ErrToolchainParseFailed = zerr.New("failed to parse toolchain version")

	// ErrDepInfoParseFailed is returned when a dependency-info file is malformed.
	ErrDepInfoParseFailed = zerr.New("failed to parse dep-info")

	// ErrFileOpenFailed is returned when a file cannot be opened.
	ErrFileOpenFailed = zerr.New("failed to open file")

	// ErrFileHashFailed is returned when hashing a file fails.
	ErrFileHashFailed = zerr.New("failed to hash file content")

	// ErrPathStatFailed is returned when stating a path fails.
	ErrPathStatFailed = zerr.New("failed to stat path")

	// ErrInputResolutionFailed is returned when a declared source pattern is malformed.
	ErrInputResolutionFailed = zerr.New("failed to glob path")

	// ErrDigestCacheFailed is returned when the digest cache cannot be opened.
	ErrDigestCacheFailed = zerr.New("failed to open digest cache")

	// ErrMetricsWriteFailed is returned when metrics cannot be written.
	ErrMetricsWriteFailed = zerr.New("failed to write metrics")
)
