package domain

import "path/filepath"

const (
	// FreshDirName is the name of the internal workspace directory.
	FreshDirName = ".fresh"

	// DefaultBuildDirName is the build output directory used when none is configured.
	DefaultBuildDirName = "target"

	// FingerprintDirName is the directory under the build dir holding stored fingerprints.
	FingerprintDirName = ".fingerprint"

	// CacheDirName is the name of the cache directory.
	CacheDirName = "cache"

	// DigestCacheDirName is the name of the content digest cache directory.
	DigestCacheDirName = "digests"

	// ConfigFileName is the name of the unit graph configuration file.
	ConfigFileName = "fresh.yaml"

	// SettingsFileName is the base name of the optional settings file inside .fresh.
	SettingsFileName = "config"

	// ChecksumManifestName is the checksum manifest file of a vendored package.
	ChecksumManifestName = ".cargo-checksum.json"

	// DirPerm is the default permission for directories (rwxr-x---).
	DirPerm = 0o750

	// FilePerm is the default permission for files (rw-r--r--).
	FilePerm = 0o644

	// PrivateFilePerm is the default permission for private files (rw-------).
	PrivateFilePerm = 0o600
)

// DefaultFreshPath returns the default root directory for fresh metadata.
func DefaultFreshPath() string {
	return FreshDirName
}

// DefaultDigestCachePath returns the default path for the digest cache.
// It joins .fresh, cache, and digests.
func DefaultDigestCachePath() string {
	return filepath.Join(FreshDirName, CacheDirName, DigestCacheDirName)
}

// FingerprintRoot returns the fingerprint directory inside a build dir.
func FingerprintRoot(buildDir string) string {
	return filepath.Join(buildDir, FingerprintDirName)
}
