package fs

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"

	"go.trai.ch/fresh/internal/core/domain"
	"go.trai.ch/fresh/internal/core/ports"
	"go.trai.ch/zerr"
)

var (
	_ ports.OutputVerifier = (*Verifier)(nil)
	_ ports.SourceVerifier = (*ManifestVerifier)(nil)
)

// Verifier provides functionality to verify the existence of files.
type Verifier struct{}

// NewVerifier creates a new Verifier.
func NewVerifier() *Verifier {
	return &Verifier{}
}

// MissingOutput returns the first output that does not exist below root.
func (v *Verifier) MissingOutput(root string, outputs []string) (string, error) {
	for _, output := range outputs {
		path := filepath.Join(root, filepath.FromSlash(output))
		if _, err := os.Stat(path); err != nil {
			if os.IsNotExist(err) {
				return output, nil
			}
			return "", zerr.With(zerr.Wrap(err, "failed to stat output"), "path", path)
		}
	}
	return "", nil
}

// checksumManifest is the checksum file shipped with a vendored package.
type checksumManifest struct {
	Files   map[string]string `json:"files"`
	Package string            `json:"package"`
}

// ManifestVerifier checks vendored packages against their checksum manifest.
type ManifestVerifier struct{}

// NewManifestVerifier creates a new ManifestVerifier.
func NewManifestVerifier() *ManifestVerifier {
	return &ManifestVerifier{}
}

// VerifyPackage recomputes the sha256 of every file listed in the manifest at
// the package root. The first mismatch is reported with both checksums.
func (v *ManifestVerifier) VerifyPackage(root string) error {
	manifestPath := filepath.Join(root, domain.ChecksumManifestName)
	data, err := os.ReadFile(manifestPath) //nolint:gosec // Path is derived from the package root
	if err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrChecksumManifestInvalid.Error()), "path", manifestPath)
	}

	var manifest checksumManifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrChecksumManifestInvalid.Error()), "path", manifestPath)
	}

	files := make([]string, 0, len(manifest.Files))
	for file := range manifest.Files {
		files = append(files, file)
	}
	slices.Sort(files)

	for _, file := range files {
		expected := manifest.Files[file]
		actual, err := sha256File(filepath.Join(root, filepath.FromSlash(file)))
		if err != nil {
			actual = "<unreadable>"
		}
		if actual != expected {
			return checksumMismatch(file, expected, actual)
		}
	}
	return nil
}

// checksumMismatch keeps domain.ErrChecksumMismatch as the cause so callers can classify it.
func checksumMismatch(file, expected, actual string) error {
	msg := fmt.Sprintf("the listed checksum of `%s` has changed:\nexpected: %s\nactual:   %s\n\n"+
		"directory sources are not intended to be edited, if modifications are "+
		"required then it is recommended that `[patch]` is used with a forked copy of the source",
		file, expected, actual)
	return zerr.With(zerr.Wrap(domain.ErrChecksumMismatch, msg), "file", file)
}

func sha256File(path string) (string, error) {
	f, err := os.Open(path) //nolint:gosec // Path is listed in the package manifest
	if err != nil {
		return "", err
	}
	defer f.Close() //nolint:errcheck // Best effort close in defer

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
