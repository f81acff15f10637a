package ports

// OutputVerifier checks that a unit's declared artifacts exist.
//
//go:generate go run go.uber.org/mock/mockgen -destination=mocks/mock_verifier.go -package=mocks -source=verifier.go
type OutputVerifier interface {
	// MissingOutput returns the first output below root that does not exist,
	// or the empty string if all are present.
	MissingOutput(root string, outputs []string) (string, error)
}

// SourceVerifier validates a vendored package against its checksum manifest.
type SourceVerifier interface {
	// VerifyPackage returns an error wrapping domain.ErrChecksumMismatch when a
	// listed file no longer matches its recorded checksum.
	VerifyPackage(root string) error
}
