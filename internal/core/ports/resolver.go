package ports

import "iter"

// InputResolver defines the interface for resolving input files.
//
//go:generate go run go.uber.org/mock/mockgen -destination=mocks/mock_resolver.go -package=mocks -source=resolver.go
type InputResolver interface {
	// ResolveInputs resolves the given input patterns to a sorted list of absolute file paths.
	// Literal paths that do not exist are returned as is so that they can be observed as missing.
	ResolveInputs(inputs []string, root string) ([]string, error)
}

// SourceWalker enumerates the files below a directory.
type SourceWalker interface {
	// WalkFiles yields every regular file under root, skipping VCS metadata and
	// any directory or file whose name matches one of ignores.
	WalkFiles(root string, ignores []string) iter.Seq[string]
}
