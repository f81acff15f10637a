package fs

import (
	"os"
	"path/filepath"
	"slices"
	"strings"

	"go.trai.ch/fresh/internal/core/domain"
	"go.trai.ch/fresh/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.InputResolver = (*Resolver)(nil)

// Resolver implements the InputResolver interface using filepath.Glob.
// Matched directories are expanded to every file below them.
type Resolver struct {
	walker *Walker
}

// NewResolver creates a new Resolver.
func NewResolver(walker *Walker) *Resolver {
	return &Resolver{walker: walker}
}

// ResolveInputs resolves the given input patterns to a sorted list of absolute file paths.
// A glob without matches contributes nothing, while a literal path that does
// not exist is returned unchanged.
func (r *Resolver) ResolveInputs(inputs []string, root string) ([]string, error) {
	uniquePaths := make(map[string]bool)

	for _, input := range inputs {
		path := input
		if !filepath.IsAbs(path) {
			path = filepath.Join(root, filepath.FromSlash(input))
		}

		if !isGlob(input) {
			r.addPath(uniquePaths, path)
			continue
		}

		matches, err := filepath.Glob(path)
		if err != nil {
			return nil, zerr.With(zerr.Wrap(err, domain.ErrInputResolutionFailed.Error()), "path", path)
		}
		for _, match := range matches {
			r.addPath(uniquePaths, match)
		}
	}

	result := make([]string, 0, len(uniquePaths))
	for path := range uniquePaths {
		result = append(result, path)
	}
	slices.Sort(result)

	return result, nil
}

func (r *Resolver) addPath(paths map[string]bool, path string) {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		paths[filepath.Clean(path)] = true
		return
	}
	for file := range r.walker.WalkFiles(path, nil) {
		paths[file] = true
	}
}

func isGlob(pattern string) bool {
	return strings.ContainsAny(pattern, "*?[")
}
