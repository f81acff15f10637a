//go:build !unix

package cas

// lockFile is a no-op where flock is unavailable; the in-process lock still applies.
func lockFile(string, bool) (func(), error) {
	return func() {}, nil
}
