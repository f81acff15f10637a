//go:build unix

package cas

import (
	"os"

	"go.trai.ch/fresh/internal/core/domain"
	"go.trai.ch/zerr"
	"golang.org/x/sys/unix"
)

// lockFile takes an advisory flock on path, creating it if needed, and
// returns the function releasing it. Concurrent fresh processes sharing a
// build dir serialize commits of the same unit through it.
func lockFile(path string, exclusive bool) (func(), error) {
	//nolint:gosec // Lock file next to a record derived from the unit key
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, domain.PrivateFilePerm)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrStoreLockFailed.Error()), "path", path)
	}

	how := unix.LOCK_SH
	if exclusive {
		how = unix.LOCK_EX
	}
	for {
		err = unix.Flock(int(f.Fd()), how)
		if err != unix.EINTR {
			break
		}
	}
	if err != nil {
		_ = f.Close()
		return nil, zerr.With(zerr.Wrap(err, domain.ErrStoreLockFailed.Error()), "path", path)
	}

	return func() {
		_ = unix.Flock(int(f.Fd()), unix.LOCK_UN)
		_ = f.Close()
	}, nil
}
