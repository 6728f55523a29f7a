//go:build unix

package filelock

import (
	"os"

	"golang.org/x/sys/unix"
)

func lock(path string) (func() error, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, err
	}

	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX); err != nil {
		_ = f.Close()
		return nil, err
	}

	return func() error {
		// Closing the descriptor releases the lock.
		unlockErr := unix.Flock(int(f.Fd()), unix.LOCK_UN)
		if closeErr := f.Close(); closeErr != nil {
			return closeErr
		}
		return unlockErr
	}, nil
}
