//go:build unix

package theme

import (
	"os"

	"golang.org/x/sys/unix"
)

// lock blocks until it holds an exclusive lock on f.
func lock(f *os.File) error {
	return unix.Flock(int(f.Fd()), unix.LOCK_EX)
}

func unlock(f *os.File) {
	unix.Flock(int(f.Fd()), unix.LOCK_UN)
}
