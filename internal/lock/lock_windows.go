//go:build windows

package lock

import (
	"fmt"
	"os"
)

// LockFile attempts to acquire an exclusive lock guarding the file at path.
//
// On Windows, this is implemented by atomically creating a file named
// path+".lock". If that file already exists, another process is assumed to
// be writing the guarded file.
//
// The returned file handle must be kept open for the duration of the lock.
func LockFile(path string) (*os.File, error) {
	f, err := os.OpenFile(path+Suffix, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("%s is locked by another process: %w", path, ErrLocked)
	}

	return f, nil
}

// UnlockFile releases a lock acquired via LockFile.
//
// On Windows, this removes the lock file from disk. UnlockFile should
// be called exactly once for each successful LockFile call.
func UnlockFile(f *os.File) {
	name := f.Name()
	f.Close()
	os.Remove(name)
}
