// Package lock guards files that several processes may try to rewrite at
// the same time.
package lock

import "errors"

// Suffix is appended to the guarded path to name its lock file.
const Suffix = ".lock"

var ErrLocked = errors.New("file is locked")
