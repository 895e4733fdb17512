package repo

import (
	"errors"
	"fmt"
)

// Error taxonomy of the storage core. These classify outcomes for the caller;
// the core itself never retries and never logs. Underlying store failures are
// wrapped and propagate untouched.
var (
	// ErrNotFound means no object exists at the path.
	ErrNotFound = errors.New("not found")

	// ErrNoParent is returned when asking for the parent of the root.
	ErrNoParent = errors.New("root has no parent")

	// ErrIsDir means a file operation was invoked on a directory.
	ErrIsDir = errors.New("is a directory")

	// ErrIsFile means a directory operation was invoked on a file.
	ErrIsFile = errors.New("is a file")

	// ErrCannotCreate means a write is blocked by an ancestor that is a file.
	ErrCannotCreate = errors.New("cannot create file at that location")

	// ErrTypeConflict is returned when resolution passes through a non-final
	// segment that is a file. It wraps ErrNotFound: nothing exists at the
	// path itself, so lookups treat it as absence, but callers that care can
	// still tell the two apart.
	ErrTypeConflict = fmt.Errorf("path passes through a file: %w", ErrNotFound)
)
