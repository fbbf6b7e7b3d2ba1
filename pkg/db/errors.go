package db

import "errors"

// Error taxonomy shared by repositories and services. Callers test with
// errors.Is after unwrapping; the boundary layer maps these to
// 404/409/400 equivalents.
var (
	// ErrNotFound means a referenced tag, member, or assignment does not exist
	ErrNotFound = errors.New("not found")

	// ErrConflict means the operation would violate a uniqueness or
	// state-machine invariant (double accept, second live assignment,
	// transfer from a non-active state)
	ErrConflict = errors.New("conflict")

	// ErrValidation means the input was malformed before any state was touched
	ErrValidation = errors.New("validation failed")
)
