// Package fs implements the LDAP-backed filesystem: the mount registry,
// path resolution, entry fetching, attribute rendering and the FUSE node
// set that dispatches filesystem calls over them.
//
// This file contains the error taxonomy and its single translation point
// into FUSE errno values.
package fs

import (
	"errors"
	"fmt"
	"syscall"

	"ldapfs/internal/logging"
)

var (
	errLogger = logging.GetLogger().WithPrefix("error")

	// ErrNotFound indicates a path segment, attribute or entry is absent
	ErrNotFound = errors.New("path not found")

	// ErrAmbiguousEntry indicates sibling entries share a relative name,
	// so the path cannot be resolved deterministically
	ErrAmbiguousEntry = errors.New("ambiguous entry name")

	// ErrUpstream indicates a directory protocol failure: network, bind
	// expiry or timeout
	ErrUpstream = errors.New("upstream directory failure")

	// ErrReadOnly indicates an attempt to modify the read-only filesystem
	ErrReadOnly = errors.New("filesystem is read-only")

	// ErrDuplicateMount indicates two mount roots share a visible name
	ErrDuplicateMount = errors.New("duplicate mount name")
)

// Error wraps filesystem errors with the operation and affected path to
// provide more detailed error information.
type Error struct {
	Op   string // Operation that failed (e.g., "lookup", "readdir")
	Path string // Affected path
	Err  error  // Underlying error
}

// Error implements the error interface, providing a formatted error message
func (e *Error) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("operation %s failed: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("operation %s on %s failed: %v", e.Op, e.Path, e.Err)
}

// Unwrap implements error unwrapping for the errors.Is/As functions
func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates a new Error with the given operation, path, and
// underlying error
func NewError(op string, path string, err error) *Error {
	return &Error{
		Op:   op,
		Path: path,
		Err:  err,
	}
}

// ToFuseError translates a taxonomy error into the errno reported to the
// kernel. This is the only place internal errors become FUSE-visible, one
// errno per taxonomy kind.
func ToFuseError(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, ErrNotFound):
		return syscall.ENOENT
	case errors.Is(err, ErrReadOnly):
		return syscall.EROFS
	case errors.Is(err, ErrAmbiguousEntry):
		// Never silently pick a sibling; surface as an I/O anomaly.
		return syscall.EIO
	case errors.Is(err, ErrUpstream):
		return syscall.EIO
	default:
		errLogger.Debug("Unclassified error, returning EIO: %v", err)
		return syscall.EIO
	}
}

// Common operation names for consistent logging and error reporting
const (
	OpResolve = "resolve" // Resolving a path to a directory entry
	OpLookup  = "lookup"  // Looking up a name in a directory
	OpReadDir = "readdir" // Reading directory contents
	OpOpen    = "open"    // Opening a file
	OpRead    = "read"    // Reading from a file
	OpGetattr = "getattr" // Getting file attributes
	OpFetch   = "fetch"   // Fetching an entry from the directory
	OpSearch  = "search"  // Searching an entry's children
	OpMutate  = "mutate"  // Any rejected mutation
)
