package domain

import (
	"errors"
	"fmt"
)

// ErrKeyCollision is returned when two siblings share an author key.
var ErrKeyCollision = errors.New("key collision")

// ErrHostCall is returned when the host rejects or fails an update call.
var ErrHostCall = errors.New("host update call failed")

// ErrStaleBoundary marks a patch addressed to a boundary that no longer exists.
var ErrStaleBoundary = errors.New("stale boundary reference")

// ErrPassClosed is returned when a committed pass is used again.
var ErrPassClosed = errors.New("pass already committed")

// ErrPageNotFound is returned when a page cannot be found in a store.
var ErrPageNotFound = errors.New("page not found")

// KeyCollisionError reports duplicate author keys in one sibling list.
// Path addresses the parent whose child list is ambiguous.
type KeyCollisionError struct {
	BoundaryID BoundaryID
	Path       Path
	Key        string
	First      int
	Second     int
}

func (e *KeyCollisionError) Error() string {
	return fmt.Sprintf("key collision: key %q used by children %d and %d of %q (boundary %d)",
		e.Key, e.First, e.Second, e.Path.String(), e.BoundaryID)
}

func (e *KeyCollisionError) Unwrap() error {
	return ErrKeyCollision
}

// HostCallError wraps a failed host call with the boundary it targeted.
// The batch is not retried; callers decide whether to remount the boundary.
type HostCallError struct {
	BoundaryID BoundaryID
	Root       Path
	Err        error
}

func (e *HostCallError) Error() string {
	return fmt.Sprintf("host update call for boundary %d (root %q) failed: %v", e.BoundaryID, e.Root.String(), e.Err)
}

func (e *HostCallError) Unwrap() []error {
	return []error{ErrHostCall, e.Err}
}
