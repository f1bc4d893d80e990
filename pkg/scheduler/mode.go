package scheduler

import "fmt"

// FlushMode decides when the host calls of a pass are issued.
type FlushMode string

const (
	// FlushSync flushes at the end of every render.
	FlushSync FlushMode = "sync"
	// FlushDeferred accumulates renders in a pass until it is committed.
	FlushDeferred FlushMode = "deferred"
)

// ParseFlushMode resolves a mode name. The empty string is FlushSync.
func ParseFlushMode(s string) (FlushMode, error) {
	switch FlushMode(s) {
	case "", FlushSync:
		return FlushSync, nil
	case FlushDeferred:
		return FlushDeferred, nil
	}
	return "", fmt.Errorf("unknown flush mode %q", s)
}
