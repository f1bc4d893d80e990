/*
Package arbor is a render-update pipeline for hosts that only accept
path-addressed property patches against a page-level object graph.

Given the previous and the next version of a virtual tree, arbor computes a
minimal list of mutations, assigns every node to an update boundary, rewrites
each mutation into a patch relative to its boundary and delivers exactly one
host update call per boundary per reconciliation pass.

# Concept

The tree is split into boundaries. The page is always one; authors open more
by wrapping a subtree in a node of kind "boundary", and the engine opens one
implicitly wherever a node would sit more than T levels (default 16) below its
enclosing boundary root. Patch paths and payloads are therefore bounded by the
local depth within a boundary, never by the absolute depth of the node.

# Key Features

  - Keyed list diffing: removing a keyed child costs one patch, whatever its siblings.
  - Shallow prop comparison: composite values are compared by identity.
  - Prop schemas: props a node kind does not declare never reach the host.
  - Stable boundaries: a node keeps the boundary it was mounted into.
  - Batching: sync or deferred flushing, one call per boundary, stale patches dropped.

# Usage

	eng := arbor.New(arbor.WithHost(host), arbor.WithThreshold(12))

	// The first render mounts the tree.
	if _, err := eng.Render(ctx, tree); err != nil {
		log.Fatal(err)
	}

	// Every later render delivers only what changed.
	report, err := eng.Render(ctx, next)
	var herr *domain.HostCallError
	if errors.As(err, &herr) {
		_, err = eng.Remount(ctx, herr.BoundaryID)
	}

Deferred mode coalesces several renders into one pass:

	eng := arbor.New(arbor.WithFlushMode(scheduler.FlushDeferred))
	eng.Render(ctx, a)
	eng.Render(ctx, b)
	report, err := eng.Flush(ctx)
*/
package arbor
