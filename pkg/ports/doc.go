/*
Package ports defines the driven ports (interfaces) of the arbor pipeline.

These interfaces decouple the reconciler from the host platform and from the
storage backends that keep committed page snapshots.

# Key Interfaces

  - Host: applies one boundary's ordered patches (a host update call).
  - SnapshotStore: persists the committed tree of every page.
  - DistributedLocker: serializes passes of one page across replicas.
  - PageService: the page-level surface consumed by the HTTP and MCP adapters.
*/
package ports
