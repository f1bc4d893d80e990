/*
Package domain contains the core models of the arbor render-update pipeline.

It defines the virtual tree handed over by the template layer, the mutations the
diff engine emits against tree-absolute paths, the boundary-relative patches the
encoder produces, and the batches the scheduler flushes to the host. The package
is kept pure and free of I/O, following Hexagonal Architecture principles.

# Key Entities

  - Node: a virtual tree element (kind, key, props, children).
  - Path: a sequence of child-list steps from the tree root.
  - Mutation: a single diff result against a tree-absolute path.
  - Boundary: an update scope owning exactly one host call per pass.
  - Patch: a mutation rewritten relative to its owning boundary.
  - HostCall: the ordered patch sequence delivered to one boundary.
*/
package domain
