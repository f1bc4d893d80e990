// Package boundary assigns every mounted node to an update boundary.
//
// A boundary is opened by the tree root (the page), by an explicit marker node
// of kind domain.KindBoundary, or implicitly when a node would sit deeper than
// the configured threshold below its enclosing boundary root. Assignment is
// computed once when a node mounts and kept in a persistent instance tree, so a
// node keeps its boundary for its whole lifetime.
package boundary
