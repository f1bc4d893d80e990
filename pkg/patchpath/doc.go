// Package patchpath rewrites tree-absolute mutations into patches addressed
// relative to the innermost boundary that owns their target.
//
// A relative path lists the child steps below the boundary root, e.g.
// "children[1].children[0]", optionally followed by "props.<name>" for prop
// patches. A prop patch on the boundary root itself is just "props.<name>".
package patchpath
