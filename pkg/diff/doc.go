/*
Package diff computes the mutations that turn a previous virtual tree into the
next one.

The engine walks both trees paired by identity (author key, or position when no
key is given) and emits, for every node, its prop changes first, then the
structural edits of its child list, then the results of recursing into the
matched children. Mutation paths are valid when the list is applied in order.

Props are compared shallowly: primitives by equality, composites by identity.
Authors are expected to keep unchanged composite values reference-stable; a
freshly built slice with identical contents is reported as changed.
*/
package diff
