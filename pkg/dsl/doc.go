/*
Package dsl provides a Go DSL for programmatically constructing arbor virtual trees.

It replaces hand-written nested struct literals with a fluent builder, which is
handy for templates generated in code, for unit tests and for examples.

Example usage:

	tree := dsl.New("page").
		Child(
			dsl.New("text").Key("title").Prop("content", "Hello"),
			dsl.Boundary().Key("feed").Child(
				dsl.New("text").Prop("content", "first"),
			),
		).
		Build()

	eng := arbor.New(arbor.WithHost(host))
	_, err := eng.Render(ctx, tree)
*/
package dsl
