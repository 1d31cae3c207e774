/*
Package dsl provides a fluent Go builder for router declaration trees.

It produces the same domain.Declaration values the file loaders return, so
trees can be declared in code for tests, examples and generated UIs.

Example usage:

	b := dsl.New("app")

	b.Root().Scene("home").Default(domain.ActionShow).
		Feature("menu")
	b.Root().Scene("settings").
		Stack("dialog")
	b.Root().Data("user").PathRouter(false)

	decl := b.Build()
	m, err := arbor.New(decl)
*/
package dsl
