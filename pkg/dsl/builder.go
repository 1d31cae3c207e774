package dsl

import (
	"fmt"

	"github.com/aretw0/arbor/pkg/adapters/memory"
	"github.com/aretw0/arbor/pkg/domain"
)

// Builder manages the construction of one declaration tree.
type Builder struct {
	root *NodeBuilder
}

// New creates a builder whose root router is called name.
func New(name string) *Builder {
	return &Builder{
		root: &NodeBuilder{decl: &domain.Declaration{Name: name, Type: domain.TypeRoot}},
	}
}

// Root returns the root router builder.
func (b *Builder) Root() *NodeBuilder {
	return b.root
}

// Build returns the declaration tree. Later builder calls keep mutating it.
func (b *Builder) Build() *domain.Declaration {
	return b.root.decl
}

// Loader compiles the tree into an in-memory declaration loader.
func (b *Builder) Loader() (*memory.Loader, error) {
	loader, err := memory.NewLoader(b.Build())
	if err != nil {
		return nil, fmt.Errorf("failed to build memory loader: %w", err)
	}
	return loader, nil
}
