package dsl

import "github.com/aretw0/arbor/pkg/domain"

// NodeBuilder provides a fluent API for configuring a router and adding
// its children.
type NodeBuilder struct {
	decl   *domain.Declaration
	parent *NodeBuilder
}

// Declaration returns the declaration being built.
func (n *NodeBuilder) Declaration() *domain.Declaration {
	return n.decl
}

// Child adds a router of type typ under n and returns its builder.
func (n *NodeBuilder) Child(typ, name string) *NodeBuilder {
	if n.decl.Children == nil {
		n.decl.Children = make(map[string][]*domain.Declaration)
	}
	if _, seen := n.decl.Children[typ]; !seen {
		n.decl.ChildOrder = append(n.decl.ChildOrder, typ)
	}
	child := &domain.Declaration{Name: name, Type: typ}
	n.decl.Children[typ] = append(n.decl.Children[typ], child)
	return &NodeBuilder{decl: child, parent: n}
}

// Scene adds a mutually exclusive scene router.
func (n *NodeBuilder) Scene(name string) *NodeBuilder {
	return n.Child(domain.TypeScene, name)
}

// Stack adds an ordered stack router.
func (n *NodeBuilder) Stack(name string) *NodeBuilder {
	return n.Child(domain.TypeStack, name)
}

// Feature adds an independent flag router.
func (n *NodeBuilder) Feature(name string) *NodeBuilder {
	return n.Child(domain.TypeFeature, name)
}

// Data adds a router carrying a value.
func (n *NodeBuilder) Data(name string) *NodeBuilder {
	return n.Child(domain.TypeData, name)
}

// Up returns the parent builder (n itself for the root), for declaring
// siblings in one chain.
func (n *NodeBuilder) Up() *NodeBuilder {
	if n.parent == nil {
		return n
	}
	return n.parent
}

// RouteKey overrides the key used in the location.
func (n *NodeBuilder) RouteKey(key string) *NodeBuilder {
	n.decl.RouteKey = key
	return n
}

// PathRouter sets whether the router owns a path segment.
func (n *NodeBuilder) PathRouter(enabled bool) *NodeBuilder {
	n.decl.IsPathRouter = domain.Bool(enabled)
	return n
}

// InverselyActivate sets whether showing the router shows its parent.
func (n *NodeBuilder) InverselyActivate(enabled bool) *NodeBuilder {
	n.decl.ShouldInverselyActivate = domain.Bool(enabled)
	return n
}

// DisableCaching sets whether hiding the router remembers its value.
func (n *NodeBuilder) DisableCaching(disabled bool) *NodeBuilder {
	n.decl.DisableCaching = domain.Bool(disabled)
	return n
}

// Rehydrate sets whether children are restored from cache when the
// router is shown.
func (n *NodeBuilder) Rehydrate(enabled bool) *NodeBuilder {
	n.decl.RehydrateChildRoutersState = domain.Bool(enabled)
	return n
}

// Default sets the actions run when the parent becomes visible and the
// router has nothing cached.
func (n *NodeBuilder) Default(actions ...string) *NodeBuilder {
	n.decl.DefaultAction = append([]string(nil), actions...)
	return n
}
