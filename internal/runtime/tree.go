package runtime

import (
	"context"
	"fmt"
	"slices"

	"github.com/aretw0/arbor/pkg/domain"
)

// Node is a router in the tree. The tree owns nodes top-down; parent is a
// plain back reference.
type Node struct {
	name       string
	typ        string
	config     domain.Config
	parent     *Node
	children   map[string][]*Node
	childOrder []string
	engine     *Engine
}

var _ domain.Router = (*Node)(nil)

func (n *Node) Name() string          { return n.name }
func (n *Node) Type() string          { return n.typ }
func (n *Node) RouteKey() string      { return n.config.RouteKey }
func (n *Node) Config() domain.Config { return n.config }
func (n *Node) IsPathRouter() bool    { return n.config.IsPathRouter }

func (n *Node) PathLocation() int {
	if n.parent == nil {
		return -1
	}
	return n.parent.PathLocation() + 1
}

func (n *Node) Parent() domain.Router {
	if n.parent == nil {
		return nil
	}
	return n.parent
}

func (n *Node) Root() domain.Router {
	cur := n
	for cur.parent != nil {
		cur = cur.parent
	}
	return cur
}

func (n *Node) Siblings() []domain.Router {
	if n.parent == nil {
		return nil
	}
	var out []domain.Router
	for _, s := range n.parent.children[n.typ] {
		if s != n {
			out = append(out, s)
		}
	}
	return out
}

func (n *Node) Neighbors() []domain.Router {
	if n.parent == nil {
		return nil
	}
	var out []domain.Router
	for _, typ := range n.parent.childOrder {
		if typ == n.typ {
			continue
		}
		for _, c := range n.parent.children[typ] {
			out = append(out, c)
		}
	}
	return out
}

func (n *Node) ChildTypes() []string {
	return slices.Clone(n.childOrder)
}

func (n *Node) Children(routerType string) []domain.Router {
	group := n.children[routerType]
	out := make([]domain.Router, 0, len(group))
	for _, c := range group {
		out = append(out, c)
	}
	return out
}

func (n *Node) State() domain.RouterSnapshot {
	return n.engine.snapshot(n.name)
}

func (n *Node) Invoke(ctx context.Context, action string, opts domain.ActionOptions, loc domain.Location, actx domain.ActionContext) (domain.Location, error) {
	return n.engine.execute(ctx, n, action, opts, loc, actx)
}

// ParentName returns the parent's name, or "" for the root.
func (n *Node) ParentName() string {
	if n.parent == nil {
		return ""
	}
	return n.parent.name
}

// Walk visits n and its descendants in pre-order: child-type groups in
// declaration order, each group in insertion order.
func (n *Node) Walk(fn func(*Node)) {
	fn(n)
	for _, typ := range n.childOrder {
		for _, c := range n.children[typ] {
			c.Walk(fn)
		}
	}
}

// AddRouters inserts decl and its whole subtree. A declaration without a
// parent becomes the root (type "root" unless set). Either every router of
// the subtree is inserted or none is.
func (e *Engine) AddRouters(decl *domain.Declaration) ([]string, error) {
	if decl == nil {
		return nil, &domain.ConfigError{Err: domain.ErrInvalidDeclaration, Detail: "declaration is nil"}
	}

	typ := decl.Type
	var parent *Node
	if decl.ParentName != "" {
		p, ok := e.nodes[decl.ParentName]
		if !ok {
			return nil, &domain.ConfigError{Router: decl.Name, Err: domain.ErrParentNotFound, Detail: decl.ParentName}
		}
		parent = p
	} else if typ == "" {
		typ = domain.TypeRoot
	}

	var added []string
	if err := e.addTree(decl, parent, typ, &added); err != nil {
		for i := len(added) - 1; i >= 0; i-- {
			e.detach(e.nodes[added[i]])
		}
		return nil, err
	}
	return added, nil
}

func (e *Engine) addTree(decl *domain.Declaration, parent *Node, typ string, added *[]string) error {
	n, err := e.insert(decl, parent, typ)
	if err != nil {
		return err
	}
	*added = append(*added, n.name)

	for _, childType := range decl.ChildTypes() {
		for _, child := range decl.Children[childType] {
			if child == nil {
				continue
			}
			if child.Type != "" && child.Type != childType {
				return &domain.ConfigError{
					Router: child.Name,
					Err:    domain.ErrInvalidDeclaration,
					Detail: fmt.Sprintf("declared type %q under %q children", child.Type, childType),
				}
			}
			if child.ParentName != "" && child.ParentName != n.name {
				return &domain.ConfigError{
					Router: child.Name,
					Err:    domain.ErrInvalidDeclaration,
					Detail: fmt.Sprintf("parent %q does not match enclosing router %q", child.ParentName, n.name),
				}
			}
			if err := e.addTree(child, n, childType, added); err != nil {
				return err
			}
		}
	}
	return nil
}

// AddRouter inserts a single router under decl.ParentName, ignoring children.
func (e *Engine) AddRouter(decl *domain.Declaration) (*Node, error) {
	if decl == nil {
		return nil, &domain.ConfigError{Err: domain.ErrInvalidDeclaration, Detail: "declaration is nil"}
	}
	var parent *Node
	typ := decl.Type
	if decl.ParentName != "" {
		p, ok := e.nodes[decl.ParentName]
		if !ok {
			return nil, &domain.ConfigError{Router: decl.Name, Err: domain.ErrParentNotFound, Detail: decl.ParentName}
		}
		parent = p
		if typ == "" {
			return nil, &domain.ConfigError{Router: decl.Name, Err: domain.ErrInvalidDeclaration, Detail: "type is required"}
		}
	} else if typ == "" {
		typ = domain.TypeRoot
	}
	return e.insert(decl, parent, typ)
}

// insert validates and attaches one router. Nothing is mutated on error.
func (e *Engine) insert(decl *domain.Declaration, parent *Node, typ string) (*Node, error) {
	if decl.Name == "" {
		return nil, &domain.ConfigError{Err: domain.ErrInvalidDeclaration, Detail: "name is required"}
	}
	if _, exists := e.nodes[decl.Name]; exists {
		return nil, &domain.ConfigError{Router: decl.Name, Err: domain.ErrDuplicateName}
	}
	tmpl, ok := e.templates[typ]
	if !ok {
		return nil, &domain.ConfigError{Router: decl.Name, Err: domain.ErrUnknownRouterType, Detail: typ}
	}
	if parent == nil && e.root != nil {
		return nil, &domain.ConfigError{Router: decl.Name, Err: domain.ErrRootExists, Detail: e.root.name}
	}

	cfg, err := resolveConfig(decl, typ, tmpl, parent)
	if err != nil {
		return nil, err
	}
	if owner, taken := e.routeKeys[cfg.RouteKey]; taken {
		return nil, &domain.ConfigError{
			Router: decl.Name,
			Err:    domain.ErrDuplicateRouteKey,
			Detail: fmt.Sprintf("%q is used by %q", cfg.RouteKey, owner),
		}
	}
	if cfg.IsPathRouter && parent != nil {
		for _, typ2 := range parent.childOrder {
			if typ2 == typ {
				continue
			}
			for _, neighbor := range parent.children[typ2] {
				if neighbor.config.IsPathRouter {
					return nil, &domain.ConfigError{
						Router: decl.Name,
						Err:    domain.ErrPathRouterConflict,
						Detail: fmt.Sprintf("neighbor %q (type %q)", neighbor.name, typ2),
					}
				}
			}
		}
	}

	n := &Node{
		name:     decl.Name,
		typ:      typ,
		config:   cfg,
		parent:   parent,
		children: make(map[string][]*Node),
		engine:   e,
	}
	if parent == nil {
		e.root = n
	} else {
		if _, seen := parent.children[typ]; !seen {
			parent.childOrder = append(parent.childOrder, typ)
		}
		parent.children[typ] = append(parent.children[typ], n)
	}
	e.nodes[n.name] = n
	e.routeKeys[cfg.RouteKey] = n.name

	e.logger.Debug("router added", "router", n.name, "type", typ, "route_key", cfg.RouteKey, "path_router", cfg.IsPathRouter)
	return n, nil
}

// RemoveRouter detaches the named router and its subtree, clearing their
// cache slots. It returns the removed names, children before parents.
func (e *Engine) RemoveRouter(name string) ([]string, error) {
	n, ok := e.nodes[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrRouterNotFound, name)
	}

	var removed []string
	var collect func(*Node)
	collect = func(cur *Node) {
		for _, typ := range cur.childOrder {
			for _, c := range cur.children[typ] {
				collect(c)
			}
		}
		removed = append(removed, cur.name)
	}
	collect(n)

	for _, rn := range removed {
		e.detach(e.nodes[rn])
	}
	e.logger.Debug("routers removed", "routers", removed)
	return removed, nil
}

// detach unlinks one router from its parent and the indexes.
func (e *Engine) detach(n *Node) {
	if n == nil {
		return
	}
	if p := n.parent; p != nil {
		group := slices.DeleteFunc(p.children[n.typ], func(c *Node) bool { return c == n })
		if len(group) == 0 {
			delete(p.children, n.typ)
			p.childOrder = slices.DeleteFunc(p.childOrder, func(t string) bool { return t == n.typ })
		} else {
			p.children[n.typ] = group
		}
	}
	if e.root == n {
		e.root = nil
	}
	delete(e.nodes, n.name)
	if e.routeKeys[n.config.RouteKey] == n.name {
		delete(e.routeKeys, n.config.RouteKey)
	}
	e.cache.Remove(n.name)
}

// Inspect lists the tree in pre-order.
func (e *Engine) Inspect() []domain.RouterInfo {
	if e.root == nil {
		return nil
	}
	infos := make([]domain.RouterInfo, 0, len(e.nodes))
	e.root.Walk(func(n *Node) {
		depth := 0
		for p := n.parent; p != nil; p = p.parent {
			depth++
		}
		infos = append(infos, domain.RouterInfo{
			Name:         n.name,
			Type:         n.typ,
			Parent:       n.ParentName(),
			Depth:        depth,
			PathLocation: n.PathLocation(),
			Config:       n.config,
		})
	})
	return infos
}
