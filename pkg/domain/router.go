package domain

import "context"

// Router is the read-only view of a tree node handed to templates.
type Router interface {
	Name() string
	Type() string
	RouteKey() string
	Config() Config
	IsPathRouter() bool
	// PathLocation is the pathname index this router owns: -1 for the root,
	// parent's PathLocation+1 otherwise.
	PathLocation() int

	// Parent returns nil for the root.
	Parent() Router
	Root() Router
	// Siblings are the other routers of the same type under the same parent.
	Siblings() []Router
	// Neighbors are the routers of other types under the same parent.
	Neighbors() []Router
	ChildTypes() []string
	Children(routerType string) []Router

	// State returns the last published state of this router.
	State() RouterSnapshot

	// Invoke runs another action on this router inside the current cascade.
	Invoke(ctx context.Context, action string, opts ActionOptions, loc Location, actx ActionContext) (Location, error)
}

// RouterInfo is a flat description of a tree node, for inspection tools.
type RouterInfo struct {
	Name         string `json:"name"`
	Type         string `json:"type"`
	Parent       string `json:"parent,omitempty"`
	Depth        int    `json:"depth"`
	PathLocation int    `json:"path_location"`
	Config       Config `json:"config"`
}
