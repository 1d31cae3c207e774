package domain

// Declaration is the user-authored description of a router and its subtree.
// Optional flags are pointers so "not set" can fall back to template defaults.
type Declaration struct {
	Name                       string                    `json:"name" yaml:"name" toml:"name" mapstructure:"name"`
	Type                       string                    `json:"type,omitempty" yaml:"type,omitempty" toml:"type,omitempty" mapstructure:"type"`
	ParentName                 string                    `json:"parent,omitempty" yaml:"parent,omitempty" toml:"parent,omitempty" mapstructure:"parent"`
	RouteKey                   string                    `json:"route_key,omitempty" yaml:"route_key,omitempty" toml:"route_key,omitempty" mapstructure:"route_key"`
	IsPathRouter               *bool                     `json:"is_path_router,omitempty" yaml:"is_path_router,omitempty" toml:"is_path_router,omitempty" mapstructure:"is_path_router"`
	ShouldInverselyActivate    *bool                     `json:"should_inversely_activate,omitempty" yaml:"should_inversely_activate,omitempty" toml:"should_inversely_activate,omitempty" mapstructure:"should_inversely_activate"`
	DisableCaching             *bool                     `json:"disable_caching,omitempty" yaml:"disable_caching,omitempty" toml:"disable_caching,omitempty" mapstructure:"disable_caching"`
	RehydrateChildRoutersState *bool                     `json:"rehydrate_child_routers_state,omitempty" yaml:"rehydrate_child_routers_state,omitempty" toml:"rehydrate_child_routers_state,omitempty" mapstructure:"rehydrate_child_routers_state"`
	DefaultAction              []string                  `json:"default_action,omitempty" yaml:"default_action,omitempty" toml:"default_action,omitempty" mapstructure:"default_action"`
	Children                   map[string][]*Declaration `json:"children,omitempty" yaml:"children,omitempty" toml:"children,omitempty" mapstructure:"children"`

	// ChildOrder fixes the order of child-type groups. Maps lose declaration
	// order, so loaders and builders record it here; types missing from it are
	// appended alphabetically.
	ChildOrder []string `json:"child_order,omitempty" yaml:"child_order,omitempty" toml:"child_order,omitempty" mapstructure:"child_order"`
}

// Bool returns a pointer to v, for filling optional declaration flags.
func Bool(v bool) *bool { return &v }

// Walk visits d and every descendant in pre-order, passing the parent
// declaration (nil for d itself) and the child type it was declared under.
func (d *Declaration) Walk(fn func(parent, decl *Declaration, childType string) error) error {
	return d.walk(nil, d.Type, fn)
}

func (d *Declaration) walk(parent *Declaration, childType string, fn func(parent, decl *Declaration, childType string) error) error {
	if err := fn(parent, d, childType); err != nil {
		return err
	}
	for _, t := range d.ChildTypes() {
		for _, child := range d.Children[t] {
			if child == nil {
				continue
			}
			if err := child.walk(d, t, fn); err != nil {
				return err
			}
		}
	}
	return nil
}

// ChildTypes returns the child-type groups in declaration order.
func (d *Declaration) ChildTypes() []string {
	return OrderedKeys(d.ChildOrder, d.Children)
}
