package loam

// RouterMetadata is the frontmatter of one router document. Each document
// declares a single router and links to its parent by name.
type RouterMetadata struct {
	Name                       string   `json:"name" mapstructure:"name"`
	Type                       string   `json:"type" mapstructure:"type"`
	Parent                     string   `json:"parent" mapstructure:"parent"`
	RouteKey                   string   `json:"route_key" mapstructure:"route_key"`
	IsPathRouter               *bool    `json:"is_path_router" mapstructure:"is_path_router"`
	ShouldInverselyActivate    *bool    `json:"should_inversely_activate" mapstructure:"should_inversely_activate"`
	DisableCaching             *bool    `json:"disable_caching" mapstructure:"disable_caching"`
	RehydrateChildRoutersState *bool    `json:"rehydrate_child_routers_state" mapstructure:"rehydrate_child_routers_state"`
	DefaultAction              []string `json:"default_action" mapstructure:"default_action"`

	// ChildOrder fixes the order of this router's child-type groups.
	ChildOrder []string `json:"child_order" mapstructure:"child_order"`
}
