package domain

// Config is the resolved, immutable configuration of a router.
type Config struct {
	RouteKey                string `json:"route_key"`
	IsPathRouter            bool   `json:"is_path_router"`
	ShouldInverselyActivate bool   `json:"should_inversely_activate"`
	// DisableCaching is nil when the router inherits the setting from its ancestors.
	DisableCaching             *bool    `json:"disable_caching,omitempty"`
	RehydrateChildRoutersState *bool    `json:"rehydrate_child_routers_state,omitempty"`
	DefaultAction              []string `json:"default_action"`

	ShouldParentTryToActivateSiblings  bool `json:"should_parent_try_to_activate_siblings"`
	ShouldParentTryToActivateNeighbors bool `json:"should_parent_try_to_activate_neighbors"`
}

// TemplateConfig holds the defaults a template contributes to every router of
// its type. Nil flags mean "no opinion".
type TemplateConfig struct {
	CanBePathRouter                    bool  `json:"can_be_path_router"`
	IsPathRouter                       *bool `json:"is_path_router,omitempty"`
	ShouldInverselyActivate            *bool `json:"should_inversely_activate,omitempty"`
	DisableCaching                     *bool `json:"disable_caching,omitempty"`
	ShouldParentTryToActivateSiblings  *bool `json:"should_parent_try_to_activate_siblings,omitempty"`
	ShouldParentTryToActivateNeighbors *bool `json:"should_parent_try_to_activate_neighbors,omitempty"`
}
