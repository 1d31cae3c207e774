package domain

// CallDirection tells an action whether it runs because of a descendant
// (up) or an ancestor (down). Empty for the externally triggered call.
type CallDirection string

const (
	DirectionUp   CallDirection = "up"
	DirectionDown CallDirection = "down"
)

// ActionContext is created once per externally triggered action and passed
// by value through the cascade it causes.
type ActionContext struct {
	ActionName string `json:"action_name"`
	// ActionID correlates every event emitted by one cascade.
	ActionID string `json:"action_id,omitempty"`
	// DisableCaching holds for the whole cascade, unlike the per-call option.
	DisableCaching       bool          `json:"disable_caching,omitempty"`
	CallDirection        CallDirection `json:"call_direction,omitempty"`
	ActivatedByChildType string        `json:"activated_by_child_type,omitempty"`
	// RehydrateChildRoutersState is the value carried down from the nearest ancestor.
	RehydrateChildRoutersState bool `json:"rehydrate_child_routers_state"`
	ErrorWhenMissingData       bool `json:"error_when_missing_data,omitempty"`
	// DryRun marks a cascade whose result is discarded; it emits no events.
	DryRun bool `json:"dry_run,omitempty"`
}

// Up derives the context used when a child activates its parent.
func (c ActionContext) Up(childType string) ActionContext {
	c.CallDirection = DirectionUp
	c.ActivatedByChildType = childType
	return c
}

// Down derives the context used for calls into descendants.
func (c ActionContext) Down() ActionContext {
	c.CallDirection = DirectionDown
	c.ActivatedByChildType = ""
	return c
}

// WithAction returns a copy naming a different action.
func (c ActionContext) WithAction(name string) ActionContext {
	c.ActionName = name
	return c
}
