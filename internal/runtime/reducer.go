package runtime

import "github.com/aretw0/arbor/pkg/domain"

// ComputeState runs every router's reducer against loc and returns the full
// state map. Nothing is published here: callers commit the map as a whole.
func (e *Engine) ComputeState(loc domain.Location) map[string]domain.RouterState {
	acc := make(map[string]domain.RouterState, len(e.nodes))
	if e.root == nil {
		return acc
	}
	e.computeState(loc, e.root, acc)
	return acc
}

// computeState visits n then its children, pre-order.
func (e *Engine) computeState(loc domain.Location, n *Node, acc map[string]domain.RouterState) {
	if reducer := e.template(n).Reducer; reducer != nil {
		acc[n.name] = reducer(loc, n)
	} else {
		acc[n.name] = domain.RouterState{}
	}
	for _, typ := range n.childOrder {
		for _, child := range n.children[typ] {
			e.computeState(loc, child, acc)
		}
	}
}
