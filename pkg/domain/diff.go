package domain

import "sort"

// StateDiff lists the routers whose state changed between two snapshots.
// It is designed to be serialized to JSON for partial updates on clients.
type StateDiff struct {
	// Changed holds the new state of every added or modified router.
	Changed map[string]RouterState `json:"changed,omitempty"`
	// Removed names routers present before and absent now.
	Removed []string `json:"removed,omitempty"`
}

// Diff calculates the difference between two state maps.
// If old is nil, every router of next is reported (initial load).
// It returns nil when nothing changed.
func Diff(old, next map[string]RouterState) *StateDiff {
	diff := &StateDiff{}

	for name, state := range next {
		prev, ok := old[name]
		if ok && prev.Equal(state) {
			continue
		}
		if diff.Changed == nil {
			diff.Changed = make(map[string]RouterState)
		}
		diff.Changed[name] = state
	}

	for name := range old {
		if _, ok := next[name]; !ok {
			diff.Removed = append(diff.Removed, name)
		}
	}
	sort.Strings(diff.Removed)

	if diff.IsEmpty() {
		return nil
	}
	return diff
}

// IsEmpty checks if the diff contains any changes.
func (d *StateDiff) IsEmpty() bool {
	return d == nil || (len(d.Changed) == 0 && len(d.Removed) == 0)
}

// Became returns the routers that turned visible (true) or hidden (false).
func (d *StateDiff) Became(visible bool, old map[string]RouterState) []string {
	if d == nil {
		return nil
	}
	var names []string
	for name, state := range d.Changed {
		if state.Visible == visible && old[name].Visible != visible {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}
