package memory

import (
	"slices"
	"sort"
	"sync"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/ports"
)

// StateStore implements ports.RouterStateStore in memory.
// Safe for concurrent use. Observers run after the lock is released.
type StateStore struct {
	mu          sync.RWMutex
	states      map[string]domain.RouterSnapshot
	observers   map[string]map[int]ports.StateObserver
	nextID      int
	historySize int
}

var _ ports.RouterStateStore = (*StateStore)(nil)

// NewStateStore creates a store keeping historySize previous states per
// router (domain.DefaultHistorySize when <= 0).
func NewStateStore(historySize int) *StateStore {
	if historySize <= 0 {
		historySize = domain.DefaultHistorySize
	}
	return &StateStore{
		states:      make(map[string]domain.RouterSnapshot),
		observers:   make(map[string]map[int]ports.StateObserver),
		historySize: historySize,
	}
}

// SetState replaces the state map. Routers absent from states are dropped.
func (s *StateStore) SetState(states map[string]domain.RouterState) {
	type notification struct {
		fns  []ports.StateObserver
		snap domain.RouterSnapshot
	}
	var pending []notification

	s.mu.Lock()
	next := make(map[string]domain.RouterSnapshot, len(states))
	names := make([]string, 0, len(states))
	for name := range states {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		state := states[name]
		prev, existed := s.states[name]
		if existed && prev.Current.Equal(state) {
			next[name] = prev
			continue
		}

		snap := domain.RouterSnapshot{Current: state}
		if existed {
			history := append([]domain.RouterState{prev.Current}, prev.Historical...)
			if len(history) > s.historySize {
				history = history[:s.historySize]
			}
			snap.Historical = slices.Clone(history)
		}
		next[name] = snap

		if fns := s.observersOf(name); len(fns) > 0 {
			pending = append(pending, notification{fns: fns, snap: snap})
		}
	}
	s.states = next
	s.mu.Unlock()

	for _, n := range pending {
		for _, fn := range n.fns {
			fn(n.snap)
		}
	}
}

func (s *StateStore) observersOf(name string) []ports.StateObserver {
	set := s.observers[name]
	ids := make([]int, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sortInts(ids)
	fns := make([]ports.StateObserver, 0, len(ids))
	for _, id := range ids {
		fns = append(fns, set[id])
	}
	return fns
}

// Getter returns a reader for the snapshot of name.
func (s *StateStore) Getter(name string) func() domain.RouterSnapshot {
	return func() domain.RouterSnapshot {
		s.mu.RLock()
		defer s.mu.RUnlock()
		return s.states[name]
	}
}

// Subscriber returns a registration function for observers of name.
func (s *StateStore) Subscriber(name string) func(ports.StateObserver) func() {
	return func(fn ports.StateObserver) func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.observers[name] == nil {
			s.observers[name] = make(map[int]ports.StateObserver)
		}
		id := s.nextID
		s.nextID++
		s.observers[name][id] = fn
		return func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.observers[name], id)
		}
	}
}

// UnsubscribeAll drops every observer of name.
func (s *StateStore) UnsubscribeAll(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.observers, name)
}

// Snapshot copies the state of every router.
func (s *StateStore) Snapshot() map[string]domain.RouterSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]domain.RouterSnapshot, len(s.states))
	for k, v := range s.states {
		out[k] = v
	}
	return out
}

func sortInts(ids []int) {
	sort.Ints(ids)
}
