package memory

import (
	"context"
	"sync"

	"github.com/aretw0/arbor/pkg/codec"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/ports"
)

// Transport implements ports.LocationTransport in memory, keeping a
// browser-like history of serialized locations.
// Safe for concurrent use. Observers are called synchronously, outside the lock.
type Transport struct {
	mu        sync.Mutex
	history   []string
	index     int
	maxLength int
	observers map[int]ports.LocationObserver
	nextID    int
}

var (
	_ ports.LocationTransport = (*Transport)(nil)
	_ ports.HistoryNavigator  = (*Transport)(nil)
)

// TransportOption configures a Transport.
type TransportOption func(*Transport)

// WithInitialLocation seeds the transport with a serialized location.
func WithInitialLocation(serialized string) TransportOption {
	return func(t *Transport) {
		t.history = []string{codec.Serialize(codec.Deserialize(serialized), nil)}
	}
}

// WithMaxHistory bounds the number of kept entries (0 = unbounded).
func WithMaxHistory(n int) TransportOption {
	return func(t *Transport) {
		t.maxLength = n
	}
}

// NewTransport creates an in-memory transport positioned at "/".
func NewTransport(opts ...TransportOption) *Transport {
	t := &Transport{
		history:   []string{"/"},
		observers: make(map[int]ports.LocationObserver),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Location returns the current location.
func (t *Transport) Location(ctx context.Context) (domain.Location, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return codec.Deserialize(t.history[t.index]), nil
}

// Serialized returns the current serialized location.
func (t *Transport) Serialized() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.history[t.index]
}

// SetState serializes loc against the current entry, then pushes it (or
// replaces the current entry) and notifies observers.
func (t *Transport) SetState(ctx context.Context, loc domain.Location) error {
	t.mu.Lock()
	prev := codec.Deserialize(t.history[t.index])
	serialized := codec.Serialize(loc, &prev)

	if loc.Options.ReplaceLocation {
		t.history[t.index] = serialized
	} else {
		// Pushing drops any forward entries.
		t.history = append(t.history[:t.index+1], serialized)
		t.index++
		if t.maxLength > 0 && len(t.history) > t.maxLength {
			drop := len(t.history) - t.maxLength
			t.history = t.history[drop:]
			t.index -= drop
		}
	}
	t.mu.Unlock()

	t.notify(serialized)
	return nil
}

// Back moves one entry back in history, if possible.
func (t *Transport) Back(ctx context.Context) error {
	return t.move(-1)
}

// Forward moves one entry forward in history, if possible.
func (t *Transport) Forward(ctx context.Context) error {
	return t.move(1)
}

func (t *Transport) move(delta int) error {
	t.mu.Lock()
	target := t.index + delta
	if target < 0 || target >= len(t.history) {
		t.mu.Unlock()
		return nil
	}
	t.index = target
	serialized := t.history[target]
	t.mu.Unlock()

	t.notify(serialized)
	return nil
}

// History returns a copy of the kept entries and the current index.
func (t *Transport) History() ([]string, int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.history...), t.index
}

// Subscribe registers an observer.
func (t *Transport) Subscribe(fn ports.LocationObserver) func() {
	t.mu.Lock()
	defer t.mu.Unlock()
	id := t.nextID
	t.nextID++
	t.observers[id] = fn
	return func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		delete(t.observers, id)
	}
}

func (t *Transport) notify(serialized string) {
	t.mu.Lock()
	ids := make([]int, 0, len(t.observers))
	for id := range t.observers {
		ids = append(ids, id)
	}
	observers := make([]ports.LocationObserver, 0, len(ids))
	sortInts(ids)
	for _, id := range ids {
		observers = append(observers, t.observers[id])
	}
	t.mu.Unlock()

	for _, fn := range observers {
		fn(codec.Deserialize(serialized))
	}
}
