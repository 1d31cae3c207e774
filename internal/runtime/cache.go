package runtime

import (
	"encoding/json"
	"fmt"
	"maps"
	"sync"
)

// Cache keeps, per router name, the value needed to restore the router's
// visibility: a path segment for path routers, the raw search value
// otherwise. A slot is written only while empty and is single-use.
type Cache struct {
	mu    sync.Mutex
	slots map[string]any
}

// NewCache creates an empty cache store.
func NewCache() *Cache {
	return &Cache{slots: make(map[string]any)}
}

// empty matches the values a slot treats as "no cache".
func empty(v any) bool {
	switch v := v.(type) {
	case nil:
		return true
	case bool:
		return !v
	case string:
		return v == ""
	}
	return false
}

// Set stores value for name unless the slot already holds one. It reports
// whether the slot was written.
func (c *Cache) Set(name string, value any) bool {
	if empty(value) {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.slots[name]; ok && !empty(existing) {
		return false
	}
	c.slots[name] = value
	return true
}

// Value returns the cached value of name.
func (c *Cache) Value(name string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.slots[name]
	return v, ok && !empty(v)
}

// Has reports whether name holds a cached value.
func (c *Cache) Has(name string) bool {
	_, ok := c.Value(name)
	return ok
}

// Take returns and clears the cached value of name.
func (c *Cache) Take(name string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.slots[name]
	delete(c.slots, name)
	return v, ok && !empty(v)
}

// Remove clears the slot of name.
func (c *Cache) Remove(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.slots, name)
}

// Len returns the number of filled slots.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.slots)
}

// Export copies every filled slot.
func (c *Cache) Export() map[string]any {
	c.mu.Lock()
	defer c.mu.Unlock()
	return maps.Clone(c.slots)
}

// Restore replaces every slot with values, undoing writes made since the
// matching Export.
func (c *Cache) Restore(values map[string]any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.slots = make(map[string]any, len(values))
	maps.Copy(c.slots, values)
}

// Import fills empty slots from values, returning the names written.
func (c *Cache) Import(values map[string]any) []string {
	var written []string
	for name, v := range values {
		if c.Set(name, normalizeCached(v)) {
			written = append(written, name)
		}
	}
	return written
}

// MarshalJSON encodes the filled slots as a JSON object.
func (c *Cache) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.Export())
}

// DecodeSnapshot parses a serialized cache snapshot.
func DecodeSnapshot(raw string) (map[string]any, error) {
	var values map[string]any
	if err := json.Unmarshal([]byte(raw), &values); err != nil {
		return nil, fmt.Errorf("failed to decode cache snapshot: %w", err)
	}
	return values, nil
}

// normalizeCached maps JSON numbers back to ints, the type stack ranks use.
func normalizeCached(v any) any {
	if f, ok := v.(float64); ok && f == float64(int(f)) {
		return int(f)
	}
	return v
}
