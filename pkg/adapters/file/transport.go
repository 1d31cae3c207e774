// Package file persists the location to a JSON document on the local
// filesystem, so separate processes (such as CLI invocations) can share it.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/aretw0/arbor/pkg/codec"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/ports"
)

// DefaultPath is used when New receives an empty path.
var DefaultPath = filepath.Join(".arbor", "location.json")

// document is the on-disk layout.
type document struct {
	Location  string    `json:"location"`
	History   []string  `json:"history,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Transport implements ports.LocationTransport on a JSON file.
type Transport struct {
	Path       string
	MaxHistory int

	mu        sync.Mutex
	observers map[int]ports.LocationObserver
	nextID    int
}

var _ ports.LocationTransport = (*Transport)(nil)

// New creates a file transport. If path is empty, it defaults to DefaultPath.
func New(path string) *Transport {
	if path == "" {
		path = DefaultPath
	}
	return &Transport{
		Path:       path,
		MaxHistory: 20,
		observers:  make(map[int]ports.LocationObserver),
	}
}

// Location reads the stored location. A missing file reads as "/".
func (t *Transport) Location(ctx context.Context) (domain.Location, error) {
	doc, err := t.read()
	if err != nil {
		return domain.Location{}, err
	}
	return codec.Deserialize(doc.Location), nil
}

// History returns the recorded locations, oldest first.
func (t *Transport) History(ctx context.Context) ([]string, error) {
	doc, err := t.read()
	if err != nil {
		return nil, err
	}
	return doc.History, nil
}

// SetState serializes loc against the stored location and writes it.
func (t *Transport) SetState(ctx context.Context, loc domain.Location) error {
	t.mu.Lock()
	doc, err := t.read()
	if err != nil {
		t.mu.Unlock()
		return err
	}

	prev := codec.Deserialize(doc.Location)
	next := codec.Serialize(loc, &prev)

	if loc.Options.ReplaceLocation && len(doc.History) > 0 {
		doc.History[len(doc.History)-1] = next
	} else {
		doc.History = append(doc.History, next)
	}
	if t.MaxHistory > 0 && len(doc.History) > t.MaxHistory {
		doc.History = doc.History[len(doc.History)-t.MaxHistory:]
	}
	doc.Location = next
	doc.UpdatedAt = time.Now().UTC()

	err = t.write(doc)
	t.mu.Unlock()
	if err != nil {
		return err
	}

	t.notify(next)
	return nil
}

// Subscribe registers an observer. Only writes made through this Transport
// are observed.
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

// Reset removes the stored document.
func (t *Transport) Reset() error {
	if err := os.Remove(t.Path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove location file: %w", err)
	}
	return nil
}

func (t *Transport) notify(serialized string) {
	t.mu.Lock()
	observers := make([]ports.LocationObserver, 0, len(t.observers))
	for i := 0; i < t.nextID; i++ {
		if fn, ok := t.observers[i]; ok {
			observers = append(observers, fn)
		}
	}
	t.mu.Unlock()

	for _, fn := range observers {
		fn(codec.Deserialize(serialized))
	}
}

func (t *Transport) read() (document, error) {
	data, err := os.ReadFile(t.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return document{Location: "/"}, nil
		}
		return document{}, fmt.Errorf("failed to read location file: %w", err)
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return document{}, fmt.Errorf("failed to unmarshal location file: %w", err)
	}
	if doc.Location == "" {
		doc.Location = "/"
	}
	return doc, nil
}

// write replaces the file atomically: temp file, fsync, rename.
func (t *Transport) write(doc document) error {
	dir := filepath.Dir(t.Path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to ensure location directory: %w", err)
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal location: %w", err)
	}

	tmpFile, err := os.CreateTemp(dir, "tmp-location-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("failed to write to temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("failed to fsync temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	// Windows cannot rename over an existing file.
	if _, err := os.Stat(t.Path); err == nil {
		if err := os.Remove(t.Path); err != nil {
			return fmt.Errorf("failed to remove existing location file: %w", err)
		}
	}
	if err := os.Rename(tmpPath, t.Path); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}
