package memory

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/ports"
)

// Loader implements ports.DeclarationLoader over an in-memory declaration.
type Loader struct {
	raw []byte
}

var _ ports.DeclarationLoader = (*Loader)(nil)

// NewLoader creates a loader returning copies of decl.
func NewLoader(decl *domain.Declaration) (*Loader, error) {
	if decl == nil {
		return nil, fmt.Errorf("declaration is nil")
	}
	raw, err := json.Marshal(decl)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal declaration %s: %w", decl.Name, err)
	}
	return &Loader{raw: raw}, nil
}

// NewLoaderFromJSON creates a loader from a JSON declaration document.
func NewLoaderFromJSON(data string) *Loader {
	return &Loader{raw: []byte(data)}
}

// Load decodes a fresh copy of the declaration, so callers may mutate it.
func (l *Loader) Load(ctx context.Context) (*domain.Declaration, error) {
	var decl domain.Declaration
	if err := json.Unmarshal(l.raw, &decl); err != nil {
		return nil, fmt.Errorf("failed to decode declaration: %w", err)
	}
	return &decl, nil
}
