package ports

import (
	"context"

	"github.com/aretw0/arbor/pkg/domain"
)

// DeclarationLoader produces a router declaration tree.
// This allows the declaration source (files, Loam, code) to be decoupled.
type DeclarationLoader interface {
	Load(ctx context.Context) (*domain.Declaration, error)
}

// Watchable defines an interface for loaders that can notify about backend changes.
// This is typically used for hot-reload or dev-mode functionality.
type Watchable interface {
	// Watch returns a channel that receives the ID of every changed source document.
	Watch(ctx context.Context) (<-chan string, error)
}
