package ports

import (
	"context"

	"github.com/aretw0/arbor/pkg/domain"
)

// LocationObserver receives every new location a transport accepts.
type LocationObserver func(domain.Location)

// LocationTransport persists the serialized location.
// Implementations serialize with codec.Serialize against the location they
// currently hold, so unrelated query keys are carried forward.
type LocationTransport interface {
	// Location returns the current location.
	Location(ctx context.Context) (domain.Location, error)

	// SetState stores loc (honoring loc.Options.ReplaceLocation) and notifies
	// observers with the location as it reads back from the medium.
	SetState(ctx context.Context, loc domain.Location) error

	// Subscribe registers an observer and returns its unsubscribe function.
	Subscribe(fn LocationObserver) (unsubscribe func())
}

// HistoryNavigator is implemented by transports that keep navigation history.
type HistoryNavigator interface {
	Back(ctx context.Context) error
	Forward(ctx context.Context) error
}
