package domain

import "context"

// Gateway persists the whole exhibit collection as one unit. Implementations
// must return copies that callers may mutate freely.
type Gateway interface {
	LoadAll(ctx context.Context) ([]Exhibit, error)
	SaveAll(ctx context.Context, exhibits []Exhibit) error
}

// ClosableGateway is a Gateway that holds connections or handles.
type ClosableGateway interface {
	Gateway
	Close() error
}
