package tender

import "context"

// Repository provides tender persistence. Implementations live in the
// storage packages; FindByID returns ErrNotFound for unknown IDs.
type Repository interface {
	FindByID(ctx context.Context, id string) (*Tender, error)
	Save(ctx context.Context, t *Tender) error
}
