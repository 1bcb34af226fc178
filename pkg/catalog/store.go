package catalog

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

var ErrNotFound = errors.New("not found")

// Store persists producers and products. Implementations are safe for
// concurrent use; imports call them from up to ingest.BatchSize goroutines.
type Store interface {
	InsertProducer(ctx context.Context, p Producer) error
	GetProducer(ctx context.Context, id uuid.UUID) (Producer, error)
	InsertProduct(ctx context.Context, p Product) error
	GetProduct(ctx context.Context, id uuid.UUID) (Product, error)
	ProductsByProducer(ctx context.Context, producerID uuid.UUID) ([]Product, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, u ProductUpdate) (Product, error)
	// DeleteProduct reports whether a product was removed.
	DeleteProduct(ctx context.Context, id uuid.UUID) (bool, error)
	Close() error
}
