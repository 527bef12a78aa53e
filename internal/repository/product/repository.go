package product

import (
	"context"

	"storefront/internal/domain"
)

// Repository stores the catalog served by the stub API. List returns
// products in insertion order.
type Repository interface {
	List(ctx context.Context) ([]domain.ProductSnapshot, error)
	GetByID(ctx context.Context, id string) (*domain.ProductSnapshot, error)
	Upsert(ctx context.Context, product domain.ProductSnapshot) (*domain.ProductSnapshot, error)
}
