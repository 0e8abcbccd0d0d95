package product

import "context"

type Repository interface {
	FindByIDs(ctx context.Context, ids []string) ([]*Product, error)
	// DecrementStock atomically reduces stock, failing with
	// ErrInsufficientStock when the remaining quantity would go negative.
	DecrementStock(ctx context.Context, productID string, quantity int) error
}
