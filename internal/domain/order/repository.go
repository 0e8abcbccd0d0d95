package order

import "context"

type Repository interface {
	Insert(ctx context.Context, order *Order) error
	FindByID(ctx context.Context, id string) (*Order, error)
	// FindByGatewayOrderID locates the local order correlated with a
	// provider-issued order reference, scoped to one store.
	FindByGatewayOrderID(ctx context.Context, storeID, gatewayOrderID string) (*Order, error)
	Update(ctx context.Context, order *Order) error
}
