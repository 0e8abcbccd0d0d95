package customer

import "context"

type Repository interface {
	// Upsert creates the customer or, when a row with the same email already
	// exists, overwrites its contact fields. It returns the persisted row, so
	// a caller losing an insert race still observes the surviving identity.
	Upsert(ctx context.Context, customer *Customer) (*Customer, error)
	FindByEmail(ctx context.Context, email string) (*Customer, error)
}
