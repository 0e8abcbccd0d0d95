package store

import "context"

type Repository interface {
	Insert(ctx context.Context, store *Store) error
	FindByID(ctx context.Context, id string) (*Store, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*Store, error)
	CountByOwner(ctx context.Context, ownerID string) (int, error)
}
