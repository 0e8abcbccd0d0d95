package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/storecraft-labs/order-intake/internal/application/checkout"
	"github.com/storecraft-labs/order-intake/internal/domain/customer"
	"github.com/storecraft-labs/order-intake/internal/domain/order"
	"github.com/storecraft-labs/order-intake/internal/domain/product"
	"github.com/storecraft-labs/order-intake/internal/domain/store"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx, so the same
// repository code serves pooled reads and transaction-bound writes.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type DB struct {
	pool *pgxpool.Pool
}

func Open(ctx context.Context, dsn string) (*DB, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}
	return &DB{pool: pool}, nil
}

func (db *DB) Close() {
	db.pool.Close()
}

func (db *DB) Stores() store.Repository       { return &storeRepository{q: db.pool} }
func (db *DB) Products() product.Repository   { return &productRepository{q: db.pool} }
func (db *DB) Customers() customer.Repository { return &customerRepository{q: db.pool} }
func (db *DB) Orders() order.Repository       { return &orderRepository{q: db.pool} }

// WithinTx wraps fn in one database transaction. The order insert and the
// conditional stock decrements commit together or roll back together.
func (db *DB) WithinTx(ctx context.Context, fn func(ctx context.Context, repos checkout.TxRepos) error) error {
	tx, err := db.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("postgres: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(ctx, &txRepos{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("postgres: commit: %w", err)
	}
	return nil
}

type txRepos struct {
	tx pgx.Tx
}

func (t *txRepos) Orders() order.Repository     { return &orderRepository{q: t.tx} }
func (t *txRepos) Products() product.Repository { return &productRepository{q: t.tx} }
