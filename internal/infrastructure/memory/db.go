package memory

import (
	"context"
	"sync"

	"github.com/storecraft-labs/order-intake/internal/application/checkout"
	"github.com/storecraft-labs/order-intake/internal/domain/customer"
	"github.com/storecraft-labs/order-intake/internal/domain/order"
	"github.com/storecraft-labs/order-intake/internal/domain/product"
	"github.com/storecraft-labs/order-intake/internal/domain/store"
)

// DB is an in-memory database. A single mutex serializes every access, and
// WithinTx restores a deep snapshot on failure, so transactions observe the
// same atomicity and isolation the Postgres implementation provides.
type DB struct {
	mu   sync.Mutex
	data *data
}

type data struct {
	stores       map[string]*store.Store
	products     map[string]*product.Product
	customers    map[string]*customer.Customer
	emailIndex   map[string]string
	orders       map[string]*order.Order
	gatewayIndex map[string]string
}

func NewDB() *DB {
	return &DB{data: newData()}
}

func newData() *data {
	return &data{
		stores:       make(map[string]*store.Store),
		products:     make(map[string]*product.Product),
		customers:    make(map[string]*customer.Customer),
		emailIndex:   make(map[string]string),
		orders:       make(map[string]*order.Order),
		gatewayIndex: make(map[string]string),
	}
}

func (d *data) clone() *data {
	c := newData()
	for k, v := range d.stores {
		c.stores[k] = v.Clone()
	}
	for k, v := range d.products {
		c.products[k] = v.Clone()
	}
	for k, v := range d.customers {
		c.customers[k] = v.Clone()
	}
	for k, v := range d.emailIndex {
		c.emailIndex[k] = v
	}
	for k, v := range d.orders {
		c.orders[k] = v.Clone()
	}
	for k, v := range d.gatewayIndex {
		c.gatewayIndex[k] = v
	}
	return c
}

func (db *DB) Stores() store.Repository       { return &storeRepository{db: db} }
func (db *DB) Products() product.Repository   { return &productRepository{db: db} }
func (db *DB) Customers() customer.Repository { return &customerRepository{db: db} }
func (db *DB) Orders() order.Repository       { return &orderRepository{db: db} }

// WithinTx runs fn with the database locked. On error the pre-transaction
// snapshot is restored, rolling back every write fn made.
func (db *DB) WithinTx(ctx context.Context, fn func(ctx context.Context, repos checkout.TxRepos) error) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	snapshot := db.data.clone()
	if err := fn(ctx, &txRepos{db: db}); err != nil {
		db.data = snapshot
		return err
	}
	return nil
}

// txRepos hands out repositories that assume the database lock is held.
type txRepos struct {
	db *DB
}

func (t *txRepos) Orders() order.Repository     { return &orderRepository{db: t.db, locked: true} }
func (t *txRepos) Products() product.Repository { return &productRepository{db: t.db, locked: true} }

// Seed helpers used by main (demo mode) and tests.

func (db *DB) PutStore(s *store.Store) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.data.stores[s.ID] = s.Clone()
}

func (db *DB) PutProduct(p *product.Product) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.data.products[p.ID] = p.Clone()
}

func (db *DB) GetProduct(id string) *product.Product {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.data.products[id].Clone()
}

func (db *DB) GetOrder(id string) *order.Order {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.data.orders[id].Clone()
}

func (db *DB) CustomerCount() int {
	db.mu.Lock()
	defer db.mu.Unlock()
	return len(db.data.customers)
}

func (db *DB) OrderCount() int {
	db.mu.Lock()
	defer db.mu.Unlock()
	return len(db.data.orders)
}
