package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/storecraft-labs/order-intake/internal/domain/customer"
	"github.com/storecraft-labs/order-intake/internal/domain/order"
	"github.com/storecraft-labs/order-intake/internal/domain/product"
	"github.com/storecraft-labs/order-intake/internal/domain/store"
)

// Each repository is a view over DB. Views handed out by WithinTx set locked
// and skip the mutex, since the transaction already holds it.

type storeRepository struct {
	db     *DB
	locked bool
}

func (r *storeRepository) lock() func() {
	if r.locked {
		return func() {}
	}
	r.db.mu.Lock()
	return r.db.mu.Unlock
}

func (r *storeRepository) Insert(ctx context.Context, s *store.Store) error {
	_ = ctx
	if s == nil || s.ID == "" {
		return fmt.Errorf("store repository: id is required")
	}
	defer r.lock()()
	r.db.data.stores[s.ID] = s.Clone()
	return nil
}

func (r *storeRepository) FindByID(ctx context.Context, id string) (*store.Store, error) {
	_ = ctx
	defer r.lock()()
	s, ok := r.db.data.stores[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return s.Clone(), nil
}

func (r *storeRepository) ListByOwner(ctx context.Context, ownerID string) ([]*store.Store, error) {
	_ = ctx
	defer r.lock()()
	var out []*store.Store
	for _, s := range r.db.data.stores {
		if s.OwnerID == ownerID {
			out = append(out, s.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *storeRepository) CountByOwner(ctx context.Context, ownerID string) (int, error) {
	_ = ctx
	defer r.lock()()
	count := 0
	for _, s := range r.db.data.stores {
		if s.OwnerID == ownerID {
			count++
		}
	}
	return count, nil
}

type productRepository struct {
	db     *DB
	locked bool
}

func (r *productRepository) lock() func() {
	if r.locked {
		return func() {}
	}
	r.db.mu.Lock()
	return r.db.mu.Unlock
}

func (r *productRepository) FindByIDs(ctx context.Context, ids []string) ([]*product.Product, error) {
	_ = ctx
	defer r.lock()()
	out := make([]*product.Product, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		if p, ok := r.db.data.products[id]; ok {
			out = append(out, p.Clone())
		}
	}
	return out, nil
}

func (r *productRepository) DecrementStock(ctx context.Context, productID string, quantity int) error {
	_ = ctx
	if quantity <= 0 {
		return product.ErrInvalidQuantity
	}
	defer r.lock()()
	p, ok := r.db.data.products[productID]
	if !ok {
		return product.ErrNotFound
	}
	if p.StockQuantity < quantity {
		return product.ErrInsufficientStock
	}
	p.StockQuantity -= quantity
	p.UpdatedAt = time.Now().UTC()
	return nil
}

type customerRepository struct {
	db     *DB
	locked bool
}

func (r *customerRepository) lock() func() {
	if r.locked {
		return func() {}
	}
	r.db.mu.Lock()
	return r.db.mu.Unlock
}

// Upsert inserts or overwrites by email under the database lock, so two
// concurrent first-time checkouts with the same email leave exactly one row.
func (r *customerRepository) Upsert(ctx context.Context, c *customer.Customer) (*customer.Customer, error) {
	_ = ctx
	defer r.lock()()
	d := r.db.data

	if existingID, ok := d.emailIndex[c.Email]; ok {
		existing := d.customers[existingID]
		existing.FullName = c.FullName
		existing.Phone = c.Phone
		existing.Shipping = c.Shipping
		existing.UpdatedAt = time.Now().UTC()
		return existing.Clone(), nil
	}

	d.customers[c.ID] = c.Clone()
	d.emailIndex[c.Email] = c.ID
	return c.Clone(), nil
}

func (r *customerRepository) FindByEmail(ctx context.Context, email string) (*customer.Customer, error) {
	_ = ctx
	defer r.lock()()
	id, ok := r.db.data.emailIndex[email]
	if !ok {
		return nil, customer.ErrNotFound
	}
	return r.db.data.customers[id].Clone(), nil
}

type orderRepository struct {
	db     *DB
	locked bool
}

func (r *orderRepository) lock() func() {
	if r.locked {
		return func() {}
	}
	r.db.mu.Lock()
	return r.db.mu.Unlock
}

func gatewayKey(storeID, gatewayOrderID string) string {
	return storeID + "\x00" + gatewayOrderID
}

func (r *orderRepository) Insert(ctx context.Context, o *order.Order) error {
	_ = ctx
	if o == nil || o.ID == "" {
		return fmt.Errorf("order repository: id is required")
	}
	defer r.lock()()
	d := r.db.data
	if _, exists := d.orders[o.ID]; exists {
		return fmt.Errorf("order repository: duplicate id %s", o.ID)
	}
	d.orders[o.ID] = o.Clone()
	if o.GatewayOrderID != "" {
		d.gatewayIndex[gatewayKey(o.StoreID, o.GatewayOrderID)] = o.ID
	}
	return nil
}

func (r *orderRepository) FindByID(ctx context.Context, id string) (*order.Order, error) {
	_ = ctx
	defer r.lock()()
	o, ok := r.db.data.orders[id]
	if !ok {
		return nil, order.ErrNotFound
	}
	return o.Clone(), nil
}

func (r *orderRepository) FindByGatewayOrderID(ctx context.Context, storeID, gatewayOrderID string) (*order.Order, error) {
	_ = ctx
	defer r.lock()()
	id, ok := r.db.data.gatewayIndex[gatewayKey(storeID, gatewayOrderID)]
	if !ok {
		return nil, order.ErrNotFound
	}
	return r.db.data.orders[id].Clone(), nil
}

func (r *orderRepository) Update(ctx context.Context, o *order.Order) error {
	_ = ctx
	defer r.lock()()
	d := r.db.data
	if _, exists := d.orders[o.ID]; !exists {
		return order.ErrNotFound
	}
	d.orders[o.ID] = o.Clone()
	if o.GatewayOrderID != "" {
		d.gatewayIndex[gatewayKey(o.StoreID, o.GatewayOrderID)] = o.ID
	}
	return nil
}
