package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/storecraft-labs/order-intake/internal/domain/customer"
	"github.com/storecraft-labs/order-intake/internal/domain/order"
	"github.com/storecraft-labs/order-intake/internal/domain/product"
	"github.com/storecraft-labs/order-intake/internal/domain/store"
)

type storeRepository struct {
	q querier
}

func (r *storeRepository) Insert(ctx context.Context, s *store.Store) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO stores (id, owner_id, name, razorpay_key_id, razorpay_key_secret, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		s.ID, s.OwnerID, s.Name, s.Gateway.KeyID, s.Gateway.KeySecret, s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: insert store: %w", err)
	}
	return nil
}

func (r *storeRepository) FindByID(ctx context.Context, id string) (*store.Store, error) {
	var s store.Store
	err := r.q.QueryRow(ctx, `
		SELECT id, owner_id, name, razorpay_key_id, razorpay_key_secret, created_at, updated_at
		FROM stores WHERE id = $1`, id,
	).Scan(&s.ID, &s.OwnerID, &s.Name, &s.Gateway.KeyID, &s.Gateway.KeySecret, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: find store: %w", err)
	}
	return &s, nil
}

func (r *storeRepository) ListByOwner(ctx context.Context, ownerID string) ([]*store.Store, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, owner_id, name, razorpay_key_id, razorpay_key_secret, created_at, updated_at
		FROM stores WHERE owner_id = $1 ORDER BY created_at DESC`, ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: list stores: %w", err)
	}
	defer rows.Close()

	var out []*store.Store
	for rows.Next() {
		var s store.Store
		if err := rows.Scan(&s.ID, &s.OwnerID, &s.Name, &s.Gateway.KeyID, &s.Gateway.KeySecret, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("postgres: scan store: %w", err)
		}
		out = append(out, &s)
	}
	return out, rows.Err()
}

func (r *storeRepository) CountByOwner(ctx context.Context, ownerID string) (int, error) {
	var count int
	err := r.q.QueryRow(ctx, `SELECT count(*) FROM stores WHERE owner_id = $1`, ownerID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("postgres: count stores: %w", err)
	}
	return count, nil
}

type productRepository struct {
	q querier
}

func (r *productRepository) FindByIDs(ctx context.Context, ids []string) ([]*product.Product, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, store_id, name, stock_quantity, sell_when_out_of_stock, updated_at
		FROM products WHERE id = ANY($1)`, ids,
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: find products: %w", err)
	}
	defer rows.Close()

	var out []*product.Product
	for rows.Next() {
		var p product.Product
		if err := rows.Scan(&p.ID, &p.StoreID, &p.Name, &p.StockQuantity, &p.SellWhenOutOfStock, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("postgres: scan product: %w", err)
		}
		out = append(out, &p)
	}
	return out, rows.Err()
}

// DecrementStock is the commit-time re-validation of the availability check:
// the WHERE clause only matches while enough stock remains, so concurrent
// checkouts cannot drive the quantity negative.
func (r *productRepository) DecrementStock(ctx context.Context, productID string, quantity int) error {
	if quantity <= 0 {
		return product.ErrInvalidQuantity
	}
	tag, err := r.q.Exec(ctx, `
		UPDATE products
		SET stock_quantity = stock_quantity - $2, updated_at = now()
		WHERE id = $1 AND stock_quantity >= $2`,
		productID, quantity,
	)
	if err != nil {
		return fmt.Errorf("postgres: decrement stock: %w", err)
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := r.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM products WHERE id = $1)`, productID).Scan(&exists); err != nil {
			return fmt.Errorf("postgres: decrement stock recheck: %w", err)
		}
		if !exists {
			return product.ErrNotFound
		}
		return product.ErrInsufficientStock
	}
	return nil
}

type customerRepository struct {
	q querier
}

// Upsert relies on the unique email constraint: concurrent first-time
// checkouts race on the insert and the loser turns into an update, leaving
// exactly one row.
func (r *customerRepository) Upsert(ctx context.Context, c *customer.Customer) (*customer.Customer, error) {
	out := c.Clone()
	err := r.q.QueryRow(ctx, `
		INSERT INTO customers (id, store_id, email, full_name, phone,
			address_line1, address_line2, city, state, postal_code, country,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, now(), now())
		ON CONFLICT (email) DO UPDATE SET
			full_name = EXCLUDED.full_name,
			phone = EXCLUDED.phone,
			address_line1 = EXCLUDED.address_line1,
			address_line2 = EXCLUDED.address_line2,
			city = EXCLUDED.city,
			state = EXCLUDED.state,
			postal_code = EXCLUDED.postal_code,
			country = EXCLUDED.country,
			updated_at = now()
		RETURNING id, store_id, created_at, updated_at`,
		c.ID, c.StoreID, c.Email, c.FullName, c.Phone,
		c.Shipping.Line1, c.Shipping.Line2, c.Shipping.City, c.Shipping.State,
		c.Shipping.PostalCode, c.Shipping.Country,
	).Scan(&out.ID, &out.StoreID, &out.CreatedAt, &out.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("postgres: upsert customer: %w", err)
	}
	return out, nil
}

func (r *customerRepository) FindByEmail(ctx context.Context, email string) (*customer.Customer, error) {
	var c customer.Customer
	err := r.q.QueryRow(ctx, `
		SELECT id, store_id, email, full_name, phone,
			address_line1, address_line2, city, state, postal_code, country,
			created_at, updated_at
		FROM customers WHERE email = $1`, email,
	).Scan(&c.ID, &c.StoreID, &c.Email, &c.FullName, &c.Phone,
		&c.Shipping.Line1, &c.Shipping.Line2, &c.Shipping.City, &c.Shipping.State,
		&c.Shipping.PostalCode, &c.Shipping.Country, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, customer.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: find customer: %w", err)
	}
	return &c, nil
}

type orderRepository struct {
	q querier
}

func (r *orderRepository) Insert(ctx context.Context, o *order.Order) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO orders (id, store_id, customer_id, is_paid, payment_method,
			payment_status, order_status, gateway_order_id, payment_id,
			email, phone, address_line1, address_line2, city, state, postal_code, country,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`,
		o.ID, o.StoreID, o.CustomerID, o.IsPaid, o.PaymentMethod,
		o.PaymentStatus, o.Status, o.GatewayOrderID, o.PaymentID,
		o.Email, o.Phone, o.Shipping.Line1, o.Shipping.Line2, o.Shipping.City,
		o.Shipping.State, o.Shipping.PostalCode, o.Shipping.Country,
		o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: insert order: %w", err)
	}
	for _, item := range o.Items {
		if _, err := r.q.Exec(ctx, `
			INSERT INTO order_items (id, order_id, product_id) VALUES ($1, $2, $3)`,
			item.ID, o.ID, item.ProductID,
		); err != nil {
			return fmt.Errorf("postgres: insert order item: %w", err)
		}
	}
	return nil
}

const orderColumns = `id, store_id, customer_id, is_paid, payment_method,
	payment_status, order_status, gateway_order_id, payment_id,
	email, phone, address_line1, address_line2, city, state, postal_code, country,
	created_at, updated_at`

func (r *orderRepository) FindByID(ctx context.Context, id string) (*order.Order, error) {
	return r.findOne(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
}

func (r *orderRepository) FindByGatewayOrderID(ctx context.Context, storeID, gatewayOrderID string) (*order.Order, error) {
	return r.findOne(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE store_id = $1 AND gateway_order_id = $2`,
		storeID, gatewayOrderID,
	)
}

func (r *orderRepository) findOne(ctx context.Context, sql string, args ...any) (*order.Order, error) {
	var o order.Order
	err := r.q.QueryRow(ctx, sql, args...).Scan(
		&o.ID, &o.StoreID, &o.CustomerID, &o.IsPaid, &o.PaymentMethod,
		&o.PaymentStatus, &o.Status, &o.GatewayOrderID, &o.PaymentID,
		&o.Email, &o.Phone, &o.Shipping.Line1, &o.Shipping.Line2, &o.Shipping.City,
		&o.Shipping.State, &o.Shipping.PostalCode, &o.Shipping.Country,
		&o.CreatedAt, &o.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, order.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: find order: %w", err)
	}

	rows, err := r.q.Query(ctx, `SELECT id, product_id FROM order_items WHERE order_id = $1 ORDER BY id`, o.ID)
	if err != nil {
		return nil, fmt.Errorf("postgres: find order items: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var item order.LineItem
		if err := rows.Scan(&item.ID, &item.ProductID); err != nil {
			return nil, fmt.Errorf("postgres: scan order item: %w", err)
		}
		o.Items = append(o.Items, item)
	}
	return &o, rows.Err()
}

func (r *orderRepository) Update(ctx context.Context, o *order.Order) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE orders
		SET is_paid = $2, payment_method = $3, payment_status = $4,
			order_status = $5, payment_id = $6, updated_at = $7
		WHERE id = $1`,
		o.ID, o.IsPaid, o.PaymentMethod, o.PaymentStatus, o.Status, o.PaymentID, o.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: update order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return order.ErrNotFound
	}
	return nil
}
