package product

import (
	"errors"
	"time"
)

var (
	ErrNotFound          = errors.New("product: not found")
	ErrInvalidQuantity   = errors.New("product: quantity must be greater than zero")
	ErrInsufficientStock = errors.New("product: insufficient stock")
)

type Product struct {
	ID                 string
	StoreID            string
	Name               string
	StockQuantity      int
	SellWhenOutOfStock bool
	UpdatedAt          time.Time
}

func New(id, storeID, name string, stockQuantity int, sellWhenOutOfStock bool) (*Product, error) {
	if stockQuantity < 0 {
		return nil, ErrInvalidQuantity
	}
	return &Product{
		ID:                 id,
		StoreID:            storeID,
		Name:               name,
		StockQuantity:      stockQuantity,
		SellWhenOutOfStock: sellWhenOutOfStock,
		UpdatedAt:          time.Now().UTC(),
	}, nil
}

// Available reports whether the requested quantity can be sold. Products that
// sell when out of stock are always available.
func (p *Product) Available(requested int) bool {
	if requested <= 0 {
		return false
	}
	if p.SellWhenOutOfStock {
		return true
	}
	return p.StockQuantity >= requested
}

// Decrement reduces tracked stock by the requested quantity. Stock is left
// untouched for products that sell when out of stock.
func (p *Product) Decrement(requested int) error {
	if requested <= 0 {
		return ErrInvalidQuantity
	}
	if p.SellWhenOutOfStock {
		return nil
	}
	if requested > p.StockQuantity {
		return ErrInsufficientStock
	}
	p.StockQuantity -= requested
	p.touch()
	return nil
}

func (p *Product) touch() {
	p.UpdatedAt = time.Now().UTC()
}

func (p *Product) Clone() *Product {
	if p == nil {
		return nil
	}
	clone := *p
	return &clone
}
