package checkout

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyCart      = errors.New("checkout: product ids are required")
	ErrAmountRequired = errors.New("checkout: amount must be greater than zero")
)

// OutOfStockError names the first product whose tracked stock cannot cover
// the requested quantity.
type OutOfStockError struct {
	ProductID string
	Name      string
	Requested int
	Available int
}

func (e *OutOfStockError) Error() string {
	return fmt.Sprintf("checkout: product %s is out of stock (requested %d, available %d)", e.Name, e.Requested, e.Available)
}

// UnknownProductError reports a cart entry that matches no product row.
type UnknownProductError struct {
	ProductID string
}

func (e *UnknownProductError) Error() string {
	return fmt.Sprintf("checkout: product %s not found", e.ProductID)
}

// GatewayError wraps a failed remote order creation. Provider timeouts land
// here too; no stock has been decremented when it is returned.
type GatewayError struct {
	Err error
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("checkout: gateway order creation failed: %v", e.Err)
}

func (e *GatewayError) Unwrap() error { return e.Err }
