package customer

import (
	"errors"
	"time"
)

var ErrNotFound = errors.New("customer: not found")

// Address is the structured shipping address captured at checkout.
type Address struct {
	Line1      string
	Line2      string
	City       string
	State      string
	PostalCode string
	Country    string
}

// Customer identity is keyed by email. The empty string is a valid key: all
// blank-email guest checkouts share one row, matching the upsert contract.
type Customer struct {
	ID        string
	StoreID   string
	Email     string
	FullName  string
	Phone     string
	Shipping  Address
	CreatedAt time.Time
	UpdatedAt time.Time
}

func New(id, storeID, email, fullName, phone string, shipping Address) *Customer {
	now := time.Now().UTC()
	return &Customer{
		ID:        id,
		StoreID:   storeID,
		Email:     email,
		FullName:  fullName,
		Phone:     phone,
		Shipping:  shipping,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (c *Customer) Clone() *Customer {
	if c == nil {
		return nil
	}
	clone := *c
	return &clone
}
