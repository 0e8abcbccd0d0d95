package store

import (
	"errors"
	"time"
)

var (
	ErrNotFound           = errors.New("store: not found")
	ErrNameRequired       = errors.New("store: name is required")
	ErrCredentialsMissing = errors.New("store: gateway credentials not configured")
)

// Credentials is the payment-provider key pair owned by a single store.
type Credentials struct {
	KeyID     string
	KeySecret string
}

func (c Credentials) Configured() bool {
	return c.KeyID != "" && c.KeySecret != ""
}

type Store struct {
	ID        string
	OwnerID   string
	Name      string
	Gateway   Credentials
	CreatedAt time.Time
	UpdatedAt time.Time
}

func New(id, ownerID, name string) (*Store, error) {
	if name == "" {
		return nil, ErrNameRequired
	}

	now := time.Now().UTC()
	return &Store{
		ID:        id,
		OwnerID:   ownerID,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (s *Store) Clone() *Store {
	if s == nil {
		return nil
	}
	clone := *s
	return &clone
}
