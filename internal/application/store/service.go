package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	domain "github.com/storecraft-labs/order-intake/internal/domain/store"
	"github.com/storecraft-labs/order-intake/internal/observability"
	"github.com/storecraft-labs/order-intake/internal/observability/logctx"
)

var (
	ErrUnauthorized        = errors.New("store: unauthorized")
	ErrSubscriptionNeeded  = errors.New("store: subscription required to create stores")
	ErrSubscriptionExpired = errors.New("store: subscription expired")
)

// UnlimitedStores is the plan marker for no store cap.
const UnlimitedStores = -1

// StoreLimitError reports a plan cap that the owner has already reached.
type StoreLimitError struct {
	Allowed int
}

func (e *StoreLimitError) Error() string {
	return fmt.Sprintf("store: store limit reached, maximum allowed: %d", e.Allowed)
}

// Subscription is the plan snapshot extracted from the caller's token. How it
// is computed belongs to the auth provider; only the facts matter here.
type Subscription struct {
	Subscribed    bool
	StoresAllowed int
	ExpiresAt     time.Time
}

type IDGenerator interface {
	NewID() string
}

type Service struct {
	stores domain.Repository
	idGen  IDGenerator
	log    observability.Logger
}

func NewService(stores domain.Repository, idGen IDGenerator, tel observability.Observability) *Service {
	if tel == nil {
		tel = observability.Nop()
	}
	return &Service{
		stores: stores,
		idGen:  idGen,
		log:    tel.Logger().With(observability.F("service", "store-service")),
	}
}

// Create adds a store for the owner after subscription gating: active plan,
// unexpired, and under the plan's store cap.
func (s *Service) Create(ctx context.Context, ownerID, name string, sub Subscription) (*domain.Store, error) {
	logger := logctx.FromOr(ctx, s.log).With(observability.F("owner_id", ownerID))

	if ownerID == "" {
		return nil, ErrUnauthorized
	}
	if !sub.Subscribed {
		return nil, ErrSubscriptionNeeded
	}
	if !sub.ExpiresAt.IsZero() && time.Now().After(sub.ExpiresAt) {
		return nil, ErrSubscriptionExpired
	}

	if sub.StoresAllowed != UnlimitedStores {
		count, err := s.stores.CountByOwner(ctx, ownerID)
		if err != nil {
			return nil, fmt.Errorf("store: count by owner: %w", err)
		}
		if count >= sub.StoresAllowed {
			return nil, &StoreLimitError{Allowed: sub.StoresAllowed}
		}
	}

	entity, err := domain.New(s.idGen.NewID(), ownerID, name)
	if err != nil {
		return nil, err
	}
	if err := s.stores.Insert(ctx, entity); err != nil {
		return nil, fmt.Errorf("store: insert: %w", err)
	}

	logger.Info("store_created", observability.F("store_id", entity.ID))
	return entity, nil
}

// List returns the owner's stores, newest first.
func (s *Service) List(ctx context.Context, ownerID string) ([]*domain.Store, error) {
	if ownerID == "" {
		return nil, ErrUnauthorized
	}
	return s.stores.ListByOwner(ctx, ownerID)
}
