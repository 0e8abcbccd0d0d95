package store_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appstore "github.com/storecraft-labs/order-intake/internal/application/store"
	"github.com/storecraft-labs/order-intake/internal/domain/store"
	"github.com/storecraft-labs/order-intake/internal/infrastructure/memory"
)

type seqIDGen struct{ n int }

func (g *seqIDGen) NewID() string {
	g.n++
	return fmt.Sprintf("store-id-%d", g.n)
}

func activeSub(allowed int) appstore.Subscription {
	return appstore.Subscription{
		Subscribed:    true,
		StoresAllowed: allowed,
		ExpiresAt:     time.Now().Add(24 * time.Hour),
	}
}

func newService() (*memory.DB, *appstore.Service) {
	db := memory.NewDB()
	return db, appstore.NewService(db.Stores(), &seqIDGen{}, nil)
}

func TestCreateStore(t *testing.T) {
	_, svc := newService()

	st, err := svc.Create(context.Background(), "owner-1", "My Shop", activeSub(3))
	require.NoError(t, err)
	assert.Equal(t, "My Shop", st.Name)
	assert.Equal(t, "owner-1", st.OwnerID)
	assert.NotEmpty(t, st.ID)
}

func TestCreateStoreRequiresOwner(t *testing.T) {
	_, svc := newService()

	_, err := svc.Create(context.Background(), "", "My Shop", activeSub(3))
	require.ErrorIs(t, err, appstore.ErrUnauthorized)
}

func TestCreateStoreRequiresSubscription(t *testing.T) {
	_, svc := newService()

	_, err := svc.Create(context.Background(), "owner-1", "My Shop", appstore.Subscription{})
	require.ErrorIs(t, err, appstore.ErrSubscriptionNeeded)
}

func TestCreateStoreExpiredSubscription(t *testing.T) {
	_, svc := newService()

	sub := activeSub(3)
	sub.ExpiresAt = time.Now().Add(-time.Hour)
	_, err := svc.Create(context.Background(), "owner-1", "My Shop", sub)
	require.ErrorIs(t, err, appstore.ErrSubscriptionExpired)
}

func TestCreateStoreEnforcesPlanLimit(t *testing.T) {
	_, svc := newService()

	_, err := svc.Create(context.Background(), "owner-1", "First", activeSub(1))
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), "owner-1", "Second", activeSub(1))
	var limit *appstore.StoreLimitError
	require.ErrorAs(t, err, &limit)
	assert.Equal(t, 1, limit.Allowed)
}

func TestCreateStoreUnlimitedPlan(t *testing.T) {
	_, svc := newService()

	for i := 0; i < 5; i++ {
		_, err := svc.Create(context.Background(), "owner-1", fmt.Sprintf("Shop %d", i), activeSub(appstore.UnlimitedStores))
		require.NoError(t, err)
	}
}

func TestCreateStoreRequiresName(t *testing.T) {
	_, svc := newService()

	_, err := svc.Create(context.Background(), "owner-1", "", activeSub(3))
	require.ErrorIs(t, err, store.ErrNameRequired)
}

func TestListStoresScopedToOwner(t *testing.T) {
	_, svc := newService()

	_, err := svc.Create(context.Background(), "owner-1", "Mine", activeSub(5))
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), "owner-2", "Theirs", activeSub(5))
	require.NoError(t, err)

	list, err := svc.List(context.Background(), "owner-1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Mine", list[0].Name)

	_, err = svc.List(context.Background(), "")
	require.ErrorIs(t, err, appstore.ErrUnauthorized)
}
