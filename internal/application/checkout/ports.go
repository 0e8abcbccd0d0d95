package checkout

import (
	"context"

	"github.com/storecraft-labs/order-intake/internal/domain/order"
	"github.com/storecraft-labs/order-intake/internal/domain/product"
	"github.com/storecraft-labs/order-intake/internal/domain/store"
)

type IDGenerator interface {
	NewID() string
}

// GatewayOrder is the provider-issued order payload returned to the client so
// it can proceed to provider-hosted payment.
type GatewayOrder struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

// Gateway creates remote payment-provider orders with store-owned credentials.
type Gateway interface {
	CreateOrder(ctx context.Context, creds store.Credentials, amount int64, currency, receipt string) (*GatewayOrder, error)
}

// TxRepos exposes the repositories bound to one transaction.
type TxRepos interface {
	Orders() order.Repository
	Products() product.Repository
}

// UnitOfWork runs fn inside one atomic scope: every write made through the
// transaction-bound repositories commits together or not at all.
type UnitOfWork interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, repos TxRepos) error) error
}
