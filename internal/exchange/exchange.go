package exchange

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"spot-trader/internal/core"
)

// SymbolRules is the exchange-published metadata for one trading pair. The
// resolver prefers BaseAsset/QuoteAsset over guessing from the symbol string.
type SymbolRules struct {
	Symbol      string
	BaseAsset   string
	QuoteAsset  string
	MinQty      decimal.Decimal
	MinNotional decimal.Decimal
	PriceTick   decimal.Decimal
	QtyStep     decimal.Decimal
}

// Gateway is the exchange collaborator the core consumes. All calls are
// single request/response round trips; there is no streaming surface here.
// Implementations report failures as-is and never retry.
type Gateway interface {
	Name() string
	ServerTime(ctx context.Context) (time.Time, error)
	AccountBalances(ctx context.Context) (core.BalanceSnapshot, error)
	SymbolMetadata(ctx context.Context, symbol string) (SymbolRules, error)
	Price(ctx context.Context, symbol string) (decimal.Decimal, error)
	SubmitOrder(ctx context.Context, req core.ValidatedOrderRequest) (core.OrderOutcome, error)
	GetOrder(ctx context.Context, symbol string, orderID int64) (core.OrderOutcome, error)
	CancelOrder(ctx context.Context, symbol string, orderID int64) (core.OrderOutcome, error)
	OpenOrders(ctx context.Context, symbol string) ([]core.OrderOutcome, error)
	Close() error
}
