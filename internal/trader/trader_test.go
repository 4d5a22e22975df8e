package trader

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"spot-trader/internal/core"
	"spot-trader/internal/exchange"
)

type fakeGateway struct {
	balances core.BalanceSnapshot
	rules    exchange.SymbolRules
	price    decimal.Decimal

	balancesErr error
	priceErr    error
	submitErr   error

	submitted *core.ValidatedOrderRequest
	placed    core.OrderOutcome
	queried   core.OrderOutcome
	open      []core.OrderOutcome
	canceled  []int64

	priceCalls int
}

func (f *fakeGateway) Name() string { return "fake" }

func (f *fakeGateway) ServerTime(ctx context.Context) (time.Time, error) {
	return time.Now(), nil
}

func (f *fakeGateway) AccountBalances(ctx context.Context) (core.BalanceSnapshot, error) {
	if f.balancesErr != nil {
		return nil, f.balancesErr
	}
	return f.balances, nil
}

func (f *fakeGateway) SymbolMetadata(ctx context.Context, symbol string) (exchange.SymbolRules, error) {
	if f.rules.Symbol == "" {
		return exchange.SymbolRules{}, errors.New("no metadata")
	}
	return f.rules, nil
}

func (f *fakeGateway) Price(ctx context.Context, symbol string) (decimal.Decimal, error) {
	f.priceCalls++
	if f.priceErr != nil {
		return decimal.Zero, f.priceErr
	}
	return f.price, nil
}

func (f *fakeGateway) SubmitOrder(ctx context.Context, req core.ValidatedOrderRequest) (core.OrderOutcome, error) {
	if f.submitErr != nil {
		return core.OrderOutcome{}, f.submitErr
	}
	f.submitted = &req
	return f.placed, nil
}

func (f *fakeGateway) GetOrder(ctx context.Context, symbol string, orderID int64) (core.OrderOutcome, error) {
	return f.queried, nil
}

func (f *fakeGateway) CancelOrder(ctx context.Context, symbol string, orderID int64) (core.OrderOutcome, error) {
	f.canceled = append(f.canceled, orderID)
	return core.OrderOutcome{OrderID: orderID, Symbol: symbol, Status: core.OrderCanceled}, nil
}

func (f *fakeGateway) OpenOrders(ctx context.Context, symbol string) ([]core.OrderOutcome, error) {
	return f.open, nil
}

func (f *fakeGateway) Close() error { return nil }

func quietLogger() logrus.FieldLogger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		balances: core.BalanceSnapshot{
			"USDT": {Asset: "USDT", Free: decimal.RequireFromString("1000")},
			"BTC":  {Asset: "BTC", Free: decimal.RequireFromString("0.5")},
		},
		rules: exchange.SymbolRules{Symbol: "BTCUSDT", BaseAsset: "BTC", QuoteAsset: "USDT"},
		price: decimal.RequireFromString("50000"),
		placed: core.OrderOutcome{
			OrderID: 42,
			Status:  core.OrderNew,
			Symbol:  "BTCUSDT",
		},
		queried: core.OrderOutcome{
			OrderID:     42,
			Status:      core.OrderFilled,
			Symbol:      "BTCUSDT",
			Side:        core.Buy,
			Type:        core.Market,
			Qty:         decimal.RequireFromString("0.001"),
			ExecutedQty: decimal.RequireFromString("0.001"),
			Price:       decimal.RequireFromString("50000"),
			Time:        time.Now(),
		},
	}
}

func TestPlaceOrderMarketBuy(t *testing.T) {
	gw := newFakeGateway()
	bot := New(gw, quietLogger(), nil)

	outcome, err := bot.PlaceOrder(context.Background(), core.OrderIntent{
		Symbol: "btcusdt",
		Side:   "buy",
		Type:   "market",
		Qty:    decimal.RequireFromString("0.001"),
	})
	if err != nil {
		t.Fatalf("PlaceOrder() error = %v", err)
	}
	if outcome.OrderID != 42 || outcome.Status != core.OrderFilled {
		t.Fatalf("unexpected outcome: %+v", outcome)
	}
	if gw.submitted == nil {
		t.Fatalf("no order submitted")
	}
	if gw.submitted.Symbol != "BTCUSDT" || gw.submitted.Type != core.Market {
		t.Fatalf("unexpected submitted request: %+v", gw.submitted)
	}
	if gw.priceCalls != 1 {
		t.Fatalf("price calls = %d, want 1 (market buy needs an estimate)", gw.priceCalls)
	}
}

func TestPlaceOrderMarketBuyStrayPriceStillGuarded(t *testing.T) {
	gw := newFakeGateway()
	gw.balances["USDT"] = core.AssetBalance{Asset: "USDT", Free: decimal.RequireFromString("10")}
	bot := New(gw, quietLogger(), nil)

	_, err := bot.PlaceOrder(context.Background(), core.OrderIntent{
		Symbol: "BTCUSDT",
		Side:   core.Buy,
		Type:   core.Market,
		Qty:    decimal.RequireFromString("0.001"),
		Price:  decimal.RequireFromString("1"),
	})
	var insufficient *core.InsufficientBalanceError
	if !errors.As(err, &insufficient) {
		t.Fatalf("PlaceOrder() error = %v, want InsufficientBalanceError", err)
	}
	if gw.priceCalls != 1 {
		t.Fatalf("price calls = %d, want 1 (market buy estimates against the live price)", gw.priceCalls)
	}
	if gw.submitted != nil {
		t.Fatalf("rejected order must not reach the gateway")
	}
}

func TestPlaceOrderSellMarketSkipsPriceFetch(t *testing.T) {
	gw := newFakeGateway()
	bot := New(gw, quietLogger(), nil)

	_, err := bot.PlaceOrder(context.Background(), core.OrderIntent{
		Symbol: "BTCUSDT",
		Side:   core.Sell,
		Type:   core.Market,
		Qty:    decimal.RequireFromString("0.1"),
	})
	if err != nil {
		t.Fatalf("PlaceOrder() error = %v", err)
	}
	if gw.priceCalls != 0 {
		t.Fatalf("price calls = %d, want 0 for a market sell", gw.priceCalls)
	}
}

func TestPlaceOrderInsufficientBalance(t *testing.T) {
	gw := newFakeGateway()
	gw.balances["USDT"] = core.AssetBalance{Asset: "USDT", Free: decimal.RequireFromString("10")}
	bot := New(gw, quietLogger(), nil)

	_, err := bot.PlaceOrder(context.Background(), core.OrderIntent{
		Symbol: "BTCUSDT",
		Side:   core.Buy,
		Type:   core.Market,
		Qty:    decimal.RequireFromString("0.001"),
	})
	var insufficient *core.InsufficientBalanceError
	if !errors.As(err, &insufficient) {
		t.Fatalf("PlaceOrder() error = %v, want InsufficientBalanceError", err)
	}
	if gw.submitted != nil {
		t.Fatalf("rejected order must not reach the gateway")
	}
}

func TestPlaceOrderLimitDeviationRejected(t *testing.T) {
	gw := newFakeGateway()
	bot := New(gw, quietLogger(), nil)

	_, err := bot.PlaceOrder(context.Background(), core.OrderIntent{
		Symbol: "BTCUSDT",
		Side:   core.Buy,
		Type:   core.Limit,
		Qty:    decimal.RequireFromString("0.001"),
		Price:  decimal.RequireFromString("30000"),
	})
	var deviation *core.PriceDeviationError
	if !errors.As(err, &deviation) {
		t.Fatalf("PlaceOrder() error = %v, want PriceDeviationError", err)
	}
	if gw.submitted != nil {
		t.Fatalf("rejected order must not reach the gateway")
	}
}

func TestPlaceOrderWrapsGatewayFailure(t *testing.T) {
	gw := newFakeGateway()
	gw.submitErr = errors.New("connection reset")
	bot := New(gw, quietLogger(), nil)

	_, err := bot.PlaceOrder(context.Background(), core.OrderIntent{
		Symbol: "BTCUSDT",
		Side:   core.Sell,
		Type:   core.Market,
		Qty:    decimal.RequireFromString("0.1"),
	})
	var gwErr *core.GatewayError
	if !errors.As(err, &gwErr) {
		t.Fatalf("PlaceOrder() error = %v, want GatewayError", err)
	}
	if gwErr.Stage != "submit order" {
		t.Fatalf("Stage = %q, want %q", gwErr.Stage, "submit order")
	}
	if !errors.Is(err, gw.submitErr) {
		t.Fatalf("GatewayError should wrap the underlying error")
	}
}

func TestPlaceOrderBalanceFetchFailure(t *testing.T) {
	gw := newFakeGateway()
	gw.balancesErr = errors.New("timeout")
	bot := New(gw, quietLogger(), nil)

	_, err := bot.PlaceOrder(context.Background(), core.OrderIntent{
		Symbol: "BTCUSDT",
		Side:   core.Buy,
		Type:   core.Market,
		Qty:    decimal.RequireFromString("0.001"),
	})
	var gwErr *core.GatewayError
	if !errors.As(err, &gwErr) {
		t.Fatalf("PlaceOrder() error = %v, want GatewayError", err)
	}
	if gwErr.Stage != "fetch balances" {
		t.Fatalf("Stage = %q, want %q", gwErr.Stage, "fetch balances")
	}
}

func TestAccountBalancesSorted(t *testing.T) {
	gw := newFakeGateway()
	gw.balances["ETH"] = core.AssetBalance{Asset: "ETH", Free: decimal.RequireFromString("2")}
	bot := New(gw, quietLogger(), nil)

	balances, err := bot.AccountBalances(context.Background())
	if err != nil {
		t.Fatalf("AccountBalances() error = %v", err)
	}
	for i := 1; i < len(balances); i++ {
		if balances[i-1].Asset > balances[i].Asset {
			t.Fatalf("balances not sorted: %+v", balances)
		}
	}
}

func TestHoldingsSkipsZeroBalances(t *testing.T) {
	gw := newFakeGateway()
	gw.balances["DUST"] = core.AssetBalance{Asset: "DUST"}
	bot := New(gw, quietLogger(), nil)

	holdings, err := bot.Holdings(context.Background())
	if err != nil {
		t.Fatalf("Holdings() error = %v", err)
	}
	for _, h := range holdings {
		if h.Total.Sign() <= 0 {
			t.Fatalf("zero holding leaked through: %+v", h)
		}
	}
	if len(holdings) != 2 {
		t.Fatalf("len(holdings) = %d, want 2", len(holdings))
	}
}

func TestCancelOrder(t *testing.T) {
	gw := newFakeGateway()
	bot := New(gw, quietLogger(), nil)

	outcome, err := bot.CancelOrder(context.Background(), "btcusdt", 42)
	if err != nil {
		t.Fatalf("CancelOrder() error = %v", err)
	}
	if outcome.Status != core.OrderCanceled {
		t.Fatalf("Status = %s, want CANCELED", outcome.Status)
	}
	if len(gw.canceled) != 1 || gw.canceled[0] != 42 {
		t.Fatalf("unexpected cancel calls: %v", gw.canceled)
	}
}

func TestCurrentPriceEmptySymbol(t *testing.T) {
	bot := New(newFakeGateway(), quietLogger(), nil)

	_, err := bot.CurrentPrice(context.Background(), "  ")
	var invalid *core.InvalidSymbolError
	if !errors.As(err, &invalid) {
		t.Fatalf("CurrentPrice() error = %v, want InvalidSymbolError", err)
	}
}
