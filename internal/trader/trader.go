// Package trader is the public surface the CLI and TUI talk to. It wires the
// pre-trade pipeline to the exchange gateway: every order passes symbol
// resolution, the balance guard, and (for limit orders) the price deviation
// guard before a request is built and submitted.
//
// A Trader holds no mutable state between calls and is safe for concurrent
// use; each validation pass fetches its own balance and price snapshots.
package trader

import (
	"context"
	"sort"
	"strconv"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"spot-trader/internal/alert"
	"spot-trader/internal/core"
	"spot-trader/internal/exchange"
	"spot-trader/internal/exchange/binance"
	"spot-trader/internal/pretrade"
	"spot-trader/internal/report"
)

// Pipeline stage names recorded on gateway failures.
const (
	stageFetchBalances = "fetch balances"
	stageFetchPrice    = "fetch market price"
	stageSubmitOrder   = "submit order"
	stageFetchOrder    = "fetch order details"
	stageCancelOrder   = "cancel order"
	stageListOrders    = "list open orders"
)

type Trader struct {
	gateway  exchange.Gateway
	resolver *pretrade.Resolver
	log      logrus.FieldLogger
	alerts   alert.Alerter
}

func New(gateway exchange.Gateway, log logrus.FieldLogger, alerts alert.Alerter) *Trader {
	return &Trader{
		gateway:  gateway,
		resolver: pretrade.NewResolver(gateway, log),
		log:      log,
		alerts:   alerts,
	}
}

// PlaceOrder runs the full pipeline for one intent. Validation failures are
// typed and cost no submission round trip; gateway failures are wrapped with
// the stage that was in flight and never retried. Between the checks here
// and the fill on the exchange, balances and prices can move — the guards
// are advisory, the exchange stays authoritative.
func (t *Trader) PlaceOrder(ctx context.Context, intent core.OrderIntent) (core.OrderOutcome, error) {
	intent = intent.Normalized()

	pair, err := t.resolver.Resolve(ctx, intent.Symbol)
	if err != nil {
		return core.OrderOutcome{}, err
	}

	snapshot, err := t.gateway.AccountBalances(ctx)
	if err != nil {
		return core.OrderOutcome{}, wrapGateway(stageFetchBalances, err)
	}

	marketPrice := decimal.Zero
	if needsMarketPrice(intent) {
		marketPrice, err = t.gateway.Price(ctx, intent.Symbol)
		if err != nil {
			return core.OrderOutcome{}, wrapGateway(stageFetchPrice, err)
		}
	}

	if err := pretrade.CheckBalance(intent, pair, snapshot, marketPrice); err != nil {
		t.log.WithField("symbol", intent.Symbol).WithError(err).Info("order rejected by balance guard")
		return core.OrderOutcome{}, err
	}
	if err := pretrade.CheckPriceDeviation(intent, marketPrice); err != nil {
		t.log.WithField("symbol", intent.Symbol).WithError(err).Info("order rejected by price deviation guard")
		return core.OrderOutcome{}, err
	}

	req, err := pretrade.BuildRequest(intent)
	if err != nil {
		return core.OrderOutcome{}, err
	}

	t.log.WithFields(logrus.Fields{
		"symbol": req.Symbol,
		"side":   req.Side,
		"type":   req.Type,
		"qty":    req.Qty,
	}).Info("placing order")

	placed, err := t.gateway.SubmitOrder(ctx, req)
	if err != nil {
		return core.OrderOutcome{}, wrapGateway(stageSubmitOrder, err)
	}
	t.log.WithField("order_id", placed.OrderID).Info("order placed")

	outcome, err := t.gateway.GetOrder(ctx, req.Symbol, placed.OrderID)
	if err != nil {
		return core.OrderOutcome{}, wrapGateway(stageFetchOrder, err)
	}

	if t.alerts != nil {
		t.alerts.Event("order_placed", map[string]string{
			"symbol": outcome.Symbol,
			"side":   string(outcome.Side),
			"type":   string(outcome.Type),
			"qty":    outcome.Qty.String(),
			"status": string(outcome.Status),
		})
	}
	return outcome, nil
}

func needsMarketPrice(intent core.OrderIntent) bool {
	if intent.Type == core.Limit {
		return true
	}
	if intent.Side != core.Buy {
		return false
	}
	// Market buys always estimate against the live price; any supplied price
	// is dropped before submission and never trusted for the cost check.
	return intent.Type == core.Market || intent.Price.Sign() <= 0
}

func (t *Trader) CurrentPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	intent := core.OrderIntent{Symbol: symbol}.Normalized()
	if intent.Symbol == "" {
		return decimal.Zero, &core.InvalidSymbolError{Symbol: symbol}
	}
	price, err := t.gateway.Price(ctx, intent.Symbol)
	if err != nil {
		return decimal.Zero, wrapGateway(stageFetchPrice, err)
	}
	return price, nil
}

// AccountBalances returns every asset balance the account reports, sorted by
// asset symbol.
func (t *Trader) AccountBalances(ctx context.Context) ([]core.AssetBalance, error) {
	snapshot, err := t.gateway.AccountBalances(ctx)
	if err != nil {
		return nil, wrapGateway(stageFetchBalances, err)
	}
	balances := make([]core.AssetBalance, 0, len(snapshot))
	for _, b := range snapshot {
		balances = append(balances, b)
	}
	sort.Slice(balances, func(i, j int) bool { return balances[i].Asset < balances[j].Asset })
	return balances, nil
}

// Holdings returns only assets with a non-zero free+locked total.
func (t *Trader) Holdings(ctx context.Context) ([]core.AssetHolding, error) {
	balances, err := t.AccountBalances(ctx)
	if err != nil {
		return nil, err
	}
	holdings := make([]core.AssetHolding, 0, len(balances))
	for _, b := range balances {
		total := b.Total()
		if total.Sign() <= 0 {
			continue
		}
		holdings = append(holdings, core.AssetHolding{
			Asset:  b.Asset,
			Free:   b.Free,
			Locked: b.Locked,
			Total:  total,
		})
	}
	return holdings, nil
}

// OpenOrders lists open orders, optionally filtered to one symbol.
func (t *Trader) OpenOrders(ctx context.Context, symbol string) ([]core.OrderOutcome, error) {
	intent := core.OrderIntent{Symbol: symbol}.Normalized()
	orders, err := t.gateway.OpenOrders(ctx, intent.Symbol)
	if err != nil {
		return nil, wrapGateway(stageListOrders, err)
	}
	return orders, nil
}

func (t *Trader) CancelOrder(ctx context.Context, symbol string, orderID int64) (core.OrderOutcome, error) {
	intent := core.OrderIntent{Symbol: symbol}.Normalized()
	if intent.Symbol == "" {
		return core.OrderOutcome{}, &core.InvalidSymbolError{Symbol: symbol}
	}
	outcome, err := t.gateway.CancelOrder(ctx, intent.Symbol, orderID)
	if err != nil {
		return core.OrderOutcome{}, wrapGateway(stageCancelOrder, err)
	}
	t.log.WithField("order_id", orderID).Info("order canceled")
	if t.alerts != nil {
		t.alerts.Event("order_canceled", map[string]string{
			"symbol":   outcome.Symbol,
			"order_id": strconv.FormatInt(outcome.OrderID, 10),
		})
	}
	return outcome, nil
}

// FormatOrderSummary renders the outcome block shown after placement.
func (t *Trader) FormatOrderSummary(outcome core.OrderOutcome) string {
	return report.Summary(outcome)
}

func wrapGateway(stage string, err error) error {
	gw := &core.GatewayError{Stage: stage, Err: err}
	if apiErr, ok := binance.AsAPIError(err); ok {
		gw.Code = apiErr.Code
		gw.Msg = apiErr.Msg
	}
	return gw
}
