package core

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Side string

type OrderType string

type OrderStatus string

type TimeInForce string

const (
	Buy  Side = "BUY"
	Sell Side = "SELL"
)

const (
	Market           OrderType = "MARKET"
	Limit            OrderType = "LIMIT"
	Stop             OrderType = "STOP"
	StopMarket       OrderType = "STOP_MARKET"
	TakeProfit       OrderType = "TAKE_PROFIT"
	TakeProfitMarket OrderType = "TAKE_PROFIT_MARKET"
)

const (
	OrderNew             OrderStatus = "NEW"
	OrderPartiallyFilled OrderStatus = "PARTIALLY_FILLED"
	OrderFilled          OrderStatus = "FILLED"
	OrderCanceled        OrderStatus = "CANCELED"
	OrderRejected        OrderStatus = "REJECTED"
	OrderExpired         OrderStatus = "EXPIRED"
)

const (
	GTC TimeInForce = "GTC"
	IOC TimeInForce = "IOC"
	FOK TimeInForce = "FOK"
)

// Sides and OrderTypes enumerate the accepted values, in the order they are
// reported back to callers on validation failures.
var (
	Sides      = []Side{Buy, Sell}
	OrderTypes = []OrderType{Market, Limit, Stop, StopMarket, TakeProfit, TakeProfitMarket}
)

func (s Side) Valid() bool {
	return s == Buy || s == Sell
}

func (t OrderType) Valid() bool {
	for _, known := range OrderTypes {
		if t == known {
			return true
		}
	}
	return false
}

// RequiresPrice reports whether orders of this type must carry a limit price.
func (t OrderType) RequiresPrice() bool {
	return t == Limit || t == Stop
}

func (t OrderType) RequiresStopPrice() bool {
	switch t {
	case Stop, StopMarket, TakeProfit, TakeProfitMarket:
		return true
	}
	return false
}

// OrderIntent is the caller's raw description of a desired order. A zero
// Price or StopPrice means "not supplied"; exchange prices are strictly
// positive so zero is never a legal value.
type OrderIntent struct {
	Symbol      string
	Side        Side
	Type        OrderType
	Qty         decimal.Decimal
	Price       decimal.Decimal
	StopPrice   decimal.Decimal
	TimeInForce TimeInForce
}

// Normalized returns a copy with symbol/side/type uppercased and the
// time-in-force defaulted to GTC.
func (i OrderIntent) Normalized() OrderIntent {
	i.Symbol = strings.ToUpper(strings.TrimSpace(i.Symbol))
	i.Side = Side(strings.ToUpper(strings.TrimSpace(string(i.Side))))
	i.Type = OrderType(strings.ToUpper(strings.TrimSpace(string(i.Type))))
	if i.TimeInForce == "" {
		i.TimeInForce = GTC
	}
	return i
}

// AssetPair is a trading symbol split into its constituent assets.
// Base+Quote always reconstructs the symbol it was derived from.
type AssetPair struct {
	Base  string
	Quote string
}

func (p AssetPair) Symbol() string {
	return p.Base + p.Quote
}

type AssetBalance struct {
	Asset  string
	Free   decimal.Decimal
	Locked decimal.Decimal
}

func (b AssetBalance) Total() decimal.Decimal {
	return b.Free.Add(b.Locked)
}

// BalanceSnapshot maps asset symbol to balances at one instant. It is fetched
// fresh per validation pass and may be stale the moment after; guards treat it
// as advisory only.
type BalanceSnapshot map[string]AssetBalance

func (s BalanceSnapshot) Free(asset string) decimal.Decimal {
	return s[asset].Free
}

// ValidatedOrderRequest is a gateway-ready payload. It carries exactly the
// fields its order type needs and is only ever produced by the order request
// builder; treat it as immutable once built.
type ValidatedOrderRequest struct {
	Symbol      string
	Side        Side
	Type        OrderType
	Qty         decimal.Decimal
	Price       decimal.Decimal
	StopPrice   decimal.Decimal
	TimeInForce TimeInForce
}

// OrderOutcome is the exchange's view of an order after submission.
type OrderOutcome struct {
	OrderID     int64
	Status      OrderStatus
	Symbol      string
	Side        Side
	Type        OrderType
	Qty         decimal.Decimal
	ExecutedQty decimal.Decimal
	Price       decimal.Decimal
	Time        time.Time
}

// AssetHolding is a non-zero spot position.
type AssetHolding struct {
	Asset  string
	Free   decimal.Decimal
	Locked decimal.Decimal
	Total  decimal.Decimal
}
