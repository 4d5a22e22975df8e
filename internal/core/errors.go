package core

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// InvalidSymbolError reports a symbol the resolver cannot work with.
type InvalidSymbolError struct {
	Symbol string
}

func (e *InvalidSymbolError) Error() string {
	if e.Symbol == "" {
		return "invalid symbol: empty"
	}
	return fmt.Sprintf("invalid symbol %q", e.Symbol)
}

// InvalidParameterError names the offending intent field and, when the field
// is enumerated, the set of accepted values.
type InvalidParameterError struct {
	Field   string
	Value   string
	Allowed []string
}

func (e *InvalidParameterError) Error() string {
	msg := fmt.Sprintf("invalid %s", e.Field)
	if e.Value != "" {
		msg += fmt.Sprintf(" %q", e.Value)
	}
	if len(e.Allowed) > 0 {
		msg += ": must be one of " + strings.Join(e.Allowed, ", ")
	}
	return msg
}

// InsufficientBalanceError carries enough detail for the caller to retry with
// a corrected size without another round trip.
type InsufficientBalanceError struct {
	Asset           string
	Held            decimal.Decimal
	Required        decimal.Decimal
	SuggestedMaxQty decimal.Decimal
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf(
		"insufficient balance: have %s %s, need approximately %s %s; consider lowering quantity to %s or less",
		e.Held, e.Asset, e.Required, e.Asset, e.SuggestedMaxQty.StringFixed(6),
	)
}

// PriceDeviationError rejects a limit price outside the acceptable band
// around the last traded price, mirroring the exchange's percent-price
// filter before any network call is made.
type PriceDeviationError struct {
	Price         decimal.Decimal
	MarketPrice   decimal.Decimal
	DeviationPct  decimal.Decimal
	MinAcceptable decimal.Decimal
	MaxAcceptable decimal.Decimal
}

func (e *PriceDeviationError) Error() string {
	return fmt.Sprintf(
		"price %s is too far from current market price %s (±20%% limit); use a price between %s and %s",
		e.Price, e.MarketPrice, e.MinAcceptable.StringFixed(8), e.MaxAcceptable.StringFixed(8),
	)
}

// GatewayError wraps a transport or exchange-reported failure, preserving the
// exchange's error code and message verbatim and recording which pipeline
// stage was in flight. The core never retries these.
type GatewayError struct {
	Stage string
	Code  int
	Msg   string
	Err   error
}

func (e *GatewayError) Error() string {
	if e.Code != 0 || e.Msg != "" {
		return fmt.Sprintf("%s: exchange error %d: %s", e.Stage, e.Code, e.Msg)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Stage, e.Err)
	}
	return e.Stage + ": gateway failure"
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}
