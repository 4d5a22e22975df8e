package pretrade

import (
	"github.com/shopspring/decimal"

	"spot-trader/internal/core"
)

var (
	maxDeviationPct = decimal.NewFromInt(20)
	bandLowFactor   = decimal.RequireFromString("0.8")
	bandHighFactor  = decimal.RequireFromString("1.2")
	hundred         = decimal.NewFromInt(100)
)

// CheckPriceDeviation bounds a limit price to ±20% of the last traded price.
// Exchanges reject orders outside their percent-price filter with an opaque
// error; this produces the same rejection locally with the acceptable band
// spelled out. A deviation of exactly 20% passes.
func CheckPriceDeviation(intent core.OrderIntent, marketPrice decimal.Decimal) error {
	if intent.Type != core.Limit || intent.Price.Sign() <= 0 {
		return nil
	}
	if marketPrice.Sign() <= 0 {
		return nil
	}
	deviation := intent.Price.Sub(marketPrice).Abs().Div(marketPrice).Mul(hundred)
	if deviation.Cmp(maxDeviationPct) <= 0 {
		return nil
	}
	return &core.PriceDeviationError{
		Price:         intent.Price,
		MarketPrice:   marketPrice,
		DeviationPct:  deviation,
		MinAcceptable: marketPrice.Mul(bandLowFactor),
		MaxAcceptable: marketPrice.Mul(bandHighFactor),
	}
}
