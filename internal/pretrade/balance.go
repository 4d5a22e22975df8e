package pretrade

import (
	"github.com/shopspring/decimal"

	"spot-trader/internal/core"
)

// slippageBuffer pads the estimated cost of a market buy by 1% to tolerate
// price movement between validation and fill.
var slippageBuffer = decimal.RequireFromString("1.01")

// CheckBalance verifies the account can fund the intent out of free balance.
// Locked balance is never counted as spendable. marketPrice is the last
// traded price fetched for this validation pass; it is only consulted when
// the intent carries no price of its own.
//
// The snapshot is advisory: nothing stops a concurrent order from spending
// the same funds before submission. The exchange remains the authority.
func CheckBalance(intent core.OrderIntent, pair core.AssetPair, snapshot core.BalanceSnapshot, marketPrice decimal.Decimal) error {
	switch intent.Side {
	case core.Buy:
		return checkBuy(intent, pair, snapshot, marketPrice)
	case core.Sell:
		return checkSell(intent, pair, snapshot)
	}
	return nil
}

func checkBuy(intent core.OrderIntent, pair core.AssetPair, snapshot core.BalanceSnapshot, marketPrice decimal.Decimal) error {
	var unitCost decimal.Decimal
	if intent.Type == core.Market {
		// Market orders fill at the market price; a stray supplied price is
		// dropped by the builder and must not feed the estimate either.
		unitCost = marketPrice.Mul(slippageBuffer)
	} else if intent.Price.Sign() > 0 {
		unitCost = intent.Price
	} else {
		unitCost = marketPrice
	}
	if unitCost.Sign() <= 0 {
		// No reference price to estimate cost with; leave rejection to the exchange.
		return nil
	}
	required := intent.Qty.Mul(unitCost)
	held := snapshot.Free(pair.Quote)
	if held.Cmp(required) < 0 {
		return &core.InsufficientBalanceError{
			Asset:           pair.Quote,
			Held:            held,
			Required:        required,
			SuggestedMaxQty: held.Div(unitCost),
		}
	}
	return nil
}

func checkSell(intent core.OrderIntent, pair core.AssetPair, snapshot core.BalanceSnapshot) error {
	held := snapshot.Free(pair.Base)
	if held.Cmp(intent.Qty) < 0 {
		return &core.InsufficientBalanceError{
			Asset:           pair.Base,
			Held:            held,
			Required:        intent.Qty,
			SuggestedMaxQty: held,
		}
	}
	return nil
}
