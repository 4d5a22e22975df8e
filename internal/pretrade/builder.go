package pretrade

import (
	"spot-trader/internal/core"
)

// BuildRequest turns an intent into a gateway-ready order request. It is the
// last local stage: callers run it only after the balance and price guards
// have passed. The output carries exactly the fields its order type needs;
// a price or stop price supplied on a MARKET order is dropped, not rejected.
func BuildRequest(intent core.OrderIntent) (core.ValidatedOrderRequest, error) {
	intent = intent.Normalized()

	if !intent.Side.Valid() {
		return core.ValidatedOrderRequest{}, &core.InvalidParameterError{
			Field:   "side",
			Value:   string(intent.Side),
			Allowed: sideNames(),
		}
	}
	if !intent.Type.Valid() {
		return core.ValidatedOrderRequest{}, &core.InvalidParameterError{
			Field:   "type",
			Value:   string(intent.Type),
			Allowed: orderTypeNames(),
		}
	}
	if intent.Qty.Sign() <= 0 {
		return core.ValidatedOrderRequest{}, &core.InvalidParameterError{
			Field: "quantity",
			Value: intent.Qty.String(),
		}
	}

	req := core.ValidatedOrderRequest{
		Symbol: intent.Symbol,
		Side:   intent.Side,
		Type:   intent.Type,
		Qty:    intent.Qty,
	}

	if intent.Type.RequiresPrice() {
		if intent.Price.Sign() <= 0 {
			return core.ValidatedOrderRequest{}, &core.InvalidParameterError{
				Field: "price",
				Value: intent.Price.String(),
			}
		}
		req.Price = intent.Price
	}
	if intent.Type == core.Limit {
		req.TimeInForce = intent.TimeInForce
	}
	if intent.Type.RequiresStopPrice() {
		if intent.StopPrice.Sign() <= 0 {
			return core.ValidatedOrderRequest{}, &core.InvalidParameterError{
				Field: "stopPrice",
				Value: intent.StopPrice.String(),
			}
		}
		req.StopPrice = intent.StopPrice
	}
	return req, nil
}

func sideNames() []string {
	out := make([]string, len(core.Sides))
	for i, s := range core.Sides {
		out[i] = string(s)
	}
	return out
}

func orderTypeNames() []string {
	out := make([]string, len(core.OrderTypes))
	for i, t := range core.OrderTypes {
		out[i] = string(t)
	}
	return out
}
