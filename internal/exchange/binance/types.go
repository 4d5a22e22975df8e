package binance

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"spot-trader/internal/core"
	"spot-trader/internal/exchange"
)

type apiError struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

type APIError struct {
	Code int
	Msg  string
}

func (e APIError) Error() string {
	return "binance api error " + strconv.Itoa(e.Code) + ": " + e.Msg
}

type serverTimeResponse struct {
	ServerTime int64 `json:"serverTime"`
}

// orderResponse covers the fields shared by the order create, query, cancel,
// and open-orders payloads; absent fields unmarshal to their zero values.
type orderResponse struct {
	Symbol       string `json:"symbol"`
	OrderID      int64  `json:"orderId"`
	Price        string `json:"price"`
	StopPrice    string `json:"stopPrice"`
	OrigQty      string `json:"origQty"`
	ExecutedQty  string `json:"executedQty"`
	Status       string `json:"status"`
	TimeInForce  string `json:"timeInForce"`
	Side         string `json:"side"`
	Type         string `json:"type"`
	Time         int64  `json:"time"`
	UpdateTime   int64  `json:"updateTime"`
	TransactTime int64  `json:"transactTime"`
}

type tickerPriceResponse struct {
	Symbol string `json:"symbol"`
	Price  string `json:"price"`
}

type accountResponse struct {
	Balances []struct {
		Asset  string `json:"asset"`
		Free   string `json:"free"`
		Locked string `json:"locked"`
	} `json:"balances"`
}

type exchangeInfoResponse struct {
	Symbols []symbolInfoResponse `json:"symbols"`
}

type symbolInfoResponse struct {
	Symbol     string `json:"symbol"`
	BaseAsset  string `json:"baseAsset"`
	QuoteAsset string `json:"quoteAsset"`
	Filters    []struct {
		FilterType  string `json:"filterType"`
		MinQty      string `json:"minQty"`
		StepSize    string `json:"stepSize"`
		MinNotional string `json:"minNotional"`
		TickSize    string `json:"tickSize"`
	} `json:"filters"`
}

func outcomeFromOrder(src orderResponse) core.OrderOutcome {
	price, _ := decimal.NewFromString(src.Price)
	qty, _ := decimal.NewFromString(src.OrigQty)
	executed, _ := decimal.NewFromString(src.ExecutedQty)
	out := core.OrderOutcome{
		OrderID:     src.OrderID,
		Status:      core.OrderStatus(src.Status),
		Symbol:      src.Symbol,
		Side:        core.Side(src.Side),
		Type:        core.OrderType(src.Type),
		Qty:         qty,
		ExecutedQty: executed,
		Price:       price,
	}
	if src.Time > 0 {
		out.Time = time.UnixMilli(src.Time)
	} else if src.TransactTime > 0 {
		out.Time = time.UnixMilli(src.TransactTime)
	}
	return out
}

func parseSymbolRules(src symbolInfoResponse) exchange.SymbolRules {
	rules := exchange.SymbolRules{
		Symbol:     src.Symbol,
		BaseAsset:  src.BaseAsset,
		QuoteAsset: src.QuoteAsset,
	}
	for _, f := range src.Filters {
		switch f.FilterType {
		case "LOT_SIZE":
			if v, err := decimal.NewFromString(f.MinQty); err == nil {
				rules.MinQty = v
			}
			if v, err := decimal.NewFromString(f.StepSize); err == nil {
				rules.QtyStep = v
			}
		case "PRICE_FILTER":
			if v, err := decimal.NewFromString(f.TickSize); err == nil {
				rules.PriceTick = v
			}
		case "MIN_NOTIONAL", "NOTIONAL":
			if v, err := decimal.NewFromString(f.MinNotional); err == nil {
				// Keep the stricter minimum when both filter variants appear.
				if v.Cmp(rules.MinNotional) > 0 {
					rules.MinNotional = v
				}
			}
		}
	}
	return rules
}
