package binance

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
)

// PriceTick is one live price observation from the market data stream.
type PriceTick struct {
	Symbol string
	Price  decimal.Decimal
	Time   time.Time
}

// PriceFeed is a miniTicker websocket subscription for a single symbol. It
// exists for the dashboard's live price display; the validation pipeline
// itself never consumes it and always fetches prices over REST.
type PriceFeed struct {
	conn *websocket.Conn
}

type miniTickerEvent struct {
	EventType  string `json:"e"`
	EventTime  int64  `json:"E"`
	Symbol     string `json:"s"`
	ClosePrice string `json:"c"`
}

func (c *Client) NewPriceFeed(ctx context.Context, symbol string) (*PriceFeed, error) {
	if c.wsBaseURL == "" {
		return nil, errors.New("ws base url required")
	}
	if symbol == "" {
		return nil, errors.New("symbol is required")
	}
	endpoint := c.wsBaseURL + "/ws/" + strings.ToLower(symbol) + "@miniTicker"
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		return nil, err
	}
	return &PriceFeed{conn: conn}, nil
}

// Ticks reads price events until the context ends or the connection fails,
// then closes both channels. Reconnecting is the consumer's decision.
func (f *PriceFeed) Ticks(ctx context.Context) (<-chan PriceTick, <-chan error) {
	ticks := make(chan PriceTick, 16)
	errs := make(chan error, 1)
	go func() {
		defer close(ticks)
		defer close(errs)
		for {
			if deadline, ok := ctx.Deadline(); ok {
				_ = f.conn.SetReadDeadline(deadline)
			}
			_, data, err := f.conn.ReadMessage()
			if err != nil {
				if ctx.Err() == nil {
					errs <- err
				}
				return
			}
			var ev miniTickerEvent
			if err := json.Unmarshal(data, &ev); err != nil {
				continue
			}
			if ev.EventType != "24hrMiniTicker" {
				continue
			}
			price, err := decimal.NewFromString(ev.ClosePrice)
			if err != nil {
				continue
			}
			tick := PriceTick{Symbol: ev.Symbol, Price: price, Time: time.UnixMilli(ev.EventTime)}
			select {
			case ticks <- tick:
			case <-ctx.Done():
				return
			}
		}
	}()
	return ticks, errs
}

func (f *PriceFeed) Close() error {
	return f.conn.Close()
}
