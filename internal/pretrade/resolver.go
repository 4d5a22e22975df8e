// Package pretrade implements the pre-trade validation pipeline: asset-pair
// resolution, balance sufficiency, limit-price deviation bounds, and order
// request construction. Every check runs locally against state fetched once;
// a rejection here costs no order submission round trip.
package pretrade

import (
	"context"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"spot-trader/internal/core"
	"spot-trader/internal/exchange"
)

// MetadataSource is the slice of the gateway the resolver needs.
type MetadataSource interface {
	SymbolMetadata(ctx context.Context, symbol string) (exchange.SymbolRules, error)
}

// Resolver splits a trading symbol into base and quote assets. It asks the
// exchange for authoritative symbol metadata and caches the answer; when the
// lookup fails it falls back to the suffix heuristic the original guard used.
type Resolver struct {
	source MetadataSource
	log    logrus.FieldLogger

	mu    sync.Mutex
	cache map[string]core.AssetPair
}

func NewResolver(source MetadataSource, log logrus.FieldLogger) *Resolver {
	return &Resolver{
		source: source,
		log:    log,
		cache:  make(map[string]core.AssetPair),
	}
}

func (r *Resolver) Resolve(ctx context.Context, symbol string) (core.AssetPair, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return core.AssetPair{}, &core.InvalidSymbolError{Symbol: symbol}
	}

	r.mu.Lock()
	if pair, ok := r.cache[symbol]; ok {
		r.mu.Unlock()
		return pair, nil
	}
	r.mu.Unlock()

	if r.source != nil {
		rules, err := r.source.SymbolMetadata(ctx, symbol)
		if err == nil && rules.BaseAsset != "" && rules.QuoteAsset != "" {
			pair := core.AssetPair{Base: rules.BaseAsset, Quote: rules.QuoteAsset}
			r.mu.Lock()
			r.cache[symbol] = pair
			r.mu.Unlock()
			return pair, nil
		}
		if r.log != nil {
			r.log.WithField("symbol", symbol).WithError(err).
				Warn("symbol metadata lookup failed, falling back to suffix heuristic")
		}
	}
	return HeuristicPair(symbol), nil
}

// HeuristicPair guesses base and quote assets from the symbol suffix: symbols
// ending in USDT split before the last four characters, anything else is
// assumed to be quoted in USDT with a three-character suffix. Non-USDT pairs
// mis-parse under this rule ("BTCETH" yields quote USDT), which is why
// Resolve prefers exchange metadata.
func HeuristicPair(symbol string) core.AssetPair {
	if strings.HasSuffix(symbol, "USDT") {
		return core.AssetPair{
			Base:  symbol[:len(symbol)-4],
			Quote: symbol[len(symbol)-4:],
		}
	}
	base := ""
	if len(symbol) > 3 {
		base = symbol[:len(symbol)-3]
	}
	return core.AssetPair{Base: base, Quote: "USDT"}
}
