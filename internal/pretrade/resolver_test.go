package pretrade

import (
	"context"
	"errors"
	"testing"

	"spot-trader/internal/core"
	"spot-trader/internal/exchange"
)

type fakeMetadataSource struct {
	rules exchange.SymbolRules
	err   error
	calls int
}

func (f *fakeMetadataSource) SymbolMetadata(ctx context.Context, symbol string) (exchange.SymbolRules, error) {
	f.calls++
	return f.rules, f.err
}

func TestResolvePrefersExchangeMetadata(t *testing.T) {
	source := &fakeMetadataSource{
		rules: exchange.SymbolRules{Symbol: "ETHBTC", BaseAsset: "ETH", QuoteAsset: "BTC"},
	}
	r := NewResolver(source, nil)

	pair, err := r.Resolve(context.Background(), " ethbtc ")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	want := core.AssetPair{Base: "ETH", Quote: "BTC"}
	if pair != want {
		t.Fatalf("Resolve() = %+v, want %+v", pair, want)
	}
}

func TestResolveCachesMetadataLookups(t *testing.T) {
	source := &fakeMetadataSource{
		rules: exchange.SymbolRules{Symbol: "BTCUSDT", BaseAsset: "BTC", QuoteAsset: "USDT"},
	}
	r := NewResolver(source, nil)

	for i := 0; i < 3; i++ {
		if _, err := r.Resolve(context.Background(), "BTCUSDT"); err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
	}
	if source.calls != 1 {
		t.Fatalf("metadata lookups = %d, want 1", source.calls)
	}
}

func TestResolveFallsBackOnMetadataError(t *testing.T) {
	source := &fakeMetadataSource{err: errors.New("network down")}
	r := NewResolver(source, nil)

	pair, err := r.Resolve(context.Background(), "SOLUSDT")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	want := core.AssetPair{Base: "SOL", Quote: "USDT"}
	if pair != want {
		t.Fatalf("Resolve() = %+v, want %+v", pair, want)
	}
}

func TestResolveFallsBackOnIncompleteMetadata(t *testing.T) {
	source := &fakeMetadataSource{
		rules: exchange.SymbolRules{Symbol: "BTCUSDT", BaseAsset: "BTC"},
	}
	r := NewResolver(source, nil)

	pair, err := r.Resolve(context.Background(), "BTCUSDT")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	want := core.AssetPair{Base: "BTC", Quote: "USDT"}
	if pair != want {
		t.Fatalf("Resolve() = %+v, want %+v", pair, want)
	}
}

func TestResolveEmptySymbol(t *testing.T) {
	r := NewResolver(nil, nil)

	_, err := r.Resolve(context.Background(), "   ")
	var invalid *core.InvalidSymbolError
	if !errors.As(err, &invalid) {
		t.Fatalf("Resolve() error = %v, want InvalidSymbolError", err)
	}
}

func TestHeuristicPair(t *testing.T) {
	cases := []struct {
		symbol string
		want   core.AssetPair
	}{
		{"BTCUSDT", core.AssetPair{Base: "BTC", Quote: "USDT"}},
		{"DOGEUSDT", core.AssetPair{Base: "DOGE", Quote: "USDT"}},
		// Non-USDT pairs mis-parse under the suffix rule.
		{"BTCETH", core.AssetPair{Base: "BTC", Quote: "USDT"}},
		{"ETHBTC", core.AssetPair{Base: "ETH", Quote: "USDT"}},
		{"BNB", core.AssetPair{Base: "", Quote: "USDT"}},
	}
	for _, tc := range cases {
		if got := HeuristicPair(tc.symbol); got != tc.want {
			t.Fatalf("HeuristicPair(%q) = %+v, want %+v", tc.symbol, got, tc.want)
		}
	}
}

func TestHeuristicPairReconstructsUSDTSymbols(t *testing.T) {
	for _, symbol := range []string{"BTCUSDT", "ETHUSDT", "SHIBUSDT", "1000PEPEUSDT"} {
		pair := HeuristicPair(symbol)
		if pair.Quote != "USDT" {
			t.Fatalf("HeuristicPair(%q).Quote = %q, want USDT", symbol, pair.Quote)
		}
		if pair.Symbol() != symbol {
			t.Fatalf("Symbol() round trip = %q, want %q", pair.Symbol(), symbol)
		}
	}
}
