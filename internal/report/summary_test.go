package report

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"spot-trader/internal/core"
)

func TestSummaryDeterministic(t *testing.T) {
	outcome := core.OrderOutcome{
		OrderID:     12345,
		Status:      core.OrderFilled,
		Symbol:      "BTCUSDT",
		Side:        core.Buy,
		Type:        core.Market,
		Qty:         decimal.RequireFromString("0.001"),
		ExecutedQty: decimal.RequireFromString("0.001"),
		Price:       decimal.RequireFromString("50000"),
		Time:        time.Date(2024, 5, 1, 12, 30, 45, 0, time.UTC),
	}

	first := Summary(outcome)
	second := Summary(outcome)
	if first != second {
		t.Fatalf("Summary() is not deterministic:\n%s\n---\n%s", first, second)
	}
	for _, want := range []string{"12345", "BTCUSDT", "FILLED", "2024-05-01 12:30:45 UTC"} {
		if !strings.Contains(first, want) {
			t.Fatalf("Summary() missing %q:\n%s", want, first)
		}
	}
}

func TestSummaryZeroPriceShowsNA(t *testing.T) {
	outcome := core.OrderOutcome{
		OrderID: 7,
		Status:  core.OrderNew,
		Symbol:  "ETHUSDT",
		Side:    core.Sell,
		Type:    core.Market,
		Qty:     decimal.RequireFromString("1"),
	}

	got := Summary(outcome)
	if !strings.Contains(got, "Price: N/A") {
		t.Fatalf("Summary() should show N/A for zero price:\n%s", got)
	}
	if !strings.Contains(got, "Time: N/A") {
		t.Fatalf("Summary() should show N/A for zero time:\n%s", got)
	}
}

func TestSummaryLinesAligned(t *testing.T) {
	outcome := core.OrderOutcome{
		OrderID: 999999999,
		Status:  core.OrderPartiallyFilled,
		Symbol:  "VERYLONGSYMBOLUSDT",
		Side:    core.Buy,
		Type:    core.TakeProfitMarket,
		Qty:     decimal.RequireFromString("123456.789"),
		Price:   decimal.RequireFromString("0.00000001"),
		Time:    time.Now(),
	}

	lines := strings.Split(Summary(outcome), "\n")
	if len(lines) < 4 {
		t.Fatalf("unexpected summary shape: %d lines", len(lines))
	}
	width := len([]rune(lines[0]))
	for i, line := range lines {
		if got := len([]rune(line)); got != width {
			t.Fatalf("line %d width = %d, want %d:\n%s", i, got, width, line)
		}
	}
}

func TestSummaryMultiByteContentStaysAligned(t *testing.T) {
	outcome := core.OrderOutcome{
		OrderID: 1,
		Status:  "ОТМЕНЁН",
		Symbol:  strings.Repeat("币", 60),
		Side:    core.Sell,
		Type:    core.Limit,
		Qty:     decimal.RequireFromString("1"),
		Price:   decimal.RequireFromString("10"),
	}

	lines := strings.Split(Summary(outcome), "\n")
	width := len([]rune(lines[0]))
	for i, line := range lines {
		if got := len([]rune(line)); got != width {
			t.Fatalf("line %d width = %d, want %d:\n%s", i, got, width, line)
		}
	}
}
