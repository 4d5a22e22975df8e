// Package report renders order outcomes for the CLI and TUI. It holds no
// business logic; it exists because the presentation layers share one stable
// summary format.
package report

import (
	"fmt"
	"strings"

	"spot-trader/internal/core"
)

const innerWidth = 86

// Summary renders an outcome into a fixed-width tabular block. It is a pure
// function of the outcome: the same input always yields the same text.
func Summary(o core.OrderOutcome) string {
	price := "N/A"
	if o.Price.Sign() > 0 {
		price = o.Price.String()
	}
	submitted := "N/A"
	if !o.Time.IsZero() {
		submitted = o.Time.UTC().Format("2006-01-02 15:04:05 UTC")
	}

	var b strings.Builder
	b.WriteString("╔" + strings.Repeat("═", innerWidth) + "╗\n")
	b.WriteString(row(center("ORDER SUMMARY")))
	b.WriteString("╠" + strings.Repeat("═", innerWidth) + "╣\n")
	b.WriteString(pairRow(fmt.Sprintf("Order ID: %d", o.OrderID), "Status: "+string(o.Status)))
	b.WriteString(pairRow("Symbol: "+o.Symbol, "Side: "+string(o.Side)))
	b.WriteString(pairRow("Type: "+string(o.Type), "Quantity: "+o.Qty.String()))
	b.WriteString(pairRow("Price: "+price, "Filled: "+o.ExecutedQty.String()))
	b.WriteString(row("Time: " + submitted))
	b.WriteString("╚" + strings.Repeat("═", innerWidth) + "╝")
	return b.String()
}

func row(content string) string {
	return fmt.Sprintf("║ %-*s ║\n", innerWidth-2, clip(content, innerWidth-2))
}

func pairRow(left, right string) string {
	half := (innerWidth - 5) / 2
	return fmt.Sprintf("║ %-*s │ %-*s ║\n", half, clip(left, half), innerWidth-5-half, clip(right, innerWidth-5-half))
}

func center(s string) string {
	pad := (innerWidth - 2 - len([]rune(s))) / 2
	if pad < 0 {
		pad = 0
	}
	return strings.Repeat(" ", pad) + s
}

// clip counts runes, matching fmt's width handling, so multi-byte content
// never breaks the box alignment.
func clip(s string, width int) string {
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	return string(runes[:width])
}
