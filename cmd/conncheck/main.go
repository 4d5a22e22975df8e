package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"spot-trader/internal/config"
	"spot-trader/internal/exchange/binance"
)

type checkStatus string

const (
	statusPass checkStatus = "PASS"
	statusFail checkStatus = "FAIL"
)

type checkResult struct {
	Name       string      `json:"name"`
	Status     checkStatus `json:"status"`
	DurationMs int64       `json:"duration_ms"`
	Detail     string      `json:"detail,omitempty"`
	Error      string      `json:"error,omitempty"`
}

type report struct {
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
	Mode       config.Mode   `json:"mode"`
	Symbol     string        `json:"symbol"`
	Checks     []checkResult `json:"checks"`
}

func main() {
	var (
		configPath   string
		symbol       string
		timeoutSec   int
		outJSONPath  string
		allowLiveRun bool
	)
	flag.StringVar(&configPath, "config", "", "config yaml path (optional, env-only when empty)")
	flag.StringVar(&symbol, "symbol", "", "symbol to probe (default: configured default symbol)")
	flag.IntVar(&timeoutSec, "timeout-sec", 60, "total timeout seconds")
	flag.StringVar(&outJSONPath, "out-json", "", "optional output report path")
	flag.BoolVar(&allowLiveRun, "allow-live", false, "allow running checks when mode=live")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load(configPath)
	if err != nil {
		fatal(err.Error())
	}
	if cfg.Mode == config.ModeLive && !allowLiveRun {
		fatal("mode=live blocked by default; set -allow-live=true to continue")
	}
	if symbol == "" {
		symbol = cfg.DefaultSymbol
	}
	symbol = strings.ToUpper(strings.TrimSpace(symbol))

	if timeoutSec < 10 {
		timeoutSec = 10
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeoutSec)*time.Second)
	defer cancel()

	client, err := binance.NewClient(cfg.Exchange)
	if err != nil {
		fatal(err.Error())
	}
	defer client.Close()

	r := report{
		StartedAt: time.Now().UTC(),
		Mode:      cfg.Mode,
		Symbol:    symbol,
	}

	run := func(name string, fn func() (string, error)) {
		start := time.Now()
		detail, err := fn()
		cr := checkResult{
			Name:       name,
			DurationMs: time.Since(start).Milliseconds(),
			Detail:     detail,
		}
		if err != nil {
			cr.Status = statusFail
			cr.Error = err.Error()
		} else {
			cr.Status = statusPass
		}
		r.Checks = append(r.Checks, cr)
		if cr.Status == statusPass {
			fmt.Printf("[PASS] %s (%dms)", name, cr.DurationMs)
			if cr.Detail != "" {
				fmt.Printf(" - %s", cr.Detail)
			}
			fmt.Println()
		} else {
			fmt.Printf("[FAIL] %s (%dms) - %s\n", name, cr.DurationMs, cr.Error)
		}
	}

	run("server_time", func() (string, error) {
		serverTime, err := client.ServerTime(ctx)
		if err != nil {
			return "", err
		}
		drift := time.Since(serverTime).Round(time.Millisecond)
		return fmt.Sprintf("server_time=%s local_drift=%s", serverTime.UTC().Format(time.RFC3339), drift), nil
	})

	run("account_access", func() (string, error) {
		snapshot, err := client.AccountBalances(ctx)
		if err != nil {
			return "", err
		}
		nonZero := 0
		for _, b := range snapshot {
			if b.Total().Sign() > 0 {
				nonZero++
			}
		}
		return fmt.Sprintf("assets=%d non_zero=%d", len(snapshot), nonZero), nil
	})

	run("symbol_metadata", func() (string, error) {
		rules, err := client.SymbolMetadata(ctx, symbol)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("base=%s quote=%s minQty=%s minNotional=%s",
			rules.BaseAsset, rules.QuoteAsset, rules.MinQty.String(), rules.MinNotional.String()), nil
	})

	run("ticker_price", func() (string, error) {
		price, err := client.Price(ctx, symbol)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("price=%s", price.String()), nil
	})

	r.FinishedAt = time.Now().UTC()
	printSummary(r)

	if outJSONPath != "" {
		if err := writeReport(outJSONPath, r); err != nil {
			fatal(err.Error())
		}
		fmt.Printf("report written: %s\n", outJSONPath)
	}

	for _, c := range r.Checks {
		if c.Status == statusFail {
			os.Exit(1)
		}
	}
}

func printSummary(r report) {
	pass := 0
	fail := 0
	for _, c := range r.Checks {
		if c.Status == statusPass {
			pass++
		} else {
			fail++
		}
	}
	fmt.Printf("\nsummary mode=%s symbol=%s pass=%d fail=%d duration=%s\n",
		r.Mode,
		r.Symbol,
		pass,
		fail,
		r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond).String(),
	)
}

func writeReport(path string, r report) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func fatal(msg string) {
	fmt.Fprintln(os.Stderr, strings.TrimSpace(msg))
	os.Exit(1)
}
