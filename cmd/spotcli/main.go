package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"spot-trader/internal/alert"
	"spot-trader/internal/config"
	"spot-trader/internal/core"
	"spot-trader/internal/exchange/binance"
	"spot-trader/internal/logging"
	"spot-trader/internal/trader"
)

const opTimeout = 30 * time.Second

func main() {
	var (
		configPath  string
		symbol      string
		side        string
		orderType   string
		quantity    string
		price       string
		stopPrice   string
		interactive bool
	)
	flag.StringVar(&configPath, "config", "", "config yaml path (optional; env-only setup works)")
	flag.StringVar(&symbol, "symbol", "", "trading symbol, e.g. BTCUSDT")
	flag.StringVar(&side, "side", "", "BUY or SELL")
	flag.StringVar(&orderType, "type", "", "MARKET, LIMIT, STOP, STOP_MARKET, TAKE_PROFIT, TAKE_PROFIT_MARKET")
	flag.StringVar(&quantity, "quantity", "", "order quantity")
	flag.StringVar(&price, "price", "", "price (LIMIT and STOP orders)")
	flag.StringVar(&stopPrice, "stop-price", "", "stop price (stop and take-profit orders)")
	flag.BoolVar(&interactive, "interactive", false, "run the interactive shell")
	flag.Parse()

	// .env is optional; absence is not an error.
	_ = godotenv.Load()

	cfg, err := config.Load(configPath)
	if err != nil {
		fatal(err.Error())
	}
	log, err := logging.New(cfg.Logging)
	if err != nil {
		fatal(err.Error())
	}
	client, err := binance.NewClient(cfg.Exchange)
	if err != nil {
		fatal(err.Error())
	}
	defer client.Close()

	var alerts *alert.Manager
	if cfg.Alerts.Telegram.Enabled {
		notifier := alert.NewTelegramNotifier(
			true,
			cfg.Alerts.Telegram.BotToken,
			cfg.Alerts.Telegram.ChatID,
			cfg.Alerts.Telegram.APIBaseURL,
			time.Duration(cfg.Alerts.Telegram.TimeoutSec)*time.Second,
		)
		alerts = alert.NewManager(string(cfg.Mode), notifier, log)
		defer func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := alerts.Close(closeCtx); err != nil {
				fmt.Fprintf(os.Stderr, "close alert manager failed: %v\n", err)
			}
		}()
	}

	bot := trader.New(client, log, alerts)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if interactive || symbol == "" {
		runShell(ctx, bot, cfg)
		return
	}
	runSingleOrder(ctx, bot, symbol, side, orderType, quantity, price, stopPrice)
}

func runSingleOrder(ctx context.Context, bot *trader.Trader, symbol, side, orderType, quantity, price, stopPrice string) {
	if side == "" || orderType == "" || quantity == "" {
		fatal("symbol, side, type, and quantity are required; use -interactive for the shell")
	}
	qty, err := decimal.NewFromString(quantity)
	if err != nil {
		fatal("invalid quantity: " + quantity)
	}
	intent := core.OrderIntent{
		Symbol: symbol,
		Side:   core.Side(side),
		Type:   core.OrderType(orderType),
		Qty:    qty,
	}
	if price != "" {
		if intent.Price, err = decimal.NewFromString(price); err != nil {
			fatal("invalid price: " + price)
		}
	}
	if stopPrice != "" {
		if intent.StopPrice, err = decimal.NewFromString(stopPrice); err != nil {
			fatal("invalid stop price: " + stopPrice)
		}
	}

	opCtx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	outcome, err := bot.PlaceOrder(opCtx, intent)
	if err != nil {
		fatal("order failed: " + err.Error())
	}
	fmt.Println("ORDER PLACED SUCCESSFULLY")
	fmt.Println(bot.FormatOrderSummary(outcome))
}

func runShell(ctx context.Context, bot *trader.Trader, cfg config.Config) {
	printBanner(cfg.Mode)
	printHelp()

	reader := bufio.NewReader(os.Stdin)
	for {
		if ctx.Err() != nil {
			return
		}
		fmt.Print("\nEnter command: ")
		line, err := reader.ReadString('\n')
		if err != nil {
			fmt.Println("\nGoodbye!")
			return
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "exit", "quit":
			fmt.Println("Goodbye!")
			return
		case "help":
			printHelp()
		case "place":
			placeOrderInteractive(ctx, bot, reader)
		case "balance":
			showBalance(ctx, bot)
		case "holdings", "positions":
			showHoldings(ctx, bot)
		case "orders":
			showOrders(ctx, bot)
		case "cancel":
			cancelOrderInteractive(ctx, bot, reader)
		case "price":
			getPriceInteractive(ctx, bot, reader)
		case "":
		default:
			fmt.Println("Unknown command. Type 'help' for available commands.")
		}
	}
}

func printBanner(mode config.Mode) {
	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("  BINANCE SPOT TRADING BOT (%s mode)\n", strings.ToUpper(string(mode)))
	if mode == config.ModeTestnet {
		fmt.Println("  Testnet only: no real money involved.")
	}
	fmt.Println(strings.Repeat("=", 60))
}

func printHelp() {
	fmt.Println(`
Available commands:
  place     - place a new order
  balance   - show account balance
  holdings  - show non-zero asset holdings
  orders    - show open orders
  cancel    - cancel an open order
  price     - show current price for a symbol
  help      - show this message
  exit      - quit`)
}

func placeOrderInteractive(ctx context.Context, bot *trader.Trader, reader *bufio.Reader) {
	symbol := prompt(reader, "Enter symbol (e.g. BTCUSDT): ")
	if symbol == "" {
		return
	}

	opCtx, cancel := context.WithTimeout(ctx, opTimeout)
	if price, err := bot.CurrentPrice(opCtx, symbol); err == nil {
		fmt.Printf("Current price for %s: %s\n", strings.ToUpper(symbol), price)
	} else {
		fmt.Printf("Warning: could not get current price: %v\n", err)
	}
	cancel()

	side := strings.ToUpper(prompt(reader, "Side (BUY/SELL): "))
	orderType := strings.ToUpper(prompt(reader, "Type (MARKET/LIMIT/STOP/STOP_MARKET/TAKE_PROFIT/TAKE_PROFIT_MARKET): "))
	qty, ok := promptDecimal(reader, "Quantity: ")
	if !ok {
		return
	}
	intent := core.OrderIntent{
		Symbol: symbol,
		Side:   core.Side(side),
		Type:   core.OrderType(orderType),
		Qty:    qty,
	}
	if intent.Type.RequiresPrice() {
		if intent.Price, ok = promptDecimal(reader, "Price: "); !ok {
			return
		}
	}
	if intent.Type.RequiresStopPrice() {
		if intent.StopPrice, ok = promptDecimal(reader, "Stop price: "); !ok {
			return
		}
	}

	fmt.Println(strings.Repeat("-", 40))
	fmt.Printf("Symbol:   %s\nSide:     %s\nType:     %s\nQuantity: %s\n", strings.ToUpper(symbol), side, orderType, qty)
	if intent.Price.Sign() > 0 {
		fmt.Printf("Price:    %s\n", intent.Price)
	}
	if intent.StopPrice.Sign() > 0 {
		fmt.Printf("Stop:     %s\n", intent.StopPrice)
	}
	fmt.Println(strings.Repeat("-", 40))
	if !strings.EqualFold(prompt(reader, "Confirm order? (y/n): "), "y") {
		fmt.Println("Order cancelled.")
		return
	}

	fmt.Println("Placing order...")
	opCtx, cancel = context.WithTimeout(ctx, opTimeout)
	defer cancel()
	outcome, err := bot.PlaceOrder(opCtx, intent)
	if err != nil {
		fmt.Printf("ORDER FAILED: %v\n", err)
		return
	}
	fmt.Println("ORDER PLACED SUCCESSFULLY")
	fmt.Println(bot.FormatOrderSummary(outcome))
}

func showBalance(ctx context.Context, bot *trader.Trader) {
	opCtx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	balances, err := bot.AccountBalances(opCtx)
	if err != nil {
		fmt.Printf("Error getting balance: %v\n", err)
		return
	}
	fmt.Println("\nACCOUNT BALANCE")
	any := false
	for _, b := range balances {
		if b.Total().Sign() <= 0 {
			continue
		}
		any = true
		fmt.Printf("%-8s total=%s free=%s locked=%s\n", b.Asset, b.Total(), b.Free, b.Locked)
	}
	if !any {
		fmt.Println("No assets with balance.")
	}
}

func showHoldings(ctx context.Context, bot *trader.Trader) {
	opCtx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	holdings, err := bot.Holdings(opCtx)
	if err != nil {
		fmt.Printf("Error getting holdings: %v\n", err)
		return
	}
	fmt.Println("\nCURRENT HOLDINGS")
	if len(holdings) == 0 {
		fmt.Println("No assets held.")
		return
	}
	for _, h := range holdings {
		fmt.Printf("%-8s total=%s free=%s locked=%s\n", h.Asset, h.Total, h.Free, h.Locked)
	}
}

func showOrders(ctx context.Context, bot *trader.Trader) {
	opCtx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	orders, err := bot.OpenOrders(opCtx, "")
	if err != nil {
		fmt.Printf("Error getting orders: %v\n", err)
		return
	}
	fmt.Println("\nOPEN ORDERS")
	if len(orders) == 0 {
		fmt.Println("No open orders.")
		return
	}
	for _, o := range orders {
		fmt.Printf("id=%d %s %s %s qty=%s price=%s status=%s\n",
			o.OrderID, o.Symbol, o.Side, o.Type, o.Qty, priceOrNA(o), o.Status)
	}
}

func cancelOrderInteractive(ctx context.Context, bot *trader.Trader, reader *bufio.Reader) {
	opCtx, cancel := context.WithTimeout(ctx, opTimeout)
	orders, err := bot.OpenOrders(opCtx, "")
	cancel()
	if err != nil {
		fmt.Printf("Error getting orders: %v\n", err)
		return
	}
	if len(orders) == 0 {
		fmt.Println("No open orders to cancel.")
		return
	}
	for i, o := range orders {
		fmt.Printf("%d. id=%d %s %s %s qty=%s\n", i+1, o.OrderID, o.Symbol, o.Side, o.Type, o.Qty)
	}
	choiceStr := prompt(reader, "Order number to cancel (0 to go back): ")
	choice, err := strconv.Atoi(choiceStr)
	if err != nil || choice < 0 || choice > len(orders) {
		fmt.Println("Invalid choice.")
		return
	}
	if choice == 0 {
		return
	}
	target := orders[choice-1]
	if !strings.EqualFold(prompt(reader, fmt.Sprintf("Cancel order %d? (y/n): ", target.OrderID)), "y") {
		fmt.Println("Cancellation aborted.")
		return
	}
	opCtx, cancel = context.WithTimeout(ctx, opTimeout)
	defer cancel()
	if _, err := bot.CancelOrder(opCtx, target.Symbol, target.OrderID); err != nil {
		fmt.Printf("Error cancelling order: %v\n", err)
		return
	}
	fmt.Printf("Order %d cancelled successfully.\n", target.OrderID)
}

func getPriceInteractive(ctx context.Context, bot *trader.Trader, reader *bufio.Reader) {
	symbol := prompt(reader, "Enter symbol (e.g. BTCUSDT): ")
	if symbol == "" {
		return
	}
	opCtx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	price, err := bot.CurrentPrice(opCtx, symbol)
	if err != nil {
		fmt.Printf("Error getting price: %v\n", err)
		return
	}
	fmt.Printf("Current price for %s: %s\n", strings.ToUpper(symbol), price)
}

func prompt(reader *bufio.Reader, label string) string {
	fmt.Print(label)
	line, err := reader.ReadString('\n')
	if err != nil {
		return ""
	}
	return strings.TrimSpace(line)
}

func promptDecimal(reader *bufio.Reader, label string) (decimal.Decimal, bool) {
	raw := prompt(reader, label)
	value, err := decimal.NewFromString(raw)
	if err != nil {
		fmt.Printf("Invalid number: %q\n", raw)
		return decimal.Zero, false
	}
	return value, true
}

func priceOrNA(o core.OrderOutcome) string {
	if o.Price.Sign() <= 0 {
		return "N/A"
	}
	return o.Price.String()
}

func fatal(msg string) {
	fmt.Fprintln(os.Stderr, strings.TrimSpace(msg))
	os.Exit(1)
}
