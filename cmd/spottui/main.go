// Command spottui is a full-screen dashboard for the spot trading bot: an
// order form, a live price readout, and balance and open-order views. Every
// network call runs as a tea.Cmd so the UI never blocks on the exchange.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"spot-trader/internal/config"
	"spot-trader/internal/core"
	"spot-trader/internal/exchange/binance"
	"spot-trader/internal/logging"
	"spot-trader/internal/trader"
)

const opTimeout = 30 * time.Second

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)

	paneStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("238")).
			Padding(0, 1)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("244"))

	focusStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205"))

	okStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("2"))

	errStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("1"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))
)

type view int

const (
	viewForm view = iota
	viewBalances
	viewOrders
)

// Form field indexes. Side and type cycle with left/right, the rest are text.
const (
	fieldSymbol = iota
	fieldSide
	fieldType
	fieldQty
	fieldPrice
	fieldStop
	fieldCount
)

type model struct {
	ctx    context.Context
	cancel context.CancelFunc

	bot    *trader.Trader
	client *binance.Client
	log    logrus.FieldLogger
	mode   config.Mode

	width  int
	height int
	view   view

	fields    [fieldCount]string
	sideIdx   int
	typeIdx   int
	focus     int
	confirm   bool
	busy      bool
	status    string
	statusErr bool
	summary   string
	events    []string

	feedSymbol string
	feed       *binance.PriceFeed
	ticks      <-chan binance.PriceTick
	feedErrs   <-chan error
	price      decimal.Decimal
	priceTime  time.Time

	balances []core.AssetHolding
	orders   []core.OrderOutcome
	orderSel int
}

type priceTickMsg binance.PriceTick

type feedConnectedMsg struct {
	symbol string
	feed   *binance.PriceFeed
	ticks  <-chan binance.PriceTick
	errs   <-chan error
}

type feedFailedMsg struct {
	symbol string
	err    error
}

type balancesMsg struct {
	holdings []core.AssetHolding
	err      error
}

type ordersMsg struct {
	orders []core.OrderOutcome
	err    error
}

type orderPlacedMsg struct {
	outcome core.OrderOutcome
	summary string
	err     error
}

type orderCanceledMsg struct {
	orderID int64
	err     error
}

type reconnectFeedMsg struct{}

func initialModel(bot *trader.Trader, client *binance.Client, log logrus.FieldLogger, cfg config.Config) model {
	ctx, cancel := context.WithCancel(context.Background())
	m := model{
		ctx:     ctx,
		cancel:  cancel,
		bot:     bot,
		client:  client,
		log:     log,
		mode:    cfg.Mode,
		typeIdx: 1, // LIMIT
	}
	m.fields[fieldSymbol] = cfg.DefaultSymbol
	m.fields[fieldQty] = cfg.DefaultQty.String()
	m.feedSymbol = cfg.DefaultSymbol
	return m
}

func (m model) Init() tea.Cmd {
	return tea.Batch(
		connectFeedCmd(m.ctx, m.client, m.feedSymbol),
		loadBalancesCmd(m.ctx, m.bot),
	)
}

func connectFeedCmd(ctx context.Context, client *binance.Client, symbol string) tea.Cmd {
	return func() tea.Msg {
		dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		feed, err := client.NewPriceFeed(dialCtx, symbol)
		if err != nil {
			return feedFailedMsg{symbol: symbol, err: err}
		}
		ticks, errs := feed.Ticks(ctx)
		return feedConnectedMsg{symbol: symbol, feed: feed, ticks: ticks, errs: errs}
	}
}

func waitTickCmd(ticks <-chan binance.PriceTick, errs <-chan error) tea.Cmd {
	return func() tea.Msg {
		select {
		case tick, ok := <-ticks:
			if !ok {
				return feedFailedMsg{err: fmt.Errorf("price stream closed")}
			}
			return priceTickMsg(tick)
		case err, ok := <-errs:
			if ok && err != nil {
				return feedFailedMsg{err: err}
			}
			return feedFailedMsg{err: fmt.Errorf("price stream closed")}
		}
	}
}

func loadBalancesCmd(ctx context.Context, bot *trader.Trader) tea.Cmd {
	return func() tea.Msg {
		opCtx, cancel := context.WithTimeout(ctx, opTimeout)
		defer cancel()
		holdings, err := bot.Holdings(opCtx)
		return balancesMsg{holdings: holdings, err: err}
	}
}

func loadOrdersCmd(ctx context.Context, bot *trader.Trader) tea.Cmd {
	return func() tea.Msg {
		opCtx, cancel := context.WithTimeout(ctx, opTimeout)
		defer cancel()
		orders, err := bot.OpenOrders(opCtx, "")
		return ordersMsg{orders: orders, err: err}
	}
}

func placeOrderCmd(ctx context.Context, bot *trader.Trader, intent core.OrderIntent) tea.Cmd {
	return func() tea.Msg {
		opCtx, cancel := context.WithTimeout(ctx, opTimeout)
		defer cancel()
		outcome, err := bot.PlaceOrder(opCtx, intent)
		if err != nil {
			return orderPlacedMsg{err: err}
		}
		return orderPlacedMsg{outcome: outcome, summary: bot.FormatOrderSummary(outcome)}
	}
}

func cancelOrderCmd(ctx context.Context, bot *trader.Trader, symbol string, orderID int64) tea.Cmd {
	return func() tea.Msg {
		opCtx, cancel := context.WithTimeout(ctx, opTimeout)
		defer cancel()
		_, err := bot.CancelOrder(opCtx, symbol, orderID)
		return orderCanceledMsg{orderID: orderID, err: err}
	}
}

func reconnectLaterCmd() tea.Cmd {
	return tea.Tick(5*time.Second, func(time.Time) tea.Msg { return reconnectFeedMsg{} })
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case feedConnectedMsg:
		if m.feed != nil && m.feed != msg.feed {
			_ = m.feed.Close()
		}
		m.feed = msg.feed
		m.ticks = msg.ticks
		m.feedErrs = msg.errs
		m.feedSymbol = msg.symbol
		return m, waitTickCmd(m.ticks, m.feedErrs)

	case feedFailedMsg:
		m.price = decimal.Zero
		if msg.err != nil && m.ctx.Err() == nil {
			m.log.WithError(msg.err).Warn("price stream lost")
		}
		return m, reconnectLaterCmd()

	case reconnectFeedMsg:
		if m.ctx.Err() != nil {
			return m, nil
		}
		return m, connectFeedCmd(m.ctx, m.client, m.feedSymbol)

	case priceTickMsg:
		m.price = msg.Price
		m.priceTime = msg.Time
		return m, waitTickCmd(m.ticks, m.feedErrs)

	case balancesMsg:
		if msg.err != nil {
			m.setStatus("balances: "+msg.err.Error(), true)
		} else {
			m.balances = msg.holdings
		}
		return m, nil

	case ordersMsg:
		if msg.err != nil {
			m.setStatus("orders: "+msg.err.Error(), true)
		} else {
			m.orders = msg.orders
			if m.orderSel >= len(m.orders) {
				m.orderSel = 0
			}
		}
		return m, nil

	case orderPlacedMsg:
		m.busy = false
		if msg.err != nil {
			m.setStatus(msg.err.Error(), true)
			return m, nil
		}
		m.summary = msg.summary
		m.setStatus(fmt.Sprintf("order %d placed, status %s", msg.outcome.OrderID, msg.outcome.Status), false)
		return m, tea.Batch(loadBalancesCmd(m.ctx, m.bot), loadOrdersCmd(m.ctx, m.bot))

	case orderCanceledMsg:
		m.busy = false
		if msg.err != nil {
			m.setStatus(msg.err.Error(), true)
			return m, nil
		}
		m.setStatus(fmt.Sprintf("order %d canceled", msg.orderID), false)
		return m, loadOrdersCmd(m.ctx, m.bot)
	}
	return m, nil
}

const maxEvents = 6

func (m *model) setStatus(s string, isErr bool) {
	m.status = s
	m.statusErr = isErr
	m.events = append(m.events, time.Now().Format("15:04:05")+"  "+s)
	if len(m.events) > maxEvents {
		m.events = m.events[len(m.events)-maxEvents:]
	}
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m.quit()
	case "f1":
		m.view = viewForm
		return m, nil
	case "f2":
		m.view = viewBalances
		return m, loadBalancesCmd(m.ctx, m.bot)
	case "f3":
		m.view = viewOrders
		return m, loadOrdersCmd(m.ctx, m.bot)
	}

	switch m.view {
	case viewForm:
		return m.handleFormKey(msg)
	case viewBalances:
		if msg.String() == "r" {
			return m, loadBalancesCmd(m.ctx, m.bot)
		}
		if msg.String() == "q" || msg.String() == "esc" {
			m.view = viewForm
		}
	case viewOrders:
		return m.handleOrdersKey(msg)
	}
	return m, nil
}

func (m model) quit() (tea.Model, tea.Cmd) {
	if m.feed != nil {
		_ = m.feed.Close()
	}
	m.cancel()
	return m, tea.Quit
}

func (m model) handleFormKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.confirm {
		switch msg.String() {
		case "y", "Y", "enter":
			m.confirm = false
			intent, err := m.buildIntent()
			if err != nil {
				m.setStatus(err.Error(), true)
				return m, nil
			}
			m.busy = true
			m.summary = ""
			m.setStatus("placing order...", false)
			return m, placeOrderCmd(m.ctx, m.bot, intent)
		default:
			m.confirm = false
			m.setStatus("order not sent", false)
			return m, nil
		}
	}

	switch msg.String() {
	case "q", "esc":
		if msg.String() == "q" && m.editingTextField() {
			break // fall through to text input
		}
		return m.quit()
	case "tab", "down":
		return m.moveFocus(1)
	case "shift+tab", "up":
		return m.moveFocus(-1)
	case "left":
		m.cycleEnum(-1)
		return m, nil
	case "right":
		m.cycleEnum(1)
		return m, nil
	case "enter":
		if m.busy {
			return m, nil
		}
		if _, err := m.buildIntent(); err != nil {
			m.setStatus(err.Error(), true)
			return m, nil
		}
		m.confirm = true
		return m, nil
	case "backspace":
		if m.editingTextField() {
			f := m.fields[m.focus]
			if len(f) > 0 {
				m.fields[m.focus] = f[:len(f)-1]
			}
		}
		return m, nil
	}

	if m.editingTextField() && msg.Type == tea.KeyRunes {
		for _, r := range msg.Runes {
			if isFieldRune(m.focus, r) {
				m.fields[m.focus] += string(r)
			}
		}
	}
	return m, nil
}

// moveFocus advances the field cursor; leaving the symbol field with a new
// value re-points the price stream at it.
func (m model) moveFocus(delta int) (tea.Model, tea.Cmd) {
	leavingSymbol := m.focus == fieldSymbol
	m.focus = (m.focus + delta + fieldCount) % fieldCount

	if leavingSymbol {
		symbol := strings.ToUpper(strings.TrimSpace(m.fields[fieldSymbol]))
		m.fields[fieldSymbol] = symbol
		if symbol != "" && symbol != m.feedSymbol {
			m.feedSymbol = symbol
			m.price = decimal.Zero
			return m, connectFeedCmd(m.ctx, m.client, symbol)
		}
	}
	return m, nil
}

func (m *model) cycleEnum(delta int) {
	switch m.focus {
	case fieldSide:
		m.sideIdx = (m.sideIdx + delta + len(core.Sides)) % len(core.Sides)
	case fieldType:
		m.typeIdx = (m.typeIdx + delta + len(core.OrderTypes)) % len(core.OrderTypes)
	}
}

func (m model) editingTextField() bool {
	return m.focus != fieldSide && m.focus != fieldType
}

func isFieldRune(field int, r rune) bool {
	if field == fieldSymbol {
		return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
	}
	return (r >= '0' && r <= '9') || r == '.'
}

func (m model) buildIntent() (core.OrderIntent, error) {
	intent := core.OrderIntent{
		Symbol: m.fields[fieldSymbol],
		Side:   core.Sides[m.sideIdx],
		Type:   core.OrderTypes[m.typeIdx],
	}
	qty, err := decimal.NewFromString(strings.TrimSpace(m.fields[fieldQty]))
	if err != nil {
		return core.OrderIntent{}, fmt.Errorf("invalid quantity %q", m.fields[fieldQty])
	}
	intent.Qty = qty
	if raw := strings.TrimSpace(m.fields[fieldPrice]); raw != "" {
		if intent.Price, err = decimal.NewFromString(raw); err != nil {
			return core.OrderIntent{}, fmt.Errorf("invalid price %q", raw)
		}
	}
	if raw := strings.TrimSpace(m.fields[fieldStop]); raw != "" {
		if intent.StopPrice, err = decimal.NewFromString(raw); err != nil {
			return core.OrderIntent{}, fmt.Errorf("invalid stop price %q", raw)
		}
	}
	return intent, nil
}

func (m model) handleOrdersKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "esc":
		m.view = viewForm
		return m, nil
	case "r":
		return m, loadOrdersCmd(m.ctx, m.bot)
	case "up", "k":
		if m.orderSel > 0 {
			m.orderSel--
		}
		return m, nil
	case "down", "j":
		if m.orderSel < len(m.orders)-1 {
			m.orderSel++
		}
		return m, nil
	case "c":
		if m.busy || m.orderSel >= len(m.orders) {
			return m, nil
		}
		target := m.orders[m.orderSel]
		m.busy = true
		m.setStatus(fmt.Sprintf("canceling order %d...", target.OrderID), false)
		return m, cancelOrderCmd(m.ctx, m.bot, target.Symbol, target.OrderID)
	}
	return m, nil
}

func (m model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf(" SPOT TRADER  [%s] ", strings.ToUpper(string(m.mode)))))
	b.WriteString("  ")
	b.WriteString(m.priceLine())
	b.WriteString("\n\n")

	switch m.view {
	case viewForm:
		b.WriteString(m.formView())
	case viewBalances:
		b.WriteString(m.balancesView())
	case viewOrders:
		b.WriteString(m.ordersView())
	}

	b.WriteString("\n")
	if m.status != "" {
		style := okStyle
		if m.statusErr {
			style = errStyle
		}
		b.WriteString(style.Render(m.status))
		b.WriteString("\n")
	}
	if len(m.events) > 0 {
		b.WriteString(paneStyle.Render(dimStyle.Render(strings.Join(m.events, "\n"))))
		b.WriteString("\n")
	}
	b.WriteString(dimStyle.Render("F1 order  F2 balances  F3 orders  ctrl+c quit"))
	return b.String()
}

func (m model) priceLine() string {
	if m.price.Sign() <= 0 {
		return labelStyle.Render(m.feedSymbol + " connecting...")
	}
	age := ""
	if !m.priceTime.IsZero() {
		age = dimStyle.Render(fmt.Sprintf("  %s", m.priceTime.UTC().Format("15:04:05")))
	}
	return fmt.Sprintf("%s %s%s", labelStyle.Render(m.feedSymbol), m.price.String(), age)
}

func (m model) formView() string {
	labels := [fieldCount]string{"Symbol", "Side", "Type", "Quantity", "Price", "Stop price"}
	var rows []string
	for i := 0; i < fieldCount; i++ {
		value := m.fields[i]
		switch i {
		case fieldSide:
			value = "< " + string(core.Sides[m.sideIdx]) + " >"
		case fieldType:
			value = "< " + string(core.OrderTypes[m.typeIdx]) + " >"
		}
		line := fmt.Sprintf("%-11s %s", labels[i]+":", value)
		if i == m.focus {
			line = focusStyle.Render("> " + line)
		} else {
			line = "  " + line
		}
		rows = append(rows, line)
	}
	form := paneStyle.Render(strings.Join(rows, "\n"))

	hint := "tab move  left/right cycle  enter place"
	if m.confirm {
		hint = focusStyle.Render("send this order? y/n")
	} else if m.busy {
		hint = dimStyle.Render("working...")
	}

	out := form + "\n" + hint
	if m.summary != "" {
		out += "\n\n" + m.summary
	}
	return out
}

func (m model) balancesView() string {
	if len(m.balances) == 0 {
		return paneStyle.Render("no assets held") + "\n" + dimStyle.Render("r refresh  esc back")
	}
	rows := []string{labelStyle.Render(fmt.Sprintf("%-8s %16s %16s %16s", "ASSET", "TOTAL", "FREE", "LOCKED"))}
	for _, h := range m.balances {
		rows = append(rows, fmt.Sprintf("%-8s %16s %16s %16s", h.Asset, h.Total.String(), h.Free.String(), h.Locked.String()))
	}
	return paneStyle.Render(strings.Join(rows, "\n")) + "\n" + dimStyle.Render("r refresh  esc back")
}

func (m model) ordersView() string {
	if len(m.orders) == 0 {
		return paneStyle.Render("no open orders") + "\n" + dimStyle.Render("r refresh  esc back")
	}
	rows := []string{labelStyle.Render(fmt.Sprintf("%-12s %-10s %-5s %-18s %14s %14s %s", "ID", "SYMBOL", "SIDE", "TYPE", "QTY", "PRICE", "STATUS"))}
	for i, o := range m.orders {
		price := "N/A"
		if o.Price.Sign() > 0 {
			price = o.Price.String()
		}
		line := fmt.Sprintf("%-12d %-10s %-5s %-18s %14s %14s %s", o.OrderID, o.Symbol, o.Side, o.Type, o.Qty.String(), price, o.Status)
		if i == m.orderSel {
			line = focusStyle.Render(line)
		}
		rows = append(rows, line)
	}
	return paneStyle.Render(strings.Join(rows, "\n")) + "\n" + dimStyle.Render("j/k select  c cancel  r refresh  esc back")
}

func main() {
	_ = godotenv.Load()

	configPath := ""
	if len(os.Args) > 1 {
		configPath = os.Args[1]
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		fatal(err.Error())
	}
	// stderr is part of the alt screen; log to file only.
	log, err := logging.NewQuiet(cfg.Logging)
	if err != nil {
		fatal(err.Error())
	}
	client, err := binance.NewClient(cfg.Exchange)
	if err != nil {
		fatal(err.Error())
	}
	defer client.Close()

	bot := trader.New(client, log, nil)

	p := tea.NewProgram(initialModel(bot, client, log, cfg), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fatal(err.Error())
	}
}

func fatal(msg string) {
	fmt.Fprintln(os.Stderr, strings.TrimSpace(msg))
	os.Exit(1)
}
