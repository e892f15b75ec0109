package main

import (
	"context"
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/uhyunpark/orderdesk/pkg/bot"
	"github.com/uhyunpark/orderdesk/pkg/validate"
)

type menuItem struct {
	label string
	run   func(ctx context.Context) error
}

type menuSection struct {
	title string
	items []menuItem
}

func (t *trader) menu() []menuSection {
	return []menuSection{
		{"ORDER MANAGEMENT", []menuItem{
			{"Place Market Order", t.menuMarket},
			{"Place Limit Order", t.menuLimit},
			{"Place Stop-Limit Order", t.menuStopLimit},
			{"Place OCO Order", t.menuOCO},
			{"Cancel Order", t.menuCancel},
			{"Get Order Status", t.menuStatus},
			{"View Open Orders", t.menuOpen},
		}},
		{"MARKET DATA", []menuItem{
			{"Get Symbol Price", t.menuPrice},
			{"Get Symbol Info", t.menuInfo},
			{"Get Recent Trades", t.menuTrades},
			{"Get Kline Data", t.menuKlines},
		}},
		{"ACCOUNT & POSITIONS", []menuItem{
			{"Get Account Info", t.menuAccount},
			{"Get Balance", t.menuBalance},
			{"Close All Positions", t.menuCloseAll},
			{"Cancel All Orders", t.menuCancelAll},
		}},
		{"UTILITIES", []menuItem{
			{"Test Connection", t.menuPing},
			{"View Logs", func(context.Context) error { return t.showLogs(defaultLogLines) }},
		}},
	}
}

func (t *trader) printMenu(sections []menuSection) int {
	printf(t.out, "\nMAIN MENU\n")
	n := 0
	for _, s := range sections {
		printf(t.out, "\n%s\n", s.title)
		for _, it := range s.items {
			n++
			printf(t.out, "  %-3s %s\n", strconv.Itoa(n)+".", it.label)
		}
	}
	printf(t.out, "  0.  Exit\n")
	return n
}

// interactive runs the menu loop until the user exits or input ends.
// Errors from a single action are printed and the loop continues.
func (t *trader) interactive(c *cli.Context) error {
	sections := t.menu()
	var items []menuItem
	for _, s := range sections {
		items = append(items, s.items...)
	}

	for {
		n := t.printMenu(sections)
		choice, err := t.prompt("Enter your choice (0-"+strconv.Itoa(n)+")", "")
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if choice == "0" {
			printf(t.out, "goodbye\n")
			return nil
		}

		i, err := strconv.Atoi(choice)
		if err != nil || i < 1 || i > len(items) {
			printf(t.out, "invalid choice, enter a number between 0 and %d\n", n)
			continue
		}
		if err := items[i-1].run(c.Context); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			printf(t.out, "error: %v\n", err)
		}
	}
}

// prompt reads one trimmed line. def is returned for an empty answer.
func (t *trader) prompt(label, def string) (string, error) {
	if def != "" {
		printf(t.out, "%s (default: %s): ", label, def)
	} else {
		printf(t.out, "%s: ", label)
	}
	line, err := t.in.ReadString('\n')
	line = strings.TrimSpace(line)
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	if line == "" {
		return def, nil
	}
	return line, nil
}

// promptValid re-asks until ok accepts the upper-cased answer.
func (t *trader) promptValid(label, def string, ok func(string) bool) (string, error) {
	for {
		v, err := t.prompt(label, def)
		if err != nil {
			return "", err
		}
		v = strings.ToUpper(v)
		if ok(v) {
			return v, nil
		}
		printf(t.out, "invalid value: %q\n", v)
	}
}

func (t *trader) promptSymbol() (string, error) {
	return t.promptValid("Enter symbol (e.g., BTCUSDT)", "", validate.Symbol)
}

func (t *trader) promptBase() (symbol, side, qty string, err error) {
	if symbol, err = t.promptSymbol(); err != nil {
		return
	}
	if side, err = t.promptValid("Enter side (BUY/SELL)", "", validate.Side); err != nil {
		return
	}
	qty, err = t.promptValid("Enter quantity", "", validate.Quantity)
	return
}

func (t *trader) promptPrice(label string) (string, error) {
	return t.promptValid(label, "", validate.Price)
}

func (t *trader) promptTIF() (string, error) {
	v, err := t.prompt("Enter time in force (GTC/IOC/FOK)", "GTC")
	return strings.ToUpper(v), err
}

// confirm asks a yes/no question; anything but "yes" declines.
func (t *trader) confirm(question string) (bool, error) {
	v, err := t.prompt(question+" (yes/no)", "")
	if err != nil {
		return false, err
	}
	return strings.EqualFold(v, "yes"), nil
}

func (t *trader) menuMarket(context.Context) error {
	symbol, side, qty, err := t.promptBase()
	if err != nil {
		return err
	}
	r, err := t.bot.PlaceMarketOrder(symbol, side, qty)
	if err != nil {
		return err
	}
	printOrder(t.out, r)
	return nil
}

func (t *trader) menuLimit(context.Context) error {
	symbol, side, qty, err := t.promptBase()
	if err != nil {
		return err
	}
	price, err := t.promptPrice("Enter price")
	if err != nil {
		return err
	}
	tif, err := t.promptTIF()
	if err != nil {
		return err
	}
	r, err := t.bot.PlaceLimitOrder(symbol, side, qty, price, tif)
	if err != nil {
		return err
	}
	printOrder(t.out, r)
	return nil
}

func (t *trader) menuStopLimit(context.Context) error {
	symbol, side, qty, err := t.promptBase()
	if err != nil {
		return err
	}
	stop, err := t.promptPrice("Enter stop price")
	if err != nil {
		return err
	}
	limit, err := t.promptPrice("Enter limit price")
	if err != nil {
		return err
	}
	tif, err := t.promptTIF()
	if err != nil {
		return err
	}
	r, err := t.bot.PlaceStopLimitOrder(symbol, side, qty, stop, limit, tif)
	if err != nil {
		return err
	}
	printOrder(t.out, r)
	return nil
}

func (t *trader) menuOCO(context.Context) error {
	symbol, side, qty, err := t.promptBase()
	if err != nil {
		return err
	}
	price, err := t.promptPrice("Enter limit price")
	if err != nil {
		return err
	}
	stop, err := t.promptPrice("Enter stop price")
	if err != nil {
		return err
	}
	stopLimit, err := t.promptPrice("Enter stop limit price")
	if err != nil {
		return err
	}
	r, err := t.bot.PlaceOCOOrder(symbol, side, qty, price, stop, stopLimit)
	if err != nil {
		return err
	}
	printOrder(t.out, r)
	return nil
}

func (t *trader) promptOrderRef() (symbol, id string, err error) {
	if symbol, err = t.promptSymbol(); err != nil {
		return
	}
	id, err = t.prompt("Enter order ID", "")
	return
}

func (t *trader) menuCancel(context.Context) error {
	symbol, id, err := t.promptOrderRef()
	if err != nil {
		return err
	}
	r, err := t.bot.CancelOrder(symbol, id)
	if err != nil {
		return err
	}
	printOrder(t.out, r)
	return nil
}

func (t *trader) menuStatus(context.Context) error {
	symbol, id, err := t.promptOrderRef()
	if err != nil {
		return err
	}
	r, err := t.bot.OrderStatus(symbol, id)
	if err != nil {
		return err
	}
	printOrder(t.out, r)
	return nil
}

func (t *trader) menuOpen(context.Context) error {
	symbol, err := t.prompt("Enter symbol (optional, press Enter to skip)", "")
	if err != nil {
		return err
	}
	rs, err := t.bot.OpenOrders(strings.ToUpper(symbol))
	if err != nil {
		return err
	}
	printOrders(t.out, rs)
	return nil
}

func (t *trader) menuPrice(ctx context.Context) error {
	symbol, err := t.promptSymbol()
	if err != nil {
		return err
	}
	p, err := t.bot.SymbolPrice(ctx, symbol)
	if err != nil {
		return err
	}
	printPrice(t.out, p)
	return nil
}

func (t *trader) menuInfo(ctx context.Context) error {
	symbol, err := t.promptSymbol()
	if err != nil {
		return err
	}
	info, err := t.bot.SymbolInfo(ctx, symbol)
	if err != nil {
		return err
	}
	printSymbolInfo(t.out, info)
	return nil
}

func (t *trader) menuTrades(ctx context.Context) error {
	symbol, err := t.promptSymbol()
	if err != nil {
		return err
	}
	s, err := t.prompt("Enter number of trades (1-1000)", "10")
	if err != nil {
		return err
	}
	limit, err := bot.ParseLimit(s, 10)
	if err != nil {
		return err
	}
	trades, err := t.bot.RecentTrades(ctx, symbol, limit)
	if err != nil {
		return err
	}
	printTrades(t.out, trades)
	return nil
}

func (t *trader) menuKlines(ctx context.Context) error {
	symbol, err := t.promptSymbol()
	if err != nil {
		return err
	}
	interval, err := t.prompt("Enter interval (1m/3m/5m/15m/30m/1h/2h/4h/6h/8h/12h/1d/3d/1w/1M)", "1h")
	if err != nil {
		return err
	}
	s, err := t.prompt("Enter number of klines (1-1000)", "100")
	if err != nil {
		return err
	}
	limit, err := bot.ParseLimit(s, 100)
	if err != nil {
		return err
	}
	ks, err := t.bot.Klines(ctx, symbol, interval, limit)
	if err != nil {
		return err
	}
	printKlines(t.out, ks)
	return nil
}

func (t *trader) menuAccount(ctx context.Context) error {
	acct, err := t.bot.AccountInfo(ctx)
	if err != nil {
		return err
	}
	printAccount(t.out, acct)
	return nil
}

func (t *trader) menuBalance(ctx context.Context) error {
	asset, err := t.prompt("Enter asset (e.g., USDT)", "USDT")
	if err != nil {
		return err
	}
	asset = strings.ToUpper(asset)
	b, found, err := t.bot.Balance(ctx, asset)
	if err != nil {
		return err
	}
	if !found {
		printf(t.out, "no balance for %s\n", asset)
		return nil
	}
	printBalance(t.out, b)
	return nil
}

func (t *trader) menuCloseAll(ctx context.Context) error {
	ok, err := t.confirm("Are you sure you want to close ALL positions?")
	if err != nil {
		return err
	}
	if !ok {
		printf(t.out, "cancelled\n")
		return nil
	}
	closed, err := t.bot.CloseAllPositions(ctx)
	if err != nil {
		return err
	}
	printClosed(t.out, closed)
	return nil
}

func (t *trader) menuCancelAll(context.Context) error {
	symbol, err := t.prompt("Enter symbol (optional, press Enter to cancel all)", "")
	if err != nil {
		return err
	}
	ok, err := t.confirm("Are you sure you want to cancel ALL orders?")
	if err != nil {
		return err
	}
	if !ok {
		printf(t.out, "cancelled\n")
		return nil
	}
	canceled, err := t.bot.CancelAllOrders(strings.ToUpper(symbol))
	if err != nil {
		return err
	}
	printCanceled(t.out, canceled)
	return nil
}

func (t *trader) menuPing(ctx context.Context) error {
	acct, err := t.bot.AccountInfo(ctx)
	if err != nil {
		printf(t.out, "connection test failed: %v\n", err)
		return nil
	}
	printf(t.out, "connection test successful, account can trade: %t\n", acct.CanTrade)
	return nil
}
