package main

import (
	"errors"
	"io/fs"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/uhyunpark/orderdesk/pkg/storage"
)

const defaultLogLines = 20

func symbolFlag() cli.Flag {
	return &cli.StringFlag{Name: "symbol", Aliases: []string{"s"}, Usage: "trading pair, e.g. BTCUSDT", Required: true}
}

func sideFlag() cli.Flag {
	return &cli.StringFlag{Name: "side", Usage: "BUY or SELL", Required: true}
}

func qtyFlag() cli.Flag {
	return &cli.StringFlag{Name: "qty", Aliases: []string{"q"}, Usage: "order quantity", Required: true}
}

func tifFlag() cli.Flag {
	return &cli.StringFlag{Name: "tif", Usage: "time in force (GTC, IOC, FOK)", Value: "GTC"}
}

func idFlag() cli.Flag {
	return &cli.StringFlag{Name: "id", Usage: "order id", Required: true}
}

func optionalSymbol(usage string) *cli.StringFlag {
	return &cli.StringFlag{Name: "symbol", Aliases: []string{"s"}, Usage: usage}
}

func up(c *cli.Context, name string) string {
	return strings.ToUpper(strings.TrimSpace(c.String(name)))
}

func (t *trader) commands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "market",
			Usage: "place a market order",
			Flags: []cli.Flag{symbolFlag(), sideFlag(), qtyFlag()},
			Action: func(c *cli.Context) error {
				r, err := t.bot.PlaceMarketOrder(up(c, "symbol"), up(c, "side"), c.String("qty"))
				if err != nil {
					return err
				}
				printOrder(t.out, r)
				return nil
			},
		},
		{
			Name:  "limit",
			Usage: "place a limit order",
			Flags: []cli.Flag{symbolFlag(), sideFlag(), qtyFlag(), tifFlag(),
				&cli.StringFlag{Name: "price", Aliases: []string{"p"}, Usage: "limit price", Required: true},
			},
			Action: func(c *cli.Context) error {
				r, err := t.bot.PlaceLimitOrder(up(c, "symbol"), up(c, "side"), c.String("qty"), c.String("price"), up(c, "tif"))
				if err != nil {
					return err
				}
				printOrder(t.out, r)
				return nil
			},
		},
		{
			Name:  "stop-limit",
			Usage: "place a stop-limit order",
			Flags: []cli.Flag{symbolFlag(), sideFlag(), qtyFlag(), tifFlag(),
				&cli.StringFlag{Name: "stop", Usage: "trigger price", Required: true},
				&cli.StringFlag{Name: "limit", Usage: "limit price once triggered", Required: true},
			},
			Action: func(c *cli.Context) error {
				r, err := t.bot.PlaceStopLimitOrder(up(c, "symbol"), up(c, "side"), c.String("qty"),
					c.String("stop"), c.String("limit"), up(c, "tif"))
				if err != nil {
					return err
				}
				printOrder(t.out, r)
				return nil
			},
		},
		{
			Name:  "oco",
			Usage: "place a one-cancels-other order",
			Flags: []cli.Flag{symbolFlag(), sideFlag(), qtyFlag(),
				&cli.StringFlag{Name: "price", Aliases: []string{"p"}, Usage: "limit leg price", Required: true},
				&cli.StringFlag{Name: "stop", Usage: "stop leg trigger", Required: true},
				&cli.StringFlag{Name: "stop-limit", Usage: "stop leg limit price", Required: true},
			},
			Action: func(c *cli.Context) error {
				r, err := t.bot.PlaceOCOOrder(up(c, "symbol"), up(c, "side"), c.String("qty"),
					c.String("price"), c.String("stop"), c.String("stop-limit"))
				if err != nil {
					return err
				}
				printOrder(t.out, r)
				return nil
			},
		},
		{
			Name:  "cancel",
			Usage: "cancel one order",
			Flags: []cli.Flag{symbolFlag(), idFlag()},
			Action: func(c *cli.Context) error {
				r, err := t.bot.CancelOrder(up(c, "symbol"), c.String("id"))
				if err != nil {
					return err
				}
				printOrder(t.out, r)
				return nil
			},
		},
		{
			Name:  "status",
			Usage: "show one order",
			Flags: []cli.Flag{symbolFlag(), idFlag()},
			Action: func(c *cli.Context) error {
				r, err := t.bot.OrderStatus(up(c, "symbol"), c.String("id"))
				if err != nil {
					return err
				}
				printOrder(t.out, r)
				return nil
			},
		},
		{
			Name:  "open",
			Usage: "list open orders",
			Flags: []cli.Flag{optionalSymbol("only this pair")},
			Action: func(c *cli.Context) error {
				rs, err := t.bot.OpenOrders(up(c, "symbol"))
				if err != nil {
					return err
				}
				printOrders(t.out, rs)
				return nil
			},
		},
		{
			Name:  "price",
			Usage: "show the current quote",
			Flags: []cli.Flag{symbolFlag()},
			Action: func(c *cli.Context) error {
				p, err := t.bot.SymbolPrice(c.Context, up(c, "symbol"))
				if err != nil {
					return err
				}
				printPrice(t.out, p)
				return nil
			},
		},
		{
			Name:  "info",
			Usage: "show trading rules for a pair",
			Flags: []cli.Flag{symbolFlag()},
			Action: func(c *cli.Context) error {
				info, err := t.bot.SymbolInfo(c.Context, up(c, "symbol"))
				if err != nil {
					return err
				}
				printSymbolInfo(t.out, info)
				return nil
			},
		},
		{
			Name:  "trades",
			Usage: "show recent trades",
			Flags: []cli.Flag{symbolFlag(), &cli.IntFlag{Name: "limit", Aliases: []string{"n"}, Value: 10}},
			Action: func(c *cli.Context) error {
				trades, err := t.bot.RecentTrades(c.Context, up(c, "symbol"), c.Int("limit"))
				if err != nil {
					return err
				}
				printTrades(t.out, trades)
				return nil
			},
		},
		{
			Name:  "klines",
			Usage: "show candlesticks",
			Flags: []cli.Flag{symbolFlag(),
				&cli.StringFlag{Name: "interval", Aliases: []string{"i"}, Value: "1h"},
				&cli.IntFlag{Name: "limit", Aliases: []string{"n"}, Value: 100},
			},
			Action: func(c *cli.Context) error {
				ks, err := t.bot.Klines(c.Context, up(c, "symbol"), c.String("interval"), c.Int("limit"))
				if err != nil {
					return err
				}
				printKlines(t.out, ks)
				return nil
			},
		},
		{
			Name:  "account",
			Usage: "show account balances and positions",
			Action: func(c *cli.Context) error {
				acct, err := t.bot.AccountInfo(c.Context)
				if err != nil {
					return err
				}
				printAccount(t.out, acct)
				return nil
			},
		},
		{
			Name:      "balance",
			Usage:     "show one asset balance",
			ArgsUsage: "[ASSET]",
			Action: func(c *cli.Context) error {
				asset := strings.ToUpper(c.Args().First())
				if asset == "" {
					asset = "USDT"
				}
				return t.showBalance(c, asset)
			},
		},
		{
			Name:  "close-all",
			Usage: "close every open position at market",
			Action: func(c *cli.Context) error {
				closed, err := t.bot.CloseAllPositions(c.Context)
				if err != nil {
					return err
				}
				printClosed(t.out, closed)
				return nil
			},
		},
		{
			Name:  "cancel-all",
			Usage: "cancel every open order",
			Flags: []cli.Flag{optionalSymbol("only this pair")},
			Action: func(c *cli.Context) error {
				canceled, err := t.bot.CancelAllOrders(up(c, "symbol"))
				if err != nil {
					return err
				}
				printCanceled(t.out, canceled)
				return nil
			},
		},
		{
			Name:  "ping",
			Usage: "check the exchange connection",
			Action: func(c *cli.Context) error {
				return t.ping(c)
			},
		},
		{
			Name:  "logs",
			Usage: "show the most recent API calls",
			Flags: []cli.Flag{&cli.IntFlag{Name: "n", Value: defaultLogLines, Usage: "number of entries"}},
			Action: func(c *cli.Context) error {
				return t.showLogs(c.Int("n"))
			},
		},
		{
			Name:  "interactive",
			Usage: "menu-driven session",
			Action: func(c *cli.Context) error {
				return t.interactive(c)
			},
		},
	}
}

func (t *trader) showBalance(c *cli.Context, asset string) error {
	b, found, err := t.bot.Balance(c.Context, asset)
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

func (t *trader) ping(c *cli.Context) error {
	ms, err := t.bot.Ping(c.Context)
	if err != nil {
		return err
	}
	printf(t.out, "connection ok, server time %d\n", ms)
	return nil
}

func (t *trader) showLogs(n int) error {
	if t.cfg.API.CallLogFile == "" {
		printf(t.out, "API call journal is disabled\n")
		return nil
	}
	entries, err := storage.ReadJournal(t.cfg.API.CallLogFile, n)
	if errors.Is(err, fs.ErrNotExist) {
		printf(t.out, "no API calls logged yet\n")
		return nil
	}
	if err != nil {
		return err
	}
	printJournal(t.out, entries)
	return nil
}
