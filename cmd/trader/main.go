// Command trader drives the order desk from the terminal, either one
// command per invocation or through an interactive menu.
package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/uhyunpark/orderdesk/params"
	"github.com/uhyunpark/orderdesk/pkg/app/desk"
	"github.com/uhyunpark/orderdesk/pkg/bot"
	"github.com/uhyunpark/orderdesk/pkg/util"
)

// trader holds what every command needs. bot is built lazily in Before
// unless a test has already set it.
type trader struct {
	cfg params.Config
	bot *bot.Bot
	out io.Writer
	in  *bufio.Reader

	desk   *desk.Desk
	logger *zap.Logger
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	t := &trader{out: os.Stdout, in: bufio.NewReader(os.Stdin)}
	if err := newApp(t).RunContext(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newApp(t *trader) *cli.App {
	return &cli.App{
		Name:   "trader",
		Usage:  "place and inspect demo futures orders",
		Writer: t.out,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "env", Usage: "path to a .env file"},
			&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "debug logging"},
		},
		Before:   t.setup,
		After:    t.teardown,
		Commands: t.commands(),
	}
}

func (t *trader) setup(c *cli.Context) error {
	if t.bot != nil {
		return nil
	}
	t.cfg = params.LoadFromEnv(c.String("env"))
	if c.Bool("verbose") {
		t.cfg.Log.Verbose = true
	}

	// the terminal is for results; log entries only go to the file
	logger, err := util.NewLoggerFor(t.cfg.Log.File, t.cfg.Log.Verbose, true)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	t.logger = logger

	d, err := desk.New(t.cfg, logger.Sugar(), nil)
	if err != nil {
		return err
	}
	t.desk = d
	t.bot = d.Bot
	return nil
}

func (t *trader) teardown(*cli.Context) error {
	var err error
	if t.desk != nil {
		err = t.desk.Close()
	}
	if t.logger != nil {
		_ = t.logger.Sync()
	}
	return err
}
