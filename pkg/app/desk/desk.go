// Package desk assembles the order desk from configuration: order store,
// call journal, market table, demo client, handler and bot.
package desk

import (
	"errors"
	"fmt"
	"math/rand"

	"go.uber.org/zap"

	"github.com/uhyunpark/orderdesk/params"
	"github.com/uhyunpark/orderdesk/pkg/bot"
	"github.com/uhyunpark/orderdesk/pkg/exchange"
	"github.com/uhyunpark/orderdesk/pkg/orders"
	"github.com/uhyunpark/orderdesk/pkg/storage"
	"github.com/uhyunpark/orderdesk/pkg/util"
)

type Desk struct {
	Bot     *bot.Bot
	Handler *orders.Handler
	Client  *exchange.DemoClient
	Markets *exchange.Registry
	Clock   util.Clock

	closers []func() error
}

// New builds a Desk. clock may be nil for wall time.
func New(cfg params.Config, logger *zap.SugaredLogger, clock util.Clock) (*Desk, error) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	if clock == nil {
		clock = util.RealClock{}
	}
	d := &Desk{Clock: clock}

	store, idHigh, err := d.openStore(cfg.Orders.Store, cfg.Orders.StorePath)
	if err != nil {
		return nil, err
	}
	// a reopened store must not hand out ids it already holds
	idStart := max(cfg.Orders.IDStart, idHigh)

	sinks := orders.MultiSink{orders.LogSink{Logger: logger}}
	if cfg.API.CallLogFile != "" {
		j, err := storage.NewFileJournal(cfg.API.CallLogFile, clock)
		if err != nil {
			d.Close()
			return nil, fmt.Errorf("open call journal: %w", err)
		}
		d.closers = append(d.closers, j.Close)
		sinks = append(sinks, j)
	}

	d.Markets, err = exchange.LoadMarkets(cfg.Market.File)
	if err != nil {
		d.Close()
		return nil, err
	}

	var rng *rand.Rand
	if cfg.Market.Seed != 0 {
		rng = rand.New(rand.NewSource(cfg.Market.Seed))
	}
	d.Client = exchange.NewDemoClient(d.Markets, rng, clock)

	d.Handler = orders.NewHandler(orders.Options{
		Store:             store,
		IDs:               orders.NewSequenceGenerator(idStart),
		Clock:             clock,
		Sink:              sinks,
		Logger:            logger,
		QuantityPrecision: cfg.Orders.QuantityPrecision,
		PricePrecision:    cfg.Orders.PricePrecision,
		StrictOCO:         cfg.Orders.StrictOCO,
	})
	d.Bot = bot.New(d.Client, d.Handler, logger)

	logger.Infow("desk_ready",
		"store", cfg.Orders.Store,
		"markets", d.Markets.Count(),
		"id_start", idStart,
		"strict_oco", cfg.Orders.StrictOCO,
		"call_log", cfg.API.CallLogFile,
	)
	return d, nil
}

// openStore also reports the highest id the store already used.
func (d *Desk) openStore(kind, path string) (orders.Store, uint64, error) {
	switch kind {
	case "", "memory":
		return orders.NewMemoryStore(), 0, nil
	case "pebble":
		ps, err := storage.NewPebbleStore(path)
		if err != nil {
			return nil, 0, fmt.Errorf("open pebble store: %w", err)
		}
		d.closers = append(d.closers, ps.Close)
		return ps, ps.IDHighWater(), nil
	default:
		return nil, 0, fmt.Errorf("unknown order store %q", kind)
	}
}

// Close releases the store and journal in reverse order of opening.
func (d *Desk) Close() error {
	var errs []error
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	d.closers = nil
	return errors.Join(errs...)
}
