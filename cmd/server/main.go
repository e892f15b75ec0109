package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/uhyunpark/orderdesk/params"
	"github.com/uhyunpark/orderdesk/pkg/api"
	"github.com/uhyunpark/orderdesk/pkg/app/desk"
	"github.com/uhyunpark/orderdesk/pkg/util"
)

func main() {
	// ENV > .env > defaults
	cfg := params.LoadFromEnv("")

	logger, err := util.NewLoggerFor(cfg.Log.File, cfg.Log.Verbose, false)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()
	sugar := logger.Sugar()
	sugar.Infow("logger_initialized", "log_file", cfg.Log.File)

	d, err := desk.New(cfg, sugar, nil)
	if err != nil {
		sugar.Fatalw("desk_init_failed", "err", err)
	}
	defer func() {
		if err := d.Close(); err != nil {
			sugar.Errorw("desk_close_failed", "err", err)
		}
	}()

	apiServer := api.NewServer(d.Bot, api.Options{
		AllowedOrigins: cfg.API.AllowedOrigins,
		Logger:         sugar,
		Clock:          d.Clock,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return apiServer.ListenAndServe(ctx, cfg.API.Addr)
	})
	if cfg.Market.FeedEnabled {
		g.Go(func() error {
			return apiServer.RunFeeder(ctx, api.FeederConfig{
				Interval: cfg.Market.FeedInterval,
				Symbols:  cfg.Market.FeedSymbols,
			})
		})
	}

	if err := g.Wait(); err != nil {
		sugar.Errorw("server_exited", "err", err)
		return
	}
	sugar.Infow("server_stopped")
}
