package api

import (
	"context"
	"time"
)

// FeederConfig controls the ticker broadcast loop.
type FeederConfig struct {
	Interval time.Duration // how often every symbol is quoted
	Symbols  []string
}

func DefaultFeederConfig() FeederConfig {
	return FeederConfig{
		Interval: 2 * time.Second,
		Symbols:  []string{"BTCUSDT", "ETHUSDT"},
	}
}

// RunFeeder quotes each configured symbol on every tick and pushes the
// result to its ticker channel. It blocks until ctx is done.
func (s *Server) RunFeeder(ctx context.Context, cfg FeederConfig) error {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultFeederConfig().Interval
	}
	if len(cfg.Symbols) == 0 {
		cfg.Symbols = DefaultFeederConfig().Symbols
	}

	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	start := time.Now()
	total := 0
	s.log.Infow("feeder_started", "interval", cfg.Interval, "symbols", cfg.Symbols)

	for {
		select {
		case <-ctx.Done():
			s.log.Infow("feeder_stopped", "broadcasts", total, "uptime", time.Since(start).Round(time.Second))
			return nil

		case <-ticker.C:
			total += s.broadcastTickers(ctx, cfg.Symbols)
		}
	}
}

// broadcastTickers sends one quote per symbol and returns how many were sent.
// Symbols that fail to quote are logged and skipped.
func (s *Server) broadcastTickers(ctx context.Context, symbols []string) int {
	n := 0
	for _, sym := range symbols {
		p, err := s.bot.SymbolPrice(ctx, sym)
		if err != nil {
			s.log.Warnw("feeder_quote_failed", "symbol", sym, "err", err)
			continue
		}
		ch := tickerChannel(sym)
		s.hub.BroadcastToChannel(ch, WSMessage{Type: "ticker", Channel: ch, Data: p})
		s.metrics.tickerBroadcasts.WithLabelValues(sym).Inc()
		n++
	}
	return n
}
