// Package bot is the facade the front-ends call: order operations go to the
// orders.Handler, market data and account reads go to the exchange.Client.
package bot

import (
	"context"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/uhyunpark/orderdesk/pkg/apperr"
	"github.com/uhyunpark/orderdesk/pkg/exchange"
	"github.com/uhyunpark/orderdesk/pkg/orders"
	"github.com/uhyunpark/orderdesk/pkg/validate"
)

const maxLimit = 1000

// Bot composes a market-data client with an order handler.
type Bot struct {
	client  exchange.Client
	handler *orders.Handler
	log     *zap.SugaredLogger
}

func New(client exchange.Client, handler *orders.Handler, logger *zap.SugaredLogger) *Bot {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Bot{client: client, handler: handler, log: logger}
}

func (b *Bot) Handler() *orders.Handler { return b.handler }

// Ping fetches the server time to confirm the client answers.
func (b *Bot) Ping(ctx context.Context) (int64, error) {
	ts, err := b.client.ServerTime(ctx)
	if err != nil {
		b.log.Errorw("ping_failed", "err", err)
		return 0, apperr.Wrap(err, "server time")
	}
	b.log.Infow("ping", "server_time", ts)
	return ts, nil
}

func (b *Bot) AccountInfo(ctx context.Context) (exchange.Account, error) {
	acct, err := b.client.Account(ctx)
	if err != nil {
		b.log.Errorw("account_info_failed", "err", err)
		return exchange.Account{}, apperr.Wrap(err, "account")
	}
	return acct, nil
}

type Balance struct {
	Asset            string `json:"asset"`
	WalletBalance    string `json:"wallet_balance"`
	UnrealizedPnl    string `json:"unrealized_pnl"`
	MarginBalance    string `json:"margin_balance"`
	AvailableBalance string `json:"available_balance"`
}

// Balance looks asset up in the account. A missing asset is not an error;
// found is false and a warning is logged.
func (b *Bot) Balance(ctx context.Context, asset string) (Balance, bool, error) {
	acct, err := b.AccountInfo(ctx)
	if err != nil {
		return Balance{}, false, err
	}
	for _, a := range acct.Assets {
		if a.Asset == asset {
			return Balance{
				Asset:            asset,
				WalletBalance:    a.WalletBalance,
				UnrealizedPnl:    a.UnrealizedPnl,
				MarginBalance:    a.MarginBalance,
				AvailableBalance: a.AvailableBalance,
			}, true, nil
		}
	}
	b.log.Warnw("asset_not_found", "asset", asset)
	return Balance{}, false, nil
}

func (b *Bot) PlaceMarketOrder(symbol, side, quantity string) (orders.Response, error) {
	return b.handler.PlaceMarketOrder(symbol, side, quantity)
}

func (b *Bot) PlaceLimitOrder(symbol, side, quantity, price, timeInForce string) (orders.Response, error) {
	return b.handler.PlaceLimitOrder(symbol, side, quantity, price, timeInForce)
}

func (b *Bot) PlaceStopLimitOrder(symbol, side, quantity, stopPrice, limitPrice, timeInForce string) (orders.Response, error) {
	return b.handler.PlaceStopLimitOrder(symbol, side, quantity, stopPrice, limitPrice, timeInForce)
}

func (b *Bot) PlaceOCOOrder(symbol, side, quantity, price, stopPrice, stopLimitPrice string) (orders.Response, error) {
	return b.handler.PlaceOCOOrder(symbol, side, quantity, price, stopPrice, stopLimitPrice)
}

func (b *Bot) CancelOrder(symbol, orderID string) (orders.Response, error) {
	return b.handler.CancelOrder(symbol, orderID)
}

func (b *Bot) OrderStatus(symbol, orderID string) (orders.Response, error) {
	return b.handler.OrderStatus(symbol, orderID)
}

func (b *Bot) OpenOrders(symbol string) ([]orders.Response, error) {
	return b.handler.OpenOrders(symbol)
}

// PriceInfo is the quote view returned by SymbolPrice.
type PriceInfo struct {
	Symbol                string `json:"symbol"`
	CurrentPrice          string `json:"current_price"`
	BidPrice              string `json:"bid_price"`
	AskPrice              string `json:"ask_price"`
	High24h               string `json:"high_24h"`
	Low24h                string `json:"low_24h"`
	Volume24h             string `json:"volume_24h"`
	PriceChange24h        string `json:"price_change_24h"`
	PriceChangePercent24h string `json:"price_change_percent_24h"`
}

func (b *Bot) SymbolPrice(ctx context.Context, symbol string) (PriceInfo, error) {
	if !validate.Symbol(symbol) {
		return PriceInfo{}, apperr.Validationf("invalid symbol: %s", symbol)
	}
	tk, err := b.client.Ticker(ctx, symbol)
	if err != nil {
		b.log.Errorw("symbol_price_failed", "symbol", symbol, "err", err)
		return PriceInfo{}, apperr.Wrap(err, "ticker")
	}
	b.log.Infow("symbol_price", "symbol", symbol, "price", tk.LastPrice)
	return PriceInfo{
		Symbol:                symbol,
		CurrentPrice:          tk.LastPrice,
		BidPrice:              tk.BidPrice,
		AskPrice:              tk.AskPrice,
		High24h:               tk.HighPrice,
		Low24h:                tk.LowPrice,
		Volume24h:             tk.Volume,
		PriceChange24h:        tk.PriceChange,
		PriceChangePercent24h: tk.PriceChangePercent,
	}, nil
}

// SymbolInfo returns exchange metadata for a listed symbol.
func (b *Bot) SymbolInfo(ctx context.Context, symbol string) (exchange.SymbolInfo, error) {
	if !validate.Symbol(symbol) {
		return exchange.SymbolInfo{}, apperr.Validationf("invalid symbol: %s", symbol)
	}
	info, err := b.client.ExchangeInfo(ctx)
	if err != nil {
		b.log.Errorw("symbol_info_failed", "symbol", symbol, "err", err)
		return exchange.SymbolInfo{}, apperr.Wrap(err, "exchange info")
	}
	for _, s := range info.Symbols {
		if s.Symbol == symbol {
			return s, nil
		}
	}
	return exchange.SymbolInfo{}, apperr.NotFoundf("symbol %s not found", symbol)
}

// Symbols lists every symbol the exchange reports.
func (b *Bot) Symbols(ctx context.Context) ([]exchange.SymbolInfo, error) {
	info, err := b.client.ExchangeInfo(ctx)
	if err != nil {
		return nil, apperr.Wrap(err, "exchange info")
	}
	return info.Symbols, nil
}

func checkLimit(limit int) error {
	if limit < 1 || limit > maxLimit {
		return apperr.Validationf("limit must be between 1 and %d", maxLimit)
	}
	return nil
}

func (b *Bot) RecentTrades(ctx context.Context, symbol string, limit int) ([]exchange.Trade, error) {
	if !validate.Symbol(symbol) {
		return nil, apperr.Validationf("invalid symbol: %s", symbol)
	}
	if err := checkLimit(limit); err != nil {
		return nil, err
	}
	trades, err := b.client.RecentTrades(ctx, symbol, limit)
	if err != nil {
		b.log.Errorw("recent_trades_failed", "symbol", symbol, "err", err)
		return nil, apperr.Wrap(err, "recent trades")
	}
	b.log.Infow("recent_trades", "symbol", symbol, "count", len(trades))
	return trades, nil
}

func (b *Bot) Klines(ctx context.Context, symbol, interval string, limit int) ([]exchange.Kline, error) {
	if !validate.Symbol(symbol) {
		return nil, apperr.Validationf("invalid symbol: %s", symbol)
	}
	if !validate.KlineInterval(interval) {
		return nil, apperr.Validationf("invalid interval: %s", interval)
	}
	if err := checkLimit(limit); err != nil {
		return nil, err
	}
	klines, err := b.client.Klines(ctx, symbol, interval, limit)
	if err != nil {
		b.log.Errorw("klines_failed", "symbol", symbol, "interval", interval, "err", err)
		return nil, apperr.Wrap(err, "klines")
	}
	b.log.Infow("klines", "symbol", symbol, "interval", interval, "count", len(klines))
	return klines, nil
}

type ClosedPosition struct {
	Symbol   string          `json:"symbol"`
	Side     string          `json:"side"`
	Quantity string          `json:"quantity"`
	Result   orders.Response `json:"result"`
}

// CloseAllPositions places an opposing market order for every nonzero
// position. Positions that fail to close are logged and left out of the
// result.
func (b *Bot) CloseAllPositions(ctx context.Context) ([]ClosedPosition, error) {
	acct, err := b.AccountInfo(ctx)
	if err != nil {
		return nil, err
	}

	closed := []ClosedPosition{}
	for _, p := range acct.Positions {
		amt, err := decimal.NewFromString(strings.TrimSpace(p.PositionAmt))
		if err != nil {
			b.log.Errorw("close_position_failed", "symbol", p.Symbol, "amount", p.PositionAmt, "err", err)
			continue
		}
		if amt.IsZero() {
			continue
		}
		side := string(orders.Sell)
		if amt.IsNegative() {
			side = string(orders.Buy)
		}
		qty := amt.Abs().String()

		res, err := b.handler.PlaceMarketOrder(p.Symbol, side, qty)
		if err != nil {
			b.log.Errorw("close_position_failed", "symbol", p.Symbol, "err", err)
			continue
		}
		b.log.Infow("position_closed", "symbol", p.Symbol, "side", side, "quantity", qty)
		closed = append(closed, ClosedPosition{Symbol: p.Symbol, Side: side, Quantity: qty, Result: res})
	}
	b.log.Infow("close_all_positions", "closed", len(closed))
	return closed, nil
}

type CanceledOrder struct {
	Symbol  string          `json:"symbol"`
	OrderID string          `json:"order_id"`
	Result  orders.Response `json:"result"`
}

// CancelAllOrders cancels every open order, optionally for one symbol.
// Orders that fail to cancel are logged and left out of the result.
func (b *Bot) CancelAllOrders(symbol string) ([]CanceledOrder, error) {
	open, err := b.handler.OpenOrders(symbol)
	if err != nil {
		return nil, err
	}

	canceled := []CanceledOrder{}
	for _, o := range open {
		res, err := b.handler.CancelOrder(o.Symbol, o.OrderID)
		if err != nil {
			b.log.Errorw("cancel_order_failed", "order_id", o.OrderID, "err", err)
			continue
		}
		canceled = append(canceled, CanceledOrder{Symbol: o.Symbol, OrderID: o.OrderID, Result: res})
	}
	b.log.Infow("cancel_all_orders", "symbol", symbol, "canceled", len(canceled), "open", len(open))
	return canceled, nil
}

// ParseLimit converts a caller-supplied limit, using def when s is empty.
func ParseLimit(s string, def int) (int, error) {
	if strings.TrimSpace(s) == "" {
		return def, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, apperr.Validationf("invalid limit: %s", s)
	}
	return n, nil
}
