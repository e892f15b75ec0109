package exchange

import (
	"context"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"github.com/uhyunpark/orderdesk/pkg/util"
)

// DemoClient fabricates market data from the registry's base prices. Every
// call draws fresh randomness; nothing it returns is stable across calls.
type DemoClient struct {
	markets *Registry
	clock   util.Clock

	mu  sync.Mutex // guards rng
	rng *rand.Rand
}

// NewDemoClient builds a client over markets. A nil rng is seeded from the
// clock and a nil clock means wall time.
func NewDemoClient(markets *Registry, rng *rand.Rand, clock util.Clock) *DemoClient {
	if markets == nil {
		markets = DefaultRegistry()
	}
	if clock == nil {
		clock = util.RealClock{}
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(clock.Now().UnixNano()))
	}
	return &DemoClient{markets: markets, clock: clock, rng: rng}
}

func (c *DemoClient) Markets() *Registry { return c.markets }

// uniform draws from [lo, hi).
func (c *DemoClient) uniform(lo, hi float64) float64 {
	return lo + (hi-lo)*c.rng.Float64()
}

func fixed(v float64, dp int) string {
	return strconv.FormatFloat(v, 'f', dp, 64)
}

func (c *DemoClient) ServerTime(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return util.UnixMilli(c.clock), nil
}

func (c *DemoClient) Ticker(ctx context.Context, symbol string) (Ticker, error) {
	if err := ctx.Err(); err != nil {
		return Ticker{}, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ticker(symbol), nil
}

// ticker expects c.mu held.
func (c *DemoClient) ticker(symbol string) Ticker {
	p := c.markets.BasePrice(symbol) * (1 + c.uniform(-0.02, 0.02))
	return Ticker{
		Symbol:             symbol,
		LastPrice:          fixed(p, 2),
		BidPrice:           fixed(p*0.999, 2),
		AskPrice:           fixed(p*1.001, 2),
		HighPrice:          fixed(p*1.05, 2),
		LowPrice:           fixed(p*0.95, 2),
		Volume:             fixed(c.uniform(1000, 10000), 2),
		PriceChange:        fixed(p*c.uniform(-0.1, 0.1), 2),
		PriceChangePercent: fixed(c.uniform(-5, 5), 2),
	}
}

// lastPrice re-reads the formatted ticker price so derived data starts from
// the same rounded value a caller would have seen.
func (c *DemoClient) lastPrice(symbol string) float64 {
	p, err := strconv.ParseFloat(c.ticker(symbol).LastPrice, 64)
	if err != nil {
		return c.markets.BasePrice(symbol)
	}
	return p
}

func (c *DemoClient) ExchangeInfo(ctx context.Context) (ExchangeInfo, error) {
	if err := ctx.Err(); err != nil {
		return ExchangeInfo{}, err
	}
	return ExchangeInfo{Symbols: c.markets.Listed()}, nil
}

// RecentTrades returns limit trades one minute apart, newest first.
func (c *DemoClient) RecentTrades(ctx context.Context, symbol string, limit int) ([]Trade, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	base := c.lastPrice(symbol)
	now := util.UnixMilli(c.clock)
	trades := make([]Trade, 0, max(limit, 0))
	for i := 0; i < limit; i++ {
		price := base * (1 + c.uniform(-0.01, 0.01))
		trades = append(trades, Trade{
			ID:           1000000 + c.rng.Int63n(9000000),
			Price:        fixed(price, 2),
			Qty:          fixed(c.uniform(0.001, 1.0), 3),
			Time:         now - int64(i)*int64(time.Minute/time.Millisecond),
			IsBuyerMaker: c.rng.Intn(2) == 1,
		})
	}
	return trades, nil
}

// klineSpacing maps an interval to the gap between candle open times.
// Only 1h and 1d are distinguished; anything else is spaced hourly.
func klineSpacing(interval string) time.Duration {
	switch interval {
	case "1d":
		return 24 * time.Hour
	default:
		return time.Hour
	}
}

// Klines returns limit candles, newest first. Each candle spans one hour
// from its open time whatever the interval.
func (c *DemoClient) Klines(ctx context.Context, symbol, interval string, limit int) ([]Kline, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	base := c.lastPrice(symbol)
	now := util.UnixMilli(c.clock)
	step := klineSpacing(interval).Milliseconds()
	hour := time.Hour.Milliseconds()

	out := make([]Kline, 0, max(limit, 0))
	for i := 0; i < limit; i++ {
		open := base * c.uniform(0.95, 1.05)
		high := open * c.uniform(1.0, 1.1)
		low := open * c.uniform(0.9, 1.0)
		cls := c.uniform(low, high)
		volume := c.uniform(100, 1000)
		openTime := now - int64(i)*step

		out = append(out, Kline{
			OpenTime:            openTime,
			Open:                fixed(open, 2),
			High:                fixed(high, 2),
			Low:                 fixed(low, 2),
			Close:               fixed(cls, 2),
			Volume:              fixed(volume, 2),
			CloseTime:           openTime + hour,
			QuoteAssetVolume:    fixed(c.uniform(100, 1000), 2),
			NumberOfTrades:      0,
			TakerBuyBaseVolume:  fixed(c.uniform(100, 1000), 2),
			TakerBuyQuoteVolume: fixed(c.uniform(100, 1000), 2),
		})
	}
	return out, nil
}

// Account is a fixed snapshot: 10000 USDT and flat BTC/ETH positions.
func (c *DemoClient) Account(ctx context.Context) (Account, error) {
	if err := ctx.Err(); err != nil {
		return Account{}, err
	}
	flat := func(symbol string) Position {
		return Position{
			Symbol:           symbol,
			PositionAmt:      "0.000",
			EntryPrice:       "0.00",
			MarkPrice:        "0.00",
			UnRealizedProfit: "0.00",
		}
	}
	return Account{
		CanTrade:    true,
		CanWithdraw: true,
		CanDeposit:  true,
		UpdateTime:  util.UnixMilli(c.clock),
		Assets: []Asset{{
			Asset:            "USDT",
			WalletBalance:    "10000.00",
			UnrealizedPnl:    "0.00",
			MarginBalance:    "10000.00",
			AvailableBalance: "10000.00",
		}},
		Positions: []Position{flat("BTCUSDT"), flat("ETHUSDT")},
	}, nil
}

var _ Client = (*DemoClient)(nil)
