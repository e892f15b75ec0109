package exchange

import (
	"context"
	"encoding/json"
	"math/rand"
	"reflect"
	"strconv"
	"testing"
	"time"

	"github.com/uhyunpark/orderdesk/pkg/util"
)

var now = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

func newDemo(seed int64) *DemoClient {
	return NewDemoClient(DefaultRegistry(), rand.New(rand.NewSource(seed)), util.NewManualClock(now))
}

func num(t *testing.T, s string) float64 {
	t.Helper()
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		t.Fatalf("%q is not a number", s)
	}
	return v
}

func TestTicker(t *testing.T) {
	c := newDemo(1)
	ctx := context.Background()

	tests := []struct {
		symbol string
		base   float64
	}{
		{"BTCUSDT", 50000},
		{"ETHUSDT", 3000},
		{"SOLUSDT", 100},
		{"XYZUSDT", DefaultBasePrice},
	}

	for _, tt := range tests {
		t.Run(tt.symbol, func(t *testing.T) {
			for i := 0; i < 200; i++ {
				tk, err := c.Ticker(ctx, tt.symbol)
				if err != nil {
					t.Fatal(err)
				}
				last := num(t, tk.LastPrice)
				if last < tt.base*0.98-0.01 || last > tt.base*1.02+0.01 {
					t.Fatalf("last %v outside ±2%% of %v", last, tt.base)
				}
				if num(t, tk.BidPrice) > last || num(t, tk.AskPrice) < last {
					t.Fatalf("bid/ask %s/%s around %s", tk.BidPrice, tk.AskPrice, tk.LastPrice)
				}
				if num(t, tk.HighPrice) < last || num(t, tk.LowPrice) > last {
					t.Fatalf("high/low %s/%s around %s", tk.HighPrice, tk.LowPrice, tk.LastPrice)
				}
				if v := num(t, tk.Volume); v < 1000 || v > 10000 {
					t.Fatalf("volume %v", v)
				}
				if p := num(t, tk.PriceChangePercent); p < -5 || p > 5 {
					t.Fatalf("change percent %v", p)
				}
			}
		})
	}
}

func TestDemoClient_SameSeedSameData(t *testing.T) {
	ctx := context.Background()
	a, _ := newDemo(42).Klines(ctx, "ETHUSDT", "1h", 5)
	b, _ := newDemo(42).Klines(ctx, "ETHUSDT", "1h", 5)
	if !reflect.DeepEqual(a, b) {
		t.Fatal("same seed produced different klines")
	}
}

func TestRecentTrades(t *testing.T) {
	c := newDemo(7)
	trades, err := c.RecentTrades(context.Background(), "BTCUSDT", 25)
	if err != nil {
		t.Fatal(err)
	}
	if len(trades) != 25 {
		t.Fatalf("got %d trades", len(trades))
	}
	for i, tr := range trades {
		if want := now.UnixMilli() - int64(i)*60000; tr.Time != want {
			t.Errorf("trade %d time = %d, want %d", i, tr.Time, want)
		}
		if tr.ID < 1000000 || tr.ID > 9999999 {
			t.Errorf("trade %d id = %d", i, tr.ID)
		}
		if q := num(t, tr.Qty); q < 0.001 || q > 1.0 {
			t.Errorf("trade %d qty = %v", i, q)
		}
		if p := num(t, tr.Price); p < 50000*0.98*0.99-1 || p > 50000*1.02*1.01+1 {
			t.Errorf("trade %d price = %v", i, p)
		}
	}

	if trades, _ := c.RecentTrades(context.Background(), "BTCUSDT", 0); len(trades) != 0 {
		t.Errorf("limit 0 returned %d trades", len(trades))
	}
}

func TestKlines(t *testing.T) {
	tests := []struct {
		interval string
		step     time.Duration
	}{
		{"1h", time.Hour},
		{"1d", 24 * time.Hour},
		{"15m", time.Hour},
		{"bogus", time.Hour},
	}

	for _, tt := range tests {
		t.Run(tt.interval, func(t *testing.T) {
			ks, err := newDemo(3).Klines(context.Background(), "BTCUSDT", tt.interval, 10)
			if err != nil {
				t.Fatal(err)
			}
			if len(ks) != 10 {
				t.Fatalf("got %d klines", len(ks))
			}
			for i, k := range ks {
				if want := now.UnixMilli() - int64(i)*tt.step.Milliseconds(); k.OpenTime != want {
					t.Errorf("kline %d open time = %d, want %d", i, k.OpenTime, want)
				}
				if k.CloseTime-k.OpenTime != time.Hour.Milliseconds() {
					t.Errorf("kline %d spans %d ms", i, k.CloseTime-k.OpenTime)
				}
				hi, lo := num(t, k.High), num(t, k.Low)
				if hi < num(t, k.Open) || lo > num(t, k.Open) || num(t, k.Close) > hi || num(t, k.Close) < lo {
					t.Errorf("kline %d inconsistent: %+v", i, k)
				}
			}
		})
	}
}

func TestKline_MarshalJSON(t *testing.T) {
	k := Kline{OpenTime: 1, Open: "2.00", High: "3.00", Low: "1.00", Close: "2.50", Volume: "10.00",
		CloseTime: 3600001, QuoteAssetVolume: "5.00", TakerBuyBaseVolume: "6.00", TakerBuyQuoteVolume: "7.00"}
	b, err := json.Marshal(k)
	if err != nil {
		t.Fatal(err)
	}
	want := `[1,"2.00","3.00","1.00","2.50","10.00",3600001,"5.00",0,"6.00","7.00"]`
	if string(b) != want {
		t.Errorf("got %s\nwant %s", b, want)
	}
}

func TestExchangeInfoAndAccount(t *testing.T) {
	c := newDemo(1)
	ctx := context.Background()

	info, err := c.ExchangeInfo(ctx)
	if err != nil {
		t.Fatal(err)
	}
	var syms []string
	for _, s := range info.Symbols {
		syms = append(syms, s.Symbol)
	}
	if want := []string{"BTCUSDT", "ETHUSDT", "ADAUSDT"}; !reflect.DeepEqual(syms, want) {
		t.Errorf("symbols = %v, want %v", syms, want)
	}
	if info.Symbols[2].PricePrecision != 4 || info.Symbols[2].QuantityPrecision != 1 {
		t.Errorf("ADAUSDT precision = %+v", info.Symbols[2])
	}

	acct, err := c.Account(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(acct.Assets) != 1 || acct.Assets[0].WalletBalance != "10000.00" {
		t.Errorf("assets = %+v", acct.Assets)
	}
	for _, p := range acct.Positions {
		if num(t, p.PositionAmt) != 0 {
			t.Errorf("position %s not flat", p.Symbol)
		}
	}
	if acct.UpdateTime != now.UnixMilli() {
		t.Errorf("update time = %d", acct.UpdateTime)
	}
}

func TestCanceledContext(t *testing.T) {
	c := newDemo(1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := c.Ticker(ctx, "BTCUSDT"); err == nil {
		t.Error("Ticker ignored canceled context")
	}
	if _, err := c.Klines(ctx, "BTCUSDT", "1h", 1); err == nil {
		t.Error("Klines ignored canceled context")
	}
	if _, err := c.ServerTime(ctx); err == nil {
		t.Error("ServerTime ignored canceled context")
	}
}
