package main

import (
	"bufio"
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/uhyunpark/orderdesk/params"
	"github.com/uhyunpark/orderdesk/pkg/app/desk"
	"github.com/uhyunpark/orderdesk/pkg/apperr"
	"github.com/uhyunpark/orderdesk/pkg/util"
)

// newTestTrader returns a trader over an in-memory desk whose journal
// lives in a temp dir. input feeds the interactive prompts.
func newTestTrader(t *testing.T, input string) (*trader, *bytes.Buffer) {
	t.Helper()
	cfg := params.Default()
	cfg.Market.Seed = 1
	cfg.API.CallLogFile = filepath.Join(t.TempDir(), "calls.log")

	clock := util.NewManualClock(time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC))
	d, err := desk.New(cfg, nil, clock)
	if err != nil {
		t.Fatalf("desk.New: %v", err)
	}
	t.Cleanup(func() { d.Close() })

	out := &bytes.Buffer{}
	return &trader{
		cfg: cfg,
		bot: d.Bot,
		out: out,
		in:  bufio.NewReader(strings.NewReader(input)),
	}, out
}

func run(t *testing.T, tr *trader, out *bytes.Buffer, args ...string) (string, error) {
	t.Helper()
	out.Reset()
	err := newApp(tr).Run(append([]string{"trader"}, args...))
	return out.String(), err
}

func TestOrderCommands(t *testing.T) {
	tr, out := newTestTrader(t, "")

	got, err := run(t, tr, out, "limit", "--symbol", "btcusdt", "--side", "buy", "--qty", "1", "--price", "100")
	if err != nil {
		t.Fatalf("limit: %v", err)
	}
	for _, want := range []string{"1001", "BTCUSDT", "LIMIT", "NEW", "100.00"} {
		if !strings.Contains(got, want) {
			t.Errorf("limit output missing %q:\n%s", want, got)
		}
	}

	if got, _ = run(t, tr, out, "open"); !strings.Contains(got, "1001") {
		t.Errorf("open output missing order:\n%s", got)
	}
	if got, _ = run(t, tr, out, "status", "-s", "BTCUSDT", "--id", "1001"); !strings.Contains(got, "Update Time") {
		t.Errorf("status output missing update time:\n%s", got)
	}
	if got, _ = run(t, tr, out, "cancel", "-s", "BTCUSDT", "--id", "1001"); !strings.Contains(got, "CANCELED") {
		t.Errorf("cancel output:\n%s", got)
	}
	if got, _ = run(t, tr, out, "open"); !strings.Contains(got, "no orders") {
		t.Errorf("open after cancel:\n%s", got)
	}

	_, err = run(t, tr, out, "status", "-s", "BTCUSDT", "--id", "1001")
	if !apperr.IsNotFound(err) {
		t.Errorf("status of canceled order: err = %v, want not found", err)
	}
}

func TestCommandErrors(t *testing.T) {
	tr, out := newTestTrader(t, "")

	tests := []struct {
		name string
		args []string
	}{
		{"bad side", []string{"market", "--symbol", "BTCUSDT", "--side", "HOLD", "--qty", "1"}},
		{"bad qty", []string{"market", "--symbol", "BTCUSDT", "--side", "BUY", "--qty", "-1"}},
		{"missing flag", []string{"limit", "--symbol", "BTCUSDT", "--side", "BUY", "--qty", "1"}},
		{"bad limit", []string{"trades", "--symbol", "BTCUSDT", "-n", "0"}},
		{"bad interval", []string{"klines", "--symbol", "BTCUSDT", "-i", "7m"}},
		{"unknown symbol", []string{"info", "--symbol", "XRPUSDT"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := run(t, tr, out, tt.args...); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestMarketDataCommands(t *testing.T) {
	tr, out := newTestTrader(t, "")

	tests := []struct {
		args []string
		want string
	}{
		{[]string{"price", "-s", "ETHUSDT"}, "Current Price"},
		{[]string{"info", "-s", "ADAUSDT"}, "Quantity Precision"},
		{[]string{"trades", "-s", "BTCUSDT", "-n", "3"}, "BUYER MAKER"},
		{[]string{"klines", "-s", "BTCUSDT", "-n", "2"}, "OPEN TIME"},
		{[]string{"account"}, "USDT"},
		{[]string{"balance", "usdt"}, "Available Balance"},
		{[]string{"balance", "DOGE"}, "no balance for DOGE"},
		{[]string{"ping"}, "connection ok"},
	}
	for _, tt := range tests {
		t.Run(tt.args[0], func(t *testing.T) {
			got, err := run(t, tr, out, tt.args...)
			if err != nil {
				t.Fatal(err)
			}
			if !strings.Contains(got, tt.want) {
				t.Errorf("output missing %q:\n%s", tt.want, got)
			}
		})
	}
}

func TestLogsCommand(t *testing.T) {
	tr, out := newTestTrader(t, "")

	if _, err := run(t, tr, out, "market", "-s", "BTCUSDT", "--side", "SELL", "-q", "0.1"); err != nil {
		t.Fatal(err)
	}
	got, err := run(t, tr, out, "logs", "-n", "5")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(got, "futures_create_order") {
		t.Errorf("logs output:\n%s", got)
	}

	tr.cfg.API.CallLogFile = ""
	if got, _ = run(t, tr, out, "logs"); !strings.Contains(got, "disabled") {
		t.Errorf("logs without journal:\n%s", got)
	}
}

func TestInteractive(t *testing.T) {
	input := strings.Join([]string{
		"2", "btc-usdt", "btcusdt", "buy", "0.5", "3000", "",
		"7", "",
		"15", "", "no",
		"99",
		"abc",
		"0",
	}, "\n") + "\n"
	tr, out := newTestTrader(t, input)

	if _, err := run(t, tr, out, "interactive"); err != nil {
		t.Fatalf("interactive: %v", err)
	}
	got := out.String()
	for _, want := range []string{
		"MAIN MENU",
		"17. View Logs",
		`invalid value: "BTC-USDT"`,
		"1001",
		"3000.00",
		"cancelled",
		"invalid choice",
		"goodbye",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q", want)
		}
	}

	open, _ := tr.bot.OpenOrders("")
	if len(open) != 1 {
		t.Errorf("open orders = %d, want 1", len(open))
	}
}

func TestInteractive_EndOfInput(t *testing.T) {
	tr, out := newTestTrader(t, "1\nBTCUSDT\n")
	if _, err := run(t, tr, out, "interactive"); err != nil {
		t.Fatalf("interactive: %v", err)
	}
}
