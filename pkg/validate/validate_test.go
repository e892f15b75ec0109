package validate

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"pgregory.net/rapid"
)

func TestSymbol(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"BTCUSDT", true},
		{"ETHUSDT", true},
		{"1INCHUSDT", false},
		{"B1USDT", true},
		{"", false},
		{"BTC", false},
		{"BTCUSD", false},
		{"USDT", false},
		{"btcusdt", false},
		{"123USDT", false},
		{"BTC-USDT", false},
		{"BTCUSDT\n", false},
	}

	for _, tt := range tests {
		if got := Symbol(tt.in); got != tt.want {
			t.Errorf("Symbol(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestSymbol_Property(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		s := rapid.StringMatching(`[A-Z][A-Z0-9]{0,8}USDT`).Draw(t, "symbol")
		if !Symbol(s) {
			t.Fatalf("Symbol(%q) = false for a well-formed pair", s)
		}
		if Symbol(strings.ToLower(s)) {
			t.Fatalf("Symbol accepted lowercase %q", strings.ToLower(s))
		}
		digit := rapid.IntRange(0, 9).Draw(t, "digit")
		if Symbol(string(rune('0'+digit)) + s) {
			t.Fatalf("Symbol accepted leading digit on %q", s)
		}
	})
}

func TestQuantityAndPrice(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"1.0", true},
		{"0.001", true},
		{"100", true},
		{" 2.5 ", true},
		{"", false},
		{"   ", false},
		{"0", false},
		{"0.000", false},
		{"-1", false},
		{"abc", false},
		{"1.0.0", false},
		{"1e5", true},
		{"1.000000000000000000000000000000000000", true},
		{"9999999999999999999999999999", true},
		{"0.00000000000000000000000000000001", true},
		{"1e28", false},
		{"1e5000000", false},
		{"1e2000000000", false},
		{"1e-33", false},
		{"1.00000000000000000000000000001", false},
	}

	for _, tt := range tests {
		if got := Quantity(tt.in); got != tt.want {
			t.Errorf("Quantity(%q) = %v, want %v", tt.in, got, tt.want)
		}
		if got := Price(tt.in); got != tt.want {
			t.Errorf("Price(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestQuantity_Property(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.Int64Range(1, 1<<40).Draw(t, "n")
		scale := rapid.Int32Range(0, 8).Draw(t, "scale")
		s := decimal.New(n, -scale).String()

		if !Quantity(s) || !Price(s) {
			t.Fatalf("positive %q rejected", s)
		}
		if Quantity("-"+s) || Price("-"+s) {
			t.Fatalf("negative -%s accepted", s)
		}
	})
}

func TestSideAndOrderType(t *testing.T) {
	for _, s := range []string{"BUY", "SELL"} {
		if !Side(s) {
			t.Errorf("Side(%q) = false", s)
		}
	}
	for _, s := range []string{"buy", "Sell", "", "HOLD"} {
		if Side(s) {
			t.Errorf("Side(%q) = true", s)
		}
	}
	for _, s := range []string{"MARKET", "LIMIT", "STOP_LIMIT", "OCO"} {
		if !OrderType(s) {
			t.Errorf("OrderType(%q) = false", s)
		}
	}
	for _, s := range []string{"STOP_MARKET", "market", "IOC"} {
		if OrderType(s) {
			t.Errorf("OrderType(%q) = true", s)
		}
	}
}

func TestFormat(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"quantity truncates", FormatQuantity("1.123456789", 6), "1.123456"},
		{"quantity pads", FormatQuantity("0.001", 6), "0.001000"},
		{"price truncates instead of rounding", FormatPrice("1.129", 2), "1.12"},
		{"price pads integer", FormatPrice("50000", 2), "50000.00"},
		{"negative toward zero", FormatPrice("-1.129", 2), "-1.12"},
		{"unparseable passes through", FormatPrice("abc", 2), "abc"},
		{"unparseable quantity", FormatQuantity("", 6), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}

func TestFormatPrice_NeverRoundsUp(t *testing.T) {
	cent := decimal.New(1, -2)
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.Int64Range(1, 1<<40).Draw(t, "n")
		scale := rapid.Int32Range(0, 10).Draw(t, "scale")
		in := decimal.New(n, -scale)

		out, err := decimal.NewFromString(FormatPrice(in.String(), 2))
		if err != nil {
			t.Fatalf("FormatPrice(%s) not a decimal: %v", in, err)
		}
		if out.GreaterThan(in) {
			t.Fatalf("FormatPrice(%s) = %s rounds up", in, out)
		}
		if in.Sub(out).GreaterThanOrEqual(cent) {
			t.Fatalf("FormatPrice(%s) = %s drops more than a cent", in, out)
		}
	})
}

func TestNotionalValue(t *testing.T) {
	if got := NotionalValue("0.001", "50000"); !got.Equal(decimal.NewFromInt(50)) {
		t.Errorf("NotionalValue = %s, want 50", got)
	}
	if got := NotionalValue("1.5", "2.25"); got.String() != "3.375" {
		t.Errorf("NotionalValue = %s, want 3.375", got)
	}
	if got := NotionalValue("x", "1"); !got.IsZero() {
		t.Errorf("NotionalValue on bad input = %s, want 0", got)
	}
}

func TestStopPrice(t *testing.T) {
	tests := []struct {
		entry string
		pct   float64
		side  string
		want  string
	}{
		{"100", 5, "BUY", "95.00"},
		{"100", 5, "SELL", "105.00"},
		{"50000", 2.5, "buy", "48750.00"},
		{"33.333", 1, "SELL", "33.66"},
		{"abc", 5, "BUY", "abc"},
	}

	for _, tt := range tests {
		if got := StopPrice(tt.entry, tt.pct, tt.side); got != tt.want {
			t.Errorf("StopPrice(%q, %v, %q) = %q, want %q", tt.entry, tt.pct, tt.side, got, tt.want)
		}
	}
}

func TestStopLimitParams(t *testing.T) {
	tests := []struct {
		stop, limit, side string
		want              bool
	}{
		{"100", "110", "BUY", true},
		{"110", "100", "BUY", false},
		{"100", "100", "BUY", true},
		{"110", "100", "SELL", true},
		{"100", "110", "SELL", false},
		{"100", "100", "SELL", true},
		{"x", "100", "BUY", false},
		{"100", "", "SELL", false},
	}

	for _, tt := range tests {
		if got := StopLimitParams(tt.stop, tt.limit, tt.side); got != tt.want {
			t.Errorf("StopLimitParams(%q, %q, %q) = %v, want %v", tt.stop, tt.limit, tt.side, got, tt.want)
		}
	}
}

func TestTimeInForce(t *testing.T) {
	tests := map[string]string{
		"GTC": "GTC", "ioc": "IOC", "FOK": "FOK", "gtx": "GTX",
		"": "GTC", "DAY": "GTC",
	}
	for in, want := range tests {
		if got := TimeInForce(in); got != want {
			t.Errorf("TimeInForce(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestKlineInterval(t *testing.T) {
	if !KlineInterval("1h") || !KlineInterval("1M") {
		t.Error("known interval rejected")
	}
	if KlineInterval("2d") || KlineInterval("1H") {
		t.Error("unknown interval accepted")
	}
}
