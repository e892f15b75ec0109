// Package validate holds the pure input checks and decimal formatting used
// before an order touches the store.
package validate

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	DefaultQuantityPrecision int32 = 6
	DefaultPricePrecision    int32 = 2
)

var symbolPattern = regexp.MustCompile(`^[A-Z][A-Z0-9]*USDT$`)

var (
	sides      = map[string]bool{"BUY": true, "SELL": true}
	orderTypes = map[string]bool{"MARKET": true, "LIMIT": true, "STOP_LIMIT": true, "OCO": true}
	tifs       = map[string]bool{"GTC": true, "IOC": true, "FOK": true, "GTX": true}
	intervals  = map[string]bool{
		"1m": true, "3m": true, "5m": true, "15m": true, "30m": true,
		"1h": true, "2h": true, "4h": true, "6h": true, "8h": true, "12h": true,
		"1d": true, "3d": true, "1w": true, "1M": true,
	}
)

// Symbol reports whether s is an uppercase USDT pair starting with a letter.
func Symbol(s string) bool {
	return s != "" && symbolPattern.MatchString(s)
}

// Accepted decimal range: at most maxDigits significant digits, at most
// maxDigits digits before the point and nothing below 10^-maxScale.
const (
	maxDigits = 28
	maxScale  = 32
)

func parse(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil || !inRange(d) {
		return decimal.Zero, false
	}
	return d, true
}

// inRange rejects values whose fixed-point form would be huge, such as
// "1e5000000", before anything formats them.
func inRange(d decimal.Decimal) bool {
	coef := strings.TrimLeft(d.Coefficient().String(), "-")
	sig := strings.TrimRight(coef, "0")
	if sig == "" {
		return true
	}
	exp := int64(d.Exponent()) + int64(len(coef)-len(sig))
	switch {
	case len(sig) > maxDigits:
		return false
	case exp < -maxScale:
		return false
	case int64(len(sig))+exp > maxDigits:
		return false
	}
	return true
}

func positive(s string) bool {
	d, ok := parse(s)
	return ok && d.IsPositive()
}

// Quantity reports whether s is a decimal strictly greater than zero.
func Quantity(s string) bool { return positive(s) }

// Price reports whether s is a decimal strictly greater than zero.
func Price(s string) bool { return positive(s) }

func Side(s string) bool { return sides[s] }

func OrderType(s string) bool { return orderTypes[s] }

// KlineInterval reports whether s is one of the candle intervals callers may request.
func KlineInterval(s string) bool { return intervals[s] }

// TimeInForce normalizes s; unknown policies fall back to GTC.
func TimeInForce(s string) string {
	tif := strings.ToUpper(strings.TrimSpace(s))
	if tifs[tif] {
		return tif
	}
	return "GTC"
}

func truncate(s string, precision int32) string {
	d, ok := parse(s)
	if !ok {
		return s
	}
	return d.Truncate(precision).StringFixed(precision)
}

// FormatQuantity cuts s to precision fractional digits, rounding toward
// zero. Unparseable input is returned as is.
func FormatQuantity(s string, precision int32) string { return truncate(s, precision) }

// FormatPrice cuts s to precision fractional digits, rounding toward zero.
// Unparseable input is returned as is.
func FormatPrice(s string, precision int32) string { return truncate(s, precision) }

// NotionalValue returns qty*price, or zero if either side fails to parse.
func NotionalValue(qty, price string) decimal.Decimal {
	q, ok := parse(qty)
	if !ok {
		return decimal.Zero
	}
	p, ok := parse(price)
	if !ok {
		return decimal.Zero
	}
	return q.Mul(p)
}

var hundred = decimal.NewFromInt(100)

// StopPrice offsets entry by stopPercent: below entry for BUY, above for
// anything else. The result has two decimals.
func StopPrice(entry string, stopPercent float64, side string) string {
	e, ok := parse(entry)
	if !ok {
		return FormatPrice(entry, 2)
	}

	ratio := decimal.NewFromFloat(stopPercent).Div(hundred)
	var stop decimal.Decimal
	if strings.ToUpper(side) == "BUY" {
		stop = e.Mul(decimal.NewFromInt(1).Sub(ratio))
	} else {
		stop = e.Mul(decimal.NewFromInt(1).Add(ratio))
	}
	return FormatPrice(stop.String(), 2)
}

// StopLimitParams checks the trigger/limit relationship: a BUY stop must not
// sit above its limit and a SELL stop must not sit below it.
func StopLimitParams(stop, limit, side string) bool {
	s, ok := parse(stop)
	if !ok {
		return false
	}
	l, ok := parse(limit)
	if !ok {
		return false
	}
	if strings.ToUpper(side) == "BUY" {
		return s.LessThanOrEqual(l)
	}
	return s.GreaterThanOrEqual(l)
}
