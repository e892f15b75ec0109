package params

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type API struct {
	Addr           string
	AllowedOrigins []string

	// CallLogFile receives one JSON line per simulated exchange call.
	// Empty disables the journal.
	CallLogFile string
}

type Orders struct {
	IDStart           uint64 // the first id handed out is IDStart+1
	Store             string // "memory" or "pebble"
	StorePath         string // pebble directory; empty keeps pebble in memory
	QuantityPrecision int32
	PricePrecision    int32
	StrictOCO         bool // apply the stop-limit ordering rule to OCO stop legs
}

type Market struct {
	File string // optional YAML override of the embedded market table
	Seed int64  // 0 means seed from the clock

	FeedEnabled  bool
	FeedInterval time.Duration
	FeedSymbols  []string
}

type Log struct {
	File    string
	Verbose bool
}

type Config struct {
	API    API
	Orders Orders
	Market Market
	Log    Log
}

func Default() Config {
	return Config{
		API: API{
			Addr:           ":5000",
			AllowedOrigins: []string{"*"},
			CallLogFile:    "data/api_calls.log",
		},
		Orders: Orders{
			IDStart:           1000,
			Store:             "memory",
			QuantityPrecision: 6,
			PricePrecision:    2,
		},
		Market: Market{
			FeedInterval: 2 * time.Second,
			FeedSymbols:  []string{"BTCUSDT", "ETHUSDT"},
		},
		Log: Log{
			File: "data/bot.log",
		},
	}
}

// LoadFromEnv loads configuration from .env file (if exists) and environment variables
// Priority: ENV > .env file > defaults
func LoadFromEnv(envPath string) Config {
	cfg := Default()

	if envPath != "" {
		_ = godotenv.Load(envPath)
	} else {
		_ = godotenv.Load()
	}

	cfg.API.Addr = getEnv("API_ADDR", cfg.API.Addr)
	if origins := os.Getenv("CORS_ORIGINS"); origins != "" {
		cfg.API.AllowedOrigins = splitList(origins)
	}
	if v, ok := os.LookupEnv("API_LOG_FILE"); ok {
		cfg.API.CallLogFile = v
	}

	if start := os.Getenv("ORDER_ID_START"); start != "" {
		if n, err := strconv.ParseUint(start, 10, 64); err == nil {
			cfg.Orders.IDStart = n
		}
	}
	cfg.Orders.Store = strings.ToLower(getEnv("ORDER_STORE", cfg.Orders.Store))
	cfg.Orders.StorePath = getEnv("ORDER_STORE_PATH", cfg.Orders.StorePath)
	if p := os.Getenv("QUANTITY_PRECISION"); p != "" {
		if n, err := strconv.Atoi(p); err == nil && n > 0 {
			cfg.Orders.QuantityPrecision = int32(n)
		}
	}
	if p := os.Getenv("PRICE_PRECISION"); p != "" {
		if n, err := strconv.Atoi(p); err == nil && n > 0 {
			cfg.Orders.PricePrecision = int32(n)
		}
	}
	cfg.Orders.StrictOCO = os.Getenv("STRICT_OCO") == "true"

	cfg.Market.File = getEnv("MARKETS_FILE", cfg.Market.File)
	if seed := os.Getenv("MARKET_SEED"); seed != "" {
		if n, err := strconv.ParseInt(seed, 10, 64); err == nil {
			cfg.Market.Seed = n
		}
	}
	cfg.Market.FeedEnabled = os.Getenv("ENABLE_FEED") == "true"
	if ms := os.Getenv("FEED_INTERVAL_MS"); ms != "" {
		if n, err := strconv.Atoi(ms); err == nil && n > 0 {
			cfg.Market.FeedInterval = time.Duration(n) * time.Millisecond
		}
	}
	if syms := os.Getenv("FEED_SYMBOLS"); syms != "" {
		cfg.Market.FeedSymbols = splitList(strings.ToUpper(syms))
	}

	cfg.Log.File = getEnv("LOG_FILE", cfg.Log.File)
	cfg.Log.Verbose = os.Getenv("VERBOSE") == "true"

	return cfg
}

// getEnv returns environment variable value or default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
