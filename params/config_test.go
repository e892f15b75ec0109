package params

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func TestLoadFromEnv_Defaults(t *testing.T) {
	// Point at a missing file so a stray .env in the package dir is ignored.
	cfg := LoadFromEnv(filepath.Join(t.TempDir(), "missing.env"))

	if cfg.API.Addr != ":5000" {
		t.Errorf("API.Addr = %q, want :5000", cfg.API.Addr)
	}
	if cfg.Orders.IDStart != 1000 {
		t.Errorf("Orders.IDStart = %d, want 1000", cfg.Orders.IDStart)
	}
	if cfg.Orders.Store != "memory" {
		t.Errorf("Orders.Store = %q, want memory", cfg.Orders.Store)
	}
	if cfg.Orders.QuantityPrecision != 6 || cfg.Orders.PricePrecision != 2 {
		t.Errorf("precision = %d/%d, want 6/2", cfg.Orders.QuantityPrecision, cfg.Orders.PricePrecision)
	}
	if cfg.Orders.StrictOCO {
		t.Error("StrictOCO should default to false")
	}
}

func TestLoadFromEnv_Overrides(t *testing.T) {
	t.Setenv("API_ADDR", ":9090")
	t.Setenv("CORS_ORIGINS", "http://a.test, http://b.test")
	t.Setenv("ORDER_ID_START", "5000")
	t.Setenv("ORDER_STORE", "PEBBLE")
	t.Setenv("ORDER_STORE_PATH", "data/orders")
	t.Setenv("QUANTITY_PRECISION", "3")
	t.Setenv("STRICT_OCO", "true")
	t.Setenv("FEED_INTERVAL_MS", "250")
	t.Setenv("FEED_SYMBOLS", "btcusdt,solusdt")
	t.Setenv("MARKET_SEED", "42")

	cfg := LoadFromEnv(filepath.Join(t.TempDir(), "missing.env"))

	if cfg.API.Addr != ":9090" {
		t.Errorf("API.Addr = %q", cfg.API.Addr)
	}
	if want := []string{"http://a.test", "http://b.test"}; !reflect.DeepEqual(cfg.API.AllowedOrigins, want) {
		t.Errorf("AllowedOrigins = %v, want %v", cfg.API.AllowedOrigins, want)
	}
	if cfg.Orders.IDStart != 5000 {
		t.Errorf("IDStart = %d", cfg.Orders.IDStart)
	}
	if cfg.Orders.Store != "pebble" || cfg.Orders.StorePath != "data/orders" {
		t.Errorf("Store = %q at %q", cfg.Orders.Store, cfg.Orders.StorePath)
	}
	if cfg.Orders.QuantityPrecision != 3 {
		t.Errorf("QuantityPrecision = %d", cfg.Orders.QuantityPrecision)
	}
	if !cfg.Orders.StrictOCO {
		t.Error("StrictOCO not applied")
	}
	if cfg.Market.FeedInterval != 250*time.Millisecond {
		t.Errorf("FeedInterval = %v", cfg.Market.FeedInterval)
	}
	if want := []string{"BTCUSDT", "SOLUSDT"}; !reflect.DeepEqual(cfg.Market.FeedSymbols, want) {
		t.Errorf("FeedSymbols = %v, want %v", cfg.Market.FeedSymbols, want)
	}
	if cfg.Market.Seed != 42 {
		t.Errorf("Seed = %d", cfg.Market.Seed)
	}
}

func TestLoadFromEnv_DotEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	if err := os.WriteFile(path, []byte("LOG_FILE=/tmp/orderdesk-test.log\nVERBOSE=true\n"), 0644); err != nil {
		t.Fatalf("write env: %v", err)
	}
	// godotenv.Load never overrides variables that are already set, so
	// register cleanup for the keys the file introduces.
	t.Cleanup(func() {
		os.Unsetenv("LOG_FILE")
		os.Unsetenv("VERBOSE")
	})

	cfg := LoadFromEnv(path)
	if cfg.Log.File != "/tmp/orderdesk-test.log" {
		t.Errorf("Log.File = %q", cfg.Log.File)
	}
	if !cfg.Log.Verbose {
		t.Error("Verbose not read from .env")
	}
}
