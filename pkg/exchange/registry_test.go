package exchange

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultRegistry(t *testing.T) {
	r := DefaultRegistry()
	if r.Count() != 5 {
		t.Fatalf("Count = %d, want 5", r.Count())
	}
	if r.BasePrice("ADAUSDT") != 0.5 {
		t.Errorf("ADAUSDT base = %v", r.BasePrice("ADAUSDT"))
	}
	if r.BasePrice("NOPEUSDT") != DefaultBasePrice {
		t.Errorf("unknown base = %v", r.BasePrice("NOPEUSDT"))
	}
	if !r.Exists("SOLUSDT") || r.Exists("solusdt") {
		t.Error("Exists is wrong")
	}
	if len(r.Listed()) != 3 {
		t.Errorf("Listed = %d, want 3", len(r.Listed()))
	}
}

func TestRegistry_Register(t *testing.T) {
	r := NewRegistry()
	tests := []struct {
		name    string
		m       Market
		wantErr bool
	}{
		{"ok", Market{Symbol: "DOGEUSDT", BasePrice: 0.1}, false},
		{"duplicate", Market{Symbol: "DOGEUSDT", BasePrice: 0.2}, true},
		{"no symbol", Market{BasePrice: 1}, true},
		{"zero price", Market{Symbol: "XRPUSDT"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := r.Register(tt.m)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Register err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
	if m, _ := r.Get("DOGEUSDT"); m.BasePrice != 0.1 {
		t.Errorf("duplicate overwrote: %+v", m)
	}
}

func TestLoadMarkets(t *testing.T) {
	path := filepath.Join(t.TempDir(), "markets.yaml")
	doc := "markets:\n  - symbol: DOTUSDT\n    base_price: 7.5\n    listed: true\n    status: TRADING\n"
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	r, err := LoadMarkets(path)
	if err != nil {
		t.Fatalf("LoadMarkets: %v", err)
	}
	if r.Count() != 1 || r.BasePrice("DOTUSDT") != 7.5 {
		t.Errorf("loaded %+v", r.List())
	}

	if _, err := LoadMarkets(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("missing file accepted")
	}
	if _, err := ParseMarkets([]byte("markets: [")); err == nil {
		t.Error("broken yaml accepted")
	}
	if r, err := LoadMarkets(""); err != nil || r.Count() != 5 {
		t.Errorf("built-in table: %v", err)
	}
}
