package exchange

import (
	_ "embed"
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

// DefaultBasePrice is used for symbols the registry does not know.
const DefaultBasePrice = 100.0

// Market is one row of the market table.
type Market struct {
	Symbol            string  `yaml:"symbol"`
	BasePrice         float64 `yaml:"base_price"`
	Listed            bool    `yaml:"listed"`
	Status            string  `yaml:"status"`
	BaseAsset         string  `yaml:"base_asset"`
	QuoteAsset        string  `yaml:"quote_asset"`
	PricePrecision    int     `yaml:"price_precision"`
	QuantityPrecision int     `yaml:"quantity_precision"`
}

func (m Market) Info() SymbolInfo {
	return SymbolInfo{
		Symbol:            m.Symbol,
		Status:            m.Status,
		BaseAsset:         m.BaseAsset,
		QuoteAsset:        m.QuoteAsset,
		PricePrecision:    m.PricePrecision,
		QuantityPrecision: m.QuantityPrecision,
	}
}

// Registry holds the market table in registration order.
type Registry struct {
	mu      sync.RWMutex
	markets map[string]Market
	order   []string
}

func NewRegistry() *Registry {
	return &Registry{markets: make(map[string]Market)}
}

// Register adds m. Symbols must be unique and non-empty.
func (r *Registry) Register(m Market) error {
	if m.Symbol == "" {
		return fmt.Errorf("market without symbol")
	}
	if m.BasePrice <= 0 {
		return fmt.Errorf("market %s: base price must be positive", m.Symbol)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.markets[m.Symbol]; exists {
		return fmt.Errorf("market %s already registered", m.Symbol)
	}
	r.markets[m.Symbol] = m
	r.order = append(r.order, m.Symbol)
	return nil
}

func (r *Registry) Get(symbol string) (Market, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.markets[symbol]
	return m, ok
}

func (r *Registry) Exists(symbol string) bool {
	_, ok := r.Get(symbol)
	return ok
}

// List returns every market in registration order.
func (r *Registry) List() []Market {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Market, 0, len(r.order))
	for _, s := range r.order {
		out = append(out, r.markets[s])
	}
	return out
}

// Listed returns exchange metadata for listed markets only.
func (r *Registry) Listed() []SymbolInfo {
	var out []SymbolInfo
	for _, m := range r.List() {
		if m.Listed {
			out = append(out, m.Info())
		}
	}
	return out
}

func (r *Registry) BasePrice(symbol string) float64 {
	if m, ok := r.Get(symbol); ok {
		return m.BasePrice
	}
	return DefaultBasePrice
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

//go:embed markets.yaml
var defaultMarkets []byte

type marketFile struct {
	Markets []Market `yaml:"markets"`
}

// ParseMarkets builds a Registry from a YAML market table.
func ParseMarkets(data []byte) (*Registry, error) {
	var f marketFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse markets: %w", err)
	}
	r := NewRegistry()
	for _, m := range f.Markets {
		if err := r.Register(m); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// LoadMarkets reads the table at path, or the built-in one when path is
// empty.
func LoadMarkets(path string) (*Registry, error) {
	if path == "" {
		return ParseMarkets(defaultMarkets)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read markets file: %w", err)
	}
	return ParseMarkets(data)
}

// DefaultRegistry returns the built-in table. It panics if the embedded
// YAML is broken.
func DefaultRegistry() *Registry {
	r, err := ParseMarkets(defaultMarkets)
	if err != nil {
		panic(err)
	}
	return r
}
