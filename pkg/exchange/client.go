// Package exchange is the market-data side of the desk: a Client interface
// shaped after the futures REST API and a randomized DemoClient behind it.
package exchange

import (
	"context"
	"encoding/json"
)

// Client is what the bot needs from an exchange. A live adapter would
// implement the same methods.
type Client interface {
	ServerTime(ctx context.Context) (int64, error)
	Ticker(ctx context.Context, symbol string) (Ticker, error)
	ExchangeInfo(ctx context.Context) (ExchangeInfo, error)
	RecentTrades(ctx context.Context, symbol string, limit int) ([]Trade, error)
	Klines(ctx context.Context, symbol, interval string, limit int) ([]Kline, error)
	Account(ctx context.Context) (Account, error)
}

// Ticker is a 24h rolling-window quote.
type Ticker struct {
	Symbol             string `json:"symbol"`
	LastPrice          string `json:"lastPrice"`
	BidPrice           string `json:"bidPrice"`
	AskPrice           string `json:"askPrice"`
	HighPrice          string `json:"highPrice"`
	LowPrice           string `json:"lowPrice"`
	Volume             string `json:"volume"`
	PriceChange        string `json:"priceChange"`
	PriceChangePercent string `json:"priceChangePercent"`
}

type SymbolInfo struct {
	Symbol            string `json:"symbol"`
	Status            string `json:"status"`
	BaseAsset         string `json:"baseAsset"`
	QuoteAsset        string `json:"quoteAsset"`
	PricePrecision    int    `json:"pricePrecision"`
	QuantityPrecision int    `json:"quantityPrecision"`
}

type ExchangeInfo struct {
	Symbols []SymbolInfo `json:"symbols"`
}

type Trade struct {
	ID           int64  `json:"id"`
	Price        string `json:"price"`
	Qty          string `json:"qty"`
	Time         int64  `json:"time"`
	IsBuyerMaker bool   `json:"isBuyerMaker"`
}

// Kline is one OHLCV candle. It encodes as the 11-element array the
// futures API uses.
type Kline struct {
	OpenTime            int64
	Open                string
	High                string
	Low                 string
	Close               string
	Volume              string
	CloseTime           int64
	QuoteAssetVolume    string
	NumberOfTrades      int
	TakerBuyBaseVolume  string
	TakerBuyQuoteVolume string
}

func (k Kline) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{
		k.OpenTime, k.Open, k.High, k.Low, k.Close, k.Volume,
		k.CloseTime, k.QuoteAssetVolume, k.NumberOfTrades,
		k.TakerBuyBaseVolume, k.TakerBuyQuoteVolume,
	})
}

type Asset struct {
	Asset            string `json:"asset"`
	WalletBalance    string `json:"walletBalance"`
	UnrealizedPnl    string `json:"unrealizedPnl"`
	MarginBalance    string `json:"marginBalance"`
	AvailableBalance string `json:"availableBalance"`
}

type Position struct {
	Symbol           string `json:"symbol"`
	PositionAmt      string `json:"positionAmt"`
	EntryPrice       string `json:"entryPrice"`
	MarkPrice        string `json:"markPrice"`
	UnRealizedProfit string `json:"unRealizedProfit"`
}

type Account struct {
	CanTrade    bool       `json:"canTrade"`
	CanWithdraw bool       `json:"canWithdraw"`
	CanDeposit  bool       `json:"canDeposit"`
	UpdateTime  int64      `json:"updateTime"`
	Assets      []Asset    `json:"assets"`
	Positions   []Position `json:"positions"`
}
