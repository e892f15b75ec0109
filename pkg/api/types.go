package api

// ==============================
// REST Types
// ==============================

// OrderRequest is the body of POST /api/orders and its per-type variants.
// Type is MARKET, LIMIT, STOP_LIMIT or OCO; the per-type routes fill it in.
type OrderRequest struct {
	Symbol         string `json:"symbol"`
	Side           string `json:"side"`
	Type           string `json:"type"`
	Quantity       string `json:"quantity"`
	Price          string `json:"price,omitempty"`      // limit price (LIMIT, STOP_LIMIT, OCO)
	StopPrice      string `json:"stop_price,omitempty"` // trigger (STOP_LIMIT, OCO)
	StopLimitPrice string `json:"stop_limit_price,omitempty"`
	TimeInForce    string `json:"time_in_force,omitempty"`
}

type StatusResponse struct {
	Connected  bool   `json:"connected"`
	Timestamp  int64  `json:"timestamp"`
	ServerTime int64  `json:"server_time,omitempty"`
	DemoMode   bool   `json:"demo_mode"`
	Message    string `json:"message"`
}

type SymbolsResponse struct {
	Symbols []string `json:"symbols"`
}

// ErrorResponse is returned for all errors
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"` // validation, not_found, internal
}

// ==============================
// WebSocket Message Types
// ==============================

// WSMessage wraps every message pushed to subscribers.
type WSMessage struct {
	Type    string `json:"type"` // "order" or "ticker"
	Channel string `json:"channel"`
	Data    any    `json:"data"`
}

// WSSubscribeRequest is sent by client to subscribe to channels
type WSSubscribeRequest struct {
	Op       string   `json:"op"`       // "subscribe" or "unsubscribe"
	Channels []string `json:"channels"` // e.g. ["orders:BTCUSDT", "ticker:ETHUSDT"]
}

func orderChannel(symbol string) string  { return "orders:" + symbol }
func tickerChannel(symbol string) string { return "ticker:" + symbol }
