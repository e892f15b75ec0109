package orders

type Side string

const (
	Buy  Side = "BUY"
	Sell Side = "SELL"
)

// Type is the order type as stored. Stop-limit requests are stored as
// STOP_MARKET, matching what the futures API reports back.
type Type string

const (
	Market     Type = "MARKET"
	Limit      Type = "LIMIT"
	StopMarket Type = "STOP_MARKET"
	OCO        Type = "OCO"
)

// Status tracks the lifecycle state of an order
type Status string

const (
	StatusNew             Status = "NEW"
	StatusPartiallyFilled Status = "PARTIALLY_FILLED" // never assigned here; kept for filtering
	StatusFilled          Status = "FILLED"
	StatusCanceled        Status = "CANCELED"
)

// Order is the record kept in the Store. The JSON form mirrors the raw
// futures API payload and is what the call journal records.
type Order struct {
	ID             string `json:"orderId"`
	Symbol         string `json:"symbol"`
	Side           Side   `json:"side"`
	Type           Type   `json:"type"`
	Quantity       string `json:"origQty"`
	Price          string `json:"price,omitempty"` // limit price; empty for MARKET
	StopPrice      string `json:"stopPrice,omitempty"`
	StopLimitPrice string `json:"stopLimitPrice,omitempty"` // OCO only
	TimeInForce    string `json:"timeInForce,omitempty"`
	Status         Status `json:"status"`
	Time           int64  `json:"time"`                 // Unix milliseconds
	UpdateTime     int64  `json:"updateTime,omitempty"` // Unix milliseconds, 0 when unset
}

// IsOpen returns true while the order can still be canceled
func (o Order) IsOpen() bool {
	return o.Status == StatusNew || o.Status == StatusPartiallyFilled
}

// Response is the caller-facing view of an order. Unset fields are dropped
// from the JSON form.
type Response struct {
	OrderID    string `json:"order_id,omitempty"`
	Symbol     string `json:"symbol,omitempty"`
	Side       Side   `json:"side,omitempty"`
	Type       Type   `json:"type,omitempty"`
	Quantity   string `json:"quantity,omitempty"`
	Price      string `json:"price,omitempty"`
	Status     Status `json:"status,omitempty"`
	Time       int64  `json:"time,omitempty"`
	UpdateTime int64  `json:"update_time,omitempty"`
}

func (o Order) Response() Response {
	return Response{
		OrderID:    o.ID,
		Symbol:     o.Symbol,
		Side:       o.Side,
		Type:       o.Type,
		Quantity:   o.Quantity,
		Price:      o.Price,
		Status:     o.Status,
		Time:       o.Time,
		UpdateTime: o.UpdateTime,
	}
}
