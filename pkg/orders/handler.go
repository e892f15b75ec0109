// Package orders tracks simulated orders: validation, id assignment, the
// status each order type starts in, and cancellation.
package orders

import (
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/uhyunpark/orderdesk/pkg/apperr"
	"github.com/uhyunpark/orderdesk/pkg/util"
	"github.com/uhyunpark/orderdesk/pkg/validate"
)

// Endpoint names reported to the EventSink.
const (
	EndpointCreateOrder   = "futures_create_order"
	EndpointCancelOrder   = "futures_cancel_order"
	EndpointGetOrder      = "futures_get_order"
	EndpointGetOpenOrders = "futures_get_open_orders"
)

const defaultIDStart uint64 = 1000

// Options configures a Handler. Nil fields get in-memory defaults and a zero
// precision selects the validate package default.
type Options struct {
	Store             Store
	IDs               IDGenerator
	Clock             util.Clock
	Sink              EventSink
	Logger            *zap.SugaredLogger
	QuantityPrecision int32
	PricePrecision    int32

	// StrictOCO rejects OCO orders whose stop and stop-limit prices would be
	// rejected as a stop-limit order.
	StrictOCO bool
}

// Handler is the order lifecycle. It is safe for concurrent use.
type Handler struct {
	mu    sync.Mutex
	store Store
	ids   IDGenerator
	clock util.Clock
	sink  EventSink
	log   *zap.SugaredLogger

	qtyPrec   int32
	pricePrec int32
	strictOCO bool

	// OnUpdate, if set, is called after every successful mutation.
	OnUpdate func(Response)
}

func NewHandler(opts Options) *Handler {
	h := &Handler{
		store:     opts.Store,
		ids:       opts.IDs,
		clock:     opts.Clock,
		sink:      opts.Sink,
		log:       opts.Logger,
		qtyPrec:   opts.QuantityPrecision,
		pricePrec: opts.PricePrecision,
		strictOCO: opts.StrictOCO,
	}
	if h.store == nil {
		h.store = NewMemoryStore()
	}
	if h.ids == nil {
		h.ids = NewSequenceGenerator(defaultIDStart)
	}
	if h.clock == nil {
		h.clock = util.RealClock{}
	}
	if h.sink == nil {
		h.sink = NopSink{}
	}
	if h.log == nil {
		h.log = zap.NewNop().Sugar()
	}
	if h.qtyPrec == 0 {
		h.qtyPrec = validate.DefaultQuantityPrecision
	}
	if h.pricePrec == 0 {
		h.pricePrec = validate.DefaultPricePrecision
	}
	return h
}

func (h *Handler) checkBase(symbol, side, quantity string) error {
	if !validate.Symbol(symbol) {
		return apperr.Validationf("invalid symbol: %s", symbol)
	}
	if !validate.Side(side) {
		return apperr.Validationf("invalid side: %s", side)
	}
	if !validate.Quantity(quantity) {
		return apperr.Validationf("invalid quantity: %s", quantity)
	}
	return nil
}

// place assigns id, time and initial status, then stores o.
func (h *Handler) place(o Order, params map[string]any) (Response, error) {
	h.mu.Lock()
	o.ID = h.ids.Next()
	o.Time = util.UnixMilli(h.clock)
	o.Status = StatusNew
	if o.Type == Market {
		o.Status = StatusFilled
	}
	err := h.store.Put(o)
	h.mu.Unlock()
	if err != nil {
		return Response{}, apperr.Wrap(err, "store order")
	}

	h.log.Infow("order_placed",
		"order_id", o.ID,
		"type", o.Type,
		"symbol", o.Symbol,
		"side", o.Side,
		"quantity", o.Quantity,
		"price", o.Price,
		"status", o.Status,
	)
	h.sink.APICall(EndpointCreateOrder, params, o)

	resp := o.Response()
	h.notify(resp)
	return resp, nil
}

func (h *Handler) notify(r Response) {
	if h.OnUpdate != nil {
		h.OnUpdate(r)
	}
}

func (h *Handler) fail(op string, err error, kv ...any) error {
	h.log.Errorw(op+"_failed", append(kv, "err", err)...)
	return err
}

// PlaceMarketOrder records a market order. It is FILLED immediately.
func (h *Handler) PlaceMarketOrder(symbol, side, quantity string) (Response, error) {
	if err := h.checkBase(symbol, side, quantity); err != nil {
		return Response{}, h.fail("place_market_order", err, "symbol", symbol)
	}
	qty := validate.FormatQuantity(quantity, h.qtyPrec)

	resp, err := h.place(Order{
		Symbol:   symbol,
		Side:     Side(side),
		Type:     Market,
		Quantity: qty,
	}, map[string]any{"symbol": symbol, "side": side, "type": string(Market), "quantity": qty})
	if err != nil {
		return Response{}, h.fail("place_market_order", err, "symbol", symbol)
	}
	return resp, nil
}

// PlaceLimitOrder records a resting limit order. An unknown time-in-force
// falls back to GTC.
func (h *Handler) PlaceLimitOrder(symbol, side, quantity, price, timeInForce string) (Response, error) {
	if err := h.checkBase(symbol, side, quantity); err != nil {
		return Response{}, h.fail("place_limit_order", err, "symbol", symbol)
	}
	if !validate.Price(price) {
		return Response{}, h.fail("place_limit_order", apperr.Validationf("invalid price: %s", price), "symbol", symbol)
	}
	qty := validate.FormatQuantity(quantity, h.qtyPrec)
	px := validate.FormatPrice(price, h.pricePrec)
	tif := validate.TimeInForce(timeInForce)

	resp, err := h.place(Order{
		Symbol:      symbol,
		Side:        Side(side),
		Type:        Limit,
		Quantity:    qty,
		Price:       px,
		TimeInForce: tif,
	}, map[string]any{"symbol": symbol, "side": side, "type": string(Limit), "quantity": qty, "price": px, "timeInForce": tif})
	if err != nil {
		return Response{}, h.fail("place_limit_order", err, "symbol", symbol)
	}
	return resp, nil
}

// PlaceStopLimitOrder records a stop order triggering at stopPrice with
// limitPrice as its price. It is stored as STOP_MARKET.
func (h *Handler) PlaceStopLimitOrder(symbol, side, quantity, stopPrice, limitPrice, timeInForce string) (Response, error) {
	if err := h.checkBase(symbol, side, quantity); err != nil {
		return Response{}, h.fail("place_stop_limit_order", err, "symbol", symbol)
	}
	if !validate.Price(stopPrice) || !validate.Price(limitPrice) {
		return Response{}, h.fail("place_stop_limit_order",
			apperr.Validationf("invalid stop or limit price"), "symbol", symbol)
	}
	if !validate.StopLimitParams(stopPrice, limitPrice, side) {
		return Response{}, h.fail("place_stop_limit_order",
			apperr.Validationf("invalid stop-limit parameters for the given side"),
			"symbol", symbol, "stop", stopPrice, "limit", limitPrice)
	}
	qty := validate.FormatQuantity(quantity, h.qtyPrec)
	stop := validate.FormatPrice(stopPrice, h.pricePrec)
	limit := validate.FormatPrice(limitPrice, h.pricePrec)
	tif := validate.TimeInForce(timeInForce)

	resp, err := h.place(Order{
		Symbol:      symbol,
		Side:        Side(side),
		Type:        StopMarket,
		Quantity:    qty,
		Price:       limit,
		StopPrice:   stop,
		TimeInForce: tif,
	}, map[string]any{
		"symbol": symbol, "side": side, "type": string(StopMarket),
		"quantity": qty, "stopPrice": stop, "price": limit, "timeInForce": tif,
	})
	if err != nil {
		return Response{}, h.fail("place_stop_limit_order", err, "symbol", symbol)
	}
	return resp, nil
}

// PlaceOCOOrder records a one-cancels-other pair as a single OCO order. The
// three prices are checked individually; their ordering is only checked
// when the handler runs with StrictOCO.
func (h *Handler) PlaceOCOOrder(symbol, side, quantity, price, stopPrice, stopLimitPrice string) (Response, error) {
	if err := h.checkBase(symbol, side, quantity); err != nil {
		return Response{}, h.fail("place_oco_order", err, "symbol", symbol)
	}
	if !validate.Price(price) || !validate.Price(stopPrice) || !validate.Price(stopLimitPrice) {
		return Response{}, h.fail("place_oco_order", apperr.Validationf("invalid price parameters"), "symbol", symbol)
	}
	if h.strictOCO && !validate.StopLimitParams(stopPrice, stopLimitPrice, side) {
		return Response{}, h.fail("place_oco_order",
			apperr.Validationf("invalid stop-limit parameters for the given side"),
			"symbol", symbol, "stop", stopPrice, "stop_limit", stopLimitPrice)
	}
	qty := validate.FormatQuantity(quantity, h.qtyPrec)
	px := validate.FormatPrice(price, h.pricePrec)
	stop := validate.FormatPrice(stopPrice, h.pricePrec)
	stopLimit := validate.FormatPrice(stopLimitPrice, h.pricePrec)

	resp, err := h.place(Order{
		Symbol:         symbol,
		Side:           Side(side),
		Type:           OCO,
		Quantity:       qty,
		Price:          px,
		StopPrice:      stop,
		StopLimitPrice: stopLimit,
	}, map[string]any{
		"symbol": symbol, "side": side, "type": string(OCO),
		"quantity": qty, "price": px, "stopPrice": stop, "stopLimitPrice": stopLimit,
	})
	if err != nil {
		return Response{}, h.fail("place_oco_order", err, "symbol", symbol)
	}
	return resp, nil
}

// CancelOrder removes orderID from the store. The symbol is validated but
// not compared to the stored order's symbol.
func (h *Handler) CancelOrder(symbol, orderID string) (Response, error) {
	if !validate.Symbol(symbol) {
		return Response{}, h.fail("cancel_order", apperr.Validationf("invalid symbol: %s", symbol), "order_id", orderID)
	}

	h.mu.Lock()
	removed, err := h.store.Delete(orderID)
	h.mu.Unlock()
	if err != nil {
		return Response{}, h.fail("cancel_order", apperr.Wrap(err, "delete order"), "order_id", orderID)
	}
	if !removed {
		return Response{}, h.fail("cancel_order", apperr.NotFoundf("order %s not found", orderID), "order_id", orderID)
	}

	resp := Response{
		OrderID: orderID,
		Symbol:  symbol,
		Status:  StatusCanceled,
		Time:    util.UnixMilli(h.clock),
	}
	h.log.Infow("order_canceled", "order_id", orderID, "symbol", symbol)
	h.sink.APICall(EndpointCancelOrder, map[string]any{"symbol": symbol, "orderId": orderID}, resp)
	h.notify(resp)
	return resp, nil
}

// OrderStatus returns the stored order with UpdateTime set to now.
func (h *Handler) OrderStatus(symbol, orderID string) (Response, error) {
	if !validate.Symbol(symbol) {
		return Response{}, h.fail("get_order_status", apperr.Validationf("invalid symbol: %s", symbol), "order_id", orderID)
	}

	o, ok, err := h.store.Get(orderID)
	if err != nil {
		return Response{}, h.fail("get_order_status", apperr.Wrap(err, "get order"), "order_id", orderID)
	}
	if !ok {
		return Response{}, h.fail("get_order_status", apperr.NotFoundf("order %s not found", orderID), "order_id", orderID)
	}
	o.UpdateTime = util.UnixMilli(h.clock)

	h.log.Infow("order_status", "order_id", orderID, "status", o.Status)
	h.sink.APICall(EndpointGetOrder, map[string]any{"symbol": symbol, "orderId": orderID}, o)
	return o.Response(), nil
}

// OpenOrders lists NEW and PARTIALLY_FILLED orders in insertion order. An
// empty symbol means all symbols; the match ignores case.
func (h *Handler) OpenOrders(symbol string) ([]Response, error) {
	all, err := h.store.List()
	if err != nil {
		return nil, h.fail("get_open_orders", apperr.Wrap(err, "list orders"))
	}

	want := strings.ToUpper(symbol)
	open := make([]Order, 0, len(all))
	for _, o := range all {
		if want != "" && o.Symbol != want {
			continue
		}
		if o.IsOpen() {
			open = append(open, o)
		}
	}

	params := map[string]any{}
	if symbol != "" {
		params["symbol"] = symbol
	}
	h.log.Infow("open_orders", "symbol", symbol, "count", len(open))
	h.sink.APICall(EndpointGetOpenOrders, params, open)

	out := make([]Response, 0, len(open))
	for _, o := range open {
		out = append(out, o.Response())
	}
	return out, nil
}
