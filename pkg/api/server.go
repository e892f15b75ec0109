package api

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/uhyunpark/orderdesk/pkg/apperr"
	"github.com/uhyunpark/orderdesk/pkg/bot"
	"github.com/uhyunpark/orderdesk/pkg/orders"
	"github.com/uhyunpark/orderdesk/pkg/util"
)

const shutdownTimeout = 5 * time.Second

type Options struct {
	AllowedOrigins []string // nil allows any origin
	Logger         *zap.SugaredLogger
	Metrics        *Metrics
	Clock          util.Clock // nil means wall time
}

// Server handles REST API and WebSocket connections
type Server struct {
	bot     *bot.Bot
	router  *mux.Router
	hub     *Hub
	metrics *Metrics
	log     *zap.SugaredLogger
	origins []string
	clock   util.Clock

	ctx context.Context // set by Start; bounds WebSocket clients
}

// NewServer wires routes and subscribes to the bot's order updates.
func NewServer(b *bot.Bot, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop().Sugar()
	}
	if opts.Metrics == nil {
		opts.Metrics = NewMetrics()
	}
	if opts.Clock == nil {
		opts.Clock = util.RealClock{}
	}

	s := &Server{
		bot:     b,
		router:  mux.NewRouter(),
		hub:     NewHub(opts.Logger),
		metrics: opts.Metrics,
		log:     opts.Logger,
		origins: opts.AllowedOrigins,
		clock:   opts.Clock,
		ctx:     context.Background(),
	}
	s.hub.onCount = func(n int) { s.metrics.wsClients.Set(float64(n)) }
	b.Handler().OnUpdate = s.publishOrder

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()
	api.Use(s.metrics.instrument)

	// Status
	api.HandleFunc("/status", s.handleStatus).Methods("GET")
	api.HandleFunc("/symbols", s.handleSymbols).Methods("GET")

	// Market data
	api.HandleFunc("/price/{symbol}", s.handlePrice).Methods("GET")
	api.HandleFunc("/symbols/{symbol}", s.handleSymbolInfo).Methods("GET")
	api.HandleFunc("/trades/{symbol}", s.handleTrades).Methods("GET")
	api.HandleFunc("/klines/{symbol}", s.handleKlines).Methods("GET")

	// Account
	api.HandleFunc("/account", s.handleAccount).Methods("GET")
	api.HandleFunc("/balance/{asset}", s.handleBalance).Methods("GET")
	api.HandleFunc("/positions/close-all", s.handleCloseAll).Methods("POST")

	// Orders; cancel-all and the typed routes must precede /orders/{id}
	api.HandleFunc("/orders/cancel-all", s.handleCancelAll).Methods("POST")
	api.HandleFunc("/orders/{kind:market|limit|stop-limit|oco}", s.handlePlaceOrder).Methods("POST")
	api.HandleFunc("/orders", s.handlePlaceOrder).Methods("POST")
	api.HandleFunc("/orders", s.handleOpenOrders).Methods("GET")
	api.HandleFunc("/orders/{id}", s.handleOrderStatus).Methods("GET")
	api.HandleFunc("/orders/{id}", s.handleCancelOrder).Methods("DELETE")
	api.HandleFunc("/export", s.handleExport).Methods("GET")

	s.router.HandleFunc("/ws", s.handleWebSocket)
	s.router.Handle("/metrics", s.metrics.Handler()).Methods("GET")
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
}

// Start runs the WebSocket hub until ctx is done. Call it before serving.
func (s *Server) Start(ctx context.Context) {
	s.ctx = ctx
	go s.hub.Run(ctx)
}

// Handler returns the router behind CORS.
func (s *Server) Handler() http.Handler {
	origins := s.origins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	c := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	})
	return c.Handler(s.router)
}

// ListenAndServe serves on addr until ctx is done, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	s.Start(ctx)
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Infow("api_listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		s.log.Infow("api_shutdown")
		return srv.Shutdown(shutdownCtx)
	}
}

// publishOrder pushes an order change to its symbol's channel.
func (s *Server) publishOrder(r orders.Response) {
	s.metrics.orderEvents.WithLabelValues(string(r.Status)).Inc()
	ch := orderChannel(r.Symbol)
	s.hub.BroadcastToChannel(ch, WSMessage{Type: "order", Channel: ch, Data: r})
}

// ==============================
// REST Handlers
// ==============================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := StatusResponse{
		Timestamp: util.UnixMilli(s.clock),
		DemoMode:  true,
		Message:   "demo order desk",
	}
	if ts, err := s.bot.Ping(r.Context()); err == nil {
		resp.Connected = true
		resp.ServerTime = ts
	}
	respondJSON(w, resp)
}

func (s *Server) handleSymbols(w http.ResponseWriter, r *http.Request) {
	infos, err := s.bot.Symbols(r.Context())
	if err != nil {
		s.respondErr(w, err)
		return
	}
	out := SymbolsResponse{Symbols: []string{}}
	for _, i := range infos {
		if i.Status == "TRADING" {
			out.Symbols = append(out.Symbols, i.Symbol)
		}
	}
	respondJSON(w, out)
}

func (s *Server) handlePrice(w http.ResponseWriter, r *http.Request) {
	p, err := s.bot.SymbolPrice(r.Context(), mux.Vars(r)["symbol"])
	if err != nil {
		s.respondErr(w, err)
		return
	}
	respondJSON(w, p)
}

func (s *Server) handleSymbolInfo(w http.ResponseWriter, r *http.Request) {
	info, err := s.bot.SymbolInfo(r.Context(), mux.Vars(r)["symbol"])
	if err != nil {
		s.respondErr(w, err)
		return
	}
	respondJSON(w, info)
}

func (s *Server) handleTrades(w http.ResponseWriter, r *http.Request) {
	limit, err := bot.ParseLimit(r.URL.Query().Get("limit"), 10)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	trades, err := s.bot.RecentTrades(r.Context(), mux.Vars(r)["symbol"], limit)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	respondJSON(w, trades)
}

func (s *Server) handleKlines(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, err := bot.ParseLimit(q.Get("limit"), 100)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	interval := q.Get("interval")
	if interval == "" {
		interval = "1h"
	}
	klines, err := s.bot.Klines(r.Context(), mux.Vars(r)["symbol"], interval, limit)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	respondJSON(w, klines)
}

func (s *Server) handleAccount(w http.ResponseWriter, r *http.Request) {
	acct, err := s.bot.AccountInfo(r.Context())
	if err != nil {
		s.respondErr(w, err)
		return
	}
	respondJSON(w, acct)
}

// handleBalance answers an unknown asset with an empty object.
func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	bal, found, err := s.bot.Balance(r.Context(), mux.Vars(r)["asset"])
	if err != nil {
		s.respondErr(w, err)
		return
	}
	if !found {
		respondJSON(w, struct{}{})
		return
	}
	respondJSON(w, bal)
}

func (s *Server) handleCloseAll(w http.ResponseWriter, r *http.Request) {
	closed, err := s.bot.CloseAllPositions(r.Context())
	if err != nil {
		s.respondErr(w, err)
		return
	}
	respondJSON(w, map[string]any{"closed_positions": closed})
}

var kindToType = map[string]string{
	"market":     "MARKET",
	"limit":      "LIMIT",
	"stop-limit": "STOP_LIMIT",
	"oco":        "OCO",
}

func (s *Server) handlePlaceOrder(w http.ResponseWriter, r *http.Request) {
	var req OrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondErr(w, apperr.Validationf("invalid request body: %v", err))
		return
	}
	if kind, ok := mux.Vars(r)["kind"]; ok {
		req.Type = kindToType[kind]
	}
	req.Type = strings.ToUpper(req.Type)

	resp, err := s.placeOrder(req)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	respondJSON(w, resp)
}

func (s *Server) placeOrder(req OrderRequest) (orders.Response, error) {
	missing := func(field string) error {
		return apperr.Validationf("missing required field: %s", field)
	}
	switch {
	case req.Symbol == "":
		return orders.Response{}, missing("symbol")
	case req.Side == "":
		return orders.Response{}, missing("side")
	case req.Quantity == "":
		return orders.Response{}, missing("quantity")
	}

	switch req.Type {
	case "MARKET":
		return s.bot.PlaceMarketOrder(req.Symbol, req.Side, req.Quantity)
	case "LIMIT":
		if req.Price == "" {
			return orders.Response{}, missing("price")
		}
		return s.bot.PlaceLimitOrder(req.Symbol, req.Side, req.Quantity, req.Price, req.TimeInForce)
	case "STOP_LIMIT":
		if req.Price == "" || req.StopPrice == "" {
			return orders.Response{}, apperr.Validationf("price and stop_price are required for stop-limit orders")
		}
		return s.bot.PlaceStopLimitOrder(req.Symbol, req.Side, req.Quantity, req.StopPrice, req.Price, req.TimeInForce)
	case "OCO":
		if req.Price == "" || req.StopPrice == "" || req.StopLimitPrice == "" {
			return orders.Response{}, apperr.Validationf("price, stop_price and stop_limit_price are required for OCO orders")
		}
		return s.bot.PlaceOCOOrder(req.Symbol, req.Side, req.Quantity, req.Price, req.StopPrice, req.StopLimitPrice)
	case "":
		return orders.Response{}, missing("type")
	default:
		return orders.Response{}, apperr.Validationf("unsupported order type: %s", req.Type)
	}
}

func (s *Server) handleOpenOrders(w http.ResponseWriter, r *http.Request) {
	open, err := s.bot.OpenOrders(r.URL.Query().Get("symbol"))
	if err != nil {
		s.respondErr(w, err)
		return
	}
	respondJSON(w, open)
}

func requireSymbol(r *http.Request) (string, error) {
	symbol := r.URL.Query().Get("symbol")
	if symbol == "" {
		return "", apperr.Validationf("symbol is required")
	}
	return symbol, nil
}

func (s *Server) handleOrderStatus(w http.ResponseWriter, r *http.Request) {
	symbol, err := requireSymbol(r)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	resp, err := s.bot.OrderStatus(symbol, mux.Vars(r)["id"])
	if err != nil {
		s.respondErr(w, err)
		return
	}
	respondJSON(w, resp)
}

func (s *Server) handleCancelOrder(w http.ResponseWriter, r *http.Request) {
	symbol, err := requireSymbol(r)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	resp, err := s.bot.CancelOrder(symbol, mux.Vars(r)["id"])
	if err != nil {
		s.respondErr(w, err)
		return
	}
	respondJSON(w, resp)
}

func (s *Server) handleCancelAll(w http.ResponseWriter, r *http.Request) {
	canceled, err := s.bot.CancelAllOrders(r.URL.Query().Get("symbol"))
	if err != nil {
		s.respondErr(w, err)
		return
	}
	respondJSON(w, map[string]any{"cancelled_orders": canceled})
}

var exportHeader = []string{"order_id", "symbol", "side", "type", "quantity", "price", "status", "time"}

// handleExport writes open orders as CSV.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	open, err := s.bot.OpenOrders(r.URL.Query().Get("symbol"))
	if err != nil {
		s.respondErr(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="open_orders.csv"`)
	cw := csv.NewWriter(w)
	cw.Write(exportHeader)
	for _, o := range open {
		cw.Write([]string{
			o.OrderID, o.Symbol, string(o.Side), string(o.Type),
			o.Quantity, o.Price, string(o.Status), strconv.FormatInt(o.Time, 10),
		})
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		s.log.Errorw("export_failed", "err", err)
	}
}

// ==============================
// Helper Functions
// ==============================

func respondJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, msg, kind string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{Error: msg, Kind: kind})
}

// statusFor maps an error kind onto an HTTP status.
func statusFor(err error) int {
	switch apperr.KindOf(err) {
	case apperr.Validation:
		return http.StatusBadRequest
	case apperr.NotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) respondErr(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.log.Errorw("request_failed", "err", err)
	}
	respondError(w, status, err.Error(), apperr.KindOf(err).String())
}
