// Package api exposes the engine's control and snapshot operations over
// HTTP. Thin request/response shaping only; no trading logic lives here.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"hft-engine-go/infrastructure/logger"
	"hft-engine-go/internal/engine"
	"hft-engine-go/market"
	"hft-engine-go/order"
)

// Engine 控制接口依赖的引擎操作。
type Engine interface {
	Start()
	Stop()
	EmergencyShutdown(reason string)
	IsRunning() bool
	RecordQuote(symbol string, bid, ask, bidSize, askSize float64) error
	AddInstrument(symbol string, initialBid, initialAsk float64) error
	Positions() map[string]engine.PositionSnapshot
	Books() map[string]market.BookSnapshot
	ActiveOrders() map[int64]order.Order
	PerformanceMetrics() engine.Performance
}

// Server 控制接口服务。
type Server struct {
	eng Engine
	log *logger.Logger
	srv *http.Server
}

func NewServer(addr string, eng Engine, log *logger.Logger) *Server {
	if log == nil {
		log = logger.NewNop()
	}
	s := &Server{eng: eng, log: log}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/engine/start", s.handleStart)
	mux.HandleFunc("POST /api/engine/stop", s.handleStop)
	mux.HandleFunc("POST /api/engine/emergency", s.handleEmergency)
	mux.HandleFunc("GET /api/engine/status", s.handleStatus)
	mux.HandleFunc("GET /api/engine/positions", s.handlePositions)
	mux.HandleFunc("GET /api/engine/orderbooks", s.handleBooks)
	mux.HandleFunc("GET /api/engine/orders", s.handleOrders)
	mux.HandleFunc("GET /api/engine/performance", s.handlePerformance)
	mux.HandleFunc("POST /api/engine/quote", s.handleQuote)
	mux.HandleFunc("POST /api/engine/instrument", s.handleInstrument)
	s.srv = &http.Server{Addr: addr, Handler: mux}
	return s
}

// Handler 返回路由，供测试挂载。
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

// Start 异步启动监听。
func (s *Server) Start() {
	go func() {
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.log.Error("api server failed", zap.Error(err))
		}
	}()
	s.log.Info("api server listening", zap.String("addr", s.srv.Addr))
}

// Shutdown 优雅关闭。
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *Server) handleStart(w http.ResponseWriter, _ *http.Request) {
	s.eng.Start()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "success", "message": "engine started",
	})
}

func (s *Server) handleStop(w http.ResponseWriter, _ *http.Request) {
	s.eng.Stop()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "success", "message": "engine stopped",
	})
}

func (s *Server) handleEmergency(w http.ResponseWriter, _ *http.Request) {
	s.eng.EmergencyShutdown("operator request")
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "success", "message": "emergency shutdown completed",
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "success", "running": s.eng.IsRunning(),
	})
}

func (s *Server) handlePositions(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "success", "positions": s.eng.Positions(),
	})
}

func (s *Server) handleBooks(w http.ResponseWriter, _ *http.Request) {
	books := s.eng.Books()
	out := make(map[string]map[string]float64, len(books))
	for sym, b := range books {
		out[sym] = map[string]float64{
			"bid":     b.Bid,
			"ask":     b.Ask,
			"bidSize": b.BidSize,
			"askSize": b.AskSize,
			"spread":  b.Spread(),
		}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "success", "orderBooks": out,
	})
}

func (s *Server) handleOrders(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "success", "orders": s.eng.ActiveOrders(),
	})
}

func (s *Server) handlePerformance(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "success", "metrics": s.eng.PerformanceMetrics(),
	})
}

type quoteRequest struct {
	Symbol  string  `json:"symbol"`
	Bid     float64 `json:"bid"`
	Ask     float64 `json:"ask"`
	BidSize float64 `json:"bidSize"`
	AskSize float64 `json:"askSize"`
}

func (s *Server) handleQuote(w http.ResponseWriter, r *http.Request) {
	var req quoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.BidSize == 0 {
		req.BidSize = 1.0
	}
	if req.AskSize == 0 {
		req.AskSize = 1.0
	}
	if err := s.eng.RecordQuote(req.Symbol, req.Bid, req.Ask, req.BidSize, req.AskSize); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "success", "message": "quote recorded",
	})
}

func (s *Server) handleInstrument(w http.ResponseWriter, r *http.Request) {
	var req quoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.eng.AddInstrument(req.Symbol, req.Bid, req.Ask); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "success", "message": "instrument added",
	})
}

func writeJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]interface{}{
		"status": "error", "message": err.Error(),
	})
}
