// Package api exposes configuration and backtest results over HTTP.
package api

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"quantbot-go/internal/backtest"
	"quantbot-go/internal/config"
	"quantbot-go/internal/strategy"
)

// Server serves read-only views of the loaded configuration and the most
// recent backtest result.
type Server struct {
	cfg        *config.Config
	strategies []strategy.Strategy
	log        zerolog.Logger

	mu     sync.RWMutex
	result *backtest.Result

	upgrader websocket.Upgrader
}

// NewServer builds a server over the given configuration and strategy set.
func NewServer(cfg *config.Config, strategies []strategy.Strategy, log zerolog.Logger) *Server {
	return &Server{
		cfg:        cfg,
		strategies: strategies,
		log:        log.With().Str("component", "api").Logger(),
		upgrader:   websocket.Upgrader{ReadBufferSize: 1024, WriteBufferSize: 1024},
	}
}

// SetResult publishes a completed backtest result to readers.
func (s *Server) SetResult(res *backtest.Result) {
	s.mu.Lock()
	s.result = res
	s.mu.Unlock()
}

func (s *Server) snapshot() *backtest.Result {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.result
}

// Router returns the HTTP routes.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/config", s.handleConfig).Methods(http.MethodGet)
	r.HandleFunc("/strategies", s.handleStrategies).Methods(http.MethodGet)
	r.HandleFunc("/report", s.handleReport).Methods(http.MethodGet)
	r.HandleFunc("/trades", s.handleTrades).Methods(http.MethodGet)
	r.HandleFunc("/ws/snapshots", s.handleSnapshotStream)
	return r
}

// ListenAndServe blocks serving the API on addr.
func (s *Server) ListenAndServe(addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Router(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	s.log.Info().Str("addr", addr).Msg("api listening")
	return srv.ListenAndServe()
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type configView struct {
	App        string          `json:"app"`
	Env        string          `json:"env"`
	Symbol     string          `json:"symbol"`
	Interval   string          `json:"interval"`
	Backtest   backtestView    `json:"backtest"`
	Strategies []string        `json:"strategies"`
	Params     strategy.Params `json:"params"`
	Model      modelView       `json:"model"`
	Sentiment  sentimentView   `json:"sentiment"`
}

type backtestView struct {
	StartingCash   float64 `json:"starting_cash"`
	CommissionRate float64 `json:"commission_rate"`
	RiskPerTrade   float64 `json:"risk_per_trade"`
	WarmupBars     int     `json:"warmup_bars"`
}

type modelView struct {
	Enabled         bool    `json:"enabled"`
	Horizon         int     `json:"horizon"`
	ReturnThreshold float64 `json:"return_threshold"`
}

type sentimentView struct {
	Enabled       bool    `json:"enabled"`
	MinConfidence float64 `json:"min_confidence"`
}

func (s *Server) handleConfig(w http.ResponseWriter, _ *http.Request) {
	view := configView{
		App:      s.cfg.App.Name,
		Env:      s.cfg.App.Env,
		Symbol:   s.cfg.Data.Symbol,
		Interval: s.cfg.Data.Interval,
		Backtest: backtestView{
			StartingCash:   s.cfg.Backtest.StartingCash,
			CommissionRate: s.cfg.Backtest.CommissionRate,
			RiskPerTrade:   s.cfg.Backtest.RiskPerTrade,
			WarmupBars:     s.cfg.Backtest.WarmupBars,
		},
		Strategies: s.cfg.Strategies.Enabled,
		Params:     s.cfg.Strategies.Params(),
		Model: modelView{
			Enabled:         s.cfg.Model.Enabled,
			Horizon:         s.cfg.Model.Horizon,
			ReturnThreshold: s.cfg.Model.ReturnThreshold,
		},
		Sentiment: sentimentView{
			Enabled:       s.cfg.Sentiment.Enabled,
			MinConfidence: s.cfg.Sentiment.MinConfidence,
		},
	}
	writeJSON(w, http.StatusOK, view)
}

type strategyView struct {
	Name    string `json:"name"`
	MinBars int    `json:"min_bars"`
}

func (s *Server) handleStrategies(w http.ResponseWriter, _ *http.Request) {
	views := make([]strategyView, 0, len(s.strategies))
	for _, st := range s.strategies {
		views = append(views, strategyView{Name: st.Name(), MinBars: st.MinBars()})
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleReport(w http.ResponseWriter, _ *http.Request) {
	res := s.snapshot()
	if res == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no backtest result available"})
		return
	}
	writeJSON(w, http.StatusOK, res.Report)
}

func (s *Server) handleTrades(w http.ResponseWriter, _ *http.Request) {
	res := s.snapshot()
	if res == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no backtest result available"})
		return
	}
	writeJSON(w, http.StatusOK, res.Trades)
}

// handleSnapshotStream upgrades to a websocket and replays every bar
// snapshot from the latest result in order, then closes.
func (s *Server) handleSnapshotStream(w http.ResponseWriter, r *http.Request) {
	res := s.snapshot()
	if res == nil {
		http.Error(w, "no backtest result available", http.StatusNotFound)
		return
	}
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()
	for _, snap := range res.Snapshots {
		if err := conn.WriteJSON(snap); err != nil {
			s.log.Warn().Err(err).Msg("snapshot write failed")
			return
		}
	}
	deadline := time.Now().Add(5 * time.Second)
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "done"), deadline)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Headers are already flushed at this point.
		return
	}
}
