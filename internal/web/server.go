package web

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/tradewall/tradewall/internal/domain"
	"github.com/tradewall/tradewall/internal/usecase"
)

type Server struct {
	router     *http.ServeMux
	server     *http.Server
	positions  *usecase.PositionService
	alerts     *usecase.AlertService
	calculator *usecase.HedgeCalculator
	riskCalc   *usecase.RiskCalculator
	tickerRepo domain.TickerRepository
	userID     string
	logger     *zap.Logger
}

func NewServer(
	port int,
	userID string,
	positions *usecase.PositionService,
	alerts *usecase.AlertService,
	calculator *usecase.HedgeCalculator,
	riskCalc *usecase.RiskCalculator,
	tickerRepo domain.TickerRepository,
	logger *zap.Logger,
) *Server {
	s := &Server{
		router:     http.NewServeMux(),
		positions:  positions,
		alerts:     alerts,
		calculator: calculator,
		riskCalc:   riskCalc,
		tickerRepo: tickerRepo,
		userID:     userID,
		logger:     logger,
	}
	s.routes()
	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: s.router,
	}
	return s
}

func (s *Server) routes() {
	s.router.HandleFunc("GET /healthz", s.handleHealth)
	s.router.Handle("GET /metrics", promhttp.Handler())

	// Positions
	s.router.HandleFunc("GET /positions", s.handleListPositions)
	s.router.HandleFunc("POST /positions", s.handleCreateSpot)
	s.router.HandleFunc("DELETE /positions/{id}", s.handleDeleteSpot)
	s.router.HandleFunc("POST /positions/{id}/hedges", s.handleCreateHedge)
	s.router.HandleFunc("GET /positions/{id}/next-hedge", s.handleNextHedge)
	s.router.HandleFunc("DELETE /positions/{id}/hedges/{legID}", s.handleDeleteHedge)

	// Alerts
	s.router.HandleFunc("GET /alerts", s.handleListAlerts)
	s.router.HandleFunc("POST /alerts", s.handleCreateAlert)
	s.router.HandleFunc("DELETE /alerts/{id}", s.handleDeleteAlert)

	// Tickers
	s.router.HandleFunc("GET /tickers", s.handleListTickers)

	// Calculators
	s.router.HandleFunc("GET /ladder", s.handleLadder)
	s.router.HandleFunc("GET /risk", s.handleRisk)
}

// Handler exposes the routed mux, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Start() error {
	s.logger.Info("Starting web server", zap.String("addr", s.server.Addr))
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
