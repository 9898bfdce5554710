package web

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/Lewsiafat/TradeGuard/internal/domain"
	"github.com/Lewsiafat/TradeGuard/internal/usecase"
)

// Server exposes the lifecycle engine, price board and analyzer over a JSON
// API. It is the process's presentation surface; all state mutation goes
// through the engine's command methods.
type Server struct {
	router   *http.ServeMux
	server   *http.Server
	service  *usecase.TradeService
	board    *usecase.PriceBoard
	analyzer domain.Analyzer
	logger   *zap.Logger
}

func NewServer(
	port int,
	service *usecase.TradeService,
	board *usecase.PriceBoard,
	analyzer domain.Analyzer,
	logger *zap.Logger,
) *Server {
	s := &Server{
		router:   http.NewServeMux(),
		service:  service,
		board:    board,
		analyzer: analyzer,
		logger:   logger,
	}
	s.routes()
	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: s.router,
	}
	return s
}

func (s *Server) routes() {
	// Trades
	s.router.HandleFunc("GET /api/trades", s.handleListTrades)
	s.router.HandleFunc("POST /api/trades", s.handleStartTrade)
	s.router.HandleFunc("DELETE /api/trades/{id}", s.handleCancelTrade)
	s.router.HandleFunc("GET /api/trades/{id}/checklist", s.handleChecklistState)
	s.router.HandleFunc("POST /api/trades/{id}/check", s.handleCheckItem)
	s.router.HandleFunc("POST /api/trades/{id}/open", s.handleOpenTrade)
	s.router.HandleFunc("POST /api/trades/{id}/close", s.handleCloseTrade)
	s.router.HandleFunc("POST /api/trades/{id}/revert", s.handleRevertTrade)

	// History
	s.router.HandleFunc("GET /api/history", s.handleHistory)

	// Settings
	s.router.HandleFunc("GET /api/template", s.handleGetTemplate)
	s.router.HandleFunc("POST /api/template/items", s.handleAddTemplateItem)
	s.router.HandleFunc("DELETE /api/template/items/{id}", s.handleRemoveTemplateItem)
	s.router.HandleFunc("GET /api/pairs", s.handleGetPairs)
	s.router.HandleFunc("POST /api/pairs", s.handleAddPair)
	s.router.HandleFunc("DELETE /api/pairs", s.handleRemovePair)

	// Market data & analysis
	s.router.HandleFunc("GET /api/prices", s.handlePrices)
	s.router.HandleFunc("GET /api/analysis", s.handleAnalysis)

	// Import / Export
	s.router.HandleFunc("GET /api/export", s.handleExport)
	s.router.HandleFunc("POST /api/import", s.handleImport)
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

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}
