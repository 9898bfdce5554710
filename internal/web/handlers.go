package web

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/Lewsiafat/TradeGuard/internal/domain"
	"github.com/Lewsiafat/TradeGuard/internal/usecase"
)

func (s *Server) respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Failed to encode response", zap.Error(err))
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, msg string) {
	s.respondJSON(w, status, map[string]string{"error": msg})
}

// statusFor maps engine errors to HTTP statuses. Precondition violations are
// conflicts, bad input is a bad request.
func statusFor(err error) int {
	switch {
	case errors.Is(err, usecase.ErrChecklistIncomplete),
		errors.Is(err, usecase.ErrBadStatus):
		return http.StatusConflict
	case errors.Is(err, usecase.ErrUnknownPair),
		errors.Is(err, usecase.ErrBadDirection):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// --- Trades ---

func (s *Server) handleListTrades(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, s.service.ActiveTrades())
}

func (s *Server) handleStartTrade(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Pair  string `json:"pair"`
		Notes string `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	trade, err := s.service.Start(r.Context(), req.Pair, req.Notes)
	if err != nil {
		s.respondError(w, statusFor(err), err.Error())
		return
	}
	s.respondJSON(w, http.StatusCreated, trade)
}

func (s *Server) handleCancelTrade(w http.ResponseWriter, r *http.Request) {
	if err := s.service.Cancel(r.Context(), r.PathValue("id")); err != nil {
		s.respondError(w, statusFor(err), err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleChecklistState(w http.ResponseWriter, r *http.Request) {
	tradeID := r.PathValue("id")
	s.respondJSON(w, http.StatusOK, map[string]any{
		"checked":  s.service.CheckState(tradeID),
		"progress": s.service.Progress(tradeID),
	})
}

func (s *Server) handleCheckItem(w http.ResponseWriter, r *http.Request) {
	tradeID := r.PathValue("id")

	var req struct {
		ItemID  string `json:"itemId"`
		Checked bool   `json:"checked"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.service.SetChecked(tradeID, req.ItemID, req.Checked); err != nil {
		s.respondError(w, statusFor(err), err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]float64{
		"progress": s.service.Progress(tradeID),
	})
}

func (s *Server) handleOpenTrade(w http.ResponseWriter, r *http.Request) {
	if err := s.service.Advance(r.Context(), r.PathValue("id")); err != nil {
		s.respondError(w, statusFor(err), err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCloseTrade(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Direction     string   `json:"direction"`
		OpenPrice     float64  `json:"openPrice"`
		ClosePrice    float64  `json:"closePrice"`
		Pnl           *float64 `json:"pnl"`
		PnlPercentage float64  `json:"pnlPercentage"`
		Notes         string   `json:"notes"`
		EndTime       int64    `json:"endTime"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Pnl == nil {
		s.respondError(w, http.StatusBadRequest, "pnl is required")
		return
	}

	err := s.service.Close(r.Context(), r.PathValue("id"), usecase.CloseRequest{
		Direction:     domain.Side(req.Direction),
		OpenPrice:     req.OpenPrice,
		ClosePrice:    req.ClosePrice,
		Pnl:           *req.Pnl,
		PnlPercentage: req.PnlPercentage,
		Notes:         req.Notes,
		EndTime:       req.EndTime,
	})
	if err != nil {
		s.respondError(w, statusFor(err), err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRevertTrade(w http.ResponseWriter, r *http.Request) {
	s.service.Revert(r.PathValue("id"))
	w.WriteHeader(http.StatusNoContent)
}

// --- History ---

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, s.service.History())
}

// --- Settings ---

func (s *Server) handleGetTemplate(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, s.service.Template())
}

func (s *Server) handleAddTemplateItem(w http.ResponseWriter, r *http.Request) {
	var item domain.ChecklistItem
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if item.Text == "" {
		s.respondError(w, http.StatusBadRequest, "text is required")
		return
	}
	if item.ID == "" {
		item.ID = ulid.Make().String()
	}
	if err := s.service.AddChecklistItem(r.Context(), item); err != nil {
		s.respondError(w, statusFor(err), err.Error())
		return
	}
	s.respondJSON(w, http.StatusCreated, item)
}

func (s *Server) handleRemoveTemplateItem(w http.ResponseWriter, r *http.Request) {
	if err := s.service.RemoveChecklistItem(r.Context(), r.PathValue("id")); err != nil {
		s.respondError(w, statusFor(err), err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetPairs(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, s.service.Pairs())
}

func (s *Server) handleAddPair(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Pair string `json:"pair"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Pair == "" {
		s.respondError(w, http.StatusBadRequest, "pair is required")
		return
	}
	if err := s.service.AddPair(r.Context(), req.Pair); err != nil {
		s.respondError(w, statusFor(err), err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Pairs contain slashes, so removal takes the pair as a query parameter.
func (s *Server) handleRemovePair(w http.ResponseWriter, r *http.Request) {
	pair := r.URL.Query().Get("pair")
	if pair == "" {
		s.respondError(w, http.StatusBadRequest, "pair is required")
		return
	}
	if err := s.service.RemovePair(r.Context(), pair); err != nil {
		s.respondError(w, statusFor(err), err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- Market data & analysis ---

func (s *Server) handlePrices(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, s.board.Snapshot())
}

func (s *Server) handleAnalysis(w http.ResponseWriter, r *http.Request) {
	pair := r.URL.Query().Get("pair")
	if pair == "" {
		s.respondError(w, http.StatusBadRequest, "pair is required")
		return
	}
	report, err := s.analyzer.Analyze(r.Context(), pair)
	if err != nil {
		// Analyzers degrade to placeholder reports; an error here is a bug,
		// but the client still should not see a hard failure.
		s.logger.Error("Analysis failed", zap.String("pair", pair), zap.Error(err))
		s.respondError(w, http.StatusBadGateway, "analysis unavailable")
		return
	}
	s.respondJSON(w, http.StatusOK, report)
}

// --- Import / Export ---

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	raw, err := s.service.ExportJSON()
	if err != nil {
		s.logger.Error("Export failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "export failed")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="tradeguard-export.json"`)
	w.Write(raw)
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "failed to read request body")
		return
	}
	if err := s.service.ImportJSON(r.Context(), raw); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
