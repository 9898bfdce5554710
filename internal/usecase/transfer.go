package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Lewsiafat/TradeGuard/internal/domain"
)

// TransferVersion is stamped into every exported document.
const TransferVersion = "1.0"

// TransferDocument is the import/export interchange format. On import, only
// the sections that are present are applied; absent sections leave the
// corresponding state untouched. The partial application is deliberately
// non-atomic across sections.
type TransferDocument struct {
	ActiveTrades []*domain.Trade        `json:"activeTrades,omitempty"`
	History      []*domain.Trade        `json:"history,omitempty"`
	Template     []domain.ChecklistItem `json:"template,omitempty"`
	Pairs        []string               `json:"pairs,omitempty"`
	ExportDate   string                 `json:"exportDate"`
	Version      string                 `json:"version"`
}

// Export captures the full state into a transfer document.
func (s *TradeService) Export() *TransferDocument {
	s.mu.Lock()
	defer s.mu.Unlock()
	return &TransferDocument{
		ActiveTrades: copyTrades(s.active),
		History:      copyTrades(s.history),
		Template:     append([]domain.ChecklistItem(nil), s.template...),
		Pairs:        append([]string(nil), s.pairs...),
		ExportDate:   time.Now().UTC().Format(time.RFC3339),
		Version:      TransferVersion,
	}
}

// ExportJSON renders the transfer document as an indented JSON blob.
func (s *TradeService) ExportJSON() ([]byte, error) {
	raw, err := json.MarshalIndent(s.Export(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal export: %w", err)
	}
	return raw, nil
}

// Import applies every section present in the document and persists the
// touched keys. The per-session check state of replaced active trades is
// dropped.
func (s *TradeService) Import(ctx context.Context, doc *TransferDocument) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if doc.ActiveTrades != nil {
		s.active = copyTrades(doc.ActiveTrades)
		s.checked = make(map[string]map[string]bool)
		if err := s.persist(ctx, domain.KeyActiveTrades, s.active); err != nil {
			return err
		}
	}
	if doc.History != nil {
		s.history = copyTrades(doc.History)
		if err := s.persist(ctx, domain.KeyHistory, s.history); err != nil {
			return err
		}
	}
	if doc.Template != nil {
		s.template = append([]domain.ChecklistItem(nil), doc.Template...)
		if err := s.persist(ctx, domain.KeyTemplate, s.template); err != nil {
			return err
		}
	}
	if doc.Pairs != nil {
		s.pairs = append([]string(nil), doc.Pairs...)
		if err := s.persist(ctx, domain.KeyPairs, s.pairs); err != nil {
			return err
		}
	}
	return nil
}

// ImportJSON decodes and applies a transfer document. A document that does
// not parse is rejected before any section is applied.
func (s *TradeService) ImportJSON(ctx context.Context, raw []byte) error {
	var doc TransferDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("parse import document: %w", err)
	}
	return s.Import(ctx, &doc)
}
