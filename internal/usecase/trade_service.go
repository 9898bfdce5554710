package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/Lewsiafat/TradeGuard/internal/domain"
)

var (
	// ErrUnknownPair is returned when starting a trade on a pair that is not
	// in the configured pair list.
	ErrUnknownPair = errors.New("pair is not configured")

	// ErrChecklistIncomplete is returned by Advance when a required checklist
	// item is still unchecked.
	ErrChecklistIncomplete = errors.New("checklist incomplete")

	// ErrBadStatus is returned when an operation does not apply to the
	// trade's current lifecycle state.
	ErrBadStatus = errors.New("operation not allowed in current status")

	// ErrBadDirection is returned by Close when the supplied direction is
	// neither LONG nor SHORT.
	ErrBadDirection = errors.New("direction must be LONG or SHORT")
)

// noteSeparator joins pre-trade notes with settlement notes on close.
const noteSeparator = "\n---\n[settled]: "

// CloseRequest carries the caller-supplied settlement of an open trade. PnL
// values are recorded verbatim, never recomputed from the prices.
type CloseRequest struct {
	Direction     domain.Side
	OpenPrice     float64
	ClosePrice    float64
	Pnl           float64
	PnlPercentage float64
	Notes         string
	EndTime       int64
}

// TradeService owns the active-trade collection, the closed-trade history,
// the checklist template and the pair list, and enforces the only legal path
// a trade may take: CHECKING -> OPEN -> CLOSED, with cancellation allowed
// only while CHECKING. All four collections are persisted through the state
// store after every mutation.
type TradeService struct {
	store domain.StateStore
	seed  []domain.ChecklistItem
	log   *zap.Logger

	mu       sync.Mutex
	active   []*domain.Trade
	history  []*domain.Trade
	template []domain.ChecklistItem
	pairs    []string
	checked  map[string]map[string]bool // trade id -> item id -> check state
}

// NewTradeService creates an engine backed by store. seed is the checklist
// template used when the store holds none; nil means the built-in default.
func NewTradeService(store domain.StateStore, seed []domain.ChecklistItem, log *zap.Logger) *TradeService {
	if seed == nil {
		seed = domain.DefaultChecklist()
	}
	return &TradeService{
		store:    store,
		seed:     seed,
		log:      log,
		template: seed,
		pairs:    domain.DefaultPairs(),
		checked:  make(map[string]map[string]bool),
	}
}

// Load hydrates all collections from the store. Missing or malformed
// documents degrade to defaults rather than failing: persisted state is
// untrusted input.
func (s *TradeService) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.active = loadSlice[*domain.Trade](ctx, s.store, domain.KeyActiveTrades, nil, s.log)
	s.history = loadSlice[*domain.Trade](ctx, s.store, domain.KeyHistory, nil, s.log)
	s.template = loadSlice[domain.ChecklistItem](ctx, s.store, domain.KeyTemplate, s.seed, s.log)
	s.pairs = loadSlice[string](ctx, s.store, domain.KeyPairs, domain.DefaultPairs(), s.log)
	return nil
}

func loadSlice[T any](ctx context.Context, store domain.StateStore, key string, fallback []T, log *zap.Logger) []T {
	raw, ok, err := store.Get(ctx, key)
	if err != nil {
		log.Warn("failed to read persisted state", zap.String("key", key), zap.Error(err))
		return fallback
	}
	if !ok {
		return fallback
	}
	var out []T
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		log.Warn("persisted state is malformed, using defaults",
			zap.String("key", key), zap.Error(err))
		return fallback
	}
	return out
}

// Start creates a new trade in CHECKING and prepends it to the active
// collection. The pair must be one of the configured pairs.
func (s *TradeService) Start(ctx context.Context, pair, notes string) (*domain.Trade, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !contains(s.pairs, pair) {
		return nil, fmt.Errorf("start trade on %q: %w", pair, ErrUnknownPair)
	}

	trade := &domain.Trade{
		ID:                ulid.Make().String(),
		Pair:              pair,
		Status:            domain.StatusChecking,
		StartTime:         time.Now().UnixMilli(),
		Notes:             notes,
		ChecklistSnapshot: []domain.SnapshotItem{},
	}
	s.active = append([]*domain.Trade{trade}, s.active...)
	s.checked[trade.ID] = make(map[string]bool)

	if err := s.persist(ctx, domain.KeyActiveTrades, s.active); err != nil {
		return nil, err
	}
	out := *trade
	return &out, nil
}

// SetChecked records the per-session check state of one checklist item for a
// CHECKING trade. Entries are kept even when unchecked so the progress metric
// counts touched items, matching the checklist UI behavior.
func (s *TradeService) SetChecked(tradeID, itemID string, checked bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	trade := s.findActive(tradeID)
	if trade == nil {
		return nil
	}
	if trade.Status != domain.StatusChecking {
		return fmt.Errorf("check item on %s trade: %w", trade.Status, ErrBadStatus)
	}
	if s.checked[tradeID] == nil {
		s.checked[tradeID] = make(map[string]bool)
	}
	s.checked[tradeID][itemID] = checked
	return nil
}

// CheckState returns a copy of the trade's per-session check map.
func (s *TradeService) CheckState(tradeID string) map[string]bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]bool, len(s.checked[tradeID]))
	for k, v := range s.checked[tradeID] {
		out[k] = v
	}
	return out
}

// Progress reports touched checklist entries over total template items. It is
// a display metric only and is independent of the gating predicate.
func (s *TradeService) Progress(tradeID string) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.template) == 0 {
		return 0
	}
	return float64(len(s.checked[tradeID])) / float64(len(s.template))
}

// gatingSatisfied reports whether every required template item is checked.
// Callers must hold s.mu.
func (s *TradeService) gatingSatisfied(tradeID string) bool {
	state := s.checked[tradeID]
	for _, item := range s.template {
		if item.IsRequired && !state[item.ID] {
			return false
		}
	}
	return true
}

// Advance moves a CHECKING trade to OPEN. The gating predicate is
// re-validated here regardless of what the caller enforced: every required
// item must be checked, optional items never block. On success the start
// time is reset and the check state is frozen into the trade's checklist
// snapshot.
func (s *TradeService) Advance(ctx context.Context, tradeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	trade := s.findActive(tradeID)
	if trade == nil {
		return nil
	}
	if trade.Status != domain.StatusChecking {
		return fmt.Errorf("advance %s trade: %w", trade.Status, ErrBadStatus)
	}
	if !s.gatingSatisfied(tradeID) {
		return ErrChecklistIncomplete
	}

	state := s.checked[tradeID]
	snapshot := make([]domain.SnapshotItem, 0, len(s.template))
	for _, item := range s.template {
		snapshot = append(snapshot, domain.SnapshotItem{Text: item.Text, Checked: state[item.ID]})
	}

	trade.Status = domain.StatusOpen
	trade.StartTime = time.Now().UnixMilli()
	trade.ChecklistSnapshot = snapshot

	return s.persist(ctx, domain.KeyActiveTrades, s.active)
}

// Close settles an OPEN trade and moves it to the head of the history. The
// direction is fixed here, settlement notes are appended to any pre-trade
// notes, and a zero end time defaults to now. Closing an id that is not in
// the active collection is a no-op.
func (s *TradeService) Close(ctx context.Context, tradeID string, req CloseRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i, t := range s.active {
		if t.ID == tradeID {
			idx = i
			break
		}
	}
	if idx == -1 {
		s.log.Debug("close of unknown trade ignored", zap.String("id", tradeID))
		return nil
	}
	trade := s.active[idx]
	if trade.Status != domain.StatusOpen {
		return fmt.Errorf("close %s trade: %w", trade.Status, ErrBadStatus)
	}
	if req.Direction != domain.SideLong && req.Direction != domain.SideShort {
		return fmt.Errorf("close trade %s: %w", tradeID, ErrBadDirection)
	}

	endTime := req.EndTime
	if endTime == 0 {
		endTime = time.Now().UnixMilli()
	}

	trade.Status = domain.StatusClosed
	trade.Direction = req.Direction
	trade.EndTime = endTime
	trade.OpenPrice = req.OpenPrice
	trade.ClosePrice = req.ClosePrice
	trade.Pnl = req.Pnl
	trade.PnlPercentage = req.PnlPercentage
	if trade.Notes != "" {
		trade.Notes = trade.Notes + noteSeparator + req.Notes
	} else {
		trade.Notes = req.Notes
	}

	s.active = append(s.active[:idx], s.active[idx+1:]...)
	s.history = append([]*domain.Trade{trade}, s.history...)
	delete(s.checked, tradeID)

	if err := s.persist(ctx, domain.KeyActiveTrades, s.active); err != nil {
		return err
	}
	return s.persist(ctx, domain.KeyHistory, s.history)
}

// Cancel removes a CHECKING trade outright: no history entry is written.
// Cancelling an unknown id is a no-op.
func (s *TradeService) Cancel(ctx context.Context, tradeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, t := range s.active {
		if t.ID != tradeID {
			continue
		}
		if t.Status != domain.StatusChecking {
			return fmt.Errorf("cancel %s trade: %w", t.Status, ErrBadStatus)
		}
		s.active = append(s.active[:i], s.active[i+1:]...)
		delete(s.checked, tradeID)
		return s.persist(ctx, domain.KeyActiveTrades, s.active)
	}
	return nil
}

// Revert is a defensive no-op: an OPEN trade stays OPEN. The command exists
// so callers issuing it never see an error.
func (s *TradeService) Revert(tradeID string) {
	s.log.Debug("revert ignored", zap.String("id", tradeID))
}

// ActiveTrades returns a copy of the active collection, most recently
// started first.
func (s *TradeService) ActiveTrades() []*domain.Trade {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyTrades(s.active)
}

// History returns a copy of the closed-trade history, most recently closed
// first.
func (s *TradeService) History() []*domain.Trade {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyTrades(s.history)
}

// Template returns a copy of the checklist template.
func (s *TradeService) Template() []domain.ChecklistItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.ChecklistItem, len(s.template))
	copy(out, s.template)
	return out
}

// Pairs returns a copy of the configured pair list.
func (s *TradeService) Pairs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.pairs))
	copy(out, s.pairs)
	return out
}

// AddChecklistItem appends an item to the template.
func (s *TradeService) AddChecklistItem(ctx context.Context, item domain.ChecklistItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.template = append(s.template, item)
	return s.persist(ctx, domain.KeyTemplate, s.template)
}

// RemoveChecklistItem deletes the template item with the given id, if any.
func (s *TradeService) RemoveChecklistItem(ctx context.Context, itemID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, item := range s.template {
		if item.ID == itemID {
			s.template = append(s.template[:i], s.template[i+1:]...)
			return s.persist(ctx, domain.KeyTemplate, s.template)
		}
	}
	return nil
}

// AddPair adds a pair to the configured list. Duplicates are ignored.
func (s *TradeService) AddPair(ctx context.Context, pair string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if contains(s.pairs, pair) {
		return nil
	}
	s.pairs = append(s.pairs, pair)
	return s.persist(ctx, domain.KeyPairs, s.pairs)
}

// RemovePair removes a pair from the configured list. Active trades on the
// pair are left untouched.
func (s *TradeService) RemovePair(ctx context.Context, pair string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, p := range s.pairs {
		if p == pair {
			s.pairs = append(s.pairs[:i], s.pairs[i+1:]...)
			return s.persist(ctx, domain.KeyPairs, s.pairs)
		}
	}
	return nil
}

// findActive returns the active trade with the given id. Callers must hold
// s.mu.
func (s *TradeService) findActive(tradeID string) *domain.Trade {
	for _, t := range s.active {
		if t.ID == tradeID {
			return t
		}
	}
	return nil
}

func (s *TradeService) persist(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	if err := s.store.Set(ctx, key, string(raw)); err != nil {
		return fmt.Errorf("persist %s: %w", key, err)
	}
	return nil
}

func copyTrades(in []*domain.Trade) []*domain.Trade {
	out := make([]*domain.Trade, len(in))
	for i, t := range in {
		c := *t
		out[i] = &c
	}
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
