package usecase

import (
	"strings"
	"sync"

	"github.com/Lewsiafat/TradeGuard/internal/domain"
)

// PricePoint is the last and immediately previous price seen for a symbol.
type PricePoint struct {
	Symbol    string  `json:"symbol"`
	Price     float64 `json:"price"`
	PrevPrice float64 `json:"prevPrice,omitempty"`
}

// PriceBoard retains the latest and previous tick per symbol for display.
// Ticks are never persisted. Observe is wired as a feed listener at startup.
type PriceBoard struct {
	mu     sync.RWMutex
	prices map[string]PricePoint
}

func NewPriceBoard() *PriceBoard {
	return &PriceBoard{prices: make(map[string]PricePoint)}
}

// Observe records a tick, shifting the current price into PrevPrice.
func (b *PriceBoard) Observe(update domain.PriceUpdate) {
	b.mu.Lock()
	defer b.mu.Unlock()

	point := b.prices[update.Symbol]
	point.Symbol = update.Symbol
	point.PrevPrice = point.Price
	point.Price = update.Price
	b.prices[update.Symbol] = point
}

// Snapshot returns a copy of every tracked price point.
func (b *PriceBoard) Snapshot() map[string]PricePoint {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make(map[string]PricePoint, len(b.prices))
	for k, v := range b.prices {
		out[k] = v
	}
	return out
}

// StreamSymbol derives the upstream stream symbol from a configured pair,
// e.g. "BTC/USDT" -> "BTCUSDT". Pairs without a spot stream, such as the
// coin-margined "BTC(cm)" entries, report ok=false and are not subscribed.
func StreamSymbol(pair string) (string, bool) {
	if strings.ContainsAny(pair, "()") {
		return "", false
	}
	symbol := strings.ReplaceAll(pair, "/", "")
	if symbol == "" {
		return "", false
	}
	return strings.ToUpper(symbol), true
}
