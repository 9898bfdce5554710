package usecase_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Lewsiafat/TradeGuard/internal/domain"
	"github.com/Lewsiafat/TradeGuard/internal/usecase"
)

func TestPriceBoard_KeepsLastTwoPrices(t *testing.T) {
	board := usecase.NewPriceBoard()

	board.Observe(domain.PriceUpdate{Symbol: "BTCUSDT", Price: 50000})
	board.Observe(domain.PriceUpdate{Symbol: "BTCUSDT", Price: 50100})
	board.Observe(domain.PriceUpdate{Symbol: "BTCUSDT", Price: 50050})
	board.Observe(domain.PriceUpdate{Symbol: "ETHUSDT", Price: 3000})

	snap := board.Snapshot()
	assert.Equal(t, 50050.0, snap["BTCUSDT"].Price)
	assert.Equal(t, 50100.0, snap["BTCUSDT"].PrevPrice)
	assert.Equal(t, 3000.0, snap["ETHUSDT"].Price)
	assert.Zero(t, snap["ETHUSDT"].PrevPrice)
}

func TestStreamSymbol(t *testing.T) {
	cases := []struct {
		pair   string
		symbol string
		ok     bool
	}{
		{"BTC/USDT", "BTCUSDT", true},
		{"eth/usdt", "ETHUSDT", true},
		{"BTC(cm)", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		symbol, ok := usecase.StreamSymbol(tc.pair)
		assert.Equal(t, tc.ok, ok, tc.pair)
		assert.Equal(t, tc.symbol, symbol, tc.pair)
	}
}
