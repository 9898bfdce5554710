package web_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Lewsiafat/TradeGuard/internal/domain"
	"github.com/Lewsiafat/TradeGuard/internal/usecase"
	"github.com/Lewsiafat/TradeGuard/internal/web"
)

type memStore struct {
	mu   sync.Mutex
	data map[string]string
}

func (m *memStore) Get(ctx context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memStore) Set(ctx context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

type stubAnalyzer struct{}

func (stubAnalyzer) Analyze(ctx context.Context, pair string) (*domain.AnalysisReport, error) {
	return &domain.AnalysisReport{
		Summary:   "stub report for " + pair,
		RiskLevel: domain.RiskHigh,
		Timestamp: 123,
	}, nil
}

type fixture struct {
	svc   *usecase.TradeService
	board *usecase.PriceBoard
	srv   *httptest.Server
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	svc := usecase.NewTradeService(&memStore{data: map[string]string{}}, nil, zap.NewNop())
	require.NoError(t, svc.Load(context.Background()))

	board := usecase.NewPriceBoard()
	server := web.NewServer(0, svc, board, stubAnalyzer{}, zap.NewNop())
	srv := httptest.NewServer(server.Handler())
	t.Cleanup(srv.Close)

	return &fixture{svc: svc, board: board, srv: srv}
}

func (f *fixture) do(t *testing.T, method, path string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, f.srv.URL+path, &buf)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestTradeFlowOverHTTP(t *testing.T) {
	f := newFixture(t)

	// Start a trade.
	resp := f.do(t, http.MethodPost, "/api/trades", map[string]string{
		"pair": "BTC/USDT", "notes": "setup",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	trade := decode[domain.Trade](t, resp)
	assert.Equal(t, domain.StatusChecking, trade.Status)

	// Opening before the checklist is complete is a conflict.
	resp = f.do(t, http.MethodPost, "/api/trades/"+trade.ID+"/open", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// Tick every checklist item.
	resp = f.do(t, http.MethodGet, "/api/template", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	template := decode[[]domain.ChecklistItem](t, resp)
	require.Len(t, template, 14)
	for _, item := range template {
		resp = f.do(t, http.MethodPost, "/api/trades/"+trade.ID+"/check", map[string]any{
			"itemId": item.ID, "checked": true,
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	resp = f.do(t, http.MethodGet, "/api/trades/"+trade.ID+"/checklist", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	state := decode[struct {
		Checked  map[string]bool `json:"checked"`
		Progress float64         `json:"progress"`
	}](t, resp)
	assert.Len(t, state.Checked, 14)
	assert.Equal(t, 1.0, state.Progress)

	// Now the gate opens.
	resp = f.do(t, http.MethodPost, "/api/trades/"+trade.ID+"/open", nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	// Close it.
	resp = f.do(t, http.MethodPost, "/api/trades/"+trade.ID+"/close", map[string]any{
		"direction": "LONG", "openPrice": 50000, "closePrice": 51000,
		"pnl": 100, "pnlPercentage": 2, "notes": "good entry",
	})
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = f.do(t, http.MethodGet, "/api/trades", nil)
	assert.Empty(t, decode[[]domain.Trade](t, resp))

	resp = f.do(t, http.MethodGet, "/api/history", nil)
	history := decode[[]domain.Trade](t, resp)
	require.Len(t, history, 1)
	assert.Equal(t, domain.StatusClosed, history[0].Status)
	assert.Equal(t, 100.0, history[0].Pnl)
}

func TestStartTrade_UnknownPair(t *testing.T) {
	f := newFixture(t)

	resp := f.do(t, http.MethodPost, "/api/trades", map[string]string{"pair": "DOGE/USDT"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCloseTrade_PnlRequired(t *testing.T) {
	f := newFixture(t)

	resp := f.do(t, http.MethodPost, "/api/trades", map[string]string{"pair": "BTC/USDT"})
	trade := decode[domain.Trade](t, resp)

	resp = f.do(t, http.MethodPost, "/api/trades/"+trade.ID+"/close", map[string]any{
		"direction": "LONG",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCancelTrade(t *testing.T) {
	f := newFixture(t)

	resp := f.do(t, http.MethodPost, "/api/trades", map[string]string{"pair": "BTC/USDT"})
	trade := decode[domain.Trade](t, resp)

	resp = f.do(t, http.MethodDelete, "/api/trades/"+trade.ID, nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = f.do(t, http.MethodGet, "/api/trades", nil)
	assert.Empty(t, decode[[]domain.Trade](t, resp))
}

func TestTemplateEndpoints(t *testing.T) {
	f := newFixture(t)

	resp := f.do(t, http.MethodPost, "/api/template/items", map[string]any{
		"text": "custom item", "isRequired": true,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	item := decode[domain.ChecklistItem](t, resp)
	assert.NotEmpty(t, item.ID)

	resp = f.do(t, http.MethodGet, "/api/template", nil)
	assert.Len(t, decode[[]domain.ChecklistItem](t, resp), 15)

	resp = f.do(t, http.MethodDelete, "/api/template/items/"+item.ID, nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = f.do(t, http.MethodGet, "/api/template", nil)
	assert.Len(t, decode[[]domain.ChecklistItem](t, resp), 14)
}

func TestPairEndpoints(t *testing.T) {
	f := newFixture(t)

	resp := f.do(t, http.MethodPost, "/api/pairs", map[string]string{"pair": "XRP/USDT"})
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = f.do(t, http.MethodGet, "/api/pairs", nil)
	assert.Contains(t, decode[[]string](t, resp), "XRP/USDT")

	resp = f.do(t, http.MethodDelete, "/api/pairs?pair=XRP%2FUSDT", nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = f.do(t, http.MethodGet, "/api/pairs", nil)
	assert.NotContains(t, decode[[]string](t, resp), "XRP/USDT")
}

func TestPricesEndpoint(t *testing.T) {
	f := newFixture(t)
	f.board.Observe(domain.PriceUpdate{Symbol: "BTCUSDT", Price: 50000})
	f.board.Observe(domain.PriceUpdate{Symbol: "BTCUSDT", Price: 50100})

	resp := f.do(t, http.MethodGet, "/api/prices", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	prices := decode[map[string]usecase.PricePoint](t, resp)
	assert.Equal(t, 50100.0, prices["BTCUSDT"].Price)
	assert.Equal(t, 50000.0, prices["BTCUSDT"].PrevPrice)
}

func TestAnalysisEndpoint(t *testing.T) {
	f := newFixture(t)

	resp := f.do(t, http.MethodGet, "/api/analysis?pair=BTC/USDT", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	report := decode[domain.AnalysisReport](t, resp)
	assert.Equal(t, "stub report for BTC/USDT", report.Summary)

	resp = f.do(t, http.MethodGet, "/api/analysis", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestExportImportEndpoints(t *testing.T) {
	f := newFixture(t)

	resp := f.do(t, http.MethodPost, "/api/trades", map[string]string{"pair": "BTC/USDT"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = f.do(t, http.MethodGet, "/api/export", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	doc := decode[usecase.TransferDocument](t, resp)
	assert.Len(t, doc.ActiveTrades, 1)
	assert.Equal(t, usecase.TransferVersion, doc.Version)

	// Import only a pair list; the active trade survives.
	body, err := json.Marshal(map[string]any{"pairs": []string{"ADA/USDT"}})
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodPost, f.srv.URL+"/api/import", bytes.NewReader(body))
	require.NoError(t, err)
	importResp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer importResp.Body.Close()
	require.Equal(t, http.StatusNoContent, importResp.StatusCode)

	resp = f.do(t, http.MethodGet, "/api/pairs", nil)
	assert.Equal(t, []string{"ADA/USDT"}, decode[[]string](t, resp))
	resp = f.do(t, http.MethodGet, "/api/trades", nil)
	assert.Len(t, decode[[]domain.Trade](t, resp), 1)
}

func TestImport_Malformed(t *testing.T) {
	f := newFixture(t)

	req, err := http.NewRequest(http.MethodPost, f.srv.URL+"/api/import", bytes.NewBufferString("{broken"))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var payload map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	assert.NotEmpty(t, payload["error"])
}
