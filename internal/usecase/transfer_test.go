package usecase_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Lewsiafat/TradeGuard/internal/domain"
	"github.com/Lewsiafat/TradeGuard/internal/usecase"
)

func TestExportImport_RoundTrip(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	open, err := svc.Start(ctx, "BTC/USDT", "pre")
	require.NoError(t, err)
	checkAll(t, svc, open.ID)
	require.NoError(t, svc.Advance(ctx, open.ID))

	closed, err := svc.Start(ctx, "ETH/USDT", "")
	require.NoError(t, err)
	checkAll(t, svc, closed.ID)
	require.NoError(t, svc.Advance(ctx, closed.ID))
	require.NoError(t, svc.Close(ctx, closed.ID, usecase.CloseRequest{
		Direction: domain.SideShort, OpenPrice: 3000, ClosePrice: 2900,
		Pnl: 50, PnlPercentage: 3.3, Notes: "done",
	}))

	raw, err := svc.ExportJSON()
	require.NoError(t, err)

	fresh := usecase.NewTradeService(NewMemStore(), nil, zap.NewNop())
	require.NoError(t, fresh.Load(ctx))
	require.NoError(t, fresh.ImportJSON(ctx, raw))

	assert.Equal(t, svc.ActiveTrades(), fresh.ActiveTrades())
	assert.Equal(t, svc.History(), fresh.History())
	assert.Equal(t, svc.Template(), fresh.Template())
	assert.Equal(t, svc.Pairs(), fresh.Pairs())
}

func TestExport_DocumentShape(t *testing.T) {
	svc, _ := newService(t)

	doc := svc.Export()
	assert.Equal(t, usecase.TransferVersion, doc.Version)
	assert.NotEmpty(t, doc.ExportDate)
	assert.Len(t, doc.Template, 14)
	assert.Equal(t, domain.DefaultPairs(), doc.Pairs)
}

func TestImport_PartialDocument(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	trade, err := svc.Start(ctx, "BTC/USDT", "keep me")
	require.NoError(t, err)

	// Only pairs present: everything else stays untouched.
	require.NoError(t, svc.ImportJSON(ctx, []byte(`{"pairs":["ADA/USDT"]}`)))

	assert.Equal(t, []string{"ADA/USDT"}, svc.Pairs())
	require.Len(t, svc.ActiveTrades(), 1)
	assert.Equal(t, trade.ID, svc.ActiveTrades()[0].ID)
	assert.Len(t, svc.Template(), 14)
}

func TestImport_MalformedDocumentRejected(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.Start(ctx, "BTC/USDT", "")
	require.NoError(t, err)

	err = svc.ImportJSON(ctx, []byte(`{"pairs": [1, 2`))
	require.Error(t, err)

	// State untouched.
	assert.Len(t, svc.ActiveTrades(), 1)
	assert.Equal(t, domain.DefaultPairs(), svc.Pairs())
}
