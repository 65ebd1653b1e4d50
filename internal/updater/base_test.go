package updater

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/eodsync/internal/ascentrade"
)

func testTickers() []ascentrade.SecurityTicker {
	return []ascentrade.SecurityTicker{
		{
			ID:         1,
			Code:       "AAPL",
			LastUpdate: time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC),
			Exchange:   ascentrade.TickerExchange{Code: "NASDAQ", VirtualExchange: "US"},
		},
		{
			ID:         2,
			Code:       "SAP",
			LastUpdate: time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC),
			Exchange:   ascentrade.TickerExchange{Code: "XETRA", VirtualExchange: ""},
		},
		{
			ID:         3,
			Code:       "ENRN",
			IsDelisted: true,
			Exchange:   ascentrade.TickerExchange{Code: "NYSE", VirtualExchange: "US"},
		},
	}
}

func newTestBase(t *testing.T) *Base {
	t.Helper()
	backend := NewMockBackendClient()
	backend.tickers = testTickers()
	base := NewBase("test", backend, arbor.NewLogger())
	base.RefreshTickers(context.Background())
	return base
}

func TestIsKnownTicker(t *testing.T) {
	base := newTestBase(t)

	tests := []struct {
		name     string
		symbol   string
		exchange string
		delisted bool
		want     bool
	}{
		{"real exchange", "AAPL", "NASDAQ", false, true},
		{"virtual exchange", "AAPL", "US", false, true},
		{"case insensitive", "aapl", "us", false, true},
		{"wrong exchange", "AAPL", "LSE", false, false},
		{"listed lookup misses delisted row", "ENRN", "NYSE", false, false},
		{"delisted lookup", "ENRN", "NYSE", true, true},
		{"unknown symbol", "ZZZZ", "US", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := base.IsKnownTicker(tt.symbol, tt.exchange, tt.delisted)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIsKnownTickerInvalidInput(t *testing.T) {
	base := newTestBase(t)

	_, err := base.IsKnownTicker("", "US", false)
	assert.Error(t, err)
	_, err = base.IsKnownTicker("AAPL", "", false)
	assert.Error(t, err)
}

func TestRefreshTickersKeepsSnapshotOnError(t *testing.T) {
	base := newTestBase(t)
	require.Equal(t, 3, base.Snapshot().Len())

	backend := base.backend.(*MockBackendClient)
	backend.tickersErr = assert.AnError
	base.RefreshTickers(context.Background())

	assert.Equal(t, 3, base.Snapshot().Len(), "failed refresh must keep the previous snapshot")
}

func TestSortedByLastUpdate(t *testing.T) {
	base := newTestBase(t)

	rows := base.Snapshot().SortedByLastUpdate()
	require.Len(t, rows, 3)
	assert.Equal(t, "ENRN", rows[0].Code, "zero timestamp sorts first")
	assert.Equal(t, "SAP", rows[1].Code)
	assert.Equal(t, "AAPL", rows[2].Code)
}

func TestPendingSet(t *testing.T) {
	base := newTestBase(t)

	base.MarkForUpdate("msft", "us")
	base.MarkForUpdate("MSFT", "US")
	base.MarkForUpdate("aapl", "US")
	base.MarkForUpdate("", "US")

	pending := base.PendingTickers()
	require.Len(t, pending, 2)
	assert.Equal(t, TickerRef{Symbol: "AAPL", Exchange: "US"}, pending[0])
	assert.Equal(t, TickerRef{Symbol: "MSFT", Exchange: "US"}, pending[1])

	base.ClearPending()
	assert.Empty(t, base.PendingTickers())
}
