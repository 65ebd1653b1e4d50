package updater

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/eodsync/internal/ascentrade"
	"github.com/ternarybob/eodsync/internal/eodhd"
)

func TestHandleQuotesEmptySkipsBackend(t *testing.T) {
	backend := NewMockBackendClient()
	u := newTestUpdater(t, &MockMarketClient{}, backend)

	u.handleEvent(context.Background(), &QuotesEvent{Code: "AAPL", ExchangeCode: "US"})
	assert.Empty(t, backend.Quotes)
}

func TestHandleQuotesMergesAndUpserts(t *testing.T) {
	backend := NewMockBackendClient()
	u := newTestUpdater(t, &MockMarketClient{}, backend)

	u.handleEvent(context.Background(), &QuotesEvent{
		Code:         "AAPL",
		ExchangeCode: "US",
		Quotes: eodhd.EODResponse{
			{DateStr: "2024-01-02", Open: 10, Close: 11, AdjustedClose: 10.5},
		},
		SplitAdjusted: eodhd.EODResponse{
			{DateStr: "2024-01-02", Open: 9, Close: 10, Volume: 1000},
		},
	})

	require.Len(t, backend.Quotes, 1)
	input := backend.Quotes[0]
	assert.Equal(t, "AAPL", input.Code)
	assert.Equal(t, "US", input.ExchangeCode)
	require.Len(t, input.Quotes, 1)
	require.NotNil(t, input.Quotes[0].SplitAdjustedOpen)
	assert.Equal(t, 9.0, *input.Quotes[0].SplitAdjustedOpen)
}

func TestHandleSplitsSkipsMalformedRatios(t *testing.T) {
	backend := NewMockBackendClient()
	u := newTestUpdater(t, &MockMarketClient{}, backend)

	u.handleEvent(context.Background(), &SplitsEvent{
		Code:         "AAPL",
		ExchangeCode: "US",
		Splits: eodhd.SplitsResponse{
			{DateStr: "2020-08-31", Split: "4.000000/1.000000"},
			{DateStr: "2021-01-01", Split: "not-a-ratio"},
		},
	})

	require.Len(t, backend.Splits, 1)
	require.Len(t, backend.Splits[0].Splits, 1)
	entry := backend.Splits[0].Splits[0]
	assert.Equal(t, "2020-08-31", entry.Date)
	assert.Equal(t, "4", entry.New.String())
	assert.Equal(t, "1", entry.Old.String())
}

func TestHandleDividendsRenamesFields(t *testing.T) {
	backend := NewMockBackendClient()
	u := newTestUpdater(t, &MockMarketClient{}, backend)

	u.handleEvent(context.Background(), &DividendsEvent{
		Code:         "AAPL",
		ExchangeCode: "US",
		Dividends: eodhd.DividendsResponse{
			{DateStr: "2024-02-09", PaymentDate: "2024-02-15", Period: "quarterly", Value: 0.24},
		},
	})

	require.Len(t, backend.Dividends, 1)
	entry := backend.Dividends[0].Dividends[0]
	assert.Equal(t, "2024-02-09", entry.Date)
	assert.Equal(t, "2024-02-15", entry.PaymentDate)
	assert.Equal(t, "Quarterly", entry.Period)
	assert.Equal(t, "0.24", entry.Value.String())
}

func TestHandleExchangeTickersDisabled(t *testing.T) {
	backend := NewMockBackendClient()
	u := newTestUpdater(t, &MockMarketClient{}, backend)
	u.cfg.Update.AddNewTicker = false

	u.handleEvent(context.Background(), &ExchangeTickersEvent{
		Exchange: "US",
		Symbols:  []eodhd.ExchangeSymbol{{Code: "NEW", Type: "Common Stock"}},
	})
	assert.Empty(t, backend.Securities)
}

func TestHandleExchangeTickersRegistersUnknown(t *testing.T) {
	backend := NewMockBackendClient()
	backend.tickers = testTickers()
	u := newTestUpdater(t, &MockMarketClient{}, backend)
	u.cfg.Update.AddNewTicker = true

	u.handleEvent(context.Background(), &ExchangeTickersEvent{
		Exchange: "US",
		Symbols: []eodhd.ExchangeSymbol{
			{Code: "AAPL", Name: "Apple Inc", Exchange: "NASDAQ", Type: "Common Stock"},
			{Code: "NEWCO", Name: "New Company", Country: "USA", Currency: "USD", Type: "Common Stock"},
		},
	})

	require.Len(t, backend.Securities, 1, "already known symbols are not re-registered")
	input := backend.Securities[0]
	assert.Equal(t, "NEWCO", input.Code)
	assert.Equal(t, "Stock", input.Type)
	assert.Equal(t, "US", input.ExchangeCode, "blank exchange defaults to US")
	assert.Equal(t, "USA", input.CountryAlpha3)
	assert.Equal(t, "USD", input.CurrencyISOCode)
	assert.NotEmpty(t, input.LastUpdate)
}

func TestHandleBulkQuotesSkipsUnknownTickers(t *testing.T) {
	backend := NewMockBackendClient()
	backend.tickers = testTickers()
	u := newTestUpdater(t, &MockMarketClient{}, backend)

	u.handleEvent(context.Background(), &BulkQuotesEvent{
		Quotes: []eodhd.BulkQuote{
			{Code: "AAPL", ExchangeShort: "US", DateStr: "2024-05-01", Open: 100, Close: 105, Volume: 9000},
			{Code: "ZZZZ", ExchangeShort: "US", DateStr: "2024-05-01", Open: 1, Close: 1},
		},
	})

	require.Len(t, backend.Quotes, 1)
	input := backend.Quotes[0]
	assert.Equal(t, "AAPL", input.Code)
	require.Len(t, input.Quotes, 1)
	require.NotNil(t, input.Quotes[0].SplitAdjustedClose)
	assert.Equal(t, 105.0, *input.Quotes[0].SplitAdjustedClose)
}

func TestHandleBulkDividendsParsesStringValues(t *testing.T) {
	backend := NewMockBackendClient()
	backend.tickers = testTickers()
	u := newTestUpdater(t, &MockMarketClient{}, backend)

	u.handleEvent(context.Background(), &BulkDividendsEvent{
		Dividends: []eodhd.BulkDividend{
			{Code: "AAPL", Exchange: "US", DateStr: "2024-02-09", Dividend: "0.2400", Period: "Quarterly"},
			{Code: "AAPL", Exchange: "US", DateStr: "2024-05-10", Dividend: "oops"},
		},
	})

	require.Len(t, backend.Dividends, 1, "malformed values are dropped")
	entry := backend.Dividends[0].Dividends[0]
	assert.Equal(t, "0.24", entry.Value.String())
	require.NotNil(t, entry.AdjustedValue, "the bulk amount is sent as both raw and adjusted value")
	assert.Equal(t, "0.24", entry.AdjustedValue.String())
	assert.Equal(t, "Quarterly", entry.Period)
}

func TestHandleBulkSplits(t *testing.T) {
	backend := NewMockBackendClient()
	backend.tickers = testTickers()
	u := newTestUpdater(t, &MockMarketClient{}, backend)

	u.handleEvent(context.Background(), &BulkSplitsEvent{
		Splits: []eodhd.BulkSplit{
			{Code: "AAPL", Exchange: "US", DateStr: "2020-08-31", Split: "4.000000/1.000000"},
			{Code: "ZZZZ", Exchange: "US", DateStr: "2020-08-31", Split: "2.000000/1.000000"},
		},
	})

	require.Len(t, backend.Splits, 1)
	assert.Equal(t, "AAPL", backend.Splits[0].Code)
}

func TestHandleFundamentalsPolicy(t *testing.T) {
	tests := []struct {
		name         string
		general      *eodhd.GeneralInfo
		addNewTicker bool
		wantUpsert   bool
	}{
		{
			name:       "known stock",
			general:    &eodhd.GeneralInfo{Code: "AAPL", Type: "Common Stock", Exchange: "NASDAQ"},
			wantUpsert: true,
		},
		{
			name:       "missing exchange",
			general:    &eodhd.GeneralInfo{Code: "AAPL", Type: "Common Stock"},
			wantUpsert: false,
		},
		{
			name:       "unsupported type",
			general:    &eodhd.GeneralInfo{Code: "VFIAX", Type: "Fund", Exchange: "NASDAQ"},
			wantUpsert: false,
		},
		{
			name:       "unknown and registration disabled",
			general:    &eodhd.GeneralInfo{Code: "NEWCO", Type: "Common Stock", Exchange: "NYSE"},
			wantUpsert: false,
		},
		{
			name:         "unknown with registration enabled",
			general:      &eodhd.GeneralInfo{Code: "NEWCO", Type: "Common Stock", Exchange: "NYSE"},
			addNewTicker: true,
			wantUpsert:   true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := NewMockBackendClient()
			backend.tickers = testTickers()
			u := newTestUpdater(t, &MockMarketClient{}, backend)
			u.cfg.Update.AddNewTicker = tt.addNewTicker

			u.handleEvent(context.Background(), &FundamentalsEvent{
				Fundamentals: &eodhd.FundamentalsResponse{General: tt.general},
			})

			if tt.wantUpsert {
				assert.Len(t, backend.Securities, 1)
			} else {
				assert.Empty(t, backend.Securities)
			}
		})
	}
}

func TestHandleFundamentalsOutstandingShares(t *testing.T) {
	backend := NewMockBackendClient()
	backend.tickers = testTickers()
	u := newTestUpdater(t, &MockMarketClient{}, backend)

	u.handleEvent(context.Background(), &FundamentalsEvent{
		Fundamentals: &eodhd.FundamentalsResponse{
			General: &eodhd.GeneralInfo{Code: "AAPL", Type: "Common Stock", Exchange: "NASDAQ"},
			OutstandingShares: &eodhd.OutstandingShares{
				Annual: []eodhd.SharesEntry{{DateFormatted: "2023-12-31", Shares: 15500000000}},
			},
		},
	})

	require.Len(t, backend.Securities, 1)
	require.Len(t, backend.OutstandingShares, 1)
	assert.Equal(t, "AAPL", backend.OutstandingShares[0].Code)
	assert.Equal(t, "NASDAQ", backend.OutstandingShares[0].ExchangeCode)
}

func TestHandleFundamentalsRejectedSecurityStillUpdatesShares(t *testing.T) {
	backend := NewMockBackendClient()
	backend.tickers = testTickers()
	backend.result = ascentrade.MutationResult{Success: false, Error: "validation failed"}
	u := newTestUpdater(t, &MockMarketClient{}, backend)

	u.handleEvent(context.Background(), &FundamentalsEvent{
		Fundamentals: &eodhd.FundamentalsResponse{
			General: &eodhd.GeneralInfo{Code: "AAPL", Type: "Common Stock", Exchange: "NASDAQ"},
			OutstandingShares: &eodhd.OutstandingShares{
				Annual: []eodhd.SharesEntry{{DateFormatted: "2023-12-31", Shares: 15500000000}},
			},
		},
	})

	require.Len(t, backend.Securities, 1)
	assert.Len(t, backend.OutstandingShares, 1, "a rejected security upsert does not skip the shares history")
}
