package updater

import (
	"context"
	"sync"

	"github.com/ternarybob/eodsync/internal/ascentrade"
	"github.com/ternarybob/eodsync/internal/eodhd"
)

// MockBackendClient is a mock implementation of interfaces.BackendClient.
// It records every mutation and answers with configurable results.
type MockBackendClient struct {
	mu sync.Mutex

	tickers    []ascentrade.SecurityTicker
	tickersErr error
	result     ascentrade.MutationResult

	Securities        []ascentrade.SecurityInput
	Quotes            []ascentrade.SecurityQuotesInput
	Splits            []ascentrade.SplitsInput
	Dividends         []ascentrade.DividendsInput
	OutstandingShares []ascentrade.OutstandingSharesInput
}

func NewMockBackendClient() *MockBackendClient {
	return &MockBackendClient{result: ascentrade.MutationResult{Success: true}}
}

func (m *MockBackendClient) Ping(ctx context.Context) error {
	return nil
}

func (m *MockBackendClient) AllSecurityTickers(ctx context.Context) ([]ascentrade.SecurityTicker, error) {
	return m.tickers, m.tickersErr
}

func (m *MockBackendClient) UpdateSecurity(ctx context.Context, input ascentrade.SecurityInput) (ascentrade.MutationResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Securities = append(m.Securities, input)
	return m.result, nil
}

func (m *MockBackendClient) UpdateSecurityQuotes(ctx context.Context, input ascentrade.SecurityQuotesInput) (ascentrade.MutationResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Quotes = append(m.Quotes, input)
	return m.result, nil
}

func (m *MockBackendClient) UpdateSplits(ctx context.Context, input ascentrade.SplitsInput) (ascentrade.MutationResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Splits = append(m.Splits, input)
	return m.result, nil
}

func (m *MockBackendClient) UpdateDividends(ctx context.Context, input ascentrade.DividendsInput) (ascentrade.MutationResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Dividends = append(m.Dividends, input)
	return m.result, nil
}

func (m *MockBackendClient) UpdateOutstandingShares(ctx context.Context, input ascentrade.OutstandingSharesInput) (ascentrade.MutationResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.OutstandingShares = append(m.OutstandingShares, input)
	return m.result, nil
}

// MockMarketClient is a mock implementation of interfaces.MarketDataClient.
// Methods delegate to their function fields when set and return empty data
// otherwise.
type MockMarketClient struct {
	userFunc         func(ctx context.Context) (*eodhd.UserData, error)
	fundamentalsFunc func(ctx context.Context, symbol string) (*eodhd.FundamentalsResponse, error)
	eodFunc          func(ctx context.Context, symbol string) (eodhd.EODResponse, error)
	adjustedFunc     func(ctx context.Context, symbol string) (eodhd.EODResponse, error)
	dividendsFunc    func(ctx context.Context, symbol string) (eodhd.DividendsResponse, error)
	splitsFunc       func(ctx context.Context, symbol string) (eodhd.SplitsResponse, error)

	mu          sync.Mutex
	FullUpdates []string
	UserCalls   int
}

func (m *MockMarketClient) GetUser(ctx context.Context) (*eodhd.UserData, error) {
	m.mu.Lock()
	m.UserCalls++
	m.mu.Unlock()
	if m.userFunc != nil {
		return m.userFunc(ctx)
	}
	return &eodhd.UserData{DailyRateLimit: 100000}, nil
}

func (m *MockMarketClient) GetFundamentals(ctx context.Context, symbol string) (*eodhd.FundamentalsResponse, error) {
	m.mu.Lock()
	m.FullUpdates = append(m.FullUpdates, symbol)
	m.mu.Unlock()
	if m.fundamentalsFunc != nil {
		return m.fundamentalsFunc(ctx, symbol)
	}
	return nil, nil
}

func (m *MockMarketClient) GetEOD(ctx context.Context, symbol string, opts ...eodhd.QueryOption) (eodhd.EODResponse, error) {
	if m.eodFunc != nil {
		return m.eodFunc(ctx, symbol)
	}
	return eodhd.EODResponse{}, nil
}

func (m *MockMarketClient) GetSplitAdjustedQuotes(ctx context.Context, symbol string, opts ...eodhd.QueryOption) (eodhd.EODResponse, error) {
	if m.adjustedFunc != nil {
		return m.adjustedFunc(ctx, symbol)
	}
	return eodhd.EODResponse{}, nil
}

func (m *MockMarketClient) GetDividends(ctx context.Context, symbol string, opts ...eodhd.QueryOption) (eodhd.DividendsResponse, error) {
	if m.dividendsFunc != nil {
		return m.dividendsFunc(ctx, symbol)
	}
	return eodhd.DividendsResponse{}, nil
}

func (m *MockMarketClient) GetSplits(ctx context.Context, symbol string, opts ...eodhd.QueryOption) (eodhd.SplitsResponse, error) {
	if m.splitsFunc != nil {
		return m.splitsFunc(ctx, symbol)
	}
	return eodhd.SplitsResponse{}, nil
}

func (m *MockMarketClient) GetExchangeSymbolList(ctx context.Context, exchange string, delisted bool) ([]eodhd.ExchangeSymbol, error) {
	return nil, nil
}

func (m *MockMarketClient) GetBulkQuotes(ctx context.Context, exchange string, opts ...eodhd.QueryOption) ([]eodhd.BulkQuote, error) {
	return nil, nil
}

func (m *MockMarketClient) GetBulkSplits(ctx context.Context, exchange string, opts ...eodhd.QueryOption) ([]eodhd.BulkSplit, error) {
	return nil, nil
}

func (m *MockMarketClient) GetBulkDividends(ctx context.Context, exchange string, opts ...eodhd.QueryOption) ([]eodhd.BulkDividend, error) {
	return nil, nil
}

func (m *MockMarketClient) DownloadLogo(ctx context.Context, logoURL string) ([]byte, error) {
	return nil, nil
}
