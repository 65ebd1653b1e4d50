// Package interfaces defines the service contracts the updater depends on,
// decoupling it from the concrete HTTP clients.
package interfaces

import (
	"context"

	"github.com/ternarybob/eodsync/internal/eodhd"
)

// MarketDataClient is the upstream market data provider the producer fetches from.
type MarketDataClient interface {
	GetUser(ctx context.Context) (*eodhd.UserData, error)
	GetFundamentals(ctx context.Context, symbol string) (*eodhd.FundamentalsResponse, error)
	GetEOD(ctx context.Context, symbol string, opts ...eodhd.QueryOption) (eodhd.EODResponse, error)
	GetSplitAdjustedQuotes(ctx context.Context, symbol string, opts ...eodhd.QueryOption) (eodhd.EODResponse, error)
	GetDividends(ctx context.Context, symbol string, opts ...eodhd.QueryOption) (eodhd.DividendsResponse, error)
	GetSplits(ctx context.Context, symbol string, opts ...eodhd.QueryOption) (eodhd.SplitsResponse, error)
	GetExchangeSymbolList(ctx context.Context, exchange string, delisted bool) ([]eodhd.ExchangeSymbol, error)
	GetBulkQuotes(ctx context.Context, exchange string, opts ...eodhd.QueryOption) ([]eodhd.BulkQuote, error)
	GetBulkSplits(ctx context.Context, exchange string, opts ...eodhd.QueryOption) ([]eodhd.BulkSplit, error)
	GetBulkDividends(ctx context.Context, exchange string, opts ...eodhd.QueryOption) ([]eodhd.BulkDividend, error)
	DownloadLogo(ctx context.Context, logoURL string) ([]byte, error)
}
