package updater

import (
	"github.com/ternarybob/eodsync/internal/eodhd"
)

// Event is one unit of work flowing from the producer to the consumer.
// Each concrete event carries its own typed payload; events are immutable
// after creation and consumed exactly once.
type Event interface {
	Kind() string
}

// QuotesEvent carries raw and split-adjusted historical quotes for one security.
type QuotesEvent struct {
	Code          string
	ExchangeCode  string
	Quotes        eodhd.EODResponse
	SplitAdjusted eodhd.EODResponse
}

func (*QuotesEvent) Kind() string { return "quotes" }

// DividendsEvent carries the historical dividends for one security.
type DividendsEvent struct {
	Code         string
	ExchangeCode string
	Dividends    eodhd.DividendsResponse
}

func (*DividendsEvent) Kind() string { return "dividends" }

// SplitsEvent carries the historical splits for one security.
type SplitsEvent struct {
	Code         string
	ExchangeCode string
	Splits       eodhd.SplitsResponse
}

func (*SplitsEvent) Kind() string { return "splits" }

// ExchangeTickersEvent carries a full exchange symbol list, already filtered
// to stocks and ETFs.
type ExchangeTickersEvent struct {
	Exchange string
	Delisted bool
	Symbols  []eodhd.ExchangeSymbol
}

func (*ExchangeTickersEvent) Kind() string { return "exchange-tickers" }

// BulkQuotesEvent carries the last-day quote feed for a whole exchange.
type BulkQuotesEvent struct {
	Quotes []eodhd.BulkQuote
}

func (*BulkQuotesEvent) Kind() string { return "bulk-quotes" }

// BulkSplitsEvent carries the last-day splits feed for a whole exchange.
type BulkSplitsEvent struct {
	Splits []eodhd.BulkSplit
}

func (*BulkSplitsEvent) Kind() string { return "bulk-splits" }

// BulkDividendsEvent carries the last-day dividends feed for a whole exchange.
type BulkDividendsEvent struct {
	Dividends []eodhd.BulkDividend
}

func (*BulkDividendsEvent) Kind() string { return "bulk-dividends" }

// FundamentalsEvent carries the full fundamentals payload for one security,
// plus the downloaded logo when available.
type FundamentalsEvent struct {
	Fundamentals *eodhd.FundamentalsResponse
	LogoURL      string
	LogoBase64   string
}

func (*FundamentalsEvent) Kind() string { return "fundamentals" }
