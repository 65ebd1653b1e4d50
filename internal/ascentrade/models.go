package ascentrade

import (
	"time"

	"github.com/shopspring/decimal"
)

// MutationResult is the success/error pair every backend mutation returns.
type MutationResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// SecurityTicker is one row of the backend's security ticker listing.
type SecurityTicker struct {
	ID            int64          `json:"id"`
	Code          string         `json:"code"`
	LastUpdate    time.Time      `json:"-"`
	LastUpdateStr string         `json:"lastUpdate"`
	IsDelisted    bool           `json:"isDelisted"`
	Exchange      TickerExchange `json:"exchange"`
}

// TickerExchange holds the real and virtual exchange codes of a ticker.
// The virtual exchange aliases regional listings onto a generic market
// (e.g. NASDAQ -> US).
type TickerExchange struct {
	Code            string `json:"code"`
	VirtualExchange string `json:"virtualExchange"`
}

// SecurityInput is the flat record for the updateSecurity mutation.
// Optional fields are pointers so absent provider data serializes as null.
type SecurityInput struct {
	Code            string `json:"code"`
	Name            string `json:"name,omitempty"`
	Type            string `json:"type,omitempty"`
	ExchangeCode    string `json:"exchange_code"`
	CountryAlpha3   string `json:"country_alpha3,omitempty"`
	CurrencyISOCode string `json:"currency_iso_code,omitempty"`
	Figi            string `json:"figi,omitempty"`
	Isin            string `json:"isin,omitempty"`
	Lei             string `json:"lei,omitempty"`
	Cusip           string `json:"cusip,omitempty"`
	Cik             string `json:"cik,omitempty"`
	IPODate         string `json:"ipo_date,omitempty"`
	IsDelisted      bool   `json:"is_delisted"`
	Description     string `json:"description,omitempty"`
	URL             string `json:"url,omitempty"`
	Sector          string `json:"sector,omitempty"`
	Industry        string `json:"industry,omitempty"`
	LastUpdate      string `json:"last_update"`
	LogoURL         string `json:"logo_url,omitempty"`
	LogoBase64      string `json:"logo_base64,omitempty"`

	Marketcap                 *float64 `json:"marketcap,omitempty"`
	Beta                      *float64 `json:"beta,omitempty"`
	SharesOutstanding         *int64   `json:"shares_outstanding,omitempty"`
	SharesFloat               *int64   `json:"shares_float,omitempty"`
	SharesShort               *int64   `json:"shares_short,omitempty"`
	ShortRatio                *float64 `json:"short_ratio,omitempty"`
	Ebitda                    *float64 `json:"ebitda,omitempty"`
	PERatio                   *float64 `json:"pe_ratio,omitempty"`
	WallstreetTargetPrice     *float64 `json:"wallstreet_target_price,omitempty"`
	BookValue                 *float64 `json:"book_value,omitempty"`
	DividendShare             *float64 `json:"dividend_share,omitempty"`
	DividendYield             *float64 `json:"dividend_yield,omitempty"`
	EarningsShare             *float64 `json:"earnings_share,omitempty"`
	EPSEstimateCurrentYear    *float64 `json:"eps_estimate_current_year,omitempty"`
	EPSEstimateNextYear       *float64 `json:"eps_estimate_next_year,omitempty"`
	EPSEstimateNextQuarter    *float64 `json:"eps_estimate_next_quarter,omitempty"`
	EPSEstimateCurrentQuarter *float64 `json:"eps_estimate_current_quarter,omitempty"`
	MostRecentQuarter         string   `json:"most_recent_quarter,omitempty"`
	ProfitMargin              *float64 `json:"profit_margin,omitempty"`
	OperatingMarginTTM        *float64 `json:"operating_margin_ttm,omitempty"`
	ReturnOnAssetsTTM         *float64 `json:"return_on_assets_ttm,omitempty"`
	ReturnOnEquityTTM         *float64 `json:"return_on_equity_ttm,omitempty"`
	RevenueTTM                *float64 `json:"revenue_ttm,omitempty"`
	RevenuePerShareTTM        *float64 `json:"revenue_per_share_ttm,omitempty"`
	QuarterlyRevenueGrowthYOY *float64 `json:"quarterly_revenue_growth_yoy,omitempty"`
	GrossProfitTTM            *float64 `json:"gross_profit_ttm,omitempty"`
	DilutedEpsTTM             *float64 `json:"diluted_eps_ttm,omitempty"`
	QuarterlyEarningsGrowth   *float64 `json:"quarterly_earnings_growth_yoy,omitempty"`
	ForwardPE                 *float64 `json:"forward_pe,omitempty"`
	PriceSalesTTM             *float64 `json:"price_sales_ttm,omitempty"`
	PriceBookMRQ              *float64 `json:"price_book_mrq,omitempty"`
	EnterpriseValue           *float64 `json:"enterprise_value,omitempty"`
	EnterpriseValueRevenue    *float64 `json:"enterprise_value_revenue,omitempty"`
	EnterpriseValueEbitda     *float64 `json:"enterprise_value_ebitda,omitempty"`
}

// QuoteDay is one merged daily quote row for the updateSecurityQuotes mutation.
// Raw and split-adjusted sides are pointers because the outer join on date can
// leave either side absent.
type QuoteDay struct {
	Date               string   `json:"date"`
	Open               *float64 `json:"open"`
	High               *float64 `json:"high"`
	Low                *float64 `json:"low"`
	Close              *float64 `json:"close"`
	AdjustedClose      *float64 `json:"adjusted_close"`
	Volume             *int64   `json:"volume"`
	SplitAdjustedOpen  *float64 `json:"split_adjusted_open"`
	SplitAdjustedHigh  *float64 `json:"split_adjusted_high"`
	SplitAdjustedLow   *float64 `json:"split_adjusted_low"`
	SplitAdjustedClose *float64 `json:"split_adjusted_close"`
}

// SecurityQuotesInput is the payload for the updateSecurityQuotes mutation.
type SecurityQuotesInput struct {
	Code         string     `json:"code"`
	ExchangeCode string     `json:"exchange_code"`
	Quotes       []QuoteDay `json:"quotes"`
}

// SplitEntry is one stock split with the ratio parsed to decimals.
type SplitEntry struct {
	Date string          `json:"date"`
	New  decimal.Decimal `json:"new"`
	Old  decimal.Decimal `json:"old"`
}

// SplitsInput is the payload for the updateSplits mutation.
type SplitsInput struct {
	Code         string       `json:"code"`
	ExchangeCode string       `json:"exchange_code"`
	Splits       []SplitEntry `json:"splits"`
}

// DividendEntry is one dividend payment in the backend's naming.
type DividendEntry struct {
	Date            string           `json:"date"`
	DeclarationDate string           `json:"declaration_date,omitempty"`
	RecordDate      string           `json:"record_date,omitempty"`
	PaymentDate     string           `json:"payment_date,omitempty"`
	Period          string           `json:"period"`
	Value           decimal.Decimal  `json:"value"`
	AdjustedValue   *decimal.Decimal `json:"adjusted_value,omitempty"`
}

// DividendsInput is the payload for the updateDividends mutation.
type DividendsInput struct {
	Code         string          `json:"code"`
	ExchangeCode string          `json:"exchange_code"`
	Dividends    []DividendEntry `json:"dividends"`
}

// SharesHistoryEntry is one point of the outstanding shares history.
type SharesHistoryEntry struct {
	Date              string `json:"date"`
	OutstandingShares int64  `json:"outstanding_shares"`
}

// OutstandingSharesInput is the payload for the updateOutstandingShares mutation.
type OutstandingSharesInput struct {
	Code              string               `json:"code"`
	ExchangeCode      string               `json:"exchange_code"`
	OutstandingShares []SharesHistoryEntry `json:"outstanding_shares"`
}
