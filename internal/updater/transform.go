package updater

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ternarybob/eodsync/internal/ascentrade"
	"github.com/ternarybob/eodsync/internal/common"
	"github.com/ternarybob/eodsync/internal/eodhd"
)

// mergeQuotes outer-joins raw and split-adjusted quotes on date into the
// backend quote schema. Raw volume is dropped; the split-adjusted feed's
// volume wins. Rows missing one side keep nil fields for it.
func mergeQuotes(raw, adjusted eodhd.EODResponse) []ascentrade.QuoteDay {
	merged := make(map[string]*ascentrade.QuoteDay, len(raw))

	day := func(date string) *ascentrade.QuoteDay {
		if d, ok := merged[date]; ok {
			return d
		}
		d := &ascentrade.QuoteDay{Date: date}
		merged[date] = d
		return d
	}

	for i := range raw {
		q := &raw[i]
		d := day(q.DateStr)
		d.Open = fcopy(q.Open)
		d.High = fcopy(q.High)
		d.Low = fcopy(q.Low)
		d.Close = fcopy(q.Close)
		d.AdjustedClose = fcopy(q.AdjustedClose)
	}

	for i := range adjusted {
		q := &adjusted[i]
		d := day(q.DateStr)
		d.SplitAdjustedOpen = fcopy(q.Open)
		d.SplitAdjustedHigh = fcopy(q.High)
		d.SplitAdjustedLow = fcopy(q.Low)
		d.SplitAdjustedClose = fcopy(q.Close)
		d.Volume = icopy(q.Volume)
	}

	dates := make([]string, 0, len(merged))
	for date := range merged {
		dates = append(dates, date)
	}
	sort.Strings(dates)

	result := make([]ascentrade.QuoteDay, 0, len(dates))
	for _, date := range dates {
		result = append(result, *merged[date])
	}
	return result
}

// bulkQuoteDay maps one bulk feed row to the single-day quote schema.
// The bulk feed has no separate adjusted series, so the raw OHLC is mirrored
// into the split-adjusted fields.
func bulkQuoteDay(q *eodhd.BulkQuote) ascentrade.QuoteDay {
	return ascentrade.QuoteDay{
		Date:               q.DateStr,
		Open:               fcopy(q.Open),
		High:               fcopy(q.High),
		Low:                fcopy(q.Low),
		Close:              fcopy(q.Close),
		AdjustedClose:      fcopy(q.AdjustedClose),
		Volume:             icopy(q.Volume),
		SplitAdjustedOpen:  fcopy(q.Open),
		SplitAdjustedHigh:  fcopy(q.High),
		SplitAdjustedLow:   fcopy(q.Low),
		SplitAdjustedClose: fcopy(q.Close),
	}
}

// dividendEntry renames one historical dividend to the backend naming and
// maps its period onto the closed enumeration. The provider-only unadjusted
// value and currency fields are dropped.
func dividendEntry(d *eodhd.DividendData) ascentrade.DividendEntry {
	return ascentrade.DividendEntry{
		Date:            d.DateStr,
		DeclarationDate: d.DeclarationDate,
		RecordDate:      d.RecordDate,
		PaymentDate:     d.PaymentDate,
		Period:          common.ParseDividendPeriod(d.Period),
		Value:           floatDecimal(d.Value),
	}
}

// buildSecurityInput flattens the typed fundamentals payload into the
// backend's security record. Policy checks (blank exchange, security type,
// unknown ticker) are the caller's responsibility.
func buildSecurityInput(f *eodhd.FundamentalsResponse, logoURL, logoBase64 string, now time.Time) ascentrade.SecurityInput {
	general := f.General

	input := ascentrade.SecurityInput{
		Code:            general.Code,
		Type:            securityType(general.Type),
		Name:            general.Name,
		ExchangeCode:    general.Exchange,
		CurrencyISOCode: general.CurrencyCode,
		CountryAlpha3:   general.CountryName,
		Figi:            general.OpenFigi,
		Isin:            general.ISIN,
		Lei:             general.LEI,
		Cusip:           general.CUSIP,
		Cik:             general.CIK,
		IPODate:         common.CheckDateString(general.IPODate),
		IsDelisted:      general.IsDelisted,
		Description:     general.Description,
		URL:             general.WebURL,
		Sector:          general.Sector,
		Industry:        general.Industry,
		LastUpdate:      now.Format(time.RFC3339),
		LogoURL:         logoURL,
		LogoBase64:      logoBase64,
	}

	if h := f.Highlights; h != nil {
		input.Marketcap = h.MarketCapitalization
		input.Ebitda = h.EBITDA
		input.PERatio = h.PERatio
		input.WallstreetTargetPrice = h.WallStreetTargetPrice
		input.BookValue = h.BookValue
		input.DividendShare = h.DividendShare
		input.DividendYield = h.DividendYield
		input.EarningsShare = h.EarningsShare
		input.EPSEstimateCurrentYear = h.EPSEstimateCurrentYear
		input.EPSEstimateNextYear = h.EPSEstimateNextYear
		input.EPSEstimateNextQuarter = h.EPSEstimateNextQuarter
		input.EPSEstimateCurrentQuarter = h.EPSEstimateCurrentQuarter
		input.MostRecentQuarter = common.CheckDateString(h.MostRecentQuarter)
		input.ProfitMargin = h.ProfitMargin
		input.OperatingMarginTTM = h.OperatingMarginTTM
		input.ReturnOnAssetsTTM = h.ReturnOnAssetsTTM
		input.ReturnOnEquityTTM = h.ReturnOnEquityTTM
		input.RevenueTTM = h.RevenueTTM
		input.RevenuePerShareTTM = h.RevenuePerShareTTM
		input.QuarterlyRevenueGrowthYOY = h.QuarterlyRevenueGrowthYOY
		input.GrossProfitTTM = h.GrossProfitTTM
		input.DilutedEpsTTM = h.DilutedEpsTTM
		input.QuarterlyEarningsGrowth = h.QuarterlyEarningsGrowthYOY
	}

	if v := f.Valuation; v != nil {
		input.ForwardPE = v.ForwardPE
		input.PriceSalesTTM = v.PriceSalesTTM
		input.PriceBookMRQ = v.PriceBookMRQ
		input.EnterpriseValue = v.EnterpriseValue
		input.EnterpriseValueRevenue = v.EnterpriseValueRevenue
		input.EnterpriseValueEbitda = v.EnterpriseValueEbitda
	}

	if t := f.Technicals; t != nil {
		input.Beta = t.Beta
		input.SharesShort = t.SharesShort
		input.ShortRatio = t.ShortRatio
	}

	if s := f.SharesStats; s != nil {
		input.SharesOutstanding = s.SharesOutstanding
		input.SharesFloat = s.SharesFloat
	}

	return input
}

// outstandingSharesInput merges the annual and quarterly shares history.
// Returns nil when the payload has no history.
func outstandingSharesInput(f *eodhd.FundamentalsResponse, code, exchangeCode string) *ascentrade.OutstandingSharesInput {
	if f.OutstandingShares == nil {
		return nil
	}

	var entries []ascentrade.SharesHistoryEntry
	for _, series := range [][]eodhd.SharesEntry{f.OutstandingShares.Annual, f.OutstandingShares.Quarterly} {
		for _, e := range series {
			entries = append(entries, ascentrade.SharesHistoryEntry{
				Date:              e.DateFormatted,
				OutstandingShares: e.Shares,
			})
		}
	}
	if len(entries) == 0 {
		return nil
	}

	return &ascentrade.OutstandingSharesInput{
		Code:              code,
		ExchangeCode:      exchangeCode,
		OutstandingShares: entries,
	}
}

// securityType normalizes the provider security type ("Common Stock" -> "Stock").
func securityType(providerType string) string {
	if providerType == "Common Stock" {
		return "Stock"
	}
	return providerType
}

// extractETFTickers returns the distinct constituent codes of an ETF
// fundamentals payload, in holding order where the provider preserves one.
func extractETFTickers(f *eodhd.FundamentalsResponse) []string {
	if f == nil || f.ETFData == nil {
		return nil
	}

	keys := make([]string, 0, len(f.ETFData.Holdings))
	for key := range f.ETFData.Holdings {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	seen := make(map[string]bool)
	var tickers []string
	for _, key := range keys {
		code := f.ETFData.Holdings[key].Code
		if code == "" || seen[code] {
			continue
		}
		seen[code] = true
		tickers = append(tickers, code)
	}
	return tickers
}

func floatDecimal(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v)
}

func fcopy(v float64) *float64 {
	return &v
}

func icopy(v int64) *int64 {
	return &v
}
