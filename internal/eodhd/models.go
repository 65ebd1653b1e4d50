package eodhd

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// UserData represents account metadata and API usage from the /user endpoint.
type UserData struct {
	Name             string `json:"name"`
	Email            string `json:"email"`
	SubscriptionType string `json:"subscriptionType"`
	PaymentMethod    string `json:"paymentMethod"`
	APIRequests      int    `json:"apiRequests"`
	APIRequestsDate  string `json:"apiRequestsDate"`
	DailyRateLimit   int    `json:"dailyRateLimit"`
	ExtraLimit       int    `json:"extraLimit"`
	SubscriptionMode string `json:"subscriptionMode"`
}

// Remaining returns the number of API calls left for today.
func (u *UserData) Remaining() int {
	return u.DailyRateLimit - u.APIRequests
}

// EODData represents a single day's end-of-day price data.
type EODData struct {
	Date          time.Time `json:"-"`
	DateStr       string    `json:"date"`
	Open          float64   `json:"open"`
	High          float64   `json:"high"`
	Low           float64   `json:"low"`
	Close         float64   `json:"close"`
	AdjustedClose float64   `json:"adjusted_close"`
	Volume        int64     `json:"volume"`
}

// EODResponse is a slice of EODData.
type EODResponse []EODData

// DividendData represents dividend information.
type DividendData struct {
	Date            time.Time `json:"-"`
	DateStr         string    `json:"date"`
	DeclarationDate string    `json:"declarationDate"`
	RecordDate      string    `json:"recordDate"`
	PaymentDate     string    `json:"paymentDate"`
	Period          string    `json:"period"`
	Value           float64   `json:"value"`
	UnadjustedValue float64   `json:"unadjustedValue"`
	Currency        string    `json:"currency"`
}

// DividendsResponse is a slice of DividendData.
type DividendsResponse []DividendData

// SplitData represents stock split information.
type SplitData struct {
	Date    time.Time `json:"-"`
	DateStr string    `json:"date"`
	Split   string    `json:"split"` // e.g., "2.000000/1.000000" for a 2-for-1 split
}

// SplitsResponse is a slice of SplitData.
type SplitsResponse []SplitData

// ExchangeSymbol represents one row of an exchange symbol list.
type ExchangeSymbol struct {
	Code     string `json:"Code"`
	Name     string `json:"Name"`
	Country  string `json:"Country"`
	Exchange string `json:"Exchange"`
	Currency string `json:"Currency"`
	Type     string `json:"Type"` // "Common Stock", "ETF", "Fund", ...
	Isin     string `json:"Isin"`
}

// BulkQuote represents one row of the bulk last-day quote feed.
type BulkQuote struct {
	Code          string  `json:"code"`
	ExchangeShort string  `json:"exchange_short_name"`
	DateStr       string  `json:"date"`
	Open          float64 `json:"open"`
	High          float64 `json:"high"`
	Low           float64 `json:"low"`
	Close         float64 `json:"close"`
	AdjustedClose float64 `json:"adjusted_close"`
	Volume        int64   `json:"volume"`
}

// BulkSplit represents one row of the bulk last-day splits feed.
type BulkSplit struct {
	Code     string `json:"code"`
	Exchange string `json:"exchange"`
	DateStr  string `json:"date"`
	Split    string `json:"split"`
}

// BulkDividend represents one row of the bulk last-day dividends feed.
// Monetary values arrive as strings in this feed.
type BulkDividend struct {
	Code            string `json:"code"`
	Exchange        string `json:"exchange"`
	DateStr         string `json:"date"`
	Dividend        string `json:"dividend"`
	Currency        string `json:"currency"`
	DeclarationDate string `json:"declarationDate"`
	RecordDate      string `json:"recordDate"`
	PaymentDate     string `json:"paymentDate"`
	Period          string `json:"period"`
	UnadjustedValue string `json:"unadjustedValue"`
}

// FundamentalsResponse represents the full fundamentals data for a symbol.
type FundamentalsResponse struct {
	General           *GeneralInfo       `json:"General"`
	Highlights        *Highlights        `json:"Highlights"`
	Valuation         *Valuation         `json:"Valuation"`
	SharesStats       *SharesStats       `json:"SharesStats"`
	Technicals        *Technicals        `json:"Technicals"`
	SplitsDividends   *SplitsDividends   `json:"SplitsDividends"`
	AnalystRatings    *AnalystRatings    `json:"AnalystRatings"`
	Holders           *Holders           `json:"Holders"`
	ESGScores         *ESGScores         `json:"ESGScores"`
	OutstandingShares *OutstandingShares `json:"outstandingShares"`
	Earnings          *Earnings          `json:"Earnings"`
	Financials        *Financials        `json:"Financials"`
	ETFData           *ETFData           `json:"ETF_Data"`
}

// GeneralInfo contains general company information.
type GeneralInfo struct {
	Code                  string `json:"Code"`
	Type                  string `json:"Type"`
	Name                  string `json:"Name"`
	Exchange              string `json:"Exchange"`
	CurrencyCode          string `json:"CurrencyCode"`
	CurrencyName          string `json:"CurrencyName"`
	CurrencySymbol        string `json:"CurrencySymbol"`
	CountryName           string `json:"CountryName"`
	CountryISO            string `json:"CountryISO"`
	OpenFigi              string `json:"OpenFigi"`
	ISIN                  string `json:"ISIN"`
	LEI                   string `json:"LEI"`
	CUSIP                 string `json:"CUSIP"`
	CIK                   string `json:"CIK"`
	EmployerIDNumber      string `json:"EmployerIdNumber"`
	FiscalYearEnd         string `json:"FiscalYearEnd"`
	IPODate               string `json:"IPODate"`
	InternationalDomestic string `json:"InternationalDomestic"`
	Sector                string `json:"Sector"`
	Industry              string `json:"Industry"`
	GicSector             string `json:"GicSector"`
	GicGroup              string `json:"GicGroup"`
	GicIndustry           string `json:"GicIndustry"`
	GicSubIndustry        string `json:"GicSubIndustry"`
	HomeCategory          string `json:"HomeCategory"`
	IsDelisted            bool   `json:"IsDelisted"`
	Description           string `json:"Description"`
	Address               string `json:"Address"`
	Phone                 string `json:"Phone"`
	WebURL                string `json:"WebURL"`
	LogoURL               string `json:"LogoURL"`
	FullTimeEmployees     int    `json:"FullTimeEmployees"`
	UpdatedAt             string `json:"UpdatedAt"`
}

// Highlights contains key financial highlights.
// Numeric fields are pointers so an absent value stays distinguishable
// from a reported zero (a yield of 0 is data, a missing yield is not).
type Highlights struct {
	MarketCapitalization       *float64 `json:"MarketCapitalization"`
	MarketCapitalizationMln    *float64 `json:"MarketCapitalizationMln"`
	EBITDA                     *float64 `json:"EBITDA"`
	PERatio                    *float64 `json:"PERatio"`
	PEGRatio                   *float64 `json:"PEGRatio"`
	WallStreetTargetPrice      *float64 `json:"WallStreetTargetPrice"`
	BookValue                  *float64 `json:"BookValue"`
	DividendShare              *float64 `json:"DividendShare"`
	DividendYield              *float64 `json:"DividendYield"`
	EarningsShare              *float64 `json:"EarningsShare"`
	EPSEstimateCurrentYear     *float64 `json:"EPSEstimateCurrentYear"`
	EPSEstimateNextYear        *float64 `json:"EPSEstimateNextYear"`
	EPSEstimateNextQuarter     *float64 `json:"EPSEstimateNextQuarter"`
	EPSEstimateCurrentQuarter  *float64 `json:"EPSEstimateCurrentQuarter"`
	MostRecentQuarter          string   `json:"MostRecentQuarter"`
	ProfitMargin               *float64 `json:"ProfitMargin"`
	OperatingMarginTTM         *float64 `json:"OperatingMarginTTM"`
	ReturnOnAssetsTTM          *float64 `json:"ReturnOnAssetsTTM"`
	ReturnOnEquityTTM          *float64 `json:"ReturnOnEquityTTM"`
	RevenueTTM                 *float64 `json:"RevenueTTM"`
	RevenuePerShareTTM         *float64 `json:"RevenuePerShareTTM"`
	QuarterlyRevenueGrowthYOY  *float64 `json:"QuarterlyRevenueGrowthYOY"`
	GrossProfitTTM             *float64 `json:"GrossProfitTTM"`
	DilutedEpsTTM              *float64 `json:"DilutedEpsTTM"`
	QuarterlyEarningsGrowthYOY *float64 `json:"QuarterlyEarningsGrowthYOY"`
}

// Valuation contains valuation metrics.
type Valuation struct {
	TrailingPE             *float64 `json:"TrailingPE"`
	ForwardPE              *float64 `json:"ForwardPE"`
	PriceSalesTTM          *float64 `json:"PriceSalesTTM"`
	PriceBookMRQ           *float64 `json:"PriceBookMRQ"`
	EnterpriseValue        *float64 `json:"EnterpriseValue"`
	EnterpriseValueRevenue *float64 `json:"EnterpriseValueRevenue"`
	EnterpriseValueEbitda  *float64 `json:"EnterpriseValueEbitda"`
}

// SharesStats contains share count statistics.
type SharesStats struct {
	SharesOutstanding       *int64   `json:"SharesOutstanding"`
	SharesFloat             *int64   `json:"SharesFloat"`
	PercentInsiders         *float64 `json:"PercentInsiders"`
	PercentInstitutions     *float64 `json:"PercentInstitutions"`
	SharesShort             *int64   `json:"SharesShort"`
	SharesShortPriorMonth   *int64   `json:"SharesShortPriorMonth"`
	ShortRatio              *float64 `json:"ShortRatio"`
	ShortPercentOutstanding *float64 `json:"ShortPercentOutstanding"`
	ShortPercentFloat       *float64 `json:"ShortPercentFloat"`
}

// Technicals contains technical analysis data.
type Technicals struct {
	Beta                  *float64 `json:"Beta"`
	FiftyTwoWeekHigh      *float64 `json:"52WeekHigh"`
	FiftyTwoWeekLow       *float64 `json:"52WeekLow"`
	FiftyDayMA            *float64 `json:"50DayMA"`
	TwoHundredDayMA       *float64 `json:"200DayMA"`
	SharesShort           *int64   `json:"SharesShort"`
	SharesShortPriorMonth *int64   `json:"SharesShortPriorMonth"`
	ShortRatio            *float64 `json:"ShortRatio"`
	ShortPercent          *float64 `json:"ShortPercent"`
}

// SplitsDividends contains splits and dividend information.
type SplitsDividends struct {
	ForwardAnnualDividendRate  float64 `json:"ForwardAnnualDividendRate"`
	ForwardAnnualDividendYield float64 `json:"ForwardAnnualDividendYield"`
	PayoutRatio                float64 `json:"PayoutRatio"`
	DividendDate               string  `json:"DividendDate"`
	ExDividendDate             string  `json:"ExDividendDate"`
	LastSplitFactor            string  `json:"LastSplitFactor"`
	LastSplitDate              string  `json:"LastSplitDate"`
}

// AnalystRatings contains analyst ratings data.
type AnalystRatings struct {
	Rating      float64 `json:"Rating"`
	TargetPrice float64 `json:"TargetPrice"`
	StrongBuy   int     `json:"StrongBuy"`
	Buy         int     `json:"Buy"`
	Hold        int     `json:"Hold"`
	Sell        int     `json:"Sell"`
	StrongSell  int     `json:"StrongSell"`
}

// Holders contains shareholder information.
// Uses custom unmarshaler to handle EODHD API returning empty object {} instead of empty array [].
type Holders struct {
	Institutions []InstitutionHolder `json:"Institutions"`
	Funds        []FundHolder        `json:"Funds"`
}

// UnmarshalJSON implements custom JSON unmarshaling for Holders.
// EODHD API sometimes returns empty object {} instead of empty array []
// for Institutions and Funds fields when there's no data.
func (h *Holders) UnmarshalJSON(data []byte) error {
	type HoldersAlias Holders
	alias := &HoldersAlias{}

	if err := json.Unmarshal(data, alias); err != nil {
		var raw map[string]json.RawMessage
		if jsonErr := json.Unmarshal(data, &raw); jsonErr != nil {
			return fmt.Errorf("failed to unmarshal Holders: %w", err)
		}

		// Unmarshal each list independently, tolerating the empty-object case
		if instData, ok := raw["Institutions"]; ok {
			var institutions []InstitutionHolder
			if jsonErr := json.Unmarshal(instData, &institutions); jsonErr == nil {
				h.Institutions = institutions
			}
		}
		if fundsData, ok := raw["Funds"]; ok {
			var funds []FundHolder
			if jsonErr := json.Unmarshal(fundsData, &funds); jsonErr == nil {
				h.Funds = funds
			}
		}

		return nil
	}

	*h = Holders(*alias)
	return nil
}

// InstitutionHolder represents an institutional holder.
type InstitutionHolder struct {
	Name          string  `json:"name"`
	Date          string  `json:"date"`
	TotalShares   int64   `json:"totalShares"`
	TotalAssets   float64 `json:"totalAssets"`
	CurrentShares int64   `json:"currentShares"`
	Change        int64   `json:"change"`
	ChangePercent float64 `json:"change_p"`
}

// FundHolder represents a fund holder.
type FundHolder struct {
	Name          string  `json:"name"`
	Date          string  `json:"date"`
	TotalShares   int64   `json:"totalShares"`
	TotalAssets   float64 `json:"totalAssets"`
	CurrentShares int64   `json:"currentShares"`
	Change        int64   `json:"change"`
	ChangePercent float64 `json:"change_p"`
}

// ESGScores contains ESG (Environmental, Social, Governance) scores.
type ESGScores struct {
	RatingDate       string  `json:"ratingDate"`
	TotalEsg         float64 `json:"totalEsg"`
	EnvironmentScore float64 `json:"environmentScore"`
	SocialScore      float64 `json:"socialScore"`
	GovernanceScore  float64 `json:"governanceScore"`
	ControversyLevel int     `json:"controversyLevel"`
}

// OutstandingShares contains outstanding shares history.
// Uses custom unmarshaler because the API returns the annual and quarterly
// series as objects keyed "0", "1", ... rather than arrays.
type OutstandingShares struct {
	Annual    []SharesEntry `json:"annual"`
	Quarterly []SharesEntry `json:"quarterly"`
}

// UnmarshalJSON accepts both the keyed-object and the plain-array encodings.
func (o *OutstandingShares) UnmarshalJSON(data []byte) error {
	var raw struct {
		Annual    json.RawMessage `json:"annual"`
		Quarterly json.RawMessage `json:"quarterly"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("failed to unmarshal outstandingShares: %w", err)
	}

	var err error
	if o.Annual, err = sharesSeries(raw.Annual); err != nil {
		return err
	}
	if o.Quarterly, err = sharesSeries(raw.Quarterly); err != nil {
		return err
	}
	return nil
}

func sharesSeries(data json.RawMessage) ([]SharesEntry, error) {
	if len(data) == 0 || string(data) == "null" {
		return nil, nil
	}

	var entries []SharesEntry
	if err := json.Unmarshal(data, &entries); err == nil {
		return entries, nil
	}

	var keyed map[string]SharesEntry
	if err := json.Unmarshal(data, &keyed); err != nil {
		return nil, fmt.Errorf("failed to unmarshal shares series: %w", err)
	}

	keys := make([]string, 0, len(keyed))
	for k := range keyed {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		entries = append(entries, keyed[k])
	}
	return entries, nil
}

// SharesEntry represents a single entry in outstanding shares.
type SharesEntry struct {
	Date          string  `json:"date"`
	DateFormatted string  `json:"dateFormatted"`
	SharesMln     float64 `json:"sharesMln"`
	Shares        int64   `json:"shares"`
}

// Earnings contains earnings data.
type Earnings struct {
	History []EarningsHistoryEntry `json:"History"`
	Trend   []EarningsTrendEntry   `json:"Trend"`
	Annual  []EarningsAnnualEntry  `json:"Annual"`
}

// EarningsHistoryEntry represents a single earnings history entry.
type EarningsHistoryEntry struct {
	ReportDate        string  `json:"reportDate"`
	Date              string  `json:"date"`
	BeforeAfterMarket string  `json:"beforeAfterMarket"`
	Currency          string  `json:"currency"`
	EPSActual         float64 `json:"epsActual"`
	EPSEstimate       float64 `json:"epsEstimate"`
	EPSDifference     float64 `json:"epsDifference"`
	SurprisePercent   float64 `json:"surprisePercent"`
}

// EarningsTrendEntry represents a single earnings trend entry.
type EarningsTrendEntry struct {
	Date                string  `json:"date"`
	Period              string  `json:"period"`
	Growth              float64 `json:"growth"`
	EarningsEstimateAvg float64 `json:"earningsEstimateAvg"`
	RevenueEstimateAvg  float64 `json:"revenueEstimateAvg"`
	EPSTrendCurrent     float64 `json:"epsTrendCurrent"`
}

// EarningsAnnualEntry represents annual earnings.
type EarningsAnnualEntry struct {
	Date      string  `json:"date"`
	EPSActual float64 `json:"epsActual"`
}

// Financials contains financial statements.
type Financials struct {
	BalanceSheet    *FinancialStatement `json:"Balance_Sheet"`
	CashFlow        *FinancialStatement `json:"Cash_Flow"`
	IncomeStatement *FinancialStatement `json:"Income_Statement"`
}

// FinancialStatement represents a financial statement with quarterly and yearly data.
type FinancialStatement struct {
	Currency  string                            `json:"currency"`
	Quarterly map[string]map[string]interface{} `json:"quarterly"`
	Yearly    map[string]map[string]interface{} `json:"yearly"`
}

// ETFData contains ETF composition data.
type ETFData struct {
	ISIN             string                `json:"ISIN"`
	CompanyName      string                `json:"Company_Name"`
	TotalAssets      string                `json:"TotalAssets"`
	HoldingsCount    int                   `json:"Holdings_Count"`
	Holdings         map[string]ETFHolding `json:"Holdings"`
	Top10Holdings    map[string]ETFHolding `json:"Top_10_Holdings"`
	AssetAllocation  json.RawMessage       `json:"Asset_Allocation"`
	SectorWeights    json.RawMessage       `json:"Sector_Weights"`
	WorldRegions     json.RawMessage       `json:"World_Regions"`
	AverageMktCapMln string                `json:"Average_Mkt_Cap_Mil"`
}

// ETFHolding represents a single ETF constituent, keyed like "AAPL.US".
type ETFHolding struct {
	Code          string  `json:"Code"`
	Exchange      string  `json:"Exchange"`
	Name          string  `json:"Name"`
	Sector        string  `json:"Sector"`
	Industry      string  `json:"Industry"`
	Country       string  `json:"Country"`
	Region        string  `json:"Region"`
	AssetsPercent float64 `json:"Assets_%"`
}
