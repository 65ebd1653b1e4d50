package updater

// defaultExchange is the generic US market code used for bulk feeds and for
// securities whose listing exchange is unknown.
const defaultExchange = "US"

// anchorETFs are the index funds whose holdings seed the initial backfill.
var anchorETFs = []string{"SPY", "QQQ", "IWM"}

// sectorETFs are sector and commodity funds added to the initial backfill.
var sectorETFs = []string{
	"XLE", "XLF", "XLU", "XLI", "GDX", "XLK", "XLV", "XLP", "XLB", "XOP",
	"IYR", "XHB", "ITB", "VNQ", "GDXJ", "IYE", "OIH", "XME", "XRT", "SMH",
	"IBB", "KBE", "KRE", "XTL",
}

// topUSStocks is the fixed list refreshed each cycle when top_stocks is enabled.
var topUSStocks = []string{
	"AAPL", "MSFT", "GOOGL", "AMZN", "NVDA", "META", "TSLA", "BRK-B", "JPM",
	"V", "UNH", "XOM", "JNJ", "WMT", "PG", "MA", "HD", "AVGO", "CVX", "MRK",
	"LLY", "PEP", "KO", "ABBV", "COST", "ADBE", "CSCO", "CRM", "BAC", "ORCL",
}

// topUSETFs is the fixed list refreshed each cycle when top_etfs is enabled.
var topUSETFs = []string{
	"SPY", "IVV", "VOO", "VTI", "QQQ", "VEA", "VTV", "IEFA", "BND", "AGG",
	"VUG", "IJH", "IJR", "VIG", "IWM", "VWO", "VXUS", "VO", "XLK", "GLD",
}
