package market

// TopStocks is the curated list of widely tracked tickers surfaced on the
// market overview page
var TopStocks = []string{
	// Tech
	"AAPL", "MSFT", "GOOGL", "AMZN", "TSLA", "META", "NVDA", "AVGO", "ORCL", "CRM",
	// Financials
	"JPM", "BAC", "WFC", "GS", "C", "V", "MA", "AXP",
	// Healthcare
	"UNH", "JNJ", "LLY", "PFE", "ABBV", "MRK",
	// Consumer
	"WMT", "PG", "KO", "PEP", "COST", "MCD", "NKE", "DIS",
	// Energy and industrials
	"XOM", "CVX", "CAT", "BA", "GE", "HON",
}
