package models

// StockContext is what a prior analysis report says about a stock, reduced to
// the pieces that steer keyword search.
type StockContext struct {
	Ticker           string   `json:"ticker"`
	StockName        string   `json:"stock_name"`
	Aliases          []string `json:"aliases"`
	BusinessKeywords []string `json:"business_keywords"`
	ThemeKeywords    []string `json:"theme_keywords"`
	RiskKeywords     []string `json:"risk_keywords"`
	Summary          string   `json:"summary"`
}

// SearchConfig is the flat (ticker, aliases, theme keywords) triple a
// collection run needs.
type SearchConfig struct {
	Ticker        string   `json:"ticker"`
	StockName     string   `json:"stock_name"`
	Aliases       []string `json:"aliases"`
	ThemeKeywords []string `json:"theme_keywords"`
}
