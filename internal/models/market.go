package models

// StockDataInput is the argument schema for the get_china_stock_data tool.
type StockDataInput struct {
	Symbol string `json:"symbol"`
	Count  int    `json:"count"`
}

type StockDataOutput struct {
	Data []*MarketData `json:"data"`
}

// MarketOverviewInput is the argument schema for the get_china_market_overview tool.
type MarketOverviewInput struct {
	Date string `json:"date"`
}

type MarketOverviewOutput struct {
	Result string `json:"result"`
}

// YFinDataInput is the argument schema for the get_YFin_data tool.
type YFinDataInput struct {
	Symbol string `json:"symbol"`
	Count  int    `json:"count"`
}

type YFinDataOutput struct {
	Data []*MarketData `json:"data"`
}

type MarketData struct {
	Symbol string  `json:"symbol"`
	Volume int64   `json:"volume"`
	Date   string  `json:"date"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Open   float64 `json:"open"`
	Close  float64 `json:"close"`
}

// StockInfo is the static information used for company name resolution.
type StockInfo struct {
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Exchange string `json:"exchange"`
	Currency string `json:"currency"`
}
