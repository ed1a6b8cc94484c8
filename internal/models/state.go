package models

import (
	"fmt"

	"github.com/cloudwego/eino/schema"
)

// AnalysisState is the shared state threaded through the analyst graphs.
type AnalysisState struct {
	Messages          []*schema.Message `json:"messages"`
	CompanyOfInterest string            `json:"company_of_interest"`
	CompanyName       string            `json:"company_name"`
	TradeDate         string            `json:"trade_date"`

	MarketReport    string `json:"china_market_report"`
	ScreeningReport string `json:"stock_screening_report"`

	Sender       string `json:"sender"`
	AnalysisMode string `json:"analysis_mode"`
	Goto         string `json:"goto"`
}

func NewAnalysisState(ticker, tradeDate string) *AnalysisState {
	return &AnalysisState{
		Messages: []*schema.Message{
			schema.UserMessage(fmt.Sprintf("请分析股票 %s", ticker)),
		},
		CompanyOfInterest: ticker,
		TradeDate:         tradeDate,
	}
}

// Report returns whichever report the last node produced.
func (s *AnalysisState) Report() string {
	if s.MarketReport != "" {
		return s.MarketReport
	}
	return s.ScreeningReport
}
