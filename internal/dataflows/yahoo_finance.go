package dataflows

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/piquette/finance-go/chart"
	"github.com/piquette/finance-go/datetime"
	"github.com/shopspring/decimal"

	"github.com/dyike/PromptBench/config"
	"github.com/dyike/PromptBench/internal/models"
)

// YahooFinanceClient handles Yahoo Finance data operations
type YahooFinanceClient struct {
	cache *CacheManager
}

// NewYahooFinanceClient creates a new Yahoo Finance client
func NewYahooFinanceClient(cfg *config.Config) *YahooFinanceClient {
	cacheDir := filepath.Join(cfg.DataCacheDir, "yahoo_finance")
	cache := NewCacheManager(cacheDir, 24*time.Hour, cfg.CacheEnabled) // 24 hour cache

	return &YahooFinanceClient{cache: cache}
}

// GetHistoricalData gets daily bars for a symbol between start and end, oldest first.
func (yf *YahooFinanceClient) GetHistoricalData(symbol string, start, end time.Time) ([]*models.MarketData, error) {
	if err := ValidateSymbol(symbol); err != nil {
		return nil, err
	}
	symbol = NormalizeSymbol(symbol)

	cacheKey := map[string]interface{}{
		"symbol": symbol,
		"start":  start.Format("2006-01-02"),
		"end":    end.Format("2006-01-02"),
	}

	var cached []*models.MarketData
	if yf.cache.Get("yahoo", "historical", cacheKey, &cached) {
		return cached, nil
	}

	var result []*models.MarketData
	err := WithRetry(DefaultRetryConfig(), func() error {
		params := &chart.Params{
			Symbol:   symbol,
			Start:    datetime.New(&start),
			End:      datetime.New(&end),
			Interval: datetime.OneDay,
		}

		iter := chart.Get(params)

		result = make([]*models.MarketData, 0)
		for iter.Next() {
			bar := iter.Bar()
			result = append(result, &models.MarketData{
				Symbol: symbol,
				Date:   time.Unix(int64(bar.Timestamp), 0).Format("2006-01-02"),
				Open:   decimalToFloat(bar.Open),
				High:   decimalToFloat(bar.High),
				Low:    decimalToFloat(bar.Low),
				Close:  decimalToFloat(bar.Close),
				Volume: int64(bar.Volume),
			})
		}

		if err := iter.Err(); err != nil {
			return fmt.Errorf("failed to get historical data for %s: %w", symbol, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	yf.cache.Set("yahoo", "historical", cacheKey, result)
	return result, nil
}

// GetHistoricalDataWindow gets historical data for a rolling window ending today.
func (yf *YahooFinanceClient) GetHistoricalDataWindow(symbol string, days int) ([]*models.MarketData, error) {
	end := time.Now()
	start := end.AddDate(0, 0, -days)
	return yf.GetHistoricalData(symbol, start, end)
}

func decimalToFloat(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}
