package eval

import (
	"context"
	"log"
	"math"
	"sort"
	"time"

	"github.com/dyike/PromptBench/config"
	"github.com/dyike/PromptBench/consts"
	"github.com/dyike/PromptBench/internal/dataflows"
	"github.com/dyike/PromptBench/internal/models"
)

// BacktestEvaluator computes the realized return of analyst recommendations.
type BacktestEvaluator struct {
	cfg       *config.Config
	eastmoney *dataflows.EastmoneyClient
	yahoo     *dataflows.YahooFinanceClient
}

func NewBacktestEvaluator(cfg *config.Config) *BacktestEvaluator {
	return &BacktestEvaluator{
		cfg:       cfg,
		eastmoney: dataflows.NewEastmoneyClient(cfg),
		yahoo:     dataflows.NewYahooFinanceClient(cfg),
	}
}

// ActualReturn is the realized return of buying at the close of the first
// trading day on or after date and selling holdDays trading days later.
// Fetch failures and insufficient data degrade to 0.0.
func (b *BacktestEvaluator) ActualReturn(ctx context.Context, ticker, date string, holdDays int) float64 {
	bars, err := b.dailyBarsFrom(ctx, ticker, date, holdDays+1)
	if err != nil {
		log.Printf("获取 %s 收益率失败: %v", ticker, err)
		return 0.0
	}
	return returnFromBars(bars, holdDays)
}

func (b *BacktestEvaluator) dailyBarsFrom(ctx context.Context, ticker, date string, count int) ([]*models.MarketData, error) {
	if dataflows.DetectMarket(ticker) == consts.MarketChina {
		return b.eastmoney.GetDailyKlineFrom(ctx, ticker, date, count)
	}

	start, err := time.Parse("2006-01-02", date)
	if err != nil {
		return nil, err
	}
	// 自然日窗口放宽，包住节假日
	end := start.AddDate(0, 0, count*2+7)
	bars, err := b.yahoo.GetHistoricalData(ticker, start, end)
	if err != nil {
		return nil, err
	}
	if len(bars) > count {
		bars = bars[:count]
	}
	return bars, nil
}

// returnFromBars computes (close[holdDays] - close[0]) / close[0] over
// bars sorted oldest first. Insufficient bars yield 0.0.
func returnFromBars(bars []*models.MarketData, holdDays int) float64 {
	if len(bars) < holdDays+1 {
		return 0.0
	}

	buyPrice := bars[0].Close
	sellPrice := bars[holdDays].Close
	if buyPrice == 0 {
		return 0.0
	}
	return (sellPrice - buyPrice) / buyPrice
}

// EvaluateRecommendations turns scored evaluation results into backtest
// records and per-version summaries, and enriches the results with the
// realized return for the matching hold window.
func (b *BacktestEvaluator) EvaluateRecommendations(
	ctx context.Context,
	results []*models.EvaluationResult,
	holdDays int,
) ([]*models.BacktestRecord, []*models.BacktestSummary) {
	records := make([]*models.BacktestRecord, 0, len(results))

	for _, r := range results {
		actualReturn := b.ActualReturn(ctx, r.Ticker, r.Date, holdDays)

		records = append(records, &models.BacktestRecord{
			Ticker:         r.Ticker,
			Date:           r.Date,
			Recommendation: r.Recommendation,
			Confidence:     r.Confidence,
			ActualReturn:   actualReturn,
			StrategyReturn: strategyReturn(r.Recommendation, actualReturn),
			PromptVersion:  r.PromptVersion,
		})

		enrichResult(r, holdDays, b.cfg, actualReturn)
	}

	return records, summarize(records)
}

// strategyReturn maps a recommendation onto the realized return: long for
// 买入, short for 卖出, flat for 持有.
func strategyReturn(recommendation string, actualReturn float64) float64 {
	switch recommendation {
	case consts.RecommendBuy:
		return actualReturn
	case consts.RecommendSell:
		return -actualReturn
	default:
		return 0
	}
}

func enrichResult(r *models.EvaluationResult, holdDays int, cfg *config.Config, actualReturn float64) {
	v := actualReturn
	switch holdDays {
	case cfg.HoldDaysShort:
		r.ActualReturn5d = &v
	case cfg.HoldDaysLong:
		r.ActualReturn10d = &v
	}
}

// summarize groups records by prompt version and aggregates strategy
// performance, including the win rate of strictly positive returns.
func summarize(records []*models.BacktestRecord) []*models.BacktestSummary {
	byVersion := make(map[string][]*models.BacktestRecord)
	for _, rec := range records {
		byVersion[rec.PromptVersion] = append(byVersion[rec.PromptVersion], rec)
	}

	versions := make([]string, 0, len(byVersion))
	for v := range byVersion {
		versions = append(versions, v)
	}
	sort.Strings(versions)

	summaries := make([]*models.BacktestSummary, 0, len(versions))
	for _, version := range versions {
		recs := byVersion[version]

		var strategySum, actualSum float64
		wins := 0
		for _, rec := range recs {
			strategySum += rec.StrategyReturn
			actualSum += rec.ActualReturn
			if rec.StrategyReturn > 0 {
				wins++
			}
		}

		n := float64(len(recs))
		meanStrategy := strategySum / n

		variance := 0.0
		if len(recs) > 1 {
			for _, rec := range recs {
				d := rec.StrategyReturn - meanStrategy
				variance += d * d
			}
			variance /= n - 1
		}

		summaries = append(summaries, &models.BacktestSummary{
			PromptVersion:    version,
			Count:            len(recs),
			MeanStrategy:     meanStrategy,
			StdStrategy:      math.Sqrt(variance),
			MeanActualReturn: actualSum / n,
			WinRate:          float64(wins) / n,
		})
	}

	return summaries
}
