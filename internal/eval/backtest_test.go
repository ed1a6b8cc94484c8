package eval

import (
	"testing"

	"github.com/dyike/PromptBench/config"
	"github.com/dyike/PromptBench/consts"
	"github.com/dyike/PromptBench/internal/models"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return config.DefaultConfigWithRoot(t.TempDir())
}

func bars(closes ...float64) []*models.MarketData {
	out := make([]*models.MarketData, len(closes))
	for i, c := range closes {
		out[i] = &models.MarketData{Close: c}
	}
	return out
}

func TestReturnFromBars(t *testing.T) {
	// 买入 100，5 日后 105
	if got := returnFromBars(bars(100, 101, 102, 103, 104, 105), 5); !almostEqual(got, 0.05) {
		t.Errorf("return = %f, want 0.05", got)
	}

	// 下跌
	if got := returnFromBars(bars(100, 95, 90), 2); !almostEqual(got, -0.1) {
		t.Errorf("return = %f, want -0.1", got)
	}

	// 数据不足
	if got := returnFromBars(bars(100, 101), 5); !almostEqual(got, 0) {
		t.Errorf("insufficient bars should yield 0, got %f", got)
	}
	if got := returnFromBars(nil, 5); !almostEqual(got, 0) {
		t.Errorf("nil bars should yield 0, got %f", got)
	}

	// 零价格防护
	if got := returnFromBars(bars(0, 1, 2), 2); !almostEqual(got, 0) {
		t.Errorf("zero buy price should yield 0, got %f", got)
	}
}

func TestStrategyReturn(t *testing.T) {
	if got := strategyReturn(consts.RecommendBuy, 0.05); !almostEqual(got, 0.05) {
		t.Errorf("buy strategy = %f", got)
	}
	// 卖出按做空收益计
	if got := strategyReturn(consts.RecommendSell, 0.05); !almostEqual(got, -0.05) {
		t.Errorf("sell strategy = %f", got)
	}
	if got := strategyReturn(consts.RecommendHold, 0.05); !almostEqual(got, 0) {
		t.Errorf("hold strategy = %f", got)
	}
	if got := strategyReturn("未知", 0.05); !almostEqual(got, 0) {
		t.Errorf("unknown recommendation strategy = %f", got)
	}
}

func TestSummarize(t *testing.T) {
	records := []*models.BacktestRecord{
		{PromptVersion: "original", StrategyReturn: 0.02, ActualReturn: 0.02},
		{PromptVersion: "original", StrategyReturn: -0.01, ActualReturn: -0.01},
		{PromptVersion: "optimized", StrategyReturn: 0.03, ActualReturn: 0.03},
		{PromptVersion: "optimized", StrategyReturn: 0.01, ActualReturn: -0.01},
	}

	summaries := summarize(records)
	if len(summaries) != 2 {
		t.Fatalf("summaries = %d, want 2", len(summaries))
	}

	// sorted by version name: optimized first
	opt := summaries[0]
	if opt.PromptVersion != "optimized" {
		t.Fatalf("first summary version = %s", opt.PromptVersion)
	}
	if opt.Count != 2 {
		t.Errorf("optimized count = %d", opt.Count)
	}
	if !almostEqual(opt.MeanStrategy, 0.02) {
		t.Errorf("optimized mean strategy = %f, want 0.02", opt.MeanStrategy)
	}
	if !almostEqual(opt.WinRate, 1.0) {
		t.Errorf("optimized win rate = %f, want 1.0", opt.WinRate)
	}
	if !almostEqual(opt.MeanActualReturn, 0.01) {
		t.Errorf("optimized mean actual = %f, want 0.01", opt.MeanActualReturn)
	}

	orig := summaries[1]
	if !almostEqual(orig.WinRate, 0.5) {
		t.Errorf("original win rate = %f, want 0.5", orig.WinRate)
	}
	if !almostEqual(orig.MeanStrategy, 0.005) {
		t.Errorf("original mean strategy = %f, want 0.005", orig.MeanStrategy)
	}
	// 样本标准差 (n-1)
	if !almostEqual(orig.StdStrategy, 0.021213203435596423) {
		t.Errorf("original std strategy = %f", orig.StdStrategy)
	}
}

func TestSummarizeSingleRecord(t *testing.T) {
	summaries := summarize([]*models.BacktestRecord{
		{PromptVersion: "original", StrategyReturn: 0.02, ActualReturn: 0.02},
	})
	if len(summaries) != 1 {
		t.Fatalf("summaries = %d", len(summaries))
	}
	if !almostEqual(summaries[0].StdStrategy, 0) {
		t.Errorf("single-record std = %f, want 0", summaries[0].StdStrategy)
	}
}

func TestEnrichResult(t *testing.T) {
	cfg := testConfig(t)

	r := &models.EvaluationResult{}
	enrichResult(r, cfg.HoldDaysShort, cfg, 0.05)
	if r.ActualReturn5d == nil || !almostEqual(*r.ActualReturn5d, 0.05) {
		t.Fatalf("5d return not set: %+v", r.ActualReturn5d)
	}
	if r.ActualReturn10d != nil {
		t.Fatalf("10d return should stay nil")
	}

	enrichResult(r, cfg.HoldDaysLong, cfg, -0.02)
	if r.ActualReturn10d == nil || !almostEqual(*r.ActualReturn10d, -0.02) {
		t.Fatalf("10d return not set: %+v", r.ActualReturn10d)
	}

	// 非标准持有期不回填
	r2 := &models.EvaluationResult{}
	enrichResult(r2, 7, cfg, 0.01)
	if r2.ActualReturn5d != nil || r2.ActualReturn10d != nil {
		t.Fatalf("non-standard hold days should not enrich")
	}
}
