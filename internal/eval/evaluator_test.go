package eval

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/cloudwego/eino/schema"

	"github.com/dyike/PromptBench/config"
	"github.com/dyike/PromptBench/consts"
	"github.com/dyike/PromptBench/internal/models"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestCheckCompleteness(t *testing.T) {
	output := "## 600519.SH 贵州茅台 快速评估\n**投资评级**: ⭐⭐⭐⭐\n**核心逻辑**: 行业龙头\n**主要风险**: 消费复苏不及预期"
	// 投资评级、核心逻辑、风险 present, 关键数据 missing
	if got := CheckCompleteness(output, consts.ModeQuick); !almostEqual(got, 0.75) {
		t.Errorf("quick completeness = %f, want 0.75", got)
	}

	if got := CheckCompleteness("", consts.ModeQuick); !almostEqual(got, 0) {
		t.Errorf("empty completeness = %f, want 0", got)
	}

	deep := "市场环境良好，基本面扎实，技术面走强，资金面充裕，投资建议：买入"
	if got := CheckCompleteness(deep, consts.ModeDeep); !almostEqual(got, 1.0) {
		t.Errorf("deep completeness = %f, want 1.0", got)
	}

	// unknown mode falls back to the quick sections
	if got := CheckCompleteness(output, "unknown"); !almostEqual(got, 0.75) {
		t.Errorf("fallback completeness = %f, want 0.75", got)
	}
}

func TestCheckFormatComplianceQuick(t *testing.T) {
	// all four checks satisfied: short output with title, stars, table
	output := "## 评估\n⭐⭐⭐\n| 指标 | 数值 |\n|---|---|\n| PE | 30 |"
	if got := CheckFormatCompliance(output, consts.ModeQuick); !almostEqual(got, 1.0) {
		t.Errorf("quick full compliance = %f, want 1.0", got)
	}

	// only brevity satisfied
	if got := CheckFormatCompliance("简短评估", consts.ModeQuick); !almostEqual(got, 0.3) {
		t.Errorf("quick minimal compliance = %f, want 0.3", got)
	}

	// long output loses the brevity weight
	long := "## 评估\n⭐\n|---|\n" + strings.Repeat("很", 1600)
	if got := CheckFormatCompliance(long, consts.ModeQuick); !almostEqual(got, 0.7) {
		t.Errorf("quick long compliance = %f, want 0.7", got)
	}
}

func TestCheckFormatComplianceDeep(t *testing.T) {
	long := strings.Repeat("深度分析内容", 150) // > 800 runes
	output := "## 第一部分\n评分: 8分\n| 指标 |\n止盈位置 1900\n" + long
	if got := CheckFormatCompliance(output, consts.ModeDeep); !almostEqual(got, 1.0) {
		t.Errorf("deep full compliance = %f, want 1.0", got)
	}

	// 短文本只命中评分关键字（"分"）
	if got := CheckFormatCompliance("评分较高", consts.ModeDeep); !almostEqual(got, 0.2) {
		t.Errorf("deep minimal compliance = %f, want 0.2", got)
	}
}

func TestCheckFormatComplianceNonQuickModes(t *testing.T) {
	// quick 之外的模式走深度检查："评分较高" 只命中评分关键字
	if got := CheckFormatCompliance("评分较高", consts.ModeScreener); !almostEqual(got, 0.2) {
		t.Errorf("screener compliance = %f, want 0.2", got)
	}
	// 快速检查会因简洁性给 0.3，这里必须是深度检查的 0.2
	if got := CheckFormatCompliance("评分较高", "unknown"); !almostEqual(got, 0.2) {
		t.Errorf("unknown mode compliance = %f, want 0.2", got)
	}
}

func TestCheckDataAccuracy(t *testing.T) {
	if got := CheckDataAccuracy("任何输出", nil); !almostEqual(got, 0.5) {
		t.Errorf("no ground truth = %f, want 0.5", got)
	}

	gt := models.GroundTruth{"PE": 30, "ROE": 25}
	// PE matches by key, ROE value 25 not present and key not present
	if got := CheckDataAccuracy("当前PE为32倍", gt); !almostEqual(got, 0.25) {
		t.Errorf("partial accuracy = %f, want 0.25", got)
	}

	// both keys present
	if got := CheckDataAccuracy("PE 30, ROE 25", gt); !almostEqual(got, 0.5) {
		t.Errorf("full accuracy = %f, want 0.5", got)
	}
}

func TestExtractRecommendation(t *testing.T) {
	cases := []struct {
		output   string
		wantRec  string
		wantConf float64
	}{
		{"强烈推荐关注该股", consts.RecommendBuy, 0.8},
		{"建议买入并持有", consts.RecommendBuy, 0.8},
		{"综合评级 ⭐⭐⭐⭐⭐", consts.RecommendBuy, 0.8},
		{"综合评级 ⭐⭐⭐⭐", consts.RecommendBuy, 0.6},
		{"值得推荐", consts.RecommendBuy, 0.6},
		{"建议回避该板块", consts.RecommendSell, 0.7},
		{"建议卖出", consts.RecommendSell, 0.7},
		{"评级 ⭐", consts.RecommendSell, 0.7},
		{"观点中性", consts.RecommendHold, 0.5},
		{"建议观望", consts.RecommendHold, 0.5},
		{"没有任何关键词", consts.RecommendHold, 0.5},
		{"", consts.RecommendHold, 0.5},
	}

	for _, c := range cases {
		rec, conf := ExtractRecommendation(c.output)
		if rec != c.wantRec || !almostEqual(conf, c.wantConf) {
			t.Errorf("ExtractRecommendation(%q) = (%s, %f), want (%s, %f)",
				c.output, rec, conf, c.wantRec, c.wantConf)
		}
	}
}

func TestExtractRecommendationPriority(t *testing.T) {
	// 四星评级包含单星子串，不能落到卖出分支
	rec, conf := ExtractRecommendation("评级 ⭐⭐⭐⭐，但存在回避理由")
	if rec != consts.RecommendBuy || !almostEqual(conf, 0.6) {
		t.Fatalf("four-star priority broken: (%s, %f)", rec, conf)
	}

	// 买入优先于回避
	rec, _ = ExtractRecommendation("短期回避，长期买入")
	if rec != consts.RecommendBuy {
		t.Fatalf("buy keyword should take priority, got %s", rec)
	}
}

func TestTestCaseID(t *testing.T) {
	id := TestCaseID("600519.SH", "2024-01-15", "original")
	if len(id) != 8 {
		t.Fatalf("id length = %d, want 8", len(id))
	}
	if id != TestCaseID("600519.SH", "2024-01-15", "original") {
		t.Fatalf("id not deterministic")
	}
	if id == TestCaseID("600519.SH", "2024-01-15", "optimized") {
		t.Fatalf("id should vary with prompt version")
	}
}

func TestEstimateTokens(t *testing.T) {
	if got := estimateTokens("四个汉字"); got != 2 {
		t.Errorf("estimateTokens(四个汉字) = %d, want 2", got)
	}
	if got := estimateTokens(""); got != 0 {
		t.Errorf("estimateTokens(empty) = %d, want 0", got)
	}
}

func newTestEvaluator(t *testing.T) *Evaluator {
	t.Helper()
	return NewEvaluator(config.DefaultConfigWithRoot(t.TempDir()))
}

func TestRunSingleEvaluationDegradesOnError(t *testing.T) {
	e := newTestEvaluator(t)
	analyst := func(ctx context.Context, state *models.AnalysisState) (*models.AnalysisState, error) {
		return nil, errors.New("model unavailable")
	}

	result := e.RunSingleEvaluation(context.Background(), analyst,
		"600519.SH", "2024-01-15", consts.VersionOriginal, consts.ModeQuick, nil)

	if result == nil {
		t.Fatalf("evaluation must always produce a result record")
	}
	if result.OutputTokens != 0 || !almostEqual(result.CompletenessScore, 0) {
		t.Errorf("failed run should score an empty output, got %+v", result)
	}
	if result.Recommendation != consts.RecommendHold || !almostEqual(result.Confidence, 0.5) {
		t.Errorf("failed run recommendation = (%s, %f), want neutral hold", result.Recommendation, result.Confidence)
	}
	if len(e.Results()) != 1 {
		t.Errorf("result not recorded, have %d", len(e.Results()))
	}
}

func TestRunSingleEvaluationToolFollowUp(t *testing.T) {
	e := newTestEvaluator(t)
	report := "## 600519.SH 快速评估\n**投资评级**: ⭐⭐⭐⭐\n建议买入"

	calls := 0
	sawToolMessage := false
	analyst := func(ctx context.Context, state *models.AnalysisState) (*models.AnalysisState, error) {
		calls++
		out := *state
		if calls == 1 {
			// 第一次回复只带工具调用，没有报告
			out.Messages = append(out.Messages, &schema.Message{
				Role: schema.Assistant,
				ToolCalls: []schema.ToolCall{{
					ID:       "call-1",
					Function: schema.FunctionCall{Name: "no_such_tool", Arguments: "{}"},
				}},
			})
			return &out, nil
		}
		for _, msg := range state.Messages {
			if msg.Role == schema.Tool {
				sawToolMessage = true
			}
		}
		out.MarketReport = report
		return &out, nil
	}

	result := e.RunSingleEvaluation(context.Background(), analyst,
		"600519.SH", "2024-01-15", consts.VersionOptimized, consts.ModeQuick, nil)

	if calls != 2 {
		t.Fatalf("analyst invoked %d times, want 2", calls)
	}
	if !sawToolMessage {
		t.Errorf("tool results were not fed back into the second invocation")
	}
	if result.Recommendation != consts.RecommendBuy {
		t.Errorf("recommendation = %s, want %s", result.Recommendation, consts.RecommendBuy)
	}
	if result.OutputTokens == 0 {
		t.Errorf("report output was not scored")
	}
}

func TestRunSingleEvaluationAssistantContentFallback(t *testing.T) {
	e := newTestEvaluator(t)

	calls := 0
	analyst := func(ctx context.Context, state *models.AnalysisState) (*models.AnalysisState, error) {
		calls++
		out := *state
		if calls == 1 {
			out.Messages = append(out.Messages, &schema.Message{
				Role: schema.Assistant,
				ToolCalls: []schema.ToolCall{{
					ID:       "call-1",
					Function: schema.FunctionCall{Name: "no_such_tool", Arguments: "{}"},
				}},
			})
			return &out, nil
		}
		// 二次调用仍然没有报告，只有一段普通回复
		out.Messages = append(out.Messages, schema.AssistantMessage("数据不足，建议观望", nil))
		return &out, nil
	}

	result := e.RunSingleEvaluation(context.Background(), analyst,
		"000858.SZ", "2024-01-15", consts.VersionOriginal, consts.ModeQuick, nil)

	if calls != 2 {
		t.Fatalf("analyst invoked %d times, want 2", calls)
	}
	if result.Recommendation != consts.RecommendHold {
		t.Errorf("recommendation = %s, want %s from fallback content", result.Recommendation, consts.RecommendHold)
	}
	if result.OutputTokens != estimateTokens("数据不足，建议观望") {
		t.Errorf("fallback content was not used as the scored output")
	}
}

func TestComputeSummary(t *testing.T) {
	resultsA := []*models.EvaluationResult{
		{CompletenessScore: 0.5, FormatCompliance: 0.4, DataAccuracy: 0.5, OutputTokens: 100, ResponseTimeMs: 1000},
		{CompletenessScore: 0.5, FormatCompliance: 0.6, DataAccuracy: 0.5, OutputTokens: 300, ResponseTimeMs: 3000},
	}
	resultsB := []*models.EvaluationResult{
		{CompletenessScore: 0.75, FormatCompliance: 0.5, DataAccuracy: 0.5, OutputTokens: 150, ResponseTimeMs: 1500},
		{CompletenessScore: 0.75, FormatCompliance: 0.5, DataAccuracy: 0.5, OutputTokens: 150, ResponseTimeMs: 2500},
	}

	rows := computeSummary(resultsA, resultsB)
	if len(rows) != 5 {
		t.Fatalf("summary rows = %d, want 5", len(rows))
	}

	byMetric := make(map[string]models.SummaryRow)
	for _, row := range rows {
		byMetric[row.Metric] = row
	}

	comp := byMetric["completeness_score"]
	if !almostEqual(comp.MeanA, 0.5) || !almostEqual(comp.MeanB, 0.75) {
		t.Errorf("completeness means = %f/%f", comp.MeanA, comp.MeanB)
	}
	if !almostEqual(comp.ImprovementPct, 50.0) {
		t.Errorf("completeness improvement = %f, want 50", comp.ImprovementPct)
	}

	tokens := byMetric["output_tokens"]
	if !almostEqual(tokens.MeanA, 200) || !almostEqual(tokens.ImprovementPct, -25.0) {
		t.Errorf("token row = %+v", tokens)
	}
}

func TestComputeSummaryZeroGuard(t *testing.T) {
	resultsA := []*models.EvaluationResult{{CompletenessScore: 0}}
	resultsB := []*models.EvaluationResult{{CompletenessScore: 1}}

	rows := computeSummary(resultsA, resultsB)
	for _, row := range rows {
		if row.Metric == "completeness_score" && !almostEqual(row.ImprovementPct, 0) {
			t.Fatalf("zero mean A must yield 0%% improvement, got %f", row.ImprovementPct)
		}
	}
}
