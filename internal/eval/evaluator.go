// Package eval scores analyst outputs and aggregates A/B comparisons
// between prompt versions.
package eval

import (
	"context"
	"crypto/md5"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/cloudwego/eino/schema"

	"github.com/dyike/PromptBench/config"
	"github.com/dyike/PromptBench/consts"
	"github.com/dyike/PromptBench/internal/agents"
	"github.com/dyike/PromptBench/internal/models"
	"github.com/dyike/PromptBench/internal/tools"
)

// 必须包含的关键内容（用于检查完整性）
var requiredSections = map[string][]string{
	consts.ModeQuick: {
		"投资评级",
		"核心逻辑",
		"关键数据",
		"风险",
	},
	consts.ModeDeep: {
		"市场环境",
		"基本面",
		"技术面",
		"资金面",
		"投资建议",
	},
}

type formatCheck struct {
	ok     func(output string) bool
	weight float64
}

// Evaluator scores analyst outputs against the heuristic quality checks.
type Evaluator struct {
	cfg     *config.Config
	toolkit *tools.Toolkit
	results []*models.EvaluationResult
}

func NewEvaluator(cfg *config.Config) *Evaluator {
	return &Evaluator{
		cfg:     cfg,
		toolkit: tools.NewToolkit(cfg),
	}
}

// Results returns everything this evaluator has scored so far.
func (e *Evaluator) Results() []*models.EvaluationResult {
	return e.results
}

// CheckCompleteness returns the fraction of required sections present.
func CheckCompleteness(output, mode string) float64 {
	required, ok := requiredSections[mode]
	if !ok {
		required = requiredSections[consts.ModeQuick]
	}

	found := 0
	for _, section := range required {
		if strings.Contains(output, section) {
			found++
		}
	}
	return float64(found) / float64(len(required))
}

// CheckFormatCompliance returns the weighted sum of satisfied format checks,
// capped at 1.0. Every check is independent and additive.
func CheckFormatCompliance(output, mode string) float64 {
	var checks []formatCheck

	if mode == consts.ModeQuick {
		checks = []formatCheck{
			// 有标题
			{func(s string) bool { return strings.Contains(s, "##") }, 0.2},
			// 有评级
			{func(s string) bool { return strings.Contains(s, "⭐") || strings.Contains(s, "星") }, 0.2},
			// 有表格
			{func(s string) bool { return strings.Contains(s, "|") && strings.Contains(s, "---") }, 0.3},
			// 简洁性（<1500字符）
			{func(s string) bool { return utf8.RuneCountInString(s) < 1500 }, 0.3},
		}
	} else {
		// quick 之外的模式统一按深度报告的格式要求打分
		checks = []formatCheck{
			// 有章节标题
			{func(s string) bool { return strings.Contains(s, "##") }, 0.15},
			// 有评分
			{func(s string) bool { return strings.Contains(s, "评分") || strings.Contains(s, "分") }, 0.2},
			// 有表格
			{func(s string) bool { return strings.Contains(s, "|") }, 0.15},
			// 有操作建议
			{func(s string) bool { return strings.Contains(s, "止盈") || strings.Contains(s, "止损") }, 0.2},
			// 充分性（>800字符）
			{func(s string) bool { return utf8.RuneCountInString(s) > 800 }, 0.3},
		}
	}

	score := 0.0
	for _, check := range checks {
		if check.ok(output) {
			score += check.weight
		}
	}
	if score > 1.0 {
		score = 1.0
	}
	return score
}

// CheckDataAccuracy scores how many ground-truth metrics surface in the
// output. Without ground truth the score is a neutral 0.5. Each key whose
// value string or key name appears earns a partial 0.5.
func CheckDataAccuracy(output string, groundTruth models.GroundTruth) float64 {
	if len(groundTruth) == 0 {
		return 0.5
	}

	correct := 0.0
	for key, trueValue := range groundTruth {
		if strings.Contains(output, fmt.Sprint(trueValue)) || strings.Contains(output, key) {
			correct += 0.5
		}
	}
	return correct / float64(len(groundTruth))
}

// ExtractRecommendation pulls the investment recommendation out of free
// text by keyword priority. The order is load bearing: the five-star and
// four-star checks must run before the single-star sell check.
func ExtractRecommendation(output string) (string, float64) {
	switch {
	case strings.Contains(output, "强烈推荐"),
		strings.Contains(output, "买入"),
		strings.Contains(output, "⭐⭐⭐⭐⭐"):
		return consts.RecommendBuy, 0.8
	case strings.Contains(output, "推荐"),
		strings.Contains(output, "⭐⭐⭐⭐"):
		return consts.RecommendBuy, 0.6
	case strings.Contains(output, "回避"),
		strings.Contains(output, "卖出"),
		strings.Contains(output, "⭐"):
		return consts.RecommendSell, 0.7
	case strings.Contains(output, "中性"),
		strings.Contains(output, "观望"):
		return consts.RecommendHold, 0.5
	default:
		return consts.RecommendHold, 0.5
	}
}

// TestCaseID derives a stable id from ticker, date and prompt version.
func TestCaseID(ticker, date, version string) string {
	sum := md5.Sum([]byte(fmt.Sprintf("%s_%s_%s", ticker, date, version)))
	return fmt.Sprintf("%x", sum)[:8]
}

// estimateTokens approximates token usage: 中文约 2 字符/token.
func estimateTokens(s string) int {
	return utf8.RuneCountInString(s) / 2
}

// RunSingleEvaluation runs one analyst over one test case and scores the
// output. Failures degrade to an empty output; the harness always produces
// a result record.
func (e *Evaluator) RunSingleEvaluation(
	ctx context.Context,
	analyst agents.Analyst,
	ticker, date, version, mode string,
	groundTruth models.GroundTruth,
) *models.EvaluationResult {
	state := models.NewAnalysisState(ticker, date)

	start := time.Now()
	output := e.invokeWithToolFollowUp(ctx, analyst, state)
	responseTimeMs := int(time.Since(start).Milliseconds())

	recommendation, confidence := ExtractRecommendation(output)

	stateJSON, _ := json.Marshal(state)

	result := &models.EvaluationResult{
		TestCaseID:        TestCaseID(ticker, date, version),
		PromptVersion:     version,
		Ticker:            ticker,
		Date:              date,
		CompletenessScore: CheckCompleteness(output, mode),
		FormatCompliance:  CheckFormatCompliance(output, mode),
		DataAccuracy:      CheckDataAccuracy(output, groundTruth),
		InputTokens:       estimateTokens(string(stateJSON)),
		OutputTokens:      estimateTokens(output),
		ResponseTimeMs:    responseTimeMs,
		Recommendation:    recommendation,
		Confidence:        confidence,
	}

	e.results = append(e.results, result)
	return result
}

// invokeWithToolFollowUp calls the analyst and, when the reply carries tool
// calls without a report, executes the tools and calls the analyst again
// with the tool results appended.
func (e *Evaluator) invokeWithToolFollowUp(ctx context.Context, analyst agents.Analyst, state *models.AnalysisState) string {
	result, err := analyst(ctx, state)
	if err != nil {
		log.Printf("分析 %s 失败: %v", state.CompanyOfInterest, err)
		return ""
	}

	output := result.Report()
	if output != "" {
		return output
	}

	last := lastMessage(result.Messages)
	if last == nil || len(last.ToolCalls) == 0 {
		return output
	}

	// 执行工具调用，把结果拼回消息后再次调用分析师
	followUp := &models.AnalysisState{
		CompanyOfInterest: state.CompanyOfInterest,
		CompanyName:       result.CompanyName,
		TradeDate:         state.TradeDate,
		Messages:          append([]*schema.Message{}, result.Messages...),
	}
	for _, tc := range last.ToolCalls {
		content := e.toolkit.Execute(ctx, tc.Function.Name, tc.Function.Arguments)
		followUp.Messages = append(followUp.Messages, schema.ToolMessage(content, tc.ID))
	}

	result, err = analyst(ctx, followUp)
	if err != nil {
		log.Printf("分析 %s 二次调用失败: %v", state.CompanyOfInterest, err)
		return ""
	}

	if output = result.Report(); output != "" {
		return output
	}

	// 还是没有报告时，从消息里提取第一段非空内容
	for i := len(result.Messages) - 1; i >= 0; i-- {
		msg := result.Messages[i]
		if msg.Role == schema.Assistant && msg.Content != "" {
			return msg.Content
		}
	}
	return ""
}

func lastMessage(msgs []*schema.Message) *schema.Message {
	if len(msgs) == 0 {
		return nil
	}
	return msgs[len(msgs)-1]
}

// RunABTest evaluates two analysts over the same test cases and summarizes
// the metric deltas. analystA carries the original prompt, analystB the
// optimized one.
func (e *Evaluator) RunABTest(
	ctx context.Context,
	analystA, analystB agents.Analyst,
	testCases []models.TestCase,
	date, mode string,
) *models.ABTestReport {
	if len(testCases) == 0 {
		testCases = DefaultTestCases
	}
	if date == "" {
		date = time.Now().Format("2006-01-02")
	}

	resultsA := make([]*models.EvaluationResult, 0, len(testCases))
	resultsB := make([]*models.EvaluationResult, 0, len(testCases))

	log.Printf("开始 A/B 测试，共 %d 个测试用例", len(testCases))

	for i, tc := range testCases {
		name := tc.Name
		if name == "" {
			name = tc.Ticker
		}
		log.Printf("[%d/%d] 测试 %s (%s)", i+1, len(testCases), tc.Ticker, name)

		resultA := e.RunSingleEvaluation(ctx, analystA, tc.Ticker, date, consts.VersionOriginal, mode, nil)
		resultsA = append(resultsA, resultA)
		log.Printf("  ├─ 版本 A (原版) 完成 (耗时 %dms)", resultA.ResponseTimeMs)

		resultB := e.RunSingleEvaluation(ctx, analystB, tc.Ticker, date, consts.VersionOptimized, mode, nil)
		resultsB = append(resultsB, resultB)
		log.Printf("  └─ 版本 B (优化版) 完成 (耗时 %dms)", resultB.ResponseTimeMs)
	}

	return &models.ABTestReport{
		Mode:     mode,
		Date:     date,
		ResultsA: resultsA,
		ResultsB: resultsB,
		Summary:  computeSummary(resultsA, resultsB),
	}
}

type metricExtractor struct {
	name string
	get  func(*models.EvaluationResult) float64
}

var summaryMetrics = []metricExtractor{
	{"completeness_score", func(r *models.EvaluationResult) float64 { return r.CompletenessScore }},
	{"format_compliance", func(r *models.EvaluationResult) float64 { return r.FormatCompliance }},
	{"data_accuracy", func(r *models.EvaluationResult) float64 { return r.DataAccuracy }},
	{"output_tokens", func(r *models.EvaluationResult) float64 { return float64(r.OutputTokens) }},
	{"response_time_ms", func(r *models.EvaluationResult) float64 { return float64(r.ResponseTimeMs) }},
}

// computeSummary compares metric means between version A and B. Improvement
// percent is (meanB-meanA)/meanA*100, zero when meanA is zero.
func computeSummary(resultsA, resultsB []*models.EvaluationResult) []models.SummaryRow {
	rows := make([]models.SummaryRow, 0, len(summaryMetrics))
	for _, metric := range summaryMetrics {
		meanA := meanOf(resultsA, metric.get)
		meanB := meanOf(resultsB, metric.get)

		improvement := 0.0
		if meanA != 0 {
			improvement = (meanB - meanA) / meanA * 100
		}

		rows = append(rows, models.SummaryRow{
			Metric:         metric.name,
			MeanA:          meanA,
			MeanB:          meanB,
			ImprovementPct: improvement,
		})
	}
	return rows
}

func meanOf(results []*models.EvaluationResult, get func(*models.EvaluationResult) float64) float64 {
	if len(results) == 0 {
		return 0
	}
	sum := 0.0
	for _, r := range results {
		sum += get(r)
	}
	return sum / float64(len(results))
}
