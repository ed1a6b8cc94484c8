// Package display renders A/B and backtest reports to the terminal.
package display

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/dyike/PromptBench/internal/models"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7C3AED")).
			Padding(0, 1)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#3B82F6"))

	tableStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#3B82F6")).
			Padding(0, 1)

	improvedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981")).
			Bold(true)

	regressedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#EF4444")).
			Bold(true)

	neutralStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6B7280"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#EF4444")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981"))

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#3B82F6"))
)

// 质量指标越高越好，效率指标越低越好
var lowerIsBetter = map[string]bool{
	"output_tokens":    true,
	"response_time_ms": true,
}

// ShowABTestReport renders the per-metric comparison table of one A/B run.
func ShowABTestReport(report *models.ABTestReport) {
	fmt.Println()
	fmt.Println(titleStyle.Render(fmt.Sprintf("📊 Prompt A/B 测试报告 — %s 模式 (%s)", report.Mode, report.Date)))
	fmt.Println(neutralStyle.Render(fmt.Sprintf("   版本 A: original (%d 个用例) | 版本 B: optimized (%d 个用例)",
		len(report.ResultsA), len(report.ResultsB))))

	var b strings.Builder
	fmt.Fprintf(&b, "%-20s %12s %12s %12s\n", "指标", "版本 A", "版本 B", "变化")
	b.WriteString(strings.Repeat("─", 60) + "\n")

	for _, row := range report.Summary {
		fmt.Fprintf(&b, "%-20s %12s %12s %12s\n",
			row.Metric,
			formatMetric(row.Metric, row.MeanA),
			formatMetric(row.Metric, row.MeanB),
			styleImprovement(row))
	}

	fmt.Println(tableStyle.Render(strings.TrimRight(b.String(), "\n")))
	fmt.Println()
}

// ShowResults renders the per-case result rows of one version.
func ShowResults(version string, results []*models.EvaluationResult) {
	fmt.Println(headerStyle.Render(fmt.Sprintf("📋 %s 版本结果", version)))

	var b strings.Builder
	fmt.Fprintf(&b, "%-12s %-10s %8s %8s %8s %8s %10s\n",
		"股票", "建议", "完整性", "格式", "准确性", "Tokens", "耗时(ms)")
	b.WriteString(strings.Repeat("─", 72) + "\n")

	for _, r := range results {
		fmt.Fprintf(&b, "%-12s %-10s %8.2f %8.2f %8.2f %8d %10d\n",
			r.Ticker, r.Recommendation,
			r.CompletenessScore, r.FormatCompliance, r.DataAccuracy,
			r.OutputTokens, r.ResponseTimeMs)
	}

	fmt.Println(tableStyle.Render(strings.TrimRight(b.String(), "\n")))
}

// ShowBacktestSummary renders the per-version strategy performance table.
func ShowBacktestSummary(holdDays int, summaries []*models.BacktestSummary) {
	fmt.Println()
	fmt.Println(titleStyle.Render(fmt.Sprintf("📈 回测摘要 — 持有 %d 个交易日", holdDays)))

	var b strings.Builder
	fmt.Fprintf(&b, "%-12s %6s %12s %12s %12s %8s\n",
		"版本", "样本", "策略均值", "策略波动", "实际均值", "胜率")
	b.WriteString(strings.Repeat("─", 68) + "\n")

	for _, s := range summaries {
		fmt.Fprintf(&b, "%-12s %6d %12s %12.4f %12s %7.1f%%\n",
			s.PromptVersion, s.Count,
			signedPct(s.MeanStrategy), s.StdStrategy,
			signedPct(s.MeanActualReturn), s.WinRate*100)
	}

	fmt.Println(tableStyle.Render(strings.TrimRight(b.String(), "\n")))
	fmt.Println()
}

// ShowBacktestRecords renders the individual recommendation outcomes.
func ShowBacktestRecords(records []*models.BacktestRecord) {
	var b strings.Builder
	fmt.Fprintf(&b, "%-12s %-11s %-10s %10s %10s\n",
		"股票", "版本", "建议", "实际收益", "策略收益")
	b.WriteString(strings.Repeat("─", 58) + "\n")

	for _, rec := range records {
		fmt.Fprintf(&b, "%-12s %-11s %-10s %10s %10s\n",
			rec.Ticker, rec.PromptVersion, rec.Recommendation,
			signedPct(rec.ActualReturn), signedPct(rec.StrategyReturn))
	}

	fmt.Println(tableStyle.Render(strings.TrimRight(b.String(), "\n")))
}

// Error shows a formatted error message.
func Error(err error) {
	fmt.Println(errorStyle.Render(fmt.Sprintf("❌ %v", err)))
}

// Success shows a formatted success message.
func Success(message string) {
	fmt.Println(successStyle.Render(fmt.Sprintf("✅ %s", message)))
}

// Info shows a formatted info message.
func Info(message string) {
	fmt.Println(infoStyle.Render(fmt.Sprintf("ℹ️  %s", message)))
}

func formatMetric(metric string, v float64) string {
	switch metric {
	case "output_tokens":
		return fmt.Sprintf("%.0f", v)
	case "response_time_ms":
		return fmt.Sprintf("%.0fms", v)
	default:
		return fmt.Sprintf("%.3f", v)
	}
}

func styleImprovement(row models.SummaryRow) string {
	text := fmt.Sprintf("%+.1f%%", row.ImprovementPct)
	if row.ImprovementPct == 0 {
		return neutralStyle.Render(text)
	}

	better := row.ImprovementPct > 0
	if lowerIsBetter[row.Metric] {
		better = !better
	}
	if better {
		return improvedStyle.Render(text)
	}
	return regressedStyle.Render(text)
}

func signedPct(v float64) string {
	return fmt.Sprintf("%+.2f%%", v*100)
}
