package utils

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dyike/PromptBench/internal/models"
)

// RenderABTestMarkdown formats one A/B run as a markdown report.
func RenderABTestMarkdown(report *models.ABTestReport) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Prompt A/B 测试报告\n\n")
	fmt.Fprintf(&b, "- 模式: %s\n", report.Mode)
	fmt.Fprintf(&b, "- 日期: %s\n", report.Date)
	fmt.Fprintf(&b, "- 用例数: %d\n", len(report.ResultsA))
	fmt.Fprintf(&b, "- 生成时间: %s\n\n", time.Now().Format("2006-01-02 15:04:05"))

	b.WriteString("## 指标对比\n\n")
	b.WriteString("| 指标 | 版本 A (original) | 版本 B (optimized) | 变化 |\n")
	b.WriteString("|------|------------------|--------------------|------|\n")
	for _, row := range report.Summary {
		fmt.Fprintf(&b, "| %s | %.3f | %.3f | %+.1f%% |\n",
			row.Metric, row.MeanA, row.MeanB, row.ImprovementPct)
	}

	b.WriteString("\n## 逐用例结果\n\n")
	writeResultTable(&b, "版本 A (original)", report.ResultsA)
	writeResultTable(&b, "版本 B (optimized)", report.ResultsB)

	return b.String()
}

func writeResultTable(b *strings.Builder, title string, results []*models.EvaluationResult) {
	fmt.Fprintf(b, "### %s\n\n", title)
	b.WriteString("| 股票 | 建议 | 完整性 | 格式 | 准确性 | Tokens | 耗时(ms) |\n")
	b.WriteString("|------|------|--------|------|--------|--------|----------|\n")
	for _, r := range results {
		fmt.Fprintf(b, "| %s | %s | %.2f | %.2f | %.2f | %d | %d |\n",
			r.Ticker, r.Recommendation,
			r.CompletenessScore, r.FormatCompliance, r.DataAccuracy,
			r.OutputTokens, r.ResponseTimeMs)
	}
	b.WriteString("\n")
}

// RenderBacktestMarkdown formats backtest records and summaries as markdown.
func RenderBacktestMarkdown(holdDays int, records []*models.BacktestRecord, summaries []*models.BacktestSummary) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# 回测报告（持有 %d 个交易日）\n\n", holdDays)
	fmt.Fprintf(&b, "- 生成时间: %s\n\n", time.Now().Format("2006-01-02 15:04:05"))

	b.WriteString("## 各版本汇总\n\n")
	b.WriteString("| 版本 | 样本 | 策略均值 | 策略波动 | 实际均值 | 胜率 |\n")
	b.WriteString("|------|------|----------|----------|----------|------|\n")
	for _, s := range summaries {
		fmt.Fprintf(&b, "| %s | %d | %+.2f%% | %.4f | %+.2f%% | %.1f%% |\n",
			s.PromptVersion, s.Count,
			s.MeanStrategy*100, s.StdStrategy,
			s.MeanActualReturn*100, s.WinRate*100)
	}

	b.WriteString("\n## 逐笔记录\n\n")
	b.WriteString("| 股票 | 日期 | 版本 | 建议 | 实际收益 | 策略收益 |\n")
	b.WriteString("|------|------|------|------|----------|----------|\n")
	for _, rec := range records {
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %+.2f%% | %+.2f%% |\n",
			rec.Ticker, rec.Date, rec.PromptVersion, rec.Recommendation,
			rec.ActualReturn*100, rec.StrategyReturn*100)
	}

	return b.String()
}

// WriteResultsToCSV 将评估结果写入CSV文件
func WriteResultsToCSV(basePath, fileName string, results []*models.EvaluationResult) (string, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return "", fmt.Errorf("failed to create directory %s: %v", basePath, err)
	}

	filePath := filepath.Join(basePath, fileName)
	file, err := os.Create(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to create CSV file: %v", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	headers := []string{
		"test_case_id", "prompt_version", "ticker", "date",
		"completeness_score", "format_compliance", "data_accuracy",
		"input_tokens", "output_tokens", "response_time_ms",
		"recommendation", "confidence", "actual_return_5d", "actual_return_10d",
	}
	if err := writer.Write(headers); err != nil {
		return "", fmt.Errorf("failed to write headers: %v", err)
	}

	for _, r := range results {
		row := []string{
			r.TestCaseID,
			r.PromptVersion,
			r.Ticker,
			r.Date,
			strconv.FormatFloat(r.CompletenessScore, 'f', 4, 64),
			strconv.FormatFloat(r.FormatCompliance, 'f', 4, 64),
			strconv.FormatFloat(r.DataAccuracy, 'f', 4, 64),
			strconv.Itoa(r.InputTokens),
			strconv.Itoa(r.OutputTokens),
			strconv.Itoa(r.ResponseTimeMs),
			r.Recommendation,
			strconv.FormatFloat(r.Confidence, 'f', 2, 64),
			optionalFloat(r.ActualReturn5d),
			optionalFloat(r.ActualReturn10d),
		}
		if err := writer.Write(row); err != nil {
			return "", fmt.Errorf("failed to write row: %v", err)
		}
	}

	return filePath, nil
}

func optionalFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', 6, 64)
}
