package models

// EvaluationResult is a single scored run of one analyst over one test case.
type EvaluationResult struct {
	TestCaseID    string `json:"test_case_id"`
	PromptVersion string `json:"prompt_version"`
	Ticker        string `json:"ticker"`
	Date          string `json:"date"`

	// 质量指标 (0-1)
	CompletenessScore float64 `json:"completeness_score"`
	FormatCompliance  float64 `json:"format_compliance"`
	DataAccuracy      float64 `json:"data_accuracy"`

	// 效率指标
	InputTokens    int `json:"input_tokens"`
	OutputTokens   int `json:"output_tokens"`
	ResponseTimeMs int `json:"response_time_ms"`

	// 决策指标
	Recommendation string  `json:"recommendation"`
	Confidence     float64 `json:"confidence"`

	// 实际结果（回测时填充）
	ActualReturn5d  *float64 `json:"actual_return_5d,omitempty"`
	ActualReturn10d *float64 `json:"actual_return_10d,omitempty"`
}

// TestCase identifies one stock in the evaluation set.
type TestCase struct {
	Ticker string `json:"ticker"`
	Name   string `json:"name"`
	Type   string `json:"type"`
}

// GroundTruth maps metric names to externally supplied reference values.
type GroundTruth map[string]interface{}

// SummaryRow compares the mean of one metric between prompt versions A and B.
type SummaryRow struct {
	Metric         string  `json:"metric"`
	MeanA          float64 `json:"mean_a"`
	MeanB          float64 `json:"mean_b"`
	ImprovementPct float64 `json:"improvement_pct"`
}

// ABTestReport bundles the per-case results and the metric summary of one A/B run.
type ABTestReport struct {
	Mode     string              `json:"mode"`
	Date     string              `json:"date"`
	ResultsA []*EvaluationResult `json:"results_a"`
	ResultsB []*EvaluationResult `json:"results_b"`
	Summary  []SummaryRow        `json:"summary"`
}

// BacktestRecord is one recommendation paired with its realized outcome.
type BacktestRecord struct {
	Ticker         string  `json:"ticker"`
	Date           string  `json:"date"`
	Recommendation string  `json:"recommendation"`
	Confidence     float64 `json:"confidence"`
	ActualReturn   float64 `json:"actual_return"`
	StrategyReturn float64 `json:"strategy_return"`
	PromptVersion  string  `json:"prompt_version"`
}

// BacktestSummary aggregates strategy performance for one prompt version.
type BacktestSummary struct {
	PromptVersion    string  `json:"prompt_version"`
	Count            int     `json:"count"`
	MeanStrategy     float64 `json:"mean_strategy_return"`
	StdStrategy      float64 `json:"std_strategy_return"`
	MeanActualReturn float64 `json:"mean_actual_return"`
	WinRate          float64 `json:"win_rate"`
}
