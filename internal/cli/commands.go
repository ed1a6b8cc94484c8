// Package cli wires the evaluation harness into a cobra command tree.
package cli

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/spf13/cobra"

	"github.com/dyike/PromptBench/config"
	"github.com/dyike/PromptBench/consts"
	"github.com/dyike/PromptBench/internal/agents"
	"github.com/dyike/PromptBench/internal/agents/analysts"
	"github.com/dyike/PromptBench/internal/debug"
	"github.com/dyike/PromptBench/internal/display"
	"github.com/dyike/PromptBench/internal/eval"
	"github.com/dyike/PromptBench/internal/models"
	"github.com/dyike/PromptBench/internal/prompts"
	"github.com/dyike/PromptBench/internal/storage"
	"github.com/dyike/PromptBench/internal/storage/sqlite"
	"github.com/dyike/PromptBench/internal/utils"
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cfg := loadConfig()

	rootCmd := &cobra.Command{
		Use:   "promptbench",
		Short: "PromptBench - LLM 股票分析 Prompt 评估工具",
		Long: `PromptBench 对比不同版本的股票分析 Prompt 的输出质量与回测表现。
支持 A/B 测试、单次评估和推荐回测。`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			if err := cfg.EnsureDirectories(); err != nil {
				return fmt.Errorf("failed to create directories: %w", err)
			}
			return debug.NewEinoDebugger(cfg).Initialize()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInteractiveMode(cfg)
		},
	}

	rootCmd.AddCommand(newABTestCmd(cfg))
	rootCmd.AddCommand(newEvaluateCmd(cfg))
	rootCmd.AddCommand(newScreenCmd(cfg))
	rootCmd.AddCommand(newBacktestCmd(cfg))
	rootCmd.AddCommand(newConfigCmd(cfg))
	rootCmd.AddCommand(newVersionCmd())

	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug mode")

	return rootCmd
}

// loadConfig obtains the runtime config through the manager, so every run
// shares one config file and interactive mode can hot reload it. Env-seeded
// defaults create the file on first run.
func loadConfig() *config.Config {
	mgr, err := config.NewManager(config.WithInitialConfig(config.DefaultConfig()))
	if err != nil {
		log.Printf("config manager unavailable, falling back to defaults: %v", err)
		return config.DefaultConfig()
	}
	config.SetDefaultManager(mgr)

	cfg := mgr.Get()
	return &cfg
}

// newABTestCmd creates the abtest command
func newABTestCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "abtest",
		Short: "对比 original 与 optimized 两个 Prompt 版本",
		Long: `在默认的十只 A 股测试用例上分别运行 original 和 optimized 版本的
分析师，对比完整性、格式合规、数据准确性、Token 用量和响应时间。
Example: promptbench abtest --mode=quick --date=2024-03-15`,
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, _ := cmd.Flags().GetString("mode")
			date, _ := cmd.Flags().GetString("date")
			return runABTest(cfg, mode, date)
		},
	}

	cmd.Flags().String("mode", consts.ModeQuick, "分析模式: quick 或 deep")
	cmd.Flags().String("date", "", "分析日期 YYYY-MM-DD（默认今天）")

	return cmd
}

// newEvaluateCmd creates the evaluate command
func newEvaluateCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "evaluate [SYMBOL]",
		Short: "对单只股票运行一次 Prompt 评估",
		Long: `用指定版本的 Prompt 分析一只股票并打分。
Example: promptbench evaluate 600519.SH --mode=quick --version=optimized`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, _ := cmd.Flags().GetString("mode")
			version, _ := cmd.Flags().GetString("version")
			date, _ := cmd.Flags().GetString("date")
			return runEvaluate(cfg, args[0], mode, version, date)
		},
	}

	cmd.Flags().String("mode", consts.ModeQuick, "分析模式: quick 或 deep")
	cmd.Flags().String("version", consts.VersionOptimized, "Prompt 版本: original 或 optimized")
	cmd.Flags().String("date", "", "分析日期 YYYY-MM-DD（默认今天）")

	return cmd
}

// newScreenCmd creates the screen command
func newScreenCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "screen",
		Short: "用筛选器 Prompt 生成候选股票清单",
		Long: `运行股票筛选器，基于市场概览给出带评级的候选清单。
Example: promptbench screen --focus=消费 --date=2024-03-15`,
		RunE: func(cmd *cobra.Command, args []string) error {
			focus, _ := cmd.Flags().GetString("focus")
			date, _ := cmd.Flags().GetString("date")
			return runScreen(cfg, focus, date)
		},
	}

	cmd.Flags().String("focus", "", "关注的板块或主题（默认全市场）")
	cmd.Flags().String("date", "", "分析日期 YYYY-MM-DD（默认今天）")

	return cmd
}

// newBacktestCmd creates the backtest command
func newBacktestCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backtest [RUN_ID]",
		Short: "回测一次评估运行中的投资建议",
		Long: `加载一次已保存的评估运行，按持有期计算每条建议的实际收益和策略
收益。不带 RUN_ID 时列出最近的运行。
Example: promptbench backtest 20240315-quick-1710000000 --hold-days=5`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return listRuns(cfg)
			}
			holdDays, _ := cmd.Flags().GetInt("hold-days")
			return runBacktest(cfg, args[0], holdDays)
		},
	}

	cmd.Flags().Int("hold-days", 0, "持有交易日数（默认取配置的短持有期）")

	return cmd
}

// newVersionCmd creates the version command
func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("PromptBench v1.0.0")
			fmt.Println("LLM Stock-Analysis Prompt Evaluation Harness")
		},
	}
}

// newConfigCmd creates the config command
func newConfigCmd(cfg *config.Config) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
		Long:  "Manage PromptBench configuration settings",
	}

	configCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Run: func(cmd *cobra.Command, args []string) {
			showConfig(cfg)
		},
	})

	configCmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate configuration and dependencies",
		RunE: func(cmd *cobra.Command, args []string) error {
			return validateConfig(cfg)
		},
	})

	return configCmd
}

// buildAnalystPair compiles the original and optimized analysts for a mode.
func buildAnalystPair(ctx context.Context, cfg *config.Config, mode string) (agents.Analyst, agents.Analyst, error) {
	graphA := analysts.NewChinaMarketAnalystWithPrompt(ctx, cfg, mode,
		prompts.ForVersion(consts.VersionOriginal, mode))
	analystA, err := agents.CompileAnalyst(ctx, "china_market_analyst_original", graphA)
	if err != nil {
		return nil, nil, err
	}

	graphB := analysts.NewChinaMarketAnalystWithPrompt(ctx, cfg, mode,
		prompts.ForVersion(consts.VersionOptimized, mode))
	analystB, err := agents.CompileAnalyst(ctx, "china_market_analyst_optimized", graphB)
	if err != nil {
		return nil, nil, err
	}

	return analystA, analystB, nil
}

// runABTest executes the full A/B workflow: evaluate, display, persist, export.
func runABTest(cfg *config.Config, mode, date string) error {
	if err := prompts.Validate(mode); err != nil {
		return err
	}
	if date == "" {
		date = time.Now().Format("2006-01-02")
	}
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return fmt.Errorf("invalid date format, use YYYY-MM-DD: %w", err)
	}

	ctx := context.Background()

	display.Info(fmt.Sprintf("开始 %s 模式 A/B 测试 (%s)", mode, date))

	analystA, analystB, err := buildAnalystPair(ctx, cfg, mode)
	if err != nil {
		return fmt.Errorf("build analysts: %w", err)
	}

	evaluator := eval.NewEvaluator(cfg)
	report := evaluator.RunABTest(ctx, analystA, analystB, nil, date, mode)

	display.ShowABTestReport(report)
	display.ShowResults("original", report.ResultsA)
	display.ShowResults("optimized", report.ResultsB)

	runID, err := persistRun(ctx, cfg, report)
	if err != nil {
		display.Error(fmt.Errorf("保存评估结果失败: %w", err))
	} else {
		display.Success(fmt.Sprintf("评估结果已保存，运行 ID: %s", runID))
	}

	exportReport(cfg, exportFileID(runID, report), report)
	return nil
}

// exportFileID names exported artifacts. When the run could not be
// persisted there is no run id, so the date and mode stand in.
func exportFileID(runID string, report *models.ABTestReport) string {
	if runID != "" {
		return runID
	}
	return fmt.Sprintf("%s-%s", report.Date, report.Mode)
}

// runEvaluate scores one ticker with one prompt version.
func runEvaluate(cfg *config.Config, ticker, mode, version, date string) error {
	if err := prompts.Validate(mode); err != nil {
		return err
	}
	if version != consts.VersionOriginal && version != consts.VersionOptimized {
		return fmt.Errorf("unknown prompt version: %s", version)
	}
	if date == "" {
		date = time.Now().Format("2006-01-02")
	}

	ctx := context.Background()

	graph := analysts.NewChinaMarketAnalystWithPrompt(ctx, cfg, mode, prompts.ForVersion(version, mode))
	analyst, err := agents.CompileAnalyst(ctx, "china_market_analyst_"+version, graph)
	if err != nil {
		return fmt.Errorf("build analyst: %w", err)
	}

	evaluator := eval.NewEvaluator(cfg)
	result := evaluator.RunSingleEvaluation(ctx, analyst, ticker, date, version, mode, nil)

	display.ShowResults(version, []*models.EvaluationResult{result})
	return nil
}

// runScreen generates a screening report for the date.
func runScreen(cfg *config.Config, focus, date string) error {
	if date == "" {
		date = time.Now().Format("2006-01-02")
	}
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return fmt.Errorf("invalid date format, use YYYY-MM-DD: %w", err)
	}

	ctx := context.Background()

	graph := analysts.NewStockScreener(ctx, cfg)
	screener, err := agents.CompileAnalyst(ctx, "stock_screener", graph)
	if err != nil {
		return fmt.Errorf("build screener: %w", err)
	}

	request := "请筛选当前市场中值得关注的股票"
	if focus != "" {
		request = fmt.Sprintf("请筛选 %s 板块中值得关注的股票", focus)
	}
	state := &models.AnalysisState{
		Messages:  []*schema.Message{schema.UserMessage(request)},
		TradeDate: date,
	}

	display.Info(fmt.Sprintf("开始筛选 (%s)", date))
	out, err := screener(ctx, state)
	if err != nil {
		return fmt.Errorf("screener run: %w", err)
	}
	if out == nil || out.ScreeningReport == "" {
		return fmt.Errorf("screener produced no report")
	}

	fmt.Println(out.ScreeningReport)

	fileName := fmt.Sprintf("screening_%s.md", date)
	if err := utils.WriteMarkdown(cfg.ResultsDir, fileName, out.ScreeningReport); err != nil {
		display.Error(fmt.Errorf("导出筛选报告失败: %w", err))
	}
	return nil
}

// runBacktest enriches a stored run with realized returns.
func runBacktest(cfg *config.Config, runID string, holdDays int) error {
	if holdDays <= 0 {
		holdDays = cfg.HoldDaysShort
	}

	ctx := context.Background()

	store, err := storage.GetStore(cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}

	results, err := store.ListResults(ctx, runID)
	if err != nil {
		return fmt.Errorf("load run %s: %w", runID, err)
	}
	if len(results) == 0 {
		return fmt.Errorf("run %s has no results", runID)
	}

	display.Info(fmt.Sprintf("回测 %d 条建议，持有 %d 个交易日", len(results), holdDays))

	backtest := eval.NewBacktestEvaluator(cfg)
	records, summaries := backtest.EvaluateRecommendations(ctx, results, holdDays)

	display.ShowBacktestRecords(records)
	display.ShowBacktestSummary(holdDays, summaries)

	// 回写实际收益，后续可换持有期再次回测
	if err := store.SaveResults(ctx, runID, results); err != nil {
		display.Error(fmt.Errorf("回写收益失败: %w", err))
	}

	content := utils.RenderBacktestMarkdown(holdDays, records, summaries)
	fileName := fmt.Sprintf("backtest_%s_%dd.md", runID, holdDays)
	if err := utils.WriteMarkdown(cfg.ResultsDir, fileName, content); err != nil {
		display.Error(fmt.Errorf("导出回测报告失败: %w", err))
	}

	return nil
}

// listRuns prints the most recent stored evaluation runs.
func listRuns(cfg *config.Config) error {
	store, err := storage.GetStore(cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}

	runs, err := store.ListRuns(context.Background(), 20)
	if err != nil {
		return fmt.Errorf("list runs: %w", err)
	}
	if len(runs) == 0 {
		display.Info("还没有保存的评估运行，先执行 promptbench abtest")
		return nil
	}

	fmt.Println("最近的评估运行:")
	for _, run := range runs {
		fmt.Printf("  %s  (%s 模式, %s)\n", run.ID, run.Mode, run.Date)
	}
	return nil
}

// persistRun stores all results of one A/B run and returns the run id.
func persistRun(ctx context.Context, cfg *config.Config, report *models.ABTestReport) (string, error) {
	store, err := storage.GetStore(cfg)
	if err != nil {
		return "", err
	}

	runID := fmt.Sprintf("%s-%s-%d", report.Date, report.Mode, time.Now().Unix())
	if err := store.CreateRun(ctx, sqlite.RunRecord{ID: runID, Mode: report.Mode, Date: report.Date}); err != nil {
		return "", err
	}

	if err := store.SaveResults(ctx, runID, report.ResultsA); err != nil {
		return runID, err
	}
	if err := store.SaveResults(ctx, runID, report.ResultsB); err != nil {
		return runID, err
	}
	return runID, nil
}

// exportReport writes the markdown and CSV artifacts of one A/B run.
func exportReport(cfg *config.Config, runID string, report *models.ABTestReport) {
	content := utils.RenderABTestMarkdown(report)
	mdName := fmt.Sprintf("abtest_%s.md", runID)
	if err := utils.WriteMarkdown(cfg.ResultsDir, mdName, content); err != nil {
		display.Error(fmt.Errorf("导出 Markdown 报告失败: %w", err))
	}

	all := append(append([]*models.EvaluationResult{}, report.ResultsA...), report.ResultsB...)
	csvName := fmt.Sprintf("abtest_%s.csv", runID)
	if path, err := utils.WriteResultsToCSV(cfg.ResultsDir, csvName, all); err != nil {
		display.Error(fmt.Errorf("导出 CSV 失败: %w", err))
	} else {
		display.Success(fmt.Sprintf("结果已导出: %s", path))
	}
}

// showConfig displays the current configuration
func showConfig(cfg *config.Config) {
	fmt.Println("📋 Current PromptBench Configuration:")
	fmt.Println("═══════════════════════════════════════")
	fmt.Printf("Project Directory:    %s\n", cfg.ProjectDir)
	fmt.Printf("Results Directory:    %s\n", cfg.ResultsDir)
	fmt.Printf("Data Directory:       %s\n", cfg.DataDir)
	fmt.Printf("Cache Directory:      %s\n", cfg.DataCacheDir)
	fmt.Println()
	fmt.Printf("LLM Provider:         %s\n", cfg.LLMProvider)
	fmt.Printf("Deep Think Model:     %s\n", cfg.DeepThinkLLM)
	fmt.Printf("Quick Think Model:    %s\n", cfg.QuickThinkLLM)
	fmt.Printf("Backend URL:          %s\n", cfg.BackendURL)
	fmt.Println()
	fmt.Printf("Max Agent Steps:      %d\n", cfg.MaxAgentSteps)
	fmt.Printf("Hold Days (short):    %d\n", cfg.HoldDaysShort)
	fmt.Printf("Hold Days (long):     %d\n", cfg.HoldDaysLong)
	fmt.Println()
	fmt.Printf("Online Tools:         %t\n", cfg.OnlineTools)
	fmt.Printf("Cache Enabled:        %t\n", cfg.CacheEnabled)
	fmt.Printf("Debug Mode:           %t\n", cfg.Debug)
	fmt.Printf("Eino Debug:           %t\n", cfg.EinoDebugEnabled)
	if cfg.EinoDebugEnabled {
		fmt.Printf("Eino Debug Port:      %d\n", cfg.EinoDebugPort)
	}
	fmt.Println()

	fmt.Println("🔌 API Configuration:")
	fmt.Println("─────────────────────")
	if cfg.DeepSeekAPIKey != "" {
		fmt.Println("DeepSeek API:         ✅ Configured")
	} else {
		fmt.Println("DeepSeek API:         ❌ Not configured")
	}
	if cfg.LongportAppKey != "" && cfg.LongportAppSecret != "" && cfg.LongportAccessToken != "" {
		fmt.Println("Longport API:         ✅ Configured")
	} else {
		fmt.Println("Longport API:         ❌ Not configured")
	}
}

// validateConfig validates the configuration and dependencies
func validateConfig(cfg *config.Config) error {
	fmt.Println("🔍 Validating PromptBench Configuration...")
	fmt.Println("═══════════════════════════════════════")

	fmt.Print("📁 Checking directories... ")
	if err := cfg.EnsureDirectories(); err != nil {
		fmt.Println("❌")
		return fmt.Errorf("directory validation failed: %w", err)
	}
	fmt.Println("✅")

	fmt.Print("⚙️  Checking configuration values... ")
	if err := cfg.Validate(); err != nil {
		fmt.Println("❌")
		return err
	}
	fmt.Println("✅")

	fmt.Print("🔑 Checking API keys... ")
	warnings := []string{}
	if cfg.DeepSeekAPIKey == "" {
		warnings = append(warnings, "DeepSeek API key not configured; evaluation runs will fail")
	}
	if cfg.LongportAppKey == "" || cfg.LongportAppSecret == "" || cfg.LongportAccessToken == "" {
		warnings = append(warnings, "Longport credentials not configured; HK data and CN name lookup degrade")
	}

	if len(warnings) > 0 {
		fmt.Println("⚠️")
		for _, warning := range warnings {
			fmt.Printf("  ⚠️  %s\n", warning)
		}
	} else {
		fmt.Println("✅")
	}

	fmt.Println()
	if len(warnings) == 0 {
		fmt.Println("✅ Configuration validation completed successfully!")
	} else {
		fmt.Printf("⚠️  Configuration validation completed with %d warnings.\n", len(warnings))
	}

	fmt.Println()
	fmt.Println("💡 Tips:")
	fmt.Println("  • Set DEEPSEEK_API_KEY for model access")
	fmt.Println("  • Set LONGPORT_APP_KEY / LONGPORT_APP_SECRET / LONGPORT_ACCESS_TOKEN for market data")
	fmt.Println("  • Use 'promptbench abtest' to run your first comparison")

	return nil
}
