package cli

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/AlecAivazis/survey/v2"

	"github.com/dyike/PromptBench/config"
	"github.com/dyike/PromptBench/consts"
	"github.com/dyike/PromptBench/internal/display"
	"github.com/dyike/PromptBench/internal/storage"
)

const (
	actionABTest   = "A/B 测试（original vs optimized）"
	actionEvaluate = "单股评估"
	actionScreen   = "市场筛选"
	actionBacktest = "回测已保存的运行"
	actionExit     = "退出"
)

var tickerPattern = regexp.MustCompile(`^[A-Z0-9.\-]+$`)

// runInteractiveMode drives the harness through survey prompts.
func runInteractiveMode(cfg *config.Config) error {
	display.Info("欢迎使用 PromptBench — LLM 股票分析 Prompt 评估工具")

	// 交互会话期间监听配置文件，改动直接生效
	watchCtx, cancelWatch := context.WithCancel(context.Background())
	defer cancelWatch()
	if mgr := config.DefaultManager(); mgr != nil {
		err := mgr.Watch(watchCtx, func(updated config.Config) {
			*cfg = updated
			display.Info("配置文件已变更，新设置已生效")
		})
		if err != nil {
			log.Printf("config watch unavailable: %v", err)
		}
	}

	for {
		action, err := promptForAction()
		if err != nil {
			return err
		}

		switch action {
		case actionABTest:
			mode, err := promptForMode()
			if err != nil {
				return err
			}
			date, err := promptForDate()
			if err != nil {
				return err
			}
			if err := runABTest(cfg, mode, date); err != nil {
				display.Error(err)
			}

		case actionEvaluate:
			ticker, err := promptForTicker()
			if err != nil {
				return err
			}
			mode, err := promptForMode()
			if err != nil {
				return err
			}
			version, err := promptForVersion()
			if err != nil {
				return err
			}
			date, err := promptForDate()
			if err != nil {
				return err
			}
			if err := runEvaluate(cfg, ticker, mode, version, date); err != nil {
				display.Error(err)
			}

		case actionScreen:
			focus, err := promptForFocus()
			if err != nil {
				return err
			}
			date, err := promptForDate()
			if err != nil {
				return err
			}
			if err := runScreen(cfg, focus, date); err != nil {
				display.Error(err)
			}

		case actionBacktest:
			runID, err := promptForRunID(cfg)
			if err != nil {
				return err
			}
			if runID == "" {
				continue
			}
			holdDays, err := promptForHoldDays(cfg)
			if err != nil {
				return err
			}
			if err := runBacktest(cfg, runID, holdDays); err != nil {
				display.Error(err)
			}

		case actionExit:
			fmt.Println("👋 再见！")
			return nil
		}
	}
}

func promptForAction() (string, error) {
	var action string
	prompt := &survey.Select{
		Message: "选择操作:",
		Options: []string{actionABTest, actionEvaluate, actionScreen, actionBacktest, actionExit},
		Default: actionABTest,
	}
	err := survey.AskOne(prompt, &action)
	return action, err
}

// promptForTicker prompts for a stock ticker symbol
func promptForTicker() (string, error) {
	var ticker string
	prompt := &survey.Input{
		Message: "输入股票代码 (如 600519.SH, 000858.SZ, 0700.HK):",
		Help:    "A股请带 .SH/.SZ 后缀，港股带 .HK 后缀",
	}

	err := survey.AskOne(prompt, &ticker, survey.WithValidator(func(val interface{}) error {
		str := strings.TrimSpace(strings.ToUpper(val.(string)))
		if len(str) == 0 {
			return fmt.Errorf("ticker symbol cannot be empty")
		}
		if len(str) > 12 {
			return fmt.Errorf("ticker symbol too long")
		}
		if !tickerPattern.MatchString(str) {
			return fmt.Errorf("invalid ticker format (use letters, numbers, dots, and hyphens only)")
		}
		return nil
	}))
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(strings.ToUpper(ticker)), nil
}

// promptForFocus prompts for an optional screening focus
func promptForFocus() (string, error) {
	var focus string
	prompt := &survey.Input{
		Message: "输入关注的板块或主题（留空为全市场）:",
	}
	if err := survey.AskOne(prompt, &focus); err != nil {
		return "", err
	}
	return strings.TrimSpace(focus), nil
}

// promptForDate prompts for an analysis date, defaulting to today
func promptForDate() (string, error) {
	var dateStr string
	prompt := &survey.Input{
		Message: "输入分析日期 (YYYY-MM-DD):",
		Help:    "直接回车使用今天的日期",
		Default: time.Now().Format("2006-01-02"),
	}

	err := survey.AskOne(prompt, &dateStr, survey.WithValidator(func(val interface{}) error {
		str := strings.TrimSpace(val.(string))
		if str == "" {
			return nil
		}
		parsed, err := time.Parse("2006-01-02", str)
		if err != nil {
			return fmt.Errorf("invalid date format, use YYYY-MM-DD")
		}
		if parsed.After(time.Now().AddDate(0, 0, 1)) {
			return fmt.Errorf("analysis date cannot be in the future")
		}
		return nil
	}))
	if err != nil {
		return "", err
	}

	dateStr = strings.TrimSpace(dateStr)
	if dateStr == "" {
		dateStr = time.Now().Format("2006-01-02")
	}
	return dateStr, nil
}

// promptForMode prompts for the analysis mode
func promptForMode() (string, error) {
	var selected string
	options := []string{
		fmt.Sprintf("%s - 快速评估（300字以内，适合筛选）", consts.ModeQuick),
		fmt.Sprintf("%s - 深度分析（四部分框架，reasoner 模型）", consts.ModeDeep),
	}

	prompt := &survey.Select{
		Message: "选择分析模式:",
		Options: options,
		Default: options[0],
	}

	if err := survey.AskOne(prompt, &selected); err != nil {
		return "", err
	}
	return strings.Split(selected, " -")[0], nil
}

// promptForVersion prompts for the prompt version
func promptForVersion() (string, error) {
	var selected string
	prompt := &survey.Select{
		Message: "选择 Prompt 版本:",
		Options: []string{consts.VersionOriginal, consts.VersionOptimized},
		Default: consts.VersionOptimized,
	}
	err := survey.AskOne(prompt, &selected)
	return selected, err
}

// promptForRunID lists stored runs and lets the user pick one
func promptForRunID(cfg *config.Config) (string, error) {
	store, err := storage.GetStore(cfg)
	if err != nil {
		return "", fmt.Errorf("open store: %w", err)
	}

	runs, err := store.ListRuns(context.Background(), 20)
	if err != nil {
		return "", fmt.Errorf("list runs: %w", err)
	}
	if len(runs) == 0 {
		display.Info("还没有保存的评估运行，先执行一次 A/B 测试")
		return "", nil
	}

	options := make([]string, 0, len(runs))
	for _, run := range runs {
		options = append(options, fmt.Sprintf("%s (%s 模式, %s)", run.ID, run.Mode, run.Date))
	}

	var selected string
	prompt := &survey.Select{
		Message: "选择要回测的运行:",
		Options: options,
	}
	if err := survey.AskOne(prompt, &selected); err != nil {
		return "", err
	}
	return strings.SplitN(selected, " ", 2)[0], nil
}

// promptForHoldDays prompts for the backtest holding period
func promptForHoldDays(cfg *config.Config) (int, error) {
	shortOpt := fmt.Sprintf("%d 个交易日（短持有）", cfg.HoldDaysShort)
	longOpt := fmt.Sprintf("%d 个交易日（长持有）", cfg.HoldDaysLong)

	var selected string
	prompt := &survey.Select{
		Message: "选择持有期:",
		Options: []string{shortOpt, longOpt},
		Default: shortOpt,
	}
	if err := survey.AskOne(prompt, &selected); err != nil {
		return 0, err
	}

	if selected == longOpt {
		return cfg.HoldDaysLong, nil
	}
	return cfg.HoldDaysShort, nil
}
