package tools

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/cloudwego/eino/components/tool"

	"github.com/dyike/PromptBench/config"
)

// Toolkit bundles the analyst tools and supports invocation by name, which
// the evaluator needs when it replays tool calls from a model response.
type Toolkit struct {
	cfg   *config.Config
	tools map[string]tool.BaseTool
	order []string
}

func NewToolkit(cfg *config.Config) *Toolkit {
	tk := &Toolkit{
		cfg:   cfg,
		tools: make(map[string]tool.BaseTool),
	}
	tk.register(ToolChinaStockData, NewChinaStockDataTool(cfg))
	tk.register(ToolChinaMarketOverview, NewChinaMarketOverviewTool(cfg))
	tk.register(ToolYFinData, NewYFinDataTool(cfg))
	return tk
}

func (tk *Toolkit) register(name string, t tool.BaseTool) {
	tk.tools[name] = t
	tk.order = append(tk.order, name)
}

// AnalystTools is the full trio bound to the market analyst.
func (tk *Toolkit) AnalystTools() []tool.BaseTool {
	return []tool.BaseTool{
		tk.tools[ToolChinaStockData],
		tk.tools[ToolChinaMarketOverview],
		tk.tools[ToolYFinData],
	}
}

// ScreenerTools is the narrower set bound to the stock screener.
func (tk *Toolkit) ScreenerTools() []tool.BaseTool {
	return []tool.BaseTool{
		tk.tools[ToolChinaMarketOverview],
	}
}

// Execute runs a tool by name with JSON-encoded arguments and returns its
// textual result, truncated to the configured limit. Failures are folded
// into the returned string so a bad tool call never aborts an evaluation.
func (tk *Toolkit) Execute(ctx context.Context, name, argumentsJSON string) string {
	t, ok := tk.tools[name]
	if !ok {
		return fmt.Sprintf("未知工具: %s", name)
	}

	invokable, ok := t.(tool.InvokableTool)
	if !ok {
		return fmt.Sprintf("工具 %s 不支持直接调用", name)
	}

	result, err := invokable.InvokableRun(ctx, argumentsJSON)
	if err != nil {
		log.Printf("Tool %s failed: %v", name, err)
		return fmt.Sprintf("工具调用失败: %v", err)
	}

	limit := tk.cfg.MaxToolResultChars
	if limit > 0 {
		runes := []rune(result)
		if len(runes) > limit {
			result = string(runes[:limit])
		}
	}
	return result
}

// Names returns the registered tool names joined for prompt rendering.
func Names(ts []tool.BaseTool) string {
	names := make([]string, 0, len(ts))
	for _, t := range ts {
		info, err := t.Info(context.Background())
		if err != nil || info == nil {
			names = append(names, fmt.Sprintf("%T", t))
			continue
		}
		names = append(names, info.Name)
	}
	return strings.Join(names, ", ")
}
