package analysts

import (
	"context"
	"log"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/flow/agent/react"
	"github.com/cloudwego/eino/schema"

	"github.com/dyike/PromptBench/config"
	"github.com/dyike/PromptBench/consts"
	"github.com/dyike/PromptBench/internal/agents"
	"github.com/dyike/PromptBench/internal/dataflows"
	"github.com/dyike/PromptBench/internal/models"
	"github.com/dyike/PromptBench/internal/prompts"
	"github.com/dyike/PromptBench/internal/tools"
)

// NewChinaMarketAnalyst builds the analyst graph for a mode:
// init -> load -> agent -> router. The graph carries an AnalysisState as
// local state; init copies the caller's state in, router writes the report
// back out.
func NewChinaMarketAnalyst(ctx context.Context, cfg *config.Config, mode string) *compose.Graph[*models.AnalysisState, *models.AnalysisState] {
	return NewChinaMarketAnalystWithPrompt(ctx, cfg, mode, prompts.ForMode(mode))
}

// NewChinaMarketAnalystWithPrompt builds the same graph with an explicit
// system prompt body, so A/B runs can pit prompt versions against each
// other within one mode.
func NewChinaMarketAnalystWithPrompt(ctx context.Context, cfg *config.Config, mode, systemPrompt string) *compose.Graph[*models.AnalysisState, *models.AnalysisState] {
	g := compose.NewGraph[*models.AnalysisState, *models.AnalysisState](
		compose.WithGenLocalState(func(ctx context.Context) *models.AnalysisState {
			return &models.AnalysisState{}
		}),
	)

	toolkit := tools.NewToolkit(cfg)
	analystTools := toolkit.AnalystTools()

	chatModel, err := agents.NewChatModelForMode(ctx, cfg, mode)
	if err != nil {
		log.Fatalf("failed to create chat model for mode %s: %v", mode, err)
	}

	agent, err := react.NewAgent(ctx, &react.AgentConfig{
		MaxStep:          cfg.MaxAgentSteps,
		ToolCallingModel: chatModel,
		ToolsConfig: compose.ToolsNodeConfig{
			Tools: analystTools,
		},
		StreamToolCallChecker: agents.ToolCallChecker,
	})
	if err != nil {
		log.Fatalf("failed to create agent: %v", err)
	}
	agentLambda, err := compose.AnyLambda(agent.Generate, agent.Stream, nil, nil)
	if err != nil {
		log.Fatalf("failed to create agent lambda: %v", err)
	}

	resolver := dataflows.NewStockInfoResolver(cfg)
	toolNames := tools.Names(analystTools)

	loadMsg := func(ctx context.Context, name string, opts ...any) ([]*schema.Message, error) {
		var (
			output []*schema.Message
			err    error
		)
		err = compose.ProcessState[*models.AnalysisState](ctx, func(_ context.Context, state *models.AnalysisState) error {
			if state.CompanyName == "" {
				state.CompanyName = resolver.Info(ctx, state.CompanyOfInterest).Name
			}
			log.Printf("[%s] 分析标的: %s (%s)", prompts.AnalystName(mode), state.CompanyOfInterest, state.CompanyName)

			promptTemp := prompt.FromMessages(schema.FString,
				schema.SystemMessage(prompts.AnalystSystemTemplate),
				schema.MessagesPlaceholder("user_input", true),
			)
			output, err = promptTemp.Format(ctx, map[string]any{
				"system_message": systemPrompt,
				"current_date":   state.TradeDate,
				"ticker":         state.CompanyOfInterest,
				"company_name":   state.CompanyName,
				"tool_names":     toolNames,
				"user_input":     state.Messages,
			})
			return err
		})
		return output, err
	}

	router := func(ctx context.Context, input *schema.Message, opts ...any) (output *models.AnalysisState, err error) {
		err = compose.ProcessState[*models.AnalysisState](ctx, func(_ context.Context, state *models.AnalysisState) error {
			applyAnalystReply(state, input, mode)
			snapshot := *state
			output = &snapshot
			return nil
		})
		return output, err
	}

	_ = g.AddLambdaNode("init", compose.InvokableLambdaWithOption(initState))
	_ = g.AddLambdaNode("load", compose.InvokableLambdaWithOption(loadMsg))
	_ = g.AddLambdaNode("agent", agentLambda)
	_ = g.AddLambdaNode("router", compose.InvokableLambdaWithOption(router))

	_ = g.AddEdge(compose.START, "init")
	_ = g.AddEdge("init", "load")
	_ = g.AddEdge("load", "agent")
	_ = g.AddEdge("agent", "router")
	_ = g.AddEdge("router", compose.END)
	return g
}

// applyAnalystReply folds the agent reply into the shared state. The graph
// ends after the analyst, so Goto always points at END.
func applyAnalystReply(state *models.AnalysisState, input *schema.Message, mode string) {
	if input != nil {
		// 有工具调用时 content 为空，报告同样回写（与评估器的二次调用配合）
		if len(input.ToolCalls) == 0 {
			state.MarketReport = input.Content
		}
		state.Messages = append(state.Messages, input)
	}
	state.Sender = consts.SenderMarketAnalyst
	state.AnalysisMode = mode
	state.Goto = compose.END
}

// initState copies the invocation input into the graph-local state.
func initState(ctx context.Context, input *models.AnalysisState, opts ...any) (string, error) {
	err := compose.ProcessState[*models.AnalysisState](ctx, func(_ context.Context, state *models.AnalysisState) error {
		if input != nil {
			*state = *input
		}
		return nil
	})
	return "load", err
}
