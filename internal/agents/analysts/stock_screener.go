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
	"github.com/dyike/PromptBench/internal/models"
	"github.com/dyike/PromptBench/internal/prompts"
	"github.com/dyike/PromptBench/internal/tools"
)

// NewStockScreener builds the screener graph. Same shape as the market
// analyst with the narrower tool set and the screener prompt.
func NewStockScreener(ctx context.Context, cfg *config.Config) *compose.Graph[*models.AnalysisState, *models.AnalysisState] {
	g := compose.NewGraph[*models.AnalysisState, *models.AnalysisState](
		compose.WithGenLocalState(func(ctx context.Context) *models.AnalysisState {
			return &models.AnalysisState{}
		}),
	)

	toolkit := tools.NewToolkit(cfg)
	screenerTools := toolkit.ScreenerTools()

	chatModel, err := agents.NewChatModelForMode(ctx, cfg, consts.ModeScreener)
	if err != nil {
		log.Fatalf("failed to create screener chat model: %v", err)
	}

	agent, err := react.NewAgent(ctx, &react.AgentConfig{
		MaxStep:          cfg.MaxAgentSteps,
		ToolCallingModel: chatModel,
		ToolsConfig: compose.ToolsNodeConfig{
			Tools: screenerTools,
		},
		StreamToolCallChecker: agents.ToolCallChecker,
	})
	if err != nil {
		log.Fatalf("failed to create screener agent: %v", err)
	}
	agentLambda, err := compose.AnyLambda(agent.Generate, agent.Stream, nil, nil)
	if err != nil {
		log.Fatalf("failed to create screener agent lambda: %v", err)
	}

	toolNames := tools.Names(screenerTools)

	loadMsg := func(ctx context.Context, name string, opts ...any) ([]*schema.Message, error) {
		var (
			output []*schema.Message
			err    error
		)
		err = compose.ProcessState[*models.AnalysisState](ctx, func(_ context.Context, state *models.AnalysisState) error {
			promptTemp := prompt.FromMessages(schema.FString,
				schema.SystemMessage(prompts.ScreenerSystemTemplate),
				schema.MessagesPlaceholder("user_input", true),
			)
			output, err = promptTemp.Format(ctx, map[string]any{
				"system_message": prompts.StockScreener,
				"current_date":   state.TradeDate,
				"tool_names":     toolNames,
				"user_input":     state.Messages,
			})
			return err
		})
		return output, err
	}

	router := func(ctx context.Context, input *schema.Message, opts ...any) (output *models.AnalysisState, err error) {
		err = compose.ProcessState[*models.AnalysisState](ctx, func(_ context.Context, state *models.AnalysisState) error {
			applyScreenerReply(state, input)
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

// applyScreenerReply folds the screener reply into the shared state.
func applyScreenerReply(state *models.AnalysisState, input *schema.Message) {
	if input != nil {
		state.ScreeningReport = input.Content
		state.Messages = append(state.Messages, input)
	}
	state.Sender = consts.SenderStockScreener
	state.AnalysisMode = consts.ModeScreener
	state.Goto = compose.END
}
