package agents

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/deepseek"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/dyike/PromptBench/config"
	"github.com/dyike/PromptBench/consts"
)

// NewChatModelForMode builds the chat model an analysis mode runs on. Quick
// screening and the screener use the fast chat model over the OpenAI-style
// endpoint; deep analysis uses the DeepSeek reasoner.
func NewChatModelForMode(ctx context.Context, cfg *config.Config, mode string) (model.ToolCallingChatModel, error) {
	if mode == consts.ModeDeep {
		chatModel, err := deepseek.NewChatModel(ctx, &deepseek.ChatModelConfig{
			APIKey:    cfg.DeepSeekAPIKey,
			Model:     cfg.DeepThinkLLM,
			MaxTokens: 8192,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create DeepSeek reasoner model: %w", err)
		}
		return chatModel, nil
	}

	maxTokens := 8192
	chatModel, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		BaseURL:   cfg.BackendURL,
		APIKey:    cfg.DeepSeekAPIKey,
		Model:     cfg.QuickThinkLLM,
		MaxTokens: &maxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}
	return chatModel, nil
}

// ToolCallChecker detects tool calls in a streamed model response.
func ToolCallChecker(ctx context.Context, sr *schema.StreamReader[*schema.Message]) (bool, error) {
	defer sr.Close()
	for {
		msg, err := sr.Recv()
		if err != nil {
			if err.Error() == "EOF" {
				return false, nil
			}
			return false, err
		}
		if len(msg.ToolCalls) > 0 {
			return true, nil
		}
	}
}
