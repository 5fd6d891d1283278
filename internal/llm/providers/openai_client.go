// File path: internal/llm/providers/openai_client.go
package providers

import (
	"context"
	"fmt"
	"os"
	"time"

	openai "github.com/openai/openai-go/v2"

	"github.com/nicodishanthj/pathlight/internal/common"
	"github.com/nicodishanthj/pathlight/internal/common/telemetry"
)

type OpenAIProvider struct {
	client       openai.Client
	cheapModel   string
	premiumModel string
}

func NewOpenAIProvider(client openai.Client) *OpenAIProvider {
	cheapModel := os.Getenv("PATHLIGHT_CHEAP_MODEL")
	if cheapModel == "" {
		cheapModel = "gpt-4o-mini"
	}
	premiumModel := os.Getenv("PATHLIGHT_PREMIUM_MODEL")
	if premiumModel == "" {
		premiumModel = "gpt-4o"
	}
	logger := common.Logger()
	logger.Info("llm: OpenAI provider configured", "cheap_model", cheapModel, "premium_model", premiumModel)
	return &OpenAIProvider{client: client, cheapModel: cheapModel, premiumModel: premiumModel}
}

func (o *OpenAIProvider) Complete(ctx context.Context, tier Tier, system, user string) (string, error) {
	model := o.cheapModel
	if tier == TierPremium {
		model = o.premiumModel
	}
	logger := common.Logger()
	logger.Debug("llm: sending completion request", "model", model, "tier", tier)
	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
		// Near-zero temperature keeps repeated structural calls on
		// identical input converging to the same topic set.
		Temperature: openai.Float(0),
	}
	start := time.Now()
	resp, err := o.client.Chat.Completions.New(ctx, params)
	telemetry.RecordGeneration(string(tier), time.Since(start), err)
	if err != nil {
		logger.Error("llm: completion failed", "model", model, "error", err)
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices returned")
	}
	logger.Debug("llm: completion succeeded", "model", model, "dur", time.Since(start))
	return resp.Choices[0].Message.Content, nil
}

func (o *OpenAIProvider) Name() string {
	return "openai"
}
