package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared/constant"
	"go.uber.org/zap"

	"alfredoptarigan/resume-evaluator/internal/logger"
)

type openAIService struct {
	client          *openai.Client
	modelName       string
	maxOutputTokens int32
	log             *zap.Logger
}

// NewOpenAIService builds a chat-completions provider. baseURL may point at
// any OpenAI compatible endpoint; empty keeps the default. Stage budgets above
// maxOutputTokens are lowered to it, since the API rejects them outright.
func NewOpenAIService(apiKey, modelName, baseURL string, maxOutputTokens int32, log *zap.Logger) ModelProvider {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}

	client := openai.NewClient(opts...)

	return &openAIService{
		client:          &client,
		modelName:       modelName,
		maxOutputTokens: maxOutputTokens,
		log:             logger.WithProvider(log, "openai", modelName),
	}
}

// capOutputTokens returns requested, lowered to limit when limit is set.
func capOutputTokens(requested, limit int32) int32 {
	if limit > 0 && requested > limit {
		return limit
	}
	return requested
}

func (o *openAIService) Name() string {
	return "openai/" + o.modelName
}

func (o *openAIService) Complete(ctx context.Context, prompt string, cfg GenerationConfig) (string, error) {
	maxTokens := capOutputTokens(cfg.MaxOutputTokens, o.maxOutputTokens)
	if maxTokens != cfg.MaxOutputTokens {
		o.log.Debug("stage budget lowered to model output cap",
			zap.Int32("requested", cfg.MaxOutputTokens),
			zap.Int32("max_output_tokens", maxTokens),
		)
	}

	params := openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Model:       o.modelName,
		Temperature: openai.Float(float64(cfg.Temperature)),
		MaxTokens:   openai.Int(int64(maxTokens)),
	}
	if cfg.JSONResponse {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &openai.ResponseFormatJSONObjectParam{
				Type: constant.JSONObject("json_object"),
			},
		}
	}

	o.log.Debug("openai request",
		zap.Int("prompt_len", len(prompt)),
		zap.Int32("max_output_tokens", maxTokens),
	)

	completion, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("openai api error: %w", err)
	}

	if len(completion.Choices) == 0 {
		return "", errors.New("no response from openai")
	}

	choice := completion.Choices[0]
	if choice.FinishReason == "length" {
		o.log.Warn("openai response truncated at output token limit",
			zap.Int32("max_output_tokens", maxTokens),
		)
	}

	if choice.Message.Content == "" {
		return "", errors.New("no text content in response")
	}

	return choice.Message.Content, nil
}
