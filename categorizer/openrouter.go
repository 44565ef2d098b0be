package categorizer

import (
	"context"
	"errors"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const DefaultOpenRouterModel = "google/gemini-flash-1.5-8b"

// OpenRouter completes prompts through an OpenAI-compatible chat endpoint.
type OpenRouter struct {
	client openai.Client
	model  string
}

func NewOpenRouter(apiKey, baseURL, model string) *OpenRouter {
	if model == "" {
		model = DefaultOpenRouterModel
	}
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(1),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &OpenRouter{
		client: openai.NewClient(opts...),
		model:  model,
	}
}

func (o *OpenRouter) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(o.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openrouter: empty response")
	}
	return resp.Choices[0].Message.Content, nil
}
