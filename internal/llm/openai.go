package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	apperrors "github.com/tripbrain-dev/tripbrain/pkg/app/errors"
)

type openaiGenerator struct {
	client openai.Client
	model  string
}

// NewOpenAIGenerator creates a new OpenAI generator
func NewOpenAIGenerator(apiKey, model string) Generator {
	return &openaiGenerator{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}
}

func (g *openaiGenerator) Name() string {
	return "openai"
}

func (g *openaiGenerator) Generate(ctx context.Context, system, prompt string, opts Options) (string, error) {
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(g.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(prompt),
		},
		Temperature: openai.Float(opts.Temperature),
	}
	if opts.MaxTokens > 0 {
		params.MaxTokens = openai.Int(opts.MaxTokens)
	}

	completion, err := g.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", apperrors.New(apperrors.ErrCodeProviderUnavailable, "openai request failed", err)
	}
	if len(completion.Choices) == 0 {
		return "", apperrors.New(apperrors.ErrCodeProviderUnavailable,
			fmt.Sprintf("openai returned no choices for model %s", g.model), nil)
	}

	return strings.TrimSpace(completion.Choices[0].Message.Content), nil
}
