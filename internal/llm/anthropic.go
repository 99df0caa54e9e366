package llm

import (
	"context"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	apperrors "github.com/tripbrain-dev/tripbrain/pkg/app/errors"
)

const defaultAnthropicMaxTokens = 1024

type anthropicGenerator struct {
	client anthropic.Client
	model  string
}

// NewAnthropicGenerator creates a new Anthropic generator
func NewAnthropicGenerator(apiKey, model string) Generator {
	return &anthropicGenerator{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}
}

func (g *anthropicGenerator) Name() string {
	return "anthropic"
}

func (g *anthropicGenerator) Generate(ctx context.Context, system, prompt string, opts Options) (string, error) {
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultAnthropicMaxTokens
	}

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(g.model),
		MaxTokens:   maxTokens,
		Temperature: anthropic.Float(opts.Temperature),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}

	message, err := g.client.Messages.New(ctx, params)
	if err != nil {
		return "", apperrors.New(apperrors.ErrCodeProviderUnavailable, "anthropic request failed", err)
	}

	var sb strings.Builder
	for _, block := range message.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	return strings.TrimSpace(sb.String()), nil
}
