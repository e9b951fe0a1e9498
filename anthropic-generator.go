package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const defaultAnthropicModel = "claude-haiku-4-5"

// AnthropicGenerator generates text with an Anthropic model
type AnthropicGenerator struct {
	client *anthropic.Client
	model  anthropic.Model
}

func NewAnthropicGenerator(apiKey string, cfg AnalyzerConfig, opts ...option.RequestOption) *AnthropicGenerator {
	model := cfg.Model
	if model == "" {
		model = defaultAnthropicModel
	}

	client := anthropic.NewClient(append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)...)
	return &AnthropicGenerator{
		client: &client,
		model:  anthropic.Model(model),
	}
}

func (a *AnthropicGenerator) Name() string {
	return "anthropic/" + string(a.model)
}

func (a *AnthropicGenerator) GenerateText(ctx context.Context, prompt string) (string, error) {
	resp, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     a.model,
		MaxTokens: 1024,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic API error: %w", err)
	}

	var builder strings.Builder
	for _, block := range resp.Content {
		builder.WriteString(block.Text)
	}
	if builder.Len() == 0 {
		return "", fmt.Errorf("%w: no response from anthropic", ErrEmptyResponse)
	}

	return builder.String(), nil
}
