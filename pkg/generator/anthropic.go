package generator

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/lighthouse-crm/leadrouter/pkg/conversation"
)

// defaultModel is the Claude model used when none is configured.
const defaultModel = "claude-sonnet-4-5-20250929"

// defaultMaxTokens bounds a specialist reply's length; these are short
// conversational turns, not long-form content.
const defaultMaxTokens = 1024

// AnthropicGenerator is the process-default Generator, backed by the
// Anthropic Messages API.
type AnthropicGenerator struct {
	client    anthropic.Client
	model     anthropic.Model
	maxTokens int64
}

// NewAnthropicGenerator builds a Generator authenticated with apiKey.
func NewAnthropicGenerator(apiKey string) *AnthropicGenerator {
	return &AnthropicGenerator{
		client:    anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:     anthropic.Model(defaultModel),
		maxTokens: defaultMaxTokens,
	}
}

// Generate sends systemPrompt plus messages to the Messages API and returns
// the concatenated text content of the response.
func (g *AnthropicGenerator) Generate(ctx context.Context, systemPrompt string, messages []conversation.Message) (Reply, error) {
	params := anthropic.MessageNewParams{
		Model:     g.model,
		MaxTokens: g.maxTokens,
		Messages:  toAnthropicMessages(messages),
	}
	if systemPrompt != "" {
		params.System = []anthropic.TextBlockParam{{Text: systemPrompt}}
	}

	resp, err := g.client.Messages.New(ctx, params)
	if err != nil {
		return Reply{}, fmt.Errorf("generator: anthropic call: %w", err)
	}

	var content string
	for _, block := range resp.Content {
		if block.Type == "text" {
			content += block.AsText().Text
		}
	}
	return Reply{Content: content}, nil
}

func toAnthropicMessages(messages []conversation.Message) []anthropic.MessageParam {
	out := make([]anthropic.MessageParam, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case conversation.RoleCustomer:
			out = append(out, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		case conversation.RoleAgent:
			out = append(out, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
		}
	}
	return out
}
