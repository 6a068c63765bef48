package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const anthropicMaxTokens = 1024

// MessagesClient captures the subset of the Anthropic SDK client used here.
// It is satisfied by *sdk.MessageService.
type MessagesClient interface {
	New(ctx context.Context, body sdk.MessageNewParams, opts ...option.RequestOption) (*sdk.Message, error)
}

// Anthropic generates text with the Anthropic Messages API.
type Anthropic struct {
	msg   MessagesClient
	model string
}

// NewAnthropic wraps an existing messages client.
func NewAnthropic(msg MessagesClient, model string) (*Anthropic, error) {
	if msg == nil {
		return nil, errors.New("anthropic client is required")
	}
	if model == "" {
		return nil, errors.New("anthropic model is required")
	}
	return &Anthropic{msg: msg, model: model}, nil
}

// NewAnthropicFromAPIKey constructs a generator using the default Anthropic HTTP client.
func NewAnthropicFromAPIKey(apiKey, model string) (*Anthropic, error) {
	if apiKey == "" {
		return nil, errors.New("anthropic api key is required")
	}
	client := sdk.NewClient(option.WithAPIKey(apiKey))
	return NewAnthropic(&client.Messages, model)
}

// Name reports the backend name.
func (a *Anthropic) Name() string { return "anthropic:" + a.model }

// Generate sends prompt as a single user message and joins the text blocks
// of the answer.
func (a *Anthropic) Generate(ctx context.Context, prompt string) (string, error) {
	msg, err := a.msg.New(ctx, sdk.MessageNewParams{
		MaxTokens: anthropicMaxTokens,
		Model:     sdk.Model(a.model),
		Messages: []sdk.MessageParam{
			sdk.NewUserMessage(sdk.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic messages.new: %w", err)
	}
	if msg == nil {
		return "", ErrEmptyResponse
	}

	var b strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	text := strings.TrimSpace(b.String())
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}
