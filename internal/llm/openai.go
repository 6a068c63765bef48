package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// ChatClient captures the subset of the go-openai client used here.
type ChatClient interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAI generates text with the OpenAI Chat Completions API.
type OpenAI struct {
	chat        ChatClient
	model       string
	temperature float32
}

// NewOpenAI wraps an existing chat client.
func NewOpenAI(chat ChatClient, model string) (*OpenAI, error) {
	if chat == nil {
		return nil, errors.New("openai client is required")
	}
	if model == "" {
		return nil, errors.New("openai model is required")
	}
	return &OpenAI{chat: chat, model: model, temperature: 0.2}, nil
}

// NewOpenAIFromAPIKey constructs a generator using the default go-openai HTTP client.
func NewOpenAIFromAPIKey(apiKey, model string) (*OpenAI, error) {
	if apiKey == "" {
		return nil, errors.New("openai api key is required")
	}
	return NewOpenAI(openai.NewClient(apiKey), model)
}

// Name reports the backend name.
func (o *OpenAI) Name() string { return "openai:" + o.model }

// Generate sends prompt as a single user message.
func (o *OpenAI) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := o.chat.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: o.temperature,
	})
	if err != nil {
		return "", fmt.Errorf("openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}
