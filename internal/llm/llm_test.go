package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/janhvi2806/washing-machine-bot/internal/config"
)

type stubChatClient struct {
	last openai.ChatCompletionRequest
	resp openai.ChatCompletionResponse
	err  error
}

func (s *stubChatClient) CreateChatCompletion(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	s.last = req
	return s.resp, s.err
}

type stubMessagesClient struct {
	last sdk.MessageNewParams
	resp *sdk.Message
	err  error
}

func (s *stubMessagesClient) New(_ context.Context, body sdk.MessageNewParams, _ ...option.RequestOption) (*sdk.Message, error) {
	s.last = body
	return s.resp, s.err
}

func TestOpenAIGenerate(t *testing.T) {
	stub := &stubChatClient{resp: openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: "  {\"action\":\"clarify\"}\n"}},
		},
	}}
	g, err := NewOpenAI(stub, "gpt-test")
	require.NoError(t, err)

	text, err := g.Generate(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, `{"action":"clarify"}`, text)
	assert.Equal(t, "gpt-test", stub.last.Model)
	require.Len(t, stub.last.Messages, 1)
	assert.Equal(t, openai.ChatMessageRoleUser, stub.last.Messages[0].Role)
	assert.Equal(t, "hello", stub.last.Messages[0].Content)
	assert.Equal(t, "openai:gpt-test", NameOf(g))
}

func TestOpenAIEmptyAndErrors(t *testing.T) {
	g, err := NewOpenAI(&stubChatClient{}, "m")
	require.NoError(t, err)
	_, err = g.Generate(context.Background(), "p")
	assert.ErrorIs(t, err, ErrEmptyResponse)

	boom := errors.New("boom")
	g, err = NewOpenAI(&stubChatClient{err: boom}, "m")
	require.NoError(t, err)
	_, err = g.Generate(context.Background(), "p")
	assert.ErrorIs(t, err, boom)

	_, err = NewOpenAI(nil, "m")
	assert.Error(t, err)
	_, err = NewOpenAIFromAPIKey("", "m")
	assert.Error(t, err)
}

func TestAnthropicGenerate(t *testing.T) {
	stub := &stubMessagesClient{resp: &sdk.Message{
		Content: []sdk.ContentBlockUnion{
			{Type: "text", Text: "{\"action\":"},
			{Type: "thinking", Text: "ignored"},
			{Type: "text", Text: "\"clarify\"}"},
		},
	}}
	g, err := NewAnthropic(stub, "claude-test")
	require.NoError(t, err)

	text, err := g.Generate(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, `{"action":"clarify"}`, text)
	assert.Equal(t, sdk.Model("claude-test"), stub.last.Model)
	assert.Equal(t, int64(anthropicMaxTokens), stub.last.MaxTokens)
	require.Len(t, stub.last.Messages, 1)
}

func TestAnthropicEmpty(t *testing.T) {
	g, err := NewAnthropic(&stubMessagesClient{resp: &sdk.Message{}}, "m")
	require.NoError(t, err)
	_, err = g.Generate(context.Background(), "p")
	assert.ErrorIs(t, err, ErrEmptyResponse)

	g, err = NewAnthropic(&stubMessagesClient{}, "m")
	require.NoError(t, err)
	_, err = g.Generate(context.Background(), "p")
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestRateLimitedHonoursContext(t *testing.T) {
	calls := 0
	inner := GeneratorFunc(func(context.Context, string) (string, error) {
		calls++
		return "ok", nil
	})
	g := RateLimited(inner, 1)

	_, err := g.Generate(context.Background(), "first")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = g.Generate(ctx, "second")
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestRateLimitedDisabled(t *testing.T) {
	inner := GeneratorFunc(func(context.Context, string) (string, error) { return "ok", nil })
	g := RateLimited(inner, 0)
	for i := 0; i < 100; i++ {
		_, err := g.Generate(context.Background(), "p")
		require.NoError(t, err)
	}
}

func TestTracedPassesThrough(t *testing.T) {
	boom := errors.New("boom")
	g := Traced(GeneratorFunc(func(context.Context, string) (string, error) { return "", boom }))
	_, err := g.Generate(context.Background(), "p")
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, "unknown", NameOf(g))
}

func TestNewProviderNone(t *testing.T) {
	g, cleanup, err := New(config.LLMConfig{Provider: config.ProviderNone}, nil)
	require.NoError(t, err)
	require.NotNil(t, cleanup)
	assert.Nil(t, g)
	cleanup()

	_, _, err = New(config.LLMConfig{Provider: "gemini"}, nil)
	assert.Error(t, err)
}

func TestNewOpenAIProvider(t *testing.T) {
	g, cleanup, err := New(config.LLMConfig{Provider: config.ProviderOpenAI, OpenAIKey: "sk-test", OpenAIModel: "gpt-4o-mini", RatePerMinute: 60}, nil)
	require.NoError(t, err)
	defer cleanup()
	assert.Equal(t, "openai:gpt-4o-mini", NameOf(g))
}
