package classifier

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/janhvi2806/washing-machine-bot/internal/domain"
	"github.com/janhvi2806/washing-machine-bot/internal/llm"
)

func fixed(text string, err error) llm.Generator {
	return llm.GeneratorFunc(func(context.Context, string) (string, error) {
		return text, err
	})
}

func newClassifier(t *testing.T, gen llm.Generator, opts ...Option) *Classifier {
	t.Helper()
	c, err := New(gen, opts...)
	require.NoError(t, err)
	return c
}

func TestClassifyAcceptsModelDecision(t *testing.T) {
	raw := "```json\n" + `{
  "action": "create_ticket",
  "response": "I'll open a ticket for the broken door latch.",
  "ticket_summary": "Door latch broken",
  "category": "hardware",
  "priority": 20
}` + "\n```"
	c := newClassifier(t, fixed(raw, nil))

	d := c.Classify(context.Background(), "the door won't close", nil)
	assert.Equal(t, domain.SourceModel, d.Source)
	assert.Equal(t, domain.ActionCreateTicket, d.Action)
	assert.Equal(t, "Door latch broken", d.TicketSummary)
	assert.Equal(t, domain.CategoryHardware, d.Category)
	assert.Equal(t, 20, d.Priority)
}

func TestClassifyFallsBack(t *testing.T) {
	tests := []struct {
		name string
		gen  llm.Generator
	}{
		{"backend error", fixed("", errors.New("unavailable"))},
		{"not json", fixed("Sure! Here is my answer.", nil)},
		{"missing priority", fixed(`{"action":"troubleshoot","response":"x","category":"Hardware"}`, nil)},
		{"missing response", fixed(`{"action":"troubleshoot","category":"Hardware","priority":30}`, nil)},
		{"wrong type", fixed(`{"action":"troubleshoot","response":"x","category":"Hardware","priority":"high"}`, nil)},
		{"array", fixed(`[]`, nil)},
		{"nil backend", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newClassifier(t, tt.gen)
			d := c.Classify(context.Background(), "water won't drain", nil)
			assert.Equal(t, domain.SourceFallback, d.Source)
			assert.Equal(t, domain.ActionTroubleshoot, d.Action)
			assert.Equal(t, domain.CategoryHardware, d.Category)
			assert.Equal(t, 30, d.Priority)
		})
	}
}

func TestClassifyTimeoutFallsBack(t *testing.T) {
	slow := llm.GeneratorFunc(func(ctx context.Context, _ string) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	})
	c := newClassifier(t, slow, WithTimeout(10*time.Millisecond))

	d := c.Classify(context.Background(), "it is very loud", nil)
	assert.Equal(t, domain.SourceFallback, d.Source)
	assert.Equal(t, NoiseSummary, d.TicketSummary)
}

func TestClassifyUnknownActionIsClarify(t *testing.T) {
	c := newClassifier(t, fixed(`{"action":"escalate","response":"Tell me more","category":"General","priority":40}`, nil))
	d := c.Classify(context.Background(), "hmm", nil)
	assert.Equal(t, domain.SourceModel, d.Source)
	assert.Equal(t, domain.ActionClarify, d.Action)
}

func TestClassifySendsRecentHistory(t *testing.T) {
	var prompt string
	gen := llm.GeneratorFunc(func(_ context.Context, p string) (string, error) {
		prompt = p
		return `{"action":"clarify","response":"Which model?","category":"General","priority":40}`, nil
	})
	c := newClassifier(t, gen)

	history := []domain.Turn{
		{Role: domain.RoleUser, Content: "turn-1"},
		{Role: domain.RoleAssistant, Content: "turn-2"},
		{Role: domain.RoleUser, Content: "turn-3"},
		{Role: domain.RoleAssistant, Content: "turn-4"},
		{Role: domain.RoleUser, Content: "turn-5"},
		{Role: domain.RoleAssistant, Content: "turn-6"},
	}
	c.Classify(context.Background(), "what now", history)

	assert.NotContains(t, prompt, "turn-2")
	assert.Contains(t, prompt, "Previous conversation context:\nuser: turn-3\nassistant: turn-4\nuser: turn-5\nassistant: turn-6\n")
	assert.True(t, strings.HasSuffix(prompt, "Current user message: what now\n\nRespond with JSON only:"))
}

func TestBuildPromptWithoutHistory(t *testing.T) {
	p := BuildPrompt("hello", nil)
	assert.NotContains(t, p, "Previous conversation context")
	assert.Contains(t, p, "10=immediate, 20=urgent, 30=high, 40=normal, 50=low")
}

func TestStripFence(t *testing.T) {
	tests := map[string]string{
		"{\"a\":1}":                 `{"a":1}`,
		"```json\n{\"a\":1}\n```":   `{"a":1}`,
		"```\n{\"a\":1}\n```":       `{"a":1}`,
		"  ```json{\"a\":1}```  \n": `{"a":1}`,
		"```json\n{\"a\":1}":        `{"a":1}`,
	}
	for in, want := range tests {
		assert.Equal(t, want, stripFence(in), "input %q", in)
	}
}
