// Package llm holds the language-model boundary: a minimal completion
// interface, its Anthropic implementation, and the lenient parsing helpers
// that turn free-form model output into usable data. Every code path in here
// degrades to an empty result instead of failing when the model's output is
// malformed.
package llm

import (
	"context"
	"errors"
	"os"
	"strings"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// Caller is the completion capability the rest of the engine depends on.
type Caller interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
}

// UsageMeter gates and accounts for model usage. Allow runs before each
// call and may refuse it (insufficient credit); Record runs after each
// successful call with the token counts reported by the provider.
type UsageMeter interface {
	Allow() error
	Record(tokensIn, tokensOut int64)
}

// AnthropicMessager is the slice of the Anthropic client the caller needs.
type AnthropicMessager interface {
	New(ctx context.Context, params anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error)
}

// AnthropicClientCreator builds a messager from an API key.
type AnthropicClientCreator func(apiKey string) AnthropicMessager

func defaultAnthropicCreator(apiKey string) AnthropicMessager {
	c := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &c.Messages
}

var newAnthropicClient AnthropicClientCreator = defaultAnthropicCreator

// AnthropicCaller implements Caller on the Anthropic Messages API.
type AnthropicCaller struct {
	messages AnthropicMessager
	model    anthropic.Model
	meter    UsageMeter
}

// NewAnthropicCallerFromEnv builds a caller from ANTHROPIC_API_KEY. The
// meter may be nil when usage accounting is disabled.
func NewAnthropicCallerFromEnv(model string, meter UsageMeter) (*AnthropicCaller, error) {
	apiKey := strings.TrimSpace(os.Getenv("ANTHROPIC_API_KEY"))
	if apiKey == "" {
		return nil, errors.New("ANTHROPIC_API_KEY not configured")
	}
	m := anthropic.ModelClaudeSonnet4_20250514
	if model != "" {
		m = anthropic.Model(model)
	}
	return &AnthropicCaller{messages: newAnthropicClient(apiKey), model: m, meter: meter}, nil
}

func (a *AnthropicCaller) Complete(ctx context.Context, system, prompt string) (string, error) {
	if a.meter != nil {
		if err := a.meter.Allow(); err != nil {
			return "", err
		}
	}
	resp, err := a.messages.New(ctx, anthropic.MessageNewParams{
		Model:       a.model,
		MaxTokens:   4096,
		System:      []anthropic.TextBlockParam{{Text: system}},
		Messages:    []anthropic.MessageParam{anthropic.NewUserMessage(anthropic.NewTextBlock(prompt))},
		Temperature: anthropic.Float(0),
	})
	if err != nil {
		return "", err
	}
	if a.meter != nil {
		a.meter.Record(resp.Usage.InputTokens, resp.Usage.OutputTokens)
	}
	var sb strings.Builder
	for _, b := range resp.Content {
		if b.Type == "text" {
			sb.WriteString(b.Text)
		}
	}
	return sb.String(), nil
}
