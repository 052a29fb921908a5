package enrich

import (
	"context"
	"encoding/json"

	"github.com/rotisserie/eris"

	"github.com/gardenscape/plant-import/internal/cost"
	"github.com/gardenscape/plant-import/pkg/anthropic"
	"github.com/gardenscape/plant-import/pkg/perplexity"
)

// Completer sends one system+user prompt to an LLM and returns its text.
type Completer interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
}

const validatorTemperature = 0.1

// PerplexityCompleter answers prompts with Perplexity chat completions.
type PerplexityCompleter struct {
	client  perplexity.Client
	tracker *cost.Tracker
	schema  json.RawMessage
}

// NewPerplexityCompleter creates a Completer over client. When schema is
// non-empty the response is constrained to it.
func NewPerplexityCompleter(client perplexity.Client, tracker *cost.Tracker, schema json.RawMessage) *PerplexityCompleter {
	return &PerplexityCompleter{client: client, tracker: tracker, schema: schema}
}

// Complete implements Completer.
func (p *PerplexityCompleter) Complete(ctx context.Context, system, prompt string) (string, error) {
	temp := validatorTemperature
	req := perplexity.ChatCompletionRequest{
		Messages: []perplexity.Message{
			{Role: perplexity.RoleSystem, Content: system},
			{Role: perplexity.RoleUser, Content: prompt},
		},
		Temperature: &temp,
	}
	if len(p.schema) > 0 {
		req.ResponseFormat = perplexity.SchemaFormat(p.schema)
	}

	resp, err := p.client.ChatCompletion(ctx, req)
	if err != nil {
		return "", eris.Wrap(err, "enrich: perplexity completion")
	}
	p.tracker.Add(cost.ProviderPerplexity, p.tracker.Calculator().Perplexity(resp.Usage.Total()))

	text := resp.Content()
	if text == "" {
		return "", eris.New("enrich: empty perplexity response")
	}
	return text, nil
}

// AnthropicCompleter answers prompts with the Anthropic Messages API.
type AnthropicCompleter struct {
	client    anthropic.Client
	tracker   *cost.Tracker
	model     string
	maxTokens int64
}

// NewAnthropicCompleter creates a Completer over client. An empty model uses
// the client default.
func NewAnthropicCompleter(client anthropic.Client, tracker *cost.Tracker, model string) *AnthropicCompleter {
	return &AnthropicCompleter{client: client, tracker: tracker, model: model, maxTokens: 2048}
}

// Complete implements Completer.
func (a *AnthropicCompleter) Complete(ctx context.Context, system, prompt string) (string, error) {
	temp := validatorTemperature
	resp, err := a.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:       a.model,
		MaxTokens:   a.maxTokens,
		System:      system,
		Messages:    []anthropic.Message{{Role: anthropic.RoleUser, Content: prompt}},
		Temperature: &temp,
	})
	if err != nil {
		return "", eris.Wrap(err, "enrich: anthropic completion")
	}
	a.tracker.Add(cost.ProviderAnthropic,
		a.tracker.Calculator().Claude(resp.Model, resp.Usage.InputTokens, resp.Usage.OutputTokens))

	text := resp.Text()
	if text == "" {
		return "", eris.New("enrich: empty anthropic response")
	}
	return text, nil
}
