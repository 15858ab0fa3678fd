// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package completion

import (
	"context"
	"fmt"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/pdiddy/learning-engine/pkg/types"
)

// OpenAIBackend calls the OpenAI chat completions API through the
// official SDK.
type OpenAIBackend struct {
	client openai.Client
	model  string
}

// NewOpenAIBackend builds the backend from AI config. An empty model
// defaults to gpt-4o-mini.
func NewOpenAIBackend(cfg types.AIConfig) *OpenAIBackend {
	model := cfg.Model
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &OpenAIBackend{
		client: openai.NewClient(option.WithAPIKey(cfg.APIKey)),
		model:  model,
	}
}

// GenerateText sends the prompt and returns the first choice's content.
func (o *OpenAIBackend) GenerateText(ctx context.Context, prompt string) (string, error) {
	resp, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: o.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
	})
	if err != nil {
		return "", fmt.Errorf("calling OpenAI API: %w", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("%w: OpenAI response has no content", ErrMalformed)
	}
	return resp.Choices[0].Message.Content, nil
}

// GenerateStructured sends the prompt with a JSON-only instruction and
// unmarshals the response into out.
func (o *OpenAIBackend) GenerateStructured(ctx context.Context, prompt string, out any) error {
	text, err := o.GenerateText(ctx, prompt+"\n\nRespond with a single JSON object. Do not include any text outside the JSON object.")
	if err != nil {
		return err
	}
	return unmarshalResponse(text, out)
}
