// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package completion abstracts the generative-AI API behind a two-mode
// Service: free text and schema-validated structured output. Both modes
// may fail or return malformed output; callers validate shape before
// trusting a response.
//
// See docs/ARCHITECTURE.md § Completion Service.
package completion

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/learning-engine/internal/circuitbreaker"
	"github.com/pdiddy/learning-engine/pkg/types"
)

// ErrMalformed reports that the model responded but the response did not
// match the requested shape. Callers treat it as recoverable and fall
// back rather than retrying blindly.
var ErrMalformed = errors.New("malformed completion response")

// Service is the completion capability pipeline stages depend on.
type Service interface {
	// GenerateText returns a free-text completion for the prompt.
	GenerateText(ctx context.Context, prompt string) (string, error)

	// GenerateStructured asks for a JSON response and unmarshals it
	// into out. A syntactically invalid response wraps ErrMalformed.
	GenerateStructured(ctx context.Context, prompt string, out any) error
}

// New builds a Service from config: an Anthropic Messages client or an
// OpenAI client depending on cfg.Provider, wrapped in a circuit breaker.
func New(cfg types.AIConfig, breaker types.BreakerConfig, logger *zap.Logger) (Service, error) {
	var svc Service
	switch cfg.Provider {
	case types.ProviderAnthropic, "":
		svc = &ClaudeBackend{APIKey: cfg.APIKey, Model: cfg.Model, MaxRetries: cfg.MaxRetries}
	case types.ProviderOpenAI:
		svc = NewOpenAIBackend(cfg)
	default:
		return nil, fmt.Errorf("unknown AI provider %q", cfg.Provider)
	}

	bcfg := circuitbreaker.Config{
		FailureThreshold: breaker.FailureThreshold,
		Cooldown:         breaker.Cooldown,
	}
	return &guarded{
		svc:     svc,
		breaker: circuitbreaker.New("completion", bcfg, logger),
	}, nil
}

// guarded gates a Service behind a circuit breaker. Malformed responses
// do not count as service failures; the service answered, it just
// answered badly.
type guarded struct {
	svc     Service
	breaker *circuitbreaker.Breaker
}

func (g *guarded) GenerateText(ctx context.Context, prompt string) (string, error) {
	var text string
	err := g.breaker.Execute(ctx, func() error {
		var err error
		text, err = g.svc.GenerateText(ctx, prompt)
		return err
	})
	return text, err
}

func (g *guarded) GenerateStructured(ctx context.Context, prompt string, out any) error {
	var malformed error
	err := g.breaker.Execute(ctx, func() error {
		err := g.svc.GenerateStructured(ctx, prompt, out)
		if errors.Is(err, ErrMalformed) {
			malformed = err
			return nil
		}
		return err
	})
	if err != nil {
		return err
	}
	return malformed
}

// ExtractJSONObject locates the first balanced top-level JSON object in
// text. Models asked for pure JSON still wrap it in prose or code fences
// often enough that structured callers run their responses through this
// before unmarshaling.
func ExtractJSONObject(text string) (string, bool) {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}
	return "", false
}

// unmarshalResponse parses a model response as JSON into out, extracting
// an embedded object when the raw text is not itself valid JSON.
func unmarshalResponse(text string, out any) error {
	trimmed := strings.TrimSpace(text)
	if err := json.Unmarshal([]byte(trimmed), out); err == nil {
		return nil
	}
	obj, ok := ExtractJSONObject(trimmed)
	if !ok {
		return fmt.Errorf("%w: no JSON object in response", ErrMalformed)
	}
	if err := json.Unmarshal([]byte(obj), out); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return nil
}

// statusErr formats a non-200 API response.
func statusErr(api string, resp *http.Response, body []byte) error {
	return fmt.Errorf("%s returned %d: %s", api, resp.StatusCode, strings.TrimSpace(string(body)))
}
