// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package completion

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/pdiddy/learning-engine/internal/circuitbreaker"
	"github.com/pdiddy/learning-engine/pkg/types"
)

func TestExtractJSONObject(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
		ok   bool
	}{
		{"bare object", `{"a": 1}`, `{"a": 1}`, true},
		{"prose around object", `Here you go: {"a": 1} hope that helps!`, `{"a": 1}`, true},
		{"code fence", "```json\n{\"a\": 1}\n```", `{"a": 1}`, true},
		{"nested objects", `{"a": {"b": {"c": 2}}}`, `{"a": {"b": {"c": 2}}}`, true},
		{"braces inside strings", `{"a": "close } brace"}`, `{"a": "close } brace"}`, true},
		{"escaped quote in string", `{"a": "say \"hi\" {now}"}`, `{"a": "say \"hi\" {now}"}`, true},
		{"no object", "plain text answer", "", false},
		{"unbalanced", `{"a": 1`, "", false},
		{"empty", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractJSONObject(tt.in)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestUnmarshalResponse(t *testing.T) {
	type doc struct {
		Name string `json:"name"`
	}

	t.Run("pure json", func(t *testing.T) {
		var d doc
		if err := unmarshalResponse(`{"name": "x"}`, &d); err != nil {
			t.Fatalf("error: %v", err)
		}
		if d.Name != "x" {
			t.Errorf("Name = %q", d.Name)
		}
	})

	t.Run("embedded json", func(t *testing.T) {
		var d doc
		if err := unmarshalResponse("Sure! ```json\n{\"name\": \"y\"}\n```", &d); err != nil {
			t.Fatalf("error: %v", err)
		}
		if d.Name != "y" {
			t.Errorf("Name = %q", d.Name)
		}
	})

	t.Run("no json wraps ErrMalformed", func(t *testing.T) {
		var d doc
		err := unmarshalResponse("no json here at all", &d)
		if !errors.Is(err, ErrMalformed) {
			t.Errorf("err = %v, want ErrMalformed", err)
		}
	})

	t.Run("invalid embedded json wraps ErrMalformed", func(t *testing.T) {
		var d doc
		err := unmarshalResponse(`prefix {"name": 12e++} suffix`, &d)
		if !errors.Is(err, ErrMalformed) {
			t.Errorf("err = %v, want ErrMalformed", err)
		}
	})
}

func claudeServer(t *testing.T, handler http.HandlerFunc) *ClaudeBackend {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	old := claudeAPIURL
	claudeAPIURL = ts.URL
	t.Cleanup(func() { claudeAPIURL = old })

	return &ClaudeBackend{APIKey: "test-key", Model: "test-model", MaxRetries: 1, Client: ts.Client()}
}

func TestClaudeGenerateText(t *testing.T) {
	backend := claudeServer(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("x-api-key"); got != "test-key" {
			t.Errorf("x-api-key = %q", got)
		}
		if got := r.Header.Get("anthropic-version"); got == "" {
			t.Error("anthropic-version header missing")
		}
		fmt.Fprint(w, `{"content": [
			{"type": "text", "text": "Hello, "},
			{"type": "tool_use"},
			{"type": "text", "text": "world."}
		]}`)
	})

	text, err := backend.GenerateText(context.Background(), "greet")
	if err != nil {
		t.Fatalf("GenerateText error: %v", err)
	}
	if text != "Hello, world." {
		t.Errorf("text = %q", text)
	}
}

func TestClaudeEmptyContentIsMalformed(t *testing.T) {
	backend := claudeServer(t, func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"content": []}`)
	})

	_, err := backend.GenerateText(context.Background(), "greet")
	if !errors.Is(err, ErrMalformed) {
		t.Errorf("err = %v, want ErrMalformed", err)
	}
}

func TestClaudeNon200(t *testing.T) {
	backend := claudeServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error": "bad request"}`)
	})

	_, err := backend.GenerateText(context.Background(), "greet")
	if err == nil {
		t.Fatal("expected error for HTTP 400")
	}
}

func TestClaudeGenerateStructured(t *testing.T) {
	backend := claudeServer(t, func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"content": [{"type": "text", "text": "{\"answer\": 42}"}]}`)
	})

	var out struct {
		Answer int `json:"answer"`
	}
	if err := backend.GenerateStructured(context.Background(), "compute", &out); err != nil {
		t.Fatalf("GenerateStructured error: %v", err)
	}
	if out.Answer != 42 {
		t.Errorf("Answer = %d", out.Answer)
	}
}

func TestNewSelectsProvider(t *testing.T) {
	logger := zaptest.NewLogger(t)
	breaker := types.BreakerConfig{FailureThreshold: 3, Cooldown: time.Minute}

	if _, err := New(types.AIConfig{Provider: types.ProviderAnthropic, APIKey: "k"}, breaker, logger); err != nil {
		t.Errorf("anthropic: %v", err)
	}
	if _, err := New(types.AIConfig{Provider: types.ProviderOpenAI, APIKey: "k"}, breaker, logger); err != nil {
		t.Errorf("openai: %v", err)
	}
	if _, err := New(types.AIConfig{APIKey: "k"}, breaker, logger); err != nil {
		t.Errorf("default provider: %v", err)
	}
	if _, err := New(types.AIConfig{Provider: "oracle"}, breaker, logger); err == nil {
		t.Error("expected error for unknown provider")
	}
}

// scriptedService fails or misbehaves on demand, for guarded tests.
type scriptedService struct {
	textErr       error
	structuredErr error
	calls         int
}

func (s *scriptedService) GenerateText(context.Context, string) (string, error) {
	s.calls++
	return "text", s.textErr
}

func (s *scriptedService) GenerateStructured(_ context.Context, _ string, out any) error {
	s.calls++
	return s.structuredErr
}

func TestGuardedMalformedDoesNotTripBreaker(t *testing.T) {
	svc := &scriptedService{structuredErr: fmt.Errorf("%w: junk", ErrMalformed)}
	g := &guarded{
		svc:     svc,
		breaker: circuitbreaker.New("test", circuitbreaker.Config{FailureThreshold: 2, Cooldown: time.Minute}, zaptest.NewLogger(t)),
	}

	var out struct{}
	for i := 0; i < 5; i++ {
		err := g.GenerateStructured(context.Background(), "p", &out)
		if !errors.Is(err, ErrMalformed) {
			t.Fatalf("call %d: err = %v, want ErrMalformed", i, err)
		}
	}
	// Malformed output means the service answered; all five calls must
	// have reached it.
	if svc.calls != 5 {
		t.Errorf("calls = %d, want 5", svc.calls)
	}
}

func TestGuardedTransportErrorTripsBreaker(t *testing.T) {
	svc := &scriptedService{textErr: errors.New("connection refused")}
	g := &guarded{
		svc:     svc,
		breaker: circuitbreaker.New("test", circuitbreaker.Config{FailureThreshold: 2, Cooldown: time.Minute}, zaptest.NewLogger(t)),
	}

	for i := 0; i < 2; i++ {
		if _, err := g.GenerateText(context.Background(), "p"); err == nil {
			t.Fatal("expected transport error")
		}
	}

	_, err := g.GenerateText(context.Background(), "p")
	if !errors.Is(err, circuitbreaker.ErrOpen) {
		t.Errorf("err = %v, want ErrOpen", err)
	}
	if svc.calls != 2 {
		t.Errorf("calls = %d, want 2 (third fast-failed)", svc.calls)
	}
}
