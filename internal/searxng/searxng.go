// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package searxng queries a SearXNG-compatible metasearch endpoint under
// named engine profiles and returns raw hits. The client tolerates
// per-engine result-shape differences and treats a missing or non-list
// "results" field as an error.
//
// See docs/ARCHITECTURE.md § Search Gateway.
package searxng

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/learning-engine/internal/circuitbreaker"
	"github.com/pdiddy/learning-engine/internal/httputil"
	"github.com/pdiddy/learning-engine/pkg/types"
)

// Gateway is the search capability the pipeline stages depend on. Tests
// supply fakes; production uses Client.
type Gateway interface {
	Search(ctx context.Context, profile types.EngineProfile, query string) ([]Hit, error)
}

// Hit is one raw result from the gateway, before normalization.
type Hit struct {
	Title    string         `json:"title"`
	URL      string         `json:"url"`
	Content  string         `json:"content"`
	Snippet  string         `json:"snippet"`
	Engine   string         `json:"engine"`
	Score    float64        `json:"score"`
	Metadata map[string]any `json:"-"`
}

// Text returns the hit's summary text, preferring content over snippet.
// Some engines populate one field, some the other.
func (h Hit) Text() string {
	if h.Content != "" {
		return h.Content
	}
	return h.Snippet
}

// profileCategories maps each engine profile to SearXNG categories.
// SearXNG has no single computational category, so that profile fans
// into it+science.
var profileCategories = map[types.EngineProfile]string{
	types.ProfileGeneral:       "general",
	types.ProfileAcademic:      "science",
	types.ProfileVideo:         "videos",
	types.ProfileCommunity:     "social media",
	types.ProfileComputational: "it,science",
}

// Client queries a SearXNG instance. Each profile is gated by its own
// circuit breaker so one flaky backend cannot starve the rest.
type Client struct {
	cfg      types.GatewayConfig
	client   *http.Client
	breakers map[types.EngineProfile]*circuitbreaker.Breaker
}

// NewClient builds a gateway client with one breaker per profile.
func NewClient(cfg types.GatewayConfig, breaker types.BreakerConfig, logger *zap.Logger) *Client {
	bcfg := circuitbreaker.Config{
		FailureThreshold: breaker.FailureThreshold,
		Cooldown:         breaker.Cooldown,
	}
	breakers := make(map[types.EngineProfile]*circuitbreaker.Breaker, len(types.AllProfiles))
	for _, p := range types.AllProfiles {
		breakers[p] = circuitbreaker.New("searxng-"+string(p), bcfg, logger)
	}
	return &Client{
		cfg:      cfg,
		client:   &http.Client{Timeout: cfg.Timeout},
		breakers: breakers,
	}
}

// Search issues one query under the given profile and returns its hits.
func (c *Client) Search(ctx context.Context, profile types.EngineProfile, query string) ([]Hit, error) {
	categories, ok := profileCategories[profile]
	if !ok {
		return nil, fmt.Errorf("unknown engine profile %q", profile)
	}
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("empty query")
	}

	var hits []Hit
	err := c.breakers[profile].Execute(ctx, func() error {
		var err error
		hits, err = c.search(ctx, categories, query)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("profile %s: %w", profile, err)
	}

	if c.cfg.MaxPerQuery > 0 && len(hits) > c.cfg.MaxPerQuery {
		hits = hits[:c.cfg.MaxPerQuery]
	}
	return hits, nil
}

func (c *Client) search(ctx context.Context, categories, query string) ([]Hit, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("categories", categories)
	params.Set("format", "json")

	endpoint := strings.TrimSuffix(c.cfg.BaseURL, "/") + "/search?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := httputil.DoWithRetry(ctx, c.client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("searxng request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("searxng returned HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	return decodeResults(resp.Body)
}

// decodeResults parses the response body, requiring a list-valued
// "results" field. Individual hits keep unknown fields in Metadata.
func decodeResults(r io.Reader) ([]Hit, error) {
	var envelope struct {
		Results json.RawMessage `json:"results"`
	}
	if err := json.NewDecoder(r).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("parsing searxng response: %w", err)
	}
	if len(envelope.Results) == 0 {
		return nil, fmt.Errorf("searxng response has no results field")
	}

	var raw []map[string]json.RawMessage
	if err := json.Unmarshal(envelope.Results, &raw); err != nil {
		return nil, fmt.Errorf("results field is not a list: %w", err)
	}

	hits := make([]Hit, 0, len(raw))
	for _, m := range raw {
		var h Hit
		h.Metadata = make(map[string]any)
		for k, v := range m {
			switch k {
			case "title":
				json.Unmarshal(v, &h.Title)
			case "url":
				json.Unmarshal(v, &h.URL)
			case "content":
				json.Unmarshal(v, &h.Content)
			case "snippet":
				json.Unmarshal(v, &h.Snippet)
			case "engine":
				json.Unmarshal(v, &h.Engine)
			case "score":
				json.Unmarshal(v, &h.Score)
			default:
				var any any
				if err := json.Unmarshal(v, &any); err == nil {
					h.Metadata[k] = any
				}
			}
		}
		hits = append(hits, h)
	}
	return hits, nil
}
