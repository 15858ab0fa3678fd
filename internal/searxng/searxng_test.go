// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package searxng

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/pdiddy/learning-engine/pkg/types"
)

func testClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	return NewClient(types.GatewayConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   5 * time.Second,
			UserAgent: "test/0.1",
		},
		BaseURL:     baseURL,
		MaxPerQuery: 10,
	}, types.BreakerConfig{FailureThreshold: 5, Cooldown: time.Minute}, zaptest.NewLogger(t))
}

func TestSearchParsesResults(t *testing.T) {
	var gotQuery, gotCategories string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		gotCategories = r.URL.Query().Get("categories")
		fmt.Fprint(w, `{"results": [
			{"title": "Photosynthesis - Wikipedia", "url": "https://en.wikipedia.org/wiki/Photosynthesis",
			 "content": "Process used by plants.", "engine": "wikipedia", "score": 0.93,
			 "publishedDate": "2024-01-01"},
			{"title": "Light reactions", "url": "https://example.com/light",
			 "snippet": "Snippet only engine.", "engine": "bing"}
		]}`)
	}))
	defer ts.Close()

	hits, err := testClient(t, ts.URL).Search(context.Background(), types.ProfileGeneral, "photosynthesis")
	if err != nil {
		t.Fatalf("Search error: %v", err)
	}

	if gotQuery != "photosynthesis" {
		t.Errorf("q = %q, want photosynthesis", gotQuery)
	}
	if gotCategories != "general" {
		t.Errorf("categories = %q, want general", gotCategories)
	}
	if len(hits) != 2 {
		t.Fatalf("len(hits) = %d, want 2", len(hits))
	}
	if hits[0].Title != "Photosynthesis - Wikipedia" || hits[0].Score != 0.93 {
		t.Errorf("first hit = %+v", hits[0])
	}
	if hits[0].Text() != "Process used by plants." {
		t.Errorf("Text() = %q, want content field", hits[0].Text())
	}
	if hits[1].Text() != "Snippet only engine." {
		t.Errorf("Text() = %q, want snippet fallback", hits[1].Text())
	}
	if _, ok := hits[0].Metadata["publishedDate"]; !ok {
		t.Error("unknown fields should land in Metadata")
	}
}

func TestSearchProfileCategories(t *testing.T) {
	tests := []struct {
		profile types.EngineProfile
		want    string
	}{
		{types.ProfileGeneral, "general"},
		{types.ProfileAcademic, "science"},
		{types.ProfileVideo, "videos"},
		{types.ProfileCommunity, "social media"},
		{types.ProfileComputational, "it,science"},
	}
	for _, tt := range tests {
		t.Run(string(tt.profile), func(t *testing.T) {
			var got string
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = r.URL.Query().Get("categories")
				fmt.Fprint(w, `{"results": []}`)
			}))
			defer ts.Close()

			if _, err := testClient(t, ts.URL).Search(context.Background(), tt.profile, "query"); err != nil {
				t.Fatalf("Search error: %v", err)
			}
			if got != tt.want {
				t.Errorf("categories = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSearchRejectsUnknownProfile(t *testing.T) {
	c := testClient(t, "http://localhost:1")
	if _, err := c.Search(context.Background(), types.EngineProfile("newsgroups"), "q"); err == nil {
		t.Error("expected error for unknown profile")
	}
}

func TestSearchRejectsEmptyQuery(t *testing.T) {
	c := testClient(t, "http://localhost:1")
	if _, err := c.Search(context.Background(), types.ProfileGeneral, "   "); err == nil {
		t.Error("expected error for empty query")
	}
}

func TestSearchMissingResultsField(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"answers": []}`)
	}))
	defer ts.Close()

	_, err := testClient(t, ts.URL).Search(context.Background(), types.ProfileGeneral, "q")
	if err == nil || !strings.Contains(err.Error(), "no results field") {
		t.Errorf("err = %v, want missing results field error", err)
	}
}

func TestSearchNonListResultsField(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"results": "not a list"}`)
	}))
	defer ts.Close()

	_, err := testClient(t, ts.URL).Search(context.Background(), types.ProfileGeneral, "q")
	if err == nil || !strings.Contains(err.Error(), "not a list") {
		t.Errorf("err = %v, want non-list results error", err)
	}
}

func TestSearchCapsPerQuery(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		var b strings.Builder
		b.WriteString(`{"results": [`)
		for i := 0; i < 15; i++ {
			if i > 0 {
				b.WriteString(",")
			}
			fmt.Fprintf(&b, `{"title": "hit %d", "url": "https://example.com/%d"}`, i, i)
		}
		b.WriteString(`]}`)
		fmt.Fprint(w, b.String())
	}))
	defer ts.Close()

	c := testClient(t, ts.URL)
	c.cfg.MaxPerQuery = 4
	hits, err := c.Search(context.Background(), types.ProfileGeneral, "q")
	if err != nil {
		t.Fatalf("Search error: %v", err)
	}
	if len(hits) != 4 {
		t.Errorf("len(hits) = %d, want 4", len(hits))
	}
}

func TestSearchBreakerIsolation(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("categories") == "videos" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		fmt.Fprint(w, `{"results": [{"title": "ok", "url": "https://example.com"}]}`)
	}))
	defer ts.Close()

	c := NewClient(types.GatewayConfig{
		HTTPConfig:  types.HTTPConfig{Timeout: 5 * time.Second, UserAgent: "test/0.1"},
		BaseURL:     ts.URL,
		MaxPerQuery: 10,
	}, types.BreakerConfig{FailureThreshold: 2, Cooldown: time.Minute}, zaptest.NewLogger(t))

	// Trip the video breaker.
	for i := 0; i < 3; i++ {
		c.Search(context.Background(), types.ProfileVideo, "q")
	}

	// General still answers.
	hits, err := c.Search(context.Background(), types.ProfileGeneral, "q")
	if err != nil {
		t.Fatalf("general Search error after video breaker tripped: %v", err)
	}
	if len(hits) != 1 {
		t.Errorf("len(hits) = %d, want 1", len(hits))
	}
}
