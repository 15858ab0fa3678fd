// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "testing"

func TestNormalizeTitle(t *testing.T) {
	tests := []struct {
		name  string
		title string
		want  string
	}{
		{"lowercases", "Photosynthesis Explained", "photosynthesis explained"},
		{"strips punctuation", "What is DNA? (A Primer!)", "what is dna a primer"},
		{"collapses whitespace", "  two   spaced \t words ", "two spaced words"},
		{"keeps digits", "Top 10 Tips", "top 10 tips"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeTitle(tt.title); got != tt.want {
				t.Errorf("NormalizeTitle(%q) = %q, want %q", tt.title, got, tt.want)
			}
		})
	}
}

func TestDedupKey(t *testing.T) {
	a := EngineResult{Title: "Machine Learning!", URL: "https://example.com/ml"}
	b := EngineResult{Title: "machine learning", URL: "https://example.com/ml"}
	if a.DedupKey() != b.DedupKey() {
		t.Errorf("keys differ: %q vs %q", a.DedupKey(), b.DedupKey())
	}

	c := EngineResult{Title: "machine learning", URL: "https://other.com/ml"}
	if a.DedupKey() == c.DedupKey() {
		t.Error("different URLs should produce different keys")
	}
}

func TestGeneralQueryCount(t *testing.T) {
	plan := ResearchPlan{Queries: []PlannedQuery{
		{Query: "a", Engine: ProfileGeneral},
		{Query: "b", Engine: ProfileAcademic},
		{Query: "c", Engine: ProfileGeneral},
		{Query: "d", Engine: ProfileVideo},
	}}
	if got := plan.GeneralQueryCount(); got != 2 {
		t.Errorf("GeneralQueryCount() = %d, want 2", got)
	}
}

func TestPipelineConfigDefaults(t *testing.T) {
	var cfg PipelineConfig
	cfg.Defaults()

	if cfg.Research.MaxResults != 30 {
		t.Errorf("MaxResults = %d, want 30", cfg.Research.MaxResults)
	}
	if cfg.Research.MinResults != 5 {
		t.Errorf("MinResults = %d, want 5", cfg.Research.MinResults)
	}
	if cfg.Research.MinGeneralSuccesses != 3 {
		t.Errorf("MinGeneralSuccesses = %d, want 3", cfg.Research.MinGeneralSuccesses)
	}
	if cfg.MaxDepth != 1 {
		t.Errorf("MaxDepth = %d, want 1", cfg.MaxDepth)
	}
	if cfg.SubtopicConcurrency != 3 {
		t.Errorf("SubtopicConcurrency = %d, want 3", cfg.SubtopicConcurrency)
	}
	if cfg.Gateway.UserAgent == "" {
		t.Error("UserAgent should default to a non-empty value")
	}
}
