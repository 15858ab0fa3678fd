// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package synthesis

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/pdiddy/learning-engine/internal/events"
	"github.com/pdiddy/learning-engine/pkg/types"
)

type fakeAI struct {
	response string
	err      error
}

func (f *fakeAI) GenerateText(context.Context, string) (string, error) {
	return f.response, f.err
}

func (f *fakeAI) GenerateStructured(_ context.Context, _ string, out any) error {
	if f.err != nil {
		return f.err
	}
	return json.Unmarshal([]byte(f.response), out)
}

func result(engine types.EngineProfile, title string, score float64) types.EngineResult {
	return types.EngineResult{
		Title:          title,
		URL:            "https://example.com/" + types.NormalizeTitle(title),
		Snippet:        "About " + title,
		Engine:         engine,
		RelevanceScore: score,
	}
}

func TestWeighResultsPrefersPracticalGeneral(t *testing.T) {
	results := []types.EngineResult{
		result(types.ProfileGeneral, "Python tutorial with examples", 0.6),
		result(types.ProfileAcademic, "Formal semantics of Python", 0.6),
	}

	WeighResults(results)

	if results[0].PracticalWeight <= results[1].PracticalWeight {
		t.Errorf("general tutorial weight %v should exceed academic weight %v",
			results[0].PracticalWeight, results[1].PracticalWeight)
	}
	for _, r := range results {
		if r.PracticalWeight <= 0 || r.PracticalWeight > 1 {
			t.Errorf("weight %v out of (0,1]", r.PracticalWeight)
		}
	}
}

func TestWeighResultsCapAtOne(t *testing.T) {
	results := []types.EngineResult{
		result(types.ProfileGeneral, "practical guide tutorial example use how to", 1.0),
	}
	WeighResults(results)
	if results[0].PracticalWeight != 1.0 {
		t.Errorf("weight = %v, want capped 1.0", results[0].PracticalWeight)
	}
}

func TestExtractThemes(t *testing.T) {
	results := []types.EngineResult{
		result(types.ProfileGeneral, "gardening basics", 0.9),
		{Title: "soil preparation", Snippet: "Good soil preparation helps gardening succeed.", Engine: types.ProfileGeneral},
		{Title: "gardening tools", Snippet: "Tools every gardening beginner needs.", Engine: types.ProfileGeneral},
	}

	themes := ExtractThemes(results)
	if len(themes) == 0 {
		t.Fatal("no themes extracted")
	}
	if themes[0] != "gardening" {
		t.Errorf("top theme = %q, want gardening", themes[0])
	}
	for _, th := range themes {
		if len(th) <= 4 {
			t.Errorf("theme %q is too short to have passed the filter", th)
		}
	}
}

func TestExtractThemesPracticalDoubled(t *testing.T) {
	// "tutorial" appears once but doubled; "houseplants" appears once.
	results := []types.EngineResult{
		{Title: "tutorial houseplants", Engine: types.ProfileGeneral},
	}
	themes := ExtractThemes(results)
	if len(themes) < 2 || themes[0] != "tutorial" {
		t.Errorf("themes = %v, want tutorial ranked first by doubled weight", themes)
	}
}

func TestExtractThemesEmpty(t *testing.T) {
	if themes := ExtractThemes(nil); len(themes) != 0 {
		t.Errorf("themes from no input = %v", themes)
	}
}

func TestSynthesizeInsights(t *testing.T) {
	ai := &fakeAI{response: `Some preamble.
- Use practical examples when you start out.
- The history of the field dates to 1953.
- A tutorial is the fastest way in.
Closing remark.`}

	rec := &events.Recorder{}
	s := New(ai, rec)
	results := []types.EngineResult{result(types.ProfileGeneral, "topic guide", 0.9)}

	syn := s.Synthesize(context.Background(), "run-1", "topic", results)

	// Only the bullets carrying practical keywords survive the filter.
	if len(syn.KeyInsights) != 2 {
		t.Fatalf("KeyInsights = %v, want the two practical bullets", syn.KeyInsights)
	}
	for _, in := range syn.KeyInsights {
		if in == "The history of the field dates to 1953." {
			t.Error("non-practical bullet kept despite practical matches existing")
		}
	}

	evs := rec.ByStage("synthesis")
	if len(evs) != 1 || !evs[0].Success {
		t.Errorf("synthesis event = %+v", evs)
	}
}

func TestSynthesizeKeepsAllWhenNonePractical(t *testing.T) {
	ai := &fakeAI{response: "- Fact one.\n- Fact two.\n"}
	s := New(ai, nil)

	syn := s.Synthesize(context.Background(), "run-1", "topic",
		[]types.EngineResult{result(types.ProfileGeneral, "plain topic", 0.9)})

	if len(syn.KeyInsights) != 2 {
		t.Errorf("KeyInsights = %v, want both bullets kept as fallback", syn.KeyInsights)
	}
}

func TestSynthesizeNeverFails(t *testing.T) {
	tests := []struct {
		name    string
		ai      *fakeAI
		results []types.EngineResult
	}{
		{"completion error", &fakeAI{err: errors.New("down")},
			[]types.EngineResult{result(types.ProfileGeneral, "t", 0.9)}},
		{"no bullets in response", &fakeAI{response: "Just prose, no list."},
			[]types.EngineResult{result(types.ProfileGeneral, "t", 0.9)}},
		{"no evidence at all", &fakeAI{response: "- bullet"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			syn := New(tt.ai, nil).Synthesize(context.Background(), "run-1", "topic", tt.results)
			if len(syn.KeyInsights) != 0 {
				t.Errorf("KeyInsights = %v, want empty", syn.KeyInsights)
			}
			if tt.results == nil && syn.Comprehensiveness != 0 {
				t.Errorf("Comprehensiveness = %v, want 0 with no evidence", syn.Comprehensiveness)
			}
		})
	}
}

func TestParseBullets(t *testing.T) {
	text := "- dash\n* star\n• dot\n1. numbered\n2) paren\nplain line\n-missing space"
	got := parseBullets(text)
	want := []string{"dash", "star", "dot", "numbered", "paren"}
	if len(got) != len(want) {
		t.Fatalf("parseBullets = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("bullet %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestSourceQuality(t *testing.T) {
	credible := func(n int) []types.EngineResult {
		var rs []types.EngineResult
		for i := 0; i < n; i++ {
			rs = append(rs, types.EngineResult{
				URL: "https://en.wikipedia.org/wiki/x", Engine: types.ProfileGeneral, RelevanceScore: 0.9})
		}
		return rs
	}

	if q := sourceQuality(credible(6)); q != types.QualityHigh {
		t.Errorf("credible+popular evidence = %q, want high", q)
	}
	if q := sourceQuality(nil); q != types.QualityLow {
		t.Errorf("no evidence = %q, want low", q)
	}

	weak := []types.EngineResult{
		{URL: "https://random.biz", Engine: types.ProfileVideo, RelevanceScore: 0.3},
		{URL: "https://random2.biz", Engine: types.ProfileVideo, RelevanceScore: 0.3},
	}
	if q := sourceQuality(weak); q != types.QualityLow {
		t.Errorf("weak evidence = %q, want low", q)
	}
}

func TestComprehensiveness(t *testing.T) {
	// Full marks: all five engines, 20+ results, 5+ general.
	var full []types.EngineResult
	for i := 0; i < 5; i++ {
		for _, p := range types.AllProfiles {
			full = append(full, types.EngineResult{Engine: p})
		}
	}
	if got := comprehensiveness(full); math.Abs(got-1.0) > 1e-9 {
		t.Errorf("comprehensiveness(full) = %v, want 1.0", got)
	}

	// Single engine, single result: 0.4*(1/5) + 0.4*(1/20) + 0.2*(1/5).
	one := []types.EngineResult{{Engine: types.ProfileGeneral}}
	want := 0.4*0.2 + 0.4*0.05 + 0.2*0.2
	if got := comprehensiveness(one); math.Abs(got-want) > 1e-9 {
		t.Errorf("comprehensiveness(one) = %v, want %v", got, want)
	}

	if got := comprehensiveness(nil); got != 0 {
		t.Errorf("comprehensiveness(nil) = %v, want 0", got)
	}
}

func TestPracticalFocus(t *testing.T) {
	practical := []types.EngineResult{
		{Title: "hands-on tutorial", Engine: types.ProfileGeneral},
		{Title: "practical guide", Engine: types.ProfileCommunity},
	}
	if got := practicalFocus(practical); got != types.QualityHigh {
		t.Errorf("practicalFocus = %q, want high", got)
	}

	theoretical := []types.EngineResult{
		{Title: "formal proof", Engine: types.ProfileAcademic},
		{Title: "axiomatic treatment", Engine: types.ProfileAcademic},
	}
	if got := practicalFocus(theoretical); got != types.QualityLow {
		t.Errorf("practicalFocus = %q, want low", got)
	}

	if got := practicalFocus(nil); got != types.QualityLow {
		t.Errorf("practicalFocus(nil) = %q, want low", got)
	}
}
