// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package synthesis scores and distills gathered evidence. It annotates
// each result with a practical-relevance weight, extracts insights and
// themes, and grades aggregate source quality. This stage never fails:
// with no input it returns empty insights and low/zero scores.
//
// Implements: prd004-synthesis; docs/ARCHITECTURE.md § Synthesis.
package synthesis

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/pdiddy/learning-engine/internal/completion"
	"github.com/pdiddy/learning-engine/internal/events"
	"github.com/pdiddy/learning-engine/pkg/types"
)

const (
	maxInsights    = 5
	maxThemes      = 5
	contextResults = 20
)

// practicalKeywords indicate application-oriented content. Each match in
// a result's title+snippet raises its practical weight.
var practicalKeywords = []string{
	"practical", "application", "example", "use", "how to", "guide",
	"tutorial", "real world", "implementation", "benefits", "advantages",
}

// practicalTerms get a 2x multiplier during theme extraction.
var practicalTerms = map[string]bool{
	"practical": true, "application": true, "example": true,
	"guide": true, "tutorial": true, "implementation": true,
	"benefits": true, "advantages": true,
}

// engineWeights boost results from profiles that skew practical.
var engineWeights = map[types.EngineProfile]float64{
	types.ProfileGeneral:   1.3,
	types.ProfileCommunity: 1.2,
	types.ProfileAcademic:  1.1,
}

// stopwords are excluded from theme extraction.
var stopwords = map[string]bool{
	"about": true, "after": true, "being": true, "between": true,
	"could": true, "every": true, "first": true, "other": true,
	"their": true, "there": true, "these": true, "thing": true,
	"through": true, "under": true, "using": true, "where": true,
	"which": true, "while": true, "would": true, "should": true,
}

// Synthesizer distills evidence into a Synthesis.
type Synthesizer struct {
	ai      completion.Service
	emitter events.Emitter
}

// New builds a Synthesizer. A nil emitter is replaced with events.Nop.
func New(ai completion.Service, emitter events.Emitter) *Synthesizer {
	if emitter == nil {
		emitter = events.Nop{}
	}
	return &Synthesizer{ai: ai, emitter: emitter}
}

// Synthesize weights results in place, extracts insights and themes, and
// grades the evidence. The results slice is the only value this stage
// mutates anywhere in the pipeline, and only its PracticalWeight field.
func (s *Synthesizer) Synthesize(ctx context.Context, runID, topic string, results []types.EngineResult) types.Synthesis {
	start := time.Now()

	WeighResults(results)

	context := topWeighted(results, contextResults)

	insights, note := s.extractInsights(ctx, topic, context)
	themes := ExtractThemes(context)

	syn := types.Synthesis{
		KeyInsights:       insights,
		ContentThemes:     themes,
		SourceQuality:     sourceQuality(results),
		Comprehensiveness: comprehensiveness(results),
		PracticalFocus:    practicalFocus(results),
	}

	s.emitter.Emit(events.Event{
		RunID:    runID,
		Topic:    topic,
		Stage:    "synthesis",
		Duration: time.Since(start),
		Success:  true,
		Counts: map[string]int{
			"results":  len(results),
			"insights": len(syn.KeyInsights),
			"themes":   len(syn.ContentThemes),
		},
		Note: note,
	})
	return syn
}

// WeighResults computes PracticalWeight for every result in place:
// relevance scaled by engine profile and by practical-keyword matches,
// capped at 1.0.
func WeighResults(results []types.EngineResult) {
	for i := range results {
		w := results[i].RelevanceScore
		if mult, ok := engineWeights[results[i].Engine]; ok {
			w *= mult
		}
		matches := keywordMatches(results[i].Title + " " + results[i].Snippet)
		w *= 1 + 0.1*float64(matches)
		results[i].PracticalWeight = math.Min(w, 1.0)
	}
}

func keywordMatches(text string) int {
	lower := strings.ToLower(text)
	n := 0
	for _, kw := range practicalKeywords {
		if strings.Contains(lower, kw) {
			n++
		}
	}
	return n
}

// topWeighted returns the n highest-weighted results without reordering
// the caller's slice.
func topWeighted(results []types.EngineResult, n int) []types.EngineResult {
	sorted := make([]types.EngineResult, len(results))
	copy(sorted, results)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].PracticalWeight > sorted[j].PracticalWeight
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

// extractInsights asks the model for free-text insights and parses
// bullet lines. Bullets carrying a practical keyword are preferred; when
// none qualify, all parsed bullets are kept unfiltered as a fallback.
func (s *Synthesizer) extractInsights(ctx context.Context, topic string, context []types.EngineResult) ([]string, string) {
	if len(context) == 0 {
		return nil, "no evidence for insight extraction"
	}

	text, err := s.ai.GenerateText(ctx, insightPrompt(topic, context))
	if err != nil {
		return nil, "insight extraction failed"
	}

	bullets := parseBullets(text)
	if len(bullets) == 0 {
		return nil, "no bullets in insight response"
	}

	var practical []string
	for _, b := range bullets {
		if keywordMatches(b) > 0 {
			practical = append(practical, b)
		}
	}

	note := ""
	if len(practical) == 0 {
		practical = bullets
		note = "no practical insights matched, kept all"
	}
	if len(practical) > maxInsights {
		practical = practical[:maxInsights]
	}
	return practical, note
}

// parseBullets extracts bullet-style lines ("- ", "* ", "• ", "1. ").
func parseBullets(text string) []string {
	var bullets []string
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		var body string
		switch {
		case strings.HasPrefix(trimmed, "- "):
			body = trimmed[2:]
		case strings.HasPrefix(trimmed, "* "):
			body = trimmed[2:]
		case strings.HasPrefix(trimmed, "• "):
			body = strings.TrimPrefix(trimmed, "• ")
		default:
			if len(trimmed) > 2 && trimmed[0] >= '1' && trimmed[0] <= '9' && (trimmed[1] == '.' || trimmed[1] == ')') {
				body = trimmed[2:]
			}
		}
		body = strings.TrimSpace(body)
		if body != "" {
			bullets = append(bullets, body)
		}
	}
	return bullets
}

// ExtractThemes does frequency-weighted keyword extraction over the
// evidence: words longer than four characters, practical terms counted
// double, top five by weight.
func ExtractThemes(results []types.EngineResult) []string {
	counts := make(map[string]float64)
	for _, r := range results {
		for _, word := range strings.Fields(strings.ToLower(r.Title + " " + r.Snippet)) {
			word = strings.Trim(word, ".,;:!?\"'()[]")
			if len(word) <= 4 || stopwords[word] {
				continue
			}
			weight := 1.0
			if practicalTerms[word] {
				weight = 2.0
			}
			counts[word] += weight
		}
	}

	type themeCount struct {
		word  string
		count float64
	}
	ranked := make([]themeCount, 0, len(counts))
	for w, c := range counts {
		ranked = append(ranked, themeCount{w, c})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].count != ranked[j].count {
			return ranked[i].count > ranked[j].count
		}
		return ranked[i].word < ranked[j].word
	})

	var themes []string
	for _, tc := range ranked {
		if len(themes) >= maxThemes {
			break
		}
		themes = append(themes, tc.word)
	}
	return themes
}

// credibleHosts are treated as high-credibility alongside .edu/.gov.
var credibleHosts = []string{
	"arxiv.org", "scholar.google", "jstor.org", "pubmed", "nature.com",
	"sciencedirect", "springer", "ieee.org", "acm.org", "wikipedia.org",
}

func isCredibleURL(url string) bool {
	lower := strings.ToLower(url)
	if strings.Contains(lower, ".edu") || strings.Contains(lower, ".gov") {
		return true
	}
	for _, host := range credibleHosts {
		if strings.Contains(lower, host) {
			return true
		}
	}
	return false
}

// sourceQuality blends average relevance with the balance between
// credible-domain coverage and general/community coverage.
func sourceQuality(results []types.EngineResult) types.QualityLevel {
	if len(results) == 0 {
		return types.QualityLow
	}

	var totalRelevance float64
	credible := 0
	popular := 0
	for _, r := range results {
		totalRelevance += r.RelevanceScore
		if isCredibleURL(r.URL) {
			credible++
		}
		if r.Engine == types.ProfileGeneral || r.Engine == types.ProfileCommunity {
			popular++
		}
	}

	avg := totalRelevance / float64(len(results))
	balance := (float64(credible) + float64(popular)) / (2 * float64(len(results)))

	switch {
	case avg > 0.7 && balance > 0.4:
		return types.QualityHigh
	case avg > 0.5 && balance > 0.25:
		return types.QualityMedium
	default:
		return types.QualityLow
	}
}

// comprehensiveness blends engine diversity, result volume, and general
// coverage into [0,1].
func comprehensiveness(results []types.EngineResult) float64 {
	if len(results) == 0 {
		return 0
	}

	engines := make(map[types.EngineProfile]bool)
	general := 0
	for _, r := range results {
		engines[r.Engine] = true
		if r.Engine == types.ProfileGeneral {
			general++
		}
	}

	diversity := float64(len(engines)) / float64(len(types.AllProfiles))
	volume := math.Min(float64(len(results))/20, 1)
	generalCoverage := math.Min(float64(general)/5, 1)

	return 0.4*diversity + 0.4*volume + 0.2*generalCoverage
}

// practicalFocus blends the general/community ratio with the
// keyword-matched ratio, thresholded at 0.6 and 0.3.
func practicalFocus(results []types.EngineResult) types.QualityLevel {
	if len(results) == 0 {
		return types.QualityLow
	}

	popular := 0
	matched := 0
	for _, r := range results {
		if r.Engine == types.ProfileGeneral || r.Engine == types.ProfileCommunity {
			popular++
		}
		if keywordMatches(r.Title+" "+r.Snippet) > 0 {
			matched++
		}
	}

	blend := (float64(popular) + float64(matched)) / (2 * float64(len(results)))
	switch {
	case blend >= 0.6:
		return types.QualityHigh
	case blend >= 0.3:
		return types.QualityMedium
	default:
		return types.QualityLow
	}
}

// insightPrompt renders the free-text insight extraction prompt.
func insightPrompt(topic string, context []types.EngineResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are synthesizing research about %q for a learning platform.\n\nEvidence:\n", topic)
	for i, r := range context {
		fmt.Fprintf(&b, "%d. [%s] %s — %s\n", i+1, r.Engine, r.Title, r.Snippet)
	}
	b.WriteString(`
List the most important insights a learner should take from this evidence,
one per line, each starting with "- ". Favor practical, applicable
insights over trivia. No headings, no commentary.`)
	return b.String()
}
