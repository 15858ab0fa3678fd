// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"strings"

	"github.com/pdiddy/learning-engine/pkg/types"
)

// credibleHostMarkers raise a source's credibility score.
var credibleHostMarkers = []string{
	".edu", ".gov", "arxiv.org", "scholar.google", "pubmed",
	"nature.com", "sciencedirect", "springer", "ieee.org", "acm.org",
	"wikipedia.org",
}

// Attribute builds source attributions for the evidence: a credibility
// heuristic, a content-type classification, and which content sections
// cited each source.
func Attribute(evidence []types.EngineResult, content types.GeneratedContent) []types.SourceAttribution {
	attributions := make([]types.SourceAttribution, 0, len(evidence))
	for _, r := range evidence {
		attributions = append(attributions, types.SourceAttribution{
			URL:         r.URL,
			Title:       r.Title,
			Credibility: credibility(r),
			ContentType: classify(r.URL, r.Title),
			Sections:    citingSections(r, content),
		})
	}
	return attributions
}

// credibility scores a source in [0,1] from URL and title heuristics.
func credibility(r types.EngineResult) float64 {
	score := 0.5
	lower := strings.ToLower(r.URL)

	for _, marker := range credibleHostMarkers {
		if strings.Contains(lower, marker) {
			score += 0.3
			break
		}
	}
	if strings.HasPrefix(lower, "https://") {
		score += 0.1
	}
	// A descriptive title suggests a real page rather than a stub.
	if len(r.Title) > 20 && r.Title != "Untitled" {
		score += 0.1
	}
	if r.URL == "#" {
		score = 0.1
	}

	if score > 1 {
		score = 1
	}
	return score
}

// classify buckets a source by URL and title patterns.
func classify(url, title string) string {
	lower := strings.ToLower(url + " " + title)
	switch {
	case containsAny(lower, []string{"youtube", "vimeo", "/watch", "video"}):
		return "video"
	case containsAny(lower, []string{"reddit", "stackexchange", "stackoverflow", "forum", "discussion"}):
		return "discussion"
	case containsAny(lower, []string{"arxiv", ".edu", "doi.org", "journal", "study", "research paper"}):
		return "academic"
	case containsAny(lower, []string{"wikipedia", "encyclopedia", "dictionary", "glossary"}):
		return "reference"
	default:
		return "article"
	}
}

// citingSections lists titles of sections whose sources reference this
// result by URL or title.
func citingSections(r types.EngineResult, content types.GeneratedContent) []string {
	var titles []string
	for _, sec := range content.Sections {
		for _, src := range sec.Sources {
			if src == r.URL || strings.EqualFold(src, r.Title) {
				titles = append(titles, sec.Title)
				break
			}
		}
	}
	return titles
}

func containsAny(text string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(text, n) {
			return true
		}
	}
	return false
}
