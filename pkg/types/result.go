// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"strings"
	"time"
	"unicode"
)

// EngineResult is one normalized search hit, tagged with the engine
// profile that produced it. Produced by the research stage; the synthesis
// stage annotates PracticalWeight in place, nothing else mutates it.
type EngineResult struct {
	// Title is the hit title ("Untitled" when the gateway omitted one).
	Title string `json:"title" yaml:"title"`

	// URL is the hit location ("#" when missing).
	URL string `json:"url" yaml:"url"`

	// Snippet is the hit summary text ("No description" when missing).
	Snippet string `json:"snippet" yaml:"snippet"`

	// Source identifies the concrete engine that returned the hit, as
	// reported by the gateway (e.g. "duckduckgo", "arxiv").
	Source string `json:"source" yaml:"source"`

	// RelevanceScore is in [0,1]; 0.5 when the gateway gave no score.
	RelevanceScore float64 `json:"relevance_score" yaml:"relevance_score"`

	// Engine is the profile the hit was retrieved under. Cross-engine
	// fallback hits carry "general" here with FallbackFrom set.
	Engine EngineProfile `json:"engine" yaml:"engine"`

	// Reasoning is carried over from the planned query that produced
	// the hit.
	Reasoning string `json:"reasoning" yaml:"reasoning"`

	// PracticalWeight is the synthesis stage's practical-relevance
	// weighting in [0,1]. Zero until synthesis runs.
	PracticalWeight float64 `json:"practical_weight,omitempty" yaml:"practical_weight,omitempty"`

	// FallbackFrom names the profile a failed query originally targeted
	// when this hit came from a cross-engine fallback search.
	FallbackFrom EngineProfile `json:"fallback_from,omitempty" yaml:"fallback_from,omitempty"`
}

// DedupKey returns the identity key used for result deduplication:
// normalized title joined with the URL.
func (r EngineResult) DedupKey() string {
	return NormalizeTitle(r.Title) + "|" + r.URL
}

// NormalizeTitle returns a lowercased, punctuation-stripped version of a
// title with collapsed whitespace.
func NormalizeTitle(title string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(title) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// QualityLevel grades aggregate source quality or practical focus.
type QualityLevel string

const (
	QualityHigh   QualityLevel = "high"
	QualityMedium QualityLevel = "medium"
	QualityLow    QualityLevel = "low"
)

// Synthesis is the scored, distilled view of the gathered evidence.
// Read-only after creation.
type Synthesis struct {
	// KeyInsights holds at most five practical insights.
	KeyInsights []string `json:"key_insights" yaml:"key_insights"`

	// ContentThemes holds at most five recurring themes.
	ContentThemes []string `json:"content_themes" yaml:"content_themes"`

	// SourceQuality grades the credibility balance of the evidence.
	SourceQuality QualityLevel `json:"source_quality" yaml:"source_quality"`

	// Comprehensiveness is in [0,1]; blends engine diversity, result
	// volume, and general-result coverage.
	Comprehensiveness float64 `json:"comprehensiveness" yaml:"comprehensiveness"`

	// PracticalFocus grades how application-oriented the evidence is.
	PracticalFocus QualityLevel `json:"practical_focus" yaml:"practical_focus"`
}

// Subtopic is one prioritized follow-up topic for recursive exploration.
// Each parent topic yields exactly five, with priorities 1 through 5.
type Subtopic struct {
	Title       string     `json:"title" yaml:"title"`
	Description string     `json:"description" yaml:"description"`
	Priority    int        `json:"priority" yaml:"priority"`
	Complexity  Complexity `json:"complexity" yaml:"complexity"`

	// EstimatedReadMinutes is fixed per complexity tier: 5, 10, or 15.
	EstimatedReadMinutes int `json:"estimated_read_minutes" yaml:"estimated_read_minutes"`
}

// SourceAttribution records how one source contributed to the final
// artifact.
type SourceAttribution struct {
	URL   string `json:"url" yaml:"url"`
	Title string `json:"title" yaml:"title"`

	// Credibility is a heuristic score in [0,1] from URL and title
	// patterns.
	Credibility float64 `json:"credibility" yaml:"credibility"`

	// ContentType classifies the source (article, video, discussion,
	// academic, reference).
	ContentType string `json:"content_type" yaml:"content_type"`

	// Sections lists titles of content sections that cite this source.
	Sections []string `json:"sections,omitempty" yaml:"sections,omitempty"`
}

// ResearchMetadata summarizes a pipeline run.
type ResearchMetadata struct {
	TotalSources     int           `json:"total_sources" yaml:"total_sources"`
	ResearchDuration time.Duration `json:"research_duration" yaml:"research_duration"`
	EnginesUsed      []string      `json:"engines_used" yaml:"engines_used"`
	ResearchStrategy string        `json:"research_strategy" yaml:"research_strategy"`
	ConfidenceScore  float64       `json:"confidence_score" yaml:"confidence_score"`
	LastUpdated      time.Time     `json:"last_updated" yaml:"last_updated"`
}

// TopicResearchResult is the pipeline's final output for one topic.
type TopicResearchResult struct {
	Topic     string              `json:"topic" yaml:"topic"`
	Depth     int                 `json:"depth" yaml:"depth"`
	RunID     string              `json:"run_id" yaml:"run_id"`
	Content   GeneratedContent    `json:"content" yaml:"content"`
	Subtopics []Subtopic          `json:"subtopics" yaml:"subtopics"`
	Sources   []SourceAttribution `json:"sources" yaml:"sources"`
	Metadata  ResearchMetadata    `json:"metadata" yaml:"metadata"`

	// CacheKey is slugify(topic) + "-" + audience level, for external
	// memoization. The pipeline itself never caches.
	CacheKey  string    `json:"cache_key" yaml:"cache_key"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`

	// Children holds completed subtopic runs when recursion is enabled.
	Children []*TopicResearchResult `json:"children,omitempty" yaml:"children,omitempty"`
}
