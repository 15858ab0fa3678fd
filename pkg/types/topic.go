// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the topic-research pipeline.
// Implements: prd001-understanding (TopicUnderstanding);
//
//	prd002-planning (ResearchPlan);
//	prd003-research (EngineResult);
//	prd004-synthesis (Synthesis);
//	prd005-content (GeneratedContent, ContentSection);
//	prd007-subtopics (Subtopic).
//
// See docs/ARCHITECTURE.md § Pipeline Interface, § Data Structures.
package types

// EngineProfile names a search-gateway backend profile. Each profile maps
// to a group of engines on the metasearch endpoint.
type EngineProfile string

const (
	ProfileGeneral       EngineProfile = "general"
	ProfileAcademic      EngineProfile = "academic"
	ProfileVideo         EngineProfile = "video"
	ProfileCommunity     EngineProfile = "community"
	ProfileComputational EngineProfile = "computational"
)

// AllProfiles lists every engine profile the gateway supports, in the
// order prompts present them.
var AllProfiles = []EngineProfile{
	ProfileGeneral,
	ProfileAcademic,
	ProfileVideo,
	ProfileCommunity,
	ProfileComputational,
}

// TopicCategory classifies the subject area of a topic.
type TopicCategory string

const (
	CategoryAcademic      TopicCategory = "academic"
	CategoryTechnical     TopicCategory = "technical"
	CategoryCultural      TopicCategory = "cultural"
	CategoryHistorical    TopicCategory = "historical"
	CategoryScientific    TopicCategory = "scientific"
	CategoryArtistic      TopicCategory = "artistic"
	CategoryBusiness      TopicCategory = "business"
	CategorySocial        TopicCategory = "social"
	CategoryPhilosophical TopicCategory = "philosophical"
	CategoryPractical     TopicCategory = "practical"
)

// ValidCategories is the set of accepted TopicCategory values.
var ValidCategories = map[TopicCategory]bool{
	CategoryAcademic:      true,
	CategoryTechnical:     true,
	CategoryCultural:      true,
	CategoryHistorical:    true,
	CategoryScientific:    true,
	CategoryArtistic:      true,
	CategoryBusiness:      true,
	CategorySocial:        true,
	CategoryPhilosophical: true,
	CategoryPractical:     true,
}

// Complexity grades how demanding a topic or subtopic is for a learner.
type Complexity string

const (
	ComplexityBeginner     Complexity = "beginner"
	ComplexityIntermediate Complexity = "intermediate"
	ComplexityAdvanced     Complexity = "advanced"
)

// ValidComplexities is the set of accepted Complexity values.
var ValidComplexities = map[Complexity]bool{
	ComplexityBeginner:     true,
	ComplexityIntermediate: true,
	ComplexityAdvanced:     true,
}

// ResearchApproach selects the overall shape of the research strategy.
type ResearchApproach string

const (
	ApproachBroadOverview   ResearchApproach = "broad-overview"
	ApproachFocusedDeepDive ResearchApproach = "focused-deep-dive"
	ApproachComparative     ResearchApproach = "comparative"
	ApproachHistorical      ResearchApproach = "historical"
)

// ValidApproaches is the set of accepted ResearchApproach values.
var ValidApproaches = map[ResearchApproach]bool{
	ApproachBroadOverview:   true,
	ApproachFocusedDeepDive: true,
	ApproachComparative:     true,
	ApproachHistorical:      true,
}

// TopicUnderstanding is the grounded classification of a topic, built from
// live search hits rather than model priors. Created once per root topic
// and treated as immutable by later stages.
type TopicUnderstanding struct {
	// Definition is a one-or-two sentence definition drawn from the
	// grounding search hits.
	Definition string `json:"definition" yaml:"definition"`

	// Category is the subject-area classification.
	Category TopicCategory `json:"category" yaml:"category"`

	// Complexity estimates the entry difficulty for a learner.
	Complexity Complexity `json:"complexity" yaml:"complexity"`

	// RelevantDomains lists knowledge domains the topic touches, most
	// relevant first.
	RelevantDomains []string `json:"relevant_domains" yaml:"relevant_domains"`

	// EngineRecommendations maps each engine profile to whether it is
	// worth querying for this topic.
	EngineRecommendations map[EngineProfile]bool `json:"engine_recommendations" yaml:"engine_recommendations"`

	// ResearchApproach selects the planning strategy.
	ResearchApproach ResearchApproach `json:"research_approach" yaml:"research_approach"`
}

// UserContext carries optional audience information supplied by the host
// application. Level feeds the cache key so results are memoized per
// audience.
type UserContext struct {
	// Level is the audience level (e.g. "beginner", "general", "expert").
	Level string `json:"level,omitempty" yaml:"level,omitempty"`

	// Interests lists audience interests the planner may weave into
	// query phrasing.
	Interests []string `json:"interests,omitempty" yaml:"interests,omitempty"`
}
