// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// SectionTier orders content sections by learning progression.
type SectionTier string

const (
	TierFoundation  SectionTier = "foundation"
	TierBuilding    SectionTier = "building"
	TierApplication SectionTier = "application"
)

// TierRank maps a tier to its position in the progression. Unknown tiers
// rank as foundation.
func TierRank(t SectionTier) int {
	switch t {
	case TierBuilding:
		return 1
	case TierApplication:
		return 2
	default:
		return 0
	}
}

// CommunityInsight is a community-sourced note attached to a section.
type CommunityInsight struct {
	// Type is one of: opinion, technique, tip, example, discussion.
	Type string `json:"type" yaml:"type"`

	Content string `json:"content" yaml:"content"`

	// Author credits the community member, when known.
	Author string `json:"author,omitempty" yaml:"author,omitempty"`

	// Source names the community the insight came from when no author
	// is known.
	Source string `json:"source,omitempty" yaml:"source,omitempty"`

	Context string `json:"context,omitempty" yaml:"context,omitempty"`
}

// ContentSection is one progressive unit of the generated artifact.
type ContentSection struct {
	Title   string `json:"title" yaml:"title"`
	Content string `json:"content" yaml:"content"`

	// Sources lists URLs or titles of the evidence the section drew on.
	Sources []string `json:"sources,omitempty" yaml:"sources,omitempty"`

	// Tier places the section in the foundation→building→application
	// progression.
	Tier SectionTier `json:"tier" yaml:"tier"`

	// LearningObjective states what the reader should take from the
	// section.
	LearningObjective string `json:"learning_objective" yaml:"learning_objective"`

	// Community holds optional community-sourced insights rendered as a
	// block after the section body.
	Community []CommunityInsight `json:"community,omitempty" yaml:"community,omitempty"`
}

// GeneratedContent is the assembled learning artifact. Built by the
// content stage; the validation stage may mutate it in place during its
// logged auto-repair pass, no other stage mutates it.
type GeneratedContent struct {
	Title string `json:"title" yaml:"title"`

	// Content is the assembled markdown for the whole artifact.
	Content string `json:"content" yaml:"content"`

	Sections     []ContentSection `json:"sections" yaml:"sections"`
	KeyTakeaways []string         `json:"key_takeaways" yaml:"key_takeaways"`
	NextSteps    []string         `json:"next_steps" yaml:"next_steps"`

	// EstimatedReadMinutes is derived from total character count at
	// roughly 200 words per minute.
	EstimatedReadMinutes int `json:"estimated_read_minutes" yaml:"estimated_read_minutes"`
}

// ValidationResult accumulates content-audit findings. Ephemeral: it is
// reported and logged, never persisted.
type ValidationResult struct {
	// Valid is true exactly when Issues is empty.
	Valid       bool     `json:"valid" yaml:"valid"`
	Issues      []string `json:"issues" yaml:"issues"`
	Suggestions []string `json:"suggestions" yaml:"suggestions"`
}
