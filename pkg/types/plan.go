// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// PlannedQuery is one search the research plan schedules against a
// specific engine profile.
type PlannedQuery struct {
	// Query is the search string sent to the gateway.
	Query string `json:"query" yaml:"query"`

	// Engine is the profile the query targets.
	Engine EngineProfile `json:"engine" yaml:"engine"`

	// Reasoning explains why this query is in the plan.
	Reasoning string `json:"reasoning" yaml:"reasoning"`
}

// ResearchPlan is the multi-query, multi-engine strategy produced by the
// planning stage. Immutable once validated: at least five queries must
// target the general profile before execution may proceed.
type ResearchPlan struct {
	// Queries lists the planned searches, general queries first.
	Queries []PlannedQuery `json:"queries" yaml:"queries"`

	// Strategy is a free-text rationale for the plan.
	Strategy string `json:"strategy" yaml:"strategy"`

	// ExpectedOutcomes lists what the plan should surface.
	ExpectedOutcomes []string `json:"expected_outcomes" yaml:"expected_outcomes"`

	// EngineDistribution counts planned queries per engine profile. It is
	// recomputed from Queries after any repair pass.
	EngineDistribution map[EngineProfile]int `json:"engine_distribution" yaml:"engine_distribution"`
}

// GeneralQueryCount returns how many planned queries target the general
// profile.
func (p ResearchPlan) GeneralQueryCount() int {
	n := 0
	for _, q := range p.Queries {
		if q.Engine == ProfileGeneral {
			n++
		}
	}
	return n
}
