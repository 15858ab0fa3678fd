// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package plan turns a topic understanding into a concrete multi-query,
// multi-engine research plan. Plans always carry at least five general
// queries; a repair pass backfills from a fixed template bank when the
// model under-delivers, and a template-only plan is built when the model
// fails outright. An invalid plan after repair is fatal — nothing
// downstream can run without one.
//
// Implements: prd002-planning; docs/ARCHITECTURE.md § Planning.
package plan

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pdiddy/learning-engine/internal/completion"
	"github.com/pdiddy/learning-engine/internal/events"
	"github.com/pdiddy/learning-engine/pkg/types"
)

// MinGeneralQueries is the floor of general-profile queries every valid
// plan carries.
const MinGeneralQueries = 5

// ErrInvalidPlan reports a plan that failed validation after repair.
var ErrInvalidPlan = errors.New("invalid research plan")

// generalTemplates is the fixed bank used to synthesize general queries.
// Order matters: repair takes them top-down, skipping phrasings the
// model already produced.
var generalTemplates = []struct {
	format    string
	reasoning string
}{
	{"%s overview fundamentals", "broad orientation and core concepts"},
	{"%s practical applications", "real-world uses of the topic"},
	{"%s beginner guide", "entry-level explanations"},
	{"%s benefits importance", "why the topic matters"},
	{"%s frequently asked questions", "common points of confusion"},
	{"%s explained simply", "plain-language framing"},
	{"%s types variations", "taxonomy of the topic"},
	{"%s process steps", "how the topic works end to end"},
	{"%s pros and cons", "trade-offs and limitations"},
	{"%s history background", "origin and evolution"},
	{"%s learning resources", "where to study further"},
	{"%s tips best practices", "practitioner advice"},
}

// specializedTemplates provides per-profile query shapes for the
// template-only fallback plan.
var specializedTemplates = map[types.EngineProfile][]string{
	types.ProfileAcademic:      {"%s research papers studies", "%s academic analysis"},
	types.ProfileVideo:         {"%s video tutorial explained", "%s lecture walkthrough"},
	types.ProfileCommunity:     {"%s discussion experiences tips", "%s community advice"},
	types.ProfileComputational: {"%s data statistics facts", "%s technical specifications"},
}

// Planner builds research plans.
type Planner struct {
	ai      completion.Service
	emitter events.Emitter
}

// New builds a Planner. A nil emitter is replaced with events.Nop.
func New(ai completion.Service, emitter events.Emitter) *Planner {
	if emitter == nil {
		emitter = events.Nop{}
	}
	return &Planner{ai: ai, emitter: emitter}
}

// planDraft is the structured response shape requested from the model.
type planDraft struct {
	Queries []struct {
		Query     types.FlexString `json:"query"`
		Engine    string           `json:"engine"`
		Reasoning types.FlexString `json:"reasoning"`
	} `json:"researchQueries"`
	Strategy         types.FlexString   `json:"researchStrategy"`
	ExpectedOutcomes []types.FlexString `json:"expectedOutcomes"`
}

// Plan produces a validated research plan for the topic. The returned
// error wraps ErrInvalidPlan only when repair could not reach the
// general-query floor; completion failures degrade to a template plan.
func (p *Planner) Plan(ctx context.Context, runID, topic string, tu types.TopicUnderstanding, user *types.UserContext) (types.ResearchPlan, error) {
	start := time.Now()

	plan, note := p.draft(ctx, topic, tu, user)

	repaired := repair(&plan, topic)
	if repaired > 0 {
		note = strings.TrimSpace(note + fmt.Sprintf(" repaired with %d template queries", repaired))
	}
	plan.EngineDistribution = distribution(plan.Queries)

	if err := Validate(plan); err != nil {
		p.emit(runID, topic, start, false, plan, note)
		return types.ResearchPlan{}, err
	}

	p.emit(runID, topic, start, true, plan, note)
	return plan, nil
}

// draft asks the model for a plan, degrading to the template-only plan
// on failure. The note describes any degradation.
func (p *Planner) draft(ctx context.Context, topic string, tu types.TopicUnderstanding, user *types.UserContext) (types.ResearchPlan, string) {
	var draft planDraft
	if err := p.ai.GenerateStructured(ctx, planPrompt(topic, tu, user), &draft); err != nil {
		return templatePlan(topic, tu), "completion failed, template plan used"
	}

	var plan types.ResearchPlan
	plan.Strategy = draft.Strategy.String()
	plan.ExpectedOutcomes = types.FlexStrings(draft.ExpectedOutcomes)
	for _, q := range draft.Queries {
		query := strings.TrimSpace(q.Query.String())
		if query == "" {
			continue
		}
		engine := types.EngineProfile(strings.ToLower(strings.TrimSpace(q.Engine)))
		if !knownProfile(engine) {
			engine = types.ProfileGeneral
		}
		plan.Queries = append(plan.Queries, types.PlannedQuery{
			Query:     query,
			Engine:    engine,
			Reasoning: q.Reasoning.String(),
		})
	}

	if len(plan.Queries) == 0 {
		return templatePlan(topic, tu), "model returned no queries, template plan used"
	}
	return plan, ""
}

// repair enforces the general-query floor by prepending template
// queries, skipping templates whose phrasing already appears in the
// plan. Returns how many queries were added.
func repair(plan *types.ResearchPlan, topic string) int {
	missing := MinGeneralQueries - plan.GeneralQueryCount()
	if missing <= 0 {
		return 0
	}

	existing := make(map[string]bool, len(plan.Queries))
	for _, q := range plan.Queries {
		existing[types.NormalizeTitle(q.Query)] = true
	}

	var added []types.PlannedQuery
	for _, tmpl := range generalTemplates {
		if len(added) >= missing {
			break
		}
		query := fmt.Sprintf(tmpl.format, topic)
		if existing[types.NormalizeTitle(query)] {
			continue
		}
		added = append(added, types.PlannedQuery{
			Query:     query,
			Engine:    types.ProfileGeneral,
			Reasoning: tmpl.reasoning,
		})
	}

	// General queries run first so the balanced core of the evidence
	// lands even if specialized engines misbehave.
	plan.Queries = append(added, plan.Queries...)
	return len(added)
}

// templatePlan builds a plan entirely from the template bank plus up to
// two specialized queries per recommended engine.
func templatePlan(topic string, tu types.TopicUnderstanding) types.ResearchPlan {
	plan := types.ResearchPlan{
		Strategy: fmt.Sprintf("Template-driven %s research on %q across general and recommended engines.", tu.ResearchApproach, topic),
		ExpectedOutcomes: []string{
			"balanced general coverage of the topic",
			"engine-specific depth where recommended",
		},
	}

	for _, tmpl := range generalTemplates[:MinGeneralQueries] {
		plan.Queries = append(plan.Queries, types.PlannedQuery{
			Query:     fmt.Sprintf(tmpl.format, topic),
			Engine:    types.ProfileGeneral,
			Reasoning: tmpl.reasoning,
		})
	}

	for _, profile := range types.AllProfiles {
		if profile == types.ProfileGeneral || !tu.EngineRecommendations[profile] {
			continue
		}
		for _, format := range specializedTemplates[profile] {
			plan.Queries = append(plan.Queries, types.PlannedQuery{
				Query:     fmt.Sprintf(format, topic),
				Engine:    profile,
				Reasoning: fmt.Sprintf("recommended %s engine coverage", profile),
			})
		}
	}

	return plan
}

// Validate checks the invariants every executable plan must hold: a
// non-empty query list and at least MinGeneralQueries general queries.
func Validate(plan types.ResearchPlan) error {
	if len(plan.Queries) == 0 {
		return fmt.Errorf("%w: no queries", ErrInvalidPlan)
	}
	if n := plan.GeneralQueryCount(); n < MinGeneralQueries {
		return fmt.Errorf("%w: %d general queries, need %d", ErrInvalidPlan, n, MinGeneralQueries)
	}
	return nil
}

func distribution(queries []types.PlannedQuery) map[types.EngineProfile]int {
	dist := make(map[types.EngineProfile]int)
	for _, q := range queries {
		dist[q.Engine]++
	}
	return dist
}

func knownProfile(p types.EngineProfile) bool {
	for _, known := range types.AllProfiles {
		if p == known {
			return true
		}
	}
	return false
}

func (p *Planner) emit(runID, topic string, start time.Time, success bool, plan types.ResearchPlan, note string) {
	p.emitter.Emit(events.Event{
		RunID:    runID,
		Topic:    topic,
		Stage:    "planning",
		Duration: time.Since(start),
		Success:  success,
		Counts: map[string]int{
			"queries":         len(plan.Queries),
			"general_queries": plan.GeneralQueryCount(),
		},
		Note: note,
	})
}

// planPrompt renders the planning prompt from the understanding.
func planPrompt(topic string, tu types.TopicUnderstanding, user *types.UserContext) string {
	var recommended []string
	for _, p := range types.AllProfiles {
		if p != types.ProfileGeneral && tu.EngineRecommendations[p] {
			recommended = append(recommended, string(p))
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Design a research plan for the topic %q.\n\n", topic)
	fmt.Fprintf(&b, "Topic definition: %s\n", tu.Definition)
	fmt.Fprintf(&b, "Category: %s. Complexity: %s. Approach: %s.\n", tu.Category, tu.Complexity, tu.ResearchApproach)
	if len(tu.RelevantDomains) > 0 {
		fmt.Fprintf(&b, "Relevant domains: %s.\n", strings.Join(tu.RelevantDomains, ", "))
	}
	if user != nil && user.Level != "" {
		fmt.Fprintf(&b, "Audience level: %s.\n", user.Level)
	}
	if user != nil && len(user.Interests) > 0 {
		fmt.Fprintf(&b, "Audience interests: %s.\n", strings.Join(user.Interests, ", "))
	}
	fmt.Fprintf(&b, `
Produce 8 to 12 search queries as a JSON object:
{"researchQueries": [{"query": "...", "engine": "...", "reasoning": "..."}],
 "researchStrategy": "...", "expectedOutcomes": ["..."]}

Rules:
- exactly 5 or more queries with engine "general", each phrased differently for balanced coverage
- 3 to 7 specialized queries using only these engines: %s
- every query must be a plausible web search, not a question to an assistant`,
		strings.Join(recommended, ", "))
	return b.String()
}
