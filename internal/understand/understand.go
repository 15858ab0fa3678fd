// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package understand grounds a bare topic string in live search hits and
// classifies it. The classification never relies on model priors: the
// prompt carries the hits and instructs the model to answer strictly
// from them. This stage never returns an error; on any failure it
// degrades to a fixed fallback understanding.
//
// Implements: prd001-understanding; docs/ARCHITECTURE.md § Understanding.
package understand

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pdiddy/learning-engine/internal/completion"
	"github.com/pdiddy/learning-engine/internal/events"
	"github.com/pdiddy/learning-engine/internal/searxng"
	"github.com/pdiddy/learning-engine/pkg/types"
)

const groundingHits = 5

// Classifier performs grounded topic classification.
type Classifier struct {
	gateway searxng.Gateway
	ai      completion.Service
	emitter events.Emitter
}

// New builds a Classifier. A nil emitter is replaced with events.Nop.
func New(gateway searxng.Gateway, ai completion.Service, emitter events.Emitter) *Classifier {
	if emitter == nil {
		emitter = events.Nop{}
	}
	return &Classifier{gateway: gateway, ai: ai, emitter: emitter}
}

// classification is the structured response shape requested from the
// completion service.
type classification struct {
	Definition            string            `json:"definition"`
	Category              string            `json:"category"`
	Complexity            string            `json:"complexity"`
	RelevantDomains       []types.FlexString `json:"relevantDomains"`
	EngineRecommendations map[string]bool   `json:"engineRecommendations"`
	ResearchApproach      string            `json:"researchApproach"`
}

// Understand classifies the topic from a single grounding search. A
// degraded fallback is returned on zero hits, gateway failure, or a
// malformed classification.
func (c *Classifier) Understand(ctx context.Context, runID, topic string) types.TopicUnderstanding {
	start := time.Now()

	hits, err := c.gateway.Search(ctx, types.ProfileGeneral,
		fmt.Sprintf("what is %q definition meaning explanation", topic))
	if err != nil || len(hits) == 0 {
		c.emit(runID, topic, start, false, 0, "grounding search failed")
		return Fallback(topic)
	}
	if len(hits) > groundingHits {
		hits = hits[:groundingHits]
	}

	var cls classification
	if err := c.ai.GenerateStructured(ctx, classifyPrompt(topic, hits), &cls); err != nil {
		c.emit(runID, topic, start, false, len(hits), "classification failed")
		return Fallback(topic)
	}

	tu, ok := validate(cls)
	if !ok {
		c.emit(runID, topic, start, false, len(hits), "classification malformed")
		return Fallback(topic)
	}

	c.emit(runID, topic, start, true, len(hits), "")
	return tu
}

func (c *Classifier) emit(runID, topic string, start time.Time, success bool, hits int, note string) {
	c.emitter.Emit(events.Event{
		RunID:    runID,
		Topic:    topic,
		Stage:    "understanding",
		Duration: time.Since(start),
		Success:  success,
		Counts:   map[string]int{"grounding_hits": hits},
		Note:     note,
	})
}

// validate converts a raw classification into a TopicUnderstanding,
// rejecting out-of-enum values.
func validate(cls classification) (types.TopicUnderstanding, bool) {
	category := types.TopicCategory(strings.ToLower(strings.TrimSpace(cls.Category)))
	complexity := types.Complexity(strings.ToLower(strings.TrimSpace(cls.Complexity)))
	approach := types.ResearchApproach(strings.ToLower(strings.TrimSpace(cls.ResearchApproach)))

	if cls.Definition == "" ||
		!types.ValidCategories[category] ||
		!types.ValidComplexities[complexity] ||
		!types.ValidApproaches[approach] {
		return types.TopicUnderstanding{}, false
	}

	recs := make(map[types.EngineProfile]bool, len(types.AllProfiles))
	for _, p := range types.AllProfiles {
		recs[p] = cls.EngineRecommendations[string(p)]
	}
	// A plan with no recommended specialized engine still works, but a
	// classification recommending nothing at all is suspect.
	recs[types.ProfileGeneral] = true

	return types.TopicUnderstanding{
		Definition:            cls.Definition,
		Category:              category,
		Complexity:            complexity,
		RelevantDomains:       types.FlexStrings(cls.RelevantDomains),
		EngineRecommendations: recs,
		ResearchApproach:      approach,
	}, true
}

// Fallback returns the hard-coded degraded understanding used when
// grounding or classification fails.
func Fallback(topic string) types.TopicUnderstanding {
	recs := make(map[types.EngineProfile]bool, len(types.AllProfiles))
	for _, p := range types.AllProfiles {
		recs[p] = p == types.ProfileAcademic
	}
	return types.TopicUnderstanding{
		Definition:            fmt.Sprintf("%s is a topic requiring further research.", topic),
		Category:              types.CategoryAcademic,
		Complexity:            types.ComplexityBeginner,
		RelevantDomains:       []string{"general knowledge"},
		EngineRecommendations: recs,
		ResearchApproach:      types.ApproachBroadOverview,
	}
}

// classifyPrompt renders the grounded classification prompt.
func classifyPrompt(topic string, hits []searxng.Hit) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are classifying the topic %q for a learning platform.\n\n", topic)
	b.WriteString("Use ONLY the search results below. Do not rely on prior knowledge; if the results are thin, classify conservatively.\n\nSearch results:\n")
	for i, h := range hits {
		fmt.Fprintf(&b, "%d. %s\n   %s\n", i+1, h.Title, h.Text())
	}
	b.WriteString(`
Classify the topic as a JSON object with fields:
- definition: one or two sentences drawn from the results
- category: one of academic, technical, cultural, historical, scientific, artistic, business, social, philosophical, practical
- complexity: one of beginner, intermediate, advanced
- relevantDomains: list of knowledge domains, most relevant first
- engineRecommendations: object mapping each of general, academic, video, community, computational to true or false
- researchApproach: one of broad-overview, focused-deep-dive, comparative, historical`)
	return b.String()
}
