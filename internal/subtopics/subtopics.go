// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package subtopics derives exactly five prioritized follow-up topics
// from synthesized evidence, for recursive exploration. Malformed model
// output degrades to theme-derived subtopics, so the stage always
// returns a full set.
//
// Implements: prd007-subtopics; docs/ARCHITECTURE.md § Subtopics.
package subtopics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pdiddy/learning-engine/internal/completion"
	"github.com/pdiddy/learning-engine/internal/events"
	"github.com/pdiddy/learning-engine/pkg/types"
)

// Count is the fixed number of subtopics per parent topic.
const Count = 5

// readMinutes maps complexity tiers to estimated read time.
var readMinutes = map[types.Complexity]int{
	types.ComplexityBeginner:     5,
	types.ComplexityIntermediate: 10,
	types.ComplexityAdvanced:     15,
}

// Identifier derives subtopics.
type Identifier struct {
	ai      completion.Service
	emitter events.Emitter
}

// New builds an Identifier. A nil emitter is replaced with events.Nop.
func New(ai completion.Service, emitter events.Emitter) *Identifier {
	if emitter == nil {
		emitter = events.Nop{}
	}
	return &Identifier{ai: ai, emitter: emitter}
}

// subtopicDraft is the structured response shape requested from the model.
type subtopicDraft struct {
	Subtopics []struct {
		Title       types.FlexString `json:"title"`
		Description types.FlexString `json:"description"`
		Priority    int              `json:"priority"`
		Complexity  string           `json:"complexity"`
	} `json:"subtopics"`
}

// Identify returns exactly Count prioritized subtopics grounded in the
// synthesis. It never fails; shape violations fall back to theme-derived
// subtopics.
func (id *Identifier) Identify(ctx context.Context, runID, topic string, syn types.Synthesis) []types.Subtopic {
	start := time.Now()

	subs, note := id.fromModel(ctx, topic, syn)
	if subs == nil {
		subs = FromThemes(topic, syn.ContentThemes)
	}

	id.emitter.Emit(events.Event{
		RunID:    runID,
		Topic:    topic,
		Stage:    "subtopics",
		Duration: time.Since(start),
		Success:  note == "",
		Counts:   map[string]int{"subtopics": len(subs)},
		Note:     note,
	})
	return subs
}

// fromModel asks the completion service and validates the shape strictly.
// Any violation returns nil so the caller falls back.
func (id *Identifier) fromModel(ctx context.Context, topic string, syn types.Synthesis) ([]types.Subtopic, string) {
	var draft subtopicDraft
	if err := id.ai.GenerateStructured(ctx, subtopicPrompt(topic, syn), &draft); err != nil {
		return nil, "subtopic generation failed, derived from themes"
	}
	if len(draft.Subtopics) != Count {
		return nil, fmt.Sprintf("model returned %d subtopics, derived from themes", len(draft.Subtopics))
	}

	seen := make(map[int]bool, Count)
	subs := make([]types.Subtopic, 0, Count)
	for _, d := range draft.Subtopics {
		title := strings.TrimSpace(d.Title.String())
		complexity := types.Complexity(strings.ToLower(strings.TrimSpace(d.Complexity)))
		if title == "" || !types.ValidComplexities[complexity] {
			return nil, "malformed subtopic, derived from themes"
		}
		if d.Priority < 1 || d.Priority > Count || seen[d.Priority] {
			return nil, "invalid subtopic priorities, derived from themes"
		}
		seen[d.Priority] = true
		subs = append(subs, types.Subtopic{
			Title:                title,
			Description:          d.Description.String(),
			Priority:             d.Priority,
			Complexity:           complexity,
			EstimatedReadMinutes: readMinutes[complexity],
		})
	}
	return subs, ""
}

// complexityByPosition assigns increasing complexity to fallback
// subtopics: earlier positions stay approachable, later ones go deeper.
func complexityByPosition(i int) types.Complexity {
	switch {
	case i < 2:
		return types.ComplexityBeginner
	case i < 4:
		return types.ComplexityIntermediate
	default:
		return types.ComplexityAdvanced
	}
}

// FromThemes derives the fallback subtopic set from content themes,
// padding with generic aspects when fewer than Count themes exist.
func FromThemes(topic string, themes []string) []types.Subtopic {
	subs := make([]types.Subtopic, 0, Count)
	for i := 0; i < Count; i++ {
		var title, desc string
		if i < len(themes) {
			title = fmt.Sprintf("%s: %s", topic, themes[i])
			desc = fmt.Sprintf("How %s relates to %s, a recurring theme in the research.", themes[i], topic)
		} else {
			title = fmt.Sprintf("%s - Aspect %d", topic, i+1)
			desc = fmt.Sprintf("A further aspect of %s worth exploring.", topic)
		}
		complexity := complexityByPosition(i)
		subs = append(subs, types.Subtopic{
			Title:                title,
			Description:          desc,
			Priority:             i + 1,
			Complexity:           complexity,
			EstimatedReadMinutes: readMinutes[complexity],
		})
	}
	return subs
}

// subtopicPrompt renders the subtopic derivation prompt.
func subtopicPrompt(topic string, syn types.Synthesis) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Identify follow-up subtopics for a learner who just studied %q.\n\n", topic)
	if len(syn.KeyInsights) > 0 {
		b.WriteString("Research insights:\n")
		for _, in := range syn.KeyInsights {
			fmt.Fprintf(&b, "- %s\n", in)
		}
	}
	if len(syn.ContentThemes) > 0 {
		fmt.Fprintf(&b, "Themes: %s\n", strings.Join(syn.ContentThemes, ", "))
	}
	b.WriteString(`
Ground every subtopic strictly in the insights and themes above.

Produce a JSON object:
{"subtopics": [{"title": "...", "description": "...", "priority": 1, "complexity": "beginner|intermediate|advanced"}]}

Rules:
- exactly 5 subtopics
- priorities 1 through 5, each used exactly once, 1 = study first
- complexity must be beginner, intermediate, or advanced`)
	return b.String()
}
