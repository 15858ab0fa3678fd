// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package contentgen produces the progressively-structured learning
// artifact from synthesized evidence. Generation runs a three-tier
// fallback chain — structured completion, free-text recovery, synthetic
// template — so the stage always returns a usable artifact and never
// propagates an error to its caller.
//
// Implements: prd005-content; docs/ARCHITECTURE.md § Content Generation.
package contentgen

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/learning-engine/internal/completion"
	"github.com/pdiddy/learning-engine/internal/events"
	"github.com/pdiddy/learning-engine/internal/fallback"
	"github.com/pdiddy/learning-engine/pkg/types"
)

// Generator builds learning content.
type Generator struct {
	ai      completion.Service
	emitter events.Emitter
	logger  *zap.Logger
}

// New builds a Generator. Nil emitter and logger get no-op defaults.
func New(ai completion.Service, emitter events.Emitter, logger *zap.Logger) *Generator {
	if emitter == nil {
		emitter = events.Nop{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{ai: ai, emitter: emitter, logger: logger}
}

// contentDraft is the structured response shape requested from the model.
// Array fields use FlexString so object-valued entries coerce to strings
// at decode time.
type contentDraft struct {
	Title    types.FlexString `json:"title"`
	Sections []sectionDraft   `json:"sections"`
	Takeaways []types.FlexString `json:"keyTakeaways"`
	NextSteps []types.FlexString `json:"nextSteps"`
}

type sectionDraft struct {
	Title             types.FlexString   `json:"title"`
	Content           types.FlexString   `json:"content"`
	Complexity        string             `json:"complexity"`
	LearningObjective types.FlexString   `json:"learningObjective"`
	Sources           []types.FlexString `json:"sources"`
	Community         []communityDraft   `json:"communityContent"`
}

type communityDraft struct {
	Type    string           `json:"type"`
	Content types.FlexString `json:"content"`
	Author  types.FlexString `json:"author"`
	Source  types.FlexString `json:"source"`
	Context types.FlexString `json:"context"`
}

// Generate produces the artifact for a topic. It cannot fail: the final
// chain tier synthesizes content from whatever the synthesis stage
// produced, down to template sentences when there is nothing at all.
func (g *Generator) Generate(ctx context.Context, runID, topic string, syn types.Synthesis) types.GeneratedContent {
	start := time.Now()

	content, tier, err := fallback.First(ctx,
		fallback.Strategy[types.GeneratedContent]{
			Name: "structured",
			Run: func(ctx context.Context) (types.GeneratedContent, error) {
				return g.structured(ctx, topic, syn)
			},
		},
		fallback.Strategy[types.GeneratedContent]{
			Name: "text-recovery",
			Run: func(ctx context.Context) (types.GeneratedContent, error) {
				return g.textRecovery(ctx, topic, syn)
			},
		},
		fallback.Strategy[types.GeneratedContent]{
			Name: "synthetic",
			Run: func(ctx context.Context) (types.GeneratedContent, error) {
				return Synthetic(topic, syn), nil
			},
		},
	)
	if err != nil {
		// Unreachable while the synthetic tier is infallible; guard
		// against a future strategy reordering.
		content = Synthetic(topic, syn)
		tier = "synthetic"
	}

	g.audit(topic, content)

	g.emitter.Emit(events.Event{
		RunID:    runID,
		Topic:    topic,
		Stage:    "content",
		Duration: time.Since(start),
		Success:  tier == "structured",
		Counts: map[string]int{
			"sections":  len(content.Sections),
			"takeaways": len(content.KeyTakeaways),
		},
		Note: "tier: " + tier,
	})
	return content
}

// structured is the primary tier: a schema-validated completion.
func (g *Generator) structured(ctx context.Context, topic string, syn types.Synthesis) (types.GeneratedContent, error) {
	var draft contentDraft
	if err := g.ai.GenerateStructured(ctx, contentPrompt(topic, syn), &draft); err != nil {
		return types.GeneratedContent{}, err
	}
	return finalize(topic, draft)
}

// textRecovery is the second tier: ask for free text kept JSON-parseable,
// then either recover an embedded JSON object or build a single overview
// section from the raw text.
func (g *Generator) textRecovery(ctx context.Context, topic string, syn types.Synthesis) (types.GeneratedContent, error) {
	text, err := g.ai.GenerateText(ctx, contentPrompt(topic, syn)+
		"\n\nKeep your whole answer JSON-parseable if you can.")
	if err != nil {
		return types.GeneratedContent{}, err
	}

	if obj, ok := completion.ExtractJSONObject(text); ok {
		var draft contentDraft
		if jsonErr := unmarshalDraft(obj, &draft); jsonErr == nil {
			if content, finErr := finalize(topic, draft); finErr == nil {
				return content, nil
			}
		}
	}

	return fromRawText(topic, text)
}

// fromRawText builds a one-section artifact from unstructured model
// output: the text becomes an Overview section, bullet lines become
// takeaways.
func fromRawText(topic, text string) (types.GeneratedContent, error) {
	body := strings.TrimSpace(text)
	if body == "" {
		return types.GeneratedContent{}, fmt.Errorf("empty text response")
	}

	var takeaways []string
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "- ") || strings.HasPrefix(trimmed, "* ") {
			takeaways = append(takeaways, strings.TrimSpace(trimmed[2:]))
			if len(takeaways) == 5 {
				break
			}
		}
	}
	if len(takeaways) == 0 {
		takeaways = []string{fmt.Sprintf("Review the overview of %s above.", topic)}
	}

	draft := contentDraft{
		Title: types.FlexString(fmt.Sprintf("Understanding %s", topic)),
		Sections: []sectionDraft{{
			Title:      types.FlexString("Overview"),
			Content:    types.FlexString(body),
			Complexity: string(types.TierFoundation),
		}},
	}
	for _, t := range takeaways {
		draft.Takeaways = append(draft.Takeaways, types.FlexString(t))
	}
	for _, s := range []string{
		fmt.Sprintf("Explore introductory material on %s.", topic),
		"Revisit the overview and note unfamiliar terms.",
		"Search for worked examples to apply what you read.",
	} {
		draft.NextSteps = append(draft.NextSteps, types.FlexString(s))
	}

	return finalize(topic, draft)
}

// finalize converts a draft into the final artifact: coerces fields,
// infers missing tiers from position, defaults learning objectives,
// computes read time, and assembles the markdown.
func finalize(topic string, draft contentDraft) (types.GeneratedContent, error) {
	if len(draft.Sections) == 0 {
		return types.GeneratedContent{}, fmt.Errorf("draft has no sections")
	}

	title := strings.TrimSpace(draft.Title.String())
	if title == "" {
		title = fmt.Sprintf("Understanding %s", topic)
	}

	sections := make([]types.ContentSection, 0, len(draft.Sections))
	for i, sd := range draft.Sections {
		sec := types.ContentSection{
			Title:             strings.TrimSpace(sd.Title.String()),
			Content:           strings.TrimSpace(sd.Content.String()),
			Sources:           types.FlexStrings(sd.Sources),
			Tier:              parseTier(sd.Complexity, i, len(draft.Sections)),
			LearningObjective: strings.TrimSpace(sd.LearningObjective.String()),
		}
		if sec.Title == "" {
			sec.Title = fmt.Sprintf("Section %d", i+1)
		}
		if sec.Content == "" {
			continue
		}
		if sec.LearningObjective == "" {
			sec.LearningObjective = "Understand " + sec.Title
		}
		for _, cd := range sd.Community {
			ci := types.CommunityInsight{
				Type:    strings.ToLower(strings.TrimSpace(cd.Type)),
				Content: strings.TrimSpace(cd.Content.String()),
				Author:  strings.TrimSpace(cd.Author.String()),
				Source:  strings.TrimSpace(cd.Source.String()),
				Context: strings.TrimSpace(cd.Context.String()),
			}
			if ci.Content != "" {
				sec.Community = append(sec.Community, ci)
			}
		}
		sections = append(sections, sec)
	}
	if len(sections) == 0 {
		return types.GeneratedContent{}, fmt.Errorf("draft sections all empty")
	}

	content := types.GeneratedContent{
		Title:        title,
		Sections:     sections,
		KeyTakeaways: types.FlexStrings(draft.Takeaways),
		NextSteps:    types.FlexStrings(draft.NextSteps),
	}
	content.Content = Render(content)
	content.EstimatedReadMinutes = EstimateReadMinutes(content)
	return content, nil
}

// parseTier accepts a declared tier or infers one from position: first
// third foundation, middle third building, last third application.
func parseTier(declared string, index, total int) types.SectionTier {
	switch types.SectionTier(strings.ToLower(strings.TrimSpace(declared))) {
	case types.TierFoundation:
		return types.TierFoundation
	case types.TierBuilding:
		return types.TierBuilding
	case types.TierApplication:
		return types.TierApplication
	}

	third := float64(index) / float64(total)
	switch {
	case third < 1.0/3:
		return types.TierFoundation
	case third < 2.0/3:
		return types.TierBuilding
	default:
		return types.TierApplication
	}
}

// foundationalWords and practicalWords drive the structural audit.
var foundationalWords = []string{"basic", "foundation", "introduction", "overview", "fundamental"}
var practicalWords = []string{"application", "practical", "example", "getting started", "implement"}

// audit logs structural findings without failing: progression issues are
// advisory here, the validation stage handles them formally.
func (g *Generator) audit(topic string, content types.GeneratedContent) {
	n := len(content.Sections)
	if n == 0 {
		return
	}

	first := strings.ToLower(content.Sections[0].Title + " " + content.Sections[0].Content)
	if !containsAny(first, foundationalWords) {
		g.logger.Debug("first section lacks foundational language",
			zap.String("topic", topic), zap.String("section", content.Sections[0].Title))
	}

	last := strings.ToLower(content.Sections[n-1].Title + " " + content.Sections[n-1].Content)
	if n > 1 && !containsAny(last, practicalWords) {
		g.logger.Debug("last section lacks practical language",
			zap.String("topic", topic), zap.String("section", content.Sections[n-1].Title))
	}

	for i := 1; i < n; i++ {
		jump := types.TierRank(content.Sections[i].Tier) - types.TierRank(content.Sections[i-1].Tier)
		if jump > 1 {
			g.logger.Debug("section complexity jumps more than one tier",
				zap.String("topic", topic),
				zap.String("section", content.Sections[i].Title))
		}
	}
}

func containsAny(text string, words []string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}

// EstimateReadMinutes derives reading time from total character count at
// roughly 200 words per minute, five characters per word.
func EstimateReadMinutes(content types.GeneratedContent) int {
	chars := len(content.Content)
	if chars == 0 {
		for _, s := range content.Sections {
			chars += len(s.Content)
		}
	}
	minutes := chars / (5 * 200)
	if minutes < 1 {
		minutes = 1
	}
	return minutes
}

// contentPrompt renders the generation prompt from the synthesis.
func contentPrompt(topic string, syn types.Synthesis) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write structured learning content about %q.\n\n", topic)
	if len(syn.KeyInsights) > 0 {
		b.WriteString("Key insights from research:\n")
		for _, in := range syn.KeyInsights {
			fmt.Fprintf(&b, "- %s\n", in)
		}
	}
	if len(syn.ContentThemes) > 0 {
		fmt.Fprintf(&b, "Recurring themes: %s\n", strings.Join(syn.ContentThemes, ", "))
	}
	fmt.Fprintf(&b, "Source quality: %s. Practical focus: %s.\n", syn.SourceQuality, syn.PracticalFocus)
	b.WriteString(`
Produce a JSON object:
{"title": "...",
 "sections": [{"title": "...", "content": "...", "complexity": "foundation|building|application",
               "learningObjective": "...", "sources": ["..."],
               "communityContent": [{"type": "opinion|technique|tip|example|discussion",
                                     "content": "...", "author": "...", "source": "...", "context": "..."}]}],
 "keyTakeaways": ["..."], "nextSteps": ["..."]}

Rules:
- 4 to 6 sections, ordered foundation first, then building, then application
- weave community-sourced insights into communityContent where the research supports them
- accessible language: short sentences, explain technical terms inline, use examples
- keyTakeaways must be concrete; nextSteps must start with action verbs`)
	return b.String()
}
