// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package contentgen

import (
	"fmt"
	"strings"

	"github.com/pdiddy/learning-engine/pkg/types"
)

// Synthetic is the final fallback tier: a fixed four-section progressive
// structure built purely from whatever the synthesis stage produced.
// With zero insights and zero themes it still yields a valid artifact
// from template sentences.
func Synthetic(topic string, syn types.Synthesis) types.GeneratedContent {
	insights := syn.KeyInsights
	themes := syn.ContentThemes

	content := types.GeneratedContent{
		Title: fmt.Sprintf("Understanding %s", topic),
		Sections: []types.ContentSection{
			{
				Title:             fmt.Sprintf("Foundation: What is %s?", topic),
				Content:           foundationBody(topic, insights),
				Tier:              types.TierFoundation,
				LearningObjective: fmt.Sprintf("Understand the basic idea behind %s", topic),
			},
			{
				Title:             "Key Components",
				Content:           componentsBody(topic, themes),
				Tier:              types.TierBuilding,
				LearningObjective: fmt.Sprintf("Identify the main building blocks of %s", topic),
			},
			{
				Title:             "Community Perspectives",
				Content:           communityBody(topic, insights),
				Tier:              types.TierBuilding,
				LearningObjective: fmt.Sprintf("See how practitioners talk about %s", topic),
				Community:         sampleInsights(topic),
			},
			{
				Title:             "Practical Applications",
				Content:           applicationsBody(topic, insights, themes),
				Tier:              types.TierApplication,
				LearningObjective: fmt.Sprintf("Apply %s to a concrete example", topic),
			},
		},
		KeyTakeaways: syntheticTakeaways(topic, insights),
		NextSteps: []string{
			fmt.Sprintf("Search for an introductory article or video about %s.", topic),
			"Write down three questions this overview left unanswered.",
			fmt.Sprintf("Find one real example of %s and study how it works.", topic),
		},
	}

	content.Content = Render(content)
	content.EstimatedReadMinutes = EstimateReadMinutes(content)
	return content
}

func foundationBody(topic string, insights []string) string {
	if len(insights) > 0 {
		return fmt.Sprintf("%s is best approached through what the research surfaced most often: %s This section gives you the basic framing before the details arrive.",
			topic, sentence(insights[0]))
	}
	return fmt.Sprintf("%s is a topic worth building up from first principles. Start with the basic definition, the problem it addresses, and the vocabulary people use when they discuss it. The overview here is intentionally simple; later sections add depth.", topic)
}

func componentsBody(topic string, themes []string) string {
	if len(themes) > 0 {
		var b strings.Builder
		fmt.Fprintf(&b, "The research around %s keeps returning to a few recurring themes:\n\n", topic)
		for _, t := range themes {
			fmt.Fprintf(&b, "- **%s** appears across multiple sources and is worth understanding on its own.\n", t)
		}
		return b.String()
	}
	return fmt.Sprintf("Break %s into its parts: the core concept, the surrounding terminology, and the typical process people follow when working with it. Understanding each part separately makes the whole easier to grasp.", topic)
}

func communityBody(topic string, insights []string) string {
	if len(insights) > 1 {
		return fmt.Sprintf("Practitioners discussing %s emphasize practical experience over theory. One recurring point: %s", topic, sentence(insights[1]))
	}
	return fmt.Sprintf("Communities around %s tend to share hands-on experience: what worked, what did not, and which mistakes beginners make. Reading a few discussions is one of the fastest ways to calibrate your understanding.", topic)
}

func applicationsBody(topic string, insights, themes []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Getting started with %s in practice:\n\n", topic)
	if len(insights) > 2 {
		fmt.Fprintf(&b, "- %s\n", insights[2])
	}
	if len(themes) > 0 {
		fmt.Fprintf(&b, "- Look for a small, real example involving %s and implement or retrace it yourself.\n", themes[0])
	}
	b.WriteString("- Start with the simplest possible example and add complexity only once it makes sense.\n")
	b.WriteString("- Getting started matters more than getting it perfect; practical application cements understanding.\n")
	return b.String()
}

func syntheticTakeaways(topic string, insights []string) []string {
	if len(insights) > 0 {
		takeaways := make([]string, 0, 5)
		for _, in := range insights {
			takeaways = append(takeaways, in)
			if len(takeaways) == 5 {
				break
			}
		}
		return takeaways
	}
	return []string{
		fmt.Sprintf("%s can be learned progressively: foundation, components, then application.", topic),
		"Community experience is a faster teacher than documentation alone.",
		"Small practical examples beat broad theory for retention.",
	}
}

// sampleInsights provides community stubs for the synthetic structure.
func sampleInsights(topic string) []types.CommunityInsight {
	return []types.CommunityInsight{
		{
			Type:    "tip",
			Content: fmt.Sprintf("When starting with %s, keep a running list of terms you don't recognize and look them up in one batch.", topic),
			Source:  "learning community",
		},
		{
			Type:    "discussion",
			Content: fmt.Sprintf("Learners repeatedly ask how %s is used day to day; answers consistently point to starting with one concrete use case.", topic),
			Source:  "online forums",
		},
	}
}

// sentence ensures a fragment reads as a sentence in surrounding prose.
func sentence(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}
	if !strings.HasSuffix(s, ".") && !strings.HasSuffix(s, "!") && !strings.HasSuffix(s, "?") {
		s += "."
	}
	return s
}
