// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package contentgen

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pdiddy/learning-engine/pkg/types"
)

func unmarshalDraft(obj string, draft *contentDraft) error {
	return json.Unmarshal([]byte(obj), draft)
}

// communityLabels map insight types to their rendered heading.
var communityLabels = map[string]string{
	"opinion":    "Community opinion",
	"technique":  "Technique",
	"tip":        "Tip",
	"example":    "Example",
	"discussion": "From a discussion",
}

// Render assembles the artifact markdown: title, each section with its
// community block, then takeaways and numbered next steps.
func Render(content types.GeneratedContent) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n", content.Title)

	for _, sec := range content.Sections {
		fmt.Fprintf(&b, "\n## %s\n\n%s\n", sec.Title, sec.Content)
		if len(sec.Community) > 0 {
			b.WriteString("\n### Community Insights\n\n")
			for _, ci := range sec.Community {
				b.WriteString(renderInsight(ci))
			}
		}
	}

	if len(content.KeyTakeaways) > 0 {
		b.WriteString("\n## Key Takeaways\n\n")
		for _, t := range content.KeyTakeaways {
			fmt.Fprintf(&b, "- %s\n", t)
		}
	}

	if len(content.NextSteps) > 0 {
		b.WriteString("\n## Next Steps\n\n")
		for i, s := range content.NextSteps {
			fmt.Fprintf(&b, "%d. %s\n", i+1, s)
		}
	}

	return b.String()
}

func renderInsight(ci types.CommunityInsight) string {
	label, ok := communityLabels[ci.Type]
	if !ok {
		label = "Insight"
	}

	attribution := ci.Author
	if attribution == "" {
		attribution = ci.Source
	}

	line := fmt.Sprintf("- **%s**", label)
	if attribution != "" {
		line += " from " + attribution
	}
	line += ": " + ci.Content
	if ci.Context != "" {
		line += fmt.Sprintf(" (%s)", ci.Context)
	}
	return line + "\n"
}
