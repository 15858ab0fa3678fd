// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package validate audits generated content for accessibility, structure,
// logical flow, and actionable takeaways. Checks accumulate issues
// instead of failing fast, validation itself never errors, and the
// auto-repair pass fixes only the minor deficiencies it can fix
// mechanically.
//
// Implements: prd006-validation; docs/ARCHITECTURE.md § Validation.
package validate

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/pdiddy/learning-engine/internal/contentgen"
	"github.com/pdiddy/learning-engine/pkg/types"
)

const (
	minSections = 3
	maxSections = 6
	minTakeaways = 3
	minNextSteps = 2
)

// Check runs all four audits and returns the accumulated result.
func Check(content types.GeneratedContent) types.ValidationResult {
	var res types.ValidationResult
	checkAccessibility(content, &res)
	checkStructure(content, &res)
	checkFlow(content, &res)
	checkTakeaways(content, &res)
	res.Valid = len(res.Issues) == 0
	return res
}

// --- accessibility ---

var sentenceSplit = regexp.MustCompile(`[.!?]+\s`)

// camelCasePattern catches identifiers like "WebAssembly" mid-word.
var camelCasePattern = regexp.MustCompile(`\b[a-z]+[A-Z][A-Za-z]*\b|\b[A-Z][a-z]+[A-Z][A-Za-z]*\b`)

// acronymPattern catches unexplained 2-5 letter acronyms.
var acronymPattern = regexp.MustCompile(`\b[A-Z]{2,5}\b`)

// technicalSuffixes mark jargon-prone word endings.
var technicalSuffixes = []string{"ization", "icity", "ometry", "ological"}

// explanationMarkers suggest a term is explained inline.
var explanationMarkers = []string{"(", " means ", " refers to ", " is a ", " is the ", ", that is,", "i.e.", "in other words"}

// exampleMarkers indicate the content illustrates with examples.
var exampleMarkers = []string{"example", "for instance", "such as"}

func checkAccessibility(content types.GeneratedContent, res *types.ValidationResult) {
	full := fullText(content)
	lower := strings.ToLower(full)

	sentences := sentenceSplit.Split(full, -1)
	long := 0
	total := 0
	for _, s := range sentences {
		words := len(strings.Fields(s))
		if words == 0 {
			continue
		}
		total++
		if words > 25 {
			long++
		}
	}
	if total > 0 && float64(long)/float64(total) > 0.2 {
		res.Issues = append(res.Issues,
			fmt.Sprintf("accessibility: %d of %d sentences exceed 25 words", long, total))
		res.Suggestions = append(res.Suggestions, "break long sentences into shorter ones")
	}

	if terms := unexplainedTerms(full); len(terms) > 0 {
		res.Issues = append(res.Issues,
			fmt.Sprintf("accessibility: technical terms without inline explanation: %s", strings.Join(terms, ", ")))
		res.Suggestions = append(res.Suggestions, "add a short parenthetical explanation the first time a technical term appears")
	}

	if !containsAny(lower, exampleMarkers) {
		res.Issues = append(res.Issues, "accessibility: content has no examples or illustrative language")
		res.Suggestions = append(res.Suggestions, `illustrate at least one concept with "for example" or "such as"`)
	}
}

// unexplainedTerms finds technical terms whose surrounding sentence has
// no explanation marker. Returns at most five, sorted.
func unexplainedTerms(text string) []string {
	found := make(map[string]bool)
	for _, sentence := range sentenceSplit.Split(text, -1) {
		if containsAny(strings.ToLower(sentence), explanationMarkers) {
			continue
		}
		for _, term := range camelCasePattern.FindAllString(sentence, -1) {
			found[term] = true
		}
		for _, term := range acronymPattern.FindAllString(sentence, -1) {
			found[term] = true
		}
		for _, word := range strings.Fields(sentence) {
			w := strings.Trim(strings.ToLower(word), ".,;:!?\"'()")
			for _, suffix := range technicalSuffixes {
				if strings.HasSuffix(w, suffix) {
					found[word] = true
				}
			}
		}
	}

	terms := make([]string, 0, len(found))
	for t := range found {
		terms = append(terms, t)
	}
	sort.Strings(terms)
	if len(terms) > 5 {
		terms = terms[:5]
	}
	return terms
}

// --- structure ---

func checkStructure(content types.GeneratedContent, res *types.ValidationResult) {
	n := len(content.Sections)
	if n < minSections || n > maxSections {
		res.Issues = append(res.Issues,
			fmt.Sprintf("structure: too few or too many sections (%d, want %d-%d)", n, minSections, maxSections))
		res.Suggestions = append(res.Suggestions, "split or merge sections toward a 4-6 section progression")
	}
	if n == 0 {
		return
	}

	total := 0
	for _, s := range content.Sections {
		total += len(s.Content)
	}
	mean := float64(total) / float64(n)
	for _, s := range content.Sections {
		l := float64(len(s.Content))
		if mean > 0 && (l < 0.3*mean || l > 3*mean) {
			res.Issues = append(res.Issues,
				fmt.Sprintf("structure: section %q length is out of balance with the rest", s.Title))
			res.Suggestions = append(res.Suggestions, "rebalance section lengths so none dwarfs or trails the others")
			break
		}
	}

	missing := 0
	for _, s := range content.Sections {
		if strings.TrimSpace(s.LearningObjective) == "" {
			missing++
		}
	}
	if float64(missing)/float64(n) > 0.5 {
		res.Issues = append(res.Issues,
			fmt.Sprintf("structure: %d of %d sections lack a learning objective", missing, n))
		res.Suggestions = append(res.Suggestions, "state what the reader should learn from each section")
	}
}

// --- logical flow ---

// transitionPhrases signal connection to the previous section.
var transitionPhrases = []string{
	"building on", "now that", "with this", "having", "next",
	"in addition", "furthermore", "however", "this leads", "as we",
	"so far", "from here",
}

func checkFlow(content types.GeneratedContent, res *types.ValidationResult) {
	n := len(content.Sections)
	if n < 2 {
		return
	}

	transitions := 0
	for _, s := range content.Sections[1:] {
		opening := strings.ToLower(s.Content)
		if len(opening) > 200 {
			opening = opening[:200]
		}
		if containsAny(opening, transitionPhrases) {
			transitions++
		}
	}
	if transitions == 0 {
		res.Issues = append(res.Issues, "flow: no transition phrases connect consecutive sections")
		res.Suggestions = append(res.Suggestions, "open later sections by referencing what came before")
	}

	for i := 1; i < n; i++ {
		if types.TierRank(content.Sections[i].Tier) < types.TierRank(content.Sections[i-1].Tier) {
			res.Issues = append(res.Issues,
				fmt.Sprintf("flow: complexity regresses at section %q", content.Sections[i].Title))
			res.Suggestions = append(res.Suggestions, "order sections foundation, then building, then application")
			break
		}
	}

	concepts := topConcepts(content.Sections[0], 5)
	if len(concepts) > 0 {
		referenced := false
		for _, s := range content.Sections[1:] {
			if containsAny(strings.ToLower(s.Content), concepts) {
				referenced = true
				break
			}
		}
		if !referenced {
			res.Issues = append(res.Issues, "flow: later sections never reference the opening section's core concepts")
			res.Suggestions = append(res.Suggestions, "carry the opening concepts through the rest of the content")
		}
	}
}

// topConcepts returns the n most frequent words longer than four
// characters in a section.
func topConcepts(sec types.ContentSection, n int) []string {
	counts := make(map[string]int)
	for _, word := range strings.Fields(strings.ToLower(sec.Title + " " + sec.Content)) {
		word = strings.Trim(word, ".,;:!?\"'()[]*#")
		if len(word) > 4 {
			counts[word]++
		}
	}

	words := make([]string, 0, len(counts))
	for w := range counts {
		words = append(words, w)
	}
	sort.Slice(words, func(i, j int) bool {
		if counts[words[i]] != counts[words[j]] {
			return counts[words[i]] > counts[words[j]]
		}
		return words[i] < words[j]
	})
	if len(words) > n {
		words = words[:n]
	}
	return words
}

// --- takeaways ---

// vagueAdjectives flag takeaways that assert importance without
// substance.
var vagueAdjectives = []string{
	"important", "great", "good", "useful", "interesting",
	"valuable", "significant", "key", "amazing", "essential",
}

// actionVerbs open a well-formed next step.
var actionVerbs = []string{
	"explore", "practice", "read", "watch", "try", "build", "write",
	"review", "search", "find", "join", "create", "apply", "study",
	"implement", "start", "identify", "compare", "test", "experiment",
	"revisit",
}

func checkTakeaways(content types.GeneratedContent, res *types.ValidationResult) {
	if len(content.KeyTakeaways) < minTakeaways {
		res.Issues = append(res.Issues,
			fmt.Sprintf("takeaways: only %d key takeaways, want at least %d", len(content.KeyTakeaways), minTakeaways))
		res.Suggestions = append(res.Suggestions, "add concrete takeaways summarizing each section tier")
	}

	vague := 0
	for _, t := range content.KeyTakeaways {
		lower := strings.ToLower(t)
		if containsAny(lower, vagueAdjectives) && !strings.ContainsAny(t, "0123456789") && !strings.Contains(lower, "example") {
			vague++
		}
	}
	if n := len(content.KeyTakeaways); n > 0 && float64(vague)/float64(n) > 0.3 {
		res.Issues = append(res.Issues,
			fmt.Sprintf("takeaways: %d of %d takeaways are vague", vague, n))
		res.Suggestions = append(res.Suggestions, "replace vague adjectives with numbers or concrete examples")
	}

	if len(content.NextSteps) < minNextSteps {
		res.Issues = append(res.Issues,
			fmt.Sprintf("takeaways: only %d next steps, want at least %d", len(content.NextSteps), minNextSteps))
		res.Suggestions = append(res.Suggestions, "suggest at least two concrete follow-up actions")
	}

	weak := 0
	for _, s := range content.NextSteps {
		if !startsWithActionVerb(s) {
			weak++
		}
	}
	if n := len(content.NextSteps); n > 0 && float64(weak)/float64(n) > 0.5 {
		res.Issues = append(res.Issues,
			fmt.Sprintf("takeaways: %d of %d next steps lack an action verb", weak, n))
		res.Suggestions = append(res.Suggestions, "start each next step with a verb the reader can act on")
	}
}

func startsWithActionVerb(step string) bool {
	fields := strings.Fields(strings.ToLower(step))
	if len(fields) == 0 {
		return false
	}
	first := strings.Trim(fields[0], ".,;:!?")
	for _, v := range actionVerbs {
		if first == v {
			return true
		}
	}
	return false
}

// --- repair ---

// Repair applies the auto-fixes the orchestrator may request: backfilled
// learning objectives and padded takeaways/next-steps. It mutates the
// content in place, re-renders the markdown, and returns a description
// of each applied fix.
func Repair(content *types.GeneratedContent) []string {
	var applied []string

	for i := range content.Sections {
		if strings.TrimSpace(content.Sections[i].LearningObjective) == "" {
			content.Sections[i].LearningObjective = "Understand " + content.Sections[i].Title
			applied = append(applied, fmt.Sprintf("backfilled learning objective for %q", content.Sections[i].Title))
		}
	}

	for len(content.KeyTakeaways) < minTakeaways {
		content.KeyTakeaways = append(content.KeyTakeaways,
			fmt.Sprintf("Review the %q section for its central idea.", anchorSection(content, len(content.KeyTakeaways))))
		applied = append(applied, "padded key takeaways to minimum")
	}

	for len(content.NextSteps) < minNextSteps {
		content.NextSteps = append(content.NextSteps,
			"Review the sections above and note open questions.")
		applied = append(applied, "padded next steps to minimum")
	}

	if len(applied) > 0 {
		content.Content = contentgen.Render(*content)
	}
	return applied
}

// anchorSection picks a section title for filler takeaways.
func anchorSection(content *types.GeneratedContent, i int) string {
	if len(content.Sections) == 0 {
		return content.Title
	}
	return content.Sections[i%len(content.Sections)].Title
}

func fullText(content types.GeneratedContent) string {
	var b strings.Builder
	for _, s := range content.Sections {
		b.WriteString(s.Content)
		b.WriteString(" ")
	}
	return b.String()
}

func containsAny(text string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(text, n) {
			return true
		}
	}
	return false
}
