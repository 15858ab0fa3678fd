// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package subtopics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/pdiddy/learning-engine/internal/events"
	"github.com/pdiddy/learning-engine/pkg/types"
)

type fakeAI struct {
	response string
	err      error
}

func (f *fakeAI) GenerateText(context.Context, string) (string, error) {
	return f.response, f.err
}

func (f *fakeAI) GenerateStructured(_ context.Context, _ string, out any) error {
	if f.err != nil {
		return f.err
	}
	return json.Unmarshal([]byte(f.response), out)
}

func draftJSON(priorities [5]int) string {
	var items []string
	complexities := []string{"beginner", "beginner", "intermediate", "intermediate", "advanced"}
	for i, p := range priorities {
		items = append(items, fmt.Sprintf(
			`{"title": "Subtopic %d", "description": "About %d", "priority": %d, "complexity": "%s"}`,
			i+1, i+1, p, complexities[i]))
	}
	return `{"subtopics": [` + strings.Join(items, ",") + `]}`
}

func assertWellFormed(t *testing.T, subs []types.Subtopic) {
	t.Helper()
	if len(subs) != Count {
		t.Fatalf("len(subs) = %d, want %d", len(subs), Count)
	}
	seen := map[int]bool{}
	for _, s := range subs {
		if s.Title == "" {
			t.Error("empty title")
		}
		if s.Priority < 1 || s.Priority > Count || seen[s.Priority] {
			t.Errorf("bad priority %d", s.Priority)
		}
		seen[s.Priority] = true
		if !types.ValidComplexities[s.Complexity] {
			t.Errorf("bad complexity %q", s.Complexity)
		}
		if want := readMinutes[s.Complexity]; s.EstimatedReadMinutes != want {
			t.Errorf("read minutes = %d, want %d for %s", s.EstimatedReadMinutes, want, s.Complexity)
		}
	}
}

func TestIdentifyFromModel(t *testing.T) {
	rec := &events.Recorder{}
	id := New(&fakeAI{response: draftJSON([5]int{1, 2, 3, 4, 5})}, rec)

	subs := id.Identify(context.Background(), "run-1", "gardening", types.Synthesis{})
	assertWellFormed(t, subs)

	evs := rec.ByStage("subtopics")
	if len(evs) != 1 || !evs[0].Success || evs[0].Counts["subtopics"] != Count {
		t.Errorf("subtopics event = %+v", evs)
	}
}

func TestIdentifyFallsBackToThemes(t *testing.T) {
	syn := types.Synthesis{ContentThemes: []string{"soil", "light"}}

	tests := []struct {
		name string
		ai   *fakeAI
	}{
		{"completion error", &fakeAI{err: errors.New("down")}},
		{"wrong count", &fakeAI{response: `{"subtopics": [{"title": "only one", "priority": 1, "complexity": "beginner"}]}`}},
		{"duplicate priorities", &fakeAI{response: draftJSON([5]int{1, 1, 3, 4, 5})}},
		{"priority out of range", &fakeAI{response: draftJSON([5]int{1, 2, 3, 4, 9})}},
		{"invalid complexity", &fakeAI{response: strings.Replace(
			draftJSON([5]int{1, 2, 3, 4, 5}), `"beginner"`, `"expert"`, 1)}},
		{"empty title", &fakeAI{response: strings.Replace(
			draftJSON([5]int{1, 2, 3, 4, 5}), `"Subtopic 1"`, `""`, 1)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &events.Recorder{}
			subs := New(tt.ai, rec).Identify(context.Background(), "run-1", "gardening", syn)
			assertWellFormed(t, subs)

			// Theme-derived titles lead the fallback set.
			if !strings.Contains(subs[0].Title, "soil") {
				t.Errorf("first fallback title = %q, want theme-derived", subs[0].Title)
			}

			evs := rec.ByStage("subtopics")
			if len(evs) != 1 || evs[0].Success || evs[0].Note == "" {
				t.Errorf("subtopics event = %+v", evs)
			}
		})
	}
}

func TestFromThemesPadsToCount(t *testing.T) {
	subs := FromThemes("gardening", []string{"soil"})
	assertWellFormed(t, subs)

	if !strings.Contains(subs[0].Title, "soil") {
		t.Errorf("first title = %q", subs[0].Title)
	}
	for _, s := range subs[1:] {
		if !strings.Contains(s.Title, "Aspect") {
			t.Errorf("padded title = %q, want generic aspect", s.Title)
		}
	}

	// Priorities ascend with position and complexity steps up.
	if subs[0].Complexity != types.ComplexityBeginner || subs[4].Complexity != types.ComplexityAdvanced {
		t.Errorf("complexity ramp wrong: %v ... %v", subs[0].Complexity, subs[4].Complexity)
	}
}

func TestFromThemesNoThemes(t *testing.T) {
	subs := FromThemes("gardening", nil)
	assertWellFormed(t, subs)
	for i, s := range subs {
		if s.Priority != i+1 {
			t.Errorf("priority %d at position %d", s.Priority, i)
		}
	}
}
