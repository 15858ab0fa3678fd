// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline sequences the research stages for one topic and
// assembles the final result. A topic run either completes with a
// structurally valid artifact or fails with a descriptive error; it
// never returns a half-built result.
//
// Implements: prd008-orchestration; docs/ARCHITECTURE.md § Orchestrator.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pdiddy/learning-engine/internal/completion"
	"github.com/pdiddy/learning-engine/internal/contentgen"
	"github.com/pdiddy/learning-engine/internal/events"
	"github.com/pdiddy/learning-engine/internal/plan"
	"github.com/pdiddy/learning-engine/internal/research"
	"github.com/pdiddy/learning-engine/internal/searxng"
	"github.com/pdiddy/learning-engine/internal/subtopics"
	"github.com/pdiddy/learning-engine/internal/synthesis"
	"github.com/pdiddy/learning-engine/internal/understand"
	"github.com/pdiddy/learning-engine/internal/validate"
	"github.com/pdiddy/learning-engine/pkg/types"
)

// Request parameterizes one topic run.
type Request struct {
	Topic string

	// Depth is the current recursion depth; the root topic is 0.
	Depth int

	// MaxDepth is the caller's requested recursion limit. It is clamped
	// to the configured cap; a clamp emits a warning event.
	MaxDepth int

	// Understanding, when set, skips the understanding stage. Subtopic
	// runs pass the parent's understanding through here.
	Understanding *types.TopicUnderstanding

	// User carries optional audience context.
	User *types.UserContext
}

// Pipeline wires the stages together. All external dependencies arrive
// via the constructor; there is no shared global state.
type Pipeline struct {
	cfg        types.PipelineConfig
	classifier *understand.Classifier
	planner    *plan.Planner
	executor   *research.Executor
	synth      *synthesis.Synthesizer
	generator  *contentgen.Generator
	identifier *subtopics.Identifier
	emitter    events.Emitter
	logger     *zap.Logger
}

// New builds a pipeline from its collaborators and config. Nil emitter
// and logger get no-op defaults.
func New(cfg types.PipelineConfig, gateway searxng.Gateway, ai completion.Service, emitter events.Emitter, logger *zap.Logger) *Pipeline {
	cfg.Defaults()
	if emitter == nil {
		emitter = events.Nop{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		cfg:        cfg,
		classifier: understand.New(gateway, ai, emitter),
		planner:    plan.New(ai, emitter),
		executor:   research.New(gateway, cfg.Research, emitter),
		synth:      synthesis.New(ai, emitter),
		generator:  contentgen.New(ai, emitter, logger),
		identifier: subtopics.New(ai, emitter),
		emitter:    emitter,
		logger:     logger,
	}
}

// Research runs the full pipeline for one topic. Fatal stage errors
// (invalid plan, insufficient evidence) surface to the caller; every
// other failure is absorbed into degraded-but-valid output. Panics in
// any stage are caught at this boundary and converted to errors.
func (p *Pipeline) Research(ctx context.Context, req Request) (result *types.TopicResearchResult, err error) {
	runID := uuid.NewString()
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("pipeline panic",
				zap.String("run_id", runID),
				zap.String("topic", req.Topic),
				zap.Any("panic", r))
			result = nil
			err = fmt.Errorf("researching topic %q: internal pipeline failure: %v", req.Topic, r)
		}
	}()

	if strings.TrimSpace(req.Topic) == "" {
		return nil, fmt.Errorf("researching topic: topic is empty")
	}

	maxDepth := p.clampDepth(runID, req)

	tu := req.Understanding
	if tu == nil {
		got := p.classifier.Understand(ctx, runID, req.Topic)
		tu = &got
	}

	researchPlan, err := p.planner.Plan(ctx, runID, req.Topic, *tu, req.User)
	if err != nil {
		return nil, fmt.Errorf("researching topic %q: %w", req.Topic, err)
	}

	evidence, err := p.executor.Execute(ctx, runID, researchPlan)
	if err != nil {
		return nil, fmt.Errorf("researching topic %q: could not gather sufficient evidence: %w", req.Topic, err)
	}

	syn := p.synth.Synthesize(ctx, runID, req.Topic, evidence)

	content := p.generator.Generate(ctx, runID, req.Topic, syn)

	audit := validate.Check(content)
	if !audit.Valid {
		applied := validate.Repair(&content)
		p.emitter.Emit(events.Event{
			RunID:   runID,
			Topic:   req.Topic,
			Stage:   "validation",
			Success: false,
			Counts: map[string]int{
				"issues":  len(audit.Issues),
				"repairs": len(applied),
			},
			Note: strings.Join(audit.Issues, "; "),
		})
	}

	subs := p.identifier.Identify(ctx, runID, req.Topic, syn)

	result = &types.TopicResearchResult{
		Topic:     req.Topic,
		Depth:     req.Depth,
		RunID:     runID,
		Content:   content,
		Subtopics: subs,
		Sources:   Attribute(evidence, content),
		Metadata: types.ResearchMetadata{
			TotalSources:     len(evidence),
			ResearchDuration: time.Since(start),
			EnginesUsed:      enginesUsed(evidence),
			ResearchStrategy: researchPlan.Strategy,
			ConfidenceScore:  Confidence(evidence, content),
			LastUpdated:      time.Now().UTC(),
		},
		CacheKey:  CacheKey(req.Topic, req.User),
		Timestamp: time.Now().UTC(),
	}

	if req.Depth+1 < maxDepth {
		result.Children = p.researchSubtopics(ctx, req, *tu, subs)
	}

	return result, nil
}

// clampDepth bounds the caller's requested depth by the configured cap,
// flagging the discrepancy instead of silently overriding.
func (p *Pipeline) clampDepth(runID string, req Request) int {
	maxDepth := req.MaxDepth
	if maxDepth <= 0 {
		maxDepth = 1
	}
	if maxDepth > p.cfg.MaxDepth {
		p.emitter.Emit(events.Event{
			RunID:   runID,
			Topic:   req.Topic,
			Stage:   "orchestrator",
			Success: false,
			Note:    fmt.Sprintf("requested max depth %d clamped to configured %d", maxDepth, p.cfg.MaxDepth),
		})
		maxDepth = p.cfg.MaxDepth
	}
	return maxDepth
}

// researchSubtopics runs independent pipelines for each subtopic, at
// most cfg.SubtopicConcurrency at a time. A failed subtopic run is
// logged and skipped; it cannot fail the parent.
func (p *Pipeline) researchSubtopics(ctx context.Context, req Request, tu types.TopicUnderstanding, subs []types.Subtopic) []*types.TopicResearchResult {
	sem := make(chan struct{}, p.cfg.SubtopicConcurrency)
	results := make([]*types.TopicResearchResult, len(subs))
	var wg sync.WaitGroup

	for i, sub := range subs {
		wg.Add(1)
		go func(i int, sub types.Subtopic) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			child, err := p.Research(ctx, Request{
				Topic:         sub.Title,
				Depth:         req.Depth + 1,
				MaxDepth:      req.MaxDepth,
				Understanding: &tu,
				User:          req.User,
			})
			if err != nil {
				p.logger.Warn("subtopic research failed",
					zap.String("parent", req.Topic),
					zap.String("subtopic", sub.Title),
					zap.Error(err))
				return
			}
			results[i] = child
		}(i, sub)
	}
	wg.Wait()

	kept := results[:0]
	for _, r := range results {
		if r != nil {
			kept = append(kept, r)
		}
	}
	return kept
}

// Confidence scores the overall run from evidence relevance, section
// count, and result volume.
func Confidence(evidence []types.EngineResult, content types.GeneratedContent) float64 {
	var meanRelevance float64
	if len(evidence) > 0 {
		for _, r := range evidence {
			meanRelevance += r.RelevanceScore
		}
		meanRelevance /= float64(len(evidence))
	}

	sectionScore := float64(len(content.Sections)) / 5
	if sectionScore > 1 {
		sectionScore = 1
	}
	volumeScore := float64(len(evidence)) / 15
	if volumeScore > 1 {
		volumeScore = 1
	}

	return 0.4*meanRelevance + 0.3*sectionScore + 0.3*volumeScore
}

// CacheKey derives the external memoization key: slugified topic plus
// the audience level, "general" when absent.
func CacheKey(topic string, user *types.UserContext) string {
	level := "general"
	if user != nil && user.Level != "" {
		level = user.Level
	}
	return Slugify(topic) + "-" + level
}

// Slugify lowercases and hyphenates a topic for use in keys.
func Slugify(s string) string {
	var b strings.Builder
	lastHyphen := true
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

func enginesUsed(evidence []types.EngineResult) []string {
	seen := make(map[types.EngineProfile]bool)
	var used []string
	for _, p := range types.AllProfiles {
		for _, r := range evidence {
			if r.Engine == p && !seen[p] {
				seen[p] = true
				used = append(used, string(p))
			}
		}
	}
	return used
}
