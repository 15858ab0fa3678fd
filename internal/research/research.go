// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package research executes a research plan against the search gateway.
// Queries fan out concurrently; each query's failure is isolated and
// absorbed by bounded fallbacks (rewrite variants for general queries,
// cross-engine degradation for specialized ones). Results are
// normalized, deduplicated, and capped. Falling below the evidence
// floors is fatal: too little or too skewed evidence makes everything
// downstream untrustworthy.
//
// Implements: prd003-research; docs/ARCHITECTURE.md § Research Execution.
package research

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/pdiddy/learning-engine/internal/events"
	"github.com/pdiddy/learning-engine/internal/searxng"
	"github.com/pdiddy/learning-engine/pkg/types"
)

// ErrInsufficientEvidence reports that execution could not gather enough
// viable results to continue the pipeline.
var ErrInsufficientEvidence = errors.New("insufficient research evidence")

// Normalization defaults for hits with missing fields.
const (
	defaultTitle   = "Untitled"
	defaultURL     = "#"
	defaultSnippet = "No description"
	defaultScore   = 0.5
)

// Fallback scaling factors.
const (
	rewriteScoreScale     = 0.8
	crossEngineScoreScale = 0.6
	crossEngineMaxHits    = 3
	maxRewriteVariants    = 3
)

// Executor runs research plans.
type Executor struct {
	gateway searxng.Gateway
	cfg     types.ResearchConfig
	emitter events.Emitter
}

// New builds an Executor. A nil emitter is replaced with events.Nop.
func New(gateway searxng.Gateway, cfg types.ResearchConfig, emitter events.Emitter) *Executor {
	if emitter == nil {
		emitter = events.Nop{}
	}
	return &Executor{gateway: gateway, cfg: cfg, emitter: emitter}
}

// queryOutcome is the fan-in unit for one planned query.
type queryOutcome struct {
	query   types.PlannedQuery
	results []types.EngineResult
	ok      bool
}

// Execute runs every planned query concurrently and returns the
// deduplicated, score-ranked evidence. The returned error wraps
// ErrInsufficientEvidence when the general-success or total-result floor
// is missed.
func (e *Executor) Execute(ctx context.Context, runID string, plan types.ResearchPlan) ([]types.EngineResult, error) {
	start := time.Now()

	ch := make(chan queryOutcome, len(plan.Queries))
	var wg sync.WaitGroup
	for _, q := range plan.Queries {
		wg.Add(1)
		go func(q types.PlannedQuery) {
			defer wg.Done()
			ch <- e.runQuery(ctx, q)
		}(q)
	}

	go func() {
		wg.Wait()
		close(ch)
	}()

	var all []types.EngineResult
	generalSuccesses := 0
	failed := 0
	for out := range ch {
		if out.ok && out.query.Engine == types.ProfileGeneral {
			generalSuccesses++
		}
		if !out.ok && len(out.results) == 0 {
			failed++
		}
		all = append(all, out.results...)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	deduped := Deduplicate(all)
	sort.SliceStable(deduped, func(i, j int) bool {
		return deduped[i].RelevanceScore > deduped[j].RelevanceScore
	})
	if len(deduped) > e.cfg.MaxResults {
		deduped = deduped[:e.cfg.MaxResults]
	}

	err := e.checkFloors(generalSuccesses, len(deduped))

	e.emitter.Emit(events.Event{
		RunID:    runID,
		Stage:    "research",
		Duration: time.Since(start),
		Success:  err == nil,
		Counts: map[string]int{
			"queries":           len(plan.Queries),
			"general_successes": generalSuccesses,
			"failed_queries":    failed,
			"results":           len(deduped),
		},
		Note: noteFor(err),
	})
	if err != nil {
		return nil, err
	}
	return deduped, nil
}

// runQuery executes one planned query with its profile-specific fallback
// behavior. The outcome's ok flag reports whether the original query (or
// a rewrite of it, for general queries) succeeded; cross-engine fallback
// hits keep ok=false because the original engine never answered.
func (e *Executor) runQuery(ctx context.Context, q types.PlannedQuery) queryOutcome {
	hits, err := e.gateway.Search(ctx, q.Engine, q.Query)
	if err == nil && len(hits) > 0 {
		return queryOutcome{query: q, results: normalize(hits, q, 1.0), ok: true}
	}

	if q.Engine == types.ProfileGeneral {
		return e.retryGeneral(ctx, q)
	}
	return e.crossEngineFallback(ctx, q)
}

// retryGeneral tries up to three rewritten variants of a failed general
// query. General coverage is critical, so the variants progressively
// simplify the query; the first variant returning hits wins, scored at
// 0.8x. All variants failing contributes nothing.
func (e *Executor) retryGeneral(ctx context.Context, q types.PlannedQuery) queryOutcome {
	variants := rewriteVariants(q.Query)
	for _, v := range variants {
		hits, err := e.gateway.Search(ctx, types.ProfileGeneral, v)
		if err != nil || len(hits) == 0 {
			continue
		}
		rq := q
		rq.Reasoning = fmt.Sprintf("%s (rewritten from %q)", q.Reasoning, q.Query)
		rq.Query = v
		return queryOutcome{query: q, results: normalize(hits, rq, rewriteScoreScale), ok: true}
	}
	return queryOutcome{query: q}
}

// crossEngineFallback degrades a failed specialized query to a
// generalized search on the general profile: at most three hits, scored
// at 0.6x, tagged with the profile they were meant for.
func (e *Executor) crossEngineFallback(ctx context.Context, q types.PlannedQuery) queryOutcome {
	hits, err := e.gateway.Search(ctx, types.ProfileGeneral, q.Query+" general information overview")
	if err != nil || len(hits) == 0 {
		return queryOutcome{query: q}
	}
	if len(hits) > crossEngineMaxHits {
		hits = hits[:crossEngineMaxHits]
	}

	fq := q
	fq.Reasoning = fmt.Sprintf("cross-engine fallback for failed %s query", q.Engine)
	fq.Engine = types.ProfileGeneral
	results := normalize(hits, fq, crossEngineScoreScale)
	for i := range results {
		results[i].FallbackFrom = q.Engine
	}
	return queryOutcome{query: q, results: results}
}

// rewriteVariants returns up to three progressively simpler phrasings of
// a failed general query.
func rewriteVariants(query string) []string {
	var variants []string

	if simplified := stripQualifiers(query); simplified != "" && simplified != query {
		variants = append(variants, simplified)
	}

	words := strings.Fields(query)
	if len(words) > 3 {
		variants = append(variants, strings.Join(words[:3], " "))
	}

	variants = append(variants, query+" beginner guide overview")

	if len(variants) > maxRewriteVariants {
		variants = variants[:maxRewriteVariants]
	}
	return variants
}

// qualifierWords are dropped when simplifying a query's vocabulary.
var qualifierWords = map[string]bool{
	"comprehensive": true,
	"detailed":      true,
	"advanced":      true,
	"in-depth":      true,
	"complete":      true,
	"thorough":      true,
	"extensive":     true,
}

func stripQualifiers(query string) string {
	var kept []string
	for _, w := range strings.Fields(query) {
		if qualifierWords[strings.ToLower(w)] {
			continue
		}
		kept = append(kept, w)
	}
	return strings.Join(kept, " ")
}

// normalize converts raw hits to EngineResults, filling defaults and
// scaling relevance.
func normalize(hits []searxng.Hit, q types.PlannedQuery, scale float64) []types.EngineResult {
	results := make([]types.EngineResult, 0, len(hits))
	for _, h := range hits {
		r := types.EngineResult{
			Title:          strings.TrimSpace(h.Title),
			URL:            strings.TrimSpace(h.URL),
			Snippet:        strings.TrimSpace(h.Text()),
			Source:         h.Engine,
			RelevanceScore: clampScore(h.Score),
			Engine:         q.Engine,
			Reasoning:      q.Reasoning,
		}
		if r.Title == "" {
			r.Title = defaultTitle
		}
		if r.URL == "" {
			r.URL = defaultURL
		}
		if r.Snippet == "" {
			r.Snippet = defaultSnippet
		}
		r.RelevanceScore *= scale
		results = append(results, r)
	}
	return results
}

// clampScore maps a raw engine score into [0,1], defaulting when absent.
func clampScore(score float64) float64 {
	if score <= 0 {
		return defaultScore
	}
	if score > 1 {
		return 1
	}
	return score
}

// Deduplicate removes results sharing a (normalized title, url) identity,
// keeping the first (and with ranked input, highest-scoring) occurrence.
// It is idempotent.
func Deduplicate(results []types.EngineResult) []types.EngineResult {
	seen := make(map[string]bool, len(results))
	deduped := make([]types.EngineResult, 0, len(results))
	for _, r := range results {
		key := r.DedupKey()
		if seen[key] {
			continue
		}
		seen[key] = true
		deduped = append(deduped, r)
	}
	return deduped
}

func (e *Executor) checkFloors(generalSuccesses, resultCount int) error {
	if generalSuccesses < e.cfg.MinGeneralSuccesses {
		return fmt.Errorf("%w: %d general queries succeeded, need %d",
			ErrInsufficientEvidence, generalSuccesses, e.cfg.MinGeneralSuccesses)
	}
	if resultCount < e.cfg.MinResults {
		return fmt.Errorf("%w: %d results after deduplication, need %d",
			ErrInsufficientEvidence, resultCount, e.cfg.MinResults)
	}
	return nil
}

func noteFor(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
