// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package events defines the pipeline's structured telemetry surface.
// Stages emit Events through the Emitter interface and never couple to a
// concrete sink; the CLI wires a zap-backed emitter, tests usually pass
// a Recorder or Nop.
//
// See docs/ARCHITECTURE.md § Observability.
package events

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// Event describes one pipeline stage outcome.
type Event struct {
	// RunID identifies the pipeline run the event belongs to.
	RunID string

	// Topic is the topic under research.
	Topic string

	// Stage names the pipeline stage (e.g. "understanding", "research").
	Stage string

	// Duration is how long the stage ran.
	Duration time.Duration

	// Success is false when the stage degraded or failed.
	Success bool

	// Counts carries stage-specific counters (results, queries, issues).
	Counts map[string]int

	// Note is a short free-text annotation (fallback used, floor missed).
	Note string
}

// Emitter receives stage events.
type Emitter interface {
	Emit(e Event)
}

// Nop discards all events.
type Nop struct{}

func (Nop) Emit(Event) {}

// ZapEmitter logs events through a zap logger.
type ZapEmitter struct {
	logger *zap.Logger
}

// NewZapEmitter wraps a zap logger. A nil logger is replaced with
// zap.NewNop().
func NewZapEmitter(logger *zap.Logger) *ZapEmitter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ZapEmitter{logger: logger}
}

// Emit logs the event at info level, or warn when the stage degraded.
func (z *ZapEmitter) Emit(e Event) {
	fields := []zap.Field{
		zap.String("run_id", e.RunID),
		zap.String("topic", e.Topic),
		zap.String("stage", e.Stage),
		zap.Duration("duration", e.Duration),
		zap.Bool("success", e.Success),
	}
	for k, v := range e.Counts {
		fields = append(fields, zap.Int(k, v))
	}
	if e.Note != "" {
		fields = append(fields, zap.String("note", e.Note))
	}

	if e.Success {
		z.logger.Info("pipeline stage", fields...)
	} else {
		z.logger.Warn("pipeline stage", fields...)
	}
}

// Recorder collects events in memory for tests.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// Emit appends the event.
func (r *Recorder) Emit(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// ByStage returns recorded events for one stage.
func (r *Recorder) ByStage(stage string) []Event {
	var out []Event
	for _, e := range r.Events() {
		if e.Stage == stage {
			out = append(out, e)
		}
	}
	return out
}
