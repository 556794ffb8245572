// Package events reports run and task lifecycle transitions to pluggable sinks.
package events

import (
	"context"
	"sync"
	"time"

	"github.com/vk/gridflow/internal/ctxlog"
)

// Type names a lifecycle transition.
type Type string

const (
	RunStarted    Type = "run_started"
	TaskStarted   Type = "task_started"
	TaskSucceeded Type = "task_succeeded"
	TaskFailed    Type = "task_failed"
	TaskSkipped   Type = "task_skipped"
	RunFinished   Type = "run_finished"
)

// Event is one lifecycle transition.
type Event struct {
	RunID     string    `json:"run_id"`
	Type      Type      `json:"type"`
	Task      string    `json:"task,omitempty"`
	Component string    `json:"component,omitempty"`
	Error     string    `json:"error,omitempty"`
	Time      time.Time `json:"time"`
}

// Fields renders the event as a plain map for transports that serialise
// arguments themselves.
func (e Event) Fields() map[string]any {
	m := map[string]any{
		"run_id": e.RunID,
		"type":   string(e.Type),
		"time":   e.Time.UTC().Format(time.RFC3339Nano),
	}
	if e.Task != "" {
		m["task"] = e.Task
	}
	if e.Component != "" {
		m["component"] = e.Component
	}
	if e.Error != "" {
		m["error"] = e.Error
	}
	return m
}

// Sink receives events. Emit must not block for long and must be safe for
// concurrent use; delivery is best effort.
type Sink interface {
	Emit(ctx context.Context, ev Event)
}

// NopSink drops every event.
type NopSink struct{}

// Emit implements Sink.
func (NopSink) Emit(context.Context, Event) {}

// LogSink writes events to the logger carried by the context.
type LogSink struct{}

// Emit implements Sink.
func (LogSink) Emit(ctx context.Context, ev Event) {
	logger := ctxlog.FromContext(ctx)
	args := []any{"event", string(ev.Type), "run_id", ev.RunID}
	if ev.Task != "" {
		args = append(args, "task", ev.Task, "component", ev.Component)
	}
	if ev.Error != "" {
		args = append(args, "error", ev.Error)
		logger.Warn("Lifecycle event.", args...)
		return
	}
	logger.Debug("Lifecycle event.", args...)
}

// Multi fans an event out to several sinks in order.
type Multi []Sink

// Emit implements Sink.
func (m Multi) Emit(ctx context.Context, ev Event) {
	for _, s := range m {
		if s != nil {
			s.Emit(ctx, ev)
		}
	}
}

// Recorder keeps every event in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// Emit implements Sink.
func (r *Recorder) Emit(_ context.Context, ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// ByTask returns the event types recorded for one task, in emission order.
func (r *Recorder) ByTask(task string) []Type {
	var out []Type
	for _, ev := range r.Events() {
		if ev.Task == task {
			out = append(out, ev.Type)
		}
	}
	return out
}
