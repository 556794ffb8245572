// Package executor runs a compiled workflow in-process.
//
// It is the reference implementation of the execution contract: a task
// starts only once every artifact it reads has been published, its body
// receives literal values and readable paths, and its outputs become visible
// to other tasks only after the body succeeded. Independent tasks run
// concurrently on a fixed pool of workers.
package executor

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/vk/gridflow/internal/artifact"
	"github.com/vk/gridflow/internal/compiler"
	"github.com/vk/gridflow/internal/ctxlog"
	"github.com/vk/gridflow/internal/dag"
	"github.com/vk/gridflow/internal/events"
	"github.com/vk/gridflow/internal/metrics"
	"github.com/vk/gridflow/internal/registry"
)

// Option configures an Executor.
type Option func(*Executor)

// WithWorkers sets the number of concurrent workers. Values below one are ignored.
func WithWorkers(n int) Option {
	return func(e *Executor) {
		if n > 0 {
			e.numWorkers = n
		}
	}
}

// WithSink sets where lifecycle events go.
func WithSink(s events.Sink) Option {
	return func(e *Executor) { e.sink = s }
}

// WithMetrics records task outcomes and artifact sizes on c.
func WithMetrics(c *metrics.Collector) Option {
	return func(e *Executor) { e.metrics = c }
}

// WithRunID sets the run identifier. A random UUID is used otherwise.
func WithRunID(id string) Option {
	return func(e *Executor) { e.runID = id }
}

// WithFailFast cancels every running and pending task on the first failure.
// By default only the tasks downstream of a failure are skipped.
func WithFailFast(on bool) Option {
	return func(e *Executor) { e.failFast = on }
}

// Executor runs one workflow against one artifact store.
type Executor struct {
	wf         *compiler.Workflow
	registry   *registry.Registry
	store      artifact.Store
	numWorkers int
	sink       events.Sink
	metrics    *metrics.Collector
	runID      string
	failFast   bool

	graph *dag.Graph
	nodes map[string]*node

	wg sync.WaitGroup
}

// New creates an Executor.
func New(wf *compiler.Workflow, reg *registry.Registry, store artifact.Store, opts ...Option) *Executor {
	e := &Executor{
		wf:         wf,
		registry:   reg,
		store:      store,
		numWorkers: runtime.NumCPU(),
		sink:       events.NopSink{},
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.runID == "" {
		e.runID = uuid.NewString()
	}
	return e
}

// RunID returns the run identifier.
func (e *Executor) RunID() string { return e.runID }

// state is the lifecycle of one task within a run.
type state int32

const (
	pending state = iota
	running
	succeeded
	failed
	skipped
)

// node is the per-run bookkeeping for one workflow task.
type node struct {
	task     *compiler.Task
	depCount atomic.Int32
	state    atomic.Int32

	// Written once by the worker or skipper that claimed the node.
	err       error
	duration  time.Duration
	artifacts []artifact.Info
}

func (n *node) claim(to state) bool {
	return n.state.CompareAndSwap(int32(pending), int32(to))
}

// Run executes the workflow and blocks until every task succeeded, failed or
// was skipped. The returned Result is never nil once tasks have been
// scheduled; a *RunError reports failures.
func (e *Executor) Run(ctx context.Context) (*Result, error) {
	ctx, logger := ctxlog.With(ctx, "run_id", e.runID, "pipeline", e.wf.Name)

	if err := e.wf.Validate(); err != nil {
		return nil, err
	}
	if err := e.registry.ValidateWorkflow(ctx, e.wf); err != nil {
		return nil, err
	}

	nodes, err := e.buildGraph()
	if err != nil {
		return nil, err
	}

	e.sink.Emit(ctx, events.Event{RunID: e.runID, Type: events.RunStarted, Time: time.Now()})
	logger.Info("🚀 Starting run.", "tasks", e.graph.Len(), "workers", e.numWorkers)
	start := time.Now()

	readyChan := make(chan *node, len(nodes))
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	rootCount := 0
	for _, n := range nodes {
		if n.depCount.Load() == 0 {
			readyChan <- n
			rootCount++
		}
	}
	logger.Debug("Found all root tasks.", "count", rootCount)

	e.wg.Add(len(nodes))
	for i := 0; i < e.numWorkers; i++ {
		go e.worker(runCtx, readyChan, cancel, i)
	}
	e.wg.Wait()
	close(readyChan)

	res := &Result{
		RunID:     e.runID,
		Tasks:     make(map[string]TaskResult, len(nodes)),
		Artifacts: e.store.List(ctx),
	}
	runErr := &RunError{}
	for _, n := range nodes {
		tr := TaskResult{Err: n.err, Duration: n.duration, Artifacts: n.artifacts}
		switch state(n.state.Load()) {
		case succeeded:
			tr.Status = StatusSucceeded
		case failed:
			tr.Status = StatusFailed
			runErr.Failed = append(runErr.Failed, n.task.ID)
			if runErr.Cause == nil {
				runErr.Cause = fmt.Errorf("task %q: %w", n.task.ID, n.err)
			}
		default:
			tr.Status = StatusSkipped
			runErr.Skipped = append(runErr.Skipped, n.task.ID)
		}
		res.Tasks[n.task.ID] = tr
	}

	finished := events.Event{RunID: e.runID, Type: events.RunFinished, Time: time.Now()}
	if len(runErr.Failed) > 0 || len(runErr.Skipped) > 0 {
		if runErr.Cause == nil {
			runErr.Cause = ctx.Err()
		}
		finished.Error = runErr.Error()
		e.sink.Emit(ctx, finished)
		logger.Error("🏁 Run failed.", "failed", runErr.Failed, "skipped", runErr.Skipped, "elapsed", time.Since(start))
		return res, runErr
	}
	e.sink.Emit(ctx, finished)
	logger.Info("🏁 Run finished.", "artifacts", len(res.Artifacts), "elapsed", time.Since(start))
	return res, nil
}

// buildGraph loads the workflow's tasks into the run graph and seeds every
// node's dependency counter. Nodes come back in workflow order.
func (e *Executor) buildGraph() ([]*node, error) {
	g := dag.New()
	nodes := make([]*node, len(e.wf.Tasks))
	byID := make(map[string]*node, len(nodes))
	for i := range e.wf.Tasks {
		n := &node{task: &e.wf.Tasks[i]}
		g.AddNode(n.task.ID)
		nodes[i] = n
		byID[n.task.ID] = n
	}
	for _, n := range nodes {
		for _, dep := range n.task.DependsOn {
			if err := g.AddEdge(dep, n.task.ID); err != nil {
				return nil, fmt.Errorf("task %q: %w", n.task.ID, err)
			}
		}
	}
	if err := g.DetectCycles(); err != nil {
		return nil, err
	}
	for _, n := range nodes {
		deps, err := g.Dependencies(n.task.ID)
		if err != nil {
			return nil, err
		}
		n.depCount.Store(int32(len(deps)))
	}
	e.graph = g
	e.nodes = byID
	return nodes, nil
}

// dependents returns the nodes that read an artifact of n.
func (e *Executor) dependents(n *node) []*node {
	ids, err := e.graph.Dependents(n.task.ID)
	if err != nil {
		// Every node was added by buildGraph.
		panic(err)
	}
	out := make([]*node, len(ids))
	for i, id := range ids {
		out[i] = e.nodes[id]
	}
	return out
}
