// Package runner drives one pipeline run. It walks the stage graph,
// dispatches every ready stage concurrently within a parallelism
// bound, provisions required tools, and collects outcomes into a
// consolidated report. The first blocking failure halts the run:
// in-flight stages are cancelled and everything not yet started is
// reported skipped.
package runner

import (
	"context"
	"sync"

	goerrors "github.com/kbukum/gatekit/errors"
	"github.com/kbukum/gatekit/graph"
	"github.com/kbukum/gatekit/logger"
	"github.com/kbukum/gatekit/observability"
	"github.com/kbukum/gatekit/process"
	"github.com/kbukum/gatekit/provision"
	"github.com/kbukum/gatekit/report"
	"github.com/kbukum/gatekit/resilience"
	"github.com/kbukum/gatekit/stage"
)

// State is the runner's lifecycle state.
type State int

const (
	// StateInitializing means the runner is built but Run has not started.
	StateInitializing State = iota
	// StateExecuting means stages are being dispatched and run.
	StateExecuting
	// StateHalted means the run stopped before every stage could run.
	StateHalted
	// StateCompleted means every stage was dispatched and finished.
	StateCompleted
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateInitializing:
		return "initializing"
	case StateExecuting:
		return "executing"
	case StateHalted:
		return "halted"
	case StateCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// Executor runs a single stage command. *process.Runner is the
// production implementation; tests substitute fakes.
type Executor interface {
	Run(ctx context.Context, cmd process.Command) (*process.Result, error)
}

// Config configures a Runner.
type Config struct {
	// Pipeline names the run in reports, logs, and spans.
	Pipeline string
	// Executor runs stage commands. Defaults to process.NewRunner().
	Executor Executor
	// Provisioner satisfies stage tool requirements before the command
	// runs. Nil disables provisioning.
	Provisioner *provision.Provisioner
	// MaxParallel bounds concurrently running stages. Non-positive
	// means unbounded.
	MaxParallel int
	// Middleware wraps every stage execution, outermost first.
	Middleware []Middleware
	// Logger for run-level events. Defaults to the global logger.
	Logger *logger.Logger
	// Metrics, when set, records run-level outcomes.
	Metrics *observability.Metrics
	// OnStateChange is called on every state transition.
	OnStateChange func(from, to State)
}

// Runner executes stage graphs. A Runner is safe to reuse, one run at
// a time; State reflects the most recent run.
type Runner struct {
	pipeline string
	exec     Executor
	prov     *provision.Provisioner
	bulkhead *resilience.Bulkhead
	run      StageFunc
	log      *logger.Logger
	metrics  *observability.Metrics
	onChange func(from, to State)

	mu    sync.RWMutex
	state State
}

// New builds a Runner from the config.
func New(cfg Config) *Runner {
	if cfg.Executor == nil {
		cfg.Executor = process.NewRunner()
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Get("runner")
	}

	r := &Runner{
		pipeline: cfg.Pipeline,
		exec:     cfg.Executor,
		prov:     cfg.Provisioner,
		log:      cfg.Logger,
		metrics:  cfg.Metrics,
		onChange: cfg.OnStateChange,
		state:    StateInitializing,
	}
	r.bulkhead = resilience.NewBulkhead(resilience.BulkheadConfig{
		Name:          "runner",
		MaxConcurrent: cfg.MaxParallel,
	})
	r.run = Chain(r.executeStage, cfg.Middleware...)
	return r
}

// State returns the runner's current state.
func (r *Runner) State() State {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state
}

func (r *Runner) setState(next State) {
	r.mu.Lock()
	prev := r.state
	r.state = next
	r.mu.Unlock()

	if prev != next && r.onChange != nil {
		r.onChange(prev, next)
	}
}

// RunStages builds the dependency graph from the stage list and runs
// it. A graph that does not validate, a cycle or an unknown dependency,
// halts the runner before anything executes.
func (r *Runner) RunStages(ctx context.Context, stages []stage.Stage) (*report.Report, error) {
	g, err := graph.New(stages)
	if err != nil {
		r.setState(StateHalted)
		return nil, err
	}
	return r.Run(ctx, g)
}

// Run executes the graph and returns the finalized report. The report
// covers every stage in the graph exactly once. Stage failures are
// reported, not returned; a non-nil error means the run was cancelled
// from outside and the report is cut short.
func (r *Runner) Run(ctx context.Context, g *graph.Graph) (*report.Report, error) {
	rep := report.New(r.pipeline)
	r.setState(StateExecuting)

	ctx, span := observability.StartSpan(ctx, observability.SpanRun)
	defer span.End()
	observability.SetSpanAttribute(ctx, observability.AttrPipeline, r.pipeline)
	observability.SetSpanAttribute(ctx, observability.AttrRunID, rep.RunID.String())

	r.log.Info("run started", logger.Fields(
		logger.FieldPipeline, r.pipeline,
		logger.FieldRunID, rep.RunID.String(),
		"stages", g.Len(),
	))

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	walker := g.Walk()
	satisfied := make(map[string]bool, g.Len())
	results := make(chan report.Result)

	inFlight := 0
	halted := false

	dispatch := func() {
		for _, s := range walker.Next(satisfied) {
			inFlight++
			go func(s stage.Stage) {
				// Queue behind the parallelism bound; a cancelled run
				// releases queued stages without running them.
				if err := r.bulkhead.Acquire(runCtx); err != nil {
					results <- report.Result{
						Stage:          s.Name,
						Status:         report.StatusSkipped,
						Err:            "cancelled",
						AllowedFailure: s.AllowFailure,
					}
					return
				}
				defer r.bulkhead.Release()
				results <- r.run(runCtx, s)
			}(s)
		}
	}

	dispatch()
	for inFlight > 0 {
		res := <-results
		inFlight--
		rep.Append(res)

		if res.Status == report.StatusSucceeded || (res.Failed() && res.AllowedFailure) {
			satisfied[res.Stage] = true
		}
		if res.Failed() && !res.AllowedFailure && !halted {
			halted = true
			r.log.Warn("halting run", logger.Fields(
				logger.FieldPipeline, r.pipeline,
				logger.FieldStage, res.Stage,
			))
			cancel()
		}
		if !halted {
			dispatch()
		}
	}

	// Whatever the walker never handed out cannot run anymore: either
	// the run halted or a dependency stayed unsatisfied.
	for _, name := range walker.Remaining() {
		rep.Append(report.Result{Stage: name, Status: report.StatusSkipped})
	}

	rep.Finalize()
	observability.SetSpanAttribute(ctx, observability.AttrVerdict, string(rep.Verdict))

	cancelled := ctx.Err() != nil
	if halted || cancelled {
		r.setState(StateHalted)
	} else {
		r.setState(StateCompleted)
	}

	r.log.Info("run finished", logger.Fields(
		logger.FieldPipeline, r.pipeline,
		logger.FieldRunID, rep.RunID.String(),
		logger.FieldVerdict, string(rep.Verdict),
		logger.FieldDuration, rep.Duration().Milliseconds(),
	))
	if r.metrics != nil {
		r.metrics.RecordRun(ctx, r.pipeline, string(rep.Verdict), rep.Duration())
	}

	if cancelled {
		return rep, goerrors.Cancelled("pipeline " + r.pipeline)
	}
	return rep, nil
}
