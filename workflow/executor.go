package workflow

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/BaSui01/botflow/internal/metrics"
	"github.com/BaSui01/botflow/internal/pool"
)

// Results maps block names to their output values.
type Results map[string]map[string]any

// errRunDeadline marks expiry of the run's own timer. Cancellation arriving
// from the caller's ctx keeps its original cause, so the two stay
// distinguishable.
var errRunDeadline = errors.New("workflow run deadline exceeded")

// RunState is the lifecycle state of an Executor.
type RunState string

const (
	StateIdle      RunState = "idle"
	StateRunning   RunState = "running"
	StateCompleted RunState = "completed"
	StateFailed    RunState = "failed"
	StateTimedOut  RunState = "timed_out"
)

// RunMetrics counts block submissions within one run.
type RunMetrics struct {
	Submitted int `json:"submitted"`
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
}

// ExecConfig bounds the resources of a single run.
type ExecConfig struct {
	// IOWorkers sizes the pool for I/O-bound blocks.
	IOWorkers int
	// CPUWorkers sizes the pool for CPU-bound blocks.
	CPUWorkers int
	// MaxConcurrency bounds block executions in flight within the run.
	MaxConcurrency int
	// DefaultTimeout applies when the graph config has no timeout of its own.
	// Zero or negative disables the fallback.
	DefaultTimeout time.Duration
}

// DefaultExecConfig returns the built-in execution limits.
func DefaultExecConfig() ExecConfig {
	return ExecConfig{
		IOWorkers:      16,
		CPUWorkers:     4,
		MaxConcurrency: 32,
		DefaultTimeout: time.Hour,
	}
}

// CompletionHook observes the end of a run. It receives the results recorded
// so far (partial on failure or timeout) and the terminal error, if any.
type CompletionHook func(results Results, err error)

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithLogger sets the executor logger.
func WithLogger(logger *zap.Logger) ExecutorOption {
	return func(e *Executor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithExecConfig overrides the execution limits.
func WithExecConfig(cfg ExecConfig) ExecutorOption {
	return func(e *Executor) { e.cfg = cfg }
}

// WithCollector attaches a process-level metrics collector.
func WithCollector(collector *metrics.Collector) ExecutorOption {
	return func(e *Executor) { e.collector = collector }
}

// WithScope binds the request-scoped dispatch context exposed to blocks via
// Runtime.Scope.
func WithScope(scope any) ExecutorOption {
	return func(e *Executor) { e.scope = scope }
}

// WithCompletionHook registers a hook invoked when the run ends, on every
// path including failure and timeout.
func WithCompletionHook(hook CompletionHook) ExecutorOption {
	return func(e *Executor) { e.completion = hook }
}

// Executor walks one workflow graph once. All run state (results, variables,
// metrics) is owned by this instance and never shared across runs; build a
// fresh Executor per run.
type Executor struct {
	workflow   *Workflow
	types      *TypeSystem
	cfg        ExecConfig
	logger     *zap.Logger
	collector  *metrics.Collector
	scope      any
	completion CompletionHook

	runID     string
	state     RunState
	results   Results
	variables map[string]any
	met       RunMetrics

	sem     *semaphore.Weighted
	ioPool  *pool.WorkerPool
	cpuPool *pool.WorkerPool

	// successors per source block name, in wire declaration order
	graph map[string][]Block
}

// NewExecutor validates the graph's wires against the type system and
// prepares a single-use executor. An incompatible wire is a build-time
// error; Run never re-checks types.
func NewExecutor(wf *Workflow, ts *TypeSystem, opts ...ExecutorOption) (*Executor, error) {
	e := &Executor{
		workflow:  wf,
		types:     ts,
		cfg:       DefaultExecConfig(),
		logger:    zap.NewNop(),
		runID:     uuid.NewString(),
		state:     StateIdle,
		results:   make(Results),
		variables: make(map[string]any),
		graph:     make(map[string][]Block),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.With(
		zap.String("component", "workflow_executor"),
		zap.String("workflow", wf.ID),
		zap.String("run_id", e.runID),
	)

	if e.cfg.MaxConcurrency < 1 {
		e.cfg.MaxConcurrency = 1
	}
	e.sem = semaphore.NewWeighted(int64(e.cfg.MaxConcurrency))

	if err := e.buildExecutionGraph(); err != nil {
		return nil, err
	}

	e.logger.Debug("executor initialized",
		zap.Int("blocks", len(wf.Blocks)),
		zap.Int("wires", len(wf.Wires)),
	)
	return e, nil
}

// buildExecutionGraph derives the adjacency map from the wires, rejecting any
// wire whose slot types are incompatible. This is the single validation gate
// for the whole run.
func (e *Executor) buildExecutionGraph() error {
	for _, wire := range e.workflow.Wires {
		sourceOutput := wire.SourceBlock.Outputs()[wire.SourceOutput]
		targetInput := wire.TargetBlock.Inputs()[wire.TargetInput]

		sourceType, _, _ := e.types.Extract(sourceOutput.Type)
		targetType, _, _ := e.types.Extract(targetInput.Type)

		if !e.types.IsCompatible(sourceType, targetType) {
			err := newWireTypeError(wire, sourceType, targetType)
			e.logger.Error("wire validation failed", zap.Error(err))
			return err
		}

		source := wire.SourceBlock.Name()
		e.graph[source] = append(e.graph[source], wire.TargetBlock)
	}
	return nil
}

// State returns the executor lifecycle state.
func (e *Executor) State() RunState { return e.state }

// SetVariable stores a run-scoped scratch value. Implements Runtime.
func (e *Executor) SetVariable(name string, value any) {
	e.variables[name] = value
}

// GetVariable reads a run-scoped scratch value. Implements Runtime.
func (e *Executor) GetVariable(name string, def any) any {
	if value, ok := e.variables[name]; ok {
		return value
	}
	return def
}

// Scope returns the dispatch context bound to this run. Implements Runtime.
func (e *Executor) Scope() any { return e.scope }

// Metrics returns the block submission counters for this run.
func (e *Executor) Metrics() RunMetrics { return e.met }

// Run executes the workflow and returns the output values of every executed
// block, keyed by block name. It may be called once per Executor.
func (e *Executor) Run(ctx context.Context) (Results, error) {
	if e.state != StateIdle {
		return nil, errors.New("executor already ran; build a fresh one per run")
	}
	e.state = StateRunning
	e.logger.Info("starting workflow execution")

	timeout := e.resolveTimeout()
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeoutCause(ctx, timeout, errRunDeadline)
		defer cancel()
	}

	e.ioPool = pool.NewWorkerPool(e.cfg.IOWorkers)
	e.cpuPool = pool.NewWorkerPool(e.cfg.CPUWorkers)

	var entries []Block
	for _, block := range e.workflow.Blocks {
		if len(block.Inputs()) == 0 {
			entries = append(entries, block)
		}
	}

	err := e.executeNodes(ctx, entries)
	if err != nil {
		e.closePools(false)
		if errors.Is(err, context.DeadlineExceeded) && errors.Is(context.Cause(ctx), errRunDeadline) {
			err = newTimeoutError(timeout)
			e.state = StateTimedOut
		} else {
			e.state = StateFailed
		}
		if e.collector != nil {
			e.collector.RecordRunFailure(e.workflow.ID)
		}
		if IsTimeout(err) {
			e.logger.Warn("workflow execution timed out", zap.Duration("timeout", timeout))
		} else {
			e.logger.Error("workflow execution failed", zap.Error(err))
		}
		if e.completion != nil {
			e.completion(e.results, err)
		}
		return nil, err
	}

	e.closePools(true)
	e.state = StateCompleted
	if e.collector != nil {
		e.collector.RecordRunSuccess(e.workflow.ID)
	}
	e.logger.Info("workflow execution completed", zap.Int("blocks_executed", len(e.results)))
	if e.completion != nil {
		e.completion(e.results, nil)
	}
	return e.results, nil
}

// closePools shuts the worker pools down. On the success path every body has
// returned and the close waits; an abnormal run may still have a body stuck
// ignoring cancellation, so those pools drain in the background and Run
// returns at the deadline instead of at the body's leisure.
func (e *Executor) closePools(wait bool) {
	if wait {
		e.ioPool.Close()
		e.cpuPool.Close()
		return
	}
	go e.ioPool.Close()
	go e.cpuPool.Close()
}

// resolveTimeout prefers the graph's own limit, falling back to the system
// default; zero disables the deadline entirely.
func (e *Executor) resolveTimeout() time.Duration {
	if e.workflow.Config.MaxExecutionTime > 0 {
		return e.workflow.Config.MaxExecutionTime
	}
	if e.cfg.DefaultTimeout > 0 {
		return e.cfg.DefaultTimeout
	}
	return 0
}

// executeNodes runs one group of nodes, dispatching on block kind.
func (e *Executor) executeNodes(ctx context.Context, blocks []Block) error {
	for _, block := range blocks {
		var err error
		switch block.Kind() {
		case KindCondition:
			err = e.executeConditionalBranch(ctx, block)
		case KindLoop:
			err = e.executeLoop(ctx, block)
		default:
			err = e.executeNormalBlock(ctx, block)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// executeConditionalBranch executes a condition block once and recurses into
// exactly one successor: the first on true, the second (if present) on false.
func (e *Executor) executeConditionalBranch(ctx context.Context, block Block) error {
	inputs, err := e.gatherInputs(block)
	if err != nil {
		return err
	}

	result, err := e.executeBlock(ctx, block, inputs)
	if err != nil {
		return err
	}
	e.results[block.Name()] = result

	conditionResult, _ := result[OutputConditionResult].(bool)
	e.logger.Debug("condition evaluated",
		zap.String("block", block.Name()),
		zap.Bool("result", conditionResult),
	)

	next := e.graph[block.Name()]
	switch {
	case conditionResult && len(next) > 0:
		return e.executeNodes(ctx, next[:1])
	case !conditionResult && len(next) > 1:
		return e.executeNodes(ctx, next[1:2])
	default:
		// false with no else branch: nothing to do
		return nil
	}
}

// executeLoop repeatedly evaluates the loop block and its body until the
// continuation flag goes false. The loop block's latest result overwrites
// previous iterations; body results are cleared before each iteration so the
// body re-executes.
func (e *Executor) executeLoop(ctx context.Context, block Block) error {
	iteration := 0
	for {
		iteration++
		inputs, err := e.gatherInputs(block)
		if err != nil {
			return err
		}

		result, err := e.executeBlock(ctx, block, inputs)
		if err != nil {
			return err
		}
		e.results[block.Name()] = result

		shouldContinue, _ := result[OutputShouldContinue].(bool)
		e.logger.Debug("loop continuation check",
			zap.String("block", block.Name()),
			zap.Int("iteration", iteration),
			zap.Bool("continue", shouldContinue),
		)
		if !shouldContinue {
			e.logger.Debug("exiting loop",
				zap.String("block", block.Name()),
				zap.Int("iterations", iteration),
			)
			return nil
		}

		next := e.graph[block.Name()]
		if len(next) == 0 {
			e.logger.Warn("loop block has no body successor", zap.String("block", block.Name()))
			return nil
		}
		body := next[0]
		e.clearBodyResults(body, block)
		if err := e.executeNodes(ctx, []Block{body}); err != nil {
			return err
		}
	}
}

// clearBodyResults forgets the results of the loop body subtree so its
// blocks pass the executed-once readiness check again on the next iteration.
// The walk follows successors from the body head and stops at the loop block
// itself. Stateful collectors (LoopEnd) keep their internal accumulation;
// only the recorded result entries are dropped.
func (e *Executor) clearBodyResults(body Block, loop Block) {
	visited := map[string]bool{loop.Name(): true}
	queue := []Block{body}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if visited[current.Name()] {
			continue
		}
		visited[current.Name()] = true
		delete(e.results, current.Name())
		queue = append(queue, e.graph[current.Name()]...)
	}
}

// executeNormalBlock executes an ordinary block if it is ready, records its
// result, and recurses into all direct successors.
func (e *Executor) executeNormalBlock(ctx context.Context, block Block) error {
	ready, err := e.canExecute(block)
	if err != nil {
		return err
	}
	if !ready {
		e.logger.Debug("block not ready, skipping", zap.String("block", block.Name()))
		return nil
	}

	inputs, err := e.gatherInputs(block)
	if err != nil {
		return err
	}

	e.logger.Debug("executing block", zap.String("block", block.Name()))
	result, err := e.executeBlock(ctx, block, inputs)
	if err != nil {
		return err
	}
	e.results[block.Name()] = result

	return e.executeNodes(ctx, e.graph[block.Name()])
}

// canExecute checks readiness: the block has not run yet, every feeding block
// has a recorded result, and every non-nullable input is resolvable. A
// required input with no wire at all is a hard error the first time the walk
// reaches the block with its predecessors complete.
func (e *Executor) canExecute(block Block) (bool, error) {
	if _, done := e.results[block.Name()]; done {
		return false, nil
	}

	for _, wire := range e.workflow.Wires {
		if wire.TargetBlock != block {
			continue
		}
		if _, ok := e.results[wire.SourceBlock.Name()]; !ok {
			return false, nil
		}
	}

	for name, input := range block.Inputs() {
		satisfied := false
		wired := false
		for _, wire := range e.workflow.Wires {
			if wire.TargetBlock != block || wire.TargetInput != name {
				continue
			}
			wired = true
			if outputs, ok := e.results[wire.SourceBlock.Name()]; ok {
				if _, ok := outputs[wire.SourceOutput]; ok {
					satisfied = true
					break
				}
			}
		}
		if !satisfied && !input.Nullable {
			if !wired {
				return false, newMissingWireError(block.Name(), name)
			}
			e.logger.Debug("required input not satisfied",
				zap.String("block", block.Name()),
				zap.String("input", name),
			)
			return false, nil
		}
	}
	return true, nil
}

// gatherInputs resolves the block's input values from recorded predecessor
// results along its wires.
func (e *Executor) gatherInputs(block Block) (map[string]any, error) {
	inputWires := make(map[string]Wire)
	for _, wire := range e.workflow.Wires {
		if wire.TargetBlock == block {
			inputWires[wire.TargetInput] = wire
		}
	}

	inputs := make(map[string]any)
	for name, input := range block.Inputs() {
		wire, wired := inputWires[name]
		if !wired {
			if !input.Nullable {
				return nil, newMissingWireError(block.Name(), name)
			}
			continue
		}
		outputs, ok := e.results[wire.SourceBlock.Name()]
		if !ok {
			return nil, newUnresolvedInputError(block.Name(), name, wire.SourceBlock.Name())
		}
		value, ok := outputs[wire.SourceOutput]
		if !ok {
			return nil, newUnresolvedInputError(block.Name(), name, wire.SourceBlock.Name())
		}
		inputs[name] = value
	}
	return inputs, nil
}

// executeBlock runs one block body under admission control on the worker
// pool matching its affinity. Every invocation passes through here,
// regardless of block kind.
func (e *Executor) executeBlock(ctx context.Context, block Block, inputs map[string]any) (map[string]any, error) {
	e.met.Submitted++

	if err := e.sem.Acquire(ctx, 1); err != nil {
		e.met.Failed++
		return nil, err
	}
	defer e.sem.Release(1)

	workerPool := e.ioPool
	if block.Affinity() == AffinityCPU {
		workerPool = e.cpuPool
	}

	var result map[string]any
	err := workerPool.SubmitWait(ctx, func(ctx context.Context) error {
		var execErr error
		result, execErr = block.Execute(ctx, e, inputs)
		return execErr
	})
	if err != nil {
		e.met.Failed++
		if e.collector != nil {
			e.collector.RecordBlockFailure(e.workflow.ID)
		}
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, newBlockError(block.Name(), err)
	}

	e.met.Completed++
	if e.collector != nil {
		e.collector.RecordBlock(e.workflow.ID)
	}
	return result, nil
}
