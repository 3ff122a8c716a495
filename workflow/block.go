package workflow

import "context"

// BlockKind tags a block with its scheduler semantics. The scheduler
// switches exhaustively on this tag; user blocks are always KindNormal.
type BlockKind string

const (
	// KindNormal is an ordinary data-flow block.
	KindNormal BlockKind = "normal"
	// KindCondition branches the walk on a boolean result.
	KindCondition BlockKind = "condition"
	// KindLoop repeats its body while a continuation flag holds.
	KindLoop BlockKind = "loop"
	// KindLoopEnd collects the loop body's results across iterations.
	KindLoopEnd BlockKind = "loop_end"
)

// Affinity declares which worker pool a block's body runs on.
type Affinity string

const (
	// AffinityIO is for blocks dominated by waiting (network, disk, LLM calls).
	AffinityIO Affinity = "io"
	// AffinityCPU is for compute-heavy blocks.
	AffinityCPU Affinity = "cpu"
)

// Output names produced by the built-in blocks.
const (
	OutputConditionResult = "condition_result"
	OutputShouldContinue  = "should_continue"
	OutputIteration       = "iteration"
	OutputLoopResults     = "loop_results"
)

// Input declares a named input slot.
type Input struct {
	Name  string
	Label string
	Type  TypeDecl
	// Nullable inputs may stay unsatisfied without blocking readiness.
	Nullable bool
}

// Output declares a named output slot.
type Output struct {
	Name  string
	Label string
	Type  TypeDecl
}

// Runtime is the execution environment a block sees during one run.
// It is owned by a single Executor and must not be retained past Execute.
type Runtime interface {
	// SetVariable stores a run-scoped scratch value.
	SetVariable(name string, value any)
	// GetVariable reads a run-scoped scratch value, returning def when absent.
	GetVariable(name string, def any) any
	// Scope returns the request-scoped context the dispatcher bound to this
	// run (nil outside dispatch).
	Scope() any
}

// Block is the unit of work in a workflow graph. Implementations declare
// typed input/output slots and are invoked at most once per run, except for
// blocks inside a Loop body.
type Block interface {
	// ID returns the block type tag.
	ID() string
	// Name returns the block's unique name within its graph.
	Name() string
	// SetName assigns the name; used by graph construction for unnamed blocks.
	SetName(name string)
	// Kind returns the scheduler semantics tag.
	Kind() BlockKind
	// Affinity returns the worker pool the block body runs on.
	Affinity() Affinity
	// Inputs declares the input slots.
	Inputs() map[string]Input
	// Outputs declares the output slots.
	Outputs() map[string]Output
	// Execute runs the block with the gathered inputs and returns a value
	// per declared output.
	Execute(ctx context.Context, rt Runtime, in map[string]any) (map[string]any, error)
}

// Base provides the identity and slot bookkeeping shared by block
// implementations. Embed it and implement Execute.
type Base struct {
	id       string
	name     string
	inputs   map[string]Input
	outputs  map[string]Output
	affinity Affinity
}

// NewBase creates block identity state for embedding.
func NewBase(id, name string, inputs map[string]Input, outputs map[string]Output) Base {
	return Base{
		id:       id,
		name:     name,
		inputs:   inputs,
		outputs:  outputs,
		affinity: AffinityIO,
	}
}

func (b *Base) ID() string {
	if b.id == "" {
		return "anonymous"
	}
	return b.id
}

func (b *Base) Name() string { return b.name }

func (b *Base) SetName(name string) { b.name = name }

func (b *Base) Kind() BlockKind { return KindNormal }

func (b *Base) Affinity() Affinity { return b.affinity }

func (b *Base) Inputs() map[string]Input { return b.inputs }

func (b *Base) Outputs() map[string]Output { return b.outputs }

// SetAffinity declares the block CPU- or I/O-bound.
func (b *Base) SetAffinity(affinity Affinity) { b.affinity = affinity }

// FuncBlock wraps a plain function as a normal block.
type FuncBlock struct {
	Base
	fn func(ctx context.Context, rt Runtime, in map[string]any) (map[string]any, error)
}

// NewFuncBlock creates a function-backed block.
func NewFuncBlock(
	id, name string,
	inputs map[string]Input,
	outputs map[string]Output,
	fn func(ctx context.Context, rt Runtime, in map[string]any) (map[string]any, error),
) *FuncBlock {
	return &FuncBlock{Base: NewBase(id, name, inputs, outputs), fn: fn}
}

func (b *FuncBlock) Execute(ctx context.Context, rt Runtime, in map[string]any) (map[string]any, error) {
	return b.fn(ctx, rt, in)
}

// ConditionFunc evaluates gathered inputs to a boolean.
type ConditionFunc func(ctx context.Context, rt Runtime, in map[string]any) (bool, error)

// ConditionBlock evaluates a predicate once; the scheduler then recurses into
// the first successor when true, the second (if present) when false.
type ConditionBlock struct {
	Base
	cond ConditionFunc
}

// NewConditionBlock creates a condition block with the given inputs.
func NewConditionBlock(name string, inputs map[string]Input, cond ConditionFunc) *ConditionBlock {
	outputs := map[string]Output{
		OutputConditionResult: {Name: OutputConditionResult, Label: "condition result", Type: TypeOf[bool]()},
	}
	return &ConditionBlock{Base: NewBase("condition", name, inputs, outputs), cond: cond}
}

func (b *ConditionBlock) Kind() BlockKind { return KindCondition }

func (b *ConditionBlock) Execute(ctx context.Context, rt Runtime, in map[string]any) (map[string]any, error) {
	result, err := b.cond(ctx, rt, in)
	if err != nil {
		return nil, err
	}
	return map[string]any{OutputConditionResult: result}, nil
}

// LoopBlock re-evaluates a continuation predicate before each body iteration.
// Its latest result overwrites previous iterations under the block's name,
// and the running iteration count is exposed to the body as loop metadata.
type LoopBlock struct {
	Base
	cond         ConditionFunc
	iterationVar string
	iterations   int
}

// NewLoopBlock creates a loop block. iterationVar names the counter key in
// the iteration metadata output; it defaults to "index".
func NewLoopBlock(name string, inputs map[string]Input, cond ConditionFunc, iterationVar string) *LoopBlock {
	if iterationVar == "" {
		iterationVar = "index"
	}
	outputs := map[string]Output{
		OutputShouldContinue: {Name: OutputShouldContinue, Label: "continue", Type: TypeOf[bool]()},
		OutputIteration:      {Name: OutputIteration, Label: "iteration metadata", Type: TypeOf[map[string]any]()},
	}
	return &LoopBlock{
		Base:         NewBase("loop", name, inputs, outputs),
		cond:         cond,
		iterationVar: iterationVar,
	}
}

func (b *LoopBlock) Kind() BlockKind { return KindLoop }

// Iterations returns the number of times the loop condition has been
// evaluated so far in this run.
func (b *LoopBlock) Iterations() int { return b.iterations }

func (b *LoopBlock) Execute(ctx context.Context, rt Runtime, in map[string]any) (map[string]any, error) {
	shouldContinue, err := b.cond(ctx, rt, in)
	if err != nil {
		return nil, err
	}
	b.iterations++
	iteration := map[string]any{b.iterationVar: b.iterations}
	for k, v := range in {
		iteration[k] = v
	}
	return map[string]any{
		OutputShouldContinue: shouldContinue,
		OutputIteration:      iteration,
	}, nil
}

// LoopEndBlock accumulates its input set on every invocation and returns the
// accumulated list. It is a stateful collector across loop iterations, not a
// pure function.
type LoopEndBlock struct {
	Base
	results []map[string]any
}

// NewLoopEndBlock creates a loop-end collector with the given inputs.
func NewLoopEndBlock(name string, inputs map[string]Input) *LoopEndBlock {
	outputs := map[string]Output{
		OutputLoopResults: {Name: OutputLoopResults, Label: "collected loop results", Type: ListOf[map[string]any]()},
	}
	return &LoopEndBlock{Base: NewBase("loop_end", name, inputs, outputs)}
}

func (b *LoopEndBlock) Kind() BlockKind { return KindLoopEnd }

func (b *LoopEndBlock) Execute(ctx context.Context, rt Runtime, in map[string]any) (map[string]any, error) {
	snapshot := make(map[string]any, len(in))
	for k, v := range in {
		snapshot[k] = v
	}
	b.results = append(b.results, snapshot)
	return map[string]any{OutputLoopResults: b.results}, nil
}
