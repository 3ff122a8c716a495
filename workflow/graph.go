package workflow

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Config carries per-run configuration for a workflow.
type Config struct {
	// MaxExecutionTime bounds one run of this workflow.
	// Zero means "use the system default timeout".
	MaxExecutionTime time.Duration `json:"max_execution_time" yaml:"max_execution_time"`
}

// Wire is an immutable data-flow edge from one block's output to another
// block's input. Type compatibility is enforced when an Executor is built.
type Wire struct {
	SourceBlock  Block
	SourceOutput string
	TargetBlock  Block
	TargetInput  string
}

// String implements fmt.Stringer for log and error messages.
func (w Wire) String() string {
	return fmt.Sprintf("%s.%s -> %s.%s",
		w.SourceBlock.Name(), w.SourceOutput, w.TargetBlock.Name(), w.TargetInput)
}

// Workflow is an immutable graph value object: an ordered set of blocks, the
// wires connecting them, and per-run configuration. Build it once with New
// and hand it to an Executor; the executor never mutates it.
type Workflow struct {
	Name   string
	ID     string
	Blocks []Block
	Wires  []Wire
	Config Config
}

// New creates a workflow graph, assigning generated names to unnamed blocks
// and validating that block names are unique and every wire references a
// declared slot on a block in the graph.
func New(id, name string, blocks []Block, wires []Wire, cfg Config) (*Workflow, error) {
	byName := make(map[string]Block, len(blocks))
	for _, block := range blocks {
		if block.Name() == "" {
			block.SetName(fmt.Sprintf("%s_%s", block.ID(), uuid.NewString()[:8]))
		}
		if _, exists := byName[block.Name()]; exists {
			return nil, fmt.Errorf("duplicate block name: %s", block.Name())
		}
		byName[block.Name()] = block
	}

	for _, wire := range wires {
		source, ok := byName[wire.SourceBlock.Name()]
		if !ok || source != wire.SourceBlock {
			return nil, fmt.Errorf("wire references block outside the graph: %s", wire.SourceBlock.Name())
		}
		target, ok := byName[wire.TargetBlock.Name()]
		if !ok || target != wire.TargetBlock {
			return nil, fmt.Errorf("wire references block outside the graph: %s", wire.TargetBlock.Name())
		}
		if _, ok := wire.SourceBlock.Outputs()[wire.SourceOutput]; !ok {
			return nil, fmt.Errorf("wire references undeclared output %s.%s", wire.SourceBlock.Name(), wire.SourceOutput)
		}
		if _, ok := wire.TargetBlock.Inputs()[wire.TargetInput]; !ok {
			return nil, fmt.Errorf("wire references undeclared input %s.%s", wire.TargetBlock.Name(), wire.TargetInput)
		}
	}

	return &Workflow{
		Name:   name,
		ID:     id,
		Blocks: blocks,
		Wires:  wires,
		Config: cfg,
	}, nil
}

// Block returns the block with the given name, if present.
func (w *Workflow) Block(name string) (Block, bool) {
	for _, block := range w.Blocks {
		if block.Name() == name {
			return block, true
		}
	}
	return nil, false
}
