package workflow

import (
	"context"
	"errors"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestProperty_ConditionalRoutingCorrectness(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("condition blocks route to exactly one branch", prop.ForAll(
		func(conditionResult bool, inputValue int) bool {
			ctx := context.Background()

			trueBranchExecuted := false
			falseBranchExecuted := false

			source := NewFuncBlock("source", "source", nil, map[string]Output{
				"x": {Name: "x", Type: TypeOf[int]()},
			}, func(ctx context.Context, rt Runtime, in map[string]any) (map[string]any, error) {
				return map[string]any{"x": inputValue}, nil
			})
			cond := NewConditionBlock("check", map[string]Input{
				"x": {Name: "x", Type: TypeOf[int]()},
			}, func(ctx context.Context, rt Runtime, in map[string]any) (bool, error) {
				return conditionResult, nil
			})
			trueBranch := NewFuncBlock("true_branch", "true_branch", map[string]Input{
				"flag": {Name: "flag", Type: TypeOf[bool]()},
			}, nil, func(ctx context.Context, rt Runtime, in map[string]any) (map[string]any, error) {
				trueBranchExecuted = true
				return map[string]any{}, nil
			})
			falseBranch := NewFuncBlock("false_branch", "false_branch", map[string]Input{
				"flag": {Name: "flag", Type: TypeOf[bool]()},
			}, nil, func(ctx context.Context, rt Runtime, in map[string]any) (map[string]any, error) {
				falseBranchExecuted = true
				return map[string]any{}, nil
			})

			wf, err := New("conditional-test", "conditional test",
				[]Block{source, cond, trueBranch, falseBranch}, []Wire{
					{SourceBlock: source, SourceOutput: "x", TargetBlock: cond, TargetInput: "x"},
					{SourceBlock: cond, SourceOutput: OutputConditionResult, TargetBlock: trueBranch, TargetInput: "flag"},
					{SourceBlock: cond, SourceOutput: OutputConditionResult, TargetBlock: falseBranch, TargetInput: "flag"},
				}, Config{})
			if err != nil {
				t.Logf("Build failed: %v", err)
				return false
			}

			exec, err := NewExecutor(wf, NewTypeSystem())
			if err != nil {
				t.Logf("NewExecutor failed: %v", err)
				return false
			}
			if _, err := exec.Run(ctx); err != nil {
				t.Logf("Run failed: %v", err)
				return false
			}

			if conditionResult {
				if !trueBranchExecuted {
					t.Logf("True branch should have been executed")
					return false
				}
				if falseBranchExecuted {
					t.Logf("False branch should not have been executed")
					return false
				}
			} else {
				if trueBranchExecuted {
					t.Logf("True branch should not have been executed")
					return false
				}
				if !falseBranchExecuted {
					t.Logf("False branch should have been executed")
					return false
				}
			}

			return true
		},
		gen.Bool(),
		gen.Int(),
	))

	properties.TestingRun(t)
}

func TestProperty_LoopTermination(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("loops run the body once per passing continuation check", prop.ForAll(
		func(maxIterations int) bool {
			ctx := context.Background()
			bodyRuns := 0

			loop := NewLoopBlock("loop", nil, func(ctx context.Context, rt Runtime, in map[string]any) (bool, error) {
				count := rt.GetVariable("count", 0).(int)
				rt.SetVariable("count", count+1)
				return count < maxIterations, nil
			}, "")
			body := NewFuncBlock("body", "body", map[string]Input{
				"meta": {Name: "meta", Type: TypeOf[map[string]any]()},
			}, nil, func(ctx context.Context, rt Runtime, in map[string]any) (map[string]any, error) {
				bodyRuns++
				return map[string]any{}, nil
			})

			wf, err := New("loop-test", "loop test", []Block{loop, body}, []Wire{
				{SourceBlock: loop, SourceOutput: OutputIteration, TargetBlock: body, TargetInput: "meta"},
			}, Config{})
			if err != nil {
				t.Logf("Build failed: %v", err)
				return false
			}

			exec, err := NewExecutor(wf, NewTypeSystem())
			if err != nil {
				t.Logf("NewExecutor failed: %v", err)
				return false
			}
			if _, err := exec.Run(ctx); err != nil {
				t.Logf("Run failed: %v", err)
				return false
			}

			if bodyRuns != maxIterations {
				t.Logf("Expected %d body runs, got %d", maxIterations, bodyRuns)
				return false
			}
			// one extra evaluation observes the exhausted condition
			if loop.Iterations() != maxIterations+1 {
				t.Logf("Expected %d condition evaluations, got %d", maxIterations+1, loop.Iterations())
				return false
			}

			return true
		},
		gen.IntRange(1, 20),
	))

	properties.TestingRun(t)
}

func TestProperty_DependencyOrdering(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("blocks execute in wire order along a chain", prop.ForAll(
		func(blockCount int) bool {
			ctx := context.Background()
			executionOrder := make([]string, 0, blockCount)

			blocks := make([]Block, 0, blockCount)
			for i := 0; i < blockCount; i++ {
				name := string(rune('a' + i))
				var inputs map[string]Input
				if i > 0 {
					inputs = map[string]Input{
						"x": {Name: "x", Type: TypeOf[int]()},
					}
				}
				blocks = append(blocks, NewFuncBlock("step", name, inputs, map[string]Output{
					"x": {Name: "x", Type: TypeOf[int]()},
				}, func(name string) func(context.Context, Runtime, map[string]any) (map[string]any, error) {
					return func(ctx context.Context, rt Runtime, in map[string]any) (map[string]any, error) {
						executionOrder = append(executionOrder, name)
						return map[string]any{"x": len(executionOrder)}, nil
					}
				}(name)))
			}

			wires := make([]Wire, 0, blockCount-1)
			for i := 0; i < blockCount-1; i++ {
				wires = append(wires, Wire{
					SourceBlock: blocks[i], SourceOutput: "x",
					TargetBlock: blocks[i+1], TargetInput: "x",
				})
			}

			wf, err := New("dependency-test", "dependency test", blocks, wires, Config{})
			if err != nil {
				t.Logf("Build failed: %v", err)
				return false
			}

			exec, err := NewExecutor(wf, NewTypeSystem())
			if err != nil {
				t.Logf("NewExecutor failed: %v", err)
				return false
			}
			if _, err := exec.Run(ctx); err != nil {
				t.Logf("Run failed: %v", err)
				return false
			}

			if len(executionOrder) != blockCount {
				t.Logf("Expected %d blocks executed, got %d", blockCount, len(executionOrder))
				return false
			}
			for i := 0; i < blockCount; i++ {
				expected := string(rune('a' + i))
				if executionOrder[i] != expected {
					t.Logf("Expected block %s at position %d, got %s", expected, i, executionOrder[i])
					return false
				}
			}

			return true
		},
		gen.IntRange(2, 10),
	))

	properties.TestingRun(t)
}

func TestProperty_ErrorPropagation(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50

	properties := gopter.NewProperties(parameters)

	properties.Property("errors from any block in a chain fail the run", prop.ForAll(
		func(failAt int) bool {
			ctx := context.Background()

			blocks := make([]Block, 0, 3)
			for i := 0; i < 3; i++ {
				name := string(rune('a' + i))
				var inputs map[string]Input
				if i > 0 {
					inputs = map[string]Input{
						"x": {Name: "x", Type: TypeOf[int]()},
					}
				}
				shouldFail := i == failAt
				blocks = append(blocks, NewFuncBlock("step", name, inputs, map[string]Output{
					"x": {Name: "x", Type: TypeOf[int]()},
				}, func(ctx context.Context, rt Runtime, in map[string]any) (map[string]any, error) {
					if shouldFail {
						return nil, errors.New("step failed")
					}
					return map[string]any{"x": 1}, nil
				}))
			}

			wires := []Wire{
				{SourceBlock: blocks[0], SourceOutput: "x", TargetBlock: blocks[1], TargetInput: "x"},
				{SourceBlock: blocks[1], SourceOutput: "x", TargetBlock: blocks[2], TargetInput: "x"},
			}

			wf, err := New("error-test", "error test", blocks, wires, Config{})
			if err != nil {
				t.Logf("Build failed: %v", err)
				return false
			}

			exec, err := NewExecutor(wf, NewTypeSystem())
			if err != nil {
				t.Logf("NewExecutor failed: %v", err)
				return false
			}

			_, err = exec.Run(ctx)
			if err == nil {
				t.Logf("Expected error, got nil")
				return false
			}
			if exec.State() == StateCompleted {
				t.Logf("Run should not report completion after a failure")
				return false
			}

			return true
		},
		gen.IntRange(0, 2),
	))

	properties.TestingRun(t)
}
