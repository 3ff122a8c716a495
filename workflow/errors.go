package workflow

import (
	"time"

	"github.com/BaSui01/botflow/types"
)

// newWireTypeError reports an incompatible wire at executor construction.
func newWireTypeError(wire Wire, sourceType, targetType string) error {
	return types.Errorf(types.ErrWireTypeMismatch,
		"type mismatch in wire: %s.%s (%s) -> %s.%s (%s)",
		wire.SourceBlock.Name(), wire.SourceOutput, sourceType,
		wire.TargetBlock.Name(), wire.TargetInput, targetType)
}

// newMissingWireError reports a required input with no wire into it.
func newMissingWireError(block, input string) error {
	return types.Errorf(types.ErrMissingInput,
		"missing wire connection for required input %s in block %s", input, block).
		WithBlock(block)
}

// newUnresolvedInputError reports a wired input whose source block produced
// no value for the connected output.
func newUnresolvedInputError(block, input, source string) error {
	return types.Errorf(types.ErrMissingInput,
		"block %s depends on source block %s not executed for input %s", block, source, input).
		WithBlock(block)
}

// newBlockError wraps a failure with the originating block's name.
func newBlockError(block string, cause error) error {
	return types.Errorf(types.ErrBlockFailed, "block %s execution failed", block).
		WithBlock(block).
		WithCause(cause)
}

// newTimeoutError reports a run that exceeded its deadline. Distinct from
// block failures so callers can treat it differently.
func newTimeoutError(timeout time.Duration) error {
	return types.Errorf(types.ErrWorkflowTimeout,
		"workflow execution timed out after %s", timeout)
}

// IsTimeout reports whether err is a workflow timeout.
func IsTimeout(err error) bool {
	return types.IsCode(err, types.ErrWorkflowTimeout)
}

// IsBlockFailure reports whether err is a block execution failure.
func IsBlockFailure(err error) bool {
	return types.IsCode(err, types.ErrBlockFailed)
}
