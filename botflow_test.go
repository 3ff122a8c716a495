package botflow

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/botflow/dispatch"
	"github.com/BaSui01/botflow/types"
	"github.com/BaSui01/botflow/workflow"
)

func TestEngine_EndToEnd(t *testing.T) {
	t.Parallel()

	engine := New()

	echo := workflow.NewFuncBlock("echo", "echo", nil, map[string]workflow.Output{
		"reply": {Name: "reply", Type: workflow.TypeOf[string]()},
	}, func(ctx context.Context, rt workflow.Runtime, in map[string]any) (map[string]any, error) {
		dctx := rt.Scope().(*dispatch.Context)
		return map[string]any{"reply": "echo: " + dctx.Message.Content}, nil
	})
	wf, err := workflow.New("chat:echo", "echo chat", []workflow.Block{echo}, nil, workflow.Config{})
	require.NoError(t, err)

	engine.Workflows().Register(wf)
	engine.RegisterRule(dispatch.NewFallbackRule("fallback", "chat:echo"))

	results, err := engine.Dispatch(context.Background(), nil, types.NewDirectMessage("alice", "hello"))
	require.NoError(t, err)
	require.NotNil(t, results)
	assert.Equal(t, "echo: hello", results["echo"]["reply"])
}

func TestEngine_ExposesComponents(t *testing.T) {
	t.Parallel()

	engine := New()
	assert.NotNil(t, engine.Workflows())
	assert.NotNil(t, engine.Rules())
	assert.NotNil(t, engine.Types())
	assert.NotNil(t, engine.Adapters())
	assert.NotNil(t, engine.Dispatcher())
}
