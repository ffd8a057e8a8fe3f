package nodeflow

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFlow_LinearExecutesInOrder(t *testing.T) {
	t.Parallel()

	a := newRecordNode("A", ActionDefault)
	b := newRecordNode("B", ActionNone)
	a.Next(b)

	shared := NewShared()
	_, err := Run(context.Background(), NewFlow(a), shared)
	require.NoError(t, err)
	require.Equal(t, []any{"A", "B"}, order(shared))
}

func TestFlow_BranchingSelectsPath(t *testing.T) {
	t.Parallel()

	decide := newRecordNode("decide", "path_b")
	a := newRecordNode("A", ActionNone)
	b := newRecordNode("B", ActionNone)
	decide.On("path_a").Next(a)
	decide.On("path_b").Next(b)

	shared := NewShared()
	_, err := Run(context.Background(), NewFlow(decide), shared)
	require.NoError(t, err)
	require.Equal(t, []any{"decide", "B"}, order(shared))
}

func TestFlow_EndsWhenActionHasNoSuccessor(t *testing.T) {
	t.Parallel()

	logger, h := newRecordingLogger()
	a := newRecordNode("A", "unknown_action")
	b := newRecordNode("B", ActionNone)
	a.Next(b)
	a.On("retry").Next(b)

	shared := NewShared()
	action, err := Run(context.Background(), NewFlow(a, WithLogger(logger)), shared)
	require.NoError(t, err)
	require.Equal(t, Action("unknown_action"), action)
	require.Equal(t, []any{"A"}, order(shared))

	require.Equal(t, []string{"flow ends: action not found"}, h.messages(slog.LevelWarn))
	attrs := h.attrs("flow ends: action not found")
	require.Equal(t, "unknown_action", attrs["action"])
	require.Equal(t, []string{"default", "retry"}, attrs["available"])
}

func TestFlow_NodeWithoutSuccessorsEndsSilently(t *testing.T) {
	t.Parallel()

	logger, h := newRecordingLogger()
	a := newRecordNode("A", "anything")

	shared := NewShared()
	_, err := Run(context.Background(), NewFlow(a, WithLogger(logger)), shared)
	require.NoError(t, err)
	require.Empty(t, h.messages(slog.LevelWarn))
}

func TestFlow_NilSuccessorTerminates(t *testing.T) {
	t.Parallel()

	logger, h := newRecordingLogger()
	a := newRecordNode("A", "stop")
	a.Next(newRecordNode("B", ActionNone))
	a.On("stop").Next(nil)

	shared := NewShared()
	action, err := Run(context.Background(), NewFlow(a, WithLogger(logger)), shared)
	require.NoError(t, err)
	require.Equal(t, Action("stop"), action)
	require.Equal(t, []any{"A"}, order(shared))
	require.Empty(t, h.messages(slog.LevelWarn), "an explicit end is not a configuration problem")
}

type checkNode struct{ *BaseNode }

func (n *checkNode) Post(ctx context.Context, shared *Shared, _, _ any) (Action, error) {
	v, _ := GetAs[int](shared, "current_value")
	if v > 0 {
		return "continue", nil
	}
	return "done", nil
}

type subtractNode struct{ *BaseNode }

func (n *subtractNode) Post(ctx context.Context, shared *Shared, _, _ any) (Action, error) {
	v := shared.Update("current_value", func(old any, _ bool) any { return old.(int) - 3 })
	shared.Append("trace", v)
	return ActionNone, nil
}

type endNode struct{ *BaseNode }

func (n *endNode) Post(ctx context.Context, shared *Shared, _, _ any) (Action, error) {
	shared.Set("final_signal", "cycle_done")
	return ActionNone, nil
}

func TestFlow_CycleRunsUntilConditionIsMet(t *testing.T) {
	t.Parallel()

	check := &checkNode{NewNode()}
	subtract := &subtractNode{NewNode()}

	check.On("continue").Next(subtract)
	check.On("done").Next(nil)
	subtract.Next(check)

	shared := NewSharedFrom(map[string]any{"current_value": 10})
	action, err := Run(context.Background(), NewFlow(check), shared)
	require.NoError(t, err)
	require.Equal(t, Action("done"), action)

	v, _ := GetAs[int](shared, "current_value")
	require.Equal(t, -2, v)
	trace, _ := GetAs[[]any](shared, "trace")
	require.Equal(t, []any{7, 4, 1, -2}, trace)
}

func TestFlow_CycleWithEndNode(t *testing.T) {
	t.Parallel()

	check := &checkNode{NewNode()}
	subtract := &subtractNode{NewNode()}
	check.On("continue").Next(subtract)
	check.On("done").Next(&endNode{NewNode()})
	subtract.Next(check)

	shared := NewSharedFrom(map[string]any{"current_value": 4})
	_, err := Run(context.Background(), NewFlow(check), shared)
	require.NoError(t, err)

	trace, _ := GetAs[[]any](shared, "trace")
	require.Equal(t, []any{1, -2}, trace)
	signal, _ := shared.Get("final_signal")
	require.Equal(t, "cycle_done", signal)
}

func TestFlow_TypedNilSuccessorEndsWalk(t *testing.T) {
	t.Parallel()

	logger, h := newRecordingLogger()
	a := newRecordNode("A", ActionNone)
	var missing *recordNode
	require.Nil(t, a.Next(missing))

	shared := NewShared()
	action, err := Run(context.Background(), NewFlow(a, WithLogger(logger)), shared)
	require.NoError(t, err)
	require.Equal(t, ActionNone, action)
	require.Equal(t, []any{"A"}, order(shared))
	require.Empty(t, h.messages(slog.LevelWarn))
}

func TestFlow_MaxStepsBoundsCycles(t *testing.T) {
	t.Parallel()

	a := newRecordNode("A", ActionNone)
	a.Next(a)

	shared := NewShared()
	_, err := Run(context.Background(), NewFlow(a, WithMaxSteps(5)), shared)
	require.ErrorIs(t, err, ErrMaxStepsExceeded)
	require.Len(t, order(shared), 5)
}

func TestFlow_WithoutStartNodeFails(t *testing.T) {
	t.Parallel()

	_, err := Run(context.Background(), NewFlow(nil), nil)
	require.ErrorIs(t, err, ErrNoStartNode)

	f := NewFlow(nil)
	start := newRecordNode("A", ActionNone)
	require.Same(t, start, f.Start(start))
	require.Same(t, start, f.StartNode())
	_, err = Run(context.Background(), f, nil)
	require.NoError(t, err)
}

func TestFlow_StopsOnCancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	shared := NewShared()
	_, err := Run(ctx, NewFlow(newRecordNode("A", ActionNone)), shared)
	require.ErrorIs(t, err, context.Canceled)
	require.Empty(t, order(shared))
}

type paramReader struct {
	*BaseNode
	key string
}

func (n *paramReader) Prep(ctx context.Context, shared *Shared) (any, error) {
	v, _ := Param[string](ctx, n.key)
	shared.Append("seen", v)
	return nil, nil
}

func TestFlow_DeliversParams(t *testing.T) {
	t.Parallel()

	first := &paramReader{BaseNode: NewNode(WithParams(Params{"node_only": "n"})), key: "node_only"}
	second := &paramReader{BaseNode: NewNode(WithParams(Params{"who": "node"})), key: "who"}
	first.Next(second)

	shared := NewShared()
	_, err := Run(context.Background(), NewFlow(first, WithParams(Params{"who": "flow"})), shared)
	require.NoError(t, err)

	// Flow params win over a node's own params; keys the flow leaves
	// unset fall back to the node's.
	seen, _ := GetAs[[]any](shared, "seen")
	require.Equal(t, []any{"n", "flow"}, seen)
}

func TestFlow_ErrorsAbortTheWalk(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	failing := &flakyNode{BaseNode: NewNode(WithName("failing")), failures: 100}
	failing.fallback = func(error) (any, error) { return nil, boom }
	after := newRecordNode("after", ActionNone)
	failing.Next(after)

	shared := NewShared()
	_, err := Run(context.Background(), NewFlow(failing), shared)
	require.ErrorIs(t, err, boom)
	require.Empty(t, order(shared))

	var ne *NodeError
	require.ErrorAs(t, err, &ne)
	require.Equal(t, "failing", ne.Node)
}

func TestFlow_RunOnAsyncFlowIsRejected(t *testing.T) {
	t.Parallel()

	_, err := Run(context.Background(), NewAsyncFlow(NewNode()), nil)
	require.ErrorIs(t, err, ErrAsyncNode)

	_, err = Run(context.Background(), NewAsyncNode(), nil)
	require.ErrorIs(t, err, ErrAsyncNode)
}
