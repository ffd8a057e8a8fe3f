package nodeflow

import (
	"context"
	"database/sql"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func loopFlow(opts ...Option) *Flow {
	check := &checkNode{NewNode(WithName("check"))}
	sub := &subtractNode{NewNode(WithName("subtract"))}
	end := &endNode{NewNode(WithName("end"))}
	check.On("continue").Next(sub)
	check.On("done").Next(end)
	sub.Next(check)
	return NewFlow(check, opts...)
}

func TestObserver_MetricsThroughFlow(t *testing.T) {
	t.Parallel()

	metrics := &BasicMetrics{}
	flow := loopFlow(WithName("loop"), WithObserver(metrics))

	shared := NewSharedFrom(map[string]any{"current_value": 3})
	_, err := Run(context.Background(), flow, shared)
	require.NoError(t, err)

	snap := metrics.Snapshot()
	require.Equal(t, int64(1), snap.FlowsStarted)
	require.Equal(t, int64(1), snap.FlowsCompleted)
	require.Equal(t, int64(0), snap.FlowsFailed)
	require.Equal(t, int64(0), snap.FlowsRunning)
	// check, subtract, check, end
	require.Equal(t, int64(4), snap.NodesCompleted)
	require.Equal(t, int64(0), snap.NodesFailed)
}

func TestObserver_LoggingThroughFlow(t *testing.T) {
	t.Parallel()

	logger, h := newRecordingLogger()
	flow := loopFlow(WithName("loop"), WithObserver(NewLoggingObserver(logger)))

	shared := NewSharedFrom(map[string]any{"current_value": 1})
	_, err := Run(context.Background(), flow, shared)
	require.NoError(t, err)

	require.Equal(t, []string{"flow_start", "flow_completed"}, h.messages(slog.LevelInfo))
	attrs := h.attrs("flow_start")
	require.Equal(t, "loop", attrs["flow"])
	require.NotEmpty(t, attrs["run_id"])
}

func TestObserver_NestedFlowsShareRun(t *testing.T) {
	t.Parallel()

	outerMetrics := &BasicMetrics{}
	innerMetrics := &BasicMetrics{}

	inner := NewFlow(newRecordNode("inner", ActionNone), WithName("inner"), WithObserver(innerMetrics))
	outer := NewFlow(inner, WithName("outer"), WithObserver(outerMetrics))
	inner.Next(newRecordNode("after", ActionNone))

	store := NewMemoryHistory()
	root := NewFlow(outer, WithName("root"), WithObserver(NewHistoryObserver(store, nil)))

	shared := NewShared()
	_, err := Run(context.Background(), root, shared)
	require.NoError(t, err)
	require.Equal(t, []any{"inner", "after"}, order(shared))

	// The outer observer sees its own flow and everything beneath it.
	require.Equal(t, int64(2), outerMetrics.Snapshot().FlowsStarted)
	require.Equal(t, int64(1), innerMetrics.Snapshot().FlowsStarted)
	require.Equal(t, int64(1), innerMetrics.Snapshot().NodesCompleted)

	runs, err := store.Runs(context.Background())
	require.NoError(t, err)
	require.Len(t, runs, 1, "nested flows report under the top-level run")
}

func TestObserver_HistoryRecordsRun(t *testing.T) {
	t.Parallel()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	sqliteStore, err := NewSQLiteHistory(db)
	require.NoError(t, err)

	for name, store := range map[string]HistoryStore{
		"memory": NewMemoryHistory(),
		"sqlite": sqliteStore,
	} {
		t.Run(name, func(t *testing.T) {
			var runID string
			capture := &runIDNode{BaseNode: NewNode(WithName("capture")), id: &runID}
			fail := &flakyNode{BaseNode: NewNode(WithName("fail"), WithMaxRetries(2)), failures: 10}
			capture.Next(fail)
			flow := NewFlow(capture, WithName("audited"), WithObserver(NewHistoryObserver(store, nil)))

			_, err := Run(context.Background(), flow, NewShared())
			require.Error(t, err)
			require.NotEmpty(t, runID)

			events, err := store.List(context.Background(), runID)
			require.NoError(t, err)

			types := make([]EventType, len(events))
			for i, ev := range events {
				require.Equal(t, runID, ev.RunID)
				types[i] = ev.Type
			}
			require.Equal(t, []EventType{
				EventFlowStarted,
				EventNodeStarted,
				EventNodeCompleted,
				EventNodeStarted,
				EventNodeRetry,
				EventNodeFailed,
				EventFlowFailed,
			}, types)

			require.Equal(t, "audited", events[0].Flow)
			require.Equal(t, "capture", events[1].Node)
			require.Equal(t, 1, events[3].Step)
			require.Equal(t, 1, events[4].Attempt)
			require.NotEmpty(t, events[6].Detail)
		})
	}
}

type runIDNode struct {
	*BaseNode
	id *string
}

func (n *runIDNode) Prep(ctx context.Context, shared *Shared) (any, error) {
	*n.id = RunID(ctx)
	return nil, nil
}

func TestRunID_OutsideRun(t *testing.T) {
	t.Parallel()
	require.Empty(t, RunID(context.Background()))
}

func TestObserver_FailedFlowCounts(t *testing.T) {
	t.Parallel()

	metrics := &BasicMetrics{}
	failing := &failingPhaseNode{BaseNode: NewNode(), phase: PhasePost}
	flow := NewFlow(failing, WithObserver(metrics))

	_, err := Run(context.Background(), flow, nil)
	var ne *NodeError
	require.ErrorAs(t, err, &ne)
	require.Equal(t, PhasePost, ne.Phase)

	snap := metrics.Snapshot()
	require.Equal(t, int64(1), snap.FlowsFailed)
	require.Equal(t, int64(1), snap.NodesFailed)
	require.Equal(t, int64(0), snap.FlowsRunning)
}
