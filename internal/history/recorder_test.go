package history

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/petrijr/nodeflow/pkg/api"
)

type failingStore struct{ NoopStore }

func (failingStore) Append(ctx context.Context, ev api.RunEvent) error {
	return errors.New("disk full")
}

func TestRecorder_RecordsLifecycle(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := NewMemoryStore()
	rec := NewRecorder(store, nil)
	run := &api.RunInfo{ID: "run-1", Root: "outer"}

	rec.OnFlowStart(ctx, run, "outer")
	rec.OnNodeStart(ctx, run, "fetch", 0)
	rec.OnNodeRetry(ctx, run, "fetch", 1, errors.New("timeout"), 10*time.Millisecond)
	rec.OnNodeCompleted(ctx, run, "fetch", 0, "ok", nil, time.Millisecond)
	rec.OnNodeStart(ctx, run, "save", 1)
	rec.OnNodeCompleted(ctx, run, "save", 1, api.ActionNone, errors.New("boom"), time.Millisecond)
	rec.OnFlowFailed(ctx, run, "outer", errors.New("boom"))

	evs, err := store.List(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, evs, 7)

	require.Equal(t, api.EventFlowStarted, evs[0].Type)
	require.Equal(t, "outer", evs[0].Flow)
	require.Equal(t, api.EventNodeRetry, evs[2].Type)
	require.Equal(t, 1, evs[2].Attempt)
	require.Equal(t, "timeout", evs[2].Detail)
	require.Equal(t, api.EventNodeCompleted, evs[3].Type)
	require.Equal(t, api.Action("ok"), evs[3].Action)
	require.Equal(t, api.EventNodeFailed, evs[5].Type)
	require.Equal(t, "boom", evs[5].Detail)
	require.Equal(t, api.EventFlowFailed, evs[6].Type)
}

func TestRecorder_AppendFailureIsLoggedNotRaised(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	rec := NewRecorder(failingStore{}, logger)

	rec.OnFlowStart(context.Background(), &api.RunInfo{ID: "run-x"}, "f")

	require.Contains(t, buf.String(), "history append failed")
	require.Contains(t, buf.String(), "disk full")
}

func TestRecorder_RecordsAfterCancellation(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	store := NewMemoryStore()
	NewRecorder(store, nil).OnFlowFailed(ctx, &api.RunInfo{ID: "run-c"}, "f", context.Canceled)

	evs, err := store.List(context.Background(), "run-c")
	require.NoError(t, err)
	require.Len(t, evs, 1)
}
