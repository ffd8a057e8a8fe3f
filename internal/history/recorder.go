package history

import (
	"context"
	"log/slog"
	"time"

	"github.com/petrijr/nodeflow/pkg/api"
)

// Recorder is an api.Observer that appends every lifecycle callback to a
// Store. Append failures are logged and never fail the run.
type Recorder struct {
	store  Store
	logger *slog.Logger
}

var _ api.Observer = (*Recorder)(nil)

// NewRecorder returns a Recorder writing to store. A nil logger uses
// slog.Default().
func NewRecorder(store Store, logger *slog.Logger) *Recorder {
	if store == nil {
		store = NoopStore{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{store: store, logger: logger}
}

// Store returns the underlying store.
func (r *Recorder) Store() Store { return r.store }

func (r *Recorder) append(ctx context.Context, ev api.RunEvent) {
	ev.At = time.Now()
	// A cancelled run still gets its failure recorded.
	if err := r.store.Append(context.WithoutCancel(ctx), ev); err != nil {
		r.logger.WarnContext(ctx, "history append failed",
			slog.String("run_id", ev.RunID),
			slog.String("type", string(ev.Type)),
			slog.Any("error", err),
		)
	}
}

func (r *Recorder) OnFlowStart(ctx context.Context, run *api.RunInfo, flow string) {
	r.append(ctx, api.RunEvent{RunID: run.ID, Type: api.EventFlowStarted, Flow: flow, Step: -1})
}

func (r *Recorder) OnFlowCompleted(ctx context.Context, run *api.RunInfo, flow string, action api.Action) {
	r.append(ctx, api.RunEvent{RunID: run.ID, Type: api.EventFlowCompleted, Flow: flow, Step: -1, Action: action})
}

func (r *Recorder) OnFlowFailed(ctx context.Context, run *api.RunInfo, flow string, err error) {
	r.append(ctx, api.RunEvent{RunID: run.ID, Type: api.EventFlowFailed, Flow: flow, Step: -1, Detail: errString(err)})
}

func (r *Recorder) OnNodeStart(ctx context.Context, run *api.RunInfo, node string, step int) {
	r.append(ctx, api.RunEvent{RunID: run.ID, Type: api.EventNodeStarted, Node: node, Step: step})
}

func (r *Recorder) OnNodeCompleted(ctx context.Context, run *api.RunInfo, node string, step int, action api.Action, err error, d time.Duration) {
	ev := api.RunEvent{RunID: run.ID, Type: api.EventNodeCompleted, Node: node, Step: step, Action: action}
	if err != nil {
		ev.Type = api.EventNodeFailed
		ev.Detail = err.Error()
	}
	r.append(ctx, ev)
}

func (r *Recorder) OnNodeRetry(ctx context.Context, run *api.RunInfo, node string, attempt int, err error, delay time.Duration) {
	r.append(ctx, api.RunEvent{
		RunID:   run.ID,
		Type:    api.EventNodeRetry,
		Node:    node,
		Step:    -1,
		Attempt: attempt,
		Detail:  errString(err),
	})
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
