package nodeflow

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/petrijr/nodeflow/pkg/api"
)

type ctxKey int

const (
	paramsKey ctxKey = iota
	runKey
	attemptKey
)

// runState is shared by every node of one top-level run.
type runState struct {
	info     *api.RunInfo
	observer api.Observer
	root     *BaseNode
}

func newRunState(root *BaseNode, name string) *runState {
	obs := root.observerOrNil()
	if obs == nil {
		obs = api.NoopObserver{}
	}
	return &runState{
		info: &api.RunInfo{
			ID:        uuid.NewString(),
			Root:      name,
			StartedAt: time.Now(),
		},
		observer: obs,
		root:     root,
	}
}

// withObserver returns a copy of rs that also notifies own.
func (rs *runState) withObserver(own api.Observer) *runState {
	if own == nil {
		return rs
	}
	cp := *rs
	if _, noop := rs.observer.(api.NoopObserver); noop {
		cp.observer = own
	} else {
		cp.observer = api.NewCompositeObserver(rs.observer, own)
	}
	return &cp
}

func withRun(ctx context.Context, rs *runState) context.Context {
	return context.WithValue(ctx, runKey, rs)
}

func runFrom(ctx context.Context) *runState {
	if rs, ok := ctx.Value(runKey).(*runState); ok {
		return rs
	}
	// Only reachable when engine internals are called without Run.
	return &runState{info: &api.RunInfo{}, observer: api.NoopObserver{}}
}

// RunID returns the ID of the top-level run ctx belongs to, or "" outside a run.
func RunID(ctx context.Context) string {
	if rs, ok := ctx.Value(runKey).(*runState); ok {
		return rs.info.ID
	}
	return ""
}

func withParams(ctx context.Context, p Params) context.Context {
	return context.WithValue(ctx, paramsKey, p)
}

// ParamsFrom returns the params delivered to the node currently executing
// with ctx. Inside a flow these are the flow's params merged over the node's
// own; inside a batch flow each param set is merged on top. The returned map
// must be treated as read-only.
func ParamsFrom(ctx context.Context) Params {
	p, _ := ctx.Value(paramsKey).(Params)
	return p
}

// Param returns the delivered param under key if it exists and has type T.
func Param[T any](ctx context.Context, key string) (T, bool) {
	v, ok := ParamsFrom(ctx)[key].(T)
	return v, ok
}

func withAttempt(ctx context.Context, attempt int) context.Context {
	return context.WithValue(ctx, attemptKey, attempt)
}

// Attempt returns the 1-based exec attempt number for the Exec call that
// received ctx, or 0 outside Exec.
func Attempt(ctx context.Context) int {
	n, _ := ctx.Value(attemptKey).(int)
	return n
}
