package nodeflow

import (
	"context"
	"log/slog"
	"time"
)

// Run executes node's lifecycle once and returns the action its post step
// chose. For a flow this walks the whole graph. Successors of node itself
// are not followed; wrap it in a Flow for that.
//
// Async nodes and flows must be started with RunAsync. A nil shared store
// is replaced with an empty one.
func Run(ctx context.Context, node Node, shared *Shared) (Action, error) {
	if node == nil {
		return ActionNone, ErrNilNode
	}
	if node.traits().async {
		return ActionNone, ErrAsyncNode
	}
	return runTop(ctx, node, shared)
}

// RunAsync starts node's lifecycle on a new goroutine. It accepts sync and
// async nodes alike.
func RunAsync(ctx context.Context, node Node, shared *Shared) *Future[Action] {
	if node == nil {
		return resolved(ActionNone, ErrNilNode)
	}
	return Go(ctx, func(ctx context.Context) (Action, error) {
		return runTop(ctx, node, shared)
	})
}

func runTop(ctx context.Context, node Node, shared *Shared) (Action, error) {
	if shared == nil {
		shared = NewShared()
	}
	b := node.base()
	name := NameOf(node)
	if b.hasSuccessors() {
		b.log().WarnContext(ctx, "node won't run successors; use a flow to run the full graph",
			slog.String("node", name),
		)
	}

	ctx = withRun(ctx, newRunState(b, name))
	ctx = withParams(ctx, b.Params())

	if _, ok := node.(flowNode); ok {
		return execute(ctx, node, shared)
	}
	return runStep(ctx, node, shared, 0)
}

// runStep executes one node of a walk and reports it to the observer.
// Async nodes are dispatched on their own goroutine and awaited.
func runStep(ctx context.Context, n Node, shared *Shared, step int) (Action, error) {
	rs := runFrom(ctx)
	name := NameOf(n)

	rs.observer.OnNodeStart(ctx, rs.info, name, step)
	start := time.Now()

	var action Action
	var err error
	if n.traits().async {
		action, err = Go(ctx, func(ctx context.Context) (Action, error) {
			return execute(ctx, n, shared)
		}).Wait()
	} else {
		action, err = execute(ctx, n, shared)
	}

	rs.observer.OnNodeCompleted(ctx, rs.info, name, step, action, err, time.Since(start))
	return action, err
}

// execute runs prep, exec and post for n.
func execute(ctx context.Context, n Node, shared *Shared) (Action, error) {
	b := n.base()
	if rs := runFrom(ctx); b != rs.root && b.observerOrNil() != nil {
		ctx = withRun(ctx, rs.withObserver(b.observerOrNil()))
	}

	if f, ok := n.(flowNode); ok {
		return f.flow().run(ctx, n, shared)
	}

	name := NameOf(n)
	prep, err := n.Prep(ctx, shared)
	if err != nil {
		return ActionNone, wrapNodeError(name, PhasePrep, err)
	}

	var exec any
	if mode := n.traits().fanout; mode == fanoutNone {
		exec, err = execWithRetry(ctx, n, name, prep)
	} else {
		exec, err = execItems(ctx, n, name, prep, mode)
	}
	if err != nil {
		return ActionNone, wrapNodeError(name, PhaseExec, err)
	}

	action, err := n.Post(ctx, shared, prep, exec)
	if err != nil {
		return action, wrapNodeError(name, PhasePost, err)
	}
	return action, nil
}

// execWithRetry calls Exec up to the policy's attempt count, sleeping the
// backoff delay between failures, then hands the last error to ExecFallback.
func execWithRetry(ctx context.Context, n Node, name string, prep any) (any, error) {
	policy := n.base().RetryPolicy()
	attempts := policy.Attempts()
	rs := runFrom(ctx)

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		res, err := n.Exec(withAttempt(ctx, attempt), prep)
		if err == nil {
			return res, nil
		}
		lastErr = err
		if attempt == attempts {
			break
		}

		delay := policy.Delay(attempt)
		rs.observer.OnNodeRetry(ctx, rs.info, name, attempt, err, delay)
		if delay > 0 {
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil, ctx.Err()
			case <-timer.C:
			}
		}
	}

	return n.ExecFallback(ctx, prep, lastErr)
}
