package nodeflow

import (
	"context"
	"fmt"
	"log/slog"
)

// Flow walks a graph of nodes starting at its start node. A Flow is itself
// a Node: it can be the start or successor of another flow, and the action
// its graph ends with feeds the outer flow's edges.
type Flow struct {
	*BaseNode
	start Node
}

// flowNode is implemented by every flow variant through the embedded *Flow.
type flowNode interface {
	flow() *Flow
}

// NewFlow returns a Flow that starts at start. start may be nil and set
// later with Start.
func NewFlow(start Node, opts ...Option) *Flow {
	return &Flow{BaseNode: NewNode(opts...), start: start}
}

func (f *Flow) flow() *Flow { return f }

// Start sets the start node and returns it for chaining.
func (f *Flow) Start(n Node) Node {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.start = n
	return n
}

// StartNode returns the node the walk begins with.
func (f *Flow) StartNode() Node {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.start
}

// Post returns the action the graph walk ended with.
func (f *Flow) Post(ctx context.Context, shared *Shared, prepResult, execResult any) (Action, error) {
	a, _ := execResult.(Action)
	return a, nil
}

// run drives the lifecycle of self, which is f or a type embedding f.
func (f *Flow) run(ctx context.Context, self Node, shared *Shared) (Action, error) {
	rs := runFrom(ctx)
	name := NameOf(self)

	rs.observer.OnFlowStart(ctx, rs.info, name)
	action, err := f.lifecycle(ctx, self, name, shared)
	if err != nil {
		rs.observer.OnFlowFailed(ctx, rs.info, name, err)
		return action, err
	}
	rs.observer.OnFlowCompleted(ctx, rs.info, name, action)
	return action, nil
}

func (f *Flow) lifecycle(ctx context.Context, self Node, name string, shared *Shared) (Action, error) {
	prep, err := self.Prep(ctx, shared)
	if err != nil {
		return ActionNone, wrapNodeError(name, PhasePrep, err)
	}

	var exec any
	switch self.traits().fanout {
	case fanoutNone:
		last, err := f.orchestrate(ctx, name, shared, ParamsFrom(ctx))
		if err != nil {
			return last, err
		}
		exec = last
	case fanoutSequential:
		if err := f.orchestrateEach(ctx, name, shared, prep); err != nil {
			return ActionNone, err
		}
	case fanoutParallel:
		if err := f.orchestrateParallel(ctx, name, shared, prep); err != nil {
			return ActionNone, err
		}
	}

	action, err := self.Post(ctx, shared, prep, exec)
	if err != nil {
		return action, wrapNodeError(name, PhasePost, err)
	}
	return action, nil
}

// orchestrate walks the graph once with params delivered to every node and
// returns the last action.
func (f *Flow) orchestrate(ctx context.Context, name string, shared *Shared, params Params) (Action, error) {
	current := f.StartNode()
	if current == nil {
		return ActionNone, fmt.Errorf("%w: %s", ErrNoStartNode, name)
	}

	var last Action
	for step := 0; current != nil; step++ {
		if err := ctx.Err(); err != nil {
			return last, err
		}
		if f.maxSteps > 0 && step >= f.maxSteps {
			return last, fmt.Errorf("%w: flow %q stopped after %d steps", ErrMaxStepsExceeded, name, step)
		}

		nodeCtx := withParams(ctx, current.Params().Merge(params))
		action, err := runStep(nodeCtx, current, shared, step)
		if err != nil {
			return action, err
		}
		last = action
		current = f.next(name, current, action)
	}
	return last, nil
}

func (f *Flow) next(flowName string, current Node, action Action) Node {
	next, ok, available := current.base().successor(action)
	if ok {
		return next
	}
	if len(available) > 0 {
		keys := make([]string, len(available))
		for i, a := range available {
			keys[i] = string(a)
		}
		f.log().Warn("flow ends: action not found",
			slog.String("flow", flowName),
			slog.String("node", NameOf(current)),
			slog.String("action", string(action.Key())),
			slog.Any("available", keys),
		)
	}
	return nil
}

// orchestrateEach walks the graph once per param set, one after another.
func (f *Flow) orchestrateEach(ctx context.Context, name string, shared *Shared, prep any) error {
	sets, err := toParamSets(prep)
	if err != nil {
		return wrapNodeError(name, PhasePrep, err)
	}
	base := ParamsFrom(ctx)
	for _, set := range sets {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := f.orchestrate(ctx, name, shared, base.Merge(set)); err != nil {
			return err
		}
	}
	return nil
}

// orchestrateParallel walks the graph once per param set, all at once, and
// waits for every walk before reporting the lowest-index failure.
func (f *Flow) orchestrateParallel(ctx context.Context, name string, shared *Shared, prep any) error {
	sets, err := toParamSets(prep)
	if err != nil {
		return wrapNodeError(name, PhasePrep, err)
	}
	base := ParamsFrom(ctx)
	futures := make([]*Future[Action], len(sets))
	for i, set := range sets {
		params := base.Merge(set)
		futures[i] = Go(ctx, func(ctx context.Context) (Action, error) {
			return f.orchestrate(ctx, name, shared, params)
		})
	}
	_, err = settled(ctx, f.BaseNode, name, Settle(futures))
	return err
}

// BatchFlow runs its whole graph once per param set returned by Prep, in
// order. Each set is merged over the flow's params. Post receives the param
// sets and a nil exec result.
type BatchFlow struct {
	*Flow
}

func NewBatchFlow(start Node, opts ...Option) *BatchFlow {
	return &BatchFlow{Flow: NewFlow(start, opts...)}
}

func (*BatchFlow) traits() traits { return traits{fanout: fanoutSequential} }
