package nodeflow

import (
	"context"
	"log/slog"
	"reflect"
	"sort"
	"sync"
	"time"
)

// Node is one step of a graph. Implementations embed *BaseNode (or one of
// the batch, async or flow variants) and override the lifecycle methods
// they need:
//
//	type greet struct{ *nodeflow.BaseNode }
//
//	func (g *greet) Exec(ctx context.Context, _ any) (any, error) {
//		return "hello", nil
//	}
//
// The unexported methods tie every Node to an embedded engine type.
type Node interface {
	// Name returns the name configured with WithName. Use NameOf for the
	// display name, which falls back to the Go type name.
	Name() string
	Params() Params
	SetParams(Params)
	Successors() map[Action]Node

	NextOn(action Action, target Node) Node
	Next(target Node) Node
	On(action Action) *Transition

	Prep(ctx context.Context, shared *Shared) (any, error)
	Exec(ctx context.Context, prepResult any) (any, error)
	Post(ctx context.Context, shared *Shared, prepResult, execResult any) (Action, error)
	ExecFallback(ctx context.Context, prepResult any, err error) (any, error)

	base() *BaseNode
	traits() traits
}

type fanout int

const (
	fanoutNone fanout = iota
	fanoutSequential
	fanoutParallel
)

// traits select how the engine drives a node. Every variant type defines
// its own traits method; Go's shallowest-depth rule picks the right one
// for user types embedding a variant.
type traits struct {
	async  bool
	fanout fanout
}

// Option configures a node or flow.
type Option func(*BaseNode)

// WithName sets the name reported in logs, observer callbacks and errors.
func WithName(name string) Option {
	return func(b *BaseNode) { b.name = name }
}

// WithMaxRetries sets how many times Exec is attempted, first call included.
// Values below 1 are treated as 1.
func WithMaxRetries(n int) Option {
	return func(b *BaseNode) { b.retry.MaxRetries = n }
}

// WithWait sets a constant delay between failed Exec attempts.
func WithWait(d time.Duration) Option {
	return func(b *BaseNode) { b.retry.Wait = d }
}

// WithRetry replaces the whole retry policy, typically built with Retry(n).
func WithRetry(p RetryPolicy) Option {
	return func(b *BaseNode) { b.retry = p }
}

// WithParams sets the node's own params.
func WithParams(p Params) Option {
	return func(b *BaseNode) { b.params = p.Clone() }
}

// WithLogger sets the logger used for graph configuration warnings.
func WithLogger(l *slog.Logger) Option {
	return func(b *BaseNode) { b.logger = l }
}

// WithObserver attaches an observer. On the node passed to Run it sees the
// whole run; on a nested node it sees everything from that node down.
func WithObserver(o Observer) Option {
	return func(b *BaseNode) { b.observer = o }
}

// WithMaxSteps bounds the number of node executions in one walk of a
// flow's graph. Zero means unlimited.
func WithMaxSteps(n int) Option {
	return func(b *BaseNode) { b.maxSteps = n }
}

// BaseNode carries the state shared by every node type and supplies the
// default lifecycle: Prep and Exec return nil, Post returns ActionNone and
// ExecFallback returns the error unchanged.
type BaseNode struct {
	mu         sync.RWMutex
	name       string
	params     Params
	successors map[Action]Node

	retry    RetryPolicy
	logger   *slog.Logger
	observer Observer
	maxSteps int
}

// NewNode returns a BaseNode configured with opts.
func NewNode(opts ...Option) *BaseNode {
	b := &BaseNode{
		params:     Params{},
		successors: make(map[Action]Node),
		retry:      RetryPolicy{MaxRetries: 1},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *BaseNode) base() *BaseNode { return b }
func (b *BaseNode) traits() traits  { return traits{} }

func (b *BaseNode) Name() string { return b.name }

// Params returns a copy of the node's own params.
func (b *BaseNode) Params() Params {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.params.Clone()
}

func (b *BaseNode) SetParams(p Params) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.params = p.Clone()
}

// Successors returns a copy of the outgoing edges.
func (b *BaseNode) Successors() map[Action]Node {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make(map[Action]Node, len(b.successors))
	for k, v := range b.successors {
		out[k] = v
	}
	return out
}

// NextOn registers target as the successor for action and returns target,
// so calls can be chained. A nil target marks action as an explicit end of
// the walk. Registering an action twice overwrites the earlier edge and
// logs a warning.
func (b *BaseNode) NextOn(action Action, target Node) Node {
	if isNilNode(target) {
		target = nil
	}
	key := action.Key()
	b.mu.Lock()
	if b.successors == nil {
		b.successors = make(map[Action]Node)
	}
	_, exists := b.successors[key]
	b.successors[key] = target
	b.mu.Unlock()

	if exists {
		b.log().Warn("overwriting successor for action",
			slog.String("node", b.name),
			slog.String("action", string(key)),
		)
	}
	return target
}

// isNilNode reports whether n is nil or a nil pointer wrapped in the interface.
func isNilNode(n Node) bool {
	if n == nil {
		return true
	}
	rv := reflect.ValueOf(n)
	return rv.Kind() == reflect.Pointer && rv.IsNil()
}

// Next registers target under the default action.
func (b *BaseNode) Next(target Node) Node {
	return b.NextOn(ActionDefault, target)
}

// On starts a conditional edge: node.On("retry").Next(other).
func (b *BaseNode) On(action Action) *Transition {
	return &Transition{from: b, action: action}
}

func (b *BaseNode) Prep(ctx context.Context, shared *Shared) (any, error) { return nil, nil }
func (b *BaseNode) Exec(ctx context.Context, prepResult any) (any, error) { return nil, nil }
func (b *BaseNode) Post(ctx context.Context, shared *Shared, prepResult, execResult any) (Action, error) {
	return ActionNone, nil
}
func (b *BaseNode) ExecFallback(ctx context.Context, prepResult any, err error) (any, error) {
	return nil, err
}

// RetryPolicy returns the node's exec retry policy.
func (b *BaseNode) RetryPolicy() RetryPolicy {
	return b.retry
}

func (b *BaseNode) successor(action Action) (Node, bool, []Action) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	next, ok := b.successors[action.Key()]
	if ok || len(b.successors) == 0 {
		return next, ok, nil
	}
	available := make([]Action, 0, len(b.successors))
	for k := range b.successors {
		available = append(available, k)
	}
	sort.Slice(available, func(i, j int) bool { return available[i] < available[j] })
	return nil, false, available
}

func (b *BaseNode) hasSuccessors() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.successors) > 0
}

func (b *BaseNode) log() *slog.Logger {
	if b.logger != nil {
		return b.logger
	}
	return slog.Default()
}

func (b *BaseNode) observerOrNil() Observer {
	return b.observer
}

// Transition is a pending conditional edge created by On.
type Transition struct {
	from   *BaseNode
	action Action
}

// Next completes the edge and returns target.
func (t *Transition) Next(target Node) Node {
	return t.from.NextOn(t.action, target)
}

// NameOf returns the configured name of n, or its Go type name when none
// was set.
func NameOf(n Node) string {
	if n == nil {
		return ""
	}
	if name := n.Name(); name != "" {
		return name
	}
	t := reflect.TypeOf(n)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Name() == "" {
		return t.String()
	}
	return t.Name()
}

// BatchNode runs Exec, with retry, once per item of the list returned by
// Prep and hands the ordered results to Post as []any.
type BatchNode struct {
	*BaseNode
}

func NewBatchNode(opts ...Option) *BatchNode {
	return &BatchNode{BaseNode: NewNode(opts...)}
}

func (*BatchNode) traits() traits { return traits{fanout: fanoutSequential} }
