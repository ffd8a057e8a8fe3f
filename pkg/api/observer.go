package api

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"
)

// Observer receives callbacks from the graph engine for logging and metrics.
//
// Parallel batches invoke observers from several goroutines at once, so
// implementations must be safe for concurrent use. They should also be fast
// and non-blocking; heavy work should be done asynchronously so as not to
// delay the flow.
type Observer interface {
	// OnFlowStart is called when a flow (top-level or nested) begins,
	// before its prep step.
	OnFlowStart(ctx context.Context, run *RunInfo, flow string)

	// OnFlowCompleted is called when a flow's post step returns successfully.
	OnFlowCompleted(ctx context.Context, run *RunInfo, flow string, action Action)

	// OnFlowFailed is called when a flow aborts with an error.
	OnFlowFailed(ctx context.Context, run *RunInfo, flow string, err error)

	// OnNodeStart is called before a node in a flow walk is executed.
	// step is the 0-based position of the node in the walk.
	OnNodeStart(ctx context.Context, run *RunInfo, node string, step int)

	// OnNodeCompleted is called after a node returns, for both successes
	// and failures (err != nil).
	OnNodeCompleted(ctx context.Context, run *RunInfo, node string, step int, action Action, err error, duration time.Duration)

	// OnNodeRetry is called after a failed exec attempt that will be
	// retried, before the backoff delay is applied. attempt is 1-based.
	OnNodeRetry(ctx context.Context, run *RunInfo, node string, attempt int, err error, delay time.Duration)
}

// NoopObserver is an Observer that does nothing.
// It is used as the default when no observer is configured.
type NoopObserver struct{}

func (NoopObserver) OnFlowStart(ctx context.Context, run *RunInfo, flow string) {}
func (NoopObserver) OnFlowCompleted(ctx context.Context, run *RunInfo, flow string, action Action) {
}
func (NoopObserver) OnFlowFailed(ctx context.Context, run *RunInfo, flow string, err error) {}
func (NoopObserver) OnNodeStart(ctx context.Context, run *RunInfo, node string, step int)   {}
func (NoopObserver) OnNodeCompleted(ctx context.Context, run *RunInfo, node string, step int, action Action, err error, d time.Duration) {
}
func (NoopObserver) OnNodeRetry(ctx context.Context, run *RunInfo, node string, attempt int, err error, delay time.Duration) {
}

// CompositeObserver fans out events to multiple observers.
type CompositeObserver struct {
	observers []Observer
}

// NewCompositeObserver creates an Observer that forwards events to each
// non-nil observer in obs.
func NewCompositeObserver(obs ...Observer) Observer {
	filtered := make([]Observer, 0, len(obs))
	for _, o := range obs {
		if o != nil {
			filtered = append(filtered, o)
		}
	}
	if len(filtered) == 0 {
		return NoopObserver{}
	}
	if len(filtered) == 1 {
		return filtered[0]
	}
	return &CompositeObserver{observers: filtered}
}

func (c *CompositeObserver) OnFlowStart(ctx context.Context, run *RunInfo, flow string) {
	for _, o := range c.observers {
		o.OnFlowStart(ctx, run, flow)
	}
}

func (c *CompositeObserver) OnFlowCompleted(ctx context.Context, run *RunInfo, flow string, action Action) {
	for _, o := range c.observers {
		o.OnFlowCompleted(ctx, run, flow, action)
	}
}

func (c *CompositeObserver) OnFlowFailed(ctx context.Context, run *RunInfo, flow string, err error) {
	for _, o := range c.observers {
		o.OnFlowFailed(ctx, run, flow, err)
	}
}

func (c *CompositeObserver) OnNodeStart(ctx context.Context, run *RunInfo, node string, step int) {
	for _, o := range c.observers {
		o.OnNodeStart(ctx, run, node, step)
	}
}

func (c *CompositeObserver) OnNodeCompleted(ctx context.Context, run *RunInfo, node string, step int, action Action, err error, d time.Duration) {
	for _, o := range c.observers {
		o.OnNodeCompleted(ctx, run, node, step, action, err, d)
	}
}

func (c *CompositeObserver) OnNodeRetry(ctx context.Context, run *RunInfo, node string, attempt int, err error, delay time.Duration) {
	for _, o := range c.observers {
		o.OnNodeRetry(ctx, run, node, attempt, err, delay)
	}
}

// LoggingObserver writes structured logs using log/slog.
type LoggingObserver struct {
	Logger *slog.Logger
}

// NewLoggingObserver creates an Observer that logs flow / node lifecycle
// events using the provided slog.Logger. If logger is nil, slog.Default()
// is used.
func NewLoggingObserver(logger *slog.Logger) Observer {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingObserver{Logger: logger}
}

func (o *LoggingObserver) OnFlowStart(ctx context.Context, run *RunInfo, flow string) {
	o.Logger.InfoContext(ctx, "flow_start",
		slog.String("flow", flow),
		slog.String("run_id", run.ID),
	)
}

func (o *LoggingObserver) OnFlowCompleted(ctx context.Context, run *RunInfo, flow string, action Action) {
	o.Logger.InfoContext(ctx, "flow_completed",
		slog.String("flow", flow),
		slog.String("run_id", run.ID),
		slog.String("action", string(action)),
	)
}

func (o *LoggingObserver) OnFlowFailed(ctx context.Context, run *RunInfo, flow string, err error) {
	o.Logger.ErrorContext(ctx, "flow_failed",
		slog.String("flow", flow),
		slog.String("run_id", run.ID),
		slog.Any("error", err),
	)
}

func (o *LoggingObserver) OnNodeStart(ctx context.Context, run *RunInfo, node string, step int) {
	o.Logger.DebugContext(ctx, "node_start",
		slog.String("run_id", run.ID),
		slog.String("node", node),
		slog.Int("step", step),
	)
}

func (o *LoggingObserver) OnNodeCompleted(ctx context.Context, run *RunInfo, node string, step int, action Action, err error, d time.Duration) {
	level := slog.LevelDebug
	if err != nil {
		level = slog.LevelError
	}
	o.Logger.Log(ctx, level, "node_completed",
		slog.String("run_id", run.ID),
		slog.String("node", node),
		slog.Int("step", step),
		slog.String("action", string(action)),
		slog.Duration("duration", d),
		slog.Any("error", err),
	)
}

func (o *LoggingObserver) OnNodeRetry(ctx context.Context, run *RunInfo, node string, attempt int, err error, delay time.Duration) {
	o.Logger.WarnContext(ctx, "node_retry",
		slog.String("run_id", run.ID),
		slog.String("node", node),
		slog.Int("attempt", attempt),
		slog.Duration("delay", delay),
		slog.Any("error", err),
	)
}

// BasicMetrics collects simple counters and aggregate node durations.
// It implements Observer, and can be combined with LoggingObserver via
// NewCompositeObserver.
type BasicMetrics struct {
	NoopObserver

	flowsStarted      atomic.Int64
	flowsCompleted    atomic.Int64
	flowsFailed       atomic.Int64
	nodesCompleted    atomic.Int64
	nodesFailed       atomic.Int64
	retries           atomic.Int64
	totalNodeDuration atomic.Int64 // nanoseconds
}

// BasicMetricsSnapshot is an immutable snapshot of BasicMetrics.
type BasicMetricsSnapshot struct {
	FlowsStarted   int64
	FlowsCompleted int64
	FlowsFailed    int64
	FlowsRunning   int64

	NodesCompleted  int64
	NodesFailed     int64
	Retries         int64
	AvgNodeDuration time.Duration
}

func (m *BasicMetrics) OnFlowStart(ctx context.Context, run *RunInfo, flow string) {
	m.flowsStarted.Add(1)
}

func (m *BasicMetrics) OnFlowCompleted(ctx context.Context, run *RunInfo, flow string, action Action) {
	m.flowsCompleted.Add(1)
}

func (m *BasicMetrics) OnFlowFailed(ctx context.Context, run *RunInfo, flow string, err error) {
	m.flowsFailed.Add(1)
}

func (m *BasicMetrics) OnNodeCompleted(ctx context.Context, run *RunInfo, node string, step int, action Action, err error, d time.Duration) {
	if err != nil {
		m.nodesFailed.Add(1)
		return
	}
	// Only successful nodes count towards the average duration.
	m.nodesCompleted.Add(1)
	m.totalNodeDuration.Add(d.Nanoseconds())
}

func (m *BasicMetrics) OnNodeRetry(ctx context.Context, run *RunInfo, node string, attempt int, err error, delay time.Duration) {
	m.retries.Add(1)
}

// Snapshot returns a snapshot of the current metrics.
func (m *BasicMetrics) Snapshot() BasicMetricsSnapshot {
	started := m.flowsStarted.Load()
	completed := m.flowsCompleted.Load()
	failed := m.flowsFailed.Load()
	nodes := m.nodesCompleted.Load()
	totalNs := m.totalNodeDuration.Load()

	var avg time.Duration
	if nodes > 0 {
		avg = time.Duration(totalNs / nodes)
	}

	return BasicMetricsSnapshot{
		FlowsStarted:    started,
		FlowsCompleted:  completed,
		FlowsFailed:     failed,
		FlowsRunning:    started - completed - failed,
		NodesCompleted:  nodes,
		NodesFailed:     m.nodesFailed.Load(),
		Retries:         m.retries.Load(),
		AvgNodeDuration: avg,
	}
}
