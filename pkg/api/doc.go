// Package api contains the shared vocabulary of the nodeflow graph engine:
// actions, params, retry policies, run identity, history events, and the
// Observer interface together with its ready-made implementations.
//
// Most users interact with the higher-level nodeflow package, which
// re-exports the types defined here. The api package exists so that
// observers and history backends can depend on a small, stable set of
// types without importing the engine itself.
//
// # Actions and Params
//
// An Action is the label a node's post step returns to select the next
// edge in a graph. ActionNone is the "absent" value and is looked up as
// ActionDefault.
//
// Params are per-run configuration values. They are merged top-down: a
// flow's params are overridden per item by batch overrides before being
// delivered to the executing node. Merge always allocates, so one item's
// overrides never leak into another's.
//
// # Observability
//
// The Observer interface receives flow and node lifecycle callbacks. The
// package ships a NoopObserver, a CompositeObserver for fan-out, a
// LoggingObserver built on log/slog, and BasicMetrics for simple in-memory
// counters.
package api
