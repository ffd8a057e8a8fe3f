// Package nodeflow provides a minimal, embeddable engine for running graphs
// of computation steps in Go.
//
// A graph is built from nodes connected by action-labelled edges. Each node
// runs a three-phase lifecycle, and the action its last phase returns picks
// the next node. Graphs may loop, nest inside each other and fan out over
// batches of items, sequentially or in parallel.
//
// # Core Concepts
//
// The programming model is intentionally small:
//
//  1. Node
//  2. Flow
//  3. Shared
//  4. Batch and async variants
//  5. Observer
//
// # Node
//
// A Node embeds *BaseNode and overrides any of:
//
//	Prep(ctx, shared)                   // read shared state
//	Exec(ctx, prepResult)               // do the work, retried on error
//	Post(ctx, shared, prep, exec)       // write shared state, choose an action
//	ExecFallback(ctx, prepResult, err)  // recover after the last failed attempt
//
// Exec is attempted up to MaxRetries times with an optional delay between
// attempts (see WithMaxRetries, WithWait and Retry). When every attempt
// fails, ExecFallback receives the last error; the default returns it and
// the run aborts.
//
// Edges are registered with Next for the default action and with
// On(action).Next(target) for named ones:
//
//	check.On("positive").Next(subtract)
//	check.On("done").Next(report)
//	subtract.Next(check)
//
// # Flow
//
// A Flow walks the graph from its start node until a node's action has no
// edge. A Flow is itself a Node, so flows nest: the action an inner graph
// ends with selects the outer edge.
//
//	flow := nodeflow.NewFlow(check)
//	action, err := nodeflow.Run(ctx, flow, nodeflow.NewShared())
//
// If a node returns an action that is not registered but the node has other
// edges, the walk ends and a warning listing the available actions is
// logged. A node with no edges ends the walk silently.
//
// # Shared
//
// Every node of a run receives the same *Shared, a goroutine-safe key/value
// store allocated by the caller. Per-run configuration travels separately as
// Params: a flow delivers its params to every node it runs, and batch flows
// merge one param set per walk on top. Nodes read them with ParamsFrom(ctx)
// or Param[T](ctx, key).
//
// # Batch and async variants
//
// BatchNode runs Exec once per item returned by Prep. BatchFlow walks its
// graph once per param set returned by Prep.
//
// AsyncNode, AsyncBatchNode, AsyncParallelBatchNode, AsyncFlow,
// AsyncBatchFlow and AsyncParallelBatchFlow are started with RunAsync, which
// returns a Future. The parallel variants start one goroutine per item or
// param set, wait for all of them, and report the failure with the lowest
// index if any failed. Sync and async nodes can be mixed in any flow.
//
// # Observer
//
// Observers receive flow and node lifecycle callbacks. LoggingObserver
// writes them with log/slog, BasicMetrics counts them, and
// NewHistoryObserver appends them to a HistoryStore (memory, SQLite,
// PostgreSQL, Redis or MongoDB) for auditing. Attach observers with
// WithObserver and combine them with NewCompositeObserver.
//
// For runnable programs, see the /examples directory.
package nodeflow
