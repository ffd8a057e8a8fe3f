package nodeflow

import (
	"errors"
	"fmt"
)

var (
	// ErrAsyncNode is returned by Run when the node must be driven with RunAsync.
	ErrAsyncNode = errors.New("nodeflow: async node must be run with RunAsync")

	// ErrNoStartNode is returned when a flow is run without a start node.
	ErrNoStartNode = errors.New("nodeflow: flow has no start node")

	// ErrMaxStepsExceeded is returned when a flow walk executes more nodes
	// than the configured WithMaxSteps limit.
	ErrMaxStepsExceeded = errors.New("nodeflow: max steps exceeded")

	// ErrInvalidBatch is returned when a batch prep step yields a value that
	// cannot be iterated as a list of items or param sets.
	ErrInvalidBatch = errors.New("nodeflow: invalid batch input")

	// ErrNilNode is returned when Run or RunAsync is called with a nil node.
	ErrNilNode = errors.New("nodeflow: nil node")
)

// Phase names the lifecycle step a NodeError originated in.
type Phase string

const (
	PhasePrep Phase = "prep"
	PhaseExec Phase = "exec"
	PhasePost Phase = "post"
)

// NodeError records which node and lifecycle phase failed.
// Errors raised by nested flows keep the innermost NodeError; outer
// flows never wrap it again.
type NodeError struct {
	Node  string
	Phase Phase
	Err   error
}

func (e *NodeError) Error() string {
	return fmt.Sprintf("node %q %s: %v", e.Node, e.Phase, e.Err)
}

func (e *NodeError) Unwrap() error { return e.Err }

func wrapNodeError(node string, phase Phase, err error) error {
	if err == nil {
		return nil
	}
	var ne *NodeError
	if errors.As(err, &ne) {
		return err
	}
	return &NodeError{Node: node, Phase: phase, Err: err}
}

// PanicError is returned by a Future whose function panicked.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("nodeflow: panic in async branch: %v", e.Value)
}
