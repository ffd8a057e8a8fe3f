package nodeflow

// AsyncNode is a node that must be started with RunAsync. Inside a flow it
// runs on its own goroutine and the walk waits for it, so blocking work in
// its lifecycle never holds up sibling branches of a parallel batch.
type AsyncNode struct {
	*BaseNode
}

func NewAsyncNode(opts ...Option) *AsyncNode {
	return &AsyncNode{BaseNode: NewNode(opts...)}
}

func (*AsyncNode) traits() traits { return traits{async: true} }

// AsyncBatchNode runs Exec once per item, each awaited before the next.
type AsyncBatchNode struct {
	*AsyncNode
}

func NewAsyncBatchNode(opts ...Option) *AsyncBatchNode {
	return &AsyncBatchNode{AsyncNode: NewAsyncNode(opts...)}
}

func (*AsyncBatchNode) traits() traits { return traits{async: true, fanout: fanoutSequential} }

// AsyncParallelBatchNode runs Exec for every item concurrently. It waits
// for all items to finish, then either returns the results in item order or
// fails with the error of the lowest-index failed item.
type AsyncParallelBatchNode struct {
	*AsyncNode
}

func NewAsyncParallelBatchNode(opts ...Option) *AsyncParallelBatchNode {
	return &AsyncParallelBatchNode{AsyncNode: NewAsyncNode(opts...)}
}

func (*AsyncParallelBatchNode) traits() traits { return traits{async: true, fanout: fanoutParallel} }

// AsyncFlow is a Flow that must be started with RunAsync. Its graph may mix
// sync and async nodes.
type AsyncFlow struct {
	*Flow
}

func NewAsyncFlow(start Node, opts ...Option) *AsyncFlow {
	return &AsyncFlow{Flow: NewFlow(start, opts...)}
}

func (*AsyncFlow) traits() traits { return traits{async: true} }

// AsyncBatchFlow walks its graph once per param set, one walk at a time.
type AsyncBatchFlow struct {
	*AsyncFlow
}

func NewAsyncBatchFlow(start Node, opts ...Option) *AsyncBatchFlow {
	return &AsyncBatchFlow{AsyncFlow: NewAsyncFlow(start, opts...)}
}

func (*AsyncBatchFlow) traits() traits { return traits{async: true, fanout: fanoutSequential} }

// AsyncParallelBatchFlow walks its graph once per param set, all walks at
// once. Every walk shares the same *Shared. It waits for all walks and fails
// with the lowest-index failure if any failed.
type AsyncParallelBatchFlow struct {
	*AsyncFlow
}

func NewAsyncParallelBatchFlow(start Node, opts ...Option) *AsyncParallelBatchFlow {
	return &AsyncParallelBatchFlow{AsyncFlow: NewAsyncFlow(start, opts...)}
}

func (*AsyncParallelBatchFlow) traits() traits { return traits{async: true, fanout: fanoutParallel} }
