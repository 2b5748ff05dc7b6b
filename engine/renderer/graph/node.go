package graph

// Node is the contract every render pass implements. The graph calls Prepare
// on every node first, then Execute on every node, in (stage, insertion)
// order.
//
// Prepare receives the mutable context: a node may allocate transient
// textures, build or look up bind groups and pipelines, and write uniform
// data. Execute receives the read-only context and records GPU commands only;
// it must not allocate or mutate cached resources. The split keeps resource
// creation out of command recording and leaves the execute phase free of data
// races if recording is ever spread across encoders.
//
// A node may skip itself by returning early from either phase; every node
// must tolerate a predecessor having been skipped. Errors from either phase
// skip the node for the frame and are logged; they never abort the frame.
type Node interface {
	// Name returns the node name used in logs and pass labels.
	//
	// Returns:
	//   - string: the node name
	Name() string

	// Stage returns the ordering slot this node occupies.
	//
	// Returns:
	//   - RenderStage: the node's stage
	Stage() RenderStage

	// Prepare runs the mutable phase for this frame.
	//
	// Parameters:
	//   - ctx: the shared mutable prepare context
	//
	// Returns:
	//   - error: a failure that skips this node's Execute for the frame
	Prepare(ctx *PrepareContext) error

	// Execute records this node's GPU commands for the frame.
	//
	// Parameters:
	//   - ctx: the shared read-only execute context
	//
	// Returns:
	//   - error: a recording failure, logged by the graph
	Execute(ctx *ExecuteContext) error
}
