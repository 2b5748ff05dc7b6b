package graph

import (
	"sort"

	"github.com/charmbracelet/log"
)

// graphNode pairs a node with its insertion index for the stable stage sort.
type graphNode struct {
	node  Node
	order int
	// skip marks a node whose Prepare failed or chose to opt out; its
	// Execute does not run this frame.
	skip bool
}

// renderGraph is the implementation of the Graph interface.
type renderGraph struct {
	logger *log.Logger
	nodes  []graphNode
}

// Graph is the per-frame node list. It is rebuilt from scratch every frame by
// the renderer's composer: the rebuild costs a handful of appends and
// eliminates cross-frame topology state entirely. Nodes run strictly in
// (stage, insertion order); a skipped or failed node never affects whether a
// later node runs.
type Graph interface {
	// Add appends a node. Nodes added within the same stage execute in the
	// order they were added.
	//
	// Parameters:
	//   - node: the node to append
	Add(node Node)

	// Prepare runs every node's Prepare in sorted order. A node returning an
	// error is logged and skipped for the execute phase; the frame continues.
	//
	// Parameters:
	//   - ctx: the shared mutable prepare context
	Prepare(ctx *PrepareContext)

	// Execute runs every surviving node's Execute in sorted order against
	// one shared encoder. Errors are logged; the frame still submits.
	//
	// Parameters:
	//   - ctx: the shared read-only execute context
	Execute(ctx *ExecuteContext)

	// Len returns the node count, for diagnostics.
	//
	// Returns:
	//   - int: the number of nodes
	Len() int
}

var _ Graph = &renderGraph{}

// NewGraph creates an empty graph for one frame.
//
// Parameters:
//   - opts: a variadic list of GraphOption functions
//
// Returns:
//   - Graph: a new Graph instance
func NewGraph(opts ...GraphOption) Graph {
	g := &renderGraph{
		logger: log.WithPrefix("graph"),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *renderGraph) Add(node Node) {
	g.nodes = append(g.nodes, graphNode{node: node, order: len(g.nodes)})
}

func (g *renderGraph) Prepare(ctx *PrepareContext) {
	sort.SliceStable(g.nodes, func(a, b int) bool {
		if g.nodes[a].node.Stage() != g.nodes[b].node.Stage() {
			return g.nodes[a].node.Stage() < g.nodes[b].node.Stage()
		}
		return g.nodes[a].order < g.nodes[b].order
	})

	for i := range g.nodes {
		n := &g.nodes[i]
		if err := n.node.Prepare(ctx); err != nil {
			g.logger.Warn("node prepare failed, skipping for frame", "node", n.node.Name(), "err", err)
			n.skip = true
		}
	}
}

func (g *renderGraph) Execute(ctx *ExecuteContext) {
	for i := range g.nodes {
		n := &g.nodes[i]
		if n.skip {
			continue
		}
		if err := n.node.Execute(ctx); err != nil {
			g.logger.Warn("node execute failed", "node", n.node.Name(), "err", err)
		}
	}
}

func (g *renderGraph) Len() int {
	return len(g.nodes)
}
