package graph

import "github.com/charmbracelet/log"

// GraphOption is a functional option used to configure a Graph during construction.
type GraphOption func(*renderGraph)

// WithLogger overrides the default "graph"-prefixed logger.
//
// Parameters:
//   - logger: the logger to use
//
// Returns:
//   - GraphOption: the option function
func WithLogger(logger *log.Logger) GraphOption {
	return func(g *renderGraph) {
		g.logger = logger
	}
}
