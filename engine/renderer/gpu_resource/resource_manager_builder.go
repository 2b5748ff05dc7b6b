package gpu_resource

import "github.com/charmbracelet/log"

// ResourceManagerOption configures a ResourceManager during construction.
type ResourceManagerOption func(*resourceManager)

// WithLogger overrides the default "gpu_resource"-prefixed logger.
//
// Parameters:
//   - logger: the logger to use
//
// Returns:
//   - ResourceManagerOption: the option function
func WithLogger(logger *log.Logger) ResourceManagerOption {
	return func(m *resourceManager) {
		m.logger = logger
	}
}
