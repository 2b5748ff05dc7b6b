package pipeline

import "github.com/charmbracelet/log"

// CacheOption is a functional option used to configure a Cache during construction.
type CacheOption func(*pipelineCache)

// WithCacheLogger overrides the default "pipeline"-prefixed logger.
//
// Parameters:
//   - logger: the logger to use
//
// Returns:
//   - CacheOption: the option function
func WithCacheLogger(logger *log.Logger) CacheOption {
	return func(c *pipelineCache) {
		c.logger = logger
	}
}

// withCompileFunc replaces the compile step, used by tests to exercise lookup
// and dedupe behavior without a GPU device.
func withCompileFunc(fn compileFunc) CacheOption {
	return func(c *pipelineCache) {
		c.compile = fn
		c.compileCompute = fn
	}
}
