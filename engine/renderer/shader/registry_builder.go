package shader

import "github.com/charmbracelet/log"

// RegistryOption is a functional option used to configure a Registry during construction.
type RegistryOption func(*registry)

// WithLogger overrides the default "shader"-prefixed logger.
//
// Parameters:
//   - logger: the logger to use
//
// Returns:
//   - RegistryOption: the option function
func WithLogger(logger *log.Logger) RegistryOption {
	return func(r *registry) {
		r.logger = logger
	}
}

// WithTemplates seeds the registry with an initial template set, typically the
// engine's embedded defaults.
//
// Parameters:
//   - templates: template sources keyed by template key
//
// Returns:
//   - RegistryOption: the option function
func WithTemplates(templates map[string]string) RegistryOption {
	return func(r *registry) {
		for k, v := range templates {
			r.templates[k] = v
		}
	}
}
