package extract

import "github.com/charmbracelet/log"

// ExtractorOption is a functional option used to configure an Extractor during construction.
type ExtractorOption func(*extractor)

// WithLogger overrides the default "extract"-prefixed logger.
//
// Parameters:
//   - logger: the logger to use
//
// Returns:
//   - ExtractorOption: the option function
func WithLogger(logger *log.Logger) ExtractorOption {
	return func(e *extractor) {
		e.logger = logger
	}
}
