package renderer

import (
	"github.com/charmbracelet/log"

	"github.com/ember-gfx/ember-go/engine/renderer/graph/passes"
	"github.com/ember-gfx/ember-go/engine/renderer/settings"
)

// RendererOption is a functional option for configuring a renderer during
// construction.
type RendererOption func(*renderer)

// WithLogger sets the logger used by the renderer and its sub-systems.
//
// Parameters:
//   - logger: the logger to use
//
// Returns:
//   - RendererOption: the option function
func WithLogger(logger *log.Logger) RendererOption {
	return func(r *renderer) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithSettings replaces the default render settings.
//
// Parameters:
//   - s: the settings to use
//
// Returns:
//   - RendererOption: the option function
func WithSettings(s *settings.RenderSettings) RendererOption {
	return func(r *renderer) {
		if s != nil {
			r.settings = s
		}
	}
}

// WithSettingsFile loads render settings from a TOML file. A missing or
// malformed file keeps the defaults and logs a warning at construction.
//
// Parameters:
//   - path: the settings file path
//
// Returns:
//   - RendererOption: the option function
func WithSettingsFile(path string) RendererOption {
	return func(r *renderer) {
		s, err := settings.LoadRenderSettings(path)
		if err != nil {
			r.logger.Warn("failed to load render settings, using defaults", "path", path, "err", err)
			return
		}
		r.settings = s
	}
}

// WithProfiling enables or disables the renderer's per-second frame stats.
//
// Parameters:
//   - enabled: whether to log frame stats
//
// Returns:
//   - RendererOption: the option function
func WithProfiling(enabled bool) RendererOption {
	return func(r *renderer) {
		r.profiler.SetEnabled(enabled)
	}
}

// WithOverlay installs a callback that draws on the surface after tone
// mapping, inside a render pass that preserves the presented frame.
//
// Parameters:
//   - draw: the overlay draw callback
//
// Returns:
//   - RendererOption: the option function
func WithOverlay(draw passes.OverlayDrawFunc) RendererOption {
	return func(r *renderer) {
		r.overlay = draw
	}
}

// WithShaderDirectory registers every .wgsl file in dir over the built-in
// templates and watches the directory for hot reload.
//
// Parameters:
//   - dir: the shader directory
//
// Returns:
//   - RendererOption: the option function
func WithShaderDirectory(dir string) RendererOption {
	return func(r *renderer) {
		r.shaderDir = dir
	}
}
