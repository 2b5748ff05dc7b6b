package scene

import (
	"github.com/ember-gfx/ember-go/engine/camera"
	"github.com/ember-gfx/ember-go/engine/resource"
)

// SceneBuilderOption is a function that configures a scene during construction.
type SceneBuilderOption func(*scene)

// WithName sets the scene's identifier.
//
// Parameters:
//   - name: the scene name
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithName(name string) SceneBuilderOption {
	return func(s *scene) {
		s.name = name
	}
}

// WithCamera attaches a camera to the scene.
//
// Parameters:
//   - cam: the camera to attach
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithCamera(cam camera.Camera) SceneBuilderOption {
	return func(s *scene) {
		s.cam = cam
	}
}

// WithAmbientColor sets the scene's ambient light color.
//
// Parameters:
//   - r, g, b: the ambient RGB color
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithAmbientColor(r, g, b float32) SceneBuilderOption {
	return func(s *scene) {
		s.ambient = [3]float32{r, g, b}
	}
}

// WithEnvironment sets the equirectangular environment image used for the
// skybox and image-based lighting.
//
// Parameters:
//   - env: the environment image
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithEnvironment(env resource.Image) SceneBuilderOption {
	return func(s *scene) {
		s.environment = env
	}
}

// WithUpdateWorkers sets the number of worker goroutines used for the
// parallel animation advance in Update. Defaults to runtime.NumCPU()-1.
// Lower values reduce scheduling overhead for simple scenes.
//
// Parameters:
//   - n: the number of update workers (minimum 1)
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithUpdateWorkers(n int) SceneBuilderOption {
	return func(s *scene) {
		if n < 1 {
			n = 1
		}
		s.updateWorkers = n
	}
}

// WithInactive creates the scene in the inactive state so it is skipped by
// rendering until activated.
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithInactive() SceneBuilderOption {
	return func(s *scene) {
		s.active = false
	}
}
