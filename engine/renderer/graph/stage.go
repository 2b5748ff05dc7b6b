// package graph is the per-frame render orchestrator: an ordered list of
// nodes rebuilt from scratch every frame and run through a two-phase
// prepare/execute protocol against shared contexts.
package graph

// RenderStage is the coarse ordering slot a node occupies. Stages define a
// total order; nodes within one stage run in insertion order.
type RenderStage int

const (
	// StagePreProcess runs compute work before any rasterization.
	StagePreProcess RenderStage = iota
	// StageShadowMap renders depth-only shadow maps.
	StageShadowMap
	// StageOpaque renders opaque geometry, clearing color and depth.
	StageOpaque
	// StageSkybox renders the environment behind all opaque geometry.
	StageSkybox
	// StageBeforeTransparent hosts work that must see the finished opaque
	// scene but run before blending, such as the transmission copy.
	StageBeforeTransparent
	// StageTransparent blends transparent geometry back to front.
	StageTransparent
	// StagePostProcess runs fullscreen work such as tone mapping.
	StagePostProcess
	// StageUI draws the overlay on the presentable surface.
	StageUI
)

// String returns the stage name for logs and pass labels.
func (s RenderStage) String() string {
	switch s {
	case StagePreProcess:
		return "pre_process"
	case StageShadowMap:
		return "shadow_map"
	case StageOpaque:
		return "opaque"
	case StageSkybox:
		return "skybox"
	case StageBeforeTransparent:
		return "before_transparent"
	case StageTransparent:
		return "transparent"
	case StagePostProcess:
		return "post_process"
	case StageUI:
		return "ui"
	default:
		return "unknown"
	}
}
