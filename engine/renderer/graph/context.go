package graph

import (
	"github.com/charmbracelet/log"
	"github.com/cogentcore/webgpu/wgpu"

	"github.com/ember-gfx/ember-go/engine/renderer/dynamic_buffer"
	"github.com/ember-gfx/ember-go/engine/renderer/extract"
	"github.com/ember-gfx/ember-go/engine/renderer/gpu_resource"
	"github.com/ember-gfx/ember-go/engine/renderer/pipeline"
	"github.com/ember-gfx/ember-go/engine/renderer/settings"
	"github.com/ember-gfx/ember-go/engine/renderer/shader"
	"github.com/ember-gfx/ember-go/engine/resource"
)

// FrameResources are the per-frame attachment views shared by every pass:
// the swapchain view, the (possibly multisampled) scene color target, and the
// depth target. Rebuilt on resize and on settings changes, borrowed by the
// contexts for one frame.
type FrameResources struct {
	// SurfaceView is the presentable swapchain view for this frame.
	SurfaceView *wgpu.TextureView

	// SceneView is the scene color target the opaque through transparent
	// passes render into. With MSAA it is the multisampled view and
	// SceneResolveView is the single-sample resolve target; without MSAA it
	// is the single-sample view and SceneResolveView is nil.
	SceneView        *wgpu.TextureView
	SceneResolveView *wgpu.TextureView

	// SceneTexture is the single-sample scene color texture, the source for
	// the transmission copy and the tone map read.
	SceneTexture *wgpu.Texture

	// DepthView is the scene depth attachment.
	DepthView *wgpu.TextureView

	// ShadowView is the persistent shadow map depth attachment. The shadow
	// pass renders into it and the scene passes sample it through the global
	// bind group.
	ShadowView *wgpu.TextureView

	// ShadowSize is the square shadow map resolution in texels.
	ShadowSize uint32

	// ShadowFormat is the shadow map depth format.
	ShadowFormat wgpu.TextureFormat

	// Width and Height are the surface dimensions in pixels.
	Width  uint32
	Height uint32

	// SampleCount is the MSAA sample count of SceneView.
	SampleCount uint32

	// ColorFormat is the scene color format, SurfaceFormat the swapchain
	// format, DepthFormat the depth attachment format.
	ColorFormat   wgpu.TextureFormat
	SurfaceFormat wgpu.TextureFormat
	DepthFormat   wgpu.TextureFormat
}

// PrepareContext is the mutable context passed to every node's Prepare. Nodes
// may allocate transients, resolve pipelines and bind groups, and write
// uniform data through it.
type PrepareContext struct {
	Device *wgpu.Device
	Queue  *wgpu.Queue

	Resources  gpu_resource.ResourceManager
	Pipelines  pipeline.Cache
	Shaders    shader.Registry
	Objects    dynamic_buffer.Manager
	Transients *TransientPool
	Blackboard *Blackboard

	Lists    *extract.Lists
	Frame    *FrameResources
	Settings *settings.RenderSettings

	// GlobalBindGroup carries the camera and lighting uniforms, bound at
	// group 0 by every scene pass. Nil until the renderer prepares it; nodes
	// requiring it skip themselves when missing.
	GlobalBindGroup *wgpu.BindGroup
	GlobalLayout    *wgpu.BindGroupLayout

	// ShadowViewProj is the shadow light's view-projection matrix, column
	// major, or nil when no enabled light casts shadows this frame.
	ShadowViewProj []float32

	// InvViewProj is the camera's inverse view-projection matrix, used by
	// the skybox pass to reconstruct world-space view rays.
	InvViewProj []float32

	// Environment is the scene's equirectangular environment image, or nil
	// when the scene has none.
	Environment resource.Image

	Logger *log.Logger
}

// ExecuteContext is the read-only context passed to every node's Execute.
// Nodes record commands into Encoder and must not create or mutate cached
// resources.
type ExecuteContext struct {
	Encoder *wgpu.CommandEncoder

	Resources  gpu_resource.ResourceManager
	Objects    dynamic_buffer.Manager
	Transients *TransientPool
	Blackboard *Blackboard

	Lists    *extract.Lists
	Frame    *FrameResources
	Settings *settings.RenderSettings

	GlobalBindGroup *wgpu.BindGroup

	Logger *log.Logger
}
