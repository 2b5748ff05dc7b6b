package renderer

import (
	"github.com/cogentcore/webgpu/wgpu"

	"github.com/ember-gfx/ember-go/engine/renderer/graph"
)

// RendererBackend owns the WebGPU objects behind the renderer: instance,
// surface, adapter, device, queue, and the persistent frame attachments
// (scene color, depth, MSAA, shadow map). The renderer drives it once per
// frame: AcquireFrame, record through the graph, submit, Present.
type RendererBackend interface {
	// Device returns the WebGPU device.
	//
	// Returns:
	//   - *wgpu.Device: the device
	Device() *wgpu.Device

	// Queue returns the submission queue.
	//
	// Returns:
	//   - *wgpu.Queue: the queue
	Queue() *wgpu.Queue

	// SurfaceFormat returns the negotiated swapchain format.
	//
	// Returns:
	//   - wgpu.TextureFormat: the surface format
	SurfaceFormat() wgpu.TextureFormat

	// Resize reconfigures the surface and rebuilds the size-dependent frame
	// attachments. A zero dimension is ignored.
	//
	// Parameters:
	//   - width: new surface width in pixels
	//   - height: new surface height in pixels
	//
	// Returns:
	//   - error: attachment creation failure
	Resize(width, height uint32) error

	// RebuildTargets recreates every frame attachment from the current
	// settings at the current size. Called after a settings change that
	// affects formats, sample counts, or the shadow map size.
	//
	// Returns:
	//   - error: attachment creation failure
	RebuildTargets() error

	// AcquireFrame acquires the next swapchain image and returns the frame
	// resources for recording. Valid until Present.
	//
	// Returns:
	//   - *graph.FrameResources: the frame's attachment views and formats
	//   - error: surface acquisition failure
	AcquireFrame() (*graph.FrameResources, error)

	// Present presents the acquired frame and releases the per-frame views.
	Present()

	// ShadowView returns the persistent shadow map view, for callers that
	// bind it outside a frame (the global bind group).
	//
	// Returns:
	//   - *wgpu.TextureView: the shadow map depth view
	ShadowView() *wgpu.TextureView

	// Release frees every GPU object the backend owns.
	Release()
}
