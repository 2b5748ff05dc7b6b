package passes

import (
	"github.com/cogentcore/webgpu/wgpu"

	"github.com/ember-gfx/ember-go/engine/renderer/graph"
)

// OverlayDrawFunc records overlay draw calls into an already-begun render
// pass targeting the presentable surface. The surface content below it is
// preserved, so callers only draw what they add on top.
type OverlayDrawFunc func(pass *wgpu.RenderPassEncoder, frame *graph.FrameResources)

// overlayPass hosts application-supplied drawing on the surface after tone
// mapping. It owns no pipelines itself; the callback brings its own.
type overlayPass struct {
	draw    OverlayDrawFunc
	enabled bool
}

var _ graph.Node = &overlayPass{}

// NewOverlayPass creates the overlay pass.
//
// Parameters:
//   - draw: the callback invoked inside the surface render pass, may be nil
//
// Returns:
//   - graph.Node: the overlay pass node
func NewOverlayPass(draw OverlayDrawFunc) graph.Node {
	return &overlayPass{draw: draw}
}

func (p *overlayPass) Name() string {
	return "overlay"
}

func (p *overlayPass) Stage() graph.RenderStage {
	return graph.StageUI
}

func (p *overlayPass) Prepare(ctx *graph.PrepareContext) error {
	p.enabled = p.draw != nil && ctx.Frame != nil && ctx.Frame.SurfaceView != nil
	return nil
}

func (p *overlayPass) Execute(ctx *graph.ExecuteContext) error {
	if !p.enabled {
		return nil
	}

	pass := ctx.Encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		Label: "overlay pass",
		ColorAttachments: []wgpu.RenderPassColorAttachment{
			{
				View:    ctx.Frame.SurfaceView,
				LoadOp:  wgpu.LoadOpLoad,
				StoreOp: wgpu.StoreOpStore,
			},
		},
	})
	p.draw(pass, ctx.Frame)
	pass.End()
	return nil
}
