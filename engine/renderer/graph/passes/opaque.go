package passes

import (
	"errors"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/ember-gfx/ember-go/engine/renderer/graph"
)

// opaquePass is the implementation of the opaque scene pass.
type opaquePass struct{}

var _ graph.Node = &opaquePass{}

// NewOpaquePass creates the opaque pass. It clears the scene color and depth
// targets and draws the sorted opaque list front to back.
//
// Returns:
//   - graph.Node: the opaque pass node
func NewOpaquePass() graph.Node {
	return &opaquePass{}
}

func (p *opaquePass) Name() string {
	return "opaque"
}

func (p *opaquePass) Stage() graph.RenderStage {
	return graph.StageOpaque
}

func (p *opaquePass) Prepare(ctx *graph.PrepareContext) error {
	if ctx.Frame == nil || ctx.Frame.SceneView == nil || ctx.Frame.DepthView == nil {
		return errors.New("frame resources not ready")
	}
	if ctx.GlobalBindGroup == nil {
		return errors.New("global bind group not prepared")
	}
	return nil
}

func (p *opaquePass) Execute(ctx *graph.ExecuteContext) error {
	clear := ctx.Settings.ClearColor
	pass := ctx.Encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		Label: "opaque pass",
		ColorAttachments: []wgpu.RenderPassColorAttachment{
			{
				// No resolve here: with MSAA the samples must survive until
				// the transparent pass so it blends in multisampled space.
				View:    ctx.Frame.SceneView,
				LoadOp:  wgpu.LoadOpClear,
				StoreOp: wgpu.StoreOpStore,
				ClearValue: wgpu.Color{
					R: clear[0], G: clear[1], B: clear[2], A: clear[3],
				},
			},
		},
		DepthStencilAttachment: &wgpu.RenderPassDepthStencilAttachment{
			View:            ctx.Frame.DepthView,
			DepthLoadOp:     wgpu.LoadOpClear,
			DepthStoreOp:    wgpu.StoreOpStore,
			DepthClearValue: 1.0,
		},
	})
	recordSceneDraws(pass, ctx, ctx.Lists.Opaque, nil)
	pass.End()
	return nil
}
