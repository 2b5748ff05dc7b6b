package passes

import (
	"errors"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/ember-gfx/ember-go/engine/renderer/graph"
)

// transparentPass draws the back-to-front sorted transparent list over the
// finished opaque scene, loading both attachments. Transmissive draws bind
// the scene color copy published by the transmission pass.
type transparentPass struct{}

var _ graph.Node = &transparentPass{}

// NewTransparentPass creates the transparent pass.
//
// Returns:
//   - graph.Node: the transparent pass node
func NewTransparentPass() graph.Node {
	return &transparentPass{}
}

func (p *transparentPass) Name() string {
	return "transparent"
}

func (p *transparentPass) Stage() graph.RenderStage {
	return graph.StageTransparent
}

func (p *transparentPass) Prepare(ctx *graph.PrepareContext) error {
	if ctx.Frame == nil || ctx.Frame.SceneView == nil || ctx.Frame.DepthView == nil {
		return errors.New("frame resources not ready")
	}
	if ctx.GlobalBindGroup == nil {
		return errors.New("global bind group not prepared")
	}
	return nil
}

func (p *transparentPass) Execute(ctx *graph.ExecuteContext) error {
	// Under MSAA this pass owns the frame's only resolve, so it must run
	// even with nothing to draw or the resolve texture goes stale.
	if len(ctx.Lists.Transparent) == 0 && ctx.Frame.SceneResolveView == nil {
		return nil
	}

	// The scene color group is absent when no transmissive draw survived or
	// the copy was skipped; transmissive draws are dropped in that case.
	var sceneColor *wgpu.BindGroup
	if v, ok := ctx.Blackboard.Get(SceneColorBindGroupKey); ok {
		sceneColor, _ = v.(*wgpu.BindGroup)
	}

	pass := ctx.Encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		Label:            "transparent pass",
		ColorAttachments: []wgpu.RenderPassColorAttachment{transparentColorAttachment(ctx.Frame)},
		DepthStencilAttachment: &wgpu.RenderPassDepthStencilAttachment{
			View:         ctx.Frame.DepthView,
			DepthLoadOp:  wgpu.LoadOpLoad,
			DepthStoreOp: wgpu.StoreOpStore,
		},
	})
	recordSceneDraws(pass, ctx, ctx.Lists.Transparent, sceneColor)
	pass.End()
	return nil
}

// transparentColorAttachment loads the finished scene and, under MSAA,
// resolves it here and discards the samples; nothing reads them afterwards.
func transparentColorAttachment(frame *graph.FrameResources) wgpu.RenderPassColorAttachment {
	attachment := wgpu.RenderPassColorAttachment{
		View:    frame.SceneView,
		LoadOp:  wgpu.LoadOpLoad,
		StoreOp: wgpu.StoreOpStore,
	}
	if frame.SceneResolveView != nil {
		attachment.ResolveTarget = frame.SceneResolveView
		attachment.StoreOp = wgpu.StoreOpDiscard
	}
	return attachment
}
