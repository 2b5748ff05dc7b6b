package passes

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/ember-gfx/ember-go/engine/light"
	"github.com/ember-gfx/ember-go/engine/renderer/graph"
)

// shadowPass is the implementation of the shadow map pass. It owns the light
// view-projection uniform and its bind group; the shadow map texture itself
// is a frame resource because the scene passes sample it through the global
// bind group.
type shadowPass struct {
	layout *wgpu.BindGroupLayout

	uniformBuffer *wgpu.Buffer
	bindGroup     *wgpu.BindGroup

	enabled bool
}

var _ graph.Node = &shadowPass{}

// NewShadowPass creates the shadow map pass. It renders the shadow queue
// depth-only from the shadow light's point of view and skips itself on
// frames without a shadow-casting light or without casters.
//
// Parameters:
//   - layout: the group 0 layout shadow-variant pipelines are built against,
//     a single 64-byte vertex-stage uniform
//
// Returns:
//   - graph.Node: the shadow pass node
func NewShadowPass(layout *wgpu.BindGroupLayout) graph.Node {
	return &shadowPass{layout: layout}
}

func (p *shadowPass) Name() string {
	return "shadow_map"
}

func (p *shadowPass) Stage() graph.RenderStage {
	return graph.StageShadowMap
}

func (p *shadowPass) Prepare(ctx *graph.PrepareContext) error {
	p.enabled = false
	if ctx.ShadowViewProj == nil || ctx.Frame == nil || ctx.Frame.ShadowView == nil {
		return nil
	}
	if len(ctx.Lists.Shadow) == 0 {
		return nil
	}

	if p.uniformBuffer == nil {
		buf, err := ctx.Device.CreateBuffer(&wgpu.BufferDescriptor{
			Label: "shadow uniform",
			Size:  64,
			Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
		})
		if err != nil {
			return fmt.Errorf("failed to create shadow uniform buffer: %w", err)
		}
		p.uniformBuffer = buf
	}
	if p.bindGroup == nil {
		bg, err := ctx.Device.CreateBindGroup(&wgpu.BindGroupDescriptor{
			Label:  "shadow uniform",
			Layout: p.layout,
			Entries: []wgpu.BindGroupEntry{
				{
					Binding: 0,
					Buffer:  p.uniformBuffer,
					Size:    64,
				},
			},
		})
		if err != nil {
			return fmt.Errorf("failed to create shadow bind group: %w", err)
		}
		p.bindGroup = bg
	}

	var uniform light.GPUShadowUniform
	copy(uniform.LightVP[:], ctx.ShadowViewProj)
	ctx.Queue.WriteBuffer(p.uniformBuffer, 0, uniform.Marshal())

	p.enabled = true
	return nil
}

func (p *shadowPass) Execute(ctx *graph.ExecuteContext) error {
	if !p.enabled {
		return nil
	}

	pass := ctx.Encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		Label: "shadow pass",
		DepthStencilAttachment: &wgpu.RenderPassDepthStencilAttachment{
			View:            ctx.Frame.ShadowView,
			DepthLoadOp:     wgpu.LoadOpClear,
			DepthStoreOp:    wgpu.StoreOpStore,
			DepthClearValue: 1.0,
		},
	})

	objects := ctx.Objects.BindGroup()
	var bound *wgpu.RenderPipeline
	for i := range ctx.Lists.Shadow {
		cmd := &ctx.Lists.Shadow[i]
		res := &cmd.Resolution
		if res.Pipeline == nil || res.VertexBuffer == nil || res.IndexBuffer == nil {
			continue
		}
		if res.Pipeline != bound {
			pass.SetPipeline(res.Pipeline)
			bound = res.Pipeline
		}
		pass.SetBindGroup(0, p.bindGroup, nil)
		pass.SetBindGroup(1, objects, []uint32{ctx.Objects.OffsetFor(cmd.ObjectIndex)})
		pass.SetVertexBuffer(0, res.VertexBuffer, 0, wgpu.WholeSize)
		pass.SetIndexBuffer(res.IndexBuffer, res.IndexFormat, 0, wgpu.WholeSize)
		pass.DrawIndexed(res.IndexCount, 1, 0, 0, 0)
	}
	pass.End()
	return nil
}

// Release frees the pass's GPU resources. The layout is owned by the caller.
func (p *shadowPass) Release() {
	if p.bindGroup != nil {
		p.bindGroup.Release()
		p.bindGroup = nil
	}
	if p.uniformBuffer != nil {
		p.uniformBuffer.Release()
		p.uniformBuffer = nil
	}
}
