package passes

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/ember-gfx/ember-go/common"
	"github.com/ember-gfx/ember-go/engine/renderer/graph"
	"github.com/ember-gfx/ember-go/engine/renderer/pipeline"
	"github.com/ember-gfx/ember-go/engine/renderer/shader"
)

// skyboxPass is the implementation of the environment background pass. It
// draws a fullscreen triangle at the far plane and reconstructs view rays
// from the inverse view-projection, so it only shades pixels the opaque pass
// left at depth 1.0.
type skyboxPass struct {
	layout        *wgpu.BindGroupLayout
	sampler       *wgpu.Sampler
	uniformBuffer *wgpu.Buffer

	bindGroup *wgpu.BindGroup
	boundView *wgpu.TextureView

	renderPipeline *wgpu.RenderPipeline
	enabled        bool
}

var _ graph.Node = &skyboxPass{}

// NewSkyboxPass creates the skybox pass. It skips itself on frames without
// an environment image.
//
// Returns:
//   - graph.Node: the skybox pass node
func NewSkyboxPass() graph.Node {
	return &skyboxPass{}
}

func (p *skyboxPass) Name() string {
	return "skybox"
}

func (p *skyboxPass) Stage() graph.RenderStage {
	return graph.StageSkybox
}

func (p *skyboxPass) Prepare(ctx *graph.PrepareContext) error {
	p.enabled = false
	if ctx.Environment == nil || ctx.InvViewProj == nil || ctx.Frame == nil {
		return nil
	}
	if _, err := ctx.Resources.EnsureTexture(ctx.Environment); err != nil {
		ctx.Logger.Debug("environment not ready, skipping skybox", "err", err)
		return nil
	}

	if err := p.ensureStatic(ctx.Device); err != nil {
		return err
	}

	envView := ctx.Resources.TextureView(ctx.Environment.ID())
	if envView != p.boundView || p.bindGroup == nil {
		if p.bindGroup != nil {
			p.bindGroup.Release()
		}
		bg, err := ctx.Device.CreateBindGroup(&wgpu.BindGroupDescriptor{
			Label:  "skybox",
			Layout: p.layout,
			Entries: []wgpu.BindGroupEntry{
				{Binding: 0, Buffer: p.uniformBuffer, Size: 64},
				{Binding: 1, TextureView: envView},
				{Binding: 2, Sampler: p.sampler},
			},
		})
		if err != nil {
			return fmt.Errorf("failed to create skybox bind group: %w", err)
		}
		p.bindGroup = bg
		p.boundView = envView
	}

	var uniform struct {
		InvViewProj [16]float32
	}
	copy(uniform.InvViewProj[:], ctx.InvViewProj)
	ctx.Queue.WriteBuffer(p.uniformBuffer, 0, common.StructToBytes(&uniform))

	vs, err := expandShader(ctx.Shaders, shader.TemplateSkybox, nil, shader.ShaderTypeVertex, "vs_main")
	if err != nil {
		return err
	}
	fs, err := expandShader(ctx.Shaders, shader.TemplateSkybox, nil, shader.ShaderTypeFragment, "fs_main")
	if err != nil {
		return err
	}

	compiled, _, err := ctx.Pipelines.Resolve(&pipeline.Request{
		FastKey: pipeline.FastKey{
			MaterialID:      passMaterialID("skybox"),
			MaterialVersion: uint64(ctx.Frame.ColorFormat)<<32 | uint64(ctx.Frame.SampleCount),
			Variant:         pipeline.VariantMain,
			SettingsVersion: ctx.Settings.Version(),
		},
		Label:            "skybox",
		VertexShader:     vs,
		FragmentShader:   fs,
		BindGroupLayouts: []*wgpu.BindGroupLayout{p.layout},
		ColorFormats:     []wgpu.TextureFormat{ctx.Frame.ColorFormat},
		DepthFormat:      ctx.Frame.DepthFormat,
		SampleCount:      ctx.Frame.SampleCount,
		Options: []pipeline.PipelineBuilderOption{
			pipeline.WithDepthTestEnabled(true),
			pipeline.WithDepthWriteEnabled(false),
			pipeline.WithCullMode(wgpu.CullModeNone),
		},
	})
	if err != nil {
		return err
	}
	rp, ok := compiled.Pipeline().(*wgpu.RenderPipeline)
	if !ok || rp == nil {
		return fmt.Errorf("skybox pipeline did not compile to a render pipeline")
	}
	p.renderPipeline = rp

	p.enabled = true
	return nil
}

func (p *skyboxPass) Execute(ctx *graph.ExecuteContext) error {
	if !p.enabled {
		return nil
	}

	pass := ctx.Encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		Label: "skybox pass",
		ColorAttachments: []wgpu.RenderPassColorAttachment{
			{
				View:    ctx.Frame.SceneView,
				LoadOp:  wgpu.LoadOpLoad,
				StoreOp: wgpu.StoreOpStore,
			},
		},
		DepthStencilAttachment: &wgpu.RenderPassDepthStencilAttachment{
			View:         ctx.Frame.DepthView,
			DepthLoadOp:  wgpu.LoadOpLoad,
			DepthStoreOp: wgpu.StoreOpStore,
		},
	})
	pass.SetPipeline(p.renderPipeline)
	pass.SetBindGroup(0, p.bindGroup, nil)
	pass.Draw(3, 1, 0, 0)
	pass.End()
	return nil
}

// ensureStatic creates the layout, sampler, and uniform buffer on first use.
func (p *skyboxPass) ensureStatic(device *wgpu.Device) error {
	if p.layout == nil {
		layout, err := device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
			Label: "skybox layout",
			Entries: []wgpu.BindGroupLayoutEntry{
				{
					Binding:    0,
					Visibility: wgpu.ShaderStageVertex | wgpu.ShaderStageFragment,
					Buffer: wgpu.BufferBindingLayout{
						Type:           wgpu.BufferBindingTypeUniform,
						MinBindingSize: 64,
					},
				},
				{
					Binding:    1,
					Visibility: wgpu.ShaderStageFragment,
					Texture: wgpu.TextureBindingLayout{
						SampleType:    wgpu.TextureSampleTypeFloat,
						ViewDimension: wgpu.TextureViewDimension2D,
					},
				},
				{
					Binding:    2,
					Visibility: wgpu.ShaderStageFragment,
					Sampler: wgpu.SamplerBindingLayout{
						Type: wgpu.SamplerBindingTypeFiltering,
					},
				},
			},
		})
		if err != nil {
			return fmt.Errorf("failed to create skybox layout: %w", err)
		}
		p.layout = layout
	}
	if p.sampler == nil {
		sampler, err := linearSampler(device, "skybox sampler")
		if err != nil {
			return fmt.Errorf("failed to create skybox sampler: %w", err)
		}
		p.sampler = sampler
	}
	if p.uniformBuffer == nil {
		buf, err := device.CreateBuffer(&wgpu.BufferDescriptor{
			Label: "skybox uniform",
			Size:  64,
			Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
		})
		if err != nil {
			return fmt.Errorf("failed to create skybox uniform buffer: %w", err)
		}
		p.uniformBuffer = buf
	}
	return nil
}

// Release frees the pass's GPU resources.
func (p *skyboxPass) Release() {
	if p.bindGroup != nil {
		p.bindGroup.Release()
		p.bindGroup = nil
	}
	if p.uniformBuffer != nil {
		p.uniformBuffer.Release()
		p.uniformBuffer = nil
	}
	if p.sampler != nil {
		p.sampler.Release()
		p.sampler = nil
	}
	if p.layout != nil {
		p.layout.Release()
		p.layout = nil
	}
}
