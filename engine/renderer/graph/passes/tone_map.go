package passes

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/ember-gfx/ember-go/engine/renderer/graph"
	"github.com/ember-gfx/ember-go/engine/renderer/pipeline"
	"github.com/ember-gfx/ember-go/engine/renderer/settings"
	"github.com/ember-gfx/ember-go/engine/renderer/shader"
)

// toneMapPass maps the shaded scene onto the swapchain surface with the
// configured operator. It is the only pass that touches the surface view, so
// everything before it works in the scene color format regardless of what
// the surface negotiated.
type toneMapPass struct {
	layout  *wgpu.BindGroupLayout
	sampler *wgpu.Sampler

	bindGroup *wgpu.BindGroup
	boundView *wgpu.TextureView

	renderPipeline *wgpu.RenderPipeline
	enabled        bool
}

var _ graph.Node = &toneMapPass{}

// NewToneMapPass creates the tone map pass.
//
// Returns:
//   - graph.Node: the tone map pass node
func NewToneMapPass() graph.Node {
	return &toneMapPass{}
}

func (p *toneMapPass) Name() string {
	return "tone_map"
}

func (p *toneMapPass) Stage() graph.RenderStage {
	return graph.StagePostProcess
}

func (p *toneMapPass) Prepare(ctx *graph.PrepareContext) error {
	p.enabled = false
	if ctx.Frame == nil || ctx.Frame.SurfaceView == nil {
		return nil
	}
	sceneView := ctx.Frame.SceneResolveView
	if sceneView == nil {
		sceneView = ctx.Frame.SceneView
	}
	if sceneView == nil {
		return nil
	}

	if err := p.ensureStatic(ctx.Device); err != nil {
		return err
	}

	if sceneView != p.boundView || p.bindGroup == nil {
		if p.bindGroup != nil {
			p.bindGroup.Release()
		}
		bg, err := ctx.Device.CreateBindGroup(&wgpu.BindGroupDescriptor{
			Label:  "tone map",
			Layout: p.layout,
			Entries: []wgpu.BindGroupEntry{
				{Binding: 0, TextureView: sceneView},
				{Binding: 1, Sampler: p.sampler},
			},
		})
		if err != nil {
			return fmt.Errorf("failed to create tone map bind group: %w", err)
		}
		p.bindGroup = bg
		p.boundView = sceneView
	}

	mode := ctx.Settings.ToneMap
	if !ctx.Settings.HDR {
		// The scene is already in display range; pass values through.
		mode = settings.ToneMapNone
	}
	var defines []string
	switch mode {
	case settings.ToneMapACES:
		defines = []string{"TONEMAP_ACES"}
	case settings.ToneMapReinhard:
		defines = []string{"TONEMAP_REINHARD"}
	}

	vs, err := expandShader(ctx.Shaders, shader.TemplateToneMap, nil, shader.ShaderTypeVertex, "vs_main")
	if err != nil {
		return err
	}
	fs, err := expandShader(ctx.Shaders, shader.TemplateToneMap, defines, shader.ShaderTypeFragment, "fs_main")
	if err != nil {
		return err
	}

	compiled, _, err := ctx.Pipelines.Resolve(&pipeline.Request{
		FastKey: pipeline.FastKey{
			MaterialID:      passMaterialID("tone_map"),
			MaterialVersion: uint64(mode)<<32 | uint64(ctx.Frame.SurfaceFormat),
			Variant:         pipeline.VariantMain,
			SettingsVersion: ctx.Settings.Version(),
		},
		Label:            "tone map",
		VertexShader:     vs,
		FragmentShader:   fs,
		BindGroupLayouts: []*wgpu.BindGroupLayout{p.layout},
		ColorFormats:     []wgpu.TextureFormat{ctx.Frame.SurfaceFormat},
		SampleCount:      1,
		Options: []pipeline.PipelineBuilderOption{
			pipeline.WithDepthTestEnabled(false),
			pipeline.WithDepthWriteEnabled(false),
			pipeline.WithCullMode(wgpu.CullModeNone),
		},
	})
	if err != nil {
		return err
	}
	rp, ok := compiled.Pipeline().(*wgpu.RenderPipeline)
	if !ok || rp == nil {
		return fmt.Errorf("tone map pipeline did not compile to a render pipeline")
	}
	p.renderPipeline = rp

	p.enabled = true
	return nil
}

func (p *toneMapPass) Execute(ctx *graph.ExecuteContext) error {
	if !p.enabled {
		return nil
	}

	pass := ctx.Encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		Label: "tone map pass",
		ColorAttachments: []wgpu.RenderPassColorAttachment{
			{
				View:    ctx.Frame.SurfaceView,
				LoadOp:  wgpu.LoadOpClear,
				StoreOp: wgpu.StoreOpStore,
			},
		},
	})
	pass.SetPipeline(p.renderPipeline)
	pass.SetBindGroup(0, p.bindGroup, nil)
	pass.Draw(3, 1, 0, 0)
	pass.End()
	return nil
}

// ensureStatic creates the layout and sampler on first use.
func (p *toneMapPass) ensureStatic(device *wgpu.Device) error {
	if p.layout == nil {
		layout, err := device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
			Label: "tone map layout",
			Entries: []wgpu.BindGroupLayoutEntry{
				{
					Binding:    0,
					Visibility: wgpu.ShaderStageFragment,
					Texture: wgpu.TextureBindingLayout{
						SampleType:    wgpu.TextureSampleTypeFloat,
						ViewDimension: wgpu.TextureViewDimension2D,
					},
				},
				{
					Binding:    1,
					Visibility: wgpu.ShaderStageFragment,
					Sampler: wgpu.SamplerBindingLayout{
						Type: wgpu.SamplerBindingTypeFiltering,
					},
				},
			},
		})
		if err != nil {
			return fmt.Errorf("failed to create tone map layout: %w", err)
		}
		p.layout = layout
	}
	if p.sampler == nil {
		sampler, err := linearSampler(device, "tone map sampler")
		if err != nil {
			return fmt.Errorf("failed to create tone map sampler: %w", err)
		}
		p.sampler = sampler
	}
	return nil
}

// Release frees the pass's GPU resources.
func (p *toneMapPass) Release() {
	if p.bindGroup != nil {
		p.bindGroup.Release()
		p.bindGroup = nil
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
