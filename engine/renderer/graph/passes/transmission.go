package passes

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/ember-gfx/ember-go/engine/renderer/graph"
	"github.com/ember-gfx/ember-go/engine/renderer/pipeline"
	"github.com/ember-gfx/ember-go/engine/renderer/shader"
)

// maxSceneCopyMips caps the mip chain of the scene color copy; transmission
// roughness never needs more blur levels than this.
const maxSceneCopyMips = 8

// transmissionCopyPass captures the shaded opaque scene into a mipped
// transient texture between the skybox and transparent stages. Transparent
// draws with transmissive materials sample it, reading rougher refraction
// from higher mips. The pass skips itself entirely on frames where no
// surviving transparent draw uses transmission.
type transmissionCopyPass struct {
	// sceneColorLayout is the group layout transmissive material pipelines
	// bind the copy through. Owned by the renderer, shared with pipeline
	// creation.
	sceneColorLayout *wgpu.BindGroupLayout

	blitLayout *wgpu.BindGroupLayout
	sampler    *wgpu.Sampler

	// Frame-scoped state, rebuilt every Prepare because the transient
	// texture backing it recycles.
	copyID     graph.TransientTextureID
	mipViews   []*wgpu.TextureView
	blitGroups []*wgpu.BindGroup
	sceneGroup *wgpu.BindGroup

	blitPipeline *wgpu.RenderPipeline
	width        uint32
	height       uint32
	mips         uint32
	enabled      bool
}

var _ graph.Node = &transmissionCopyPass{}

// NewTransmissionCopyPass creates the transmission copy pass.
//
// Parameters:
//   - sceneColorLayout: the layout transmissive material pipelines include
//     for the scene color group, a filterable 2D texture plus sampler
//
// Returns:
//   - graph.Node: the transmission copy pass node
func NewTransmissionCopyPass(sceneColorLayout *wgpu.BindGroupLayout) graph.Node {
	return &transmissionCopyPass{sceneColorLayout: sceneColorLayout}
}

func (p *transmissionCopyPass) Name() string {
	return "transmission_copy"
}

func (p *transmissionCopyPass) Stage() graph.RenderStage {
	return graph.StageBeforeTransparent
}

func (p *transmissionCopyPass) Prepare(ctx *graph.PrepareContext) error {
	p.releaseFrameState()
	p.enabled = false

	if !ctx.Lists.UseTransmission || !ctx.Settings.HDR {
		return nil
	}
	if ctx.Frame == nil || ctx.Frame.SceneTexture == nil {
		return nil
	}

	if err := p.ensureStatic(ctx.Device); err != nil {
		return err
	}

	p.width = ctx.Frame.Width
	p.height = ctx.Frame.Height
	p.mips = mipCount(p.width, p.height)

	desc := graph.TransientDescriptor{
		Width:       p.width,
		Height:      p.height,
		Format:      ctx.Frame.ColorFormat,
		Usage:       wgpu.TextureUsageCopyDst | wgpu.TextureUsageTextureBinding | wgpu.TextureUsageRenderAttachment,
		MipCount:    p.mips,
		SampleCount: 1,
	}
	id, err := ctx.Transients.Acquire("scene color copy", desc)
	if err != nil {
		return err
	}
	p.copyID = id
	ctx.Blackboard.Set(SceneColorCopyKey, id)

	texture := ctx.Transients.Texture(id)
	for mip := uint32(0); mip < p.mips; mip++ {
		view, err := texture.CreateView(&wgpu.TextureViewDescriptor{
			Label:           fmt.Sprintf("scene color copy mip %d", mip),
			Format:          desc.Format,
			Dimension:       wgpu.TextureViewDimension2D,
			BaseMipLevel:    mip,
			MipLevelCount:   1,
			BaseArrayLayer:  0,
			ArrayLayerCount: 1,
			Aspect:          wgpu.TextureAspectAll,
		})
		if err != nil {
			return fmt.Errorf("failed to create scene copy mip view %d: %w", mip, err)
		}
		p.mipViews = append(p.mipViews, view)
	}

	for mip := uint32(1); mip < p.mips; mip++ {
		bg, err := ctx.Device.CreateBindGroup(&wgpu.BindGroupDescriptor{
			Label:  fmt.Sprintf("mip blit %d", mip),
			Layout: p.blitLayout,
			Entries: []wgpu.BindGroupEntry{
				{Binding: 0, TextureView: p.mipViews[mip-1]},
				{Binding: 1, Sampler: p.sampler},
			},
		})
		if err != nil {
			return fmt.Errorf("failed to create mip blit bind group %d: %w", mip, err)
		}
		p.blitGroups = append(p.blitGroups, bg)
	}

	sceneGroup, err := ctx.Device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "scene color copy",
		Layout: p.sceneColorLayout,
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, TextureView: ctx.Transients.View(id)},
			{Binding: 1, Sampler: p.sampler},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create scene color bind group: %w", err)
	}
	p.sceneGroup = sceneGroup
	ctx.Blackboard.Set(SceneColorBindGroupKey, sceneGroup)

	vs, err := expandShader(ctx.Shaders, shader.TemplateMipBlit, nil, shader.ShaderTypeVertex, "vs_main")
	if err != nil {
		return err
	}
	fs, err := expandShader(ctx.Shaders, shader.TemplateMipBlit, nil, shader.ShaderTypeFragment, "fs_main")
	if err != nil {
		return err
	}
	compiled, _, err := ctx.Pipelines.Resolve(&pipeline.Request{
		FastKey: pipeline.FastKey{
			MaterialID:      passMaterialID("mip_blit"),
			MaterialVersion: uint64(desc.Format),
			Variant:         pipeline.VariantMain,
			SettingsVersion: ctx.Settings.Version(),
		},
		Label:            "mip blit",
		VertexShader:     vs,
		FragmentShader:   fs,
		BindGroupLayouts: []*wgpu.BindGroupLayout{p.blitLayout},
		ColorFormats:     []wgpu.TextureFormat{desc.Format},
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
		return fmt.Errorf("mip blit pipeline did not compile to a render pipeline")
	}
	p.blitPipeline = rp

	p.enabled = true
	return nil
}

func (p *transmissionCopyPass) Execute(ctx *graph.ExecuteContext) error {
	if !p.enabled {
		return nil
	}

	// With MSAA the opaque and skybox samples are still unresolved at this
	// point, so resolve a snapshot into the single-sample scene texture
	// first. The samples are kept; the transparent pass still blends
	// against them and performs the frame's final resolve.
	if ctx.Frame.SceneResolveView != nil {
		resolve := ctx.Encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
			Label:            "scene color snapshot resolve",
			ColorAttachments: []wgpu.RenderPassColorAttachment{snapshotResolveAttachment(ctx.Frame)},
		})
		resolve.End()
	}

	// Mip 0 is a direct copy of the single-sample scene color.
	ctx.Encoder.CopyTextureToTexture(
		&wgpu.ImageCopyTexture{
			Texture: ctx.Frame.SceneTexture,
			Aspect:  wgpu.TextureAspectAll,
		},
		&wgpu.ImageCopyTexture{
			Texture: ctx.Transients.Texture(p.copyID),
			Aspect:  wgpu.TextureAspectAll,
		},
		&wgpu.Extent3D{
			Width:              p.width,
			Height:             p.height,
			DepthOrArrayLayers: 1,
		},
	)

	for mip := uint32(1); mip < p.mips; mip++ {
		pass := ctx.Encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
			Label: fmt.Sprintf("mip blit pass %d", mip),
			ColorAttachments: []wgpu.RenderPassColorAttachment{
				{
					View:    p.mipViews[mip],
					LoadOp:  wgpu.LoadOpClear,
					StoreOp: wgpu.StoreOpStore,
				},
			},
		})
		pass.SetPipeline(p.blitPipeline)
		pass.SetBindGroup(0, p.blitGroups[mip-1], nil)
		pass.Draw(3, 1, 0, 0)
		pass.End()
	}
	return nil
}

// snapshotResolveAttachment resolves the current multisampled scene into the
// single-sample texture without touching the samples themselves.
func snapshotResolveAttachment(frame *graph.FrameResources) wgpu.RenderPassColorAttachment {
	return wgpu.RenderPassColorAttachment{
		View:          frame.SceneView,
		ResolveTarget: frame.SceneResolveView,
		LoadOp:        wgpu.LoadOpLoad,
		StoreOp:       wgpu.StoreOpStore,
	}
}

// ensureStatic creates the blit layout and sampler on first use.
func (p *transmissionCopyPass) ensureStatic(device *wgpu.Device) error {
	if p.blitLayout == nil {
		layout, err := device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
			Label: "mip blit layout",
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
			return fmt.Errorf("failed to create mip blit layout: %w", err)
		}
		p.blitLayout = layout
	}
	if p.sampler == nil {
		sampler, err := linearSampler(device, "scene copy sampler")
		if err != nil {
			return fmt.Errorf("failed to create scene copy sampler: %w", err)
		}
		p.sampler = sampler
	}
	return nil
}

// releaseFrameState frees the views and bind groups built against last
// frame's transient texture.
func (p *transmissionCopyPass) releaseFrameState() {
	for _, view := range p.mipViews {
		view.Release()
	}
	p.mipViews = p.mipViews[:0]
	for _, bg := range p.blitGroups {
		bg.Release()
	}
	p.blitGroups = p.blitGroups[:0]
	if p.sceneGroup != nil {
		p.sceneGroup.Release()
		p.sceneGroup = nil
	}
}

// Release frees all of the pass's GPU resources. The scene color layout is
// owned by the caller.
func (p *transmissionCopyPass) Release() {
	p.releaseFrameState()
	if p.sampler != nil {
		p.sampler.Release()
		p.sampler = nil
	}
	if p.blitLayout != nil {
		p.blitLayout.Release()
		p.blitLayout = nil
	}
}

// mipCount returns the capped mip chain length for a surface size.
func mipCount(width, height uint32) uint32 {
	size := width
	if height > size {
		size = height
	}
	count := uint32(1)
	for size > 1 && count < maxSceneCopyMips {
		size >>= 1
		count++
	}
	return count
}
