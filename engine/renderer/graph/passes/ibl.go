package passes

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/google/uuid"

	"github.com/ember-gfx/ember-go/common"
	"github.com/ember-gfx/ember-go/engine/renderer/graph"
	"github.com/ember-gfx/ember-go/engine/renderer/shader"
)

// brdfLUTSize is the square resolution of the integrated BRDF lookup table.
const brdfLUTSize = 512

// Prefiltered environment dimensions. Equirectangular, halved per mip with
// one mip per roughness step.
const (
	prefilterWidth  = 512
	prefilterHeight = 256
	prefilterMips   = 5
)

// brdfLUTNode integrates the split-sum BRDF lookup table once. The result
// never changes, so after the first frame the node is a no-op; the renderer
// binds its view into the frame globals for the shading passes.
type brdfLUTNode struct {
	texture *wgpu.Texture
	view    *wgpu.TextureView

	layout    *wgpu.BindGroupLayout
	bindGroup *wgpu.BindGroup

	computePipeline *wgpu.ComputePipeline
	done            bool
	dispatch        bool
}

var _ graph.Node = &brdfLUTNode{}
var _ PrecomputeOutput = &brdfLUTNode{}

// NewBRDFLUTNode creates the BRDF lookup table precompute node.
//
// Returns:
//   - graph.Node: the precompute node
func NewBRDFLUTNode() graph.Node {
	return &brdfLUTNode{}
}

// PrecomputeOutput is implemented by precompute nodes that render into a
// persistent texture other parts of the frame bind. View is nil until the
// node's first prepare has created the texture.
type PrecomputeOutput interface {
	View() *wgpu.TextureView
}

func (n *brdfLUTNode) Name() string {
	return "brdf_lut"
}

func (n *brdfLUTNode) View() *wgpu.TextureView {
	return n.view
}

func (n *brdfLUTNode) Stage() graph.RenderStage {
	return graph.StagePreProcess
}

func (n *brdfLUTNode) Prepare(ctx *graph.PrepareContext) error {
	n.dispatch = false
	if n.done {
		return nil
	}

	if n.texture == nil {
		texture, err := ctx.Device.CreateTexture(&wgpu.TextureDescriptor{
			Label:     "brdf lut",
			Usage:     wgpu.TextureUsageStorageBinding | wgpu.TextureUsageTextureBinding,
			Dimension: wgpu.TextureDimension2D,
			Size: wgpu.Extent3D{
				Width:              brdfLUTSize,
				Height:             brdfLUTSize,
				DepthOrArrayLayers: 1,
			},
			Format:        wgpu.TextureFormatRGBA16Float,
			MipLevelCount: 1,
			SampleCount:   1,
		})
		if err != nil {
			return fmt.Errorf("failed to create brdf lut texture: %w", err)
		}
		view, err := texture.CreateView(nil)
		if err != nil {
			texture.Release()
			return fmt.Errorf("failed to create brdf lut view: %w", err)
		}
		n.texture = texture
		n.view = view
	}

	if n.layout == nil {
		layout, err := ctx.Device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
			Label: "brdf lut layout",
			Entries: []wgpu.BindGroupLayoutEntry{
				{
					Binding:    0,
					Visibility: wgpu.ShaderStageCompute,
					StorageTexture: wgpu.StorageTextureBindingLayout{
						Access:        wgpu.StorageTextureAccessWriteOnly,
						Format:        wgpu.TextureFormatRGBA16Float,
						ViewDimension: wgpu.TextureViewDimension2D,
					},
				},
			},
		})
		if err != nil {
			return fmt.Errorf("failed to create brdf lut layout: %w", err)
		}
		n.layout = layout
	}

	if n.bindGroup == nil {
		bg, err := ctx.Device.CreateBindGroup(&wgpu.BindGroupDescriptor{
			Label:  "brdf lut",
			Layout: n.layout,
			Entries: []wgpu.BindGroupEntry{
				{Binding: 0, TextureView: n.view},
			},
		})
		if err != nil {
			return fmt.Errorf("failed to create brdf lut bind group: %w", err)
		}
		n.bindGroup = bg
	}

	cs, err := expandShader(ctx.Shaders, shader.TemplateBRDFLUT, nil, shader.ShaderTypeCompute, "cs_main")
	if err != nil {
		return err
	}
	compiled, _, err := ctx.Pipelines.ResolveCompute("brdf lut", cs, []*wgpu.BindGroupLayout{n.layout})
	if err != nil {
		return err
	}
	cp, ok := compiled.Pipeline().(*wgpu.ComputePipeline)
	if !ok || cp == nil {
		return fmt.Errorf("brdf lut pipeline did not compile to a compute pipeline")
	}
	n.computePipeline = cp

	n.dispatch = true
	return nil
}

func (n *brdfLUTNode) Execute(ctx *graph.ExecuteContext) error {
	if !n.dispatch {
		return nil
	}

	pass := ctx.Encoder.BeginComputePass(nil)
	pass.SetPipeline(n.computePipeline)
	pass.SetBindGroup(0, n.bindGroup, nil)
	pass.DispatchWorkgroups(brdfLUTSize/8, brdfLUTSize/8, 1)
	pass.End()

	n.done = true
	n.dispatch = false
	return nil
}

// Release frees the node's GPU resources.
func (n *brdfLUTNode) Release() {
	if n.bindGroup != nil {
		n.bindGroup.Release()
		n.bindGroup = nil
	}
	if n.layout != nil {
		n.layout.Release()
		n.layout = nil
	}
	if n.view != nil {
		n.view.Release()
		n.view = nil
	}
	if n.texture != nil {
		n.texture.Release()
		n.texture = nil
	}
}

// prefilterParams mirrors the compute shader's uniform block.
type prefilterParams struct {
	Roughness float32
	SrcWidth  uint32
	SrcHeight uint32
	_         uint32
}

// iblPrefilterNode convolves the scene's equirectangular environment into a
// mipped specular radiance map, one roughness step per mip. It binds the
// environment image the scene actually carries as its source and reruns
// whenever that image's identity or contents change.
type iblPrefilterNode struct {
	texture  *wgpu.Texture
	fullView *wgpu.TextureView
	mipViews []*wgpu.TextureView

	layout        *wgpu.BindGroupLayout
	sampler       *wgpu.Sampler
	paramBuffers  []*wgpu.Buffer
	mipBindGroups []*wgpu.BindGroup

	computePipeline *wgpu.ComputePipeline

	sourceID      uuid.UUID
	sourceVersion uint64
	done          bool
	dispatch      bool
}

var _ graph.Node = &iblPrefilterNode{}
var _ PrecomputeOutput = &iblPrefilterNode{}

// NewIBLPrefilterNode creates the environment prefilter precompute node.
//
// Returns:
//   - graph.Node: the precompute node
func NewIBLPrefilterNode() graph.Node {
	return &iblPrefilterNode{}
}

func (n *iblPrefilterNode) Name() string {
	return "ibl_prefilter"
}

func (n *iblPrefilterNode) View() *wgpu.TextureView {
	return n.fullView
}

func (n *iblPrefilterNode) Stage() graph.RenderStage {
	return graph.StagePreProcess
}

func (n *iblPrefilterNode) Prepare(ctx *graph.PrepareContext) error {
	n.dispatch = false
	if ctx.Environment == nil {
		return nil
	}
	if _, err := ctx.Resources.EnsureTexture(ctx.Environment); err != nil {
		return nil
	}

	envID := ctx.Environment.ID()
	envVersion := ctx.Environment.Version()
	if n.done && envID == n.sourceID && envVersion == n.sourceVersion {
		return nil
	}

	if err := n.ensureStatic(ctx.Device); err != nil {
		return err
	}

	// Rebuild the per-mip bind groups against the current environment view.
	srcView := ctx.Resources.TextureView(envID)
	srcWidth, srcHeight, _, _ := ctx.Environment.Descriptor()
	for _, bg := range n.mipBindGroups {
		bg.Release()
	}
	n.mipBindGroups = n.mipBindGroups[:0]
	for mip := 0; mip < prefilterMips; mip++ {
		params := prefilterParams{
			Roughness: float32(mip) / float32(prefilterMips-1),
			SrcWidth:  srcWidth,
			SrcHeight: srcHeight,
		}
		ctx.Queue.WriteBuffer(n.paramBuffers[mip], 0, common.StructToBytes(&params))

		bg, err := ctx.Device.CreateBindGroup(&wgpu.BindGroupDescriptor{
			Label:  fmt.Sprintf("ibl prefilter mip %d", mip),
			Layout: n.layout,
			Entries: []wgpu.BindGroupEntry{
				{Binding: 0, TextureView: srcView},
				{Binding: 1, Sampler: n.sampler},
				{Binding: 2, TextureView: n.mipViews[mip]},
				{Binding: 3, Buffer: n.paramBuffers[mip], Size: 16},
			},
		})
		if err != nil {
			return fmt.Errorf("failed to create ibl prefilter bind group %d: %w", mip, err)
		}
		n.mipBindGroups = append(n.mipBindGroups, bg)
	}

	cs, err := expandShader(ctx.Shaders, shader.TemplateIBLPrefilter, nil, shader.ShaderTypeCompute, "cs_main")
	if err != nil {
		return err
	}
	compiled, _, err := ctx.Pipelines.ResolveCompute("ibl prefilter", cs, []*wgpu.BindGroupLayout{n.layout})
	if err != nil {
		return err
	}
	cp, ok := compiled.Pipeline().(*wgpu.ComputePipeline)
	if !ok || cp == nil {
		return fmt.Errorf("ibl prefilter pipeline did not compile to a compute pipeline")
	}
	n.computePipeline = cp

	n.sourceID = envID
	n.sourceVersion = envVersion
	n.dispatch = true
	return nil
}

func (n *iblPrefilterNode) Execute(ctx *graph.ExecuteContext) error {
	if !n.dispatch {
		return nil
	}

	pass := ctx.Encoder.BeginComputePass(nil)
	pass.SetPipeline(n.computePipeline)
	for mip := 0; mip < prefilterMips; mip++ {
		width := uint32(prefilterWidth) >> mip
		height := uint32(prefilterHeight) >> mip
		pass.SetBindGroup(0, n.mipBindGroups[mip], nil)
		pass.DispatchWorkgroups((width+7)/8, (height+7)/8, 1)
	}
	pass.End()

	n.done = true
	n.dispatch = false
	return nil
}

// ensureStatic creates the destination texture, layout, sampler, and param
// buffers on first use.
func (n *iblPrefilterNode) ensureStatic(device *wgpu.Device) error {
	if n.texture == nil {
		texture, err := device.CreateTexture(&wgpu.TextureDescriptor{
			Label:     "prefiltered env",
			Usage:     wgpu.TextureUsageStorageBinding | wgpu.TextureUsageTextureBinding,
			Dimension: wgpu.TextureDimension2D,
			Size: wgpu.Extent3D{
				Width:              prefilterWidth,
				Height:             prefilterHeight,
				DepthOrArrayLayers: 1,
			},
			Format:        wgpu.TextureFormatRGBA16Float,
			MipLevelCount: prefilterMips,
			SampleCount:   1,
		})
		if err != nil {
			return fmt.Errorf("failed to create prefiltered env texture: %w", err)
		}
		n.texture = texture

		fullView, err := texture.CreateView(nil)
		if err != nil {
			return fmt.Errorf("failed to create prefiltered env view: %w", err)
		}
		n.fullView = fullView

		for mip := 0; mip < prefilterMips; mip++ {
			view, err := texture.CreateView(&wgpu.TextureViewDescriptor{
				Label:           fmt.Sprintf("prefiltered env mip %d", mip),
				Format:          wgpu.TextureFormatRGBA16Float,
				Dimension:       wgpu.TextureViewDimension2D,
				BaseMipLevel:    uint32(mip),
				MipLevelCount:   1,
				BaseArrayLayer:  0,
				ArrayLayerCount: 1,
				Aspect:          wgpu.TextureAspectAll,
			})
			if err != nil {
				return fmt.Errorf("failed to create prefiltered env mip view %d: %w", mip, err)
			}
			n.mipViews = append(n.mipViews, view)
		}
	}

	if n.layout == nil {
		layout, err := device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
			Label: "ibl prefilter layout",
			Entries: []wgpu.BindGroupLayoutEntry{
				{
					Binding:    0,
					Visibility: wgpu.ShaderStageCompute,
					Texture: wgpu.TextureBindingLayout{
						SampleType:    wgpu.TextureSampleTypeFloat,
						ViewDimension: wgpu.TextureViewDimension2D,
					},
				},
				{
					Binding:    1,
					Visibility: wgpu.ShaderStageCompute,
					Sampler: wgpu.SamplerBindingLayout{
						Type: wgpu.SamplerBindingTypeFiltering,
					},
				},
				{
					Binding:    2,
					Visibility: wgpu.ShaderStageCompute,
					StorageTexture: wgpu.StorageTextureBindingLayout{
						Access:        wgpu.StorageTextureAccessWriteOnly,
						Format:        wgpu.TextureFormatRGBA16Float,
						ViewDimension: wgpu.TextureViewDimension2D,
					},
				},
				{
					Binding:    3,
					Visibility: wgpu.ShaderStageCompute,
					Buffer: wgpu.BufferBindingLayout{
						Type:           wgpu.BufferBindingTypeUniform,
						MinBindingSize: 16,
					},
				},
			},
		})
		if err != nil {
			return fmt.Errorf("failed to create ibl prefilter layout: %w", err)
		}
		n.layout = layout
	}

	if n.sampler == nil {
		sampler, err := linearSampler(device, "ibl prefilter sampler")
		if err != nil {
			return fmt.Errorf("failed to create ibl prefilter sampler: %w", err)
		}
		n.sampler = sampler
	}

	if n.paramBuffers == nil {
		for mip := 0; mip < prefilterMips; mip++ {
			buf, err := device.CreateBuffer(&wgpu.BufferDescriptor{
				Label: fmt.Sprintf("ibl prefilter params %d", mip),
				Size:  16,
				Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
			})
			if err != nil {
				return fmt.Errorf("failed to create ibl prefilter params buffer %d: %w", mip, err)
			}
			n.paramBuffers = append(n.paramBuffers, buf)
		}
	}

	return nil
}

// Release frees the node's GPU resources.
func (n *iblPrefilterNode) Release() {
	for _, bg := range n.mipBindGroups {
		bg.Release()
	}
	n.mipBindGroups = nil
	for _, buf := range n.paramBuffers {
		buf.Release()
	}
	n.paramBuffers = nil
	if n.sampler != nil {
		n.sampler.Release()
		n.sampler = nil
	}
	if n.layout != nil {
		n.layout.Release()
		n.layout = nil
	}
	for _, view := range n.mipViews {
		view.Release()
	}
	n.mipViews = nil
	if n.fullView != nil {
		n.fullView.Release()
		n.fullView = nil
	}
	if n.texture != nil {
		n.texture.Release()
		n.texture = nil
	}
}
