package pipeline

import (
	"fmt"
	"hash/fnv"

	"github.com/charmbracelet/log"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/google/uuid"

	"github.com/ember-gfx/ember-go/engine/renderer/shader"
)

// PassVariant distinguishes compiled variants of the same material for
// different pass families.
type PassVariant uint8

const (
	// VariantMain is the forward-shaded variant drawn in the opaque and
	// transparent passes.
	VariantMain PassVariant = iota
	// VariantShadow is the depth-only variant drawn into shadow maps.
	VariantShadow
)

// FastKey is the first-tier cache key. It is built from values callers
// already hold, so a hit costs one map lookup with no string or shader work.
// Any material or geometry edit bumps a version and naturally misses, and any
// pipeline-affecting settings change bumps SettingsVersion; no manual
// invalidation pass exists.
type FastKey struct {
	MaterialID      uuid.UUID
	MaterialVersion uint64
	GeometryID      uuid.UUID
	GeometryVersion uint64
	Topology        wgpu.PrimitiveTopology
	Variant         PassVariant
	SettingsVersion uint64
}

// Request carries everything needed to build (or identify) one render
// pipeline. The canonical tier hashes the structural fields so two materials
// requesting semantically identical pipelines share one compiled object.
type Request struct {
	// FastKey is the first-tier lookup key for this request.
	FastKey FastKey

	// Label is the debug label for the compiled pipeline.
	Label string

	// VertexShader and FragmentShader are the expanded shader stages.
	// FragmentShader may be nil for depth-only variants.
	VertexShader   shader.Shader
	FragmentShader shader.Shader

	// BindGroupLayouts are the pipeline layout inputs, in group order.
	BindGroupLayouts []*wgpu.BindGroupLayout

	// VertexBuffers describe the vertex fetch layout.
	VertexBuffers []wgpu.VertexBufferLayout

	// ColorFormats are the render target formats, empty for depth-only.
	ColorFormats []wgpu.TextureFormat

	// DepthFormat is the depth attachment format, or undefined for none.
	DepthFormat wgpu.TextureFormat

	// SampleCount is the MSAA sample count of the targets.
	SampleCount uint32

	// Options configure the render state of the pipeline object.
	Options []PipelineBuilderOption
}

// canonicalKey hashes the structural pipeline state of a request: shader code
// hashes, render state, and target formats. Fast-key fields that do not affect
// the compiled object (material identity, versions) are deliberately excluded.
func canonicalKey(req *Request, p Pipeline) uint64 {
	h := fnv.New64a()
	put := func(v uint64) {
		var buf [8]byte
		for i := 0; i < 8; i++ {
			buf[i] = byte(v >> (8 * i))
		}
		h.Write(buf[:])
	}

	put(req.VertexShader.CodeHash())
	if req.FragmentShader != nil {
		put(req.FragmentShader.CodeHash())
	} else {
		put(0)
	}
	put(uint64(p.Topology()))
	put(uint64(p.CullMode()))
	put(uint64(p.FrontFace()))
	put(uint64(req.DepthFormat))
	put(uint64(req.SampleCount))

	var flags uint64
	if p.DepthTestEnabled() {
		flags |= 1
	}
	if p.DepthWriteEnabled() {
		flags |= 2
	}
	if p.BlendEnabled() {
		flags |= 4
	}
	put(flags)
	put(uint64(uint32(p.DepthBias())))
	put(uint64(p.WriteMask()))
	if p.BlendEnabled() && p.BlendState() != nil {
		bs := p.BlendState()
		put(uint64(bs.Color.SrcFactor)<<32 | uint64(bs.Color.DstFactor)<<16 | uint64(bs.Color.Operation))
		put(uint64(bs.Alpha.SrcFactor)<<32 | uint64(bs.Alpha.DstFactor)<<16 | uint64(bs.Alpha.Operation))
	}
	for _, format := range req.ColorFormats {
		put(uint64(format))
	}
	for _, layout := range req.VertexBuffers {
		put(uint64(layout.ArrayStride))
		put(uint64(layout.StepMode))
		for _, attr := range layout.Attributes {
			put(uint64(attr.Format)<<32 | uint64(attr.ShaderLocation))
			put(attr.Offset)
		}
	}
	return h.Sum64()
}

// cacheEntry pairs a compiled pipeline with its small numeric id used in
// sort keys.
type cacheEntry struct {
	pipeline Pipeline
	id       uint32
}

// compileFunc builds the GPU pipeline for a request. Swappable so the cache's
// lookup and dedupe behavior is testable without a device.
type compileFunc func(req *Request, p Pipeline) error

// pipelineCache is the implementation of the Cache interface.
type pipelineCache struct {
	device   *wgpu.Device
	registry shader.Registry
	logger   *log.Logger

	fast      map[FastKey]*cacheEntry
	canonical map[uint64]*cacheEntry
	compute   map[uint64]*cacheEntry
	nextID    uint32

	compile        compileFunc
	compileCompute compileFunc
}

// Cache is the two-tier pipeline cache. Callers re-resolve through the fast
// key every frame instead of holding pipeline objects across frames; a stale
// fast entry simply stops being hit once its versions move on, and Release
// frees every compiled pipeline when the cache is torn down.
type Cache interface {
	// Resolve returns the pipeline for a request, compiling at most once per
	// canonical state. The returned id is stable for the lifetime of the
	// compiled pipeline and fits the sort-key pipeline field.
	//
	// Parameters:
	//   - req: the pipeline request
	//
	// Returns:
	//   - Pipeline: the compiled pipeline
	//   - uint32: the pipeline id for sort keys
	//   - error: shader or pipeline compilation failure
	Resolve(req *Request) (Pipeline, uint32, error)

	// ResolveCompute returns the compute pipeline for an expanded compute
	// shader, keyed by its code hash.
	//
	// Parameters:
	//   - label: debug label for the pipeline
	//   - cs: the expanded compute shader
	//   - layouts: bind group layouts in group order
	//
	// Returns:
	//   - Pipeline: the compiled compute pipeline
	//   - uint32: the pipeline id
	//   - error: compilation failure
	ResolveCompute(label string, cs shader.Shader, layouts []*wgpu.BindGroupLayout) (Pipeline, uint32, error)

	// Stats reports the entry counts of both tiers, for diagnostics.
	//
	// Returns:
	//   - int: fast-tier entry count
	//   - int: canonical-tier entry count
	Stats() (int, int)

	// Release frees every compiled pipeline.
	Release()
}

var _ Cache = &pipelineCache{}

// NewCache creates a pipeline cache bound to a device and shader registry.
//
// Parameters:
//   - device: the WebGPU device used for compilation
//   - registry: the shader registry providing compiled modules
//   - opts: a variadic list of CacheOption functions
//
// Returns:
//   - Cache: a new Cache instance
func NewCache(device *wgpu.Device, registry shader.Registry, opts ...CacheOption) Cache {
	c := &pipelineCache{
		device:    device,
		registry:  registry,
		logger:    log.WithPrefix("pipeline"),
		fast:      make(map[FastKey]*cacheEntry),
		canonical: make(map[uint64]*cacheEntry),
		compute:   make(map[uint64]*cacheEntry),
	}
	c.compile = c.compileRender
	c.compileCompute = c.compileComputePipeline
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *pipelineCache) Resolve(req *Request) (Pipeline, uint32, error) {
	if entry, ok := c.fast[req.FastKey]; ok {
		return entry.pipeline, entry.id, nil
	}

	p := NewPipeline(req.Label, PipelineTypeRender, req.Options...)
	key := canonicalKey(req, p)
	if entry, ok := c.canonical[key]; ok {
		// Same structural state requested through a different material
		// instance; alias the fast key to the existing compiled object.
		c.fast[req.FastKey] = entry
		return entry.pipeline, entry.id, nil
	}

	if err := c.compile(req, p); err != nil {
		return nil, 0, err
	}

	entry := &cacheEntry{pipeline: p, id: c.allocID()}
	c.fast[req.FastKey] = entry
	c.canonical[key] = entry
	c.logger.Debug("compiled pipeline", "label", req.Label, "id", entry.id)
	return entry.pipeline, entry.id, nil
}

func (c *pipelineCache) ResolveCompute(label string, cs shader.Shader, layouts []*wgpu.BindGroupLayout) (Pipeline, uint32, error) {
	if entry, ok := c.compute[cs.CodeHash()]; ok {
		return entry.pipeline, entry.id, nil
	}

	p := NewPipeline(label, PipelineTypeCompute, WithComputeShader(cs))
	req := &Request{Label: label, BindGroupLayouts: layouts}
	if err := c.compileCompute(req, p); err != nil {
		return nil, 0, err
	}

	entry := &cacheEntry{pipeline: p, id: c.allocID()}
	c.compute[cs.CodeHash()] = entry
	return entry.pipeline, entry.id, nil
}

func (c *pipelineCache) Stats() (int, int) {
	return len(c.fast), len(c.canonical)
}

func (c *pipelineCache) Release() {
	released := make(map[*cacheEntry]bool)
	for key, entry := range c.canonical {
		c.releaseEntry(entry, released)
		delete(c.canonical, key)
	}
	for key, entry := range c.compute {
		c.releaseEntry(entry, released)
		delete(c.compute, key)
	}
	c.fast = make(map[FastKey]*cacheEntry)
}

func (c *pipelineCache) releaseEntry(entry *cacheEntry, released map[*cacheEntry]bool) {
	if released[entry] {
		return
	}
	released[entry] = true
	switch obj := entry.pipeline.Pipeline().(type) {
	case *wgpu.RenderPipeline:
		if obj != nil {
			obj.Release()
		}
	case *wgpu.ComputePipeline:
		if obj != nil {
			obj.Release()
		}
	}
}

// allocID hands out pipeline ids. Ids feed the 14-bit sort-key field, so they
// wrap there; wrapping only weakens sort locality, never correctness.
func (c *pipelineCache) allocID() uint32 {
	c.nextID++
	return c.nextID
}

// compileRender compiles the render pipeline for a request and stores it on p.
func (c *pipelineCache) compileRender(req *Request, p Pipeline) error {
	vsModule, err := c.registry.ModuleFor(c.device, req.VertexShader)
	if err != nil {
		return err
	}

	layout, err := c.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            req.Label + " layout",
		BindGroupLayouts: req.BindGroupLayouts,
	})
	if err != nil {
		return fmt.Errorf("failed to create pipeline layout %s: %w", req.Label, err)
	}
	defer layout.Release()

	descriptor := &wgpu.RenderPipelineDescriptor{
		Label:  req.Label,
		Layout: layout,
		Vertex: wgpu.VertexState{
			Module:     vsModule,
			EntryPoint: req.VertexShader.EntryPoint(),
			Buffers:    req.VertexBuffers,
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  p.Topology(),
			FrontFace: p.FrontFace(),
			CullMode:  p.CullMode(),
		},
		Multisample: wgpu.MultisampleState{
			Count:                  req.SampleCount,
			Mask:                   0xFFFFFFFF,
			AlphaToCoverageEnabled: false,
		},
	}

	if req.DepthFormat != wgpu.TextureFormatUndefined {
		depthCompare := wgpu.CompareFunctionAlways
		if p.DepthTestEnabled() {
			depthCompare = wgpu.CompareFunctionLessEqual
		}
		descriptor.DepthStencil = &wgpu.DepthStencilState{
			Format:              req.DepthFormat,
			DepthWriteEnabled:   p.DepthWriteEnabled(),
			DepthCompare:        depthCompare,
			DepthBias:           p.DepthBias(),
			DepthBiasSlopeScale: p.DepthBiasSlopeScale(),
			StencilFront:        wgpu.StencilFaceState{Compare: wgpu.CompareFunctionAlways},
			StencilBack:         wgpu.StencilFaceState{Compare: wgpu.CompareFunctionAlways},
			StencilReadMask:     0xFFFFFFFF,
			StencilWriteMask:    0xFFFFFFFF,
		}
	}

	if req.FragmentShader != nil {
		fsModule, err := c.registry.ModuleFor(c.device, req.FragmentShader)
		if err != nil {
			return err
		}
		targets := make([]wgpu.ColorTargetState, len(req.ColorFormats))
		for i, format := range req.ColorFormats {
			target := wgpu.ColorTargetState{
				Format:    format,
				WriteMask: p.WriteMask(),
			}
			if p.BlendEnabled() {
				target.Blend = p.BlendState()
			}
			targets[i] = target
		}
		descriptor.Fragment = &wgpu.FragmentState{
			Module:     fsModule,
			EntryPoint: req.FragmentShader.EntryPoint(),
			Targets:    targets,
		}
	}

	rp, err := c.device.CreateRenderPipeline(descriptor)
	if err != nil {
		return fmt.Errorf("failed to create render pipeline %s: %w", req.Label, err)
	}
	p.SetRenderPipeline(rp)
	return nil
}

// compileComputePipeline compiles the compute pipeline for p's compute shader.
func (c *pipelineCache) compileComputePipeline(req *Request, p Pipeline) error {
	cs := p.Shader(shader.ShaderTypeCompute)
	module, err := c.registry.ModuleFor(c.device, cs)
	if err != nil {
		return err
	}

	layout, err := c.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            req.Label + " layout",
		BindGroupLayouts: req.BindGroupLayouts,
	})
	if err != nil {
		return fmt.Errorf("failed to create compute layout %s: %w", req.Label, err)
	}
	defer layout.Release()

	cp, err := c.device.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
		Label:  req.Label,
		Layout: layout,
		Compute: wgpu.ProgrammableStageDescriptor{
			Module:     module,
			EntryPoint: cs.EntryPoint(),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create compute pipeline %s: %w", req.Label, err)
	}
	p.SetComputePipeline(cp)
	return nil
}
