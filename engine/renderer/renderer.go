// package renderer drives one frame end to end: it extracts draw lists from
// the active scene, resolves pipelines and GPU resources for them, composes
// the frame's render graph, and submits the recorded commands. All GPU state
// is owned here or in the sub-packages; the scene stays CPU-only.
package renderer

import (
	"errors"
	"fmt"
	"hash/fnv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/google/uuid"

	"github.com/ember-gfx/ember-go/common"
	"github.com/ember-gfx/ember-go/engine/camera"
	"github.com/ember-gfx/ember-go/engine/light"
	"github.com/ember-gfx/ember-go/engine/mesh"
	"github.com/ember-gfx/ember-go/engine/profiler"
	"github.com/ember-gfx/ember-go/engine/renderer/bind_group_provider"
	"github.com/ember-gfx/ember-go/engine/renderer/dynamic_buffer"
	"github.com/ember-gfx/ember-go/engine/renderer/extract"
	"github.com/ember-gfx/ember-go/engine/renderer/gpu_resource"
	"github.com/ember-gfx/ember-go/engine/renderer/graph"
	"github.com/ember-gfx/ember-go/engine/renderer/graph/passes"
	"github.com/ember-gfx/ember-go/engine/renderer/material"
	"github.com/ember-gfx/ember-go/engine/renderer/pipeline"
	"github.com/ember-gfx/ember-go/engine/renderer/settings"
	"github.com/ember-gfx/ember-go/engine/renderer/shader"
	"github.com/ember-gfx/ember-go/engine/scene"
	"github.com/ember-gfx/ember-go/engine/window"
)

const (
	// cameraUniformSize and shadowDataSize match the WGSL uniform blocks.
	cameraUniformSize = 80
	shadowDataSize    = 80

	// lightBufferSize holds the header plus the full light array.
	lightBufferSize = 16 + light.MaxGPULights*64

	// idleFrames is how long unused pooled GPU objects survive before the
	// end-of-frame trim reclaims them.
	idleFrames = 120
)

// Renderer owns the GPU side of the engine: the backend, the shader registry
// and pipeline cache, the resource and dynamic-uniform managers, and the
// per-frame render graph. One Renderer drives one window.
type Renderer interface {
	// Render draws one frame of the scene. Inactive scenes render nothing.
	//
	// Parameters:
	//   - s: the scene to draw
	//   - dt: elapsed time since the last frame in seconds
	//
	// Returns:
	//   - error: a frame-fatal failure; per-draw problems are logged and
	//     skipped instead
	Render(s scene.Scene, dt float32) error

	// Resize reconfigures the surface and rebuilds the frame targets.
	//
	// Parameters:
	//   - width: the new surface width in pixels
	//   - height: the new surface height in pixels
	//
	// Returns:
	//   - error: target recreation failure
	Resize(width, height int) error

	// Settings returns the live render settings. Mutate then call
	// ApplySettings to take effect.
	//
	// Returns:
	//   - *settings.RenderSettings: the renderer's settings
	Settings() *settings.RenderSettings

	// ApplySettings bumps the settings version and rebuilds everything
	// derived from it: surface configuration, frame targets, and (lazily,
	// through the version key) every cached pipeline.
	//
	// Returns:
	//   - error: target recreation failure
	ApplySettings() error

	// ShaderRegistry exposes the shader registry for template overrides and
	// hot reload directories.
	//
	// Returns:
	//   - shader.Registry: the renderer's shader registry
	ShaderRegistry() shader.Registry

	// Release frees every GPU resource the renderer owns.
	Release()
}

// renderer is the implementation of the Renderer interface.
type renderer struct {
	logger   *log.Logger
	settings *settings.RenderSettings
	win      window.Window
	backend  RendererBackend

	registry   shader.Registry
	pipelines  pipeline.Cache
	resources  gpu_resource.ResourceManager
	objects    dynamic_buffer.Manager
	extractor  extract.Extractor
	transients *graph.TransientPool
	blackboard *graph.Blackboard
	profiler   *profiler.Profiler

	// group 0: camera, lights, shadow data, shadow map, comparison sampler,
	// plus the precomputed IBL textures the PBR shader samples for ambient
	// specular. The IBL slots bind a black fallback until the precompute
	// nodes have run.
	globalLayout     *wgpu.BindGroupLayout
	globalBindGroup  *wgpu.BindGroup
	boundShadowView  *wgpu.TextureView
	boundBRDFView    *wgpu.TextureView
	boundEnvView     *wgpu.TextureView
	cameraBuffer     *wgpu.Buffer
	lightBuffer      *wgpu.Buffer
	shadowDataBuffer *wgpu.Buffer
	shadowSampler    *wgpu.Sampler
	iblSampler       *wgpu.Sampler
	iblFallback      *wgpu.Texture
	iblFallbackView  *wgpu.TextureView

	// brdfLUT and prefilteredEnv expose the textures the precompute nodes
	// render into; both nodes also live in the nodes slice.
	brdfLUT        passes.PrecomputeOutput
	prefilteredEnv passes.PrecomputeOutput

	// group 2: material uniforms and textures, one cached bind group per
	// material validated by fingerprint.
	materialLayout     *wgpu.BindGroupLayout
	materialLayoutHash uint64
	materialSampler    *wgpu.Sampler
	materialGroups     map[uuid.UUID]bind_group_provider.BindGroupProvider
	materialWritten    map[uuid.UUID]uint64
	materialKeys       map[uuid.UUID]uint32

	// shadowLayout is group 0 of depth-only variants; sceneColorLayout is
	// group 3 of transmissive materials. Both are shared with the passes
	// that bind them.
	shadowLayout     *wgpu.BindGroupLayout
	sceneColorLayout *wgpu.BindGroupLayout

	// nodes are the persistent pass nodes, re-added to a fresh graph each
	// frame. Cross-frame GPU state lives on the nodes themselves.
	nodes []graph.Node

	// meshes and materials are the frame's handle lookups, rebuilt from the
	// scene each Render so the extractor's resolve callback never touches
	// scene objects directly.
	meshes    map[uuid.UUID]mesh.Mesh
	materials map[uuid.UUID]material.Material

	preProcessor shader.PreProcessor

	overlay passes.OverlayDrawFunc

	shaderDir string
	frame     uint64
	width     int
	height    int
}

var _ Renderer = &renderer{}

// NewRenderer creates a renderer against a window: it brings up the GPU
// backend, registers the built-in shader set, and builds the shared bind
// group layouts and pass nodes.
//
// Parameters:
//   - win: the window to render into
//   - opts: a variadic list of RendererOption functions
//
// Returns:
//   - Renderer: the initialized renderer
//   - error: backend or GPU object creation failure
func NewRenderer(win window.Window, opts ...RendererOption) (Renderer, error) {
	if win == nil {
		return nil, errors.New("renderer requires a window")
	}

	r := &renderer{
		logger:          log.WithPrefix("renderer"),
		settings:        settings.DefaultRenderSettings(),
		win:             win,
		materialGroups:  make(map[uuid.UUID]bind_group_provider.BindGroupProvider),
		materialWritten: make(map[uuid.UUID]uint64),
		materialKeys:    make(map[uuid.UUID]uint32),
		meshes:          make(map[uuid.UUID]mesh.Mesh),
		materials:       make(map[uuid.UUID]material.Material),
		preProcessor:    shader.NewPreProcessor(),
		profiler:        profiler.NewProfiler(),
		width:           win.Width(),
		height:          win.Height(),
	}
	for _, opt := range opts {
		opt(r)
	}

	backend, err := newWGPURendererBackend(win, r.settings, r.logger)
	if err != nil {
		return nil, err
	}
	r.backend = backend
	device := backend.Device()
	queue := backend.Queue()

	r.registry = shader.NewRegistry(shader.WithLogger(r.logger))
	shader.RegisterBuiltins(r.registry)
	if r.shaderDir != "" {
		if err := r.registry.LoadDir(r.shaderDir); err != nil {
			r.Release()
			return nil, err
		}
		if err := r.registry.Watch(r.shaderDir); err != nil {
			r.logger.Warn("shader hot reload unavailable", "dir", r.shaderDir, "err", err)
		}
	}

	r.pipelines = pipeline.NewCache(device, r.registry, pipeline.WithCacheLogger(r.logger))
	r.resources = gpu_resource.NewResourceManager(device, queue, gpu_resource.WithLogger(r.logger))
	r.extractor = extract.NewExtractor(extract.WithLogger(r.logger))
	r.transients = graph.NewTransientPool(device)
	r.blackboard = graph.NewBlackboard()

	objects, err := dynamic_buffer.NewManager(device, queue)
	if err != nil {
		r.Release()
		return nil, err
	}
	r.objects = objects

	if err := r.createGlobalResources(device); err != nil {
		r.Release()
		return nil, err
	}
	if err := r.createMaterialResources(device); err != nil {
		r.Release()
		return nil, err
	}
	if err := r.createSharedLayouts(device); err != nil {
		r.Release()
		return nil, err
	}

	brdfNode := passes.NewBRDFLUTNode()
	prefilterNode := passes.NewIBLPrefilterNode()
	r.brdfLUT = brdfNode.(passes.PrecomputeOutput)
	r.prefilteredEnv = prefilterNode.(passes.PrecomputeOutput)

	r.nodes = []graph.Node{
		brdfNode,
		prefilterNode,
		passes.NewShadowPass(r.shadowLayout),
		passes.NewOpaquePass(),
		passes.NewSkyboxPass(),
		passes.NewTransmissionCopyPass(r.sceneColorLayout),
		passes.NewTransparentPass(),
		passes.NewToneMapPass(),
		passes.NewOverlayPass(r.overlay),
	}

	win.SetResizeCallback(func(width, height int) {
		if err := r.Resize(width, height); err != nil {
			r.logger.Error("resize failed", "width", width, "height", height, "err", err)
		}
	})

	r.logger.Info("renderer initialized",
		"surface_format", backend.SurfaceFormat(),
		"width", r.width, "height", r.height,
		"msaa", r.settings.MSAASamples, "hdr", r.settings.HDR)
	return r, nil
}

func (r *renderer) Render(s scene.Scene, dt float32) error {
	if s == nil || !s.Active() {
		return nil
	}
	cam := s.Camera()
	if cam == nil {
		return errors.New("scene has no camera")
	}
	if r.width > 0 && r.height > 0 {
		cam.SetAspect(float32(r.width) / float32(r.height))
	}
	s.Update(dt)

	r.frame++
	r.resources.BeginFrame(r.frame)
	r.syncHandles(s)

	queue := r.backend.Queue()
	uniform := camera.UniformFor(cam)
	queue.WriteBuffer(r.cameraBuffer, 0, uniform.Marshal())
	queue.WriteBuffer(r.lightBuffer, 0, light.MarshalLightBuffer(s.Lights(), s.AmbientColor()))

	var shadowVP []float32
	if shadowLight := s.ShadowLight(); shadowLight != nil {
		shadowVP = r.writeShadowData(cam, shadowLight, queue)
	}

	viewProj := cam.ViewProjectionMatrix()
	camX, camY, camZ := cam.Position()
	lists := r.extractor.Extract(s.Items(), viewProj[:], camX, camY, camZ, r.resolveDraw)

	if _, err := r.objects.WriteAndExpand(lists.ObjectUniforms); err != nil {
		return fmt.Errorf("failed to upload object uniforms: %w", err)
	}

	frame, err := r.backend.AcquireFrame()
	if err != nil {
		return err
	}
	defer r.endFrame()

	if err := r.ensureGlobalBindGroup(frame.ShadowView); err != nil {
		return err
	}

	var invScratch [16]float32
	var invViewProj []float32
	if common.Invert4(invScratch[:], viewProj[:]) {
		invViewProj = invScratch[:]
	}

	g := graph.NewGraph(graph.WithLogger(r.logger))
	for _, node := range r.nodes {
		g.Add(node)
	}

	g.Prepare(&graph.PrepareContext{
		Device:          r.backend.Device(),
		Queue:           queue,
		Resources:       r.resources,
		Pipelines:       r.pipelines,
		Shaders:         r.registry,
		Objects:         r.objects,
		Transients:      r.transients,
		Blackboard:      r.blackboard,
		Lists:           lists,
		Frame:           frame,
		Settings:        r.settings,
		GlobalBindGroup: r.globalBindGroup,
		GlobalLayout:    r.globalLayout,
		ShadowViewProj:  shadowVP,
		InvViewProj:     invViewProj,
		Environment:     s.Environment(),
		Logger:          r.logger,
	})

	encoder, err := r.backend.Device().CreateCommandEncoder(nil)
	if err != nil {
		return fmt.Errorf("failed to create command encoder: %w", err)
	}

	g.Execute(&graph.ExecuteContext{
		Encoder:         encoder,
		Resources:       r.resources,
		Objects:         r.objects,
		Transients:      r.transients,
		Blackboard:      r.blackboard,
		Lists:           lists,
		Frame:           frame,
		Settings:        r.settings,
		GlobalBindGroup: r.globalBindGroup,
		Logger:          r.logger,
	})

	commandBuffer, err := encoder.Finish(nil)
	if err != nil {
		encoder.Release()
		return fmt.Errorf("failed to finish command encoder: %w", err)
	}
	queue.Submit(commandBuffer)
	commandBuffer.Release()
	encoder.Release()

	return nil
}

// endFrame presents and retires the frame-scoped state. Runs even when the
// frame errored after acquire, so the surface texture is always returned.
func (r *renderer) endFrame() {
	r.backend.Present()
	r.transients.Reset()
	r.blackboard.Clear()
	r.transients.Trim(idleFrames)
	r.resources.Prune(idleFrames)
	r.profiler.Tick()
}

// writeShadowData fills the shadow uniform for the frame's shadow light and
// returns the light view-projection for the shadow pass.
func (r *renderer) writeShadowData(cam camera.Camera, shadowLight light.Light, queue *wgpu.Queue) []float32 {
	size := r.settings.ShadowMapSize
	if size == 0 {
		size = 1
	}

	var data light.GPUShadowData
	centerX, centerY, centerZ := cam.Position()
	data.ComputeDirectionalLightVP(shadowLight.Direction(),
		centerX, centerY, centerZ,
		light.DefaultShadowHalfExtent, light.DefaultShadowNear, light.DefaultShadowFar)
	texel := 1.0 / float32(size)
	data.TexelSize = [2]float32{texel, texel}
	data.Bias = light.DefaultShadowBias
	data.ComputeNormalBias(light.DefaultShadowHalfExtent, light.DefaultShadowNormalBiasScale, int(size))

	queue.WriteBuffer(r.shadowDataBuffer, 0, data.Marshal())
	return data.LightVP[:]
}

// syncHandles rebuilds the frame's mesh and material lookups from the scene.
// The extractor's resolve callback works against these instead of walking
// scene objects, so a draw resolves with two map hits.
func (r *renderer) syncHandles(s scene.Scene) {
	clear(r.meshes)
	clear(r.materials)
	for _, obj := range s.Objects() {
		m := obj.Mesh()
		mat := obj.Material()
		if m == nil || mat == nil {
			continue
		}
		r.meshes[m.ID()] = m
		r.materials[mat.ID()] = mat
	}
}

// resolveDraw is the extractor's resolve callback. It brings the draw's GPU
// dependencies up to date and returns the references the passes record with.
// Not-ready resources skip the draw for the frame instead of failing it.
func (r *renderer) resolveDraw(item *extract.Item, variant pipeline.PassVariant) (extract.DrawResolution, bool) {
	msh := r.meshes[item.GeometryID]
	mat := r.materials[item.MaterialID]
	if msh == nil || mat == nil {
		return extract.DrawResolution{}, false
	}

	vertexBuffer, indexBuffer, err := r.resolveGeometry(msh)
	if err != nil {
		r.reportResolve("geometry", msh.Name(), err)
		return extract.DrawResolution{}, false
	}

	resolution := extract.DrawResolution{
		MaterialKey:  r.materialKey(item.MaterialID),
		VertexBuffer: vertexBuffer,
		IndexBuffer:  indexBuffer,
		IndexCount:   msh.IndexCount(),
		IndexFormat:  msh.IndexFormat(),
	}

	var compiled pipeline.Pipeline
	var pipelineID uint32
	if variant == pipeline.VariantShadow {
		compiled, pipelineID, err = r.resolveShadowPipeline(item, mat)
	} else {
		resolution.MaterialBindGroup, err = r.materialBindGroup(mat)
		if err == nil {
			compiled, pipelineID, err = r.resolveMainPipeline(item, mat)
		}
	}
	if err != nil {
		r.reportResolve("pipeline", mat.Name(), err)
		return extract.DrawResolution{}, false
	}

	renderPipeline, ok := compiled.Pipeline().(*wgpu.RenderPipeline)
	if !ok || renderPipeline == nil {
		return extract.DrawResolution{}, false
	}
	resolution.Pipeline = renderPipeline
	resolution.PipelineID = pipelineID
	return resolution, true
}

// resolveShadowPipeline builds the depth-only variant for a draw. The layout
// is the shadow uniform at group 0 plus the object uniforms at group 1;
// materials only contribute their cull mode.
func (r *renderer) resolveShadowPipeline(item *extract.Item, mat material.Material) (pipeline.Pipeline, uint32, error) {
	vs, err := r.expandShader(shader.TemplateShadow, nil, shader.ShaderTypeVertex, "vs_main")
	if err != nil {
		return nil, 0, err
	}

	return r.pipelines.Resolve(&pipeline.Request{
		FastKey: pipeline.FastKey{
			MaterialID:      item.MaterialID,
			MaterialVersion: item.MaterialVersion,
			GeometryID:      item.GeometryID,
			GeometryVersion: item.GeometryVersion,
			Topology:        wgpu.PrimitiveTopologyTriangleList,
			Variant:         pipeline.VariantShadow,
			SettingsVersion: r.settings.Version(),
		},
		Label:            mat.Name() + " shadow",
		VertexShader:     vs,
		BindGroupLayouts: []*wgpu.BindGroupLayout{r.shadowLayout, r.objects.Layout()},
		VertexBuffers:    []wgpu.VertexBufferLayout{mesh.VertexBufferLayout()},
		DepthFormat:      wgpu.TextureFormatDepth32Float,
		SampleCount:      1,
		Options: []pipeline.PipelineBuilderOption{
			pipeline.WithDepthTestEnabled(true),
			pipeline.WithDepthWriteEnabled(true),
			pipeline.WithDepthBias(2, 2.0),
			pipeline.WithCullMode(mat.CullMode()),
		},
	})
}

// resolveMainPipeline builds the forward-shaded variant for a draw from the
// material's template, defines, and render state.
func (r *renderer) resolveMainPipeline(item *extract.Item, mat material.Material) (pipeline.Pipeline, uint32, error) {
	defines := mat.FeatureDefines()
	vs, err := r.expandShader(mat.ShaderTemplate(), defines, shader.ShaderTypeVertex, "vs_main")
	if err != nil {
		return nil, 0, err
	}
	fs, err := r.expandShader(mat.ShaderTemplate(), defines, shader.ShaderTypeFragment, "fs_main")
	if err != nil {
		return nil, 0, err
	}

	layouts := []*wgpu.BindGroupLayout{r.globalLayout, r.objects.Layout(), r.materialLayout}
	if mat.UsesTransmission() {
		layouts = append(layouts, r.sceneColorLayout)
	}

	return r.pipelines.Resolve(&pipeline.Request{
		FastKey: pipeline.FastKey{
			MaterialID:      item.MaterialID,
			MaterialVersion: item.MaterialVersion,
			GeometryID:      item.GeometryID,
			GeometryVersion: item.GeometryVersion,
			Topology:        wgpu.PrimitiveTopologyTriangleList,
			Variant:         pipeline.VariantMain,
			SettingsVersion: r.settings.Version(),
		},
		Label:            mat.Name(),
		VertexShader:     vs,
		FragmentShader:   fs,
		BindGroupLayouts: layouts,
		VertexBuffers:    []wgpu.VertexBufferLayout{mesh.VertexBufferLayout()},
		ColorFormats:     []wgpu.TextureFormat{r.settings.ColorFormat()},
		DepthFormat:      r.settings.DepthFormat(),
		SampleCount:      r.sampleCount(),
		Options: []pipeline.PipelineBuilderOption{
			pipeline.WithDepthTestEnabled(true),
			pipeline.WithDepthWriteEnabled(mat.DepthWriteEnabled()),
			pipeline.WithCullMode(mat.CullMode()),
			pipeline.WithBlendEnabled(mat.Transparent()),
		},
	})
}

// materialBindGroup returns the material's group 2 bind group, rebuilding it
// when a bound texture's physical identity changed. Missing textures bind the
// resource manager's dummy view so one layout serves every define set.
func (r *renderer) materialBindGroup(mat material.Material) (*wgpu.BindGroup, error) {
	provider := r.materialGroups[mat.ID()]
	if provider == nil {
		provider = bind_group_provider.NewBindGroupProvider(mat.Name(),
			bind_group_provider.WithBindGroupLayout(r.materialLayout))
		r.materialGroups[mat.ID()] = provider
	}

	uniformBytes := mat.UniformBytes()
	if provider.Buffer(0) == nil {
		buf, err := r.backend.Device().CreateBuffer(&wgpu.BufferDescriptor{
			Label: mat.Name() + " uniform",
			Size:  uint64(len(uniformBytes)),
			Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create material uniform buffer: %w", err)
		}
		provider.SetBuffer(0, buf)
		delete(r.materialWritten, mat.ID())
	}
	// written holds version+1 so a zero-version material still uploads once.
	if r.materialWritten[mat.ID()] != mat.Version()+1 {
		r.backend.Queue().WriteBuffer(provider.Buffer(0), 0, uniformBytes)
		r.materialWritten[mat.ID()] = mat.Version() + 1
	}

	slots := mat.TextureSlots()
	views := make([]*wgpu.TextureView, len(slots))
	physicalIDs := make([]uuid.UUID, 0, len(slots)+1)
	physicalIDs = append(physicalIDs, mat.ID())
	for i, slot := range slots {
		if slot.Image == nil {
			views[i] = r.resources.DummyTextureView()
			physicalIDs = append(physicalIDs, uuid.Nil)
			continue
		}
		res, err := r.resources.EnsureTexture(slot.Image)
		if err != nil {
			if errors.Is(err, gpu_resource.ErrNotReady) {
				views[i] = r.resources.DummyTextureView()
				physicalIDs = append(physicalIDs, uuid.Nil)
				continue
			}
			return nil, fmt.Errorf("failed to ensure texture for binding %d: %w", slot.Binding, err)
		}
		views[i] = r.resources.TextureView(slot.Image.ID())
		physicalIDs = append(physicalIDs, res.PhysicalID)
	}

	fingerprint := bind_group_provider.ComputeFingerprint(r.materialLayoutHash, physicalIDs...)
	if provider.BindGroup() != nil && provider.Fingerprint() == fingerprint {
		return provider.BindGroup(), nil
	}

	entries := []wgpu.BindGroupEntry{
		{Binding: 0, Buffer: provider.Buffer(0), Size: uint64(len(uniformBytes))},
		{Binding: 1, Sampler: r.materialSampler},
	}
	for i, slot := range slots {
		entries = append(entries, wgpu.BindGroupEntry{
			Binding:     uint32(slot.Binding),
			TextureView: views[i],
		})
	}
	bindGroup, err := r.backend.Device().CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   mat.Name(),
		Layout:  r.materialLayout,
		Entries: entries,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create material bind group: %w", err)
	}
	provider.SetBindGroup(bindGroup, fingerprint)
	return bindGroup, nil
}

// materialKey assigns small stable numeric keys for the sort key's material
// bits, in first-seen order.
func (r *renderer) materialKey(id uuid.UUID) uint32 {
	if key, ok := r.materialKeys[id]; ok {
		return key
	}
	key := uint32(len(r.materialKeys) + 1)
	r.materialKeys[id] = key
	return key
}

// expandShader expands a registered template with the given defines into a
// stage shader. The key carries the define set so the registry caches one
// module per variant.
func (r *renderer) expandShader(template string, defines []string, shaderType shader.ShaderType, entryPoint string) (shader.Shader, error) {
	source, ok := r.registry.Template(template)
	if !ok {
		return nil, fmt.Errorf("shader template %q not registered", template)
	}
	expanded, err := r.preProcessor.Process(source, defines)
	if err != nil {
		return nil, fmt.Errorf("failed to expand shader %q: %w", template, err)
	}
	key := template + "/" + entryPoint
	if len(defines) > 0 {
		key += "+" + strings.Join(defines, "+")
	}
	return shader.NewShader(key, expanded, shaderType, entryPoint), nil
}

// reportResolve logs a skipped draw at debug level; not-ready resources are
// routine during async loads and retry next frame.
// resolveGeometry brings the mesh's GPU buffers up to date and returns them.
// The manager keys its mirrors by the CPU buffer identity, so that is the id
// the lookups use; the physical id only matters to bind-group fingerprints.
func (r *renderer) resolveGeometry(msh mesh.Mesh) (*wgpu.Buffer, *wgpu.Buffer, error) {
	if _, err := r.resources.EnsureBuffer(msh.VertexBuffer(), wgpu.BufferUsageVertex|wgpu.BufferUsageCopyDst); err != nil {
		return nil, nil, fmt.Errorf("vertex buffer: %w", err)
	}
	if _, err := r.resources.EnsureBuffer(msh.IndexBuffer(), wgpu.BufferUsageIndex|wgpu.BufferUsageCopyDst); err != nil {
		return nil, nil, fmt.Errorf("index buffer: %w", err)
	}

	vertexBuffer := r.resources.Buffer(msh.VertexBuffer().ID())
	indexBuffer := r.resources.Buffer(msh.IndexBuffer().ID())
	if vertexBuffer == nil || indexBuffer == nil {
		return nil, nil, errors.New("geometry mirror missing after ensure")
	}
	return vertexBuffer, indexBuffer, nil
}

func (r *renderer) reportResolve(what, name string, err error) {
	if errors.Is(err, gpu_resource.ErrNotReady) {
		r.logger.Debug("draw not ready", "what", what, "name", name)
		return
	}
	r.logger.Warn("failed to resolve draw", "what", what, "name", name, "err", err)
}

// ensureGlobalBindGroup builds group 0. It binds the shadow map view and the
// IBL textures, so it rebuilds whenever the backend recreates the shadow map
// or a precompute node's output appears. The IBL views lag their nodes by one
// frame on first creation; they bind the black fallback until then, which
// zeroes the ambient specular term.
func (r *renderer) ensureGlobalBindGroup(shadowView *wgpu.TextureView) error {
	if shadowView == nil {
		return errors.New("backend provided no shadow map view")
	}

	brdfView := r.brdfLUT.View()
	if brdfView == nil {
		brdfView = r.iblFallbackView
	}
	envView := r.prefilteredEnv.View()
	if envView == nil {
		envView = r.iblFallbackView
	}

	if r.globalBindGroup != nil &&
		r.boundShadowView == shadowView &&
		r.boundBRDFView == brdfView &&
		r.boundEnvView == envView {
		return nil
	}
	if r.globalBindGroup != nil {
		r.globalBindGroup.Release()
		r.globalBindGroup = nil
	}

	bindGroup, err := r.backend.Device().CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "frame globals",
		Layout: r.globalLayout,
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: r.cameraBuffer, Size: cameraUniformSize},
			{Binding: 1, Buffer: r.lightBuffer, Size: lightBufferSize},
			{Binding: 2, Buffer: r.shadowDataBuffer, Size: shadowDataSize},
			{Binding: 3, TextureView: shadowView},
			{Binding: 4, Sampler: r.shadowSampler},
			{Binding: 5, TextureView: brdfView},
			{Binding: 6, TextureView: envView},
			{Binding: 7, Sampler: r.iblSampler},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create global bind group: %w", err)
	}
	r.globalBindGroup = bindGroup
	r.boundShadowView = shadowView
	r.boundBRDFView = brdfView
	r.boundEnvView = envView
	return nil
}

// createGlobalResources builds the group 0 layout, its uniform and storage
// buffers, the shadow comparison sampler, and the IBL sampler with its black
// fallback texture.
func (r *renderer) createGlobalResources(device *wgpu.Device) error {
	layout, err := device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "frame globals layout",
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: wgpu.ShaderStageVertex | wgpu.ShaderStageFragment,
				Buffer: wgpu.BufferBindingLayout{
					Type:           wgpu.BufferBindingTypeUniform,
					MinBindingSize: cameraUniformSize,
				},
			},
			{
				Binding:    1,
				Visibility: wgpu.ShaderStageFragment,
				Buffer: wgpu.BufferBindingLayout{
					Type: wgpu.BufferBindingTypeReadOnlyStorage,
				},
			},
			{
				Binding:    2,
				Visibility: wgpu.ShaderStageFragment,
				Buffer: wgpu.BufferBindingLayout{
					Type:           wgpu.BufferBindingTypeUniform,
					MinBindingSize: shadowDataSize,
				},
			},
			{
				Binding:    3,
				Visibility: wgpu.ShaderStageFragment,
				Texture: wgpu.TextureBindingLayout{
					SampleType:    wgpu.TextureSampleTypeDepth,
					ViewDimension: wgpu.TextureViewDimension2D,
				},
			},
			{
				Binding:    4,
				Visibility: wgpu.ShaderStageFragment,
				Sampler: wgpu.SamplerBindingLayout{
					Type: wgpu.SamplerBindingTypeComparison,
				},
			},
			{
				Binding:    5,
				Visibility: wgpu.ShaderStageFragment,
				Texture: wgpu.TextureBindingLayout{
					SampleType:    wgpu.TextureSampleTypeFloat,
					ViewDimension: wgpu.TextureViewDimension2D,
				},
			},
			{
				Binding:    6,
				Visibility: wgpu.ShaderStageFragment,
				Texture: wgpu.TextureBindingLayout{
					SampleType:    wgpu.TextureSampleTypeFloat,
					ViewDimension: wgpu.TextureViewDimension2D,
				},
			},
			{
				Binding:    7,
				Visibility: wgpu.ShaderStageFragment,
				Sampler: wgpu.SamplerBindingLayout{
					Type: wgpu.SamplerBindingTypeFiltering,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create global layout: %w", err)
	}
	r.globalLayout = layout

	r.cameraBuffer, err = device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "camera uniform",
		Size:  cameraUniformSize,
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("failed to create camera buffer: %w", err)
	}
	r.lightBuffer, err = device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "light storage",
		Size:  lightBufferSize,
		Usage: wgpu.BufferUsageStorage | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("failed to create light buffer: %w", err)
	}
	r.shadowDataBuffer, err = device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "shadow data uniform",
		Size:  shadowDataSize,
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("failed to create shadow data buffer: %w", err)
	}

	r.shadowSampler, err = device.CreateSampler(&wgpu.SamplerDescriptor{
		Label:         "shadow comparison sampler",
		AddressModeU:  wgpu.AddressModeClampToEdge,
		AddressModeV:  wgpu.AddressModeClampToEdge,
		AddressModeW:  wgpu.AddressModeClampToEdge,
		MagFilter:     wgpu.FilterModeLinear,
		MinFilter:     wgpu.FilterModeLinear,
		MipmapFilter:  wgpu.MipmapFilterModeNearest,
		Compare:       wgpu.CompareFunctionLessEqual,
		LodMaxClamp:   32,
		MaxAnisotropy: 1,
	})
	if err != nil {
		return fmt.Errorf("failed to create shadow sampler: %w", err)
	}

	r.iblSampler, err = device.CreateSampler(&wgpu.SamplerDescriptor{
		Label:         "ibl sampler",
		AddressModeU:  wgpu.AddressModeClampToEdge,
		AddressModeV:  wgpu.AddressModeClampToEdge,
		AddressModeW:  wgpu.AddressModeClampToEdge,
		MagFilter:     wgpu.FilterModeLinear,
		MinFilter:     wgpu.FilterModeLinear,
		MipmapFilter:  wgpu.MipmapFilterModeLinear,
		LodMaxClamp:   32,
		MaxAnisotropy: 1,
	})
	if err != nil {
		return fmt.Errorf("failed to create ibl sampler: %w", err)
	}

	// Black, so the ambient specular term contributes nothing until the
	// precomputed textures exist or when the scene has no environment.
	r.iblFallback, err = device.CreateTexture(&wgpu.TextureDescriptor{
		Label:     "ibl fallback",
		Usage:     wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
		Dimension: wgpu.TextureDimension2D,
		Size: wgpu.Extent3D{
			Width:              1,
			Height:             1,
			DepthOrArrayLayers: 1,
		},
		Format:        wgpu.TextureFormatRGBA8Unorm,
		MipLevelCount: 1,
		SampleCount:   1,
	})
	if err != nil {
		return fmt.Errorf("failed to create ibl fallback texture: %w", err)
	}
	r.backend.Queue().WriteTexture(
		&wgpu.ImageCopyTexture{
			Texture: r.iblFallback,
			Aspect:  wgpu.TextureAspectAll,
		},
		[]byte{0, 0, 0, 255},
		&wgpu.TextureDataLayout{BytesPerRow: 4, RowsPerImage: 1},
		&wgpu.Extent3D{Width: 1, Height: 1, DepthOrArrayLayers: 1},
	)
	r.iblFallbackView, err = r.iblFallback.CreateView(nil)
	if err != nil {
		return fmt.Errorf("failed to create ibl fallback view: %w", err)
	}
	return nil
}

// createMaterialResources builds the shared group 2 layout and sampler. One
// layout covers every material: texture slots without an image bind the
// dummy view, and the defines keep the shader from sampling them.
func (r *renderer) createMaterialResources(device *wgpu.Device) error {
	entries := []wgpu.BindGroupLayoutEntry{
		{
			Binding:    0,
			Visibility: wgpu.ShaderStageFragment,
			Buffer: wgpu.BufferBindingLayout{
				Type: wgpu.BufferBindingTypeUniform,
			},
		},
		{
			Binding:    1,
			Visibility: wgpu.ShaderStageFragment,
			Sampler: wgpu.SamplerBindingLayout{
				Type: wgpu.SamplerBindingTypeFiltering,
			},
		},
	}
	for binding := uint32(2); binding <= 4; binding++ {
		entries = append(entries, wgpu.BindGroupLayoutEntry{
			Binding:    binding,
			Visibility: wgpu.ShaderStageFragment,
			Texture: wgpu.TextureBindingLayout{
				SampleType:    wgpu.TextureSampleTypeFloat,
				ViewDimension: wgpu.TextureViewDimension2D,
			},
		})
	}
	layout, err := device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label:   "material layout",
		Entries: entries,
	})
	if err != nil {
		return fmt.Errorf("failed to create material layout: %w", err)
	}
	r.materialLayout = layout

	h := fnv.New64a()
	h.Write([]byte("material uniform+sampler+3tex"))
	r.materialLayoutHash = h.Sum64()

	r.materialSampler, err = device.CreateSampler(&wgpu.SamplerDescriptor{
		Label:         "material sampler",
		AddressModeU:  wgpu.AddressModeRepeat,
		AddressModeV:  wgpu.AddressModeRepeat,
		AddressModeW:  wgpu.AddressModeRepeat,
		MagFilter:     wgpu.FilterModeLinear,
		MinFilter:     wgpu.FilterModeLinear,
		MipmapFilter:  wgpu.MipmapFilterModeLinear,
		LodMaxClamp:   32,
		MaxAnisotropy: 1,
	})
	if err != nil {
		return fmt.Errorf("failed to create material sampler: %w", err)
	}
	return nil
}

// createSharedLayouts builds the layouts shared between pipeline creation and
// the passes that bind them: the shadow pass's group 0 and the transmission
// scene-color group 3.
func (r *renderer) createSharedLayouts(device *wgpu.Device) error {
	shadowLayout, err := device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "shadow uniform layout",
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: wgpu.ShaderStageVertex,
				Buffer: wgpu.BufferBindingLayout{
					Type:           wgpu.BufferBindingTypeUniform,
					MinBindingSize: 64,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create shadow layout: %w", err)
	}
	r.shadowLayout = shadowLayout

	sceneColorLayout, err := device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "scene color layout",
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
		return fmt.Errorf("failed to create scene color layout: %w", err)
	}
	r.sceneColorLayout = sceneColorLayout
	return nil
}

func (r *renderer) sampleCount() uint32 {
	if r.settings.MSAASamples > 1 {
		return r.settings.MSAASamples
	}
	return 1
}

func (r *renderer) Resize(width, height int) error {
	if width <= 0 || height <= 0 {
		return nil
	}
	r.width = width
	r.height = height
	if err := r.backend.Resize(uint32(width), uint32(height)); err != nil {
		return err
	}
	// The shadow map may have been recreated; rebind lazily next frame.
	r.invalidateGlobalBindGroup()
	return nil
}

func (r *renderer) Settings() *settings.RenderSettings {
	return r.settings
}

func (r *renderer) ApplySettings() error {
	r.settings.Bump()
	if r.width <= 0 || r.height <= 0 {
		return nil
	}
	if err := r.backend.Resize(uint32(r.width), uint32(r.height)); err != nil {
		return err
	}
	r.invalidateGlobalBindGroup()
	return nil
}

func (r *renderer) ShaderRegistry() shader.Registry {
	return r.registry
}

func (r *renderer) invalidateGlobalBindGroup() {
	if r.globalBindGroup != nil {
		r.globalBindGroup.Release()
		r.globalBindGroup = nil
	}
	r.boundShadowView = nil
	r.boundBRDFView = nil
	r.boundEnvView = nil
}

func (r *renderer) Release() {
	for _, node := range r.nodes {
		if rel, ok := node.(interface{ Release() }); ok {
			rel.Release()
		}
	}
	r.nodes = nil
	r.brdfLUT = nil
	r.prefilteredEnv = nil

	for _, provider := range r.materialGroups {
		if buf := provider.Buffer(0); buf != nil {
			buf.Release()
		}
		provider.Release()
	}
	clear(r.materialGroups)

	r.invalidateGlobalBindGroup()
	if r.materialSampler != nil {
		r.materialSampler.Release()
		r.materialSampler = nil
	}
	if r.materialLayout != nil {
		r.materialLayout.Release()
		r.materialLayout = nil
	}
	if r.sceneColorLayout != nil {
		r.sceneColorLayout.Release()
		r.sceneColorLayout = nil
	}
	if r.shadowLayout != nil {
		r.shadowLayout.Release()
		r.shadowLayout = nil
	}
	if r.iblFallbackView != nil {
		r.iblFallbackView.Release()
		r.iblFallbackView = nil
	}
	if r.iblFallback != nil {
		r.iblFallback.Release()
		r.iblFallback = nil
	}
	if r.iblSampler != nil {
		r.iblSampler.Release()
		r.iblSampler = nil
	}
	if r.shadowSampler != nil {
		r.shadowSampler.Release()
		r.shadowSampler = nil
	}
	if r.shadowDataBuffer != nil {
		r.shadowDataBuffer.Release()
		r.shadowDataBuffer = nil
	}
	if r.lightBuffer != nil {
		r.lightBuffer.Release()
		r.lightBuffer = nil
	}
	if r.cameraBuffer != nil {
		r.cameraBuffer.Release()
		r.cameraBuffer = nil
	}
	if r.globalLayout != nil {
		r.globalLayout.Release()
		r.globalLayout = nil
	}

	if r.transients != nil {
		r.transients.Release()
		r.transients = nil
	}
	if r.objects != nil {
		r.objects.Release()
		r.objects = nil
	}
	if r.resources != nil {
		r.resources.Release()
		r.resources = nil
	}
	if r.pipelines != nil {
		r.pipelines.Release()
		r.pipelines = nil
	}
	if r.registry != nil {
		r.registry.Release()
		r.registry = nil
	}
	if r.backend != nil {
		r.backend.Release()
		r.backend = nil
	}
}
