package gpu_resource

import (
	"errors"

	"github.com/charmbracelet/log"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/google/uuid"

	"github.com/ember-gfx/ember-go/engine/resource"
)

// ErrNotReady signals that a resource has no CPU data yet (e.g., an async load
// still in flight). Callers skip the dependent draw for this frame and retry
// next frame; it is never a hard failure.
var ErrNotReady = errors.New("resource data not ready")

// EnsureResult reports the outcome of an ensure call.
type EnsureResult struct {
	// PhysicalID identifies the physical GPU object. It changes whenever the
	// object is destroyed and recreated; bind groups keyed on a stale id must
	// be rebuilt.
	PhysicalID uuid.UUID
	// WasRecreated is true when the physical identity changed during this
	// call, including first-time creation.
	WasRecreated bool
}

// resourceManager is the implementation of the ResourceManager interface.
type resourceManager struct {
	device *wgpu.Device
	queue  *wgpu.Queue
	logger *log.Logger

	buffers  map[uuid.UUID]*gpuBuffer
	textures map[uuid.UUID]*gpuTexture

	dummyTexture *wgpu.Texture
	dummyView    *wgpu.TextureView

	frame uint64
}

// ResourceManager maintains the keyed cache mapping CPU resource identity to
// physical GPU objects, re-uploading or recreating them by version comparison.
// It is accessed only from the render thread.
type ResourceManager interface {
	// EnsureBuffer brings the GPU mirror of buf up to date. A version that
	// has not changed is a no-op; grown contents recreate the physical buffer
	// under a new physical id.
	//
	// Parameters:
	//   - buf: the CPU buffer to mirror
	//   - usage: buffer usage flags (CopyDst is added automatically)
	//
	// Returns:
	//   - EnsureResult: the physical id and whether it changed
	//   - error: creation failure, or ErrNotReady for an empty buffer
	EnsureBuffer(buf resource.Buffer, usage wgpu.BufferUsage) (EnsureResult, error)

	// EnsureTexture brings the GPU mirror of img up to date. A generation
	// change recreates the texture; a version-only change uploads pixels in
	// place.
	//
	// Parameters:
	//   - img: the CPU image to mirror
	//
	// Returns:
	//   - EnsureResult: the physical id and whether it changed
	//   - error: creation failure, or ErrNotReady when no pixel data exists
	EnsureTexture(img resource.Image) (EnsureResult, error)

	// Buffer returns the physical buffer mirroring the CPU identity, or nil
	// if none has been ensured.
	//
	// Parameters:
	//   - id: the CPU buffer identity
	//
	// Returns:
	//   - *wgpu.Buffer: the physical buffer or nil
	Buffer(id uuid.UUID) *wgpu.Buffer

	// TextureView returns the view mirroring the CPU identity, falling back
	// to the dummy view when the texture is missing or not ready, so a draw
	// referencing a still-loading texture binds something valid.
	//
	// Parameters:
	//   - id: the CPU image identity
	//
	// Returns:
	//   - *wgpu.TextureView: the mirrored view or the dummy view
	TextureView(id uuid.UUID) *wgpu.TextureView

	// DummyTextureView returns the 1x1 white fallback view, creating it on
	// first use.
	//
	// Returns:
	//   - *wgpu.TextureView: the fallback view
	DummyTextureView() *wgpu.TextureView

	// BeginFrame records the current frame index used for last-use tracking.
	//
	// Parameters:
	//   - frame: the monotonically increasing frame index
	BeginFrame(frame uint64)

	// Prune releases mirrors not touched for more than maxIdleFrames frames.
	//
	// Parameters:
	//   - maxIdleFrames: idle threshold in frames
	Prune(maxIdleFrames uint64)

	// Release frees every physical resource held by the manager.
	Release()
}

var _ ResourceManager = &resourceManager{}

// NewResourceManager creates a ResourceManager bound to a device and queue.
//
// Parameters:
//   - device: the WebGPU device used for resource creation
//   - queue: the WebGPU queue used for uploads
//   - opts: a variadic list of ResourceManagerOption functions
//
// Returns:
//   - ResourceManager: a new ResourceManager instance
func NewResourceManager(device *wgpu.Device, queue *wgpu.Queue, opts ...ResourceManagerOption) ResourceManager {
	m := &resourceManager{
		device:   device,
		queue:    queue,
		logger:   log.WithPrefix("gpu_resource"),
		buffers:  make(map[uuid.UUID]*gpuBuffer),
		textures: make(map[uuid.UUID]*gpuTexture),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *resourceManager) EnsureBuffer(buf resource.Buffer, usage wgpu.BufferUsage) (EnsureResult, error) {
	if buf.Len() == 0 {
		return EnsureResult{}, ErrNotReady
	}

	mirror, ok := m.buffers[buf.ID()]
	if !ok {
		mirror = &gpuBuffer{}
		m.buffers[buf.ID()] = mirror
	}
	mirror.lastUsedFrame = m.frame

	var recreated bool
	var err error
	buf.Read(func(data []byte) {
		recreated, err = mirror.update(m.device, m.queue, buf.Label(), data, buf.Version(), usage)
	})
	if err != nil {
		return EnsureResult{}, err
	}
	if recreated {
		m.logger.Debug("buffer recreated", "label", buf.Label(), "capacity", mirror.capacity)
	}
	return EnsureResult{PhysicalID: mirror.physicalID, WasRecreated: recreated}, nil
}

func (m *resourceManager) EnsureTexture(img resource.Image) (EnsureResult, error) {
	if !img.HasData() {
		return EnsureResult{}, ErrNotReady
	}

	mirror, ok := m.textures[img.ID()]
	if !ok {
		mirror = &gpuTexture{}
		m.textures[img.ID()] = mirror
	}
	mirror.lastUsedFrame = m.frame

	version := img.Version()
	generation := img.Generation()

	switch decideTextureAction(mirror.texture != nil, mirror.lastVersion, mirror.lastGeneration, version, generation) {
	case textureActionNoop:
		return EnsureResult{PhysicalID: mirror.physicalID}, nil

	case textureActionUpload:
		img.Read(func(pixels []byte) {
			mirror.upload(m.queue, pixels)
		})
		mirror.lastVersion = version
		return EnsureResult{PhysicalID: mirror.physicalID}, nil

	default:
		width, height, format, mips := img.Descriptor()
		if err := mirror.recreate(m.device, img.Label(), width, height, format, mips); err != nil {
			return EnsureResult{}, err
		}
		img.Read(func(pixels []byte) {
			mirror.upload(m.queue, pixels)
		})
		mirror.lastVersion = version
		mirror.lastGeneration = generation
		m.logger.Debug("texture recreated", "label", img.Label(), "width", width, "height", height)
		return EnsureResult{PhysicalID: mirror.physicalID, WasRecreated: true}, nil
	}
}

func (m *resourceManager) Buffer(id uuid.UUID) *wgpu.Buffer {
	if mirror, ok := m.buffers[id]; ok {
		return mirror.buffer
	}
	return nil
}

func (m *resourceManager) TextureView(id uuid.UUID) *wgpu.TextureView {
	if mirror, ok := m.textures[id]; ok && mirror.view != nil {
		return mirror.view
	}
	return m.DummyTextureView()
}

func (m *resourceManager) DummyTextureView() *wgpu.TextureView {
	if m.dummyView != nil {
		return m.dummyView
	}

	tex, err := m.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:     "dummy texture",
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
		panic("failed to create dummy texture: " + err.Error())
	}
	m.queue.WriteTexture(
		&wgpu.ImageCopyTexture{
			Texture:  tex,
			MipLevel: 0,
			Origin:   wgpu.Origin3D{},
			Aspect:   wgpu.TextureAspectAll,
		},
		[]byte{255, 255, 255, 255},
		&wgpu.TextureDataLayout{Offset: 0, BytesPerRow: 4, RowsPerImage: 1},
		&wgpu.Extent3D{Width: 1, Height: 1, DepthOrArrayLayers: 1},
	)
	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		panic("failed to create dummy texture view: " + err.Error())
	}

	m.dummyTexture = tex
	m.dummyView = view
	return view
}

func (m *resourceManager) BeginFrame(frame uint64) {
	m.frame = frame
}

func (m *resourceManager) Prune(maxIdleFrames uint64) {
	for id, mirror := range m.buffers {
		if m.frame-mirror.lastUsedFrame > maxIdleFrames {
			mirror.release()
			delete(m.buffers, id)
		}
	}
	for id, mirror := range m.textures {
		if m.frame-mirror.lastUsedFrame > maxIdleFrames {
			mirror.release()
			delete(m.textures, id)
		}
	}
}

func (m *resourceManager) Release() {
	for id, mirror := range m.buffers {
		mirror.release()
		delete(m.buffers, id)
	}
	for id, mirror := range m.textures {
		mirror.release()
		delete(m.textures, id)
	}
	if m.dummyView != nil {
		m.dummyView.Release()
		m.dummyView = nil
	}
	if m.dummyTexture != nil {
		m.dummyTexture.Release()
		m.dummyTexture = nil
	}
}
