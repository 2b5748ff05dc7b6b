// package dynamic_buffer batches every per-draw object uniform for a frame
// into one growable GPU buffer bound through a single bind group with dynamic
// offsets, instead of one bind group per object.
package dynamic_buffer

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/google/uuid"

	"github.com/ember-gfx/ember-go/common"
)

// UniformStride is the byte distance between consecutive object uniforms in
// the shared buffer. 256 is the guaranteed minimum dynamic-offset alignment.
const UniformStride = 256

// ObjectUniform is the per-draw uniform block: the world matrix and its
// inverse-transpose for normal transformation. Both column-major.
type ObjectUniform struct {
	Model        [16]float32
	NormalMatrix [16]float32
}

// packUniforms lays uniforms out at the dynamic-offset stride.
func packUniforms(uniforms []ObjectUniform) []byte {
	out := make([]byte, len(uniforms)*UniformStride)
	for i := range uniforms {
		copy(out[i*UniformStride:], common.StructToBytes(&uniforms[i]))
	}
	return out
}

// nextObjectCapacity doubles from current until needed fits, with a floor of
// 64 objects.
func nextObjectCapacity(current, needed int) int {
	c := current
	if c < 64 {
		c = 64
	}
	for c < needed {
		c *= 2
	}
	return c
}

// manager is the implementation of the Manager interface.
type manager struct {
	device *wgpu.Device
	queue  *wgpu.Queue

	buffer         *wgpu.Buffer
	objectCapacity int
	physicalID     uuid.UUID

	layout    *wgpu.BindGroupLayout
	bindGroup *wgpu.BindGroup

	invalidationHooks []func()
}

// Manager owns the shared per-object dynamic uniform buffer. One
// WriteAndExpand call per frame uploads every object uniform; draws bind the
// shared bind group with OffsetFor(index).
//
// Growing the buffer changes its physical identity, which silently breaks
// every cached bind group embedding the old buffer reference. Registered
// invalidation hooks run on every growth so dependent caches clear themselves;
// this fan-out must stay explicit because the dynamic-uniform bind group
// embeds a fixed buffer reference, not a versioned handle.
type Manager interface {
	// WriteAndExpand uploads the frame's object uniforms, growing the buffer
	// when they no longer fit. An empty slice is a no-op and never triggers
	// resize logic.
	//
	// Parameters:
	//   - uniforms: all per-draw uniforms for the frame, in draw index order
	//
	// Returns:
	//   - bool: true when the backing buffer was recreated this call
	//   - error: buffer or bind group creation failure
	WriteAndExpand(uniforms []ObjectUniform) (bool, error)

	// BindGroup returns the shared dynamic-offset bind group, or nil before
	// the first WriteAndExpand.
	//
	// Returns:
	//   - *wgpu.BindGroup: the shared bind group or nil
	BindGroup() *wgpu.BindGroup

	// Layout returns the bind group layout for pipeline creation.
	//
	// Returns:
	//   - *wgpu.BindGroupLayout: the dynamic-uniform bind group layout
	Layout() *wgpu.BindGroupLayout

	// OffsetFor returns the dynamic offset for the uniform at draw index i.
	//
	// Parameters:
	//   - i: the draw index assigned during extraction
	//
	// Returns:
	//   - uint32: the byte offset into the shared buffer
	OffsetFor(i int) uint32

	// PhysicalID identifies the current backing buffer; it changes on growth.
	//
	// Returns:
	//   - uuid.UUID: the physical identity of the backing buffer
	PhysicalID() uuid.UUID

	// OnInvalidate registers a hook invoked whenever the backing buffer is
	// recreated. Dependent caches register here once at startup.
	//
	// Parameters:
	//   - fn: the hook to invoke on recreation
	OnInvalidate(fn func())

	// Release frees the buffer, bind group, and layout.
	Release()
}

var _ Manager = &manager{}

// NewManager creates a dynamic uniform buffer manager. The bind group layout
// is created immediately; the buffer is allocated on first use.
//
// Parameters:
//   - device: the WebGPU device
//   - queue: the WebGPU queue used for uniform uploads
//
// Returns:
//   - Manager: a new Manager instance
//   - error: layout creation failure
func NewManager(device *wgpu.Device, queue *wgpu.Queue) (Manager, error) {
	layout, err := device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "object dynamic uniforms",
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: wgpu.ShaderStageVertex,
				Buffer: wgpu.BufferBindingLayout{
					Type:             wgpu.BufferBindingTypeUniform,
					HasDynamicOffset: true,
					MinBindingSize:   UniformStride,
				},
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create dynamic uniform layout: %w", err)
	}
	return &manager{
		device: device,
		queue:  queue,
		layout: layout,
	}, nil
}

func (m *manager) WriteAndExpand(uniforms []ObjectUniform) (bool, error) {
	if len(uniforms) == 0 {
		return false, nil
	}

	grew := false
	if m.buffer == nil || len(uniforms) > m.objectCapacity {
		if err := m.grow(len(uniforms)); err != nil {
			return false, err
		}
		grew = true
	}

	m.queue.WriteBuffer(m.buffer, 0, packUniforms(uniforms))
	return grew, nil
}

// grow recreates the backing buffer and bind group for at least needed
// objects, then notifies every registered dependent.
func (m *manager) grow(needed int) error {
	if m.bindGroup != nil {
		m.bindGroup.Release()
		m.bindGroup = nil
	}
	if m.buffer != nil {
		m.buffer.Release()
		m.buffer = nil
	}

	capacity := nextObjectCapacity(m.objectCapacity, needed)
	buf, err := m.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "object dynamic uniform buffer",
		Size:  uint64(capacity) * UniformStride,
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("failed to grow dynamic uniform buffer: %w", err)
	}

	bg, err := m.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "object dynamic uniforms",
		Layout: m.layout,
		Entries: []wgpu.BindGroupEntry{
			{
				Binding: 0,
				Buffer:  buf,
				Offset:  0,
				Size:    UniformStride,
			},
		},
	})
	if err != nil {
		buf.Release()
		return fmt.Errorf("failed to rebuild dynamic uniform bind group: %w", err)
	}

	m.buffer = buf
	m.bindGroup = bg
	m.objectCapacity = capacity
	m.physicalID = uuid.New()

	for _, fn := range m.invalidationHooks {
		fn()
	}
	return nil
}

func (m *manager) BindGroup() *wgpu.BindGroup {
	return m.bindGroup
}

func (m *manager) Layout() *wgpu.BindGroupLayout {
	return m.layout
}

func (m *manager) OffsetFor(i int) uint32 {
	return uint32(i) * UniformStride
}

func (m *manager) PhysicalID() uuid.UUID {
	return m.physicalID
}

func (m *manager) OnInvalidate(fn func()) {
	m.invalidationHooks = append(m.invalidationHooks, fn)
}

func (m *manager) Release() {
	if m.bindGroup != nil {
		m.bindGroup.Release()
		m.bindGroup = nil
	}
	if m.buffer != nil {
		m.buffer.Release()
		m.buffer = nil
	}
	if m.layout != nil {
		m.layout.Release()
		m.layout = nil
	}
}
