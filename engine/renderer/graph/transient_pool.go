package graph

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
)

// TransientTextureID is a frame-scoped handle into the transient pool. It is
// valid only until Reset; holding one across frames is a contract violation.
type TransientTextureID int

// TransientDescriptor is the pool key: two requests with equal descriptors
// are interchangeable, letting a freed texture satisfy a later request
// without reallocation.
type TransientDescriptor struct {
	Width       uint32
	Height      uint32
	Format      wgpu.TextureFormat
	Usage       wgpu.TextureUsage
	MipCount    uint32
	SampleCount uint32
}

// transientEntry is one pooled texture with its recycling bookkeeping.
type transientEntry struct {
	descriptor    TransientDescriptor
	texture       *wgpu.Texture
	view          *wgpu.TextureView
	lastUsedFrame uint64
}

// transientAllocator creates the physical texture for a descriptor.
// Swappable so pool recycling is testable without a device.
type transientAllocator func(label string, desc TransientDescriptor) (*wgpu.Texture, *wgpu.TextureView, error)

// TransientPool is the frame-scoped texture allocator. Acquire hands out
// pool-owned textures during prepare; Reset at frame end returns every active
// texture to the free list instead of destroying it, and Trim drops free
// entries that have sat idle too long.
type TransientPool struct {
	device   *wgpu.Device
	allocate transientAllocator

	active []*transientEntry
	free   map[TransientDescriptor][]*transientEntry

	frame       uint64
	allocations uint64
}

// NewTransientPool creates a pool bound to a device.
//
// Parameters:
//   - device: the WebGPU device used for texture creation
//
// Returns:
//   - *TransientPool: a new TransientPool instance
func NewTransientPool(device *wgpu.Device) *TransientPool {
	p := &TransientPool{
		device: device,
		free:   make(map[TransientDescriptor][]*transientEntry),
	}
	p.allocate = p.allocateTexture
	return p
}

// Acquire returns a texture matching the descriptor, recycling a free entry
// when one matches and allocating otherwise. The returned id is valid until
// Reset.
//
// Parameters:
//   - label: debug label used if a new texture is allocated
//   - desc: the descriptor the texture must match
//
// Returns:
//   - TransientTextureID: the frame-scoped handle
//   - error: allocation failure
func (p *TransientPool) Acquire(label string, desc TransientDescriptor) (TransientTextureID, error) {
	if entries := p.free[desc]; len(entries) > 0 {
		entry := entries[len(entries)-1]
		p.free[desc] = entries[:len(entries)-1]
		entry.lastUsedFrame = p.frame
		p.active = append(p.active, entry)
		return TransientTextureID(len(p.active) - 1), nil
	}

	texture, view, err := p.allocate(label, desc)
	if err != nil {
		return 0, err
	}
	p.allocations++
	entry := &transientEntry{
		descriptor:   desc,
		texture:      texture,
		view:         view,
		lastUsedFrame: p.frame,
	}
	p.active = append(p.active, entry)
	return TransientTextureID(len(p.active) - 1), nil
}

// View returns the view for an active id. An id outside the active range is
// a programmer error and panics.
//
// Parameters:
//   - id: a handle returned by Acquire this frame
//
// Returns:
//   - *wgpu.TextureView: the texture view
func (p *TransientPool) View(id TransientTextureID) *wgpu.TextureView {
	return p.entry(id).view
}

// Texture returns the texture for an active id, for copy operations.
//
// Parameters:
//   - id: a handle returned by Acquire this frame
//
// Returns:
//   - *wgpu.Texture: the texture
func (p *TransientPool) Texture(id TransientTextureID) *wgpu.Texture {
	return p.entry(id).texture
}

// Descriptor returns the descriptor an active id was acquired with.
//
// Parameters:
//   - id: a handle returned by Acquire this frame
//
// Returns:
//   - TransientDescriptor: the descriptor
func (p *TransientPool) Descriptor(id TransientTextureID) TransientDescriptor {
	return p.entry(id).descriptor
}

func (p *TransientPool) entry(id TransientTextureID) *transientEntry {
	if id < 0 || int(id) >= len(p.active) {
		panic(fmt.Sprintf("transient texture id %d out of range (%d active)", id, len(p.active)))
	}
	return p.active[id]
}

// Reset returns every active texture to the free list and invalidates all
// outstanding ids. Called once at frame end.
func (p *TransientPool) Reset() {
	for _, entry := range p.active {
		p.free[entry.descriptor] = append(p.free[entry.descriptor], entry)
	}
	p.active = p.active[:0]
	p.frame++
}

// Trim releases free textures not used for more than maxIdleFrames frames,
// bounding pool growth after a resolution change stops their descriptors
// being requested.
//
// Parameters:
//   - maxIdleFrames: idle threshold in frames
func (p *TransientPool) Trim(maxIdleFrames uint64) {
	for desc, entries := range p.free {
		kept := entries[:0]
		for _, entry := range entries {
			if p.frame-entry.lastUsedFrame > maxIdleFrames {
				entry.release()
			} else {
				kept = append(kept, entry)
			}
		}
		if len(kept) == 0 {
			delete(p.free, desc)
		} else {
			p.free[desc] = kept
		}
	}
}

// Allocations reports how many physical textures the pool has ever created;
// a steady-state frame sequence should not move it.
//
// Returns:
//   - uint64: the lifetime allocation count
func (p *TransientPool) Allocations() uint64 {
	return p.allocations
}

// Release frees every pooled texture, active and free.
func (p *TransientPool) Release() {
	for _, entry := range p.active {
		entry.release()
	}
	p.active = nil
	for desc, entries := range p.free {
		for _, entry := range entries {
			entry.release()
		}
		delete(p.free, desc)
	}
}

func (e *transientEntry) release() {
	if e.view != nil {
		e.view.Release()
		e.view = nil
	}
	if e.texture != nil {
		e.texture.Release()
		e.texture = nil
	}
}

// allocateTexture is the default allocator backed by the device.
func (p *TransientPool) allocateTexture(label string, desc TransientDescriptor) (*wgpu.Texture, *wgpu.TextureView, error) {
	sampleCount := desc.SampleCount
	if sampleCount == 0 {
		sampleCount = 1
	}
	mips := desc.MipCount
	if mips == 0 {
		mips = 1
	}
	texture, err := p.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:     label,
		Usage:     desc.Usage,
		Dimension: wgpu.TextureDimension2D,
		Size: wgpu.Extent3D{
			Width:              desc.Width,
			Height:             desc.Height,
			DepthOrArrayLayers: 1,
		},
		Format:        desc.Format,
		MipLevelCount: mips,
		SampleCount:   sampleCount,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create transient texture %s: %w", label, err)
	}
	view, err := texture.CreateView(nil)
	if err != nil {
		texture.Release()
		return nil, nil, fmt.Errorf("failed to create transient view %s: %w", label, err)
	}
	return texture, view, nil
}
