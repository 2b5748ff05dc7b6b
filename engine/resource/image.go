package resource

import (
	"sync"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/google/uuid"
)

// image is the implementation of the Image interface.
type image struct {
	id      uuid.UUID
	label   string
	tracker Tracker

	mu     sync.RWMutex
	pixels []byte
	width  uint32
	height uint32
	format wgpu.TextureFormat
	mips   uint32
}

// Image is a CPU-side pixel image with a stable identity and split change
// counters: Version tracks pixel content changes that can be re-uploaded in
// place, Generation tracks structural changes (size, format, mip count) that
// force the GPU texture to be recreated.
//
// An Image with no pixel data yet (async load in flight) is valid; consumers
// are expected to skip draws that sample it until data arrives.
type Image interface {
	// ID returns the stable identity of this image.
	//
	// Returns:
	//   - uuid.UUID: the image identity
	ID() uuid.UUID

	// Label returns the debug label for this image.
	//
	// Returns:
	//   - string: the debug label
	Label() string

	// Version returns the current content version.
	//
	// Returns:
	//   - uint64: the monotonically increasing content version
	Version() uint64

	// Generation returns the current structural generation.
	//
	// Returns:
	//   - uint64: the generation counter
	Generation() uint64

	// Descriptor returns the structural properties of the image.
	//
	// Returns:
	//   - uint32: width in pixels
	//   - uint32: height in pixels
	//   - wgpu.TextureFormat: pixel format
	//   - uint32: mip level count
	Descriptor() (uint32, uint32, wgpu.TextureFormat, uint32)

	// HasData reports whether pixel data is present.
	//
	// Returns:
	//   - bool: true if pixel data has been set
	HasData() bool

	// Read invokes fn with the current pixel data under the read lock. The
	// slice must not be retained or mutated past the callback.
	//
	// Parameters:
	//   - fn: callback receiving the pixel data
	Read(fn func(pixels []byte))

	// SetPixels replaces the pixel contents without changing the structure
	// and bumps the version once. The byte length must match the current
	// descriptor; callers resizing the image use Reshape instead.
	//
	// Parameters:
	//   - pixels: the new pixel data; the slice is copied
	SetPixels(pixels []byte)

	// Reshape replaces the structural properties and pixel contents in one
	// mutation, bumping the generation (and therefore the version).
	//
	// Parameters:
	//   - width: new width in pixels
	//   - height: new height in pixels
	//   - format: new pixel format
	//   - mips: new mip level count (minimum 1)
	//   - pixels: new pixel data; the slice is copied, may be nil
	Reshape(width, height uint32, format wgpu.TextureFormat, mips uint32, pixels []byte)
}

var _ Image = &image{}

// NewImage creates a CPU image with a fresh identity.
//
// Parameters:
//   - label: debug label for the image
//   - width: width in pixels
//   - height: height in pixels
//   - format: pixel format
//
// Returns:
//   - Image: a new Image instance with no pixel data
func NewImage(label string, width, height uint32, format wgpu.TextureFormat) Image {
	return &image{
		id:     uuid.New(),
		label:  label,
		width:  width,
		height: height,
		format: format,
		mips:   1,
	}
}

func (i *image) ID() uuid.UUID {
	return i.id
}

func (i *image) Label() string {
	return i.label
}

func (i *image) Version() uint64 {
	return i.tracker.Version()
}

func (i *image) Generation() uint64 {
	return i.tracker.Generation()
}

func (i *image) Descriptor() (uint32, uint32, wgpu.TextureFormat, uint32) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.width, i.height, i.format, i.mips
}

func (i *image) HasData() bool {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return len(i.pixels) > 0
}

func (i *image) Read(fn func(pixels []byte)) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	fn(i.pixels)
}

func (i *image) SetPixels(pixels []byte) {
	i.mu.Lock()
	if cap(i.pixels) >= len(pixels) {
		i.pixels = i.pixels[:len(pixels)]
	} else {
		i.pixels = make([]byte, len(pixels))
	}
	copy(i.pixels, pixels)
	i.mu.Unlock()
	i.tracker.Bump()
}

func (i *image) Reshape(width, height uint32, format wgpu.TextureFormat, mips uint32, pixels []byte) {
	if mips == 0 {
		mips = 1
	}
	i.mu.Lock()
	i.width = width
	i.height = height
	i.format = format
	i.mips = mips
	i.pixels = append(i.pixels[:0], pixels...)
	i.mu.Unlock()
	i.tracker.BumpStructural()
}
