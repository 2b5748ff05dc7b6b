package gpu_resource

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/google/uuid"
)

// textureAction is the decision taken for one texture ensure call.
type textureAction int

const (
	textureActionNoop textureAction = iota
	textureActionUpload
	textureActionRecreate
)

// decideTextureAction picks the action for a texture at (version, generation)
// given the mirror's last seen counters. A generation change always forces a
// full recreate because size and format cannot be patched in place.
func decideTextureAction(exists bool, lastVersion, lastGeneration, version, generation uint64) textureAction {
	if !exists || generation != lastGeneration {
		return textureActionRecreate
	}
	if version <= lastVersion {
		return textureActionNoop
	}
	return textureActionUpload
}

// gpuTexture is the GPU mirror of one CPU image.
type gpuTexture struct {
	texture    *wgpu.Texture
	view       *wgpu.TextureView
	physicalID uuid.UUID

	width  uint32
	height uint32
	format wgpu.TextureFormat
	mips   uint32

	lastVersion    uint64
	lastGeneration uint64
	lastUsedFrame  uint64
}

// recreate releases and rebuilds the physical texture for the given structure,
// assigning a fresh physical id.
func (g *gpuTexture) recreate(device *wgpu.Device, label string, width, height uint32, format wgpu.TextureFormat, mips uint32) error {
	g.release()

	tex, err := device.CreateTexture(&wgpu.TextureDescriptor{
		Label:     label,
		Usage:     wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
		Dimension: wgpu.TextureDimension2D,
		Size: wgpu.Extent3D{
			Width:              width,
			Height:             height,
			DepthOrArrayLayers: 1,
		},
		Format:        format,
		MipLevelCount: mips,
		SampleCount:   1,
	})
	if err != nil {
		return fmt.Errorf("failed to create texture %s: %w", label, err)
	}
	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return fmt.Errorf("failed to create texture view %s: %w", label, err)
	}

	g.texture = tex
	g.view = view
	g.physicalID = uuid.New()
	g.width = width
	g.height = height
	g.format = format
	g.mips = mips
	return nil
}

// upload writes pixel data into mip 0 of the existing texture.
func (g *gpuTexture) upload(queue *wgpu.Queue, pixels []byte) {
	if len(pixels) == 0 {
		return
	}
	queue.WriteTexture(
		&wgpu.ImageCopyTexture{
			Texture:  g.texture,
			MipLevel: 0,
			Origin:   wgpu.Origin3D{},
			Aspect:   wgpu.TextureAspectAll,
		},
		pixels,
		&wgpu.TextureDataLayout{
			Offset:       0,
			BytesPerRow:  g.width * bytesPerPixel(g.format),
			RowsPerImage: g.height,
		},
		&wgpu.Extent3D{
			Width:              g.width,
			Height:             g.height,
			DepthOrArrayLayers: 1,
		},
	)
}

// release frees the physical texture and its view.
func (g *gpuTexture) release() {
	if g.view != nil {
		g.view.Release()
		g.view = nil
	}
	if g.texture != nil {
		g.texture.Release()
		g.texture = nil
	}
}

// bytesPerPixel returns the per-texel byte size for the formats this engine
// uploads from the CPU. Unknown formats fall back to 4.
func bytesPerPixel(format wgpu.TextureFormat) uint32 {
	switch format {
	case wgpu.TextureFormatRGBA16Float:
		return 8
	case wgpu.TextureFormatRGBA32Float:
		return 16
	case wgpu.TextureFormatR8Unorm:
		return 1
	case wgpu.TextureFormatRG8Unorm:
		return 2
	default:
		return 4
	}
}
