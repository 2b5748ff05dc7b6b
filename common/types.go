// package common contains common types that are used throughout this engine. They are not interface-wrapped structs, just plain structs that express
// commonly used data-types.
package common

import (
	"github.com/cogentcore/webgpu/wgpu"
)

// TextureStagingData holds RGBA pixel data for a texture binding pending GPU upload.
// This is primarily used by the resource manager to stage texture data before creating the GPU texture and bind group.
type TextureStagingData struct {
	// Pixels is the byte slice representing the actual pixel data for the texture. It should be in RGBA format, with 4 bytes per pixel.
	Pixels []byte
	// Width is the width of the texture in pixels. This is required to correctly create the GPU texture and interpret the pixel data.
	Width uint32
	// Height is the height of the texture in pixels. This is required to correctly create the GPU texture and interpret the pixel data.
	Height uint32
}

// SamplerStagingData holds the configuration for a sampler binding pending GPU creation.
// This is primarily used by the resource manager to stage sampler configuration before creating the GPU sampler and bind group.
type SamplerStagingData struct {
	// AddressModeU, AddressModeV, AddressModeW specify the addressing mode for texture coordinates outside the [0, 1] range in each dimension (U, V, W).
	AddressModeU, AddressModeV, AddressModeW wgpu.AddressMode
	// MagFilter and MinFilter specify the filtering mode for magnification and minification.
	MagFilter, MinFilter wgpu.FilterMode
	// MipmapFilter specifies the filtering mode for mipmap level selection.
	MipmapFilter wgpu.MipmapFilterMode
	// LodMinClamp and LodMaxClamp specify the minimum and maximum level of detail (LOD) for mipmapping.
	LodMinClamp, LodMaxClamp float32
	// Compare specifies the comparison function for comparison samplers, used in shadow mapping and similar techniques.
	Compare wgpu.CompareFunction
	// MaxAnisotropy specifies the maximum anisotropy level for anisotropic filtering, which can improve texture quality at oblique viewing angles.
	MaxAnisotropy uint16
}

// BoundingSphere is an object-space bounding volume. A zero-radius sphere is
// treated as "unknown bounds" by the culler and never rejected.
type BoundingSphere struct {
	// Center is the sphere center in object space.
	Center [3]float32
	// Radius is the sphere radius in object units.
	Radius float32
}

// TransformSphere transforms an object-space bounding sphere by a column-major
// world matrix, scaling the radius by the largest axis scale so the result
// always encloses the transformed geometry.
//
// Parameters:
//   - sphere: object-space bounding sphere
//   - world: 16 float32 values representing the world matrix (column-major)
//
// Returns:
//   - BoundingSphere: the world-space bounding sphere
func TransformSphere(sphere BoundingSphere, world []float32) BoundingSphere {
	cx, cy, cz := sphere.Center[0], sphere.Center[1], sphere.Center[2]
	out := BoundingSphere{
		Center: [3]float32{
			world[0]*cx + world[4]*cy + world[8]*cz + world[12],
			world[1]*cx + world[5]*cy + world[9]*cz + world[13],
			world[2]*cx + world[6]*cy + world[10]*cz + world[14],
		},
	}

	sx := world[0]*world[0] + world[1]*world[1] + world[2]*world[2]
	sy := world[4]*world[4] + world[5]*world[5] + world[6]*world[6]
	sz := world[8]*world[8] + world[9]*world[9] + world[10]*world[10]
	maxScaleSq := sx
	if sy > maxScaleSq {
		maxScaleSq = sy
	}
	if sz > maxScaleSq {
		maxScaleSq = sz
	}
	out.Radius = sphere.Radius * sqrt32(maxScaleSq)
	return out
}

// DistanceSquared returns the squared distance between two points. Cheap
// depth metric for sort keys, avoids the sqrt.
//
// Parameters:
//   - ax, ay, az: first point
//   - bx, by, bz: second point
//
// Returns:
//   - float32: squared distance between the points
func DistanceSquared(ax, ay, az, bx, by, bz float32) float32 {
	dx := ax - bx
	dy := ay - by
	dz := az - bz
	return dx*dx + dy*dy + dz*dz
}
