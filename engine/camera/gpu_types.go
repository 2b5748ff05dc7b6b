package camera

import (
	"unsafe"

	"github.com/ember-gfx/ember-go/common"
)

// GPUCameraUniform is the GPU-aligned representation of the camera uniform
// block. Matches the WGSL CameraUniform struct layout exactly.
// Size: 80 bytes (std430 / WGSL aligned).
type GPUCameraUniform struct {
	ViewProj       [16]float32 // offset  0: combined view-projection matrix (mat4x4<f32>)
	CameraPosition [3]float32  // offset 64: world-space camera position (vec3<f32>)
	_pad           float32     // offset 76: padding to 80 bytes
}

// Size returns the size of the GPUCameraUniform struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (80)
func (g *GPUCameraUniform) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUCameraUniform struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: the serialized byte buffer
func (g *GPUCameraUniform) Marshal() []byte {
	out := make([]byte, g.Size())
	copy(out, common.StructToBytes(g))
	return out
}

// UniformFor captures a camera's current state into the uniform block.
//
// Parameters:
//   - cam: the camera to capture
//
// Returns:
//   - GPUCameraUniform: the uniform contents for this frame
func UniformFor(cam Camera) GPUCameraUniform {
	x, y, z := cam.Position()
	return GPUCameraUniform{
		ViewProj:       cam.ViewProjectionMatrix(),
		CameraPosition: [3]float32{x, y, z},
	}
}
