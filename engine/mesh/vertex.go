package mesh

import (
	"unsafe"

	"github.com/chewxy/math32"
	"github.com/cogentcore/webgpu/wgpu"

	"github.com/ember-gfx/ember-go/common"
)

// Vertex is the GPU-aligned representation of a single mesh vertex.
// Matches the WGSL VertexInput struct layout exactly.
// Size: 64 bytes (std430 aligned, no padding required).
type Vertex struct {
	Position [3]float32 // offset  0: vertex position in model space (12 bytes)
	Normal   [3]float32 // offset 12: vertex normal for lighting (12 bytes)
	TexCoord [2]float32 // offset 24: UV texture coordinate (8 bytes)
	Color    [4]float32 // offset 32: per-vertex RGBA color (16 bytes)
	Tangent  [4]float32 // offset 48: tangent vector (xyz) + handedness (w) for normal mapping (16 bytes)
}

// VertexSize is the byte stride of one Vertex.
const VertexSize = int(unsafe.Sizeof(Vertex{}))

// PackVertices serializes a vertex slice into a byte buffer suitable for GPU
// upload.
//
// Parameters:
//   - vertices: the vertices to serialize
//
// Returns:
//   - []byte: the packed vertex data
func PackVertices(vertices []Vertex) []byte {
	return common.SliceToBytes(vertices)
}

// PackIndices serializes an index slice into a byte buffer suitable for GPU
// upload.
//
// Parameters:
//   - indices: the indices to serialize
//
// Returns:
//   - []byte: the packed index data
func PackIndices(indices []uint32) []byte {
	return common.SliceToBytes(indices)
}

// VertexBufferLayout returns the wgpu vertex buffer layout matching the Vertex
// struct, attributes at shader locations 0 through 4.
//
// Returns:
//   - wgpu.VertexBufferLayout: the vertex layout for render pipelines
func VertexBufferLayout() wgpu.VertexBufferLayout {
	return wgpu.VertexBufferLayout{
		ArrayStride: uint64(VertexSize),
		StepMode:    wgpu.VertexStepModeVertex,
		Attributes: []wgpu.VertexAttribute{
			{Format: wgpu.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},
			{Format: wgpu.VertexFormatFloat32x3, Offset: 12, ShaderLocation: 1},
			{Format: wgpu.VertexFormatFloat32x2, Offset: 24, ShaderLocation: 2},
			{Format: wgpu.VertexFormatFloat32x4, Offset: 32, ShaderLocation: 3},
			{Format: wgpu.VertexFormatFloat32x4, Offset: 48, ShaderLocation: 4},
		},
	}
}

// ComputeBounds calculates the model-space bounding sphere of a vertex slice,
// centered on the positions' centroid.
//
// Parameters:
//   - vertices: the vertices to bound
//
// Returns:
//   - common.BoundingSphere: the enclosing sphere, zero for an empty slice
func ComputeBounds(vertices []Vertex) common.BoundingSphere {
	if len(vertices) == 0 {
		return common.BoundingSphere{}
	}
	var center [3]float32
	for _, v := range vertices {
		center[0] += v.Position[0]
		center[1] += v.Position[1]
		center[2] += v.Position[2]
	}
	inv := 1.0 / float32(len(vertices))
	center[0] *= inv
	center[1] *= inv
	center[2] *= inv

	var maxDistSq float32
	for _, v := range vertices {
		dx := v.Position[0] - center[0]
		dy := v.Position[1] - center[1]
		dz := v.Position[2] - center[2]
		distSq := dx*dx + dy*dy + dz*dz
		if distSq > maxDistSq {
			maxDistSq = distSq
		}
	}
	return common.BoundingSphere{
		Center: center,
		Radius: math32.Sqrt(maxDistSq),
	}
}
