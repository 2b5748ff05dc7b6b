// package mesh holds CPU-side geometry: vertex and index data kept in
// versioned resource buffers the renderer mirrors to the GPU, plus the vertex
// layout and bounding volume the extractor and pipeline cache consume.
package mesh

import (
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/google/uuid"

	"github.com/ember-gfx/ember-go/common"
	"github.com/ember-gfx/ember-go/engine/resource"
)

// mesh is the implementation of the Mesh interface.
type mesh struct {
	name         string
	vertexBuffer resource.Buffer
	indexBuffer  resource.Buffer
	indexCount   uint32
	bounds       common.BoundingSphere
}

// Mesh is a GPU-ready geometry container. Its vertex and index contents live
// in versioned CPU buffers; editing geometry through SetGeometry bumps the
// buffer versions so the resource manager re-uploads on the next frame.
type Mesh interface {
	// Name retrieves the mesh identifier.
	//
	// Returns:
	//   - string: the mesh name
	Name() string

	// ID returns the stable geometry identity, shared with the vertex
	// buffer. Sort keys and pipeline fast keys are built on it.
	//
	// Returns:
	//   - uuid.UUID: the geometry identity
	ID() uuid.UUID

	// Version returns the geometry content version, increasing whenever the
	// vertex or index contents change.
	//
	// Returns:
	//   - uint64: the combined content version
	Version() uint64

	// VertexBuffer returns the CPU vertex buffer.
	//
	// Returns:
	//   - resource.Buffer: the vertex buffer
	VertexBuffer() resource.Buffer

	// IndexBuffer returns the CPU index buffer.
	//
	// Returns:
	//   - resource.Buffer: the index buffer
	IndexBuffer() resource.Buffer

	// IndexCount returns the number of indices to draw.
	//
	// Returns:
	//   - uint32: the index count
	IndexCount() uint32

	// IndexFormat returns the GPU index format for the index buffer.
	//
	// Returns:
	//   - wgpu.IndexFormat: always 32-bit indices
	IndexFormat() wgpu.IndexFormat

	// Bounds returns the model-space bounding sphere used for frustum
	// culling and depth sorting.
	//
	// Returns:
	//   - common.BoundingSphere: the bounding sphere
	Bounds() common.BoundingSphere

	// SetGeometry replaces the vertex and index contents in one edit,
	// recomputing the bounding sphere and bumping both buffer versions.
	//
	// Parameters:
	//   - vertices: the new vertex data
	//   - indices: the new index data
	SetGeometry(vertices []Vertex, indices []uint32)
}

var _ Mesh = &mesh{}

// NewMesh creates a mesh from vertex and index data.
//
// Parameters:
//   - name: the mesh identifier, also used as the buffer debug label
//   - vertices: the vertex data
//   - indices: the index data
//
// Returns:
//   - Mesh: a new Mesh instance
func NewMesh(name string, vertices []Vertex, indices []uint32) Mesh {
	m := &mesh{
		name:         name,
		vertexBuffer: resource.NewBuffer(name+"/vertices", nil),
		indexBuffer:  resource.NewBuffer(name+"/indices", nil),
	}
	m.SetGeometry(vertices, indices)
	return m
}

func (m *mesh) Name() string {
	return m.name
}

func (m *mesh) ID() uuid.UUID {
	return m.vertexBuffer.ID()
}

func (m *mesh) Version() uint64 {
	return m.vertexBuffer.Version() + m.indexBuffer.Version()
}

func (m *mesh) VertexBuffer() resource.Buffer {
	return m.vertexBuffer
}

func (m *mesh) IndexBuffer() resource.Buffer {
	return m.indexBuffer
}

func (m *mesh) IndexCount() uint32 {
	return m.indexCount
}

func (m *mesh) IndexFormat() wgpu.IndexFormat {
	return wgpu.IndexFormatUint32
}

func (m *mesh) Bounds() common.BoundingSphere {
	return m.bounds
}

func (m *mesh) SetGeometry(vertices []Vertex, indices []uint32) {
	m.vertexBuffer.SetData(PackVertices(vertices))
	m.indexBuffer.SetData(PackIndices(indices))
	m.indexCount = uint32(len(indices))
	m.bounds = ComputeBounds(vertices)
}
