package mesh

import (
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVertexLayoutMatchesStruct(t *testing.T) {
	assert.Equal(t, 64, VertexSize)
	layout := VertexBufferLayout()
	assert.Equal(t, uint64(VertexSize), layout.ArrayStride)
	require.Len(t, layout.Attributes, 5)
	for i, attr := range layout.Attributes {
		assert.Equal(t, uint32(i), attr.ShaderLocation)
	}
	assert.Equal(t, uint64(48), layout.Attributes[4].Offset)
}

func TestPackVerticesStride(t *testing.T) {
	data := PackVertices([]Vertex{{}, {}, {}})
	assert.Len(t, data, 3*VertexSize)
	assert.Len(t, PackIndices([]uint32{0, 1, 2}), 12)
}

func TestSetGeometryBumpsVersion(t *testing.T) {
	m := NewCube("cube", 1)
	v0 := m.Version()
	id := m.ID()

	m.SetGeometry([]Vertex{{Position: [3]float32{1, 0, 0}}}, []uint32{0})
	assert.Greater(t, m.Version(), v0)
	assert.Equal(t, id, m.ID(), "identity must survive geometry edits")
	assert.Equal(t, uint32(1), m.IndexCount())
}

func TestCubeGeometry(t *testing.T) {
	m := NewCube("cube", 2)
	assert.Equal(t, uint32(36), m.IndexCount())
	assert.Equal(t, wgpu.IndexFormatUint32, m.IndexFormat())
	assert.Equal(t, 24*VertexSize, m.VertexBuffer().Len())

	bounds := m.Bounds()
	assert.InDelta(t, 0, bounds.Center[0], 1e-5)
	// corner distance of a half-extent 2 cube
	assert.InDelta(t, 3.4641, bounds.Radius, 1e-3)
}

func TestSphereBounds(t *testing.T) {
	m := NewSphere("sphere", 3, 16, 8)
	bounds := m.Bounds()
	assert.InDelta(t, 3, bounds.Radius, 0.05)
	assert.InDelta(t, 0, bounds.Center[1], 0.05)
	assert.Equal(t, uint32(16*8*6), m.IndexCount())
}

func TestPlaneWindingAndBounds(t *testing.T) {
	m := NewPlane("ground", 10, 4)
	assert.Equal(t, uint32(6), m.IndexCount())
	bounds := m.Bounds()
	assert.InDelta(t, 5.385, bounds.Radius, 1e-2)
}
