package renderer

import (
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ember-gfx/ember-go/engine/mesh"
	"github.com/ember-gfx/ember-go/engine/renderer/gpu_resource"
	"github.com/ember-gfx/ember-go/engine/renderer/material"
	"github.com/ember-gfx/ember-go/engine/renderer/shader"
	"github.com/ember-gfx/ember-go/engine/resource"
	"github.com/ember-gfx/ember-go/engine/scene"
)

// mirrorManager implements gpu_resource.ResourceManager over an in-memory
// mirror map keyed the way the real manager keys it, recording every id the
// renderer queries buffers with.
type mirrorManager struct {
	mirrors map[uuid.UUID]*wgpu.Buffer
	queried []uuid.UUID
}

var _ gpu_resource.ResourceManager = &mirrorManager{}

func (m *mirrorManager) EnsureBuffer(buf resource.Buffer, _ wgpu.BufferUsage) (gpu_resource.EnsureResult, error) {
	if m.mirrors == nil {
		m.mirrors = make(map[uuid.UUID]*wgpu.Buffer)
	}
	if _, ok := m.mirrors[buf.ID()]; !ok {
		m.mirrors[buf.ID()] = &wgpu.Buffer{}
	}
	return gpu_resource.EnsureResult{PhysicalID: uuid.New()}, nil
}

func (m *mirrorManager) EnsureTexture(resource.Image) (gpu_resource.EnsureResult, error) {
	return gpu_resource.EnsureResult{}, gpu_resource.ErrNotReady
}

func (m *mirrorManager) Buffer(id uuid.UUID) *wgpu.Buffer {
	m.queried = append(m.queried, id)
	return m.mirrors[id]
}

func (m *mirrorManager) TextureView(uuid.UUID) *wgpu.TextureView { return nil }
func (m *mirrorManager) DummyTextureView() *wgpu.TextureView     { return nil }
func (m *mirrorManager) BeginFrame(uint64)                       {}
func (m *mirrorManager) Prune(uint64)                            {}
func (m *mirrorManager) Release()                                {}

func TestResolveGeometryLooksUpMirrorsByContentIdentity(t *testing.T) {
	manager := &mirrorManager{}
	r := &renderer{resources: manager}
	cube := mesh.NewCube("cube", 1.0)

	vertexBuffer, indexBuffer, err := r.resolveGeometry(cube)
	require.NoError(t, err)
	assert.NotNil(t, vertexBuffer, "vertex mirror must resolve to a physical buffer")
	assert.NotNil(t, indexBuffer, "index mirror must resolve to a physical buffer")

	// The manager keys mirrors by the CPU buffer id, so those are the only
	// ids a lookup may use.
	assert.Contains(t, manager.queried, cube.VertexBuffer().ID())
	assert.Contains(t, manager.queried, cube.IndexBuffer().ID())
	for _, id := range manager.queried {
		_, known := manager.mirrors[id]
		assert.True(t, known, "buffer lookup used an id no mirror is stored under")
	}
}

func TestMaterialKeysAssignedInFirstSeenOrder(t *testing.T) {
	r := &renderer{materialKeys: make(map[uuid.UUID]uint32)}

	a := uuid.New()
	b := uuid.New()

	keyA := r.materialKey(a)
	keyB := r.materialKey(b)

	assert.Equal(t, uint32(1), keyA)
	assert.Equal(t, uint32(2), keyB)
	assert.Equal(t, keyA, r.materialKey(a), "repeat lookups must be stable")
	assert.Equal(t, keyB, r.materialKey(b))
}

func TestExpandShaderProducesVariantKeys(t *testing.T) {
	registry := shader.NewRegistry()
	shader.RegisterBuiltins(registry)
	r := &renderer{
		registry:     registry,
		preProcessor: shader.NewPreProcessor(),
	}

	plain, err := r.expandShader(shader.TemplatePBR, nil, shader.ShaderTypeFragment, "fs_main")
	require.NoError(t, err)
	assert.Equal(t, "fs_main", plain.EntryPoint())

	textured, err := r.expandShader(shader.TemplatePBR, []string{"USE_BASE_COLOR_MAP"}, shader.ShaderTypeFragment, "fs_main")
	require.NoError(t, err)

	assert.NotEqual(t, plain.Key(), textured.Key(), "define sets must key distinct variants")
	assert.NotEqual(t, plain.Source(), textured.Source())
	assert.Contains(t, textured.Source(), "base_color_map")
}

func TestExpandShaderUnknownTemplate(t *testing.T) {
	r := &renderer{
		registry:     shader.NewRegistry(),
		preProcessor: shader.NewPreProcessor(),
	}

	_, err := r.expandShader("missing_template", nil, shader.ShaderTypeVertex, "vs_main")
	require.Error(t, err)
}

func TestSyncHandlesIndexesSceneHandles(t *testing.T) {
	s := scene.NewScene()
	cube := mesh.NewCube("cube", 1)
	sphere := mesh.NewSphere("sphere", 1, 8, 8)
	matA := material.NewPBRMaterial("stone")
	matB := material.NewPBRMaterial("glass", material.WithTransmission(0.9))
	s.Add(scene.NewObject("floor", cube, matA))
	s.Add(scene.NewObject("orb", sphere, matB))

	r := &renderer{
		meshes:    make(map[uuid.UUID]mesh.Mesh),
		materials: make(map[uuid.UUID]material.Material),
	}
	r.syncHandles(s)

	assert.Len(t, r.meshes, 2)
	assert.Len(t, r.materials, 2)
	assert.Equal(t, cube, r.meshes[cube.ID()])
	assert.Equal(t, matB, r.materials[matB.ID()])

	// A second sync after removal drops the stale handle.
	s.Clear()
	r.syncHandles(s)
	assert.Empty(t, r.meshes)
	assert.Empty(t, r.materials)
}

func TestResizeIgnoresDegenerateSizes(t *testing.T) {
	r := &renderer{width: 800, height: 600}

	require.NoError(t, r.Resize(0, 600))
	require.NoError(t, r.Resize(800, 0))
	assert.Equal(t, 800, r.width)
	assert.Equal(t, 600, r.height)
}
