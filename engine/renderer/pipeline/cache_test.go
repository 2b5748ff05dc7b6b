package pipeline

import (
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ember-gfx/ember-go/engine/renderer/shader"
)

func testRequest(material, geometry uuid.UUID, materialVersion uint64, fragment string) *Request {
	return &Request{
		FastKey: FastKey{
			MaterialID:      material,
			MaterialVersion: materialVersion,
			GeometryID:      geometry,
			Topology:        wgpu.PrimitiveTopologyTriangleList,
			Variant:         VariantMain,
		},
		Label:          "test",
		VertexShader:   shader.NewShader("mesh", "fn vs_main() {}", shader.ShaderTypeVertex, "vs_main"),
		FragmentShader: shader.NewShader("pbr", fragment, shader.ShaderTypeFragment, "fs_main"),
		ColorFormats:   []wgpu.TextureFormat{wgpu.TextureFormatRGBA16Float},
		DepthFormat:    wgpu.TextureFormatDepth24Plus,
		SampleCount:    4,
	}
}

func newTestCache(t *testing.T) (Cache, *int) {
	t.Helper()
	compiles := 0
	c := NewCache(nil, shader.NewRegistry(), withCompileFunc(func(req *Request, p Pipeline) error {
		compiles++
		return nil
	}))
	return c, &compiles
}

func TestFastTierHitSkipsAllWork(t *testing.T) {
	c, compiles := newTestCache(t)
	material := uuid.New()
	geometry := uuid.New()

	_, id1, err := c.Resolve(testRequest(material, geometry, 1, "fn fs_main() {}"))
	require.NoError(t, err)
	require.Equal(t, 1, *compiles)

	_, id2, err := c.Resolve(testRequest(material, geometry, 1, "fn fs_main() {}"))
	require.NoError(t, err)
	assert.Equal(t, 1, *compiles, "steady-state resolve must not recompile")
	assert.Equal(t, id1, id2, "fast hits return the same pipeline id")
}

func TestCanonicalTierDedupesAcrossMaterials(t *testing.T) {
	c, compiles := newTestCache(t)
	geometry := uuid.New()

	_, id1, err := c.Resolve(testRequest(uuid.New(), geometry, 1, "fn fs_main() {}"))
	require.NoError(t, err)
	_, id2, err := c.Resolve(testRequest(uuid.New(), geometry, 1, "fn fs_main() {}"))
	require.NoError(t, err)

	assert.Equal(t, 1, *compiles, "semantically identical pipelines share one compile")
	assert.Equal(t, id1, id2)

	fast, canonical := c.Stats()
	assert.Equal(t, 2, fast, "each material gets its own fast entry")
	assert.Equal(t, 1, canonical)
}

func TestMaterialVersionBumpMissesFastTier(t *testing.T) {
	c, compiles := newTestCache(t)
	material := uuid.New()
	geometry := uuid.New()

	_, _, err := c.Resolve(testRequest(material, geometry, 1, "fn fs_main() {}"))
	require.NoError(t, err)

	// Version bump with unchanged structural state: fast miss, canonical hit.
	_, _, err = c.Resolve(testRequest(material, geometry, 2, "fn fs_main() {}"))
	require.NoError(t, err)
	assert.Equal(t, 1, *compiles)

	// Version bump with a changed shader variant recompiles.
	_, _, err = c.Resolve(testRequest(material, geometry, 3, "fn fs_main() { let x = 1.0; }"))
	require.NoError(t, err)
	assert.Equal(t, 2, *compiles)
}

func TestVariantsCompileSeparately(t *testing.T) {
	c, compiles := newTestCache(t)
	material := uuid.New()
	geometry := uuid.New()

	main := testRequest(material, geometry, 1, "fn fs_main() {}")
	shadow := testRequest(material, geometry, 1, "fn fs_main() {}")
	shadow.FastKey.Variant = VariantShadow
	shadow.FragmentShader = nil
	shadow.ColorFormats = nil
	shadow.DepthFormat = wgpu.TextureFormatDepth32Float

	_, mainID, err := c.Resolve(main)
	require.NoError(t, err)
	_, shadowID, err := c.Resolve(shadow)
	require.NoError(t, err)

	assert.Equal(t, 2, *compiles)
	assert.NotEqual(t, mainID, shadowID)
}
