package material

import (
	"testing"
	"unsafe"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ember-gfx/ember-go/engine/resource"
)

func TestPBRMaterialDefaults(t *testing.T) {
	m := NewPBRMaterial("default")
	assert.Equal(t, "default", m.Name())
	assert.False(t, m.Transparent())
	assert.False(t, m.UsesTransmission())
	assert.True(t, m.DepthWriteEnabled())
	assert.Equal(t, wgpu.CullModeBack, m.CullMode())
	assert.Equal(t, "pbr", m.ShaderTemplate())
	assert.Empty(t, m.FeatureDefines())
}

func TestPBRMaterialVersionBumpsOnEdit(t *testing.T) {
	m := NewPBRMaterial("edited")
	v0 := m.Version()
	m.SetBaseColor(1, 0, 0, 1)
	v1 := m.Version()
	assert.Greater(t, v1, v0)
	m.SetRoughness(0.5)
	m.SetMetallic(1.0)
	assert.Greater(t, m.Version(), v1)
}

func TestPBRMaterialIdentityStableAcrossEdits(t *testing.T) {
	m := NewPBRMaterial("stable")
	id := m.ID()
	m.SetMetallic(0.3)
	m.SetTransmission(0.8)
	assert.Equal(t, id, m.ID())
}

func TestTransmissionDefineFollowsValue(t *testing.T) {
	m := NewPBRMaterial("glass")
	assert.NotContains(t, m.FeatureDefines(), "USE_TRANSMISSION")
	assert.False(t, m.UsesTransmission())

	m.SetTransmission(0.9)
	assert.Contains(t, m.FeatureDefines(), "USE_TRANSMISSION")
	assert.True(t, m.UsesTransmission())

	m.SetTransmission(0)
	assert.NotContains(t, m.FeatureDefines(), "USE_TRANSMISSION")
	assert.False(t, m.UsesTransmission())
}

func TestTextureSlotsDriveDefines(t *testing.T) {
	albedo := resource.NewImage("albedo", 4, 4, wgpu.TextureFormatRGBA8UnormSrgb)
	normal := resource.NewImage("normal", 4, 4, wgpu.TextureFormatRGBA8Unorm)
	m := NewPBRMaterial("textured",
		WithBaseColorTexture(albedo),
		WithNormalTexture(normal),
	)

	defines := m.FeatureDefines()
	assert.Contains(t, defines, "USE_BASE_COLOR_MAP")
	assert.Contains(t, defines, "USE_NORMAL_MAP")
	assert.NotContains(t, defines, "USE_METALLIC_MAP")

	slots := m.TextureSlots()
	require.Len(t, slots, 3)
	assert.Equal(t, 2, slots[0].Binding)
	assert.Equal(t, albedo, slots[0].Image)
	assert.Nil(t, slots[2].Image)
}

func TestTransparentDisablesDepthWrite(t *testing.T) {
	m := NewPBRMaterial("blended", WithTransparent())
	assert.True(t, m.Transparent())
	assert.False(t, m.DepthWriteEnabled())
}

func TestDoubleSidedDisablesCulling(t *testing.T) {
	m := NewPBRMaterial("foliage", WithDoubleSided())
	assert.Equal(t, wgpu.CullModeNone, m.CullMode())
}

func TestSchemaMatchesUniformLayout(t *testing.T) {
	m := NewPBRMaterial("layout")
	assert.Equal(t, int(unsafe.Sizeof(pbrUniform{})), len(m.UniformBytes()))

	schema := m.Schema()
	require.NotEmpty(t, schema)
	assert.Equal(t, 0, schema[0].ByteOffset)
	for i := 1; i < len(schema); i++ {
		assert.Greater(t, schema[i].ByteOffset, schema[i-1].ByteOffset)
	}
	last := schema[len(schema)-1]
	assert.LessOrEqual(t, last.ByteOffset+fieldSize(last.GPUType), len(m.UniformBytes()))
}

func TestBuilderOptionsSeedUniforms(t *testing.T) {
	m := NewPBRMaterial("seeded",
		WithBaseColor(0.2, 0.4, 0.6, 1),
		WithMetallic(0.7),
		WithRoughness(0.1),
		WithTransmission(0.5),
	)
	impl := m.(*pbrMaterial)
	assert.Equal(t, [4]float32{0.2, 0.4, 0.6, 1}, impl.uniform.BaseColor)
	assert.InDelta(t, 0.7, impl.uniform.Metallic, 1e-6)
	assert.InDelta(t, 0.1, impl.uniform.Roughness, 1e-6)
	assert.True(t, m.UsesTransmission())
}
