package shader

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterBuiltinsLoadsTemplateSet(t *testing.T) {
	r := NewRegistry()
	RegisterBuiltins(r)

	for _, key := range []string{
		TemplatePBR, TemplateShadow, TemplateSkybox,
		TemplateToneMap, TemplateMipBlit, TemplateBRDFLUT, TemplateIBLPrefilter,
	} {
		src, ok := r.Template(key)
		require.True(t, ok, "missing builtin template %q", key)
		assert.NotEmpty(t, src)
	}
}

func TestBuiltinPBRVariantsExpand(t *testing.T) {
	r := NewRegistry()
	RegisterBuiltins(r)
	src, ok := r.Template(TemplatePBR)
	require.True(t, ok)

	pp := NewPreProcessor()
	plain, err := pp.Process(src, nil)
	require.NoError(t, err)
	textured, err := pp.Process(src, []string{"USE_BASE_COLOR_MAP", "USE_NORMAL_MAP"})
	require.NoError(t, err)

	assert.NotEqual(t, plain, textured)
	assert.NotContains(t, plain, "//#ifdef")
	assert.NotContains(t, textured, "//#ifdef")
	assert.Contains(t, textured, "textureSample(base_color_map")
	assert.NotContains(t, plain, "textureSample(base_color_map")
}

func TestBuiltinPBRConsumesPrecomputedIBL(t *testing.T) {
	r := NewRegistry()
	RegisterBuiltins(r)
	src, ok := r.Template(TemplatePBR)
	require.True(t, ok)

	// The ambient specular term samples both precompute outputs in every
	// variant, so the BRDF LUT and prefilter passes always have a consumer.
	assert.Contains(t, src, "var brdf_lut")
	assert.Contains(t, src, "var prefiltered_env")
	assert.Contains(t, src, "textureSampleLevel(brdf_lut")
	assert.Contains(t, src, "sample_prefiltered_env(reflected")
}
