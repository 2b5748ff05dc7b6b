package shader

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testTemplate = `fn base() {}
//#ifdef USE_NORMAL_MAP
fn normal_map() {}
//#else
fn flat_normal() {}
//#endif
fn tail() {}`

func TestProcessKeepsActiveBranch(t *testing.T) {
	pp := NewPreProcessor()

	out, err := pp.Process(testTemplate, []string{"USE_NORMAL_MAP"})
	require.NoError(t, err)
	assert.Contains(t, out, "fn normal_map()")
	assert.NotContains(t, out, "fn flat_normal()")
	assert.Contains(t, out, "fn tail()")
}

func TestProcessDropsInactiveBranch(t *testing.T) {
	pp := NewPreProcessor()

	out, err := pp.Process(testTemplate, nil)
	require.NoError(t, err)
	assert.NotContains(t, out, "fn normal_map()")
	assert.Contains(t, out, "fn flat_normal()")
}

func TestProcessDeterministicAcrossDefineOrder(t *testing.T) {
	pp := NewPreProcessor()

	a, err := pp.Process(testTemplate, []string{"B", "A"})
	require.NoError(t, err)
	b, err := pp.Process(testTemplate, []string{"A", "B"})
	require.NoError(t, err)
	assert.Equal(t, HashSource(a), HashSource(b), "define order must not change the code hash")
}

func TestProcessRejectsUnbalancedBlocks(t *testing.T) {
	pp := NewPreProcessor()

	_, err := pp.Process("//#ifdef X\nfn a() {}", nil)
	assert.Error(t, err)

	_, err = pp.Process("//#endif", nil)
	assert.Error(t, err)
}

func TestShaderCodeHashDistinguishesVariants(t *testing.T) {
	pp := NewPreProcessor()

	plain, err := pp.Process(testTemplate, nil)
	require.NoError(t, err)
	mapped, err := pp.Process(testTemplate, []string{"USE_NORMAL_MAP"})
	require.NoError(t, err)

	s1 := NewShader("pbr", plain, ShaderTypeFragment, "fs_main")
	s2 := NewShader("pbr", mapped, ShaderTypeFragment, "fs_main")
	assert.NotEqual(t, s1.CodeHash(), s2.CodeHash())
	assert.Equal(t, s1.Key(), s2.Key())
}

func TestRegistryTemplates(t *testing.T) {
	r := NewRegistry(WithTemplates(map[string]string{"pbr": "fn a() {}"}))
	defer r.Release()

	src, ok := r.Template("pbr")
	require.True(t, ok)
	assert.Equal(t, "fn a() {}", src)

	r.Register("pbr", "fn b() {}")
	src, _ = r.Template("pbr")
	assert.Equal(t, "fn b() {}", src, "re-registering replaces the template in place")

	_, ok = r.Template("missing")
	assert.False(t, ok)
}
