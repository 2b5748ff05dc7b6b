package settings

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	s, err := LoadRenderSettings(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	assert.True(t, s.HDR)
	assert.Equal(t, uint32(4), s.MSAASamples)
}

func TestLoadOverridesFromTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "render.toml")
	require.NoError(t, os.WriteFile(path, []byte("hdr = false\nmsaa_samples = 1\nvsync = false\n"), 0o644))

	s, err := LoadRenderSettings(path)
	require.NoError(t, err)
	assert.False(t, s.HDR)
	assert.Equal(t, uint32(1), s.MSAASamples)
	assert.Equal(t, wgpu.TextureFormatRGBA8UnormSrgb, s.ColorFormat())
	assert.Equal(t, wgpu.PresentModeImmediate, s.PresentMode())
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "render.toml")
	require.NoError(t, os.WriteFile(path, []byte("hdr = {"), 0o644))

	_, err := LoadRenderSettings(path)
	assert.Error(t, err)
}

func TestVersionBump(t *testing.T) {
	s := DefaultRenderSettings()
	v := s.Version()
	s.Bump()
	assert.Equal(t, v+1, s.Version())
}
