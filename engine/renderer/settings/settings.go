// package settings holds the renderer configuration consumed at
// initialization. Fields that feed compiled pipeline state share one version
// counter so the pipeline cache's fast keys age out when they change.
package settings

import (
	"fmt"
	"os"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/pelletier/go-toml/v2"
)

// ToneMapMode selects the tone mapping operator applied in the post-process
// stage. Each mode is a distinct compiled pipeline variant.
type ToneMapMode int

const (
	// ToneMapReinhard is the classic Reinhard operator.
	ToneMapReinhard ToneMapMode = iota
	// ToneMapACES is the ACES filmic fit.
	ToneMapACES
	// ToneMapNone passes HDR values through clamped.
	ToneMapNone
)

// PowerPreference selects the adapter class requested at startup.
type PowerPreference string

const (
	// PowerPreferenceHighPerformance requests the discrete GPU when present.
	PowerPreferenceHighPerformance PowerPreference = "high-performance"
	// PowerPreferenceLowPower requests the integrated GPU when present.
	PowerPreferenceLowPower PowerPreference = "low-power"
)

// RenderSettings is the renderer configuration. It is read at initialization
// and on explicit Apply calls, never re-validated mid-frame.
type RenderSettings struct {
	// VSync enables FIFO presentation. View-only; does not affect pipelines.
	VSync bool `toml:"vsync"`

	// HDR renders the scene into an RGBA16Float target and tone maps to the
	// surface; transmission requires it.
	HDR bool `toml:"hdr"`

	// MSAASamples is the multisample count for scene passes (1 disables).
	MSAASamples uint32 `toml:"msaa_samples"`

	// PowerPreference selects the adapter class at startup.
	PowerPreference PowerPreference `toml:"power_preference"`

	// ToneMap selects the tone mapping operator.
	ToneMap ToneMapMode `toml:"tone_map"`

	// ShadowMapSize is the square shadow map resolution in texels.
	ShadowMapSize uint32 `toml:"shadow_map_size"`

	// ClearColor is the opaque pass clear color (linear RGBA).
	ClearColor [4]float64 `toml:"clear_color"`

	// version counts pipeline-affecting changes; see Bump.
	version uint64
}

// DefaultRenderSettings returns the settings used when no config file exists.
//
// Returns:
//   - *RenderSettings: the default configuration
func DefaultRenderSettings() *RenderSettings {
	return &RenderSettings{
		VSync:           true,
		HDR:             true,
		MSAASamples:     4,
		PowerPreference: PowerPreferenceHighPerformance,
		ToneMap:         ToneMapACES,
		ShadowMapSize:   2048,
		ClearColor:      [4]float64{0.05, 0.05, 0.08, 1.0},
	}
}

// LoadRenderSettings reads a TOML config file, falling back to defaults when
// the file does not exist. A malformed file is an initialization failure.
//
// Parameters:
//   - path: the config file path
//
// Returns:
//   - *RenderSettings: the loaded configuration
//   - error: read or parse failure
func LoadRenderSettings(path string) (*RenderSettings, error) {
	s := DefaultRenderSettings()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read render settings %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("failed to parse render settings %s: %w", path, err)
	}
	if s.MSAASamples == 0 {
		s.MSAASamples = 1
	}
	return s, nil
}

// Version returns the pipeline-affecting settings version. It participates in
// every fast pipeline key, so bumping it retires all cached fast entries.
//
// Returns:
//   - uint64: the settings version
func (s *RenderSettings) Version() uint64 {
	return s.version
}

// Bump records a pipeline-affecting settings change (HDR, MSAA, formats).
// View-only changes such as vsync or clear color must not call it.
func (s *RenderSettings) Bump() {
	s.version++
}

// ColorFormat returns the scene color target format for these settings.
//
// Returns:
//   - wgpu.TextureFormat: RGBA16Float in HDR mode, RGBA8UnormSrgb otherwise
func (s *RenderSettings) ColorFormat() wgpu.TextureFormat {
	if s.HDR {
		return wgpu.TextureFormatRGBA16Float
	}
	return wgpu.TextureFormatRGBA8UnormSrgb
}

// DepthFormat returns the scene depth format.
//
// Returns:
//   - wgpu.TextureFormat: the depth attachment format
func (s *RenderSettings) DepthFormat() wgpu.TextureFormat {
	return wgpu.TextureFormatDepth24Plus
}

// PresentMode returns the surface present mode for these settings.
//
// Returns:
//   - wgpu.PresentMode: Fifo with vsync, Immediate otherwise
func (s *RenderSettings) PresentMode() wgpu.PresentMode {
	if s.VSync {
		return wgpu.PresentModeFifo
	}
	return wgpu.PresentModeImmediate
}
