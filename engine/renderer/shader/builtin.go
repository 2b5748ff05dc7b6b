package shader

import (
	"embed"
	"strings"
)

// Template keys for the built-in WGSL set. Materials reference these through
// ShaderTemplate; the frame composer references the rest directly.
const (
	TemplatePBR          = "pbr"
	TemplateShadow       = "shadow"
	TemplateSkybox       = "skybox"
	TemplateToneMap      = "tone_map"
	TemplateMipBlit      = "mip_blit"
	TemplateBRDFLUT      = "brdf_lut"
	TemplateIBLPrefilter = "ibl_prefilter"
)

//go:embed assets/*.wgsl
var builtinFS embed.FS

// RegisterBuiltins loads the embedded WGSL template set into a registry.
// Templates registered from disk afterward (LoadDir, Watch) override the
// embedded versions key by key.
//
// Parameters:
//   - r: the registry to populate
func RegisterBuiltins(r Registry) {
	entries, err := builtinFS.ReadDir("assets")
	if err != nil {
		panic("shader: embedded template set unreadable: " + err.Error())
	}
	for _, entry := range entries {
		data, err := builtinFS.ReadFile("assets/" + entry.Name())
		if err != nil {
			panic("shader: embedded template unreadable: " + err.Error())
		}
		r.Register(strings.TrimSuffix(entry.Name(), ".wgsl"), string(data))
	}
}
