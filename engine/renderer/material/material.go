// package material defines the renderable material contract the extractor and
// passes consume. Material kinds implement one capability interface and
// describe their uniform fields through a declarative schema table, so binding
// and shader-define generation are driven by data instead of per-field code.
package material

import (
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/google/uuid"

	"github.com/ember-gfx/ember-go/common"
	"github.com/ember-gfx/ember-go/engine/resource"
)

// TextureSlot pairs a shader binding index with the CPU image bound there.
// A nil Image leaves the slot on the dummy texture and its define inactive.
type TextureSlot struct {
	// Binding is the binding index within the material bind group.
	Binding int
	// Define is the shader feature define activated when Image is set.
	Define string
	// Image is the CPU image bound at this slot, or nil.
	Image resource.Image
}

// Material is the capability interface every material kind implements. The
// extractor reads the render-state flags and versioned identity; the prepare
// phase reads the uniform bytes, texture slots, and feature defines to build
// bind groups and resolve pipelines.
type Material interface {
	// ID returns the stable material identity.
	//
	// Returns:
	//   - uuid.UUID: the material identity
	ID() uuid.UUID

	// Name retrieves the material identifier.
	//
	// Returns:
	//   - string: the name of the material
	Name() string

	// Version returns the content version, bumped by every property edit. A
	// version bump transparently retires cached pipelines and bind groups
	// keyed on the previous version.
	//
	// Returns:
	//   - uint64: the monotonically increasing content version
	Version() uint64

	// Transparent reports whether draws with this material go to the
	// transparent queue and blend back to front.
	//
	// Returns:
	//   - bool: true for transparent materials
	Transparent() bool

	// UsesTransmission reports whether this material samples the opaque
	// scene color for refraction.
	//
	// Returns:
	//   - bool: true when transmission is above zero
	UsesTransmission() bool

	// CullMode returns the face culling mode for this material's pipelines.
	//
	// Returns:
	//   - wgpu.CullMode: the cull mode
	CullMode() wgpu.CullMode

	// DepthWriteEnabled reports whether this material's pipelines write
	// depth. Transparent materials typically do not.
	//
	// Returns:
	//   - bool: true when depth writes are enabled
	DepthWriteEnabled() bool

	// ShaderTemplate returns the stable template key this material's shader
	// variants expand from.
	//
	// Returns:
	//   - string: the shader template key
	ShaderTemplate() string

	// FeatureDefines returns the active shader defines, derived from the
	// schema table and bound texture slots.
	//
	// Returns:
	//   - []string: the active define names
	FeatureDefines() []string

	// UniformBytes returns the material uniform block as raw bytes for GPU
	// upload. The slice is a view; callers must not retain it.
	//
	// Returns:
	//   - []byte: the uniform block contents
	UniformBytes() []byte

	// TextureSlots enumerates the material's texture bindings in binding
	// order.
	//
	// Returns:
	//   - []TextureSlot: the texture slot table
	TextureSlots() []TextureSlot

	// Schema returns the declarative field table describing the uniform
	// block, used by the generic binding builder and by tooling.
	//
	// Returns:
	//   - []FieldSpec: the uniform field schema
	Schema() []FieldSpec

	// SetBaseColor sets the albedo RGBA color, bumping the version.
	//
	// Parameters:
	//   - r, g, b, a: the linear base color
	SetBaseColor(r, g, b, a float32)

	// SetMetallic sets the metallic factor, bumping the version.
	//
	// Parameters:
	//   - metallic: 0.0 dielectric to 1.0 metal
	SetMetallic(metallic float32)

	// SetRoughness sets the roughness factor, bumping the version.
	//
	// Parameters:
	//   - roughness: 0.0 smooth to 1.0 rough
	SetRoughness(roughness float32)

	// SetTransmission sets the transmission factor, bumping the version. A
	// factor above zero marks the material as transmission-using.
	//
	// Parameters:
	//   - transmission: 0.0 opaque to 1.0 fully transmissive
	SetTransmission(transmission float32)
}

// pbrUniform is the GPU uniform block for the standard material, layout
// matching the schema table in schema.go.
type pbrUniform struct {
	BaseColor    [4]float32
	Metallic     float32
	Roughness    float32
	Transmission float32
	_            float32
}

// pbrMaterial is the standard physically-based material.
type pbrMaterial struct {
	id      uuid.UUID
	name    string
	tracker resource.Tracker

	uniform     pbrUniform
	transparent bool
	doubleSided bool

	baseColorTexture resource.Image
	normalTexture    resource.Image
	metallicTexture  resource.Image
}

var _ Material = &pbrMaterial{}

// NewPBRMaterial creates the standard material with the provided options.
//
// Parameters:
//   - name: the material identifier
//   - options: variadic list of MaterialBuilderOption functions
//
// Returns:
//   - Material: a new Material instance
func NewPBRMaterial(name string, options ...MaterialBuilderOption) Material {
	m := &pbrMaterial{
		id:   uuid.New(),
		name: name,
		uniform: pbrUniform{
			BaseColor: [4]float32{1, 1, 1, 1},
			Roughness: 1.0,
		},
	}
	for _, opt := range options {
		opt(m)
	}
	return m
}

func (m *pbrMaterial) ID() uuid.UUID {
	return m.id
}

func (m *pbrMaterial) Name() string {
	return m.name
}

func (m *pbrMaterial) Version() uint64 {
	return m.tracker.Version()
}

func (m *pbrMaterial) Transparent() bool {
	return m.transparent
}

func (m *pbrMaterial) UsesTransmission() bool {
	return m.uniform.Transmission > 0
}

func (m *pbrMaterial) CullMode() wgpu.CullMode {
	if m.doubleSided {
		return wgpu.CullModeNone
	}
	return wgpu.CullModeBack
}

func (m *pbrMaterial) DepthWriteEnabled() bool {
	return !m.transparent
}

func (m *pbrMaterial) ShaderTemplate() string {
	return "pbr"
}

func (m *pbrMaterial) FeatureDefines() []string {
	return definesFor(m)
}

func (m *pbrMaterial) UniformBytes() []byte {
	return common.StructToBytes(&m.uniform)
}

func (m *pbrMaterial) TextureSlots() []TextureSlot {
	return []TextureSlot{
		{Binding: 2, Define: "USE_BASE_COLOR_MAP", Image: m.baseColorTexture},
		{Binding: 3, Define: "USE_NORMAL_MAP", Image: m.normalTexture},
		{Binding: 4, Define: "USE_METALLIC_MAP", Image: m.metallicTexture},
	}
}

func (m *pbrMaterial) Schema() []FieldSpec {
	return pbrSchema
}

func (m *pbrMaterial) SetBaseColor(r, g, b, a float32) {
	m.uniform.BaseColor = [4]float32{r, g, b, a}
	m.tracker.Bump()
}

func (m *pbrMaterial) SetMetallic(metallic float32) {
	m.uniform.Metallic = metallic
	m.tracker.Bump()
}

func (m *pbrMaterial) SetRoughness(roughness float32) {
	m.uniform.Roughness = roughness
	m.tracker.Bump()
}

func (m *pbrMaterial) SetTransmission(transmission float32) {
	m.uniform.Transmission = transmission
	m.tracker.Bump()
}
