package material

import (
	"github.com/ember-gfx/ember-go/engine/resource"
)

type MaterialBuilderOption func(*pbrMaterial)

// WithBaseColor sets the initial albedo RGBA color.
//
// Parameters:
//   - r, g, b, a: the linear base color
//
// Returns:
//   - MaterialBuilderOption: function that can be passed to the builder to modify the material
func WithBaseColor(r, g, b, a float32) MaterialBuilderOption {
	return func(m *pbrMaterial) {
		m.uniform.BaseColor = [4]float32{r, g, b, a}
	}
}

// WithMetallic sets the initial metallic factor.
//
// Parameters:
//   - metallic: 0.0 dielectric to 1.0 metal
//
// Returns:
//   - MaterialBuilderOption: function that can be passed to the builder to modify the material
func WithMetallic(metallic float32) MaterialBuilderOption {
	return func(m *pbrMaterial) {
		m.uniform.Metallic = metallic
	}
}

// WithRoughness sets the initial roughness factor.
//
// Parameters:
//   - roughness: 0.0 smooth to 1.0 rough
//
// Returns:
//   - MaterialBuilderOption: function that can be passed to the builder to modify the material
func WithRoughness(roughness float32) MaterialBuilderOption {
	return func(m *pbrMaterial) {
		m.uniform.Roughness = roughness
	}
}

// WithTransmission sets the initial transmission factor.
//
// Parameters:
//   - transmission: 0.0 opaque to 1.0 fully transmissive
//
// Returns:
//   - MaterialBuilderOption: function that can be passed to the builder to modify the material
func WithTransmission(transmission float32) MaterialBuilderOption {
	return func(m *pbrMaterial) {
		m.uniform.Transmission = transmission
	}
}

// WithTransparent marks the material as alpha blended.
//
// Returns:
//   - MaterialBuilderOption: function that can be passed to the builder to modify the material
func WithTransparent() MaterialBuilderOption {
	return func(m *pbrMaterial) {
		m.transparent = true
	}
}

// WithDoubleSided disables back face culling for the material.
//
// Returns:
//   - MaterialBuilderOption: function that can be passed to the builder to modify the material
func WithDoubleSided() MaterialBuilderOption {
	return func(m *pbrMaterial) {
		m.doubleSided = true
	}
}

// WithBaseColorTexture binds the albedo texture slot.
//
// Parameters:
//   - image: the CPU image sampled for base color
//
// Returns:
//   - MaterialBuilderOption: function that can be passed to the builder to modify the material
func WithBaseColorTexture(image resource.Image) MaterialBuilderOption {
	return func(m *pbrMaterial) {
		m.baseColorTexture = image
	}
}

// WithNormalTexture binds the normal map texture slot.
//
// Parameters:
//   - image: the CPU image sampled for tangent space normals
//
// Returns:
//   - MaterialBuilderOption: function that can be passed to the builder to modify the material
func WithNormalTexture(image resource.Image) MaterialBuilderOption {
	return func(m *pbrMaterial) {
		m.normalTexture = image
	}
}

// WithMetallicRoughnessTexture binds the metallic-roughness texture slot.
//
// Parameters:
//   - image: the CPU image sampled for metallic and roughness factors
//
// Returns:
//   - MaterialBuilderOption: function that can be passed to the builder to modify the material
func WithMetallicRoughnessTexture(image resource.Image) MaterialBuilderOption {
	return func(m *pbrMaterial) {
		m.metallicTexture = image
	}
}
