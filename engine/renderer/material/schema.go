package material

// FieldSpec declares one field of a material uniform block. The table form
// lets the binding builder and shader-define generation walk the block
// generically instead of hardcoding per-field handling.
type FieldSpec struct {
	// Name is the field identifier as it appears in the shader struct.
	Name string
	// GPUType is the WGSL type of the field.
	GPUType string
	// ByteOffset is the field offset within the uniform block.
	ByteOffset int
	// Define names the shader define that gates the field's contribution,
	// or empty when the field is always active.
	Define string
	// ActiveWhenNonZero marks defines that activate only while the field
	// holds a non-zero value, checked through the activeFn.
	ActiveWhenNonZero bool
}

// pbrSchema describes the standard material uniform block, field order and
// offsets matching pbrUniform.
var pbrSchema = []FieldSpec{
	{Name: "base_color", GPUType: "vec4<f32>", ByteOffset: 0},
	{Name: "metallic", GPUType: "f32", ByteOffset: 16},
	{Name: "roughness", GPUType: "f32", ByteOffset: 20},
	{Name: "transmission", GPUType: "f32", ByteOffset: 24, Define: "USE_TRANSMISSION", ActiveWhenNonZero: true},
}

// definesFor derives the active shader defines for a material from its schema
// and texture slots. Field defines activate per the schema rules and texture
// defines activate when the slot carries an image.
//
// Parameters:
//   - m: the material to inspect
//
// Returns:
//   - []string: the active define names in schema then binding order
func definesFor(m Material) []string {
	var defines []string
	uniforms := m.UniformBytes()
	for _, field := range m.Schema() {
		if field.Define == "" {
			continue
		}
		if field.ActiveWhenNonZero && !anyNonZero(uniforms, field.ByteOffset, fieldSize(field.GPUType)) {
			continue
		}
		defines = append(defines, field.Define)
	}
	for _, slot := range m.TextureSlots() {
		if slot.Image != nil && slot.Define != "" {
			defines = append(defines, slot.Define)
		}
	}
	return defines
}

func fieldSize(gpuType string) int {
	switch gpuType {
	case "f32", "u32", "i32":
		return 4
	case "vec2<f32>":
		return 8
	case "vec3<f32>":
		return 12
	case "vec4<f32>":
		return 16
	default:
		return 4
	}
}

func anyNonZero(data []byte, offset, size int) bool {
	if offset+size > len(data) {
		return false
	}
	for _, b := range data[offset : offset+size] {
		if b != 0 {
			return true
		}
	}
	return false
}
