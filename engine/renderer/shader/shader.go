// package shader holds the WGSL template set the pipeline cache compiles from.
// Templates are expanded with feature defines by the pre-processor; expanded
// source is identified by a code hash so shader modules can be deduplicated
// across pipelines sharing a stage.
package shader

import (
	"hash/fnv"

	"github.com/cogentcore/webgpu/wgpu"
)

// ShaderType identifies the pipeline stage a shader serves.
type ShaderType int

const (
	// ShaderTypeCompute indicates a shader containing a @compute entry point.
	ShaderTypeCompute ShaderType = iota

	// ShaderTypeVertex is the vertex shader type, used for vertex processing in render pipelines.
	ShaderTypeVertex

	// ShaderTypeFragment is the fragment shader type, used for fragment processing in pair with a vertex shader.
	ShaderTypeFragment
)

// shader is the implementation of the Shader interface.
type shader struct {
	key        string
	source     string
	codeHash   uint64
	shaderType ShaderType
	entryPoint string
}

// Shader is one expanded WGSL shader stage: the template key it came from, the
// fully expanded source, and a hash of that source used for module caching and
// canonical pipeline keys.
type Shader interface {
	// Key retrieves the template key for this shader, used for caching and lookups.
	//
	// Returns:
	//   - string: the shader's template key
	Key() string

	// Source retrieves the expanded WGSL source code.
	//
	// Returns:
	//   - string: the WGSL source code of the shader
	Source() string

	// CodeHash returns the hash of the expanded source. Two shaders with the
	// same code hash compile to interchangeable modules.
	//
	// Returns:
	//   - uint64: the source hash
	CodeHash() uint64

	// Type returns the pipeline stage this shader serves.
	//
	// Returns:
	//   - ShaderType: vertex, fragment, or compute
	Type() ShaderType

	// EntryPoint returns the entry point name for this shader.
	//
	// Returns:
	//   - string: the entry point name (e.g. "vs_main")
	EntryPoint() string

	// ModuleDescriptor builds the WGSL module descriptor for compilation.
	//
	// Returns:
	//   - *wgpu.ShaderModuleDescriptor: the module descriptor for this source
	ModuleDescriptor() *wgpu.ShaderModuleDescriptor
}

var _ Shader = &shader{}

// NewShader wraps expanded WGSL source as a Shader, hashing the source once.
//
// Parameters:
//   - key: the template key the source was expanded from
//   - source: the fully expanded WGSL source
//   - shaderType: the pipeline stage this shader serves
//   - entryPoint: the entry point function name
//
// Returns:
//   - Shader: a new Shader instance
func NewShader(key, source string, shaderType ShaderType, entryPoint string) Shader {
	return &shader{
		key:        key,
		source:     source,
		codeHash:   HashSource(source),
		shaderType: shaderType,
		entryPoint: entryPoint,
	}
}

// HashSource hashes WGSL source text for module deduplication.
//
// Parameters:
//   - source: the WGSL source text
//
// Returns:
//   - uint64: the FNV-1a hash of the source
func HashSource(source string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(source))
	return h.Sum64()
}

func (s *shader) Key() string {
	return s.key
}

func (s *shader) Source() string {
	return s.source
}

func (s *shader) CodeHash() uint64 {
	return s.codeHash
}

func (s *shader) Type() ShaderType {
	return s.shaderType
}

func (s *shader) EntryPoint() string {
	return s.entryPoint
}

func (s *shader) ModuleDescriptor() *wgpu.ShaderModuleDescriptor {
	return &wgpu.ShaderModuleDescriptor{
		Label:          s.key,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: s.source},
	}
}
