// package passes holds the built-in render graph nodes: shadow map, opaque,
// skybox, transmission copy, transparent, and tone map, plus the one-shot IBL
// precompute nodes. The renderer creates each node once and re-adds it to the
// frame graph every frame, so state a node must carry across frames (uniform
// buffers, samplers, precompute done flags) lives on the node itself.
package passes

import (
	"fmt"
	"strings"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/google/uuid"

	"github.com/ember-gfx/ember-go/engine/renderer/extract"
	"github.com/ember-gfx/ember-go/engine/renderer/graph"
	"github.com/ember-gfx/ember-go/engine/renderer/shader"
)

// Blackboard keys the built-in passes publish for cross-pass consumption.
const (
	// SceneColorCopyKey carries the graph.TransientTextureID of the mipped
	// scene color copy captured after the opaque and skybox passes.
	SceneColorCopyKey = "scene_color_copy"

	// SceneColorBindGroupKey carries the *wgpu.BindGroup that binds the
	// scene color copy for transmission materials.
	SceneColorBindGroupKey = "scene_color_bind_group"
)

// passMaterialID derives the stable synthetic material id a fullscreen pass
// uses in its pipeline fast key, so each pass owns its own cache slot.
//
// Parameters:
//   - name: the pass name
//
// Returns:
//   - uuid.UUID: the synthetic material id
func passMaterialID(name string) uuid.UUID {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte("ember-gfx/pass/"+name))
}

// expandShader looks up a registered template, runs the pre-processor over it
// with the given defines, and wraps the result in a Shader keyed by template,
// entry point, and define set.
//
// Parameters:
//   - reg: the shader registry holding the template
//   - template: the template key
//   - defines: pre-processor defines, may be nil
//   - shaderType: the stage the expanded shader feeds
//   - entry: the entry point name
//
// Returns:
//   - shader.Shader: the expanded shader
//   - error: missing template or pre-processor failure
func expandShader(reg shader.Registry, template string, defines []string, shaderType shader.ShaderType, entry string) (shader.Shader, error) {
	src, ok := reg.Template(template)
	if !ok {
		return nil, fmt.Errorf("shader template %q not registered", template)
	}
	expanded, err := shader.NewPreProcessor().Process(src, defines)
	if err != nil {
		return nil, fmt.Errorf("failed to expand shader template %q: %w", template, err)
	}
	key := template + "/" + entry
	if len(defines) > 0 {
		key += "+" + strings.Join(defines, "+")
	}
	return shader.NewShader(key, expanded, shaderType, entry), nil
}

// recordSceneDraws replays a sorted command list into an open render pass.
// Group 0 is the global bind group, group 1 the shared object uniforms at
// each draw's dynamic offset, group 2 the material bind group, and group 3
// the scene color copy for draws whose pipeline layout includes it.
func recordSceneDraws(pass *wgpu.RenderPassEncoder, ctx *graph.ExecuteContext, commands []extract.RenderCommand, sceneColor *wgpu.BindGroup) {
	objects := ctx.Objects.BindGroup()
	var bound *wgpu.RenderPipeline
	for i := range commands {
		cmd := &commands[i]
		res := &cmd.Resolution
		if res.Pipeline == nil || res.VertexBuffer == nil || res.IndexBuffer == nil {
			continue
		}
		if cmd.UsesTransmission && sceneColor == nil {
			continue
		}
		if res.Pipeline != bound {
			pass.SetPipeline(res.Pipeline)
			bound = res.Pipeline
		}
		pass.SetBindGroup(0, ctx.GlobalBindGroup, nil)
		pass.SetBindGroup(1, objects, []uint32{ctx.Objects.OffsetFor(cmd.ObjectIndex)})
		pass.SetBindGroup(2, res.MaterialBindGroup, nil)
		if cmd.UsesTransmission {
			pass.SetBindGroup(3, sceneColor, nil)
		}
		pass.SetVertexBuffer(0, res.VertexBuffer, 0, wgpu.WholeSize)
		pass.SetIndexBuffer(res.IndexBuffer, res.IndexFormat, 0, wgpu.WholeSize)
		pass.DrawIndexed(res.IndexCount, 1, 0, 0, 0)
	}
}

// linearSampler creates the shared linear clamp sampler fullscreen passes
// sample with.
func linearSampler(device *wgpu.Device, label string) (*wgpu.Sampler, error) {
	return device.CreateSampler(&wgpu.SamplerDescriptor{
		Label:         label,
		AddressModeU:  wgpu.AddressModeClampToEdge,
		AddressModeV:  wgpu.AddressModeClampToEdge,
		AddressModeW:  wgpu.AddressModeClampToEdge,
		MagFilter:     wgpu.FilterModeLinear,
		MinFilter:     wgpu.FilterModeLinear,
		MipmapFilter:  wgpu.MipmapFilterModeLinear,
		LodMaxClamp:   32.0,
		MaxAnisotropy: 1,
	})
}
