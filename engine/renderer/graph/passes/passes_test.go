package passes

import (
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ember-gfx/ember-go/engine/renderer/extract"
	"github.com/ember-gfx/ember-go/engine/renderer/graph"
	"github.com/ember-gfx/ember-go/engine/renderer/settings"
)

func TestPassStagesMatchFramePipelineOrder(t *testing.T) {
	assert.Equal(t, graph.StagePreProcess, NewBRDFLUTNode().Stage())
	assert.Equal(t, graph.StagePreProcess, NewIBLPrefilterNode().Stage())
	assert.Equal(t, graph.StageShadowMap, NewShadowPass(nil).Stage())
	assert.Equal(t, graph.StageOpaque, NewOpaquePass().Stage())
	assert.Equal(t, graph.StageSkybox, NewSkyboxPass().Stage())
	assert.Equal(t, graph.StageBeforeTransparent, NewTransmissionCopyPass(nil).Stage())
	assert.Equal(t, graph.StageTransparent, NewTransparentPass().Stage())
	assert.Equal(t, graph.StagePostProcess, NewToneMapPass().Stage())
	assert.Equal(t, graph.StageUI, NewOverlayPass(nil).Stage())
}

func TestOverlaySkipsWithoutCallback(t *testing.T) {
	p := NewOverlayPass(nil)
	err := p.Prepare(&graph.PrepareContext{
		Frame: &graph.FrameResources{SurfaceView: &wgpu.TextureView{}},
	})
	require.NoError(t, err)
	require.NoError(t, p.Execute(&graph.ExecuteContext{}))
}

func TestOverlaySkipsWithoutSurface(t *testing.T) {
	called := false
	p := NewOverlayPass(func(_ *wgpu.RenderPassEncoder, _ *graph.FrameResources) {
		called = true
	})
	err := p.Prepare(&graph.PrepareContext{Frame: &graph.FrameResources{}})
	require.NoError(t, err)
	require.NoError(t, p.Execute(&graph.ExecuteContext{}))
	assert.False(t, called)
}

func TestOpaquePrepareFailsWithoutFrameResources(t *testing.T) {
	p := NewOpaquePass()
	err := p.Prepare(&graph.PrepareContext{})
	require.Error(t, err)
}

func TestOpaquePrepareFailsWithoutGlobalBindGroup(t *testing.T) {
	p := NewOpaquePass()
	err := p.Prepare(&graph.PrepareContext{
		Frame: &graph.FrameResources{
			SceneView: &wgpu.TextureView{},
			DepthView: &wgpu.TextureView{},
		},
	})
	require.Error(t, err)
}

func TestShadowPassSkipsWithoutShadowLight(t *testing.T) {
	p := NewShadowPass(nil)
	err := p.Prepare(&graph.PrepareContext{
		Lists: &extract.Lists{},
		Frame: &graph.FrameResources{ShadowView: &wgpu.TextureView{}},
	})
	require.NoError(t, err)

	// A skipped prepare must leave execute a no-op even with no encoder.
	require.NoError(t, p.Execute(&graph.ExecuteContext{}))
}

func TestShadowPassSkipsWithoutCasters(t *testing.T) {
	viewProj := make([]float32, 16)
	p := NewShadowPass(nil)
	err := p.Prepare(&graph.PrepareContext{
		ShadowViewProj: viewProj,
		Lists:          &extract.Lists{},
		Frame:          &graph.FrameResources{ShadowView: &wgpu.TextureView{}},
	})
	require.NoError(t, err)
	require.NoError(t, p.Execute(&graph.ExecuteContext{}))
}

func TestSkyboxSkipsWithoutEnvironment(t *testing.T) {
	p := NewSkyboxPass()
	err := p.Prepare(&graph.PrepareContext{
		Lists: &extract.Lists{},
		Frame: &graph.FrameResources{},
	})
	require.NoError(t, err)
	require.NoError(t, p.Execute(&graph.ExecuteContext{}))
}

func TestTransmissionCopySkipsWhenUnused(t *testing.T) {
	p := NewTransmissionCopyPass(nil)
	bb := graph.NewBlackboard()
	err := p.Prepare(&graph.PrepareContext{
		Lists:      &extract.Lists{UseTransmission: false},
		Settings:   settings.DefaultRenderSettings(),
		Frame:      &graph.FrameResources{},
		Blackboard: bb,
	})
	require.NoError(t, err)
	require.NoError(t, p.Execute(&graph.ExecuteContext{}))

	_, published := bb.Get(SceneColorCopyKey)
	assert.False(t, published, "skipped copy must not publish a transient id")
}

func TestTransmissionCopySkipsWithoutHDR(t *testing.T) {
	s := settings.DefaultRenderSettings()
	s.HDR = false
	p := NewTransmissionCopyPass(nil)
	err := p.Prepare(&graph.PrepareContext{
		Lists:      &extract.Lists{UseTransmission: true},
		Settings:   s,
		Frame:      &graph.FrameResources{},
		Blackboard: graph.NewBlackboard(),
	})
	require.NoError(t, err)
	require.NoError(t, p.Execute(&graph.ExecuteContext{}))
}

func TestTransparentAttachmentResolvesAndDiscardsUnderMSAA(t *testing.T) {
	resolve := &wgpu.TextureView{}
	att := transparentColorAttachment(&graph.FrameResources{
		SceneView:        &wgpu.TextureView{},
		SceneResolveView: resolve,
	})
	assert.Equal(t, resolve, att.ResolveTarget)
	assert.Equal(t, wgpu.LoadOpLoad, att.LoadOp)
	assert.Equal(t, wgpu.StoreOpDiscard, att.StoreOp, "resolved samples are not read again")
}

func TestTransparentAttachmentStoresWithoutMSAA(t *testing.T) {
	att := transparentColorAttachment(&graph.FrameResources{SceneView: &wgpu.TextureView{}})
	assert.Nil(t, att.ResolveTarget)
	assert.Equal(t, wgpu.StoreOpStore, att.StoreOp)
}

func TestTransparentSkipsOnlyWhenNothingToResolve(t *testing.T) {
	p := NewTransparentPass()
	// Single-sample with an empty list: nothing to draw, nothing to resolve,
	// so execute must not touch the encoder.
	require.NoError(t, p.Execute(&graph.ExecuteContext{
		Lists: &extract.Lists{},
		Frame: &graph.FrameResources{SceneView: &wgpu.TextureView{}},
	}))
}

func TestSnapshotResolveKeepsSamples(t *testing.T) {
	resolve := &wgpu.TextureView{}
	att := snapshotResolveAttachment(&graph.FrameResources{
		SceneView:        &wgpu.TextureView{},
		SceneResolveView: resolve,
	})
	assert.Equal(t, resolve, att.ResolveTarget)
	assert.Equal(t, wgpu.LoadOpLoad, att.LoadOp)
	assert.Equal(t, wgpu.StoreOpStore, att.StoreOp, "the transparent pass still blends against the samples")
}

func TestToneMapSkipsWithoutSurface(t *testing.T) {
	p := NewToneMapPass()
	err := p.Prepare(&graph.PrepareContext{
		Lists: &extract.Lists{},
		Frame: &graph.FrameResources{},
	})
	require.NoError(t, err)
	require.NoError(t, p.Execute(&graph.ExecuteContext{}))
}

func TestPrecomputeNodesExposeTheirOutputViews(t *testing.T) {
	brdf, ok := NewBRDFLUTNode().(PrecomputeOutput)
	require.True(t, ok)
	assert.Nil(t, brdf.View(), "no view before the first prepare")

	prefilter, ok := NewIBLPrefilterNode().(PrecomputeOutput)
	require.True(t, ok)
	assert.Nil(t, prefilter.View())
}

func TestIBLPrefilterSkipsWithoutEnvironment(t *testing.T) {
	p := NewIBLPrefilterNode()
	err := p.Prepare(&graph.PrepareContext{Lists: &extract.Lists{}})
	require.NoError(t, err)
	require.NoError(t, p.Execute(&graph.ExecuteContext{}))
}

func TestPassMaterialIDsAreStableAndDistinct(t *testing.T) {
	assert.Equal(t, passMaterialID("skybox"), passMaterialID("skybox"))
	assert.NotEqual(t, passMaterialID("skybox"), passMaterialID("tone_map"))
	assert.NotEqual(t, passMaterialID("mip_blit"), passMaterialID("tone_map"))
}

func TestMipCountCapsChain(t *testing.T) {
	assert.Equal(t, uint32(1), mipCount(1, 1))
	assert.Equal(t, uint32(5), mipCount(16, 16))
	assert.Equal(t, uint32(5), mipCount(8, 16))
	assert.Equal(t, uint32(maxSceneCopyMips), mipCount(1920, 1080))
}
