package graph

import (
	"errors"
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStageOrderingInvariant(t *testing.T) {
	stages := []RenderStage{
		StagePreProcess, StageShadowMap, StageOpaque, StageSkybox,
		StageBeforeTransparent, StageTransparent, StagePostProcess, StageUI,
	}
	for i := 0; i < len(stages); i++ {
		for j := i + 1; j < len(stages); j++ {
			assert.Less(t, stages[i], stages[j], "%s must precede %s", stages[i], stages[j])
		}
	}
}

// recordingNode logs the order its phases ran in.
type recordingNode struct {
	name       string
	stage      RenderStage
	prepareErr error
	log        *[]string
}

func (n *recordingNode) Name() string       { return n.name }
func (n *recordingNode) Stage() RenderStage { return n.stage }

func (n *recordingNode) Prepare(*PrepareContext) error {
	*n.log = append(*n.log, "prepare:"+n.name)
	return n.prepareErr
}

func (n *recordingNode) Execute(*ExecuteContext) error {
	*n.log = append(*n.log, "execute:"+n.name)
	return nil
}

func TestGraphRunsNodesInStageThenInsertionOrder(t *testing.T) {
	var order []string
	g := NewGraph()
	g.Add(&recordingNode{name: "tone_map", stage: StagePostProcess, log: &order})
	g.Add(&recordingNode{name: "opaque", stage: StageOpaque, log: &order})
	g.Add(&recordingNode{name: "shadow", stage: StageShadowMap, log: &order})
	g.Add(&recordingNode{name: "opaque_b", stage: StageOpaque, log: &order})

	g.Prepare(&PrepareContext{})
	g.Execute(&ExecuteContext{})

	assert.Equal(t, []string{
		"prepare:shadow", "prepare:opaque", "prepare:opaque_b", "prepare:tone_map",
		"execute:shadow", "execute:opaque", "execute:opaque_b", "execute:tone_map",
	}, order)
}

func TestFailedPrepareSkipsOnlyThatNode(t *testing.T) {
	var order []string
	g := NewGraph()
	g.Add(&recordingNode{name: "broken", stage: StageOpaque, prepareErr: errors.New("no global bind group"), log: &order})
	g.Add(&recordingNode{name: "next", stage: StageTransparent, log: &order})

	g.Prepare(&PrepareContext{})
	g.Execute(&ExecuteContext{})

	assert.Contains(t, order, "prepare:broken")
	assert.NotContains(t, order, "execute:broken", "a failed node must not execute")
	assert.Contains(t, order, "execute:next", "later nodes run regardless of a skipped predecessor")
}

func TestBlackboardRoundTrip(t *testing.T) {
	b := NewBlackboard()
	b.Set("transmission_copy", TransientTextureID(3))

	v, ok := b.Get("transmission_copy")
	require.True(t, ok)
	assert.Equal(t, TransientTextureID(3), v)

	b.Clear()
	_, ok = b.Get("transmission_copy")
	assert.False(t, ok)
}

func newTestPool() *TransientPool {
	p := NewTransientPool(nil)
	p.allocate = func(label string, desc TransientDescriptor) (*wgpu.Texture, *wgpu.TextureView, error) {
		return nil, nil, nil
	}
	return p
}

func TestTransientPoolRecyclesByDescriptor(t *testing.T) {
	p := newTestPool()
	desc := TransientDescriptor{Width: 256, Height: 256, Format: wgpu.TextureFormatRGBA16Float, Usage: wgpu.TextureUsageRenderAttachment, MipCount: 1}

	_, err := p.Acquire("scene copy", desc)
	require.NoError(t, err)
	require.Equal(t, uint64(1), p.Allocations())
	p.Reset()

	// Same descriptor next frame: recycled, not reallocated.
	_, err = p.Acquire("scene copy", desc)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), p.Allocations())

	// Different descriptor allocates fresh.
	other := desc
	other.Width = 512
	_, err = p.Acquire("scene copy", other)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), p.Allocations())
}

func TestTransientPoolIDsFrameScoped(t *testing.T) {
	p := newTestPool()
	desc := TransientDescriptor{Width: 64, Height: 64}

	id, err := p.Acquire("t", desc)
	require.NoError(t, err)
	assert.Equal(t, desc, p.Descriptor(id))

	p.Reset()
	assert.Panics(t, func() { p.View(id) }, "ids do not survive Reset")
}

func TestTransientPoolTrim(t *testing.T) {
	p := newTestPool()
	desc := TransientDescriptor{Width: 128, Height: 128}

	_, err := p.Acquire("t", desc)
	require.NoError(t, err)
	p.Reset()

	// Idle the entry past the threshold.
	for i := 0; i < 5; i++ {
		p.Reset()
	}
	p.Trim(3)

	_, err = p.Acquire("t", desc)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), p.Allocations(), "trimmed entries are gone from the free list")
}
