package extract

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ember-gfx/ember-go/common"
	"github.com/ember-gfx/ember-go/engine/renderer/pipeline"
)

func TestOpaqueSortKeyOrdering(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	keys := make([]uint64, 0, 1000)
	for i := 0; i < 1000; i++ {
		keys = append(keys, OpaqueSortKey(
			uint32(rng.Intn(1<<14)),
			uint32(rng.Intn(1<<20)),
			rng.Float32()*10000,
		))
	}
	sort.Slice(keys, func(a, b int) bool { return keys[a] < keys[b] })
	for i := 1; i < len(keys); i++ {
		require.LessOrEqual(t, keys[i-1], keys[i])
	}
}

func TestOpaqueSortKeyDepthAscendingWithinGroup(t *testing.T) {
	near := OpaqueSortKey(3, 7, 1.0)
	far := OpaqueSortKey(3, 7, 1000.0)
	assert.Less(t, near, far, "opaque draws sort front to back within a state group")

	// Pipeline dominates material and depth.
	assert.Less(t, OpaqueSortKey(1, 99, 9999), OpaqueSortKey(2, 0, 0))
	// Material dominates depth.
	assert.Less(t, OpaqueSortKey(1, 5, 9999), OpaqueSortKey(1, 6, 0))
}

func TestTransparentSortKeyBackToFront(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	for i := 0; i < 200; i++ {
		pipelineID := uint32(rng.Intn(1 << 14))
		materialKey := uint32(rng.Intn(1 << 20))
		nearDist := rng.Float32() * 100
		farDist := nearDist + 1 + rng.Float32()*1000

		near := TransparentSortKey(pipelineID, materialKey, nearDist)
		far := TransparentSortKey(pipelineID, materialKey, farDist)
		require.Less(t, far, near, "farther transparent draws sort first")
	}
}

func TestDepthBitsClampNegative(t *testing.T) {
	assert.Equal(t, uint64(0), depthBits(-5))
	assert.Equal(t, uint64(0), depthBits(0))
}

func testViewProj() ([]float32, [3]float32) {
	// Camera at origin looking down -Z.
	view := make([]float32, 16)
	proj := make([]float32, 16)
	viewProj := make([]float32, 16)
	common.LookAt(view, 0, 0, 0, 0, 0, -1, 0, 1, 0)
	common.Perspective(proj, 1.0, 1.0, 0.1, 100.0)
	common.Mul4(viewProj, proj, view)
	return viewProj, [3]float32{0, 0, 0}
}

func alwaysResolve(item *Item, variant pipeline.PassVariant) (DrawResolution, bool) {
	if variant == pipeline.VariantShadow {
		return DrawResolution{PipelineID: 99, MaterialKey: 1}, true
	}
	return DrawResolution{PipelineID: 1, MaterialKey: 1}, true
}

func TestFrustumCulling(t *testing.T) {
	viewProj, cam := testViewProj()
	e := NewExtractor()

	inFront := Item{Bounds: common.BoundingSphere{Radius: 1}}
	common.Identity(inFront.World[:])
	inFront.World[14] = -10 // ahead of the camera

	behind := inFront
	behind.World[14] = 10 // behind the camera

	lists := e.Extract([]Item{inFront, behind}, viewProj, cam[0], cam[1], cam[2], alwaysResolve)
	assert.Len(t, lists.Opaque, 1)
	assert.Equal(t, 1, lists.Culled)
}

func TestSphereContainingCameraIncluded(t *testing.T) {
	viewProj, cam := testViewProj()
	e := NewExtractor()

	surrounding := Item{Bounds: common.BoundingSphere{Radius: 50}}
	common.Identity(surrounding.World[:])

	lists := e.Extract([]Item{surrounding}, viewProj, cam[0], cam[1], cam[2], alwaysResolve)
	assert.Len(t, lists.Opaque, 1, "a sphere containing the camera is always visible")
}

func TestEndToEndCubeAndCulledQuad(t *testing.T) {
	viewProj, cam := testViewProj()
	e := NewExtractor()

	cube := Item{
		Bounds:      common.BoundingSphere{Radius: 1},
		GeometryID:  uuid.New(),
		MaterialID:  uuid.New(),
		CastsShadow: true,
	}
	common.Identity(cube.World[:])
	cube.World[14] = -5

	quad := Item{
		Bounds:      common.BoundingSphere{Radius: 1},
		Transparent: true,
	}
	common.Identity(quad.World[:])
	quad.World[14] = -500 // beyond the far plane

	lists := e.Extract([]Item{cube, quad}, viewProj, cam[0], cam[1], cam[2], alwaysResolve)
	assert.Len(t, lists.Opaque, 1)
	assert.Empty(t, lists.Transparent)
	assert.Len(t, lists.Shadow, 1)
	assert.Len(t, lists.ObjectUniforms, 1)
	assert.False(t, lists.UseTransmission)
	assert.Equal(t, uint32(99), lists.Shadow[0].PipelineID(), "shadow queue uses the depth-only variant")
}

func TestTransmissionFlagOnlyFromSurvivors(t *testing.T) {
	viewProj, cam := testViewProj()
	e := NewExtractor()

	visible := Item{Bounds: common.BoundingSphere{Radius: 1}, Transparent: true, UsesTransmission: true}
	common.Identity(visible.World[:])
	visible.World[14] = -5

	culled := visible
	culled.World[14] = 500

	lists := e.Extract([]Item{culled}, viewProj, cam[0], cam[1], cam[2], alwaysResolve)
	assert.False(t, lists.UseTransmission, "a culled transmission draw must not trigger the copy pass")

	lists = e.Extract([]Item{visible}, viewProj, cam[0], cam[1], cam[2], alwaysResolve)
	assert.True(t, lists.UseTransmission)
}

func TestNotReadyDrawsSkipped(t *testing.T) {
	viewProj, cam := testViewProj()
	e := NewExtractor()

	item := Item{Bounds: common.BoundingSphere{Radius: 1}}
	common.Identity(item.World[:])
	item.World[14] = -5

	lists := e.Extract([]Item{item}, viewProj, cam[0], cam[1], cam[2],
		func(*Item, pipeline.PassVariant) (DrawResolution, bool) { return DrawResolution{}, false })
	assert.Empty(t, lists.Opaque)
	assert.Empty(t, lists.ObjectUniforms)
	assert.Zero(t, lists.Culled, "a not-ready draw is skipped, not culled")
}

func TestStableOrderForEqualKeys(t *testing.T) {
	viewProj, cam := testViewProj()
	e := NewExtractor()

	a := Item{GeometryID: uuid.New()}
	common.Identity(a.World[:])
	a.World[14] = -5
	b := Item{GeometryID: uuid.New()}
	common.Identity(b.World[:])
	b.World[14] = -5

	lists := e.Extract([]Item{a, b}, viewProj, cam[0], cam[1], cam[2], alwaysResolve)
	require.Len(t, lists.Opaque, 2)
	assert.Equal(t, a.GeometryID, lists.Opaque[0].GeometryID, "equal keys keep submission order")
	assert.Equal(t, b.GeometryID, lists.Opaque[1].GeometryID)
}
